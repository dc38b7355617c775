package ast

// WhereClauseKind discriminates the two primitive constraint forms.
type WhereClauseKind uint8

const (
	// WhereImplemented asserts that a trait reference holds.
	WhereImplemented WhereClauseKind = iota
	// WhereProjectionEq equates a selected projection with a type.
	WhereProjectionEq
)

func (k WhereClauseKind) String() string {
	switch k {
	case WhereImplemented:
		return "Implemented"
	case WhereProjectionEq:
		return "ProjectionEq"
	default:
		return "Unknown"
	}
}

// WhereClause is one constraint. Implemented carries a TraitRef,
// ProjectionEq carries a ProjectionEqData.
type WhereClause struct {
	Kind WhereClauseKind
	Data WhereClauseData
}

// WhereClauseData is the payload of a WhereClause.
type WhereClauseData interface {
	whereClauseData()
}

func (w WhereClause) Equal(other WhereClause) bool {
	if w.Kind != other.Kind {
		return false
	}
	switch w.Kind {
	case WhereImplemented:
		a, aok := w.Data.(TraitRef)
		b, bok := other.Data.(TraitRef)
		return aok && bok && a.Equal(b)
	case WhereProjectionEq:
		a, aok := w.Data.(ProjectionEqData)
		b, bok := other.Data.(ProjectionEqData)
		return aok && bok && a.Equal(b)
	default:
		return false
	}
}

func (WhereClause) domainGoalData() {}

// ProjectionEqData states that a selected projection equals a type.
// It is a constraint form, distinct from the Normalize proposition.
type ProjectionEqData struct {
	Projection ProjectionTy
	Ty         Ty
}

func (p ProjectionEqData) Equal(other ProjectionEqData) bool {
	return p.Projection.Equal(other.Projection) && p.Ty.Equal(other.Ty)
}

func (ProjectionEqData) whereClauseData() {}

// QuantifiedWhereClause wraps a WhereClause in its own binder of
// parameter kinds. An empty binder is the common degenerate case.
type QuantifiedWhereClause struct {
	Params []ParameterKind
	Clause WhereClause
}

func (q QuantifiedWhereClause) Equal(other QuantifiedWhereClause) bool {
	return parameterKindsEqual(q.Params, other.Params) && q.Clause.Equal(other.Clause)
}

func quantifiedWhereClausesEqual(a, b []QuantifiedWhereClause) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}

// DomainGoalKind enumerates the provable propositions of the domain.
type DomainGoalKind uint8

const (
	// DomainHolds lifts a WhereClause into a proposition.
	DomainHolds DomainGoalKind = iota
	// DomainNormalize asks that a projection normalizes to a type.
	DomainNormalize
	// DomainTraitRefWellFormed asserts well-formedness of a trait reference.
	DomainTraitRefWellFormed
	// DomainTyWellFormed asserts well-formedness of a type.
	DomainTyWellFormed
	// DomainTyFromEnv reads a type's well-formedness from the environment.
	DomainTyFromEnv
	// DomainTraitRefFromEnv reads a trait reference from the environment.
	DomainTraitRefFromEnv
	// DomainTraitInScope asserts that a trait name is in scope.
	DomainTraitInScope
	// DomainDerefs relates a source type to its deref target.
	DomainDerefs
	// DomainIsLocal classifies a type as local to the current crate.
	DomainIsLocal
	// DomainIsExternal classifies a type as external.
	DomainIsExternal
	// DomainIsDeeplyExternal classifies a type and its arguments as external.
	DomainIsDeeplyExternal
	// DomainLocalImplAllowed asks whether a local impl of the trait reference is permitted.
	DomainLocalImplAllowed
)

func (k DomainGoalKind) String() string {
	switch k {
	case DomainHolds:
		return "Holds"
	case DomainNormalize:
		return "Normalize"
	case DomainTraitRefWellFormed:
		return "TraitRefWellFormed"
	case DomainTyWellFormed:
		return "TyWellFormed"
	case DomainTyFromEnv:
		return "TyFromEnv"
	case DomainTraitRefFromEnv:
		return "TraitRefFromEnv"
	case DomainTraitInScope:
		return "TraitInScope"
	case DomainDerefs:
		return "Derefs"
	case DomainIsLocal:
		return "IsLocal"
	case DomainIsExternal:
		return "IsExternal"
	case DomainIsDeeplyExternal:
		return "IsDeeplyExternal"
	case DomainLocalImplAllowed:
		return "LocalImplAllowed"
	default:
		return "Unknown"
	}
}

// DomainGoal is an atomic proposition. The payload depends on the
// kind: a WhereClause for Holds, NormalizeData for Normalize, a
// TraitRef for the trait-ref kinds, a Ty for the type kinds, an
// Identifier for TraitInScope and DerefsData for Derefs. Domain goals
// never nest inside each other.
type DomainGoal struct {
	Kind DomainGoalKind
	Data DomainGoalData
}

// DomainGoalData is the payload of a DomainGoal.
type DomainGoalData interface {
	domainGoalData()
}

func (g DomainGoal) Equal(other DomainGoal) bool {
	if g.Kind != other.Kind {
		return false
	}
	switch g.Kind {
	case DomainHolds:
		a, aok := g.Data.(WhereClause)
		b, bok := other.Data.(WhereClause)
		return aok && bok && a.Equal(b)
	case DomainNormalize:
		a, aok := g.Data.(NormalizeData)
		b, bok := other.Data.(NormalizeData)
		return aok && bok && a.Equal(b)
	case DomainTraitRefWellFormed, DomainTraitRefFromEnv, DomainLocalImplAllowed:
		a, aok := g.Data.(TraitRef)
		b, bok := other.Data.(TraitRef)
		return aok && bok && a.Equal(b)
	case DomainTyWellFormed, DomainTyFromEnv, DomainIsLocal, DomainIsExternal, DomainIsDeeplyExternal:
		a, aok := g.Data.(Ty)
		b, bok := other.Data.(Ty)
		return aok && bok && a.Equal(b)
	case DomainTraitInScope:
		a, aok := g.Data.(Identifier)
		b, bok := other.Data.(Identifier)
		return aok && bok && a.Equal(b)
	case DomainDerefs:
		a, aok := g.Data.(DerefsData)
		b, bok := other.Data.(DerefsData)
		return aok && bok && a.Equal(b)
	default:
		return false
	}
}

func (DomainGoal) leafGoalData() {}

// NormalizeData states that a projection normalizes to a type. It is
// a proposition, distinct from the ProjectionEq constraint form.
type NormalizeData struct {
	Projection ProjectionTy
	Ty         Ty
}

func (n NormalizeData) Equal(other NormalizeData) bool {
	return n.Projection.Equal(other.Projection) && n.Ty.Equal(other.Ty)
}

func (NormalizeData) domainGoalData() {}

// DerefsData relates a source type to the target it dereferences to.
type DerefsData struct {
	Source Ty
	Target Ty
}

func (d DerefsData) Equal(other DerefsData) bool {
	return d.Source.Equal(other.Source) && d.Target.Equal(other.Target)
}

func (DerefsData) domainGoalData() {}

// LeafGoalKind discriminates the atoms of the goal tree.
type LeafGoalKind uint8

const (
	// LeafDomain is a domain proposition.
	LeafDomain LeafGoalKind = iota
	// LeafUnifyTys obliges two types to unify.
	LeafUnifyTys
	// LeafUnifyLifetimes obliges two lifetimes to unify.
	LeafUnifyLifetimes
)

func (k LeafGoalKind) String() string {
	switch k {
	case LeafDomain:
		return "Domain"
	case LeafUnifyTys:
		return "UnifyTys"
	case LeafUnifyLifetimes:
		return "UnifyLifetimes"
	default:
		return "Unknown"
	}
}

// LeafGoal is an atomic goal: a DomainGoal or a unification
// obligation between two terms of the same sort.
type LeafGoal struct {
	Kind LeafGoalKind
	Data LeafGoalData
}

// LeafGoalData is the payload of a LeafGoal.
type LeafGoalData interface {
	leafGoalData()
}

func (l LeafGoal) Equal(other LeafGoal) bool {
	if l.Kind != other.Kind {
		return false
	}
	switch l.Kind {
	case LeafDomain:
		a, aok := l.Data.(DomainGoal)
		b, bok := other.Data.(DomainGoal)
		return aok && bok && a.Equal(b)
	case LeafUnifyTys:
		a, aok := l.Data.(UnifyTysData)
		b, bok := other.Data.(UnifyTysData)
		return aok && bok && a.Equal(b)
	case LeafUnifyLifetimes:
		a, aok := l.Data.(UnifyLifetimesData)
		b, bok := other.Data.(UnifyLifetimesData)
		return aok && bok && a.Equal(b)
	default:
		return false
	}
}

func (LeafGoal) goalData() {}

// UnifyTysData obliges two types to unify. The pair is ordered.
type UnifyTysData struct {
	A Ty
	B Ty
}

func (u UnifyTysData) Equal(other UnifyTysData) bool {
	return u.A.Equal(other.A) && u.B.Equal(other.B)
}

func (UnifyTysData) leafGoalData() {}

// UnifyLifetimesData obliges two lifetimes to unify. The pair is ordered.
type UnifyLifetimesData struct {
	A Lifetime
	B Lifetime
}

func (u UnifyLifetimesData) Equal(other UnifyLifetimesData) bool {
	return u.A.Equal(other.A) && u.B.Equal(other.B)
}

func (UnifyLifetimesData) leafGoalData() {}

// Clause is one Horn-like rule: the consequence holds whenever every
// condition holds. The parameter kinds quantify over the whole rule
// and an empty condition list makes it an unconditional fact.
type Clause struct {
	Params      []ParameterKind
	Consequence DomainGoal
	Conditions  []Goal
}

func (c *Clause) Equal(other *Clause) bool {
	if !parameterKindsEqual(c.Params, other.Params) ||
		!c.Consequence.Equal(other.Consequence) ||
		len(c.Conditions) != len(other.Conditions) {
		return false
	}
	for i := range c.Conditions {
		if !c.Conditions[i].Equal(other.Conditions[i]) {
			return false
		}
	}
	return true
}

func (*Clause) itemData() {}

// GoalKind enumerates the goal connectives.
type GoalKind uint8

const (
	// GoalForAll universally quantifies the subgoal.
	GoalForAll GoalKind = iota
	// GoalExists existentially quantifies the subgoal.
	GoalExists
	// GoalImplies proves the subgoal under hypothetical clauses.
	GoalImplies
	// GoalAnd conjoins two subgoals.
	GoalAnd
	// GoalNot negates the subgoal.
	GoalNot
	// GoalLeaf is an atomic goal.
	GoalLeaf
)

func (k GoalKind) String() string {
	switch k {
	case GoalForAll:
		return "ForAll"
	case GoalExists:
		return "Exists"
	case GoalImplies:
		return "Implies"
	case GoalAnd:
		return "And"
	case GoalNot:
		return "Not"
	case GoalLeaf:
		return "Leaf"
	default:
		return "Unknown"
	}
}

// Goal is a node of the goal tree. ForAll and Exists share the
// QuantifierData payload and are told apart by the kind alone.
type Goal struct {
	Kind GoalKind
	Data GoalData
}

// GoalData is the payload of a Goal.
type GoalData interface {
	goalData()
}

func (g Goal) Equal(other Goal) bool {
	if g.Kind != other.Kind {
		return false
	}
	switch g.Kind {
	case GoalForAll, GoalExists:
		a, aok := g.Data.(QuantifierData)
		b, bok := other.Data.(QuantifierData)
		return aok && bok && a.Equal(b)
	case GoalImplies:
		a, aok := g.Data.(ImpliesData)
		b, bok := other.Data.(ImpliesData)
		return aok && bok && a.Equal(b)
	case GoalAnd:
		a, aok := g.Data.(AndData)
		b, bok := other.Data.(AndData)
		return aok && bok && a.Equal(b)
	case GoalNot:
		a, aok := g.Data.(NotData)
		b, bok := other.Data.(NotData)
		return aok && bok && a.Equal(b)
	case GoalLeaf:
		a, aok := g.Data.(LeafGoal)
		b, bok := other.Data.(LeafGoal)
		return aok && bok && a.Equal(b)
	default:
		return false
	}
}

// QuantifierData binds parameter kinds over a subgoal. Used by both
// ForAll and Exists.
type QuantifierData struct {
	Params []ParameterKind
	Goal   *Goal
}

func (q QuantifierData) Equal(other QuantifierData) bool {
	return parameterKindsEqual(q.Params, other.Params) && q.Goal.Equal(*other.Goal)
}

func (QuantifierData) goalData() {}

// ImpliesData proves a subgoal under hypothetically assumed clauses.
type ImpliesData struct {
	Clauses []Clause
	Goal    *Goal
}

func (im ImpliesData) Equal(other ImpliesData) bool {
	if len(im.Clauses) != len(other.Clauses) {
		return false
	}
	for i := range im.Clauses {
		if !im.Clauses[i].Equal(&other.Clauses[i]) {
			return false
		}
	}
	return im.Goal.Equal(*other.Goal)
}

func (ImpliesData) goalData() {}

// AndData conjoins two subgoals in order.
type AndData struct {
	Left  *Goal
	Right *Goal
}

func (a AndData) Equal(other AndData) bool {
	return a.Left.Equal(*other.Left) && a.Right.Equal(*other.Right)
}

func (AndData) goalData() {}

// NotData negates a subgoal.
type NotData struct {
	Goal *Goal
}

func (n NotData) Equal(other NotData) bool {
	return n.Goal.Equal(*other.Goal)
}

func (NotData) goalData() {}

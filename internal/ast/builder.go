package ast

import (
	"fmt"

	"quill/internal/source"
)

// BindError reports a name bound twice within one binder list. First
// and Dup are the two occurrences in binder order.
type BindError struct {
	Name  string
	First Identifier
	Dup   Identifier
}

func (e *BindError) Error() string {
	return fmt.Sprintf("name %q bound twice in one binder list", e.Name)
}

// Builder constructs terms against a single intern table. Only binder
// introduction can fail: methods that accept a binder list return a
// *BindError when a name repeats inside that list. Everything else is
// plain value construction.
//
// Identifiers passed to builder methods must come from the same intern
// table the builder holds.
type Builder struct {
	interner *source.Interner
}

// NewBuilder returns a builder over the given intern table.
func NewBuilder(interner *source.Interner) *Builder {
	return &Builder{interner: interner}
}

// Interner exposes the intern table terms built here refer into.
func (b *Builder) Interner() *source.Interner { return b.interner }

// Ident interns text and records the occurrence span.
func (b *Builder) Ident(text string, span source.Span) Identifier {
	return Identifier{Name: b.interner.Intern(text), Span: span}
}

// bindNames rejects a repeated name in one binder list. The reported
// occurrences preserve binder order.
func (b *Builder) bindNames(names []Identifier) error {
	if len(names) < 2 {
		return nil
	}
	seen := make(map[source.StringID]Identifier, len(names))
	for _, name := range names {
		if first, ok := seen[name.Name]; ok {
			return &BindError{Name: b.interner.MustLookup(name.Name), First: first, Dup: name}
		}
		seen[name.Name] = name
	}
	return nil
}

// bindParams rejects a repeated name in a parameter-kind list. Names
// clash across sorts: a type parameter and a lifetime parameter cannot
// share a name within one binder.
func (b *Builder) bindParams(kinds []ParameterKind) error {
	if len(kinds) < 2 {
		return nil
	}
	seen := make(map[source.StringID]Identifier, len(kinds))
	for _, pk := range kinds {
		if first, ok := seen[pk.Name.Name]; ok {
			return &BindError{Name: b.interner.MustLookup(pk.Name.Name), First: first, Dup: pk.Name}
		}
		seen[pk.Name.Name] = pk.Name
	}
	return nil
}

// ForAllTy binds lifetime names over a type body.
func (b *Builder) ForAllTy(lifetimes []Identifier, body Ty) (Ty, error) {
	if err := b.bindNames(lifetimes); err != nil {
		return Ty{}, err
	}
	return Ty{Kind: TyForAll, Data: ForAllData{Lifetimes: lifetimes, Ty: &body}}, nil
}

// Quantify binds parameter kinds over a where clause. An empty binder
// yields the common unquantified form.
func (b *Builder) Quantify(params []ParameterKind, clause WhereClause) (QuantifiedWhereClause, error) {
	if err := b.bindParams(params); err != nil {
		return QuantifiedWhereClause{}, err
	}
	return QuantifiedWhereClause{Params: params, Clause: clause}, nil
}

// ForAll universally quantifies a goal. An empty binder is a legal
// no-op wrapper.
func (b *Builder) ForAll(params []ParameterKind, goal Goal) (Goal, error) {
	if err := b.bindParams(params); err != nil {
		return Goal{}, err
	}
	return Goal{Kind: GoalForAll, Data: QuantifierData{Params: params, Goal: &goal}}, nil
}

// Exists existentially quantifies a goal. An empty binder is a legal
// no-op wrapper.
func (b *Builder) Exists(params []ParameterKind, goal Goal) (Goal, error) {
	if err := b.bindParams(params); err != nil {
		return Goal{}, err
	}
	return Goal{Kind: GoalExists, Data: QuantifierData{Params: params, Goal: &goal}}, nil
}

// Clause builds one rule: the consequence holds when all conditions
// hold. No conditions makes it an unconditional fact.
func (b *Builder) Clause(params []ParameterKind, consequence DomainGoal, conditions ...Goal) (*Clause, error) {
	if err := b.bindParams(params); err != nil {
		return nil, err
	}
	return &Clause{Params: params, Consequence: consequence, Conditions: conditions}, nil
}

// Struct builds a struct declaration.
func (b *Builder) Struct(name Identifier, params []ParameterKind, where []QuantifiedWhereClause, fields []Field, flags StructFlags) (*StructDefn, error) {
	if err := b.bindParams(params); err != nil {
		return nil, err
	}
	return &StructDefn{Name: name, Params: params, Where: where, Fields: fields, Flags: flags}, nil
}

// Trait builds a trait declaration.
func (b *Builder) Trait(name Identifier, params []ParameterKind, where []QuantifiedWhereClause, assocTys []AssocTyDefn, flags TraitFlags) (*TraitDefn, error) {
	if err := b.bindParams(params); err != nil {
		return nil, err
	}
	return &TraitDefn{Name: name, Params: params, Where: where, AssocTys: assocTys, Flags: flags}, nil
}

// AssocTy builds an associated-type declaration.
func (b *Builder) AssocTy(name Identifier, params []ParameterKind, bounds []InlineBound, where []QuantifiedWhereClause) (AssocTyDefn, error) {
	if err := b.bindParams(params); err != nil {
		return AssocTyDefn{}, err
	}
	return AssocTyDefn{Name: name, Params: params, Bounds: bounds, Where: where}, nil
}

// AssocTyValue builds one associated-type binding of an impl.
func (b *Builder) AssocTyValue(name Identifier, params []ParameterKind, value Ty) (AssocTyValue, error) {
	if err := b.bindParams(params); err != nil {
		return AssocTyValue{}, err
	}
	return AssocTyValue{Name: name, Params: params, Value: value}, nil
}

// Impl builds a trait implementation. Polarity arrives already
// attached through PolarizeTraitRef.
func (b *Builder) Impl(params []ParameterKind, ref PolarizedTraitRef, where []QuantifiedWhereClause, values []AssocTyValue) (*Impl, error) {
	if err := b.bindParams(params); err != nil {
		return nil, err
	}
	return &Impl{Params: params, TraitRef: ref, Where: where, AssocTyValues: values}, nil
}

// AndGoal conjoins two goals.
func AndGoal(left, right Goal) Goal {
	return Goal{Kind: GoalAnd, Data: AndData{Left: &left, Right: &right}}
}

// NotGoal negates a goal.
func NotGoal(g Goal) Goal {
	return Goal{Kind: GoalNot, Data: NotData{Goal: &g}}
}

// ImpliesGoal hypothesizes clauses while proving a goal. The node
// itself binds no names; each clause was checked when it was built.
func ImpliesGoal(clauses []Clause, g Goal) Goal {
	return Goal{Kind: GoalImplies, Data: ImpliesData{Clauses: clauses, Goal: &g}}
}

// DomainLeaf wraps a domain proposition as an atomic goal.
func DomainLeaf(g DomainGoal) Goal {
	return Goal{Kind: GoalLeaf, Data: LeafGoal{Kind: LeafDomain, Data: g}}
}

// UnifyTysLeaf wraps a type unification obligation as an atomic goal.
func UnifyTysLeaf(a, b Ty) Goal {
	return Goal{Kind: GoalLeaf, Data: LeafGoal{Kind: LeafUnifyTys, Data: UnifyTysData{A: a, B: b}}}
}

// UnifyLifetimesLeaf wraps a lifetime unification obligation as an
// atomic goal.
func UnifyLifetimesLeaf(a, b Lifetime) Goal {
	return Goal{Kind: GoalLeaf, Data: LeafGoal{Kind: LeafUnifyLifetimes, Data: UnifyLifetimesData{A: a, B: b}}}
}

package ast

// StructFlags carry struct-level markers. They are plain booleans with
// no structural cross-checks; policy around them belongs to consumers.
type StructFlags struct {
	External    bool
	Fundamental bool
}

// StructDefn declares a struct-like type: a name, a fresh parameter
// scope, constraints on that scope, and ordered fields.
type StructDefn struct {
	Name   Identifier
	Params []ParameterKind
	Where  []QuantifiedWhereClause
	Fields []Field
	Flags  StructFlags
}

func (s *StructDefn) Equal(other *StructDefn) bool {
	if !s.Name.Equal(other.Name) ||
		s.Flags != other.Flags ||
		!parameterKindsEqual(s.Params, other.Params) ||
		!quantifiedWhereClausesEqual(s.Where, other.Where) ||
		len(s.Fields) != len(other.Fields) {
		return false
	}
	for i := range s.Fields {
		if !s.Fields[i].Equal(other.Fields[i]) {
			return false
		}
	}
	return true
}

func (*StructDefn) itemData() {}

// Field is one struct field. Field-name uniqueness is a consumer-level
// check, not a structural invariant.
type Field struct {
	Name Identifier
	Ty   Ty
}

func (f Field) Equal(other Field) bool {
	return f.Name.Equal(other.Name) && f.Ty.Equal(other.Ty)
}

// TraitFlags carry trait-level markers, unconstrained at this layer.
type TraitFlags struct {
	Auto     bool
	Marker   bool
	External bool
	Deref    bool
}

// TraitDefn declares a trait: a name, a fresh parameter scope (self is
// implicit and not listed), constraints, and associated types.
type TraitDefn struct {
	Name     Identifier
	Params   []ParameterKind
	Where    []QuantifiedWhereClause
	AssocTys []AssocTyDefn
	Flags    TraitFlags
}

func (t *TraitDefn) Equal(other *TraitDefn) bool {
	if !t.Name.Equal(other.Name) ||
		t.Flags != other.Flags ||
		!parameterKindsEqual(t.Params, other.Params) ||
		!quantifiedWhereClausesEqual(t.Where, other.Where) ||
		len(t.AssocTys) != len(other.AssocTys) {
		return false
	}
	for i := range t.AssocTys {
		if !t.AssocTys[i].Equal(other.AssocTys[i]) {
			return false
		}
	}
	return true
}

func (*TraitDefn) itemData() {}

// AssocTyDefn declares an associated type inside a trait. It scopes
// over the enclosing trait's parameters plus its own.
type AssocTyDefn struct {
	Name   Identifier
	Params []ParameterKind
	Bounds []InlineBound
	Where  []QuantifiedWhereClause
}

func (a AssocTyDefn) Equal(other AssocTyDefn) bool {
	if !a.Name.Equal(other.Name) ||
		!parameterKindsEqual(a.Params, other.Params) ||
		!quantifiedWhereClausesEqual(a.Where, other.Where) ||
		len(a.Bounds) != len(other.Bounds) {
		return false
	}
	for i := range a.Bounds {
		if !a.Bounds[i].Equal(other.Bounds[i]) {
			return false
		}
	}
	return true
}

// Impl implements a trait, positively or negatively, for the self type
// sitting in TraitRef.TraitRef.Args[0].
type Impl struct {
	Params        []ParameterKind
	TraitRef      PolarizedTraitRef
	Where         []QuantifiedWhereClause
	AssocTyValues []AssocTyValue
}

func (im *Impl) Equal(other *Impl) bool {
	if !im.TraitRef.Equal(other.TraitRef) ||
		!parameterKindsEqual(im.Params, other.Params) ||
		!quantifiedWhereClausesEqual(im.Where, other.Where) ||
		len(im.AssocTyValues) != len(other.AssocTyValues) {
		return false
	}
	for i := range im.AssocTyValues {
		if !im.AssocTyValues[i].Equal(other.AssocTyValues[i]) {
			return false
		}
	}
	return true
}

func (*Impl) itemData() {}

// AssocTyValue binds an associated type to a concrete type inside an
// impl. The name must correspond to an AssocTyDefn of the implemented
// trait; that correspondence is a consumer-level check.
type AssocTyValue struct {
	Name   Identifier
	Params []ParameterKind
	Value  Ty
}

func (a AssocTyValue) Equal(other AssocTyValue) bool {
	return a.Name.Equal(other.Name) &&
		parameterKindsEqual(a.Params, other.Params) &&
		a.Value.Equal(other.Value)
}

// InlineBoundKind enumerates bound forms attached to a parameter or an
// associated type.
type InlineBoundKind uint8

const (
	// BoundTrait is `T: Trait<..>` with self excluded from the args.
	BoundTrait InlineBoundKind = iota
	// BoundProjectionEq is `T: Trait<Assoc = Value>`.
	BoundProjectionEq
)

func (k InlineBoundKind) String() string {
	switch k {
	case BoundTrait:
		return "Trait"
	case BoundProjectionEq:
		return "ProjectionEq"
	default:
		return "Unknown"
	}
}

// InlineBound is bound syntax independent of what it constrains: the
// binder supplies the implicit self argument when desugaring.
type InlineBound struct {
	Kind InlineBoundKind
	Data InlineBoundData
}

// InlineBoundData is the payload of an InlineBound: a TraitBound or a
// ProjectionEqBound.
type InlineBoundData interface {
	inlineBoundData()
}

func (b InlineBound) Equal(other InlineBound) bool {
	if b.Kind != other.Kind {
		return false
	}
	switch b.Kind {
	case BoundTrait:
		a, aok := b.Data.(TraitBound)
		b, bok := other.Data.(TraitBound)
		return aok && bok && a.Equal(b)
	case BoundProjectionEq:
		a, aok := b.Data.(ProjectionEqBound)
		b, bok := other.Data.(ProjectionEqBound)
		return aok && bok && a.Equal(b)
	default:
		return false
	}
}

// TraitBound names a trait with the arguments after self.
type TraitBound struct {
	Trait      Identifier
	ArgsNoSelf []Parameter
}

func (t TraitBound) Equal(other TraitBound) bool {
	return t.Trait.Equal(other.Trait) && parametersEqual(t.ArgsNoSelf, other.ArgsNoSelf)
}

func (TraitBound) inlineBoundData() {}

// ProjectionEqBound constrains an associated type of a trait bound to
// equal a concrete type.
type ProjectionEqBound struct {
	TraitBound TraitBound
	Name       Identifier
	Args       []Parameter
	Value      Ty
}

func (p ProjectionEqBound) Equal(other ProjectionEqBound) bool {
	return p.TraitBound.Equal(other.TraitBound) &&
		p.Name.Equal(other.Name) &&
		parametersEqual(p.Args, other.Args) &&
		p.Value.Equal(other.Value)
}

func (ProjectionEqBound) inlineBoundData() {}

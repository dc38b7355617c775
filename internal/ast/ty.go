package ast

// TyKind enumerates type term kinds.
type TyKind uint8

const (
	// TyName is a bare name: a struct reference or a parameter in scope.
	TyName TyKind = iota
	// TyApply is a name applied to ordered arguments.
	TyApply
	// TyProjection is an associated-type projection with the trait known.
	TyProjection
	// TyUnselectedProjection is a projection whose trait is not resolved yet.
	TyUnselectedProjection
	// TyForAll binds lifetime names over a nested type.
	TyForAll
)

// String returns a human-readable name for the type term kind.
func (k TyKind) String() string {
	switch k {
	case TyName:
		return "Name"
	case TyApply:
		return "Apply"
	case TyProjection:
		return "Projection"
	case TyUnselectedProjection:
		return "UnselectedProjection"
	case TyForAll:
		return "ForAll"
	default:
		return "Unknown"
	}
}

// Ty is a type term.
type Ty struct {
	Kind TyKind
	Data TyData // Kind-specific payload
}

// TyData is the interface for type-term payloads. TyName carries an
// Identifier, TyProjection a ProjectionTy, TyUnselectedProjection an
// UnselectedProjectionTy.
type TyData interface {
	tyData()
}

// ApplyData holds data for TyApply.
type ApplyData struct {
	Name Identifier
	Args []Parameter
}

func (ApplyData) tyData() {}

// ForAllData holds data for TyForAll. Only lifetime names can be
// bound here; the body is exclusively owned.
type ForAllData struct {
	Lifetimes []Identifier
	Ty        *Ty
}

func (ForAllData) tyData() {}

// Equal reports structural term equality. Interned names are compared,
// spans are not.
func (t Ty) Equal(other Ty) bool {
	if t.Kind != other.Kind {
		return false
	}
	switch t.Kind {
	case TyName:
		a, aok := t.Data.(Identifier)
		b, bok := other.Data.(Identifier)
		return aok && bok && a.Equal(b)
	case TyApply:
		a, aok := t.Data.(ApplyData)
		b, bok := other.Data.(ApplyData)
		return aok && bok && a.Name.Equal(b.Name) && parametersEqual(a.Args, b.Args)
	case TyProjection:
		a, aok := t.Data.(ProjectionTy)
		b, bok := other.Data.(ProjectionTy)
		return aok && bok && a.Equal(b)
	case TyUnselectedProjection:
		a, aok := t.Data.(UnselectedProjectionTy)
		b, bok := other.Data.(UnselectedProjectionTy)
		return aok && bok && a.Equal(b)
	case TyForAll:
		a, aok := t.Data.(ForAllData)
		b, bok := other.Data.(ForAllData)
		if !aok || !bok || len(a.Lifetimes) != len(b.Lifetimes) {
			return false
		}
		for i := range a.Lifetimes {
			if !a.Lifetimes[i].Equal(b.Lifetimes[i]) {
				return false
			}
		}
		return a.Ty.Equal(*b.Ty)
	default:
		return false
	}
}

func (Ty) parameterData()  {}
func (Ty) domainGoalData() {}

// Lifetime is a lifetime term: a bare name, no recursion.
type Lifetime struct {
	Name Identifier
}

func (l Lifetime) Equal(other Lifetime) bool {
	return l.Name.Equal(other.Name)
}

func (Lifetime) parameterData() {}

// TraitRef references a trait applied to ordered arguments. By caller
// convention Args[0] is the self type.
type TraitRef struct {
	Trait Identifier
	Args  []Parameter
}

func (t TraitRef) Equal(other TraitRef) bool {
	return t.Trait.Equal(other.Trait) && parametersEqual(t.Args, other.Args)
}

func (TraitRef) whereClauseData() {}
func (TraitRef) domainGoalData()  {}

// ProjectionTy is `<P0 as Trait<P1..>>::Name<args>`: an associated-type
// projection whose trait is known.
type ProjectionTy struct {
	TraitRef TraitRef
	Name     Identifier
	Args     []Parameter
}

func (p ProjectionTy) Equal(other ProjectionTy) bool {
	return p.TraitRef.Equal(other.TraitRef) &&
		p.Name.Equal(other.Name) &&
		parametersEqual(p.Args, other.Args)
}

func (ProjectionTy) tyData() {}

// UnselectedProjectionTy is `T::Name<args>`: a projection whose trait
// must still be inferred by the consumer. It never compares equal to a
// ProjectionTy, even with coinciding names and args.
type UnselectedProjectionTy struct {
	Name Identifier
	Args []Parameter
}

func (p UnselectedProjectionTy) Equal(other UnselectedProjectionTy) bool {
	return p.Name.Equal(other.Name) && parametersEqual(p.Args, other.Args)
}

func (UnselectedProjectionTy) tyData() {}

// Polarity states whether an impl asserts a trait holds or definitely
// does not hold.
type Polarity uint8

const (
	PolarityPositive Polarity = iota
	PolarityNegative
)

func (p Polarity) String() string {
	switch p {
	case PolarityPositive:
		return "positive"
	case PolarityNegative:
		return "negative"
	default:
		return "unknown"
	}
}

// PolarizedTraitRef is a trait reference with a provability polarity.
type PolarizedTraitRef struct {
	Polarity Polarity
	TraitRef TraitRef
}

// PolarizeTraitRef is the single conversion point from a boolean
// polarity to a PolarizedTraitRef: true is positive, false negative.
func PolarizeTraitRef(positive bool, ref TraitRef) PolarizedTraitRef {
	if positive {
		return PolarizedTraitRef{Polarity: PolarityPositive, TraitRef: ref}
	}
	return PolarizedTraitRef{Polarity: PolarityNegative, TraitRef: ref}
}

func (p PolarizedTraitRef) IsPositive() bool {
	return p.Polarity == PolarityPositive
}

func (p PolarizedTraitRef) Equal(other PolarizedTraitRef) bool {
	return p.Polarity == other.Polarity && p.TraitRef.Equal(other.TraitRef)
}

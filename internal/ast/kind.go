package ast

// Kind is the sort of a generic parameter: a type or a lifetime.
// The set is closed.
type Kind uint8

const (
	KindTy Kind = iota
	KindLifetime
)

func (k Kind) String() string {
	switch k {
	case KindTy:
		return "type"
	case KindLifetime:
		return "lifetime"
	default:
		return "unknown"
	}
}

// ParameterKind declares one generic parameter: its sort and its name.
// The sort is fixed for the lifetime of the declaration.
type ParameterKind struct {
	Kind Kind
	Name Identifier
}

// Equal compares sort and interned name; spans are ignored.
func (p ParameterKind) Equal(other ParameterKind) bool {
	return p.Kind == other.Kind && p.Name.Equal(other.Name)
}

// Parameter supplies an argument for a generic slot: a type term or a
// lifetime term. Kind always matches the payload; TyParam and
// LifetimeParam are the only producers.
type Parameter struct {
	Kind Kind
	Data ParameterData
}

// ParameterData is the payload of a Parameter: a Ty or a Lifetime.
type ParameterData interface {
	parameterData()
}

// TyParam wraps a type term as a supplied parameter.
func TyParam(t Ty) Parameter {
	return Parameter{Kind: KindTy, Data: t}
}

// LifetimeParam wraps a lifetime term as a supplied parameter.
func LifetimeParam(l Lifetime) Parameter {
	return Parameter{Kind: KindLifetime, Data: l}
}

// Ty returns the type payload when the parameter supplies a type.
func (p Parameter) Ty() (Ty, bool) {
	t, ok := p.Data.(Ty)
	return t, ok
}

// Lifetime returns the lifetime payload when the parameter supplies a
// lifetime.
func (p Parameter) Lifetime() (Lifetime, bool) {
	l, ok := p.Data.(Lifetime)
	return l, ok
}

// Equal compares sort and payload structurally.
func (p Parameter) Equal(other Parameter) bool {
	if p.Kind != other.Kind {
		return false
	}
	switch p.Kind {
	case KindTy:
		a, aok := p.Ty()
		b, bok := other.Ty()
		return aok && bok && a.Equal(b)
	case KindLifetime:
		a, aok := p.Lifetime()
		b, bok := other.Lifetime()
		return aok && bok && a.Equal(b)
	default:
		return false
	}
}

// KindsMatch reports whether a supplied argument list fits a declared
// parameter list: same length and pairwise agreeing sorts. Consumers
// run this at every use site of a declaration; the term layer only
// provides it.
func KindsMatch(decl []ParameterKind, args []Parameter) bool {
	if len(decl) != len(args) {
		return false
	}
	for i := range decl {
		if decl[i].Kind != args[i].Kind {
			return false
		}
	}
	return true
}

func parametersEqual(a, b []Parameter) bool {
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

func parameterKindsEqual(a, b []ParameterKind) bool {
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

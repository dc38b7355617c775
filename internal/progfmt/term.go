// Package progfmt renders decoded programs for human inspection: a
// plain-text item outline and a structural JSON form. All term text
// follows the surface notation the terms were written in, so `Vec<T>`,
// `<T as Iterator>::Item` and `forall<T> { .. }` read back the way
// they were declared.
package progfmt

import (
	"strings"

	"quill/internal/ast"
	"quill/internal/source"
)

// name resolves an interned ID for display. Invalid IDs render as "?"
// so a formatter never panics on a foreign or truncated table.
func name(in *source.Interner, id source.StringID) string {
	if id == source.NoStringID || in == nil {
		return "?"
	}
	s, ok := in.Lookup(id)
	if !ok {
		return "?"
	}
	return s
}

func lifetimeString(in *source.Interner, l ast.Lifetime) string {
	return "'" + name(in, l.Name.Name)
}

// binderNames renders declared parameters, lifetimes with a tick.
func binderNames(in *source.Interner, params []ast.ParameterKind) []string {
	if len(params) == 0 {
		return nil
	}
	names := make([]string, len(params))
	for i, pk := range params {
		if pk.Kind == ast.KindLifetime {
			names[i] = "'" + name(in, pk.Name.Name)
		} else {
			names[i] = name(in, pk.Name.Name)
		}
	}
	return names
}

// binderString renders a binder as `<T, 'a>`, empty binder as "".
func binderString(in *source.Interner, params []ast.ParameterKind) string {
	if len(params) == 0 {
		return ""
	}
	return "<" + strings.Join(binderNames(in, params), ", ") + ">"
}

func paramString(in *source.Interner, p ast.Parameter) string {
	if t, ok := p.Ty(); ok {
		return tyString(in, t)
	}
	if l, ok := p.Lifetime(); ok {
		return lifetimeString(in, l)
	}
	return "?"
}

func argsString(in *source.Interner, args []ast.Parameter) string {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = paramString(in, a)
	}
	return strings.Join(parts, ", ")
}

// argsSuffix renders supplied arguments as `<..>`, no arguments as "".
func argsSuffix(in *source.Interner, args []ast.Parameter) string {
	if len(args) == 0 {
		return ""
	}
	return "<" + argsString(in, args) + ">"
}

// selfSplit separates the self argument from the rest. Args[0] is the
// self type by convention wherever a trait reference carries its
// arguments; a reference without arguments has no self to show.
func selfSplit(in *source.Interner, args []ast.Parameter) (string, []ast.Parameter) {
	if len(args) == 0 {
		return "?", nil
	}
	return paramString(in, args[0]), args[1:]
}

func tyString(in *source.Interner, t ast.Ty) string {
	switch t.Kind {
	case ast.TyName:
		if id, ok := t.Data.(ast.Identifier); ok {
			return name(in, id.Name)
		}
	case ast.TyApply:
		if a, ok := t.Data.(ast.ApplyData); ok {
			return name(in, a.Name.Name) + argsSuffix(in, a.Args)
		}
	case ast.TyProjection:
		if p, ok := t.Data.(ast.ProjectionTy); ok {
			return projectionString(in, p)
		}
	case ast.TyUnselectedProjection:
		if u, ok := t.Data.(ast.UnselectedProjectionTy); ok {
			self, rest := selfSplit(in, u.Args)
			return self + "::" + name(in, u.Name.Name) + argsSuffix(in, rest)
		}
	case ast.TyForAll:
		if fa, ok := t.Data.(ast.ForAllData); ok {
			names := make([]string, len(fa.Lifetimes))
			for i, lt := range fa.Lifetimes {
				names[i] = "'" + name(in, lt.Name)
			}
			body := "?"
			if fa.Ty != nil {
				body = tyString(in, *fa.Ty)
			}
			return "for<" + strings.Join(names, ", ") + "> " + body
		}
	}
	return "?"
}

// traitRefString renders `Self: Trait<Rest>`.
func traitRefString(in *source.Interner, ref ast.TraitRef) string {
	self, rest := selfSplit(in, ref.Args)
	return self + ": " + name(in, ref.Trait.Name) + argsSuffix(in, rest)
}

// projectionString renders `<Self as Trait<Rest>>::Name<Args>`.
func projectionString(in *source.Interner, p ast.ProjectionTy) string {
	self, rest := selfSplit(in, p.TraitRef.Args)
	return "<" + self + " as " + name(in, p.TraitRef.Trait.Name) + argsSuffix(in, rest) + ">::" +
		name(in, p.Name.Name) + argsSuffix(in, p.Args)
}

func whereClauseString(in *source.Interner, w ast.WhereClause) string {
	switch w.Kind {
	case ast.WhereImplemented:
		if ref, ok := w.Data.(ast.TraitRef); ok {
			return traitRefString(in, ref)
		}
	case ast.WhereProjectionEq:
		if pe, ok := w.Data.(ast.ProjectionEqData); ok {
			return projectionString(in, pe.Projection) + " == " + tyString(in, pe.Ty)
		}
	}
	return "?"
}

func quantifiedWhereString(in *source.Interner, q ast.QuantifiedWhereClause) string {
	if len(q.Params) == 0 {
		return whereClauseString(in, q.Clause)
	}
	return "forall" + binderString(in, q.Params) + " " + whereClauseString(in, q.Clause)
}

func whereTexts(in *source.Interner, where []ast.QuantifiedWhereClause) []string {
	if len(where) == 0 {
		return nil
	}
	texts := make([]string, len(where))
	for i, w := range where {
		texts[i] = quantifiedWhereString(in, w)
	}
	return texts
}

// domainGoalString renders an atomic proposition. A lifted where
// clause prints as the clause itself; every other kind wraps its
// payload in the proposition name.
func domainGoalString(in *source.Interner, g ast.DomainGoal) string {
	switch g.Kind {
	case ast.DomainHolds:
		if w, ok := g.Data.(ast.WhereClause); ok {
			return whereClauseString(in, w)
		}
	case ast.DomainNormalize:
		if n, ok := g.Data.(ast.NormalizeData); ok {
			return "Normalize(" + projectionString(in, n.Projection) + " -> " + tyString(in, n.Ty) + ")"
		}
	case ast.DomainTraitRefWellFormed:
		if ref, ok := g.Data.(ast.TraitRef); ok {
			return "WellFormed(" + traitRefString(in, ref) + ")"
		}
	case ast.DomainTyWellFormed:
		if t, ok := g.Data.(ast.Ty); ok {
			return "WellFormed(" + tyString(in, t) + ")"
		}
	case ast.DomainTyFromEnv:
		if t, ok := g.Data.(ast.Ty); ok {
			return "FromEnv(" + tyString(in, t) + ")"
		}
	case ast.DomainTraitRefFromEnv:
		if ref, ok := g.Data.(ast.TraitRef); ok {
			return "FromEnv(" + traitRefString(in, ref) + ")"
		}
	case ast.DomainTraitInScope:
		if id, ok := g.Data.(ast.Identifier); ok {
			return "InScope(" + name(in, id.Name) + ")"
		}
	case ast.DomainDerefs:
		if d, ok := g.Data.(ast.DerefsData); ok {
			return "Derefs(" + tyString(in, d.Source) + " -> " + tyString(in, d.Target) + ")"
		}
	case ast.DomainIsLocal:
		if t, ok := g.Data.(ast.Ty); ok {
			return "IsLocal(" + tyString(in, t) + ")"
		}
	case ast.DomainIsExternal:
		if t, ok := g.Data.(ast.Ty); ok {
			return "IsExternal(" + tyString(in, t) + ")"
		}
	case ast.DomainIsDeeplyExternal:
		if t, ok := g.Data.(ast.Ty); ok {
			return "IsDeeplyExternal(" + tyString(in, t) + ")"
		}
	case ast.DomainLocalImplAllowed:
		if ref, ok := g.Data.(ast.TraitRef); ok {
			return "LocalImplAllowed(" + traitRefString(in, ref) + ")"
		}
	}
	return "?"
}

func leafGoalString(in *source.Interner, l ast.LeafGoal) string {
	switch l.Kind {
	case ast.LeafDomain:
		if g, ok := l.Data.(ast.DomainGoal); ok {
			return domainGoalString(in, g)
		}
	case ast.LeafUnifyTys:
		if u, ok := l.Data.(ast.UnifyTysData); ok {
			return tyString(in, u.A) + " = " + tyString(in, u.B)
		}
	case ast.LeafUnifyLifetimes:
		if u, ok := l.Data.(ast.UnifyLifetimesData); ok {
			return lifetimeString(in, u.A) + " = " + lifetimeString(in, u.B)
		}
	}
	return "?"
}

func goalString(in *source.Interner, g ast.Goal) string {
	switch g.Kind {
	case ast.GoalForAll, ast.GoalExists:
		q, ok := g.Data.(ast.QuantifierData)
		if !ok {
			return "?"
		}
		word := "forall"
		if g.Kind == ast.GoalExists {
			word = "exists"
		}
		body := "?"
		if q.Goal != nil {
			body = goalString(in, *q.Goal)
		}
		return word + binderString(in, q.Params) + " { " + body + " }"
	case ast.GoalImplies:
		if im, ok := g.Data.(ast.ImpliesData); ok {
			hyps := make([]string, len(im.Clauses))
			for i := range im.Clauses {
				hyps[i] = clauseString(in, &im.Clauses[i])
			}
			body := "?"
			if im.Goal != nil {
				body = goalString(in, *im.Goal)
			}
			// Гипотезы разделяем точкой с запятой: внутри каждой из них
			// запятая уже занята условиями и аргументами.
			return "if (" + strings.Join(hyps, "; ") + ") { " + body + " }"
		}
	case ast.GoalAnd:
		if a, ok := g.Data.(ast.AndData); ok {
			left, right := "?", "?"
			if a.Left != nil {
				left = goalString(in, *a.Left)
			}
			if a.Right != nil {
				right = goalString(in, *a.Right)
			}
			return left + ", " + right
		}
	case ast.GoalNot:
		if n, ok := g.Data.(ast.NotData); ok {
			body := "?"
			if n.Goal != nil {
				body = goalString(in, *n.Goal)
			}
			return "not { " + body + " }"
		}
	case ast.GoalLeaf:
		if l, ok := g.Data.(ast.LeafGoal); ok {
			return leafGoalString(in, l)
		}
	}
	return "?"
}

// clauseString renders `forall<P> { Consequence :- Conditions }`. A
// clause without conditions prints as a bare fact, one without a
// binder drops the forall wrapper.
func clauseString(in *source.Interner, c *ast.Clause) string {
	if c == nil {
		return "?"
	}
	body := domainGoalString(in, c.Consequence)
	if len(c.Conditions) > 0 {
		conds := make([]string, len(c.Conditions))
		for i, g := range c.Conditions {
			conds[i] = goalString(in, g)
		}
		body += " :- " + strings.Join(conds, ", ")
	}
	if len(c.Params) == 0 {
		return body
	}
	return "forall" + binderString(in, c.Params) + " { " + body + " }"
}

// boundString renders bound syntax: `Trait<Rest>` or
// `Trait<Rest, Assoc = Value>`. Self stays implicit, as written.
func boundString(in *source.Interner, b ast.InlineBound) string {
	switch b.Kind {
	case ast.BoundTrait:
		if t, ok := b.Data.(ast.TraitBound); ok {
			return name(in, t.Trait.Name) + argsSuffix(in, t.ArgsNoSelf)
		}
	case ast.BoundProjectionEq:
		if p, ok := b.Data.(ast.ProjectionEqBound); ok {
			parts := make([]string, 0, len(p.TraitBound.ArgsNoSelf)+1)
			for _, a := range p.TraitBound.ArgsNoSelf {
				parts = append(parts, paramString(in, a))
			}
			eq := name(in, p.Name.Name) + argsSuffix(in, p.Args) + " = " + tyString(in, p.Value)
			parts = append(parts, eq)
			return name(in, p.TraitBound.Trait.Name) + "<" + strings.Join(parts, ", ") + ">"
		}
	}
	return "?"
}

func fieldString(in *source.Interner, f ast.Field) string {
	return name(in, f.Name.Name) + ": " + tyString(in, f.Ty)
}

// assocTyDefnString renders `type Name<P>: Bounds where Clauses`.
func assocTyDefnString(in *source.Interner, a ast.AssocTyDefn) string {
	s := "type " + name(in, a.Name.Name) + binderString(in, a.Params)
	if len(a.Bounds) > 0 {
		bounds := make([]string, len(a.Bounds))
		for i, b := range a.Bounds {
			bounds[i] = boundString(in, b)
		}
		s += ": " + strings.Join(bounds, " + ")
	}
	if len(a.Where) > 0 {
		s += " where " + strings.Join(whereTexts(in, a.Where), ", ")
	}
	return s
}

// assocTyValueString renders `type Name<P> = Value`.
func assocTyValueString(in *source.Interner, v ast.AssocTyValue) string {
	return "type " + name(in, v.Name.Name) + binderString(in, v.Params) + " = " + tyString(in, v.Value)
}

// tySpan picks the occurrence that names a type term, the way the
// checker keys its findings.
func tySpan(t ast.Ty) source.Span {
	switch t.Kind {
	case ast.TyName:
		if id, ok := t.Data.(ast.Identifier); ok {
			return id.Span
		}
	case ast.TyApply:
		if a, ok := t.Data.(ast.ApplyData); ok {
			return a.Name.Span
		}
	case ast.TyProjection:
		if p, ok := t.Data.(ast.ProjectionTy); ok {
			return p.Name.Span
		}
	case ast.TyUnselectedProjection:
		if u, ok := t.Data.(ast.UnselectedProjectionTy); ok {
			return u.Name.Span
		}
	case ast.TyForAll:
		if fa, ok := t.Data.(ast.ForAllData); ok {
			if len(fa.Lifetimes) > 0 {
				return fa.Lifetimes[0].Span
			}
			if fa.Ty != nil {
				return tySpan(*fa.Ty)
			}
		}
	}
	return source.Span{}
}

func whereClauseSpan(w ast.WhereClause) source.Span {
	switch w.Kind {
	case ast.WhereImplemented:
		if ref, ok := w.Data.(ast.TraitRef); ok {
			return ref.Trait.Span
		}
	case ast.WhereProjectionEq:
		if pe, ok := w.Data.(ast.ProjectionEqData); ok {
			return pe.Projection.Name.Span
		}
	}
	return source.Span{}
}

func domainGoalSpan(g ast.DomainGoal) source.Span {
	switch g.Kind {
	case ast.DomainHolds:
		if w, ok := g.Data.(ast.WhereClause); ok {
			return whereClauseSpan(w)
		}
	case ast.DomainNormalize:
		if n, ok := g.Data.(ast.NormalizeData); ok {
			return n.Projection.Name.Span
		}
	case ast.DomainTraitRefWellFormed, ast.DomainTraitRefFromEnv, ast.DomainLocalImplAllowed:
		if ref, ok := g.Data.(ast.TraitRef); ok {
			return ref.Trait.Span
		}
	case ast.DomainTyWellFormed, ast.DomainTyFromEnv, ast.DomainIsLocal, ast.DomainIsExternal, ast.DomainIsDeeplyExternal:
		if t, ok := g.Data.(ast.Ty); ok {
			return tySpan(t)
		}
	case ast.DomainTraitInScope:
		if id, ok := g.Data.(ast.Identifier); ok {
			return id.Span
		}
	case ast.DomainDerefs:
		if d, ok := g.Data.(ast.DerefsData); ok {
			return tySpan(d.Source)
		}
	}
	return source.Span{}
}

package check

import (
	"quill/internal/ast"
	"quill/internal/diag"
	"quill/internal/source"
)

// checkTraitRef validates a full trait reference whose Args[0] is the
// self type. Returns the declaration when the trait is known so
// callers can resolve associated types against it.
func (c *checker) checkTraitRef(ref ast.TraitRef) *ast.TraitDefn {
	defn := c.traits[ref.Trait.Name]
	if defn == nil {
		c.report(diag.CheckUnknownTrait, ref.Trait.Span,
			"trait '%s' is not declared", c.lookupName(ref.Trait.Name))
	}
	if len(ref.Args) == 0 {
		c.report(diag.CheckArityMismatch, ref.Trait.Span,
			"trait reference '%s' is missing its self type", c.lookupName(ref.Trait.Name))
		return defn
	}
	if ref.Args[0].Kind != ast.KindTy {
		c.report(diag.CheckKindMismatch, paramSpan(ref.Args[0]),
			"self argument of trait '%s' must be a type", c.lookupName(ref.Trait.Name))
	}
	if defn != nil {
		c.checkArgs("trait", "besides self", defn.Name, defn.Params, ref.Args[1:], ref.Trait.Span)
	}
	c.walkParams(ref.Args)
	return defn
}

// checkTraitBound validates an inline bound form, where the self type
// is implicit and ArgsNoSelf lines up with the declared parameters
// directly.
func (c *checker) checkTraitBound(tb ast.TraitBound) *ast.TraitDefn {
	defn := c.traits[tb.Trait.Name]
	if defn == nil {
		c.report(diag.CheckUnknownTrait, tb.Trait.Span,
			"trait '%s' is not declared", c.lookupName(tb.Trait.Name))
	} else {
		c.checkArgs("trait", "besides self", defn.Name, defn.Params, tb.ArgsNoSelf, tb.Trait.Span)
	}
	c.walkParams(tb.ArgsNoSelf)
	return defn
}

func (c *checker) checkInlineBound(b ast.InlineBound) {
	switch b.Kind {
	case ast.BoundTrait:
		if tb, ok := b.Data.(ast.TraitBound); ok {
			c.checkTraitBound(tb)
		}
	case ast.BoundProjectionEq:
		pb, ok := b.Data.(ast.ProjectionEqBound)
		if !ok {
			return
		}
		defn := c.checkTraitBound(pb.TraitBound)
		if defn != nil {
			if assoc := findAssocTy(defn, pb.Name.Name); assoc == nil {
				c.report(diag.CheckUnknownAssocTy, pb.Name.Span,
					"trait '%s' declares no associated type '%s'",
					c.lookupName(defn.Name.Name), c.lookupName(pb.Name.Name))
			} else {
				c.checkArgs("associated type", "", assoc.Name, assoc.Params, pb.Args, pb.Name.Span)
			}
		}
		c.walkParams(pb.Args)
		c.walkTy(pb.Value)
	}
}

func (c *checker) checkApply(a ast.ApplyData) {
	defn := c.structs[a.Name.Name]
	switch {
	case defn != nil:
		c.checkArgs("struct", "", defn.Name, defn.Params, a.Args, a.Name.Span)
	case c.traits[a.Name.Name] != nil:
		c.reportTraitAsStruct(a.Name, c.traits[a.Name.Name].Name)
	default:
		c.report(diag.CheckUnknownStruct, a.Name.Span,
			"struct '%s' is not declared", c.lookupName(a.Name.Name))
	}
	c.walkParams(a.Args)
}

func (c *checker) reportTraitAsStruct(use, decl ast.Identifier) {
	if c.reporter == nil {
		return
	}
	diag.ReportError(c.reporter, diag.CheckUnknownStruct, use.Span,
		"'"+c.lookupName(use.Name)+"' is a trait, not a struct").
		WithNote(decl.Span, "declared here").
		Emit()
}

func (c *checker) checkProjection(p ast.ProjectionTy) {
	defn := c.checkTraitRef(p.TraitRef)
	if defn != nil {
		if assoc := findAssocTy(defn, p.Name.Name); assoc == nil {
			c.report(diag.CheckUnknownAssocTy, p.Name.Span,
				"trait '%s' declares no associated type '%s'",
				c.lookupName(defn.Name.Name), c.lookupName(p.Name.Name))
		} else {
			c.checkArgs("associated type", "", assoc.Name, assoc.Params, p.Args, p.Name.Span)
		}
	}
	c.walkParams(p.Args)
}

// checkArgs reports arity and sort mismatches of args against a
// declared parameter list. noun names the declaration kind in
// messages; extra qualifies the expected count. On an arity mismatch
// the sort comparison is skipped to avoid a cascade.
func (c *checker) checkArgs(noun, extra string, owner ast.Identifier, decl []ast.ParameterKind, args []ast.Parameter, at source.Span) {
	if len(args) != len(decl) {
		if extra != "" {
			extra = " " + extra
		}
		c.report(diag.CheckArityMismatch, at,
			"%s '%s' expects %d argument(s)%s, got %d",
			noun, c.lookupName(owner.Name), len(decl), extra, len(args))
		return
	}
	for i := range decl {
		if args[i].Kind != decl[i].Kind {
			c.report(diag.CheckKindMismatch, paramSpan(args[i]),
				"argument %d of %s '%s' must be a %s, got a %s",
				i+1, noun, c.lookupName(owner.Name), decl[i].Kind, args[i].Kind)
		}
	}
}

func (c *checker) walkTy(t ast.Ty) {
	switch t.Kind {
	case ast.TyName:
		// Bare names may be parameters in scope, never resolved here.
	case ast.TyApply:
		if a, ok := t.Data.(ast.ApplyData); ok {
			c.checkApply(a)
		}
	case ast.TyProjection:
		if p, ok := t.Data.(ast.ProjectionTy); ok {
			c.checkProjection(p)
		}
	case ast.TyUnselectedProjection:
		// Without a trait reference there is nothing to resolve the
		// name against, but the arguments still carry references.
		if u, ok := t.Data.(ast.UnselectedProjectionTy); ok {
			c.walkParams(u.Args)
		}
	case ast.TyForAll:
		if fa, ok := t.Data.(ast.ForAllData); ok && fa.Ty != nil {
			c.walkTy(*fa.Ty)
		}
	}
}

func (c *checker) walkParams(args []ast.Parameter) {
	for _, p := range args {
		if t, ok := p.Ty(); ok {
			c.walkTy(t)
		}
	}
}

func (c *checker) walkWhere(where []ast.QuantifiedWhereClause) {
	for _, q := range where {
		c.checkWhereClause(q.Clause)
	}
}

func (c *checker) checkWhereClause(w ast.WhereClause) {
	switch w.Kind {
	case ast.WhereImplemented:
		if ref, ok := w.Data.(ast.TraitRef); ok {
			c.checkTraitRef(ref)
		}
	case ast.WhereProjectionEq:
		if pe, ok := w.Data.(ast.ProjectionEqData); ok {
			c.checkProjection(pe.Projection)
			c.walkTy(pe.Ty)
		}
	}
}

// paramSpan picks the most useful span a parameter payload carries.
func paramSpan(p ast.Parameter) source.Span {
	if t, ok := p.Ty(); ok {
		return tySpan(t)
	}
	if l, ok := p.Lifetime(); ok {
		return l.Name.Span
	}
	return source.Span{}
}

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

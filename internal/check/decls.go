package check

import (
	"fmt"

	"quill/internal/ast"
	"quill/internal/diag"
	"quill/internal/source"
)

func (c *checker) checkStruct(s *ast.StructDefn) {
	seen := make(map[source.StringID]ast.Identifier, len(s.Fields))
	for _, field := range s.Fields {
		if first, dup := seen[field.Name.Name]; dup {
			c.reportDuplicateField(field.Name, first, s.Name)
		} else {
			seen[field.Name.Name] = field.Name
		}
		c.walkTy(field.Ty)
	}
	c.walkWhere(s.Where)
}

func (c *checker) reportDuplicateField(dup, first, owner ast.Identifier) {
	if c.reporter == nil {
		return
	}
	msg := fmt.Sprintf("field '%s' appears more than once in struct '%s'",
		c.lookupName(dup.Name), c.lookupName(owner.Name))
	diag.ReportError(c.reporter, diag.CheckDuplicateField, dup.Span, msg).
		WithNote(first.Span, "first declared here").
		Emit()
}

func (c *checker) checkTrait(t *ast.TraitDefn) {
	if t.Flags.Auto {
		if len(t.Params) > 0 {
			c.warn(diag.CheckAutoTraitShape, t.Name.Span,
				"auto trait '%s' declares parameters besides self", c.lookupName(t.Name.Name))
		}
		if len(t.AssocTys) > 0 {
			c.warn(diag.CheckAutoTraitShape, t.Name.Span,
				"auto trait '%s' declares associated types", c.lookupName(t.Name.Name))
		}
	}
	for i := range t.AssocTys {
		c.checkAssocTyDefn(&t.AssocTys[i])
	}
	c.walkWhere(t.Where)
}

func (c *checker) checkAssocTyDefn(a *ast.AssocTyDefn) {
	for _, bound := range a.Bounds {
		c.checkInlineBound(bound)
	}
	c.walkWhere(a.Where)
}

func (c *checker) checkImpl(im *ast.Impl) {
	ref := im.TraitRef.TraitRef
	traitDefn := c.checkTraitRef(ref)

	if !im.TraitRef.IsPositive() && len(im.AssocTyValues) > 0 {
		c.report(diag.CheckNegativeImplAssocTy, im.AssocTyValues[0].Name.Span,
			"negative impl of trait '%s' cannot bind associated types", c.lookupName(ref.Trait.Name))
	}

	for i := range im.AssocTyValues {
		value := &im.AssocTyValues[i]
		if traitDefn != nil {
			assoc := findAssocTy(traitDefn, value.Name.Name)
			if assoc == nil {
				c.report(diag.CheckUnknownAssocTy, value.Name.Span,
					"trait '%s' declares no associated type '%s'",
					c.lookupName(traitDefn.Name.Name), c.lookupName(value.Name.Name))
			} else if len(value.Params) != len(assoc.Params) {
				c.report(diag.CheckArityMismatch, value.Name.Span,
					"associated type value '%s' binds %d parameter(s), trait declares %d",
					c.lookupName(value.Name.Name), len(value.Params), len(assoc.Params))
			}
		}
		c.walkTy(value.Value)
	}
	c.walkWhere(im.Where)
}

func findAssocTy(t *ast.TraitDefn, name source.StringID) *ast.AssocTyDefn {
	for i := range t.AssocTys {
		if t.AssocTys[i].Name.Name == name {
			return &t.AssocTys[i]
		}
	}
	return nil
}

func (c *checker) checkClause(cl *ast.Clause) {
	c.checkDomainGoal(cl.Consequence)
	for _, g := range cl.Conditions {
		c.checkGoal(g)
	}
}

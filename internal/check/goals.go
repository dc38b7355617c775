package check

import (
	"quill/internal/ast"
	"quill/internal/diag"
)

func (c *checker) checkGoal(g ast.Goal) {
	switch g.Kind {
	case ast.GoalForAll, ast.GoalExists:
		if q, ok := g.Data.(ast.QuantifierData); ok && q.Goal != nil {
			c.checkGoal(*q.Goal)
		}
	case ast.GoalImplies:
		imp, ok := g.Data.(ast.ImpliesData)
		if !ok {
			return
		}
		for i := range imp.Clauses {
			c.checkClause(&imp.Clauses[i])
		}
		if imp.Goal != nil {
			c.checkGoal(*imp.Goal)
		}
	case ast.GoalAnd:
		if and, ok := g.Data.(ast.AndData); ok {
			if and.Left != nil {
				c.checkGoal(*and.Left)
			}
			if and.Right != nil {
				c.checkGoal(*and.Right)
			}
		}
	case ast.GoalNot:
		if not, ok := g.Data.(ast.NotData); ok && not.Goal != nil {
			c.checkGoal(*not.Goal)
		}
	case ast.GoalLeaf:
		if leaf, ok := g.Data.(ast.LeafGoal); ok {
			c.checkLeafGoal(leaf)
		}
	}
}

func (c *checker) checkLeafGoal(leaf ast.LeafGoal) {
	switch leaf.Kind {
	case ast.LeafDomain:
		if dg, ok := leaf.Data.(ast.DomainGoal); ok {
			c.checkDomainGoal(dg)
		}
	case ast.LeafUnifyTys:
		if u, ok := leaf.Data.(ast.UnifyTysData); ok {
			c.walkTy(u.A)
			c.walkTy(u.B)
		}
	case ast.LeafUnifyLifetimes:
		// Lifetimes never reference declared items.
	}
}

func (c *checker) checkDomainGoal(dg ast.DomainGoal) {
	switch dg.Kind {
	case ast.DomainHolds:
		if w, ok := dg.Data.(ast.WhereClause); ok {
			c.checkWhereClause(w)
		}
	case ast.DomainNormalize:
		if n, ok := dg.Data.(ast.NormalizeData); ok {
			c.checkProjection(n.Projection)
			c.walkTy(n.Ty)
		}
	case ast.DomainTraitRefWellFormed, ast.DomainTraitRefFromEnv, ast.DomainLocalImplAllowed:
		if ref, ok := dg.Data.(ast.TraitRef); ok {
			c.checkTraitRef(ref)
		}
	case ast.DomainTyWellFormed, ast.DomainTyFromEnv, ast.DomainIsLocal,
		ast.DomainIsExternal, ast.DomainIsDeeplyExternal:
		if t, ok := dg.Data.(ast.Ty); ok {
			c.walkTy(t)
		}
	case ast.DomainTraitInScope:
		if id, ok := dg.Data.(ast.Identifier); ok {
			if c.traits[id.Name] == nil {
				c.report(diag.CheckUnknownTrait, id.Span,
					"trait '%s' is not declared", c.lookupName(id.Name))
			}
		}
	case ast.DomainDerefs:
		if d, ok := dg.Data.(ast.DerefsData); ok {
			c.walkTy(d.Source)
			c.walkTy(d.Target)
		}
	}
}

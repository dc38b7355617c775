package wire

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/vmihailenco/msgpack/v5"

	"quill/internal/ast"
	"quill/internal/source"
)

// Sentinel decode failures. Wrapped errors carry the offending detail;
// callers classify with errors.Is. A builder *ast.BindError passes
// through untouched so duplicate-binder snapshots fail the same way
// hand-built terms do.
var (
	ErrSchema    = errors.New("wire: unsupported snapshot schema")
	ErrCorrupt   = errors.New("wire: corrupt snapshot")
	ErrStringRef = errors.New("wire: string reference outside table")
	ErrKindTag   = errors.New("wire: unknown term kind tag")
)

// decoder rebuilds terms from payload mirrors through a Builder. The
// first failure sticks and the partial tree is discarded.
type decoder struct {
	b       *ast.Builder
	strings []string
	err     error
}

func (d *decoder) fail(err error) {
	if d.err == nil {
		d.err = err
	}
}

func (d *decoder) failf(sentinel error, format string, args ...any) {
	if d.err == nil {
		d.err = fmt.Errorf("%w: "+format, append([]any{sentinel}, args...)...)
	}
}

func (d *decoder) ident(p identPayload) ast.Identifier {
	if p.Str == 0 || uint64(p.Str) >= uint64(len(d.strings)) {
		d.failf(ErrStringRef, "index %d, table holds %d", p.Str, len(d.strings))
		return ast.Identifier{}
	}
	return d.b.Ident(d.strings[p.Str], source.Span{Start: p.Start, End: p.End})
}

func (d *decoder) idents(ps []identPayload) []ast.Identifier {
	if len(ps) == 0 {
		return nil
	}
	out := make([]ast.Identifier, len(ps))
	for i, p := range ps {
		out[i] = d.ident(p)
	}
	return out
}

func (d *decoder) paramKinds(ps []paramKindPayload) []ast.ParameterKind {
	if len(ps) == 0 {
		return nil
	}
	out := make([]ast.ParameterKind, len(ps))
	for i, p := range ps {
		kind := ast.Kind(p.Kind)
		if kind != ast.KindTy && kind != ast.KindLifetime {
			d.failf(ErrKindTag, "parameter kind %d", p.Kind)
			return nil
		}
		out[i] = ast.ParameterKind{Kind: kind, Name: d.ident(p.Name)}
	}
	return out
}

func (d *decoder) param(p paramPayload) ast.Parameter {
	switch ast.Kind(p.Kind) {
	case ast.KindTy:
		if p.Ty == nil {
			d.failf(ErrCorrupt, "type parameter without a type")
			return ast.Parameter{}
		}
		return ast.TyParam(d.ty(*p.Ty))
	case ast.KindLifetime:
		if p.Lifetime == nil {
			d.failf(ErrCorrupt, "lifetime parameter without a name")
			return ast.Parameter{}
		}
		return ast.LifetimeParam(ast.Lifetime{Name: d.ident(*p.Lifetime)})
	default:
		d.failf(ErrKindTag, "parameter kind %d", p.Kind)
		return ast.Parameter{}
	}
}

func (d *decoder) params(ps []paramPayload) []ast.Parameter {
	if len(ps) == 0 {
		return nil
	}
	out := make([]ast.Parameter, len(ps))
	for i, p := range ps {
		out[i] = d.param(p)
	}
	return out
}

func (d *decoder) ty(p tyPayload) ast.Ty {
	switch ast.TyKind(p.Kind) {
	case ast.TyName:
		if p.Name == nil {
			d.failf(ErrCorrupt, "name type without a name")
			return ast.Ty{}
		}
		return ast.Ty{Kind: ast.TyName, Data: d.ident(*p.Name)}
	case ast.TyApply:
		if p.Apply == nil {
			d.failf(ErrCorrupt, "apply type without arguments payload")
			return ast.Ty{}
		}
		return ast.Ty{Kind: ast.TyApply, Data: ast.ApplyData{
			Name: d.ident(p.Apply.Name),
			Args: d.params(p.Apply.Args),
		}}
	case ast.TyProjection:
		if p.Proj == nil {
			d.failf(ErrCorrupt, "projection type without projection payload")
			return ast.Ty{}
		}
		return ast.Ty{Kind: ast.TyProjection, Data: d.projection(*p.Proj)}
	case ast.TyUnselectedProjection:
		if p.UProj == nil {
			d.failf(ErrCorrupt, "unselected projection without payload")
			return ast.Ty{}
		}
		return ast.Ty{Kind: ast.TyUnselectedProjection, Data: ast.UnselectedProjectionTy{
			Name: d.ident(p.UProj.Name),
			Args: d.params(p.UProj.Args),
		}}
	case ast.TyForAll:
		if p.ForAll == nil || p.ForAll.Ty == nil {
			d.failf(ErrCorrupt, "forall type without body")
			return ast.Ty{}
		}
		lifetimes := d.idents(p.ForAll.Lifetimes)
		body := d.ty(*p.ForAll.Ty)
		if d.err != nil {
			return ast.Ty{}
		}
		t, err := d.b.ForAllTy(lifetimes, body)
		if err != nil {
			d.fail(err)
			return ast.Ty{}
		}
		return t
	default:
		d.failf(ErrKindTag, "type kind %d", p.Kind)
		return ast.Ty{}
	}
}

func (d *decoder) traitRef(p traitRefPayload) ast.TraitRef {
	return ast.TraitRef{Trait: d.ident(p.Trait), Args: d.params(p.Args)}
}

func (d *decoder) projection(p projectionPayload) ast.ProjectionTy {
	return ast.ProjectionTy{
		TraitRef: d.traitRef(p.TraitRef),
		Name:     d.ident(p.Name),
		Args:     d.params(p.Args),
	}
}

func (d *decoder) whereClause(p whereClausePayload) ast.WhereClause {
	switch ast.WhereClauseKind(p.Kind) {
	case ast.WhereImplemented:
		if p.TraitRef == nil {
			d.failf(ErrCorrupt, "implemented clause without trait reference")
			return ast.WhereClause{}
		}
		return ast.WhereClause{Kind: ast.WhereImplemented, Data: d.traitRef(*p.TraitRef)}
	case ast.WhereProjectionEq:
		if p.ProjEq == nil {
			d.failf(ErrCorrupt, "projection-eq clause without payload")
			return ast.WhereClause{}
		}
		return ast.WhereClause{Kind: ast.WhereProjectionEq, Data: ast.ProjectionEqData{
			Projection: d.projection(p.ProjEq.Projection),
			Ty:         d.ty(p.ProjEq.Ty),
		}}
	default:
		d.failf(ErrKindTag, "where clause kind %d", p.Kind)
		return ast.WhereClause{}
	}
}

func (d *decoder) quantifiedWhere(ps []quantifiedWherePayload) []ast.QuantifiedWhereClause {
	if len(ps) == 0 {
		return nil
	}
	out := make([]ast.QuantifiedWhereClause, len(ps))
	for i, p := range ps {
		params := d.paramKinds(p.Params)
		clause := d.whereClause(p.Clause)
		if d.err != nil {
			return nil
		}
		q, err := d.b.Quantify(params, clause)
		if err != nil {
			d.fail(err)
			return nil
		}
		out[i] = q
	}
	return out
}

func (d *decoder) domainGoal(p domainGoalPayload) ast.DomainGoal {
	kind := ast.DomainGoalKind(p.Kind)
	switch kind {
	case ast.DomainHolds:
		if p.Where == nil {
			d.failf(ErrCorrupt, "holds goal without clause")
			return ast.DomainGoal{}
		}
		return ast.DomainGoal{Kind: kind, Data: d.whereClause(*p.Where)}
	case ast.DomainNormalize:
		if p.Normalize == nil {
			d.failf(ErrCorrupt, "normalize goal without payload")
			return ast.DomainGoal{}
		}
		return ast.DomainGoal{Kind: kind, Data: ast.NormalizeData{
			Projection: d.projection(p.Normalize.Projection),
			Ty:         d.ty(p.Normalize.Ty),
		}}
	case ast.DomainTraitRefWellFormed, ast.DomainTraitRefFromEnv, ast.DomainLocalImplAllowed:
		if p.TraitRef == nil {
			d.failf(ErrCorrupt, "trait-ref goal without trait reference")
			return ast.DomainGoal{}
		}
		return ast.DomainGoal{Kind: kind, Data: d.traitRef(*p.TraitRef)}
	case ast.DomainTyWellFormed, ast.DomainTyFromEnv, ast.DomainIsLocal, ast.DomainIsExternal, ast.DomainIsDeeplyExternal:
		if p.Ty == nil {
			d.failf(ErrCorrupt, "type goal without type")
			return ast.DomainGoal{}
		}
		return ast.DomainGoal{Kind: kind, Data: d.ty(*p.Ty)}
	case ast.DomainTraitInScope:
		if p.Name == nil {
			d.failf(ErrCorrupt, "trait-in-scope goal without name")
			return ast.DomainGoal{}
		}
		return ast.DomainGoal{Kind: kind, Data: d.ident(*p.Name)}
	case ast.DomainDerefs:
		if p.Derefs == nil {
			d.failf(ErrCorrupt, "derefs goal without payload")
			return ast.DomainGoal{}
		}
		return ast.DomainGoal{Kind: kind, Data: ast.DerefsData{
			Source: d.ty(p.Derefs.Source),
			Target: d.ty(p.Derefs.Target),
		}}
	default:
		d.failf(ErrKindTag, "domain goal kind %d", p.Kind)
		return ast.DomainGoal{}
	}
}

func (d *decoder) leafGoal(p leafGoalPayload) ast.LeafGoal {
	switch ast.LeafGoalKind(p.Kind) {
	case ast.LeafDomain:
		if p.Domain == nil {
			d.failf(ErrCorrupt, "domain leaf without goal")
			return ast.LeafGoal{}
		}
		return ast.LeafGoal{Kind: ast.LeafDomain, Data: d.domainGoal(*p.Domain)}
	case ast.LeafUnifyTys:
		if p.UnifyTys == nil {
			d.failf(ErrCorrupt, "unify-tys leaf without pair")
			return ast.LeafGoal{}
		}
		return ast.LeafGoal{Kind: ast.LeafUnifyTys, Data: ast.UnifyTysData{
			A: d.ty(p.UnifyTys.A),
			B: d.ty(p.UnifyTys.B),
		}}
	case ast.LeafUnifyLifetimes:
		if p.UnifyLifetimes == nil {
			d.failf(ErrCorrupt, "unify-lifetimes leaf without pair")
			return ast.LeafGoal{}
		}
		return ast.LeafGoal{Kind: ast.LeafUnifyLifetimes, Data: ast.UnifyLifetimesData{
			A: ast.Lifetime{Name: d.ident(p.UnifyLifetimes.A)},
			B: ast.Lifetime{Name: d.ident(p.UnifyLifetimes.B)},
		}}
	default:
		d.failf(ErrKindTag, "leaf goal kind %d", p.Kind)
		return ast.LeafGoal{}
	}
}

func (d *decoder) goal(p goalPayload) ast.Goal {
	kind := ast.GoalKind(p.Kind)
	switch kind {
	case ast.GoalForAll, ast.GoalExists:
		if p.Quant == nil || p.Quant.Goal == nil {
			d.failf(ErrCorrupt, "quantifier goal without body")
			return ast.Goal{}
		}
		params := d.paramKinds(p.Quant.Params)
		nested := d.goal(*p.Quant.Goal)
		if d.err != nil {
			return ast.Goal{}
		}
		var g ast.Goal
		var err error
		if kind == ast.GoalForAll {
			g, err = d.b.ForAll(params, nested)
		} else {
			g, err = d.b.Exists(params, nested)
		}
		if err != nil {
			d.fail(err)
			return ast.Goal{}
		}
		return g
	case ast.GoalImplies:
		if p.Implies == nil || p.Implies.Goal == nil {
			d.failf(ErrCorrupt, "implies goal without body")
			return ast.Goal{}
		}
		clauses := d.clauses(p.Implies.Clauses)
		nested := d.goal(*p.Implies.Goal)
		if d.err != nil {
			return ast.Goal{}
		}
		return ast.ImpliesGoal(clauses, nested)
	case ast.GoalAnd:
		if p.And == nil || p.And.Left == nil || p.And.Right == nil {
			d.failf(ErrCorrupt, "conjunction without both operands")
			return ast.Goal{}
		}
		left := d.goal(*p.And.Left)
		right := d.goal(*p.And.Right)
		if d.err != nil {
			return ast.Goal{}
		}
		return ast.AndGoal(left, right)
	case ast.GoalNot:
		if p.Not == nil {
			d.failf(ErrCorrupt, "negation without operand")
			return ast.Goal{}
		}
		nested := d.goal(*p.Not)
		if d.err != nil {
			return ast.Goal{}
		}
		return ast.NotGoal(nested)
	case ast.GoalLeaf:
		if p.Leaf == nil {
			d.failf(ErrCorrupt, "leaf goal without payload")
			return ast.Goal{}
		}
		return ast.Goal{Kind: ast.GoalLeaf, Data: d.leafGoal(*p.Leaf)}
	default:
		d.failf(ErrKindTag, "goal kind %d", p.Kind)
		return ast.Goal{}
	}
}

func (d *decoder) goals(ps []goalPayload) []ast.Goal {
	if len(ps) == 0 {
		return nil
	}
	out := make([]ast.Goal, len(ps))
	for i, p := range ps {
		out[i] = d.goal(p)
		if d.err != nil {
			return nil
		}
	}
	return out
}

func (d *decoder) clause(p clausePayload) *ast.Clause {
	params := d.paramKinds(p.Params)
	consequence := d.domainGoal(p.Consequence)
	conditions := d.goals(p.Conditions)
	if d.err != nil {
		return nil
	}
	c, err := d.b.Clause(params, consequence, conditions...)
	if err != nil {
		d.fail(err)
		return nil
	}
	return c
}

func (d *decoder) clauses(ps []clausePayload) []ast.Clause {
	if len(ps) == 0 {
		return nil
	}
	out := make([]ast.Clause, len(ps))
	for i, p := range ps {
		c := d.clause(p)
		if d.err != nil {
			return nil
		}
		out[i] = *c
	}
	return out
}

func (d *decoder) fields(ps []fieldPayload) []ast.Field {
	if len(ps) == 0 {
		return nil
	}
	out := make([]ast.Field, len(ps))
	for i, p := range ps {
		out[i] = ast.Field{Name: d.ident(p.Name), Ty: d.ty(p.Ty)}
	}
	return out
}

func (d *decoder) structDefn(p structPayload) *ast.StructDefn {
	name := d.ident(p.Name)
	params := d.paramKinds(p.Params)
	where := d.quantifiedWhere(p.Where)
	fields := d.fields(p.Fields)
	if d.err != nil {
		return nil
	}
	s, err := d.b.Struct(name, params, where, fields, ast.StructFlags{
		External:    p.External,
		Fundamental: p.Fundamental,
	})
	if err != nil {
		d.fail(err)
		return nil
	}
	return s
}

func (d *decoder) traitBound(p traitBoundPayload) ast.TraitBound {
	return ast.TraitBound{Trait: d.ident(p.Trait), ArgsNoSelf: d.params(p.Args)}
}

func (d *decoder) inlineBounds(ps []inlineBoundPayload) []ast.InlineBound {
	if len(ps) == 0 {
		return nil
	}
	out := make([]ast.InlineBound, len(ps))
	for i, p := range ps {
		switch ast.InlineBoundKind(p.Kind) {
		case ast.BoundTrait:
			if p.Trait == nil {
				d.failf(ErrCorrupt, "trait bound without payload")
				return nil
			}
			out[i] = ast.InlineBound{Kind: ast.BoundTrait, Data: d.traitBound(*p.Trait)}
		case ast.BoundProjectionEq:
			if p.ProjEq == nil {
				d.failf(ErrCorrupt, "projection-eq bound without payload")
				return nil
			}
			out[i] = ast.InlineBound{Kind: ast.BoundProjectionEq, Data: ast.ProjectionEqBound{
				TraitBound: d.traitBound(p.ProjEq.TraitBound),
				Name:       d.ident(p.ProjEq.Name),
				Args:       d.params(p.ProjEq.Args),
				Value:      d.ty(p.ProjEq.Value),
			}}
		default:
			d.failf(ErrKindTag, "inline bound kind %d", p.Kind)
			return nil
		}
	}
	return out
}

func (d *decoder) assocTyDefns(ps []assocTyDefnPayload) []ast.AssocTyDefn {
	if len(ps) == 0 {
		return nil
	}
	out := make([]ast.AssocTyDefn, len(ps))
	for i, p := range ps {
		name := d.ident(p.Name)
		params := d.paramKinds(p.Params)
		bounds := d.inlineBounds(p.Bounds)
		where := d.quantifiedWhere(p.Where)
		if d.err != nil {
			return nil
		}
		a, err := d.b.AssocTy(name, params, bounds, where)
		if err != nil {
			d.fail(err)
			return nil
		}
		out[i] = a
	}
	return out
}

func (d *decoder) traitDefn(p traitPayload) *ast.TraitDefn {
	name := d.ident(p.Name)
	params := d.paramKinds(p.Params)
	where := d.quantifiedWhere(p.Where)
	assocTys := d.assocTyDefns(p.AssocTys)
	if d.err != nil {
		return nil
	}
	t, err := d.b.Trait(name, params, where, assocTys, ast.TraitFlags{
		Auto:     p.Auto,
		Marker:   p.Marker,
		External: p.External,
		Deref:    p.Deref,
	})
	if err != nil {
		d.fail(err)
		return nil
	}
	return t
}

func (d *decoder) assocTyValues(ps []assocTyValuePayload) []ast.AssocTyValue {
	if len(ps) == 0 {
		return nil
	}
	out := make([]ast.AssocTyValue, len(ps))
	for i, p := range ps {
		name := d.ident(p.Name)
		params := d.paramKinds(p.Params)
		value := d.ty(p.Value)
		if d.err != nil {
			return nil
		}
		v, err := d.b.AssocTyValue(name, params, value)
		if err != nil {
			d.fail(err)
			return nil
		}
		out[i] = v
	}
	return out
}

func (d *decoder) implDefn(p implPayload) *ast.Impl {
	params := d.paramKinds(p.Params)
	ref := d.traitRef(p.TraitRef)
	where := d.quantifiedWhere(p.Where)
	values := d.assocTyValues(p.Values)
	if d.err != nil {
		return nil
	}
	im, err := d.b.Impl(params, ast.PolarizeTraitRef(p.Positive, ref), where, values)
	if err != nil {
		d.fail(err)
		return nil
	}
	return im
}

func (d *decoder) item(p itemPayload) ast.Item {
	switch ast.ItemKind(p.Kind) {
	case ast.ItemStruct:
		if p.Struct == nil {
			d.failf(ErrCorrupt, "struct item without declaration")
			return ast.Item{}
		}
		s := d.structDefn(*p.Struct)
		if d.err != nil {
			return ast.Item{}
		}
		return ast.StructItem(s)
	case ast.ItemTrait:
		if p.Trait == nil {
			d.failf(ErrCorrupt, "trait item without declaration")
			return ast.Item{}
		}
		t := d.traitDefn(*p.Trait)
		if d.err != nil {
			return ast.Item{}
		}
		return ast.TraitItem(t)
	case ast.ItemImpl:
		if p.Impl == nil {
			d.failf(ErrCorrupt, "impl item without declaration")
			return ast.Item{}
		}
		im := d.implDefn(*p.Impl)
		if d.err != nil {
			return ast.Item{}
		}
		return ast.ImplItem(im)
	case ast.ItemClause:
		if p.Clause == nil {
			d.failf(ErrCorrupt, "clause item without rule")
			return ast.Item{}
		}
		c := d.clause(*p.Clause)
		if d.err != nil {
			return ast.Item{}
		}
		return ast.ClauseItem(c)
	default:
		d.failf(ErrKindTag, "item kind %d", p.Kind)
		return ast.Item{}
	}
}

func (d *decoder) program(p programPayload) *ast.Program {
	prog := &ast.Program{}
	if len(p.Items) == 0 {
		return prog
	}
	prog.Items = make([]ast.Item, len(p.Items))
	for i, it := range p.Items {
		prog.Items[i] = d.item(it)
		if d.err != nil {
			return nil
		}
	}
	return prog
}

// Decode reads one snapshot and rebuilds the program through the
// builder, re-interning all identifier text. On any failure the
// program is nil; no partially rebuilt tree escapes.
func Decode(r io.Reader, b *ast.Builder) (*ast.Program, error) {
	var payload programPayload
	if err := msgpack.NewDecoder(r).Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if payload.Schema != snapshotSchemaVersion {
		return nil, fmt.Errorf("%w: snapshot is schema %d, this build reads %d", ErrSchema, payload.Schema, snapshotSchemaVersion)
	}
	d := &decoder{b: b, strings: payload.Strings}
	prog := d.program(payload)
	if d.err != nil {
		return nil, d.err
	}
	return prog, nil
}

// ReadFile decodes the snapshot at path.
func ReadFile(path string, b *ast.Builder) (*ast.Program, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	return Decode(f, b)
}

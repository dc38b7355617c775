package wire

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"fortio.org/safecast"
	"github.com/vmihailenco/msgpack/v5"

	"quill/internal/ast"
	"quill/internal/source"
)

// encoder lowers a term tree into payload mirrors while building the
// deduplicated string table. The first failure sticks; later calls
// return zero payloads and Encode reports the stored error.
type encoder struct {
	interner *source.Interner
	strings  []string
	index    map[source.StringID]uint32
	err      error
}

func newEncoder(in *source.Interner) *encoder {
	return &encoder{
		interner: in,
		strings:  []string{""},
		index:    make(map[source.StringID]uint32),
	}
}

func (e *encoder) fail(what string) {
	if e.err == nil {
		e.err = fmt.Errorf("wire: cannot encode: %s", what)
	}
}

// str resolves an interned name into a string-table index, assigning
// table slots in first-use order. Index 0 stays reserved.
func (e *encoder) str(id source.StringID) uint32 {
	if id == source.NoStringID {
		e.fail("identifier without interned text")
		return 0
	}
	if idx, ok := e.index[id]; ok {
		return idx
	}
	text, ok := e.interner.Lookup(id)
	if !ok {
		e.fail("identifier from a foreign intern table")
		return 0
	}
	idx, err := safecast.Conv[uint32](len(e.strings))
	if err != nil {
		panic(fmt.Errorf("wire: string table overflow: %w", err))
	}
	e.strings = append(e.strings, text)
	e.index[id] = idx
	return idx
}

func (e *encoder) ident(id ast.Identifier) identPayload {
	return identPayload{Str: e.str(id.Name), Start: id.Span.Start, End: id.Span.End}
}

func (e *encoder) idents(ids []ast.Identifier) []identPayload {
	if len(ids) == 0 {
		return nil
	}
	out := make([]identPayload, len(ids))
	for i, id := range ids {
		out[i] = e.ident(id)
	}
	return out
}

func (e *encoder) paramKinds(kinds []ast.ParameterKind) []paramKindPayload {
	if len(kinds) == 0 {
		return nil
	}
	out := make([]paramKindPayload, len(kinds))
	for i, pk := range kinds {
		out[i] = paramKindPayload{Kind: uint8(pk.Kind), Name: e.ident(pk.Name)}
	}
	return out
}

func (e *encoder) param(p ast.Parameter) paramPayload {
	out := paramPayload{Kind: uint8(p.Kind)}
	switch p.Kind {
	case ast.KindTy:
		t, ok := p.Ty()
		if !ok {
			e.fail("type parameter without a type payload")
			return out
		}
		ty := e.ty(t)
		out.Ty = &ty
	case ast.KindLifetime:
		l, ok := p.Lifetime()
		if !ok {
			e.fail("lifetime parameter without a lifetime payload")
			return out
		}
		name := e.ident(l.Name)
		out.Lifetime = &name
	default:
		e.fail(fmt.Sprintf("parameter kind %d", p.Kind))
	}
	return out
}

func (e *encoder) params(ps []ast.Parameter) []paramPayload {
	if len(ps) == 0 {
		return nil
	}
	out := make([]paramPayload, len(ps))
	for i, p := range ps {
		out[i] = e.param(p)
	}
	return out
}

func (e *encoder) ty(t ast.Ty) tyPayload {
	out := tyPayload{Kind: uint8(t.Kind)}
	switch t.Kind {
	case ast.TyName:
		id, ok := t.Data.(ast.Identifier)
		if !ok {
			e.fail("name type payload")
			return out
		}
		name := e.ident(id)
		out.Name = &name
	case ast.TyApply:
		data, ok := t.Data.(ast.ApplyData)
		if !ok {
			e.fail("apply type payload")
			return out
		}
		out.Apply = &applyPayload{Name: e.ident(data.Name), Args: e.params(data.Args)}
	case ast.TyProjection:
		data, ok := t.Data.(ast.ProjectionTy)
		if !ok {
			e.fail("projection type payload")
			return out
		}
		proj := e.projection(data)
		out.Proj = &proj
	case ast.TyUnselectedProjection:
		data, ok := t.Data.(ast.UnselectedProjectionTy)
		if !ok {
			e.fail("unselected projection type payload")
			return out
		}
		out.UProj = &unselectedProjPayload{Name: e.ident(data.Name), Args: e.params(data.Args)}
	case ast.TyForAll:
		data, ok := t.Data.(ast.ForAllData)
		if !ok || data.Ty == nil {
			e.fail("forall type payload")
			return out
		}
		body := e.ty(*data.Ty)
		out.ForAll = &forAllPayload{Lifetimes: e.idents(data.Lifetimes), Ty: &body}
	default:
		e.fail(fmt.Sprintf("type kind %d", t.Kind))
	}
	return out
}

func (e *encoder) traitRef(r ast.TraitRef) traitRefPayload {
	return traitRefPayload{Trait: e.ident(r.Trait), Args: e.params(r.Args)}
}

func (e *encoder) projection(p ast.ProjectionTy) projectionPayload {
	return projectionPayload{
		TraitRef: e.traitRef(p.TraitRef),
		Name:     e.ident(p.Name),
		Args:     e.params(p.Args),
	}
}

func (e *encoder) whereClause(w ast.WhereClause) whereClausePayload {
	out := whereClausePayload{Kind: uint8(w.Kind)}
	switch w.Kind {
	case ast.WhereImplemented:
		ref, ok := w.Data.(ast.TraitRef)
		if !ok {
			e.fail("implemented clause payload")
			return out
		}
		tr := e.traitRef(ref)
		out.TraitRef = &tr
	case ast.WhereProjectionEq:
		data, ok := w.Data.(ast.ProjectionEqData)
		if !ok {
			e.fail("projection-eq clause payload")
			return out
		}
		out.ProjEq = &projectionEqPayload{Projection: e.projection(data.Projection), Ty: e.ty(data.Ty)}
	default:
		e.fail(fmt.Sprintf("where clause kind %d", w.Kind))
	}
	return out
}

func (e *encoder) quantifiedWhere(qs []ast.QuantifiedWhereClause) []quantifiedWherePayload {
	if len(qs) == 0 {
		return nil
	}
	out := make([]quantifiedWherePayload, len(qs))
	for i, q := range qs {
		out[i] = quantifiedWherePayload{Params: e.paramKinds(q.Params), Clause: e.whereClause(q.Clause)}
	}
	return out
}

func (e *encoder) domainGoal(g ast.DomainGoal) domainGoalPayload {
	out := domainGoalPayload{Kind: uint8(g.Kind)}
	switch g.Kind {
	case ast.DomainHolds:
		wc, ok := g.Data.(ast.WhereClause)
		if !ok {
			e.fail("holds goal payload")
			return out
		}
		where := e.whereClause(wc)
		out.Where = &where
	case ast.DomainNormalize:
		data, ok := g.Data.(ast.NormalizeData)
		if !ok {
			e.fail("normalize goal payload")
			return out
		}
		out.Normalize = &normalizePayload{Projection: e.projection(data.Projection), Ty: e.ty(data.Ty)}
	case ast.DomainTraitRefWellFormed, ast.DomainTraitRefFromEnv, ast.DomainLocalImplAllowed:
		ref, ok := g.Data.(ast.TraitRef)
		if !ok {
			e.fail("trait-ref goal payload")
			return out
		}
		tr := e.traitRef(ref)
		out.TraitRef = &tr
	case ast.DomainTyWellFormed, ast.DomainTyFromEnv, ast.DomainIsLocal, ast.DomainIsExternal, ast.DomainIsDeeplyExternal:
		t, ok := g.Data.(ast.Ty)
		if !ok {
			e.fail("type goal payload")
			return out
		}
		ty := e.ty(t)
		out.Ty = &ty
	case ast.DomainTraitInScope:
		id, ok := g.Data.(ast.Identifier)
		if !ok {
			e.fail("trait-in-scope goal payload")
			return out
		}
		name := e.ident(id)
		out.Name = &name
	case ast.DomainDerefs:
		data, ok := g.Data.(ast.DerefsData)
		if !ok {
			e.fail("derefs goal payload")
			return out
		}
		out.Derefs = &derefsPayload{Source: e.ty(data.Source), Target: e.ty(data.Target)}
	default:
		e.fail(fmt.Sprintf("domain goal kind %d", g.Kind))
	}
	return out
}

func (e *encoder) leafGoal(l ast.LeafGoal) leafGoalPayload {
	out := leafGoalPayload{Kind: uint8(l.Kind)}
	switch l.Kind {
	case ast.LeafDomain:
		g, ok := l.Data.(ast.DomainGoal)
		if !ok {
			e.fail("domain leaf payload")
			return out
		}
		domain := e.domainGoal(g)
		out.Domain = &domain
	case ast.LeafUnifyTys:
		data, ok := l.Data.(ast.UnifyTysData)
		if !ok {
			e.fail("unify-tys leaf payload")
			return out
		}
		out.UnifyTys = &unifyTysPayload{A: e.ty(data.A), B: e.ty(data.B)}
	case ast.LeafUnifyLifetimes:
		data, ok := l.Data.(ast.UnifyLifetimesData)
		if !ok {
			e.fail("unify-lifetimes leaf payload")
			return out
		}
		out.UnifyLifetimes = &unifyLifetimesPayload{A: e.ident(data.A.Name), B: e.ident(data.B.Name)}
	default:
		e.fail(fmt.Sprintf("leaf goal kind %d", l.Kind))
	}
	return out
}

func (e *encoder) goal(g ast.Goal) goalPayload {
	out := goalPayload{Kind: uint8(g.Kind)}
	switch g.Kind {
	case ast.GoalForAll, ast.GoalExists:
		data, ok := g.Data.(ast.QuantifierData)
		if !ok || data.Goal == nil {
			e.fail("quantifier goal payload")
			return out
		}
		nested := e.goal(*data.Goal)
		out.Quant = &quantifierPayload{Params: e.paramKinds(data.Params), Goal: &nested}
	case ast.GoalImplies:
		data, ok := g.Data.(ast.ImpliesData)
		if !ok || data.Goal == nil {
			e.fail("implies goal payload")
			return out
		}
		nested := e.goal(*data.Goal)
		out.Implies = &impliesPayload{Clauses: e.clauses(data.Clauses), Goal: &nested}
	case ast.GoalAnd:
		data, ok := g.Data.(ast.AndData)
		if !ok || data.Left == nil || data.Right == nil {
			e.fail("and goal payload")
			return out
		}
		left := e.goal(*data.Left)
		right := e.goal(*data.Right)
		out.And = &andPayload{Left: &left, Right: &right}
	case ast.GoalNot:
		data, ok := g.Data.(ast.NotData)
		if !ok || data.Goal == nil {
			e.fail("not goal payload")
			return out
		}
		nested := e.goal(*data.Goal)
		out.Not = &nested
	case ast.GoalLeaf:
		leaf, ok := g.Data.(ast.LeafGoal)
		if !ok {
			e.fail("leaf goal payload")
			return out
		}
		lp := e.leafGoal(leaf)
		out.Leaf = &lp
	default:
		e.fail(fmt.Sprintf("goal kind %d", g.Kind))
	}
	return out
}

func (e *encoder) goals(gs []ast.Goal) []goalPayload {
	if len(gs) == 0 {
		return nil
	}
	out := make([]goalPayload, len(gs))
	for i, g := range gs {
		out[i] = e.goal(g)
	}
	return out
}

func (e *encoder) clause(c *ast.Clause) clausePayload {
	if c == nil {
		e.fail("nil clause")
		return clausePayload{}
	}
	return clausePayload{
		Params:      e.paramKinds(c.Params),
		Consequence: e.domainGoal(c.Consequence),
		Conditions:  e.goals(c.Conditions),
	}
}

func (e *encoder) clauses(cs []ast.Clause) []clausePayload {
	if len(cs) == 0 {
		return nil
	}
	out := make([]clausePayload, len(cs))
	for i := range cs {
		out[i] = e.clause(&cs[i])
	}
	return out
}

func (e *encoder) fields(fs []ast.Field) []fieldPayload {
	if len(fs) == 0 {
		return nil
	}
	out := make([]fieldPayload, len(fs))
	for i, f := range fs {
		out[i] = fieldPayload{Name: e.ident(f.Name), Ty: e.ty(f.Ty)}
	}
	return out
}

func (e *encoder) structDefn(s *ast.StructDefn) *structPayload {
	if s == nil {
		e.fail("nil struct declaration")
		return nil
	}
	return &structPayload{
		Name:        e.ident(s.Name),
		Params:      e.paramKinds(s.Params),
		Where:       e.quantifiedWhere(s.Where),
		Fields:      e.fields(s.Fields),
		External:    s.Flags.External,
		Fundamental: s.Flags.Fundamental,
	}
}

func (e *encoder) traitBound(t ast.TraitBound) traitBoundPayload {
	return traitBoundPayload{Trait: e.ident(t.Trait), Args: e.params(t.ArgsNoSelf)}
}

func (e *encoder) inlineBounds(bs []ast.InlineBound) []inlineBoundPayload {
	if len(bs) == 0 {
		return nil
	}
	out := make([]inlineBoundPayload, len(bs))
	for i, b := range bs {
		p := inlineBoundPayload{Kind: uint8(b.Kind)}
		switch b.Kind {
		case ast.BoundTrait:
			tb, ok := b.Data.(ast.TraitBound)
			if !ok {
				e.fail("trait bound payload")
				break
			}
			bound := e.traitBound(tb)
			p.Trait = &bound
		case ast.BoundProjectionEq:
			pb, ok := b.Data.(ast.ProjectionEqBound)
			if !ok {
				e.fail("projection-eq bound payload")
				break
			}
			p.ProjEq = &projectionEqBoundPayload{
				TraitBound: e.traitBound(pb.TraitBound),
				Name:       e.ident(pb.Name),
				Args:       e.params(pb.Args),
				Value:      e.ty(pb.Value),
			}
		default:
			e.fail(fmt.Sprintf("inline bound kind %d", b.Kind))
		}
		out[i] = p
	}
	return out
}

func (e *encoder) assocTyDefns(as []ast.AssocTyDefn) []assocTyDefnPayload {
	if len(as) == 0 {
		return nil
	}
	out := make([]assocTyDefnPayload, len(as))
	for i, a := range as {
		out[i] = assocTyDefnPayload{
			Name:   e.ident(a.Name),
			Params: e.paramKinds(a.Params),
			Bounds: e.inlineBounds(a.Bounds),
			Where:  e.quantifiedWhere(a.Where),
		}
	}
	return out
}

func (e *encoder) traitDefn(t *ast.TraitDefn) *traitPayload {
	if t == nil {
		e.fail("nil trait declaration")
		return nil
	}
	return &traitPayload{
		Name:     e.ident(t.Name),
		Params:   e.paramKinds(t.Params),
		Where:    e.quantifiedWhere(t.Where),
		AssocTys: e.assocTyDefns(t.AssocTys),
		Auto:     t.Flags.Auto,
		Marker:   t.Flags.Marker,
		External: t.Flags.External,
		Deref:    t.Flags.Deref,
	}
}

func (e *encoder) assocTyValues(vs []ast.AssocTyValue) []assocTyValuePayload {
	if len(vs) == 0 {
		return nil
	}
	out := make([]assocTyValuePayload, len(vs))
	for i, v := range vs {
		out[i] = assocTyValuePayload{
			Name:   e.ident(v.Name),
			Params: e.paramKinds(v.Params),
			Value:  e.ty(v.Value),
		}
	}
	return out
}

func (e *encoder) implDefn(im *ast.Impl) *implPayload {
	if im == nil {
		e.fail("nil impl")
		return nil
	}
	return &implPayload{
		Params:   e.paramKinds(im.Params),
		Positive: im.TraitRef.IsPositive(),
		TraitRef: e.traitRef(im.TraitRef.TraitRef),
		Where:    e.quantifiedWhere(im.Where),
		Values:   e.assocTyValues(im.AssocTyValues),
	}
}

func (e *encoder) item(it ast.Item) itemPayload {
	out := itemPayload{Kind: uint8(it.Kind)}
	switch it.Kind {
	case ast.ItemStruct:
		s, ok := it.Data.(*ast.StructDefn)
		if !ok {
			e.fail("struct item payload")
			return out
		}
		out.Struct = e.structDefn(s)
	case ast.ItemTrait:
		t, ok := it.Data.(*ast.TraitDefn)
		if !ok {
			e.fail("trait item payload")
			return out
		}
		out.Trait = e.traitDefn(t)
	case ast.ItemImpl:
		im, ok := it.Data.(*ast.Impl)
		if !ok {
			e.fail("impl item payload")
			return out
		}
		out.Impl = e.implDefn(im)
	case ast.ItemClause:
		c, ok := it.Data.(*ast.Clause)
		if !ok {
			e.fail("clause item payload")
			return out
		}
		clause := e.clause(c)
		out.Clause = &clause
	default:
		e.fail(fmt.Sprintf("item kind %d", it.Kind))
	}
	return out
}

func (e *encoder) program(p *ast.Program) programPayload {
	out := programPayload{Schema: snapshotSchemaVersion}
	if p == nil {
		e.fail("nil program")
		return out
	}
	if len(p.Items) > 0 {
		out.Items = make([]itemPayload, len(p.Items))
		for i, it := range p.Items {
			out.Items[i] = e.item(it)
		}
	}
	out.Strings = e.strings
	return out
}

// Encode serializes a program snapshot. The interner must be the one
// the program's identifiers were interned into.
func Encode(w io.Writer, prog *ast.Program, in *source.Interner) error {
	e := newEncoder(in)
	payload := e.program(prog)
	if e.err != nil {
		return e.err
	}
	return msgpack.NewEncoder(w).Encode(&payload)
}

// WriteFile encodes a snapshot to path through a temp file in the same
// directory and an atomic rename, so readers never observe a torn
// snapshot.
func WriteFile(path string, prog *ast.Program, in *source.Interner) error {
	dir := filepath.Dir(path)
	f, err := os.CreateTemp(dir, ".qpk-*")
	if err != nil {
		return err
	}
	tmp := f.Name()
	if err := Encode(f, prog, in); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	// Атомарная замена.
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}

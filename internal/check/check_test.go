package check

import (
	"strings"
	"testing"

	"quill/internal/ast"
	"quill/internal/diag"
	"quill/internal/source"
)

func sp(lo, hi uint32) source.Span { return source.Span{Start: lo, End: hi} }

func tyName(b *ast.Builder, text string) ast.Ty {
	return ast.Ty{Kind: ast.TyName, Data: b.Ident(text, sp(0, 0))}
}

type fixture struct {
	in *source.Interner
	b  *ast.Builder
}

func newFixture() *fixture {
	in := source.NewInterner()
	return &fixture{in: in, b: ast.NewBuilder(in)}
}

// vecStruct declares struct Vec<T> { len: u32 }.
func (fx *fixture) vecStruct(t *testing.T) *ast.StructDefn {
	t.Helper()
	s, err := fx.b.Struct(
		fx.b.Ident("Vec", sp(10, 13)),
		[]ast.ParameterKind{{Kind: ast.KindTy, Name: fx.b.Ident("T", sp(14, 15))}},
		nil,
		[]ast.Field{{Name: fx.b.Ident("len", sp(16, 19)), Ty: tyName(fx.b, "u32")}},
		ast.StructFlags{},
	)
	if err != nil {
		t.Fatalf("struct: %v", err)
	}
	return s
}

// iterTrait declares trait Iterator { type Item; } with no parameters
// besides self.
func (fx *fixture) iterTrait(t *testing.T) *ast.TraitDefn {
	t.Helper()
	item, err := fx.b.AssocTy(fx.b.Ident("Item", sp(20, 24)), nil, nil, nil)
	if err != nil {
		t.Fatalf("assoc ty: %v", err)
	}
	tr, err := fx.b.Trait(fx.b.Ident("Iterator", sp(25, 33)), nil, nil, []ast.AssocTyDefn{item}, ast.TraitFlags{})
	if err != nil {
		t.Fatalf("trait: %v", err)
	}
	return tr
}

// vecOfT builds the application Vec<T>.
func (fx *fixture) vecOfT() ast.Ty {
	return ast.Ty{Kind: ast.TyApply, Data: ast.ApplyData{
		Name: fx.b.Ident("Vec", sp(40, 43)),
		Args: []ast.Parameter{ast.TyParam(tyName(fx.b, "T"))},
	}}
}

func (fx *fixture) iterRef() ast.TraitRef {
	return ast.TraitRef{
		Trait: fx.b.Ident("Iterator", sp(50, 58)),
		Args:  []ast.Parameter{ast.TyParam(fx.vecOfT())},
	}
}

func (fx *fixture) check(t *testing.T, items ...ast.Item) (*diag.Bag, Stats) {
	t.Helper()
	bag := diag.NewBag(32)
	stats := Program(&ast.Program{Items: items}, fx.in, Options{Reporter: diag.BagReporter{Bag: bag}})
	return bag, stats
}

func codesOf(bag *diag.Bag) []diag.Code {
	out := make([]diag.Code, 0, bag.Len())
	for _, d := range bag.Items() {
		out = append(out, d.Code)
	}
	return out
}

func expectCodes(t *testing.T, bag *diag.Bag, want ...diag.Code) {
	t.Helper()
	got := codesOf(bag)
	if len(got) != len(want) {
		t.Fatalf("expected codes %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected codes %v, got %v", want, got)
		}
	}
}

func TestProgram_CleanFixture(t *testing.T) {
	fx := newFixture()
	vec := fx.vecStruct(t)
	iter := fx.iterTrait(t)

	value, err := fx.b.AssocTyValue(fx.b.Ident("Item", sp(60, 64)), nil, tyName(fx.b, "T"))
	if err != nil {
		t.Fatalf("assoc ty value: %v", err)
	}
	impl, err := fx.b.Impl(
		[]ast.ParameterKind{{Kind: ast.KindTy, Name: fx.b.Ident("T", sp(65, 66))}},
		ast.PolarizeTraitRef(true, fx.iterRef()),
		nil,
		[]ast.AssocTyValue{value},
	)
	if err != nil {
		t.Fatalf("impl: %v", err)
	}
	proj := ast.ProjectionTy{TraitRef: fx.iterRef(), Name: fx.b.Ident("Item", sp(70, 74))}
	clause, err := fx.b.Clause(
		[]ast.ParameterKind{{Kind: ast.KindTy, Name: fx.b.Ident("T", sp(75, 76))}},
		ast.DomainGoal{Kind: ast.DomainNormalize, Data: ast.NormalizeData{Projection: proj, Ty: tyName(fx.b, "u32")}},
		ast.DomainLeaf(ast.DomainGoal{Kind: ast.DomainTraitInScope, Data: fx.b.Ident("Iterator", sp(77, 85))}),
	)
	if err != nil {
		t.Fatalf("clause: %v", err)
	}

	bag, stats := fx.check(t,
		ast.StructItem(vec),
		ast.TraitItem(iter),
		ast.ImplItem(impl),
		ast.ClauseItem(clause),
	)
	if bag.Len() != 0 {
		t.Fatalf("expected a clean program, got %v", bag.Items())
	}
	want := Stats{Structs: 1, Traits: 1, Impls: 1, Clauses: 1}
	if stats != want {
		t.Fatalf("expected stats %+v, got %+v", want, stats)
	}
}

func TestProgram_ForwardReference(t *testing.T) {
	fx := newFixture()
	impl, err := fx.b.Impl(nil, ast.PolarizeTraitRef(true, ast.TraitRef{
		Trait: fx.b.Ident("Iterator", sp(1, 9)),
		Args:  []ast.Parameter{ast.TyParam(tyName(fx.b, "X"))},
	}), nil, nil)
	if err != nil {
		t.Fatalf("impl: %v", err)
	}
	// The impl precedes the trait declaration and must still resolve.
	bag, _ := fx.check(t, ast.ImplItem(impl), ast.TraitItem(fx.iterTrait(t)))
	if bag.Len() != 0 {
		t.Fatalf("forward reference should be clean, got %v", bag.Items())
	}
}

func TestCheck_UnknownTrait(t *testing.T) {
	t.Run("impl ref", func(t *testing.T) {
		fx := newFixture()
		impl, err := fx.b.Impl(nil, ast.PolarizeTraitRef(true, ast.TraitRef{
			Trait: fx.b.Ident("Marker", sp(1, 7)),
			Args:  []ast.Parameter{ast.TyParam(tyName(fx.b, "X"))},
		}), nil, nil)
		if err != nil {
			t.Fatalf("impl: %v", err)
		}
		bag, _ := fx.check(t, ast.ImplItem(impl))
		expectCodes(t, bag, diag.CheckUnknownTrait)
		if got := bag.Items()[0].Primary; got != sp(1, 7) {
			t.Fatalf("expected span %v, got %v", sp(1, 7), got)
		}
	})
	t.Run("trait in scope goal", func(t *testing.T) {
		fx := newFixture()
		clause, err := fx.b.Clause(nil,
			ast.DomainGoal{Kind: ast.DomainTraitInScope, Data: fx.b.Ident("Ghost", sp(2, 7))})
		if err != nil {
			t.Fatalf("clause: %v", err)
		}
		bag, _ := fx.check(t, ast.ClauseItem(clause))
		expectCodes(t, bag, diag.CheckUnknownTrait)
	})
	t.Run("inline bound", func(t *testing.T) {
		fx := newFixture()
		assoc, err := fx.b.AssocTy(fx.b.Ident("Out", sp(3, 6)),
			nil,
			[]ast.InlineBound{{Kind: ast.BoundTrait, Data: ast.TraitBound{Trait: fx.b.Ident("Missing", sp(7, 14))}}},
			nil)
		if err != nil {
			t.Fatalf("assoc ty: %v", err)
		}
		tr, err := fx.b.Trait(fx.b.Ident("Producer", sp(15, 23)), nil, nil, []ast.AssocTyDefn{assoc}, ast.TraitFlags{})
		if err != nil {
			t.Fatalf("trait: %v", err)
		}
		bag, _ := fx.check(t, ast.TraitItem(tr))
		expectCodes(t, bag, diag.CheckUnknownTrait)
	})
}

func TestCheck_UnknownStruct(t *testing.T) {
	t.Run("undeclared", func(t *testing.T) {
		fx := newFixture()
		missing := ast.Ty{Kind: ast.TyApply, Data: ast.ApplyData{Name: fx.b.Ident("Missing", sp(1, 8))}}
		clause, err := fx.b.Clause(nil, ast.DomainGoal{Kind: ast.DomainTyWellFormed, Data: missing})
		if err != nil {
			t.Fatalf("clause: %v", err)
		}
		bag, _ := fx.check(t, ast.ClauseItem(clause))
		expectCodes(t, bag, diag.CheckUnknownStruct)
	})
	t.Run("trait used as struct", func(t *testing.T) {
		fx := newFixture()
		iter := fx.iterTrait(t)
		applied := ast.Ty{Kind: ast.TyApply, Data: ast.ApplyData{Name: fx.b.Ident("Iterator", sp(1, 9))}}
		clause, err := fx.b.Clause(nil, ast.DomainGoal{Kind: ast.DomainTyWellFormed, Data: applied})
		if err != nil {
			t.Fatalf("clause: %v", err)
		}
		bag, _ := fx.check(t, ast.TraitItem(iter), ast.ClauseItem(clause))
		expectCodes(t, bag, diag.CheckUnknownStruct)
		d := bag.Items()[0]
		if !strings.Contains(d.Message, "not a struct") {
			t.Fatalf("expected the trait hint, got %q", d.Message)
		}
		if len(d.Notes) != 1 {
			t.Fatalf("expected a declaration note, got %v", d.Notes)
		}
	})
}

func TestCheck_ArityMismatch(t *testing.T) {
	t.Run("struct args", func(t *testing.T) {
		fx := newFixture()
		vec := fx.vecStruct(t)
		bare := ast.Ty{Kind: ast.TyApply, Data: ast.ApplyData{Name: fx.b.Ident("Vec", sp(1, 4))}}
		clause, err := fx.b.Clause(nil, ast.DomainGoal{Kind: ast.DomainIsLocal, Data: bare})
		if err != nil {
			t.Fatalf("clause: %v", err)
		}
		bag, _ := fx.check(t, ast.StructItem(vec), ast.ClauseItem(clause))
		expectCodes(t, bag, diag.CheckArityMismatch)
		if msg := bag.Items()[0].Message; !strings.Contains(msg, "expects 1 argument(s), got 0") {
			t.Fatalf("unexpected message %q", msg)
		}
	})
	t.Run("trait args besides self", func(t *testing.T) {
		fx := newFixture()
		iter := fx.iterTrait(t)
		ref := ast.TraitRef{
			Trait: fx.b.Ident("Iterator", sp(1, 9)),
			Args: []ast.Parameter{
				ast.TyParam(tyName(fx.b, "X")),
				ast.TyParam(tyName(fx.b, "Y")),
			},
		}
		impl, err := fx.b.Impl(nil, ast.PolarizeTraitRef(true, ref), nil, nil)
		if err != nil {
			t.Fatalf("impl: %v", err)
		}
		bag, _ := fx.check(t, ast.TraitItem(iter), ast.ImplItem(impl))
		expectCodes(t, bag, diag.CheckArityMismatch)
		if msg := bag.Items()[0].Message; !strings.Contains(msg, "besides self") {
			t.Fatalf("unexpected message %q", msg)
		}
	})
	t.Run("missing self", func(t *testing.T) {
		fx := newFixture()
		iter := fx.iterTrait(t)
		impl, err := fx.b.Impl(nil, ast.PolarizeTraitRef(true, ast.TraitRef{
			Trait: fx.b.Ident("Iterator", sp(1, 9)),
		}), nil, nil)
		if err != nil {
			t.Fatalf("impl: %v", err)
		}
		bag, _ := fx.check(t, ast.TraitItem(iter), ast.ImplItem(impl))
		expectCodes(t, bag, diag.CheckArityMismatch)
		if msg := bag.Items()[0].Message; !strings.Contains(msg, "missing its self type") {
			t.Fatalf("unexpected message %q", msg)
		}
	})
	t.Run("assoc value binders", func(t *testing.T) {
		fx := newFixture()
		iter := fx.iterTrait(t)
		value, err := fx.b.AssocTyValue(
			fx.b.Ident("Item", sp(1, 5)),
			[]ast.ParameterKind{{Kind: ast.KindLifetime, Name: fx.b.Ident("a", sp(6, 7))}},
			tyName(fx.b, "X"),
		)
		if err != nil {
			t.Fatalf("assoc ty value: %v", err)
		}
		impl, err := fx.b.Impl(nil, ast.PolarizeTraitRef(true, ast.TraitRef{
			Trait: fx.b.Ident("Iterator", sp(8, 16)),
			Args:  []ast.Parameter{ast.TyParam(tyName(fx.b, "X"))},
		}), nil, []ast.AssocTyValue{value})
		if err != nil {
			t.Fatalf("impl: %v", err)
		}
		bag, _ := fx.check(t, ast.TraitItem(iter), ast.ImplItem(impl))
		expectCodes(t, bag, diag.CheckArityMismatch)
		if msg := bag.Items()[0].Message; !strings.Contains(msg, "binds 1 parameter(s), trait declares 0") {
			t.Fatalf("unexpected message %q", msg)
		}
	})
}

func TestCheck_KindMismatch(t *testing.T) {
	t.Run("lifetime for type", func(t *testing.T) {
		fx := newFixture()
		vec := fx.vecStruct(t)
		applied := ast.Ty{Kind: ast.TyApply, Data: ast.ApplyData{
			Name: fx.b.Ident("Vec", sp(1, 4)),
			Args: []ast.Parameter{ast.LifetimeParam(ast.Lifetime{Name: fx.b.Ident("a", sp(5, 6))})},
		}}
		clause, err := fx.b.Clause(nil, ast.DomainGoal{Kind: ast.DomainIsLocal, Data: applied})
		if err != nil {
			t.Fatalf("clause: %v", err)
		}
		bag, _ := fx.check(t, ast.StructItem(vec), ast.ClauseItem(clause))
		expectCodes(t, bag, diag.CheckKindMismatch)
		d := bag.Items()[0]
		if !strings.Contains(d.Message, "must be a type, got a lifetime") {
			t.Fatalf("unexpected message %q", d.Message)
		}
		if d.Primary != sp(5, 6) {
			t.Fatalf("expected the argument span, got %v", d.Primary)
		}
	})
	t.Run("self as lifetime", func(t *testing.T) {
		fx := newFixture()
		iter := fx.iterTrait(t)
		impl, err := fx.b.Impl(nil, ast.PolarizeTraitRef(true, ast.TraitRef{
			Trait: fx.b.Ident("Iterator", sp(1, 9)),
			Args:  []ast.Parameter{ast.LifetimeParam(ast.Lifetime{Name: fx.b.Ident("a", sp(10, 11))})},
		}), nil, nil)
		if err != nil {
			t.Fatalf("impl: %v", err)
		}
		bag, _ := fx.check(t, ast.TraitItem(iter), ast.ImplItem(impl))
		expectCodes(t, bag, diag.CheckKindMismatch)
		if msg := bag.Items()[0].Message; !strings.Contains(msg, "self argument") {
			t.Fatalf("unexpected message %q", msg)
		}
	})
}

func TestCheck_DuplicateDecl(t *testing.T) {
	t.Run("struct twice", func(t *testing.T) {
		fx := newFixture()
		first, err := fx.b.Struct(fx.b.Ident("Dup", sp(1, 4)), nil, nil, nil, ast.StructFlags{})
		if err != nil {
			t.Fatalf("struct: %v", err)
		}
		second, err := fx.b.Struct(fx.b.Ident("Dup", sp(5, 8)), nil, nil, nil, ast.StructFlags{})
		if err != nil {
			t.Fatalf("struct: %v", err)
		}
		bag, _ := fx.check(t, ast.StructItem(first), ast.StructItem(second))
		expectCodes(t, bag, diag.CheckDuplicateDecl)
		d := bag.Items()[0]
		if d.Primary != sp(5, 8) {
			t.Fatalf("expected the duplicate's span, got %v", d.Primary)
		}
		if len(d.Notes) != 1 || d.Notes[0].Span != sp(1, 4) {
			t.Fatalf("expected a note at the first declaration, got %v", d.Notes)
		}
	})
	t.Run("struct and trait share one namespace", func(t *testing.T) {
		fx := newFixture()
		s, err := fx.b.Struct(fx.b.Ident("Shape", sp(1, 6)), nil, nil, nil, ast.StructFlags{})
		if err != nil {
			t.Fatalf("struct: %v", err)
		}
		tr, err := fx.b.Trait(fx.b.Ident("Shape", sp(7, 12)), nil, nil, nil, ast.TraitFlags{})
		if err != nil {
			t.Fatalf("trait: %v", err)
		}
		bag, _ := fx.check(t, ast.StructItem(s), ast.TraitItem(tr))
		expectCodes(t, bag, diag.CheckDuplicateDecl)
	})
}

func TestCheck_DuplicateField(t *testing.T) {
	fx := newFixture()
	s, err := fx.b.Struct(
		fx.b.Ident("Pair", sp(1, 5)),
		nil, nil,
		[]ast.Field{
			{Name: fx.b.Ident("x", sp(6, 7)), Ty: tyName(fx.b, "u32")},
			{Name: fx.b.Ident("x", sp(8, 9)), Ty: tyName(fx.b, "u32")},
		},
		ast.StructFlags{},
	)
	if err != nil {
		t.Fatalf("struct: %v", err)
	}
	bag, _ := fx.check(t, ast.StructItem(s))
	expectCodes(t, bag, diag.CheckDuplicateField)
	d := bag.Items()[0]
	if d.Primary != sp(8, 9) {
		t.Fatalf("expected the duplicate's span, got %v", d.Primary)
	}
	if len(d.Notes) != 1 || d.Notes[0].Span != sp(6, 7) {
		t.Fatalf("expected a note at the first field, got %v", d.Notes)
	}
}

func TestCheck_UnknownAssocTy(t *testing.T) {
	t.Run("impl value", func(t *testing.T) {
		fx := newFixture()
		iter := fx.iterTrait(t)
		value, err := fx.b.AssocTyValue(fx.b.Ident("Nope", sp(1, 5)), nil, tyName(fx.b, "X"))
		if err != nil {
			t.Fatalf("assoc ty value: %v", err)
		}
		impl, err := fx.b.Impl(nil, ast.PolarizeTraitRef(true, ast.TraitRef{
			Trait: fx.b.Ident("Iterator", sp(6, 14)),
			Args:  []ast.Parameter{ast.TyParam(tyName(fx.b, "X"))},
		}), nil, []ast.AssocTyValue{value})
		if err != nil {
			t.Fatalf("impl: %v", err)
		}
		bag, _ := fx.check(t, ast.TraitItem(iter), ast.ImplItem(impl))
		expectCodes(t, bag, diag.CheckUnknownAssocTy)
	})
	t.Run("projection", func(t *testing.T) {
		fx := newFixture()
		iter := fx.iterTrait(t)
		proj := ast.ProjectionTy{
			TraitRef: ast.TraitRef{
				Trait: fx.b.Ident("Iterator", sp(1, 9)),
				Args:  []ast.Parameter{ast.TyParam(tyName(fx.b, "X"))},
			},
			Name: fx.b.Ident("Nope", sp(10, 14)),
		}
		clause, err := fx.b.Clause(nil,
			ast.DomainGoal{Kind: ast.DomainNormalize, Data: ast.NormalizeData{Projection: proj, Ty: tyName(fx.b, "X")}})
		if err != nil {
			t.Fatalf("clause: %v", err)
		}
		bag, _ := fx.check(t, ast.TraitItem(iter), ast.ClauseItem(clause))
		expectCodes(t, bag, diag.CheckUnknownAssocTy)
	})
}

func TestCheck_NegativeImplAssocTy(t *testing.T) {
	fx := newFixture()
	iter := fx.iterTrait(t)
	value, err := fx.b.AssocTyValue(fx.b.Ident("Item", sp(1, 5)), nil, tyName(fx.b, "X"))
	if err != nil {
		t.Fatalf("assoc ty value: %v", err)
	}
	impl, err := fx.b.Impl(nil, ast.PolarizeTraitRef(false, ast.TraitRef{
		Trait: fx.b.Ident("Iterator", sp(6, 14)),
		Args:  []ast.Parameter{ast.TyParam(tyName(fx.b, "X"))},
	}), nil, []ast.AssocTyValue{value})
	if err != nil {
		t.Fatalf("impl: %v", err)
	}
	bag, _ := fx.check(t, ast.TraitItem(iter), ast.ImplItem(impl))
	expectCodes(t, bag, diag.CheckNegativeImplAssocTy)
}

func TestCheck_AutoTraitShape(t *testing.T) {
	t.Run("parameters", func(t *testing.T) {
		fx := newFixture()
		tr, err := fx.b.Trait(
			fx.b.Ident("Send", sp(1, 5)),
			[]ast.ParameterKind{{Kind: ast.KindTy, Name: fx.b.Ident("T", sp(6, 7))}},
			nil, nil,
			ast.TraitFlags{Auto: true},
		)
		if err != nil {
			t.Fatalf("trait: %v", err)
		}
		bag, _ := fx.check(t, ast.TraitItem(tr))
		expectCodes(t, bag, diag.CheckAutoTraitShape)
		if bag.HasErrors() {
			t.Fatalf("auto trait shape must stay a warning")
		}
		if !bag.HasWarnings() {
			t.Fatalf("expected a warning")
		}
	})
	t.Run("associated types", func(t *testing.T) {
		fx := newFixture()
		assoc, err := fx.b.AssocTy(fx.b.Ident("Out", sp(1, 4)), nil, nil, nil)
		if err != nil {
			t.Fatalf("assoc ty: %v", err)
		}
		tr, err := fx.b.Trait(fx.b.Ident("Send", sp(5, 9)), nil, nil, []ast.AssocTyDefn{assoc}, ast.TraitFlags{Auto: true})
		if err != nil {
			t.Fatalf("trait: %v", err)
		}
		bag, _ := fx.check(t, ast.TraitItem(tr))
		expectCodes(t, bag, diag.CheckAutoTraitShape)
	})
}

func TestCheck_EmptyProgram(t *testing.T) {
	fx := newFixture()
	bag, stats := fx.check(t)
	expectCodes(t, bag, diag.CheckEmptyProgram)
	if bag.HasErrors() {
		t.Fatalf("empty program must stay a warning")
	}
	if stats != (Stats{}) {
		t.Fatalf("expected zero stats, got %+v", stats)
	}
}

func TestProgram_NilReporterAndProgram(t *testing.T) {
	fx := newFixture()
	vec := fx.vecStruct(t)
	// A missing reporter must not panic the pass.
	Program(&ast.Program{Items: []ast.Item{ast.StructItem(vec)}}, fx.in, Options{})
	if stats := Program(nil, fx.in, Options{}); stats != (Stats{}) {
		t.Fatalf("expected zero stats for a nil program, got %+v", stats)
	}
}

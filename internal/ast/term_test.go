package ast

import (
	"testing"

	"quill/internal/source"
)

func testBuilder() *Builder {
	return NewBuilder(source.NewInterner())
}

func nameTy(b *Builder, text string) Ty {
	return Ty{Kind: TyName, Data: b.Ident(text, source.Span{})}
}

func lifetime(b *Builder, text string) Lifetime {
	return Lifetime{Name: b.Ident(text, source.Span{})}
}

func TestIdentifierEqual_IgnoresSpan(t *testing.T) {
	b := testBuilder()
	first := b.Ident("Foo", source.Span{Start: 0, End: 3})
	second := b.Ident("Foo", source.Span{Start: 40, End: 43})
	other := b.Ident("Bar", source.Span{Start: 0, End: 3})

	if !first.Equal(second) {
		t.Fatalf("same text at different spans should be equal terms")
	}
	if first == second {
		t.Fatalf("same text at different spans should stay distinct occurrences")
	}
	if first.Equal(other) {
		t.Fatalf("different text should not be equal")
	}
}

func TestTyEqual_Name(t *testing.T) {
	b := testBuilder()
	if !nameTy(b, "Vec").Equal(nameTy(b, "Vec")) {
		t.Fatalf("equal names should be equal types")
	}
	if nameTy(b, "Vec").Equal(nameTy(b, "Set")) {
		t.Fatalf("different names should not be equal")
	}
}

func TestTyEqual_Apply(t *testing.T) {
	b := testBuilder()
	apply := func(name string, args ...Parameter) Ty {
		return Ty{Kind: TyApply, Data: ApplyData{Name: b.Ident(name, source.Span{}), Args: args}}
	}

	u32 := TyParam(nameTy(b, "u32"))
	static := LifetimeParam(lifetime(b, "static"))

	if !apply("Vec", u32).Equal(apply("Vec", u32)) {
		t.Fatalf("same application should be equal")
	}
	if apply("Vec", u32).Equal(apply("Vec", static)) {
		t.Fatalf("argument sort should matter")
	}
	if apply("Vec", u32).Equal(apply("Vec", u32, u32)) {
		t.Fatalf("argument count should matter")
	}
	if apply("Vec", u32).Equal(nameTy(b, "Vec")) {
		t.Fatalf("application should not equal a bare name")
	}
}

func TestTyEqual_ProjectionForms(t *testing.T) {
	b := testBuilder()
	ref := TraitRef{
		Trait: b.Ident("Iterator", source.Span{}),
		Args:  []Parameter{TyParam(nameTy(b, "T"))},
	}
	selected := Ty{Kind: TyProjection, Data: ProjectionTy{
		TraitRef: ref,
		Name:     b.Ident("Item", source.Span{}),
	}}
	unselected := Ty{Kind: TyUnselectedProjection, Data: UnselectedProjectionTy{
		Name: b.Ident("Item", source.Span{}),
	}}

	if selected.Equal(unselected) || unselected.Equal(selected) {
		t.Fatalf("selected and unselected projections should never be equal")
	}
	if !selected.Equal(Ty{Kind: TyProjection, Data: ProjectionTy{
		TraitRef: ref,
		Name:     b.Ident("Item", source.Span{}),
	}}) {
		t.Fatalf("identical projection should be equal")
	}
}

func TestTyEqual_ForAll(t *testing.T) {
	b := testBuilder()
	body := nameTy(b, "Fn")
	one, err := b.ForAllTy([]Identifier{b.Ident("a", source.Span{})}, body)
	if err != nil {
		t.Fatalf("build forall: %v", err)
	}
	same, err := b.ForAllTy([]Identifier{b.Ident("a", source.Span{Start: 9, End: 10})}, body)
	if err != nil {
		t.Fatalf("build forall: %v", err)
	}
	renamed, err := b.ForAllTy([]Identifier{b.Ident("z", source.Span{})}, body)
	if err != nil {
		t.Fatalf("build forall: %v", err)
	}

	if !one.Equal(same) {
		t.Fatalf("binder spans should not affect equality")
	}
	if one.Equal(renamed) {
		t.Fatalf("binder names are compared literally, no alpha-equivalence")
	}
	if one.Equal(body) {
		t.Fatalf("forall should not equal its body")
	}
}

func TestParameter_Accessors(t *testing.T) {
	b := testBuilder()
	tp := TyParam(nameTy(b, "T"))
	lp := LifetimeParam(lifetime(b, "a"))

	if tp.Kind != KindTy || lp.Kind != KindLifetime {
		t.Fatalf("constructors should fix the sort tag")
	}
	if _, ok := tp.Ty(); !ok {
		t.Fatalf("type parameter should expose its type")
	}
	if _, ok := tp.Lifetime(); ok {
		t.Fatalf("type parameter should not expose a lifetime")
	}
	if _, ok := lp.Lifetime(); !ok {
		t.Fatalf("lifetime parameter should expose its lifetime")
	}
	if tp.Equal(lp) {
		t.Fatalf("parameters of different sorts should not be equal")
	}
}

func TestKindsMatch(t *testing.T) {
	b := testBuilder()
	decl := []ParameterKind{
		{Kind: KindTy, Name: b.Ident("T", source.Span{})},
		{Kind: KindLifetime, Name: b.Ident("a", source.Span{})},
	}
	good := []Parameter{TyParam(nameTy(b, "u32")), LifetimeParam(lifetime(b, "static"))}
	swapped := []Parameter{LifetimeParam(lifetime(b, "static")), TyParam(nameTy(b, "u32"))}
	short := good[:1]

	if !KindsMatch(decl, good) {
		t.Fatalf("pairwise agreeing sorts should match")
	}
	if KindsMatch(decl, swapped) {
		t.Fatalf("sort mismatch should not match")
	}
	if KindsMatch(decl, short) {
		t.Fatalf("length mismatch should not match")
	}
	if !KindsMatch(nil, nil) {
		t.Fatalf("empty against empty should match")
	}
}

func TestPolarizeTraitRef(t *testing.T) {
	b := testBuilder()
	ref := TraitRef{
		Trait: b.Ident("Send", source.Span{}),
		Args:  []Parameter{TyParam(nameTy(b, "T"))},
	}

	pos := PolarizeTraitRef(true, ref)
	neg := PolarizeTraitRef(false, ref)

	if !pos.IsPositive() || pos.Polarity != PolarityPositive {
		t.Fatalf("true should polarize positive")
	}
	if neg.IsPositive() || neg.Polarity != PolarityNegative {
		t.Fatalf("false should polarize negative")
	}
	if pos.Equal(neg) {
		t.Fatalf("polarity should be part of equality")
	}
	if !pos.Equal(PolarizeTraitRef(true, ref)) {
		t.Fatalf("same polarity and ref should be equal")
	}
}

func TestDomainGoalEqual_KindMatters(t *testing.T) {
	b := testBuilder()
	proj := ProjectionTy{
		TraitRef: TraitRef{
			Trait: b.Ident("Iterator", source.Span{}),
			Args:  []Parameter{TyParam(nameTy(b, "T"))},
		},
		Name: b.Ident("Item", source.Span{}),
	}
	target := nameTy(b, "u32")

	holdsEq := DomainGoal{Kind: DomainHolds, Data: WhereClause{
		Kind: WhereProjectionEq,
		Data: ProjectionEqData{Projection: proj, Ty: target},
	}}
	normalize := DomainGoal{Kind: DomainNormalize, Data: NormalizeData{Projection: proj, Ty: target}}

	if holdsEq.Equal(normalize) {
		t.Fatalf("projection-eq and normalize should stay distinct propositions")
	}
	if !normalize.Equal(DomainGoal{Kind: DomainNormalize, Data: NormalizeData{Projection: proj, Ty: target}}) {
		t.Fatalf("identical normalize goals should be equal")
	}

	wf := DomainGoal{Kind: DomainTyWellFormed, Data: target}
	env := DomainGoal{Kind: DomainTyFromEnv, Data: target}
	if wf.Equal(env) {
		t.Fatalf("same payload under different kinds should not be equal")
	}
}

func TestGoalEqual_QuantifierKinds(t *testing.T) {
	b := testBuilder()
	params := []ParameterKind{{Kind: KindTy, Name: b.Ident("T", source.Span{})}}
	leaf := DomainLeaf(DomainGoal{Kind: DomainTyWellFormed, Data: nameTy(b, "T")})

	forall, err := b.ForAll(params, leaf)
	if err != nil {
		t.Fatalf("build forall: %v", err)
	}
	exists, err := b.Exists(params, leaf)
	if err != nil {
		t.Fatalf("build exists: %v", err)
	}

	if forall.Equal(exists) {
		t.Fatalf("forall and exists should not be equal even with one payload shape")
	}
	if !forall.Equal(Goal{Kind: GoalForAll, Data: QuantifierData{Params: params, Goal: &leaf}}) {
		t.Fatalf("builder output should equal the literal form")
	}
}

func TestGoalEqual_Connectives(t *testing.T) {
	b := testBuilder()
	u32 := nameTy(b, "u32")
	i32 := nameTy(b, "i32")

	and := AndGoal(UnifyTysLeaf(u32, i32), UnifyTysLeaf(i32, u32))
	if !and.Equal(AndGoal(UnifyTysLeaf(u32, i32), UnifyTysLeaf(i32, u32))) {
		t.Fatalf("identical conjunctions should be equal")
	}
	if and.Equal(AndGoal(UnifyTysLeaf(i32, u32), UnifyTysLeaf(u32, i32))) {
		t.Fatalf("conjunction operand order should matter")
	}
	if UnifyTysLeaf(u32, i32).Equal(UnifyTysLeaf(i32, u32)) {
		t.Fatalf("unification pairs are ordered")
	}
	if !NotGoal(and).Equal(NotGoal(and)) {
		t.Fatalf("identical negations should be equal")
	}
	if NotGoal(and).Equal(and) {
		t.Fatalf("negation should not equal its operand")
	}
}

func TestKindStrings(t *testing.T) {
	cases := []struct {
		got  string
		want string
	}{
		{KindTy.String(), "type"},
		{KindLifetime.String(), "lifetime"},
		{Kind(99).String(), "unknown"},
		{TyForAll.String(), "ForAll"},
		{TyUnselectedProjection.String(), "UnselectedProjection"},
		{DomainLocalImplAllowed.String(), "LocalImplAllowed"},
		{DomainIsDeeplyExternal.String(), "IsDeeplyExternal"},
		{LeafUnifyLifetimes.String(), "UnifyLifetimes"},
		{GoalImplies.String(), "Implies"},
		{ItemClause.String(), "Clause"},
		{WhereProjectionEq.String(), "ProjectionEq"},
		{BoundProjectionEq.String(), "ProjectionEq"},
		{PolarityNegative.String(), "negative"},
	}
	for _, c := range cases {
		if c.got != c.want {
			t.Fatalf("expected %q, got %q", c.want, c.got)
		}
	}
}

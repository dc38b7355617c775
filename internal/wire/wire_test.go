package wire

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/vmihailenco/msgpack/v5"

	"quill/internal/ast"
	"quill/internal/source"
	"quill/internal/testkit"
)

// buildProgram assembles a program touching every term form the codec
// has to carry: all five type kinds, both where-clause forms, all
// twelve domain goals, every goal connective, both bound forms, both
// impl polarities and a free-standing clause.
func buildProgram(t *testing.T, b *ast.Builder) *ast.Program {
	t.Helper()
	sp := func(lo, hi uint32) source.Span { return source.Span{Start: lo, End: hi} }

	tParam := ast.ParameterKind{Kind: ast.KindTy, Name: b.Ident("T", sp(1, 2))}
	aParam := ast.ParameterKind{Kind: ast.KindLifetime, Name: b.Ident("a", sp(3, 4))}

	tTy := ast.Ty{Kind: ast.TyName, Data: b.Ident("T", sp(5, 6))}
	u32 := ast.Ty{Kind: ast.TyName, Data: b.Ident("u32", sp(7, 10))}
	vecT := ast.Ty{Kind: ast.TyApply, Data: ast.ApplyData{
		Name: b.Ident("Vec", sp(11, 14)),
		Args: []ast.Parameter{ast.TyParam(tTy)},
	}}

	iterRef := ast.TraitRef{
		Trait: b.Ident("Iterator", sp(15, 23)),
		Args:  []ast.Parameter{ast.TyParam(vecT)},
	}
	itemProj := ast.ProjectionTy{TraitRef: iterRef, Name: b.Ident("Item", sp(24, 28))}
	uproj := ast.Ty{Kind: ast.TyUnselectedProjection, Data: ast.UnselectedProjectionTy{
		Name: b.Ident("Item", sp(29, 33)),
		Args: []ast.Parameter{ast.LifetimeParam(ast.Lifetime{Name: b.Ident("a", sp(33, 34))})},
	}}
	forAllTy, err := b.ForAllTy([]ast.Identifier{b.Ident("r", sp(34, 35))}, vecT)
	if err != nil {
		t.Fatalf("forall ty: %v", err)
	}

	implemented := ast.WhereClause{Kind: ast.WhereImplemented, Data: iterRef}
	projEq := ast.WhereClause{Kind: ast.WhereProjectionEq, Data: ast.ProjectionEqData{
		Projection: itemProj,
		Ty:         u32,
	}}
	qImplemented, err := b.Quantify([]ast.ParameterKind{aParam}, implemented)
	if err != nil {
		t.Fatalf("quantify: %v", err)
	}
	qProjEq, err := b.Quantify(nil, projEq)
	if err != nil {
		t.Fatalf("quantify: %v", err)
	}

	structDefn, err := b.Struct(
		b.Ident("Vec", sp(36, 39)),
		[]ast.ParameterKind{tParam},
		[]ast.QuantifiedWhereClause{qImplemented},
		[]ast.Field{
			{Name: b.Ident("len", sp(40, 43)), Ty: u32},
			{Name: b.Ident("head", sp(44, 48)), Ty: ast.Ty{Kind: ast.TyProjection, Data: itemProj}},
			{Name: b.Ident("rest", sp(49, 53)), Ty: uproj},
			{Name: b.Ident("hook", sp(54, 58)), Ty: forAllTy},
		},
		ast.StructFlags{Fundamental: true},
	)
	if err != nil {
		t.Fatalf("struct: %v", err)
	}

	bounds := []ast.InlineBound{
		{Kind: ast.BoundTrait, Data: ast.TraitBound{Trait: b.Ident("Clone", sp(59, 64))}},
		{Kind: ast.BoundProjectionEq, Data: ast.ProjectionEqBound{
			TraitBound: ast.TraitBound{
				Trait:      b.Ident("Iterator", sp(65, 73)),
				ArgsNoSelf: []ast.Parameter{ast.TyParam(u32)},
			},
			Name:  b.Ident("Item", sp(74, 78)),
			Value: u32,
		}},
	}
	assocTy, err := b.AssocTy(
		b.Ident("Item", sp(79, 83)),
		[]ast.ParameterKind{{Kind: ast.KindLifetime, Name: b.Ident("s", sp(84, 85))}},
		bounds,
		[]ast.QuantifiedWhereClause{qProjEq},
	)
	if err != nil {
		t.Fatalf("assoc ty: %v", err)
	}
	traitDefn, err := b.Trait(
		b.Ident("Iterator", sp(86, 94)),
		[]ast.ParameterKind{tParam},
		nil,
		[]ast.AssocTyDefn{assocTy},
		ast.TraitFlags{External: true, Deref: true},
	)
	if err != nil {
		t.Fatalf("trait: %v", err)
	}

	value, err := b.AssocTyValue(b.Ident("Item", sp(95, 99)), nil, tTy)
	if err != nil {
		t.Fatalf("assoc ty value: %v", err)
	}
	posImpl, err := b.Impl(
		[]ast.ParameterKind{tParam},
		ast.PolarizeTraitRef(true, iterRef),
		[]ast.QuantifiedWhereClause{qProjEq},
		[]ast.AssocTyValue{value},
	)
	if err != nil {
		t.Fatalf("impl: %v", err)
	}
	sendRef := ast.TraitRef{
		Trait: b.Ident("Send", sp(100, 104)),
		Args:  []ast.Parameter{ast.TyParam(vecT)},
	}
	negImpl, err := b.Impl([]ast.ParameterKind{tParam}, ast.PolarizeTraitRef(false, sendRef), nil, nil)
	if err != nil {
		t.Fatalf("negative impl: %v", err)
	}

	domainGoals := []ast.DomainGoal{
		{Kind: ast.DomainHolds, Data: implemented},
		{Kind: ast.DomainNormalize, Data: ast.NormalizeData{Projection: itemProj, Ty: u32}},
		{Kind: ast.DomainTraitRefWellFormed, Data: iterRef},
		{Kind: ast.DomainTyWellFormed, Data: vecT},
		{Kind: ast.DomainTyFromEnv, Data: tTy},
		{Kind: ast.DomainTraitRefFromEnv, Data: iterRef},
		{Kind: ast.DomainTraitInScope, Data: b.Ident("Iterator", sp(105, 113))},
		{Kind: ast.DomainDerefs, Data: ast.DerefsData{Source: vecT, Target: u32}},
		{Kind: ast.DomainIsLocal, Data: vecT},
		{Kind: ast.DomainIsExternal, Data: u32},
		{Kind: ast.DomainIsDeeplyExternal, Data: u32},
		{Kind: ast.DomainLocalImplAllowed, Data: sendRef},
	}
	conditions := make([]ast.Goal, 0, len(domainGoals)+3)
	for _, dg := range domainGoals {
		conditions = append(conditions, ast.DomainLeaf(dg))
	}
	conj := ast.AndGoal(
		ast.UnifyTysLeaf(tTy, u32),
		ast.UnifyLifetimesLeaf(
			ast.Lifetime{Name: b.Ident("a", sp(114, 115))},
			ast.Lifetime{Name: b.Ident("static", sp(116, 122))},
		),
	)
	inner, err := b.Exists([]ast.ParameterKind{{Kind: ast.KindTy, Name: b.Ident("U", sp(123, 124))}}, conj)
	if err != nil {
		t.Fatalf("exists: %v", err)
	}
	hyp, err := b.Clause(nil, domainGoals[0])
	if err != nil {
		t.Fatalf("hypothesis clause: %v", err)
	}
	outer, err := b.ForAll(
		[]ast.ParameterKind{{Kind: ast.KindTy, Name: b.Ident("V", sp(125, 126))}},
		ast.ImpliesGoal([]ast.Clause{*hyp}, inner),
	)
	if err != nil {
		t.Fatalf("forall goal: %v", err)
	}
	conditions = append(conditions, ast.NotGoal(ast.DomainLeaf(domainGoals[8])), outer)

	clause, err := b.Clause([]ast.ParameterKind{tParam}, domainGoals[1], conditions...)
	if err != nil {
		t.Fatalf("clause: %v", err)
	}

	return &ast.Program{Items: []ast.Item{
		ast.StructItem(structDefn),
		ast.TraitItem(traitDefn),
		ast.ImplItem(posImpl),
		ast.ImplItem(negImpl),
		ast.ClauseItem(clause),
	}}
}

func encodePayload(t *testing.T, payload *programPayload) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := msgpack.NewEncoder(&buf).Encode(payload); err != nil {
		t.Fatalf("encode payload: %v", err)
	}
	return buf.Bytes()
}

func TestRoundTrip_SharedInterner(t *testing.T) {
	in := source.NewInterner()
	b := ast.NewBuilder(in)
	prog := buildProgram(t, b)

	var buf bytes.Buffer
	if err := Encode(&buf, prog, in); err != nil {
		t.Fatalf("encode: %v", err)
	}
	decoded, err := Decode(bytes.NewReader(buf.Bytes()), ast.NewBuilder(in))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !prog.Equal(decoded) {
		t.Fatalf("decoded program differs from the original")
	}
}

func TestRoundTrip_FreshInterner(t *testing.T) {
	in := source.NewInterner()
	prog := buildProgram(t, ast.NewBuilder(in))

	var first bytes.Buffer
	if err := Encode(&first, prog, in); err != nil {
		t.Fatalf("encode: %v", err)
	}

	// Decode into a brand new table, then encode again. The walk order
	// fixes string-table slots, so the bytes must agree exactly.
	other := source.NewInterner()
	decoded, err := Decode(bytes.NewReader(first.Bytes()), ast.NewBuilder(other))
	if err != nil {
		t.Fatalf("decode into fresh table: %v", err)
	}
	if err := testkit.CheckItemInvariants(decoded, other); err != nil {
		t.Fatalf("decoded program breaks item invariants: %v", err)
	}
	var second bytes.Buffer
	if err := Encode(&second, decoded, other); err != nil {
		t.Fatalf("re-encode: %v", err)
	}
	if !bytes.Equal(first.Bytes(), second.Bytes()) {
		t.Fatalf("re-encoded snapshot differs: %d vs %d bytes", first.Len(), second.Len())
	}
}

func TestRoundTrip_EmptyProgram(t *testing.T) {
	in := source.NewInterner()
	var buf bytes.Buffer
	if err := Encode(&buf, &ast.Program{}, in); err != nil {
		t.Fatalf("encode empty: %v", err)
	}
	decoded, err := Decode(bytes.NewReader(buf.Bytes()), ast.NewBuilder(in))
	if err != nil {
		t.Fatalf("decode empty: %v", err)
	}
	if len(decoded.Items) != 0 {
		t.Fatalf("expected no items, got %d", len(decoded.Items))
	}
}

func TestDecode_SchemaMismatch(t *testing.T) {
	raw := encodePayload(t, &programPayload{Schema: snapshotSchemaVersion + 1, Strings: []string{""}})
	_, err := Decode(bytes.NewReader(raw), ast.NewBuilder(source.NewInterner()))
	if !errors.Is(err, ErrSchema) {
		t.Fatalf("expected ErrSchema, got %v", err)
	}
}

func TestDecode_Garbage(t *testing.T) {
	_, err := Decode(strings.NewReader("definitely not msgpack"), ast.NewBuilder(source.NewInterner()))
	if !errors.Is(err, ErrCorrupt) {
		t.Fatalf("expected ErrCorrupt, got %v", err)
	}
}

func TestDecode_BadStringRef(t *testing.T) {
	raw := encodePayload(t, &programPayload{
		Schema:  snapshotSchemaVersion,
		Strings: []string{"", "Vec"},
		Items: []itemPayload{{
			Kind:   uint8(ast.ItemStruct),
			Struct: &structPayload{Name: identPayload{Str: 5}},
		}},
	})
	_, err := Decode(bytes.NewReader(raw), ast.NewBuilder(source.NewInterner()))
	if !errors.Is(err, ErrStringRef) {
		t.Fatalf("expected ErrStringRef, got %v", err)
	}
}

func TestDecode_ReservedStringSlot(t *testing.T) {
	raw := encodePayload(t, &programPayload{
		Schema:  snapshotSchemaVersion,
		Strings: []string{"", "Vec"},
		Items: []itemPayload{{
			Kind:   uint8(ast.ItemStruct),
			Struct: &structPayload{Name: identPayload{Str: 0}},
		}},
	})
	_, err := Decode(bytes.NewReader(raw), ast.NewBuilder(source.NewInterner()))
	if !errors.Is(err, ErrStringRef) {
		t.Fatalf("index 0 is reserved and must be rejected, got %v", err)
	}
}

func TestDecode_BadKindTag(t *testing.T) {
	cases := []struct {
		name string
		item itemPayload
	}{
		{"item kind", itemPayload{Kind: 99}},
		{"type kind", itemPayload{
			Kind: uint8(ast.ItemStruct),
			Struct: &structPayload{
				Name:   identPayload{Str: 1},
				Fields: []fieldPayload{{Name: identPayload{Str: 1}, Ty: tyPayload{Kind: 99}}},
			},
		}},
		{"goal kind", itemPayload{
			Kind: uint8(ast.ItemClause),
			Clause: &clausePayload{
				Consequence: domainGoalPayload{Kind: 99},
			},
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			raw := encodePayload(t, &programPayload{
				Schema:  snapshotSchemaVersion,
				Strings: []string{"", "Vec"},
				Items:   []itemPayload{tc.item},
			})
			_, err := Decode(bytes.NewReader(raw), ast.NewBuilder(source.NewInterner()))
			if !errors.Is(err, ErrKindTag) {
				t.Fatalf("expected ErrKindTag, got %v", err)
			}
		})
	}
}

func TestDecode_MissingVariantPayload(t *testing.T) {
	raw := encodePayload(t, &programPayload{
		Schema:  snapshotSchemaVersion,
		Strings: []string{""},
		Items:   []itemPayload{{Kind: uint8(ast.ItemTrait)}},
	})
	_, err := Decode(bytes.NewReader(raw), ast.NewBuilder(source.NewInterner()))
	if !errors.Is(err, ErrCorrupt) {
		t.Fatalf("expected ErrCorrupt, got %v", err)
	}
}

func TestDecode_DuplicateBinder(t *testing.T) {
	// A snapshot claiming struct Vec<T, T> must fail decode exactly
	// like the builder rejects the hand-built form.
	raw := encodePayload(t, &programPayload{
		Schema:  snapshotSchemaVersion,
		Strings: []string{"", "Vec", "T"},
		Items: []itemPayload{{
			Kind: uint8(ast.ItemStruct),
			Struct: &structPayload{
				Name: identPayload{Str: 1},
				Params: []paramKindPayload{
					{Kind: uint8(ast.KindTy), Name: identPayload{Str: 2}},
					{Kind: uint8(ast.KindTy), Name: identPayload{Str: 2, Start: 5, End: 6}},
				},
			},
		}},
	})
	_, err := Decode(bytes.NewReader(raw), ast.NewBuilder(source.NewInterner()))
	var bindErr *ast.BindError
	if !errors.As(err, &bindErr) {
		t.Fatalf("expected *ast.BindError, got %v", err)
	}
	if bindErr.Name != "T" {
		t.Fatalf("expected offending name %q, got %q", "T", bindErr.Name)
	}
}

func TestEncode_ForeignIdentifier(t *testing.T) {
	foreign := ast.NewBuilder(source.NewInterner())
	prog := &ast.Program{Items: []ast.Item{
		ast.StructItem(&ast.StructDefn{Name: foreign.Ident("Vec", source.Span{})}),
	}}

	var buf bytes.Buffer
	err := Encode(&buf, prog, source.NewInterner())
	if err == nil {
		t.Fatalf("expected encode failure for identifiers from another table")
	}
}

func TestFileRoundTrip(t *testing.T) {
	in := source.NewInterner()
	b := ast.NewBuilder(in)
	prog := buildProgram(t, b)

	dir := t.TempDir()
	path := filepath.Join(dir, "sample.qpk")
	if err := WriteFile(path, prog, in); err != nil {
		t.Fatalf("write file: %v", err)
	}
	decoded, err := ReadFile(path, ast.NewBuilder(in))
	if err != nil {
		t.Fatalf("read file: %v", err)
	}
	if !prog.Equal(decoded) {
		t.Fatalf("file round trip changed the program")
	}

	// Перезапись поверх существующего снапшота тоже атомарна.
	if err := WriteFile(path, prog, in); err != nil {
		t.Fatalf("overwrite: %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	for _, e := range entries {
		if e.Name() != "sample.qpk" {
			t.Fatalf("leftover temp file %q", e.Name())
		}
	}
}

func TestReadFile_Missing(t *testing.T) {
	_, err := ReadFile(filepath.Join(t.TempDir(), "nope.qpk"), ast.NewBuilder(source.NewInterner()))
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected os.ErrNotExist, got %v", err)
	}
}

func BenchmarkEncode(b *testing.B) {
	in := source.NewInterner()
	builder := ast.NewBuilder(in)
	prog := buildProgramBench(builder)

	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		var buf bytes.Buffer
		if err := Encode(&buf, prog, in); err != nil {
			b.Fatalf("encode: %v", err)
		}
	}
}

func BenchmarkDecode(b *testing.B) {
	in := source.NewInterner()
	builder := ast.NewBuilder(in)
	prog := buildProgramBench(builder)
	var buf bytes.Buffer
	if err := Encode(&buf, prog, in); err != nil {
		b.Fatalf("encode: %v", err)
	}
	raw := buf.Bytes()

	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if _, err := Decode(bytes.NewReader(raw), ast.NewBuilder(in)); err != nil {
			b.Fatalf("decode: %v", err)
		}
	}
}

// buildProgramBench mirrors buildProgram without the testing.T plumbing.
func buildProgramBench(b *ast.Builder) *ast.Program {
	tTy := ast.Ty{Kind: ast.TyName, Data: b.Ident("T", source.Span{})}
	ref := ast.TraitRef{Trait: b.Ident("Clone", source.Span{}), Args: []ast.Parameter{ast.TyParam(tTy)}}
	impl, err := b.Impl(
		[]ast.ParameterKind{{Kind: ast.KindTy, Name: b.Ident("T", source.Span{})}},
		ast.PolarizeTraitRef(true, ref),
		nil, nil,
	)
	if err != nil {
		panic(err)
	}
	clause, err := b.Clause(nil, ast.DomainGoal{Kind: ast.DomainHolds, Data: ast.WhereClause{
		Kind: ast.WhereImplemented,
		Data: ref,
	}})
	if err != nil {
		panic(err)
	}
	return &ast.Program{Items: []ast.Item{ast.ImplItem(impl), ast.ClauseItem(clause)}}
}

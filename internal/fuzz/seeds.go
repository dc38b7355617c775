package fuzztests

import (
	"bytes"
	"fmt"
	"testing"

	"quill/internal/ast"
	"quill/internal/source"
	"quill/internal/wire"
)

const (
	maxSeedBytes = 64 << 10 // 64 KiB, потолок размера сидов тестового корпуса
)

func addCorpusSeeds(f *testing.F) {
	seeds := snapshotSeeds()
	for _, seed := range seeds {
		f.Add(clampSeed(seed))
	}
	// пустой вход и обрезанные снапшоты прокладывают путь к веткам ErrCorrupt
	f.Add([]byte{})
	for _, seed := range seeds {
		if len(seed) > 2 {
			f.Add(clampSeed(seed[:len(seed)/2]))
			f.Add(clampSeed(seed[:len(seed)-1]))
		}
	}
}

// snapshotSeeds encodes a few hand-built programs so the fuzzer starts
// from structurally valid snapshots instead of raw noise.
func snapshotSeeds() [][]byte {
	b := ast.NewBuilder(source.NewInterner())
	programs := []*ast.Program{
		{},
		seedImplProgram(b),
		seedClauseProgram(b),
		seedDefnProgram(b),
	}
	out := make([][]byte, 0, len(programs))
	for _, prog := range programs {
		var buf bytes.Buffer
		if err := wire.Encode(&buf, prog, b.Interner()); err != nil {
			panic(fmt.Sprintf("fuzz seed encode: %v", err))
		}
		out = append(out, buf.Bytes())
	}
	return out
}

func seedImplProgram(b *ast.Builder) *ast.Program {
	tTy := ast.Ty{Kind: ast.TyName, Data: b.Ident("T", source.Span{})}
	ref := ast.TraitRef{
		Trait: b.Ident("Clone", source.Span{}),
		Args:  []ast.Parameter{ast.TyParam(tTy)},
	}
	impl, err := b.Impl(
		[]ast.ParameterKind{{Kind: ast.KindTy, Name: b.Ident("T", source.Span{})}},
		ast.PolarizeTraitRef(true, ref),
		nil, nil,
	)
	if err != nil {
		panic(err)
	}
	neg, err := b.Impl(nil, ast.PolarizeTraitRef(false, ast.TraitRef{
		Trait: b.Ident("Send", source.Span{}),
		Args:  []ast.Parameter{ast.TyParam(tTy)},
	}), nil, nil)
	if err != nil {
		panic(err)
	}
	return &ast.Program{Items: []ast.Item{ast.ImplItem(impl), ast.ImplItem(neg)}}
}

func seedClauseProgram(b *ast.Builder) *ast.Program {
	tTy := ast.Ty{Kind: ast.TyName, Data: b.Ident("T", source.Span{})}
	u32 := ast.Ty{Kind: ast.TyName, Data: b.Ident("u32", source.Span{})}
	ref := ast.TraitRef{
		Trait: b.Ident("Iterator", source.Span{}),
		Args:  []ast.Parameter{ast.TyParam(tTy)},
	}
	holds := ast.DomainGoal{Kind: ast.DomainHolds, Data: ast.WhereClause{
		Kind: ast.WhereImplemented,
		Data: ref,
	}}
	inner, err := b.Exists(
		[]ast.ParameterKind{{Kind: ast.KindTy, Name: b.Ident("U", source.Span{})}},
		ast.AndGoal(ast.UnifyTysLeaf(tTy, u32), ast.DomainLeaf(holds)),
	)
	if err != nil {
		panic(err)
	}
	clause, err := b.Clause(
		[]ast.ParameterKind{{Kind: ast.KindTy, Name: b.Ident("T", source.Span{})}},
		ast.DomainGoal{Kind: ast.DomainIsLocal, Data: tTy},
		ast.NotGoal(inner),
	)
	if err != nil {
		panic(err)
	}
	return &ast.Program{Items: []ast.Item{ast.ClauseItem(clause)}}
}

func seedDefnProgram(b *ast.Builder) *ast.Program {
	u32 := ast.Ty{Kind: ast.TyName, Data: b.Ident("u32", source.Span{})}
	structDefn, err := b.Struct(
		b.Ident("Box", source.Span{}),
		[]ast.ParameterKind{{Kind: ast.KindTy, Name: b.Ident("T", source.Span{})}},
		nil,
		[]ast.Field{{Name: b.Ident("value", source.Span{}), Ty: u32}},
		ast.StructFlags{Fundamental: true},
	)
	if err != nil {
		panic(err)
	}
	assoc, err := b.AssocTy(b.Ident("Target", source.Span{}), nil, nil, nil)
	if err != nil {
		panic(err)
	}
	trait, err := b.Trait(
		b.Ident("Deref", source.Span{}),
		nil,
		nil,
		[]ast.AssocTyDefn{assoc},
		ast.TraitFlags{Deref: true},
	)
	if err != nil {
		panic(err)
	}
	return &ast.Program{Items: []ast.Item{ast.StructItem(structDefn), ast.TraitItem(trait)}}
}

func clampSeed(src []byte) []byte {
	if len(src) <= maxSeedBytes {
		return append([]byte(nil), src...)
	}
	return append([]byte(nil), src[:maxSeedBytes]...)
}

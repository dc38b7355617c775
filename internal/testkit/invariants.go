package testkit

import (
	"fmt"

	"quill/internal/ast"
	"quill/internal/source"
)

// CheckItemInvariants runs a minimal set of structural invariants on a
// program:
// 1) every item payload is non-nil and matches its kind tag
// 2) every declaration-level identifier resolves through the interner
// These hold for any program a builder produced and for any snapshot a
// decoder accepted; a failure means terms and intern table got out of
// sync somewhere.
func CheckItemInvariants(prog *ast.Program, in *source.Interner) error {
	if prog == nil || in == nil {
		return fmt.Errorf("nil program or interner")
	}
	for i, item := range prog.Items {
		if err := checkItem(item, in); err != nil {
			return fmt.Errorf("item %d: %w", i, err)
		}
	}
	return nil
}

func checkItem(item ast.Item, in *source.Interner) error {
	switch item.Kind {
	case ast.ItemStruct:
		s, ok := item.Data.(*ast.StructDefn)
		if !ok || s == nil {
			return fmt.Errorf("struct item carries %T", item.Data)
		}
		if err := checkIdent(in, s.Name, "struct name"); err != nil {
			return err
		}
		for _, f := range s.Fields {
			if err := checkIdent(in, f.Name, "field name"); err != nil {
				return err
			}
		}
		return checkParams(in, s.Params)
	case ast.ItemTrait:
		t, ok := item.Data.(*ast.TraitDefn)
		if !ok || t == nil {
			return fmt.Errorf("trait item carries %T", item.Data)
		}
		if err := checkIdent(in, t.Name, "trait name"); err != nil {
			return err
		}
		for _, a := range t.AssocTys {
			if err := checkIdent(in, a.Name, "associated type name"); err != nil {
				return err
			}
			if err := checkParams(in, a.Params); err != nil {
				return err
			}
		}
		return checkParams(in, t.Params)
	case ast.ItemImpl:
		im, ok := item.Data.(*ast.Impl)
		if !ok || im == nil {
			return fmt.Errorf("impl item carries %T", item.Data)
		}
		if err := checkIdent(in, im.TraitRef.TraitRef.Trait, "implemented trait"); err != nil {
			return err
		}
		for _, v := range im.AssocTyValues {
			if err := checkIdent(in, v.Name, "associated type value name"); err != nil {
				return err
			}
		}
		return checkParams(in, im.Params)
	case ast.ItemClause:
		cl, ok := item.Data.(*ast.Clause)
		if !ok || cl == nil {
			return fmt.Errorf("clause item carries %T", item.Data)
		}
		return checkParams(in, cl.Params)
	default:
		return fmt.Errorf("unknown item kind %d", item.Kind)
	}
}

func checkParams(in *source.Interner, params []ast.ParameterKind) error {
	for _, pk := range params {
		if err := checkIdent(in, pk.Name, "binder name"); err != nil {
			return err
		}
	}
	return nil
}

func checkIdent(in *source.Interner, id ast.Identifier, what string) error {
	if !in.Has(id.Name) {
		return fmt.Errorf("%s references string id %d unknown to the interner", what, id.Name)
	}
	return nil
}

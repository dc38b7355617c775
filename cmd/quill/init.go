package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"quill/internal/ast"
	"quill/internal/source"
	"quill/internal/wire"
)

var initCmd = &cobra.Command{
	Use:   "init [path|name]",
	Short: "Initialize a new quill project",
	Long: `Initialize a new quill project by creating a project manifest (quill.toml)
and a sample program snapshot (main.qpk). If [path|name] is omitted, initializes
the current directory. If a non-existing name is provided, a directory will be
created.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInit,
}

// runInit initializes a quill project at the target path (or the
// current working directory). It derives a project name from the
// directory basename, falling back to "quill-project", and refuses to
// initialize when quill.toml already exists.
func runInit(cmd *cobra.Command, args []string) error {
	// Resolve target directory
	var target string
	if len(args) == 0 || args[0] == "." {
		wd, err := os.Getwd()
		if err != nil {
			return err
		}
		target = wd
	} else {
		// treat as path or name relative to cwd
		arg := args[0]
		if !filepath.IsAbs(arg) {
			wd, err := os.Getwd()
			if err != nil {
				return err
			}
			target = filepath.Join(wd, arg)
		} else {
			target = arg
		}
	}

	// Ensure directory exists
	if st, err := os.Stat(target); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			if err = os.MkdirAll(target, 0o755); err != nil {
				return fmt.Errorf("failed to create directory %q: %w", target, err)
			}
		} else {
			return err
		}
	} else if !st.IsDir() {
		return fmt.Errorf("%q is not a directory", target)
	}

	// Determine project name from directory basename
	name := filepath.Base(target)
	name = strings.TrimSpace(name)
	if name == "" || name == "." || name == string(filepath.Separator) {
		name = "quill-project"
	}

	// Create manifest file if not exists
	manifestPath := filepath.Join(target, "quill.toml")
	if _, err := os.Stat(manifestPath); err == nil {
		return fmt.Errorf("project already initialized: %s exists", manifestPath)
	}

	manifest := buildDefaultManifest(name)
	if err := os.WriteFile(manifestPath, []byte(manifest), os.FileMode(0o600)); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}

	// Create main.qpk if not exists
	mainPath := filepath.Join(target, "main.qpk")
	createdMain := false
	if _, err := os.Stat(mainPath); errors.Is(err, os.ErrNotExist) {
		if err := writeSampleSnapshot(mainPath); err != nil {
			return fmt.Errorf("failed to write main.qpk: %w", err)
		}
		createdMain = true
	}

	rel := target
	if wd, err := os.Getwd(); err == nil {
		if r, err2 := filepath.Rel(wd, target); err2 == nil {
			rel = r
		}
	}
	fmt.Fprintf(os.Stdout, "Initialized quill project in %s\n", rel)
	fmt.Fprintf(os.Stdout, "  - quill.toml\n")
	if createdMain {
		fmt.Fprintf(os.Stdout, "  - main.qpk\n")
	} else {
		fmt.Fprintf(os.Stdout, "  - main.qpk (existing)\n")
	}
	return nil
}

// buildDefaultManifest returns a minimal TOML manifest for a quill
// project using the provided package name.
func buildDefaultManifest(name string) string {
	// Minimal TOML manifest used as a project marker.
	return fmt.Sprintf(`# Quill project manifest
[package]
name = "%s"
version = "0.1.0"

[programs]
paths = ["main.qpk"]
`, name)
}

// writeSampleSnapshot stores a small demonstration program: a struct,
// two traits, two impls and one clause, so that inspect and vet have
// something to chew on right away. Spans pretend the program came from
// a source file laid out one item per line.
func writeSampleSnapshot(path string) error {
	in := source.NewInterner()
	b := ast.NewBuilder(in)

	sp := func(lo, hi uint32) source.Span { return source.Span{Start: lo, End: hi} }
	vecOfT := func(at uint32) ast.Ty {
		return ast.Ty{Kind: ast.TyApply, Data: ast.ApplyData{
			Name: b.Ident("Vec", sp(at, at+3)),
			Args: []ast.Parameter{ast.TyParam(ast.Ty{Kind: ast.TyName, Data: b.Ident("T", sp(at+4, at+5))})},
		}}
	}
	implemented := func(ref ast.TraitRef) ast.DomainGoal {
		return ast.DomainGoal{
			Kind: ast.DomainHolds,
			Data: ast.WhereClause{Kind: ast.WhereImplemented, Data: ref},
		}
	}

	// struct Vec<T> { len: u32 }
	vec, err := b.Struct(
		b.Ident("Vec", sp(7, 10)),
		[]ast.ParameterKind{{Kind: ast.KindTy, Name: b.Ident("T", sp(11, 12))}},
		nil,
		[]ast.Field{{Name: b.Ident("len", sp(16, 19)), Ty: ast.Ty{Kind: ast.TyName, Data: b.Ident("u32", sp(21, 24))}}},
		ast.StructFlags{},
	)
	if err != nil {
		return fmt.Errorf("build sample struct: %w", err)
	}

	// trait Clone
	clone, err := b.Trait(b.Ident("Clone", sp(33, 38)), nil, nil, nil, ast.TraitFlags{})
	if err != nil {
		return fmt.Errorf("build sample trait: %w", err)
	}

	// trait Iterator { type Item }
	item, err := b.AssocTy(b.Ident("Item", sp(61, 65)), nil, nil, nil)
	if err != nil {
		return fmt.Errorf("build sample assoc type: %w", err)
	}
	iterator, err := b.Trait(b.Ident("Iterator", sp(45, 53)), nil, nil, []ast.AssocTyDefn{item}, ast.TraitFlags{})
	if err != nil {
		return fmt.Errorf("build sample trait: %w", err)
	}

	// impl<T> Clone for Vec<T> where T: Clone
	cloneImpl, err := b.Impl(
		[]ast.ParameterKind{{Kind: ast.KindTy, Name: b.Ident("T", sp(73, 74))}},
		ast.PolarizeTraitRef(true, ast.TraitRef{
			Trait: b.Ident("Clone", sp(76, 81)),
			Args:  []ast.Parameter{ast.TyParam(vecOfT(86))},
		}),
		[]ast.QuantifiedWhereClause{{
			Clause: ast.WhereClause{Kind: ast.WhereImplemented, Data: ast.TraitRef{
				Trait: b.Ident("Clone", sp(102, 107)),
				Args:  []ast.Parameter{ast.TyParam(ast.Ty{Kind: ast.TyName, Data: b.Ident("T", sp(99, 100))})},
			}},
		}},
		nil,
	)
	if err != nil {
		return fmt.Errorf("build sample impl: %w", err)
	}

	// impl<T> Iterator for Vec<T> { type Item = T }
	itemValue, err := b.AssocTyValue(b.Ident("Item", sp(143, 147)), nil, ast.Ty{Kind: ast.TyName, Data: b.Ident("T", sp(150, 151))})
	if err != nil {
		return fmt.Errorf("build sample assoc value: %w", err)
	}
	iteratorImpl, err := b.Impl(
		[]ast.ParameterKind{{Kind: ast.KindTy, Name: b.Ident("T", sp(113, 114))}},
		ast.PolarizeTraitRef(true, ast.TraitRef{
			Trait: b.Ident("Iterator", sp(116, 124)),
			Args:  []ast.Parameter{ast.TyParam(vecOfT(129))},
		}),
		nil,
		[]ast.AssocTyValue{itemValue},
	)
	if err != nil {
		return fmt.Errorf("build sample impl: %w", err)
	}

	// forall<T> { Vec<T>: Clone :- T: Clone }
	rule, err := b.Clause(
		[]ast.ParameterKind{{Kind: ast.KindTy, Name: b.Ident("T", sp(161, 162))}},
		implemented(ast.TraitRef{
			Trait: b.Ident("Clone", sp(174, 179)),
			Args:  []ast.Parameter{ast.TyParam(vecOfT(166))},
		}),
		ast.DomainLeaf(implemented(ast.TraitRef{
			Trait: b.Ident("Clone", sp(186, 191)),
			Args:  []ast.Parameter{ast.TyParam(ast.Ty{Kind: ast.TyName, Data: b.Ident("T", sp(183, 184))})},
		})),
	)
	if err != nil {
		return fmt.Errorf("build sample clause: %w", err)
	}

	prog := &ast.Program{Items: []ast.Item{
		ast.StructItem(vec),
		ast.TraitItem(clone),
		ast.TraitItem(iterator),
		ast.ImplItem(cloneImpl),
		ast.ImplItem(iteratorImpl),
		ast.ClauseItem(rule),
	}}
	return wire.WriteFile(path, prog, in)
}

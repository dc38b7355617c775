package progfmt

import (
	"fmt"
	"io"
	"strings"

	"quill/internal/ast"
	"quill/internal/source"
)

// Outline prints the program as an item tree: one head line per item
// with labeled detail lines underneath. Items keep their program
// order; spans are the declaring occurrence, since terms do not track
// full item extents.
func Outline(w io.Writer, prog *ast.Program, in *source.Interner) error {
	if prog == nil {
		return fmt.Errorf("nil program")
	}

	fmt.Fprintf(w, "Program (items: %d)\n", len(prog.Items))

	for i, it := range prog.Items {
		isLast := i == len(prog.Items)-1
		var prefix string
		if isLast {
			fmt.Fprintf(w, "└─ Item[%d]: ", i)
			prefix = "   "
		} else {
			fmt.Fprintf(w, "├─ Item[%d]: ", i)
			prefix = "│  "
		}
		fmt.Fprintf(w, "%s %s (span: %s)\n", it.Kind, itemText(in, it), itemSpan(it))

		lines := itemLines(in, it)
		for j, line := range lines {
			connector := "├─"
			if j == len(lines)-1 {
				connector = "└─"
			}
			fmt.Fprintf(w, "%s%s %s\n", prefix, connector, line)
		}
	}

	return nil
}

// itemText is the one-line summary after the kind word: the declared
// head for structs and traits, the implemented reference for impls,
// the consequence for clauses.
func itemText(in *source.Interner, it ast.Item) string {
	switch it.Kind {
	case ast.ItemStruct:
		if s, ok := it.Data.(*ast.StructDefn); ok && s != nil {
			return name(in, s.Name.Name) + binderString(in, s.Params)
		}
	case ast.ItemTrait:
		if t, ok := it.Data.(*ast.TraitDefn); ok && t != nil {
			return name(in, t.Name.Name) + binderString(in, t.Params)
		}
	case ast.ItemImpl:
		if im, ok := it.Data.(*ast.Impl); ok && im != nil {
			ref := im.TraitRef.TraitRef
			self, rest := selfSplit(in, ref.Args)
			text := ""
			if !im.TraitRef.IsPositive() {
				text = "!"
			}
			return text + name(in, ref.Trait.Name) + argsSuffix(in, rest) + " for " + self
		}
	case ast.ItemClause:
		if c, ok := it.Data.(*ast.Clause); ok && c != nil {
			return domainGoalString(in, c.Consequence)
		}
	}
	return "?"
}

func itemSpan(it ast.Item) source.Span {
	switch it.Kind {
	case ast.ItemStruct:
		if s, ok := it.Data.(*ast.StructDefn); ok && s != nil {
			return s.Name.Span
		}
	case ast.ItemTrait:
		if t, ok := it.Data.(*ast.TraitDefn); ok && t != nil {
			return t.Name.Span
		}
	case ast.ItemImpl:
		if im, ok := it.Data.(*ast.Impl); ok && im != nil {
			return im.TraitRef.TraitRef.Trait.Span
		}
	case ast.ItemClause:
		if c, ok := it.Data.(*ast.Clause); ok && c != nil {
			return domainGoalSpan(c.Consequence)
		}
	}
	return source.Span{}
}

// itemLines builds the labeled detail lines under an item head.
func itemLines(in *source.Interner, it ast.Item) []string {
	var lines []string
	switch it.Kind {
	case ast.ItemStruct:
		s, ok := it.Data.(*ast.StructDefn)
		if !ok || s == nil {
			return nil
		}
		if fl := structFlagNames(s.Flags); len(fl) > 0 {
			lines = append(lines, "Flags: "+strings.Join(fl, ", "))
		}
		for _, text := range whereTexts(in, s.Where) {
			lines = append(lines, "Where: "+text)
		}
		for _, f := range s.Fields {
			lines = append(lines, "Field: "+fieldString(in, f))
		}
	case ast.ItemTrait:
		t, ok := it.Data.(*ast.TraitDefn)
		if !ok || t == nil {
			return nil
		}
		if fl := traitFlagNames(t.Flags); len(fl) > 0 {
			lines = append(lines, "Flags: "+strings.Join(fl, ", "))
		}
		for _, text := range whereTexts(in, t.Where) {
			lines = append(lines, "Where: "+text)
		}
		for _, a := range t.AssocTys {
			lines = append(lines, "AssocTy: "+assocTyDefnString(in, a))
		}
	case ast.ItemImpl:
		im, ok := it.Data.(*ast.Impl)
		if !ok || im == nil {
			return nil
		}
		if len(im.Params) > 0 {
			lines = append(lines, "Params: "+binderString(in, im.Params))
		}
		for _, text := range whereTexts(in, im.Where) {
			lines = append(lines, "Where: "+text)
		}
		for _, v := range im.AssocTyValues {
			lines = append(lines, "AssocTy: "+assocTyValueString(in, v))
		}
	case ast.ItemClause:
		c, ok := it.Data.(*ast.Clause)
		if !ok || c == nil {
			return nil
		}
		if len(c.Params) > 0 {
			lines = append(lines, "Params: "+binderString(in, c.Params))
		}
		for _, g := range c.Conditions {
			lines = append(lines, "Condition: "+goalString(in, g))
		}
	}
	return lines
}

func structFlagNames(f ast.StructFlags) []string {
	var names []string
	if f.External {
		names = append(names, "external")
	}
	if f.Fundamental {
		names = append(names, "fundamental")
	}
	return names
}

func traitFlagNames(f ast.TraitFlags) []string {
	var names []string
	if f.Auto {
		names = append(names, "auto")
	}
	if f.Marker {
		names = append(names, "marker")
	}
	if f.External {
		names = append(names, "external")
	}
	if f.Deref {
		names = append(names, "deref")
	}
	return names
}


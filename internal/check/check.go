package check

import (
	"fmt"

	"quill/internal/ast"
	"quill/internal/diag"
	"quill/internal/source"
)

// Options configure a cross-reference pass over one program.
type Options struct {
	Reporter diag.Reporter
}

// Stats counts what the pass saw, for driver summaries.
type Stats struct {
	Structs int
	Traits  int
	Impls   int
	Clauses int
}

// Program runs every cross-reference check over prog and reports
// findings through opts.Reporter. Terms are never mutated. Bare name
// types are left alone: without scope resolution they may be
// parameters, so only applications and trait references are resolved
// against the declared items.
func Program(prog *ast.Program, in *source.Interner, opts Options) Stats {
	c := &checker{
		interner: in,
		reporter: opts.Reporter,
		structs:  make(map[source.StringID]*ast.StructDefn),
		traits:   make(map[source.StringID]*ast.TraitDefn),
	}
	if prog == nil {
		return c.stats
	}
	c.index(prog)
	if len(prog.Items) == 0 {
		c.warn(diag.CheckEmptyProgram, source.Span{}, "program declares no items")
		return c.stats
	}
	for _, item := range prog.Items {
		c.checkItem(item)
	}
	return c.stats
}

type checker struct {
	interner *source.Interner
	reporter diag.Reporter
	structs  map[source.StringID]*ast.StructDefn
	traits   map[source.StringID]*ast.TraitDefn
	stats    Stats
}

// index records every declared name before any use site is checked,
// so items may reference declarations that appear later in the
// program. Structs and traits share one namespace; the first
// declaration of a name wins and later ones are reported against it.
func (c *checker) index(prog *ast.Program) {
	for _, item := range prog.Items {
		switch item.Kind {
		case ast.ItemStruct:
			s, ok := item.Data.(*ast.StructDefn)
			if !ok || s == nil {
				continue
			}
			c.stats.Structs++
			if first, clash := c.declared(s.Name.Name); clash {
				c.reportDuplicateDecl(s.Name, first)
				continue
			}
			c.structs[s.Name.Name] = s
		case ast.ItemTrait:
			t, ok := item.Data.(*ast.TraitDefn)
			if !ok || t == nil {
				continue
			}
			c.stats.Traits++
			if first, clash := c.declared(t.Name.Name); clash {
				c.reportDuplicateDecl(t.Name, first)
				continue
			}
			c.traits[t.Name.Name] = t
		case ast.ItemImpl:
			c.stats.Impls++
		case ast.ItemClause:
			c.stats.Clauses++
		}
	}
}

func (c *checker) declared(name source.StringID) (ast.Identifier, bool) {
	if s, ok := c.structs[name]; ok {
		return s.Name, true
	}
	if t, ok := c.traits[name]; ok {
		return t.Name, true
	}
	return ast.Identifier{}, false
}

func (c *checker) reportDuplicateDecl(dup, first ast.Identifier) {
	if c.reporter == nil {
		return
	}
	msg := fmt.Sprintf("name '%s' is declared more than once", c.lookupName(dup.Name))
	diag.ReportError(c.reporter, diag.CheckDuplicateDecl, dup.Span, msg).
		WithNote(first.Span, "first declared here").
		Emit()
}

func (c *checker) checkItem(item ast.Item) {
	switch item.Kind {
	case ast.ItemStruct:
		if s, ok := item.Data.(*ast.StructDefn); ok && s != nil {
			c.checkStruct(s)
		}
	case ast.ItemTrait:
		if t, ok := item.Data.(*ast.TraitDefn); ok && t != nil {
			c.checkTrait(t)
		}
	case ast.ItemImpl:
		if im, ok := item.Data.(*ast.Impl); ok && im != nil {
			c.checkImpl(im)
		}
	case ast.ItemClause:
		if cl, ok := item.Data.(*ast.Clause); ok && cl != nil {
			c.checkClause(cl)
		}
	}
}

func (c *checker) report(code diag.Code, span source.Span, format string, args ...interface{}) {
	if c.reporter == nil {
		return
	}
	msg := fmt.Sprintf(format, args...)
	if b := diag.ReportError(c.reporter, code, span, msg); b != nil {
		b.Emit()
	}
}

func (c *checker) warn(code diag.Code, span source.Span, format string, args ...interface{}) {
	if c.reporter == nil {
		return
	}
	msg := fmt.Sprintf(format, args...)
	if b := diag.ReportWarning(c.reporter, code, span, msg); b != nil {
		b.Emit()
	}
}

func (c *checker) lookupName(id source.StringID) string {
	if id == source.NoStringID || c.interner == nil {
		return "?"
	}
	s, ok := c.interner.Lookup(id)
	if !ok {
		return "?"
	}
	return s
}

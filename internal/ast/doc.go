// Package ast defines the term representation for programs of the
// quill logic language: struct and trait declarations, impls, and
// first-class clauses and goals over them.
//
// Terms are immutable values built bottom-up: identifiers are interned
// through a Builder, composite terms reference their parts by value,
// and recursive terms (Goal, the forall type) own their children
// through pointers. Nothing in the tree is shared except interned
// identifier text, and nothing is mutated after construction.
//
// Sum-typed terms follow one shape: a Kind tag (uint8 enum with a
// String form) next to a Data payload interface with an unexported
// marker method. Consumers switch on the tag; the payload carries only
// fields. Product terms (TraitRef, ProjectionTy, declarations) are
// plain structs.
//
// The package validates exactly one thing at construction time:
// a binder list must not bind the same name twice. Every other
// invariant the language has (arity, parameter sorts, associated-type
// correspondence) is representable here and checked by consumers, see
// internal/check. Equality is structural, compares interned names and
// never spans, and is total on well-formed terms.
package ast

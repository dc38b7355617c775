package ast

import (
	"quill/internal/source"
)

// Identifier is one occurrence of an interned name. Name is the
// interned token; Span records where this occurrence was written.
// Two occurrences of the same text are equal as terms and distinct
// as occurrences.
type Identifier struct {
	Name source.StringID
	Span source.Span
}

// Equal reports term equality: interned name only, spans ignored.
// Raw == on Identifier compares occurrences (it includes the span)
// and is almost never what term-level code wants.
func (i Identifier) Equal(other Identifier) bool {
	return i.Name == other.Name
}

func (Identifier) tyData() {}

func (Identifier) domainGoalData() {}

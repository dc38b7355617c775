// Package wire reads and writes .qpk program snapshots: a msgpack
// serialization of one ast.Program together with the identifier text
// it references. Decoding rebuilds terms through an ast.Builder, so a
// snapshot can never smuggle in a term the builder would reject.
package wire

// Snapshot schema version. Increment when the payload layout changes.
const snapshotSchemaVersion uint16 = 1

// Payload mirrors for the term tree. Sum terms travel as a kind tag
// plus one optional field per payload shape; exactly the field
// matching the tag must be set. Identifiers travel as string-table
// indices plus their span, so a snapshot is self-contained and
// re-interns cleanly into any table on decode.

type programPayload struct {
	Schema uint16

	// Deduplicated identifier text. Index 0 is reserved for the empty
	// string and never referenced by a well-formed snapshot.
	Strings []string

	Items []itemPayload
}

type identPayload struct {
	Str   uint32
	Start uint32
	End   uint32
}

type paramKindPayload struct {
	Kind uint8
	Name identPayload
}

type paramPayload struct {
	Kind     uint8
	Ty       *tyPayload
	Lifetime *identPayload
}

type tyPayload struct {
	Kind   uint8
	Name   *identPayload
	Apply  *applyPayload
	Proj   *projectionPayload
	UProj  *unselectedProjPayload
	ForAll *forAllPayload
}

type applyPayload struct {
	Name identPayload
	Args []paramPayload
}

type forAllPayload struct {
	Lifetimes []identPayload
	Ty        *tyPayload
}

type traitRefPayload struct {
	Trait identPayload
	Args  []paramPayload
}

type projectionPayload struct {
	TraitRef traitRefPayload
	Name     identPayload
	Args     []paramPayload
}

type unselectedProjPayload struct {
	Name identPayload
	Args []paramPayload
}

type whereClausePayload struct {
	Kind     uint8
	TraitRef *traitRefPayload
	ProjEq   *projectionEqPayload
}

type projectionEqPayload struct {
	Projection projectionPayload
	Ty         tyPayload
}

type quantifiedWherePayload struct {
	Params []paramKindPayload
	Clause whereClausePayload
}

type domainGoalPayload struct {
	Kind      uint8
	Where     *whereClausePayload
	Normalize *normalizePayload
	TraitRef  *traitRefPayload
	Ty        *tyPayload
	Name      *identPayload
	Derefs    *derefsPayload
}

type normalizePayload struct {
	Projection projectionPayload
	Ty         tyPayload
}

type derefsPayload struct {
	Source tyPayload
	Target tyPayload
}

type leafGoalPayload struct {
	Kind           uint8
	Domain         *domainGoalPayload
	UnifyTys       *unifyTysPayload
	UnifyLifetimes *unifyLifetimesPayload
}

type unifyTysPayload struct {
	A tyPayload
	B tyPayload
}

type unifyLifetimesPayload struct {
	A identPayload
	B identPayload
}

type goalPayload struct {
	Kind    uint8
	Quant   *quantifierPayload
	Implies *impliesPayload
	And     *andPayload
	Not     *goalPayload
	Leaf    *leafGoalPayload
}

type quantifierPayload struct {
	Params []paramKindPayload
	Goal   *goalPayload
}

type impliesPayload struct {
	Clauses []clausePayload
	Goal    *goalPayload
}

type andPayload struct {
	Left  *goalPayload
	Right *goalPayload
}

type clausePayload struct {
	Params      []paramKindPayload
	Consequence domainGoalPayload
	Conditions  []goalPayload
}

type fieldPayload struct {
	Name identPayload
	Ty   tyPayload
}

type structPayload struct {
	Name        identPayload
	Params      []paramKindPayload
	Where       []quantifiedWherePayload
	Fields      []fieldPayload
	External    bool
	Fundamental bool
}

type assocTyDefnPayload struct {
	Name   identPayload
	Params []paramKindPayload
	Bounds []inlineBoundPayload
	Where  []quantifiedWherePayload
}

type traitPayload struct {
	Name     identPayload
	Params   []paramKindPayload
	Where    []quantifiedWherePayload
	AssocTys []assocTyDefnPayload
	Auto     bool
	Marker   bool
	External bool
	Deref    bool
}

type inlineBoundPayload struct {
	Kind   uint8
	Trait  *traitBoundPayload
	ProjEq *projectionEqBoundPayload
}

type traitBoundPayload struct {
	Trait identPayload
	Args  []paramPayload
}

type projectionEqBoundPayload struct {
	TraitBound traitBoundPayload
	Name       identPayload
	Args       []paramPayload
	Value      tyPayload
}

type assocTyValuePayload struct {
	Name   identPayload
	Params []paramKindPayload
	Value  tyPayload
}

type implPayload struct {
	Params   []paramKindPayload
	Positive bool
	TraitRef traitRefPayload
	Where    []quantifiedWherePayload
	Values   []assocTyValuePayload
}

type itemPayload struct {
	Kind   uint8
	Struct *structPayload
	Trait  *traitPayload
	Impl   *implPayload
	Clause *clausePayload
}

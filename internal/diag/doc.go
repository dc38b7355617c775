// Package diag defines the diagnostic model shared by all phases that
// inspect a program: term construction, snapshot decoding, and the
// cross-reference checks.
//
// # Purpose
//
//   - Provide deterministic, serialisable data structures for findings.
//   - Offer light-weight utilities (Reporter, Bag) so producers can emit
//     diagnostics without coupling to storage or formatting layers.
//
// # Scope
//
// Package diag performs no formatting, IO, or CLI integration. Rendering
// lives in internal/diagfmt; collection per file lives in the driver.
//
// # Data model
//
// Diagnostic is the central record. It contains:
//
//   - Severity – tri-level enum (Info, Warning, Error) in severity.go.
//   - Code – compact numeric identifier (codes.go) with a stable string
//     form such as "CHK3003".
//   - Message – human oriented text; keep it short and actionable.
//   - Primary span – the source.Span pointing at the occurrence the
//     finding is about (always the span of some Identifier).
//   - Notes – optional secondary spans/messages for context, e.g.
//     "trait declared here".
//
// Notes must add new context, never repeat the diagnostic message.
//
// # Emitting diagnostics
//
// Producers use a diag.Reporter to decouple emission from storage: build
// via ReportError/ReportWarning, chain WithNote, then Emit. BagReporter
// aggregates into a Bag, which supports sorting and deduplication.
//
// Keep the model deterministic and side-effect free so diagnostics can
// be serialised for tests and tooling.
package diag

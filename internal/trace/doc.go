// Package trace provides a tracing subsystem for the quill driver.
//
// The trace package enables tracking of vet runs, per-snapshot
// processing and the stages inside them, to help diagnose slow or
// stuck batches.
//
// # Usage
//
// Enable tracing via command-line flags:
//
//	quill vet --trace-file=vet.ndjson --trace-level=detail prog.qpk
//
// Events are written as newline-delimited JSON, one object per line.
//
// # Levels
//
// Tracing verbosity is controlled by levels:
//
//   - LevelOff: No tracing
//   - LevelPhase: Driver and per-file boundaries
//   - LevelDetail: Stage-level events (decode, check)
//   - LevelDebug: Everything including term-level events
//
// # Scopes
//
// Events are categorized by scope:
//
//   - ScopeDriver: Top-level CLI operations
//   - ScopeFile: Per-snapshot processing
//   - ScopeStage: Stages inside one snapshot (decode, check)
//   - ScopeTerm: Term level (future)
//
// # Context Propagation
//
// Tracers are propagated through the driver via context:
//
//	ctx = trace.WithTracer(ctx, tracer)
//	t := trace.FromContext(ctx)
//
//	span := trace.Begin(t, trace.ScopeFile, "vet:prog.qpk", parentID)
//	defer span.End("")
package trace

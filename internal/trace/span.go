package trace

import (
	"bytes"
	"runtime"
	"strconv"
	"sync/atomic"
	"time"
)

var (
	seqCounter  atomic.Uint64
	spanCounter atomic.Uint64
)

// NextSeq hands out the global event ordering number.
func NextSeq() uint64 { return seqCounter.Add(1) }

func nextSpanID() uint64 { return spanCounter.Add(1) }

// goroutineID reads the current goroutine number out of the
// runtime.Stack header ("goroutine 42 [running]:"). Slower than a
// linkname trick but stays inside the public runtime surface.
func goroutineID() uint64 {
	var buf [64]byte
	header := buf[:runtime.Stack(buf[:], false)]
	fields := bytes.Fields(header)
	if len(fields) < 2 || !bytes.Equal(fields[0], []byte("goroutine")) {
		return 0
	}
	gid, err := strconv.ParseUint(string(fields[1]), 10, 64)
	if err != nil {
		return 0
	}
	return gid
}

// Span ties a begin event to its end event. A nil span is inert, so
// callers may hold the result of a filtered Begin without checking.
type Span struct {
	t      Tracer
	id     uint64
	parent uint64
	gid    uint64
	scope  Scope
	name   string
	begun  time.Time
	extra  map[string]string
}

// Begin emits a SpanBegin event and returns the span whose End closes
// it. The result is nil when the tracer is off or the scope is
// filtered out by its level.
func Begin(t Tracer, scope Scope, name string, parent uint64) *Span {
	if t == nil || !t.Enabled() || !t.Level().ShouldEmit(scope) {
		return nil
	}
	s := &Span{
		t:      t,
		id:     nextSpanID(),
		parent: parent,
		gid:    goroutineID(),
		scope:  scope,
		name:   name,
		begun:  time.Now(),
	}
	t.Emit(&Event{
		Time:     s.begun,
		Seq:      NextSeq(),
		Kind:     KindSpanBegin,
		Scope:    scope,
		SpanID:   s.id,
		ParentID: parent,
		GID:      s.gid,
		Name:     name,
	})
	return s
}

// End emits the closing event with an optional detail string and any
// extras attached along the way; it reports how long the span ran.
func (s *Span) End(detail string) time.Duration {
	if s == nil {
		return 0
	}
	dur := time.Since(s.begun)
	s.t.Emit(&Event{
		Time:     time.Now(),
		Seq:      NextSeq(),
		Kind:     KindSpanEnd,
		Scope:    s.scope,
		SpanID:   s.id,
		ParentID: s.parent,
		GID:      s.gid,
		Name:     s.name,
		Detail:   detail,
		Extra:    s.extra,
	})
	return dur
}

// WithExtra attaches a key-value pair to the end event.
func (s *Span) WithExtra(key, value string) *Span {
	if s == nil {
		return nil
	}
	if s.extra == nil {
		s.extra = make(map[string]string)
	}
	s.extra[key] = value
	return s
}

// ID reports the span ID, zero for an inert span.
func (s *Span) ID() uint64 {
	if s == nil {
		return 0
	}
	return s.id
}

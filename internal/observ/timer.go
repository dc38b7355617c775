package observ

import "time"

// Timer measures the phases of one pipeline run (load, decode,
// check). Begin hands out an index so repeated phase names stay
// apart.
type Timer struct {
	phases []phase
}

type phase struct {
	name  string
	begun time.Time
	dur   time.Duration
	note  string
}

// NewTimer returns an empty timer.
func NewTimer() *Timer { return &Timer{phases: make([]phase, 0, 8)} }

// Begin opens a phase and returns its index for End.
func (t *Timer) Begin(name string) int {
	t.phases = append(t.phases, phase{name: name, begun: time.Now()})
	return len(t.phases) - 1
}

// End closes the phase at idx and attaches a short note. Indexes
// outside the recorded range are ignored.
func (t *Timer) End(idx int, note string) {
	if idx < 0 || idx >= len(t.phases) {
		return
	}
	p := &t.phases[idx]
	p.dur = time.Since(p.begun)
	p.note = note
}

// PhaseReport описывает одну завершённую фазу в миллисекундах.
type PhaseReport struct {
	Name       string  `json:"name"`
	DurationMS float64 `json:"duration_ms"`
	Note       string  `json:"note,omitempty"`
}

// Report агрегирует фазы таймера; TotalMS равен сумме фаз.
type Report struct {
	TotalMS float64       `json:"total_ms"`
	Phases  []PhaseReport `json:"phases"`
}

// Report собирает снимок завершённых фаз.
func (t *Timer) Report() Report {
	if len(t.phases) == 0 {
		return Report{}
	}
	out := Report{Phases: make([]PhaseReport, len(t.phases))}
	var total time.Duration
	for i, p := range t.phases {
		total += p.dur
		out.Phases[i] = PhaseReport{Name: p.name, DurationMS: millis(p.dur), Note: p.note}
	}
	out.TotalMS = millis(total)
	return out
}

func millis(d time.Duration) float64 {
	return float64(d.Microseconds()) / 1e3
}

package trace

import (
	"fmt"
	"io"
	"os"
)

// Tracer consumes the events produced by spans. Implementations must be
// safe for concurrent use: the driver emits from worker goroutines.
type Tracer interface {
	// Emit records one event.
	Emit(ev *Event)

	// Flush forces buffered events out to the sink.
	Flush() error

	// Close flushes and releases the sink.
	Close() error

	// Level reports the configured verbosity.
	Level() Level

	// Enabled reports whether events are recorded at all.
	Enabled() bool
}

// Config selects the sink and verbosity for a tracer.
type Config struct {
	Level      Level
	Output     io.Writer // takes precedence over OutputPath when set
	OutputPath string    // "" or "-" means stderr
}

// New builds a tracer writing newline-delimited JSON to the configured
// sink. With LevelOff it returns Nop and never touches the filesystem.
func New(cfg Config) (Tracer, error) {
	if cfg.Level == LevelOff {
		return Nop, nil
	}
	w := cfg.Output
	if w == nil {
		switch cfg.OutputPath {
		case "", "-":
			w = os.Stderr
		default:
			f, err := os.Create(cfg.OutputPath)
			if err != nil {
				return nil, fmt.Errorf("failed to open trace output: %w", err)
			}
			w = f
		}
	}
	return NewStreamTracer(w, cfg.Level), nil
}

package guard

import (
	"github.com/ValentinKolb/semguard/lib/rtos"
)

// --------------------------------------------------------------------------
// Log Sink Interface
// --------------------------------------------------------------------------

// LogLevel classifies a guard diagnostic.
type LogLevel uint8

const (
	LogLevelError   LogLevel = iota // safety-check failures
	LogLevelWarning                 // acquisition timeouts
	LogLevelInfo                    // unused by the guards, available to sinks
	LogLevelDebug                   // instrumented acquire/release traces
)

func (l LogLevel) String() string {
	switch l {
	case LogLevelError:
		return "ERROR"
	case LogLevelWarning:
		return "WARN"
	case LogLevelInfo:
		return "INFO"
	case LogLevelDebug:
		return "DEBUG"
	default:
		return "Unknown"
	}
}

// ILogSink receives the diagnostics the guards emit. Sinks are selected at
// composition time: the default sink routes to the host logger, NopSink
// discards everything, and callers may inject their own implementation.
//
// Implementations must be safe for concurrent use; the guards call the sink
// from whatever task constructs or releases them.
type ILogSink interface {
	// Logf writes one diagnostic. The tag identifies the guard type
	// ("guard" or "rguard").
	Logf(level LogLevel, tag string, format string, args ...interface{})
}

// --------------------------------------------------------------------------
// Options
// --------------------------------------------------------------------------

// Opts configures a single guard acquisition.
type Opts struct {
	// Timeout bounds the acquisition in ticks. DefaultOpts sets
	// rtos.MaxDelay (wait forever); rtos.NoWait polls.
	Timeout rtos.Ticks

	// Logger receives the guard's diagnostics. Nil selects the host
	// logger sink.
	Logger ILogSink

	// Origin optionally labels the call site (e.g. "sensor.go:42") for
	// diagnostics. Setting it selects the instrumented variant: the guard
	// additionally records the acquisition tick and reports the hold time
	// at debug level when released. It changes no locking behavior.
	Origin string
}

// DefaultOpts returns the default acquisition options: unbounded wait,
// host logger, no instrumentation.
func DefaultOpts() *Opts {
	return &Opts{
		Timeout: rtos.MaxDelay,
	}
}

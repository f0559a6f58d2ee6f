package guard

import (
	"github.com/lni/dragonboat/v4/logger"
)

// --------------------------------------------------------------------------
// Host Logger Sink (default)
// --------------------------------------------------------------------------

// hostSink routes guard diagnostics to the host logging facility, one
// logger per tag. It is the default when no sink is injected.
type hostSink struct{}

func (hostSink) Logf(level LogLevel, tag string, format string, args ...interface{}) {
	l := logger.GetLogger(tag)
	switch level {
	case LogLevelError:
		l.Errorf(format, args...)
	case LogLevelWarning:
		l.Warningf(format, args...)
	case LogLevelInfo:
		l.Infof(format, args...)
	default:
		l.Debugf(format, args...)
	}
}

// HostSink returns the sink backed by the host logging facility. The
// verbosity of the "guard" and "rguard" loggers is controlled through the
// facility itself (logger.GetLogger(tag).SetLevel).
func HostSink() ILogSink {
	return hostSink{}
}

// --------------------------------------------------------------------------
// Nop Sink
// --------------------------------------------------------------------------

// nopSink discards all diagnostics.
type nopSink struct{}

func (nopSink) Logf(LogLevel, string, string, ...interface{}) {}

// NopSink returns a sink that discards all diagnostics. Inject it where
// guard failures are handled entirely through HasLock and log output is
// unwanted.
func NopSink() ILogSink {
	return nopSink{}
}

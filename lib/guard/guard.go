package guard

import (
	"sync/atomic"

	"github.com/ValentinKolb/semguard/lib/rtos"
)

const logTag = "guard"

// --------------------------------------------------------------------------
// Copy Protection
// --------------------------------------------------------------------------

// noCopy triggers `go vet -copylocks` when a guard is copied by value.
// A guard must never be duplicated: two copies would each believe they owe
// a release for the same single acquisition.
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}

// --------------------------------------------------------------------------
// Guard
// --------------------------------------------------------------------------

// Guard holds a semaphore, counting-semaphore or plain-mutex acquisition
// for the duration of a scope. It is created with one of the Acquire
// functions and must be released with Release, typically deferred:
//
//	g := guard.Acquire(kernel, mutex)
//	defer g.Release()
//	if !g.HasLock() {
//	    return // the section is not protected
//	}
//
// A Guard is exclusively owned by the task that created it and must not be
// copied or shared.
type Guard struct {
	noCopy noCopy

	host rtos.IScheduler
	sem  rtos.ISemaphore
	log  ILogSink

	acquired bool
	released atomic.Bool

	// instrumentation, only set when Opts.Origin is used
	origin      string
	acquireTick rtos.Ticks
}

// Acquire takes the semaphore with an unbounded wait.
func Acquire(host rtos.IScheduler, sem rtos.ISemaphore) *Guard {
	return AcquireWithOpts(host, sem, nil)
}

// AcquireTimeout takes the semaphore, waiting at most timeout ticks.
func AcquireTimeout(host rtos.IScheduler, sem rtos.ISemaphore, timeout rtos.Ticks) *Guard {
	opts := DefaultOpts()
	opts.Timeout = timeout
	return AcquireWithOpts(host, sem, opts)
}

// AcquireWithOpts takes the semaphore with full control over timeout,
// diagnostics sink and instrumentation (see Opts). A nil opts is
// equivalent to DefaultOpts().
//
// The acquisition attempt is preceded by the safety checks described in
// the package documentation; if any of them fails, no blocking call is
// made and the returned guard reports HasLock() == false.
func AcquireWithOpts(host rtos.IScheduler, sem rtos.ISemaphore, opts *Opts) *Guard {
	if opts == nil {
		opts = DefaultOpts()
	}

	g := &Guard{
		host:   host,
		sem:    sem,
		log:    opts.Logger,
		origin: opts.Origin,
	}
	if g.log == nil {
		g.log = HostSink()
	}

	if !precheck(g.sem != nil, host, g.log, logTag, g.origin) {
		return g
	}

	if g.origin != "" {
		if host != nil {
			g.acquireTick = host.TickCount()
		}
		g.log.Logf(LogLevelDebug, logTag, "attempting acquisition (timeout=%d)%s", opts.Timeout, originSuffix(g.origin))
	}

	g.acquired = sem.Acquire(opts.Timeout)

	if g.origin != "" {
		if g.acquired {
			g.log.Logf(LogLevelDebug, logTag, "acquired semaphore%s", originSuffix(g.origin))
		} else {
			g.log.Logf(LogLevelWarning, logTag, "semaphore not acquired within %d ticks%s", opts.Timeout, originSuffix(g.origin))
		}
	}

	return g
}

// HasLock reports whether this guard currently holds the semaphore. It
// must be checked before treating the section as protected.
func (g *Guard) HasLock() bool {
	return g.acquired && !g.released.Load()
}

// IsValid reports whether the guard was constructed with a non-nil handle.
// A guard can be valid and still fail to acquire under contention.
func (g *Guard) IsValid() bool {
	return g.sem != nil
}

// Handle returns the stored handle unconditionally, including nil. It is
// meant for interop with code that addresses the primitive directly and
// does not affect the acquisition state.
func (g *Guard) Handle() rtos.ISemaphore {
	return g.sem
}

// Release gives the semaphore back if this guard holds it. It never blocks
// and never fails; releasing a guard that did not acquire, or releasing a
// second time, is a no-op. After the first call the guard is inert.
func (g *Guard) Release() {
	if !g.acquired || !g.released.CompareAndSwap(false, true) {
		return
	}

	if g.origin != "" && g.host != nil {
		held := g.host.TickCount() - g.acquireTick
		g.log.Logf(LogLevelDebug, logTag, "releasing semaphore after %d ticks%s", held, originSuffix(g.origin))
	}

	g.sem.Release()
}

// --------------------------------------------------------------------------
// Shared Safety-Check Policy
// --------------------------------------------------------------------------

// precheck runs the pre-acquire safety checks shared by both guard types.
// Each check short-circuits: a nil handle or an interrupt-calling context
// leaves the guard unacquired without attempting the blocking call.
func precheck(validHandle bool, host rtos.IScheduler, sink ILogSink, tag, origin string) bool {
	if !validHandle {
		sink.Logf(LogLevelError, tag, "nil semaphore handle provided%s", originSuffix(origin))
		return false
	}

	if host != nil && host.InISR() {
		sink.Logf(LogLevelError, tag, "cannot acquire from ISR context%s", originSuffix(origin))
		return false
	}

	return true
}

// originSuffix formats the optional call-site label for log lines.
func originSuffix(origin string) string {
	if origin == "" {
		return ""
	}
	return " at " + origin
}

package guard

import (
	"sync/atomic"

	"github.com/ValentinKolb/semguard/lib/rtos"
)

const recursiveLogTag = "rguard"

// --------------------------------------------------------------------------
// RecursiveGuard
// --------------------------------------------------------------------------

// RecursiveGuard holds one acquisition of a recursive mutex for the
// duration of a scope. The contract is identical to Guard, but the
// recursive take/give pair is used: a task that already holds the mutex
// (through an outer guard or directly) re-enters without deadlocking.
//
// Each RecursiveGuard still represents exactly one acquire/release pair
// layered on whatever recursion depth already exists; the nesting count
// itself lives in the host primitive and is not exposed here.
type RecursiveGuard struct {
	noCopy noCopy

	host  rtos.IScheduler
	mutex rtos.IRecursiveMutex
	log   ILogSink

	acquired bool
	released atomic.Bool

	origin      string
	acquireTick rtos.Ticks
}

// AcquireRecursive takes the recursive mutex with an unbounded wait.
func AcquireRecursive(host rtos.IScheduler, mutex rtos.IRecursiveMutex) *RecursiveGuard {
	return AcquireRecursiveWithOpts(host, mutex, nil)
}

// AcquireRecursiveTimeout takes the recursive mutex, waiting at most
// timeout ticks.
func AcquireRecursiveTimeout(host rtos.IScheduler, mutex rtos.IRecursiveMutex, timeout rtos.Ticks) *RecursiveGuard {
	opts := DefaultOpts()
	opts.Timeout = timeout
	return AcquireRecursiveWithOpts(host, mutex, opts)
}

// AcquireRecursiveWithOpts takes the recursive mutex with full control
// over timeout, diagnostics sink and instrumentation (see Opts). A nil
// opts is equivalent to DefaultOpts().
func AcquireRecursiveWithOpts(host rtos.IScheduler, mutex rtos.IRecursiveMutex, opts *Opts) *RecursiveGuard {
	if opts == nil {
		opts = DefaultOpts()
	}

	g := &RecursiveGuard{
		host:   host,
		mutex:  mutex,
		log:    opts.Logger,
		origin: opts.Origin,
	}
	if g.log == nil {
		g.log = HostSink()
	}

	if !precheck(g.mutex != nil, host, g.log, recursiveLogTag, g.origin) {
		return g
	}

	if g.origin != "" {
		if host != nil {
			g.acquireTick = host.TickCount()
		}
		g.log.Logf(LogLevelDebug, recursiveLogTag, "attempting acquisition (timeout=%d)%s", opts.Timeout, originSuffix(g.origin))
	}

	g.acquired = mutex.AcquireRecursive(opts.Timeout)

	if g.origin != "" {
		if g.acquired {
			g.log.Logf(LogLevelDebug, recursiveLogTag, "acquired recursive mutex%s", originSuffix(g.origin))
		} else {
			g.log.Logf(LogLevelWarning, recursiveLogTag, "recursive mutex not acquired within %d ticks%s", opts.Timeout, originSuffix(g.origin))
		}
	}

	return g
}

// HasLock reports whether this guard currently holds its acquisition of
// the mutex. It must be checked before treating the section as protected.
func (g *RecursiveGuard) HasLock() bool {
	return g.acquired && !g.released.Load()
}

// IsValid reports whether the guard was constructed with a non-nil handle.
func (g *RecursiveGuard) IsValid() bool {
	return g.mutex != nil
}

// Handle returns the stored handle unconditionally, including nil.
func (g *RecursiveGuard) Handle() rtos.IRecursiveMutex {
	return g.mutex
}

// Release gives back this guard's acquisition of the mutex if it holds
// one. It never blocks and never fails; releasing a guard that did not
// acquire, or releasing a second time, is a no-op.
func (g *RecursiveGuard) Release() {
	if !g.acquired || !g.released.CompareAndSwap(false, true) {
		return
	}

	if g.origin != "" && g.host != nil {
		held := g.host.TickCount() - g.acquireTick
		g.log.Logf(LogLevelDebug, recursiveLogTag, "releasing recursive mutex after %d ticks%s", held, originSuffix(g.origin))
	}

	g.mutex.ReleaseRecursive()
}

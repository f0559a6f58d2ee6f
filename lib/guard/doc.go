// Package guard implements scope-bound lock guards for the semaphore and
// mutex primitives of a preemptive real-time kernel. A guard acquires its
// primitive when it is constructed and gives it back exactly once when it
// is released, so a critical section cannot leak its lock across early
// returns or panics:
//
//	g := guard.Acquire(kernel, mutex)
//	defer g.Release()
//	if !g.HasLock() {
//	    return // section is not protected
//	}
//	// critical section
//
// Core Functionality:
//   - Guard: wraps a binary semaphore, counting semaphore or plain mutex
//     (rtos.ISemaphore)
//   - RecursiveGuard: wraps a recursive mutex (rtos.IRecursiveMutex) using
//     the recursive take/give pair, so the holding task may nest guards
//     without deadlocking
//   - Shared safety policy applied before every acquisition attempt
//
// Safety Policy:
//
//	Both guard types run the same short-circuiting checks before touching
//	the primitive:
//
//	1. Nil handle: an error is logged and the guard stays unacquired;
//	   IsValid() reports false. No blocking call is made.
//	2. Interrupt context: blocking acquisitions are illegal in interrupt
//	   handlers, so an error is logged and the guard stays unacquired;
//	   the handle itself is fine, IsValid() reports true.
//	3. Only then is the host's blocking acquire invoked with the requested
//	   timeout, and its boolean outcome recorded.
//
//	All three failure kinds (nil handle, interrupt context, timeout) are
//	recoverable and handled locally: the guard never panics and never
//	leaves the primitive in a held-but-unowned state. Callers are required
//	to check HasLock() before entering the section.
//
// Ownership:
//
//	A guard is a non-duplicable claim on one in-flight acquisition. The
//	types carry a noCopy field (flagged by go vet) because a copied guard
//	would create two release obligations for a single acquisition. Release
//	is latched atomically, so even a misused pooled or double-deferred
//	guard releases at most once.
//
// Diagnostics:
//
//	Logging is a strategy injected at composition time (Opts.Logger): the
//	default sink routes to the host logging facility under the tags
//	"guard" and "rguard", NopSink discards everything. Setting Opts.Origin
//	to a call-site label selects the instrumented variant, which
//	additionally traces acquisition attempts and reports the hold time in
//	ticks on release. Instrumentation changes no locking behavior.
//
// Thread Safety:
//
//	The wrapped handles are as shareable as the host primitive makes them.
//	A guard instance itself is not shared: it is exclusively owned by the
//	single task that created it, which is why its own state needs no
//	internal locking beyond the release latch.
package guard

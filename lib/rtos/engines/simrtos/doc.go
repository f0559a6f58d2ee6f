// Package simrtos implements a simulated real-time kernel for the rtos
// interfaces. It provides the host side of the guard library - semaphores,
// mutexes, recursive mutexes, a tick clock and interrupt-context simulation -
// so that tests, examples and benchmarks can run as ordinary Go programs.
//
// The simulation equates tasks with goroutines:
//
//   - Semaphores are buffered channels; one buffered element is one
//     available unit, which gives the primitives the blocking and timeout
//     behavior of their kernel counterparts without any busy waiting.
//   - Recursive mutexes identify the holding task by its goroutine id and
//     count nesting depth internally, exactly like a kernel-side recursive
//     mutex counts its takes and gives.
//   - Interrupt context is entered with Kernel.RunISR, which marks the
//     calling goroutine for the duration of the handler. InISR reports the
//     marking and is what the guards consult before blocking.
//   - The tick clock derives from the wall clock with a configurable tick
//     period (default 1ms). TickCount is monotonic.
//
// Fidelity notes:
//
//	The simulation reproduces the behavioral contract the guards depend on
//	(bounded-wait acquire, non-blocking release, surplus gives rejected,
//	binary semaphores created empty, mutexes created available). It does
//	not reproduce priority-based wakeup order: which of several blocked
//	tasks obtains a released unit is decided by the Go runtime scheduler.
//
// Instrumentation:
//
//	Each kernel carries its own metrics set (acquisitions, releases,
//	acquisition timeouts, created primitives) and can dump it in
//	Prometheus text format via WriteMetrics. The counters exist for the
//	demo and benchmark tooling; they add one atomic increment per
//	operation.
//
// Usage Example:
//
//	kernel := simrtos.NewKernel(nil)
//	mutex := kernel.NewMutex()
//
//	if g := guard.Acquire(kernel, mutex); g.HasLock() {
//	    defer g.Release()
//	    // critical section
//	}
package simrtos

package rtos

import "math"

// --------------------------------------------------------------------------
// Helper Types
// --------------------------------------------------------------------------

// Ticks is the kernel's unit of time. All timeouts and clock readings are
// expressed in ticks; the tick period is a property of the kernel.
type Ticks uint64

const (
	// NoWait attempts an acquisition without blocking. The acquisition
	// succeeds only if the primitive is immediately available.
	NoWait Ticks = 0

	// MaxDelay blocks an acquisition indefinitely until the primitive
	// becomes available.
	MaxDelay Ticks = math.MaxUint64
)

// --------------------------------------------------------------------------
// Primitive Interfaces
// --------------------------------------------------------------------------

// ISemaphore is an opaque handle to a binary semaphore, counting semaphore
// or plain (non-recursive) mutex provided by the host kernel.
//
// The handle is safe to share between tasks; the kernel provides the
// thread-safety guarantees of the underlying primitive.
type ISemaphore interface {
	// Acquire takes one unit of the semaphore, blocking for at most the
	// given number of ticks. It returns whether the unit was taken.
	// Acquiring with NoWait polls, acquiring with MaxDelay blocks forever.
	Acquire(timeout Ticks) (ok bool)

	// Release gives one unit back. Releasing a validly-held primitive
	// always succeeds; it never blocks.
	Release()
}

// IRecursiveMutex is an opaque handle to a mutex that the task already
// holding it may legally re-enter. The kernel tracks the nesting depth;
// the mutex is only free again once every acquisition has been matched
// by a release.
type IRecursiveMutex interface {
	// AcquireRecursive takes the mutex, blocking for at most the given
	// number of ticks. A task that already holds the mutex re-enters
	// without blocking.
	AcquireRecursive(timeout Ticks) (ok bool)

	// ReleaseRecursive undoes one acquisition by the holding task.
	ReleaseRecursive()
}

// --------------------------------------------------------------------------
// Kernel Context Interface
// --------------------------------------------------------------------------

// IScheduler exposes the context queries of the host kernel. Blocking
// acquisitions are illegal from interrupt context, and the tick counter is
// read for diagnostics only.
type IScheduler interface {
	// InISR reports whether the calling context is an interrupt service
	// routine. The query itself never blocks.
	InISR() bool

	// TickCount returns the kernel's monotonic tick counter.
	TickCount() Ticks
}

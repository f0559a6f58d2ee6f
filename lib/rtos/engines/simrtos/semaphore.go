package simrtos

import (
	"time"

	"github.com/ValentinKolb/semguard/lib/rtos"
)

// --------------------------------------------------------------------------
// Semaphore (binary, counting, plain mutex)
// --------------------------------------------------------------------------

// semaphore implements rtos.ISemaphore on top of a buffered channel. Each
// buffered element is one available unit, so the channel capacity is the
// semaphore's maximum count.
type semaphore struct {
	kernel *Kernel
	units  chan struct{}
}

// newSemaphore creates a semaphore with the given maximum and initial
// number of available units. Callers must ensure 0 <= initial <= max.
func (k *Kernel) newSemaphore(max, initial int) *semaphore {
	k.mPrimitives.Inc()
	s := &semaphore{
		kernel: k,
		units:  make(chan struct{}, max),
	}
	for i := 0; i < initial; i++ {
		s.units <- struct{}{}
	}
	return s
}

// Acquire takes one unit, blocking for at most timeout ticks.
//
// Thread-safety: This method is thread-safe; any number of tasks may block
// on the same semaphore. Which blocked task gets a released unit is up to
// the runtime scheduler, no FIFO order is guaranteed.
func (s *semaphore) Acquire(timeout rtos.Ticks) bool {
	s.kernel.mAcquires.Inc()

	switch timeout {
	case rtos.NoWait:
		select {
		case <-s.units:
			return true
		default:
			s.kernel.mTimeouts.Inc()
			return false
		}
	case rtos.MaxDelay:
		<-s.units
		return true
	default:
		timer := time.NewTimer(s.kernel.TicksToDuration(timeout))
		defer timer.Stop()
		select {
		case <-s.units:
			return true
		case <-timer.C:
			s.kernel.mTimeouts.Inc()
			return false
		}
	}
}

// Release gives one unit back without blocking. Releasing a semaphore that
// is already at its maximum count is a no-op, matching the kernel
// convention that a surplus give is simply rejected.
func (s *semaphore) Release() {
	select {
	case s.units <- struct{}{}:
		s.kernel.mReleases.Inc()
	default:
	}
}

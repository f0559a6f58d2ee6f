package simrtos

import (
	"sync"

	"github.com/ValentinKolb/semguard/lib/rtos"
	"github.com/ValentinKolb/semguard/lib/rtos/engines/simrtos/internal"
)

// --------------------------------------------------------------------------
// Recursive Mutex
// --------------------------------------------------------------------------

// recursiveMutex implements rtos.IRecursiveMutex. Ownership is layered on
// top of a one-unit semaphore: the unit is held for as long as any nesting
// level is active, while owner and depth track the re-entry bookkeeping.
type recursiveMutex struct {
	inner *semaphore

	mu    sync.Mutex // guards owner and depth
	owner uint64     // task id of the holder, 0 when free
	depth int        // current nesting depth of the holder
}

// AcquireRecursive takes the mutex, blocking for at most timeout ticks.
// The task already holding the mutex re-enters immediately, the kernel
// only counts the additional level.
func (m *recursiveMutex) AcquireRecursive(timeout rtos.Ticks) bool {
	id := internal.TaskID()

	m.mu.Lock()
	if m.depth > 0 && m.owner == id {
		m.depth++
		m.mu.Unlock()
		m.inner.kernel.mAcquires.Inc()
		return true
	}
	m.mu.Unlock()

	if !m.inner.Acquire(timeout) {
		return false
	}

	m.mu.Lock()
	m.owner = id
	m.depth = 1
	m.mu.Unlock()
	return true
}

// ReleaseRecursive undoes one nesting level of the holding task. The unit
// goes back to the semaphore only when the outermost level is released.
// A release by a task that does not hold the mutex is rejected silently.
func (m *recursiveMutex) ReleaseRecursive() {
	id := internal.TaskID()

	m.mu.Lock()
	if m.depth == 0 || m.owner != id {
		m.mu.Unlock()
		return
	}
	m.depth--
	freed := m.depth == 0
	if freed {
		m.owner = 0
	}
	m.mu.Unlock()

	if freed {
		m.inner.Release()
	} else {
		m.inner.kernel.mReleases.Inc()
	}
}

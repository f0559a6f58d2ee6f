package testing

import (
	"sync"
	"testing"
	"time"

	"github.com/ValentinKolb/semguard/lib/rtos"
)

// SemaphoreFactory creates a semaphore with the given maximum and initial
// number of available units.
type SemaphoreFactory func(max, initial int) rtos.ISemaphore

// RecursiveMutexFactory creates a new, available recursive mutex.
type RecursiveMutexFactory func() rtos.IRecursiveMutex

// RunSemaphoreTests runs a conformance test suite against a semaphore
// implementation. The tickPeriod parameter is the wall-clock duration of
// one tick of the kernel under test; it is needed to judge bounded waits.
func RunSemaphoreTests(t *testing.T, name string, factory SemaphoreFactory, tickPeriod time.Duration) {
	t.Run(name, func(t *testing.T) {
		t.Run("InitialAvailability", func(t *testing.T) {
			testInitialAvailability(t, factory)
		})

		t.Run("AcquireRelease", func(t *testing.T) {
			testAcquireRelease(t, factory)
		})

		t.Run("BoundedWait", func(t *testing.T) {
			testBoundedWait(t, factory, tickPeriod)
		})

		t.Run("SurplusRelease", func(t *testing.T) {
			testSurplusRelease(t, factory)
		})

		t.Run("BlockingHandoff", func(t *testing.T) {
			testBlockingHandoff(t, factory)
		})

		t.Run("ConcurrentCounting", func(t *testing.T) {
			testConcurrentCounting(t, factory)
		})
	})
}

// RunRecursiveMutexTests runs a conformance test suite against a recursive
// mutex implementation.
func RunRecursiveMutexTests(t *testing.T, name string, factory RecursiveMutexFactory, tickPeriod time.Duration) {
	t.Run(name, func(t *testing.T) {
		t.Run("Reentry", func(t *testing.T) {
			testReentry(t, factory)
		})

		t.Run("NestedReleaseCount", func(t *testing.T) {
			testNestedReleaseCount(t, factory)
		})

		t.Run("CrossTaskExclusion", func(t *testing.T) {
			testCrossTaskExclusion(t, factory, tickPeriod)
		})

		t.Run("NonOwnerRelease", func(t *testing.T) {
			testNonOwnerRelease(t, factory)
		})
	})
}

// --------------------------------------------------------------------------
// Helper functions
// --------------------------------------------------------------------------

// drain counts how many units can be taken without blocking
func drain(sem rtos.ISemaphore) int {
	n := 0
	for sem.Acquire(rtos.NoWait) {
		n++
	}
	return n
}

// --------------------------------------------------------------------------
// Semaphore test functions
// --------------------------------------------------------------------------

func testInitialAvailability(t *testing.T, factory SemaphoreFactory) {
	sem := factory(3, 2)

	if got := drain(sem); got != 2 {
		t.Errorf("Expected 2 initially available units, got %d", got)
	}

	empty := factory(1, 0)
	if empty.Acquire(rtos.NoWait) {
		t.Errorf("Expected semaphore created empty to reject immediate acquire")
	}
}

func testAcquireRelease(t *testing.T, factory SemaphoreFactory) {
	sem := factory(1, 1)

	if !sem.Acquire(rtos.NoWait) {
		t.Fatal("Expected acquire of an available unit to succeed")
	}
	if sem.Acquire(rtos.NoWait) {
		t.Error("Expected acquire of a depleted semaphore to fail")
	}

	sem.Release()

	if !sem.Acquire(rtos.NoWait) {
		t.Error("Expected acquire to succeed again after release")
	}
}

func testBoundedWait(t *testing.T, factory SemaphoreFactory, tickPeriod time.Duration) {
	sem := factory(1, 0)

	const timeoutTicks = 10
	start := time.Now()
	ok := sem.Acquire(rtos.Ticks(timeoutTicks))
	elapsed := time.Since(start)

	if ok {
		t.Error("Expected bounded acquire of a depleted semaphore to fail")
	}
	if min := timeoutTicks * tickPeriod; elapsed < min {
		t.Errorf("Expected bounded acquire to wait at least %v, returned after %v", min, elapsed)
	}
}

func testSurplusRelease(t *testing.T, factory SemaphoreFactory) {
	sem := factory(2, 2)

	// the semaphore is already at its maximum count
	sem.Release()

	if got := drain(sem); got != 2 {
		t.Errorf("Expected surplus release to be rejected, drained %d units", got)
	}
}

func testBlockingHandoff(t *testing.T, factory SemaphoreFactory) {
	sem := factory(1, 0)

	go func() {
		time.Sleep(10 * time.Millisecond)
		sem.Release()
	}()

	if !sem.Acquire(rtos.MaxDelay) {
		t.Error("Expected unbounded acquire to succeed once a unit is released")
	}
}

func testConcurrentCounting(t *testing.T, factory SemaphoreFactory) {
	const (
		units   = 4
		workers = 16
		rounds  = 50
	)

	sem := factory(units, units)

	var (
		mu      sync.Mutex
		current int
		peak    int
	)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < rounds; j++ {
				if !sem.Acquire(rtos.MaxDelay) {
					t.Error("Unbounded acquire returned false")
					return
				}

				mu.Lock()
				current++
				if current > peak {
					peak = current
				}
				mu.Unlock()

				mu.Lock()
				current--
				mu.Unlock()

				sem.Release()
			}
		}()
	}
	wg.Wait()

	if peak > units {
		t.Errorf("Semaphore admitted %d concurrent holders, capacity is %d", peak, units)
	}
	if got := drain(sem); got != units {
		t.Errorf("Expected all %d units back after the workers finished, got %d", units, got)
	}
}

// --------------------------------------------------------------------------
// Recursive mutex test functions
// --------------------------------------------------------------------------

func testReentry(t *testing.T, factory RecursiveMutexFactory) {
	m := factory()

	for i := 0; i < 3; i++ {
		if !m.AcquireRecursive(rtos.NoWait) {
			t.Fatalf("Expected re-entry %d by the holding task to succeed", i)
		}
	}
	for i := 0; i < 3; i++ {
		m.ReleaseRecursive()
	}
}

func testNestedReleaseCount(t *testing.T, factory RecursiveMutexFactory) {
	m := factory()

	if !m.AcquireRecursive(rtos.NoWait) || !m.AcquireRecursive(rtos.NoWait) {
		t.Fatal("Expected nested acquisition to succeed")
	}

	// one release undoes only the inner level, the mutex stays held
	m.ReleaseRecursive()
	if acquiredElsewhere(m) {
		t.Error("Expected mutex to stay held until every level is released")
	}

	m.ReleaseRecursive()
	if !acquiredElsewhere(m) {
		t.Error("Expected mutex to be free after the outermost release")
	}
}

func testCrossTaskExclusion(t *testing.T, factory RecursiveMutexFactory, tickPeriod time.Duration) {
	m := factory()

	if !m.AcquireRecursive(rtos.NoWait) {
		t.Fatal("Expected initial acquisition to succeed")
	}

	const timeoutTicks = 5
	done := make(chan bool, 1)
	start := time.Now()
	go func() {
		done <- m.AcquireRecursive(rtos.Ticks(timeoutTicks))
	}()

	if <-done {
		t.Error("Expected acquisition from another task to time out")
	}
	if elapsed, min := time.Since(start), timeoutTicks*tickPeriod; elapsed < min {
		t.Errorf("Expected the other task to wait at least %v, returned after %v", min, elapsed)
	}

	m.ReleaseRecursive()
}

func testNonOwnerRelease(t *testing.T, factory RecursiveMutexFactory) {
	m := factory()

	if !m.AcquireRecursive(rtos.NoWait) {
		t.Fatal("Expected initial acquisition to succeed")
	}

	// a release from a task that does not hold the mutex must be rejected
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		m.ReleaseRecursive()
	}()
	wg.Wait()

	if acquiredElsewhere(m) {
		t.Error("Expected the mutex to remain held after a non-owner release")
	}

	m.ReleaseRecursive()
}

// acquiredElsewhere reports whether a fresh task can take the mutex without
// waiting (and releases it again if it could).
func acquiredElsewhere(m rtos.IRecursiveMutex) bool {
	got := make(chan bool, 1)
	go func() {
		if m.AcquireRecursive(rtos.NoWait) {
			m.ReleaseRecursive()
			got <- true
			return
		}
		got <- false
	}()
	return <-got
}

package simrtos

import (
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ValentinKolb/semguard/lib/rtos"
	rtostesting "github.com/ValentinKolb/semguard/lib/rtos/testing"
)

func TestPrimitives(t *testing.T) {
	kernel := NewKernel(nil)

	rtostesting.RunSemaphoreTests(t, "SimRTOS", kernel.NewCountingSemaphore, kernel.tickPeriod)
	rtostesting.RunRecursiveMutexTests(t, "SimRTOS", kernel.NewRecursiveMutex, kernel.tickPeriod)
}

func TestBinarySemaphoreStartsEmpty(t *testing.T) {
	kernel := NewKernel(nil)
	sem := kernel.NewBinarySemaphore()

	if sem.Acquire(rtos.NoWait) {
		t.Error("Expected a fresh binary semaphore to be empty")
	}

	sem.Release()
	if !sem.Acquire(rtos.NoWait) {
		t.Error("Expected the binary semaphore to be available after a release")
	}
}

func TestMutexStartsAvailable(t *testing.T) {
	kernel := NewKernel(nil)
	mutex := kernel.NewMutex()

	if !mutex.Acquire(rtos.NoWait) {
		t.Error("Expected a fresh mutex to be available")
	}
	mutex.Release()
}

func TestInISR(t *testing.T) {
	kernel := NewKernel(nil)

	if kernel.InISR() {
		t.Error("Expected task context outside of RunISR")
	}

	kernel.RunISR(func() {
		if !kernel.InISR() {
			t.Error("Expected ISR context inside RunISR")
		}

		// nested handlers stay in ISR context
		kernel.RunISR(func() {
			if !kernel.InISR() {
				t.Error("Expected ISR context inside a nested handler")
			}
		})

		if !kernel.InISR() {
			t.Error("Expected ISR context after leaving the nested handler")
		}
	})

	if kernel.InISR() {
		t.Error("Expected task context after RunISR returned")
	}
}

func TestInISRIsPerTask(t *testing.T) {
	kernel := NewKernel(nil)

	entered := make(chan struct{})
	release := make(chan struct{})

	go kernel.RunISR(func() {
		close(entered)
		<-release
	})

	<-entered
	if kernel.InISR() {
		t.Error("Expected the ISR marking of another goroutine to not leak")
	}
	close(release)
}

func TestTickCountMonotonic(t *testing.T) {
	kernel := NewKernel(&KernelOptions{TickPeriod: time.Millisecond})

	before := kernel.TickCount()
	kernel.Sleep(5)
	after := kernel.TickCount()

	if after < before+5 {
		t.Errorf("Expected at least 5 ticks to elapse across Sleep(5), got %d -> %d", before, after)
	}
}

func TestTickConversion(t *testing.T) {
	kernel := NewKernel(&KernelOptions{TickPeriod: time.Millisecond})

	if got := kernel.TicksToDuration(25); got != 25*time.Millisecond {
		t.Errorf("TicksToDuration(25) = %v, want 25ms", got)
	}
	if got := kernel.DurationToTicks(25 * time.Millisecond); got != 25 {
		t.Errorf("DurationToTicks(25ms) = %d, want 25", got)
	}
	if got := kernel.DurationToTicks(-time.Second); got != 0 {
		t.Errorf("DurationToTicks of a negative duration = %d, want 0", got)
	}
}

func TestWriteMetrics(t *testing.T) {
	kernel := NewKernel(nil)
	sem := kernel.NewCountingSemaphore(1, 1)

	sem.Acquire(rtos.NoWait)
	sem.Release()
	sem.Acquire(rtos.NoWait)

	var sb strings.Builder
	kernel.WriteMetrics(&sb)
	out := sb.String()

	for _, metric := range []string{
		"simrtos_acquires_total",
		"simrtos_releases_total",
		"simrtos_primitives_created_total",
	} {
		if !strings.Contains(out, metric) {
			t.Errorf("Expected metrics dump to contain %s, got:\n%s", metric, out)
		}
	}
}

func TestConcurrentRecursiveOwners(t *testing.T) {
	kernel := NewKernel(nil)
	m := kernel.NewRecursiveMutex()

	const workers = 8

	var (
		mu      sync.Mutex
		holders int
	)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 25; j++ {
				if !m.AcquireRecursive(rtos.MaxDelay) {
					t.Error("Unbounded recursive acquire returned false")
					return
				}
				// re-enter once to exercise the depth bookkeeping
				m.AcquireRecursive(rtos.NoWait)

				mu.Lock()
				holders++
				if holders != 1 {
					t.Errorf("Expected exclusive ownership, %d holders", holders)
				}
				holders--
				mu.Unlock()

				m.ReleaseRecursive()
				m.ReleaseRecursive()
			}
		}()
	}
	wg.Wait()
}

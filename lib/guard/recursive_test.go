package guard

import (
	"testing"
	"time"

	"github.com/ValentinKolb/semguard/lib/rtos"
	"github.com/ValentinKolb/semguard/lib/rtos/engines/simrtos"
)

// freeElsewhere reports whether a fresh task can take the mutex without
// waiting (releasing it again if so).
func freeElsewhere(m rtos.IRecursiveMutex) bool {
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

func TestRecursiveGuardAcquires(t *testing.T) {
	kernel := simrtos.NewKernel(nil)
	mutex := kernel.NewRecursiveMutex()

	g := AcquireRecursive(kernel, mutex)
	if !g.HasLock() {
		t.Fatal("Expected the guard to hold the recursive mutex")
	}
	if !g.IsValid() {
		t.Error("Expected guard with non-nil handle to be valid")
	}
	if g.Handle() != mutex {
		t.Error("Expected Handle() to return the stored handle")
	}

	g.Release()

	if !freeElsewhere(mutex) {
		t.Error("Expected the mutex to be free after the guard released")
	}
}

func TestRecursiveGuardNesting(t *testing.T) {
	kernel := simrtos.NewKernel(nil)
	mutex := kernel.NewRecursiveMutex()

	outer := AcquireRecursive(kernel, mutex)
	if !outer.HasLock() {
		t.Fatal("Expected the outer guard to hold the mutex")
	}

	// the same task re-enters through a second guard without deadlocking
	inner := AcquireRecursive(kernel, mutex)
	if !inner.HasLock() {
		t.Fatal("Expected the inner guard to re-enter the held mutex")
	}

	inner.Release()
	if freeElsewhere(mutex) {
		t.Error("Expected the mutex to stay held while the outer guard lives")
	}

	outer.Release()
	if !freeElsewhere(mutex) {
		t.Error("Expected the mutex to be free after both guards released")
	}
}

func TestRecursiveGuardNilHandle(t *testing.T) {
	kernel := simrtos.NewKernel(nil)
	sink := &recordingSink{}

	opts := DefaultOpts()
	opts.Logger = sink
	g := AcquireRecursiveWithOpts(kernel, nil, opts)

	if g.HasLock() {
		t.Error("Expected no lock for a nil handle")
	}
	if g.IsValid() {
		t.Error("Expected a nil-handle guard to be invalid")
	}
	if g.Handle() != nil {
		t.Error("Expected Handle() to return nil")
	}
	if !sink.contains("rguard") {
		t.Error("Expected the diagnostic to carry the recursive guard tag")
	}

	g.Release()
}

func TestRecursiveGuardISRContext(t *testing.T) {
	kernel := simrtos.NewKernel(nil)
	mutex := kernel.NewRecursiveMutex()
	sink := &recordingSink{}

	var g *RecursiveGuard
	kernel.RunISR(func() {
		opts := DefaultOpts()
		opts.Logger = sink
		g = AcquireRecursiveWithOpts(kernel, mutex, opts)
	})

	if g.HasLock() {
		t.Error("Expected no lock when acquiring from ISR context")
	}
	if !g.IsValid() {
		t.Error("Expected the guard to stay valid, the handle itself was fine")
	}
	if !sink.contains("ISR context") {
		t.Error("Expected an error-level diagnostic about the ISR context")
	}
	if !freeElsewhere(mutex) {
		t.Error("Expected the mutex to remain untouched")
	}
}

func TestRecursiveGuardTimeout(t *testing.T) {
	kernel := simrtos.NewKernel(nil)
	mutex := kernel.NewRecursiveMutex()

	// hold the mutex on another task
	held := make(chan struct{})
	release := make(chan struct{})
	go func() {
		g := AcquireRecursive(kernel, mutex)
		close(held)
		<-release
		g.Release()
	}()
	<-held

	const timeoutTicks = 5
	start := time.Now()
	g := AcquireRecursiveTimeout(kernel, mutex, timeoutTicks)
	elapsed := time.Since(start)

	if g.HasLock() {
		t.Error("Expected the bounded acquisition to fail while held elsewhere")
	}
	if min := kernel.TicksToDuration(timeoutTicks); elapsed < min {
		t.Errorf("Expected the acquisition to wait at least %v, returned after %v", min, elapsed)
	}

	g.Release() // no-op
	close(release)
}

func TestRecursiveGuardReleaseIsLatched(t *testing.T) {
	kernel := simrtos.NewKernel(nil)
	mutex := kernel.NewRecursiveMutex()

	outer := AcquireRecursive(kernel, mutex)
	inner := AcquireRecursive(kernel, mutex)

	// repeated releases of one guard must undo only its own acquisition
	inner.Release()
	inner.Release()
	inner.Release()

	if freeElsewhere(mutex) {
		t.Error("Expected the outer acquisition to survive repeated inner releases")
	}

	outer.Release()
	if !freeElsewhere(mutex) {
		t.Error("Expected the mutex to be free after the outer guard released")
	}
}

func TestRecursiveGuardInstrumentedVariant(t *testing.T) {
	kernel := simrtos.NewKernel(nil)
	mutex := kernel.NewRecursiveMutex()
	sink := &recordingSink{}

	opts := DefaultOpts()
	opts.Logger = sink
	opts.Origin = "recursive_test.go:1"

	g := AcquireRecursiveWithOpts(kernel, mutex, opts)
	if !g.HasLock() {
		t.Fatal("Expected the instrumented guard to hold the mutex")
	}
	g.Release()

	if !sink.contains("releasing recursive mutex after") {
		t.Error("Expected a hold-time trace from the instrumented guard")
	}
	if !sink.contains("at recursive_test.go:1") {
		t.Error("Expected the traces to carry the origin label")
	}
}

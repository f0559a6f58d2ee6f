package simrtos

import (
	"io"
	"time"

	"github.com/ValentinKolb/semguard/lib/rtos"
	"github.com/ValentinKolb/semguard/lib/rtos/engines/simrtos/internal"
	"github.com/VictoriaMetrics/metrics"
	"github.com/puzpuzpuz/xsync/v3"
)

// --------------------------------------------------------------------------
// Constants
// --------------------------------------------------------------------------

const (
	defaultTickPeriod = time.Millisecond // matches a 1kHz kernel tick
)

// --------------------------------------------------------------------------
// Core Kernel Structure
// --------------------------------------------------------------------------

// Kernel simulates the scheduling context of a preemptive real-time kernel.
// It hands out synchronization primitives, keeps a monotonic tick clock and
// tracks which goroutines currently execute simulated interrupt handlers.
type Kernel struct {
	tickPeriod time.Duration
	epoch      time.Time

	// goroutines currently inside RunISR, keyed by task id with the
	// nesting depth as value
	isrTasks *xsync.MapOf[uint64, int]

	// instrumentation
	metrics     *metrics.Set
	mAcquires   *metrics.Counter
	mReleases   *metrics.Counter
	mTimeouts   *metrics.Counter
	mPrimitives *metrics.Counter
}

// KernelOptions configures the Kernel behavior during initialization
type KernelOptions struct {
	TickPeriod time.Duration // Duration of one kernel tick (0 = use default: 1ms)
}

// DefaultOptions returns the default Kernel options
func DefaultOptions() *KernelOptions {
	return &KernelOptions{
		TickPeriod: defaultTickPeriod,
	}
}

// --------------------------------------------------------------------------
// Initialization and Setup
// --------------------------------------------------------------------------

// NewKernel creates a new simulated kernel with the specified options
// (optional).
//
// Thread-safety: This function is not thread-safe and should only be called
// once per kernel instance during initialization. The returned kernel and
// every primitive it creates are safe for concurrent use.
func NewKernel(opts *KernelOptions) *Kernel {

	// Generate default options if not provided
	if opts == nil {
		opts = DefaultOptions()
	}
	if opts.TickPeriod <= 0 {
		opts.TickPeriod = defaultTickPeriod
	}

	set := metrics.NewSet()
	return &Kernel{
		tickPeriod:  opts.TickPeriod,
		epoch:       time.Now(),
		isrTasks:    xsync.NewMapOf[uint64, int](),
		metrics:     set,
		mAcquires:   set.NewCounter("simrtos_acquires_total"),
		mReleases:   set.NewCounter("simrtos_releases_total"),
		mTimeouts:   set.NewCounter("simrtos_acquire_timeouts_total"),
		mPrimitives: set.NewCounter("simrtos_primitives_created_total"),
	}
}

// --------------------------------------------------------------------------
// Primitive Factories
// --------------------------------------------------------------------------

// NewBinarySemaphore creates a binary semaphore. Like its kernel
// counterpart it starts empty: it must be released once before the first
// acquisition can succeed.
func (k *Kernel) NewBinarySemaphore() rtos.ISemaphore {
	return k.newSemaphore(1, 0)
}

// NewCountingSemaphore creates a counting semaphore with the given maximum
// and initial number of available units.
func (k *Kernel) NewCountingSemaphore(max, initial int) rtos.ISemaphore {
	if max < 1 {
		max = 1
	}
	if initial < 0 {
		initial = 0
	}
	if initial > max {
		initial = max
	}
	return k.newSemaphore(max, initial)
}

// NewMutex creates a non-recursive mutex. Mutexes start available.
func (k *Kernel) NewMutex() rtos.ISemaphore {
	return k.newSemaphore(1, 1)
}

// NewRecursiveMutex creates a recursive mutex. It starts available and the
// holding task may re-enter it; the kernel counts the nesting depth.
func (k *Kernel) NewRecursiveMutex() rtos.IRecursiveMutex {
	k.mPrimitives.Inc()
	return &recursiveMutex{
		inner: k.newSemaphore(1, 1),
	}
}

// --------------------------------------------------------------------------
// Scheduler Interface (rtos.IScheduler)
// --------------------------------------------------------------------------

// InISR reports whether the calling goroutine currently executes a
// simulated interrupt handler (see RunISR).
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (k *Kernel) InISR() bool {
	depth, ok := k.isrTasks.Load(internal.TaskID())
	return ok && depth > 0
}

// TickCount returns the number of ticks elapsed since the kernel was
// created. The counter is monotonic.
func (k *Kernel) TickCount() rtos.Ticks {
	return rtos.Ticks(time.Since(k.epoch) / k.tickPeriod)
}

// --------------------------------------------------------------------------
// Time Helpers
// --------------------------------------------------------------------------

// TicksToDuration converts a tick count to a wall-clock duration using the
// kernel's tick period.
func (k *Kernel) TicksToDuration(t rtos.Ticks) time.Duration {
	return time.Duration(t) * k.tickPeriod
}

// DurationToTicks converts a wall-clock duration to ticks, rounding down.
func (k *Kernel) DurationToTicks(d time.Duration) rtos.Ticks {
	if d <= 0 {
		return 0
	}
	return rtos.Ticks(d / k.tickPeriod)
}

// Sleep suspends the calling task for the given number of ticks.
func (k *Kernel) Sleep(t rtos.Ticks) {
	time.Sleep(k.TicksToDuration(t))
}

// --------------------------------------------------------------------------
// ISR Simulation
// --------------------------------------------------------------------------

// RunISR executes fn as a simulated interrupt handler: for the duration of
// the call, InISR reports true for the calling goroutine. Calls may nest.
//
// Thread-safety: This method is thread-safe; independent goroutines can
// simulate interrupts concurrently.
func (k *Kernel) RunISR(fn func()) {
	id := internal.TaskID()

	k.isrTasks.Compute(id, func(depth int, _ bool) (int, bool) {
		return depth + 1, false
	})
	defer k.isrTasks.Compute(id, func(depth int, _ bool) (int, bool) {
		return depth - 1, depth <= 1
	})

	fn()
}

// --------------------------------------------------------------------------
// Instrumentation
// --------------------------------------------------------------------------

// WriteMetrics writes the kernel's counters (acquisitions, releases,
// acquisition timeouts, created primitives) to w in Prometheus text format.
func (k *Kernel) WriteMetrics(w io.Writer) {
	k.metrics.WritePrometheus(w)
}

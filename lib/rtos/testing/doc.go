// Package testing provides reusable conformance test suites for
// implementations of the rtos primitive interfaces. Any kernel binding -
// the bundled simulation or a real one - can run the suites against its
// own factories to verify the behavioral contract the guards rely on:
// bounded waits, non-blocking releases, rejected surplus gives, counted
// capacity and recursive re-entry.
//
// The suites are driven the same way as Go table tests:
//
//	func Test(t *testing.T) {
//	    kernel := simrtos.NewKernel(nil)
//	    rtostesting.RunSemaphoreTests(t, "SimRTOS", kernel.NewCountingSemaphore, time.Millisecond)
//	    rtostesting.RunRecursiveMutexTests(t, "SimRTOS", kernel.NewRecursiveMutex, time.Millisecond)
//	}
package testing

// Package rtos defines the boundary between the guard library and the host
// real-time kernel. It contains only interfaces and the tick arithmetic
// shared by every kernel implementation - no synchronization logic of its
// own.
//
// The package models the three things a preemptive kernel provides to a
// lock guard:
//
//   - ISemaphore: bounded-wait acquire and release of a binary semaphore,
//     counting semaphore or plain mutex.
//   - IRecursiveMutex: the recursive take/give pair for mutexes that the
//     holding task may re-enter.
//   - IScheduler: context queries (interrupt context, tick counter).
//
// Implementations of these interfaces are supplied externally. The
// simulated kernel in the engines/simrtos package implements all of them
// and is what the tests, examples and benchmarks of this repository run
// against; production users adapt their own kernel bindings instead.
package rtos

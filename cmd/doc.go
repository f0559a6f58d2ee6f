// Package cmd implements the command-line interface of the semguard
// repository. The guards themselves are a library; the CLI exists to run
// the example workload and the benchmarks against the simulated kernel.
//
// The package is organized into several subpackages:
//
//   - demo: Runs the example tasks (shared counter, serial output,
//     recursive counter) on the simulated kernel
//   - perf: Benchmarks the guard acquisition paths
//   - util: Shared utilities for command-line processing, configuration
//     and logging setup (internal use)
//
// See semguard -help for a list of all commands.
package cmd

package perf

import (
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/ValentinKolb/semguard/cmd/util"
	"github.com/ValentinKolb/semguard/lib/guard"
	"github.com/ValentinKolb/semguard/lib/rtos"
	"github.com/ValentinKolb/semguard/lib/rtos/engines/simrtos"
	gometrics "github.com/rcrowley/go-metrics"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	// PerfCmd benchmarks the guard acquisition paths
	PerfCmd = &cobra.Command{
		Use:     "perf",
		Short:   "Benchmark the guard acquisition paths",
		Long:    "Benchmark guard acquisition and release on the simulated kernel: uncontended, contended, polling on a depleted semaphore, recursive nesting and the instrumented variant.",
		PreRunE: processPerfConfig,
		RunE:    run,
	}

	perfNumThreads = 10
	perfSkip       = make([]string, 0)
)

func init() {
	// Initialize viper
	cobra.OnInitialize(util.InitConfig)

	// add kernel flags shared with demo
	util.SetupKernelFlags(PerfCmd)

	// add flags
	key := "skip"
	PerfCmd.Flags().String(key, "", util.WrapString("Benchmarks to skip (comma separated - e.g. contended,recursive)"))
	key = "threads"
	PerfCmd.Flags().Int(key, 10, util.WrapString("Number of threads to use for the contended benchmark"))
	key = "csv"
	PerfCmd.Flags().String(key, "", util.WrapString("Optional path to save benchmark results as CSV"))
}

func processPerfConfig(cmd *cobra.Command, _ []string) error {
	if err := util.BindCommandFlags(cmd); err != nil {
		return err
	}
	if err := util.InitLoggers(); err != nil {
		return err
	}

	perfNumThreads = viper.GetInt("threads")
	if s := viper.GetString("skip"); s != "" {
		perfSkip = strings.Split(s, ",")
	}

	return nil
}

func run(_ *cobra.Command, _ []string) error {

	fmt.Println("Guard acquisition benchmarks (simulated kernel)")
	fmt.Println()
	fmt.Printf("Threads: %d\n", perfNumThreads)
	fmt.Printf("Tick: %v\n", util.GetKernelOptions().TickPeriod)
	fmt.Println()

	kernel := simrtos.NewKernel(util.GetKernelOptions())

	// Create results map
	results := make(map[string]testing.BenchmarkResult)

	uncontendedResult := testing.Benchmark(func(b *testing.B) {
		if shouldSkip("uncontended") {
			return
		}

		mutex := kernel.NewMutex()

		b.ResetTimer()

		for i := 0; i < b.N; i++ {
			g := guard.Acquire(kernel, mutex)
			g.Release()
		}
	})

	results["uncontended"] = uncontendedResult
	printResult("uncontended", uncontendedResult)

	// the contended benchmark additionally samples per-acquisition latency
	latency := gometrics.NewTimer()

	contendedResult := testing.Benchmark(func(b *testing.B) {
		if shouldSkip("contended") {
			return
		}

		mutex := kernel.NewMutex()

		b.SetParallelism(perfNumThreads)

		b.ResetTimer()

		b.RunParallel(func(pb *testing.PB) {
			for pb.Next() {
				start := time.Now()
				g := guard.Acquire(kernel, mutex)
				latency.UpdateSince(start)
				g.Release()
			}
		})
	})

	results["contended"] = contendedResult
	printResult("contended", contendedResult)
	printLatency(latency)

	pollMissResult := testing.Benchmark(func(b *testing.B) {
		if shouldSkip("poll-miss") {
			return
		}

		// semaphore stays depleted, every poll takes the failure path
		sem := kernel.NewBinarySemaphore()

		b.ResetTimer()

		for i := 0; i < b.N; i++ {
			g := guard.AcquireTimeout(kernel, sem, rtos.NoWait)
			g.Release()
		}
	})

	results["poll-miss"] = pollMissResult
	printResult("poll-miss", pollMissResult)

	recursiveResult := testing.Benchmark(func(b *testing.B) {
		if shouldSkip("recursive") {
			return
		}

		mutex := kernel.NewRecursiveMutex()

		b.ResetTimer()

		for i := 0; i < b.N; i++ {
			outer := guard.AcquireRecursive(kernel, mutex)
			inner := guard.AcquireRecursive(kernel, mutex)
			inner.Release()
			outer.Release()
		}
	})

	results["recursive"] = recursiveResult
	printResult("recursive", recursiveResult)

	instrumentedResult := testing.Benchmark(func(b *testing.B) {
		if shouldSkip("instrumented") {
			return
		}

		mutex := kernel.NewMutex()
		opts := guard.DefaultOpts()
		opts.Logger = guard.NopSink()
		opts.Origin = "perf:instrumented"

		b.ResetTimer()

		for i := 0; i < b.N; i++ {
			g := guard.AcquireWithOpts(kernel, mutex, opts)
			g.Release()
		}
	})

	results["instrumented"] = instrumentedResult
	printResult("instrumented", instrumentedResult)

	// Write results to csv if specified
	if csvPath := viper.GetString("csv"); csvPath != "" {
		fmt.Printf("\nExporting results to CSV: %s\n", csvPath)
		if err := writeResultsToCSV(csvPath, results); err != nil {
			return fmt.Errorf("failed to export results to CSV: %v", err)
		}
		fmt.Println("Export complete")
	}

	return nil
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

func shouldSkip(test string) bool {
	// Check if the test is in the skip list
	for _, skip := range perfSkip {
		if test == skip {
			return true
		}
	}
	return false
}

// printResult prints the result of a benchmark test in a formatted way
func printResult(test string, result testing.BenchmarkResult) {
	if result.NsPerOp() == 0 {
		fmt.Printf("%-20sskipped\n", test)
		return
	}

	nsPerOp := math.Max(float64(result.NsPerOp()), 1) // prevent division by zero
	opsPerSec := 1.0 / (nsPerOp / 1e9)

	// Print the formatted result
	fmt.Printf("%-20s%.0fns/op (%s/op)\t%.0f ops/sec\n", test, nsPerOp, time.Duration(nsPerOp), opsPerSec)
}

// printLatency prints the sampled acquisition latency distribution
func printLatency(timer gometrics.Timer) {
	if timer.Count() == 0 {
		return
	}

	p := timer.Percentiles([]float64{0.5, 0.95, 0.99})
	fmt.Printf("%-20smedian=%s p95=%s p99=%s max=%s\n",
		"  latency",
		time.Duration(p[0]),
		time.Duration(p[1]),
		time.Duration(p[2]),
		time.Duration(timer.Max()),
	)
}

// writeResultsToCSV writes benchmark results to a CSV file
func writeResultsToCSV(csvPath string, results map[string]testing.BenchmarkResult) error {
	file, err := os.Create(csvPath)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %v", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	// Write header
	header := []string{
		"Test", "NsPerOp", "DurationPerOp", "OpsPerSec", "Skipped",
		"Threads", "TickUs",
	}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %v", err)
	}

	// Write test results
	for test, result := range results {
		var (
			nsPerOp   float64
			opsPerSec float64
			skipped   string
		)

		if result.NsPerOp() == 0 {
			skipped = "true"
		} else {
			skipped = "false"
			nsPerOp = math.Max(float64(result.NsPerOp()), 1)
			opsPerSec = 1.0 / (nsPerOp / 1e9)
		}

		row := []string{
			test,
			strconv.FormatFloat(nsPerOp, 'f', 0, 64),
			time.Duration(nsPerOp).String(),
			strconv.FormatFloat(opsPerSec, 'f', 0, 64),
			skipped,
			strconv.Itoa(perfNumThreads),
			strconv.Itoa(viper.GetInt("tick-us")),
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row: %v", err)
		}
	}

	return nil
}

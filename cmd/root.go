package cmd

import (
	"fmt"
	"os"

	"github.com/ValentinKolb/semguard/cmd/demo"
	"github.com/ValentinKolb/semguard/cmd/perf"
	"github.com/spf13/cobra"
)

const (
	Version = "1.0.0"
)

var (

	// RootCmd represents the base command when called without any subcommands
	RootCmd = &cobra.Command{
		Use:   "semguard",
		Short: "scope-bound lock guards for RTOS semaphores",
		Long: fmt.Sprintf(`semguard (v%s)

Scope-bound lock guards for the semaphore and mutex primitives of a
preemptive real-time kernel, with a simulated kernel for development,
testing and benchmarking.`, Version),
	}

	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of semguard",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("semguard v%s\n", Version)
		},
	}
)

func init() {
	// Add Commands
	RootCmd.AddCommand(demo.DemoCmd)
	RootCmd.AddCommand(perf.PerfCmd)
	RootCmd.AddCommand(versionCmd)
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the RootCmd.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

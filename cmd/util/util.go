package util

import (
	"strings"
	"time"

	"github.com/ValentinKolb/semguard/lib/rtos/engines/simrtos"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	// Wrap is the number of characters to Wrap the help text at
	Wrap int = 50
)

// WrapString wraps a string at Wrap characters
func WrapString(text string) string {
	var wrappedLines []string
	var currentLine strings.Builder
	lineWidth := 0

	for _, word := range strings.Fields(text) {
		wordWidth := len(word)

		// Check if we need to wrap
		if lineWidth > 0 && lineWidth+1+wordWidth > Wrap {
			wrappedLines = append(wrappedLines, currentLine.String())
			currentLine.Reset()
			lineWidth = 0
		}

		// Add space before word (if not first word on line)
		if lineWidth > 0 {
			currentLine.WriteString(" ")
			lineWidth++
		}

		// Add the word
		currentLine.WriteString(word)
		lineWidth += wordWidth
	}

	// Add any remaining text
	if currentLine.Len() > 0 {
		wrappedLines = append(wrappedLines, currentLine.String())
	}

	return strings.Join(wrappedLines, "\n")
}

// SetupKernelFlags adds the simulated-kernel flags shared by the demo and
// perf commands
func SetupKernelFlags(cmd *cobra.Command) {
	key := "tick-us"
	cmd.PersistentFlags().Int(key, 1000, WrapString("Duration of one simulated kernel tick in microseconds"))

	key = "log-level"
	cmd.PersistentFlags().String(key, "info", WrapString("Log level for the guard diagnostics (debug, info, warn, error)"))

	key = "trace"
	cmd.PersistentFlags().Bool(key, false, WrapString("Use instrumented guards that trace acquisitions and hold times"))
}

// InitConfig initializes configuration from environment variables
func InitConfig() {
	// load env files
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	// initialize viper
	viper.SetEnvPrefix("semguard")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv() // read in environment variables that match
}

// GetKernelOptions reads the simulated-kernel configuration from viper
func GetKernelOptions() *simrtos.KernelOptions {
	return &simrtos.KernelOptions{
		TickPeriod: time.Duration(viper.GetInt("tick-us")) * time.Microsecond,
	}
}

// TraceEnabled reports whether instrumented guards were requested
func TraceEnabled() bool {
	return viper.GetBool("trace")
}

// BindCommandFlags binds a command's flags to viper
func BindCommandFlags(cmd *cobra.Command) error {
	return viper.BindPFlags(cmd.Flags())
}

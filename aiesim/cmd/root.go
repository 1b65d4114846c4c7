// Package cmd provides the command-line interface of aiesim.
package cmd

import (
	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"
)

type options struct {
	envFile     string
	layout      string
	logLevel    string
	monitor     bool
	monitorPort int
	openBrowser bool
	hold        bool
	record      string
}

var opts options

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "aiesim",
	Short: "aiesim runs programs on a simulated array of tiles.",
	Long: `aiesim runs programs on a simulated array of tiles. Every tile ` +
		`runs on its own goroutine and talks to the others through its ` +
		`stream switch and the cascade chain. Settings are read from ` +
		`AIESIM_* environment variables or a .env file and can be ` +
		`overridden with flags.`,
	SilenceUsage: true,
}

func init() {
	f := rootCmd.PersistentFlags()
	f.StringVar(&opts.envFile, "env-file", "",
		"Env file to load instead of .env")
	f.StringVar(&opts.layout, "layout", "",
		"Array layout: one_pe, small, full or WxH")
	f.StringVar(&opts.logLevel, "log-level", "",
		"Log level: debug, info, warn or error")
	f.BoolVar(&opts.monitor, "monitor", false,
		"Serve the monitoring web page while the array runs")
	f.IntVar(&opts.monitorPort, "monitor-port", 0,
		"Port of the monitoring server, 0 picks a free one")
	f.BoolVar(&opts.openBrowser, "open-browser", false,
		"Open the monitoring page in the default browser")
	f.BoolVar(&opts.hold, "hold", false,
		"Keep the monitoring server up after the run until interrupted")
	f.StringVar(&opts.record, "record", "",
		"SQLite file to record pipe transfers to")
}

// Execute adds all child commands to the root command and sets flags
// appropriately.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		atexit.Exit(1)
	}
}

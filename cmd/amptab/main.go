// Command amptab runs the completion engine against a file on disk. It shows
// the region and prompt the engine would build at a position, and can request
// a completion from the configured endpoint.
package main

import (
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// options are the persistent flags shared by every subcommand.
type options struct {
	configPath string
	logLevel   string
	colorMode  string
	line       int
	col        int
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "amptab",
		Short: "Inline code completion engine",
		Long: `amptab selects an editable region around a cursor, builds a fill-in-the-middle
prompt for it and streams a completion from the configured endpoint.

Files are read, never written. Positions are 1-based.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			switch opts.colorMode {
			case "on":
				color.NoColor = false
			case "off":
				color.NoColor = true
			}
			return nil
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&opts.configPath, "config", "", "config file (.toml, .yaml or .yml)")
	pf.StringVar(&opts.logLevel, "log-level", "", "override logging.level (debug|info|warn|error)")
	pf.StringVar(&opts.colorMode, "color", "auto", "colorize output (auto|on|off)")
	pf.IntVar(&opts.line, "line", 1, "cursor line, 1-based")
	pf.IntVar(&opts.col, "col", 1, "cursor column in bytes, 1-based")

	root.AddCommand(
		newRegionCmd(opts),
		newPromptCmd(opts),
		newCompleteCmd(opts),
	)
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

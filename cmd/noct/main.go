package main

import (
	"os"

	"github.com/fatih/color"
	"github.com/noctsys/noct/cmd/noct/internal/manifest"
	"github.com/noctsys/noct/cmd/noct/internal/plugin"
	"github.com/noctsys/noct/log"
	"github.com/spf13/cobra"
)

// release is set with -ldflags "-X main.release=x.y.z".
var release = "dev"

var rootCmd = &cobra.Command{
	Use:          "noct",
	Short:        "noct: resource manifest and native plugin tooling",
	Long:         `noct inspects, validates and converts resource manifests and probes native plugin modules.`,
	Version:      release,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		verbose, _ := cmd.Flags().GetBool("verbose")
		quiet, _ := cmd.Flags().GetBool("quiet")
		noColor, _ := cmd.Flags().GetBool("no-color")
		if noColor {
			color.NoColor = true
		}
		// Library logs go to stderr through the fallback logger.
		switch {
		case quiet:
			log.SetLevel(log.ErrorLevel)
		case verbose:
			log.SetLevel(log.DebugLevel)
		default:
			log.SetLevel(log.WarnLevel)
		}
	},
}

func init() {
	rootCmd.AddCommand(manifest.CmdManifest)
	rootCmd.AddCommand(plugin.CmdPlugin)
	rootCmd.PersistentFlags().Bool("verbose", false, "enable debug logs")
	rootCmd.PersistentFlags().Bool("quiet", false, "suppress non-error logs")
	rootCmd.PersistentFlags().Bool("no-color", false, "disable colored output")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		color.New(color.FgRed).Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

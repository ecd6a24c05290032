// Package plugin implements the "noct plugin" commands.
package plugin

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/docker/go-units"
	"github.com/fatih/color"
	"github.com/noctsys/noct/native"
	"github.com/spf13/cobra"
)

// CmdPlugin groups the plugin subcommands.
var CmdPlugin = &cobra.Command{
	Use:   "plugin",
	Short: "Inspect native plugin modules",
}

var cmdProbe = &cobra.Command{
	Use:   "probe <module" + native.Extension + "> [symbol...]",
	Short: "Open a plugin module and resolve symbols",
	Long: `Open a native plugin module with the system loader and look up each
symbol. Symbol names may use spaces; they are resolved with underscores.`,
	Example: `  noct plugin probe plugins/ai.noct "plugin init" "on update"`,
	Args:    cobra.MinimumNArgs(1),
	RunE:    runProbe,
}

func init() {
	CmdPlugin.AddCommand(cmdProbe)
}

func runProbe(cmd *cobra.Command, args []string) error {
	return probe(cmd, native.New(), args[0], args[1:])
}

func probe(cmd *cobra.Command, m *native.Module, path string, symbols []string) error {
	out := cmd.OutOrStdout()
	ok := color.New(color.FgGreen)
	bad := color.New(color.FgRed)

	if err := m.Open(path); err != nil {
		bad.Fprintln(out, "open failed:", m.ErrorMessage())
		return err
	}
	defer m.Close()

	size := "-"
	if fi, err := os.Stat(path); err == nil {
		size = units.HumanSize(float64(fi.Size()))
	}
	ok.Fprint(out, "opened ")
	fmt.Fprintf(out, "%s (%s)\n", path, size)

	var failed int
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	for _, s := range symbols {
		if p, found := m.Find(s); found {
			fmt.Fprintf(w, "%s\t%s\t%#x\n", s, native.NormalizeSymbol(s), p)
		} else {
			failed++
			fmt.Fprintf(w, "%s\t%s\t%s\n", s, native.NormalizeSymbol(s), m.ErrorMessage())
		}
	}
	if err := w.Flush(); err != nil {
		return err
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d symbols not found", failed, len(symbols))
	}
	return nil
}

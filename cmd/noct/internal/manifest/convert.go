package manifest

import (
	"fmt"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/noctsys/noct/resource"
	"github.com/spf13/cobra"
)

var cmdConvert = &cobra.Command{
	Use:   "convert <in> <out>",
	Short: "Convert a manifest between XML and YAML",
	Long: `Rewrite a manifest in the format of the output file extension.
Directories and stems are copied as written, so relative paths keep their
meaning only when both files share a directory.`,
	Example: `  noct manifest convert resources.xml resources.yaml`,
	Args:    cobra.ExactArgs(2),
	RunE:    runConvert,
}

func runConvert(cmd *cobra.Command, args []string) error {
	in, out := args[0], args[1]
	m, err := resource.ReadManifest(in)
	if err != nil {
		return err
	}
	if err := m.Validate(); err != nil {
		return err
	}
	if baseDir(in) != baseDir(out) {
		color.New(color.FgYellow).Fprintf(cmd.ErrOrStderr(),
			"warning: %s and %s are in different directories; relative paths are not rebased\n",
			filepath.Base(in), filepath.Base(out))
	}
	if err := resource.WriteManifest(out, m); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", out)
	return nil
}

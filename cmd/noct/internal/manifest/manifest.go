// Package manifest implements the "noct manifest" commands.
package manifest

import (
	"os"
	"path/filepath"

	"github.com/docker/go-units"
	"github.com/spf13/cobra"
)

// CmdManifest groups the manifest subcommands.
var CmdManifest = &cobra.Command{
	Use:   "manifest",
	Short: "Inspect, validate and convert resource manifests",
	Long: `Work with resource database manifests. The format follows the file
extension: .yaml and .yml are YAML, anything else is XML.`,
}

func init() {
	CmdManifest.AddCommand(cmdCheck)
	CmdManifest.AddCommand(cmdList)
	CmdManifest.AddCommand(cmdConvert)
}

// fileSize renders the size of path, or "-" when it cannot be read.
func fileSize(path string) (string, int64) {
	if path == "" {
		return "-", 0
	}
	fi, err := os.Stat(path)
	if err != nil {
		return "missing", 0
	}
	return units.HumanSize(float64(fi.Size())), fi.Size()
}

func baseDir(path string) string {
	abs, err := filepath.Abs(filepath.Dir(path))
	if err != nil {
		return filepath.Dir(path)
	}
	return abs
}

package manifest

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/noctsys/noct/resource"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var (
	listFormat   string
	listCategory string
)

var cmdList = &cobra.Command{
	Use:   "list <manifest>",
	Short: "List the entries of a manifest",
	Example: `  # Table of every entry
  noct manifest list assets/resources.xml

  # Only plugins, as JSON
  noct manifest list assets/resources.yaml --category plugin --format json`,
	Args: cobra.ExactArgs(1),
	RunE: runList,
}

func init() {
	cmdList.Flags().StringVarP(&listFormat, "format", "f", "table", "Output format (table/json/yaml)")
	cmdList.Flags().StringVarP(&listCategory, "category", "c", "", "Filter by category (texture/font/sound/shader/color/plugin)")
}

type listRow struct {
	Category string `json:"category" yaml:"category"`
	Name     string `json:"name" yaml:"name"`
	Path     string `json:"path,omitempty" yaml:"path,omitempty"`
	Value    string `json:"value,omitempty" yaml:"value,omitempty"`
	Size     int64  `json:"size" yaml:"size"`
}

func runList(cmd *cobra.Command, args []string) error {
	m, err := resource.ReadManifest(args[0])
	if err != nil {
		return err
	}
	var rows []listRow
	for _, ref := range m.Resolve(baseDir(args[0])) {
		if listCategory != "" && ref.Category != listCategory {
			continue
		}
		_, size := fileSize(ref.Path)
		rows = append(rows, listRow{Category: ref.Category, Name: ref.Name, Path: ref.Path, Value: ref.Value, Size: size})
	}

	out := cmd.OutOrStdout()
	switch listFormat {
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(rows)
	case "yaml":
		return yaml.NewEncoder(out).Encode(rows)
	case "table":
	default:
		return fmt.Errorf("unknown format %q", listFormat)
	}

	if m.Version != resource.ManifestVersion {
		color.New(color.FgYellow).Fprintf(out, "warning: manifest version %q, supported %q\n", m.Version, resource.ManifestVersion)
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "CATEGORY\tNAME\tSIZE\tSOURCE")
	for _, r := range rows {
		size, _ := fileSize(r.Path)
		src := r.Path
		if src == "" {
			src = r.Value
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", r.Category, r.Name, size, src)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(out, "%d entries\n", len(rows))
	return nil
}

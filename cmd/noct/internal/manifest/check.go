package manifest

import (
	"fmt"

	"github.com/docker/go-units"
	"github.com/fatih/color"
	"github.com/noctsys/noct/resource"
	"github.com/spf13/cobra"
)

var checkLoad bool

var cmdCheck = &cobra.Command{
	Use:   "check <manifest>",
	Short: "Validate a manifest",
	Long: `Validate the manifest version, shader stages and plugin formats and
verify every referenced file exists. With --load every entry is decoded
into a scratch database, plugins included.`,
	Args: cobra.ExactArgs(1),
	RunE: runCheck,
}

func init() {
	cmdCheck.Flags().BoolVar(&checkLoad, "load", false, "decode every entry and open every plugin")
}

func runCheck(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	ok := color.New(color.FgGreen, color.Bold)
	bad := color.New(color.FgRed, color.Bold)

	m, err := resource.ReadManifest(args[0])
	if err != nil {
		return err
	}
	if err := m.Validate(); err != nil {
		bad.Fprintln(out, "FAIL")
		return err
	}

	var missing int
	var total int64
	refs := m.Resolve(baseDir(args[0]))
	for _, ref := range refs {
		if ref.Path == "" {
			continue
		}
		size, n := fileSize(ref.Path)
		if size == "missing" {
			missing++
			bad.Fprintf(out, "missing  ")
			fmt.Fprintf(out, "%s '%s': %s\n", ref.Category, ref.Name, ref.Path)
			continue
		}
		total += n
	}
	if missing > 0 {
		bad.Fprintln(out, "FAIL")
		return fmt.Errorf("%d referenced files are missing", missing)
	}

	if checkLoad {
		db := resource.NewDatabase()
		defer db.CloseAll()
		if err := db.LoadFromFile(args[0]); err != nil {
			bad.Fprintln(out, "FAIL")
			return err
		}
		s := db.Stats()
		fmt.Fprintf(out, "loaded: %d textures, %d fonts, %d sounds, %d shaders, %d colors, %d plugins\n",
			s.Textures, s.Fonts, s.Sounds, s.Shaders, s.Colors, s.Plugins)
	}

	ok.Fprint(out, "OK")
	fmt.Fprintf(out, " %d entries, %s on disk\n", len(refs), units.HumanSize(float64(total)))
	return nil
}

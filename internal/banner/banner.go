// Package banner prints the startup banner.
package banner

import (
	"embed"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// FileName is looked up next to the configuration before falling back to
// the embedded banner.
const FileName = "banner.txt"

//go:embed banner.txt
var bannerFS embed.FS

// Show writes the banner followed by the application name and version.
// A banner.txt in dir replaces the embedded art.
func Show(w io.Writer, dir, name, version string) error {
	data, err := load(filepath.Join(dir, FileName))
	if err != nil {
		if data, err = fs.ReadFile(bannerFS, FileName); err != nil {
			return fmt.Errorf("failed to read banner: %w", err)
		}
	}
	if _, err := fmt.Fprintf(w, "%s\n :: %s :: %s\n\n", data, name, version); err != nil {
		return fmt.Errorf("failed to display banner: %w", err)
	}
	return nil
}

func load(path string) ([]byte, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if fi.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}
	return os.ReadFile(path)
}

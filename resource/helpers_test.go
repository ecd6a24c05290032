package resource

import (
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/noctsys/noct/native"
	"github.com/stretchr/testify/require"
)

// countingPlatform hands out fake handles and counts opens and closes.
type countingPlatform struct {
	mu     sync.Mutex
	next   native.Handle
	live   map[native.Handle]string
	opens  int
	closes int
}

func newCountingPlatform() *countingPlatform {
	return &countingPlatform{live: map[native.Handle]string{}}
}

func (p *countingPlatform) Open(path string) (native.Handle, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.next++
	p.live[p.next] = path
	p.opens++
	return p.next, nil
}

func (p *countingPlatform) Close(h native.Handle) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.live[h]; !ok {
		return errors.New("invalid handle")
	}
	delete(p.live, h)
	p.closes++
	return nil
}

func (p *countingPlatform) Symbol(native.Handle, string) (uintptr, error) {
	return 0, errors.New("undefined symbol")
}

func (p *countingPlatform) counts() (opens, closes, live int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.opens, p.closes, len(p.live)
}

func newTestDatabase(p *countingPlatform) *Database {
	return NewDatabase(WithPluginOptions(native.WithPlatform(p)))
}

func writePNG(t *testing.T, path string, w, h int) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func mkdir(t *testing.T, root, name string) string {
	t.Helper()
	dir := filepath.Join(root, name)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	return dir
}

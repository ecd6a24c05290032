package resource

import (
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/noctsys/noct/native"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDatabase_OverwritePreservesSharing(t *testing.T) {
	dir := t.TempDir()
	small := filepath.Join(dir, "small.png")
	large := filepath.Join(dir, "large.png")
	writePNG(t, small, 2, 2)
	writePNG(t, large, 8, 4)

	db := NewDatabase()
	require.NoError(t, db.LoadTextureFromFile(small, "hero"))
	h1, ok := db.FindTexture("hero")
	require.True(t, ok)

	require.NoError(t, db.LoadTextureFromFile(large, "hero"))
	h2, ok := db.FindTexture("hero")
	require.True(t, ok)

	assert.NotSame(t, h1, h2)
	assert.Equal(t, 2, h1.Bounds().Dx(), "handle obtained before the overwrite must stay intact")
	assert.Equal(t, 8, h2.Bounds().Dx())
	assert.Equal(t, "png", h2.Format)
	assert.Equal(t, []string{"hero"}, db.ListTextures())
}

func TestDatabase_FailedLoadIsNoop(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.png")
	bad := filepath.Join(dir, "bad.png")
	writePNG(t, good, 3, 3)
	writeFile(t, bad, "this is not an image")

	db := NewDatabase()
	require.NoError(t, db.LoadTextureFromFile(good, "hero"))
	before, _ := db.TextureResource("hero")

	err := db.LoadTextureFromFile(bad, "hero")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDecode)

	var rerr *Error
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, KindDecodeFailure, rerr.Kind)
	assert.Equal(t, "hero", rerr.Name)
	assert.Equal(t, bad, rerr.Path)

	after, ok := db.TextureResource("hero")
	require.True(t, ok)
	assert.Same(t, before.Data, after.Data)
	assert.Equal(t, good, after.Path)
}

func TestDatabase_DefaultNameIsStem(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "ui.ttf"), "font-bytes")
	writeFile(t, filepath.Join(dir, "jump.wav"), "RIFF")
	writeFile(t, filepath.Join(dir, "empty.ogg"), "")

	db := NewDatabase()
	require.NoError(t, db.LoadFontFromFile(filepath.Join(dir, "ui.ttf")))
	require.NoError(t, db.LoadSoundFromFile(filepath.Join(dir, "jump.wav")))
	assert.ErrorIs(t, db.LoadSoundFromFile(filepath.Join(dir, "empty.ogg")), ErrDecode)

	f, ok := db.FindFont("ui")
	require.True(t, ok)
	assert.Equal(t, 10, f.Size())
	_, ok = db.FindSound("jump")
	assert.True(t, ok)
	_, ok = db.FindSound("empty")
	assert.False(t, ok)
}

func TestDatabase_Shaders(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "blur.frag")
	writeFile(t, path, "void main() {}")

	db := NewDatabase()
	require.NoError(t, db.LoadShaderFromFile(path, Fragment))
	require.NoError(t, db.LoadShaderFromSource("void main() { gl_Position = vec4(0); }", Vertex, "flat"))
	assert.ErrorIs(t, db.LoadShaderFromSource("   ", Vertex, "blank"), ErrDecode)

	r, ok := db.ShaderResource("blur")
	require.True(t, ok)
	assert.False(t, r.Inline)
	assert.Equal(t, Fragment, r.Stage)
	assert.Equal(t, path, r.Path)

	r, ok = db.ShaderResource("flat")
	require.True(t, ok)
	assert.True(t, r.Inline)
	assert.Empty(t, r.Path)
	assert.Equal(t, Vertex, r.Data.Stage)

	_, ok = db.FindShader("blank")
	assert.False(t, ok)
	assert.Equal(t, []string{"blur", "flat"}, db.ListShaders())
}

func TestDatabase_Directories(t *testing.T) {
	root := t.TempDir()
	file := filepath.Join(root, "file.txt")
	writeFile(t, file, "x")

	db := NewDatabase()
	require.NoError(t, db.SetTextureDirectory(root))

	err := db.SetFontDirectory(file)
	assert.ErrorIs(t, err, ErrNotADirectory)
	err = db.SetSoundDirectory(filepath.Join(root, "missing"))
	assert.ErrorIs(t, err, ErrNotADirectory)

	var rerr *Error
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, KindNotADirectory, rerr.Kind)

	dirs := db.Directories()
	assert.Equal(t, root, dirs.Texture)
	assert.Empty(t, dirs.Font)
	assert.Empty(t, dirs.Sound)
}

func TestDatabase_ColorsEraseAndList(t *testing.T) {
	db := NewDatabase()
	db.AddColor("sky", RGBA(0x87, 0xCE, 0xEB, 0xFF))
	db.AddColor("ash", RGBA(1, 2, 3, 4))
	db.AddColor("sky", RGBA(0, 0, 0xFF, 0xFF))

	c, ok := db.FindColor("sky")
	require.True(t, ok)
	assert.Equal(t, RGBA(0, 0, 0xFF, 0xFF), c)
	assert.Equal(t, []string{"ash", "sky"}, db.ListColors())

	assert.True(t, db.EraseColor("ash"))
	assert.False(t, db.EraseColor("ash"))
	_, ok = db.FindColor("ash")
	assert.False(t, ok)
	assert.Equal(t, 1, db.Stats().Colors)
}

func TestDatabase_EraseKeepsHandedOutHandles(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "hero.png"), 4, 4)

	db := NewDatabase()
	require.NoError(t, db.LoadTextureFromFile(filepath.Join(dir, "hero.png")))
	h, _ := db.FindTexture("hero")

	assert.True(t, db.EraseTexture("hero"))
	assert.Empty(t, db.ListTextures())
	assert.Equal(t, 4, h.Bounds().Dy())
}

func TestDatabase_PluginHotSwap(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "game.noct")
	writeFile(t, path, "module")

	p := newCountingPlatform()
	db := newTestDatabase(p)

	require.NoError(t, db.LoadPluginFromFile(path))
	first, ok := db.FindPlugin("game")
	require.True(t, ok)

	require.NoError(t, db.LoadPluginFromFile(path))
	second, ok := db.FindPlugin("game")
	require.True(t, ok)

	opens, closes, live := p.counts()
	assert.Equal(t, 2, opens)
	assert.Equal(t, 1, closes)
	assert.Equal(t, 1, live, "exactly one open handle per name after a hot-swap")
	assert.False(t, first.IsOpen())
	assert.True(t, second.IsOpen())
	assert.NotSame(t, first, second)
}

func TestDatabase_PluginOpenFailure(t *testing.T) {
	dir := t.TempDir()
	so := filepath.Join(dir, "game.so")
	writeFile(t, so, "module")

	p := newCountingPlatform()
	db := newTestDatabase(p)

	err := db.LoadPluginFromFile(so)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPluginOpen)
	assert.ErrorIs(t, err, native.ErrInvalidExtension)

	err = db.LoadPluginFromFile(filepath.Join(dir, "missing.noct"))
	assert.ErrorIs(t, err, native.ErrNotFound)

	opens, _, _ := p.counts()
	assert.Zero(t, opens)
	assert.Empty(t, db.ListPlugins())
}

func TestDatabase_FailedPluginReloadKeepsOldHandle(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "game.noct")
	writeFile(t, path, "module")

	p := newCountingPlatform()
	db := newTestDatabase(p)
	require.NoError(t, db.LoadPluginFromFile(path))
	m, _ := db.FindPlugin("game")

	require.Error(t, db.LoadPluginFromFile(filepath.Join(dir, "gone.noct"), "game"))
	still, ok := db.FindPlugin("game")
	require.True(t, ok)
	assert.Same(t, m, still)
	assert.True(t, still.IsOpen())
}

func TestDatabase_CloseAndCloseAll(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "game.noct")
	writeFile(t, path, "module")

	p := newCountingPlatform()
	db := newTestDatabase(p)
	require.NoError(t, db.LoadPluginFromFile(path))
	db.AddColor("c", 1)
	m, _ := db.FindPlugin("game")

	require.NoError(t, db.Close())
	assert.Zero(t, db.Stats().Total())
	assert.True(t, m.IsOpen(), "Close does not force-unload plugins")
	require.NoError(t, m.Close())

	require.NoError(t, db.LoadPluginFromFile(path))
	require.NoError(t, db.CloseAll())
	_, _, live := p.counts()
	assert.Zero(t, live)
	assert.Empty(t, db.ListPlugins())
}

func TestDatabase_ConcurrentAccess(t *testing.T) {
	db := NewDatabase()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				db.AddColor("c", RGBA(uint8(i), uint8(j), 0, 0))
				db.FindColor("c")
				db.ListColors()
			}
		}(i)
	}
	wg.Wait()
	assert.Equal(t, []string{"c"}, db.ListColors())
}

func TestDatabase_LoadMetrics(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.ttf"), "font")
	writeFile(t, filepath.Join(dir, "b.ttf"), "")

	ok := loadsTotal.WithLabelValues(categoryFont, "ok")
	failed := loadsTotal.WithLabelValues(categoryFont, "error")
	okBefore, failedBefore := testutil.ToFloat64(ok), testutil.ToFloat64(failed)

	db := NewDatabase()
	require.NoError(t, db.LoadFontFromFile(filepath.Join(dir, "a.ttf")))
	require.Error(t, db.LoadFontFromFile(filepath.Join(dir, "b.ttf")))

	assert.Equal(t, okBefore+1, testutil.ToFloat64(ok))
	assert.Equal(t, failedBefore+1, testutil.ToFloat64(failed))
}

func TestError_Format(t *testing.T) {
	err := &Error{Kind: KindDecodeFailure, Category: "texture", Name: "hero", Path: "/a/hero.png", Err: errors.New("bad header")}
	assert.Equal(t, "resource: resource decode failed [texture] name 'hero' path '/a/hero.png': bad header", err.Error())
	assert.ErrorIs(t, err, ErrDecode)
	assert.NotErrorIs(t, err, ErrManifestParse)
	assert.Equal(t, "DecodeFailure", err.Kind.String())
}

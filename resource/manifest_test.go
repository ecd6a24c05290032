package resource

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// populate fills every category and directory of a database rooted at root.
func populate(t *testing.T, db *Database, root string) {
	t.Helper()
	tex := mkdir(t, root, "textures")
	fonts := mkdir(t, root, "fonts")
	sounds := mkdir(t, root, "sounds")
	shaders := mkdir(t, root, "shaders")
	plugins := mkdir(t, root, "plugins")

	require.NoError(t, db.SetTextureDirectory(tex))
	require.NoError(t, db.SetFontDirectory(fonts))
	require.NoError(t, db.SetSoundDirectory(sounds))
	require.NoError(t, db.SetShaderDirectory(shaders))
	require.NoError(t, db.SetPluginDirectory(plugins))

	writePNG(t, filepath.Join(tex, "hero.png"), 2, 2)
	writePNG(t, filepath.Join(tex, "ui", "button.png"), 1, 1)
	writeFile(t, filepath.Join(fonts, "mono.ttf"), "font")
	writeFile(t, filepath.Join(sounds, "jump.wav"), "RIFF")
	writeFile(t, filepath.Join(shaders, "blur.frag"), "void main() {}")
	writeFile(t, filepath.Join(plugins, "ai.noct"), "module")

	outside := t.TempDir()
	writePNG(t, filepath.Join(outside, "logo.png"), 1, 1)

	require.NoError(t, db.LoadTextureFromFile(filepath.Join(tex, "hero.png")))
	require.NoError(t, db.LoadTextureFromFile(filepath.Join(tex, "ui", "button.png"), "button"))
	require.NoError(t, db.LoadTextureFromFile(filepath.Join(outside, "logo.png")))
	require.NoError(t, db.LoadFontFromFile(filepath.Join(fonts, "mono.ttf")))
	require.NoError(t, db.LoadSoundFromFile(filepath.Join(sounds, "jump.wav")))
	require.NoError(t, db.LoadShaderFromFile(filepath.Join(shaders, "blur.frag"), Fragment))
	require.NoError(t, db.LoadShaderFromSource("void main() { /* a < b */ }", Vertex, "flat"))
	require.NoError(t, db.LoadPluginFromFile(filepath.Join(plugins, "ai.noct"), "brain"))
	db.AddColor("sky", RGBA(0x87, 0xCE, 0xEB, 0xFF))
	db.AddColor("ash", RGBA(1, 2, 3, 4))
}

func assertSameContent(t *testing.T, want, got *Database) {
	t.Helper()
	assert.Equal(t, want.Directories(), got.Directories())
	assert.Equal(t, want.ListTextures(), got.ListTextures())
	assert.Equal(t, want.ListFonts(), got.ListFonts())
	assert.Equal(t, want.ListSounds(), got.ListSounds())
	assert.Equal(t, want.ListShaders(), got.ListShaders())
	assert.Equal(t, want.ListColors(), got.ListColors())
	assert.Equal(t, want.ListPlugins(), got.ListPlugins())

	for _, name := range want.ListTextures() {
		w, _ := want.TextureResource(name)
		g, _ := got.TextureResource(name)
		assert.Equal(t, w.Path, g.Path, name)
	}
	for _, name := range want.ListShaders() {
		w, _ := want.ShaderResource(name)
		g, _ := got.ShaderResource(name)
		assert.Equal(t, w.Inline, g.Inline, name)
		assert.Equal(t, w.Stage, g.Stage, name)
		assert.Equal(t, w.Code, g.Code, name)
		assert.Equal(t, w.Path, g.Path, name)
	}
	for _, name := range want.ListColors() {
		w, _ := want.FindColor(name)
		g, _ := got.FindColor(name)
		assert.Equal(t, w, g, name)
	}
	for _, name := range want.ListPlugins() {
		w, _ := want.FindPlugin(name)
		g, _ := got.FindPlugin(name)
		assert.Equal(t, w.Path(), g.Path(), name)
		assert.True(t, g.IsOpen(), name)
	}
}

func TestManifest_RoundTrip(t *testing.T) {
	for _, file := range []string{"resources.xml", "resources.yaml"} {
		t.Run(file, func(t *testing.T) {
			root := t.TempDir()
			p := newCountingPlatform()
			src := newTestDatabase(p)
			populate(t, src, root)

			path := filepath.Join(root, file)
			require.NoError(t, src.SaveToFile(path))

			dst := newTestDatabase(p)
			require.NoError(t, dst.LoadFromFile(path))
			assertSameContent(t, src, dst)
			assert.Equal(t, src.Stats(), dst.Stats())
		})
	}
}

func TestManifest_RoundTripShaderWithoutExtension(t *testing.T) {
	for _, file := range []string{"resources.xml", "resources.yaml"} {
		t.Run(file, func(t *testing.T) {
			root := t.TempDir()
			shaders := mkdir(t, root, "shaders")
			writeFile(t, filepath.Join(shaders, "blur"), "void main() {}")
			writeFile(t, filepath.Join(shaders, "glow.frag"), "void main() {}")

			src := NewDatabase()
			require.NoError(t, src.SetShaderDirectory(shaders))
			require.NoError(t, src.LoadShaderFromFile(filepath.Join(shaders, "blur"), Fragment))
			require.NoError(t, src.LoadShaderFromFile(filepath.Join(shaders, "glow.frag"), Fragment))

			path := filepath.Join(root, file)
			require.NoError(t, src.SaveToFile(path))

			dst := NewDatabase()
			require.NoError(t, dst.LoadFromFile(path))
			blur, ok := dst.ShaderResource("blur")
			require.True(t, ok)
			assert.Equal(t, filepath.Join(shaders, "blur"), blur.Path)
			glow, ok := dst.ShaderResource("glow")
			require.True(t, ok)
			assert.Equal(t, filepath.Join(shaders, "glow.frag"), glow.Path)
		})
	}
}

func TestShaderEntry_Extension(t *testing.T) {
	empty, glsl, frag := "", "glsl", "frag"
	cases := []struct {
		entry ShaderEntry
		stage ShaderStage
		ext   string
	}{
		{ShaderEntry{Stage: "frag"}, Fragment, "frag"},
		{ShaderEntry{Stage: "vert", Type: &glsl}, Vertex, "glsl"},
		{ShaderEntry{Stage: "frag", Type: &empty}, Fragment, ""},
		{ShaderEntry{Type: &frag}, Fragment, "frag"},
	}
	for _, c := range cases {
		st, ext, err := c.entry.stage()
		require.NoError(t, err)
		assert.Equal(t, c.stage, st)
		assert.Equal(t, c.ext, ext)
	}

	_, _, err := ShaderEntry{}.stage()
	assert.Error(t, err)
}

func TestManifest_SavedStemsAreRelative(t *testing.T) {
	root := t.TempDir()
	db := newTestDatabase(newCountingPlatform())
	populate(t, db, root)

	m := db.manifest(root)
	assert.Equal(t, "textures", m.Textures.Directory)
	stems := map[string]string{}
	for _, e := range m.Textures.Entries {
		stems[e.Name] = e.Stem
		assert.Equal(t, "png", e.Type)
	}
	assert.Equal(t, "hero", stems["hero"])
	assert.Equal(t, "ui/button", stems["button"])
	assert.True(t, filepath.IsAbs(filepath.FromSlash(stems["logo"])), "files outside the directory keep absolute stems")

	require.Len(t, m.Scripts.Entries, 1)
	assert.Equal(t, ScriptEntry{Name: "brain", Lang: "noct", Stem: "ai"}, m.Scripts.Entries[0])
}

func TestManifest_HandWrittenXML(t *testing.T) {
	root := t.TempDir()
	writePNG(t, filepath.Join(root, "tex", "hero.png"), 2, 2)
	writeFile(t, filepath.Join(root, "sh", "glow.frag"), "void main() {}")
	writeFile(t, filepath.Join(root, "sh", "wave.glsl"), "void main() {}")
	writeFile(t, filepath.Join(root, "plug", "ai.noct"), "module")

	manifest := `<?xml version="1.0" encoding="UTF-8"?>
<ResourceDatabase version="1.1">
  <TextureDatabase directory="tex">
    <TextureEntry name="player" type="png">
      hero
    </TextureEntry>
  </TextureDatabase>
  <ShaderDatabase directory="sh">
    <ShaderEntry name="glow" type="frag" inline="false">glow</ShaderEntry>
    <ShaderEntry name="wave" stage="vert" type="glsl" inline="false">wave</ShaderEntry>
    <ShaderEntry name="tint" stage="frag" inline="true">void main() { }</ShaderEntry>
  </ShaderDatabase>
  <ColorDatabase>
    <ColorEntry name="sky" hex="#87CEEBFF"/>
    <ColorEntry name="mud" rgba="120;80;40;255"/>
  </ColorDatabase>
  <ScriptDatabase directory="plug">
    <ScriptEntry name="brain" lang="noct">ai</ScriptEntry>
  </ScriptDatabase>
</ResourceDatabase>
`
	path := filepath.Join(root, "db.xml")
	writeFile(t, path, manifest)

	p := newCountingPlatform()
	db := newTestDatabase(p)
	require.NoError(t, db.LoadFromFile(path))

	tex, ok := db.TextureResource("player")
	require.True(t, ok)
	assert.Equal(t, filepath.Join(root, "tex", "hero.png"), tex.Path)

	glow, ok := db.ShaderResource("glow")
	require.True(t, ok)
	assert.Equal(t, Fragment, glow.Stage)
	assert.Equal(t, filepath.Join(root, "sh", "glow.frag"), glow.Path)

	wave, _ := db.ShaderResource("wave")
	assert.Equal(t, Vertex, wave.Stage)
	assert.Equal(t, filepath.Join(root, "sh", "wave.glsl"), wave.Path)

	tint, _ := db.ShaderResource("tint")
	assert.True(t, tint.Inline)

	sky, _ := db.FindColor("sky")
	assert.Equal(t, RGBA(0x87, 0xCE, 0xEB, 0xFF), sky)
	mud, _ := db.FindColor("mud")
	assert.Equal(t, RGBA(120, 80, 40, 255), mud)

	brain, ok := db.FindPlugin("brain")
	require.True(t, ok)
	assert.Equal(t, filepath.Join(root, "plug", "ai.noct"), brain.Path())
	assert.Equal(t, filepath.Join(root, "plug"), db.Directories().Plugin)
}

func TestManifest_VersionGate(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "db.xml")
	writeFile(t, path, `<ResourceDatabase version="1.0"><ColorDatabase><ColorEntry name="x" hex="#FFFFFFFF"/></ColorDatabase></ResourceDatabase>`)

	db := NewDatabase()
	db.AddColor("keep", 7)

	err := db.LoadFromFile(path)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrManifestVersion)
	assert.Equal(t, []string{"keep"}, db.ListColors())
}

func TestManifest_VersionIsComparedAsString(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db.xml")
	writeFile(t, path, `<ResourceDatabase version="1.10"></ResourceDatabase>`)
	assert.ErrorIs(t, NewDatabase().LoadFromFile(path), ErrManifestVersion)
}

func TestManifest_ParseErrors(t *testing.T) {
	root := t.TempDir()
	garbage := filepath.Join(root, "db.xml")
	writeFile(t, garbage, "<ResourceDatabase version=")
	wrongRoot := filepath.Join(root, "other.xml")
	writeFile(t, wrongRoot, `<Other version="1.1"/>`)
	unknownKey := filepath.Join(root, "db.yaml")
	writeFile(t, unknownKey, "version: \"1.1\"\nbogus: true\n")

	db := NewDatabase()
	for _, p := range []string{garbage, wrongRoot, unknownKey, filepath.Join(root, "missing.xml")} {
		assert.ErrorIs(t, db.LoadFromFile(p), ErrManifestParse, p)
	}
}

func TestManifest_UnsupportedPluginLang(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "ai.noct"), "module")
	path := filepath.Join(root, "db.xml")
	writeFile(t, path, `<ResourceDatabase version="1.1">
  <ScriptDatabase><ScriptEntry name="ok" lang="noct">ai</ScriptEntry><ScriptEntry name="py" lang="python">ai</ScriptEntry></ScriptDatabase>
</ResourceDatabase>`)

	p := newCountingPlatform()
	db := newTestDatabase(p)
	err := db.LoadFromFile(path)
	assert.ErrorIs(t, err, ErrUnsupportedPluginFormat)
	assert.Contains(t, err.Error(), "'python' scripting has not been implemented")

	opens, _, _ := p.counts()
	assert.Zero(t, opens, "format is rejected before anything is opened")
}

func TestManifest_FailedLoadLeavesDatabaseUntouched(t *testing.T) {
	root := t.TempDir()
	writePNG(t, filepath.Join(root, "hero.png"), 2, 2)
	writeFile(t, filepath.Join(root, "ai.noct"), "module")
	path := filepath.Join(root, "db.xml")
	writeFile(t, path, `<ResourceDatabase version="1.1">
  <TextureDatabase><TextureEntry name="hero" type="png">hero</TextureEntry></TextureDatabase>
  <ColorDatabase><ColorEntry name="new" hex="#000000FF"/></ColorDatabase>
  <ScriptDatabase>
    <ScriptEntry name="ai" lang="noct">ai</ScriptEntry>
    <ScriptEntry name="gone" lang="noct">gone</ScriptEntry>
  </ScriptDatabase>
</ResourceDatabase>`)

	p := newCountingPlatform()
	db := newTestDatabase(p)
	db.AddColor("old", 1)
	texDir := mkdir(t, root, "keep")
	require.NoError(t, db.SetTextureDirectory(texDir))

	err := db.LoadFromFile(path)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPluginOpen)

	assert.Equal(t, []string{"old"}, db.ListColors())
	assert.Empty(t, db.ListTextures())
	assert.Empty(t, db.ListPlugins())
	assert.Equal(t, texDir, db.Directories().Texture)

	opens, closes, live := p.counts()
	assert.Equal(t, 1, opens)
	assert.Equal(t, 1, closes, "modules opened while staging are closed")
	assert.Zero(t, live)
}

func TestManifest_DecodeFailureAborts(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "bad.png"), "nope")
	path := filepath.Join(root, "db.yaml")
	writeFile(t, path, `version: "1.1"
textures:
  entries:
    - {name: bad, type: png, stem: bad}
colors:
  entries:
    - {name: late, rgba: "1;2;3;4"}
`)
	db := NewDatabase()
	err := db.LoadFromFile(path)
	assert.ErrorIs(t, err, ErrDecode)
	assert.Zero(t, db.Stats().Total())
}

func TestManifest_LoadMergesIntoExistingEntries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db.xml")
	writeFile(t, path, `<ResourceDatabase version="1.1"><ColorDatabase><ColorEntry name="sky" rgba="0;0;255;255"/></ColorDatabase></ResourceDatabase>`)

	db := NewDatabase()
	db.AddColor("sky", 1)
	db.AddColor("keep", 2)
	require.NoError(t, db.LoadFromFile(path))

	sky, _ := db.FindColor("sky")
	assert.Equal(t, RGBA(0, 0, 255, 255), sky)
	assert.Equal(t, []string{"keep", "sky"}, db.ListColors())
}

func TestSaveToFile_UnwritableDestination(t *testing.T) {
	db := NewDatabase()
	err := db.SaveToFile(filepath.Join(t.TempDir(), "missing", "db.xml"))
	assert.Error(t, err)
}

func TestSaveToFile_XMLShape(t *testing.T) {
	root := t.TempDir()
	db := NewDatabase()
	db.AddColor("sky", RGBA(0x87, 0xCE, 0xEB, 0xFF))
	path := filepath.Join(root, "db.xml")
	require.NoError(t, db.SaveToFile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	out := string(data)
	assert.Contains(t, out, `<ResourceDatabase version="1.1">`)
	assert.Contains(t, out, `<ColorEntry name="sky" hex="#87CEEBFF"></ColorEntry>`)
	assert.NotContains(t, out, "TextureDatabase")
}

func TestCodecFor(t *testing.T) {
	assert.IsType(t, YAMLCodec{}, CodecFor("a.yaml"))
	assert.IsType(t, YAMLCodec{}, CodecFor("a.YML"))
	assert.IsType(t, XMLCodec{}, CodecFor("a.xml"))
	assert.IsType(t, XMLCodec{}, CodecFor("a"))
}

func TestManifest_Resolve(t *testing.T) {
	m := &Manifest{
		Version:  ManifestVersion,
		Textures: &TextureSection{Directory: "tex", Entries: []FileEntry{{Name: "hero", Type: "png", Stem: "hero"}}},
		Shaders: &ShaderSection{Entries: []ShaderEntry{
			{Name: "glow", Stage: "frag", Body: "fx/glow"},
			{Name: "flat", Stage: "vert", Inline: true, Body: "void main() {}"},
		}},
		Colors:  &ColorSection{Entries: []ColorEntry{{Name: "sky", RGBA: "1;2;3;4"}}},
		Scripts: &ScriptSection{Directory: "/opt/plug", Entries: []ScriptEntry{{Name: "ai", Lang: "noct", Stem: "brain"}}},
	}
	require.NoError(t, m.Validate())

	base := filepath.FromSlash("/game")
	refs := m.Resolve(base)
	require.Len(t, refs, 5)
	assert.Equal(t, EntryRef{Category: "texture", Name: "hero", Path: filepath.Join(base, "tex", "hero.png")}, refs[0])
	assert.Equal(t, filepath.Join(base, "fx", "glow.frag"), refs[1].Path)
	assert.Equal(t, "inline vert", refs[2].Value)
	assert.Empty(t, refs[2].Path)
	assert.Equal(t, "1;2;3;4", refs[3].Value)
	assert.Equal(t, filepath.Join(filepath.FromSlash("/opt/plug"), "brain.noct"), refs[4].Path)

	m.Version = "2.0"
	assert.ErrorIs(t, m.Validate(), ErrManifestVersion)
}

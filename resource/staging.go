package resource

import (
	"strings"

	"github.com/noctsys/noct/native"
)

// staging collects the decoded entries of one manifest load before any of
// them becomes visible.
type staging struct {
	dirs     Directories
	textures map[string]Resource[*Image]
	fonts    map[string]Resource[*RawFile]
	sounds   map[string]Resource[*RawFile]
	shaders  map[string]ShaderResource
	colors   map[string]Color
	plugins  map[string]*native.Module
}

func newStaging(dirs Directories) *staging {
	return &staging{
		dirs:     dirs,
		textures: map[string]Resource[*Image]{},
		fonts:    map[string]Resource[*RawFile]{},
		sounds:   map[string]Resource[*RawFile]{},
		shaders:  map[string]ShaderResource{},
		colors:   map[string]Color{},
		plugins:  map[string]*native.Module{},
	}
}

func (s *staging) count() int {
	return len(s.textures) + len(s.fonts) + len(s.sounds) + len(s.shaders) + len(s.colors) + len(s.plugins)
}

// discard closes the modules opened while staging.
func (s *staging) discard() {
	for _, m := range s.plugins {
		_ = m.Close()
	}
	s.plugins = nil
}

func entryName(name, stem string) string {
	if name != "" {
		return name
	}
	return defaultName(strings.TrimSpace(stem), nil)
}

func stageFiles[T any](dst map[string]Resource[T], dec Decoder[T], category, base, dir string, entries []FileEntry) error {
	for _, e := range entries {
		path := entryPath(base, dir, e.Stem, e.Type)
		name := entryName(e.Name, e.Stem)
		data, err := dec.Decode(path)
		observeLoad(category, err)
		if err != nil {
			return &Error{Kind: KindDecodeFailure, Category: category, Path: path, Name: name, Err: err}
		}
		dst[name] = Resource[T]{Path: path, Data: data}
	}
	return nil
}

// stage decodes every entry of m. The first failure aborts.
func (d *Database) stage(st *staging, m *Manifest, base string) error {
	if s := m.Textures; s != nil {
		dir := pickDir(&st.dirs.Texture, base, s.Directory)
		if err := stageFiles(st.textures, d.textureDecoder, categoryTexture, base, dir, s.Entries); err != nil {
			return err
		}
	}
	if s := m.Fonts; s != nil {
		dir := pickDir(&st.dirs.Font, base, s.Directory)
		if err := stageFiles(st.fonts, d.fontDecoder, categoryFont, base, dir, s.Entries); err != nil {
			return err
		}
	}
	if s := m.Sounds; s != nil {
		dir := pickDir(&st.dirs.Sound, base, s.Directory)
		if err := stageFiles(st.sounds, d.soundDecoder, categorySound, base, dir, s.Entries); err != nil {
			return err
		}
	}
	if s := m.Shaders; s != nil {
		dir := pickDir(&st.dirs.Shader, base, s.Directory)
		for _, e := range s.Entries {
			if err := d.stageShader(st, base, dir, e); err != nil {
				return err
			}
		}
	}
	if s := m.Colors; s != nil {
		for _, e := range s.Entries {
			c, err := e.Color()
			observeLoad(categoryColor, err)
			if err != nil {
				return &Error{Kind: KindDecodeFailure, Category: categoryColor, Name: e.Name, Err: err}
			}
			st.colors[e.Name] = c
		}
	}
	if s := m.Scripts; s != nil {
		dir := pickDir(&st.dirs.Plugin, base, s.Directory)
		for _, e := range s.Entries {
			path := entryPath(base, dir, e.Stem, native.Extension)
			name := entryName(e.Name, e.Stem)
			mod, err := d.openPlugin(path, name)
			if err != nil {
				return err
			}
			if prev, ok := st.plugins[name]; ok {
				_ = prev.Close()
			}
			st.plugins[name] = mod
		}
	}
	return nil
}

// pickDir resolves a section directory and records it in dst when set.
// The returned directory roots the section's relative stems.
func pickDir(dst *string, base, dir string) string {
	resolved := sectionDir(base, dir)
	if resolved != "" {
		*dst = resolved
	}
	return resolved
}

func (d *Database) stageShader(st *staging, base, dir string, e ShaderEntry) error {
	stage, ext, err := e.stage()
	if err != nil {
		return &Error{Kind: KindManifestParse, Category: categoryShader, Name: e.Name, Err: err}
	}
	var (
		r    ShaderResource
		prog *Program
	)
	if e.Inline {
		prog, err = d.shaderCompiler.CompileSource(e.Body, stage)
		r = ShaderResource{Inline: true, Stage: stage, Code: e.Body}
	} else {
		path := entryPath(base, dir, e.Body, ext)
		prog, err = d.shaderCompiler.CompileFile(path, stage)
		r = ShaderResource{Stage: stage, Path: path}
	}
	observeLoad(categoryShader, err)
	if err != nil {
		return &Error{Kind: KindDecodeFailure, Category: categoryShader, Path: r.Path, Name: e.Name, Err: err}
	}
	r.Data = prog
	st.shaders[entryName(e.Name, e.Body)] = r
	return nil
}

// commit publishes a fully staged load. Callers hold the lock.
func (d *Database) commit(st *staging) {
	d.dirs = st.dirs
	for name, r := range st.textures {
		d.textures.set(name, r)
	}
	for name, r := range st.fonts {
		d.fonts.set(name, r)
	}
	for name, r := range st.sounds {
		d.sounds.set(name, r)
	}
	for name, r := range st.shaders {
		d.shaders.set(name, r)
	}
	for name, c := range st.colors {
		d.colors.set(name, c)
	}
	for name, m := range st.plugins {
		d.installPlugin(name, m)
	}
}

// manifest renders the database for a manifest stored in base. Callers
// hold the lock.
func (d *Database) manifest(base string) *Manifest {
	m := &Manifest{Version: ManifestVersion}

	if d.textures.len() > 0 || d.dirs.Texture != "" {
		m.Textures = &TextureSection{
			Directory: relativeDir(base, d.dirs.Texture),
			Entries:   fileEntries(d.textures, d.dirs.Texture),
		}
	}
	if d.fonts.len() > 0 || d.dirs.Font != "" {
		m.Fonts = &FontSection{
			Directory: relativeDir(base, d.dirs.Font),
			Entries:   fileEntries(d.fonts, d.dirs.Font),
		}
	}
	if d.sounds.len() > 0 || d.dirs.Sound != "" {
		m.Sounds = &SoundSection{
			Directory: relativeDir(base, d.dirs.Sound),
			Entries:   fileEntries(d.sounds, d.dirs.Sound),
		}
	}
	if d.shaders.len() > 0 || d.dirs.Shader != "" {
		s := &ShaderSection{Directory: relativeDir(base, d.dirs.Shader)}
		for _, name := range d.shaders.names() {
			r, _ := d.shaders.get(name)
			e := ShaderEntry{Name: name, Stage: r.Stage.String(), Inline: r.Inline}
			if r.Inline {
				e.Body = r.Code
			} else {
				stem, ext := splitStem(d.dirs.Shader, r.Path)
				e.Body, e.Type = stem, &ext
			}
			s.Entries = append(s.Entries, e)
		}
		m.Shaders = s
	}
	if d.colors.len() > 0 {
		s := &ColorSection{}
		for _, name := range d.colors.names() {
			c, _ := d.colors.get(name)
			s.Entries = append(s.Entries, ColorEntry{Name: name, Hex: c.Hex()})
		}
		m.Colors = s
	}
	if d.plugins.len() > 0 || d.dirs.Plugin != "" {
		s := &ScriptSection{Directory: relativeDir(base, d.dirs.Plugin)}
		for _, name := range d.plugins.names() {
			mod, _ := d.plugins.get(name)
			stem, _ := splitStem(d.dirs.Plugin, mod.Path())
			s.Entries = append(s.Entries, ScriptEntry{Name: name, Lang: native.Lang, Stem: stem})
		}
		m.Scripts = s
	}
	return m
}

func fileEntries[T any](c *cache[Resource[T]], dir string) []FileEntry {
	var out []FileEntry
	for _, name := range c.names() {
		r, _ := c.get(name)
		stem, ext := splitStem(dir, r.Path)
		out = append(out, FileEntry{Name: name, Type: ext, Stem: stem})
	}
	return out
}

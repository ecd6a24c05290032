package resource

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/noctsys/noct/native"
	"gopkg.in/yaml.v3"
)

// ManifestVersion is the only manifest version accepted by LoadFromFile.
// It is compared as a string.
const ManifestVersion = "1.1"

// Manifest is the persisted form of a Database.
type Manifest struct {
	XMLName  xml.Name        `xml:"ResourceDatabase" yaml:"-"`
	Version  string          `xml:"version,attr" yaml:"version"`
	Textures *TextureSection `xml:"TextureDatabase,omitempty" yaml:"textures,omitempty"`
	Fonts    *FontSection    `xml:"FontDatabase,omitempty" yaml:"fonts,omitempty"`
	Sounds   *SoundSection   `xml:"SoundDatabase,omitempty" yaml:"sounds,omitempty"`
	Shaders  *ShaderSection  `xml:"ShaderDatabase,omitempty" yaml:"shaders,omitempty"`
	Colors   *ColorSection   `xml:"ColorDatabase,omitempty" yaml:"colors,omitempty"`
	Scripts  *ScriptSection  `xml:"ScriptDatabase,omitempty" yaml:"scripts,omitempty"`
}

// FileEntry names a file by stem and extension.
type FileEntry struct {
	Name string `xml:"name,attr" yaml:"name"`
	Type string `xml:"type,attr" yaml:"type"`
	Stem string `xml:",chardata" yaml:"stem"`
}

type TextureSection struct {
	Directory string      `xml:"directory,attr,omitempty" yaml:"directory,omitempty"`
	Entries   []FileEntry `xml:"TextureEntry" yaml:"entries"`
}

type FontSection struct {
	Directory string      `xml:"directory,attr,omitempty" yaml:"directory,omitempty"`
	Entries   []FileEntry `xml:"FontEntry" yaml:"entries"`
}

type SoundSection struct {
	Directory string      `xml:"directory,attr,omitempty" yaml:"directory,omitempty"`
	Entries   []FileEntry `xml:"SoundEntry" yaml:"entries"`
}

// ShaderEntry is inline source or a file stem. Type is the file extension:
// absent means the stage name and an empty value means no extension.
type ShaderEntry struct {
	Name   string  `xml:"name,attr" yaml:"name"`
	Stage  string  `xml:"stage,attr,omitempty" yaml:"stage,omitempty"`
	Inline bool    `xml:"inline,attr" yaml:"inline"`
	Type   *string `xml:"type,attr,omitempty" yaml:"type,omitempty"`
	Body   string  `xml:",chardata" yaml:"body"`
}

type ShaderSection struct {
	Directory string        `xml:"directory,attr,omitempty" yaml:"directory,omitempty"`
	Entries   []ShaderEntry `xml:"ShaderEntry" yaml:"entries"`
}

// ColorEntry carries either Hex (#RRGGBBAA) or RGBA ("r;g;b;a").
type ColorEntry struct {
	Name string `xml:"name,attr" yaml:"name"`
	Hex  string `xml:"hex,attr,omitempty" yaml:"hex,omitempty"`
	RGBA string `xml:"rgba,attr,omitempty" yaml:"rgba,omitempty"`
}

type ColorSection struct {
	Entries []ColorEntry `xml:"ColorEntry" yaml:"entries"`
}

// ScriptEntry is a native plugin. Lang must equal native.Lang.
type ScriptEntry struct {
	Name string `xml:"name,attr" yaml:"name"`
	Lang string `xml:"lang,attr" yaml:"lang"`
	Stem string `xml:",chardata" yaml:"stem"`
}

type ScriptSection struct {
	Directory string        `xml:"directory,attr,omitempty" yaml:"directory,omitempty"`
	Entries   []ScriptEntry `xml:"ScriptEntry" yaml:"entries"`
}

// stage resolves the shader stage and file extension. Manifests that put
// the stage in the type attribute are accepted and use it as extension.
func (e ShaderEntry) stage() (ShaderStage, string, error) {
	if e.Stage == "" {
		var legacy string
		if e.Type != nil {
			legacy = *e.Type
		}
		st, err := ParseShaderStage(legacy)
		if err != nil {
			return 0, "", err
		}
		return st, st.String(), nil
	}
	st, err := ParseShaderStage(e.Stage)
	if err != nil {
		return 0, "", err
	}
	if e.Type == nil {
		return st, st.String(), nil
	}
	return st, *e.Type, nil
}

// Color parses the entry value.
func (e ColorEntry) Color() (Color, error) {
	switch {
	case e.Hex != "":
		return ParseHex(e.Hex)
	case e.RGBA != "":
		return ParseRGBA(e.RGBA)
	default:
		return 0, fmt.Errorf("color '%s' has neither hex nor rgba", e.Name)
	}
}

// validate performs every check that can reject a manifest before any
// file is decoded.
func (m *Manifest) validate(path string) error {
	if m.Version != ManifestVersion {
		return &Error{
			Kind: KindManifestVersion,
			Path: path,
			Err:  fmt.Errorf("invalid ResourceDatabase version %q, want %q", m.Version, ManifestVersion),
		}
	}
	if m.Shaders != nil {
		for _, e := range m.Shaders.Entries {
			if _, _, err := e.stage(); err != nil {
				return &Error{Kind: KindManifestParse, Category: categoryShader, Path: path, Name: e.Name, Err: err}
			}
		}
	}
	if m.Scripts != nil {
		for _, e := range m.Scripts.Entries {
			if e.Lang != native.Lang {
				return &Error{
					Kind:     KindUnsupportedPluginFormat,
					Category: categoryPlugin,
					Path:     path,
					Name:     e.Name,
					Err:      fmt.Errorf("'%s' scripting has not been implemented", e.Lang),
				}
			}
		}
	}
	return nil
}

// Codec reads and writes manifests in one file format.
type Codec interface {
	Decode(r io.Reader) (*Manifest, error)
	Encode(w io.Writer, m *Manifest) error
}

// XMLCodec is the default manifest format.
type XMLCodec struct{}

// Decode implements Codec.
func (XMLCodec) Decode(r io.Reader) (*Manifest, error) {
	var m Manifest
	if err := xml.NewDecoder(r).Decode(&m); err != nil {
		return nil, err
	}
	return &m, nil
}

// Encode implements Codec.
func (XMLCodec) Encode(w io.Writer, m *Manifest) error {
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(m); err != nil {
		return err
	}
	_, err := io.WriteString(w, "\n")
	return err
}

// YAMLCodec stores manifests as YAML.
type YAMLCodec struct{}

// Decode implements Codec.
func (YAMLCodec) Decode(r io.Reader) (*Manifest, error) {
	var m Manifest
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&m); err != nil {
		return nil, err
	}
	return &m, nil
}

// Encode implements Codec.
func (YAMLCodec) Encode(w io.Writer, m *Manifest) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(m); err != nil {
		return err
	}
	return enc.Close()
}

// CodecFor picks the codec by file extension: YAML for .yaml and .yml,
// XML otherwise.
func CodecFor(path string) Codec {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return YAMLCodec{}
	default:
		return XMLCodec{}
	}
}

// ReadManifest parses the manifest at path without validating it.
func ReadManifest(path string) (*Manifest, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &Error{Kind: KindManifestParse, Path: path, Err: err}
	}
	defer f.Close()
	m, err := CodecFor(path).Decode(f)
	if err != nil {
		return nil, &Error{Kind: KindManifestParse, Path: path, Err: err}
	}
	return m, nil
}

// WriteManifest writes m to path, replacing any existing file.
func WriteManifest(path string, m *Manifest) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("resource: open manifest for writing: %w", err)
	}
	if err := CodecFor(path).Encode(f, m); err != nil {
		_ = f.Close()
		return fmt.Errorf("resource: write manifest %s: %w", path, err)
	}
	return f.Close()
}

// sectionDir resolves a section directory against the manifest location.
func sectionDir(base, dir string) string {
	dir = filepath.FromSlash(strings.TrimSpace(dir))
	if dir == "" {
		return ""
	}
	if filepath.IsAbs(dir) || base == "" {
		return filepath.Clean(dir)
	}
	return filepath.Join(base, dir)
}

// entryPath joins a section directory, a stem and an extension. Absolute
// stems ignore the directory; an empty directory means the manifest
// location.
func entryPath(base, dir, stem, ext string) string {
	p := filepath.FromSlash(strings.TrimSpace(stem))
	if !filepath.IsAbs(p) {
		root := dir
		if root == "" {
			root = base
		}
		p = filepath.Join(root, p)
	}
	if ext = strings.TrimPrefix(strings.TrimSpace(ext), "."); ext != "" {
		p += "." + ext
	}
	return p
}

// within returns p relative to dir when p lies under dir.
func within(dir, p string) (string, bool) {
	if dir == "" {
		return "", false
	}
	rel, err := filepath.Rel(dir, p)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return rel, true
}

// relativeDir renders a directory for a manifest stored in base.
func relativeDir(base, dir string) string {
	if dir == "" {
		return ""
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return filepath.ToSlash(dir)
	}
	if rel, ok := within(base, abs); ok {
		return filepath.ToSlash(rel)
	}
	return filepath.ToSlash(abs)
}

// splitStem turns a resource path into a manifest stem and extension.
// Stems are relative to dir when the file lies under it and absolute
// otherwise.
func splitStem(dir, path string) (stem, ext string) {
	ext = filepath.Ext(path)
	stem = strings.TrimSuffix(path, ext)
	if abs, err := filepath.Abs(stem); err == nil {
		stem = abs
	}
	if dir != "" {
		if absDir, err := filepath.Abs(dir); err == nil {
			if rel, ok := within(absDir, stem); ok {
				stem = rel
			}
		}
	}
	return filepath.ToSlash(stem), strings.TrimPrefix(ext, ".")
}

func defaultName(path string, name []string) string {
	if len(name) > 0 && name[0] != "" {
		return name[0]
	}
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// EntryRef is one manifest entry with its path resolved.
type EntryRef struct {
	Category string
	Name     string
	// Path is empty for colors and inline shaders.
	Path  string
	Value string
}

// Resolve lists every entry of m in section order with paths resolved as
// LoadFromFile would for a manifest stored in base.
func (m *Manifest) Resolve(base string) []EntryRef {
	var out []EntryRef
	files := func(category, dir string, entries []FileEntry) {
		dir = sectionDir(base, dir)
		for _, e := range entries {
			out = append(out, EntryRef{Category: category, Name: entryName(e.Name, e.Stem), Path: entryPath(base, dir, e.Stem, e.Type)})
		}
	}
	if s := m.Textures; s != nil {
		files(categoryTexture, s.Directory, s.Entries)
	}
	if s := m.Fonts; s != nil {
		files(categoryFont, s.Directory, s.Entries)
	}
	if s := m.Sounds; s != nil {
		files(categorySound, s.Directory, s.Entries)
	}
	if s := m.Shaders; s != nil {
		dir := sectionDir(base, s.Directory)
		for _, e := range s.Entries {
			ref := EntryRef{Category: categoryShader, Name: entryName(e.Name, e.Body)}
			stage, ext, err := e.stage()
			switch {
			case err != nil:
				ref.Value = err.Error()
			case e.Inline:
				ref.Value = "inline " + stage.String()
			default:
				ref.Path = entryPath(base, dir, e.Body, ext)
				ref.Value = stage.String()
			}
			out = append(out, ref)
		}
	}
	if s := m.Colors; s != nil {
		for _, e := range s.Entries {
			v := e.Hex
			if v == "" {
				v = e.RGBA
			}
			out = append(out, EntryRef{Category: categoryColor, Name: e.Name, Value: v})
		}
	}
	if s := m.Scripts; s != nil {
		dir := sectionDir(base, s.Directory)
		for _, e := range s.Entries {
			out = append(out, EntryRef{
				Category: categoryPlugin,
				Name:     entryName(e.Name, e.Stem),
				Path:     entryPath(base, dir, e.Stem, native.Extension),
				Value:    e.Lang,
			})
		}
	}
	return out
}

// Validate reports whether m could be loaded without touching any file:
// the version matches, every shader stage parses and every plugin uses the
// native format.
func (m *Manifest) Validate() error { return m.validate("") }

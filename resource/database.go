// Package resource implements the resource database: six named caches
// (textures, fonts, sounds, shaders, colors and native plugins) behind one
// lock, persisted to and restored from a versioned manifest.
package resource

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	"github.com/noctsys/noct/log"
	"github.com/noctsys/noct/native"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("github.com/noctsys/noct/resource")

// Directories holds the per-category roots used for manifest relative loads.
type Directories struct {
	Texture string `json:"texture" yaml:"texture"`
	Font    string `json:"font" yaml:"font"`
	Sound   string `json:"sound" yaml:"sound"`
	Shader  string `json:"shader" yaml:"shader"`
	Plugin  string `json:"plugin" yaml:"plugin"`
}

// Stats holds entry counts per category.
type Stats struct {
	Textures int
	Fonts    int
	Sounds   int
	Shaders  int
	Colors   int
	Plugins  int
}

// Total returns the number of entries across all categories.
func (s Stats) Total() int {
	return s.Textures + s.Fonts + s.Sounds + s.Shaders + s.Colors + s.Plugins
}

// Database is safe for concurrent use. Every operation holds one
// database-wide lock for its whole duration, decoding included.
type Database struct {
	mu   sync.Mutex
	id   string
	dirs Directories

	textures *cache[Resource[*Image]]
	fonts    *cache[Resource[*RawFile]]
	sounds   *cache[Resource[*RawFile]]
	shaders  *cache[ShaderResource]
	colors   *cache[Color]
	plugins  *cache[*native.Module]

	textureDecoder Decoder[*Image]
	fontDecoder    Decoder[*RawFile]
	soundDecoder   Decoder[*RawFile]
	shaderCompiler ShaderCompiler
	pluginOpts     []native.Option
}

// Option configures a Database.
type Option func(*Database)

// WithTextureDecoder replaces the default ImageDecoder.
func WithTextureDecoder(d Decoder[*Image]) Option {
	return func(db *Database) { db.textureDecoder = d }
}

// WithFontDecoder replaces the default FileDecoder for fonts.
func WithFontDecoder(d Decoder[*RawFile]) Option {
	return func(db *Database) { db.fontDecoder = d }
}

// WithSoundDecoder replaces the default FileDecoder for sounds.
func WithSoundDecoder(d Decoder[*RawFile]) Option {
	return func(db *Database) { db.soundDecoder = d }
}

// WithShaderCompiler replaces the default SourceCompiler.
func WithShaderCompiler(c ShaderCompiler) Option {
	return func(db *Database) { db.shaderCompiler = c }
}

// WithPluginOptions is passed to every native module the database opens.
func WithPluginOptions(opts ...native.Option) Option {
	return func(db *Database) { db.pluginOpts = append(db.pluginOpts, opts...) }
}

// NewDatabase returns an empty database.
func NewDatabase(opts ...Option) *Database {
	d := &Database{
		id:             uuid.NewString(),
		textures:       newCache[Resource[*Image]](categoryTexture),
		fonts:          newCache[Resource[*RawFile]](categoryFont),
		sounds:         newCache[Resource[*RawFile]](categorySound),
		shaders:        newCache[ShaderResource](categoryShader),
		colors:         newCache[Color](categoryColor),
		plugins:        newCache[*native.Module](categoryPlugin),
		textureDecoder: ImageDecoder{},
		fontDecoder:    FileDecoder{},
		soundDecoder:   FileDecoder{},
		shaderCompiler: SourceCompiler{},
	}
	for _, o := range opts {
		o(d)
	}
	return d
}

// ID identifies this database instance in logs.
func (d *Database) ID() string { return d.id }

func (d *Database) setDirectory(dst *string, category, path string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	fi, err := os.Stat(path)
	if err == nil && !fi.IsDir() {
		err = ErrNotADirectory
	}
	if err != nil {
		return &Error{Kind: KindNotADirectory, Category: category, Path: path, Err: err}
	}
	*dst = path
	return nil
}

// SetTextureDirectory sets the texture root. path must be an existing directory.
func (d *Database) SetTextureDirectory(path string) error {
	return d.setDirectory(&d.dirs.Texture, categoryTexture, path)
}

// SetFontDirectory sets the font root.
func (d *Database) SetFontDirectory(path string) error {
	return d.setDirectory(&d.dirs.Font, categoryFont, path)
}

// SetSoundDirectory sets the sound root.
func (d *Database) SetSoundDirectory(path string) error {
	return d.setDirectory(&d.dirs.Sound, categorySound, path)
}

// SetShaderDirectory sets the shader root.
func (d *Database) SetShaderDirectory(path string) error {
	return d.setDirectory(&d.dirs.Shader, categoryShader, path)
}

// SetPluginDirectory sets the native plugin root.
func (d *Database) SetPluginDirectory(path string) error {
	return d.setDirectory(&d.dirs.Plugin, categoryPlugin, path)
}

// Directories returns a snapshot of the category roots.
func (d *Database) Directories() Directories {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dirs
}

func loadFile[T any](d *Database, c *cache[Resource[T]], dec Decoder[T], path, name string) error {
	data, err := dec.Decode(path)
	observeLoad(c.category, err)
	if err != nil {
		log.Warnw("msg", "resource decode failed", "db", d.id, "category", c.category, "name", name, "path", path, "error", err)
		return &Error{Kind: KindDecodeFailure, Category: c.category, Path: path, Name: name, Err: err}
	}
	if c.set(name, Resource[T]{Path: path, Data: data}) {
		log.Debugw("msg", "resource overwritten", "db", d.id, "category", c.category, "name", name, "path", path)
	} else {
		log.Debugw("msg", "resource loaded", "db", d.id, "category", c.category, "name", name, "path", path)
	}
	return nil
}

// LoadTextureFromFile decodes path and binds it to name, which defaults to
// the file name without extension. On failure the cache is unchanged.
func (d *Database) LoadTextureFromFile(path string, name ...string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return loadFile(d, d.textures, d.textureDecoder, path, defaultName(path, name))
}

// LoadFontFromFile decodes a font. See LoadTextureFromFile.
func (d *Database) LoadFontFromFile(path string, name ...string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return loadFile(d, d.fonts, d.fontDecoder, path, defaultName(path, name))
}

// LoadSoundFromFile decodes a sound. See LoadTextureFromFile.
func (d *Database) LoadSoundFromFile(path string, name ...string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return loadFile(d, d.sounds, d.soundDecoder, path, defaultName(path, name))
}

// LoadShaderFromFile compiles a file backed shader.
func (d *Database) LoadShaderFromFile(path string, stage ShaderStage, name ...string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := defaultName(path, name)
	p, err := d.shaderCompiler.CompileFile(path, stage)
	return d.storeShader(n, ShaderResource{Stage: stage, Path: path, Data: p}, err)
}

// LoadShaderFromSource compiles an inline shader.
func (d *Database) LoadShaderFromSource(code string, stage ShaderStage, name string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	p, err := d.shaderCompiler.CompileSource(code, stage)
	return d.storeShader(name, ShaderResource{Inline: true, Stage: stage, Code: code, Data: p}, err)
}

func (d *Database) storeShader(name string, r ShaderResource, err error) error {
	observeLoad(categoryShader, err)
	if err != nil {
		log.Warnw("msg", "shader compile failed", "db", d.id, "name", name, "path", r.Path, "error", err)
		return &Error{Kind: KindDecodeFailure, Category: categoryShader, Path: r.Path, Name: name, Err: err}
	}
	d.shaders.set(name, r)
	return nil
}

// LoadPluginFromFile opens a native plugin module and binds it to name. A
// module already bound to name is closed before the new one replaces it.
func (d *Database) LoadPluginFromFile(path string, name ...string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := defaultName(path, name)
	m, err := d.openPlugin(path, n)
	if err != nil {
		return err
	}
	d.installPlugin(n, m)
	return nil
}

func (d *Database) openPlugin(path, name string) (*native.Module, error) {
	m := native.New(d.pluginOpts...)
	err := m.Open(path)
	observeLoad(categoryPlugin, err)
	if err != nil {
		log.Warnw("msg", "plugin open failed", "db", d.id, "name", name, "path", path, "error", m.ErrorMessage())
		return nil, &Error{Kind: KindPluginOpen, Category: categoryPlugin, Path: path, Name: name, Err: err}
	}
	return m, nil
}

func (d *Database) installPlugin(name string, m *native.Module) {
	if old, ok := d.plugins.get(name); ok && old != m {
		if err := old.Close(); err != nil {
			log.Warnw("msg", "closing replaced plugin failed", "db", d.id, "name", name, "error", err)
		}
		log.Infow("msg", "plugin hot-swapped", "db", d.id, "name", name, "old", old.Path(), "new", m.Path())
	}
	d.plugins.set(name, m)
}

// AddColor binds c to name, overwriting any previous value.
func (d *Database) AddColor(name string, c Color) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.colors.set(name, c)
}

// FindTexture returns the texture bound to name.
func (d *Database) FindTexture(name string) (*Image, bool) {
	r, ok := d.TextureResource(name)
	return r.Data, ok
}

// FindFont returns the font bound to name.
func (d *Database) FindFont(name string) (*RawFile, bool) {
	r, ok := d.FontResource(name)
	return r.Data, ok
}

// FindSound returns the sound bound to name.
func (d *Database) FindSound(name string) (*RawFile, bool) {
	r, ok := d.SoundResource(name)
	return r.Data, ok
}

// FindShader returns the shader program bound to name.
func (d *Database) FindShader(name string) (*Program, bool) {
	r, ok := d.ShaderResource(name)
	return r.Data, ok
}

// FindColor returns the color bound to name.
func (d *Database) FindColor(name string) (Color, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.colors.get(name)
}

// FindPlugin returns the native module bound to name. The module is only
// safe to use while no other goroutine reaches it through the database.
func (d *Database) FindPlugin(name string) (*native.Module, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.plugins.get(name)
}

// TextureResource returns the full texture record.
func (d *Database) TextureResource(name string) (Resource[*Image], bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.textures.get(name)
}

// FontResource returns the full font record.
func (d *Database) FontResource(name string) (Resource[*RawFile], bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.fonts.get(name)
}

// SoundResource returns the full sound record.
func (d *Database) SoundResource(name string) (Resource[*RawFile], bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.sounds.get(name)
}

// ShaderResource returns the full shader record.
func (d *Database) ShaderResource(name string) (ShaderResource, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.shaders.get(name)
}

// EraseTexture removes name and reports whether it was present. Handles
// already handed out stay valid.
func (d *Database) EraseTexture(name string) bool { return d.erase(d.textures.erase, name) }

// EraseFont removes name and reports whether it was present.
func (d *Database) EraseFont(name string) bool { return d.erase(d.fonts.erase, name) }

// EraseSound removes name and reports whether it was present.
func (d *Database) EraseSound(name string) bool { return d.erase(d.sounds.erase, name) }

// EraseShader removes name and reports whether it was present.
func (d *Database) EraseShader(name string) bool { return d.erase(d.shaders.erase, name) }

// EraseColor removes name and reports whether it was present.
func (d *Database) EraseColor(name string) bool { return d.erase(d.colors.erase, name) }

// ErasePlugin removes name and reports whether it was present. The module
// is not closed.
func (d *Database) ErasePlugin(name string) bool { return d.erase(d.plugins.erase, name) }

func (d *Database) erase(fn func(string) bool, name string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return fn(name)
}

// ListTextures returns the sorted texture names.
func (d *Database) ListTextures() []string { return d.list(d.textures.names) }

// ListFonts returns the sorted font names.
func (d *Database) ListFonts() []string { return d.list(d.fonts.names) }

// ListSounds returns the sorted sound names.
func (d *Database) ListSounds() []string { return d.list(d.sounds.names) }

// ListShaders returns the sorted shader names.
func (d *Database) ListShaders() []string { return d.list(d.shaders.names) }

// ListColors returns the sorted color names.
func (d *Database) ListColors() []string { return d.list(d.colors.names) }

// ListPlugins returns the sorted plugin names.
func (d *Database) ListPlugins() []string { return d.list(d.plugins.names) }

func (d *Database) list(fn func() []string) []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return fn()
}

// Stats returns entry counts per category.
func (d *Database) Stats() Stats {
	d.mu.Lock()
	defer d.mu.Unlock()
	return Stats{
		Textures: d.textures.len(),
		Fonts:    d.fonts.len(),
		Sounds:   d.sounds.len(),
		Shaders:  d.shaders.len(),
		Colors:   d.colors.len(),
		Plugins:  d.plugins.len(),
	}
}

// pluginNamesAt returns the names whose module was opened from path.
func (d *Database) pluginNamesAt(path string) []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []string
	for _, name := range d.plugins.names() {
		m, _ := d.plugins.get(name)
		if samePath(m.Path(), path) {
			out = append(out, name)
		}
	}
	return out
}

func samePath(a, b string) bool {
	aa, err1 := filepath.Abs(a)
	bb, err2 := filepath.Abs(b)
	if err1 != nil || err2 != nil {
		return filepath.Clean(a) == filepath.Clean(b)
	}
	return aa == bb
}

// Close drops every record. Plugin modules are not closed here; a module
// that becomes unreachable releases its handle on its own.
func (d *Database) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.reset()
	log.Debugw("msg", "resource database closed", "db", d.id)
	return nil
}

// CloseAll closes every plugin module and drops every record.
func (d *Database) CloseAll() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	var errs []error
	for _, name := range d.plugins.names() {
		m, _ := d.plugins.get(name)
		if err := m.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	d.reset()
	return errors.Join(errs...)
}

func (d *Database) reset() {
	d.textures.reset()
	d.fonts.reset()
	d.sounds.reset()
	d.shaders.reset()
	d.colors.reset()
	d.plugins.reset()
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// LoadFromFile is LoadFromFileContext with a background context.
func (d *Database) LoadFromFile(path string) error {
	return d.LoadFromFileContext(context.Background(), path)
}

// LoadFromFileContext restores the database from the manifest at path.
//
// The manifest is parsed and validated first, then every entry is decoded
// into a staging area. Any failure leaves the database untouched and closes
// the plugin modules opened for staging. On success the directories of the
// sections present in the manifest are replaced and each entry is inserted
// or overwrites the entry of the same name.
func (d *Database) LoadFromFileContext(ctx context.Context, path string) (err error) {
	_, span := tracer.Start(ctx, "resource.LoadFromFile",
		trace.WithAttributes(attribute.String("manifest.path", path), attribute.String("db.id", d.id)))
	defer func() { endSpan(span, err) }()

	m, err := ReadManifest(path)
	if err != nil {
		return err
	}
	if err = m.validate(path); err != nil {
		return err
	}
	base, err := filepath.Abs(filepath.Dir(path))
	if err != nil {
		return &Error{Kind: KindManifestParse, Path: path, Err: err}
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	st := newStaging(d.dirs)
	if err = d.stage(st, m, base); err != nil {
		st.discard()
		log.Warnw("msg", "manifest load aborted", "db", d.id, "path", path, "error", err)
		return err
	}
	d.commit(st)
	span.SetAttributes(attribute.Int("entries", st.count()))
	log.Infow("msg", "manifest loaded", "db", d.id, "path", path, "entries", st.count())
	return nil
}

// SaveToFile is SaveToFileContext with a background context.
func (d *Database) SaveToFile(path string) error {
	return d.SaveToFileContext(context.Background(), path)
}

// SaveToFileContext writes the directories and every category to path.
// The format follows the file extension.
func (d *Database) SaveToFileContext(ctx context.Context, path string) (err error) {
	_, span := tracer.Start(ctx, "resource.SaveToFile",
		trace.WithAttributes(attribute.String("manifest.path", path), attribute.String("db.id", d.id)))
	defer func() { endSpan(span, err) }()

	base, err := filepath.Abs(filepath.Dir(path))
	if err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if err = WriteManifest(path, d.manifest(base)); err != nil {
		return err
	}
	log.Infow("msg", "manifest saved", "db", d.id, "path", path)
	return nil
}

// Manifest returns the current state as a manifest whose relative paths
// are rooted at the working directory.
func (d *Database) Manifest() *Manifest {
	base, _ := os.Getwd()
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.manifest(base)
}

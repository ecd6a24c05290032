package resource

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // register GIF textures
	_ "image/jpeg" // register JPEG textures
	_ "image/png"  // register PNG textures
	"os"
	"strings"
	"unicode/utf8"
)

// Resource is a cached record. Data is a shared handle: overwriting or
// erasing the cache entry does not invalidate copies already handed out.
type Resource[T any] struct {
	Path string
	Data T
}

// Image is the texture payload.
type Image struct {
	image.Image
	Format string
	// Native optionally carries a renderer specific handle set by a custom
	// TextureDecoder.
	Native any
}

// RawFile is the default font and sound payload: the undecoded file.
type RawFile struct {
	Path string
	Data []byte
}

// Size returns the payload length in bytes.
func (f *RawFile) Size() int { return len(f.Data) }

// ShaderStage is the pipeline stage a shader targets.
type ShaderStage int

const (
	Vertex ShaderStage = iota
	Geometry
	Fragment
)

// String returns the manifest name of the stage.
func (s ShaderStage) String() string {
	switch s {
	case Vertex:
		return "vert"
	case Geometry:
		return "geom"
	case Fragment:
		return "frag"
	default:
		return fmt.Sprintf("stage(%d)", int(s))
	}
}

// ParseShaderStage parses "vert", "geom" or "frag".
func ParseShaderStage(s string) (ShaderStage, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "vert":
		return Vertex, nil
	case "geom":
		return Geometry, nil
	case "frag":
		return Fragment, nil
	default:
		return 0, fmt.Errorf("unknown shader stage %q", s)
	}
}

// Program is the shader payload.
type Program struct {
	Stage  ShaderStage
	Source string
	Native any
}

// ShaderResource is a cached shader. Inline shaders carry their source in
// Code and leave Path empty.
type ShaderResource struct {
	Inline bool
	Stage  ShaderStage
	Code   string
	Path   string
	Data   *Program
}

// Decoder turns a file into a payload.
type Decoder[T any] interface {
	Decode(path string) (T, error)
}

// DecoderFunc adapts a function to Decoder.
type DecoderFunc[T any] func(path string) (T, error)

// Decode calls f(path).
func (f DecoderFunc[T]) Decode(path string) (T, error) { return f(path) }

// ShaderCompiler builds shader programs from files or inline source.
type ShaderCompiler interface {
	CompileFile(path string, stage ShaderStage) (*Program, error)
	CompileSource(src string, stage ShaderStage) (*Program, error)
}

var errEmpty = errors.New("empty file")

// ImageDecoder decodes PNG, JPEG and GIF textures.
type ImageDecoder struct{}

// Decode implements Decoder.
func (ImageDecoder) Decode(path string) (*Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	return &Image{Image: img, Format: format}, nil
}

// FileDecoder reads the file verbatim. Empty files are rejected.
type FileDecoder struct{}

// Decode implements Decoder.
func (FileDecoder) Decode(path string) (*RawFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, errEmpty
	}
	return &RawFile{Path: path, Data: data}, nil
}

// SourceCompiler accepts non-empty UTF-8 shader source without compiling it.
type SourceCompiler struct{}

// CompileFile implements ShaderCompiler.
func (c SourceCompiler) CompileFile(path string, stage ShaderStage) (*Program, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return c.CompileSource(string(data), stage)
}

// CompileSource implements ShaderCompiler.
func (SourceCompiler) CompileSource(src string, stage ShaderStage) (*Program, error) {
	switch {
	case strings.TrimSpace(src) == "":
		return nil, errors.New("empty shader source")
	case !utf8.ValidString(src), strings.ContainsRune(src, 0):
		return nil, errors.New("shader source is not text")
	}
	if stage < Vertex || stage > Fragment {
		return nil, fmt.Errorf("invalid shader stage %d", int(stage))
	}
	return &Program{Stage: stage, Source: src}, nil
}

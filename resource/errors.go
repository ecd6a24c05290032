package resource

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors matched through errors.Is against an *Error.
var (
	// ErrNotADirectory indicates a directory setter was given a path that is
	// not an existing directory.
	ErrNotADirectory = errors.New("not a directory")

	// ErrDecode indicates a decoder rejected the content of a resource file.
	// The cache is left unchanged.
	ErrDecode = errors.New("resource decode failed")

	// ErrManifestParse indicates the manifest could not be read or parsed.
	ErrManifestParse = errors.New("manifest parse failed")

	// ErrManifestVersion indicates the manifest version differs from ManifestVersion.
	ErrManifestVersion = errors.New("manifest version mismatch")

	// ErrUnsupportedPluginFormat indicates a plugin entry names a language
	// other than the native plugin format.
	ErrUnsupportedPluginFormat = errors.New("unsupported plugin format")

	// ErrPluginOpen indicates a native plugin module could not be opened.
	ErrPluginOpen = errors.New("plugin open failed")
)

// Kind classifies an Error.
type Kind int

const (
	KindNotADirectory Kind = iota + 1
	KindDecodeFailure
	KindManifestParse
	KindManifestVersion
	KindUnsupportedPluginFormat
	KindPluginOpen
)

func (k Kind) sentinel() error {
	switch k {
	case KindNotADirectory:
		return ErrNotADirectory
	case KindDecodeFailure:
		return ErrDecode
	case KindManifestParse:
		return ErrManifestParse
	case KindManifestVersion:
		return ErrManifestVersion
	case KindUnsupportedPluginFormat:
		return ErrUnsupportedPluginFormat
	case KindPluginOpen:
		return ErrPluginOpen
	default:
		return nil
	}
}

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindNotADirectory:
		return "NotADirectory"
	case KindDecodeFailure:
		return "DecodeFailure"
	case KindManifestParse:
		return "ManifestParseError"
	case KindManifestVersion:
		return "ManifestVersionMismatch"
	case KindUnsupportedPluginFormat:
		return "UnsupportedPluginFormat"
	case KindPluginOpen:
		return "PluginOpenFailure"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Error is returned by Database operations.
type Error struct {
	Kind     Kind
	Category string
	Path     string
	Name     string
	// Err is the underlying cause, for example a decoder error or a
	// *native.LoadError.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString("resource: ")
	if s := e.Kind.sentinel(); s != nil {
		b.WriteString(s.Error())
	} else {
		b.WriteString(e.Kind.String())
	}
	if e.Category != "" {
		fmt.Fprintf(&b, " [%s]", e.Category)
	}
	if e.Name != "" {
		fmt.Fprintf(&b, " name '%s'", e.Name)
	}
	if e.Path != "" {
		fmt.Fprintf(&b, " path '%s'", e.Path)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is the sentinel of e's Kind.
func (e *Error) Is(target error) bool {
	return target != nil && target == e.Kind.sentinel()
}

package native

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidExtension is returned by Open for paths without the plugin extension.
	ErrInvalidExtension = errors.New("invalid plugin file extension")

	// ErrNotFound is returned by Open when the plugin file does not exist.
	ErrNotFound = errors.New("plugin file not found")

	// ErrOpenFailed wraps a failure reported by the platform loader.
	ErrOpenFailed = errors.New("plugin open failed")

	// ErrSymbolNotFound is returned when an exported symbol cannot be resolved.
	ErrSymbolNotFound = errors.New("plugin symbol not found")

	// ErrNotOpen is returned for lookups on a module without a handle.
	ErrNotOpen = errors.New("plugin module not open")

	// ErrUnsupportedSignature is returned by FindAs when the requested Go
	// type cannot be bound to a foreign function.
	ErrUnsupportedSignature = errors.New("unsupported plugin function signature")

	// ErrUnsupportedPlatform is returned on systems without a dynamic loader binding.
	ErrUnsupportedPlatform = errors.New("native plugins are not supported on this platform")
)

// Code classifies a loader failure independently of the operating system.
type Code int

const (
	CodeOK Code = iota
	CodeFileNotFound
	CodePathNotFound
	CodeTooManyOpenFiles
	CodeAccessDenied
	CodeInvalidHandle
	CodeOutOfMemory
	CodeInvalidParameter
	CodeSymbolNotFound
	CodeModuleNotFound
	CodeBadExeFormat
	CodeInitFailed
	CodeUnknown
)

// LoadError describes the most recent failure of a Module.
type LoadError struct {
	Code Code
	// Errno is the raw platform error number, zero where the platform only
	// reports text (dlerror).
	Errno  uint32
	Path   string
	Symbol string
	// Detail is the platform supplied text, if any.
	Detail string
	Err    error
}

// Message renders the human readable text for the failure.
func (e *LoadError) Message() string {
	var msg string
	switch e.Code {
	case CodeOK:
		msg = "OK: last operation completed successfully"
	case CodeFileNotFound:
		msg = "File Not Found: the system cannot find the file specified"
	case CodePathNotFound:
		msg = "Path Not Found: the system cannot find the path specified"
	case CodeTooManyOpenFiles:
		msg = "File Overflow: too many open handles"
	case CodeAccessDenied:
		msg = "Access Denied: access is denied"
	case CodeInvalidHandle:
		msg = "Invalid Handle: handle is invalid"
	case CodeOutOfMemory:
		msg = "Out of Memory"
	case CodeInvalidParameter:
		msg = "Invalid Parameter"
	case CodeSymbolNotFound:
		msg = fmt.Sprintf("Symbol Not Found: export name or ordinal does not exist in module: '%s'", e.Symbol)
	case CodeModuleNotFound:
		msg = "Module Not Found: the specified module could not be found"
	case CodeBadExeFormat:
		msg = "Bad Executable Format: not a valid loadable module"
	case CodeInitFailed:
		msg = "Init Failed: module initialization routine failed"
	default:
		if e.Errno == 0 {
			msg = "Unknown Error: the loader reported an unclassified failure"
		} else {
			msg = fmt.Sprintf("code %d", e.Errno)
		}
	}
	if e.Errno != 0 && e.Code != CodeUnknown {
		msg = fmt.Sprintf("code %d: %s", e.Errno, msg)
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

// Error implements error.
func (e *LoadError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("native plugin '%s': %s", e.Path, e.Message())
	}
	return "native plugin: " + e.Message()
}

// Unwrap returns the sentinel error for errors.Is.
func (e *LoadError) Unwrap() error { return e.Err }

// classifyText maps loader text such as dlerror output to a Code.
func classifyText(text string) Code {
	t := strings.ToLower(text)
	switch {
	case t == "":
		return CodeUnknown
	case strings.Contains(t, "undefined symbol"), strings.Contains(t, "symbol not found"):
		return CodeSymbolNotFound
	case strings.Contains(t, "no such file"), strings.Contains(t, "image not found"):
		return CodeFileNotFound
	case strings.Contains(t, "not a directory"):
		return CodePathNotFound
	case strings.Contains(t, "permission denied"), strings.Contains(t, "operation not permitted"):
		return CodeAccessDenied
	case strings.Contains(t, "too many open files"):
		return CodeTooManyOpenFiles
	case strings.Contains(t, "cannot allocate memory"), strings.Contains(t, "out of memory"):
		return CodeOutOfMemory
	case strings.Contains(t, "invalid elf header"), strings.Contains(t, "wrong elf class"),
		strings.Contains(t, "file too short"), strings.Contains(t, "not a mach-o"),
		strings.Contains(t, "invalid mach-o"), strings.Contains(t, "exec format"):
		return CodeBadExeFormat
	case strings.Contains(t, "cannot open shared object"):
		return CodeModuleNotFound
	case strings.Contains(t, "invalid handle"):
		return CodeInvalidHandle
	default:
		return CodeUnknown
	}
}

// toLoadError turns a platform error into a LoadError tagged with sentinel.
func toLoadError(err error, sentinel error, path, symbol string) *LoadError {
	var le *LoadError
	if errors.As(err, &le) {
		out := *le
		out.Err = sentinel
		out.Path = path
		out.Symbol = symbol
		return &out
	}
	code, errno, detail := classify(err)
	if sentinel == ErrSymbolNotFound && code == CodeUnknown {
		code = CodeSymbolNotFound
	}
	return &LoadError{Code: code, Errno: errno, Path: path, Symbol: symbol, Detail: detail, Err: sentinel}
}

//go:build windows

package native

import (
	"errors"
	"syscall"

	"golang.org/x/sys/windows"
)

type systemPlatform struct{}

func (systemPlatform) Open(path string) (Handle, error) {
	h, err := windows.LoadLibrary(path)
	if err != nil {
		return 0, err
	}
	return Handle(h), nil
}

func (systemPlatform) Close(h Handle) error {
	return windows.FreeLibrary(windows.Handle(h))
}

func (systemPlatform) Symbol(h Handle, name string) (uintptr, error) {
	return windows.GetProcAddress(windows.Handle(h), name)
}

func classify(err error) (Code, uint32, string) {
	if err == nil {
		return CodeOK, 0, ""
	}
	var errno syscall.Errno
	if !errors.As(err, &errno) {
		return classifyText(err.Error()), 0, err.Error()
	}
	switch errno {
	case 0:
		return CodeOK, 0, ""
	case windows.ERROR_FILE_NOT_FOUND:
		return CodeFileNotFound, uint32(errno), ""
	case windows.ERROR_PATH_NOT_FOUND:
		return CodePathNotFound, uint32(errno), ""
	case windows.ERROR_TOO_MANY_OPEN_FILES:
		return CodeTooManyOpenFiles, uint32(errno), ""
	case windows.ERROR_ACCESS_DENIED:
		return CodeAccessDenied, uint32(errno), ""
	case windows.ERROR_INVALID_HANDLE:
		return CodeInvalidHandle, uint32(errno), ""
	case windows.ERROR_NOT_ENOUGH_MEMORY:
		return CodeOutOfMemory, uint32(errno), ""
	case windows.ERROR_INVALID_PARAMETER:
		return CodeInvalidParameter, uint32(errno), ""
	case windows.ERROR_PROC_NOT_FOUND:
		return CodeSymbolNotFound, uint32(errno), ""
	case windows.ERROR_MOD_NOT_FOUND:
		return CodeModuleNotFound, uint32(errno), ""
	case windows.ERROR_BAD_EXE_FORMAT:
		return CodeBadExeFormat, uint32(errno), ""
	case windows.ERROR_DLL_INIT_FAILED:
		return CodeInitFailed, uint32(errno), ""
	default:
		return CodeUnknown, uint32(errno), ""
	}
}

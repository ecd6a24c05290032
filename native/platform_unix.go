//go:build darwin || freebsd || linux

package native

import (
	"errors"

	"github.com/ebitengine/purego"
)

type systemPlatform struct{}

func (systemPlatform) Open(path string) (Handle, error) {
	h, err := purego.Dlopen(path, purego.RTLD_NOW|purego.RTLD_LOCAL)
	if err != nil {
		return 0, err
	}
	return Handle(h), nil
}

func (systemPlatform) Close(h Handle) error {
	return purego.Dlclose(uintptr(h))
}

func (systemPlatform) Symbol(h Handle, name string) (uintptr, error) {
	p, err := purego.Dlsym(uintptr(h), name)
	if err != nil {
		return 0, err
	}
	if p == 0 {
		return 0, errors.New("undefined symbol: " + name)
	}
	return p, nil
}

func classify(err error) (Code, uint32, string) {
	if err == nil {
		return CodeOK, 0, ""
	}
	text := err.Error()
	return classifyText(text), 0, text
}

//go:build darwin || freebsd || linux || windows

package native

import (
	"fmt"

	"github.com/ebitengine/purego"
)

// bind is the single place where a raw symbol address becomes a callable
// Go value. fptr must point to a func variable.
func bind(fptr any, addr uintptr) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrUnsupportedSignature, r)
		}
	}()
	purego.RegisterFunc(fptr, addr)
	return nil
}

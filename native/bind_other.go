//go:build !(darwin || freebsd || linux || windows)

package native

func bind(any, uintptr) error { return ErrUnsupportedPlatform }

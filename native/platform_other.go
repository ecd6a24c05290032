//go:build !(darwin || freebsd || linux || windows)

package native

type systemPlatform struct{}

func (systemPlatform) Open(string) (Handle, error)            { return 0, ErrUnsupportedPlatform }
func (systemPlatform) Close(Handle) error                     { return ErrUnsupportedPlatform }
func (systemPlatform) Symbol(Handle, string) (uintptr, error) { return 0, ErrUnsupportedPlatform }

func classify(err error) (Code, uint32, string) {
	if err == nil {
		return CodeOK, 0, ""
	}
	return classifyText(err.Error()), 0, err.Error()
}

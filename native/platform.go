package native

// Handle is an opaque module handle issued by a Platform.
type Handle uintptr

// Platform is the operating system's dynamic loader.
type Platform interface {
	// Open loads the shared library at path.
	Open(path string) (Handle, error)
	// Close unloads a handle previously returned by Open.
	Close(h Handle) error
	// Symbol resolves an exported symbol to its address.
	Symbol(h Handle, name string) (uintptr, error)
}

// System returns the loader for the running operating system.
func System() Platform { return systemPlatform{} }

// Package noct is the runtime backbone of an interactive application: a
// resource database for loadable content and native plugins, a state stack
// of application modes, and a console fed by a lock-free log ring.
//
// # Packages
//
//   - resource: named caches for textures, fonts, sounds, shaders, colors
//     and native plugins, persisted to an XML or YAML manifest
//   - native: shared-library loading and symbol lookup
//   - state: the deferred-transition state stack
//   - log: logging facade, ring buffer and console
//   - boot: configuration loading and bootstrap
//
// # Frame driver
//
// The window and timing loop stay with the host. Once per frame it calls
// Core.Step, which applies queued state transitions, delivers input,
// advances time, drains the console and renders:
//
//	core := noct.New()
//	defer core.Close()
//
//	if err := core.Load(&TitleScreen{core: core}); err != nil {
//	    return err
//	}
//	for running {
//	    if err := core.Step(dt, pollEvents()...); err != nil {
//	        return err
//	    }
//	}
package noct

package native

import "fmt"

// FindAs resolves symbol and binds it to a Go function value of type F,
// for example FindAs[func(int32) int32](m, "plugin version").
//
// The signature is not verified against the module: calling a function
// bound with the wrong signature is undefined behaviour. Matching the
// plugin's exported C signature is the caller's obligation.
func FindAs[F any](m *Module, symbol string) (F, error) {
	var fn F
	addr, ok := m.Find(symbol)
	if !ok {
		return fn, m.LastError()
	}
	if err := bind(&fn, addr); err != nil {
		return fn, fmt.Errorf("%s: %w", symbol, err)
	}
	return fn, nil
}

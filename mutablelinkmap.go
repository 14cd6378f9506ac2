package goplt

import "github.com/xyproto/goplt/hook"

// MutableLinkMap is a LinkMapView opened specifically to hook functions
// through it. It is the same parsed view; the separate name marks call
// sites that intend to mutate the module's GOT rather than just read it.
type MutableLinkMap struct {
	*LinkMapView
}

// NewMutableLinkMap wraps an already-opened LinkMapView for hooking.
func NewMutableLinkMap(view *LinkMapView) *MutableLinkMap {
	return &MutableLinkMap{LinkMapView: view}
}

// Hook resolves symbolName's GOT slot in m and overwrites it with
// newFunction, returning a token Restore can later use to put the
// original back.
func Hook[F any](m *MutableLinkMap, symbolName string, newFunction F) (*hook.FunctionHook[F], bool, error) {
	trace("hooking %s in %s", symbolName, m.Name())
	h, ok, err := hook.Hook(m, symbolName, newFunction)
	if err != nil {
		trace("hook of %s failed: %v", symbolName, err)
	}
	return h, ok, err
}

// Restore re-resolves h's symbol in m and writes its cached original back
// into the GOT slot.
func Restore[F any](m *MutableLinkMap, h *hook.FunctionHook[F]) (F, bool, error) {
	trace("restoring %s in %s", h.SymbolName(), m.Name())
	return hook.Restore(m, h)
}

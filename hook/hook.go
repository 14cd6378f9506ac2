// Package hook composes symbol resolution and memory patching into the
// user-facing hook/restore operations: replace the GOT slot a named
// symbol resolves through, and hand back a token that can put the
// original value back later.
package hook

import (
	"fmt"
	"unsafe"

	"github.com/xyproto/goplt/internal/patch"
)

// SlotFinder is the minimal surface Hook and Restore need from a module
// view: resolve a symbol name to the address of the GOT slot it is
// dispatched through, using the strict, relocation-type-filtered search
// (R_GLOB_DAT / R_JUMP_SLOT) rather than the enumeration-style one.
type SlotFinder interface {
	FindStrict(symbolName string) (uintptr, bool, error)
}

// State records whether a FunctionHook's slot still holds the value Hook
// installed, or has since been put back by Restore.
type State int

const (
	Active State = iota
	Restored
)

// FunctionHook is the token a successful Hook call returns. It carries
// its own copy of the symbol name rather than a reference into any
// table, because Restore re-resolves the slot by name instead of
// assuming its address hasn't changed since Hook ran.
type FunctionHook[F any] struct {
	symbolName string
	cached     F
	state      State
}

func (h *FunctionHook[F]) SymbolName() string { return h.symbolName }
func (h *FunctionHook[F]) Cached() F          { return h.cached }
func (h *FunctionHook[F]) State() State       { return h.state }

// Hook resolves symbolName's GOT slot through finder, overwrites it with
// newFunction, and returns a token carrying the value it displaced. ok
// is false when the symbol has no matching GOT slot in this view.
func Hook[F any](finder SlotFinder, symbolName string, newFunction F) (*FunctionHook[F], bool, error) {
	if err := checkPointerShaped[F](); err != nil {
		return nil, false, err
	}
	slot, ok, err := finder.FindStrict(symbolName)
	if err != nil {
		return nil, false, err
	}
	if !ok {
		return nil, false, nil
	}
	previous, err := patch.Patch(slot, addressOf(newFunction))
	if err != nil {
		return nil, false, err
	}
	return &FunctionHook[F]{
		symbolName: symbolName,
		cached:     valueOf[F](previous),
		state:      Active,
	}, true, nil
}

// Restore re-resolves h's symbol by name and writes its cached original
// back into the GOT slot, returning whatever value the slot held
// immediately beforehand. A second Restore of an already-restored token
// writes the same cached value back over itself, so it is non-destructive
// and reports the slot's current contents rather than erroring.
func Restore[F any](finder SlotFinder, h *FunctionHook[F]) (F, bool, error) {
	var zero F
	slot, ok, err := finder.FindStrict(h.symbolName)
	if err != nil {
		return zero, false, err
	}
	if !ok {
		return zero, false, nil
	}
	previous, err := patch.Patch(slot, addressOf(h.cached))
	if err != nil {
		return zero, false, err
	}
	h.state = Restored
	return valueOf[F](previous), true, nil
}

func checkPointerShaped[F any]() error {
	var zero F
	if got, want := unsafe.Sizeof(zero), unsafe.Sizeof(uintptr(0)); got != want {
		return fmt.Errorf("hook: type parameter must be pointer-sized, got %d bytes, want %d", got, want)
	}
	return nil
}

func addressOf[F any](v F) uintptr {
	return *(*uintptr)(unsafe.Pointer(&v))
}

func valueOf[F any](addr uintptr) F {
	var v F
	*(*uintptr)(unsafe.Pointer(&v)) = addr
	return v
}

package hook

import (
	"testing"
	"unsafe"

	"golang.org/x/sys/unix"
)

// fakeFinder backs a single named symbol with a real mmap'd page so Hook
// and Restore exercise the real mprotect/patch path, not a mock.
type fakeFinder struct {
	name string
	slot uintptr
}

func (f fakeFinder) FindStrict(symbolName string) (uintptr, bool, error) {
	if symbolName != f.name {
		return 0, false, nil
	}
	return f.slot, true, nil
}

func mmapSlot(t *testing.T, initial uintptr) uintptr {
	t.Helper()
	pageSize := unix.Getpagesize()
	region, err := unix.Mmap(-1, 0, pageSize, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE|unix.MAP_ANONYMOUS)
	if err != nil {
		t.Fatalf("mmap: %v", err)
	}
	t.Cleanup(func() { _ = unix.Munmap(region) })

	addr := uintptr(unsafe.Pointer(&region[0]))
	*(*uintptr)(unsafe.Pointer(addr)) = initial
	return addr
}

func TestHookRestoreRoundTrip(t *testing.T) {
	const original uintptr = 0x1111
	const replacement uintptr = 0x2222

	slot := mmapSlot(t, original)
	finder := fakeFinder{name: "getpid", slot: slot}

	h, ok, err := Hook[uintptr](finder, "getpid", replacement)
	if err != nil {
		t.Fatalf("Hook: %v", err)
	}
	if !ok {
		t.Fatal("expected Hook to find the symbol")
	}
	if h.Cached() != original {
		t.Errorf("Cached() = %#x, want %#x", h.Cached(), original)
	}
	if got := *(*uintptr)(unsafe.Pointer(slot)); got != replacement {
		t.Errorf("slot after Hook = %#x, want %#x", got, replacement)
	}
	if h.State() != Active {
		t.Errorf("State() after Hook = %v, want Active", h.State())
	}

	restored, ok, err := Restore[uintptr](finder, h)
	if err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if !ok {
		t.Fatal("expected Restore to find the symbol")
	}
	if restored != replacement {
		t.Errorf("Restore returned %#x, want the displaced value %#x", restored, replacement)
	}
	if got := *(*uintptr)(unsafe.Pointer(slot)); got != original {
		t.Errorf("slot after Restore = %#x, want %#x", got, original)
	}
	if h.State() != Restored {
		t.Errorf("State() after Restore = %v, want Restored", h.State())
	}

	// A second Restore is non-destructive: it writes the same cached
	// value back over itself and reports the slot's current contents.
	again, ok, err := Restore[uintptr](finder, h)
	if err != nil {
		t.Fatalf("second Restore: %v", err)
	}
	if !ok || again != original {
		t.Errorf("second Restore = (%#x, %v), want (%#x, true)", again, ok, original)
	}
	if got := *(*uintptr)(unsafe.Pointer(slot)); got != original {
		t.Errorf("slot after second Restore = %#x, want %#x", got, original)
	}
}

func TestHookMissingSymbol(t *testing.T) {
	slot := mmapSlot(t, 0x1111)
	finder := fakeFinder{name: "getpid", slot: slot}

	h, ok, err := Hook[uintptr](finder, "puts", 0x3333)
	if err != nil {
		t.Fatalf("Hook: %v", err)
	}
	if ok || h != nil {
		t.Fatalf("expected Hook to report not-found for an unresolved symbol, got (%v, %v)", h, ok)
	}
}

func TestCheckPointerShapedRejectsOversizedType(t *testing.T) {
	type oversized struct {
		a, b uintptr
	}
	slot := mmapSlot(t, 0x1111)
	finder := fakeFinder{name: "getpid", slot: slot}

	_, _, err := Hook[oversized](finder, "getpid", oversized{})
	if err == nil {
		t.Fatal("expected Hook to reject a type parameter wider than a pointer")
	}
}

package goplt

/*
#include <unistd.h>
*/
import "C"

import (
	"testing"
	"unsafe"

	"github.com/xyproto/goplt/internal/elflayout"
)

func TestCollectModulesIncludesSelf(t *testing.T) {
	mods := CollectModules()
	if len(mods) == 0 {
		t.Fatal("CollectModules returned no modules")
	}

	self, err := Self()
	if err != nil {
		t.Fatalf("Self: %v", err)
	}
	if mods[0].Base() != self.Base() {
		t.Errorf("CollectModules()[0].Base() = %#x, want Self().Base() = %#x", mods[0].Base(), self.Base())
	}
}

func TestOpenFindsGetpid(t *testing.T) {
	self, err := Self()
	if err != nil {
		t.Fatalf("Self: %v", err)
	}

	lib, err := Open(self)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	slot, ok, err := lib.FindFunction("getpid")
	if err != nil {
		t.Fatalf("FindFunction: %v", err)
	}
	if !ok {
		t.Skip("getpid not resolved through this executable's PLT; binary may not be cgo-linked")
	}
	if slot == 0 {
		t.Error("FindFunction returned a zero slot address")
	}

	strict, ok, err := lib.FindStrict("getpid")
	if err != nil {
		t.Fatalf("FindStrict: %v", err)
	}
	if !ok {
		t.Fatal("FindStrict did not find getpid after FindFunction did")
	}
	if strict != slot {
		t.Errorf("FindStrict returned %#x, FindFunction returned %#x, want equal", strict, slot)
	}
}

func TestPatchRoundTripOnGetpidSlot(t *testing.T) {
	self, err := Self()
	if err != nil {
		t.Fatalf("Self: %v", err)
	}
	lib, err := Open(self)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	slot, ok, err := lib.FindFunction("getpid")
	if err != nil {
		t.Fatalf("FindFunction: %v", err)
	}
	if !ok {
		t.Skip("getpid not resolved through this executable's PLT")
	}

	const sentinel uintptr = 0xdeadbeef
	previous, err := Patch(slot, sentinel)
	if err != nil {
		t.Fatalf("Patch: %v", err)
	}
	if got := *(*uintptr)(unsafe.Pointer(slot)); got != sentinel {
		t.Fatalf("slot after Patch = %#x, want %#x", got, sentinel)
	}

	restored, err := Patch(slot, previous)
	if err != nil {
		t.Fatalf("Patch restore: %v", err)
	}
	if restored != sentinel {
		t.Errorf("Patch restore returned %#x, want the displaced sentinel %#x", restored, sentinel)
	}
	if got := *(*uintptr)(unsafe.Pointer(slot)); got != previous {
		t.Errorf("slot after restore = %#x, want %#x", got, previous)
	}
}

func TestFromAddressAndHookRoundTrip(t *testing.T) {
	self, err := Self()
	if err != nil {
		t.Fatalf("Self: %v", err)
	}

	// The load bias alone is 0 for a non-PIE executable, which is not an
	// address inside it; the start of its first PT_LOAD segment is.
	addr := self.Base()
	for _, ph := range self.ProgramHeaders() {
		if ph.Type == elflayout.PTLoad {
			addr += uintptr(ph.VAddr)
			break
		}
	}
	view, ok, err := FromAddress(addr)
	if err != nil {
		t.Fatalf("FromAddress: %v", err)
	}
	if !ok {
		t.Fatal("FromAddress did not locate the running executable's own link-map node")
	}

	slot, ok, err := view.FindStrict("getpid")
	if err != nil {
		t.Fatalf("FindStrict: %v", err)
	}
	if !ok {
		t.Skip("getpid not resolved through this executable's PLT")
	}
	_ = slot

	mlm := NewMutableLinkMap(view)

	before := C.getpid()

	replacement := uintptr(0x1) // never actually called; only round-trip is asserted
	h, ok, err := Hook[uintptr](mlm, "getpid", replacement)
	if err != nil {
		t.Fatalf("Hook: %v", err)
	}
	if !ok {
		t.Fatal("Hook did not find getpid")
	}

	if _, ok, err := Restore[uintptr](mlm, h); err != nil {
		t.Fatalf("Restore: %v", err)
	} else if !ok {
		t.Fatal("Restore did not find getpid")
	}

	after := C.getpid()
	if before != after {
		t.Errorf("pid changed across hook/restore: %d -> %d", before, after)
	}
}

func TestFromSharedLibraryMissingIsNotFound(t *testing.T) {
	view, ok, err := FromSharedLibrary("libgoplt-nonexistent-xyz.so\x00")
	if err != nil {
		t.Fatalf("FromSharedLibrary: %v", err)
	}
	if ok || view != nil {
		t.Fatalf("expected FromSharedLibrary to report not-found for an unloaded library, got (%v, %v)", view, ok)
	}
}

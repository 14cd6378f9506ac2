//go:build linux && !android

package linkmap

import (
	"reflect"
	"runtime"
	"testing"
)

func addressOfTestFunc() uintptr {
	return reflect.ValueOf(addressOfTestFunc).Pointer()
}

func TestLocateFromAddress(t *testing.T) {
	ref, ok := LocateFromAddress(addressOfTestFunc())
	if !ok {
		t.Fatal("expected LocateFromAddress to succeed for an address inside this binary")
	}
	if ref.DynamicArray() == 0 {
		t.Error("expected a non-nil dynamic section pointer")
	}
	runtime.KeepAlive(ref)
}

func TestLocateFromSharedLibraryMissing(t *testing.T) {
	_, ok := LocateFromSharedLibrary("libnonexistent.so\x00")
	if ok {
		t.Fatal("expected LocateFromSharedLibrary to report not-found for a library that was never loaded")
	}
}

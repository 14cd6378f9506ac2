package patch

import (
	"sync/atomic"
	"unsafe"
)

// unsafeByteSlice builds a slice view over pageSize bytes of foreign
// memory starting at addr, for unix.Mprotect's []byte signature. It
// copies nothing; mprotect only reads the slice's address and length.
func unsafeByteSlice(addr uintptr, pageSize int) []byte {
	return unsafe.Slice((*byte)(unsafe.Pointer(addr)), pageSize)
}

// swap atomically exchanges the pointer-sized word at addr with value,
// returning the word that was there before. This is a single aligned
// store: concurrent callers racing the same slot will each observe a
// consistent previous value, but nothing serializes two Patch calls
// against each other beyond that.
func swap(addr uintptr, value uintptr) uintptr {
	slot := (*uintptr)(unsafe.Pointer(addr))
	return atomic.SwapUintptr(slot, value)
}

// Package patch grants temporary write access to the page containing a
// GOT slot, overwrites the machine word there, and then sets the page to
// PROT_READ.
package patch

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// Error reports an mprotect failure from either half of Patch, with
// enough context to diagnose without source access.
type Error struct {
	Addr     uintptr
	PageSize int
	Flags    int
	Errno    unix.Errno
	phase    string
}

func (e *Error) Error() string {
	return fmt.Sprintf("patch: mprotect(%#x, %d, %#o) failed during %s: %v",
		e.Addr, e.PageSize, e.Flags, e.phase, e.Errno)
}

func (e *Error) Unwrap() error { return e.Errno }

// Patch overwrites the pointer-sized word at addr with value, returning
// the word that was there before. It is the sole point where this
// library mutates process memory:
//
//  1. align addr down to the start of its page
//  2. mprotect that page PROT_READ|PROT_WRITE
//  3. swap the word at addr
//  4. mprotect the page back to PROT_READ
//
// The word is swapped before protection is restored, so on a step-4
// failure the new value is already live; Error names the page so the
// caller can retry with a different protection scheme if it wants to.
// This library does not attempt a rollback of the first mprotect call.
func Patch(addr uintptr, value uintptr) (uintptr, error) {
	pageSize := unix.Getpagesize()
	pageAligned := (addr / uintptr(pageSize)) * uintptr(pageSize)

	page := unsafeByteSlice(pageAligned, pageSize)
	if err := unix.Mprotect(page, unix.PROT_READ|unix.PROT_WRITE); err != nil {
		return 0, &Error{
			Addr: pageAligned, PageSize: pageSize,
			Flags: unix.PROT_READ | unix.PROT_WRITE,
			Errno: err.(unix.Errno), phase: "granting write access",
		}
	}

	previous := swap(addr, value)

	if err := unix.Mprotect(page, unix.PROT_READ); err != nil {
		return previous, &Error{
			Addr: pageAligned, PageSize: pageSize,
			Flags: unix.PROT_READ,
			Errno: err.(unix.Errno), phase: "restoring read-only protection",
		}
	}

	return previous, nil
}

//go:build linux && !android

package linkmap

/*
#define _GNU_SOURCE
#include <dlfcn.h>
#include <link.h>
#include <stddef.h>
#include <stdlib.h>

static int goplt_dladdr1_linkmap(void *addr, struct link_map **out) {
	Dl_info info;
	return dladdr1(addr, &info, (void **)out, RTLD_DI_LINKMAP);
}

static int goplt_dlinfo_linkmap(void *handle, struct link_map **out) {
	return dlinfo(handle, RTLD_DI_LINKMAP, out);
}
*/
import "C"

import (
	"unsafe"

	"github.com/xyproto/goplt/internal/elflayout"
)

// LocateFromAddress finds the LinkMap node of the module containing
// address, via dladdr1(RTLD_DI_LINKMAP).
func LocateFromAddress(address uintptr) (Ref, bool) {
	var out *C.struct_link_map
	res := C.goplt_dladdr1_linkmap(unsafe.Pointer(address), &out)
	if res == 0 || out == nil {
		return Ref{}, false
	}
	return refFromCLinkMap(out), true
}

// LocateFromSharedLibrary obtains a handle to an already-loaded shared
// object via dlopen(RTLD_LAZY|RTLD_NOLOAD), reads its LinkMap via dlinfo,
// and closes the handle. It never loads a new object: a name that is not
// already resident returns false with no side effects.
func LocateFromSharedLibrary(name string) (Ref, bool) {
	cname := C.CString(name)
	defer C.free(unsafe.Pointer(cname))

	handle := C.dlopen(cname, C.RTLD_LAZY|C.RTLD_NOLOAD)
	if handle == nil {
		return Ref{}, false
	}
	defer C.dlclose(handle)

	var out *C.struct_link_map
	if C.goplt_dlinfo_linkmap(handle, &out) == -1 || out == nil {
		return Ref{}, false
	}
	return refFromCLinkMap(out), true
}

func refFromCLinkMap(out *C.struct_link_map) Ref {
	return Ref{
		raw: elflayout.LinkMap{
			Addr: uintptr(out.l_addr),
			Name: uintptr(unsafe.Pointer(out.l_name)),
			LD:   uintptr(unsafe.Pointer(out.l_ld)),
			Next: uintptr(unsafe.Pointer(out.l_next)),
			Prev: uintptr(unsafe.Pointer(out.l_prev)),
		},
		hasNext: true,
		hasPrev: true,
	}
}

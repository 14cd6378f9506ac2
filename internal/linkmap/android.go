//go:build android

package linkmap

/*
#include <link.h>
#include <stdlib.h>
#include <dlfcn.h>

extern int goplt_android_phdr_cb(struct dl_phdr_info *info, size_t size, void *data);

static int goplt_android_iterate(size_t handle) {
	return dl_iterate_phdr(goplt_android_phdr_cb, (void *)handle);
}
*/
import "C"

import (
	"runtime/cgo"
	"unsafe"

	"github.com/xyproto/goplt/internal/elflayout"
)

type androidSearch struct {
	address uintptr
	found   bool
	addr    uintptr
	dynPtr  uintptr
}

//export goplt_android_phdr_cb
func goplt_android_phdr_cb(info *C.struct_dl_phdr_info, _ C.size_t, data unsafe.Pointer) C.int {
	h := cgo.Handle(uintptr(data))
	s := h.Value().(*androidSearch)

	base := uintptr(info.dlpi_addr)
	phnum := int(info.dlpi_phnum)
	phdrBase := uintptr(unsafe.Pointer(info.dlpi_phdr))

	var dynPtr uintptr
	containsAddress := false

	for i := 0; i < phnum; i++ {
		ph := elflayout.ProgramHeaderAt(phdrBase, i, elflayout.HostWidth)
		start := base + uintptr(ph.VAddr)
		end := start + uintptr(ph.MemSz)
		if ph.Type == elflayout.PTLoad && s.address >= start && s.address < end {
			containsAddress = true
		}
		if ph.Type == elflayout.PTDynamic {
			dynPtr = start
		}
	}

	if containsAddress && dynPtr != 0 {
		s.found = true
		s.addr = base
		s.dynPtr = dynPtr
		return 1
	}
	return 0
}

// LocateFromAddress implements the Android fallback: there is no
// dladdr1 on Android, so every loaded module's PT_LOAD
// segments are scanned for one containing address, and a LinkMap node is
// synthesized locally from (dlpi_addr, &PT_DYNAMIC). The synthesized node
// has no next/previous; it exists only as an entry point into the
// dynamic section.
func LocateFromAddress(address uintptr) (Ref, bool) {
	s := &androidSearch{address: address}
	h := cgo.NewHandle(s)
	defer h.Delete()

	C.goplt_android_iterate(C.size_t(uintptr(h)))
	if !s.found {
		return Ref{}, false
	}
	return Ref{
		raw: elflayout.LinkMap{Addr: s.addr, Name: 0, LD: s.dynPtr, Next: 0, Prev: 0},
		hasNext: false,
		hasPrev: false,
	}, true
}

// LocateFromSharedLibrary still goes through dlopen(RTLD_NOLOAD)/dlinfo
// on Android; only the from-address path lacks dladdr1.
func LocateFromSharedLibrary(name string) (Ref, bool) {
	cname := C.CString(name)
	defer C.free(unsafe.Pointer(cname))

	handle := C.dlopen(cname, C.RTLD_LAZY|C.RTLD_NOLOAD)
	if handle == nil {
		return Ref{}, false
	}
	defer C.dlclose(handle)

	var out *C.struct_link_map
	if C.dlinfo(handle, C.RTLD_DI_LINKMAP, unsafe.Pointer(&out)) == -1 || out == nil {
		return Ref{}, false
	}

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
	}, true
}

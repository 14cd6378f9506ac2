//go:build android

package modules

/*
#include <link.h>
#include <stdlib.h>

extern int goAndroidPhdrCallback(struct dl_phdr_info *info, size_t size, void *data);

static int goplt_android_iterate(size_t handle) {
	return dl_iterate_phdr(goAndroidPhdrCallback, (void *)handle);
}
*/
import "C"

import (
	"runtime/cgo"
	"unsafe"

	"github.com/xyproto/goplt/internal/elflayout"
)

type collector struct {
	modules []LoadedModule
}

//export goAndroidPhdrCallback
func goAndroidPhdrCallback(info *C.struct_dl_phdr_info, _ C.size_t, data unsafe.Pointer) C.int {
	h := cgo.Handle(uintptr(data))
	c := h.Value().(*collector)

	phnum := int(info.dlpi_phnum)
	if phnum == 0 {
		return 0
	}

	name := ""
	if info.dlpi_name != nil {
		name = C.GoString(info.dlpi_name)
	}

	c.modules = append(c.modules, LoadedModule{
		BaseAddress: uintptr(info.dlpi_addr),
		Name:        name,
		phdrBase:    uintptr(unsafe.Pointer(info.dlpi_phdr)),
		phdrCount:   phnum,
		width:       elflayout.HostWidth,
	})
	return 0
}

// Enumerate produces one LoadedModule per object currently mapped into
// this process, via dl_iterate_phdr. Bionic's dl_iterate_phdr covers the
// same ground as glibc's; unlike the address and shared-library lookups
// in internal/linkmap, module enumeration needs no Android-specific
// fallback.
func Enumerate() []LoadedModule {
	c := &collector{}
	h := cgo.NewHandle(c)
	defer h.Delete()

	C.goplt_android_iterate(C.size_t(uintptr(h)))
	return c.modules
}

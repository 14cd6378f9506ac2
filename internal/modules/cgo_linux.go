//go:build linux && !android

package modules

/*
#cgo CFLAGS: -D_GNU_SOURCE
#include <link.h>
#include <stdlib.h>

extern int goPhdrCallback(struct dl_phdr_info *info, size_t size, void *data);

static int goplt_iterate(size_t handle) {
	return dl_iterate_phdr(goPhdrCallback, (void *)handle);
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

//export goPhdrCallback
func goPhdrCallback(info *C.struct_dl_phdr_info, _ C.size_t, data unsafe.Pointer) C.int {
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
// this process, via dl_iterate_phdr. Modules reporting zero program
// headers are skipped.
func Enumerate() []LoadedModule {
	c := &collector{}
	h := cgo.NewHandle(c)
	defer h.Delete()

	C.goplt_iterate(C.size_t(uintptr(h)))
	return c.modules
}

// Command hookdemo hooks a libc function resolved through the running
// executable's own PLT, calls it once through the hook to show the
// replacement took effect, then restores the original and calls it
// again to show the slot went back.
package main

/*
#include <stdio.h>
#include <stdlib.h>
#include <unistd.h>

extern int goplt_hooked_puts(char *s);
static void *goplt_hooked_puts_ptr(void) { return (void *)&goplt_hooked_puts; }

static pid_t goplt_hooked_getpid(void) { return 999; }
static void *goplt_hooked_getpid_ptr(void) { return (void *)&goplt_hooked_getpid; }
*/
import "C"

import (
	"flag"
	"fmt"
	"os"
	"unsafe"

	"github.com/xyproto/env/v2"
	"github.com/xyproto/goplt"
	"github.com/xyproto/goplt/internal/elflayout"
)

//export goplt_hooked_puts
func goplt_hooked_puts(s *C.char) C.int {
	fmt.Printf("puts was hooked. intercepted: %q\n", C.GoString(s))
	return 0
}

// replacementFor returns the C-ABI function pointer hookdemo installs for
// symbolName, and a thunk that exercises it once installed. puts is the
// default target, restored from the original puts-hooking demo; getpid
// is kept as a second, numeric-return-style target.
func replacementFor(symbolName string) (replacement uintptr, call func(), ok bool) {
	switch symbolName {
	case "puts":
		return uintptr(C.goplt_hooked_puts_ptr()), func() {
			cstr := C.CString("Hello")
			defer C.free(unsafe.Pointer(cstr))
			C.puts(cstr)
		}, true
	case "getpid":
		return uintptr(C.goplt_hooked_getpid_ptr()), func() {
			fmt.Printf("application pid is now: %d\n", C.getpid())
		}, true
	default:
		return 0, nil, false
	}
}

func main() {
	symbolFlag := flag.String("symbol", "puts", "libc symbol to hook (puts or getpid)")
	verbose := flag.Bool("verbose", false, "trace internal parsing steps to stderr")
	flag.Parse()
	goplt.Verbose = *verbose

	symbolName := env.Str("GOPLT_HOOK_SYMBOL", *symbolFlag)

	replacement, call, ok := replacementFor(symbolName)
	if !ok {
		fmt.Fprintf(os.Stderr, "no replacement available for %s; known targets are puts, getpid\n", symbolName)
		os.Exit(1)
	}

	fmt.Println("before hook:")
	call()

	self, err := goplt.Self()
	if err != nil {
		fmt.Fprintf(os.Stderr, "unable to identify running executable: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("successfully identified executable")

	// The load bias alone is 0 for a non-PIE executable, which is not an
	// address inside it; the start of its first PT_LOAD segment is.
	addr := self.Base()
	for _, ph := range self.ProgramHeaders() {
		if ph.Type == elflayout.PTLoad {
			addr += uintptr(ph.VAddr)
			break
		}
	}
	view, ok, err := goplt.FromAddress(addr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "unable to parse link map: %v\n", err)
		os.Exit(1)
	}
	if !ok {
		fmt.Fprintln(os.Stderr, "unable to locate link map entry for the running executable")
		os.Exit(1)
	}
	fmt.Println("successfully initialized dynamic library for instrumentation")

	mlm := goplt.NewMutableLinkMap(view)

	h, ok, err := goplt.Hook[uintptr](mlm, symbolName, replacement)
	if err != nil {
		fmt.Fprintf(os.Stderr, "hook of %s failed: %v\n", symbolName, err)
		os.Exit(1)
	}
	if !ok {
		fmt.Fprintf(os.Stderr, "unable to find %s in the PLT\n", symbolName)
		os.Exit(1)
	}
	fmt.Printf("successfully identified libc %s offset, cached previous function as %#x\n", symbolName, h.Cached())

	fmt.Println("after hook:")
	call()

	if _, ok, err := goplt.Restore[uintptr](mlm, h); err != nil {
		fmt.Fprintf(os.Stderr, "restore of %s failed: %v\n", symbolName, err)
		os.Exit(1)
	} else if !ok {
		fmt.Fprintf(os.Stderr, "unable to restore %s, symbol no longer resolves\n", symbolName)
		os.Exit(1)
	}
	fmt.Println("restored plt entry")

	fmt.Println("after restore:")
	call()
}

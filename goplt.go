package goplt

import (
	"fmt"
	"os"
	"runtime"

	"github.com/xyproto/goplt/internal/elflayout"
	"github.com/xyproto/goplt/internal/modules"
	"github.com/xyproto/goplt/internal/patch"
)

// Verbose gates diagnostic tracing to stderr across this package. It is
// off by default; cmd/dumpplt and cmd/hookdemo turn it on with -verbose.
var Verbose bool

func trace(format string, args ...any) {
	if Verbose {
		fmt.Fprintf(os.Stderr, "goplt: "+format+"\n", args...)
	}
}

// CollectModules returns every shared object currently mapped into this
// process, one LoadedModule per object, including the main executable
// itself.
func CollectModules() []modules.LoadedModule {
	mods := modules.Enumerate()
	trace("enumerated %d modules", len(mods))
	return mods
}

// Self returns the LoadedModule for the running executable.
func Self() (modules.LoadedModule, error) {
	return modules.Self()
}

// Patch overwrites the pointer-sized word at addr with value, handling
// the mprotect dance around it, and returns the value that was there
// before.
func Patch(addr, value uintptr) (uintptr, error) {
	trace("patching %#x with %#x", addr, value)
	previous, err := patch.Patch(addr, value)
	if err != nil {
		trace("patch of %#x failed: %v", addr, err)
		return previous, err
	}
	trace("patched %#x: %#x -> %#x", addr, previous, value)
	return previous, nil
}

func resolveArchConfig() (elflayout.ArchConfig, error) {
	cfg, err := elflayout.ConfigFor(runtime.GOARCH)
	if err != nil {
		return elflayout.ArchConfig{}, fmt.Errorf("goplt: %w", err)
	}
	return cfg, nil
}

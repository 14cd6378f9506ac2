package goplt

import (
	"fmt"

	"github.com/xyproto/goplt/internal/dynamic"
	"github.com/xyproto/goplt/internal/elflayout"
	"github.com/xyproto/goplt/internal/modules"
	"github.com/xyproto/goplt/internal/resolve"
)

// DynamicLibrary is a parsed view over one module's PT_DYNAMIC array: the
// string table, the symbol table, and the relocation tables a GOT lookup
// walks. It is read-only except through the package-level Patch and the
// hook manager, which write through SlotAddr values it hands out.
type DynamicLibrary struct {
	base    uintptr
	name    string
	digest  *dynamic.Digest
	strings dynamic.StringTable
	symbols dynamic.SymbolTable
	hasSyms bool
	cfg     elflayout.ArchConfig
}

// Open parses module's PT_DYNAMIC array into a DynamicLibrary.
func Open(module modules.LoadedModule) (*DynamicLibrary, error) {
	cfg, err := resolveArchConfig()
	if err != nil {
		return nil, err
	}
	digest, err := dynamic.Parse(module)
	if err != nil {
		return nil, fmt.Errorf("goplt: open %s: %w", module.Name, err)
	}
	return newDynamicLibrary(module.Name, digest, cfg), nil
}

func newDynamicLibrary(name string, digest *dynamic.Digest, cfg elflayout.ArchConfig) *DynamicLibrary {
	lib := &DynamicLibrary{
		base:    digest.BaseAddress,
		name:    name,
		digest:  digest,
		strings: dynamic.NewStringTable(digest),
		cfg:     cfg,
	}
	if symbols, ok := dynamic.NewSymbolTable(digest); ok {
		lib.symbols = symbols
		lib.hasSyms = true
	}
	return lib
}

// BaseAddress is the module's load bias.
func (d *DynamicLibrary) BaseAddress() uintptr { return d.base }

// Name is the path the loader used for this module, or "" if unknown.
func (d *DynamicLibrary) Name() string { return d.name }

// StringTable returns the module's dynamic string table.
func (d *DynamicLibrary) StringTable() dynamic.StringTable { return d.strings }

// Symbols returns the module's dynamic symbol table, if it has one.
func (d *DynamicLibrary) Symbols() (dynamic.SymbolTable, bool) { return d.symbols, d.hasSyms }

// Relocations returns the non-PLT DT_REL table, if present.
func (d *DynamicLibrary) Relocations() (dynamic.RelTable, bool) {
	return d.digest.Relocations()
}

// AddendRelocations returns the non-PLT DT_RELA table, if present.
func (d *DynamicLibrary) AddendRelocations() (dynamic.RelaTable, bool) {
	return d.digest.AddendRelocations()
}

// Plt returns the PLT's relocation table, typed per DT_PLTREL.
func (d *DynamicLibrary) Plt() (dynamic.PltRelocations, bool, error) {
	return d.digest.Plt()
}

// FindFunction resolves symbolName to the address of the GOT slot it
// dispatches through, matching any relocation type (R_GLOB_DAT or
// R_JUMP_SLOT indifferently). This is the enumeration-style lookup;
// FindStrict additionally requires the relocation type to match the
// table it was found in.
func (d *DynamicLibrary) FindFunction(symbolName string) (uintptr, bool, error) {
	return d.find(symbolName, false)
}

// FindStrict resolves symbolName the same way FindFunction does, but
// requires R_GLOB_DAT in the non-PLT table and R_JUMP_SLOT in the PLT
// table. It satisfies hook.SlotFinder.
func (d *DynamicLibrary) FindStrict(symbolName string) (uintptr, bool, error) {
	return d.find(symbolName, true)
}

func (d *DynamicLibrary) find(symbolName string, strict bool) (uintptr, bool, error) {
	if !d.hasSyms {
		return 0, false, nil
	}
	ref, ok, err := resolve.Find(d.base, d.digest, d.symbols, d.strings, symbolName, strict, d.cfg)
	if err != nil {
		return 0, false, err
	}
	if !ok {
		return 0, false, nil
	}
	return ref.SlotAddr, true, nil
}

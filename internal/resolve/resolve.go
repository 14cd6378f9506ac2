// Package resolve maps a symbol name to the address of its GOT slot,
// given an already-parsed dynamic.Digest.
package resolve

import (
	"github.com/xyproto/goplt/internal/dynamic"
	"github.com/xyproto/goplt/internal/elflayout"
)

// RelocationRef identifies a matched relocation entry: its symbol name,
// byte offset within the module (r_offset), and the resolved GOT slot
// address (BaseAddress + r_offset).
type RelocationRef struct {
	SymbolName string
	Offset     uint64
	SlotAddr   uintptr
	SymbolType uint32
}

// symbolEntry is the common shape RelEntry and RelaEntry both expose;
// resolve scans either table through this interface so the 32-/64-bit,
// Rel/Rela distinction never leaks past dynamic.
type symbolEntry interface {
	SymbolIndex() uint32
	SymbolType() uint32
}

// Find searches for symbolName using a word-width-dependent search order:
// on 64-bit hosts the DT_RELA and PLT-as-Rela tables are checked, on
// 32-bit hosts DT_REL and PLT-as-Rel. strict, when true, additionally
// requires the relocation type to match R_GLOB_DAT in the non-PLT table
// and R_JUMP_SLOT in the PLT table, the variant the hook manager uses.
// Non-strict omits that filter, matching the enumeration-style API.
func Find(base uintptr, digest *dynamic.Digest, symbols dynamic.SymbolTable, strings dynamic.StringTable, symbolName string, strict bool, cfg elflayout.ArchConfig) (RelocationRef, bool, error) {
	if elflayout.HostWidth == elflayout.Width64 {
		if ref, ok := searchRela(base, digest, symbols, strings, symbolName, strict, cfg.GlobDat); ok {
			return ref, true, nil
		}
		if ref, ok, err := searchPltRela(base, digest, symbols, strings, symbolName, strict, cfg.JumpSlot); err != nil {
			return RelocationRef{}, false, err
		} else if ok {
			return ref, true, nil
		}
		return RelocationRef{}, false, nil
	}

	if ref, ok := searchRel(base, digest, symbols, strings, symbolName, strict, cfg.GlobDat); ok {
		return ref, true, nil
	}
	if ref, ok, err := searchPltRel(base, digest, symbols, strings, symbolName, strict, cfg.JumpSlot); err != nil {
		return RelocationRef{}, false, err
	} else if ok {
		return ref, true, nil
	}
	return RelocationRef{}, false, nil
}

func matches(e symbolEntry, symbols dynamic.SymbolTable, strings dynamic.StringTable, name string, strict bool, wantType uint32) (RelocationRef, bool) {
	if strict && e.SymbolType() != wantType {
		return RelocationRef{}, false
	}
	resolved, ok := symbols.ResolveName(e.SymbolIndex(), strings)
	if !ok || resolved != name {
		return RelocationRef{}, false
	}
	return RelocationRef{SymbolName: name, SymbolType: e.SymbolType()}, true
}

func searchRela(base uintptr, d *dynamic.Digest, symbols dynamic.SymbolTable, strings dynamic.StringTable, name string, strict bool, globDat uint32) (RelocationRef, bool) {
	table, ok := d.AddendRelocations()
	if !ok {
		return RelocationRef{}, false
	}
	for i := 0; i < table.Len(); i++ {
		e := table.At(i)
		if ref, ok := matches(e, symbols, strings, name, strict, globDat); ok {
			ref.Offset = e.Offset
			ref.SlotAddr = base + uintptr(e.Offset)
			return ref, true
		}
	}
	return RelocationRef{}, false
}

func searchRel(base uintptr, d *dynamic.Digest, symbols dynamic.SymbolTable, strings dynamic.StringTable, name string, strict bool, globDat uint32) (RelocationRef, bool) {
	table, ok := d.Relocations()
	if !ok {
		return RelocationRef{}, false
	}
	for i := 0; i < table.Len(); i++ {
		e := table.At(i)
		if ref, ok := matches(e, symbols, strings, name, strict, globDat); ok {
			ref.Offset = e.Offset
			ref.SlotAddr = base + uintptr(e.Offset)
			return ref, true
		}
	}
	return RelocationRef{}, false
}

func searchPltRela(base uintptr, d *dynamic.Digest, symbols dynamic.SymbolTable, strings dynamic.StringTable, name string, strict bool, jumpSlot uint32) (RelocationRef, bool, error) {
	plt, ok, err := d.Plt()
	if err != nil {
		return RelocationRef{}, false, err
	}
	if !ok || plt.Kind != dynamic.PltWithAddend {
		return RelocationRef{}, false, nil
	}
	for i := 0; i < plt.Rela.Len(); i++ {
		e := plt.Rela.At(i)
		if ref, ok := matches(e, symbols, strings, name, strict, jumpSlot); ok {
			ref.Offset = e.Offset
			ref.SlotAddr = base + uintptr(e.Offset)
			return ref, true, nil
		}
	}
	return RelocationRef{}, false, nil
}

func searchPltRel(base uintptr, d *dynamic.Digest, symbols dynamic.SymbolTable, strings dynamic.StringTable, name string, strict bool, jumpSlot uint32) (RelocationRef, bool, error) {
	plt, ok, err := d.Plt()
	if err != nil {
		return RelocationRef{}, false, err
	}
	if !ok || plt.Kind != dynamic.PltWithoutAddend {
		return RelocationRef{}, false, nil
	}
	for i := 0; i < plt.Rel.Len(); i++ {
		e := plt.Rel.At(i)
		if ref, ok := matches(e, symbols, strings, name, strict, jumpSlot); ok {
			ref.Offset = e.Offset
			ref.SlotAddr = base + uintptr(e.Offset)
			return ref, true, nil
		}
	}
	return RelocationRef{}, false, nil
}

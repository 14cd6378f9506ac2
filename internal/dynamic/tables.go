package dynamic

import (
	"unsafe"

	"github.com/xyproto/goplt/internal/elflayout"
)

// StringTable is a bounded read-only byte sequence containing
// NUL-terminated strings addressed by byte offset.
type StringTable struct {
	base uintptr
	size uint64
}

func NewStringTable(digest *Digest) StringTable {
	return StringTable{base: digest.StrtabPtr, size: digest.StrtabSize}
}

// ReadAt returns the NUL-terminated string starting at offset, or false
// if offset is out of bounds.
func (t StringTable) ReadAt(offset uint32) (string, bool) {
	if uint64(offset) >= t.size {
		return "", false
	}
	start := t.base + uintptr(offset)
	limit := t.base + uintptr(t.size)

	n := 0
	for p := start; p < limit; p++ {
		if *(*byte)(unsafe.Pointer(p)) == 0 {
			break
		}
		n++
	}
	buf := unsafe.Slice((*byte)(unsafe.Pointer(start)), n)
	return string(buf), true
}

// SymbolTable is an ordered sequence of DynSym records, indexed by
// symbol number.
type SymbolTable struct {
	base  uintptr
	width elflayout.WordWidth
}

func NewSymbolTable(digest *Digest) (SymbolTable, bool) {
	if !digest.HasSymtab() {
		return SymbolTable{}, false
	}
	return SymbolTable{base: digest.SymtabPtr, width: elflayout.HostWidth}, true
}

// NameOffset returns symbol index's st_name field.
func (s SymbolTable) NameOffset(index uint32) uint32 {
	switch s.width {
	case elflayout.Width32:
		sym := (*elflayout.DynSym32)(unsafe.Pointer(s.base + uintptr(index)*unsafe.Sizeof(elflayout.DynSym32{})))
		return sym.Name
	default:
		sym := (*elflayout.DynSym64)(unsafe.Pointer(s.base + uintptr(index)*unsafe.Sizeof(elflayout.DynSym64{})))
		return sym.Name
	}
}

// ResolveName returns the name of symbol index via strings, or false
// when st_name == 0 or the name is out of bounds.
func (s SymbolTable) ResolveName(index uint32, strings StringTable) (string, bool) {
	off := s.NameOffset(index)
	if off == 0 {
		return "", false
	}
	return strings.ReadAt(off)
}

// RelEntry is a width-normalized DT_REL-style relocation (no addend). Info
// keeps the original bit-packed r_info value; width records which split
// (32-bit's top-24/bottom-8, or 64-bit's top-32/bottom-32) applies to it.
type RelEntry struct {
	Offset uint64
	Info   uint64
	width  elflayout.WordWidth
}

func (e RelEntry) SymbolIndex() uint32 {
	if e.width == elflayout.Width32 {
		return elflayout.SymbolIndex32(uint32(e.Info))
	}
	return elflayout.SymbolIndex64(e.Info)
}

func (e RelEntry) SymbolType() uint32 {
	if e.width == elflayout.Width32 {
		return elflayout.SymbolType32(uint32(e.Info))
	}
	return elflayout.SymbolType64(e.Info)
}

// RelaEntry is a width-normalized DT_RELA-style relocation (with addend).
type RelaEntry struct {
	Offset uint64
	Info   uint64
	Addend int64
	width  elflayout.WordWidth
}

func (e RelaEntry) SymbolIndex() uint32 {
	if e.width == elflayout.Width32 {
		return elflayout.SymbolIndex32(uint32(e.Info))
	}
	return elflayout.SymbolIndex64(e.Info)
}

func (e RelaEntry) SymbolType() uint32 {
	if e.width == elflayout.Width32 {
		return elflayout.SymbolType32(uint32(e.Info))
	}
	return elflayout.SymbolType64(e.Info)
}

// RelTable is a bounded indexable sequence of RelEntry.
type RelTable struct {
	base  uintptr
	count int
	width elflayout.WordWidth
}

func newRelTable(base uintptr, sz, ent uint64, width elflayout.WordWidth) RelTable {
	count := 0
	if ent > 0 {
		count = int(sz / ent)
	}
	return RelTable{base: base, count: count, width: width}
}

func (t RelTable) Len() int { return t.count }

func (t RelTable) At(i int) RelEntry {
	if i < 0 || i >= t.count {
		panic("dynamic: RelTable index out of range")
	}
	switch t.width {
	case elflayout.Width32:
		e := (*elflayout.Rel32)(unsafe.Pointer(t.base + uintptr(i)*unsafe.Sizeof(elflayout.Rel32{})))
		return RelEntry{Offset: uint64(e.Offset), Info: uint64(e.Info), width: elflayout.Width32}
	default:
		e := (*elflayout.Rel64)(unsafe.Pointer(t.base + uintptr(i)*unsafe.Sizeof(elflayout.Rel64{})))
		return RelEntry{Offset: e.Offset, Info: e.Info, width: elflayout.Width64}
	}
}

// RelaTable is a bounded indexable sequence of RelaEntry.
type RelaTable struct {
	base  uintptr
	count int
	width elflayout.WordWidth
}

func newRelaTable(base uintptr, sz, ent uint64, width elflayout.WordWidth) RelaTable {
	count := 0
	if ent > 0 {
		count = int(sz / ent)
	}
	return RelaTable{base: base, count: count, width: width}
}

func (t RelaTable) Len() int { return t.count }

func (t RelaTable) At(i int) RelaEntry {
	if i < 0 || i >= t.count {
		panic("dynamic: RelaTable index out of range")
	}
	switch t.width {
	case elflayout.Width32:
		e := (*elflayout.Rela32)(unsafe.Pointer(t.base + uintptr(i)*unsafe.Sizeof(elflayout.Rela32{})))
		return RelaEntry{Offset: uint64(e.Offset), Info: uint64(e.Info), Addend: int64(e.Addend), width: elflayout.Width32}
	default:
		e := (*elflayout.Rela64)(unsafe.Pointer(t.base + uintptr(i)*unsafe.Sizeof(elflayout.Rela64{})))
		return RelaEntry{Offset: e.Offset, Info: e.Info, Addend: e.Addend, width: elflayout.Width64}
	}
}

// Relocations returns the non-PLT DT_REL table, if present.
func (d *Digest) Relocations() (RelTable, bool) {
	if !d.HasRel() {
		return RelTable{}, false
	}
	return newRelTable(d.RelPtr, d.RelSz, d.RelEnt, elflayout.HostWidth), true
}

// AddendRelocations returns the non-PLT DT_RELA table, if present.
func (d *Digest) AddendRelocations() (RelaTable, bool) {
	if !d.HasRela() {
		return RelaTable{}, false
	}
	return newRelaTable(d.RelaPtr, d.RelaSz, d.RelaEnt, elflayout.HostWidth), true
}

// PltKind distinguishes the two shapes PltRelocations can carry.
type PltKind int

const (
	PltWithoutAddend PltKind = iota
	PltWithAddend
)

// PltRelocations is a tagged relocation table: depending on
// DT_PLTREL, the PLT's relocation table is either a RelTable or a
// RelaTable. Downstream code switches on Kind rather than downcasting.
type PltRelocations struct {
	Kind  PltKind
	Rel   RelTable  // valid iff Kind == PltWithoutAddend
	Rela  RelaTable // valid iff Kind == PltWithAddend
}

// Plt returns the PLT's relocation table, typed per DT_PLTREL.
func (d *Digest) Plt() (PltRelocations, bool, error) {
	if !d.HasJmprel() {
		return PltRelocations{}, false, nil
	}
	width := elflayout.HostWidth
	switch d.PltRelType {
	case elflayout.DTRela:
		entSize := uint64(elflayout.SizeofRela64)
		if width == elflayout.Width32 {
			entSize = uint64(elflayout.SizeofRela32)
		}
		return PltRelocations{
			Kind: PltWithAddend,
			Rela: newRelaTable(d.JmprelPtr, d.PltRelSz, entSize, width),
		}, true, nil
	case elflayout.DTRel:
		entSize := uint64(elflayout.SizeofRel64)
		if width == elflayout.Width32 {
			entSize = uint64(elflayout.SizeofRel32)
		}
		return PltRelocations{
			Kind: PltWithoutAddend,
			Rel:  newRelTable(d.JmprelPtr, d.PltRelSz, entSize, width),
		}, true, nil
	default:
		return PltRelocations{}, false, errUnknownPltRel(d.PltRelType)
	}
}

// Package elflayout defines bit-exact ELF dynamic-linking record layouts
// for both 32-bit and 64-bit targets, plus the per-architecture relocation
// constants needed to tell an eagerly-bound GOT entry from a lazily-bound
// one.
//
// Nothing here touches process memory; it only describes the shapes that
// the rest of the library reads out of it.
package elflayout

import (
	"fmt"
	"unsafe"
)

// WordWidth is the pointer width of the host process.
type WordWidth int

const (
	Width32 WordWidth = 32
	Width64 WordWidth = 64
)

// HostWidth is WordWidth resolved from the size of a machine word on the
// running binary. All live-process parsing in this module uses HostWidth,
// so the 32-bit record layouts are read only in a binary built for a
// 32-bit architecture (386 or arm).
const HostWidth WordWidth = WordWidth(unsafe.Sizeof(uintptr(0)) * 8)

// ProgramHeader64 mirrors Elf64_Phdr.
type ProgramHeader64 struct {
	Type   uint32
	Flags  uint32
	Offset uint64
	VAddr  uint64
	PAddr  uint64
	FileSz uint64
	MemSz  uint64
	Align  uint64
}

// ProgramHeader32 mirrors Elf32_Phdr. Field order differs from the 64-bit
// shape: Flags is the last fixed-size field before Align instead of the
// second.
type ProgramHeader32 struct {
	Type   uint32
	Offset uint32
	VAddr  uint32
	PAddr  uint32
	FileSz uint32
	MemSz  uint32
	Flags  uint32
	Align  uint32
}

const (
	PTLoad    = 1
	PTDynamic = 2
)

// ProgramHeader is a width-normalized view of a single program header
// entry, used everywhere outside the raw memory-layout code so callers
// never have to branch on HostWidth themselves.
type ProgramHeader struct {
	Type   uint32
	Flags  uint32
	Offset uint64
	VAddr  uint64
	PAddr  uint64
	FileSz uint64
	MemSz  uint64
	Align  uint64
}

// ProgramHeaderAt reads program header index i out of a raw C array at
// base, normalizing the 32-/64-bit layout difference. The array is not
// copied out of loader memory; only this one entry is read and widened.
func ProgramHeaderAt(base uintptr, i int, width WordWidth) ProgramHeader {
	switch width {
	case Width32:
		p := (*ProgramHeader32)(unsafe.Pointer(base + uintptr(i)*unsafe.Sizeof(ProgramHeader32{})))
		return ProgramHeader{
			Type: p.Type, Flags: p.Flags,
			Offset: uint64(p.Offset), VAddr: uint64(p.VAddr), PAddr: uint64(p.PAddr),
			FileSz: uint64(p.FileSz), MemSz: uint64(p.MemSz), Align: uint64(p.Align),
		}
	default:
		p := (*ProgramHeader64)(unsafe.Pointer(base + uintptr(i)*unsafe.Sizeof(ProgramHeader64{})))
		return ProgramHeader{
			Type: p.Type, Flags: p.Flags,
			Offset: p.Offset, VAddr: p.VAddr, PAddr: p.PAddr,
			FileSz: p.FileSz, MemSz: p.MemSz, Align: p.Align,
		}
	}
}

// DynEntry64 mirrors Elf64_Dyn: one PT_DYNAMIC array element.
type DynEntry64 struct {
	Tag   int64
	Value uint64
}

// DynEntry32 mirrors Elf32_Dyn.
type DynEntry32 struct {
	Tag   int32
	Value uint32
}

// Recognized DT_* tags.
const (
	DTNull     = 0
	DTPLTRelSz = 2
	DTPLTGot   = 3
	DTStrTab   = 5
	DTSymTab   = 6
	DTRela     = 7
	DTRelaSz   = 8
	DTRelaEnt  = 9
	DTStrSz    = 10
	DTSymEnt   = 11
	DTRel      = 17
	DTRelSz    = 18
	DTRelEnt   = 19
	DTPLTRel   = 20
	DTJmpRel   = 23
)

// DynSym64 mirrors Elf64_Sym; field order (st_name, st_info, st_other,
// st_shndx, st_value, st_size) is specific to the 64-bit layout.
type DynSym64 struct {
	Name  uint32
	Info  uint8
	Other uint8
	Shndx uint16
	Value uint64
	Size  uint64
}

// DynSym32 mirrors Elf32_Sym; field order (st_name, st_value, st_size,
// st_info, st_other, st_shndx) differs from the 64-bit layout.
type DynSym32 struct {
	Name  uint32
	Value uint32
	Size  uint32
	Info  uint8
	Other uint8
	Shndx uint16
}

const SizeofDynSym64 = 24
const SizeofDynSym32 = 16

// Rel64/Rela64 mirror Elf64_Rel/Elf64_Rela.
type Rel64 struct {
	Offset uint64
	Info   uint64
}

type Rela64 struct {
	Offset uint64
	Info   uint64
	Addend int64
}

// Rel32/Rela32 mirror Elf32_Rel/Elf32_Rela.
type Rel32 struct {
	Offset uint32
	Info   uint32
}

type Rela32 struct {
	Offset uint32
	Info   uint32
	Addend int32
}

const (
	SizeofRel64  = 16
	SizeofRela64 = 24
	SizeofRel32  = 8
	SizeofRela32 = 12
)

// SymbolIndex64/SymbolType64 split the r_info field of a 64-bit relocation.
func SymbolIndex64(info uint64) uint32 { return uint32(info >> 32) }
func SymbolType64(info uint64) uint32  { return uint32(info & 0xffffffff) }

// SymbolIndex32/SymbolType32 split the r_info field of a 32-bit relocation.
func SymbolIndex32(info uint32) uint32 { return info >> 8 }
func SymbolType32(info uint32) uint32  { return info & 0xff }

// DynEntryAt reads PT_DYNAMIC array entry i at base, normalizing the
// 32-/64-bit tag and value fields into int64/uint64.
func DynEntryAt(base uintptr, i int, width WordWidth) (tag int64, value uint64) {
	switch width {
	case Width32:
		e := (*DynEntry32)(unsafe.Pointer(base + uintptr(i)*unsafe.Sizeof(DynEntry32{})))
		return int64(e.Tag), uint64(e.Value)
	default:
		e := (*DynEntry64)(unsafe.Pointer(base + uintptr(i)*unsafe.Sizeof(DynEntry64{})))
		return e.Tag, e.Value
	}
}

// LinkMap mirrors the loader's struct link_map node (glibc layout; musl
// and Android are binary-compatible for these five fields).
type LinkMap struct {
	Addr uintptr // l_addr: load bias
	Name uintptr // l_name: char*
	LD   uintptr // l_ld: ElfW(Dyn)*, the module's PT_DYNAMIC array
	Next uintptr // l_next: struct link_map*
	Prev uintptr // l_prev: struct link_map*
}

// ArchConfig holds the per-architecture relocation type constants: the
// three variable points (word width handled separately by
// WordWidth, relocation-type constants, and the r_info shift) collapse to
// just the two relocation constants once word width is fixed.
type ArchConfig struct {
	GlobDat  uint32 // R_*_GLOB_DAT
	JumpSlot uint32 // R_*_JUMP_SLOT
}

var archConfigs = map[string]ArchConfig{
	"386":   {GlobDat: 6, JumpSlot: 7},
	"amd64": {GlobDat: 6, JumpSlot: 7},
	"arm":   {GlobDat: 21, JumpSlot: 22},
	"arm64": {GlobDat: 1025, JumpSlot: 1026},
}

// ConfigFor returns the relocation-type constants for a GOARCH value.
// goarch is accepted as a parameter (rather than read from runtime.GOARCH
// internally) so tests can exercise all three architectures from a single
// build.
func ConfigFor(goarch string) (ArchConfig, error) {
	cfg, ok := archConfigs[goarch]
	if !ok {
		return ArchConfig{}, fmt.Errorf("elflayout: unsupported architecture: %s", goarch)
	}
	return cfg, nil
}

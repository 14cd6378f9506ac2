// Package dynamic walks a loaded module's PT_DYNAMIC array into a Digest
// and exposes bounded, typed views over the tables that digest
// references.
package dynamic

import (
	"github.com/xyproto/goplt/internal/elflayout"
)

// Module is the minimal surface Parse needs from a loaded module. It is
// satisfied by modules.LoadedModule without this package importing
// modules directly, keeping the dependency edge one-way.
type Module interface {
	Base() uintptr
	DynamicProgramHeader() (elflayout.ProgramHeader, bool)
}

// Digest is the result of walking PT_DYNAMIC.
type Digest struct {
	BaseAddress uintptr

	StrtabPtr  uintptr
	StrtabSize uint64

	SymtabPtr  uintptr // 0 if absent
	SymentSize uint64

	RelPtr  uintptr // 0 if absent
	RelSz   uint64
	RelEnt  uint64

	RelaPtr  uintptr // 0 if absent
	RelaSz   uint64
	RelaEnt  uint64

	JmprelPtr   uintptr // 0 if absent
	PltRelSz    uint64
	PltRelType  int64 // elflayout.DTRel or elflayout.DTRela
	hasJmprel   bool
	hasSymtab   bool
	hasRel      bool
	hasRela     bool
}

func (d *Digest) HasSymtab() bool { return d.hasSymtab }
func (d *Digest) HasRel() bool    { return d.hasRel }
func (d *Digest) HasRela() bool   { return d.hasRela }
func (d *Digest) HasJmprel() bool { return d.hasJmprel }

// rawTags collects every recognized tag's raw (unrebased) value while
// walking the PT_DYNAMIC array once.
type rawTags struct {
	strtab, strsz             *uint64
	symtab, syment             *uint64
	rel, relsz, relent         *uint64
	rela, relasz, relaent      *uint64
	jmprel, pltrelsz, pltrel   *uint64
}

// Parse walks module's PT_DYNAMIC array and produces a Digest. This is
// the program-header entry path: the dynamic array's address is derived
// from the PT_DYNAMIC program header.
func Parse(module Module) (*Digest, error) {
	ph, ok := module.DynamicProgramHeader()
	if !ok {
		return nil, errMissingProgramHeader()
	}

	base := module.Base()
	dynArray := base + uintptr(ph.VAddr)
	return parseDynArray(dynArray, base)
}

// LinkMapSource is the link-map entry path: a link-map node already
// carries a direct pointer to the dynamic section (l_ld), so there is no
// program header to walk.
type LinkMapSource interface {
	LoadAddress() uintptr
	DynamicArray() uintptr
}

// ParseLinkMap produces a Digest directly from a link-map node's l_ld
// pointer, bypassing the program-header scan Parse performs.
func ParseLinkMap(src LinkMapSource) (*Digest, error) {
	return parseDynArray(src.DynamicArray(), src.LoadAddress())
}

func parseDynArray(dynArray uintptr, base uintptr) (*Digest, error) {
	raw := rawTags{}
	width := elflayout.HostWidth

	for i := 0; ; i++ {
		tag, val := elflayout.DynEntryAt(dynArray, i, width)
		if tag == elflayout.DTNull {
			break
		}
		assignTag(&raw, tag, val)
	}

	digest := &Digest{BaseAddress: base}

	// DT_STRTAB / DT_STRSZ: unconditionally required together.
	if raw.strtab == nil {
		return nil, errMissingRequired(elflayout.DTStrTab)
	}
	if raw.strsz == nil {
		return nil, errMissingDependent(elflayout.DTStrTab, elflayout.DTStrSz)
	}
	digest.StrtabPtr = rebase(*raw.strtab, base)
	digest.StrtabSize = *raw.strsz

	// DT_SYMTAB ⇒ DT_SYMENT, and DT_SYMENT must match our struct size.
	if raw.symtab != nil {
		if raw.syment == nil {
			return nil, errMissingDependent(elflayout.DTSymTab, elflayout.DTSymEnt)
		}
		expected := uint64(elflayout.SizeofDynSym64)
		if width == elflayout.Width32 {
			expected = uint64(elflayout.SizeofDynSym32)
		}
		if *raw.syment != expected {
			return nil, errMalformedSize("DT_SYMENT does not match DynSym size")
		}
		digest.SymtabPtr = rebase(*raw.symtab, base)
		digest.SymentSize = *raw.syment
		digest.hasSymtab = true
	}

	// DT_REL ⇒ DT_RELSZ, DT_RELENT.
	if raw.rel != nil {
		if raw.relsz == nil || raw.relent == nil {
			return nil, errMissingDependent(elflayout.DTRel, elflayout.DTRelEnt)
		}
		expected := uint64(elflayout.SizeofRel64)
		if width == elflayout.Width32 {
			expected = uint64(elflayout.SizeofRel32)
		}
		if *raw.relent != expected {
			return nil, errMalformedSize("DT_RELENT does not match Rel size")
		}
		digest.RelPtr = rebase(*raw.rel, base)
		digest.RelSz = *raw.relsz
		digest.RelEnt = *raw.relent
		digest.hasRel = true
	}

	// DT_RELA ⇒ DT_RELASZ, DT_RELAENT.
	if raw.rela != nil {
		if raw.relasz == nil || raw.relaent == nil {
			return nil, errMissingDependent(elflayout.DTRela, elflayout.DTRelaEnt)
		}
		expected := uint64(elflayout.SizeofRela64)
		if width == elflayout.Width32 {
			expected = uint64(elflayout.SizeofRela32)
		}
		if *raw.relaent != expected {
			return nil, errMalformedSize("DT_RELAENT does not match Rela size")
		}
		digest.RelaPtr = rebase(*raw.rela, base)
		digest.RelaSz = *raw.relasz
		digest.RelaEnt = *raw.relaent
		digest.hasRela = true
	}

	// DT_JMPREL ⇒ DT_PLTRELSZ, DT_PLTREL.
	if raw.jmprel != nil {
		if raw.pltrelsz == nil || raw.pltrel == nil {
			return nil, errMissingDependent(elflayout.DTJmpRel, elflayout.DTPLTRel)
		}
		pltrel := int64(*raw.pltrel)
		if pltrel != elflayout.DTRel && pltrel != elflayout.DTRela {
			return nil, errUnknownPltRel(pltrel)
		}
		digest.JmprelPtr = rebase(*raw.jmprel, base)
		digest.PltRelSz = *raw.pltrelsz
		digest.PltRelType = pltrel
		digest.hasJmprel = true
	}

	return digest, nil
}

// rebase applies the address-rebasing heuristic: a pointer
// field is already absolute if it exceeds the module's load address,
// otherwise it is an offset from it. glibc pre-rebases these fields;
// musl and the Android dl_iterate_phdr path sometimes do not.
func rebase(value uint64, base uintptr) uintptr {
	v := uintptr(value)
	if v <= base {
		return base + v
	}
	return v
}

func assignTag(raw *rawTags, tag int64, val uint64) {
	switch tag {
	case elflayout.DTStrTab:
		raw.strtab = &val
	case elflayout.DTStrSz:
		raw.strsz = &val
	case elflayout.DTSymTab:
		raw.symtab = &val
	case elflayout.DTSymEnt:
		raw.syment = &val
	case elflayout.DTRel:
		raw.rel = &val
	case elflayout.DTRelSz:
		raw.relsz = &val
	case elflayout.DTRelEnt:
		raw.relent = &val
	case elflayout.DTRela:
		raw.rela = &val
	case elflayout.DTRelaSz:
		raw.relasz = &val
	case elflayout.DTRelaEnt:
		raw.relaent = &val
	case elflayout.DTJmpRel:
		raw.jmprel = &val
	case elflayout.DTPLTRelSz:
		raw.pltrelsz = &val
	case elflayout.DTPLTRel:
		raw.pltrel = &val
		// Unrecognized tags are ignored.
	}
}

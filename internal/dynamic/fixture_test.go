package dynamic

import (
	"debug/elf"
	"encoding/binary"
	"runtime"
	"unsafe"

	"github.com/xyproto/goplt/internal/elflayout"
)

// fixture assembles a synthetic dynamic section directly in Go-heap
// memory: a string table, a symbol table, a DT_RELA table, and a PLT
// DT_JMPREL (also Rela) table, then a PT_DYNAMIC array of DynEntry64
// pointing at all of it. Every pointer field is written in its
// "already-rebased" (absolute) form, matching a glibc-style module; the
// rebase heuristic itself is covered separately in TestRebaseHeuristic,
// which calls rebase directly instead of threading relative offsets
// through a second copy of this fixture.
//
// Building this by hand in a byte buffer, rather than shelling out to a
// real assembler/linker, mirrors how a static ELF writer assembles an
// image's sections field by field. The backing slice is preallocated
// with enough capacity that append never reallocates it mid-build;
// every recorded offset and the base address taken at the end stay
// consistent with each other.
type fixture struct {
	buf         []byte
	base        uintptr
	strtabOff   int
	symtabOff   int
	relaOff     int
	jmprelOff   int
	strtabSize  int
	symCount    int
	relaCount   int
	jmprelCount int
	dynOff      int
}

// names understood by the fixture: index 0 is always the empty string
// (st_name == 0 means "no name").
var fixtureNames = []string{"", "getpid", "puts", "unused_import"}

func newFixture() *fixture {
	f := &fixture{buf: make([]byte, 0, 4096)}

	// Leading padding keeps every table offset strictly greater than
	// zero, so the rebase heuristic's "value <= base" branch is only
	// ever exercised deliberately (see TestRebaseHeuristic),
	// never by an incidental offset-zero table placement here.
	f.alloc(16)

	f.strtabOff = f.alloc(0)
	for _, n := range fixtureNames {
		f.buf = append(f.buf, []byte(n)...)
		f.buf = append(f.buf, 0)
	}
	f.strtabSize = len(f.buf) - f.strtabOff

	f.symtabOff = f.alloc(0)
	for i := range fixtureNames {
		f.appendSym(uint32(nameOffset(i)))
	}
	f.symCount = len(fixtureNames)

	f.relaOff = f.alloc(0)
	f.appendRela(1 /* getpid */, globDatForHost(), 0x4000)
	f.relaCount = 1

	f.jmprelOff = f.alloc(0)
	f.appendRela(2 /* puts */, jumpSlotForHost(), 0x5000)
	f.jmprelCount = 1

	f.dynOff = f.alloc(0)
	base := f.bufAddr()

	f.appendDyn(elflayout.DTStrTab, uint64(base)+uint64(f.strtabOff))
	f.appendDyn(elflayout.DTStrSz, uint64(f.strtabSize))
	f.appendDyn(elflayout.DTSymTab, uint64(base)+uint64(f.symtabOff))
	f.appendDyn(elflayout.DTSymEnt, uint64(elflayout.SizeofDynSym64))
	f.appendDyn(elflayout.DTRela, uint64(base)+uint64(f.relaOff))
	f.appendDyn(elflayout.DTRelaSz, uint64(f.relaCount*elflayout.SizeofRela64))
	f.appendDyn(elflayout.DTRelaEnt, uint64(elflayout.SizeofRela64))
	f.appendDyn(elflayout.DTJmpRel, uint64(base)+uint64(f.jmprelOff))
	f.appendDyn(elflayout.DTPLTRelSz, uint64(f.jmprelCount*elflayout.SizeofRela64))
	f.appendDyn(elflayout.DTPLTRel, uint64(elflayout.DTRela))
	f.appendDyn(elflayout.DTNull, 0)

	f.base = f.bufAddr()
	return f
}

func nameOffset(i int) int {
	off := 0
	for j := 0; j < i; j++ {
		off += len(fixtureNames[j]) + 1
	}
	return off
}

func globDatForHost() uint32 {
	cfg, err := elflayout.ConfigFor(runtime.GOARCH)
	if err != nil {
		return 6
	}
	return cfg.GlobDat
}

func jumpSlotForHost() uint32 {
	cfg, err := elflayout.ConfigFor(runtime.GOARCH)
	if err != nil {
		return 7
	}
	return cfg.JumpSlot
}

func (f *fixture) alloc(n int) int {
	off := len(f.buf)
	f.buf = append(f.buf, make([]byte, n)...)
	return off
}

func (f *fixture) bufAddr() uintptr {
	return uintptr(unsafe.Pointer(unsafe.SliceData(f.buf)))
}

func (f *fixture) appendSym(name uint32) {
	var raw [elflayout.SizeofDynSym64]byte
	binary.LittleEndian.PutUint32(raw[0:4], name)
	f.buf = append(f.buf, raw[:]...)
}

func (f *fixture) appendRela(symIndex, symType uint32, offset uint64) {
	var raw [elflayout.SizeofRela64]byte
	binary.LittleEndian.PutUint64(raw[0:8], offset)
	info := uint64(symIndex)<<32 | uint64(symType)
	binary.LittleEndian.PutUint64(raw[8:16], info)
	f.buf = append(f.buf, raw[:]...)
}

func (f *fixture) appendDyn(tag int64, value uint64) {
	var raw [16]byte
	binary.LittleEndian.PutUint64(raw[0:8], uint64(tag))
	binary.LittleEndian.PutUint64(raw[8:16], value)
	f.buf = append(f.buf, raw[:]...)
}

// fakeModule adapts a fixture to the Module interface Parse expects.
type fakeModule struct {
	base   uintptr
	dynOff int
}

func (m fakeModule) Base() uintptr { return m.base }

func (m fakeModule) DynamicProgramHeader() (elflayout.ProgramHeader, bool) {
	return elflayout.ProgramHeader{Type: elflayout.PTDynamic, VAddr: uint64(m.dynOff)}, true
}

func (f *fixture) module() fakeModule {
	return fakeModule{base: f.base, dynOff: f.dynOff}
}

// crossCheckSymSize and crossCheckRelaSize are used by
// TestCrossCheckRecordSizes in digest_test.go to confirm this package's
// hand-rolled record sizes agree with debug/elf's.
func crossCheckSymSize() int { return int(unsafe.Sizeof(elf.Sym64{})) }
func crossCheckRelaSize() int { return int(unsafe.Sizeof(elf.Rela64{})) }

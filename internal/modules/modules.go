// Package modules enumerates the shared objects currently mapped into
// this process's own address space.
package modules

import "github.com/xyproto/goplt/internal/elflayout"

// LoadedModule is a live mapping of an ELF object: its load bias, the
// path the loader used to find it, and a borrowed, non-owning view of
// its program-header table. That table is memory the dynamic loader owns
// for the lifetime of the process; this package never frees it, and
// ProgramHeader and ProgramHeaders return normalized copies of its entries.
type LoadedModule struct {
	BaseAddress uintptr
	Name        string

	phdrBase  uintptr
	phdrCount int
	width     elflayout.WordWidth
}

// Base satisfies dynamic.Module; it mirrors the BaseAddress field so the
// parser can depend on an interface instead of this concrete type.
func (m LoadedModule) Base() uintptr { return m.BaseAddress }

// NumProgramHeaders reports how many program headers this module has.
func (m LoadedModule) NumProgramHeaders() int { return m.phdrCount }

// ProgramHeader returns program header i, normalized to the host's
// word width. Panics if i is out of range, matching slice semantics.
func (m LoadedModule) ProgramHeader(i int) elflayout.ProgramHeader {
	if i < 0 || i >= m.phdrCount {
		panic("modules: program header index out of range")
	}
	return elflayout.ProgramHeaderAt(m.phdrBase, i, m.width)
}

// ProgramHeaders materializes every program header into a slice. Unlike
// ProgramHeader, which reads lazily, this is a convenience for callers
// that want to range over the whole table; it still does not copy
// anything beyond the normalized structs themselves.
func (m LoadedModule) ProgramHeaders() []elflayout.ProgramHeader {
	out := make([]elflayout.ProgramHeader, m.phdrCount)
	for i := range out {
		out[i] = m.ProgramHeader(i)
	}
	return out
}

// DynamicProgramHeader returns the PT_DYNAMIC program header of this
// module, if any.
func (m LoadedModule) DynamicProgramHeader() (elflayout.ProgramHeader, bool) {
	for i := 0; i < m.phdrCount; i++ {
		ph := m.ProgramHeader(i)
		if ph.Type == elflayout.PTDynamic {
			return ph, true
		}
	}
	return elflayout.ProgramHeader{}, false
}

// Package linkmap locates the loader's LinkMap node for a module, either
// from an arbitrary in-process address or from the name of an
// already-loaded shared library.
package linkmap

import (
	"github.com/xyproto/goplt/internal/elflayout"
)

// Ref is a read-only view of one struct link_map node. On glibc-like
// systems it aliases the loader's own node; the Android fallback
// synthesizes one locally with Next and Previous both reporting false.
type Ref struct {
	raw      elflayout.LinkMap
	hasNext  bool
	hasPrev  bool
}

// LoadAddress is l_addr: the module's load bias.
func (r Ref) LoadAddress() uintptr { return r.raw.Addr }

// DynamicArray is l_ld: a pointer directly at the module's PT_DYNAMIC
// array, already an absolute address (never itself subject to the
// rebasing heuristic that dynamic.Parse applies to the tag values it
// finds there).
func (r Ref) DynamicArray() uintptr { return r.raw.LD }

// Name is l_name, or "" if the loader left it null (e.g. a synthesized
// Android node).
func (r Ref) Name() string {
	if r.raw.Name == 0 {
		return ""
	}
	return cString(r.raw.Name)
}

// Next returns the next node in the link-map list. ok is false at the
// end of the list, or always on a synthesized single-element node.
func (r Ref) Next() (Ref, bool) {
	if !r.hasNext || r.raw.Next == 0 {
		return Ref{}, false
	}
	return fromPointer(r.raw.Next), true
}

// Previous returns the previous node in the link-map list, with the same
// caveats as Next.
func (r Ref) Previous() (Ref, bool) {
	if !r.hasPrev || r.raw.Prev == 0 {
		return Ref{}, false
	}
	return fromPointer(r.raw.Prev), true
}

func fromPointer(p uintptr) Ref {
	lm := *(*elflayout.LinkMap)(ptr(p))
	return Ref{raw: lm, hasNext: true, hasPrev: true}
}

package goplt

import (
	"fmt"

	"github.com/xyproto/goplt/internal/dynamic"
	"github.com/xyproto/goplt/internal/linkmap"
)

// LinkMapView is a *DynamicLibrary-shaped view reached through the
// loader's link-map list instead of a module's program-header table. It
// embeds DynamicLibrary, so it shares the same table accessors and
// FindFunction/FindStrict lookups.
type LinkMapView struct {
	*DynamicLibrary
	ref linkmap.Ref
}

// FromAddress locates the link-map node of the module that contains
// address and parses its PT_DYNAMIC array. ok is false if address does
// not fall inside any currently-mapped module.
func FromAddress(address uintptr) (*LinkMapView, bool, error) {
	ref, ok := linkmap.LocateFromAddress(address)
	if !ok {
		return nil, false, nil
	}
	view, err := newLinkMapView(ref)
	if err != nil {
		return nil, false, err
	}
	return view, true, nil
}

// FromSharedLibrary locates the link-map node of an already-loaded shared
// object by name, via dlopen(RTLD_NOLOAD). It never loads a new object:
// ok is false, with no side effects, if name is not already resident.
func FromSharedLibrary(name string) (*LinkMapView, bool, error) {
	ref, ok := linkmap.LocateFromSharedLibrary(name)
	if !ok {
		return nil, false, nil
	}
	view, err := newLinkMapView(ref)
	if err != nil {
		return nil, false, err
	}
	return view, true, nil
}

// Next returns the view of the next node in the loader's link-map list,
// the same list dl_iterate_phdr would visit. ok is false at the end of
// the list, or always on a synthesized Android node.
func (v *LinkMapView) Next() (*LinkMapView, bool, error) {
	next, ok := v.ref.Next()
	if !ok {
		return nil, false, nil
	}
	view, err := newLinkMapView(next)
	if err != nil {
		return nil, false, err
	}
	return view, true, nil
}

// Previous returns the view of the previous node in the link-map list,
// with the same caveats as Next.
func (v *LinkMapView) Previous() (*LinkMapView, bool, error) {
	prev, ok := v.ref.Previous()
	if !ok {
		return nil, false, nil
	}
	view, err := newLinkMapView(prev)
	if err != nil {
		return nil, false, err
	}
	return view, true, nil
}

func newLinkMapView(ref linkmap.Ref) (*LinkMapView, error) {
	cfg, err := resolveArchConfig()
	if err != nil {
		return nil, err
	}
	digest, err := dynamic.ParseLinkMap(ref)
	if err != nil {
		return nil, fmt.Errorf("goplt: parse link map for %s: %w", ref.Name(), err)
	}
	return &LinkMapView{
		DynamicLibrary: newDynamicLibrary(ref.Name(), digest, cfg),
		ref:            ref,
	}, nil
}

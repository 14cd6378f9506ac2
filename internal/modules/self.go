package modules

import "fmt"

// Self returns the LoadedModule for the running process's own main
// executable. dl_iterate_phdr always visits the main executable first,
// so this is simply the first enumerated entry.
func Self() (LoadedModule, error) {
	mods := Enumerate()
	if len(mods) == 0 {
		return LoadedModule{}, fmt.Errorf("modules: no modules enumerated")
	}
	return mods[0], nil
}

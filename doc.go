// Package goplt reads and rewrites the GOT entries of ELF objects already
// mapped into the current process. It does not load new objects, parse
// files from disk, or hook across process boundaries: every operation
// here works against memory the OS dynamic loader has already mapped for
// this process.
//
// CollectModules and Open cover the module-enumeration entry path;
// FromAddress and FromSharedLibrary cover the link-map entry path. Both
// produce a *DynamicLibrary-shaped view with the same table accessors and
// FindFunction/FindStrict lookups; MutableLinkMap and the package-level
// Hook/Restore functions sit on top of the link-map path for name-driven
// function hooking.
package goplt

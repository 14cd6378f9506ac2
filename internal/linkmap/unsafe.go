package linkmap

import "unsafe"

func ptr(addr uintptr) unsafe.Pointer { return unsafe.Pointer(addr) }

func cString(addr uintptr) string {
	p := (*byte)(ptr(addr))
	n := 0
	for {
		b := *(*byte)(ptr(addr + uintptr(n)))
		if b == 0 {
			break
		}
		n++
	}
	return string(unsafe.Slice(p, n))
}

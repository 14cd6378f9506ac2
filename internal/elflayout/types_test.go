package elflayout

import "testing"

func TestConfigFor(t *testing.T) {
	cases := []struct {
		goarch           string
		globDat, jumpSlt uint32
	}{
		{"amd64", 6, 7},
		{"386", 6, 7},
		{"arm", 21, 22},
		{"arm64", 1025, 1026},
	}

	for _, c := range cases {
		t.Run(c.goarch, func(t *testing.T) {
			cfg, err := ConfigFor(c.goarch)
			if err != nil {
				t.Fatalf("ConfigFor(%s): %v", c.goarch, err)
			}
			if cfg.GlobDat != c.globDat || cfg.JumpSlot != c.jumpSlt {
				t.Errorf("ConfigFor(%s) = %+v, want {%d %d}", c.goarch, cfg, c.globDat, c.jumpSlt)
			}
		})
	}
}

func TestConfigForUnknown(t *testing.T) {
	if _, err := ConfigFor("mips"); err == nil {
		t.Error("expected error for unsupported architecture")
	}
}

func TestSymbolInfoSplit64(t *testing.T) {
	info := uint64(42)<<32 | uint64(7)
	if got := SymbolIndex64(info); got != 42 {
		t.Errorf("SymbolIndex64 = %d, want 42", got)
	}
	if got := SymbolType64(info); got != 7 {
		t.Errorf("SymbolType64 = %d, want 7", got)
	}
}

func TestSymbolInfoSplit32(t *testing.T) {
	info := uint32(42)<<8 | uint32(7)
	if got := SymbolIndex32(info); got != 42 {
		t.Errorf("SymbolIndex32 = %d, want 42", got)
	}
	if got := SymbolType32(info); got != 7 {
		t.Errorf("SymbolType32 = %d, want 7", got)
	}
}

func TestSizeofRecords(t *testing.T) {
	if SizeofDynSym64 != 24 {
		t.Errorf("SizeofDynSym64 = %d, want 24", SizeofDynSym64)
	}
	if SizeofRela64 != 24 {
		t.Errorf("SizeofRela64 = %d, want 24", SizeofRela64)
	}
}

package moqipro

import "testing"

func TestIsHanChar(t *testing.T) {
	tests := []struct {
		r    rune
		want bool
	}{
		{0x3400, true},  // CJK ext A start
		{0x4DBF, true},  // CJK ext A end
		{0x33FF, false}, // just below ext A
		{0x4DC0, false}, // just above ext A
		{0x4E00, true},  // CJK unified start
		{0x9FFF, true},  // CJK unified end
		{0xA000, false},
		{0xF900, true}, // compatibility start
		{0xFAFF, true}, // compatibility end
		{0xFB00, false},
		{0x20000, true}, // ext B start
		{0x2EBEF, true}, // ext B end
		{0x2EBF0, false},
		{0x2F800, false}, // compat supplement: ContainsHan only
		{'呵', true},
		{'A', false},
		{'ー', false},
	}
	for _, tt := range tests {
		if got := IsHanChar(tt.r); got != tt.want {
			t.Errorf("IsHanChar(%#x) = %v, want %v", tt.r, got, tt.want)
		}
	}
}

func TestContainsHan(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"", false},
		{"hello", false},
		{"123-456", false},
		{"不能", true},
		{"mixed不mixed", true},
		{string(rune(0x2F800)), true}, // compat supplement accepted here
		{string(rune(0x2FA20)), false},
	}
	for _, tt := range tests {
		if got := ContainsHan(tt.in); got != tt.want {
			t.Errorf("ContainsHan(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

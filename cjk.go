package moqipro

// han lists the code-point ranges treated as ideographic when deciding
// whether a character can carry an auxiliary code: CJK Extension A,
// CJK Unified, CJK Compatibility and CJK Extension B.
var han = [...]struct{ lo, hi rune }{
	{0x3400, 0x4DBF},
	{0x4E00, 0x9FFF},
	{0xF900, 0xFAFF},
	{0x20000, 0x2EBEF},
}

// IsHanChar reports whether r falls in one of the ideographic ranges
// recognized for auxiliary-code lookup.
func IsHanChar(r rune) bool {
	for _, rg := range han {
		if r >= rg.lo && r <= rg.hi {
			return true
		}
	}
	return false
}

// ContainsHan reports whether s contains at least one ideographic
// character. The scan additionally accepts CJK Compatibility
// Supplement (U+2F800–U+2FA1F), which can appear in dictionary
// headwords even though those characters never receive auxiliary codes.
func ContainsHan(s string) bool {
	for _, r := range s {
		if IsHanChar(r) || (r >= 0x2F800 && r <= 0x2FA1F) {
			return true
		}
	}
	return false
}

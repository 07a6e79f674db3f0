package catalog

import "unicode"

// Collation is the ordering applied to node names within one parent folder
type Collation int

const (
	// CollationCaseFolding orders names case-insensitively, ignoring default-ignorable code units.
	CollationCaseFolding Collation = iota

	// CollationBinary orders names by raw UTF-16 code unit values.
	CollationBinary
)

// String returns the collation name
func (c Collation) String() string {
	if c == CollationBinary {
		return "binary"
	}
	return "case-folding"
}

// CompareNames orders two names under the collation
func CompareNames(a, b []uint16, c Collation) int {
	if c == CollationBinary {
		return compareBinary(a, b)
	}
	return compareFolded(a, b)
}

// compareBinary compares code units as unsigned values; a proper prefix sorts first.
func compareBinary(a, b []uint16) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return -1
			}
			return 1
		}
	}
	switch {
	case len(a) < len(b):
		return -1
	case len(a) > len(b):
		return 1
	}
	return 0
}

// compareFolded walks both names one folded unit at a time, skipping ignorable units.
// NUL folds to 0xFFFF so that it sorts after every other character.
func compareFolded(a, b []uint16) int {
	i, j := 0, 0
	for {
		var c1, c2 uint16
		for c1 == 0 && i < len(a) {
			c1 = foldUnit(a[i])
			i++
		}
		for c2 == 0 && j < len(b) {
			c2 = foldUnit(b[j])
			j++
		}
		if c1 != c2 {
			if c1 < c2 {
				return -1
			}
			return 1
		}
		if c1 == 0 {
			return 0
		}
	}
}

// foldUnit returns the case-folded value of one UTF-16 code unit, or 0 if it is ignorable.
// Only simple lowercase mappings that stay within the character's own script are applied.
func foldUnit(u uint16) uint16 {
	switch {
	case u == 0:
		return 0xFFFF
	case isIgnorable(u):
		return 0
	case u >= 0xD800 && u <= 0xDFFF:
		return u
	}
	l := unicode.ToLower(rune(u))
	// letterlike symbols (Kelvin, Ohm, Angstrom) and U+0130 keep their own sort position
	if (u >= 0x2100 && u <= 0x214F) || (u >= 0x80 && l < 0x80) {
		return u
	}
	return uint16(l)
}

// isIgnorable reports whether the unit is a zero-width joiner, a directional mark or a BOM.
func isIgnorable(u uint16) bool {
	return (u >= 0x200C && u <= 0x200F) ||
		(u >= 0x202A && u <= 0x202E) ||
		(u >= 0x206A && u <= 0x206F) ||
		u == 0xFEFF
}

package component

import (
	"fmt"
)

// FourCC is a four-character component code ('dly4', 'hwir'). The zero
// value is the wildcard and matches any code in a catalog query.
type FourCC uint32

// Any is the wildcard FourCC.
const Any FourCC = 0

// MakeFourCC builds a FourCC from a four-character ASCII string.
func MakeFourCC(s string) (FourCC, error) {
	if len(s) != 4 {
		return 0, fmt.Errorf("fourcc %q: need exactly 4 characters", s)
	}
	var cc FourCC
	for i := 0; i < 4; i++ {
		c := s[i]
		if c < 0x20 || c > 0x7e {
			return 0, fmt.Errorf("fourcc %q: byte %d is not printable ASCII", s, i)
		}
		cc = cc<<8 | FourCC(c)
	}
	return cc, nil
}

// MustFourCC is MakeFourCC for known-good literals; it panics on bad input.
func MustFourCC(s string) FourCC {
	cc, err := MakeFourCC(s)
	if err != nil {
		panic(err)
	}
	return cc
}

// IsWildcard reports whether the code is the match-anything wildcard.
func (cc FourCC) IsWildcard() bool {
	return cc == Any
}

// Matches reports whether cc accepts other under wildcard semantics.
func (cc FourCC) Matches(other FourCC) bool {
	return cc == Any || cc == other
}

// String renders the four characters, or "*" for the wildcard.
func (cc FourCC) String() string {
	if cc == Any {
		return "*"
	}
	b := [4]byte{
		byte(cc >> 24),
		byte(cc >> 16),
		byte(cc >> 8),
		byte(cc),
	}
	for i, c := range b {
		if c < 0x20 || c > 0x7e {
			b[i] = '?'
		}
	}
	return string(b[:])
}

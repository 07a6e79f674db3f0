// Package helpers holds small byte-level utilities shared by the parsers.
package helpers

import (
	"fmt"
	"unicode/utf16"

	"github.com/deploymenttheory/go-hfsplus/internal/types"
)

// CheckLength returns a wrapped types.ErrShortRead if buf does not hold n bytes at off.
func CheckLength(buf []byte, off, n int, what string) error {
	if off < 0 || n < 0 || off > len(buf) || len(buf)-off < n {
		return fmt.Errorf("%s needs %d bytes at offset %d, buffer has %d: %w", what, n, off, len(buf), types.ErrShortRead)
	}
	return nil
}

// DecodeUTF16BE decodes count big-endian UTF-16 code units starting at off.
func DecodeUTF16BE(buf []byte, off, count int) ([]uint16, error) {
	if err := CheckLength(buf, off, count*2, "UTF-16 string"); err != nil {
		return nil, err
	}
	units := make([]uint16, count)
	for i := range units {
		units[i] = uint16(buf[off+2*i])<<8 | uint16(buf[off+2*i+1])
	}
	return units, nil
}

// EncodeUTF16BE writes units as big-endian UTF-16 starting at off.
func EncodeUTF16BE(buf []byte, off int, units []uint16) error {
	if err := CheckLength(buf, off, len(units)*2, "UTF-16 string"); err != nil {
		return err
	}
	for i, u := range units {
		buf[off+2*i] = byte(u >> 8)
		buf[off+2*i+1] = byte(u)
	}
	return nil
}

// UnitsToString converts UTF-16 code units to a Go string, replacing unpaired surrogates.
func UnitsToString(units []uint16) string {
	return string(utf16.Decode(units))
}

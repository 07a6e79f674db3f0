package types

import "errors"

// Error taxonomy shared by every layer of the driver.
// Callers test with errors.Is; all layers wrap these with context using %w.
var (
	// ErrShortRead is returned when a buffer holds fewer bytes than a fixed structure needs.
	ErrShortRead = errors.New("short read")

	// ErrCorruptStructure is returned when a decoded invariant fails: bad magic,
	// node size mismatch, a missing thread or overflow record, or a wrong record type.
	ErrCorruptStructure = errors.New("corrupt structure")

	// ErrNotFound is returned for legitimate lookup misses.
	ErrNotFound = errors.New("not found")

	// ErrUnsupportedVariant is returned for recognized but unimplemented formats,
	// such as LZVN compressed forks or plain HFS volumes.
	ErrUnsupportedVariant = errors.New("unsupported variant")
)

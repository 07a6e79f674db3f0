// File: internal/interfaces/block_device.go
package interfaces

import (
	"io"
)

// RandomAccessSource is the medium a volume is read from: an image file, a raw device
// or an in-memory buffer. Implementations must be safe for the caller's concurrency
// model; the driver itself performs no locking.
//
//go:generate mockgen -source=block_device.go -destination=mocks/block_device_mock.go -package mocks
type RandomAccessSource interface {
	io.ReaderAt
}

// SizedSource is a RandomAccessSource that knows its total length.
type SizedSource interface {
	RandomAccessSource

	// Size returns the total size of the medium in bytes
	Size() int64
}

// ClosableSource is a SizedSource that owns an underlying file handle.
type ClosableSource interface {
	SizedSource
	io.Closer
}

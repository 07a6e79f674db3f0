package hfsplus

import (
	"context"
	"errors"
	"fmt"
	"io"
)

// Extract copies a fork of a file to w in chunks, checking ctx before each chunk.
// It returns the number of bytes written.
func (v *Volume) Extract(ctx context.Context, record *Record, fork Fork, w io.Writer) (int64, error) {
	s, err := v.OpenFork(record, fork)
	if err != nil {
		return 0, err
	}
	return v.copyChunks(ctx, s, w)
}

// ExtractPath looks up path and copies its data fork to w
func (v *Volume) ExtractPath(ctx context.Context, path string, w io.Writer) (int64, error) {
	record, err := v.LookupPath(path)
	if err != nil {
		return 0, err
	}
	return v.Extract(ctx, record, DataFork, w)
}

func (v *Volume) copyChunks(ctx context.Context, src io.Reader, w io.Writer) (int64, error) {
	buf := make([]byte, v.chunkSize)
	var written int64
	for {
		select {
		case <-ctx.Done():
			return written, ctx.Err()
		default:
		}

		n, err := src.Read(buf)
		if n > 0 {
			m, werr := w.Write(buf[:n])
			written += int64(m)
			if werr != nil {
				return written, fmt.Errorf("failed to write after %d bytes: %w", written, werr)
			}
		}
		if errors.Is(err, io.EOF) {
			return written, nil
		}
		if err != nil {
			return written, fmt.Errorf("failed to read after %d bytes: %w", written, err)
		}
	}
}

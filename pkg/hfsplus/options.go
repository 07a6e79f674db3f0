package hfsplus

import "github.com/sirupsen/logrus"

// DefaultChunkSize is the number of bytes Extract copies between cancellation checks
const DefaultChunkSize = 1 << 20

// Option configures a Volume at mount time
type Option func(*Volume)

// WithLogger sets the logger of the volume and every service under it
func WithLogger(logger logrus.FieldLogger) Option {
	return func(v *Volume) {
		if logger != nil {
			v.logger = logger
		}
	}
}

// WithRawForks makes OpenDataFork return the stored data fork of compressed files
// instead of their decompressed contents
func WithRawForks() Option {
	return func(v *Volume) {
		v.rawForks = true
	}
}

// WithChunkSize sets the copy chunk size of Extract
func WithChunkSize(n int) Option {
	return func(v *Volume) {
		if n > 0 {
			v.chunkSize = n
		}
	}
}

// Package disk opens volume images: it locates the HFS+ volume inside a bare volume, a
// GPT disk image or an HFS wrapper and serves reads through a chunk cache.
package disk

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/deploymenttheory/go-hfsplus/internal/interfaces"
)

// ImageSource provides random access to a volume image file. It implements
// interfaces.ClosableSource; reads are absolute, and Offset reports where the volume starts.
type ImageSource struct {
	file   afero.File
	size   int64
	offset int64
	logger logrus.FieldLogger

	chunkSize int64
	maxChunks int
	cacheMu   sync.Mutex
	cache     map[int64][]byte
	order     []int64

	statsMu sync.RWMutex
	stats   ImageStatistics
}

// ImageStatistics tracks image access statistics
type ImageStatistics struct {
	OffsetDetectionTime time.Duration
	OffsetMethod        string
	ChunksRead          int64
	BytesRead           int64
	CacheHits           int64
	CacheMisses         int64
}

var _ interfaces.ClosableSource = (*ImageSource)(nil)

// OpenImage opens an image file on the local filesystem
func OpenImage(path string, config *ImageConfig, logger logrus.FieldLogger) (*ImageSource, error) {
	return OpenImageFs(afero.NewOsFs(), path, config, logger)
}

// OpenImageFs opens an image file on fs and locates the volume within it
func OpenImageFs(fs afero.Fs, path string, config *ImageConfig, logger logrus.FieldLogger) (*ImageSource, error) {
	if config == nil {
		config = DefaultImageConfig()
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	file, err := fs.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image file: %w", err)
	}
	stat, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to stat image file: %w", err)
	}

	img := &ImageSource{
		file:      file,
		size:      stat.Size(),
		logger:    logger,
		chunkSize: int64(config.ChunkSize),
		cache:     make(map[int64][]byte),
		stats:     ImageStatistics{OffsetMethod: "unknown"},
	}
	if img.chunkSize <= 0 {
		img.chunkSize = int64(DefaultImageConfig().ChunkSize)
	}
	if config.CacheEnabled {
		img.maxChunks = int(int64(config.CacheSize) * 1024 * 1024 / img.chunkSize)
	}

	if !config.AutoDetect {
		img.offset = config.DefaultOffset
		img.stats.OffsetMethod = MethodConfigured
		return img, nil
	}

	start := time.Now()
	offset, method, err := DetectVolumeOffset(file)
	img.stats.OffsetDetectionTime = time.Since(start)
	if err != nil {
		img.offset = config.DefaultOffset
		img.stats.OffsetMethod = MethodFallback
		logger.Warnf("[IMAGE] %v; using fallback offset %d", err, img.offset)
		return img, nil
	}

	img.offset = offset
	img.stats.OffsetMethod = method
	logger.Debugf("[IMAGE] volume found via %s at offset %d (0x%x) in %v", method, offset, offset, img.stats.OffsetDetectionTime)
	return img, nil
}

// ReadAt implements io.ReaderAt over the whole image
func (img *ImageSource) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 {
		return 0, fmt.Errorf("negative offset: %d", off)
	}
	if img.maxChunks == 0 {
		if off >= img.size {
			return 0, io.EOF
		}
		n, err := img.file.ReadAt(p, off)
		img.count(int64(n), false)
		if n < len(p) && (err == nil || err == io.ErrUnexpectedEOF) {
			err = io.EOF
		}
		return n, err
	}

	n := 0
	for n < len(p) {
		pos := off + int64(n)
		if pos >= img.size {
			return n, io.EOF
		}
		chunk, err := img.chunk(pos / img.chunkSize)
		if err != nil {
			return n, err
		}
		intra := pos % img.chunkSize
		if intra >= int64(len(chunk)) {
			return n, io.EOF
		}
		n += copy(p[n:], chunk[intra:])
	}
	return n, nil
}

// chunk returns chunk i of the image, reading and caching it on a miss. A chunk past the
// end of the image is empty and not cached.
func (img *ImageSource) chunk(i int64) ([]byte, error) {
	img.cacheMu.Lock()
	defer img.cacheMu.Unlock()

	if data, ok := img.cache[i]; ok {
		img.count(0, true)
		return data, nil
	}

	start := i * img.chunkSize
	if start >= img.size {
		return nil, nil
	}
	data := make([]byte, min(img.chunkSize, img.size-start))
	n, err := img.file.ReadAt(data, start)
	if err != nil && err != io.EOF {
		return nil, err
	}
	data = data[:n]
	img.count(int64(n), false)

	if len(img.order) >= img.maxChunks {
		delete(img.cache, img.order[0])
		img.order = img.order[1:]
	}
	img.cache[i] = data
	img.order = append(img.order, i)
	return data, nil
}

func (img *ImageSource) count(n int64, hit bool) {
	img.statsMu.Lock()
	defer img.statsMu.Unlock()
	if hit {
		img.stats.CacheHits++
		return
	}
	img.stats.CacheMisses++
	img.stats.ChunksRead++
	img.stats.BytesRead += n
}

// Size returns the size of the image
func (img *ImageSource) Size() int64 {
	return img.size
}

// Offset returns the byte offset of the volume within the image
func (img *ImageSource) Offset() int64 {
	return img.offset
}

// Close closes the image file
func (img *ImageSource) Close() error {
	if img.file != nil {
		return img.file.Close()
	}
	return nil
}

// OffsetInfo returns information about the detected offset
func (img *ImageSource) OffsetInfo() (int64, string, time.Duration) {
	img.statsMu.RLock()
	defer img.statsMu.RUnlock()
	return img.offset, img.stats.OffsetMethod, img.stats.OffsetDetectionTime
}

// Stats returns a snapshot of the access statistics
func (img *ImageSource) Stats() ImageStatistics {
	img.statsMu.RLock()
	defer img.statsMu.RUnlock()
	return img.stats
}

// CacheHitRate returns the cache hit rate as a percentage
func (img *ImageSource) CacheHitRate() float64 {
	s := img.Stats()
	total := s.CacheHits + s.CacheMisses
	if total == 0 {
		return 0.0
	}
	return float64(s.CacheHits) / float64(total) * 100.0
}

// ClearCache drops every cached chunk
func (img *ImageSource) ClearCache() {
	img.cacheMu.Lock()
	defer img.cacheMu.Unlock()
	img.cache = make(map[int64][]byte)
	img.order = nil
}

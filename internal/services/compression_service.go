package services

import (
	"bytes"
	"compress/flate"
	"encoding/binary"
	"fmt"
	"hash/adler32"
	"io"

	"github.com/sirupsen/logrus"

	"github.com/deploymenttheory/go-hfsplus/internal/parsers/compression"
	"github.com/deploymenttheory/go-hfsplus/internal/types"
)

// CompressionService handles decompression of decmpfs compressed data
type CompressionService struct {
	logger logrus.FieldLogger
}

// NewCompressionService creates a new compression service
func NewCompressionService(logger logrus.FieldLogger) *CompressionService {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &CompressionService{logger: logger}
}

// CheckSupported reports whether a compression type can be decoded. Documented types
// that use other codecs are types.ErrUnsupportedVariant; anything else is corruption.
func (cs *CompressionService) CheckSupported(t types.CompressionType) error {
	switch {
	case t == types.CompressionZlibInline || t == types.CompressionZlibResource:
		return nil
	case t.IsKnown():
		return fmt.Errorf("decmpfs compression type %d (%s): %w", uint32(t), t, types.ErrUnsupportedVariant)
	default:
		return fmt.Errorf("unknown decmpfs compression type %d: %w", uint32(t), types.ErrCorruptStructure)
	}
}

// DecompressInline decodes the payload that follows an inline decmpfs header. The first
// byte selects literal data or a zlib stream that must inflate to exactly rawSize bytes.
func (cs *CompressionService) DecompressInline(payload []byte, rawSize uint64) ([]byte, error) {
	if len(payload) == 0 {
		if rawSize == 0 {
			return []byte{}, nil
		}
		return nil, fmt.Errorf("inline compressed payload is empty, expected %d bytes: %w", rawSize, types.ErrCorruptStructure)
	}

	if compression.IsLiteral(payload[0]) {
		data := payload[1:]
		if uint64(len(data)) < rawSize {
			return nil, fmt.Errorf("inline literal payload has %d bytes, expected %d: %w", len(data), rawSize, types.ErrCorruptStructure)
		}
		if uint64(len(data)) > rawSize {
			cs.logger.Warnf("[DECMPFS] inline literal payload has %d bytes, expected %d", len(data), rawSize)
		}
		return data[:rawSize], nil
	}

	return cs.DecompressDeflateZlib(payload, rawSize)
}

// DecompressBlock decodes one block of a resource fork compressed file. A literal block
// holds its data after the flag byte; any other block is a raw DEFLATE stream after the
// two byte zlib header.
func (cs *CompressionService) DecompressBlock(block []byte) ([]byte, error) {
	if len(block) == 0 {
		return nil, fmt.Errorf("empty compressed block: %w", types.ErrCorruptStructure)
	}
	if compression.IsLiteral(block[0]) {
		return block[1:], nil
	}
	if len(block) < 2 {
		return nil, fmt.Errorf("compressed block of %d bytes has no zlib header: %w", len(block), types.ErrCorruptStructure)
	}
	return cs.DecompressDeflate(block[2:])
}

// DecompressDeflate decompresses raw DEFLATE data. Bytes after the final block are ignored.
func (cs *CompressionService) DecompressDeflate(compressedData []byte) ([]byte, error) {
	reader := flate.NewReader(bytes.NewReader(compressedData))
	defer reader.Close()

	var result bytes.Buffer
	if _, err := result.ReadFrom(reader); err != nil {
		return nil, fmt.Errorf("deflate decompression failed: %v: %w", err, types.ErrCorruptStructure)
	}

	return result.Bytes(), nil
}

// DecompressDeflateZlib decompresses zlib-wrapped DEFLATE data (RFC 1950) that must
// produce exactly want bytes and end with its Adler-32 checksum.
func (cs *CompressionService) DecompressDeflateZlib(compressedData []byte, want uint64) ([]byte, error) {
	if len(compressedData) < 6 {
		return nil, fmt.Errorf("insufficient data for zlib format: %w", types.ErrCorruptStructure)
	}

	// Verify zlib header
	header := binary.BigEndian.Uint16(compressedData[:2])
	if (header%31) != 0 || compressedData[0]&0x0F != 8 {
		return nil, fmt.Errorf("invalid zlib header 0x%04x: %w", header, types.ErrCorruptStructure)
	}

	// flate reads a bytes.Reader one byte at a time, so what is left afterwards is
	// exactly the input it did not consume.
	input := bytes.NewReader(compressedData[2:])
	reader := flate.NewReader(input)
	defer reader.Close()

	decompressed, err := io.ReadAll(io.LimitReader(reader, int64(want)+1))
	if err != nil {
		return nil, fmt.Errorf("deflate decompression failed: %v: %w", err, types.ErrCorruptStructure)
	}
	if uint64(len(decompressed)) != want {
		return nil, fmt.Errorf("zlib stream inflates to %d bytes or more, expected %d: %w", len(decompressed), want, types.ErrCorruptStructure)
	}

	trailer := make([]byte, input.Len())
	_, _ = input.Read(trailer)
	if len(trailer) != 4 {
		return nil, fmt.Errorf("zlib stream leaves %d bytes after the deflate data, expected a 4 byte checksum: %w", len(trailer), types.ErrCorruptStructure)
	}

	// Verify Adler-32 checksum
	expectedChecksum := binary.BigEndian.Uint32(trailer)
	if !cs.VerifyDeflateChecksum(decompressed, expectedChecksum) {
		return nil, fmt.Errorf("adler32 checksum mismatch: expected %08x, got %08x: %w",
			expectedChecksum, cs.ComputeDeflateChecksum(decompressed), types.ErrCorruptStructure)
	}

	return decompressed, nil
}

// VerifyDeflateChecksum verifies the Adler-32 checksum of deflate data
func (cs *CompressionService) VerifyDeflateChecksum(data []byte, expectedChecksum uint32) bool {
	return adler32.Checksum(data) == expectedChecksum
}

// ComputeDeflateChecksum computes the Adler-32 checksum for data
func (cs *CompressionService) ComputeDeflateChecksum(data []byte) uint32 {
	return adler32.Checksum(data)
}

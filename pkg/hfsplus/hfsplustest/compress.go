package hfsplustest

import (
	"bytes"
	"compress/zlib"

	"github.com/deploymenttheory/go-hfsplus/internal/parsers/compression"
	"github.com/deploymenttheory/go-hfsplus/internal/types"
)

// literalFlag precedes data stored without compression
const literalFlag = 0xFF

// Block is one block of a resource fork compressed file
type Block struct {
	Data    []byte
	Literal bool
}

// Zlib returns data as a complete zlib stream
func Zlib(data []byte) []byte {
	var buf bytes.Buffer
	w := zlib.NewWriter(&buf)
	_, _ = w.Write(data)
	_ = w.Close()
	return buf.Bytes()
}

func encode(b Block) []byte {
	if b.Literal {
		return append([]byte{literalFlag}, b.Data...)
	}
	return Zlib(b.Data)
}

// DecmpfsHeader encodes a decmpfs header of the given type and size
func DecmpfsHeader(t types.CompressionType, rawSize uint64) []byte {
	buf := make([]byte, compression.DecmpfsHeaderLength)
	_ = compression.EncodeDecmpfsHeader(buf, 0, types.DecmpfsHeaderT{
		Magic:           types.DecmpfsMagic,
		CompressionType: t,
		RawFileSize:     rawSize,
	})
	return buf
}

// CompressInline returns the decmpfs attribute value of an inline compressed file
func CompressInline(data []byte, literal bool) []byte {
	attr := DecmpfsHeader(types.CompressionZlibInline, uint64(len(data)))
	return append(attr, encode(Block{Data: data, Literal: literal})...)
}

// CompressBlocks returns the decmpfs attribute value and the resource fork of a file
// compressed into the given blocks
func CompressBlocks(blocks []Block) (attr, resource []byte) {
	encoded := make([][]byte, len(blocks))
	entries := make([]types.CompressedBlockEntryT, len(blocks))
	off := uint32(compression.BlockTableLength(uint32(len(blocks))))
	var rawSize uint64
	for i, b := range blocks {
		encoded[i] = encode(b)
		entries[i] = types.CompressedBlockEntryT{Offset: off, Length: uint32(len(encoded[i]))}
		off += uint32(len(encoded[i]))
		rawSize += uint64(len(b.Data))
	}

	payload := compression.EncodeBlockTable(entries)
	for _, e := range encoded {
		payload = append(payload, e...)
	}
	return DecmpfsHeader(types.CompressionZlibResource, rawSize), compression.BuildCompressedResourceFork(payload)
}

// CompressResource splits data into blocks of blockSize bytes and compresses each
func CompressResource(data []byte, blockSize int) (attr, resource []byte) {
	var blocks []Block
	for off := 0; off < len(data); off += blockSize {
		end := off + blockSize
		if end > len(data) {
			end = len(data)
		}
		blocks = append(blocks, Block{Data: data[off:end]})
	}
	return CompressBlocks(blocks)
}

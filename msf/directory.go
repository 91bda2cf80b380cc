package msf

import (
	"encoding/binary"
	"fmt"
	"io"
)

// NilStreamSize marks a deleted stream in the directory.
const NilStreamSize = 0xFFFFFFFF

// Well-known stream indices.
const (
	StreamOldDirectory = 0
	StreamPDBInfo      = 1
	StreamTPI          = 2
	StreamDBI          = 3
	StreamIPI          = 4
)

var (
	ErrTruncatedDirectory = fmt.Errorf("%w: truncated stream directory", ErrInvalidFormat)
	ErrInvalidStreamIndex = fmt.Errorf("%w: stream index out of range", ErrInvalidFormat)
	ErrInvalidBlockIndex  = fmt.Errorf("%w: block index out of range", ErrInvalidFormat)
)

// StreamDirectory lists every stream's size and the blocks it occupies.
type StreamDirectory struct {
	NumStreams   uint32
	StreamSizes  []uint32
	StreamBlocks [][]uint32
}

// ParseDirectory decodes the concatenated directory blocks. Every block
// index is checked against numBlocks.
func ParseDirectory(data []byte, blockSize, numBlocks uint32) (*StreamDirectory, error) {
	if len(data) < 4 {
		return nil, ErrTruncatedDirectory
	}
	n := binary.LittleEndian.Uint32(data)
	off := 4
	if uint64(len(data)-off) < uint64(n)*4 {
		return nil, ErrTruncatedDirectory
	}

	dir := &StreamDirectory{
		NumStreams:   n,
		StreamSizes:  make([]uint32, n),
		StreamBlocks: make([][]uint32, n),
	}
	for i := range dir.StreamSizes {
		dir.StreamSizes[i] = binary.LittleEndian.Uint32(data[off:])
		off += 4
	}

	for i, size := range dir.StreamSizes {
		if size == NilStreamSize || size == 0 {
			continue
		}
		count := blocksFor(size, blockSize)
		if uint64(len(data)-off) < uint64(count)*4 {
			return nil, ErrTruncatedDirectory
		}
		blocks := make([]uint32, count)
		for j := range blocks {
			blocks[j] = binary.LittleEndian.Uint32(data[off:])
			off += 4
			if blocks[j] >= numBlocks {
				return nil, fmt.Errorf("%w: stream %d block %d", ErrInvalidBlockIndex, i, blocks[j])
			}
		}
		dir.StreamBlocks[i] = blocks
	}
	return dir, nil
}

// StreamSize returns the stream's byte size; nil and missing streams are 0.
func (d *StreamDirectory) StreamSize(index uint32) uint32 {
	if index >= d.NumStreams || d.StreamSizes[index] == NilStreamSize {
		return 0
	}
	return d.StreamSizes[index]
}

// StreamExists reports whether the stream is present and non-empty.
func (d *StreamDirectory) StreamExists(index uint32) bool {
	return d.StreamSize(index) > 0
}

// readDirectory follows BlockMapAddr to the directory blocks and parses them.
func readDirectory(sb *SuperBlock, r io.ReaderAt) (*StreamDirectory, error) {
	numDirBlocks := sb.NumDirectoryBlocks()
	if numDirBlocks == 0 || numDirBlocks > sb.NumBlocks {
		return nil, fmt.Errorf("%w: directory spans %d blocks", ErrTruncatedDirectory, numDirBlocks)
	}
	mapBlocks := blocksFor(numDirBlocks*4, sb.BlockSize)
	if uint64(sb.BlockMapAddr)+uint64(mapBlocks) > uint64(sb.NumBlocks) {
		return nil, fmt.Errorf("%w: block map", ErrInvalidBlockIndex)
	}

	mapData := make([]byte, mapBlocks*sb.BlockSize)
	if err := readBlock(r, mapData, sb.BlockOffset(sb.BlockMapAddr)); err != nil {
		return nil, fmt.Errorf("block map: %w", err)
	}

	dirData := make([]byte, numDirBlocks*sb.BlockSize)
	for i := uint32(0); i < numDirBlocks; i++ {
		block := binary.LittleEndian.Uint32(mapData[i*4:])
		if block >= sb.NumBlocks {
			return nil, fmt.Errorf("%w: directory block %d", ErrInvalidBlockIndex, block)
		}
		chunk := dirData[i*sb.BlockSize : (i+1)*sb.BlockSize]
		if err := readBlock(r, chunk, sb.BlockOffset(block)); err != nil {
			return nil, fmt.Errorf("directory block %d: %w", block, err)
		}
	}

	return ParseDirectory(dirData[:sb.NumDirectoryBytes], sb.BlockSize, sb.NumBlocks)
}

// readBlock fills buf from off. io.EOF is only accepted together with a
// full buffer.
func readBlock(r io.ReaderAt, buf []byte, off int64) error {
	n, err := r.ReadAt(buf, off)
	if n == len(buf) && (err == nil || err == io.EOF) {
		return nil
	}
	if err != nil && err != io.EOF {
		return fmt.Errorf("%w: %w", ErrRead, err)
	}
	return fmt.Errorf("%w: read %d of %d bytes", ErrTruncatedDirectory, n, len(buf))
}

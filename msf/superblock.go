// Package msf reads the MSF (Multi-Stream File) container that wraps
// every PDB file. It knows nothing about the streams it serves.
package msf

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
)

// Magic is the signature of an MSF 7.00 ("BigMsf") container.
const Magic = "Microsoft C/C++ MSF 7.00\r\n\x1a\x44\x53\x00\x00\x00"

// LegacyMagic prefixes the MSF 2.00 ("SmallMsf") containers written by
// toolchains before VC 7.0. They are recognised but not read.
const LegacyMagic = "Microsoft C/C++ program database 2.00\r\n\x1a\x4a\x47"

const (
	MagicSize      = 32
	SuperBlockSize = 56

	BlockSizeMin uint32 = 512
	BlockSizeMax uint32 = 65536
)

// Format errors. Everything that describes a malformed container wraps
// ErrInvalidFormat so callers can classify failures with errors.Is.
var (
	ErrInvalidFormat   = errors.New("msf: invalid container format")
	ErrLegacyFormat    = errors.New("msf: MSF 2.00 containers are not supported")
	ErrRead            = errors.New("msf: read failed")
	ErrInvalidMagic    = fmt.Errorf("%w: bad magic signature", ErrInvalidFormat)
	ErrInvalidBlock    = fmt.Errorf("%w: bad block size", ErrInvalidFormat)
	ErrInvalidFPMBlock = fmt.Errorf("%w: free block map must be block 1 or 2", ErrInvalidFormat)
	ErrTruncatedFile   = fmt.Errorf("%w: file is truncated", ErrInvalidFormat)
)

// SuperBlock sits at offset 0 and locates the stream directory.
type SuperBlock struct {
	FileMagic         [MagicSize]byte
	BlockSize         uint32
	FreeBlockMapBlock uint32
	NumBlocks         uint32
	NumDirectoryBytes uint32
	Unknown           uint32

	// BlockMapAddr is the block holding the list of directory blocks.
	BlockMapAddr uint32
}

// ParseSuperBlock decodes and validates the first SuperBlockSize bytes
// of a container.
func ParseSuperBlock(data []byte) (*SuperBlock, error) {
	if bytes.HasPrefix(data, []byte(LegacyMagic)) {
		return nil, ErrLegacyFormat
	}
	if len(data) < SuperBlockSize {
		return nil, ErrTruncatedFile
	}

	var sb SuperBlock
	if err := binary.Read(bytes.NewReader(data[:SuperBlockSize]), binary.LittleEndian, &sb); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidFormat, err)
	}
	if err := sb.Validate(); err != nil {
		return nil, err
	}
	return &sb, nil
}

// Validate checks the superblock for internal consistency.
func (sb *SuperBlock) Validate() error {
	if string(sb.FileMagic[:]) != Magic {
		return ErrInvalidMagic
	}
	if sb.BlockSize < BlockSizeMin || sb.BlockSize > BlockSizeMax || sb.BlockSize&(sb.BlockSize-1) != 0 {
		return fmt.Errorf("%w: %d", ErrInvalidBlock, sb.BlockSize)
	}
	if sb.FreeBlockMapBlock != 1 && sb.FreeBlockMapBlock != 2 {
		return ErrInvalidFPMBlock
	}
	if sb.NumBlocks == 0 || sb.BlockMapAddr >= sb.NumBlocks {
		return fmt.Errorf("%w: block map address %d outside %d blocks", ErrInvalidFormat, sb.BlockMapAddr, sb.NumBlocks)
	}
	return nil
}

// NumDirectoryBlocks returns the number of blocks the stream directory spans.
func (sb *SuperBlock) NumDirectoryBlocks() uint32 {
	return blocksFor(sb.NumDirectoryBytes, sb.BlockSize)
}

// FileSize is the minimum size the container must have.
func (sb *SuperBlock) FileSize() int64 {
	return int64(sb.NumBlocks) * int64(sb.BlockSize)
}

// BlockOffset returns the file offset of a block.
func (sb *SuperBlock) BlockOffset(block uint32) int64 {
	return int64(block) * int64(sb.BlockSize)
}

func blocksFor(size, blockSize uint32) uint32 {
	return uint32((uint64(size) + uint64(blockSize) - 1) / uint64(blockSize))
}

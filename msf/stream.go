package msf

import (
	"fmt"
	"io"

	"modernc.org/mathutil"
)

// Stream is a read-only view of one stream. Its blocks need not be
// contiguous in the file.
type Stream struct {
	r         io.ReaderAt
	blocks    []uint32
	blockSize uint32
	size      uint32
}

// NewStream creates a view over the given blocks.
func NewStream(r io.ReaderAt, blocks []uint32, blockSize, size uint32) *Stream {
	return &Stream{r: r, blocks: blocks, blockSize: blockSize, size: size}
}

// ReadAt implements io.ReaderAt across block boundaries.
func (s *Stream) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 {
		return 0, fmt.Errorf("msf: negative offset %d", off)
	}
	if off >= int64(s.size) {
		return 0, io.EOF
	}

	pos := uint32(off)
	n := 0
	for len(p) > 0 && pos < s.size {
		bi := pos / s.blockSize
		if int(bi) >= len(s.blocks) {
			return n, io.ErrUnexpectedEOF
		}
		within := pos % s.blockSize
		chunk := mathutil.MinUint32(mathutil.MinUint32(uint32(len(p)), s.blockSize-within), s.size-pos)

		read, err := s.r.ReadAt(p[:chunk], int64(s.blocks[bi])*int64(s.blockSize)+int64(within))
		n += read
		pos += uint32(read)
		p = p[read:]
		if err != nil && !(err == io.EOF && uint32(read) == chunk) {
			return n, fmt.Errorf("%w: %w", ErrRead, err)
		}
	}
	if len(p) > 0 {
		return n, io.EOF
	}
	return n, nil
}

// Size returns the stream size in bytes.
func (s *Stream) Size() uint32 {
	return s.size
}

// Bytes reads the whole stream.
func (s *Stream) Bytes() ([]byte, error) {
	data := make([]byte, s.size)
	n, err := s.ReadAt(data, 0)
	if err != nil && err != io.EOF {
		return nil, err
	}
	return data[:n], nil
}

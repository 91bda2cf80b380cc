package msf

import (
	"fmt"
	"io"
	"os"
	"sync"

	"modernc.org/mathutil"
)

// File is an open MSF container. It is safe for concurrent use.
type File struct {
	r          io.ReaderAt
	closer     io.Closer
	size       int64
	superBlock *SuperBlock

	dirOnce   sync.Once
	directory *StreamDirectory
	dirErr    error
}

// Open opens the container at path.
func Open(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRead, err)
	}
	stat, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%w: %w", ErrRead, err)
	}

	m, err := NewFile(f, stat.Size())
	if err != nil {
		f.Close()
		return nil, err
	}
	m.closer = f
	return m, nil
}

// NewFile reads a container from r. The caller keeps ownership of r.
func NewFile(r io.ReaderAt, size int64) (*File, error) {
	head := make([]byte, mathutil.MinInt64(size, int64(len(LegacyMagic)+SuperBlockSize)))
	if _, err := r.ReadAt(head, 0); err != nil && err != io.EOF {
		return nil, fmt.Errorf("%w: superblock: %w", ErrRead, err)
	}

	sb, err := ParseSuperBlock(head)
	if err != nil {
		return nil, err
	}
	if size < sb.FileSize() {
		return nil, fmt.Errorf("%w: have %d bytes, need %d", ErrTruncatedFile, size, sb.FileSize())
	}
	return &File{r: r, size: size, superBlock: sb}, nil
}

// Close releases the file handle if the container owns one.
func (f *File) Close() error {
	if f.closer != nil {
		return f.closer.Close()
	}
	return nil
}

// SuperBlock returns the parsed superblock.
func (f *File) SuperBlock() *SuperBlock {
	return f.superBlock
}

// Directory returns the stream directory, reading it on first use.
func (f *File) Directory() (*StreamDirectory, error) {
	f.dirOnce.Do(func() {
		f.directory, f.dirErr = readDirectory(f.superBlock, f.r)
	})
	return f.directory, f.dirErr
}

// StreamExists reports whether stream index is present and non-empty.
func (f *File) StreamExists(index uint32) bool {
	dir, err := f.Directory()
	return err == nil && dir.StreamExists(index)
}

// OpenStream returns a reader over one stream.
func (f *File) OpenStream(index uint32) (*Stream, error) {
	dir, err := f.Directory()
	if err != nil {
		return nil, err
	}
	if index >= dir.NumStreams {
		return nil, fmt.Errorf("%w: %d", ErrInvalidStreamIndex, index)
	}
	return NewStream(f.r, dir.StreamBlocks[index], f.superBlock.BlockSize, dir.StreamSize(index)), nil
}

// ReadStream reads a whole stream into memory.
func (f *File) ReadStream(index uint32) ([]byte, error) {
	s, err := f.OpenStream(index)
	if err != nil {
		return nil, err
	}
	return s.Bytes()
}

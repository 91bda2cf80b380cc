package tpi

import (
	"errors"
	"fmt"

	"github.com/skdltmxn/resym-go/internal/stream"
	"modernc.org/mathutil"
)

// TPI stream versions.
const (
	VersionV40 uint32 = 19950410
	VersionV41 uint32 = 19951122
	VersionV50 uint32 = 19961031
	VersionV70 uint32 = 19990903
	VersionV80 uint32 = 20040203
)

// HeaderSize is the size of the fixed TPI header.
const HeaderSize = 56

var (
	ErrInvalidHeader      = errors.New("tpi: invalid stream header")
	ErrUnsupportedVersion = errors.New("tpi: unsupported stream version")
	ErrTruncated          = errors.New("tpi: truncated record")
	ErrMalformed          = errors.New("tpi: malformed record")
)

// Header is the fixed header at the start of the TPI and IPI streams.
type Header struct {
	Version         uint32
	HeaderSize      uint32
	TypeIndexBegin  TypeIndex
	TypeIndexEnd    TypeIndex
	TypeRecordBytes uint32
	HashStreamIndex uint16
	HashAuxIndex    uint16
	HashKeySize     uint32
	NumHashBuckets  uint32
}

// TypeCount returns the number of records the header announces.
func (h *Header) TypeCount() uint32 {
	if h.TypeIndexEnd < h.TypeIndexBegin {
		return 0
	}
	return uint32(h.TypeIndexEnd - h.TypeIndexBegin)
}

// ParseHeader decodes and validates the stream header.
func ParseHeader(data []byte) (*Header, error) {
	if len(data) < HeaderSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrInvalidHeader, len(data))
	}
	r := stream.NewReader(data)

	var h Header
	h.Version, _ = r.ReadU32()
	switch h.Version {
	case VersionV70, VersionV80:
	case VersionV40, VersionV41, VersionV50:
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, h.Version)
	default:
		if h.Version > VersionV80 && h.Version < 30000000 {
			return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, h.Version)
		}
		return nil, fmt.Errorf("%w: version %d", ErrInvalidHeader, h.Version)
	}

	h.HeaderSize, _ = r.ReadU32()
	begin, _ := r.ReadU32()
	end, _ := r.ReadU32()
	h.TypeIndexBegin, h.TypeIndexEnd = TypeIndex(begin), TypeIndex(end)
	h.TypeRecordBytes, _ = r.ReadU32()
	h.HashStreamIndex, _ = r.ReadU16()
	h.HashAuxIndex, _ = r.ReadU16()
	h.HashKeySize, _ = r.ReadU32()
	h.NumHashBuckets, _ = r.ReadU32()

	if h.HeaderSize < HeaderSize || int(h.HeaderSize) > len(data) {
		return nil, fmt.Errorf("%w: header size %d", ErrInvalidHeader, h.HeaderSize)
	}
	if h.TypeIndexBegin < FirstUserTypeIndex || h.TypeIndexEnd < h.TypeIndexBegin {
		return nil, fmt.Errorf("%w: index range [%#x, %#x)", ErrInvalidHeader, h.TypeIndexBegin, h.TypeIndexEnd)
	}
	return &h, nil
}

// RawRecord is one framed record: its index, leaf kind and payload (the
// bytes after the kind, including trailing pad bytes).
type RawRecord struct {
	Index  TypeIndex
	Kind   LeafKind
	Offset int
	Data   []byte
}

// FrameError reports a record whose length prefix runs past the end of
// the record area.
type FrameError struct {
	Index  TypeIndex
	Offset int
	Err    error
}

func (e *FrameError) Error() string {
	return fmt.Sprintf("tpi: record %#x at offset %d: %v", e.Index, e.Offset, e.Err)
}

func (e *FrameError) Unwrap() error { return e.Err }

// Records splits the record area that follows the header into framed
// records. On a framing error it returns every record before the bad one
// together with a *FrameError.
func Records(h *Header, data []byte) ([]RawRecord, error) {
	area := data[mathutil.Min(int(h.HeaderSize), len(data)):]
	if uint64(len(area)) > uint64(h.TypeRecordBytes) {
		area = area[:h.TypeRecordBytes]
	}

	records := make([]RawRecord, 0, h.TypeCount())
	r := stream.NewReader(area)
	ti := h.TypeIndexBegin
	for r.Remaining() > 0 {
		off := r.Offset()
		length, err := r.ReadU16()
		if err != nil {
			return records, &FrameError{Index: ti, Offset: off, Err: ErrTruncated}
		}
		if length < 2 {
			return records, &FrameError{Index: ti, Offset: off, Err: fmt.Errorf("%w: length %d", ErrMalformed, length)}
		}
		body, err := r.ReadBytesRef(int(length))
		if err != nil {
			return records, &FrameError{Index: ti, Offset: off, Err: fmt.Errorf("%w: need %d bytes, have %d", ErrTruncated, length, r.Remaining())}
		}
		records = append(records, RawRecord{
			Index:  ti,
			Kind:   LeafKind(uint16(body[0]) | uint16(body[1])<<8),
			Offset: off,
			Data:   body[2:],
		})
		ti++
	}
	if uint64(len(area)) < uint64(h.TypeRecordBytes) {
		return records, &FrameError{Index: ti, Offset: len(area), Err: fmt.Errorf("%w: record area holds %d of %d bytes", ErrTruncated, len(area), h.TypeRecordBytes)}
	}
	return records, nil
}

// Package pdb loads PDB files and exposes their type information as an
// immutable, index-addressed record graph with name lookup and layout
// computation on top.
package pdb

import (
	"errors"
	"fmt"
)

// Load failures. A *LoadError matches exactly one of these with errors.Is.
var (
	ErrInvalidFormat      = errors.New("pdb: invalid format")
	ErrIO                 = errors.New("pdb: i/o error")
	ErrUnsupportedVersion = errors.New("pdb: unsupported version")
)

// Decode failures, matched by *DecodeError.
var (
	ErrTruncated = errors.New("pdb: truncated record")
	ErrMalformed = errors.New("pdb: malformed record")
)

// Lookup and layout failures.
var (
	ErrNotFound            = errors.New("pdb: type not found")
	ErrAmbiguous           = errors.New("pdb: ambiguous type name")
	ErrUnresolvedReference = errors.New("pdb: unresolved type reference")
	ErrCyclicLayout        = errors.New("pdb: cyclic type layout")
	ErrLayoutOverflow      = errors.New("pdb: member extends past aggregate size")
	ErrBitfieldOverlap     = errors.New("pdb: overlapping bitfields")
	ErrModuleNotFound      = errors.New("pdb: module not found")
)

// LoadErrorKind classifies a failed load.
type LoadErrorKind int

const (
	LoadInvalidFormat LoadErrorKind = iota + 1
	LoadIO
	LoadUnsupportedVersion
)

func (k LoadErrorKind) String() string {
	switch k {
	case LoadInvalidFormat:
		return "invalid format"
	case LoadIO:
		return "i/o error"
	case LoadUnsupportedVersion:
		return "unsupported version"
	default:
		return "unknown"
	}
}

// LoadError is returned by LoadFromFile and OpenReader.
type LoadError struct {
	Kind LoadErrorKind
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("pdb: load: %s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("pdb: load %s: %s: %v", e.Path, e.Kind, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// Is matches the sentinel for the error's kind.
func (e *LoadError) Is(target error) bool {
	switch target {
	case ErrInvalidFormat:
		return e.Kind == LoadInvalidFormat
	case ErrIO:
		return e.Kind == LoadIO
	case ErrUnsupportedVersion:
		return e.Kind == LoadUnsupportedVersion
	}
	return false
}

// DecodeErrorKind classifies a record that could not be decoded.
type DecodeErrorKind int

const (
	// DecodeTruncated: the record runs past the end of the stream. It and
	// everything after it are lost.
	DecodeTruncated DecodeErrorKind = iota + 1
	// DecodeMalformed: the payload is inconsistent. The record is kept as
	// *Unknown.
	DecodeMalformed
	// DecodeIncomplete: a field list contains a sub-record kind that
	// cannot be skipped; entries after it are lost.
	DecodeIncomplete
)

func (k DecodeErrorKind) String() string {
	switch k {
	case DecodeTruncated:
		return "truncated"
	case DecodeMalformed:
		return "malformed"
	case DecodeIncomplete:
		return "incomplete"
	default:
		return "unknown"
	}
}

// DecodeError describes one record the decoder could not fully read.
type DecodeError struct {
	Kind   DecodeErrorKind
	Index  TypeIndex
	Offset int
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("pdb: decode type %#x (offset %d): %s: %v", uint32(e.Index), e.Offset, e.Kind, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Is matches ErrTruncated or ErrMalformed.
func (e *DecodeError) Is(target error) bool {
	switch target {
	case ErrTruncated:
		return e.Kind == DecodeTruncated
	case ErrMalformed:
		return e.Kind == DecodeMalformed || e.Kind == DecodeIncomplete
	}
	return false
}

// LayoutError reports why the layout of a type could not be computed.
type LayoutError struct {
	Index TypeIndex
	Err   error
}

func (e *LayoutError) Error() string {
	return fmt.Sprintf("pdb: layout of type %#x: %v", uint32(e.Index), e.Err)
}

func (e *LayoutError) Unwrap() error { return e.Err }

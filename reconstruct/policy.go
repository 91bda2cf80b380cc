package reconstruct

import (
	"fmt"
	"strings"
)

// PrimitiveFlavor selects how built-in types are spelled.
type PrimitiveFlavor int

const (
	// Portable spells fixed-width types with <cstdint> aliases.
	Portable PrimitiveFlavor = iota
	// Microsoft uses the Windows SDK typedefs (LONG, ULONGLONG, ...).
	Microsoft
	// Raw prints the decoder's primitive kind names unchanged.
	Raw
	// Msvc uses the compiler's keywords (long, __int64, ...).
	Msvc
)

var primitiveFlavorNames = []string{"portable", "microsoft", "raw", "msvc"}

func (f PrimitiveFlavor) String() string {
	if f < 0 || int(f) >= len(primitiveFlavorNames) {
		return fmt.Sprintf("PrimitiveFlavor(%d)", int(f))
	}
	return primitiveFlavorNames[f]
}

// ParsePrimitiveFlavor parses a flavor name, case-insensitively.
func ParsePrimitiveFlavor(s string) (PrimitiveFlavor, error) {
	for i, name := range primitiveFlavorNames {
		if strings.EqualFold(s, name) {
			return PrimitiveFlavor(i), nil
		}
	}
	return 0, fmt.Errorf("%w: unknown primitive flavor %q", ErrInvalidPolicy, s)
}

// AccessFlavor selects when access specifiers are printed.
type AccessFlavor int

const (
	// Automatic prints a specifier only when the access level changes.
	Automatic AccessFlavor = iota
	// Disabled never prints specifiers.
	Disabled
	// Always prints a specifier before every member.
	Always
)

var accessFlavorNames = []string{"automatic", "disabled", "always"}

func (f AccessFlavor) String() string {
	if f < 0 || int(f) >= len(accessFlavorNames) {
		return fmt.Sprintf("AccessFlavor(%d)", int(f))
	}
	return accessFlavorNames[f]
}

// ParseAccessFlavor parses an access flavor name, case-insensitively.
func ParseAccessFlavor(s string) (AccessFlavor, error) {
	for i, name := range accessFlavorNames {
		if strings.EqualFold(s, name) {
			return AccessFlavor(i), nil
		}
	}
	return 0, fmt.Errorf("%w: unknown access flavor %q", ErrInvalidPolicy, s)
}

// Policy is the formatting configuration of one reconstruction. It is
// passed by value and never modified.
type Policy struct {
	PrimitiveFlavor         PrimitiveFlavor
	AccessFlavor            AccessFlavor
	ReconstructDependencies bool
	IntegersAsHex           bool
	PrintSizeInfo           bool
	PrintOffsetInfo         bool
	BracketsOnNewLine       bool
	IgnoreStdTypes          bool

	// PrintHeader prepends a comment naming the source file and machine.
	PrintHeader bool
	// PreferFirstMatch resolves ambiguous names to the first definition
	// decoded instead of failing.
	PreferFirstMatch bool
}

// DefaultPolicy returns the settings the tool starts with.
func DefaultPolicy() Policy {
	return Policy{
		PrimitiveFlavor:         Portable,
		AccessFlavor:            Automatic,
		ReconstructDependencies: true,
		PrintSizeInfo:           true,
		PrintOffsetInfo:         true,
	}
}

// Validate rejects out-of-range enum values.
func (p Policy) Validate() error {
	if p.PrimitiveFlavor < Portable || p.PrimitiveFlavor > Msvc {
		return fmt.Errorf("%w: primitive flavor %d", ErrInvalidPolicy, int(p.PrimitiveFlavor))
	}
	if p.AccessFlavor < Automatic || p.AccessFlavor > Always {
		return fmt.Errorf("%w: access flavor %d", ErrInvalidPolicy, int(p.AccessFlavor))
	}
	return nil
}

// Package config loads the persisted settings of the resym tool.
//
// Settings are stored as YAML or TOML; the format is chosen by the file
// extension. The reconstruction options map one to one onto
// reconstruct.Policy. The remaining options only affect presentation.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml"
	"github.com/skdltmxn/resym-go/pdb"
	"github.com/skdltmxn/resym-go/reconstruct"
	"gopkg.in/yaml.v3"
)

var (
	ErrUnknownFormat = errors.New("config: unknown file format")
	ErrInvalid       = errors.New("config: invalid settings")
)

// Settings is the persisted settings record.
type Settings struct {
	PrimitiveTypesFlavor    string `yaml:"primitive_types_flavor" toml:"primitive_types_flavor"`
	AccessSpecifiers        string `yaml:"access_specifiers" toml:"access_specifiers"`
	ReconstructDependencies bool   `yaml:"print_dependencies" toml:"print_dependencies"`
	IntegersAsHexadecimal   bool   `yaml:"integers_as_hexadecimal" toml:"integers_as_hexadecimal"`
	PrintSizeInfo           bool   `yaml:"print_size_info" toml:"print_size_info"`
	PrintOffsetInfo         bool   `yaml:"print_offset_info" toml:"print_offset_info"`
	PrintBracketsNewLine    bool   `yaml:"print_brackets_new_line" toml:"print_brackets_new_line"`
	IgnoreStdTypes          bool   `yaml:"ignore_std_types" toml:"ignore_std_types"`
	PrintHeader             bool   `yaml:"print_header" toml:"print_header"`
	PreferFirstMatch        bool   `yaml:"prefer_first_match" toml:"prefer_first_match"`

	// Presentation only.
	PrintLineNumbers         bool    `yaml:"print_line_numbers" toml:"print_line_numbers"`
	EnableSyntaxHighlighting bool    `yaml:"enable_syntax_highlighting" toml:"enable_syntax_highlighting"`
	Theme                    string  `yaml:"theme" toml:"theme"`
	FontSize                 float64 `yaml:"font_size" toml:"font_size"`
	SearchCaseInsensitive    bool    `yaml:"search_case_insensitive" toml:"search_case_insensitive"`
	SearchUseRegex           bool    `yaml:"search_use_regex" toml:"search_use_regex"`
}

// Default returns the settings used when no file is given.
func Default() Settings {
	return Settings{
		PrimitiveTypesFlavor:     reconstruct.Portable.String(),
		AccessSpecifiers:         reconstruct.Automatic.String(),
		ReconstructDependencies:  true,
		PrintSizeInfo:            true,
		PrintOffsetInfo:          true,
		EnableSyntaxHighlighting: true,
		Theme:                    "dark",
		FontSize:                 14,
		SearchCaseInsensitive:    true,
	}
}

// Load reads settings from path. Keys missing from the file keep their
// default values; unknown YAML keys are rejected.
func Load(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, err
	}
	s, err := Parse(data, filepath.Ext(path))
	if err != nil {
		return Settings{}, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// Parse decodes settings in the format named by ext (".yaml", ".yml" or
// ".toml") over the defaults and validates them.
func Parse(data []byte, ext string) (Settings, error) {
	s := Default()
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&s); err != nil && !errors.Is(err, io.EOF) {
			return Settings{}, fmt.Errorf("%w: %w", ErrInvalid, err)
		}
	case ".toml":
		if err := toml.Unmarshal(data, &s); err != nil {
			return Settings{}, fmt.Errorf("%w: %w", ErrInvalid, err)
		}
	default:
		return Settings{}, fmt.Errorf("%w: %q", ErrUnknownFormat, ext)
	}
	if s.PrimitiveTypesFlavor == "" {
		s.PrimitiveTypesFlavor = reconstruct.Portable.String()
	}
	if s.AccessSpecifiers == "" {
		s.AccessSpecifiers = reconstruct.Automatic.String()
	}
	if _, err := s.Policy(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// Save writes s to path in the format named by its extension.
func Save(path string, s Settings) error {
	var (
		data []byte
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(&s)
	case ".toml":
		data, err = toml.Marshal(s)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, filepath.Ext(path))
	}
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Policy converts the reconstruction options to a policy.
func (s Settings) Policy() (reconstruct.Policy, error) {
	flavor, err := reconstruct.ParsePrimitiveFlavor(s.PrimitiveTypesFlavor)
	if err != nil {
		return reconstruct.Policy{}, fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	access, err := reconstruct.ParseAccessFlavor(s.AccessSpecifiers)
	if err != nil {
		return reconstruct.Policy{}, fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	return reconstruct.Policy{
		PrimitiveFlavor:         flavor,
		AccessFlavor:            access,
		ReconstructDependencies: s.ReconstructDependencies,
		IntegersAsHex:           s.IntegersAsHexadecimal,
		PrintSizeInfo:           s.PrintSizeInfo,
		PrintOffsetInfo:         s.PrintOffsetInfo,
		BracketsOnNewLine:       s.PrintBracketsNewLine,
		IgnoreStdTypes:          s.IgnoreStdTypes,
		PrintHeader:             s.PrintHeader,
		PreferFirstMatch:        s.PreferFirstMatch,
	}, nil
}

// SearchOptions returns the type search options.
func (s Settings) SearchOptions() pdb.SearchOptions {
	return pdb.SearchOptions{CaseInsensitive: s.SearchCaseInsensitive, Regex: s.SearchUseRegex}
}

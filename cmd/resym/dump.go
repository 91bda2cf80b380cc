package main

import (
	"encoding/json"
	"fmt"

	"github.com/kr/pretty"
	"github.com/skdltmxn/resym-go/pdb"
	"github.com/spf13/cobra"
)

var dumpFormat string

var dumpCmd = &cobra.Command{
	Use:   "dump <pdb-file> <type-name|type-index>",
	Short: "Dump the decoded records and layout of a type",
	Long: `Dump the decoded type record of a type, its merged field list and its
computed layout.

Supported formats:
  - text: Go-syntax structural dump (default)
  - json: JSON format`,
	Args: cobra.ExactArgs(2),
	RunE: runDump,
}

func init() {
	dumpCmd.Flags().StringVarP(&dumpFormat, "format", "f", "text", "output format (text, json)")
}

// TypeDump is the decoded view of one type record: its field list for
// aggregates and enums, and its computed layout.
type TypeDump struct {
	Index  uint32         `json:"index"`
	Record pdb.TypeRecord `json:"record"`
	Fields *pdb.FieldList `json:"fields,omitempty"`
	Layout *pdb.Layout    `json:"layout,omitempty"`
	Error  string         `json:"error,omitempty"`
}

func runDump(cmd *cobra.Command, args []string) error {
	pdbPath, query := args[0], args[1]

	f, err := openPDB(pdbPath)
	if err != nil {
		return err
	}
	defer f.Close()

	types := f.Types()
	ti, ok := parseTypeIndex(query)
	if !ok {
		if ti, err = types.Lookup(query, true); err != nil {
			return err
		}
	}
	rec, ok := types.ByIndex(ti)
	if !ok {
		return fmt.Errorf("type 0x%04X not found", uint32(ti))
	}

	dump := &TypeDump{Index: uint32(ti), Record: rec}
	switch r := rec.(type) {
	case *pdb.Aggregate:
		dump.Fields, err = types.Fields(r.FieldList)
	case *pdb.Enum:
		dump.Fields, err = types.Fields(r.FieldList)
	}
	if err != nil {
		dump.Error = err.Error()
	}
	if layout, err := f.Layouts().Of(ti); err == nil {
		dump.Layout = layout
	} else if dump.Error == "" {
		dump.Error = err.Error()
	}

	switch dumpFormat {
	case "json":
		encoder := json.NewEncoder(output)
		encoder.SetIndent("", "  ")
		return encoder.Encode(dump)
	case "text":
		_, err := pretty.Fprintf(output, "%# v\n", dump)
		return err
	default:
		return fmt.Errorf("unknown format: %s", dumpFormat)
	}
}

package main

import (
	"fmt"

	"github.com/pterm/pterm"
	"github.com/skdltmxn/resym-go/pdb"
	"github.com/spf13/cobra"
)

var (
	typesKind  string
	typesLimit int
	typesRegex bool
	typesCase  bool
)

var typesCmd = &cobra.Command{
	Use:   "types <pdb-file> [pattern]",
	Short: "List or search named types in the PDB file",
	Long: `List the named types (structs, classes, unions, interfaces and enums)
of a PDB file, sorted by name.

The optional pattern is a substring, or a regular expression with
--regex. Use --kind to filter by type kind.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runTypes,
}

func init() {
	typesCmd.Flags().StringVarP(&typesKind, "kind", "k", "", "filter by type kind (class, struct, union, interface, enum)")
	typesCmd.Flags().IntVarP(&typesLimit, "limit", "n", 0, "limit number of types shown (0 = unlimited)")
	typesCmd.Flags().BoolVarP(&typesRegex, "regex", "r", false, "treat the pattern as a regular expression")
	typesCmd.Flags().BoolVarP(&typesCase, "ignore-case", "i", false, "match case-insensitively")
}

func runTypes(cmd *cobra.Command, args []string) error {
	pdbPath := args[0]
	pattern := ""
	if len(args) > 1 {
		pattern = args[1]
	}

	switch typesKind {
	case "", "class", "struct", "union", "interface", "enum":
	default:
		return fmt.Errorf("unknown type kind: %s", typesKind)
	}

	f, err := openPDB(pdbPath)
	if err != nil {
		return err
	}
	defer f.Close()

	opts := settings.SearchOptions()
	if cmd.Flags().Changed("regex") {
		opts.Regex = typesRegex
	}
	if cmd.Flags().Changed("ignore-case") {
		opts.CaseInsensitive = typesCase
	}
	results, err := f.Types().Search(pattern, opts)
	if err != nil {
		return err
	}

	data := pterm.TableData{{"INDEX", "KIND", "SIZE", "NAME"}}
	count := 0
	for _, res := range results {
		kind, size := describeType(f.Types(), res.Index)
		if typesKind != "" && kind != typesKind {
			continue
		}
		data = append(data, []string{fmt.Sprintf("0x%04X", uint32(res.Index)), kind, size, res.Name})
		count++
		if typesLimit > 0 && count >= typesLimit {
			break
		}
	}

	table, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
	if err != nil {
		return err
	}
	fmt.Fprintln(output, table)
	fmt.Fprintf(output, "\nTotal: %d types\n", count)
	return nil
}

func describeType(types *pdb.TypeTable, ti pdb.TypeIndex) (kind, size string) {
	rec, _ := types.ByIndex(ti)
	switch r := rec.(type) {
	case *pdb.Aggregate:
		size = "-"
		if !r.IsForward {
			size = fmt.Sprintf("%d", r.Size)
		}
		return r.Kind.String(), size
	case *pdb.Enum:
		return "enum", "-"
	}
	return "?", "-"
}

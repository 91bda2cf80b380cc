package main

import (
	"fmt"
	"strings"

	"github.com/pterm/pterm"
	"github.com/skdltmxn/resym-go/pdb"
	"github.com/spf13/cobra"
)

var (
	symbolsKind     string
	symbolsLimit    int
	symbolsModule   int
	symbolsDemangle bool
)

var symbolsCmd = &cobra.Command{
	Use:   "symbols <pdb-file>",
	Short: "List symbols in the PDB file",
	Long: `List symbols from a PDB file.

By default the global symbol stream is shown. Use --module to list the
symbols of one module instead, and --kind to filter by symbol kind
(udt, constant, data, procedure, public). With --demangle, MSVC
decorated names are shown as C++ declarations.`,
	Args: cobra.ExactArgs(1),
	RunE: runSymbols,
}

func init() {
	symbolsCmd.Flags().StringVarP(&symbolsKind, "kind", "k", "", "filter by symbol kind (udt, constant, data, procedure, public)")
	symbolsCmd.Flags().IntVarP(&symbolsLimit, "limit", "n", 0, "limit number of symbols shown (0 = unlimited)")
	symbolsCmd.Flags().IntVarP(&symbolsModule, "module", "m", -1, "list the symbols of this module")
	symbolsCmd.Flags().BoolVarP(&symbolsDemangle, "demangle", "d", false, "show demangled C++ names")
}

func runSymbols(cmd *cobra.Command, args []string) error {
	f, err := openPDB(args[0])
	if err != nil {
		return err
	}
	defer f.Close()

	var syms []pdb.Symbol
	if symbolsModule >= 0 {
		mod, merr := f.Module(symbolsModule)
		if merr != nil {
			return merr
		}
		syms, err = mod.Symbols()
	} else {
		syms, err = f.GlobalSymbols()
	}
	if err != nil {
		if len(syms) == 0 {
			return fmt.Errorf("failed to get symbols: %w", err)
		}
		logger.Warnf("%v", err)
	}

	data := pterm.TableData{{"KIND", "SECTION", "OFFSET", "TYPE", "NAME"}}
	count := 0
	for _, sym := range syms {
		if symbolsKind != "" && !strings.EqualFold(sym.Kind().String(), symbolsKind) {
			continue
		}
		data = append(data, symbolRow(sym))
		count++
		if symbolsLimit > 0 && count >= symbolsLimit {
			break
		}
	}

	table, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
	if err != nil {
		return err
	}
	fmt.Fprintln(output, table)
	fmt.Fprintf(output, "\nTotal: %d symbols\n", count)
	return nil
}

func symbolRow(sym pdb.Symbol) []string {
	section, offset, typ := "-", "-", "-"
	switch s := sym.(type) {
	case *pdb.UDTSymbol:
		typ = fmt.Sprintf("0x%04X", uint32(s.Type))
	case *pdb.ConstantSymbol:
		typ = fmt.Sprintf("0x%04X", uint32(s.Type))
	case *pdb.DataSymbol:
		section = fmt.Sprintf("%04X", s.Section)
		offset = fmt.Sprintf("0x%08X", s.Offset)
		typ = fmt.Sprintf("0x%04X", uint32(s.Type))
	case *pdb.ProcedureSymbol:
		section = fmt.Sprintf("%04X", s.Section)
		offset = fmt.Sprintf("0x%08X", s.Offset)
		typ = fmt.Sprintf("0x%04X", uint32(s.Type))
	case *pdb.PublicSymbol:
		section = fmt.Sprintf("%04X", s.Section)
		offset = fmt.Sprintf("0x%08X", s.Offset)
	}
	name := sym.Name()
	if symbolsDemangle {
		name = sym.DemangledName()
	}
	return []string{sym.Kind().String(), section, offset, typ, name}
}

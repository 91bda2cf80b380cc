package main

import (
	"fmt"
	"strconv"

	"github.com/pterm/pterm"
	"github.com/skdltmxn/resym-go/reconstruct"
	"github.com/spf13/cobra"
)

var modulesVerbose bool

var modulesCmd = &cobra.Command{
	Use:   "modules <pdb-file>",
	Short: "List modules (compilation units) in the PDB file",
	Long:  `List all modules (compilation units/object files) in a PDB file.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runModules,
}

var moduleCmd = &cobra.Command{
	Use:   "module <pdb-file> <index>",
	Short: "Reconstruct the declarations of a module",
	Long: `Reconstruct the typedefs, constants, variables and function prototypes
recorded in the symbols of one module. Use "modules" to list indices.`,
	Args: cobra.ExactArgs(2),
	RunE: runModule,
}

func init() {
	modulesCmd.Flags().BoolVarP(&modulesVerbose, "verbose", "v", false, "show detailed module information")
	addPolicyFlags(moduleCmd.Flags())
}

func runModules(cmd *cobra.Command, args []string) error {
	f, err := openPDB(args[0])
	if err != nil {
		return err
	}
	defer f.Close()

	modules, err := f.Modules()
	if err != nil {
		return fmt.Errorf("failed to get modules: %w", err)
	}

	data := pterm.TableData{{"INDEX", "NAME"}}
	if modulesVerbose {
		data[0] = []string{"INDEX", "SOURCES", "SYMBOLS", "NAME", "OBJECT"}
	}
	for _, mod := range modules {
		if !modulesVerbose {
			data = append(data, []string{strconv.Itoa(mod.Index()), mod.Name()})
			continue
		}
		data = append(data, []string{
			strconv.Itoa(mod.Index()),
			strconv.Itoa(int(mod.SourceFileCount())),
			strconv.FormatBool(mod.HasSymbols()),
			mod.Name(),
			mod.ObjectFileName(),
		})
	}

	table, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
	if err != nil {
		return err
	}
	fmt.Fprintln(output, table)
	fmt.Fprintf(output, "\nTotal: %d modules\n", len(modules))
	return nil
}

func runModule(cmd *cobra.Command, args []string) error {
	index, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("invalid module index: %s", args[1])
	}
	policy, err := policyFromFlags(cmd.Flags())
	if err != nil {
		return err
	}

	f, err := openPDB(args[0])
	if err != nil {
		return err
	}
	defer f.Close()

	text, err := reconstruct.Module(f, index, policy)
	if err != nil {
		return err
	}
	fmt.Fprint(output, present(text))
	return nil
}

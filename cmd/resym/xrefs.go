package main

import (
	"fmt"

	"github.com/skdltmxn/resym-go/reconstruct"
	"github.com/spf13/cobra"
)

var xrefsCmd = &cobra.Command{
	Use:   "xrefs <pdb-file> <type-name>",
	Short: "List the types that refer to a type",
	Long: `List the named types whose members, bases or method signatures refer
to the given type directly.`,
	Args: cobra.ExactArgs(2),
	RunE: runXrefs,
}

func init() {
	xrefsCmd.Flags().Bool("ignore-std", false, "leave out std types")
	xrefsCmd.Flags().Bool("prefer-first", false, "resolve ambiguous names to the first definition")
}

func runXrefs(cmd *cobra.Command, args []string) error {
	pdbPath, name := args[0], args[1]

	policy, err := settings.Policy()
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("ignore-std") {
		policy.IgnoreStdTypes, _ = cmd.Flags().GetBool("ignore-std")
	}
	if cmd.Flags().Changed("prefer-first") {
		policy.PreferFirstMatch, _ = cmd.Flags().GetBool("prefer-first")
	}

	f, err := openPDB(pdbPath)
	if err != nil {
		return err
	}
	defer f.Close()

	names, err := reconstruct.New(f).Xrefs(name, policy)
	if err != nil {
		return err
	}
	for _, n := range names {
		fmt.Fprintln(output, n)
	}
	fmt.Fprintf(output, "\nTotal: %d references\n", len(names))
	return nil
}

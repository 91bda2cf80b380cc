package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var infoCmd = &cobra.Command{
	Use:   "info <pdb-file>",
	Short: "Display PDB file information",
	Long:  `Display general information about a PDB file including version, GUID, age, machine and statistics.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runInfo,
}

func runInfo(cmd *cobra.Command, args []string) error {
	pdbPath := args[0]

	f, err := openPDB(pdbPath)
	if err != nil {
		return err
	}
	defer f.Close()

	info := f.Info()
	fmt.Fprintf(output, "PDB File: %s\n", pdbPath)
	fmt.Fprintf(output, "Version: %d\n", info.Version)
	fmt.Fprintf(output, "Signature: 0x%08X\n", info.Signature)
	fmt.Fprintf(output, "Age: %d\n", info.Age)
	fmt.Fprintf(output, "GUID: %s\n", info.GUIDString())
	fmt.Fprintf(output, "Block Size: %d\n", f.BlockSize())
	fmt.Fprintf(output, "Number of Streams: %d\n", f.NumStreams())

	machine := f.Machine()
	if machine == "" {
		machine = "unknown"
	}
	fmt.Fprintf(output, "Machine: %s (%d-bit pointers)\n", machine, f.PointerSize()*8)
	fmt.Fprintf(output, "Type Stream Version: %d\n", f.TypeStreamVersion())
	fmt.Fprintf(output, "Types: %d\n", f.Types().Len())
	fmt.Fprintf(output, "Named Types: %d\n", len(f.Types().Names()))

	if modules, err := f.Modules(); err == nil {
		fmt.Fprintf(output, "Number of Modules: %d\n", len(modules))
	}
	if n := len(f.DecodeErrors()); n > 0 {
		fmt.Fprintf(output, "Decode Errors: %d\n", n)
	}
	return nil
}

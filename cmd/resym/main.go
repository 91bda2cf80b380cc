// Command resym reconstructs C++ type declarations from PDB files.
package main

import "os"

func main() {
	os.Exit(run())
}

func run() int {
	if err := rootCmd.Execute(); err != nil {
		logger.Errorf("%v", err)
		return 1
	}
	return 0
}

package main

import (
	"fmt"
	"io"
	"os"

	"github.com/skdltmxn/resym-go/config"
	"github.com/skdltmxn/resym-go/internal/logging"
	"github.com/skdltmxn/resym-go/pdb"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	outputFile string
	configFile string
	logLevel   string

	output   io.Writer
	settings = config.Default()
	logger   = logging.New(os.Stderr, logging.LevelWarning)
)

var rootCmd = &cobra.Command{
	Use:   "resym",
	Short: "Reconstruct C++ type declarations from PDB files",
	Long: `resym rebuilds source-level declarations (structs, classes, unions,
enums and function prototypes) from the type records of Microsoft PDB
(Program Database) files.

Formatting options are read from a YAML or TOML settings file given with
--config and can be overridden per command with flags.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level, err := logging.ParseLevel(logLevel)
		if err != nil {
			return err
		}
		logger = logging.New(cmd.ErrOrStderr(), level)

		settings = config.Default()
		if configFile != "" {
			if settings, err = config.Load(configFile); err != nil {
				return fmt.Errorf("failed to load settings: %w", err)
			}
			logger.Debugf("loaded settings from %s", configFile)
		}

		if outputFile != "" {
			f, err := os.Create(outputFile)
			if err != nil {
				return fmt.Errorf("failed to create output file: %w", err)
			}
			output = f
		} else {
			output = cmd.OutOrStdout()
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if f, ok := output.(*os.File); ok && f != os.Stdout {
			f.Close()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&outputFile, "output", "o", "", "write output to file instead of stdout")
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "settings file (.yaml, .yml or .toml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warning", "log level (silent, error, warning, info, debug)")

	rootCmd.AddCommand(infoCmd)
	rootCmd.AddCommand(typesCmd)
	rootCmd.AddCommand(reconstructCmd)
	rootCmd.AddCommand(xrefsCmd)
	rootCmd.AddCommand(modulesCmd)
	rootCmd.AddCommand(moduleCmd)
	rootCmd.AddCommand(symbolsCmd)
	rootCmd.AddCommand(dumpCmd)
}

// openPDB loads a file and reports decode problems as warnings.
func openPDB(path string) (*pdb.File, error) {
	f, err := pdb.LoadFromFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDB: %w", err)
	}
	for _, derr := range f.DecodeErrors() {
		logger.Warnf("%v", derr)
	}
	logger.Debugf("loaded %s: %d type records, %s", path, f.Types().Len(), f.Machine())
	return f, nil
}

// isTerminal reports whether w is an interactive terminal. Highlighting
// is only written to terminals.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

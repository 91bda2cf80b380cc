package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pterm/pterm"
	"github.com/skdltmxn/resym-go/pdb"
	"github.com/skdltmxn/resym-go/reconstruct"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var reconstructShowDeps bool

var reconstructCmd = &cobra.Command{
	Use:   "reconstruct <pdb-file> <type-name>",
	Short: "Reconstruct the declaration of a type",
	Long: `Reconstruct the C++ declaration of a struct, class, union or enum.

The type is named by its fully qualified name, or by its type index
written in hex (0x1000). Flags override the settings file.`,
	Args: cobra.ExactArgs(2),
	RunE: runReconstruct,
}

func init() {
	addPolicyFlags(reconstructCmd.Flags())
	reconstructCmd.Flags().BoolVar(&reconstructShowDeps, "show-deps", false, "list the types the root refers to directly")
}

// addPolicyFlags registers one flag per formatting option.
func addPolicyFlags(fs *pflag.FlagSet) {
	fs.String("primitives", "", "primitive type spelling (portable, microsoft, raw, msvc)")
	fs.String("access", "", "access specifiers (automatic, disabled, always)")
	fs.Bool("deps", false, "reconstruct dependencies")
	fs.Bool("hex", false, "print integers in hexadecimal")
	fs.Bool("size", false, "print size comments")
	fs.Bool("offset", false, "print offset comments")
	fs.Bool("brackets-new-line", false, "put opening brackets on their own line")
	fs.Bool("ignore-std", false, "do not reconstruct std types")
	fs.Bool("header", false, "print a header naming the PDB file")
	fs.Bool("prefer-first", false, "resolve ambiguous names to the first definition")
}

// policyFromFlags returns the settings policy with the flags that were
// set on the command line applied.
func policyFromFlags(fs *pflag.FlagSet) (reconstruct.Policy, error) {
	p, err := settings.Policy()
	if err != nil {
		return p, err
	}
	if fs.Changed("primitives") {
		s, _ := fs.GetString("primitives")
		if p.PrimitiveFlavor, err = reconstruct.ParsePrimitiveFlavor(s); err != nil {
			return p, err
		}
	}
	if fs.Changed("access") {
		s, _ := fs.GetString("access")
		if p.AccessFlavor, err = reconstruct.ParseAccessFlavor(s); err != nil {
			return p, err
		}
	}

	bools := []struct {
		name string
		dst  *bool
	}{
		{"deps", &p.ReconstructDependencies},
		{"hex", &p.IntegersAsHex},
		{"size", &p.PrintSizeInfo},
		{"offset", &p.PrintOffsetInfo},
		{"brackets-new-line", &p.BracketsOnNewLine},
		{"ignore-std", &p.IgnoreStdTypes},
		{"header", &p.PrintHeader},
		{"prefer-first", &p.PreferFirstMatch},
	}
	for _, b := range bools {
		if fs.Changed(b.name) {
			*b.dst, _ = fs.GetBool(b.name)
		}
	}
	return p, nil
}

func runReconstruct(cmd *cobra.Command, args []string) error {
	pdbPath, name := args[0], args[1]

	policy, err := policyFromFlags(cmd.Flags())
	if err != nil {
		return err
	}

	f, err := openPDB(pdbPath)
	if err != nil {
		return err
	}
	defer f.Close()

	r := reconstruct.New(f)
	var (
		text string
		deps []string
	)
	if ti, ok := parseTypeIndex(name); ok {
		text, deps, err = r.TypeAt(ti, policy)
	} else {
		text, deps, err = r.Type(name, policy)
	}
	if err != nil {
		return err
	}

	fmt.Fprint(output, present(text))
	if reconstructShowDeps {
		fmt.Fprintln(output)
		fmt.Fprintf(output, "// Dependencies (%d):\n", len(deps))
		for _, d := range deps {
			fmt.Fprintf(output, "//   %s\n", d)
		}
	}
	return nil
}

// parseTypeIndex parses a hex type index such as 0x1000.
func parseTypeIndex(s string) (pdb.TypeIndex, bool) {
	if !strings.HasPrefix(s, "0x") && !strings.HasPrefix(s, "0X") {
		return 0, false
	}
	v, err := strconv.ParseUint(s[2:], 16, 32)
	if err != nil {
		return 0, false
	}
	return pdb.TypeIndex(v), true
}

var keywords = map[string]bool{
	"struct": true, "class": true, "union": true, "enum": true, "interface": true,
	"public:": true, "protected:": true, "private:": true, "public": true, "protected": true, "private": true,
	"virtual": true, "static": true, "const": true, "volatile": true, "typedef": true, "thread_local": true,
}

// present applies the presentation settings to reconstructed text. Color
// is only used when writing to a terminal.
func present(text string) string {
	highlight := settings.EnableSyntaxHighlighting && isTerminal(output)
	if !highlight && !settings.PrintLineNumbers {
		return text
	}

	lines := strings.SplitAfter(text, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	var b strings.Builder
	for i, line := range lines {
		if settings.PrintLineNumbers {
			fmt.Fprintf(&b, "%4d  ", i+1)
		}
		if highlight {
			line = highlightLine(line)
		}
		b.WriteString(line)
	}
	return b.String()
}

func highlightLine(line string) string {
	var b strings.Builder
	for len(line) > 0 {
		if i := strings.Index(line, "/*"); i == 0 {
			end := strings.Index(line, "*/")
			if end < 0 {
				end = len(line) - 2
			}
			b.WriteString(pterm.FgGray.Sprint(line[:end+2]))
			line = line[end+2:]
			continue
		}
		i := strings.IndexAny(line, " \t\n")
		if i < 0 {
			i = len(line)
		}
		word := line[:i]
		if keywords[word] {
			b.WriteString(pterm.FgCyan.Sprint(word))
		} else {
			b.WriteString(word)
		}
		for i < len(line) && strings.ContainsRune(" \t\n", rune(line[i])) {
			b.WriteByte(line[i])
			i++
		}
		line = line[i:]
	}
	return b.String()
}

package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect [flags] <file.mpb>",
	Short: "Show the contents of a compiled artifact",
	Args:  cobra.ExactArgs(1),
	RunE:  runInspect,
}

func init() {
	inspectCmd.Flags().String("dump", "", "print one embedded dump section (asm|ir-initial|ir-final|ast-final)")
}

func runInspect(cmd *cobra.Command, args []string) error {
	section, err := cmd.Flags().GetString("dump")
	if err != nil {
		return fmt.Errorf("failed to get dump flag: %w", err)
	}
	a, err := readArtifact(args[0])
	if err != nil {
		return err
	}
	if section != "" {
		text, ok := a.Dumps[section]
		if !ok {
			return fmt.Errorf("%s: no %q section; build with the matching --dump flag", args[0], section)
		}
		fmt.Fprint(cmd.OutOrStdout(), text)
		return nil
	}
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "source:   %s\n", a.Source)
	fmt.Fprintf(w, "compiler: mpslc %s\n", a.Version)
	fmt.Fprintf(w, "code:     %d bytes\n", len(a.Code))
	fmt.Fprintf(w, "sse41:    %v\n", a.SSE41)
	if len(a.Dumps) > 0 {
		names := make([]string, 0, len(a.Dumps))
		for n := range a.Dumps {
			names = append(names, n)
		}
		sort.Strings(names)
		fmt.Fprintf(w, "sections: %v\n", names)
	}
	return nil
}

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"mpsl/internal/diagfmt"
	"mpsl/internal/sema"
)

var checkCmd = &cobra.Command{
	Use:   "check [flags] <file.mpsl...>",
	Short: "Parse and analyze MPSL sources without generating code",
	Long:  `Check runs the frontend only: syntax, type checking and the tree optimizer. Argument layouts come from the project file.`,
	Args:  cobra.MinimumNArgs(1),
	RunE:  runCheck,
}

func init() {
	checkCmd.Flags().String("project", "", "mpsl.toml project file with argument layouts")
	checkCmd.Flags().String("format", "pretty", "diagnostic format (pretty|json)")
	checkCmd.Flags().Bool("with-notes", true, "include diagnostic notes in output")
}

func runCheck(cmd *cobra.Command, args []string) error {
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}
	withNotes, err := cmd.Flags().GetBool("with-notes")
	if err != nil {
		return fmt.Errorf("failed to get with-notes flag: %w", err)
	}
	objects, _, err := projectForCmd(cmd)
	if err != nil {
		return err
	}

	failed := 0
	for _, path := range args {
		src, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		c, ok := frontend(src, objects, maxDiagnostics(cmd))
		if c.bag.Len() > 0 {
			c.bag.Sort()
			fmt.Fprintf(os.Stderr, "%s:\n", path)
			switch format {
			case "json":
				if err := diagfmt.JSON(os.Stderr, c.bag, c.buf, diagfmt.JSONOpts{
					IncludePositions: true,
					IncludeNotes:     withNotes,
					Max:              maxDiagnostics(cmd),
				}); err != nil {
					return err
				}
			default:
				diagfmt.Pretty(os.Stderr, c.bag, c.buf, diagfmt.PrettyOpts{
					Color:       useColor(cmd),
					ShowNotes:   withNotes,
					ShowPreview: true,
				})
			}
		}
		if !ok {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d files failed", failed, len(args))
	}
	return nil
}

// projectForCmd loads the --project file when given. Without one the
// program compiles against zero argument slots.
func projectForCmd(cmd *cobra.Command) ([]sema.Object, *projectFile, error) {
	path, err := cmd.Flags().GetString("project")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get project flag: %w", err)
	}
	if path == "" {
		return nil, nil, nil
	}
	p, err := loadProject(path)
	if err != nil {
		return nil, nil, err
	}
	objects, err := p.objects()
	if err != nil {
		return nil, nil, err
	}
	return objects, p, nil
}

package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"mpsl/internal/diag"
	"mpsl/internal/diagfmt"
	"mpsl/internal/lexer"
	"mpsl/internal/source"
	"mpsl/internal/token"
)

var tokenizeCmd = &cobra.Command{
	Use:   "tokenize [flags] <file.mpsl>",
	Short: "Print the token stream of an MPSL source file",
	Args:  cobra.ExactArgs(1),
	RunE:  runTokenize,
}

func init() {
	tokenizeCmd.Flags().String("format", "pretty", "output format (pretty|json)")
}

type tokenJSON struct {
	Kind   string `json:"kind"`
	Text   string `json:"text,omitempty"`
	Line   uint32 `json:"line"`
	Column uint32 `json:"column"`
}

func runTokenize(cmd *cobra.Command, args []string) error {
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}

	src, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}
	buf := source.NewBuffer(src)
	bag := diag.NewBag(maxDiagnostics(cmd))
	lx := lexer.New(buf, diag.BagReporter{Bag: bag})

	var toks []token.Token
	for {
		t := lx.Next()
		toks = append(toks, t)
		if t.Kind == token.EOF {
			break
		}
	}

	switch format {
	case "json":
		out := make([]tokenJSON, 0, len(toks))
		for _, t := range toks {
			line, col := buf.LineColumn(t.Span.Start)
			out = append(out, tokenJSON{Kind: t.Kind.String(), Text: t.Text, Line: line, Column: col + 1})
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		if err := enc.Encode(out); err != nil {
			return err
		}
	case "pretty":
		for _, t := range toks {
			line, col := buf.LineColumn(t.Span.Start)
			if t.Text != "" && !t.IsKeyword() {
				fmt.Fprintf(cmd.OutOrStdout(), "%d:%d\t%s\t%q\n", line, col+1, t.Kind, t.Text)
				continue
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d:%d\t%s\n", line, col+1, t.Kind)
		}
	default:
		return fmt.Errorf("unknown format %q", format)
	}

	if bag.Len() > 0 {
		bag.Sort()
		diagfmt.Pretty(os.Stderr, bag, buf, diagfmt.PrettyOpts{
			Color:       useColor(cmd),
			ShowNotes:   true,
			ShowPreview: true,
		})
	}
	if bag.HasErrors() {
		return fmt.Errorf("%s: tokenization failed", args[0])
	}
	return nil
}

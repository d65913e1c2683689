package main

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"mpsl/internal/diagfmt"
	"mpsl/internal/ir"
	"mpsl/internal/sema"
	"mpsl/internal/x86"
)

var buildCmd = &cobra.Command{
	Use:   "build [flags] <file.mpsl...>",
	Short: "Compile MPSL sources to machine code",
	Long:  `Build runs the whole pipeline and selects code for the host CPU. Files compile in parallel; --emit serializes each result into a .mpb artifact.`,
	Args:  cobra.MinimumNArgs(1),
	RunE:  runBuild,
}

func init() {
	buildCmd.Flags().String("project", "", "mpsl.toml project file with argument layouts")
	buildCmd.Flags().String("emit", "", "directory to write compiled .mpb artifacts into")
	buildCmd.Flags().Int("jobs", 0, "max parallel compilations (0=auto)")
	buildCmd.Flags().Bool("dump-ast", false, "print the AST before and after optimization")
	buildCmd.Flags().Bool("dump-ir", false, "print the IR before and after the IR pass")
	buildCmd.Flags().Bool("dump-asm", false, "print the machine code listing")
	buildCmd.Flags().Bool("disable-sse41", false, "force the SSE2 baseline code paths")
	buildCmd.Flags().Bool("verbose", false, "report per-file code sizes")
}

// buildResult is one file's outcome, collected off the worker goroutines
// and printed in input order afterwards.
type buildResult struct {
	c     *compilation
	image []byte
	dumps []dumpSection
	err   error
}

type dumpSection struct {
	name string
	text string
}

func runBuild(cmd *cobra.Command, args []string) error {
	objects, proj, err := projectForCmd(cmd)
	if err != nil {
		return err
	}

	flag := func(name string) bool {
		v, ferr := cmd.Flags().GetBool(name)
		return ferr == nil && v
	}
	dumpAST := flag("dump-ast")
	dumpIR := flag("dump-ir")
	dumpASM := flag("dump-asm")
	disableSSE41 := flag("disable-sse41")
	verbose := flag("verbose")
	if proj != nil {
		dumpAST = dumpAST || proj.Options.DumpAST
		dumpIR = dumpIR || proj.Options.DumpIR
		dumpASM = dumpASM || proj.Options.DumpASM
		disableSSE41 = disableSSE41 || proj.Options.DisableSSE41
		verbose = verbose || proj.Options.Verbose
	}
	emitDir, err := cmd.Flags().GetString("emit")
	if err != nil {
		return fmt.Errorf("failed to get emit flag: %w", err)
	}
	jobs, err := cmd.Flags().GetInt("jobs")
	if err != nil {
		return fmt.Errorf("failed to get jobs flag: %w", err)
	}
	if jobs <= 0 {
		jobs = runtime.NumCPU()
	}

	feat := x86.Detect(disableSSE41)
	maxDiag := maxDiagnostics(cmd)

	results := make([]*buildResult, len(args))
	var g errgroup.Group
	g.SetLimit(jobs)
	for i, path := range args {
		i, path := i, path
		g.Go(func() error {
			results[i] = buildOne(path, objects, maxDiag, feat, dumpAST, dumpIR, dumpASM)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	failed := 0
	for i, r := range results {
		if r.c != nil && r.c.bag.Len() > 0 {
			r.c.bag.Sort()
			fmt.Fprintf(os.Stderr, "%s:\n", args[i])
			diagfmt.Pretty(os.Stderr, r.c.bag, r.c.buf, diagfmt.PrettyOpts{
				Color:       useColor(cmd),
				ShowNotes:   true,
				ShowPreview: true,
			})
		}
		if r.err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", args[i], r.err)
			failed++
			continue
		}
		for _, d := range r.dumps {
			fmt.Fprintf(cmd.OutOrStdout(), "-- %s: %s --\n%s", args[i], d.name, d.text)
		}
		if verbose {
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d bytes of machine code\n", args[i], len(r.image))
		}
		if emitDir != "" {
			out := artifactPath(emitDir, args[i])
			if err := writeArtifact(out, newArtifact(args[i], feat, r.image, r.dumps)); err != nil {
				return err
			}
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d files failed", failed, len(args))
	}
	return nil
}

func buildOne(path string, objects []sema.Object, maxDiag int, feat x86.Features, dumpAST, dumpIR, dumpASM bool) *buildResult {
	r := &buildResult{}
	src, err := os.ReadFile(path)
	if err != nil {
		r.err = err
		return r
	}
	c, ok := frontend(src, objects, maxDiag)
	r.c = c
	if !ok {
		r.err = fmt.Errorf("compilation failed")
		return r
	}
	if dumpAST {
		r.dumps = append(r.dumps, dumpSection{"ast-final", c.b.Dump()})
	}
	var retDest *ir.RetDest
	mainRet := c.b.Funcs.Get(c.b.Funcs.Find(c.b.Strings.Intern("main"))).Ret
	if slot, off, ok := sema.ReturnTarget(objects, mainRet); ok {
		retDest = &ir.RetDest{Slot: slot, Offset: off}
	}
	fn := ir.Lower(c.b, len(objects), retDest)
	if dumpIR {
		r.dumps = append(r.dumps, dumpSection{"ir-initial", ir.DumpString(fn)})
	}
	ir.Finalize(fn)
	if err := ir.Validate(fn); err != nil {
		r.err = err
		return r
	}
	if dumpIR {
		r.dumps = append(r.dumps, dumpSection{"ir-final", ir.DumpString(fn)})
	}
	image, trace, err := x86.Compile(fn, feat, dumpASM)
	if err != nil {
		r.err = err
		return r
	}
	r.image = image
	if dumpASM {
		r.dumps = append(r.dumps, dumpSection{"asm", strings.Join(trace, "\n") + "\n"})
	}
	return r
}

func artifactPath(dir, srcPath string) string {
	base := filepath.Base(srcPath)
	if ext := filepath.Ext(base); ext != "" {
		base = base[:len(base)-len(ext)]
	}
	return filepath.Join(dir, base+".mpb")
}

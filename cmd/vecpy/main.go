// Command vecpy drives the compiler library (github.com/undefx/vecpy) from
// the shell. Subcommand dispatch uses spf13/cobra instead of the teacher's
// hand-rolled switch in cli.go, grounded in go-highway's hwygen tool (also
// cobra-based) for a source-to-source codegen CLI of this shape.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/undefx/vecpy"
)

const versionString = "vecpy 0.1.0"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "vecpy:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "vecpy",
		Short:         "Vectorizing compiler for restricted numeric kernels",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newCompileCmd(), newBenchCmd(), newVersionCmd())
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the vecpy version",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), versionString)
			return nil
		},
	}
}

// compileFlags holds the options shared by compile and bench; acquiring the
// kernel's AST (lexing/parsing its source) is out of scope for this library
// (spec.md 1), so both subcommands compile the bundled demo kernel below,
// the Go equivalent of main.py's hardcoded myKernel demo.
type compileFlags struct {
	arch           string
	dtype          string
	bindings       string
	threads        int
	managedPackage string
	verbose        bool
}

func bindFlags(cmd *cobra.Command, f *compileFlags) {
	opts := vecpy.OptionsFromEnv()
	defaultBindings := ""
	for i, b := range opts.Bindings {
		if i > 0 {
			defaultBindings += ","
		}
		defaultBindings += string(b)
	}
	cmd.Flags().StringVar(&f.arch, "arch", opts.Arch.String(), "target architecture (generic, sse4, avx2)")
	cmd.Flags().StringVar(&f.dtype, "type", opts.Type.String(), "element datatype (float, uint32)")
	cmd.Flags().StringVar(&f.bindings, "bindings", defaultBindings, "comma-separated foreign bindings (cpp, dynamic, managed, all)")
	cmd.Flags().IntVar(&f.threads, "threads", opts.Threads, "worker thread count (0 auto-detects)")
	cmd.Flags().StringVar(&f.managedPackage, "managed-package", opts.ManagedPackageName, "dotted package name for the managed (JNI) binding's class prefix")
	cmd.Flags().BoolVarP(&f.verbose, "verbose", "v", opts.Verbose, "print each emitted filename")
}

func (f compileFlags) toOptions() (vecpy.Options, error) {
	arch, err := vecpy.ParseArchitecture(f.arch)
	if err != nil {
		return vecpy.Options{}, errors.Wrap(err, "invalid --arch")
	}
	dtype, err := vecpy.ParseDataType(f.dtype)
	if err != nil {
		return vecpy.Options{}, errors.Wrap(err, "invalid --type")
	}
	var bindings []vecpy.Binding
	for _, b := range parseCSV(f.bindings) {
		bindings = append(bindings, vecpy.Binding(b))
	}
	return vecpy.Options{
		Arch:               arch,
		Type:               dtype,
		Bindings:           bindings,
		Threads:            f.threads,
		ManagedPackageName: f.managedPackage,
		Verbose:            f.verbose,
	}, nil
}

func parseCSV(s string) []string {
	var out []string
	start := 0
	for i := 0; i <= len(s); i++ {
		if i == len(s) || s[i] == ',' {
			if i > start {
				out = append(out, s[start:i])
			}
			start = i + 1
		}
	}
	return out
}

func newCompileCmd() *cobra.Command {
	var f compileFlags
	var out string
	cmd := &cobra.Command{
		Use:   "compile",
		Short: "Vectorize the bundled demo kernel and write its artifacts to disk",
		RunE: func(cmd *cobra.Command, args []string) error {
			options, err := f.toOptions()
			if err != nil {
				return err
			}
			kernel, err := vecpy.Vectorize(demoKernel(), options)
			if err != nil {
				return errors.Wrap(err, "compile failed")
			}
			if err := os.MkdirAll(out, 0o755); err != nil {
				return errors.Wrap(err, "creating output directory")
			}
			for name, text := range kernel.Files {
				path := filepath.Join(out, name)
				if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
					return errors.Wrapf(err, "writing %s", name)
				}
				if f.verbose {
					fmt.Fprintln(cmd.OutOrStdout(), path)
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "build %s: %d file(s) written to %s\n", kernel.BuildID, len(kernel.Files), out)
			return nil
		},
	}
	bindFlags(cmd, &f)
	cmd.Flags().StringVarP(&out, "out", "o", ".", "output directory for emitted artifacts")
	return cmd
}

func newBenchCmd() *cobra.Command {
	var f compileFlags
	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Compare generic-only compile time against vectorized compile time",
		Long: "bench measures how much longer (or shorter) emitting the vector " +
			"back end's code takes relative to scalar-only compilation for the " +
			"bundled demo kernel. It never executes the generated C -- running " +
			"the emitted kernel is left to the caller's own toolchain.",
		RunE: func(cmd *cobra.Command, args []string) error {
			options, err := f.toOptions()
			if err != nil {
				return err
			}
			if options.Arch.IsGeneric() {
				return errors.New("bench requires a SIMD --arch (sse4 or avx2) to compare against generic")
			}
			scalarOnly := options
			scalarOnly.Arch = vecpy.ArchGeneric

			var scalarErr, vectorErr error
			scalarDur, vectorDur, speedup := vecpy.BenchmarkSpeedup(
				func() { _, scalarErr = vecpy.Vectorize(demoKernel(), scalarOnly) },
				func() { _, vectorErr = vecpy.Vectorize(demoKernel(), options) },
			)
			if scalarErr != nil {
				return errors.Wrap(scalarErr, "scalar-only compile failed")
			}
			if vectorErr != nil {
				return errors.Wrap(vectorErr, "vectorized compile failed")
			}
			fmt.Fprintf(cmd.OutOrStdout(), "generic: %s\n%s: %s\nratio:   %.2fx\n",
				scalarDur, options.Arch, vectorDur, speedup)
			return nil
		},
	}
	bindFlags(cmd, &f)
	return cmd
}

// demoKernel builds the AST for the bundled demo kernel, the Go-literal
// equivalent of main.py's myKernel:
//
//	def myKernel(a, x, b, y):
//	  plus = a + x
//	  minus = a - x
//	  b = (plus * minus) + 1
//	  y = (plus / minus) - (a ** 2.5)
//	  return (b, y)
func demoKernel() *vecpy.FuncDef {
	return &vecpy.FuncDef{
		Name: "myKernel",
		Params: []vecpy.Param{
			{Name: "a"}, {Name: "x"}, {Name: "b"}, {Name: "y"},
		},
		Body: []vecpy.Node{
			vecpy.AssignNode{
				Targets: []vecpy.Node{vecpy.NameExpr{Id: "plus"}},
				Values:  []vecpy.Node{vecpy.BinaryExpr{Left: vecpy.NameExpr{Id: "a"}, Op: "+", Right: vecpy.NameExpr{Id: "x"}}},
			},
			vecpy.AssignNode{
				Targets: []vecpy.Node{vecpy.NameExpr{Id: "minus"}},
				Values:  []vecpy.Node{vecpy.BinaryExpr{Left: vecpy.NameExpr{Id: "a"}, Op: "-", Right: vecpy.NameExpr{Id: "x"}}},
			},
			vecpy.AssignNode{
				Targets: []vecpy.Node{vecpy.NameExpr{Id: "b"}},
				Values: []vecpy.Node{vecpy.BinaryExpr{
					Left:  vecpy.BinaryExpr{Left: vecpy.NameExpr{Id: "plus"}, Op: "*", Right: vecpy.NameExpr{Id: "minus"}},
					Op:    "+",
					Right: vecpy.NumberLit{Value: 1},
				}},
			},
			vecpy.AssignNode{
				Targets: []vecpy.Node{vecpy.NameExpr{Id: "y"}},
				Values: []vecpy.Node{vecpy.BinaryExpr{
					Left:  vecpy.BinaryExpr{Left: vecpy.NameExpr{Id: "plus"}, Op: "/", Right: vecpy.NameExpr{Id: "minus"}},
					Op:    "-",
					Right: vecpy.CallExpr{Func: "pow", Args: []vecpy.Node{vecpy.NameExpr{Id: "a"}, vecpy.NumberLit{Value: 2.5}}},
				}},
			},
			vecpy.ReturnStmt{Names: []string{"b", "y"}},
		},
	}
}

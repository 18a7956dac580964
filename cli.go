package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
)

func showUsage() {
	fmt.Fprintf(os.Stderr, `ddc - compiles dd programs to AArch64 assembly

Usage:
    ddc <command> [arguments]

Commands:
    build <file>    Compile a .dd file to an assembly file
    check <file>    Parse, analyze and reclaim without generating code
    run <file>      Compile, assemble with cc and execute a .dd file
    ast <file>      Print the syntax tree as an s-expression
    tokens <file>   Print the token stream
    help            Show this help message

Examples:
    ddc build -o prog.s prog.dd
    ddc build -target darwin -gc manual prog.dd
    ddc run prog.dd
    ddc check prog.dd

Use "ddc <command> -h" for more information about a command.
`)
}

// compileOptions configures one run of the pipeline.
type compileOptions struct {
	target  Target
	gc      GCMode
	verbose bool
	log     io.Writer // verbose progress
	warn    io.Writer // warnings
}

func defaultOptions() compileOptions {
	return compileOptions{
		target: HostTarget(),
		gc:     GCAuto,
		log:    os.Stdout,
		warn:   os.Stderr,
	}
}

func (o compileOptions) logf(format string, args ...any) {
	if o.verbose && o.log != nil {
		fmt.Fprintf(o.log, format+"\n", args...)
	}
}

func (o compileOptions) warnings(ec *ErrorCollection) {
	if o.warn == nil {
		return
	}
	for _, msg := range ec.Errors() {
		fmt.Fprintln(o.warn, msg)
	}
}

// parseSource runs the front end, stopping at the first syntax error.
func parseSource(input []byte) (*Program, error) {
	l := NewLexer(input)
	l.NextToken()
	program := ParseProgram(l)
	if l.Errors.HasErrors() {
		return nil, fmt.Errorf("parsing errors:\n%s", l.Errors.String())
	}
	return program, nil
}

// checkProgram parses and analyzes input, then reclaims the symbol table
// with the configured strategy. Reclaimer failures are warnings.
func checkProgram(input []byte, opts compileOptions) (*Program, *SymbolTable, error) {
	program, err := parseSource(input)
	if err != nil {
		return nil, nil, err
	}
	opts.logf("parsed %d top-level declarations", len(program.Decls))

	table, errs := AnalyzeProgram(program)
	if errs.HasErrors() {
		return nil, nil, fmt.Errorf("semantic errors:\n%s", errs.String())
	}
	opts.logf("analysis ok, %d symbols live", table.Len())

	warns, err := reclaim(program, table, opts.gc)
	if err != nil {
		return nil, nil, err
	}
	opts.warnings(warns)
	opts.logf("%s reclamation done, %d symbols live", opts.gc, table.Len())
	return program, table, nil
}

// reclaim runs the reclaimer between analysis and code generation. Under
// manual mode every free directive is applied in tree order, except those
// naming a local: its scope exit already removed it from the table.
func reclaim(program *Program, table *SymbolTable, mode GCMode) (*ErrorCollection, error) {
	r, err := NewReclaimer(table, program, mode)
	if err != nil {
		return nil, fmt.Errorf("gc: %w", err)
	}
	warns := &ErrorCollection{}
	if !r.IsManual() {
		r.Run()
	}
	// In auto mode every directive is rejected, one warning each.
	for _, free := range freeDirectives(program) {
		if r.IsManual() && free.Target != nil && free.Target.Depth > 0 {
			continue
		}
		if err := r.Free(free.Name); err != nil {
			warns.Warnf("%v", err)
		}
	}
	return warns, nil
}

// freeDirectives lists every free statement in tree order.
func freeDirectives(node Node) []*FreeStmt {
	var frees []*FreeStmt
	var walk func(Node)
	walk = func(node Node) {
		switch n := node.(type) {
		case *Program:
			for _, d := range n.Decls {
				walk(d)
			}
		case *FuncDecl:
			walk(n.Body)
		case *Block:
			if n == nil {
				return
			}
			for _, s := range n.Stmts {
				walk(s)
			}
		case *IfStmt:
			walk(n.Then)
			if n.Else != nil {
				walk(n.Else)
			}
		case *FreeStmt:
			frees = append(frees, n)
		}
	}
	walk(node)
	return frees
}

// compileProgram is the whole pipeline from source to assembly text.
func compileProgram(input []byte, opts compileOptions) (string, error) {
	program, _, err := checkProgram(input, opts)
	if err != nil {
		return "", err
	}
	asm, warns := Generate(program, opts.target)
	opts.warnings(warns)
	opts.logf("generated %d bytes of %s assembly", len(asm), opts.target.Name)
	return asm, nil
}

// hostCanRun reports whether code for t can be assembled and executed here.
func hostCanRun(t Target) bool {
	if runtime.GOARCH != "arm64" || t.Name != HostTarget().Name {
		return false
	}
	_, err := exec.LookPath("cc")
	return err == nil
}

// assemble links asm into an executable inside dir with the system cc.
func assemble(asm, dir string) (string, error) {
	src := filepath.Join(dir, "prog.s")
	exe := filepath.Join(dir, "prog")
	if err := os.WriteFile(src, []byte(asm), 0644); err != nil {
		return "", err
	}
	out, err := exec.Command("cc", "-o", exe, src).CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("cc failed: %w\n%s", err, out)
	}
	return exe, nil
}

func readSource(fs *flag.FlagSet) (string, []byte) {
	if fs.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "Error: expected exactly one file argument\n")
		fs.Usage()
		os.Exit(1)
	}
	filename := fs.Arg(0)
	source, err := os.ReadFile(filename)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading file %s: %v\n", filename, err)
		os.Exit(1)
	}
	return filename, source
}

// addCompileFlags registers the flags shared by the compiling commands.
func addCompileFlags(fs *flag.FlagSet, withTarget bool) func() compileOptions {
	var target *string
	if withTarget {
		target = fs.String("target", HostTarget().Name, "Target platform (linux or darwin)")
	}
	gc := fs.String("gc", "auto", "Symbol reclamation: auto (mark-sweep) or manual (free statements)")
	verbose := fs.Bool("v", false, "Show verbose compilation details")

	return func() compileOptions {
		opts := defaultOptions()
		opts.verbose = *verbose
		if target != nil {
			t, err := LookupTarget(*target)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			opts.target = t
		}
		mode, err := ParseGCMode(*gc)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		opts.gc = mode
		return opts
	}
}

func buildCommand(args []string) {
	fs := flag.NewFlagSet("build", flag.ExitOnError)
	output := fs.String("o", "", "Output file path (default: <filename>.s)")
	options := addCompileFlags(fs, true)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: ddc build [-o output] [-target T] [-gc mode] [-v] <file>\n")
		fmt.Fprintf(os.Stderr, "Compile a .dd file to AArch64 assembly\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	filename, source := readSource(fs)
	opts := options()

	outputFile := *output
	if outputFile == "" {
		outputFile = strings.TrimSuffix(filename, ".dd") + ".s"
	}
	opts.logf("Compiling %s to %s...", filename, outputFile)

	asm, err := compileProgram(source, opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Compilation failed: %v\n", err)
		os.Exit(1)
	}
	if err := os.WriteFile(outputFile, []byte(asm), 0644); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing assembly file %s: %v\n", outputFile, err)
		os.Exit(1)
	}
	fmt.Printf("Generated %s (%d bytes)\n", outputFile, len(asm))
}

func checkCommand(args []string) {
	fs := flag.NewFlagSet("check", flag.ExitOnError)
	options := addCompileFlags(fs, false)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: ddc check [-gc mode] [-v] <file>\n")
		fmt.Fprintf(os.Stderr, "Parse, analyze and reclaim a .dd file\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	filename, source := readSource(fs)
	opts := options()
	opts.logf("Checking %s...", filename)

	program, table, err := checkProgram(source, opts)
	if err != nil {
		fmt.Printf("%s: %v\n", filename, err)
		os.Exit(1)
	}
	fmt.Printf("%s: no errors found\n", filename)

	if opts.verbose {
		fmt.Printf("AST: %s\n", ToSExpr(program))
		for _, sym := range table.Symbols() {
			fmt.Printf("symbol %s %s depth=%d refs=%d\n", sym.Name, sym.Type, sym.Depth, sym.RefCount)
		}
	}
}

func runCommand(args []string) {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	options := addCompileFlags(fs, true)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: ddc run [-target T] [-gc mode] [-v] <file>\n")
		fmt.Fprintf(os.Stderr, "Compile, assemble and execute a .dd file on this machine\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	filename, source := readSource(fs)
	os.Exit(runProgram(filename, source, options(), os.Stdout, os.Stderr))
}

// runProgram compiles, links and executes source, returning the exit code
// for ddc. The temporary build directory is removed on every path.
func runProgram(filename string, source []byte, opts compileOptions, stdout, stderr io.Writer) int {
	if !hostCanRun(opts.target) {
		fmt.Fprintf(stderr, "Error: this host cannot run %s/arm64 code (need an arm64 machine with cc)\n", opts.target.Name)
		return 1
	}
	opts.logf("Compiling %s...", filename)

	asm, err := compileProgram(source, opts)
	if err != nil {
		fmt.Fprintf(stderr, "Compilation failed: %v\n", err)
		return 1
	}

	dir, err := os.MkdirTemp("", "ddc-run-")
	if err != nil {
		fmt.Fprintf(stderr, "Error creating temporary directory: %v\n", err)
		return 1
	}
	defer os.RemoveAll(dir)

	exe, err := assemble(asm, dir)
	if err != nil {
		fmt.Fprintf(stderr, "Assembly failed: %v\n", err)
		return 1
	}
	opts.logf("Executing...")

	cmd := exec.Command(exe)
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	if err := cmd.Run(); err != nil {
		var exit *exec.ExitError
		if errors.As(err, &exit) {
			return exit.ExitCode()
		}
		fmt.Fprintf(stderr, "Execution failed: %v\n", err)
		return 1
	}
	return 0
}

func astCommand(args []string) {
	fs := flag.NewFlagSet("ast", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: ddc ast <file>\n")
		fmt.Fprintf(os.Stderr, "Print the syntax tree of a .dd file\n")
	}
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	_, source := readSource(fs)
	program, err := parseSource(source)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	fmt.Println(ToSExpr(program))
}

func tokensCommand(args []string) {
	fs := flag.NewFlagSet("tokens", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: ddc tokens <file>\n")
		fmt.Fprintf(os.Stderr, "Print the token stream of a .dd file, one token per line\n")
	}
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	_, source := readSource(fs)
	if err := dumpTokens(os.Stdout, source); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

// dumpTokens writes every token up to and including EOF as "<line> <type>",
// followed by the quoted literal for identifiers, numbers and illegal
// characters. Lexical errors are returned after the dump.
func dumpTokens(w io.Writer, source []byte) error {
	l := NewLexer(source)
	for {
		l.NextToken()
		switch l.CurrTokenType {
		case IDENT, INT, ILLEGAL:
			fmt.Fprintf(w, "%d %s %q\n", l.CurrLine, l.CurrTokenType, l.CurrLiteral)
		default:
			fmt.Fprintf(w, "%d %s\n", l.CurrLine, l.CurrTokenType)
		}
		if l.CurrTokenType == EOF {
			break
		}
	}
	if l.Errors.HasErrors() {
		return fmt.Errorf("lexing errors:\n%s", l.Errors.String())
	}
	return nil
}

func main() {
	if len(os.Args) < 2 {
		showUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "build":
		buildCommand(args)
	case "check":
		checkCommand(args)
	case "run":
		runCommand(args)
	case "ast":
		astCommand(args)
	case "tokens":
		tokensCommand(args)
	case "help", "-h", "--help":
		showUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		showUsage()
		os.Exit(1)
	}
}

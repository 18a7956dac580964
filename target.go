package main

import (
	"fmt"
	"runtime"
	"sort"
)

// Target describes the assembler dialect and process conventions of one
// AArch64 platform. It is passed to Generate explicitly.
type Target struct {
	Name     string
	WordSize int

	SymbolPrefix     string // prepended to every global symbol
	LocalLabelPrefix string // assembler-local labels
	Align            string // alignment directive before each function

	PageRef    string // adrp operand, %s is the label
	PageOffRef string // add operand for the low 12 bits

	SyscallRegister  string
	ExitSyscall      int
	SyscallImmediate string

	// VariadicOnStack is set where variadic arguments are passed in memory
	// rather than registers.
	VariadicOnStack bool
}

var TargetLinux = Target{
	Name:             "linux",
	WordSize:         8,
	SymbolPrefix:     "",
	LocalLabelPrefix: ".L",
	Align:            ".align 2",
	PageRef:          "%s",
	PageOffRef:       ":lo12:%s",
	SyscallRegister:  "x8",
	ExitSyscall:      93,
	SyscallImmediate: "#0",
}

var TargetDarwin = Target{
	Name:             "darwin",
	WordSize:         8,
	SymbolPrefix:     "_",
	LocalLabelPrefix: "L",
	Align:            ".align 4",
	PageRef:          "%s@PAGE",
	PageOffRef:       "%s@PAGEOFF",
	SyscallRegister:  "x16",
	ExitSyscall:      1,
	SyscallImmediate: "#0x80",
	VariadicOnStack:  true,
}

var targets = map[string]Target{
	TargetLinux.Name:  TargetLinux,
	TargetDarwin.Name: TargetDarwin,
}

// LookupTarget returns the target registered under name.
func LookupTarget(name string) (Target, error) {
	t, ok := targets[name]
	if !ok {
		names := make([]string, 0, len(targets))
		for n := range targets {
			names = append(names, n)
		}
		sort.Strings(names)
		return Target{}, fmt.Errorf("unknown target %q (want one of %v)", name, names)
	}
	return t, nil
}

// HostTarget returns the target matching the operating system ddc runs on.
func HostTarget() Target {
	if runtime.GOOS == "darwin" {
		return TargetDarwin
	}
	return TargetLinux
}

// FunctionSymbol mangles a source-level function name so it cannot collide
// with C library symbols.
func (t Target) FunctionSymbol(name string) string {
	return t.SymbolPrefix + "fn_" + name
}

// CSymbol names a C library or entry symbol.
func (t Target) CSymbol(name string) string {
	return t.SymbolPrefix + name
}

func (t Target) LocalLabel(name string) string {
	return t.LocalLabelPrefix + name
}

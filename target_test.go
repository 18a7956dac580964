package main

import (
	"runtime"
	"testing"

	"github.com/nalgeon/be"
)

func TestLookupTarget(t *testing.T) {
	tgt, err := LookupTarget("linux")
	be.Err(t, err, nil)
	be.Equal(t, tgt.Name, "linux")
	be.Equal(t, tgt.ExitSyscall, 93)

	tgt, err = LookupTarget("darwin")
	be.Err(t, err, nil)
	be.Equal(t, tgt.SyscallRegister, "x16")
	be.True(t, tgt.VariadicOnStack)

	_, err = LookupTarget("windows")
	be.Equal(t, err.Error(), `unknown target "windows" (want one of [darwin linux])`)
}

func TestHostTarget(t *testing.T) {
	if runtime.GOOS == "darwin" {
		be.Equal(t, HostTarget().Name, "darwin")
	} else {
		be.Equal(t, HostTarget().Name, "linux")
	}
}

func TestTargetSymbols(t *testing.T) {
	be.Equal(t, TargetLinux.FunctionSymbol("add"), "fn_add")
	be.Equal(t, TargetLinux.CSymbol("printf"), "printf")
	be.Equal(t, TargetLinux.LocalLabel("format"), ".Lformat")

	be.Equal(t, TargetDarwin.FunctionSymbol("add"), "_fn_add")
	be.Equal(t, TargetDarwin.CSymbol("printf"), "_printf")
	be.Equal(t, TargetDarwin.LocalLabel("format"), "Lformat")
}

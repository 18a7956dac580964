package main

import (
	"errors"
	"fmt"
)

// GCMode selects how the symbol table is reclaimed after analysis.
type GCMode int

const (
	GCAuto GCMode = iota + 1
	GCManual
)

func (m GCMode) String() string {
	switch m {
	case GCAuto:
		return "auto"
	case GCManual:
		return "manual"
	default:
		return fmt.Sprintf("GCMode(%d)", int(m))
	}
}

// ParseGCMode accepts "auto" or "manual".
func ParseGCMode(s string) (GCMode, error) {
	switch s {
	case "auto":
		return GCAuto, nil
	case "manual":
		return GCManual, nil
	default:
		return 0, fmt.Errorf("invalid gc mode %q (want auto or manual)", s)
	}
}

var (
	ErrInvalidReclaimer = errors.New("invalid reclaimer arguments")
	ErrFreeInAutoMode   = errors.New("free statement used in auto GC mode")
	ErrUnknownSymbol    = errors.New("cannot free undeclared variable")
)

// Reclaimer bounds the symbol table's footprint between analysis and code
// generation. The two strategies are mutually exclusive; the mode is fixed
// when the reclaimer is built.
type Reclaimer interface {
	// Run reclaims every symbol the program no longer reaches. It does
	// nothing under manual reference counting.
	Run() int
	// Free releases one reference to name. It is an error under mark-sweep.
	Free(name string) error
	IsManual() bool
}

// NewReclaimer builds the strategy for mode over table and the tree rooted
// at root. Must not be used while code generation is walking root.
func NewReclaimer(table *SymbolTable, root *Program, mode GCMode) (Reclaimer, error) {
	if table == nil || root == nil {
		return nil, fmt.Errorf("%w: symbol table and syntax tree are required", ErrInvalidReclaimer)
	}
	switch mode {
	case GCAuto:
		return &MarkSweep{table: table, root: root}, nil
	case GCManual:
		return &RefCount{table: table}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrInvalidReclaimer, mode)
	}
}

// MarkSweep reclaims symbols that no node of the tree refers to.
type MarkSweep struct {
	table *SymbolTable
	root  *Program
}

func (ms *MarkSweep) IsManual() bool { return false }

func (ms *MarkSweep) Free(name string) error {
	return fmt.Errorf("%w: '%s'", ErrFreeInAutoMode, name)
}

// Run marks then sweeps, returning the number of symbols reclaimed.
func (ms *MarkSweep) Run() int {
	ms.Mark()
	return ms.Sweep()
}

// Mark clears every liveness bit, then walks the whole tree setting the bit
// on each symbol a node names.
func (ms *MarkSweep) Mark() {
	for _, sym := range ms.table.Symbols() {
		sym.Marked = false
	}
	ms.markNode(ms.root)
}

func (ms *MarkSweep) markName(name string) {
	for _, sym := range ms.table.Symbols() {
		if sym.Name != name || sym.Marked {
			continue
		}
		sym.Marked = true
		if sym.Type == TypeArray {
			ms.markNode(sym.Size)
		}
	}
}

func (ms *MarkSweep) markNode(node Node) {
	switch n := node.(type) {
	case nil:
	case *IntLiteral:
	case *VarRef:
		ms.markName(n.Name)
	case *UnaryExpr:
		ms.markNode(n.Operand)
	case *BinaryExpr:
		ms.markNode(n.Left)
		ms.markNode(n.Right)
	case *ArraySize:
		ms.markNode(n.Size)
	case *IndexExpr:
		ms.markName(n.Array)
		ms.markNode(n.Index)
	case *ArgList:
		for _, arg := range n.Args {
			ms.markNode(arg)
		}
	case *CallExpr:
		ms.markName(n.Name)
		if n.Args != nil {
			ms.markNode(n.Args)
		}
	case *VarDecl:
		ms.markName(n.Name)
		ms.markNode(n.Init)
	case *AssignStmt:
		ms.markName(n.Name)
		ms.markNode(n.Value)
	case *IndexAssignStmt:
		ms.markName(n.Array)
		ms.markNode(n.Index)
		ms.markNode(n.Value)
	case *IfStmt:
		ms.markNode(n.Cond)
		ms.markNode(n.Then)
		if n.Else != nil {
			ms.markNode(n.Else)
		}
	case *ReturnStmt:
		ms.markNode(n.Value)
	case *PrintStmt:
		ms.markNode(n.Value)
	case *FreeStmt:
		ms.markName(n.Name)
	case *Block:
		if n == nil {
			return
		}
		for _, stmt := range n.Stmts {
			ms.markNode(stmt)
		}
	case *FuncDecl:
		ms.markName(n.Name)
		for _, param := range n.Params {
			ms.markName(param)
		}
		ms.markNode(n.Body)
	case *Program:
		for _, decl := range n.Decls {
			ms.markNode(decl)
		}
	}
}

// Sweep drops every unmarked symbol, keeping survivors in order, and returns
// how many were dropped.
func (ms *MarkSweep) Sweep() int {
	dropped := ms.table.Filter(func(sym *Symbol) bool { return sym.Marked })
	for _, sym := range dropped {
		release(sym)
	}
	return len(dropped)
}

// RefCount reclaims a symbol when explicit free directives bring its
// reference count to zero.
type RefCount struct {
	table *SymbolTable
}

func (rc *RefCount) IsManual() bool { return true }

// Run is a no-op: manual mode only reclaims on Free.
func (rc *RefCount) Run() int { return 0 }

func (rc *RefCount) Free(name string) error {
	var sym *Symbol
	for _, s := range rc.table.Symbols() {
		if s.Name == name && !s.IsFunction {
			sym = s
		}
	}
	if sym == nil {
		return fmt.Errorf("%w '%s'", ErrUnknownSymbol, name)
	}
	sym.RefCount--
	if sym.RefCount <= 0 {
		rc.table.Remove(sym)
		release(sym)
	}
	return nil
}

// release drops what a symbol owns so nothing keeps the tree alive through it.
func release(sym *Symbol) {
	sym.Name = ""
	sym.Size = nil
	sym.Params = nil
}

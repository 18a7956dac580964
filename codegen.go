package main

import (
	"fmt"
	"strings"
)

// Registers with a fixed role in generated code.
const (
	regPrimary   = "x0"  // result of every expression
	regSecondary = "x1"  // left operand, addresses
	regFrame     = "x29" // frame pointer
	regScratch   = "x9"  // address materialization
)

// globalVar is a top-level variable placed in the data section.
type globalVar struct {
	label string
	words int64
}

// Generator lowers an analyzed program to AArch64 assembly text. Every
// expression leaves its value in x0; intermediates live in stack slots.
type Generator struct {
	target Target
	ctx    *Context

	out *strings.Builder
	w   *strings.Builder // where emit writes

	globals     map[string]globalVar
	globalOrder []string
	hasMain     bool

	topLevel    bool   // lowering a statement of the entry routine itself
	returnLabel string // empty outside functions

	warnings *ErrorCollection
}

func NewGenerator(target Target) *Generator {
	out := &strings.Builder{}
	return &Generator{
		target:   target,
		ctx:      NewContext(target),
		out:      out,
		w:        out,
		globals:  make(map[string]globalVar),
		warnings: &ErrorCollection{},
	}
}

// Generate returns the assembly for program together with any warnings.
// The program must have passed semantic analysis.
func Generate(program *Program, target Target) (string, *ErrorCollection) {
	g := NewGenerator(target)
	g.Program(program)
	return g.out.String(), g.warnings
}

// Program emits the data section, every function, then the entry routine.
func (g *Generator) Program(program *Program) {
	var entry []Stmt
	var funcs []*FuncDecl
	for _, decl := range program.Decls {
		switch d := decl.(type) {
		case *FuncDecl:
			funcs = append(funcs, d)
			if d.Name == "main" {
				g.hasMain = true
			}
		case *VarDecl:
			g.declareGlobal(d)
			entry = append(entry, d)
		default:
			entry = append(entry, d)
		}
	}

	g.raw(".data")
	g.raw("%s:", g.target.LocalLabel("format"))
	g.raw("    .asciz \"%%ld\\n\"")
	if len(g.globalOrder) > 0 {
		g.raw(".align 3")
	}
	for _, name := range g.globalOrder {
		gv := g.globals[name]
		g.raw("%s:", gv.label)
		g.raw("    .space %d", gv.words*int64(g.target.WordSize))
	}
	g.raw("")
	g.raw(".text")

	for _, fn := range funcs {
		g.function(fn)
	}
	g.entry(entry)
}

func (g *Generator) declareGlobal(d *VarDecl) {
	if _, ok := g.globals[d.Name]; ok {
		return
	}
	words := int64(1)
	if arr, ok := d.Init.(*ArraySize); ok {
		if n, ok := constantSize(arr.Size); ok && n > 0 {
			words = n
		}
	}
	g.globals[d.Name] = globalVar{label: g.target.LocalLabel("var_" + d.Name), words: words}
	g.globalOrder = append(g.globalOrder, d.Name)
}

// emit writes one instruction line.
func (g *Generator) emit(mnemonic, format string, args ...any) {
	fmt.Fprintf(g.w, "    %-11s%s;\n", mnemonic, fmt.Sprintf(format, args...))
}

func (g *Generator) label(name string) {
	fmt.Fprintf(g.w, "%s:\n", name)
}

func (g *Generator) raw(format string, args ...any) {
	fmt.Fprintf(g.w, format+"\n", args...)
}

// frame lowers body into a buffer first, since the prologue needs the frame
// size the body ends up using.
func (g *Generator) frame(symbol string, body func()) {
	var buf strings.Builder
	g.w = &buf
	body()
	g.w = g.out

	g.raw(".global %s", symbol)
	g.raw("%s", g.target.Align)
	g.raw("")
	g.label(symbol)
	g.emit("stp", "%s, x30, [sp, #-16]!", regFrame)
	g.emit("mov", "%s, sp", regFrame)
	size := g.ctx.FrameSize()
	if size <= 4095 {
		g.emit("sub", "sp, sp, #%d", size)
	} else {
		g.loadImmediate(regScratch, int64(size))
		g.emit("sub", "sp, sp, %s", regScratch)
	}
	g.out.WriteString(buf.String())
}

func (g *Generator) epilogue() {
	g.emit("mov", "sp, %s", regFrame)
	g.emit("ldp", "%s, x30, [sp], #16", regFrame)
	g.emit("ret", "")
	g.raw("")
}

func (g *Generator) function(fn *FuncDecl) {
	g.ctx.NewScope()
	g.returnLabel = g.ctx.FreshLabel("return")
	g.topLevel = false

	g.frame(g.target.FunctionSymbol(fn.Name), func() {
		for i, param := range fn.Params {
			if i >= maxRegisterArgs {
				g.warnings.Warnf("function '%s' has more than %d parameters", fn.Name, maxRegisterArgs)
				break
			}
			off := g.ctx.Reserve(1)
			g.ctx.Bind(param, off)
			g.storeSlot(fmt.Sprintf("x%d", i), off)
		}
		g.block(fn.Body)
	})
	g.label(g.returnLabel)
	g.epilogue()

	g.returnLabel = ""
	g.ctx.EndScope()
}

// entry emits the process entry routine: top-level statements, the user's
// main if declared, a stdout flush and the exit system call.
func (g *Generator) entry(stmts []Stmt) {
	g.ctx.NewScope()
	g.frame(g.target.CSymbol("main"), func() {
		for _, stmt := range stmts {
			g.topLevel = true
			g.stmt(stmt)
		}
		g.topLevel = false
		if g.hasMain {
			g.emit("bl", "%s", g.target.FunctionSymbol("main"))
		}
		g.emit("mov", "x0, #0")
		g.emit("bl", "%s", g.target.CSymbol("fflush"))
		g.emit("mov", "x0, #0")
		g.emit("mov", "%s, #%d", g.target.SyscallRegister, g.target.ExitSyscall)
		g.emit("svc", "%s", g.target.SyscallImmediate)
	})
	g.epilogue()
	g.ctx.EndScope()
}

func (g *Generator) block(b *Block) {
	if b == nil {
		return
	}
	saved := g.ctx.Snapshot()
	wasTop := g.topLevel
	g.topLevel = false
	for _, stmt := range b.Stmts {
		g.stmt(stmt)
	}
	g.topLevel = wasTop
	g.ctx.Restore(saved)
}

func (g *Generator) stmt(stmt Stmt) {
	switch s := stmt.(type) {
	case *VarDecl:
		g.varDecl(s)

	case *AssignStmt:
		g.expr(s.Value)
		g.storeVar(regPrimary, s.Name)

	case *IndexAssignStmt:
		tmp := g.ctx.Reserve(1)
		g.expr(s.Value)
		g.storeSlot(regPrimary, tmp)
		g.elementAddress(s.Array, s.Index)
		g.loadSlot(regSecondary, tmp)
		g.emit("str", "%s, [%s]", regSecondary, regPrimary)
		g.ctx.Release(1)

	case *IfStmt:
		g.expr(s.Cond)
		elseLabel := g.ctx.FreshLabel("if_else")
		endLabel := g.ctx.FreshLabel("if_end")
		g.emit("cmp", "%s, #0", regPrimary)
		g.emit("b.eq", "%s", elseLabel)
		g.block(s.Then)
		g.emit("b", "%s", endLabel)
		g.label(elseLabel)
		if s.Else != nil {
			g.block(s.Else)
		}
		g.label(endLabel)

	case *ReturnStmt:
		if s.Value != nil {
			g.expr(s.Value)
		}
		if g.returnLabel == "" {
			g.warnings.Warnf("return statement outside function")
			return
		}
		g.emit("b", "%s", g.returnLabel)

	case *PrintStmt:
		g.expr(s.Value)
		format := g.target.LocalLabel("format")
		if g.target.VariadicOnStack {
			g.emit("str", "%s, [sp]", regPrimary)
		} else {
			g.emit("mov", "%s, %s", regSecondary, regPrimary)
		}
		g.loadAddress(regPrimary, format)
		g.emit("bl", "%s", g.target.CSymbol("printf"))

	case *FreeStmt:
		// Reclamation happens at compile time.

	case *Block:
		g.block(s)

	case *CallExpr:
		g.expr(s)

	case *FuncDecl:
		g.warnings.Warnf("nested function '%s' ignored in codegen", s.Name)

	default:
		g.warnings.Warnf("unknown syntax type in codegen: %T", stmt)
	}
}

func (g *Generator) varDecl(d *VarDecl) {
	if arr, ok := d.Init.(*ArraySize); ok {
		if g.topLevel {
			return // zeroed in the data section
		}
		n, ok := constantSize(arr.Size)
		if !ok || n <= 0 {
			g.warnings.Warnf("invalid array declaration of '%s' in codegen", d.Name)
			return
		}
		base := g.ctx.Reserve(int(n))
		g.ctx.Bind(d.Name, base)
		for i := 0; i < int(n); i++ {
			g.storeSlot("xzr", base+i*g.target.WordSize)
		}
		return
	}

	// The initializer sees the enclosing binding of the name, as in analysis.
	g.expr(d.Init)
	if g.topLevel {
		g.storeVar(regPrimary, d.Name)
		return
	}
	off := g.ctx.Reserve(1)
	g.ctx.Bind(d.Name, off)
	g.storeSlot(regPrimary, off)
}

func (g *Generator) expr(expr Expr) {
	switch e := expr.(type) {
	case *IntLiteral:
		g.loadImmediate(regPrimary, e.Value)

	case *VarRef:
		g.loadVar(regPrimary, e.Name)

	case *UnaryExpr:
		g.expr(e.Operand)
		switch e.Op {
		case Negate:
			g.emit("neg", "x0, x0")
		case BitNot:
			g.emit("mvn", "x0, x0")
		case LogicalNot:
			g.emit("cmp", "x0, #0")
			g.emit("cset", "x0, eq")
		}

	case *BinaryExpr:
		tmp := g.ctx.Reserve(1)
		g.expr(e.Left)
		g.storeSlot(regPrimary, tmp)
		g.expr(e.Right)
		g.loadSlot(regSecondary, tmp)
		g.binary(e.Op)
		g.ctx.Release(1)

	case *IndexExpr:
		g.elementAddress(e.Array, e.Index)
		g.emit("ldr", "x0, [x0]")

	case *CallExpr:
		g.call(e)

	case nil:
		g.loadImmediate(regPrimary, 0)

	default:
		g.warnings.Warnf("unknown syntax type in codegen: %T", expr)
	}
}

// binary combines x1 (left) and x0 (right) into x0.
func (g *Generator) binary(op BinaryOp) {
	switch op {
	case Add:
		g.emit("add", "x0, x1, x0")
	case Sub:
		g.emit("sub", "x0, x1, x0")
	case Mul:
		g.emit("mul", "x0, x1, x0")
	case And:
		g.emit("and", "x0, x1, x0")
	case Or:
		g.emit("orr", "x0, x1, x0")
	case Greater:
		g.compare("gt")
	case Less:
		g.compare("lt")
	case Equal:
		g.compare("eq")
	case GreaterEqual:
		g.compare("ge")
	case LessEqual:
		g.compare("le")
	default:
		g.warnings.Warnf("unknown binary operation in codegen: %s", op)
	}
}

func (g *Generator) compare(cond string) {
	g.emit("cmp", "x1, x0")
	g.emit("cset", "x0, %s", cond)
}

// call evaluates arguments left to right into slots, then loads them into
// x0..x7 so no argument evaluation can clobber another.
func (g *Generator) call(e *CallExpr) {
	var args []Expr
	if e.Args != nil {
		args = e.Args.Args
	}
	if len(args) > maxRegisterArgs {
		g.warnings.Warnf("call to '%s' passes more than %d arguments", e.Name, maxRegisterArgs)
		args = args[:maxRegisterArgs]
	}
	slots := make([]int, len(args))
	for i := range args {
		slots[i] = g.ctx.Reserve(1)
	}
	for i, arg := range args {
		g.expr(arg)
		g.storeSlot(regPrimary, slots[i])
	}
	for i := range args {
		g.loadSlot(fmt.Sprintf("x%d", i), slots[i])
	}
	g.ctx.Release(len(args))
	g.emit("bl", "%s", g.target.FunctionSymbol(e.Name))
}

// elementAddress leaves the address of array[index] in x0.
func (g *Generator) elementAddress(array string, index Expr) {
	g.expr(index)
	g.emit("mov", "x1, #%d", g.target.WordSize)
	g.emit("mul", "x0, x0, x1")
	if base, ok := g.ctx.Offset(array); ok {
		g.loadImmediate(regSecondary, int64(base))
		g.emit("add", "x0, x0, x1")
		g.emit("add", "x0, %s, x0", regFrame)
		return
	}
	if gv, ok := g.globals[array]; ok {
		g.loadAddress(regSecondary, gv.label)
		g.emit("add", "x0, x1, x0")
		return
	}
	g.warnings.Warnf("unknown array '%s' in codegen", array)
}

func (g *Generator) loadVar(reg, name string) {
	if off, ok := g.ctx.Offset(name); ok {
		g.loadSlot(reg, off)
		return
	}
	if gv, ok := g.globals[name]; ok {
		g.loadAddress(regScratch, gv.label)
		g.emit("ldr", "%s, [%s]", reg, regScratch)
		return
	}
	g.warnings.Warnf("unknown variable '%s' in codegen", name)
}

// storeVar writes reg to a variable. For arrays this is element 0.
func (g *Generator) storeVar(reg, name string) {
	if off, ok := g.ctx.Offset(name); ok {
		g.storeSlot(reg, off)
		return
	}
	if gv, ok := g.globals[name]; ok {
		g.loadAddress(regScratch, gv.label)
		g.emit("str", "%s, [%s]", reg, regScratch)
		return
	}
	g.warnings.Warnf("unknown variable '%s' in codegen", name)
}

func (g *Generator) loadSlot(reg string, off int) {
	g.slot("ldr", reg, off)
}

func (g *Generator) storeSlot(reg string, off int) {
	g.slot("str", reg, off)
}

// slot accesses [x29, #off]; offsets outside the unscaled immediate range
// go through x9.
func (g *Generator) slot(mnemonic, reg string, off int) {
	if off >= -256 && off <= 255 {
		g.emit(mnemonic, "%s, [%s, #%d]", reg, regFrame, off)
		return
	}
	g.loadImmediate(regScratch, int64(-off))
	g.emit("sub", "%s, %s, %s", regScratch, regFrame, regScratch)
	g.emit(mnemonic, "%s, [%s]", reg, regScratch)
}

func (g *Generator) loadAddress(reg, label string) {
	g.emit("adrp", "%s, "+g.target.PageRef, reg, label)
	g.emit("add", "%s, %s, "+g.target.PageOffRef, reg, reg, label)
}

// loadImmediate materializes v, using movz/movk for values a single mov
// cannot encode.
func (g *Generator) loadImmediate(reg string, v int64) {
	if v >= -65536 && v <= 65535 {
		g.emit("mov", "%s, #%d", reg, v)
		return
	}
	u := uint64(v)
	g.emit("movz", "%s, #%d", reg, u&0xffff)
	for shift := 16; shift < 64; shift += 16 {
		if part := (u >> shift) & 0xffff; part != 0 {
			g.emit("movk", "%s, #%d, lsl #%d", reg, part, shift)
		}
	}
}

package main

// maxRegisterArgs is the number of argument registers (x0-x7) the code
// generator passes values in.
const maxRegisterArgs = 8

// SemanticAnalyzer checks scoping and typing in a single walk, collecting
// every error instead of stopping at the first one.
type SemanticAnalyzer struct {
	table     *SymbolTable
	errors    *ErrorCollection
	functions map[*FuncDecl]*Symbol

	// currentFunction is nil while analyzing top-level statements.
	currentFunction *Symbol
}

func NewSemanticAnalyzer() *SemanticAnalyzer {
	return &SemanticAnalyzer{
		table:     NewSymbolTable(),
		errors:    &ErrorCollection{},
		functions: make(map[*FuncDecl]*Symbol),
	}
}

// AnalyzeProgram runs a fresh analyzer over program and returns the symbols
// that survive analysis together with the diagnostics.
func AnalyzeProgram(program *Program) (*SymbolTable, *ErrorCollection) {
	a := NewSemanticAnalyzer()
	a.Analyze(program)
	return a.table, a.errors
}

func (a *SemanticAnalyzer) Table() *SymbolTable {
	return a.table
}

func (a *SemanticAnalyzer) Errors() *ErrorCollection {
	return a.errors
}

// Analyze registers every function first so calls may precede the callee,
// then analyzes each top-level declaration in order.
func (a *SemanticAnalyzer) Analyze(program *Program) *ErrorCollection {
	if program == nil {
		return a.errors
	}

	for _, decl := range program.Decls {
		fn, ok := decl.(*FuncDecl)
		if !ok {
			continue
		}
		sym := &Symbol{
			Name:       fn.Name,
			Type:       fn.ReturnType,
			IsFunction: true,
			Params:     append([]string(nil), fn.Params...),
		}
		if a.table.DeclaredInCurrentScope(fn.Name) {
			a.errors.Addf("function '%s' already declared", fn.Name)
		} else {
			a.table.Declare(sym)
		}
		// Duplicates keep a detached symbol so their bodies are still checked.
		a.functions[fn] = sym
	}

	for _, decl := range program.Decls {
		if fn, ok := decl.(*FuncDecl); ok {
			a.analyzeFunction(fn)
		} else {
			a.analyzeStmt(decl)
		}
	}
	return a.errors
}

func (a *SemanticAnalyzer) analyzeFunction(fn *FuncDecl) {
	sym := a.functions[fn]
	if sym == nil {
		sym = &Symbol{Name: fn.Name, Type: fn.ReturnType, IsFunction: true}
	}
	if len(fn.Params) > maxRegisterArgs {
		a.errors.Addf("too many parameters in function '%s'", fn.Name)
	}

	enclosing := a.currentFunction
	a.currentFunction = sym
	a.table.EnterScope()
	for _, param := range fn.Params {
		if a.table.DeclaredInCurrentScope(param) {
			a.errors.Addf("parameter '%s' already declared in function '%s'", param, fn.Name)
			continue
		}
		a.table.Declare(&Symbol{Name: param, Type: TypeInt})
	}
	a.analyzeBlock(fn.Body)
	a.table.ExitScope()
	a.currentFunction = enclosing
}

func (a *SemanticAnalyzer) analyzeBlock(block *Block) {
	if block == nil {
		return
	}
	a.table.EnterScope()
	for _, stmt := range block.Stmts {
		a.analyzeStmt(stmt)
	}
	a.table.ExitScope()
}

func (a *SemanticAnalyzer) analyzeStmt(stmt Stmt) {
	switch s := stmt.(type) {
	case *VarDecl:
		a.analyzeVarDecl(s)

	case *AssignStmt:
		sym := a.table.Lookup(s.Name)
		if sym == nil || sym.IsFunction {
			a.errors.Addf("assignment to undeclared variable or function '%s'", s.Name)
		}
		t, clean := a.typeOf(s.Value)
		if sym != nil && !sym.IsFunction && !poisoned(t, clean) &&
			t != sym.Type && !(sym.Type == TypeArray && t == TypeInt) {
			a.errors.Addf("type mismatch in assignment to '%s': cannot assign %s to %s", s.Name, t, sym.Type)
		}

	case *IndexAssignStmt:
		sym := a.table.Lookup(s.Array)
		if sym == nil || sym.Type != TypeArray {
			a.errors.Addf("assignment to non-array variable '%s'", s.Array)
		}
		if t, clean := a.typeOf(s.Index); t != TypeInt && !poisoned(t, clean) {
			a.errors.Addf("array index must be an integer, got %s", t)
		}
		if t, clean := a.typeOf(s.Value); t != TypeInt && !poisoned(t, clean) {
			a.errors.Addf("array element must be an integer, got %s", t)
		}

	case *IfStmt:
		if t, clean := a.typeOf(s.Cond); t != TypeBool && !poisoned(t, clean) {
			a.errors.Addf("if condition must be boolean, got %s", t)
		}
		a.analyzeBlock(s.Then)
		if s.Else != nil {
			a.analyzeBlock(s.Else)
		}

	case *ReturnStmt:
		t, clean := a.typeOf(s.Value)
		if a.currentFunction == nil {
			a.errors.Addf("return statement outside function")
			return
		}
		if t != a.currentFunction.Type && !poisoned(t, clean) {
			a.errors.Addf("return type mismatch in function '%s': expected %s, got %s", a.currentFunction.Name, a.currentFunction.Type, t)
		}

	case *PrintStmt:
		if t, clean := a.typeOf(s.Value); t != TypeInt && !poisoned(t, clean) {
			a.errors.Addf("print statement requires integer expression, got %s", t)
		}

	case *FreeStmt:
		sym := a.table.Lookup(s.Name)
		if sym == nil || sym.IsFunction {
			a.errors.Addf("free of undeclared variable '%s'", s.Name)
			break
		}
		s.Target = sym

	case *Block:
		a.analyzeBlock(s)

	case *CallExpr:
		a.checkExpr(s)

	case *FuncDecl:
		a.errors.Addf("function '%s' must be declared at the top level", s.Name)

	default:
		a.errors.Addf("unknown syntax type in semantic analysis: %T", stmt)
	}
}

// analyzeVarDecl types the initializer before registering the name, so an
// initializer never sees the variable it initializes.
func (a *SemanticAnalyzer) analyzeVarDecl(d *VarDecl) {
	redeclared := a.table.DeclaredInCurrentScope(d.Name)
	if redeclared {
		a.errors.Addf("variable '%s' already declared in this scope", d.Name)
	}

	t, clean := a.typeOf(d.Init)
	var sym *Symbol
	switch {
	case t == TypeArray:
		arr, ok := d.Init.(*ArraySize)
		if !ok {
			a.errors.Addf("invalid array declaration of '%s'", d.Name)
			break
		}
		size, ok := constantSize(arr.Size)
		if !ok {
			a.errors.Addf("invalid array declaration of '%s'", d.Name)
			break
		}
		if size <= 0 {
			a.errors.Addf("array size must be positive, got %d for '%s'", size, d.Name)
			break
		}
		sym = &Symbol{Name: d.Name, Type: TypeArray, ArraySize: size, Size: arr.Size}
	case t == TypeVoid:
		if clean {
			a.errors.Addf("variable '%s' initialized with void type", d.Name)
		}
	default:
		sym = &Symbol{Name: d.Name, Type: t}
	}

	if sym != nil && !redeclared {
		a.table.Declare(sym)
	}
}

// typeOf types expr and reports whether doing so added no new errors.
func (a *SemanticAnalyzer) typeOf(expr Expr) (Type, bool) {
	before := a.errors.Count()
	t := a.checkExpr(expr)
	return t, a.errors.Count() == before
}

// poisoned reports whether a void type is the fallout of an error that has
// already been reported, in which case follow-up checks stay quiet.
func poisoned(t Type, clean bool) bool {
	return t == TypeVoid && !clean
}

// checkExpr resolves the names in expr and returns its type. Ill-typed
// expressions degrade to void.
func (a *SemanticAnalyzer) checkExpr(expr Expr) Type {
	switch e := expr.(type) {
	case nil:
		return TypeVoid

	case *IntLiteral:
		return TypeInt

	case *VarRef:
		sym := a.table.Lookup(e.Name)
		if sym == nil {
			a.errors.Addf("use of undeclared variable '%s'", e.Name)
			return TypeVoid
		}
		if sym.IsFunction {
			a.errors.Addf("function '%s' used as a variable", e.Name)
			return TypeVoid
		}
		return sym.Type

	case *UnaryExpr:
		t, clean := a.typeOf(e.Operand)
		if t == TypeVoid {
			if clean {
				a.errors.Addf("invalid operand type in unary operation '%s'", e.Op)
			}
			return TypeVoid
		}
		if e.Op == LogicalNot {
			if t != TypeBool {
				a.errors.Addf("logical negation requires boolean operand, got %s", t)
				return TypeVoid
			}
			return TypeBool
		}
		if t != TypeInt {
			a.errors.Addf("unary operation '%s' requires integer operand, got %s", e.Op, t)
			return TypeVoid
		}
		return TypeInt

	case *BinaryExpr:
		lt, lclean := a.typeOf(e.Left)
		rt, rclean := a.typeOf(e.Right)
		if lt == TypeVoid || rt == TypeVoid {
			if (lt == TypeVoid && lclean) || (rt == TypeVoid && rclean) {
				a.errors.Addf("invalid operand types in binary operation '%s'", e.Op)
			}
			return TypeVoid
		}
		if e.Op.IsComparison() {
			return TypeBool
		}
		if lt != TypeInt || rt != TypeInt {
			a.errors.Addf("binary operation '%s' requires integer operands, got %s and %s", e.Op, lt, rt)
			return TypeVoid
		}
		return TypeInt

	case *ArraySize:
		// Validated by the declaration that owns it.
		return TypeArray

	case *IndexExpr:
		sym := a.table.Lookup(e.Array)
		ok := sym != nil && sym.Type == TypeArray
		if !ok {
			a.errors.Addf("use of undeclared array '%s'", e.Array)
		}
		if t, clean := a.typeOf(e.Index); t != TypeInt && !poisoned(t, clean) {
			a.errors.Addf("array index must be an integer, got %s", t)
		}
		if !ok {
			return TypeVoid
		}
		return TypeInt

	case *CallExpr:
		sym := a.table.Lookup(e.Name)
		if sym == nil || !sym.IsFunction {
			a.errors.Addf("call to undeclared function '%s'", e.Name)
			sym = nil
		}
		if e.Args != nil {
			for _, arg := range e.Args.Args {
				a.checkExpr(arg)
			}
			if len(e.Args.Args) > maxRegisterArgs {
				a.errors.Addf("too many arguments in call to '%s'", e.Name)
			}
		}
		if sym == nil {
			return TypeVoid
		}
		return sym.Type

	default:
		a.errors.Addf("unknown syntax type in semantic analysis: %T", expr)
		return TypeVoid
	}
}

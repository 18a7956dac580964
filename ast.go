package main

import (
	"fmt"
	"strconv"
	"strings"
)

// Node is any element of the syntax tree. The set of implementations is
// closed; every switch over nodes lists the cases below.
type Node interface {
	node()
}

// Expr is a node that produces a value in the primary register.
type Expr interface {
	Node
	exprNode()
}

// Stmt is a node that may appear in a block or at the top level.
type Stmt interface {
	Node
	stmtNode()
}

type UnaryOp int

const (
	Negate UnaryOp = iota
	BitNot
	LogicalNot
)

func (op UnaryOp) String() string {
	switch op {
	case Negate:
		return "-"
	case BitNot:
		return "~"
	case LogicalNot:
		return "!"
	default:
		return "?"
	}
}

type BinaryOp int

const (
	Add BinaryOp = iota
	Sub
	Mul
	Greater
	Less
	And
	Or
	Equal
	GreaterEqual
	LessEqual
)

func (op BinaryOp) String() string {
	switch op {
	case Add:
		return "+"
	case Sub:
		return "-"
	case Mul:
		return "*"
	case Greater:
		return ">"
	case Less:
		return "<"
	case And:
		return "&"
	case Or:
		return "|"
	case Equal:
		return "=="
	case GreaterEqual:
		return ">="
	case LessEqual:
		return "<="
	default:
		return "?"
	}
}

// IsComparison reports whether the operator yields a boolean.
func (op BinaryOp) IsComparison() bool {
	switch op {
	case Greater, Less, Equal, GreaterEqual, LessEqual:
		return true
	default:
		return false
	}
}

type IntLiteral struct {
	Value int64
}

type VarRef struct {
	Name string
}

type UnaryExpr struct {
	Op      UnaryOp
	Operand Expr
}

type BinaryExpr struct {
	Op          BinaryOp
	Left, Right Expr
}

// ArraySize is the initializer of a fixed-size array declaration:
// var a[Size];
type ArraySize struct {
	Size Expr
}

// IndexExpr reads one element of an array.
type IndexExpr struct {
	Array string
	Index Expr
}

type ArgList struct {
	Args []Expr
}

// CallExpr is both an expression and, followed by ';', a statement.
type CallExpr struct {
	Name string
	Args *ArgList
}

type VarDecl struct {
	Name string
	Init Expr
}

type AssignStmt struct {
	Name  string
	Value Expr
}

// IndexAssignStmt writes one element of an array.
type IndexAssignStmt struct {
	Array string
	Index Expr
	Value Expr
}

type IfStmt struct {
	Cond Expr
	Then *Block
	Else *Block // nil when there is no else branch
}

type ReturnStmt struct {
	Value Expr // nil for a bare return
}

type PrintStmt struct {
	Value Expr
}

// FreeStmt is the manual-reclamation directive: free x;
type FreeStmt struct {
	Name string

	// Target is the symbol the name resolved to during analysis; nil until
	// then.
	Target *Symbol
}

type Block struct {
	Stmts []Stmt
}

type FuncDecl struct {
	Name       string
	Params     []string
	ReturnType Type
	Body       *Block
}

// Program is the top level: functions and statements in source order.
type Program struct {
	Decls []Stmt
}

func (*IntLiteral) node()      {}
func (*VarRef) node()          {}
func (*UnaryExpr) node()       {}
func (*BinaryExpr) node()      {}
func (*ArraySize) node()       {}
func (*IndexExpr) node()       {}
func (*ArgList) node()         {}
func (*CallExpr) node()        {}
func (*VarDecl) node()         {}
func (*AssignStmt) node()      {}
func (*IndexAssignStmt) node() {}
func (*IfStmt) node()          {}
func (*ReturnStmt) node()      {}
func (*PrintStmt) node()       {}
func (*FreeStmt) node()        {}
func (*Block) node()           {}
func (*FuncDecl) node()        {}
func (*Program) node()         {}

func (*IntLiteral) exprNode() {}
func (*VarRef) exprNode()     {}
func (*UnaryExpr) exprNode()  {}
func (*BinaryExpr) exprNode() {}
func (*ArraySize) exprNode()  {}
func (*IndexExpr) exprNode()  {}
func (*CallExpr) exprNode()   {}

func (*CallExpr) stmtNode()        {}
func (*VarDecl) stmtNode()         {}
func (*AssignStmt) stmtNode()      {}
func (*IndexAssignStmt) stmtNode() {}
func (*IfStmt) stmtNode()          {}
func (*ReturnStmt) stmtNode()      {}
func (*PrintStmt) stmtNode()       {}
func (*FreeStmt) stmtNode()        {}
func (*Block) stmtNode()           {}
func (*FuncDecl) stmtNode()        {}

// ToSExpr converts an AST node to s-expression string representation
func ToSExpr(node Node) string {
	switch n := node.(type) {
	case nil:
		return "()"
	case *IntLiteral:
		return "(integer " + strconv.FormatInt(n.Value, 10) + ")"
	case *VarRef:
		return "(ident " + strconv.Quote(n.Name) + ")"
	case *UnaryExpr:
		return "(unary " + strconv.Quote(n.Op.String()) + " " + ToSExpr(n.Operand) + ")"
	case *BinaryExpr:
		return "(binary " + strconv.Quote(n.Op.String()) + " " + ToSExpr(n.Left) + " " + ToSExpr(n.Right) + ")"
	case *ArraySize:
		return "(array " + ToSExpr(n.Size) + ")"
	case *IndexExpr:
		return "(idx " + strconv.Quote(n.Array) + " " + ToSExpr(n.Index) + ")"
	case *ArgList:
		return listSExpr("args", exprNodes(n.Args))
	case *CallExpr:
		if n.Args == nil {
			return "(call " + strconv.Quote(n.Name) + " (args))"
		}
		return "(call " + strconv.Quote(n.Name) + " " + ToSExpr(n.Args) + ")"
	case *VarDecl:
		return "(var " + strconv.Quote(n.Name) + " " + ToSExpr(n.Init) + ")"
	case *AssignStmt:
		return "(assign " + strconv.Quote(n.Name) + " " + ToSExpr(n.Value) + ")"
	case *IndexAssignStmt:
		return "(idx-assign " + strconv.Quote(n.Array) + " " + ToSExpr(n.Index) + " " + ToSExpr(n.Value) + ")"
	case *IfStmt:
		result := "(if " + ToSExpr(n.Cond) + " " + ToSExpr(n.Then)
		if n.Else != nil {
			result += " " + ToSExpr(n.Else)
		}
		return result + ")"
	case *ReturnStmt:
		if n.Value == nil {
			return "(return)"
		}
		return "(return " + ToSExpr(n.Value) + ")"
	case *PrintStmt:
		return "(print " + ToSExpr(n.Value) + ")"
	case *FreeStmt:
		return "(free " + strconv.Quote(n.Name) + ")"
	case *Block:
		return listSExpr("block", stmtNodes(n.Stmts))
	case *FuncDecl:
		params := make([]string, len(n.Params))
		for i, p := range n.Params {
			params[i] = strconv.Quote(p)
		}
		return fmt.Sprintf("(func %s [%s] %s %s)", strconv.Quote(n.Name), strings.Join(params, " "), n.ReturnType, ToSExpr(n.Body))
	case *Program:
		return listSExpr("program", stmtNodes(n.Decls))
	default:
		return fmt.Sprintf("(unknown %T)", node)
	}
}

func listSExpr(head string, children []Node) string {
	var sb strings.Builder
	sb.WriteString("(")
	sb.WriteString(head)
	for _, child := range children {
		sb.WriteString(" ")
		sb.WriteString(ToSExpr(child))
	}
	sb.WriteString(")")
	return sb.String()
}

func exprNodes(exprs []Expr) []Node {
	nodes := make([]Node, len(exprs))
	for i, e := range exprs {
		nodes[i] = e
	}
	return nodes
}

func stmtNodes(stmts []Stmt) []Node {
	nodes := make([]Node, len(stmts))
	for i, s := range stmts {
		nodes[i] = s
	}
	return nodes
}

// constantSize extracts a literal array size, accepting a negated literal so
// that "var a[-1];" is reported as non-positive rather than malformed.
func constantSize(expr Expr) (int64, bool) {
	switch e := expr.(type) {
	case *IntLiteral:
		return e.Value, true
	case *UnaryExpr:
		if lit, ok := e.Operand.(*IntLiteral); ok && e.Op == Negate {
			return -lit.Value, true
		}
	}
	return 0, false
}

package main

// Type is the static type of an expression or symbol.
type Type int

const (
	TypeInt Type = iota
	TypeBool
	TypeVoid
	TypeArray
)

func (t Type) String() string {
	switch t {
	case TypeInt:
		return "int"
	case TypeBool:
		return "bool"
	case TypeVoid:
		return "void"
	case TypeArray:
		return "array"
	default:
		return "unknown"
	}
}

// Symbol describes one declared name.
type Symbol struct {
	Name       string
	Type       Type // return type for functions
	Depth      int  // scope depth of the declaration
	IsFunction bool
	Params     []string // functions only
	ArraySize  int64    // arrays only
	Size       Expr     // declared-size expression, arrays only

	Marked   bool // mark-sweep liveness
	RefCount int  // manual reclamation
}

// SymbolTable is the analyzer's flat, ordered symbol list. Scopes are not
// materialized: each symbol carries the depth it was declared at, and
// leaving a scope drops everything at or below it.
//
// Lookups are linear scans from the most recent declaration backwards.
type SymbolTable struct {
	symbols []*Symbol
	depth   int
}

func NewSymbolTable() *SymbolTable {
	return &SymbolTable{}
}

// Depth returns the current scope depth; 0 is the top level.
func (st *SymbolTable) Depth() int {
	return st.depth
}

// Declare appends a symbol at the current depth.
func (st *SymbolTable) Declare(sym *Symbol) *Symbol {
	sym.Depth = st.depth
	if sym.RefCount == 0 {
		sym.RefCount = 1
	}
	st.symbols = append(st.symbols, sym)
	return sym
}

// Lookup returns the innermost visible symbol with the given name, or nil.
func (st *SymbolTable) Lookup(name string) *Symbol {
	for i := len(st.symbols) - 1; i >= 0; i-- {
		if st.symbols[i].Name == name && st.symbols[i].Depth <= st.depth {
			return st.symbols[i]
		}
	}
	return nil
}

// DeclaredInCurrentScope reports whether name was declared at exactly the
// current depth.
func (st *SymbolTable) DeclaredInCurrentScope(name string) bool {
	for i := len(st.symbols) - 1; i >= 0; i-- {
		sym := st.symbols[i]
		if sym.Depth < st.depth {
			break
		}
		if sym.Name == name && sym.Depth == st.depth {
			return true
		}
	}
	return false
}

func (st *SymbolTable) EnterScope() {
	st.depth++
}

// ExitScope removes every symbol declared at or below the current depth,
// newest first, then returns to the enclosing depth.
func (st *SymbolTable) ExitScope() {
	for i := len(st.symbols) - 1; i >= 0; i-- {
		if st.symbols[i].Depth < st.depth {
			break
		}
		st.symbols[i] = nil
		st.symbols = st.symbols[:i]
	}
	if st.depth > 0 {
		st.depth--
	}
}

// Retain adds a reference to a visible symbol. It returns false when the
// name does not resolve. No dd construct aliases a variable yet, so only
// callers that build tables directly use it.
func (st *SymbolTable) Retain(name string) bool {
	sym := st.Lookup(name)
	if sym == nil {
		return false
	}
	sym.RefCount++
	return true
}

// Symbols returns the live entries in declaration order.
func (st *SymbolTable) Symbols() []*Symbol {
	return st.symbols
}

func (st *SymbolTable) Len() int {
	return len(st.symbols)
}

// Remove drops one entry, keeping the order of the rest.
func (st *SymbolTable) Remove(sym *Symbol) bool {
	for i, s := range st.symbols {
		if s == sym {
			copy(st.symbols[i:], st.symbols[i+1:])
			st.symbols[len(st.symbols)-1] = nil
			st.symbols = st.symbols[:len(st.symbols)-1]
			return true
		}
	}
	return false
}

// Filter keeps the entries for which keep returns true, compacting the list
// in place. It returns the dropped entries in their original order.
func (st *SymbolTable) Filter(keep func(*Symbol) bool) []*Symbol {
	var dropped []*Symbol
	n := 0
	for _, sym := range st.symbols {
		if keep(sym) {
			st.symbols[n] = sym
			n++
		} else {
			dropped = append(dropped, sym)
		}
	}
	for i := n; i < len(st.symbols); i++ {
		st.symbols[i] = nil
	}
	st.symbols = st.symbols[:n]
	return dropped
}

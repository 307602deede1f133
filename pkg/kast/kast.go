// Package kast defines the function-body syntax tree consumed by the
// ID-dependency checker. It is deliberately small: a closed set of
// expression and statement shapes, each carrying 1-based source positions
// and, where relevant, resolved declaration handles.
package kast

import "fmt"

// Pos is a 1-based source location. Columns count bytes.
type Pos struct {
	Line   int `json:"line" msgpack:"line"`
	Column int `json:"column" msgpack:"column"`
}

func (p Pos) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// IsValid reports whether the position was set.
func (p Pos) IsValid() bool {
	return p.Line > 0
}

// DeclID is a stable handle for a variable declaration. Zero means the
// reference could not be resolved.
type DeclID int

// StructID is a stable handle for a struct type. Zero means unknown.
type StructID int

// Node is implemented by every expression and statement.
type Node interface {
	Pos() Pos
}

// Expr is an expression node.
type Expr interface {
	Node
	exprNode()
}

// Stmt is a statement node.
type Stmt interface {
	Node
	stmtNode()
}

type (
	// Ident is a reference to a named variable.
	Ident struct {
		At   Pos
		Name string
		Decl DeclID
	}

	// Member is a field access, X.Field or X->Field.
	Member struct {
		At     Pos
		X      Expr
		Field  string
		Struct StructID // struct owning Field, zero if unresolved
		Arrow  bool
	}

	// Call is a function call. Callee is empty for indirect calls.
	Call struct {
		At     Pos
		Callee string
		Fun    Expr
		Args   []Expr
	}

	// Binary is a binary operator, including the comma operator.
	Binary struct {
		At Pos
		Op string
		X  Expr
		Y  Expr
	}

	// Unary is a prefix or postfix unary operator.
	Unary struct {
		At      Pos
		Op      string
		X       Expr
		Postfix bool
	}

	// Paren is a parenthesized expression.
	Paren struct {
		At Pos
		X  Expr
	}

	// Cast is an explicit type conversion.
	Cast struct {
		At   Pos
		Type string
		X    Expr
	}

	// Index is a subscript, X[Index].
	Index struct {
		At    Pos
		X     Expr
		Index Expr
	}

	// Conditional is the ternary operator.
	Conditional struct {
		At   Pos
		Cond Expr
		Then Expr
		Else Expr
	}

	// Assign is a plain (Op "=") or compound assignment.
	Assign struct {
		At  Pos
		Op  string
		LHS Expr
		RHS Expr
	}

	// Literal is a number, character, string or boolean constant.
	Literal struct {
		At    Pos
		Value string
	}

	// BadExpr stands for any expression form the frontend does not model.
	BadExpr struct {
		At   Pos
		Kind string
		Subs []Expr
	}
)

func (e *Ident) Pos() Pos       { return e.At }
func (e *Member) Pos() Pos      { return e.At }
func (e *Call) Pos() Pos        { return e.At }
func (e *Binary) Pos() Pos      { return e.At }
func (e *Unary) Pos() Pos       { return e.At }
func (e *Paren) Pos() Pos       { return e.At }
func (e *Cast) Pos() Pos        { return e.At }
func (e *Index) Pos() Pos       { return e.At }
func (e *Conditional) Pos() Pos { return e.At }
func (e *Assign) Pos() Pos      { return e.At }
func (e *Literal) Pos() Pos     { return e.At }
func (e *BadExpr) Pos() Pos     { return e.At }

func (*Ident) exprNode()       {}
func (*Member) exprNode()      {}
func (*Call) exprNode()        {}
func (*Binary) exprNode()      {}
func (*Unary) exprNode()       {}
func (*Paren) exprNode()       {}
func (*Cast) exprNode()        {}
func (*Index) exprNode()       {}
func (*Conditional) exprNode() {}
func (*Assign) exprNode()      {}
func (*Literal) exprNode()     {}
func (*BadExpr) exprNode()     {}

// LoopKind distinguishes the three C loop forms.
type LoopKind int

const (
	ForLoop LoopKind = iota
	WhileLoop
	DoWhileLoop
)

// String returns the wording used in diagnostics.
func (k LoopKind) String() string {
	switch k {
	case ForLoop:
		return "for loop"
	case WhileLoop:
		return "while loop"
	case DoWhileLoop:
		return "do loop"
	default:
		return "loop"
	}
}

type (
	// Block is a compound statement.
	Block struct {
		At   Pos
		List []Stmt
	}

	// VarDecl declares one variable. At is the start of the enclosing
	// declaration, which is where the declaration is reported.
	VarDecl struct {
		At     Pos
		Name   string
		NameAt Pos
		ID     DeclID
		Struct StructID // struct type of the variable, zero if none
		Init   Expr
	}

	// DeclStmt is a declaration with one or more declarators.
	DeclStmt struct {
		At   Pos
		Vars []*VarDecl
	}

	// ExprStmt is an expression evaluated for its side effects.
	ExprStmt struct {
		At Pos
		X  Expr
	}

	// Loop is a for, while or do-while loop. Keyword is the token that
	// closes the backward branch: "for", "while", or the trailing "while"
	// of a do loop.
	Loop struct {
		At      Pos
		Kind    LoopKind
		Keyword Pos
		Init    Stmt
		Cond    Expr
		Post    Expr
		Body    Stmt
	}

	// If is an if statement; Else may be nil.
	If struct {
		At   Pos
		Cond Expr
		Then Stmt
		Else Stmt
	}

	// Switch is a switch statement.
	Switch struct {
		At   Pos
		Tag  Expr
		Body Stmt
	}

	// Case is a case or default label with the statements that follow it.
	Case struct {
		At    Pos
		Value Expr // nil for default
		Body  []Stmt
	}

	// Labeled is a goto label.
	Labeled struct {
		At    Pos
		Label string
		Stmt  Stmt
	}

	// Return is a return statement.
	Return struct {
		At Pos
		X  Expr
	}

	// Jump is break, continue or goto.
	Jump struct {
		At    Pos
		Token string
		Label string
	}

	// BadStmt stands for a statement the frontend does not model.
	BadStmt struct {
		At   Pos
		Kind string
	}
)

func (s *Block) Pos() Pos    { return s.At }
func (s *VarDecl) Pos() Pos  { return s.At }
func (s *DeclStmt) Pos() Pos { return s.At }
func (s *ExprStmt) Pos() Pos { return s.At }
func (s *Loop) Pos() Pos     { return s.At }
func (s *If) Pos() Pos       { return s.At }
func (s *Switch) Pos() Pos   { return s.At }
func (s *Case) Pos() Pos     { return s.At }
func (s *Labeled) Pos() Pos  { return s.At }
func (s *Return) Pos() Pos   { return s.At }
func (s *Jump) Pos() Pos     { return s.At }
func (s *BadStmt) Pos() Pos  { return s.At }

func (*Block) stmtNode()    {}
func (*DeclStmt) stmtNode() {}
func (*ExprStmt) stmtNode() {}
func (*Loop) stmtNode()     {}
func (*If) stmtNode()       {}
func (*Switch) stmtNode()   {}
func (*Case) stmtNode()     {}
func (*Labeled) stmtNode()  {}
func (*Return) stmtNode()   {}
func (*Jump) stmtNode()     {}
func (*BadStmt) stmtNode()  {}

// Function is a single function definition.
type Function struct {
	Name   string
	At     Pos
	Params []*VarDecl
	Body   *Block
}

func (f *Function) Pos() Pos { return f.At }

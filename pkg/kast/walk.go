package kast

// Inspect traverses the tree rooted at n in source order, calling f for
// each node before its children. If f returns false the children of that
// node are skipped. Nil nodes are never passed to f.
func Inspect(n Node, f func(Node) bool) {
	if isNil(n) || !f(n) {
		return
	}

	switch n := n.(type) {
	case *Function:
		for _, p := range n.Params {
			Inspect(p, f)
		}
		if n.Body != nil {
			Inspect(n.Body, f)
		}

	// statements
	case *Block:
		inspectStmts(n.List, f)
	case *DeclStmt:
		for _, v := range n.Vars {
			Inspect(v, f)
		}
	case *VarDecl:
		Inspect(n.Init, f)
	case *ExprStmt:
		Inspect(n.X, f)
	case *Loop:
		if n.Kind == DoWhileLoop {
			Inspect(n.Body, f)
			Inspect(n.Cond, f)
			return
		}
		Inspect(n.Init, f)
		Inspect(n.Cond, f)
		Inspect(n.Post, f)
		Inspect(n.Body, f)
	case *If:
		Inspect(n.Cond, f)
		Inspect(n.Then, f)
		Inspect(n.Else, f)
	case *Switch:
		Inspect(n.Tag, f)
		Inspect(n.Body, f)
	case *Case:
		Inspect(n.Value, f)
		inspectStmts(n.Body, f)
	case *Labeled:
		Inspect(n.Stmt, f)
	case *Return:
		Inspect(n.X, f)

	// expressions
	case *Member:
		Inspect(n.X, f)
	case *Call:
		Inspect(n.Fun, f)
		for _, a := range n.Args {
			Inspect(a, f)
		}
	case *Binary:
		Inspect(n.X, f)
		Inspect(n.Y, f)
	case *Unary:
		Inspect(n.X, f)
	case *Paren:
		Inspect(n.X, f)
	case *Cast:
		Inspect(n.X, f)
	case *Index:
		Inspect(n.X, f)
		Inspect(n.Index, f)
	case *Conditional:
		Inspect(n.Cond, f)
		Inspect(n.Then, f)
		Inspect(n.Else, f)
	case *Assign:
		Inspect(n.LHS, f)
		Inspect(n.RHS, f)
	case *BadExpr:
		for _, s := range n.Subs {
			Inspect(s, f)
		}
	}
}

func inspectStmts(list []Stmt, f func(Node) bool) {
	for _, s := range list {
		Inspect(s, f)
	}
}

// isNil catches typed nil pointers stored in an interface.
func isNil(n Node) bool {
	switch n := n.(type) {
	case nil:
		return true
	case *Function:
		return n == nil
	case *Block:
		return n == nil
	case *VarDecl:
		return n == nil
	case *Ident:
		return n == nil
	case *Member:
		return n == nil
	case *Call:
		return n == nil
	case *Binary:
		return n == nil
	case *Unary:
		return n == nil
	case *Paren:
		return n == nil
	case *Cast:
		return n == nil
	case *Index:
		return n == nil
	case *Conditional:
		return n == nil
	case *Assign:
		return n == nil
	case *Literal:
		return n == nil
	case *BadExpr:
		return n == nil
	case *DeclStmt:
		return n == nil
	case *ExprStmt:
		return n == nil
	case *Loop:
		return n == nil
	case *If:
		return n == nil
	case *Switch:
		return n == nil
	case *Case:
		return n == nil
	case *Labeled:
		return n == nil
	case *Return:
		return n == nil
	case *Jump:
		return n == nil
	case *BadStmt:
		return n == nil
	}
	return false
}

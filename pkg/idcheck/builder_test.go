package idcheck

import "github.com/l3aro/idbranch/pkg/kast"

// small constructors for hand-built trees; line numbers stand in for
// statement positions

func at(line, col int) kast.Pos { return kast.Pos{Line: line, Column: col} }

func call(pos kast.Pos, name string, args ...kast.Expr) *kast.Call {
	return &kast.Call{At: pos, Callee: name, Fun: &kast.Ident{At: pos, Name: name}, Args: args}
}

func lit(pos kast.Pos, v string) *kast.Literal { return &kast.Literal{At: pos, Value: v} }

func ref(pos kast.Pos, name string, id kast.DeclID) *kast.Ident {
	return &kast.Ident{At: pos, Name: name, Decl: id}
}

func bin(x kast.Expr, op string, y kast.Expr) *kast.Binary {
	return &kast.Binary{At: x.Pos(), Op: op, X: x, Y: y}
}

func decl(pos kast.Pos, name string, id kast.DeclID, init kast.Expr) *kast.DeclStmt {
	return &kast.DeclStmt{At: pos, Vars: []*kast.VarDecl{{At: pos, Name: name, NameAt: pos, ID: id, Init: init}}}
}

func assign(lhs, rhs kast.Expr) *kast.ExprStmt {
	return &kast.ExprStmt{At: lhs.Pos(), X: &kast.Assign{At: lhs.Pos(), Op: "=", LHS: lhs, RHS: rhs}}
}

func forLoop(pos kast.Pos, cond kast.Expr, body ...kast.Stmt) *kast.Loop {
	return &kast.Loop{At: pos, Kind: kast.ForLoop, Keyword: pos, Cond: cond, Body: &kast.Block{At: pos, List: body}}
}

func whileLoop(pos kast.Pos, cond kast.Expr, body ...kast.Stmt) *kast.Loop {
	return &kast.Loop{At: pos, Kind: kast.WhileLoop, Keyword: pos, Cond: cond, Body: &kast.Block{At: pos, List: body}}
}

func fn(stmts ...kast.Stmt) *kast.Function {
	return &kast.Function{Name: "kern", At: at(1, 1), Body: &kast.Block{At: at(1, 20), List: stmts}}
}

func messages(events []Event) []string {
	out := make([]string, 0, len(events))
	for _, e := range events {
		out = append(out, e.String())
	}
	return out
}

package frontend

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/l3aro/idbranch/pkg/kast"
)

func (l *lowerer) expr(n *sitter.Node) kast.Expr {
	if n == nil {
		return nil
	}
	at := position(n)

	switch n.Type() {
	case "identifier":
		name := l.text(n)
		return &kast.Ident{At: at, Name: name, Decl: l.scope.lookupVar(name)}

	case "field_expression":
		base := n.ChildByFieldName("argument")
		field := l.text(n.ChildByFieldName("field"))
		arrow := operator(n, base) == "->"
		var owner kast.StructID
		if s := l.structOf(base); s != 0 {
			if _, ok := l.fields[s][field]; ok {
				owner = s
			}
		}
		return &kast.Member{At: at, X: l.expr(base), Field: field, Struct: owner, Arrow: arrow}

	case "call_expression":
		fun := n.ChildByFieldName("function")
		call := &kast.Call{At: at, Fun: l.expr(fun)}
		// a name bound to a local variable is a function pointer
		if fun != nil && fun.Type() == "identifier" && l.scope.lookupVar(l.text(fun)) == 0 {
			call.Callee = l.text(fun)
		}
		if args := n.ChildByFieldName("arguments"); args != nil {
			for i := 0; i < int(args.NamedChildCount()); i++ {
				a := args.NamedChild(i)
				if a != nil && a.Type() != "comment" {
					call.Args = append(call.Args, l.expr(a))
				}
			}
		}
		return call

	case "binary_expression", "comma_expression":
		left := n.ChildByFieldName("left")
		op := ","
		if n.Type() == "binary_expression" {
			op = operator(n, left)
		}
		return &kast.Binary{At: at, Op: op, X: l.expr(left), Y: l.expr(n.ChildByFieldName("right"))}

	case "unary_expression", "pointer_expression":
		arg := n.ChildByFieldName("argument")
		return &kast.Unary{At: at, Op: operator(n, nil), X: l.expr(arg)}

	case "update_expression":
		arg := n.ChildByFieldName("argument")
		op := operator(n, nil)
		postfix := arg != nil && n.Child(0) != nil && sameNode(n.Child(0), arg)
		return &kast.Unary{At: at, Op: op, X: l.expr(arg), Postfix: postfix}

	case "cast_expression":
		return &kast.Cast{
			At:   at,
			Type: l.text(n.ChildByFieldName("type")),
			X:    l.expr(n.ChildByFieldName("value")),
		}

	case "parenthesized_expression":
		return &kast.Paren{At: at, X: l.expr(firstNamed(n))}

	case "subscript_expression":
		return &kast.Index{
			At:    at,
			X:     l.expr(n.ChildByFieldName("argument")),
			Index: l.expr(n.ChildByFieldName("index")),
		}

	case "conditional_expression":
		return &kast.Conditional{
			At:   at,
			Cond: l.expr(n.ChildByFieldName("condition")),
			Then: l.expr(n.ChildByFieldName("consequence")),
			Else: l.expr(n.ChildByFieldName("alternative")),
		}

	case "assignment_expression":
		left := n.ChildByFieldName("left")
		return &kast.Assign{
			At:  at,
			Op:  operator(n, left),
			LHS: l.expr(left),
			RHS: l.expr(n.ChildByFieldName("right")),
		}

	case "number_literal", "string_literal", "char_literal", "concatenated_string",
		"true", "false", "null":
		return &kast.Literal{At: at, Value: l.text(n)}
	}

	bad := &kast.BadExpr{At: at, Kind: n.Type()}
	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(i)
		if child == nil || child.Type() == "comment" || child.Type() == "type_descriptor" {
			continue
		}
		bad.Subs = append(bad.Subs, l.expr(child))
	}
	return bad
}

// operator returns the operator token of n. It prefers the "operator"
// field and otherwise takes the first anonymous child after skip.
func operator(n, skip *sitter.Node) string {
	if op := n.ChildByFieldName("operator"); op != nil {
		return op.Type()
	}
	passed := skip == nil
	for i := 0; i < int(n.ChildCount()); i++ {
		child := n.Child(i)
		if child == nil {
			continue
		}
		if !passed {
			passed = sameNode(child, skip)
			continue
		}
		if !child.IsNamed() {
			return child.Type()
		}
	}
	return ""
}

// structOf resolves the struct type of the expression n, the base of a
// member access. It understands names, member chains, subscripts,
// dereferences, parentheses and casts to struct types.
func (l *lowerer) structOf(n *sitter.Node) kast.StructID {
	for n != nil {
		switch n.Type() {
		case "identifier":
			return l.declStruct[l.scope.lookupVar(l.text(n))]
		case "field_expression":
			owner := l.structOf(n.ChildByFieldName("argument"))
			if owner == 0 {
				return 0
			}
			return l.fields[owner][l.text(n.ChildByFieldName("field"))]
		case "parenthesized_expression":
			n = firstNamed(n)
		case "subscript_expression":
			n = n.ChildByFieldName("argument")
		case "pointer_expression":
			if !strings.HasPrefix(operator(n, nil), "*") {
				return 0
			}
			n = n.ChildByFieldName("argument")
		case "cast_expression":
			if t := n.ChildByFieldName("type"); t != nil {
				return l.typeStruct(t.ChildByFieldName("type"))
			}
			return 0
		default:
			return 0
		}
	}
	return 0
}

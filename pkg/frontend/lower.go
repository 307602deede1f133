package frontend

import (
	"bytes"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/l3aro/idbranch/pkg/kast"
)

// lowerer converts one tree-sitter tree. Handles are unique within the
// translation unit.
type lowerer struct {
	content    []byte
	original   []byte // source before qualifier blanking
	file       *scope
	scope      *scope
	nextDecl   kast.DeclID
	nextStruct kast.StructID

	// struct type of each declared variable, zero when not a struct
	declStruct map[kast.DeclID]kast.StructID
	// struct type of each field, keyed by owning struct
	fields map[kast.StructID]map[string]kast.StructID
}

func newLowerer(content, original []byte) *lowerer {
	file := newScope(nil)
	return &lowerer{
		content:    content,
		original:   original,
		file:       file,
		scope:      file,
		declStruct: make(map[kast.DeclID]kast.StructID),
		fields:     make(map[kast.StructID]map[string]kast.StructID),
	}
}

func (l *lowerer) text(n *sitter.Node) string {
	if n == nil {
		return ""
	}
	return n.Content(l.content)
}

// startOf returns the start of n, moved back over qualifiers such as
// __kernel that were blanked before parsing.
func (l *lowerer) startOf(n *sitter.Node) kast.Pos {
	pos := position(n)
	start := int(n.StartByte())
	if len(l.original) != len(l.content) || start > len(l.content) {
		return pos
	}

	from := start
	for i := start; i > 0; i-- {
		c := l.content[i-1]
		if c != l.original[i-1] {
			from = i - 1
			continue
		}
		if c != ' ' && c != '\t' && c != '\n' && c != '\r' {
			break
		}
	}
	if from == start {
		return pos
	}
	return kast.Pos{
		Line:   pos.Line - bytes.Count(l.content[from:start], []byte{'\n'}),
		Column: from - (bytes.LastIndexByte(l.content[:from], '\n') + 1) + 1,
	}
}

func (l *lowerer) push() { l.scope = newScope(l.scope) }
func (l *lowerer) pop()  { l.scope = l.scope.parent }

func (l *lowerer) declare(name string, strct kast.StructID) kast.DeclID {
	l.nextDecl++
	id := l.nextDecl
	l.scope.vars[name] = id
	l.declStruct[id] = strct
	return id
}

// translationUnit lowers every function definition at file scope,
// looking through preprocessor conditionals.
func (l *lowerer) translationUnit(root *sitter.Node) []*kast.Function {
	var fns []*kast.Function
	l.topLevel(root, &fns)
	return fns
}

func (l *lowerer) topLevel(n *sitter.Node, fns *[]*kast.Function) {
	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(i)
		if child == nil {
			continue
		}
		switch child.Type() {
		case "function_definition":
			if fn := l.function(child); fn != nil {
				*fns = append(*fns, fn)
			}
		case "declaration":
			l.declaration(child)
		case "type_definition":
			l.typedef(child)
		case "struct_specifier", "union_specifier":
			l.typeStruct(child)
		case "preproc_if", "preproc_ifdef", "preproc_else", "preproc_elif", "preproc_elifdef":
			l.topLevel(child, fns)
		}
	}
}

func (l *lowerer) function(n *sitter.Node) *kast.Function {
	fdecl := functionDeclarator(n.ChildByFieldName("declarator"))
	if fdecl == nil {
		return nil
	}
	name, _ := declaratorName(fdecl)
	if name == nil {
		return nil
	}

	fn := &kast.Function{Name: l.text(name), At: l.startOf(n)}

	l.push()
	defer l.pop()

	if params := fdecl.ChildByFieldName("parameters"); params != nil {
		for i := 0; i < int(params.NamedChildCount()); i++ {
			p := params.NamedChild(i)
			if p == nil || p.Type() != "parameter_declaration" {
				continue
			}
			ident, _ := declaratorName(p.ChildByFieldName("declarator"))
			if ident == nil {
				continue
			}
			strct := l.typeStruct(p.ChildByFieldName("type"))
			pname := l.text(ident)
			fn.Params = append(fn.Params, &kast.VarDecl{
				At:     position(p),
				Name:   pname,
				NameAt: position(ident),
				ID:     l.declare(pname, strct),
				Struct: strct,
			})
		}
	}

	if body := n.ChildByFieldName("body"); body != nil {
		fn.Body = l.block(body)
	}
	return fn
}

// functionDeclarator digs through pointer and parenthesized declarators
// to the function_declarator of a definition.
func functionDeclarator(n *sitter.Node) *sitter.Node {
	for n != nil {
		if n.Type() == "function_declarator" {
			return n
		}
		n = innerDeclarator(n)
	}
	return nil
}

func innerDeclarator(n *sitter.Node) *sitter.Node {
	if d := n.ChildByFieldName("declarator"); d != nil {
		return d
	}
	if n.NamedChildCount() > 0 {
		return n.NamedChild(0)
	}
	return nil
}

// declaratorName returns the identifier introduced by a declarator and,
// for init_declarator, the initializer value.
func declaratorName(n *sitter.Node) (ident, value *sitter.Node) {
	for n != nil {
		switch n.Type() {
		case "identifier", "field_identifier", "type_identifier":
			return n, value
		case "init_declarator":
			value = n.ChildByFieldName("value")
			n = n.ChildByFieldName("declarator")
		case "pointer_declarator", "array_declarator", "parenthesized_declarator",
			"attributed_declarator", "function_declarator":
			n = innerDeclarator(n)
		default:
			return nil, value
		}
	}
	return nil, value
}

var declaratorTypes = map[string]bool{
	"identifier":               true,
	"init_declarator":          true,
	"pointer_declarator":       true,
	"array_declarator":         true,
	"parenthesized_declarator": true,
	"attributed_declarator":    true,
	"function_declarator":      true,
}

// declaration lowers a declaration into one VarDecl per declarator.
// Function prototypes declare nothing.
func (l *lowerer) declaration(n *sitter.Node) *kast.DeclStmt {
	stmt := &kast.DeclStmt{At: position(n)}
	strct := l.typeStruct(n.ChildByFieldName("type"))

	for i := 0; i < int(n.NamedChildCount()); i++ {
		d := n.NamedChild(i)
		if d == nil || !declaratorTypes[d.Type()] {
			continue
		}
		if functionDeclarator(d) != nil && d.Type() != "init_declarator" {
			continue
		}
		ident, value := declaratorName(d)
		if ident == nil {
			continue
		}
		name := l.text(ident)
		v := &kast.VarDecl{
			At:     stmt.At,
			Name:   name,
			NameAt: position(ident),
			ID:     l.declare(name, strct),
			Struct: strct,
		}
		if value != nil {
			v.Init = l.expr(value)
		}
		stmt.Vars = append(stmt.Vars, v)
	}
	return stmt
}

func (l *lowerer) typedef(n *sitter.Node) {
	strct := l.typeStruct(n.ChildByFieldName("type"))
	for i := 0; i < int(n.NamedChildCount()); i++ {
		d := n.NamedChild(i)
		if d == nil {
			continue
		}
		switch d.Type() {
		case "type_identifier":
			l.scope.types[l.text(d)] = strct
		case "pointer_declarator", "array_declarator", "parenthesized_declarator":
			if ident, _ := declaratorName(d); ident != nil {
				l.scope.types[l.text(ident)] = strct
			}
		}
	}
}

// typeStruct returns the struct type named by a type specifier. A struct
// or union body allocates a new handle and records its fields.
func (l *lowerer) typeStruct(n *sitter.Node) kast.StructID {
	if n == nil {
		return 0
	}
	switch n.Type() {
	case "type_identifier":
		return l.scope.lookupType(l.text(n))
	case "struct_specifier", "union_specifier":
	default:
		return 0
	}

	name := n.ChildByFieldName("name")
	body := n.ChildByFieldName("body")
	if body == nil {
		if name == nil {
			return 0
		}
		if id, ok := l.scope.lookupTag(l.text(name)); ok {
			return id
		}
		// forward reference, completed by a later definition
		id := l.newStruct()
		l.file.tags[l.text(name)] = id
		return id
	}

	var id kast.StructID
	if name != nil {
		if prev, ok := l.scope.tags[l.text(name)]; ok && len(l.fields[prev]) == 0 {
			id = prev
		}
	}
	if id == 0 {
		id = l.newStruct()
	}
	if name != nil {
		l.scope.tags[l.text(name)] = id
	}

	fields := l.fields[id]
	for i := 0; i < int(body.NamedChildCount()); i++ {
		fd := body.NamedChild(i)
		if fd == nil || fd.Type() != "field_declaration" {
			continue
		}
		ftype := l.typeStruct(fd.ChildByFieldName("type"))
		for j := 0; j < int(fd.NamedChildCount()); j++ {
			d := fd.NamedChild(j)
			if d == nil {
				continue
			}
			switch d.Type() {
			case "field_identifier", "pointer_declarator", "array_declarator", "parenthesized_declarator":
				if ident, _ := declaratorName(d); ident != nil {
					fields[l.text(ident)] = ftype
				}
			}
		}
	}
	return id
}

func (l *lowerer) newStruct() kast.StructID {
	l.nextStruct++
	l.fields[l.nextStruct] = make(map[string]kast.StructID)
	return l.nextStruct
}

// block lowers a compound statement in a fresh scope.
func (l *lowerer) block(n *sitter.Node) *kast.Block {
	l.push()
	defer l.pop()

	b := &kast.Block{At: position(n)}
	l.items(n, &b.List, nil)
	return b
}

// items appends the lowered statements among n's named children,
// skipping the node skip and splicing preprocessor conditionals.
func (l *lowerer) items(n *sitter.Node, list *[]kast.Stmt, skip *sitter.Node) {
	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(i)
		if child == nil || sameNode(child, skip) {
			continue
		}
		switch child.Type() {
		case "preproc_if", "preproc_ifdef", "preproc_else", "preproc_elif", "preproc_elifdef":
			cond := child.ChildByFieldName("condition")
			if cond == nil {
				cond = child.ChildByFieldName("name")
			}
			l.items(child, list, cond)
			continue
		}
		if s := l.stmt(child); s != nil {
			*list = append(*list, s)
		}
	}
}

func sameNode(a, b *sitter.Node) bool {
	if a == nil || b == nil {
		return false
	}
	return a.StartByte() == b.StartByte() && a.EndByte() == b.EndByte() && a.Type() == b.Type()
}

func (l *lowerer) stmt(n *sitter.Node) kast.Stmt {
	if n == nil {
		return nil
	}
	switch n.Type() {
	case "compound_statement":
		return l.block(n)
	case "declaration":
		return l.declaration(n)
	case "type_definition":
		l.typedef(n)
		return nil
	case "struct_specifier", "union_specifier":
		l.typeStruct(n)
		return nil
	case "expression_statement":
		s := &kast.ExprStmt{At: position(n)}
		if x := firstNamed(n); x != nil {
			s.X = l.expr(x)
		}
		return s
	case "if_statement":
		return l.ifStmt(n)
	case "for_statement":
		return l.forStmt(n)
	case "while_statement":
		return &kast.Loop{
			At:      position(n),
			Kind:    kast.WhileLoop,
			Keyword: keyword(n, "while"),
			Cond:    l.condition(n.ChildByFieldName("condition")),
			Body:    l.stmt(bodyOf(n)),
		}
	case "do_statement":
		// the body is lowered first so its declarations precede the condition
		body := l.stmt(bodyOf(n))
		return &kast.Loop{
			At:      position(n),
			Kind:    kast.DoWhileLoop,
			Keyword: keyword(n, "while"),
			Body:    body,
			Cond:    l.condition(n.ChildByFieldName("condition")),
		}
	case "switch_statement":
		return &kast.Switch{
			At:   position(n),
			Tag:  l.condition(n.ChildByFieldName("condition")),
			Body: l.stmt(bodyOf(n)),
		}
	case "case_statement":
		value := n.ChildByFieldName("value")
		s := &kast.Case{At: position(n)}
		if value != nil {
			s.Value = l.expr(value)
		}
		l.items(n, &s.Body, value)
		return s
	case "labeled_statement":
		label := n.ChildByFieldName("label")
		s := &kast.Labeled{At: position(n), Label: l.text(label)}
		for i := 0; i < int(n.NamedChildCount()); i++ {
			child := n.NamedChild(i)
			if child != nil && child.Type() != "comment" && !sameNode(child, label) {
				s.Stmt = l.stmt(child)
				break
			}
		}
		return s
	case "return_statement":
		s := &kast.Return{At: position(n)}
		if x := firstNamed(n); x != nil {
			s.X = l.expr(x)
		}
		return s
	case "break_statement":
		return &kast.Jump{At: position(n), Token: "break"}
	case "continue_statement":
		return &kast.Jump{At: position(n), Token: "continue"}
	case "goto_statement":
		return &kast.Jump{At: position(n), Token: "goto", Label: l.text(n.ChildByFieldName("label"))}
	case "comment", "preproc_call", "preproc_def", "preproc_function_def", "preproc_include":
		return nil
	default:
		return &kast.BadStmt{At: position(n), Kind: n.Type()}
	}
}

func (l *lowerer) ifStmt(n *sitter.Node) kast.Stmt {
	s := &kast.If{
		At:   position(n),
		Cond: l.condition(n.ChildByFieldName("condition")),
		Then: l.stmt(n.ChildByFieldName("consequence")),
	}
	if alt := n.ChildByFieldName("alternative"); alt != nil {
		if alt.Type() == "else_clause" {
			alt = firstNamed(alt)
		}
		s.Else = l.stmt(alt)
	}
	return s
}

// forStmt reads the for header positionally, which works whether or not
// the grammar labels the clauses with fields.
func (l *lowerer) forStmt(n *sitter.Node) kast.Stmt {
	l.push()
	defer l.pop()

	loop := &kast.Loop{At: position(n), Kind: kast.ForLoop, Keyword: keyword(n, "for")}

	const (
		beforeParen = iota
		inInit
		inCond
		inPost
		inBody
	)
	state := beforeParen
	for i := 0; i < int(n.ChildCount()); i++ {
		child := n.Child(i)
		if child == nil || child.Type() == "comment" {
			continue
		}
		if !child.IsNamed() {
			switch {
			case child.Type() == "(" && state == beforeParen:
				state = inInit
			case child.Type() == ";" && state == inInit:
				state = inCond
			case child.Type() == ";" && state == inCond:
				state = inPost
			case child.Type() == ")" && state == inPost:
				state = inBody
			}
			continue
		}

		switch state {
		case inInit:
			if child.Type() == "declaration" {
				loop.Init = l.declaration(child)
				state = inCond
			} else {
				loop.Init = &kast.ExprStmt{At: position(child), X: l.expr(child)}
			}
		case inCond:
			loop.Cond = l.expr(child)
		case inPost:
			loop.Post = l.expr(child)
		case inBody:
			loop.Body = l.stmt(child)
		}
	}
	return loop
}

// condition lowers the parenthesized condition of a statement without
// the statement's own parentheses.
func (l *lowerer) condition(n *sitter.Node) kast.Expr {
	if n == nil {
		return nil
	}
	if n.Type() == "parenthesized_expression" {
		if inner := firstNamed(n); inner != nil {
			return l.expr(inner)
		}
		return nil
	}
	return l.expr(n)
}

func bodyOf(n *sitter.Node) *sitter.Node {
	if b := n.ChildByFieldName("body"); b != nil {
		return b
	}
	for i := int(n.NamedChildCount()) - 1; i >= 0; i-- {
		child := n.NamedChild(i)
		if child != nil && child.Type() != "comment" && !strings.HasSuffix(child.Type(), "_expression") {
			return child
		}
	}
	return nil
}

// keyword returns the position of the first anonymous child spelled tok.
func keyword(n *sitter.Node, tok string) kast.Pos {
	for i := 0; i < int(n.ChildCount()); i++ {
		child := n.Child(i)
		if child != nil && !child.IsNamed() && child.Type() == tok {
			return position(child)
		}
	}
	return position(n)
}

func firstNamed(n *sitter.Node) *sitter.Node {
	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(i)
		if child != nil && child.Type() != "comment" {
			return child
		}
	}
	return nil
}

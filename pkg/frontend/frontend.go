// Package frontend turns OpenCL C and C source into kast functions.
// It parses with tree-sitter's C grammar after blanking OpenCL address
// space and access qualifiers, then lowers each function definition while
// resolving variables, struct tags and typedefs to stable handles.
package frontend

import (
	"context"
	"os"
	"sync"

	"github.com/pkg/errors"
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/c"

	"github.com/l3aro/idbranch/pkg/kast"
)

// ErrNoFunction is returned when a named function is not defined in a unit.
var ErrNoFunction = errors.New("function not found")

// parserPool is a pool of reusable tree-sitter parsers for C.
var parserPool = sync.Pool{
	New: func() interface{} {
		parser := sitter.NewParser()
		parser.SetLanguage(c.GetLanguage())
		return parser
	},
}

// Options configures parsing.
type Options struct {
	// Qualifiers are OpenCL keywords removed before parsing when they
	// precede a type or identifier. Nil means DefaultQualifiers.
	Qualifiers []string
}

// DefaultOptions returns options with the OpenCL qualifier list.
func DefaultOptions() Options {
	return Options{Qualifiers: DefaultQualifiers()}
}

// Unit is a parsed source file.
type Unit struct {
	Path         string
	Functions    []*kast.Function
	SyntaxErrors int
}

// Function returns the definition named name.
func (u *Unit) Function(name string) (*kast.Function, error) {
	for _, fn := range u.Functions {
		if fn.Name == name {
			return fn, nil
		}
	}
	return nil, errors.Wrapf(ErrNoFunction, "%q in %s", name, u.Path)
}

// Names lists the defined functions in file order.
func (u *Unit) Names() []string {
	names := make([]string, 0, len(u.Functions))
	for _, fn := range u.Functions {
		names = append(names, fn.Name)
	}
	return names
}

// ParseFile reads and parses the file at path.
func ParseFile(ctx context.Context, path string, opts Options) (*Unit, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", path)
	}
	return Parse(ctx, path, src, opts)
}

// Parse parses src and lowers every function definition in it. Syntax
// errors do not fail the parse; the affected subtrees lower to bad nodes
// and are counted in Unit.SyntaxErrors.
func Parse(ctx context.Context, path string, src []byte, opts Options) (*Unit, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrapf(err, "parsing %s", path)
	}

	qualifiers := opts.Qualifiers
	if qualifiers == nil {
		qualifiers = DefaultQualifiers()
	}
	text := BlankQualifiers(src, qualifiers)

	parser := parserPool.Get().(*sitter.Parser)
	tree, err := parser.ParseCtx(ctx, nil, text)
	if err != nil {
		// a cancelled parser may hold partial state, let it go
		return nil, errors.Wrapf(err, "parsing %s", path)
	}
	parserPool.Put(parser)
	if tree == nil {
		return nil, errors.Errorf("parsing %s: no syntax tree", path)
	}
	defer tree.Close()

	root := tree.RootNode()
	l := newLowerer(text, src)
	unit := &Unit{
		Path:         path,
		Functions:    l.translationUnit(root),
		SyntaxErrors: countErrors(root),
	}
	return unit, nil
}

// countErrors counts ERROR and missing nodes below n.
func countErrors(n *sitter.Node) int {
	if n == nil {
		return 0
	}
	if n.IsMissing() {
		return 1
	}
	if !n.HasError() {
		return 0
	}
	count := 0
	if n.Type() == "ERROR" {
		count++
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		count += countErrors(n.Child(i))
	}
	return count
}

func position(n *sitter.Node) kast.Pos {
	p := n.StartPoint()
	return kast.Pos{Line: int(p.Row) + 1, Column: int(p.Column) + 1}
}

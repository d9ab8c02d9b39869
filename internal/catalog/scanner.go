package catalog

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"nodegen/internal/logging"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"
)

// ScanOptions controls which callables a source scan returns.
type ScanOptions struct {
	// Namespace is the dotted module the callables are exposed under
	// (e.g. "scipy.signal"). Wrappers call through it.
	Namespace string
	// ExcludeDirs lists directory basenames to skip in addition to the defaults.
	ExcludeDirs []string
	// IncludePrivate keeps functions whose name starts with an underscore.
	IncludePrivate bool
}

var defaultExcludeDirs = []string{"tests", "__pycache__", "benchmarks", "_build"}

// SourceScanner extracts callables from Python source using tree-sitter.
// It is not safe for concurrent use.
type SourceScanner struct {
	parser *sitter.Parser
}

// NewSourceScanner creates a scanner with the Python grammar loaded.
func NewSourceScanner() *SourceScanner {
	parser := sitter.NewParser()
	parser.SetLanguage(python.GetLanguage())
	return &SourceScanner{parser: parser}
}

// Close releases the underlying parser.
func (s *SourceScanner) Close() {
	s.parser.Close()
}

// ScanDir walks root and returns the public module-level functions found in
// its .py files, sorted by name. When several files define the same name the
// first one in walk order wins. Files that declare __all__ only contribute the
// names listed there.
func (s *SourceScanner) ScanDir(ctx context.Context, root string, opts ScanOptions) ([]Callable, error) {
	timer := logging.StartTimer(logging.CategoryCatalog, "scan "+root)
	defer timer.Stop()

	excluded := make(map[string]struct{}, len(defaultExcludeDirs)+len(opts.ExcludeDirs))
	for _, d := range append(defaultExcludeDirs, opts.ExcludeDirs...) {
		if d = strings.TrimSpace(d); d != "" {
			excluded[d] = struct{}{}
		}
	}

	seen := make(map[string]bool)
	var out []Callable
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			base := d.Name()
			if _, skip := excluded[base]; skip || (path != root && strings.HasPrefix(base, ".")) {
				return filepath.SkipDir
			}
			return nil
		}
		if filepath.Ext(path) != ".py" || strings.HasPrefix(d.Name(), "test_") {
			return nil
		}

		content, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		callables, err := s.ParseSource(ctx, path, content, opts)
		if err != nil {
			logging.CatalogWarn("skipping %s: %v", path, err)
			return nil
		}
		for _, c := range callables {
			if seen[c.Name] {
				continue
			}
			seen[c.Name] = true
			out = append(out, c)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", root, err)
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	logging.Catalog("scanned %s: %d callables", root, len(out))
	return out, nil
}

// ParseSource extracts the module-level functions of one Python file.
func (s *SourceScanner) ParseSource(ctx context.Context, path string, content []byte, opts ScanOptions) ([]Callable, error) {
	tree, err := s.parser.ParseCtx(ctx, nil, content)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	defer tree.Close()

	root := tree.RootNode()
	exports, hasExports := moduleExports(root, content)

	var out []Callable
	for i := 0; i < int(root.NamedChildCount()); i++ {
		node := root.NamedChild(i)
		if node.Type() == "decorated_definition" {
			node = node.ChildByFieldName("definition")
		}
		if node == nil || node.Type() != "function_definition" {
			continue
		}
		c, ok := extractFunction(node, content)
		if !ok {
			continue
		}
		if hasExports && !exports[c.Name] {
			continue
		}
		if !opts.IncludePrivate && strings.HasPrefix(c.Name, "_") {
			continue
		}
		c.Namespace = opts.Namespace
		c.File = path
		out = append(out, c)
	}
	logging.CatalogDebug("parsed %s: %d functions", filepath.Base(path), len(out))
	return out, nil
}

// extractFunction reads name, parameters, defaults and docstring from a
// function_definition node.
func extractFunction(node *sitter.Node, content []byte) (Callable, bool) {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return Callable{}, false
	}
	c := Callable{
		Name:     nameNode.Content(content),
		Defaults: make(map[string]Literal),
		Line:     int(node.StartPoint().Row) + 1,
	}

	if params := node.ChildByFieldName("parameters"); params != nil {
		for i := 0; i < int(params.NamedChildCount()); i++ {
			name, def, hasDefault := extractParam(params.NamedChild(i), content)
			if name == "" {
				continue
			}
			c.Params = append(c.Params, name)
			if hasDefault {
				c.Defaults[name] = def
			}
		}
	}

	if body := node.ChildByFieldName("body"); body != nil {
		c.Doc = docstring(body, content)
	}
	return c, true
}

// extractParam returns the parameter name and its literal default, if any.
// Bare "*" and "/" separators yield an empty name.
func extractParam(p *sitter.Node, content []byte) (string, Literal, bool) {
	switch p.Type() {
	case "identifier":
		return p.Content(content), Literal{}, false
	case "typed_parameter":
		for i := 0; i < int(p.NamedChildCount()); i++ {
			child := p.NamedChild(i)
			switch child.Type() {
			case "identifier":
				return child.Content(content), Literal{}, false
			case "list_splat_pattern", "dictionary_splat_pattern":
				return splatName(child, content), Literal{}, false
			}
		}
		return "", Literal{}, false
	case "default_parameter", "typed_default_parameter":
		name := p.ChildByFieldName("name")
		value := p.ChildByFieldName("value")
		if name == nil {
			return "", Literal{}, false
		}
		if value == nil {
			return name.Content(content), Literal{}, false
		}
		return name.Content(content), literalOf(value, content), true
	case "list_splat_pattern", "dictionary_splat_pattern":
		return splatName(p, content), Literal{}, false
	default:
		return "", Literal{}, false
	}
}

func splatName(p *sitter.Node, content []byte) string {
	for i := 0; i < int(p.NamedChildCount()); i++ {
		if child := p.NamedChild(i); child.Type() == "identifier" {
			return child.Content(content)
		}
	}
	return ""
}

// literalOf classifies a default-value expression.
func literalOf(v *sitter.Node, content []byte) Literal {
	text := v.Content(content)
	switch v.Type() {
	case "integer":
		return Literal{Kind: LiteralInteger, Text: text}
	case "float":
		return Literal{Kind: LiteralFloat, Text: text}
	case "string":
		return Literal{Kind: LiteralString, Text: text}
	case "true":
		return Literal{Kind: LiteralTrue, Text: text}
	case "false":
		return Literal{Kind: LiteralFalse, Text: text}
	case "none":
		return Literal{Kind: LiteralNone, Text: text}
	case "tuple":
		return Literal{Kind: LiteralTuple, Text: text}
	case "list":
		return Literal{Kind: LiteralList, Text: text}
	case "dictionary":
		return Literal{Kind: LiteralDict, Text: text}
	case "unary_operator":
		// -1 and -0.5 keep their numeric kind
		if arg := v.ChildByFieldName("argument"); arg != nil {
			switch arg.Type() {
			case "integer":
				return Literal{Kind: LiteralInteger, Text: text}
			case "float":
				return Literal{Kind: LiteralFloat, Text: text}
			}
		}
	}
	return Literal{Kind: LiteralExpression, Text: text}
}

// docstring returns the body's leading string statement without its quotes.
func docstring(body *sitter.Node, content []byte) string {
	for i := 0; i < int(body.NamedChildCount()); i++ {
		stmt := body.NamedChild(i)
		if stmt.Type() == "comment" {
			continue
		}
		if stmt.Type() != "expression_statement" || stmt.NamedChildCount() == 0 {
			return ""
		}
		expr := stmt.NamedChild(0)
		if expr.Type() != "string" {
			return ""
		}
		return unquote(expr.Content(content))
	}
	return ""
}

// moduleExports collects the string entries of a module-level __all__ list.
func moduleExports(root *sitter.Node, content []byte) (map[string]bool, bool) {
	for i := 0; i < int(root.NamedChildCount()); i++ {
		stmt := root.NamedChild(i)
		if stmt.Type() != "expression_statement" || stmt.NamedChildCount() == 0 {
			continue
		}
		assign := stmt.NamedChild(0)
		if assign.Type() != "assignment" {
			continue
		}
		left := assign.ChildByFieldName("left")
		right := assign.ChildByFieldName("right")
		if left == nil || right == nil || left.Content(content) != "__all__" {
			continue
		}
		if right.Type() != "list" && right.Type() != "tuple" {
			continue
		}
		names := make(map[string]bool)
		for j := 0; j < int(right.NamedChildCount()); j++ {
			item := right.NamedChild(j)
			if item.Type() == "string" {
				names[unquote(item.Content(content))] = true
			}
		}
		return names, true
	}
	return nil, false
}

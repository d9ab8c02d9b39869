package synth

import (
	"context"
	"fmt"
	"strings"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"
	"gopkg.in/yaml.v3"
)

// noneTypeMarker in wrapper text means a None default was never resolved to
// a real type.
const noneTypeMarker = "NoneType"

// Validator checks generated artifacts before they are persisted.
// It is safe for concurrent use.
type Validator struct {
	mu     sync.Mutex
	parser *sitter.Parser
}

// NewValidator creates a validator with the Python grammar loaded.
func NewValidator() *Validator {
	parser := sitter.NewParser()
	parser.SetLanguage(python.GetLanguage())
	return &Validator{parser: parser}
}

// Close releases the underlying parser.
func (v *Validator) Close() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.parser.Close()
}

// Validate accepts a pair only when both texts are present, the wrapper
// parses as Python without a NoneType leak, and the manifest decodes.
func (v *Validator) Validate(ctx context.Context, name string, a Artifacts) error {
	if a.Wrapper == "" || a.Manifest == "" {
		return reject(name, ErrEmptyArtifact, "")
	}
	if strings.Contains(a.Wrapper, noneTypeMarker) {
		return reject(name, ErrNoneTypeLeak, "")
	}
	if err := v.CheckWrapper(ctx, a.Wrapper); err != nil {
		return reject(name, ErrSyntaxInvalid, err.Error())
	}
	if _, err := CheckManifest(a.Manifest); err != nil {
		return reject(name, ErrManifestInvalid, err.Error())
	}
	return nil
}

// CheckWrapper parses src as Python and reports the first syntax error.
func (v *Validator) CheckWrapper(ctx context.Context, src string) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	content := []byte(src)
	tree, err := v.parser.ParseCtx(ctx, nil, content)
	if err != nil {
		return fmt.Errorf("parse: %w", err)
	}
	defer tree.Close()

	root := tree.RootNode()
	if !root.HasError() {
		return checkEscapes(root, content)
	}
	if bad := firstError(root); bad != nil {
		pos := bad.StartPoint()
		if bad.IsMissing() {
			return fmt.Errorf("line %d col %d: missing %s", pos.Row+1, pos.Column+1, bad.Type())
		}
		return fmt.Errorf("line %d col %d: unexpected %q", pos.Row+1, pos.Column+1, bad.Content(content))
	}
	return fmt.Errorf("syntax error")
}

// firstError returns the first ERROR or MISSING node in document order.
func firstError(n *sitter.Node) *sitter.Node {
	if n.Type() == "ERROR" || n.IsMissing() {
		return n
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		child := n.Child(i)
		if child == nil || !(child.HasError() || child.IsMissing()) {
			continue
		}
		if bad := firstError(child); bad != nil {
			return bad
		}
	}
	return nil
}

// checkEscapes reports string literals Python refuses to compile: \x, \u,
// \U and \N escapes with malformed payloads. The grammar accepts them.
func checkEscapes(n *sitter.Node, content []byte) error {
	if n.Type() == "string" {
		text := n.Content(content)
		quote := strings.IndexAny(text, `'"`)
		if quote < 0 {
			return nil
		}
		prefix := strings.ToLower(text[:quote])
		if strings.Contains(prefix, "r") {
			return nil
		}
		if off, ok := badEscape(text[quote:], strings.Contains(prefix, "b")); ok {
			pos := n.StartPoint()
			line := int(pos.Row) + 1 + strings.Count(text[:quote+off], "\n")
			return fmt.Errorf("line %d: invalid escape %q in string literal", line, text[quote+off:min(len(text), quote+off+2)])
		}
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		if child := n.Child(i); child != nil {
			if err := checkEscapes(child, content); err != nil {
				return err
			}
		}
	}
	return nil
}

// badEscape returns the offset of the first malformed escape in body.
func badEscape(body string, bytesLit bool) (int, bool) {
	for i := 0; i < len(body); i++ {
		if body[i] != '\\' {
			continue
		}
		if i+1 >= len(body) {
			return 0, false
		}
		rest := body[i+2:]
		switch body[i+1] {
		case 'x':
			if !hexPrefix(rest, 2) {
				return i, true
			}
		case 'u', 'U':
			if bytesLit {
				break
			}
			n := 4
			if body[i+1] == 'U' {
				n = 8
			}
			if !hexPrefix(rest, n) {
				return i, true
			}
		case 'N':
			if bytesLit {
				break
			}
			end := strings.IndexByte(rest, '}')
			if !strings.HasPrefix(rest, "{") || end < 2 || strings.ContainsAny(rest[:end], "\n'\"") {
				return i, true
			}
		}
		i++
	}
	return 0, false
}

func hexPrefix(s string, n int) bool {
	if len(s) < n {
		return false
	}
	for _, c := range s[:n] {
		if !strings.ContainsRune("0123456789abcdefABCDEF", c) {
			return false
		}
	}
	return true
}

// CheckManifest decodes src into the manifest schema.
func CheckManifest(src string) (ManifestDoc, error) {
	var doc ManifestDoc
	if err := yaml.Unmarshal([]byte(src), &doc); err != nil {
		return ManifestDoc{}, err
	}
	if len(doc.Command) == 0 {
		return ManifestDoc{}, fmt.Errorf("no COMMAND entries")
	}
	return doc, nil
}

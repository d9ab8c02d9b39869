// Package catalog discovers the callables of an external Python library and
// extracts what the generator needs from each one: ordered parameter names,
// literal defaults, and the docstring.
package catalog

import "strings"

// LiteralKind classifies the source form of a parameter default.
type LiteralKind string

const (
	LiteralInteger    LiteralKind = "integer"
	LiteralFloat      LiteralKind = "float"
	LiteralString     LiteralKind = "string"
	LiteralTrue       LiteralKind = "true"
	LiteralFalse      LiteralKind = "false"
	LiteralNone       LiteralKind = "none"
	LiteralTuple      LiteralKind = "tuple"
	LiteralList       LiteralKind = "list"
	LiteralDict       LiteralKind = "dict"
	LiteralExpression LiteralKind = "expression" // names, calls, attributes, arithmetic
)

// Literal is a parameter default as written in the library source.
type Literal struct {
	Kind LiteralKind `yaml:"kind" json:"kind"`
	Text string      `yaml:"text" json:"text"`
}

// String renders the literal the way Python's str() renders the value:
// strings lose their quotes, booleans and None use Python spelling.
func (l Literal) String() string {
	switch l.Kind {
	case LiteralNone:
		return "None"
	case LiteralTrue:
		return "True"
	case LiteralFalse:
		return "False"
	case LiteralString:
		return unquote(l.Text)
	default:
		return l.Text
	}
}

// Callable describes one discovered function. It is created once per
// discovered callable and must not be modified afterwards.
type Callable struct {
	Name      string             `yaml:"name" json:"name"`
	Doc       string             `yaml:"doc" json:"doc"`
	Params    []string           `yaml:"params" json:"params"`
	Defaults  map[string]Literal `yaml:"defaults,omitempty" json:"defaults,omitempty"`
	Namespace string             `yaml:"namespace,omitempty" json:"namespace,omitempty"` // dotted owning module, e.g. scipy.signal
	File      string             `yaml:"-" json:"-"`
	Line      int                `yaml:"-" json:"-"`
}

// Default returns the literal default declared for name, if any.
func (c Callable) Default(name string) (Literal, bool) {
	l, ok := c.Defaults[name]
	return l, ok
}

// FirstParam returns the first declared parameter, or "" for a nullary callable.
func (c Callable) FirstParam() string {
	if len(c.Params) == 0 {
		return ""
	}
	return c.Params[0]
}

// HasParam reports whether name is one of the declared parameters.
func (c Callable) HasParam(name string) bool {
	for _, p := range c.Params {
		if p == name {
			return true
		}
	}
	return false
}

// Eligible applies the shape filter that runs before generation: the first
// parameter must be the data input (x or data) and the callable must not take
// a second series (y) or a plotting switch (plot).
func Eligible(c Callable) bool {
	first := c.FirstParam()
	if first != "x" && first != "data" {
		return false
	}
	return !c.HasParam("y") && !c.HasParam("plot")
}

// unquote strips the string prefix and quotes from a Python string literal.
// Escape sequences are left as written.
func unquote(s string) string {
	s = strings.TrimLeft(s, "rRbBuUfF")
	for _, q := range []string{`"""`, `'''`, `"`, `'`} {
		if len(s) >= 2*len(q) && strings.HasPrefix(s, q) && strings.HasSuffix(s, q) {
			return s[len(q) : len(s)-len(q)]
		}
	}
	return s
}

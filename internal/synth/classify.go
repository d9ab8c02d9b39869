package synth

import (
	"fmt"
	"strings"

	"nodegen/internal/catalog"
)

// Rules are the rejection lists the classifier enforces.
type Rules struct {
	// ForbiddenArgs are never exposed as node parameters.
	ForbiddenArgs []string `yaml:"forbidden_args"`
	// ForbiddenTypes reject the whole callable when a parameter resolves to one.
	ForbiddenTypes []string `yaml:"forbidden_types"`
}

// DefaultRules returns the stock rejection lists.
func DefaultRules() Rules {
	return Rules{
		ForbiddenArgs:  []string{"x", "data", "kwargs", "comparator"},
		ForbiddenTypes: []string{"tuple", "array-like", "array_like", "function", "callable", "sequence"},
	}
}

func (r Rules) forbiddenArg(name string) bool {
	return contains(r.ForbiddenArgs, name)
}

func (r Rules) forbiddenType(raw string) bool {
	return contains(r.ForbiddenTypes, raw)
}

// Param is the classified metadata of one parameter.
type Param struct {
	Name       string
	DType      DType
	RawType    string // type text as found, before normalization
	Optional   bool
	Default    catalog.Literal
	HasDefault bool
}

// Params is the ordered parameter metadata of one callable. The first entry
// is always the data input.
type Params []Param

// Input returns the data input parameter.
func (p Params) Input() Param {
	if len(p) == 0 {
		return Param{}
	}
	return p[0]
}

// Optional returns the node parameters in declaration order.
func (p Params) Optional() []Param {
	if len(p) < 2 {
		return nil
	}
	return p[1:]
}

// UsesArray reports whether any node parameter needs the numpy constructor.
func (p Params) UsesArray() bool {
	for _, param := range p.Optional() {
		if param.DType == DTypeArray {
			return true
		}
	}
	return false
}

// Unresolved returns the names of node parameters left untyped.
func (p Params) Unresolved() []string {
	var names []string
	for _, param := range p.Optional() {
		if !param.DType.Resolved() {
			names = append(names, param.Name)
		}
	}
	return names
}

// Classify resolves the DType of every node parameter of c. The first
// parameter is registered as the required array input. A docstring that
// mentions "callable" anywhere, or a parameter whose type text is forbidden,
// rejects the callable.
func Classify(c catalog.Callable, doc Docstring, rules Rules) (Params, error) {
	if strings.Contains(doc.Raw, "callable") {
		return nil, reject(c.Name, ErrForbiddenCallableDoc, "")
	}
	if len(c.Params) == 0 {
		return nil, reject(c.Name, ErrForbiddenShape, "no parameters")
	}

	params := Params{{Name: c.Params[0], DType: DTypeArray, RawType: "np.ndarray"}}
	for _, name := range c.Params[1:] {
		if rules.forbiddenArg(name) {
			continue
		}

		p := Param{Name: name, DType: DTypeUnresolved, Optional: true}
		if lit, ok := c.Default(name); ok {
			p.Default, p.HasDefault = lit, true
			p.DType, p.RawType = dtypeFromLiteral(lit)
		}

		if p.RawType == "" || p.DType == DTypeNone {
			if line, ok := doc.ParamLine(name); ok {
				p.RawType = typeText(line)
				p.DType = ResolveDType(p.RawType)
			}
		}

		if rules.forbiddenType(p.RawType) {
			return nil, reject(c.Name, ErrForbiddenType, fmt.Sprintf("%s is %s", name, p.RawType))
		}
		params = append(params, p)
	}
	return params, nil
}

// typeText cuts the type declaration out of a numpydoc field line: the text
// after the first colon up to the next colon or comma, without brackets.
func typeText(line string) string {
	parts := strings.Split(line, ":")
	if len(parts) < 2 {
		return ""
	}
	t := strings.SplitN(parts[1], ",", 2)[0]
	t = strings.TrimSpace(t)
	t = strings.NewReplacer("{", "", "}", "", "(", "", ")", "").Replace(t)
	return strings.TrimSpace(t)
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

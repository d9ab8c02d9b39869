package synth

import (
	"strings"

	"nodegen/internal/catalog"
)

// DType is the closed set of parameter type categories the generator knows
// how to coerce a raw node parameter into.
type DType string

const (
	DTypeInt        DType = "int"
	DTypeFloat      DType = "float"
	DTypeString     DType = "string"
	DTypeBool       DType = "bool"
	DTypeArray      DType = "array"
	DTypeNone       DType = "none" // default is None and nothing better was found
	DTypeUnresolved DType = "unresolved"
)

// Constructor returns the Python callable the wrapper coerces through.
// Unresolved parameters have no constructor and are passed through as-is.
func (d DType) Constructor() string {
	switch d {
	case DTypeInt:
		return "int"
	case DTypeFloat:
		return "float"
	case DTypeString:
		return "str"
	case DTypeBool:
		return "bool"
	case DTypeArray:
		return "np.ndarray"
	case DTypeNone:
		return "NoneType"
	default:
		return ""
	}
}

// Resolved reports whether d names a concrete category.
func (d DType) Resolved() bool {
	return d != DTypeUnresolved && d != DTypeNone && d != ""
}

// dtypeFromLiteral derives the category and the raw type name from a
// literal default. The raw name is what the forbidden-type check sees.
func dtypeFromLiteral(l catalog.Literal) (DType, string) {
	switch l.Kind {
	case catalog.LiteralInteger:
		return DTypeInt, "int"
	case catalog.LiteralFloat:
		return DTypeFloat, "float"
	case catalog.LiteralString:
		return DTypeString, "str"
	case catalog.LiteralTrue, catalog.LiteralFalse:
		return DTypeBool, "bool"
	case catalog.LiteralNone:
		return DTypeNone, "NoneType"
	case catalog.LiteralTuple:
		return DTypeUnresolved, "tuple"
	case catalog.LiteralList:
		return DTypeUnresolved, "list"
	case catalog.LiteralDict:
		return DTypeUnresolved, "dict"
	default:
		return DTypeUnresolved, ""
	}
}

// ResolveDType maps free-form docstring type text onto a DType. Anything
// mentioning ndarray is an array; otherwise the first word decides.
func ResolveDType(raw string) DType {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return DTypeUnresolved
	}
	if strings.Contains(raw, "ndarray") {
		return DTypeArray
	}
	word := strings.ToLower(strings.Fields(raw)[0])
	switch word {
	case "int", "integer":
		return DTypeInt
	case "float", "scalar":
		return DTypeFloat
	case "str", "string":
		return DTypeString
	case "bool", "boolean":
		return DTypeBool
	default:
		return DTypeUnresolved
	}
}

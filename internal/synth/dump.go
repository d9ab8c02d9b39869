package synth

import (
	"fmt"
	"strings"
)

var dumpRule = "#" + strings.Repeat("-", 72)

// Dump renders a result for debugging: a header with the callable and its
// parameters, then both artifacts. Manifest lines are commented out so the
// whole dump still reads as Python.
func (r Result) Dump() string {
	var b strings.Builder
	fmt.Fprintf(&b, "#%s, %s\n", r.Name, r.Params.describe())
	if r.Err != nil {
		fmt.Fprintf(&b, "#rejected: %v\n", r.Err)
	}

	b.WriteString(dumpRule + "\n#Wrapper\n" + dumpRule + "\n")
	b.WriteString(r.Artifacts.Wrapper + "\n")

	b.WriteString(dumpRule + "\n#Manifest\n" + dumpRule + "\n")
	b.WriteString("#" + strings.ReplaceAll(r.Artifacts.Manifest, "\n", "\n#") + "\n")
	return b.String()
}

func (p Params) describe() string {
	parts := make([]string, 0, len(p))
	for _, param := range p {
		dtype := string(param.DType)
		if param.RawType != "" && param.RawType != dtype {
			dtype += " <" + param.RawType + ">"
		}
		opt := "required"
		if param.Optional {
			opt = "optional"
		}
		parts = append(parts, fmt.Sprintf("%s: %s %s", param.Name, dtype, opt))
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

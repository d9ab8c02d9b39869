package synth

import (
	"fmt"
	"strings"
	"text/template"

	"nodegen/internal/catalog"
)

// wrapperTemplate renders the node adapter. Indentation is tabs throughout.
var wrapperTemplate = template.Must(template.New("wrapper").Parse(
	"{{if .ImportArray}}import numpy as np\n{{end}}" +
		"from flojoy import DataContainer, flojoy\n" +
		"import {{.Namespace}}\n" +
		"\n\n" +
		"@flojoy\n" +
		"def {{.FuncName}}(dc, params):\n" +
		"\t'''{{.Doc}}\n" +
		"\t'''\n" +
		"\treturn DataContainer(\n" +
		"\t\tx=dc[0].y,\n" +
		"\t\ty={{.Namespace}}.{{.Name}}(\n" +
		"\t\t\t{{.Input}}=dc[0].y" +
		"{{range .Args}},\n" +
		"\t\t\t{{.Name}}=({{if .Ctor}}{{.Ctor}}(params['{{.Name}}']){{else}}params['{{.Name}}']{{end}} if params['{{.Name}}'] != '' else None)" +
		"{{end}}\n" +
		"\t\t)\n" +
		"\t)\n",
))

type wrapperArg struct {
	Name string
	Ctor string
}

type wrapperData struct {
	ImportArray bool
	Namespace   string
	FuncName    string
	Name        string
	Doc         string
	Input       string
	Args        []wrapperArg
}

// NodeName is the node function name for a callable.
func NodeName(name string) string {
	return strings.ToUpper(name)
}

// docLiteral escapes text for the body of a '''-quoted Python string.
// Backslashes are doubled so LaTeX such as \xi survives as written.
func docLiteral(text string) string {
	text = strings.ReplaceAll(text, `\`, `\\`)
	return strings.ReplaceAll(text, "'''", `\'\'\'`)
}

// RenderWrapper renders the Python adapter exposing c as NAME(dc, params).
func RenderWrapper(c catalog.Callable, doc Docstring, params Params) (string, error) {
	data := wrapperData{
		ImportArray: params.UsesArray(),
		Namespace:   c.Namespace,
		FuncName:    NodeName(c.Name),
		Name:        c.Name,
		Doc:         docLiteral(doc.Formatted),
		Input:       params.Input().Name,
	}
	for _, p := range params.Optional() {
		data.Args = append(data.Args, wrapperArg{Name: p.Name, Ctor: p.DType.Constructor()})
	}

	var b strings.Builder
	if err := wrapperTemplate.Execute(&b, data); err != nil {
		return "", fmt.Errorf("failed to render wrapper for %s: %w", c.Name, err)
	}
	return b.String(), nil
}

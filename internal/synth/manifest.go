package synth

import (
	"fmt"
	"strconv"
	"strings"
	"text/template"

	"nodegen/internal/catalog"

	"gopkg.in/yaml.v3"
)

// manifestIndent replaces each tab level in the rendered manifest.
const manifestIndent = "  "

var manifestTemplate = template.Must(template.New("manifest").Parse(
	"COMMAND:\n" +
		"\t- name: {{.Name}}\n" +
		"\t\tkey: {{.Key}}\n" +
		"\t\ttype: {{.Type}}\n" +
		"\t\tparameters:" +
		"{{range .Params}}\n" +
		"\t\t\t{{.Name}}:\n" +
		"\t\t\t\ttype:{{with .Type}} {{.}}{{end}}\n" +
		"\t\t\t\tdefault:{{with .Default}} {{.}}{{end}}" +
		"{{end}}\n",
))

type manifestParam struct {
	Name    string
	Type    string
	Default string
}

type manifestData struct {
	Name   string
	Key    string
	Type   string
	Params []manifestParam
}

// ManifestDoc is the decoded shape of a manifest.
type ManifestDoc struct {
	Command []ManifestCommand `yaml:"COMMAND"`
}

// ManifestCommand describes one node.
type ManifestCommand struct {
	Name       string                   `yaml:"name"`
	Key        string                   `yaml:"key"`
	Type       string                   `yaml:"type"`
	Parameters map[string]ManifestParam `yaml:"parameters"`
}

// ManifestParam is one node parameter. Default keeps whatever scalar YAML
// decoded it as.
type ManifestParam struct {
	Type    string      `yaml:"type"`
	Default interface{} `yaml:"default"`
}

// CommandName title-cases a callable name: first letter upper, rest lower.
func CommandName(name string) string {
	lower := strings.ToLower(name)
	if lower == "" {
		return ""
	}
	return strings.ToUpper(lower[:1]) + lower[1:]
}

// yamlScalar renders value for a block mapping position. It stays plain when
// YAML reads it back unchanged, as a string when str is set, and is
// double-quoted otherwise.
func yamlScalar(value string, str bool) string {
	var doc yaml.Node
	if err := yaml.Unmarshal([]byte(value), &doc); err == nil && len(doc.Content) == 1 {
		n := doc.Content[0]
		plain := n.Kind == yaml.ScalarNode && n.Style == 0 && n.Value == value
		if plain && (!str || n.Tag == "!!str") {
			return value
		}
	}
	return strconv.Quote(value)
}

// RenderManifest renders the node descriptor for c under category.
func RenderManifest(c catalog.Callable, params Params, category string) (string, error) {
	data := manifestData{
		Name: CommandName(c.Name),
		Key:  NodeName(c.Name),
		Type: category,
	}
	for _, p := range params.Optional() {
		mp := manifestParam{Name: p.Name, Type: p.DType.Constructor()}
		if p.HasDefault && p.Default.Kind != catalog.LiteralNone {
			if v := p.Default.String(); v != "" {
				mp.Default = yamlScalar(v, p.Default.Kind == catalog.LiteralString)
			}
		}
		data.Params = append(data.Params, mp)
	}

	var b strings.Builder
	if err := manifestTemplate.Execute(&b, data); err != nil {
		return "", fmt.Errorf("failed to render manifest for %s: %w", c.Name, err)
	}
	return strings.ReplaceAll(b.String(), "\t", manifestIndent), nil
}

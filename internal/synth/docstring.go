package synth

import (
	"strings"
)

const (
	returnsMarker    = "Returns"
	parametersMarker = "Parameters"
	sectionRule      = "----------"
)

var bannerRule = strings.Repeat("-.", 36)

// bannerLines mark the parameter listing as node-facing documentation.
var bannerLines = []string{
	bannerRule,
	"The parameters of the function in this Flojoy wrapper are given below.",
	bannerRule,
}

// Docstring is a segmented docstring. Region holds the left-stripped lines
// before the Returns section; Formatted is the re-indented text embedded in
// the wrapper.
type Docstring struct {
	Raw       string
	Region    []string
	Formatted string
}

// ParamLine returns the first region line declaring name ("name :"), if any.
func (d Docstring) ParamLine(name string) (string, bool) {
	needle := name + " :"
	for _, line := range d.Region {
		if strings.Contains(line, needle) {
			return line, true
		}
	}
	return "", false
}

// SegmentDocstring splits doc at the first line containing "Returns" and
// re-indents the leading region. Without a Returns line the whole docstring
// is the region.
func SegmentDocstring(doc string) Docstring {
	lines := strings.Split(doc, "\n")
	end := returnsIndex(lines, len(lines))

	region := make([]string, 0, end)
	for _, line := range lines[:end] {
		region = append(region, strings.TrimLeft(line, " "))
	}

	var b strings.Builder
	b.WriteString("\n")
	bannered := false
	for i, line := range region {
		if i > 0 {
			b.WriteString("\n")
		}
		if !bannered && strings.HasPrefix(strings.TrimSpace(line), parametersMarker) {
			for _, bl := range bannerLines {
				b.WriteString("\t" + bl + "\n")
			}
			b.WriteString("\n\t" + line)
			bannered = true
			continue
		}
		b.WriteString(indentFor(line) + line)
	}

	return Docstring{Raw: doc, Region: region, Formatted: b.String()}
}

// returnsIndex returns the index of the first line containing the Returns
// marker, or def when there is none.
func returnsIndex(lines []string, def int) int {
	for i, line := range lines {
		if strings.Contains(line, returnsMarker) {
			return i
		}
	}
	return def
}

// indentFor puts section headers and field declarations at one level and
// prose at two.
func indentFor(line string) string {
	if strings.Contains(line, ":") || strings.Contains(line, sectionRule) {
		return "\t"
	}
	return "\t\t"
}

package text

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"

	"github.com/DaanHessen/rollwright/internal/engine"
)

// DocsMarkdown is the function reference as markdown.
func DocsMarkdown(fns []engine.FunctionDoc) string {
	var b strings.Builder
	b.WriteString("# Functions\n\n")
	for _, f := range fns {
		fmt.Fprintf(&b, "## %s\n\n`%s`\n\n%s\n\n", f.Title, f.Usage, f.Doc)
	}
	b.WriteString("# Dice\n\n")
	b.WriteString("`NdS` rolls N dice with S sides; N defaults to 1 and S to 20. ")
	b.WriteString("Each `|` after the `d` adds a die of advantage, each `&` one of disadvantage. ")
	b.WriteString("A suffix `khN` keeps the highest N, `klN` the lowest N and `rN` rerolls a die showing N once.\n")
	return b.String()
}

// Docs renders the function reference for a terminal of the given width.
// When glamour fails the markdown is returned as is.
func Docs(fns []engine.FunctionDoc, width int) string {
	md := DocsMarkdown(fns)
	if width <= 0 {
		width = 80
	}
	r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(width))
	if err != nil {
		return md
	}
	out, err := r.Render(md)
	if err != nil {
		return md
	}
	return out
}

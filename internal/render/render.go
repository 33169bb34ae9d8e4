// Package render turns model-generated markdown into HTML that is safe to
// embed directly in a page.
package render

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
	"github.com/microcosm-cc/bluemonday"
)

var taskMarker = regexp.MustCompile(`(?m)^([ \t]*(?:[-*+]|\d+[.)]))[ \t]+\[[ xX]\][ \t]+`)

type Renderer struct {
	policy *bluemonday.Policy
}

func New() *Renderer {
	policy := bluemonday.UGCPolicy()
	policy.AddTargetBlankToFullyQualifiedLinks(true)
	return &Renderer{policy: policy}
}

// HTML converts md to sanitized HTML. Raw HTML in the input is dropped.
func (r *Renderer) HTML(md string) (out string, err error) {
	md = strings.TrimSpace(md)
	if md == "" {
		return "", nil
	}
	defer func() {
		if rec := recover(); rec != nil {
			out, err = "", fmt.Errorf("render markdown: %v", rec)
		}
	}()

	source := markdown.NormalizeNewlines([]byte(StripTaskMarkers(md)))
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.NoEmptyLineBeforeBlock)
	renderer := html.NewRenderer(html.RendererOptions{Flags: html.CommonFlags | html.SkipHTML})
	rendered := markdown.Render(p.Parse(source), renderer)

	return strings.TrimSpace(string(r.policy.SanitizeBytes(rendered))), nil
}

// StripTaskMarkers reduces "- [ ] item" and "- [x] item" to "- item".
func StripTaskMarkers(md string) string {
	return taskMarker.ReplaceAllString(md, "$1 ")
}

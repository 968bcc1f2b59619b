package parser

import (
	"bytes"
	"io"
	"strings"

	"github.com/dgallion1/recipegest/internal/page"
	"github.com/dgallion1/recipegest/internal/textnorm"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// MarkdownParser handles Markdown transcripts using goldmark. The page text is
// kept line for line, except that headings are rewritten in plain ATX form
// ("## Title"): closing hashes are dropped and "===" setext titles become H1.
type MarkdownParser struct{}

func (p *MarkdownParser) Parse(r io.Reader, filename string) ([]page.Document, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	src := []byte(textnorm.Normalize(string(raw)))
	doc := goldmark.New().Parser().Parse(text.NewReader(src))

	lines := strings.Split(string(src), "\n")
	rewrite := map[int]string{}
	drop := map[int]bool{}

	ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		h, ok := n.(*ast.Heading)
		if !entering || !ok {
			return ast.WalkContinue, nil
		}
		segs := h.Lines()
		if segs.Len() == 0 {
			return ast.WalkSkipChildren, nil
		}
		seg := segs.At(0)
		first := bytes.Count(src[:seg.Start], []byte("\n"))
		title := strings.TrimSpace(string(seg.Value(src)))

		if strings.HasPrefix(strings.TrimSpace(lines[first]), "#") {
			rewrite[first] = strings.Repeat("#", h.Level) + " " + title
			return ast.WalkSkipChildren, nil
		}
		// Setext. OCR pages use "---" as a rule, so only a single line
		// underlined with "===" counts as a title.
		if h.Level == 1 && segs.Len() == 1 {
			rewrite[first] = "# " + title
			drop[first+1] = true
		}
		return ast.WalkSkipChildren, nil
	})

	var out []string
	for i, line := range lines {
		if drop[i] {
			continue
		}
		if h, ok := rewrite[i]; ok {
			line = h
		}
		out = append(out, line)
	}
	return single(filename, strings.Join(out, "\n")), nil
}

package parser

import (
	"io"

	"github.com/dgallion1/recipegest/internal/page"
	"github.com/dgallion1/recipegest/internal/textnorm"
)

// TextParser handles plain text transcripts. The whole file is one page.
type TextParser struct{}

func (p *TextParser) Parse(r io.Reader, filename string) ([]page.Document, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return single(filename, textnorm.Normalize(string(src))), nil
}

package page

import (
	"strings"

	"github.com/dgallion1/recipegest/internal/textnorm"
)

// Document is one OCR page transcript.
type Document struct {
	ID   string `json:"id"`   // Source identifier, usually a filename or "file.pdf#p002"
	Text string `json:"text"` // Markdown-like page text
}

// Bundle is an ordered run of pages believed to hold one recipe.
type Bundle struct {
	Title    string     `json:"title"`    // Title of the first page; may be empty
	Complete bool       `json:"complete"` // True once any page showed an ending signal
	Pages    []Document `json:"pages"`
}

// Text joins the bundle's page texts with blank lines.
func (b *Bundle) Text() string {
	parts := make([]string, len(b.Pages))
	for i, p := range b.Pages {
		parts[i] = p.Text
	}
	return strings.Join(parts, "\n\n")
}

// SourceName is the stem of the first page identifier, used as a last-resort
// recipe name.
func (b *Bundle) SourceName() string {
	if len(b.Pages) == 0 {
		return ""
	}
	return textnorm.Stem(b.Pages[0].ID)
}

// PageIDs lists the identifiers of the bundle's pages in order.
func (b *Bundle) PageIDs() []string {
	ids := make([]string, len(b.Pages))
	for i, p := range b.Pages {
		ids[i] = p.ID
	}
	return ids
}

package parser

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/dgallion1/recipegest/internal/page"
	"github.com/dgallion1/recipegest/internal/textnorm"
	pdflib "github.com/ledongthuc/pdf"
)

// PDFParser handles scanned cookbook PDFs that carry a text layer. Every PDF
// page becomes its own document, identified as "name.pdf#p003", so the
// aggregator can rejoin pages that belong to one recipe.
// It tries the Go library first, then falls back to pdftotext if enabled.
type PDFParser struct {
	FallbackPdftotext bool
}

func (p *PDFParser) Parse(r io.Reader, filename string) ([]page.Document, error) {
	// ledongthuc/pdf requires a ReadSeeker+size, so we write to a temp file.
	tmp, err := os.CreateTemp("", "recipegest-pdf-*.pdf")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("write temp file: %w", err)
	}
	tmp.Close()

	pages, err := extractPDFPages(tmpPath)
	if (err != nil || len(pages) == 0) && p.FallbackPdftotext {
		var text string
		text, err = extractPdftotext(tmpPath)
		if err == nil {
			pages = strings.Split(text, "\f")
		}
	}
	if err != nil {
		return nil, fmt.Errorf("extract pdf text: %w", err)
	}

	var docs []page.Document
	for i, text := range pages {
		text = strings.TrimSpace(textnorm.Normalize(text))
		if text == "" {
			continue
		}
		docs = append(docs, page.Document{
			ID:   fmt.Sprintf("%s#p%03d", filename, i+1),
			Text: text,
		})
	}
	return docs, nil
}

func extractPDFPages(path string) ([]string, error) {
	f, reader, err := pdflib.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	numPages := reader.NumPage()
	pages := make([]string, 0, numPages)
	for i := 1; i <= numPages; i++ {
		pg := reader.Page(i)
		if pg.V.IsNull() {
			pages = append(pages, "")
			continue
		}
		text, err := pg.GetPlainText(nil)
		if err != nil {
			pages = append(pages, "")
			continue
		}
		pages = append(pages, text)
	}
	return pages, nil
}

func extractPdftotext(path string) (string, error) {
	cmd := exec.Command("pdftotext", "-layout", path, "-")
	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("pdftotext: %w", err)
	}
	return string(out), nil
}

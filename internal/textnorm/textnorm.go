// Package textnorm holds the line-level helpers shared by the aggregator and
// the field extractor. Everything here is pure and works on OCR page text that
// may carry markdown-like markup.
package textnorm

import (
	"path/filepath"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	bulletPrefix = regexp.MustCompile(`^[-*•]\s*`)
	numberPrefix = regexp.MustCompile(`^\d+[.)]\s*`)
	columnGap    = regexp.MustCompile(`\s{2,}|\t`)
	pageSuffix   = regexp.MustCompile(`#p\d+$`)
)

// Normalize converts line endings to \n, replaces non-breaking spaces and
// trims trailing whitespace from every line.
func Normalize(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = strings.ReplaceAll(text, "\u00a0", " ")
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimRightFunc(l, unicode.IsSpace)
	}
	return strings.Join(lines, "\n")
}

// Lines trims the text and splits it on newlines. Empty text yields no lines.
func Lines(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	return strings.Split(text, "\n")
}

// Head returns at most n leading lines.
func Head(lines []string, n int) []string {
	if len(lines) < n {
		return lines
	}
	return lines[:n]
}

// HeadLower joins the first n lines and lower-cases the result.
func HeadLower(lines []string, n int) string {
	return strings.ToLower(strings.Join(Head(lines, n), "\n"))
}

// Heading parses an ATX heading ("## Title", "### Title ##"). It returns the
// level (1-6) and the heading text, or level 0 when the line is not a heading.
func Heading(line string) (int, string) {
	line = strings.TrimSpace(line)
	level := 0
	for level < len(line) && line[level] == '#' {
		level++
	}
	if level == 0 || level > 6 {
		return 0, ""
	}
	rest := line[level:]
	if rest != "" && rest[0] != ' ' && rest[0] != '\t' {
		return 0, ""
	}
	rest = strings.TrimSpace(rest)
	rest = strings.TrimSpace(strings.TrimRight(rest, "#"))
	return level, rest
}

// IsHeading reports whether the line is an ATX heading with level in [1, maxLevel].
func IsHeading(line string, maxLevel int) bool {
	level, _ := Heading(line)
	return level > 0 && level <= maxLevel
}

// StripListPrefix removes one leading bullet ("-", "*", "•") and one leading
// step number ("3.", "2)").
func StripListPrefix(s string) string {
	s = bulletPrefix.ReplaceAllString(s, "")
	return numberPrefix.ReplaceAllString(s, "")
}

// IsLink reports whether the line starts with an http(s) URL.
func IsLink(line string) bool {
	l := strings.ToLower(strings.TrimSpace(line))
	return strings.HasPrefix(l, "http://") || strings.HasPrefix(l, "https://")
}

// IsImage reports whether the line is a markdown image placeholder.
func IsImage(line string) bool {
	return strings.HasPrefix(strings.TrimSpace(line), "![")
}

// IsMarkupOnly reports whether the line holds only markup characters such as
// rules ("---"), table separators ("|---|") or stray emphasis marks.
func IsMarkupOnly(line string) bool {
	line = strings.TrimSpace(line)
	if line == "" {
		return false
	}
	for _, r := range line {
		if !strings.ContainsRune("-=*_#|:>`~+ \t", r) {
			return false
		}
	}
	return true
}

// IsTableSeparator reports whether the line is a markdown table delimiter row.
func IsTableSeparator(line string) bool {
	line = strings.TrimSpace(line)
	return strings.HasPrefix(line, "|") && strings.Contains(line, "---")
}

// SplitTableRow splits a "| a | b |" row into its non-empty cells, dropping
// delimiter cells.
func SplitTableRow(line string) []string {
	var cells []string
	for _, c := range strings.Split(line, "|") {
		c = strings.TrimSpace(c)
		if c == "" || strings.HasPrefix(c, "---") {
			continue
		}
		cells = append(cells, c)
	}
	return cells
}

// SplitColumns splits a two-column transcript line on tabs or runs of two or
// more spaces.
func SplitColumns(line string) []string {
	var parts []string
	for _, p := range columnGap.Split(strings.TrimSpace(line), -1) {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return parts
}

// IsAllCaps reports whether s contains at least one letter and no lower-case
// letters.
func IsAllCaps(s string) bool {
	hasLetter := false
	for _, r := range s {
		if unicode.IsLower(r) {
			return false
		}
		if unicode.IsLetter(r) {
			hasLetter = true
		}
	}
	return hasLetter
}

// StartsLower reports whether the first rune of s is a lower-case letter.
func StartsLower(s string) bool {
	r, _ := utf8.DecodeRuneInString(strings.TrimSpace(s))
	return unicode.IsLower(r)
}

// RuneLen is the length of s in runes.
func RuneLen(s string) int {
	return utf8.RuneCountInString(s)
}

// Truncate shortens s to at most n runes.
func Truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

// Tail returns the last n runes of s.
func Tail(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[len(r)-n:])
}

// Stem turns a page identifier such as "dir/Lentil Soup.pdf#p002" into
// "Lentil Soup".
func Stem(identifier string) string {
	base := filepath.Base(pageSuffix.ReplaceAllString(identifier, ""))
	return strings.TrimSuffix(base, filepath.Ext(base))
}

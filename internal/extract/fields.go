package extract

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/dgallion1/recipegest/internal/textnorm"
)

const (
	maxDescription = 500
	minDescription = 50
)

var (
	recipeForLine = regexp.MustCompile(`(?i)RECIPE FOR:\s*(.+)`)

	prepTime  = regexp.MustCompile(`(?i)(?:Prep(?:aration)?\s*(?:Time)?)\s*[:\s]+(\d+\s*(?:min|minute|hr|hour|mins|minutes|hrs|hours)[^\n|]*)`)
	cookTime  = regexp.MustCompile(`(?i)(?:Cook(?:ing)?\s*(?:Time)?)\s*[:\s]+(\d+\s*(?:min|minute|hr|hour|mins|minutes|hrs|hours)[^\n|]*)`)
	totalTime = regexp.MustCompile(`(?i)(?:Total\s*(?:Time)?)\s*[:\s]+(\d+\s*(?:min|minute|hr|hour|mins|minutes|hrs|hours)[^\n|]*)`)

	servingsPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)(?:Serves?|Servings?|Yield)\s*[:\s]+(\d+(?:\s*[-–]\s*\d+)?(?:\s*(?:people|servings?|portions?))?)`),
		regexp.MustCompile(`SERVES:\s*(\d+(?:\s*[-–]\s*\d+)?)`),
	}

	authorLine = regexp.MustCompile(`\b(?:Author|By)[:\s]+([A-Z][a-zA-Z\s]+?)(?:\s*\||$|\n)`)
	urlDomain  = regexp.MustCompile(`https?://(?:www\.)?([a-zA-Z0-9-]+)\.(?:com|org|net)`)

	descriptionMeta = []*regexp.Regexp{
		regexp.MustCompile(`^(?:prep|cook|total|active)\s*time`),
		regexp.MustCompile(`^(?:serves?|yield|servings?|course|cuisine|author)`),
		regexp.MustCompile(`^\d+\s*(?:min|hr|hour)`),
	}

	nutritionPatterns = []struct {
		key string
		re  *regexp.Regexp
	}{
		{"calories", regexp.MustCompile(`(?i)Calories?\s*[:\s]+(\d+)`)},
		{"protein", regexp.MustCompile(`(?i)Protein\s*[:\s]+(\d+\.?\d*\s*g)`)},
		{"carbohydrates", regexp.MustCompile(`(?i)Carbohydrates?\s*[:\s]+(\d+\.?\d*\s*g)`)},
		{"fat", regexp.MustCompile(`(?i)Fat\s*[:\s]+(\d+\.?\d*\s*g)`)},
		{"fiber", regexp.MustCompile(`(?i)Fiber\s*[:\s]+(\d+\.?\d*\s*g)`)},
		{"sodium", regexp.MustCompile(`(?i)Sodium\s*[:\s]+(\d+\.?\d*\s*mg)`)},
	}
)

// sectionLabels are headings that name a part of a recipe, never the recipe.
var sectionLabels = map[string]bool{
	"ingredients": true, "instructions": true, "directions": true, "notes": true,
	"steps": true, "equipment": true, "preparation": true, "nutrition": true,
	"method": true, "tips": true,
}

// siteNames are publisher banners that OCR often picks up as a heading.
var siteNames = map[string]bool{
	"eatingwell": true, "epicurious": true, "food52": true, "food&wine": true, "allrecipes": true,
}

var knownSources = []string{
	"epicurious", "allrecipes", "food52", "bon appétit", "food & wine",
	"eatingwell", "serious eats", "nyt cooking",
}

func extractName(text, sourceName string) string {
	lines := textnorm.Lines(text)

	for _, l := range textnorm.Head(lines, 10) {
		if m := recipeForLine.FindStringSubmatch(l); m != nil {
			if name := strings.TrimSpace(m[1]); name != "" {
				return name
			}
		}
	}

	for _, l := range textnorm.Head(lines, 15) {
		level, title := textnorm.Heading(l)
		if level == 0 || level > 2 {
			continue
		}
		lower := strings.ToLower(title)
		if sectionLabels[lower] || siteNames[lower] || textnorm.RuneLen(title) <= 3 {
			continue
		}
		return title
	}

	if sourceName = strings.TrimSpace(sourceName); sourceName != "" {
		return sourceName
	}
	return "Untitled"
}

func extractDescription(text string) string {
	var collected []string
	started := false

	for _, l := range textnorm.Head(textnorm.Lines(text), 30) {
		l = strings.TrimSpace(l)
		lower := strings.ToLower(l)

		if level, heading := textnorm.Heading(l); level > 0 {
			if level > 1 || isSectionHeading(heading) {
				break
			}
			started = true
			continue
		}
		if !started || l == "" {
			continue
		}
		if sectionLabels[strings.TrimSuffix(lower, ":")] {
			break
		}
		if isDescriptionMeta(l, lower) {
			continue
		}
		collected = append(collected, l)
	}

	if len(collected) > 3 {
		collected = collected[:3]
	}
	desc := strings.Join(collected, " ")
	if textnorm.RuneLen(desc) < minDescription {
		return ""
	}
	return textnorm.Truncate(desc, maxDescription)
}

func isSectionHeading(text string) bool {
	lower := strings.ToLower(text)
	return strings.Contains(lower, "ingredient") ||
		strings.Contains(lower, "instruction") ||
		strings.Contains(lower, "direction")
}

func isDescriptionMeta(line, lower string) bool {
	if strings.HasPrefix(line, "|") || strings.HasPrefix(line, "---") ||
		textnorm.IsImage(line) || textnorm.IsLink(line) || textnorm.IsMarkupOnly(line) {
		return true
	}
	for _, re := range descriptionMeta {
		if re.MatchString(lower) {
			return true
		}
	}
	return false
}

type times struct {
	prep, cook, total string
}

func extractTimes(text string) times {
	return times{
		prep:  firstGroup(prepTime, text),
		cook:  firstGroup(cookTime, text),
		total: firstGroup(totalTime, text),
	}
}

func extractServings(text string) string {
	for _, re := range servingsPatterns {
		if s := firstGroup(re, text); s != "" {
			return s
		}
	}
	return ""
}

func extractSource(text string) string {
	if s := firstGroup(authorLine, text); s != "" {
		return s
	}
	if m := urlDomain.FindStringSubmatch(text); m != nil {
		return m[1]
	}
	lower := strings.ToLower(text)
	for _, src := range knownSources {
		if strings.Contains(lower, src) {
			// Casers carry state, so each call gets its own.
			return cases.Title(language.English).String(src)
		}
	}
	return ""
}

func extractNutrition(text string) map[string]string {
	out := map[string]string{}
	for _, p := range nutritionPatterns {
		if m := p.re.FindStringSubmatch(text); m != nil {
			out[p.key] = m[1]
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func firstGroup(re *regexp.Regexp, text string) string {
	m := re.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(m[1])
}

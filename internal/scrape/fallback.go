package scrape

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"

	"LinkSynth/internal/rules"
)

// extractFromHTML reproduces the browser-side extraction chain locally:
// ruleset content selectors first, then a readability pass, then the raw body
// text as last resort.
func extractFromHTML(html string, rule rules.ScrapingRules) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}

	for _, sel := range rule.ContentSelectors {
		selection := doc.Find(sel)
		if selection.Length() == 0 {
			continue
		}

		parts := make([]string, 0, selection.Length())
		selection.Each(func(_ int, s *goquery.Selection) {
			parts = append(parts, strings.TrimSpace(s.Text()))
		})

		content := rules.StripNoise(strings.Join(parts, "\n---\n"), rule.NoisePatterns)
		if len(content) > rule.MinContentLength {
			return content
		}
	}

	if article, rErr := readability.FromReader(strings.NewReader(html), nil); rErr == nil {
		if text := strings.TrimSpace(article.TextContent); text != "" {
			return rules.StripNoise(text, rule.NoisePatterns)
		}
	}

	return strings.TrimSpace(doc.Find("body").Text())
}

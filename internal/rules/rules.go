package rules

import (
	"regexp"
	"strings"
)

// ScrapingRules is the declarative extraction configuration for one platform.
// Rules are pure data; the optional extractor is referenced by name and resolved
// against the registry's statically registered scripts.
type ScrapingRules struct {
	Platform         string
	URLPattern       *regexp.Regexp
	OverlaySelectors []string
	ContentSelectors []string
	NoisePatterns    []*regexp.Regexp
	MinContentLength int
	ExtractorName    string
}

// Registry keeps an ordered rule list plus the named extractor scripts.
type Registry struct {
	rules      []ScrapingRules
	extractors map[string]string
}

// NewRegistry builds a registry preloaded with the built-in platform rules.
func NewRegistry() *Registry {
	r := &Registry{extractors: map[string]string{}}
	for name, script := range builtinExtractors {
		r.RegisterExtractor(name, script)
	}
	for _, rule := range builtinRules {
		r.Register(rule)
	}
	return r
}

// Register appends a rule; earlier rules win on overlapping URL patterns.
func (r *Registry) Register(rule ScrapingRules) {
	r.rules = append(r.rules, rule)
}

// RegisterExtractor adds or replaces a named browser-side extraction script.
func (r *Registry) RegisterExtractor(name, script string) {
	if r.extractors == nil {
		r.extractors = map[string]string{}
	}
	r.extractors[name] = script
}

// Detect returns the first rule whose pattern matches the URL, or the generic
// fallback ruleset. It never fails.
func (r *Registry) Detect(url string) ScrapingRules {
	for _, rule := range r.rules {
		if rule.URLPattern.MatchString(url) {
			return rule
		}
	}
	return GenericRules()
}

// Extractors returns a copy of the registered extractor scripts keyed by name.
func (r *Registry) Extractors() map[string]string {
	out := make(map[string]string, len(r.extractors))
	for name, script := range r.extractors {
		out[name] = script
	}
	return out
}

// ExtractorScript resolves a rule's extractor name to its registered script.
// An empty name or an unknown name resolves to no script.
func (r *Registry) ExtractorScript(name string) string {
	if name == "" {
		return ""
	}
	return r.extractors[name]
}

// GenericRules is the fallback for platforms without a dedicated ruleset:
// minimal overlay removal, broad content selectors, a low minimum threshold.
func GenericRules() ScrapingRules {
	return ScrapingRules{
		Platform:   "unknown",
		URLPattern: regexp.MustCompile(`.*`),
		OverlaySelectors: []string{
			`div[role="dialog"]`,
			`div[role="presentation"]`,
		},
		ContentSelectors: []string{"main", "article", "body"},
		MinContentLength: 100,
	}
}

// StripNoise removes every noise pattern from the text and trims it. Removal is
// idempotent: stripping already-clean text returns it unchanged.
func StripNoise(text string, patterns []*regexp.Regexp) string {
	for _, pattern := range patterns {
		text = pattern.ReplaceAllString(text, "")
	}
	return strings.TrimSpace(text)
}

// PatternSources exports noise patterns as plain sources for the browser script.
func PatternSources(patterns []*regexp.Regexp) []string {
	sources := make([]string, 0, len(patterns))
	for _, pattern := range patterns {
		sources = append(sources, pattern.String())
	}
	return sources
}

var builtinRules = []ScrapingRules{
	{
		Platform:   "chatgpt",
		URLPattern: regexp.MustCompile(`(?i)chatgpt\.com`),
		OverlaySelectors: []string{
			`div[class*="modal"]`,
			`div[class*="Modal"]`,
			`div[data-headlessui-state]`,
			`a[href*="/auth/login"]`,
			`a[href*="/signup"]`,
		},
		ContentSelectors: []string{
			// ChatGPT renders each turn as its own <article>.
			"article",
			`main[class*="react-scroll"]`,
			`div[class*="conversation"]`,
			"main",
		},
		NoisePatterns: []*regexp.Regexp{
			regexp.MustCompile(`Skip to content`),
			regexp.MustCompile(`ChatGPT\s*Log in\s*Sign up`),
			regexp.MustCompile(`Get smarter responses.*?Log in.*?Sign up for free`),
			regexp.MustCompile(`ChatGPT is AI and can make mistakes`),
		},
		MinContentLength: 500,
		ExtractorName:    "chatgpt_articles",
	},
	{
		Platform:   "gemini",
		URLPattern: regexp.MustCompile(`(?i)gemini\.google\.com`),
		OverlaySelectors: []string{
			`div[role="dialog"]`,
			`div[role="presentation"]`,
			".mS787c", // Google account overlay
			".idpc",   // identity picker
			`iframe[src*="google.com/gsi"]`,
			"#credential_picker_container",
		},
		ContentSelectors: []string{
			".conversation-container",
			"main",
			".chat-history",
			"article",
		},
		NoisePatterns: []*regexp.Regexp{
			regexp.MustCompile(`Sign in.*?Google`),
			regexp.MustCompile(`Use Gemini at work\?`),
		},
		MinContentLength: 500,
	},
	{
		Platform:   "claude",
		URLPattern: regexp.MustCompile(`(?i)claude\.ai`),
		OverlaySelectors: []string{
			`div[role="dialog"]`,
			`div[class*="modal"]`,
			`button[aria-label*="close"]`,
		},
		ContentSelectors: []string{
			`[data-testid="conversation"]`,
			"main",
			"article",
		},
		NoisePatterns: []*regexp.Regexp{
			regexp.MustCompile(`Sign up.*?Claude`),
			regexp.MustCompile(`Log in to Claude`),
		},
		MinContentLength: 500,
	},
	{
		Platform:   "perplexity",
		URLPattern: regexp.MustCompile(`(?i)perplexity\.ai`),
		OverlaySelectors: []string{
			`div[role="dialog"]`,
			`div[class*="modal"]`,
		},
		ContentSelectors: []string{
			`[class*="thread"]`,
			"main",
			"article",
		},
		NoisePatterns: []*regexp.Regexp{
			regexp.MustCompile(`Sign up.*?Perplexity`),
		},
		MinContentLength: 500,
	},
}

package scrape

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"LinkSynth/internal/config"
	"LinkSynth/internal/domain"
	"LinkSynth/internal/ports"
	"LinkSynth/internal/rules"
)

const defaultSessionTimeout = 120 * time.Second

// Executor drives remote browser sessions through a Browserless-style
// /function endpoint. The session script navigates, strips overlays, expands
// infinite scroll, intercepts image responses, and extracts text with the
// platform ruleset's fallback chain.
type Executor struct {
	endpoint string
	token    string
	script   string
	navMS    int
	registry *rules.Registry
	client   *http.Client
	logger   *slog.Logger
}

var _ ports.Scraper = (*Executor)(nil)

// NewExecutor builds an executor from browser config and a rule registry.
func NewExecutor(cfg config.Browser, registry *rules.Registry, logger *slog.Logger) *Executor {
	if registry == nil {
		registry = rules.NewRegistry()
	}

	timeout := cfg.SessionTimeout
	if timeout <= 0 {
		timeout = defaultSessionTimeout
	}
	navMS := cfg.NavTimeoutMS
	if navMS <= 0 {
		navMS = 60000
	}

	return &Executor{
		endpoint: cfg.Endpoint,
		token:    cfg.Token,
		script:   renderScript(registry.Extractors()),
		navMS:    navMS,
		registry: registry,
		client:   &http.Client{Timeout: timeout},
		logger:   logger,
	}
}

type sessionContext struct {
	URL              string   `json:"url"`
	OverlaySelectors []string `json:"overlaySelectors"`
	ContentSelectors []string `json:"contentSelectors"`
	NoisePatterns    []string `json:"noisePatterns"`
	MinContentLength int      `json:"minContentLength"`
	ExtractorName    string   `json:"extractorName"`
	NavTimeoutMS     int      `json:"navTimeoutMs"`
}

type browserPayload struct {
	Title  string                `json:"title"`
	HTML   string                `json:"html"`
	Text   string                `json:"text"`
	Images []domain.ImageCapture `json:"images"`
}

// Scrape runs one browser session for the URL and returns the structured
// result. Navigation timeouts, non-2xx statuses, and empty or malformed
// payloads all surface as errors.
func (e *Executor) Scrape(ctx context.Context, url string) (domain.ScrapeResult, error) {
	rule := e.registry.Detect(url)
	e.debug("scrape start", "url", url, "platform", rule.Platform)

	body, err := json.Marshal(map[string]any{
		"code": e.script,
		"context": sessionContext{
			URL:              url,
			OverlaySelectors: rule.OverlaySelectors,
			ContentSelectors: rule.ContentSelectors,
			NoisePatterns:    rules.PatternSources(rule.NoisePatterns),
			MinContentLength: rule.MinContentLength,
			ExtractorName:    rule.ExtractorName,
			NavTimeoutMS:     e.navMS,
		},
	})
	if err != nil {
		return domain.ScrapeResult{}, fmt.Errorf("marshal browser payload: %w", err)
	}

	endpoint := e.endpoint
	if e.token != "" {
		endpoint += "?token=" + e.token
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return domain.ScrapeResult{}, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return domain.ScrapeResult{}, fmt.Errorf("%w: browser session: %w", domain.ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return domain.ScrapeResult{}, fmt.Errorf("%w: browser API %s: %s", domain.ErrUpstream, resp.Status, strings.TrimSpace(string(payload)))
	}

	var envelope struct {
		Data *browserPayload `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return domain.ScrapeResult{}, fmt.Errorf("decode browser response: %w", err)
	}
	if envelope.Data == nil {
		return domain.ScrapeResult{}, fmt.Errorf("empty browser response payload")
	}

	result := domain.ScrapeResult{
		Title:    envelope.Data.Title,
		Text:     envelope.Data.Text,
		FullHTML: envelope.Data.HTML,
		Images:   envelope.Data.Images,
	}
	if result.Title == "" {
		result.Title = "Untitled"
	}

	// Some sessions come back with HTML but no text (virtualized pages where
	// innerText collapses). Re-run the extraction chain locally over the HTML.
	if strings.TrimSpace(result.Text) == "" && result.FullHTML != "" {
		result.Text = extractFromHTML(result.FullHTML, rule)
	}

	e.debug("scrape done", "url", url, "chars", len(result.Text), "images", len(result.Images))
	return result, nil
}

func (e *Executor) debug(msg string, args ...any) {
	if e.logger != nil {
		e.logger.Debug(msg, args...)
	}
}

package analyze

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/pemistahl/lingua-go"

	"LinkSynth/internal/config"
	"LinkSynth/internal/domain"
	"LinkSynth/internal/ports"
)

// maxContentLength bounds the text embedded in a single analysis request.
// Longer inputs are truncated before prompt assembly.
const maxContentLength = 30000

var openFence = regexp.MustCompile("^```(?:json)?\n?")

// GeminiClient implements analysis and synthesis on top of a Gemini-style
// generateContent endpoint with a JSON response hint.
type GeminiClient struct {
	endpoint   string
	model      string
	apiKey     string
	httpClient *http.Client
	detector   lingua.LanguageDetector
	logger     *slog.Logger
}

var _ ports.Analyzer = (*GeminiClient)(nil)
var _ ports.Synthesizer = (*GeminiClient)(nil)

// NewGeminiClient builds a client from configuration.
func NewGeminiClient(cfg config.Gemini, logger *slog.Logger) *GeminiClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 90 * time.Second
	}

	detector := lingua.NewLanguageDetectorBuilder().
		FromLanguages(
			lingua.English,
			lingua.Japanese,
			lingua.German,
			lingua.French,
			lingua.Spanish,
			lingua.Portuguese,
			lingua.Russian,
			lingua.Chinese,
		).
		Build()

	return &GeminiClient{
		endpoint:   cfg.Endpoint,
		model:      cfg.Model,
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: timeout},
		detector:   detector,
		logger:     logger,
	}
}

// Analyze sends the extracted conversation text for structured summarization
// and validates the four-field JSON result.
func (c *GeminiClient) Analyze(ctx context.Context, content string) (domain.Analysis, error) {
	truncated := content
	if len(truncated) > maxContentLength {
		truncated = truncated[:maxContentLength]
	}

	raw, err := c.generateJSON(ctx, analysisPrompt+"\n\nContent: "+truncated)
	if err != nil {
		return domain.Analysis{}, err
	}

	var analysis domain.Analysis
	if err := json.Unmarshal([]byte(raw), &analysis); err != nil {
		return domain.Analysis{}, fmt.Errorf("parse analysis response: %w", err)
	}

	if lang := c.detectLanguage(truncated); lang != "" {
		analysis.Metadata.Language = lang
	}

	c.debug("analysis complete", "title", analysis.Title, "tags", len(analysis.Metadata.Tags))
	return analysis, nil
}

// Synthesize merges several processed conversations into the six-field
// cross-document result.
func (c *GeminiClient) Synthesize(ctx context.Context, projectName string, inputs []domain.SynthesisInput) (domain.Synthesis, error) {
	raw, err := c.generateJSON(ctx, buildSynthesisPrompt(projectName, inputs))
	if err != nil {
		return domain.Synthesis{}, err
	}

	var synthesis domain.Synthesis
	if err := json.Unmarshal([]byte(raw), &synthesis); err != nil {
		return domain.Synthesis{}, fmt.Errorf("parse synthesis response: %w", err)
	}

	c.debug("synthesis complete", "project", projectName, "insights", len(synthesis.KeyInsights))
	return synthesis, nil
}

// generateJSON performs one generateContent call and returns the fence-stripped
// response text. No retries; failures propagate to the caller.
func (c *GeminiClient) generateJSON(ctx context.Context, prompt string) (string, error) {
	if c.apiKey == "" {
		return "", fmt.Errorf("gemini api key is missing")
	}

	body, err := json.Marshal(map[string]any{
		"contents": []map[string]any{
			{"parts": []map[string]string{{"text": prompt}}},
		},
		"generationConfig": map[string]string{
			"responseMimeType": "application/json",
		},
	})
	if err != nil {
		return "", fmt.Errorf("marshal gemini payload: %w", err)
	}

	endpoint := fmt.Sprintf("%s/%s:generateContent?key=%s", strings.TrimSuffix(c.endpoint, "/"), c.model, c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: gemini request: %w", domain.ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return "", fmt.Errorf("%w: gemini %s: %s", domain.ErrUpstream, resp.Status, strings.TrimSpace(string(payload)))
	}

	var envelope struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return "", fmt.Errorf("decode gemini response: %w", err)
	}
	if len(envelope.Candidates) == 0 || len(envelope.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("gemini response has no candidates")
	}

	return stripFences(envelope.Candidates[0].Content.Parts[0].Text), nil
}

// stripFences removes incidental Markdown code-fence wrapping around the JSON
// payload. Only an opening fence at the very start and a closing fence at the
// very end are touched; fences inside the payload stay intact.
func stripFences(text string) string {
	text = strings.TrimSpace(text)
	text = openFence.ReplaceAllString(text, "")
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	return strings.TrimSpace(text)
}

func (c *GeminiClient) detectLanguage(text string) string {
	if c.detector == nil || strings.TrimSpace(text) == "" {
		return ""
	}
	lang, ok := c.detector.DetectLanguageOf(text)
	if !ok {
		return ""
	}
	return strings.ToLower(lang.IsoCode639_1().String())
}

func (c *GeminiClient) debug(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Debug(msg, args...)
	}
}

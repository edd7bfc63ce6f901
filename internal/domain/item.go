package domain

import "time"

// QueueStatus enumerates ingest queue lifecycle states.
type QueueStatus string

const (
	QueuePending    QueueStatus = "pending"
	QueueProcessing QueueStatus = "processing"
	QueueCompleted  QueueStatus = "completed"
	QueueFailed     QueueStatus = "failed"
)

// ProjectStatus enumerates project lifecycle states.
type ProjectStatus string

const (
	ProjectDraft      ProjectStatus = "draft"
	ProjectProcessing ProjectStatus = "processing"
	ProjectCompleted  ProjectStatus = "completed"
	ProjectFailed     ProjectStatus = "failed"
)

// QueueItem is one submitted share link waiting for (or undergoing) processing.
// Priority is set only for instant-mode submissions and puts the item ahead of
// project-mode items when the queue is drained.
type QueueItem struct {
	ID           string
	URL          string
	TeamID       string
	ProjectID    string
	Status       QueueStatus
	Priority     bool
	LastActivity string
	ErrorMessage string
	CreatedAt    time.Time
}

// ImageCapture is one intercepted image response from the remote browser.
type ImageCapture struct {
	URL         string `json:"url"`
	ContentType string `json:"contentType"`
	Base64      string `json:"base64"`
}

// ScrapeResult is the transient output of one scrape session. It is consumed
// immediately by the pipeline; only the archived copies persist.
type ScrapeResult struct {
	Title    string
	Text     string
	FullHTML string
	Images   []ImageCapture
}

// Metadata carries analyzer enrichment attached to a processed item.
type Metadata struct {
	Tags     []string `json:"tags"`
	Language string   `json:"language,omitempty"`
}

// Analysis is the structured summarization returned by the LLM.
type Analysis struct {
	Title           string   `json:"title"`
	Summary         string   `json:"summary"`
	ContentMarkdown string   `json:"content_markdown"`
	Metadata        Metadata `json:"metadata"`
}

// Synthesis is the cross-document merge result for one project.
type Synthesis struct {
	KeyInsights    []string `json:"key_insights"`
	ActionItems    []string `json:"action_items"`
	Themes         []string `json:"themes"`
	Contradictions []string `json:"contradictions"`
	Narrative      string   `json:"synthesis_narrative"`
	NextSteps      []string `json:"next_steps"`
}

// SynthesisInput is the slice of an already-processed item that feeds the
// aggregate synthesis prompt.
type SynthesisInput struct {
	Title       string
	KeyInsights []string
	ActionItems []string
	Themes      []string
}

// ProcessedItem is the persisted outcome of one successful pipeline run, or of
// one project synthesis when IsSynthesis is set. The synthesis-only fields are
// empty on regular items.
type ProcessedItem struct {
	ID              string
	OriginalURL     string
	Title           string
	Summary         string
	ContentMarkdown string
	Metadata        Metadata
	TeamID          string
	ProjectID       string
	RawContentPath  string
	IsSynthesis     bool
	KeyInsights     []string
	ActionItems     []string
	Themes          []string
	Contradictions  []string
	Narrative       string
	NextSteps       []string
	CreatedAt       time.Time
}

// AssetRef links a stored binary to its owning processed item. Immutable once
// created; assets of failed runs remain as orphaned storage objects.
type AssetRef struct {
	OriginalURL     string
	StoragePath     string
	ContentType     string
	TeamID          string
	ProcessedItemID string
}

// Project groups queue items for a later combined synthesis.
type Project struct {
	ID          string
	Name        string
	Description string
	TeamID      string
	Status      ProjectStatus
	SynthesisID string
	CreatedAt   time.Time
}

package ports

import (
	"context"
	"time"

	"LinkSynth/internal/domain"
)

// QueueRepository persists ingest queue items and arbitrates the claim race.
type QueueRepository interface {
	Enqueue(ctx context.Context, item domain.QueueItem) (domain.QueueItem, error)
	// ClaimNext atomically flips the oldest highest-priority pending item to
	// processing. Returns domain.ErrNoPendingItems when the queue is empty or
	// the race was lost.
	ClaimNext(ctx context.Context, activity string) (domain.QueueItem, error)
	// Claim flips a specific pending item to processing; same race semantics.
	Claim(ctx context.Context, id, activity string) (domain.QueueItem, error)
	UpdateActivity(ctx context.Context, id, activity string) error
	MarkCompleted(ctx context.Context, id string) error
	MarkFailed(ctx context.Context, id, message string) error
}

// ItemRepository persists processed items.
type ItemRepository interface {
	Save(ctx context.Context, item domain.ProcessedItem) (domain.ProcessedItem, error)
	// ListByProject returns non-synthesis items belonging to a project.
	ListByProject(ctx context.Context, projectID string) ([]domain.ProcessedItem, error)
}

// AssetRepository links stored binaries to processed items.
type AssetRepository interface {
	SaveAll(ctx context.Context, assets []domain.AssetRef) error
}

// ProjectRepository persists projects and drives their status transitions.
type ProjectRepository interface {
	Create(ctx context.Context, project domain.Project) (domain.Project, error)
	Get(ctx context.Context, id string) (domain.Project, error)
	ListByTeam(ctx context.Context, teamID string) ([]domain.Project, error)
	Update(ctx context.Context, project domain.Project) (domain.Project, error)
	Delete(ctx context.Context, id string) error
	SetStatus(ctx context.Context, id string, status domain.ProjectStatus) error
	// CompleteSynthesis records the synthesis back-reference and flips the
	// project to completed in one update.
	CompleteSynthesis(ctx context.Context, id, synthesisID string) error
}

// Scraper drives a remote browser session for one URL.
type Scraper interface {
	Scrape(ctx context.Context, url string) (domain.ScrapeResult, error)
}

// Analyzer turns extracted text into a structured summary.
type Analyzer interface {
	Analyze(ctx context.Context, content string) (domain.Analysis, error)
}

// Synthesizer merges several processed items into one cross-document narrative.
type Synthesizer interface {
	Synthesize(ctx context.Context, projectName string, inputs []domain.SynthesisInput) (domain.Synthesis, error)
}

// ObjectStore archives raw content and captured assets.
type ObjectStore interface {
	Put(ctx context.Context, path string, content []byte, contentType string) (string, error)
}

// Scheduler controls when queue draining executes.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}

package usecase

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"LinkSynth/internal/domain"
	"LinkSynth/internal/ports"
)

const (
	activityInitializing = "Initializing worker..."
	activityScraping     = "Scraping content and capturing assets..."
	activityArchiving    = "Archiving raw content..."
	activityAnalyzing    = "Synthesizing with the language model..."
	activityFinalizing   = "Finalizing and saving..."
)

// PipelineDeps wires all driven adapters into the queue processor.
type PipelineDeps struct {
	Queue    ports.QueueRepository
	Items    ports.ItemRepository
	Assets   ports.AssetRepository
	Store    ports.ObjectStore
	Scraper  ports.Scraper
	Analyzer ports.Analyzer
	Logger   *slog.Logger
}

// Pipeline implements the scrape → archive → analyze → persist workflow for
// one queue item at a time. There is no shared mutable state between runs;
// concurrent invocations are arbitrated by the repository's conditional claim.
type Pipeline struct {
	queue    ports.QueueRepository
	items    ports.ItemRepository
	assets   ports.AssetRepository
	store    ports.ObjectStore
	scraper  ports.Scraper
	analyzer ports.Analyzer
	logger   *slog.Logger
}

// PipelineResult reports the outcome of one processing attempt.
type PipelineResult struct {
	NoWork     bool
	ItemID     string
	Processed  domain.ProcessedItem
	AssetCount int
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps) *Pipeline {
	return &Pipeline{
		queue:    deps.Queue,
		items:    deps.Items,
		assets:   deps.Assets,
		store:    deps.Store,
		scraper:  deps.Scraper,
		analyzer: deps.Analyzer,
		logger:   deps.Logger,
	}
}

// ProcessNext claims the oldest highest-priority pending item and runs it.
// An empty queue (or a lost claim race) is a neutral no-work outcome.
func (p *Pipeline) ProcessNext(ctx context.Context) (PipelineResult, error) {
	item, err := p.queue.ClaimNext(ctx, activityInitializing)
	if errors.Is(err, domain.ErrNoPendingItems) {
		return PipelineResult{NoWork: true}, nil
	}
	if err != nil {
		return PipelineResult{}, fmt.Errorf("claim next item: %w", err)
	}
	return p.run(ctx, item)
}

// Process claims a specific pending item (instant mode) and runs it. A missing
// or already-claimed item is a no-work outcome, mirroring ProcessNext.
func (p *Pipeline) Process(ctx context.Context, id string) (PipelineResult, error) {
	item, err := p.queue.Claim(ctx, id, activityInitializing)
	if errors.Is(err, domain.ErrNoPendingItems) {
		return PipelineResult{NoWork: true}, nil
	}
	if err != nil {
		return PipelineResult{}, fmt.Errorf("claim item %s: %w", id, err)
	}
	return p.run(ctx, item)
}

func (p *Pipeline) run(ctx context.Context, item domain.QueueItem) (PipelineResult, error) {
	result, err := p.execute(ctx, item)
	if err != nil {
		p.warn("pipeline failed", "item", item.ID, "error", err)
		if markErr := p.queue.MarkFailed(ctx, item.ID, err.Error()); markErr != nil {
			p.warn("mark failed", "item", item.ID, "error", markErr)
		}
		return PipelineResult{ItemID: item.ID}, err
	}
	return result, nil
}

func (p *Pipeline) execute(ctx context.Context, item domain.QueueItem) (PipelineResult, error) {
	p.activity(ctx, item.ID, activityScraping)

	scraped, err := p.scraper.Scrape(ctx, cacheBust(item.URL))
	if err != nil {
		return PipelineResult{}, fmt.Errorf("scrape %s: %w", item.URL, err)
	}
	p.debug("scrape complete", "item", item.ID, "chars", len(scraped.Text), "images", len(scraped.Images))

	p.activity(ctx, item.ID, activityArchiving)
	rawPath := fmt.Sprintf("raw/%s/%d.html", item.ID, time.Now().UnixMilli())
	if _, err := p.store.Put(ctx, rawPath, []byte(scraped.FullHTML), "text/html"); err != nil {
		return PipelineResult{}, fmt.Errorf("archive raw content: %w", err)
	}

	p.activity(ctx, item.ID, fmt.Sprintf("Uploading %d images...", len(scraped.Images)))
	assetRefs := p.uploadImages(ctx, item, scraped.Images)

	p.activity(ctx, item.ID, activityAnalyzing)
	analysis, err := p.analyzer.Analyze(ctx, scraped.Text)
	if err != nil {
		return PipelineResult{}, fmt.Errorf("analyze content: %w", err)
	}

	p.activity(ctx, item.ID, activityFinalizing)
	processed, err := p.items.Save(ctx, domain.ProcessedItem{
		OriginalURL:     item.URL,
		Title:           analysis.Title,
		Summary:         analysis.Summary,
		ContentMarkdown: analysis.ContentMarkdown,
		Metadata:        analysis.Metadata,
		TeamID:          item.TeamID,
		ProjectID:       item.ProjectID,
		RawContentPath:  rawPath,
	})
	if err != nil {
		return PipelineResult{}, fmt.Errorf("persist processed item: %w", err)
	}

	if len(assetRefs) > 0 {
		for i := range assetRefs {
			assetRefs[i].ProcessedItemID = processed.ID
		}
		// Assets are best-effort all the way through; a failed link does not
		// undo an otherwise complete run.
		if err := p.assets.SaveAll(ctx, assetRefs); err != nil {
			p.warn("link assets", "item", item.ID, "error", err)
		}
	}

	if err := p.queue.MarkCompleted(ctx, item.ID); err != nil {
		return PipelineResult{}, fmt.Errorf("mark completed: %w", err)
	}

	p.debug("pipeline complete", "item", item.ID, "processed", processed.ID, "assets", len(assetRefs))
	return PipelineResult{
		ItemID:     item.ID,
		Processed:  processed,
		AssetCount: len(assetRefs),
	}, nil
}

// uploadImages decodes and stores every captured image, skipping individual
// failures so one bad image cannot abort the item.
func (p *Pipeline) uploadImages(ctx context.Context, item domain.QueueItem, images []domain.ImageCapture) []domain.AssetRef {
	refs := make([]domain.AssetRef, 0, len(images))
	for _, img := range images {
		raw, err := base64.StdEncoding.DecodeString(img.Base64)
		if err != nil {
			p.warn("decode image", "item", item.ID, "url", img.URL, "error", err)
			continue
		}

		path := fmt.Sprintf("assets/%s/%s.%s", item.ID, uuid.NewString()[:8], imageExt(img.ContentType))
		if _, err := p.store.Put(ctx, path, raw, img.ContentType); err != nil {
			p.warn("upload image", "item", item.ID, "url", img.URL, "error", err)
			continue
		}

		refs = append(refs, domain.AssetRef{
			OriginalURL: img.URL,
			StoragePath: path,
			ContentType: img.ContentType,
			TeamID:      item.TeamID,
		})
	}
	return refs
}

func (p *Pipeline) activity(ctx context.Context, id, activity string) {
	if err := p.queue.UpdateActivity(ctx, id, activity); err != nil {
		p.warn("update activity", "item", id, "error", err)
	}
}

func imageExt(contentType string) string {
	if _, ext, ok := strings.Cut(contentType, "/"); ok && ext != "" {
		return ext
	}
	return "img"
}

// cacheBust appends a timestamp parameter so the remote browser cannot serve a
// stale cached rendering of a previously scraped share link.
func cacheBust(url string) string {
	sep := "?"
	if strings.Contains(url, "?") {
		sep = "&"
	}
	return fmt.Sprintf("%s%s_cb=%d", url, sep, time.Now().UnixMilli())
}

func (p *Pipeline) debug(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Debug(msg, args...)
	}
}

func (p *Pipeline) warn(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Warn(msg, args...)
	}
}

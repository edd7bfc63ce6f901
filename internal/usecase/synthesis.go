package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"LinkSynth/internal/domain"
	"LinkSynth/internal/ports"
)

// SynthesizerDeps wires the project synthesizer's adapters.
type SynthesizerDeps struct {
	Projects ports.ProjectRepository
	Items    ports.ItemRepository
	Analyzer ports.Synthesizer
	Logger   *slog.Logger
}

// ProjectSynthesizer merges all processed items of one project into a single
// flagged synthesis item, driving the project status machine along the way.
type ProjectSynthesizer struct {
	projects ports.ProjectRepository
	items    ports.ItemRepository
	analyzer ports.Synthesizer
	logger   *slog.Logger
}

// NewProjectSynthesizer constructs the synthesis use case.
func NewProjectSynthesizer(deps SynthesizerDeps) *ProjectSynthesizer {
	return &ProjectSynthesizer{
		projects: deps.Projects,
		items:    deps.Items,
		analyzer: deps.Analyzer,
		logger:   deps.Logger,
	}
}

// SynthesizeProject runs the cross-document merge for a project. The project
// must exist and have at least one non-synthesis processed item; any failure
// past the existence check flips the project to failed before surfacing.
func (s *ProjectSynthesizer) SynthesizeProject(ctx context.Context, projectID string) (domain.ProcessedItem, error) {
	project, err := s.projects.Get(ctx, projectID)
	if err != nil {
		return domain.ProcessedItem{}, fmt.Errorf("load project %s: %w", projectID, err)
	}

	if err := s.projects.SetStatus(ctx, projectID, domain.ProjectProcessing); err != nil {
		return domain.ProcessedItem{}, fmt.Errorf("mark project processing: %w", err)
	}

	items, err := s.items.ListByProject(ctx, projectID)
	if err != nil {
		return domain.ProcessedItem{}, s.fail(ctx, projectID, fmt.Errorf("load project items: %w", err))
	}
	if len(items) == 0 {
		return domain.ProcessedItem{}, s.fail(ctx, projectID, fmt.Errorf("project %s: %w", projectID, domain.ErrEmptyProject))
	}

	s.debug("synthesis start", "project", projectID, "items", len(items))

	synthesis, err := s.analyzer.Synthesize(ctx, project.Name, toSynthesisInputs(items))
	if err != nil {
		return domain.ProcessedItem{}, s.fail(ctx, projectID, fmt.Errorf("synthesize project: %w", err))
	}

	saved, err := s.items.Save(ctx, domain.ProcessedItem{
		Title:          "Synthesis: " + project.Name,
		TeamID:         project.TeamID,
		ProjectID:      projectID,
		IsSynthesis:    true,
		KeyInsights:    synthesis.KeyInsights,
		ActionItems:    synthesis.ActionItems,
		Themes:         synthesis.Themes,
		Contradictions: synthesis.Contradictions,
		Narrative:      synthesis.Narrative,
		NextSteps:      synthesis.NextSteps,
	})
	if err != nil {
		return domain.ProcessedItem{}, s.fail(ctx, projectID, fmt.Errorf("persist synthesis: %w", err))
	}

	if err := s.projects.CompleteSynthesis(ctx, projectID, saved.ID); err != nil {
		return domain.ProcessedItem{}, s.fail(ctx, projectID, fmt.Errorf("complete project: %w", err))
	}

	s.debug("synthesis complete", "project", projectID, "synthesis", saved.ID)
	return saved, nil
}

func (s *ProjectSynthesizer) fail(ctx context.Context, projectID string, cause error) error {
	if err := s.projects.SetStatus(ctx, projectID, domain.ProjectFailed); err != nil {
		s.warn("mark project failed", "project", projectID, "error", err)
	}
	return cause
}

func toSynthesisInputs(items []domain.ProcessedItem) []domain.SynthesisInput {
	inputs := make([]domain.SynthesisInput, 0, len(items))
	for _, item := range items {
		inputs = append(inputs, domain.SynthesisInput{
			Title:       item.Title,
			KeyInsights: item.KeyInsights,
			ActionItems: item.ActionItems,
			Themes:      item.Themes,
		})
	}
	return inputs
}

func (s *ProjectSynthesizer) debug(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}

func (s *ProjectSynthesizer) warn(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Warn(msg, args...)
	}
}

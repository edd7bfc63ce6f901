package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"LinkSynth/internal/domain"
	"LinkSynth/internal/usecase"
)

type fakePipeline struct {
	mu         sync.Mutex
	processed  []string
	nextCalled int
	result     usecase.PipelineResult
	err        error
}

func (f *fakePipeline) Process(_ context.Context, id string) (usecase.PipelineResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.processed = append(f.processed, id)
	return f.result, f.err
}

func (f *fakePipeline) ProcessNext(_ context.Context) (usecase.PipelineResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextCalled++
	return f.result, f.err
}

func (f *fakePipeline) processedIDs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.processed...)
}

type fakeSynthesizer struct {
	item domain.ProcessedItem
	err  error
}

func (f *fakeSynthesizer) SynthesizeProject(_ context.Context, _ string) (domain.ProcessedItem, error) {
	return f.item, f.err
}

type fakeQueue struct {
	enqueued []domain.QueueItem
	err      error
}

func (f *fakeQueue) Enqueue(_ context.Context, item domain.QueueItem) (domain.QueueItem, error) {
	if f.err != nil {
		return domain.QueueItem{}, f.err
	}
	item.ID = fmt.Sprintf("q-%d", len(f.enqueued)+1)
	item.Status = domain.QueuePending
	item.CreatedAt = time.Now()
	f.enqueued = append(f.enqueued, item)
	return item, nil
}

func (f *fakeQueue) ClaimNext(context.Context, string) (domain.QueueItem, error) {
	return domain.QueueItem{}, domain.ErrNoPendingItems
}

func (f *fakeQueue) Claim(context.Context, string, string) (domain.QueueItem, error) {
	return domain.QueueItem{}, domain.ErrNoPendingItems
}

func (f *fakeQueue) UpdateActivity(context.Context, string, string) error { return nil }
func (f *fakeQueue) MarkCompleted(context.Context, string) error          { return nil }
func (f *fakeQueue) MarkFailed(context.Context, string, string) error     { return nil }

type fakeProjects struct {
	projects map[string]domain.Project
	deleted  []string
	err      error
}

func (f *fakeProjects) Create(_ context.Context, project domain.Project) (domain.Project, error) {
	if f.err != nil {
		return domain.Project{}, f.err
	}
	project.ID = "p-1"
	project.Status = domain.ProjectDraft
	return project, nil
}

func (f *fakeProjects) Get(_ context.Context, id string) (domain.Project, error) {
	project, ok := f.projects[id]
	if !ok {
		return domain.Project{}, fmt.Errorf("project %s: %w", id, domain.ErrNotFound)
	}
	return project, nil
}

func (f *fakeProjects) ListByTeam(_ context.Context, teamID string) ([]domain.Project, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []domain.Project
	for _, project := range f.projects {
		if project.TeamID == teamID {
			out = append(out, project)
		}
	}
	return out, nil
}

func (f *fakeProjects) Update(_ context.Context, project domain.Project) (domain.Project, error) {
	existing, ok := f.projects[project.ID]
	if !ok {
		return domain.Project{}, fmt.Errorf("project %s: %w", project.ID, domain.ErrNotFound)
	}
	if project.Name != "" {
		existing.Name = project.Name
	}
	if project.Status != "" {
		existing.Status = project.Status
	}
	return existing, nil
}

func (f *fakeProjects) Delete(_ context.Context, id string) error {
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeProjects) SetStatus(context.Context, string, domain.ProjectStatus) error { return nil }
func (f *fakeProjects) CompleteSynthesis(context.Context, string, string) error       { return nil }

func newTestServer(pipeline *fakePipeline, synthesizer *fakeSynthesizer, queue *fakeQueue, projects *fakeProjects) *httptest.Server {
	if pipeline == nil {
		pipeline = &fakePipeline{}
	}
	if synthesizer == nil {
		synthesizer = &fakeSynthesizer{}
	}
	if queue == nil {
		queue = &fakeQueue{}
	}
	if projects == nil {
		projects = &fakeProjects{projects: map[string]domain.Project{}}
	}
	server := NewServer(":0", pipeline, synthesizer, queue, projects, nil)
	return httptest.NewServer(server.http.Handler)
}

func postJSON(t *testing.T, url string, payload any) (*http.Response, map[string]any) {
	t.Helper()

	body, err := json.Marshal(payload)
	require.NoError(t, err)

	resp, err := http.Post(url, "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })

	var decoded map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	return resp, decoded
}

func TestIngestValidation(t *testing.T) {
	t.Parallel()

	queue := &fakeQueue{}
	server := newTestServer(nil, nil, queue, nil)
	defer server.Close()

	cases := []struct {
		name    string
		payload map[string]string
	}{
		{"missing url", map[string]string{"team_id": "team-1"}},
		{"missing team", map[string]string{"url": "https://chatgpt.com/share/abc"}},
		{"bad mode", map[string]string{"url": "https://chatgpt.com/share/abc", "team_id": "team-1", "mode": "batch"}},
		{"project mode without project", map[string]string{"url": "https://chatgpt.com/share/abc", "team_id": "team-1", "mode": "project"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp, body := postJSON(t, server.URL+"/api/ingest", tc.payload)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			assert.Equal(t, "validation_error", body["error"])
		})
	}
	assert.Empty(t, queue.enqueued)
}

func TestIngestInstantTriggersProcessing(t *testing.T) {
	t.Parallel()

	pipeline := &fakePipeline{}
	queue := &fakeQueue{}
	server := newTestServer(pipeline, nil, queue, nil)
	defer server.Close()

	resp, body := postJSON(t, server.URL+"/api/ingest", map[string]string{
		"url":     "https://chatgpt.com/share/abc",
		"team_id": "team-1",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "instant", body["mode"])
	assert.Equal(t, "Processing started", body["message"])

	require.Len(t, queue.enqueued, 1)
	assert.True(t, queue.enqueued[0].Priority)

	require.Eventually(t, func() bool {
		ids := pipeline.processedIDs()
		return len(ids) == 1 && ids[0] == "q-1"
	}, time.Second, 10*time.Millisecond)
}

func TestIngestProjectModeDoesNotTrigger(t *testing.T) {
	t.Parallel()

	pipeline := &fakePipeline{}
	queue := &fakeQueue{}
	server := newTestServer(pipeline, nil, queue, nil)
	defer server.Close()

	resp, body := postJSON(t, server.URL+"/api/ingest", map[string]string{
		"url":        "https://gemini.google.com/share/xyz",
		"team_id":    "team-1",
		"mode":       "project",
		"project_id": "p-1",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "project", body["mode"])
	assert.Equal(t, "Added to project queue", body["message"])

	require.Len(t, queue.enqueued, 1)
	assert.False(t, queue.enqueued[0].Priority)
	assert.Empty(t, pipeline.processedIDs())
}

func TestProcessEmptyQueue(t *testing.T) {
	t.Parallel()

	pipeline := &fakePipeline{result: usecase.PipelineResult{NoWork: true}}
	server := newTestServer(pipeline, nil, nil, nil)
	defer server.Close()

	resp, body := postJSON(t, server.URL+"/api/process", map[string]string{})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "No pending items", body["message"])
}

func TestProcessReturnsResult(t *testing.T) {
	t.Parallel()

	pipeline := &fakePipeline{result: usecase.PipelineResult{
		ItemID:     "q-7",
		Processed:  domain.ProcessedItem{ID: "item-7", Title: "Scaling notes"},
		AssetCount: 3,
	}}
	server := newTestServer(pipeline, nil, nil, nil)
	defer server.Close()

	resp, body := postJSON(t, server.URL+"/api/process", map[string]string{"queue_item_id": "q-7"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "q-7", body["queue_item_id"])
	assert.Equal(t, float64(3), body["asset_count"])
	assert.Equal(t, []string{"q-7"}, pipeline.processedIDs())
}

func TestProcessFailureMapsKind(t *testing.T) {
	t.Parallel()

	pipeline := &fakePipeline{err: fmt.Errorf("scrape: %w", domain.ErrUpstream)}
	server := newTestServer(pipeline, nil, nil, nil)
	defer server.Close()

	resp, body := postJSON(t, server.URL+"/api/process", map[string]string{})
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, "upstream_error", body["error"])
	assert.NotEmpty(t, body["message"])
}

func TestSynthesizeMissingProject(t *testing.T) {
	t.Parallel()

	synthesizer := &fakeSynthesizer{err: fmt.Errorf("load project ghost: %w", domain.ErrNotFound)}
	server := newTestServer(nil, synthesizer, nil, nil)
	defer server.Close()

	resp, body := postJSON(t, server.URL+"/api/projects/ghost/synthesize", map[string]string{})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "not_found", body["error"])
}

func TestSynthesizeEmptyProject(t *testing.T) {
	t.Parallel()

	synthesizer := &fakeSynthesizer{err: fmt.Errorf("project p-1: %w", domain.ErrEmptyProject)}
	server := newTestServer(nil, synthesizer, nil, nil)
	defer server.Close()

	resp, body := postJSON(t, server.URL+"/api/projects/p-1/synthesize", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "validation_error", body["error"])
}

func TestSynthesizeSuccess(t *testing.T) {
	t.Parallel()

	synthesizer := &fakeSynthesizer{item: domain.ProcessedItem{
		ID:          "syn-1",
		Title:       "Synthesis: Research",
		IsSynthesis: true,
		Narrative:   "The sources agree on caching strategy.",
	}}
	server := newTestServer(nil, synthesizer, nil, nil)
	defer server.Close()

	resp, body := postJSON(t, server.URL+"/api/projects/p-1/synthesize", map[string]string{})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "syn-1", body["synthesis_id"])

	synthesis, ok := body["synthesis"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "The sources agree on caching strategy.", synthesis["synthesis_narrative"])
}

func TestProjectLifecycle(t *testing.T) {
	t.Parallel()

	projects := &fakeProjects{projects: map[string]domain.Project{
		"p-1": {ID: "p-1", Name: "Research", TeamID: "team-1", Status: domain.ProjectDraft},
	}}
	server := newTestServer(nil, nil, nil, projects)
	defer server.Close()

	resp, err := http.Get(server.URL + "/api/projects?team_id=team-1")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var listBody map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&listBody))
	require.Len(t, listBody["data"], 1)

	resp2, createBody := postJSON(t, server.URL+"/api/projects", map[string]string{
		"name":    "New project",
		"team_id": "team-1",
	})
	require.Equal(t, http.StatusOK, resp2.StatusCode)
	created, ok := createBody["data"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "draft", created["status"])

	req, err := http.NewRequest(http.MethodDelete, server.URL+"/api/projects?id=p-1", nil)
	require.NoError(t, err)
	resp3, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp3.Body.Close()
	require.Equal(t, http.StatusOK, resp3.StatusCode)
	assert.Equal(t, []string{"p-1"}, projects.deleted)
}

func TestListProjectsRequiresTeam(t *testing.T) {
	t.Parallel()

	server := newTestServer(nil, nil, nil, nil)
	defer server.Close()

	resp, err := http.Get(server.URL + "/api/projects")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHealth(t *testing.T) {
	t.Parallel()

	server := newTestServer(nil, nil, nil, nil)
	defer server.Close()

	resp, err := http.Get(server.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"LinkSynth/internal/domain"
)

const (
	modeInstant = "instant"
	modeProject = "project"
)

type ingestRequest struct {
	URL       string `json:"url"`
	TeamID    string `json:"team_id"`
	Mode      string `json:"mode"`
	ProjectID string `json:"project_id"`
}

// handleIngest accepts a share link. Instant-mode items get queue priority and
// an immediate asynchronous processing kick; project-mode items wait for the
// poller or an explicit process call.
func (s *Server) handleIngest(c *gin.Context) {
	var req ingestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		validationError(c, "invalid request body")
		return
	}

	if req.URL == "" || req.TeamID == "" {
		validationError(c, "url and team_id are required")
		return
	}
	if req.Mode == "" {
		req.Mode = modeInstant
	}
	if req.Mode != modeInstant && req.Mode != modeProject {
		validationError(c, "mode must be instant or project")
		return
	}
	if req.Mode == modeProject && req.ProjectID == "" {
		validationError(c, "project_id is required in project mode")
		return
	}

	item, err := s.queue.Enqueue(c.Request.Context(), domain.QueueItem{
		URL:       req.URL,
		TeamID:    req.TeamID,
		ProjectID: req.ProjectID,
		Priority:  req.Mode == modeInstant,
	})
	if err != nil {
		s.writeError(c, err)
		return
	}

	message := "Added to project queue"
	if req.Mode == modeInstant {
		message = "Processing started"
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
			defer cancel()
			if _, err := s.pipeline.Process(ctx, item.ID); err != nil && s.logger != nil {
				s.logger.Warn("instant processing failed", "item", item.ID, "error", err)
			}
		}()
	}

	c.JSON(http.StatusOK, gin.H{
		"data":    queueItemView(item),
		"mode":    req.Mode,
		"message": message,
	})
}

type processRequest struct {
	QueueItemID string `json:"queue_item_id"`
}

// handleProcess runs one pipeline pass synchronously. With a queue_item_id it
// targets that item; otherwise it drains the next pending one.
func (s *Server) handleProcess(c *gin.Context) {
	var req processRequest
	// The body is optional; an empty or absent body means "process next".
	_ = c.ShouldBindJSON(&req)

	var (
		result any
		err    error
	)
	if req.QueueItemID != "" {
		result, err = s.processOne(c.Request.Context(), req.QueueItemID)
	} else {
		result, err = s.processNext(c.Request.Context())
	}
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) processOne(ctx context.Context, id string) (any, error) {
	res, err := s.pipeline.Process(ctx, id)
	if err != nil {
		return nil, err
	}
	if res.NoWork {
		return gin.H{"message": "No pending items"}, nil
	}
	return gin.H{
		"queue_item_id": res.ItemID,
		"processed":     processedItemView(res.Processed),
		"asset_count":   res.AssetCount,
	}, nil
}

func (s *Server) processNext(ctx context.Context) (any, error) {
	res, err := s.pipeline.ProcessNext(ctx)
	if err != nil {
		return nil, err
	}
	if res.NoWork {
		return gin.H{"message": "No pending items"}, nil
	}
	return gin.H{
		"queue_item_id": res.ItemID,
		"processed":     processedItemView(res.Processed),
		"asset_count":   res.AssetCount,
	}, nil
}

// handleSynthesize merges a project's processed items into one synthesis item.
func (s *Server) handleSynthesize(c *gin.Context) {
	projectID := c.Param("id")

	synthesis, err := s.synthesizer.SynthesizeProject(c.Request.Context(), projectID)
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"synthesis_id": synthesis.ID,
		"synthesis":    processedItemView(synthesis),
	})
}

func (s *Server) handleListProjects(c *gin.Context) {
	teamID := c.Query("team_id")
	if teamID == "" {
		validationError(c, "team_id is required")
		return
	}

	projects, err := s.projects.ListByTeam(c.Request.Context(), teamID)
	if err != nil {
		s.writeError(c, err)
		return
	}

	views := make([]gin.H, 0, len(projects))
	for _, project := range projects {
		views = append(views, projectView(project))
	}
	c.JSON(http.StatusOK, gin.H{"data": views})
}

type createProjectRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	TeamID      string `json:"team_id"`
}

func (s *Server) handleCreateProject(c *gin.Context) {
	var req createProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		validationError(c, "invalid request body")
		return
	}
	if req.Name == "" || req.TeamID == "" {
		validationError(c, "name and team_id are required")
		return
	}

	project, err := s.projects.Create(c.Request.Context(), domain.Project{
		Name:        req.Name,
		Description: req.Description,
		TeamID:      req.TeamID,
	})
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": projectView(project)})
}

type updateProjectRequest struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Status      string `json:"status"`
}

func (s *Server) handleUpdateProject(c *gin.Context) {
	var req updateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		validationError(c, "invalid request body")
		return
	}
	if req.ID == "" {
		validationError(c, "id is required")
		return
	}

	project, err := s.projects.Update(c.Request.Context(), domain.Project{
		ID:          req.ID,
		Name:        req.Name,
		Description: req.Description,
		Status:      domain.ProjectStatus(req.Status),
	})
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": projectView(project)})
}

func (s *Server) handleDeleteProject(c *gin.Context) {
	id := c.Query("id")
	if id == "" {
		validationError(c, "id is required")
		return
	}

	if err := s.projects.Delete(c.Request.Context(), id); err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func queueItemView(item domain.QueueItem) gin.H {
	return gin.H{
		"id":            item.ID,
		"url":           item.URL,
		"team_id":       item.TeamID,
		"project_id":    item.ProjectID,
		"status":        string(item.Status),
		"priority":      item.Priority,
		"last_activity": item.LastActivity,
		"created_at":    item.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func projectView(project domain.Project) gin.H {
	return gin.H{
		"id":           project.ID,
		"name":         project.Name,
		"description":  project.Description,
		"team_id":      project.TeamID,
		"status":       string(project.Status),
		"synthesis_id": project.SynthesisID,
		"created_at":   project.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func processedItemView(item domain.ProcessedItem) gin.H {
	view := gin.H{
		"id":               item.ID,
		"original_url":     item.OriginalURL,
		"title":            item.Title,
		"summary":          item.Summary,
		"content_markdown": item.ContentMarkdown,
		"metadata":         item.Metadata,
		"team_id":          item.TeamID,
		"project_id":       item.ProjectID,
		"raw_content_path": item.RawContentPath,
		"is_synthesis":     item.IsSynthesis,
		"created_at":       item.CreatedAt.UTC().Format(time.RFC3339),
	}
	if item.IsSynthesis {
		view["key_insights"] = item.KeyInsights
		view["action_items"] = item.ActionItems
		view["themes"] = item.Themes
		view["contradictions"] = item.Contradictions
		view["synthesis_narrative"] = item.Narrative
		view["next_steps"] = item.NextSteps
	}
	return view
}

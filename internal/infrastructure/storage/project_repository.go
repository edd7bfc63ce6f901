package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"LinkSynth/internal/domain"
	"LinkSynth/internal/ports"
)

const projectColumns = "id, name, description, team_id, status, synthesis_id, created_at"

// ProjectRepository persists projects in Postgres.
type ProjectRepository struct {
	db *sql.DB
}

var _ ports.ProjectRepository = (*ProjectRepository)(nil)

// NewProjectRepository wires a sql.DB implementation.
func NewProjectRepository(db *sql.DB) *ProjectRepository {
	return &ProjectRepository{db: db}
}

// Create inserts a draft project and returns it with id and creation time.
func (r *ProjectRepository) Create(ctx context.Context, project domain.Project) (domain.Project, error) {
	if project.ID == "" {
		project.ID = uuid.NewString()
	}
	if project.Status == "" {
		project.Status = domain.ProjectDraft
	}

	query, args, err := psql.Insert("projects").
		Columns("id", "name", "description", "team_id", "status").
		Values(project.ID, project.Name, project.Description, project.TeamID, project.Status).
		Suffix("RETURNING created_at").
		ToSql()
	if err != nil {
		return domain.Project{}, fmt.Errorf("build insert query: %w", err)
	}

	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&project.CreatedAt); err != nil {
		return domain.Project{}, fmt.Errorf("insert project: %w", err)
	}
	return project, nil
}

// Get loads one project; a missing row maps to domain.ErrNotFound.
func (r *ProjectRepository) Get(ctx context.Context, id string) (domain.Project, error) {
	query, args, err := psql.Select(projectColumns).
		From("projects").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return domain.Project{}, fmt.Errorf("build select query: %w", err)
	}

	project, err := scanProject(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Project{}, fmt.Errorf("project %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return domain.Project{}, fmt.Errorf("select project %s: %w", id, err)
	}
	return project, nil
}

// ListByTeam returns the team's projects, newest first.
func (r *ProjectRepository) ListByTeam(ctx context.Context, teamID string) ([]domain.Project, error) {
	query, args, err := psql.Select(projectColumns).
		From("projects").
		Where(sq.Eq{"team_id": teamID}).
		OrderBy("created_at DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	var projects []domain.Project
	for rows.Next() {
		project, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		projects = append(projects, project)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return projects, nil
}

// Update rewrites the mutable fields of a project.
func (r *ProjectRepository) Update(ctx context.Context, project domain.Project) (domain.Project, error) {
	values := map[string]any{}
	if project.Name != "" {
		values["name"] = project.Name
	}
	if project.Description != "" {
		values["description"] = project.Description
	}
	if project.Status != "" {
		values["status"] = project.Status
	}
	if len(values) == 0 {
		return r.Get(ctx, project.ID)
	}

	query, args, err := psql.Update("projects").
		SetMap(values).
		Where(sq.Eq{"id": project.ID}).
		Suffix("RETURNING " + projectColumns).
		ToSql()
	if err != nil {
		return domain.Project{}, fmt.Errorf("build update query: %w", err)
	}

	updated, err := scanProject(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Project{}, fmt.Errorf("project %s: %w", project.ID, domain.ErrNotFound)
	}
	if err != nil {
		return domain.Project{}, fmt.Errorf("update project %s: %w", project.ID, err)
	}
	return updated, nil
}

// Delete removes a project row.
func (r *ProjectRepository) Delete(ctx context.Context, id string) error {
	query, args, err := psql.Delete("projects").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("build delete query: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("delete project %s: %w", id, err)
	}
	return nil
}

// SetStatus flips the project lifecycle state.
func (r *ProjectRepository) SetStatus(ctx context.Context, id string, status domain.ProjectStatus) error {
	return r.set(ctx, id, map[string]any{"status": status})
}

// CompleteSynthesis records the synthesis back-reference and completes the
// project in a single update.
func (r *ProjectRepository) CompleteSynthesis(ctx context.Context, id, synthesisID string) error {
	return r.set(ctx, id, map[string]any{
		"status":       domain.ProjectCompleted,
		"synthesis_id": synthesisID,
	})
}

func (r *ProjectRepository) set(ctx context.Context, id string, values map[string]any) error {
	query, args, err := psql.Update("projects").
		SetMap(values).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update query: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("update project %s: %w", id, err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProject(row rowScanner) (domain.Project, error) {
	var project domain.Project
	err := row.Scan(
		&project.ID,
		&project.Name,
		&project.Description,
		&project.TeamID,
		&project.Status,
		&project.SynthesisID,
		&project.CreatedAt,
	)
	return project, err
}

package project

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/clickwonder/broll-reviewer/internal/timeline"
)

type Repository interface {
	CreateProject(ctx context.Context, p *Project) error
	GetProject(ctx context.Context, id string) (*Project, error)
	ListProjects(ctx context.Context) ([]*Project, error)
	UpdateProject(ctx context.Context, p *Project) error
	ReplaceScenes(ctx context.Context, projectID string, scenes []timeline.Scene) error
	DeleteProject(ctx context.Context, id string) error

	CreateAsset(ctx context.Context, a *Asset) error
	GetAsset(ctx context.Context, id string) (*Asset, error)
	ListAssetsByProject(ctx context.Context, projectID string) ([]*Asset, error)
	UpdateAssetReady(ctx context.Context, id, localPath string, width, height int, duration float64) error
	UpdateAssetStatus(ctx context.Context, id, status string) error
	DeleteAsset(ctx context.Context, id string) error
	ListAssetPaths(ctx context.Context) ([]string, error)

	CreateJob(ctx context.Context, j *Job) error
	GetJob(ctx context.Context, id string) (*Job, error)
	ListJobs(ctx context.Context, limit int) ([]*Job, error)
	ListJobsByProject(ctx context.Context, projectID string) ([]*Job, error)
	ListPendingJobs(ctx context.Context) ([]*Job, error)
	UpdateJobStatus(ctx context.Context, id, status, errorMsg string) error
	UpdateJobProgress(ctx context.Context, id string, progress int) error
	UpdateJobResult(ctx context.Context, id, result string) error
	PruneJobs(ctx context.Context, olderThan time.Duration) (int, error)

	GetConfig(ctx context.Context, key string) (string, error)
	SetConfig(ctx context.Context, key, value string) error
}

type SQLiteRepository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) CreateProject(ctx context.Context, p *Project) error {
	scenes, err := marshalScenes(p.Scenes)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO projects (id, name, narration_ref, status, scenes_json, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, p.ID, p.Name, p.NarrationRef, p.Status, scenes,
		p.CreatedAt.Format(time.RFC3339), p.UpdatedAt.Format(time.RFC3339))
	return err
}

func (r *SQLiteRepository) GetProject(ctx context.Context, id string) (*Project, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, name, narration_ref, status, scenes_json, created_at, updated_at
		FROM projects WHERE id = ?
	`, id)
	return r.scanProject(row)
}

func (r *SQLiteRepository) scanProject(row *sql.Row) (*Project, error) {
	var p Project
	var scenesJSON, createdAt, updatedAt string

	err := row.Scan(&p.ID, &p.Name, &p.NarrationRef, &p.Status, &scenesJSON, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	p.Scenes, err = unmarshalScenes(scenesJSON)
	if err != nil {
		return nil, fmt.Errorf("project %s: %w", p.ID, err)
	}
	p.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	p.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return &p, nil
}

func (r *SQLiteRepository) ListProjects(ctx context.Context) ([]*Project, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, narration_ref, status, scenes_json, created_at, updated_at
		FROM projects ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var projects []*Project
	for rows.Next() {
		var p Project
		var scenesJSON, createdAt, updatedAt string
		if err := rows.Scan(&p.ID, &p.Name, &p.NarrationRef, &p.Status, &scenesJSON, &createdAt, &updatedAt); err != nil {
			return nil, err
		}
		p.Scenes, err = unmarshalScenes(scenesJSON)
		if err != nil {
			return nil, fmt.Errorf("project %s: %w", p.ID, err)
		}
		p.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		p.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
		projects = append(projects, &p)
	}
	return projects, rows.Err()
}

func (r *SQLiteRepository) UpdateProject(ctx context.Context, p *Project) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE projects SET name = ?, narration_ref = ?, status = ?, updated_at = datetime('now')
		WHERE id = ?
	`, p.Name, p.NarrationRef, p.Status, p.ID)
	return err
}

// ReplaceScenes stores the full scene list in one write. Repeated identical
// writes are harmless, so retries need no dedup.
func (r *SQLiteRepository) ReplaceScenes(ctx context.Context, projectID string, scenes []timeline.Scene) error {
	payload, err := marshalScenes(scenes)
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, `
		UPDATE projects SET scenes_json = ?, updated_at = datetime('now') WHERE id = ?
	`, payload, projectID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("project %s: %w", projectID, ErrNotFound)
	}
	return nil
}

func (r *SQLiteRepository) DeleteProject(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM projects WHERE id = ?", id)
	return err
}

func (r *SQLiteRepository) CreateAsset(ctx context.Context, a *Asset) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO assets (id, project_id, kind, local_path, source_url, keyword, width, height, duration, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, a.ID, a.ProjectID, a.Kind, a.LocalPath, a.SourceURL, a.Keyword,
		a.Width, a.Height, a.Duration, a.Status, a.CreatedAt.Format(time.RFC3339))
	return err
}

func (r *SQLiteRepository) GetAsset(ctx context.Context, id string) (*Asset, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, project_id, kind, local_path, source_url, keyword, width, height, duration, status, created_at
		FROM assets WHERE id = ?
	`, id)

	var a Asset
	var createdAt string
	err := row.Scan(&a.ID, &a.ProjectID, &a.Kind, &a.LocalPath, &a.SourceURL, &a.Keyword,
		&a.Width, &a.Height, &a.Duration, &a.Status, &createdAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	a.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &a, nil
}

func (r *SQLiteRepository) ListAssetsByProject(ctx context.Context, projectID string) ([]*Asset, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, project_id, kind, local_path, source_url, keyword, width, height, duration, status, created_at
		FROM assets WHERE project_id = ? ORDER BY created_at DESC
	`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var assets []*Asset
	for rows.Next() {
		var a Asset
		var createdAt string
		if err := rows.Scan(&a.ID, &a.ProjectID, &a.Kind, &a.LocalPath, &a.SourceURL, &a.Keyword,
			&a.Width, &a.Height, &a.Duration, &a.Status, &createdAt); err != nil {
			return nil, err
		}
		a.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		assets = append(assets, &a)
	}
	return assets, rows.Err()
}

func (r *SQLiteRepository) UpdateAssetReady(ctx context.Context, id, localPath string, width, height int, duration float64) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE assets SET status = ?, local_path = ?, width = ?, height = ?, duration = ? WHERE id = ?
	`, AssetStatusReady, localPath, width, height, duration, id)
	return err
}

func (r *SQLiteRepository) UpdateAssetStatus(ctx context.Context, id, status string) error {
	_, err := r.db.ExecContext(ctx, "UPDATE assets SET status = ? WHERE id = ?", status, id)
	return err
}

func (r *SQLiteRepository) DeleteAsset(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM assets WHERE id = ?", id)
	return err
}

func (r *SQLiteRepository) ListAssetPaths(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT local_path FROM assets WHERE local_path != ''")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var paths []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		paths = append(paths, p)
	}
	return paths, rows.Err()
}

func (r *SQLiteRepository) CreateJob(ctx context.Context, j *Job) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO jobs (id, project_id, type, status, payload, progress, error, result, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, j.ID, j.ProjectID, j.Type, j.Status, j.Payload, j.Progress, j.Error, j.Result,
		j.CreatedAt.Format(time.RFC3339), j.UpdatedAt.Format(time.RFC3339))
	return err
}

func (r *SQLiteRepository) GetJob(ctx context.Context, id string) (*Job, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, project_id, type, status, payload, progress, error, result, created_at, updated_at
		FROM jobs WHERE id = ?
	`, id)
	return r.scanJob(row)
}

func (r *SQLiteRepository) scanJob(row *sql.Row) (*Job, error) {
	var j Job
	var createdAt, updatedAt string

	err := row.Scan(&j.ID, &j.ProjectID, &j.Type, &j.Status, &j.Payload, &j.Progress, &j.Error, &j.Result, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	j.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	j.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return &j, nil
}

func (r *SQLiteRepository) ListJobs(ctx context.Context, limit int) ([]*Job, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, project_id, type, status, payload, progress, error, result, created_at, updated_at
		FROM jobs ORDER BY created_at DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return r.scanJobs(rows)
}

func (r *SQLiteRepository) ListJobsByProject(ctx context.Context, projectID string) ([]*Job, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, project_id, type, status, payload, progress, error, result, created_at, updated_at
		FROM jobs WHERE project_id = ? ORDER BY created_at DESC
	`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return r.scanJobs(rows)
}

func (r *SQLiteRepository) ListPendingJobs(ctx context.Context) ([]*Job, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, project_id, type, status, payload, progress, error, result, created_at, updated_at
		FROM jobs WHERE status = 'pending' ORDER BY created_at ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return r.scanJobs(rows)
}

func (r *SQLiteRepository) scanJobs(rows *sql.Rows) ([]*Job, error) {
	var jobs []*Job
	for rows.Next() {
		var j Job
		var createdAt, updatedAt string
		if err := rows.Scan(&j.ID, &j.ProjectID, &j.Type, &j.Status, &j.Payload, &j.Progress, &j.Error, &j.Result, &createdAt, &updatedAt); err != nil {
			return nil, err
		}
		j.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		j.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
		jobs = append(jobs, &j)
	}
	return jobs, rows.Err()
}

func (r *SQLiteRepository) UpdateJobStatus(ctx context.Context, id, status, errorMsg string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE jobs SET status = ?, error = ?, updated_at = datetime('now') WHERE id = ?
	`, status, errorMsg, id)
	return err
}

func (r *SQLiteRepository) UpdateJobProgress(ctx context.Context, id string, progress int) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE jobs SET progress = ?, updated_at = datetime('now') WHERE id = ?
	`, progress, id)
	return err
}

func (r *SQLiteRepository) UpdateJobResult(ctx context.Context, id, result string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE jobs SET result = ?, updated_at = datetime('now') WHERE id = ?
	`, result, id)
	return err
}

// PruneJobs deletes finished jobs whose last update is older than the
// cutoff. Pending and running jobs are never touched.
func (r *SQLiteRepository) PruneJobs(ctx context.Context, olderThan time.Duration) (int, error) {
	cutoff := time.Now().UTC().Add(-olderThan).Format(time.RFC3339)
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM jobs
		WHERE status IN (?, ?) AND datetime(updated_at) < datetime(?)
	`, JobStatusCompleted, JobStatusFailed, cutoff)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}

func (r *SQLiteRepository) GetConfig(ctx context.Context, key string) (string, error) {
	var value string
	err := r.db.QueryRowContext(ctx, "SELECT value FROM config WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return value, err
}

func (r *SQLiteRepository) SetConfig(ctx context.Context, key, value string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO config (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	return err
}

func marshalScenes(scenes []timeline.Scene) (string, error) {
	if scenes == nil {
		scenes = []timeline.Scene{}
	}
	b, err := json.Marshal(scenes)
	if err != nil {
		return "", fmt.Errorf("marshal scenes: %w", err)
	}
	return string(b), nil
}

func unmarshalScenes(data string) ([]timeline.Scene, error) {
	if data == "" {
		return []timeline.Scene{}, nil
	}
	var scenes []timeline.Scene
	if err := json.Unmarshal([]byte(data), &scenes); err != nil {
		return nil, fmt.Errorf("unmarshal scenes: %w", err)
	}
	return scenes, nil
}

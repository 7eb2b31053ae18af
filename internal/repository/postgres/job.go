package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/HarryOhm33/We-Hack/internal/domain"
	apperrors "github.com/HarryOhm33/We-Hack/pkg/errors"
)

// JobRepository implements repository.JobRepository using PostgreSQL.
type JobRepository struct {
	db DB
}

// NewJobRepository creates a new PostgreSQL-backed job repository.
func NewJobRepository(db DB) *JobRepository {
	return &JobRepository{db: db}
}

// Create inserts a new job posting.
func (r *JobRepository) Create(ctx context.Context, j *domain.Job) error {
	query := `
		INSERT INTO jobs (id, recruiter_id, title, description, organization, location, skills, salary_range, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := r.db.Exec(ctx, query,
		j.ID,
		j.RecruiterID,
		j.Title,
		j.Description,
		j.Organization,
		j.Location,
		j.Skills,
		j.SalaryRange,
		j.CreatedAt,
		j.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert job: %w", err)
	}

	return nil
}

// GetByID retrieves a job by its ID.
func (r *JobRepository) GetByID(ctx context.Context, id string) (*domain.Job, error) {
	query := `
		SELECT id, recruiter_id, title, description, organization, location, skills, salary_range, created_at, updated_at
		FROM jobs
		WHERE id = $1`

	var j domain.Job
	err := r.db.QueryRow(ctx, query, id).Scan(
		&j.ID,
		&j.RecruiterID,
		&j.Title,
		&j.Description,
		&j.Organization,
		&j.Location,
		&j.Skills,
		&j.SalaryRange,
		&j.CreatedAt,
		&j.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("scan job: %w", err)
	}

	return &j, nil
}

// List returns a page of job postings, newest first, plus the total count.
func (r *JobRepository) List(ctx context.Context, limit, offset int) ([]domain.Job, int, error) {
	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM jobs`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count jobs: %w", err)
	}

	query := `
		SELECT id, recruiter_id, title, description, organization, location, skills, salary_range, created_at, updated_at
		FROM jobs
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2`

	rows, err := r.db.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	var jobs []domain.Job
	for rows.Next() {
		var j domain.Job
		if err := rows.Scan(
			&j.ID,
			&j.RecruiterID,
			&j.Title,
			&j.Description,
			&j.Organization,
			&j.Location,
			&j.Skills,
			&j.SalaryRange,
			&j.CreatedAt,
			&j.UpdatedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("scan job row: %w", err)
		}
		jobs = append(jobs, j)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate job rows: %w", err)
	}

	if jobs == nil {
		jobs = []domain.Job{}
	}

	return jobs, total, nil
}

// Update modifies an existing job posting.
func (r *JobRepository) Update(ctx context.Context, j *domain.Job) error {
	j.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE jobs
		SET title = $1, description = $2, organization = $3, location = $4, skills = $5, salary_range = $6, updated_at = $7
		WHERE id = $8`

	ct, err := r.db.Exec(ctx, query,
		j.Title,
		j.Description,
		j.Organization,
		j.Location,
		j.Skills,
		j.SalaryRange,
		j.UpdatedAt,
		j.ID,
	)
	if err != nil {
		return fmt.Errorf("update job: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("job", j.ID)
	}

	return nil
}

// Delete removes a job posting by its ID.
func (r *JobRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM jobs WHERE id = $1`

	ct, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete job: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("job", id)
	}

	return nil
}

// --- Application Repository ---

// ApplicationRepository implements repository.ApplicationRepository using PostgreSQL.
type ApplicationRepository struct {
	db DB
}

// NewApplicationRepository creates a new PostgreSQL-backed application repository.
func NewApplicationRepository(db DB) *ApplicationRepository {
	return &ApplicationRepository{db: db}
}

// Create inserts a new application.
func (r *ApplicationRepository) Create(ctx context.Context, a *domain.Application) error {
	query := `
		INSERT INTO applications (id, job_id, candidate_id, resume_url, cover_letter, score, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := r.db.Exec(ctx, query,
		a.ID,
		a.JobID,
		a.CandidateID,
		a.ResumeURL,
		a.CoverLetter,
		a.Score,
		a.Status,
		a.CreatedAt,
		a.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.Conflict("Already applied to this job")
		}
		return fmt.Errorf("insert application: %w", err)
	}

	return nil
}

// GetByID retrieves an application by its ID.
func (r *ApplicationRepository) GetByID(ctx context.Context, id string) (*domain.Application, error) {
	query := `
		SELECT id, job_id, candidate_id, resume_url, cover_letter, score, status, created_at, updated_at
		FROM applications
		WHERE id = $1`

	return r.scanApplication(ctx, query, id)
}

// GetByJobAndCandidate retrieves a candidate's application for a job.
func (r *ApplicationRepository) GetByJobAndCandidate(ctx context.Context, jobID, candidateID string) (*domain.Application, error) {
	query := `
		SELECT id, job_id, candidate_id, resume_url, cover_letter, score, status, created_at, updated_at
		FROM applications
		WHERE job_id = $1 AND candidate_id = $2`

	return r.scanApplication(ctx, query, jobID, candidateID)
}

// ListByJobID returns all applications for a job, best score first.
func (r *ApplicationRepository) ListByJobID(ctx context.Context, jobID string) ([]domain.Application, error) {
	query := `
		SELECT id, job_id, candidate_id, resume_url, cover_letter, score, status, created_at, updated_at
		FROM applications
		WHERE job_id = $1
		ORDER BY score DESC NULLS LAST, created_at ASC`

	return r.queryApplications(ctx, query, jobID)
}

// ListByCandidateID returns all applications submitted by a candidate.
func (r *ApplicationRepository) ListByCandidateID(ctx context.Context, candidateID string) ([]domain.Application, error) {
	query := `
		SELECT id, job_id, candidate_id, resume_url, cover_letter, score, status, created_at, updated_at
		FROM applications
		WHERE candidate_id = $1
		ORDER BY created_at DESC`

	return r.queryApplications(ctx, query, candidateID)
}

// UpdateStatus changes the status of an application.
func (r *ApplicationRepository) UpdateStatus(ctx context.Context, id, status string) error {
	query := `UPDATE applications SET status = $1, updated_at = $2 WHERE id = $3`

	ct, err := r.db.Exec(ctx, query, status, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("update application status: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("application", id)
	}

	return nil
}

func (r *ApplicationRepository) scanApplication(ctx context.Context, query string, args ...any) (*domain.Application, error) {
	var a domain.Application

	err := r.db.QueryRow(ctx, query, args...).Scan(
		&a.ID,
		&a.JobID,
		&a.CandidateID,
		&a.ResumeURL,
		&a.CoverLetter,
		&a.Score,
		&a.Status,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("scan application: %w", err)
	}

	return &a, nil
}

func (r *ApplicationRepository) queryApplications(ctx context.Context, query string, args ...any) ([]domain.Application, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list applications: %w", err)
	}
	defer rows.Close()

	var apps []domain.Application
	for rows.Next() {
		var a domain.Application
		if err := rows.Scan(
			&a.ID,
			&a.JobID,
			&a.CandidateID,
			&a.ResumeURL,
			&a.CoverLetter,
			&a.Score,
			&a.Status,
			&a.CreatedAt,
			&a.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan application row: %w", err)
		}
		apps = append(apps, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate application rows: %w", err)
	}

	if apps == nil {
		apps = []domain.Application{}
	}

	return apps, nil
}

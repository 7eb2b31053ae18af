package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/HarryOhm33/We-Hack/internal/domain"
	"github.com/HarryOhm33/We-Hack/internal/repository"
	"github.com/HarryOhm33/We-Hack/internal/scoring"
	apperrors "github.com/HarryOhm33/We-Hack/pkg/errors"
	"github.com/HarryOhm33/We-Hack/pkg/pagination"
)

// JobService implements job posting and application business logic.
type JobService struct {
	jobRepo repository.JobRepository
	appRepo repository.ApplicationRepository
	scorer  *scoring.Client
	logger  *slog.Logger
}

// NewJobService creates a new job service. scorer may be nil when the
// assessment service is not configured.
func NewJobService(
	jobRepo repository.JobRepository,
	appRepo repository.ApplicationRepository,
	scorer *scoring.Client,
	logger *slog.Logger,
) *JobService {
	return &JobService{
		jobRepo: jobRepo,
		appRepo: appRepo,
		scorer:  scorer,
		logger:  logger,
	}
}

// CreateJobInput holds the parameters for posting a job.
type CreateJobInput struct {
	Title       string
	Description string
	Location    string
	Skills      []string
	SalaryRange string
}

// UpdateJobInput holds the parameters for editing a job posting.
type UpdateJobInput struct {
	Title       *string
	Description *string
	Location    *string
	Skills      []string
	SalaryRange *string
}

// ApplyInput holds the parameters for applying to a job.
type ApplyInput struct {
	ResumeURL   string
	CoverLetter string
}

// CreateJob posts a new job owned by the recruiter.
func (s *JobService) CreateJob(ctx context.Context, recruiter *domain.User, input CreateJobInput) (*domain.Job, error) {
	if input.Title == "" {
		return nil, apperrors.InvalidInput("title is required")
	}
	if input.Description == "" {
		return nil, apperrors.InvalidInput("description is required")
	}

	now := time.Now().UTC()
	job := &domain.Job{
		ID:           uuid.New().String(),
		RecruiterID:  recruiter.ID,
		Title:        input.Title,
		Description:  input.Description,
		Organization: recruiter.Organization,
		Location:     input.Location,
		Skills:       input.Skills,
		SalaryRange:  input.SalaryRange,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.jobRepo.Create(ctx, job); err != nil {
		return nil, fmt.Errorf("create job: %w", err)
	}

	s.logger.InfoContext(ctx, "job posted",
		slog.String("job_id", job.ID),
		slog.String("recruiter_id", recruiter.ID),
	)

	return job, nil
}

// GetJob retrieves a job posting by ID.
func (s *JobService) GetJob(ctx context.Context, id string) (*domain.Job, error) {
	job, err := s.jobRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NotFound("job", id)
		}
		return nil, fmt.Errorf("get job: %w", err)
	}
	return job, nil
}

// ListJobs returns a page of job postings, newest first.
func (s *JobService) ListJobs(ctx context.Context, params pagination.Params) (pagination.Result[domain.Job], error) {
	jobs, total, err := s.jobRepo.List(ctx, params.PerPage, params.Offset)
	if err != nil {
		return pagination.Result[domain.Job]{}, fmt.Errorf("list jobs: %w", err)
	}
	return pagination.NewResult(jobs, total, params), nil
}

// UpdateJob edits a posting. Only its owning recruiter may do so.
func (s *JobService) UpdateJob(ctx context.Context, recruiter *domain.User, jobID string, input UpdateJobInput) (*domain.Job, error) {
	job, err := s.GetJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job.RecruiterID != recruiter.ID {
		return nil, apperrors.Forbidden("only the posting recruiter can edit this job")
	}

	if input.Title != nil {
		job.Title = *input.Title
	}
	if input.Description != nil {
		job.Description = *input.Description
	}
	if input.Location != nil {
		job.Location = *input.Location
	}
	if input.Skills != nil {
		job.Skills = input.Skills
	}
	if input.SalaryRange != nil {
		job.SalaryRange = *input.SalaryRange
	}

	if err := s.jobRepo.Update(ctx, job); err != nil {
		return nil, fmt.Errorf("update job: %w", err)
	}

	return job, nil
}

// DeleteJob removes a posting. Only its owning recruiter may do so.
func (s *JobService) DeleteJob(ctx context.Context, recruiter *domain.User, jobID string) error {
	job, err := s.GetJob(ctx, jobID)
	if err != nil {
		return err
	}
	if job.RecruiterID != recruiter.ID {
		return apperrors.Forbidden("only the posting recruiter can delete this job")
	}

	if err := s.jobRepo.Delete(ctx, jobID); err != nil {
		return fmt.Errorf("delete job: %w", err)
	}

	s.logger.InfoContext(ctx, "job deleted",
		slog.String("job_id", jobID),
		slog.String("recruiter_id", recruiter.ID),
	)

	return nil
}

// Apply submits a candidate's application and requests an assessment score.
// A candidate can apply to a job at most once.
func (s *JobService) Apply(ctx context.Context, candidate *domain.User, jobID string, input ApplyInput) (*domain.Application, error) {
	job, err := s.GetJob(ctx, jobID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	app := &domain.Application{
		ID:          uuid.New().String(),
		JobID:       job.ID,
		CandidateID: candidate.ID,
		ResumeURL:   input.ResumeURL,
		CoverLetter: input.CoverLetter,
		Status:      domain.ApplicationPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if s.scorer != nil {
		app.Score = s.scorer.Score(ctx, job, app)
	}

	if err := s.appRepo.Create(ctx, app); err != nil {
		return nil, fmt.Errorf("create application: %w", err)
	}

	s.logger.InfoContext(ctx, "application submitted",
		slog.String("job_id", job.ID),
		slog.String("candidate_id", candidate.ID),
	)

	return app, nil
}

// ListApplicationsForJob returns a job's applications for its recruiter,
// ranked best score first.
func (s *JobService) ListApplicationsForJob(ctx context.Context, recruiter *domain.User, jobID string) ([]domain.Application, error) {
	job, err := s.GetJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job.RecruiterID != recruiter.ID {
		return nil, apperrors.Forbidden("only the posting recruiter can view applications")
	}

	apps, err := s.appRepo.ListByJobID(ctx, jobID)
	if err != nil {
		return nil, fmt.Errorf("list applications: %w", err)
	}
	return apps, nil
}

// ListMyApplications returns the applications a candidate has submitted.
func (s *JobService) ListMyApplications(ctx context.Context, candidate *domain.User) ([]domain.Application, error) {
	apps, err := s.appRepo.ListByCandidateID(ctx, candidate.ID)
	if err != nil {
		return nil, fmt.Errorf("list applications: %w", err)
	}
	return apps, nil
}

// UpdateApplicationStatus moves an application between pending, accepted,
// and rejected. Only the recruiter owning the job may do so.
func (s *JobService) UpdateApplicationStatus(ctx context.Context, recruiter *domain.User, jobID, applicationID, status string) (*domain.Application, error) {
	switch status {
	case domain.ApplicationPending, domain.ApplicationAccepted, domain.ApplicationRejected:
	default:
		return nil, apperrors.InvalidInput("status must be pending, accepted, or rejected")
	}

	app, err := s.appRepo.GetByID(ctx, applicationID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NotFound("application", applicationID)
		}
		return nil, fmt.Errorf("get application: %w", err)
	}
	if app.JobID != jobID {
		return nil, apperrors.NotFound("application", applicationID)
	}

	job, err := s.GetJob(ctx, app.JobID)
	if err != nil {
		return nil, err
	}
	if job.RecruiterID != recruiter.ID {
		return nil, apperrors.Forbidden("only the posting recruiter can update applications")
	}

	if err := s.appRepo.UpdateStatus(ctx, applicationID, status); err != nil {
		return nil, fmt.Errorf("update application status: %w", err)
	}

	app.Status = status
	return app, nil
}

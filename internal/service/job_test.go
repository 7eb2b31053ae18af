package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/HarryOhm33/We-Hack/internal/domain"
	apperrors "github.com/HarryOhm33/We-Hack/pkg/errors"
	"github.com/HarryOhm33/We-Hack/pkg/pagination"
)

// --- Mock Job Repository ---

type mockJobRepository struct {
	mock.Mock
}

func (m *mockJobRepository) Create(ctx context.Context, job *domain.Job) error {
	args := m.Called(ctx, job)
	return args.Error(0)
}

func (m *mockJobRepository) GetByID(ctx context.Context, id string) (*domain.Job, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Job), args.Error(1)
}

func (m *mockJobRepository) List(ctx context.Context, limit, offset int) ([]domain.Job, int, error) {
	args := m.Called(ctx, limit, offset)
	return args.Get(0).([]domain.Job), args.Int(1), args.Error(2)
}

func (m *mockJobRepository) Update(ctx context.Context, job *domain.Job) error {
	args := m.Called(ctx, job)
	return args.Error(0)
}

func (m *mockJobRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// --- Mock Application Repository ---

type mockApplicationRepository struct {
	mock.Mock
}

func (m *mockApplicationRepository) Create(ctx context.Context, app *domain.Application) error {
	args := m.Called(ctx, app)
	return args.Error(0)
}

func (m *mockApplicationRepository) GetByID(ctx context.Context, id string) (*domain.Application, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Application), args.Error(1)
}

func (m *mockApplicationRepository) GetByJobAndCandidate(ctx context.Context, jobID, candidateID string) (*domain.Application, error) {
	args := m.Called(ctx, jobID, candidateID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Application), args.Error(1)
}

func (m *mockApplicationRepository) ListByJobID(ctx context.Context, jobID string) ([]domain.Application, error) {
	args := m.Called(ctx, jobID)
	return args.Get(0).([]domain.Application), args.Error(1)
}

func (m *mockApplicationRepository) ListByCandidateID(ctx context.Context, candidateID string) ([]domain.Application, error) {
	args := m.Called(ctx, candidateID)
	return args.Get(0).([]domain.Application), args.Error(1)
}

func (m *mockApplicationRepository) UpdateStatus(ctx context.Context, id, status string) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

// --- Helpers ---

func newTestJobService(jobRepo *mockJobRepository, appRepo *mockApplicationRepository) *JobService {
	return NewJobService(jobRepo, appRepo, nil, newTestLogger())
}

func testRecruiter() *domain.User {
	return &domain.User{
		ID:           "r1",
		Name:         "Rita",
		Email:        "rita@corp.example",
		Role:         domain.RoleRecruiter,
		Organization: "Corp",
		IsVerified:   true,
	}
}

func testCandidate() *domain.User {
	return &domain.User{
		ID:         "c1",
		Name:       "Carl",
		Email:      "carl@example.com",
		Role:       domain.RoleCandidate,
		IsVerified: true,
	}
}

// --- Tests ---

func TestCreateJob_Success(t *testing.T) {
	jobRepo := new(mockJobRepository)
	svc := newTestJobService(jobRepo, new(mockApplicationRepository))
	ctx := context.Background()

	jobRepo.On("Create", ctx, mock.AnythingOfType("*domain.Job")).Return(nil)

	job, err := svc.CreateJob(ctx, testRecruiter(), CreateJobInput{
		Title:       "Backend Engineer",
		Description: "Build APIs",
		Skills:      []string{"go", "postgres"},
	})

	require.NoError(t, err)
	assert.NotEmpty(t, job.ID)
	assert.Equal(t, "r1", job.RecruiterID)
	assert.Equal(t, "Corp", job.Organization, "organization comes from the recruiter profile")
	jobRepo.AssertExpectations(t)
}

func TestCreateJob_MissingTitle(t *testing.T) {
	svc := newTestJobService(new(mockJobRepository), new(mockApplicationRepository))

	_, err := svc.CreateJob(context.Background(), testRecruiter(), CreateJobInput{
		Description: "Build APIs",
	})

	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestUpdateJob_NotOwner(t *testing.T) {
	jobRepo := new(mockJobRepository)
	svc := newTestJobService(jobRepo, new(mockApplicationRepository))
	ctx := context.Background()

	jobRepo.On("GetByID", ctx, "j1").Return(&domain.Job{
		ID:          "j1",
		RecruiterID: "someone-else",
	}, nil)

	title := "New Title"
	_, err := svc.UpdateJob(ctx, testRecruiter(), "j1", UpdateJobInput{Title: &title})

	assert.ErrorIs(t, err, apperrors.ErrForbidden)
	jobRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestDeleteJob_NotFound(t *testing.T) {
	jobRepo := new(mockJobRepository)
	svc := newTestJobService(jobRepo, new(mockApplicationRepository))
	ctx := context.Background()

	jobRepo.On("GetByID", ctx, "missing").Return(nil, apperrors.ErrNotFound)

	err := svc.DeleteJob(ctx, testRecruiter(), "missing")

	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestListJobs_Paginates(t *testing.T) {
	jobRepo := new(mockJobRepository)
	svc := newTestJobService(jobRepo, new(mockApplicationRepository))
	ctx := context.Background()

	jobRepo.On("List", ctx, 20, 20).Return([]domain.Job{{ID: "j1"}}, 41, nil)

	params := pagination.Params{Page: 2, PerPage: 20, Offset: 20}
	result, err := svc.ListJobs(ctx, params)

	require.NoError(t, err)
	assert.Equal(t, 41, result.TotalCount)
	assert.Equal(t, 3, result.TotalPages)
	assert.True(t, result.HasNext)
	assert.True(t, result.HasPrev)
}

func TestApply_Success(t *testing.T) {
	jobRepo := new(mockJobRepository)
	appRepo := new(mockApplicationRepository)
	svc := newTestJobService(jobRepo, appRepo)
	ctx := context.Background()

	jobRepo.On("GetByID", ctx, "j1").Return(&domain.Job{
		ID:          "j1",
		RecruiterID: "r1",
		Title:       "Backend Engineer",
	}, nil)
	appRepo.On("Create", ctx, mock.AnythingOfType("*domain.Application")).Return(nil)

	app, err := svc.Apply(ctx, testCandidate(), "j1", ApplyInput{ResumeURL: "https://cv.example/carl.pdf"})

	require.NoError(t, err)
	assert.Equal(t, "j1", app.JobID)
	assert.Equal(t, "c1", app.CandidateID)
	assert.Equal(t, domain.ApplicationPending, app.Status)
	assert.Nil(t, app.Score, "no scorer configured")
	assert.WithinDuration(t, time.Now(), app.CreatedAt, time.Minute)
}

func TestApply_DuplicateApplication(t *testing.T) {
	jobRepo := new(mockJobRepository)
	appRepo := new(mockApplicationRepository)
	svc := newTestJobService(jobRepo, appRepo)
	ctx := context.Background()

	jobRepo.On("GetByID", ctx, "j1").Return(&domain.Job{ID: "j1", RecruiterID: "r1"}, nil)
	appRepo.On("Create", ctx, mock.AnythingOfType("*domain.Application")).
		Return(apperrors.Conflict("Already applied to this job"))

	_, err := svc.Apply(ctx, testCandidate(), "j1", ApplyInput{})

	assert.ErrorIs(t, err, apperrors.ErrConflict)
}

func TestListApplicationsForJob_OwnerOnly(t *testing.T) {
	jobRepo := new(mockJobRepository)
	appRepo := new(mockApplicationRepository)
	svc := newTestJobService(jobRepo, appRepo)
	ctx := context.Background()

	jobRepo.On("GetByID", ctx, "j1").Return(&domain.Job{ID: "j1", RecruiterID: "other"}, nil)

	_, err := svc.ListApplicationsForJob(ctx, testRecruiter(), "j1")

	assert.ErrorIs(t, err, apperrors.ErrForbidden)
	appRepo.AssertNotCalled(t, "ListByJobID", mock.Anything, mock.Anything)
}

func TestUpdateApplicationStatus_InvalidStatus(t *testing.T) {
	svc := newTestJobService(new(mockJobRepository), new(mockApplicationRepository))

	_, err := svc.UpdateApplicationStatus(context.Background(), testRecruiter(), "j1", "a1", "hired")

	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestUpdateApplicationStatus_Success(t *testing.T) {
	jobRepo := new(mockJobRepository)
	appRepo := new(mockApplicationRepository)
	svc := newTestJobService(jobRepo, appRepo)
	ctx := context.Background()

	appRepo.On("GetByID", ctx, "a1").Return(&domain.Application{
		ID:     "a1",
		JobID:  "j1",
		Status: domain.ApplicationPending,
	}, nil)
	jobRepo.On("GetByID", ctx, "j1").Return(&domain.Job{ID: "j1", RecruiterID: "r1"}, nil)
	appRepo.On("UpdateStatus", ctx, "a1", domain.ApplicationAccepted).Return(nil)

	app, err := svc.UpdateApplicationStatus(ctx, testRecruiter(), "j1", "a1", domain.ApplicationAccepted)

	require.NoError(t, err)
	assert.Equal(t, domain.ApplicationAccepted, app.Status)
	appRepo.AssertExpectations(t)
}

func TestUpdateApplicationStatus_WrongJob(t *testing.T) {
	jobRepo := new(mockJobRepository)
	appRepo := new(mockApplicationRepository)
	svc := newTestJobService(jobRepo, appRepo)
	ctx := context.Background()

	appRepo.On("GetByID", ctx, "a1").Return(&domain.Application{
		ID:     "a1",
		JobID:  "j1",
		Status: domain.ApplicationPending,
	}, nil)

	_, err := svc.UpdateApplicationStatus(ctx, testRecruiter(), "j2", "a1", domain.ApplicationAccepted)

	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	appRepo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
}

package repository

import (
	"context"
	"time"

	"github.com/HarryOhm33/We-Hack/internal/domain"
)

// UserRepository defines the interface for user persistence operations.
type UserRepository interface {
	// Create inserts a new user into the store.
	Create(ctx context.Context, user *domain.User) error

	// GetByID retrieves a user by their unique identifier.
	GetByID(ctx context.Context, id string) (*domain.User, error)

	// GetByEmail retrieves a user by their email address.
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
}

// SessionRepository defines the interface for session persistence operations.
type SessionRepository interface {
	// Create stores a new session for the given token hash.
	Create(ctx context.Context, userID, tokenHash string, expiresAt time.Time) error

	// GetByHash retrieves a session by its token hash.
	GetByHash(ctx context.Context, tokenHash string) (*domain.Session, error)

	// DeleteByUserID removes all sessions for the given user.
	DeleteByUserID(ctx context.Context, userID string) error

	// DeleteExpired removes sessions past their expiry and reports how many
	// were deleted.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// PendingSignupStore defines the interface for signups awaiting verification.
// At most one pending signup exists per email.
type PendingSignupStore interface {
	// Put stores a pending signup, replacing any previous one for the same
	// email and resetting its expiry window.
	Put(ctx context.Context, signup *domain.PendingSignup) error

	// Get retrieves the pending signup for an email. Expired entries are
	// reported as not found.
	Get(ctx context.Context, email string) (*domain.PendingSignup, error)

	// UpdateOTP replaces the verification code of an existing pending signup
	// without extending its expiry window.
	UpdateOTP(ctx context.Context, email, otp string) error

	// Delete removes the pending signup for an email.
	Delete(ctx context.Context, email string) error
}

// JobRepository defines the interface for job posting persistence.
type JobRepository interface {
	// Create inserts a new job posting.
	Create(ctx context.Context, job *domain.Job) error

	// GetByID retrieves a job by its identifier.
	GetByID(ctx context.Context, id string) (*domain.Job, error)

	// List returns a page of job postings, newest first, plus the total count.
	List(ctx context.Context, limit, offset int) ([]domain.Job, int, error)

	// Update modifies an existing job posting.
	Update(ctx context.Context, job *domain.Job) error

	// Delete removes a job posting by its identifier.
	Delete(ctx context.Context, id string) error
}

// ApplicationRepository defines the interface for job application persistence.
type ApplicationRepository interface {
	// Create inserts a new application.
	Create(ctx context.Context, app *domain.Application) error

	// GetByID retrieves an application by its identifier.
	GetByID(ctx context.Context, id string) (*domain.Application, error)

	// GetByJobAndCandidate retrieves a candidate's application for a job.
	GetByJobAndCandidate(ctx context.Context, jobID, candidateID string) (*domain.Application, error)

	// ListByJobID returns all applications for a job, best score first.
	ListByJobID(ctx context.Context, jobID string) ([]domain.Application, error)

	// ListByCandidateID returns all applications submitted by a candidate.
	ListByCandidateID(ctx context.Context, candidateID string) ([]domain.Application, error)

	// UpdateStatus changes the status of an application.
	UpdateStatus(ctx context.Context, id, status string) error
}

package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/HarryOhm33/We-Hack/internal/domain"
	apperrors "github.com/HarryOhm33/We-Hack/pkg/errors"
)

const pendingKeyPrefix = "signup:pending:"

// pendingRecord is the Redis serialization of a pending signup. The domain
// type hides the password hash and code from JSON, so the store carries its
// own representation.
type pendingRecord struct {
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"password_hash"`
	Role         string    `json:"role"`
	Organization string    `json:"organization,omitempty"`
	OTP          string    `json:"otp"`
	ExpiresAt    time.Time `json:"expires_at"`
	CreatedAt    time.Time `json:"created_at"`
}

// PendingSignupStore implements repository.PendingSignupStore on Redis. Keys
// carry a TTL matching the verification window, so abandoned signups clean
// themselves up.
type PendingSignupStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewPendingSignupStore creates a Redis-backed pending signup store. The TTL
// is the verification window applied to new entries.
func NewPendingSignupStore(client *redis.Client, ttl time.Duration) *PendingSignupStore {
	return &PendingSignupStore{client: client, ttl: ttl}
}

// pendingKey builds the Redis key for an email. The email is used exactly as
// submitted, matching the case-sensitive unique index on the users table.
func pendingKey(email string) string {
	return pendingKeyPrefix + email
}

// Put stores a pending signup, replacing any previous one for the same email
// and resetting its expiry window.
func (s *PendingSignupStore) Put(ctx context.Context, signup *domain.PendingSignup) error {
	rec := pendingRecord{
		Name:         signup.Name,
		Email:        signup.Email,
		PasswordHash: signup.PasswordHash,
		Role:         signup.Role,
		Organization: signup.Organization,
		OTP:          signup.OTP,
		ExpiresAt:    signup.ExpiresAt,
		CreatedAt:    signup.CreatedAt,
	}

	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal pending signup: %w", err)
	}

	if err := s.client.Set(ctx, pendingKey(signup.Email), payload, s.ttl).Err(); err != nil {
		return fmt.Errorf("store pending signup: %w", err)
	}

	return nil
}

// Get retrieves the pending signup for an email. Entries past their recorded
// expiry are treated as missing even if the key still exists.
func (s *PendingSignupStore) Get(ctx context.Context, email string) (*domain.PendingSignup, error) {
	payload, err := s.client.Get(ctx, pendingKey(email)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("fetch pending signup: %w", err)
	}

	var rec pendingRecord
	if err := json.Unmarshal(payload, &rec); err != nil {
		return nil, fmt.Errorf("unmarshal pending signup: %w", err)
	}

	signup := &domain.PendingSignup{
		Name:         rec.Name,
		Email:        rec.Email,
		PasswordHash: rec.PasswordHash,
		Role:         rec.Role,
		Organization: rec.Organization,
		OTP:          rec.OTP,
		ExpiresAt:    rec.ExpiresAt,
		CreatedAt:    rec.CreatedAt,
	}

	if signup.Expired(time.Now().UTC()) {
		_ = s.client.Del(ctx, pendingKey(email)).Err()
		return nil, apperrors.ErrNotFound
	}

	return signup, nil
}

// UpdateOTP replaces the verification code of an existing pending signup.
// The key keeps its remaining TTL, so resending never extends the window.
func (s *PendingSignupStore) UpdateOTP(ctx context.Context, email, otp string) error {
	signup, err := s.Get(ctx, email)
	if err != nil {
		return err
	}

	rec := pendingRecord{
		Name:         signup.Name,
		Email:        signup.Email,
		PasswordHash: signup.PasswordHash,
		Role:         signup.Role,
		Organization: signup.Organization,
		OTP:          otp,
		ExpiresAt:    signup.ExpiresAt,
		CreatedAt:    signup.CreatedAt,
	}

	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal pending signup: %w", err)
	}

	if err := s.client.Set(ctx, pendingKey(email), payload, redis.KeepTTL).Err(); err != nil {
		return fmt.Errorf("update pending signup: %w", err)
	}

	return nil
}

// Delete removes the pending signup for an email.
func (s *PendingSignupStore) Delete(ctx context.Context, email string) error {
	if err := s.client.Del(ctx, pendingKey(email)).Err(); err != nil {
		return fmt.Errorf("delete pending signup: %w", err)
	}
	return nil
}

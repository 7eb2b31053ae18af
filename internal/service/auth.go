package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/HarryOhm33/We-Hack/internal/auth"
	"github.com/HarryOhm33/We-Hack/internal/domain"
	"github.com/HarryOhm33/We-Hack/internal/repository"
	apperrors "github.com/HarryOhm33/We-Hack/pkg/errors"
)

// bcryptCost is the cost factor for bcrypt password hashing.
const bcryptCost = 10

// minPasswordLength is the minimum password length required.
const minPasswordLength = 6

// otpDigits is the length of the email verification code.
const otpDigits = 6

// Notifier publishes signup notification events. Delivery of the
// verification code rides on these events.
type Notifier interface {
	PublishOTPRequested(ctx context.Context, signup *domain.PendingSignup) error
	PublishUserRegistered(ctx context.Context, user *domain.User) error
}

// AuthService implements signup verification and session-backed login.
type AuthService struct {
	userRepo    repository.UserRepository
	sessionRepo repository.SessionRepository
	pending     repository.PendingSignupStore
	jwtManager  *auth.JWTManager
	notifier    Notifier
	otpTTL      time.Duration
	logger      *slog.Logger
}

// NewAuthService creates a new auth service. otpTTL is the verification
// window granted to a fresh signup.
func NewAuthService(
	userRepo repository.UserRepository,
	sessionRepo repository.SessionRepository,
	pending repository.PendingSignupStore,
	jwtManager *auth.JWTManager,
	notifier Notifier,
	otpTTL time.Duration,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		userRepo:    userRepo,
		sessionRepo: sessionRepo,
		pending:     pending,
		jwtManager:  jwtManager,
		notifier:    notifier,
		otpTTL:      otpTTL,
		logger:      logger,
	}
}

// --- Input types ---

// SignupInput holds the parameters for starting a registration.
type SignupInput struct {
	Name         string
	Email        string
	Password     string
	Role         string
	Organization string
}

// LoginInput holds the parameters for user login.
type LoginInput struct {
	Email    string
	Password string
}

// --- Operations ---

// Signup validates the request, stages the registration, and emits the
// verification code. No user account exists until the code is confirmed.
// Re-signing up for the same email replaces the staged registration and its
// code.
func (s *AuthService) Signup(ctx context.Context, input SignupInput) error {
	if input.Name == "" {
		return apperrors.InvalidInput("name is required")
	}
	if input.Email == "" {
		return apperrors.InvalidInput("email is required")
	}
	if err := validatePassword(input.Password); err != nil {
		return err
	}

	role := input.Role
	if role == "" {
		role = domain.RoleCandidate
	}
	if !domain.IsValidRole(role) {
		return apperrors.InvalidInput("role must be candidate or recruiter")
	}
	if role == domain.RoleRecruiter && input.Organization == "" {
		return apperrors.InvalidInput("organization is required for recruiters")
	}

	// Reject emails that already have an account before staging anything.
	if _, err := s.userRepo.GetByEmail(ctx, input.Email); err == nil {
		return apperrors.Conflict("Email already exists")
	} else if !errors.Is(err, apperrors.ErrNotFound) {
		return fmt.Errorf("check existing user: %w", err)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcryptCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	otp, err := generateOTP()
	if err != nil {
		return fmt.Errorf("generate verification code: %w", err)
	}

	now := time.Now().UTC()
	signup := &domain.PendingSignup{
		Name:         input.Name,
		Email:        input.Email,
		PasswordHash: string(hashedPassword),
		Role:         role,
		Organization: input.Organization,
		OTP:          otp,
		ExpiresAt:    now.Add(s.otpTTL),
		CreatedAt:    now,
	}

	// Emit the code before staging: if delivery cannot even be enqueued,
	// the user would be stuck with a code they never receive.
	if err := s.notifier.PublishOTPRequested(ctx, signup); err != nil {
		return apperrors.Wrap(err, "send verification code")
	}

	if err := s.pending.Put(ctx, signup); err != nil {
		return fmt.Errorf("stage signup: %w", err)
	}

	s.logger.InfoContext(ctx, "signup staged",
		slog.String("email", input.Email),
		slog.String("role", role),
	)

	return nil
}

// VerifyOTP confirms a staged registration and creates the account. A wrong
// code, an expired staging, and an unknown email all fail with the same
// error so callers cannot probe which emails have signups in flight.
func (s *AuthService) VerifyOTP(ctx context.Context, email, otp string) (*domain.User, error) {
	if email == "" || otp == "" {
		return nil, apperrors.InvalidInput("email and otp are required")
	}

	signup, err := s.pending.Get(ctx, email)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.InvalidCredentials("Invalid OTP or expired")
		}
		return nil, fmt.Errorf("fetch staged signup: %w", err)
	}

	if subtle.ConstantTimeCompare([]byte(signup.OTP), []byte(otp)) != 1 {
		return nil, apperrors.InvalidCredentials("Invalid OTP or expired")
	}

	now := time.Now().UTC()
	user := &domain.User{
		ID:           uuid.New().String(),
		Name:         signup.Name,
		Email:        signup.Email,
		PasswordHash: signup.PasswordHash,
		Role:         signup.Role,
		Organization: signup.Organization,
		IsVerified:   true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		// The account already exists, typically a re-verify after a crash
		// between user creation and staging cleanup. The staging is stale,
		// so remove it and hand back the existing account.
		if errors.Is(err, apperrors.ErrConflict) {
			_ = s.pending.Delete(ctx, email)
			existing, getErr := s.userRepo.GetByEmail(ctx, email)
			if getErr != nil {
				return nil, fmt.Errorf("load existing user: %w", getErr)
			}
			return existing, nil
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	if err := s.pending.Delete(ctx, email); err != nil {
		s.logger.WarnContext(ctx, "failed to clear staged signup",
			slog.String("email", email),
			slog.String("error", err.Error()),
		)
	}

	if err := s.notifier.PublishUserRegistered(ctx, user); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish user_registered event",
			slog.String("user_id", user.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "user registered",
		slog.String("user_id", user.ID),
		slog.String("email", user.Email),
	)

	return user, nil
}

// ResendOTP issues a fresh code for an existing staged registration. The
// verification window is not extended, so the new code inherits whatever
// time the original signup had left.
func (s *AuthService) ResendOTP(ctx context.Context, email string) error {
	if email == "" {
		return apperrors.InvalidInput("email is required")
	}

	signup, err := s.pending.Get(ctx, email)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return apperrors.InvalidCredentials("No pending verification found.")
		}
		return fmt.Errorf("fetch staged signup: %w", err)
	}

	otp, err := generateOTP()
	if err != nil {
		return fmt.Errorf("generate verification code: %w", err)
	}
	signup.OTP = otp

	if err := s.notifier.PublishOTPRequested(ctx, signup); err != nil {
		return apperrors.Wrap(err, "send verification code")
	}

	if err := s.pending.UpdateOTP(ctx, email, otp); err != nil {
		return fmt.Errorf("update verification code: %w", err)
	}

	s.logger.InfoContext(ctx, "verification code resent",
		slog.String("email", email),
	)

	return nil
}

// Login authenticates a user and opens a session, returning the user and
// the signed token.
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*domain.User, string, error) {
	if input.Email == "" {
		return nil, "", apperrors.InvalidInput("email is required")
	}
	if input.Password == "" {
		return nil, "", apperrors.InvalidInput("password is required")
	}

	user, err := s.userRepo.GetByEmail(ctx, input.Email)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, "", apperrors.InvalidCredentials("User not found, SignUp First!!")
		}
		return nil, "", fmt.Errorf("get user: %w", err)
	}

	if !user.IsVerified {
		return nil, "", apperrors.Forbidden("Please verify your email before logging in")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		return nil, "", apperrors.InvalidCredentials("Incorrect password")
	}

	token, err := s.jwtManager.GenerateToken(user.ID)
	if err != nil {
		return nil, "", fmt.Errorf("generate token: %w", err)
	}

	expiresAt := time.Now().UTC().Add(s.jwtManager.Expiry())
	if err := s.sessionRepo.Create(ctx, user.ID, hashToken(token), expiresAt); err != nil {
		return nil, "", fmt.Errorf("create session: %w", err)
	}

	s.logger.InfoContext(ctx, "user logged in",
		slog.String("user_id", user.ID),
		slog.String("email", user.Email),
	)

	return user, token, nil
}

// Authenticate resolves a token to its user. The token must verify and its
// session row must still exist, so logout immediately invalidates tokens
// that are otherwise well-formed.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*domain.User, error) {
	if token == "" {
		return nil, apperrors.Unauthorized("authentication required")
	}

	claims, err := s.jwtManager.ValidateToken(token)
	if err != nil {
		return nil, apperrors.Unauthorized("invalid or expired token")
	}

	session, err := s.sessionRepo.GetByHash(ctx, hashToken(token))
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.Unauthorized("Session expired, please log in again")
		}
		return nil, fmt.Errorf("get session: %w", err)
	}

	if session.UserID != claims.UserID {
		return nil, apperrors.Unauthorized("Session expired, please log in again")
	}

	user, err := s.userRepo.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.Unauthorized("Session expired, please log in again")
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	return user, nil
}

// Logout ends every session the user has, not just the one presented.
func (s *AuthService) Logout(ctx context.Context, userID string) error {
	if err := s.sessionRepo.DeleteByUserID(ctx, userID); err != nil {
		return fmt.Errorf("delete sessions: %w", err)
	}

	s.logger.InfoContext(ctx, "user logged out",
		slog.String("user_id", userID),
	)

	return nil
}

// SweepExpiredSessions removes session rows past their expiry. It is run
// periodically by the app.
func (s *AuthService) SweepExpiredSessions(ctx context.Context) error {
	deleted, err := s.sessionRepo.DeleteExpired(ctx, time.Now().UTC())
	if err != nil {
		return err
	}
	if deleted > 0 {
		s.logger.InfoContext(ctx, "expired sessions removed",
			slog.Int64("count", deleted),
		)
	}
	return nil
}

// --- Helpers ---

func validatePassword(password string) error {
	if len(password) < minPasswordLength {
		return apperrors.InvalidInput(fmt.Sprintf("password must be at least %d characters", minPasswordLength))
	}
	return nil
}

// generateOTP returns a random zero-padded numeric code.
func generateOTP() (string, error) {
	max := big.NewInt(1)
	for i := 0; i < otpDigits; i++ {
		max.Mul(max, big.NewInt(10))
	}
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", otpDigits, n), nil
}

// hashToken returns the hex-encoded SHA-256 of a token. Only hashes are
// stored, so a leaked sessions table cannot be replayed.
func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

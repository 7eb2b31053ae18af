package service

import (
	"context"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/HarryOhm33/We-Hack/internal/auth"
	"github.com/HarryOhm33/We-Hack/internal/domain"
	apperrors "github.com/HarryOhm33/We-Hack/pkg/errors"
)

// --- Mock User Repository ---

type mockUserRepository struct {
	mock.Mock
}

func (m *mockUserRepository) Create(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *mockUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

// --- Mock Session Repository ---

type mockSessionRepository struct {
	mock.Mock
}

func (m *mockSessionRepository) Create(ctx context.Context, userID, tokenHash string, expiresAt time.Time) error {
	args := m.Called(ctx, userID, tokenHash, expiresAt)
	return args.Error(0)
}

func (m *mockSessionRepository) GetByHash(ctx context.Context, tokenHash string) (*domain.Session, error) {
	args := m.Called(ctx, tokenHash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Session), args.Error(1)
}

func (m *mockSessionRepository) DeleteByUserID(ctx context.Context, userID string) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *mockSessionRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	args := m.Called(ctx, now)
	return args.Get(0).(int64), args.Error(1)
}

// --- Mock Pending Signup Store ---

type mockPendingStore struct {
	mock.Mock
}

func (m *mockPendingStore) Put(ctx context.Context, signup *domain.PendingSignup) error {
	args := m.Called(ctx, signup)
	return args.Error(0)
}

func (m *mockPendingStore) Get(ctx context.Context, email string) (*domain.PendingSignup, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PendingSignup), args.Error(1)
}

func (m *mockPendingStore) UpdateOTP(ctx context.Context, email, otp string) error {
	args := m.Called(ctx, email, otp)
	return args.Error(0)
}

func (m *mockPendingStore) Delete(ctx context.Context, email string) error {
	args := m.Called(ctx, email)
	return args.Error(0)
}

// --- Mock Notifier ---

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) PublishOTPRequested(ctx context.Context, signup *domain.PendingSignup) error {
	args := m.Called(ctx, signup)
	return args.Error(0)
}

func (m *mockNotifier) PublishUserRegistered(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

// --- Test Helpers ---

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestJWTManager() *auth.JWTManager {
	return auth.NewJWTManager("test-secret-key-for-testing", 7*24*time.Hour)
}

func newTestService(
	userRepo *mockUserRepository,
	sessionRepo *mockSessionRepository,
	pending *mockPendingStore,
	notifier *mockNotifier,
) *AuthService {
	return NewAuthService(userRepo, sessionRepo, pending, newTestJWTManager(), notifier, 10*time.Minute, newTestLogger())
}

// hashForTest creates a bcrypt hash with cost 4 for fast tests.
func hashForTest(password string) string {
	h, err := bcrypt.GenerateFromPassword([]byte(password), 4)
	if err != nil {
		panic(err)
	}
	return string(h)
}

// --- Signup Tests ---

func TestSignup_Success(t *testing.T) {
	userRepo := new(mockUserRepository)
	sessionRepo := new(mockSessionRepository)
	pending := new(mockPendingStore)
	notifier := new(mockNotifier)
	svc := newTestService(userRepo, sessionRepo, pending, notifier)
	ctx := context.Background()

	userRepo.On("GetByEmail", ctx, "alice@example.com").Return(nil, apperrors.ErrNotFound)

	var staged *domain.PendingSignup
	notifier.On("PublishOTPRequested", ctx, mock.AnythingOfType("*domain.PendingSignup")).
		Run(func(args mock.Arguments) {
			staged = args.Get(1).(*domain.PendingSignup)
		}).Return(nil)
	pending.On("Put", ctx, mock.AnythingOfType("*domain.PendingSignup")).Return(nil)

	err := svc.Signup(ctx, SignupInput{
		Name:     "Alice",
		Email:    "alice@example.com",
		Password: "hunter22",
	})

	require.NoError(t, err)
	require.NotNil(t, staged)
	assert.Equal(t, "alice@example.com", staged.Email)
	assert.Equal(t, domain.RoleCandidate, staged.Role)
	assert.Len(t, staged.OTP, 6)
	for _, c := range staged.OTP {
		assert.True(t, c >= '0' && c <= '9', "code must be numeric")
	}
	assert.WithinDuration(t, time.Now().Add(10*time.Minute), staged.ExpiresAt, 5*time.Second)

	// Plaintext password must never be staged.
	assert.NotEqual(t, "hunter22", staged.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(staged.PasswordHash), []byte("hunter22")))

	userRepo.AssertExpectations(t)
	pending.AssertExpectations(t)
	notifier.AssertExpectations(t)
}

func TestSignup_DuplicateEmail(t *testing.T) {
	userRepo := new(mockUserRepository)
	sessionRepo := new(mockSessionRepository)
	pending := new(mockPendingStore)
	notifier := new(mockNotifier)
	svc := newTestService(userRepo, sessionRepo, pending, notifier)
	ctx := context.Background()

	userRepo.On("GetByEmail", ctx, "alice@example.com").Return(&domain.User{
		ID:    "u1",
		Email: "alice@example.com",
	}, nil)

	err := svc.Signup(ctx, SignupInput{
		Name:     "Alice",
		Email:    "alice@example.com",
		Password: "hunter22",
	})

	assert.ErrorIs(t, err, apperrors.ErrConflict)
	pending.AssertNotCalled(t, "Put", mock.Anything, mock.Anything)
	notifier.AssertNotCalled(t, "PublishOTPRequested", mock.Anything, mock.Anything)
}

func TestSignup_RecruiterRequiresOrganization(t *testing.T) {
	svc := newTestService(new(mockUserRepository), new(mockSessionRepository), new(mockPendingStore), new(mockNotifier))

	err := svc.Signup(context.Background(), SignupInput{
		Name:     "Rita",
		Email:    "rita@corp.example",
		Password: "hunter22",
		Role:     domain.RoleRecruiter,
	})

	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestSignup_InvalidRole(t *testing.T) {
	svc := newTestService(new(mockUserRepository), new(mockSessionRepository), new(mockPendingStore), new(mockNotifier))

	err := svc.Signup(context.Background(), SignupInput{
		Name:     "Mallory",
		Email:    "mallory@example.com",
		Password: "hunter22",
		Role:     "admin",
	})

	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestSignup_NotStagedWhenDeliveryFails(t *testing.T) {
	userRepo := new(mockUserRepository)
	pending := new(mockPendingStore)
	notifier := new(mockNotifier)
	svc := newTestService(userRepo, new(mockSessionRepository), pending, notifier)
	ctx := context.Background()

	userRepo.On("GetByEmail", ctx, "bob@example.com").Return(nil, apperrors.ErrNotFound)
	notifier.On("PublishOTPRequested", ctx, mock.AnythingOfType("*domain.PendingSignup")).
		Return(assert.AnError)

	err := svc.Signup(ctx, SignupInput{
		Name:     "Bob",
		Email:    "bob@example.com",
		Password: "hunter22",
	})

	assert.Error(t, err)
	pending.AssertNotCalled(t, "Put", mock.Anything, mock.Anything)
}

// --- VerifyOTP Tests ---

func TestVerifyOTP_Success(t *testing.T) {
	userRepo := new(mockUserRepository)
	pending := new(mockPendingStore)
	notifier := new(mockNotifier)
	svc := newTestService(userRepo, new(mockSessionRepository), pending, notifier)
	ctx := context.Background()

	hash := hashForTest("hunter22")
	pending.On("Get", ctx, "alice@example.com").Return(&domain.PendingSignup{
		Name:         "Alice",
		Email:        "alice@example.com",
		PasswordHash: hash,
		Role:         domain.RoleCandidate,
		OTP:          "123456",
		ExpiresAt:    time.Now().Add(5 * time.Minute),
	}, nil)
	userRepo.On("Create", ctx, mock.AnythingOfType("*domain.User")).Return(nil)
	pending.On("Delete", ctx, "alice@example.com").Return(nil)
	notifier.On("PublishUserRegistered", ctx, mock.AnythingOfType("*domain.User")).Return(nil)

	user, err := svc.VerifyOTP(ctx, "alice@example.com", "123456")

	require.NoError(t, err)
	require.NotNil(t, user)
	assert.NotEmpty(t, user.ID)
	assert.True(t, user.IsVerified)
	assert.Equal(t, hash, user.PasswordHash, "stored hash must carry over unchanged")
	assert.Equal(t, domain.RoleCandidate, user.Role)

	pending.AssertExpectations(t)
	userRepo.AssertExpectations(t)
}

func TestVerifyOTP_WrongCode(t *testing.T) {
	userRepo := new(mockUserRepository)
	pending := new(mockPendingStore)
	svc := newTestService(userRepo, new(mockSessionRepository), pending, new(mockNotifier))
	ctx := context.Background()

	pending.On("Get", ctx, "alice@example.com").Return(&domain.PendingSignup{
		Email:     "alice@example.com",
		OTP:       "123456",
		ExpiresAt: time.Now().Add(5 * time.Minute),
	}, nil)

	user, err := svc.VerifyOTP(ctx, "alice@example.com", "654321")

	assert.Nil(t, user)
	assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
	userRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestVerifyOTP_WrongAndMissingAreIndistinguishable(t *testing.T) {
	pendingWrong := new(mockPendingStore)
	svcWrong := newTestService(new(mockUserRepository), new(mockSessionRepository), pendingWrong, new(mockNotifier))
	ctx := context.Background()

	pendingWrong.On("Get", ctx, "alice@example.com").Return(&domain.PendingSignup{
		Email:     "alice@example.com",
		OTP:       "123456",
		ExpiresAt: time.Now().Add(5 * time.Minute),
	}, nil)
	_, errWrong := svcWrong.VerifyOTP(ctx, "alice@example.com", "000000")

	pendingMissing := new(mockPendingStore)
	svcMissing := newTestService(new(mockUserRepository), new(mockSessionRepository), pendingMissing, new(mockNotifier))
	pendingMissing.On("Get", ctx, "nobody@example.com").Return(nil, apperrors.ErrNotFound)
	_, errMissing := svcMissing.VerifyOTP(ctx, "nobody@example.com", "000000")

	require.Error(t, errWrong)
	require.Error(t, errMissing)
	assert.Equal(t, errWrong.Error(), errMissing.Error(),
		"wrong code and absent signup must produce identical errors")
}

// TestVerifyOTP_ExpiredCodeFailsLikeWrongCode drives the correct code past
// the verification window and checks it fails with the exact error a wrong
// code produces, so the response never reveals which case applied.
func TestVerifyOTP_ExpiredCodeFailsLikeWrongCode(t *testing.T) {
	userRepo := newFakeUserRepo()
	pending := newFakePendingStore()
	notifier := &capturingNotifier{}
	svc := NewAuthService(userRepo, newFakeSessionRepo(), pending, newTestJWTManager(), notifier, 10*time.Minute, newTestLogger())
	ctx := context.Background()

	require.NoError(t, svc.Signup(ctx, SignupInput{
		Name:     "Alice",
		Email:    "alice@example.com",
		Password: "hunter22",
	}))
	code := notifier.OTP()

	wrong := "000000"
	if wrong == code {
		wrong = "000001"
	}
	_, errWrong := svc.VerifyOTP(ctx, "alice@example.com", wrong)
	require.ErrorIs(t, errWrong, apperrors.ErrInvalidCredentials)

	pending.mu.Lock()
	pending.entries["alice@example.com"].ExpiresAt = time.Now().Add(-time.Second)
	pending.mu.Unlock()

	_, errExpired := svc.VerifyOTP(ctx, "alice@example.com", code)
	require.ErrorIs(t, errExpired, apperrors.ErrInvalidCredentials)
	assert.Equal(t, errWrong.Error(), errExpired.Error(),
		"an expired code must be indistinguishable from a wrong one")

	_, err := userRepo.GetByEmail(ctx, "alice@example.com")
	assert.ErrorIs(t, err, apperrors.ErrNotFound, "no account may exist after a failed verification")
}

func TestVerifyOTP_DuplicateUserCleansStaging(t *testing.T) {
	userRepo := new(mockUserRepository)
	pending := new(mockPendingStore)
	svc := newTestService(userRepo, new(mockSessionRepository), pending, new(mockNotifier))
	ctx := context.Background()

	pending.On("Get", ctx, "alice@example.com").Return(&domain.PendingSignup{
		Email:     "alice@example.com",
		OTP:       "123456",
		ExpiresAt: time.Now().Add(5 * time.Minute),
	}, nil)
	userRepo.On("Create", ctx, mock.AnythingOfType("*domain.User")).
		Return(apperrors.Conflict("Email already exists"))
	pending.On("Delete", ctx, "alice@example.com").Return(nil)
	existing := &domain.User{ID: "u1", Email: "alice@example.com", IsVerified: true}
	userRepo.On("GetByEmail", ctx, "alice@example.com").Return(existing, nil)

	user, err := svc.VerifyOTP(ctx, "alice@example.com", "123456")

	// A re-verify after a crash between user creation and staging cleanup
	// finds the account already present. That is a success, not an error.
	require.NoError(t, err)
	assert.Equal(t, existing, user)
	pending.AssertCalled(t, "Delete", ctx, "alice@example.com")
}

// --- ResendOTP Tests ---

func TestResendOTP_Success(t *testing.T) {
	pending := new(mockPendingStore)
	notifier := new(mockNotifier)
	svc := newTestService(new(mockUserRepository), new(mockSessionRepository), pending, notifier)
	ctx := context.Background()

	pending.On("Get", ctx, "alice@example.com").Return(&domain.PendingSignup{
		Email:     "alice@example.com",
		OTP:       "123456",
		ExpiresAt: time.Now().Add(5 * time.Minute),
	}, nil)

	var resent *domain.PendingSignup
	notifier.On("PublishOTPRequested", ctx, mock.AnythingOfType("*domain.PendingSignup")).
		Run(func(args mock.Arguments) {
			resent = args.Get(1).(*domain.PendingSignup)
		}).Return(nil)
	pending.On("UpdateOTP", ctx, "alice@example.com", mock.AnythingOfType("string")).Return(nil)

	err := svc.ResendOTP(ctx, "alice@example.com")

	require.NoError(t, err)
	require.NotNil(t, resent)
	assert.Len(t, resent.OTP, 6)
	pending.AssertExpectations(t)
}

func TestResendOTP_NoPendingSignup(t *testing.T) {
	pending := new(mockPendingStore)
	svc := newTestService(new(mockUserRepository), new(mockSessionRepository), pending, new(mockNotifier))
	ctx := context.Background()

	pending.On("Get", ctx, "nobody@example.com").Return(nil, apperrors.ErrNotFound)

	err := svc.ResendOTP(ctx, "nobody@example.com")

	assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
}

// --- Login Tests ---

func TestLogin_Success(t *testing.T) {
	userRepo := new(mockUserRepository)
	sessionRepo := new(mockSessionRepository)
	svc := newTestService(userRepo, sessionRepo, new(mockPendingStore), new(mockNotifier))
	ctx := context.Background()

	userRepo.On("GetByEmail", ctx, "alice@example.com").Return(&domain.User{
		ID:           "u1",
		Email:        "alice@example.com",
		PasswordHash: hashForTest("hunter22"),
		Role:         domain.RoleCandidate,
		IsVerified:   true,
	}, nil)

	var storedHash string
	sessionRepo.On("Create", ctx, "u1", mock.AnythingOfType("string"), mock.AnythingOfType("time.Time")).
		Run(func(args mock.Arguments) {
			storedHash = args.Get(2).(string)
		}).Return(nil)

	user, token, err := svc.Login(ctx, LoginInput{Email: "alice@example.com", Password: "hunter22"})

	require.NoError(t, err)
	assert.Equal(t, "u1", user.ID)
	assert.NotEmpty(t, token)

	// The session stores a hash, not the raw token.
	assert.NotEqual(t, token, storedHash)
	assert.Equal(t, hashToken(token), storedHash)

	claims, err := newTestJWTManager().ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
}

func TestLogin_UserNotFound(t *testing.T) {
	userRepo := new(mockUserRepository)
	svc := newTestService(userRepo, new(mockSessionRepository), new(mockPendingStore), new(mockNotifier))
	ctx := context.Background()

	userRepo.On("GetByEmail", ctx, "ghost@example.com").Return(nil, apperrors.ErrNotFound)

	_, _, err := svc.Login(ctx, LoginInput{Email: "ghost@example.com", Password: "whatever1"})

	assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
}

func TestLogin_UnverifiedUser(t *testing.T) {
	userRepo := new(mockUserRepository)
	svc := newTestService(userRepo, new(mockSessionRepository), new(mockPendingStore), new(mockNotifier))
	ctx := context.Background()

	userRepo.On("GetByEmail", ctx, "alice@example.com").Return(&domain.User{
		ID:           "u1",
		Email:        "alice@example.com",
		PasswordHash: hashForTest("hunter22"),
		IsVerified:   false,
	}, nil)

	_, _, err := svc.Login(ctx, LoginInput{Email: "alice@example.com", Password: "hunter22"})

	assert.ErrorIs(t, err, apperrors.ErrForbidden)
}

func TestLogin_WrongPassword(t *testing.T) {
	userRepo := new(mockUserRepository)
	sessionRepo := new(mockSessionRepository)
	svc := newTestService(userRepo, sessionRepo, new(mockPendingStore), new(mockNotifier))
	ctx := context.Background()

	userRepo.On("GetByEmail", ctx, "alice@example.com").Return(&domain.User{
		ID:           "u1",
		Email:        "alice@example.com",
		PasswordHash: hashForTest("hunter22"),
		IsVerified:   true,
	}, nil)

	_, _, err := svc.Login(ctx, LoginInput{Email: "alice@example.com", Password: "wrong-pass"})

	assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
	sessionRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

// --- Authenticate / Logout Tests ---

func TestAuthenticate_Success(t *testing.T) {
	userRepo := new(mockUserRepository)
	sessionRepo := new(mockSessionRepository)
	svc := newTestService(userRepo, sessionRepo, new(mockPendingStore), new(mockNotifier))
	ctx := context.Background()

	token, err := newTestJWTManager().GenerateToken("u1")
	require.NoError(t, err)

	sessionRepo.On("GetByHash", ctx, hashToken(token)).Return(&domain.Session{
		ID:        "s1",
		UserID:    "u1",
		TokenHash: hashToken(token),
		ExpiresAt: time.Now().Add(time.Hour),
	}, nil)
	userRepo.On("GetByID", ctx, "u1").Return(&domain.User{ID: "u1", IsVerified: true}, nil)

	user, err := svc.Authenticate(ctx, token)

	require.NoError(t, err)
	assert.Equal(t, "u1", user.ID)
}

func TestAuthenticate_SessionRevoked(t *testing.T) {
	sessionRepo := new(mockSessionRepository)
	svc := newTestService(new(mockUserRepository), sessionRepo, new(mockPendingStore), new(mockNotifier))
	ctx := context.Background()

	token, err := newTestJWTManager().GenerateToken("u1")
	require.NoError(t, err)

	sessionRepo.On("GetByHash", ctx, hashToken(token)).Return(nil, apperrors.ErrNotFound)

	user, err := svc.Authenticate(ctx, token)

	assert.Nil(t, user)
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
}

func TestAuthenticate_GarbageToken(t *testing.T) {
	svc := newTestService(new(mockUserRepository), new(mockSessionRepository), new(mockPendingStore), new(mockNotifier))

	user, err := svc.Authenticate(context.Background(), "not-a-jwt")

	assert.Nil(t, user)
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
}

func TestLogout_DeletesAllSessions(t *testing.T) {
	sessionRepo := new(mockSessionRepository)
	svc := newTestService(new(mockUserRepository), sessionRepo, new(mockPendingStore), new(mockNotifier))
	ctx := context.Background()

	sessionRepo.On("DeleteByUserID", ctx, "u1").Return(nil)

	require.NoError(t, svc.Logout(ctx, "u1"))
	sessionRepo.AssertExpectations(t)
}

// --- In-memory fakes for the full registration flow ---

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[string]*domain.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]*domain.User)}
}

func (f *fakeUserRepo) Create(_ context.Context, user *domain.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == user.Email {
			return apperrors.Conflict("Email already exists")
		}
	}
	f.users[user.ID] = user
	return nil
}

func (f *fakeUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.users[id]; ok {
		return u, nil
	}
	return nil, apperrors.ErrNotFound
}

func (f *fakeUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

type fakeSessionRepo struct {
	mu       sync.Mutex
	sessions map[string]*domain.Session
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{sessions: make(map[string]*domain.Session)}
}

func (f *fakeSessionRepo) Create(_ context.Context, userID, tokenHash string, expiresAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sessions[tokenHash] = &domain.Session{
		ID:        tokenHash,
		UserID:    userID,
		TokenHash: tokenHash,
		ExpiresAt: expiresAt,
		CreatedAt: time.Now(),
	}
	return nil
}

func (f *fakeSessionRepo) GetByHash(_ context.Context, tokenHash string) (*domain.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[tokenHash]
	if !ok || time.Now().After(s.ExpiresAt) {
		return nil, apperrors.ErrNotFound
	}
	return s, nil
}

func (f *fakeSessionRepo) DeleteByUserID(_ context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for k, s := range f.sessions {
		if s.UserID == userID {
			delete(f.sessions, k)
		}
	}
	return nil
}

func (f *fakeSessionRepo) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for k, s := range f.sessions {
		if !now.Before(s.ExpiresAt) {
			delete(f.sessions, k)
			n++
		}
	}
	return n, nil
}

type fakePendingStore struct {
	mu      sync.Mutex
	entries map[string]*domain.PendingSignup
}

func newFakePendingStore() *fakePendingStore {
	return &fakePendingStore{entries: make(map[string]*domain.PendingSignup)}
}

func (f *fakePendingStore) Put(_ context.Context, signup *domain.PendingSignup) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *signup
	f.entries[signup.Email] = &cp
	return nil
}

func (f *fakePendingStore) Get(_ context.Context, email string) (*domain.PendingSignup, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.entries[email]
	if !ok || p.Expired(time.Now()) {
		return nil, apperrors.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakePendingStore) UpdateOTP(_ context.Context, email, otp string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.entries[email]
	if !ok {
		return apperrors.ErrNotFound
	}
	p.OTP = otp
	return nil
}

func (f *fakePendingStore) Delete(_ context.Context, email string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.entries, email)
	return nil
}

// capturingNotifier records the last code emitted, standing in for the email
// the user would receive.
type capturingNotifier struct {
	mu      sync.Mutex
	lastOTP string
}

func (c *capturingNotifier) PublishOTPRequested(_ context.Context, signup *domain.PendingSignup) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastOTP = signup.OTP
	return nil
}

func (c *capturingNotifier) PublishUserRegistered(context.Context, *domain.User) error {
	return nil
}

func (c *capturingNotifier) OTP() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastOTP
}

// TestRegistrationFlow exercises the full life of an account: signup, code
// verification, login, an authenticated request, logout, and the rejection
// of the now-dead token.
func TestRegistrationFlow(t *testing.T) {
	userRepo := newFakeUserRepo()
	sessionRepo := newFakeSessionRepo()
	pending := newFakePendingStore()
	notifier := &capturingNotifier{}
	svc := NewAuthService(userRepo, sessionRepo, pending, newTestJWTManager(), notifier, 10*time.Minute, newTestLogger())
	ctx := context.Background()

	require.NoError(t, svc.Signup(ctx, SignupInput{
		Name:     "Alice",
		Email:    "alice@example.com",
		Password: "hunter22",
	}))

	// No account exists until verification.
	_, err := userRepo.GetByEmail(ctx, "alice@example.com")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	// A stale code stops working after a second signup replaces it.
	firstOTP := notifier.OTP()
	require.NoError(t, svc.Signup(ctx, SignupInput{
		Name:     "Alice",
		Email:    "alice@example.com",
		Password: "hunter22",
	}))
	if firstOTP != notifier.OTP() {
		_, err = svc.VerifyOTP(ctx, "alice@example.com", firstOTP)
		assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
	}

	user, err := svc.VerifyOTP(ctx, "alice@example.com", notifier.OTP())
	require.NoError(t, err)
	assert.True(t, user.IsVerified)

	// The consumed code cannot be replayed.
	_, err = svc.VerifyOTP(ctx, "alice@example.com", notifier.OTP())
	assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)

	_, token, err := svc.Login(ctx, LoginInput{Email: "alice@example.com", Password: "hunter22"})
	require.NoError(t, err)

	authed, err := svc.Authenticate(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, authed.ID)

	require.NoError(t, svc.Logout(ctx, user.ID))

	// The JWT is still cryptographically valid but its session is gone.
	_, err = svc.Authenticate(ctx, token)
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
}

// TestResendOTP_PreservesExpiry confirms a resent code inherits the original
// verification window.
func TestResendOTP_PreservesExpiry(t *testing.T) {
	pending := newFakePendingStore()
	notifier := &capturingNotifier{}
	svc := NewAuthService(newFakeUserRepo(), newFakeSessionRepo(), pending, newTestJWTManager(), notifier, 10*time.Minute, newTestLogger())
	ctx := context.Background()

	require.NoError(t, svc.Signup(ctx, SignupInput{
		Name:     "Alice",
		Email:    "alice@example.com",
		Password: "hunter22",
	}))

	before, err := pending.Get(ctx, "alice@example.com")
	require.NoError(t, err)

	require.NoError(t, svc.ResendOTP(ctx, "alice@example.com"))

	after, err := pending.Get(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, before.ExpiresAt, after.ExpiresAt, "resend must not extend the window")
	assert.Equal(t, notifier.OTP(), after.OTP)
}

func TestGenerateOTP_Format(t *testing.T) {
	for i := 0; i < 50; i++ {
		otp, err := generateOTP()
		require.NoError(t, err)
		require.Len(t, otp, 6)
		for _, c := range otp {
			require.True(t, c >= '0' && c <= '9')
		}
	}
}

package impl

import (
	"context"
	"testing"
	"time"

	"clio/config"
	"clio/internal/domain/entity"
	domainerrors "clio/internal/domain/errors"
	"clio/internal/domain/service"
	"clio/internal/infra/auth"
	"clio/internal/usecase"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// authFixtures wires the auth service against in-memory repositories and the
// real token codec and password hasher.
type authFixtures struct {
	service usecase.AuthUsecase
	users   *memUserRepo
	ledger  *memWhitelistRepo
	tokens  service.TokenService
}

func createTestAuthService(t *testing.T) *authFixtures {
	t.Helper()

	return createTestAuthServiceWith(t, newTestConfig())
}

func createTestAuthServiceWith(t *testing.T, cfg *config.Config) *authFixtures {
	t.Helper()

	tokens, err := auth.NewJWTService(cfg)
	require.NoError(t, err)

	users := newMemUserRepo()
	ledger := newMemWhitelistRepo()
	factory := &fakeFactory{userRepo: users, whitelistRepo: ledger}

	svc := NewAuthService(AuthServiceParams{
		TxManager:     &fakeTxManager{factory: factory},
		UserRepo:      users,
		WhitelistRepo: ledger,
		Hasher:        auth.NewBcryptHasher(cfg),
		TokenService:  tokens,
		Logger:        newDiscardLogger(),
	})

	return &authFixtures{
		service: svc,
		users:   users,
		ledger:  ledger,
		tokens:  tokens,
	}
}

func registerTestUser(t *testing.T, fx *authFixtures) *entity.User {
	t.Helper()

	out, err := fx.service.RegisterUser(context.Background(), &usecase.RegisterUserInput{
		FirstName: "Jane",
		LastName:  "Doe",
		Email:     "jane.doe@example.com",
		Password:  "StrongPass123",
	})
	require.NoError(t, err)
	require.NotNil(t, out.User)
	require.NotEqual(t, uuid.Nil, out.User.ID)

	return out.User
}

func loginTestUser(t *testing.T, fx *authFixtures) *usecase.LoginOutput {
	t.Helper()

	out, err := fx.service.Login(context.Background(), &usecase.LoginInput{
		Email:    "jane.doe@example.com",
		Password: "StrongPass123",
		Metadata: entity.ClientMetadata{BrowserAgent: "test-agent", IP: "203.0.113.9"},
	})
	require.NoError(t, err)
	require.NotEmpty(t, out.AccessToken)
	require.NotEmpty(t, out.RefreshToken)

	return out
}

func TestAuthService_RegisterUser(t *testing.T) {
	fx := createTestAuthService(t)
	ctx := context.Background()

	user := registerTestUser(t, fx)
	assert.Equal(t, entity.RoleClient, user.Role)
	assert.Equal(t, entity.AccountStatusPending, user.AccountStatus)
	assert.NotEqual(t, "StrongPass123", user.PasswordHash)

	// Duplicate email is rejected.
	_, err := fx.service.RegisterUser(ctx, &usecase.RegisterUserInput{
		FirstName: "Other",
		LastName:  "Person",
		Email:     "jane.doe@example.com",
		Password:  "StrongPass123",
	})
	assert.ErrorIs(t, err, domainerrors.ErrUserAlreadyExists)

	// Weak password is rejected before any persistence happens.
	_, err = fx.service.RegisterUser(ctx, &usecase.RegisterUserInput{
		FirstName: "Weak",
		LastName:  "Password",
		Email:     "weak@example.com",
		Password:  "short",
	})
	assert.ErrorIs(t, err, domainerrors.ErrPasswordStrength)
}

func TestAuthService_LoginAndVerify(t *testing.T) {
	fx := createTestAuthService(t)
	ctx := context.Background()

	registered := registerTestUser(t, fx)
	login := loginTestUser(t, fx)

	// One session record per login.
	assert.Equal(t, 1, fx.ledger.size())

	// A freshly issued access token resolves back to its principal.
	principal, err := fx.service.VerifyAccess(ctx, login.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, registered.ID, principal.ID)
	assert.Equal(t, registered.Email, principal.Email)
}

func TestAuthService_LoginWrongPassword(t *testing.T) {
	fx := createTestAuthService(t)
	registerTestUser(t, fx)

	_, err := fx.service.Login(context.Background(), &usecase.LoginInput{
		Email:    "jane.doe@example.com",
		Password: "WrongPass123",
	})
	assert.ErrorIs(t, err, domainerrors.ErrInvalidCredentials)

	_, err = fx.service.Login(context.Background(), &usecase.LoginInput{
		Email:    "nobody@example.com",
		Password: "StrongPass123",
	})
	// Unknown email reads the same as a bad password.
	assert.ErrorIs(t, err, domainerrors.ErrInvalidCredentials)
}

func TestAuthService_LoginDisabledAccount(t *testing.T) {
	fx := createTestAuthService(t)
	user := registerTestUser(t, fx)

	user.AccountStatus = entity.AccountStatusSuspended
	require.NoError(t, fx.users.Update(context.Background(), user))

	_, err := fx.service.Login(context.Background(), &usecase.LoginInput{
		Email:    "jane.doe@example.com",
		Password: "StrongPass123",
	})
	assert.ErrorIs(t, err, domainerrors.ErrAccountDisabled)
}

func TestAuthService_VerifyRejectsRevokedSession(t *testing.T) {
	fx := createTestAuthService(t)
	ctx := context.Background()

	registerTestUser(t, fx)
	login := loginTestUser(t, fx)

	require.NoError(t, fx.service.Logout(ctx, &usecase.LogoutInput{AccessToken: login.AccessToken}))

	// The token still carries a valid signature and most of its lifetime, but
	// the session record is gone, so it is dead immediately.
	_, err := fx.service.VerifyAccess(ctx, login.AccessToken)
	assert.ErrorIs(t, err, domainerrors.ErrUnauthorized)

	// Logging out again is a no-op, not an error.
	assert.NoError(t, fx.service.Logout(ctx, &usecase.LogoutInput{AccessToken: login.AccessToken}))
}

func TestAuthService_VerifyRejectsExpiredToken(t *testing.T) {
	fx := createTestAuthService(t)
	ctx := context.Background()

	user := registerTestUser(t, fx)

	// Mint an already-expired access token and whitelist it, simulating a
	// session whose ledger record outlived the token.
	claims := &service.Claims{
		UserID: user.ID,
		Email:  user.Email,
		Role:   user.Role,
		Type:   service.TokenTypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-2 * time.Minute)),
		},
	}
	stale, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).
		SignedString([]byte("test_user_secret_key_very_long_for_testing"))
	require.NoError(t, err)

	require.NoError(t, fx.ledger.CreateWhitelistToken(ctx, &entity.WhitelistToken{
		UserID:                  user.ID,
		AccessTokenFingerprint:  fx.tokens.Fingerprint(stale),
		RefreshTokenFingerprint: fx.tokens.Fingerprint(stale + "r"),
		ExpiresAt:               time.Now().Add(time.Hour),
	}))

	// A whitelisted but expired token still fails.
	_, err = fx.service.VerifyAccess(ctx, stale)
	assert.ErrorIs(t, err, domainerrors.ErrUnauthorized)
}

func TestAuthService_VerifyRejectsTokenPastShortLifetime(t *testing.T) {
	cfg := newTestConfig()
	cfg.Auth.AccessTokenTTL = time.Second

	fx := createTestAuthServiceWith(t, cfg)
	ctx := context.Background()

	user := registerTestUser(t, fx)
	login := loginTestUser(t, fx)

	verified, err := fx.service.VerifyAccess(ctx, login.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, verified.ID)

	// Outlive the 1s lifetime plus the default leeway. The ledger record is
	// untouched; expiry alone kills the token.
	time.Sleep(2100 * time.Millisecond)

	_, err = fx.service.VerifyAccess(ctx, login.AccessToken)
	assert.ErrorIs(t, err, domainerrors.ErrUnauthorized)
	assert.Equal(t, 1, fx.ledger.size())
}

func TestAuthService_VerifyRejectsForeignSignature(t *testing.T) {
	fx := createTestAuthService(t)

	registerTestUser(t, fx)
	login := loginTestUser(t, fx)

	// Same service; token re-signed with an unknown key.
	forged := login.AccessToken[:len(login.AccessToken)-4] + "xxxx"

	_, err := fx.service.VerifyAccess(context.Background(), forged)
	assert.ErrorIs(t, err, domainerrors.ErrUnauthorized)
}

func TestAuthService_VerifyRejectsRefreshTokenAsAccess(t *testing.T) {
	fx := createTestAuthService(t)

	registerTestUser(t, fx)
	login := loginTestUser(t, fx)

	// The refresh token is whitelisted and signature-valid, but it is not an
	// access token.
	_, err := fx.service.VerifyAccess(context.Background(), login.RefreshToken)
	assert.ErrorIs(t, err, domainerrors.ErrUnauthorized)
}

func TestAuthService_LedgerOutageIsNotUnauthorized(t *testing.T) {
	fx := createTestAuthService(t)
	ctx := context.Background()

	registerTestUser(t, fx)
	login := loginTestUser(t, fx)

	fx.ledger.failAll = true

	_, err := fx.service.VerifyAccess(ctx, login.AccessToken)
	assert.ErrorIs(t, err, domainerrors.ErrAuthStoreUnavailable)
	assert.NotErrorIs(t, err, domainerrors.ErrUnauthorized)
}

func TestAuthService_IssueRetriesOnFingerprintConflict(t *testing.T) {
	fx := createTestAuthService(t)

	registerTestUser(t, fx)

	// First create collides; the second attempt with re-minted tokens lands.
	fx.ledger.conflictNext = 1
	login := loginTestUser(t, fx)

	principal, err := fx.service.VerifyAccess(context.Background(), login.AccessToken)
	assert.NoError(t, err)
	assert.NotNil(t, principal)
	assert.Equal(t, 1, fx.ledger.size())
}

func TestAuthService_IssueGivesUpAfterSecondConflict(t *testing.T) {
	fx := createTestAuthService(t)

	registerTestUser(t, fx)

	fx.ledger.conflictNext = 2

	_, err := fx.service.Login(context.Background(), &usecase.LoginInput{
		Email:    "jane.doe@example.com",
		Password: "StrongPass123",
	})
	assert.Error(t, err)
	assert.Equal(t, 0, fx.ledger.size())
}

func TestAuthService_RefreshRotatesSession(t *testing.T) {
	fx := createTestAuthService(t)
	ctx := context.Background()

	registered := registerTestUser(t, fx)
	login := loginTestUser(t, fx)

	refreshed, err := fx.service.RefreshSession(ctx, &usecase.RefreshInput{
		RefreshToken: login.RefreshToken,
		Metadata:     entity.ClientMetadata{BrowserAgent: "test-agent"},
	})
	require.NoError(t, err)
	assert.Equal(t, registered.ID, refreshed.User.ID)
	assert.NotEqual(t, login.AccessToken, refreshed.AccessToken)
	assert.NotEqual(t, login.RefreshToken, refreshed.RefreshToken)

	// Rotation replaces the record instead of stacking a second one.
	assert.Equal(t, 1, fx.ledger.size())

	// The new pair is live.
	_, err = fx.service.VerifyAccess(ctx, refreshed.AccessToken)
	assert.NoError(t, err)

	// The old pair is dead on both sides.
	_, err = fx.service.VerifyAccess(ctx, login.AccessToken)
	assert.ErrorIs(t, err, domainerrors.ErrUnauthorized)

	_, err = fx.service.RefreshSession(ctx, &usecase.RefreshInput{RefreshToken: login.RefreshToken})
	assert.ErrorIs(t, err, domainerrors.ErrUnauthorized)
}

func TestAuthService_RefreshSurvivesCallerCancellation(t *testing.T) {
	fx := createTestAuthService(t)

	registered := registerTestUser(t, fx)
	login := loginTestUser(t, fx)

	// A client that hangs up right after sending the refresh request must not
	// abort the rotation: the ledger sees only the detached context.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	refreshed, err := fx.service.RefreshSession(ctx, &usecase.RefreshInput{
		RefreshToken: login.RefreshToken,
		Metadata:     entity.ClientMetadata{BrowserAgent: "test-agent"},
	})
	require.NoError(t, err)
	assert.Equal(t, registered.ID, refreshed.User.ID)
	assert.Equal(t, 1, fx.ledger.size())

	_, err = fx.service.VerifyAccess(context.Background(), refreshed.AccessToken)
	assert.NoError(t, err)
}

func TestAuthService_RefreshRejectsAccessToken(t *testing.T) {
	fx := createTestAuthService(t)

	registerTestUser(t, fx)
	login := loginTestUser(t, fx)

	_, err := fx.service.RefreshSession(context.Background(), &usecase.RefreshInput{
		RefreshToken: login.AccessToken,
	})
	assert.ErrorIs(t, err, domainerrors.ErrUnauthorized)
}

func TestAuthService_SessionsAreIndependent(t *testing.T) {
	fx := createTestAuthService(t)
	ctx := context.Background()

	registerTestUser(t, fx)
	first := loginTestUser(t, fx)
	second := loginTestUser(t, fx)

	require.Equal(t, 2, fx.ledger.size())
	require.NotEqual(t, first.AccessToken, second.AccessToken)

	// Ending one session leaves the other untouched.
	require.NoError(t, fx.service.Logout(ctx, &usecase.LogoutInput{AccessToken: first.AccessToken}))

	_, err := fx.service.VerifyAccess(ctx, first.AccessToken)
	assert.ErrorIs(t, err, domainerrors.ErrUnauthorized)

	_, err = fx.service.VerifyAccess(ctx, second.AccessToken)
	assert.NoError(t, err)
}

func TestAuthService_LogoutAll(t *testing.T) {
	fx := createTestAuthService(t)
	ctx := context.Background()

	user := registerTestUser(t, fx)
	first := loginTestUser(t, fx)
	second := loginTestUser(t, fx)

	require.NoError(t, fx.service.LogoutAll(ctx, user.ID))

	assert.Equal(t, 0, fx.ledger.size())

	_, err := fx.service.VerifyAccess(ctx, first.AccessToken)
	assert.ErrorIs(t, err, domainerrors.ErrUnauthorized)
	_, err = fx.service.VerifyAccess(ctx, second.AccessToken)
	assert.ErrorIs(t, err, domainerrors.ErrUnauthorized)
}

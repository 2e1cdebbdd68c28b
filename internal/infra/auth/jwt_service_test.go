package auth

import (
	"testing"
	"time"

	"clio/config"
	"clio/internal/domain/entity"
	"clio/internal/domain/service"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.SecretKey.User = "test_user_secret_key_very_long_for_testing"
	cfg.SecretKey.Admin = "test_admin_secret_key_very_long_for_testing"

	return cfg
}

func testUser(role entity.Role) *entity.User {
	return &entity.User{
		ID:    uuid.New(),
		Email: "jane.doe@example.com",
		Role:  role,
	}
}

func TestJWTService_GenerateAndValidateTokens(t *testing.T) {
	jwtService, err := NewJWTService(testConfig())
	require.NoError(t, err)
	require.NotNil(t, jwtService)

	user := testUser(entity.RoleClient)

	accessToken, refreshToken, err := jwtService.GenerateTokenPair(user)
	assert.NoError(t, err)
	assert.NotEmpty(t, accessToken)
	assert.NotEmpty(t, refreshToken)
	assert.NotEqual(t, accessToken, refreshToken)

	// Validate access token
	accessClaims, err := jwtService.ValidateToken(accessToken)
	assert.NoError(t, err)
	assert.NotNil(t, accessClaims)
	assert.Equal(t, user.ID, accessClaims.UserID)
	assert.Equal(t, user.Email, accessClaims.Email)
	assert.Equal(t, entity.RoleClient, accessClaims.Role)
	assert.Equal(t, service.TokenTypeAccess, accessClaims.Type)

	// Validate refresh token
	refreshClaims, err := jwtService.ValidateToken(refreshToken)
	assert.NoError(t, err)
	assert.NotNil(t, refreshClaims)
	assert.Equal(t, user.ID, refreshClaims.UserID)
	assert.Equal(t, service.TokenTypeRefresh, refreshClaims.Type)
}

func TestJWTService_AdminTokensUseAdminSecret(t *testing.T) {
	jwtService, err := NewJWTService(testConfig())
	require.NoError(t, err)

	admin := testUser(entity.RoleAdmin)
	accessToken, _, err := jwtService.GenerateTokenPair(admin)
	require.NoError(t, err)

	// The service itself accepts its own admin tokens.
	claims, err := jwtService.ValidateToken(accessToken)
	assert.NoError(t, err)
	assert.Equal(t, entity.RoleAdmin, claims.Role)

	// A service holding only a different admin secret must reject them.
	otherCfg := testConfig()
	otherCfg.SecretKey.Admin = "a_completely_different_admin_secret"
	otherService, err := NewJWTService(otherCfg)
	require.NoError(t, err)

	claims, err = otherService.ValidateToken(accessToken)
	assert.Nil(t, claims)
	assert.ErrorIs(t, err, service.ErrTokenSignatureInvalid)
}

func TestJWTService_ForeignKeyRejected(t *testing.T) {
	jwtService, err := NewJWTService(testConfig())
	require.NoError(t, err)

	// Token signed with a secret this service has never seen.
	foreignCfg := testConfig()
	foreignCfg.SecretKey.User = "some_other_deployments_user_secret"
	foreignService, err := NewJWTService(foreignCfg)
	require.NoError(t, err)

	accessToken, _, err := foreignService.GenerateTokenPair(testUser(entity.RoleClient))
	require.NoError(t, err)

	claims, err := jwtService.ValidateToken(accessToken)
	assert.Nil(t, claims)
	assert.ErrorIs(t, err, service.ErrTokenSignatureInvalid)
}

// signedTokenExpiringIn mints a user-audience token directly so tests can
// control the expiry, including expiries in the past.
func signedTokenExpiringIn(t *testing.T, cfg *config.Config, ttl time.Duration) string {
	t.Helper()

	claims := &service.Claims{
		UserID: uuid.New(),
		Role:   entity.RoleClient,
		Type:   service.TokenTypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).
		SignedString([]byte(cfg.SecretKey.User))
	require.NoError(t, err)

	return token
}

func TestJWTService_ExpiredToken(t *testing.T) {
	cfg := testConfig()
	jwtService, err := NewJWTService(cfg)
	require.NoError(t, err)

	// Well past the clock-skew leeway, so the token is already stale.
	stale := signedTokenExpiringIn(t, cfg, -2*time.Minute)

	claims, err := jwtService.ValidateToken(stale)
	assert.Nil(t, claims)
	assert.ErrorIs(t, err, service.ErrTokenExpired)
}

func TestJWTService_ShortLivedTokenExpiresOnTime(t *testing.T) {
	cfg := testConfig()
	cfg.Auth = &config.AuthConfig{AccessTokenTTL: time.Second}
	jwtService, err := NewJWTService(cfg)
	require.NoError(t, err)

	accessToken, _, err := jwtService.GenerateTokenPair(testUser(entity.RoleClient))
	require.NoError(t, err)

	claims, err := jwtService.ValidateToken(accessToken)
	require.NoError(t, err)
	require.NotNil(t, claims)

	// One second of lifetime plus the default one-second leeway have both
	// elapsed; the token must now be dead.
	time.Sleep(2100 * time.Millisecond)

	claims, err = jwtService.ValidateToken(accessToken)
	assert.Nil(t, claims)
	assert.ErrorIs(t, err, service.ErrTokenExpired)
}

func TestJWTService_LeewayCoversSmallClockDrift(t *testing.T) {
	cfg := testConfig()
	cfg.Auth = &config.AuthConfig{ClockSkewLeeway: 30 * time.Second}
	jwtService, err := NewJWTService(cfg)
	require.NoError(t, err)

	// Expired, but within the configured leeway window.
	drifted := signedTokenExpiringIn(t, cfg, -10*time.Second)

	claims, err := jwtService.ValidateToken(drifted)
	assert.NoError(t, err)
	assert.NotNil(t, claims)
}

func TestJWTService_LeewayIsCapped(t *testing.T) {
	cfg := testConfig()
	cfg.Auth = &config.AuthConfig{ClockSkewLeeway: 10 * time.Minute}
	jwtService, err := NewJWTService(cfg)
	require.NoError(t, err)

	// Two minutes past expiry is beyond the one-minute leeway ceiling, so an
	// oversized configured leeway must not keep this token alive.
	stale := signedTokenExpiringIn(t, cfg, -2*time.Minute)

	claims, err := jwtService.ValidateToken(stale)
	assert.Nil(t, claims)
	assert.ErrorIs(t, err, service.ErrTokenExpired)
}

func TestJWTService_MalformedToken(t *testing.T) {
	jwtService, err := NewJWTService(testConfig())
	require.NoError(t, err)

	for _, token := range []string{"", "clearly-not-a-jwt-token-format", "a.b", "a.b.c.d"} {
		claims, err := jwtService.ValidateToken(token)
		assert.Nil(t, claims)
		assert.ErrorIs(t, err, service.ErrTokenMalformed)
	}
}

func TestJWTService_RejectsUnsignedAlgorithm(t *testing.T) {
	jwtService, err := NewJWTService(testConfig())
	require.NoError(t, err)

	// Craft a "none"-algorithm token carrying otherwise valid claims.
	claims := &service.Claims{
		UserID: uuid.New(),
		Role:   entity.RoleClient,
		Type:   service.TokenTypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	parsed, err := jwtService.ValidateToken(unsigned)
	assert.Nil(t, parsed)
	assert.Error(t, err)
}

func TestJWTService_EmptySecrets(t *testing.T) {
	cfg := &config.Config{}

	jwtService, err := NewJWTService(cfg)
	assert.Error(t, err)
	assert.Nil(t, jwtService)
	assert.Contains(t, err.Error(), "jwt secrets must be provided")
}

func TestJWTService_TokenDurations(t *testing.T) {
	// Defaults apply when no auth config is given.
	jwtService, err := NewJWTService(testConfig())
	require.NoError(t, err)
	assert.Equal(t, 24*time.Hour, jwtService.AccessTokenDuration())
	assert.Equal(t, 7*24*time.Hour, jwtService.RefreshTokenDuration())

	cfg := testConfig()
	cfg.Auth = &config.AuthConfig{
		AccessTokenTTL:  15 * time.Minute,
		RefreshTokenTTL: 48 * time.Hour,
	}
	jwtService, err = NewJWTService(cfg)
	require.NoError(t, err)
	assert.Equal(t, 15*time.Minute, jwtService.AccessTokenDuration())
	assert.Equal(t, 48*time.Hour, jwtService.RefreshTokenDuration())
}

package api

import (
	"context"
	"testing"
	"time"

	"bookhive/internal/config"
	"bookhive/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

func TestTokenManager(t *testing.T) {
	manager := NewTokenManager(config.JWTConfig{Secret: "s3cret", TTL: time.Hour, Issuer: "bookhive"})
	user := &models.User{ID: 42, Role: models.RoleAdmin, Email: "ops@example.com"}

	token, err := manager.Issue(user)
	require.NoError(t, err)
	assert.NotEmpty(t, token.TokenID)
	assert.WithinDuration(t, time.Now().Add(time.Hour), token.ExpiresAt, 5*time.Second)

	t.Run("round trip", func(t *testing.T) {
		p, err := manager.Parse(token.Token)
		require.NoError(t, err)
		assert.Equal(t, int64(42), p.UserID)
		assert.True(t, p.IsAdmin())
		assert.Equal(t, token.TokenID, p.TokenID)
		assert.Equal(t, models.AuthenticatedUser{UserID: 42, Email: "ops@example.com"}, p.Requester())
	})

	t.Run("wrong secret", func(t *testing.T) {
		other := NewTokenManager(config.JWTConfig{Secret: "other", Issuer: "bookhive"})
		_, err := other.Parse(token.Token)
		assert.ErrorIs(t, err, errInvalidToken)
	})

	t.Run("wrong issuer", func(t *testing.T) {
		other := NewTokenManager(config.JWTConfig{Secret: "s3cret", Issuer: "someone-else"})
		_, err := other.Parse(token.Token)
		assert.ErrorIs(t, err, errInvalidToken)
	})

	t.Run("expired", func(t *testing.T) {
		later := NewTokenManager(config.JWTConfig{Secret: "s3cret", Issuer: "bookhive"})
		later.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
		_, err := later.Parse(token.Token)
		assert.ErrorIs(t, err, errInvalidToken)
	})

	t.Run("none algorithm", func(t *testing.T) {
		unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{
			Role: models.RoleAdmin,
			RegisteredClaims: jwt.RegisteredClaims{
				ID:        "x",
				Subject:   "42",
				Issuer:    "bookhive",
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			},
		})
		raw, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)
		_, err = manager.Parse(raw)
		assert.ErrorIs(t, err, errInvalidToken)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := manager.Parse("not-a-token")
		assert.ErrorIs(t, err, errInvalidToken)
	})
}

func testAPIConfig() config.APIConfig {
	return config.APIConfig{
		Enabled: true,
		Auth: config.APIAuthConfig{
			Enabled:      true,
			HeaderAPIKey: "x-api-key",
			HeaderExtra:  "x-api-extra",
			APIKeys: []config.APIClientKey{
				{Key: "valid-key", Extra: "valid-extra", Permissions: []string{permReadAvailability}},
				{Key: "all-key", Extra: "all-extra"},
			},
		},
		RateLimit: config.APIRateLimitConfig{RPS: 100, Burst: 200},
		JWT:       config.JWTConfig{Secret: "test-secret", TTL: time.Hour, Issuer: "bookhive"},
	}
}

func TestAuthInterceptor(t *testing.T) {
	cfg := testAPIConfig()
	interceptor := NewAuthInterceptor(&cfg).Unary()

	handler := func(_ context.Context, req any) (any, error) {
		return "ok", nil
	}
	availability := &grpc.UnaryServerInfo{FullMethod: methodGetAvailability}
	statistics := &grpc.UnaryServerInfo{FullMethod: methodGetBookingStatistics}

	withKeys := func(key, extra string) context.Context {
		return metadata.NewIncomingContext(context.Background(), metadata.Pairs("x-api-key", key, "x-api-extra", extra))
	}

	t.Run("Success", func(t *testing.T) {
		resp, err := interceptor(withKeys("valid-key", "valid-extra"), "req", availability, handler)
		assert.NoError(t, err)
		assert.Equal(t, "ok", resp)
	})

	t.Run("MissingMetadata", func(t *testing.T) {
		_, err := interceptor(context.Background(), "req", availability, handler)
		assert.Equal(t, codes.Unauthenticated, status.Code(err))
	})

	t.Run("InvalidKey", func(t *testing.T) {
		_, err := interceptor(withKeys("invalid", "valid-extra"), "req", availability, handler)
		assert.Equal(t, codes.Unauthenticated, status.Code(err))
	})

	t.Run("InvalidExtra", func(t *testing.T) {
		_, err := interceptor(withKeys("valid-key", "invalid"), "req", availability, handler)
		assert.Equal(t, codes.Unauthenticated, status.Code(err))
	})

	t.Run("PermissionDenied", func(t *testing.T) {
		_, err := interceptor(withKeys("valid-key", "valid-extra"), "req", statistics, handler)
		assert.Equal(t, codes.PermissionDenied, status.Code(err))
	})

	t.Run("EmptyPermissionsAllowAll", func(t *testing.T) {
		_, err := interceptor(withKeys("all-key", "all-extra"), "req", statistics, handler)
		assert.NoError(t, err)
	})

	t.Run("HealthIsOpen", func(t *testing.T) {
		info := &grpc.UnaryServerInfo{FullMethod: "/grpc.health.v1.Health/Check"}
		_, err := interceptor(context.Background(), "req", info, handler)
		assert.NoError(t, err)
	})

	t.Run("AuthDisabled", func(t *testing.T) {
		open := testAPIConfig()
		open.Auth.Enabled = false
		_, err := NewAuthInterceptor(&open).Unary()(context.Background(), "req", availability, handler)
		assert.NoError(t, err)
	})
}

func TestAuthInterceptorRateLimit(t *testing.T) {
	cfg := testAPIConfig()
	cfg.RateLimit = config.APIRateLimitConfig{RPS: 0.001, Burst: 2}
	interceptor := NewAuthInterceptor(&cfg).Unary()
	info := &grpc.UnaryServerInfo{FullMethod: methodGetAvailability}
	ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs("x-api-key", "valid-key", "x-api-extra", "valid-extra"))
	handler := func(context.Context, any) (any, error) { return "ok", nil }

	for i := 0; i < 2; i++ {
		_, err := interceptor(ctx, "req", info, handler)
		require.NoError(t, err)
	}
	_, err := interceptor(ctx, "req", info, handler)
	assert.Equal(t, codes.ResourceExhausted, status.Code(err))
}

func TestRecoveryUnaryInterceptor(t *testing.T) {
	interceptor := RecoveryUnaryInterceptor(nil)
	info := &grpc.UnaryServerInfo{FullMethod: methodGetAvailability}
	_, err := interceptor(context.Background(), "req", info, func(context.Context, any) (any, error) {
		panic("boom")
	})
	assert.Equal(t, codes.Internal, status.Code(err))
}

func TestRateLimiterDisabled(t *testing.T) {
	l := newRateLimiter(config.APIRateLimitConfig{})
	for i := 0; i < 100; i++ {
		require.True(t, l.allow("client"))
	}
}

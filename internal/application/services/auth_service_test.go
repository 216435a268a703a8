package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/remindly/core/internal/domain/entities"
	"github.com/remindly/core/internal/infrastructure/config"
	"github.com/remindly/core/internal/infrastructure/logger"
	"github.com/remindly/core/internal/ports"
)

func newAuthService(t *testing.T) (*AuthService, *fakeUserRepo) {
	t.Helper()
	repo := newFakeUserRepo()
	svc := NewAuthService(repo, config.JWTConfig{
		Secret:    "test-secret",
		ExpiresIn: time.Hour,
		Issuer:    "remindly-test",
	}, logger.NewNop())
	return svc, repo
}

func TestAuthService_RegisterAndLogin(t *testing.T) {
	svc, repo := newAuthService(t)
	ctx := context.Background()

	resp, err := svc.Register(ctx, ports.RegisterRequest{
		Username: "  alice ",
		Email:    " Alice@Example.com ",
		Password: "correct horse",
	})
	require.NoError(t, err)
	assert.Equal(t, "alice", resp.Username)
	assert.NotEmpty(t, resp.Token)

	stored, err := repo.GetByID(ctx, resp.UserID)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", stored.Email)
	assert.NotEqual(t, "correct horse", stored.PasswordHash)

	userID, err := svc.ValidateToken(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, resp.UserID, userID)

	login, err := svc.Login(ctx, ports.LoginRequest{Email: "ALICE@example.com", Password: "correct horse"})
	require.NoError(t, err)
	assert.Equal(t, "alice", login.Username)
	assert.Equal(t, resp.UserID, login.UserID)
}

func TestAuthService_RegisterValidation(t *testing.T) {
	svc, _ := newAuthService(t)

	_, err := svc.Register(context.Background(), ports.RegisterRequest{Username: "al", Email: "nope", Password: "short"})

	var ve *entities.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Contains(t, ve.Fields, "username")
	assert.Contains(t, ve.Fields, "email")
	assert.Contains(t, ve.Fields, "password")
}

func TestAuthService_RegisterRejectsMalformedEmail(t *testing.T) {
	tests := []struct {
		name  string
		email string
	}{
		{"display name", "Name <a@b.c>"},
		{"missing domain", "alice@"},
		{"embedded space", "ali ce@example.com"},
		{"empty", "   "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, repo := newAuthService(t)

			_, err := svc.Register(context.Background(), ports.RegisterRequest{Username: "mallory", Email: tt.email, Password: "longenough"})

			var ve *entities.ValidationError
			require.True(t, errors.As(err, &ve), "got %v", err)
			assert.Equal(t, "must be a valid email address", ve.Fields["email"])
			assert.Empty(t, repo.users)
		})
	}
}

func TestAuthService_RegisterDuplicates(t *testing.T) {
	svc, repo := newAuthService(t)
	repo.add(&entities.User{ID: uuid.New(), Username: "alice", Email: "alice@example.com"})

	_, err := svc.Register(context.Background(), ports.RegisterRequest{Username: "alice", Email: "other@example.com", Password: "password1"})
	assert.ErrorIs(t, err, entities.ErrUsernameTaken)

	_, err = svc.Register(context.Background(), ports.RegisterRequest{Username: "bob", Email: "ALICE@example.com", Password: "password1"})
	assert.ErrorIs(t, err, entities.ErrEmailTaken)
}

func TestAuthService_LoginFailures(t *testing.T) {
	svc, _ := newAuthService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, ports.RegisterRequest{Username: "alice", Email: "alice@example.com", Password: "password1"})
	require.NoError(t, err)

	_, err = svc.Login(ctx, ports.LoginRequest{Email: "alice@example.com", Password: "wrong-password"})
	assert.ErrorIs(t, err, entities.ErrInvalidCredentials)

	_, err = svc.Login(ctx, ports.LoginRequest{Email: "nobody@example.com", Password: "password1"})
	assert.ErrorIs(t, err, entities.ErrInvalidCredentials)
}

func TestAuthService_Availability(t *testing.T) {
	svc, repo := newAuthService(t)
	ctx := context.Background()
	repo.add(&entities.User{ID: uuid.New(), Username: "alice", Email: "alice@example.com"})

	resp, err := svc.CheckUsername(ctx, " alice ")
	require.NoError(t, err)
	assert.False(t, resp.Available)

	resp, err = svc.CheckUsername(ctx, "bob")
	require.NoError(t, err)
	assert.True(t, resp.Available)

	resp, err = svc.CheckEmail(ctx, "Alice@Example.com")
	require.NoError(t, err)
	assert.False(t, resp.Available)

	_, err = svc.CheckEmail(ctx, "  ")
	assert.True(t, isValidationError(err))
}

func TestAuthService_ValidateTokenRejects(t *testing.T) {
	svc, _ := newAuthService(t)
	user := &entities.User{ID: uuid.New(), Username: "alice"}

	token, err := svc.generateAccessToken(user)
	require.NoError(t, err)

	svc.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = svc.ValidateToken(token)
	assert.ErrorIs(t, err, entities.ErrUnauthorized, "expired")
	svc.now = time.Now

	other, _ := newAuthService(t)
	other.jwtConfig.Secret = "another-secret"
	forged, err := other.generateAccessToken(user)
	require.NoError(t, err)
	_, err = svc.ValidateToken(forged)
	assert.ErrorIs(t, err, entities.ErrUnauthorized, "wrong key")

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{Subject: user.ID.String()}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = svc.ValidateToken(none)
	assert.ErrorIs(t, err, entities.ErrUnauthorized, "unsigned")

	_, err = svc.ValidateToken("garbage")
	assert.ErrorIs(t, err, entities.ErrUnauthorized)
}

package auth

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgauth "github.com/javokhirdev/newsline-backend/pkg/auth"
	"github.com/javokhirdev/newsline-backend/pkg/auth/session"
	"github.com/javokhirdev/newsline-backend/pkg/config"
	"github.com/javokhirdev/newsline-backend/pkg/db/models"
	"github.com/javokhirdev/newsline-backend/pkg/enums"
	pkgerrors "github.com/javokhirdev/newsline-backend/pkg/errors"
	"github.com/javokhirdev/newsline-backend/pkg/security"
)

type stubUserRepo struct {
	byEmail map[string]*models.User
	byID    map[uuid.UUID]*models.User
}

func (s *stubUserRepo) FindByEmail(_ context.Context, email string) (*models.User, error) {
	if user, ok := s.byEmail[email]; ok {
		return user, nil
	}
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
}

func (s *stubUserRepo) FindByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	if user, ok := s.byID[id]; ok {
		return user, nil
	}
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
}

type stubSessionManager struct {
	generated    []string
	revoked      []string
	rotateFrom   string
	rotateErr    error
	refreshToken string
}

func (s *stubSessionManager) Generate(_ context.Context, accessID string) (string, error) {
	s.generated = append(s.generated, accessID)
	return s.refreshToken, nil
}

func (s *stubSessionManager) Rotate(_ context.Context, oldAccessID, provided string) (string, string, error) {
	if s.rotateErr != nil {
		return "", "", s.rotateErr
	}
	s.rotateFrom = oldAccessID
	return session.NewAccessID(), "rotated-refresh", nil
}

func (s *stubSessionManager) Revoke(_ context.Context, accessID string) error {
	s.revoked = append(s.revoked, accessID)
	return nil
}

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:                 "test-secret",
		Issuer:                 "newsline-test",
		ExpirationMinutes:      15,
		RefreshTokenTTLMinutes: 60,
	}
}

func testPasswordConfig() config.PasswordConfig {
	return config.PasswordConfig{
		ArgonMemoryKB:    1024,
		ArgonTime:        1,
		ArgonParallelism: 1,
		ArgonSaltLen:     16,
		ArgonKeyLen:      32,
	}
}

func seedUser(t *testing.T, email, password string) *models.User {
	t.Helper()

	hash, err := security.HashPassword(password, testPasswordConfig())
	require.NoError(t, err)

	return &models.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: hash,
		FirstName:    "Dilnoza",
		LastName:     "Karimova",
		Role:         enums.UserRoleUser,
	}
}

func TestLoginIssuesTokensForValidCredentials(t *testing.T) {
	user := seedUser(t, "dilnoza@example.com", "correct horse battery")
	sessions := &stubSessionManager{refreshToken: "refresh-1"}
	svc, err := NewService(ServiceParams{
		UserRepo:       &stubUserRepo{byEmail: map[string]*models.User{user.Email: user}},
		SessionManager: sessions,
		JWTConfig:      testJWTConfig(),
	})
	require.NoError(t, err)

	resp, err := svc.Login(context.Background(), LoginRequest{
		Email:    "  Dilnoza@Example.com ",
		Password: "correct horse battery",
	})
	require.NoError(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, "refresh-1", resp.RefreshToken)
	require.NotNil(t, resp.User)
	assert.Equal(t, user.ID, resp.User.ID)

	claims, err := pkgauth.ParseAccessToken(testJWTConfig(), resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, enums.UserRoleUser, claims.Role)

	// Refresh token session must be keyed by the minted JTI.
	require.Len(t, sessions.generated, 1)
	assert.Equal(t, claims.ID, sessions.generated[0])
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	user := seedUser(t, "dilnoza@example.com", "correct horse battery")
	svc, err := NewService(ServiceParams{
		UserRepo:       &stubUserRepo{byEmail: map[string]*models.User{user.Email: user}},
		SessionManager: &stubSessionManager{},
		JWTConfig:      testJWTConfig(),
	})
	require.NoError(t, err)

	_, err = svc.Login(context.Background(), LoginRequest{
		Email:    user.Email,
		Password: "nope",
	})
	require.Error(t, err)
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeUnauthorized, appErr.Code())
	assert.Equal(t, invalidCredentialsMessage, appErr.Message())
}

func TestLoginDoesNotRevealUnknownAccounts(t *testing.T) {
	svc, err := NewService(ServiceParams{
		UserRepo:       &stubUserRepo{byEmail: map[string]*models.User{}},
		SessionManager: &stubSessionManager{},
		JWTConfig:      testJWTConfig(),
	})
	require.NoError(t, err)

	_, err = svc.Login(context.Background(), LoginRequest{
		Email:    "missing@example.com",
		Password: "whatever",
	})
	require.Error(t, err)
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeUnauthorized, appErr.Code())
	assert.Equal(t, invalidCredentialsMessage, appErr.Message())
}

func TestRefreshRotatesSessionAndRemints(t *testing.T) {
	user := seedUser(t, "dilnoza@example.com", "correct horse battery")
	cfg := testJWTConfig()

	oldAccessID := session.NewAccessID()
	oldToken, err := pkgauth.MintAccessToken(cfg, time.Now().UTC(), pkgauth.AccessTokenPayload{
		UserID: user.ID,
		Role:   user.Role,
		JTI:    oldAccessID,
	})
	require.NoError(t, err)

	sessions := &stubSessionManager{}
	svc, err := NewService(ServiceParams{
		UserRepo:       &stubUserRepo{byID: map[uuid.UUID]*models.User{user.ID: user}},
		SessionManager: sessions,
		JWTConfig:      cfg,
	})
	require.NoError(t, err)

	resp, err := svc.Refresh(context.Background(), RefreshRequest{
		AccessToken:  oldToken,
		RefreshToken: "provided-refresh",
	})
	require.NoError(t, err)
	assert.Equal(t, oldAccessID, sessions.rotateFrom)
	assert.Equal(t, "rotated-refresh", resp.RefreshToken)

	claims, err := pkgauth.ParseAccessToken(cfg, resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.NotEqual(t, oldAccessID, claims.ID)
}

func TestRefreshRejectsInvalidRefreshToken(t *testing.T) {
	user := seedUser(t, "dilnoza@example.com", "correct horse battery")
	cfg := testJWTConfig()

	oldToken, err := pkgauth.MintAccessToken(cfg, time.Now().UTC(), pkgauth.AccessTokenPayload{
		UserID: user.ID,
		Role:   user.Role,
	})
	require.NoError(t, err)

	svc, err := NewService(ServiceParams{
		UserRepo:       &stubUserRepo{byID: map[uuid.UUID]*models.User{user.ID: user}},
		SessionManager: &stubSessionManager{rotateErr: session.ErrInvalidRefreshToken},
		JWTConfig:      cfg,
	})
	require.NoError(t, err)

	_, err = svc.Refresh(context.Background(), RefreshRequest{
		AccessToken:  oldToken,
		RefreshToken: "stale",
	})
	require.Error(t, err)
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeUnauthorized, appErr.Code())
}

func TestLogoutRevokesSession(t *testing.T) {
	sessions := &stubSessionManager{}
	svc, err := NewService(ServiceParams{
		UserRepo:       &stubUserRepo{},
		SessionManager: sessions,
		JWTConfig:      testJWTConfig(),
	})
	require.NoError(t, err)

	require.NoError(t, svc.Logout(context.Background(), "access-123"))
	assert.Equal(t, []string{"access-123"}, sessions.revoked)

	err = svc.Logout(context.Background(), "  ")
	require.Error(t, err)
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeUnauthorized, appErr.Code())
}

func TestNewServiceValidatesDependencies(t *testing.T) {
	_, err := NewService(ServiceParams{SessionManager: &stubSessionManager{}})
	require.Error(t, err)

	_, err = NewService(ServiceParams{UserRepo: &stubUserRepo{}})
	require.Error(t, err)
}

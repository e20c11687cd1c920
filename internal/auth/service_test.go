package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	pkgauth "github.com/hanbitmall/hanbit-backend/pkg/auth"
	"github.com/hanbitmall/hanbit-backend/pkg/auth/session"
	"github.com/hanbitmall/hanbit-backend/pkg/config"
	"github.com/hanbitmall/hanbit-backend/pkg/db/models"
	"github.com/hanbitmall/hanbit-backend/pkg/enums"
	pkgerrors "github.com/hanbitmall/hanbit-backend/pkg/errors"
	"github.com/hanbitmall/hanbit-backend/pkg/security"
)

type stubUserRepo struct {
	created     *models.User
	lastLoginAt *time.Time

	create      func(ctx context.Context, user *models.User) (*models.User, error)
	findByID    func(ctx context.Context, id uuid.UUID) (*models.User, error)
	findByEmail func(ctx context.Context, email string) (*models.User, error)
}

func (s *stubUserRepo) Create(ctx context.Context, user *models.User) (*models.User, error) {
	if s.create != nil {
		return s.create(ctx, user)
	}
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	s.created = user
	return user, nil
}

func (s *stubUserRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	if s.findByID != nil {
		return s.findByID(ctx, id)
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubUserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	if s.findByEmail != nil {
		return s.findByEmail(ctx, email)
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubUserRepo) TouchLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	s.lastLoginAt = &at
	return nil
}

type stubSession struct {
	generated string
	revoked   string
	rotateErr error
}

func (s *stubSession) Generate(ctx context.Context, accessID string) (string, error) {
	s.generated = accessID
	return "refresh-token-1", nil
}

func (s *stubSession) Rotate(ctx context.Context, oldAccessID, provided string) (string, string, error) {
	if s.rotateErr != nil {
		return "", "", s.rotateErr
	}
	return "access-id-2", "refresh-token-2", nil
}

func (s *stubSession) Revoke(ctx context.Context, accessID string) error {
	s.revoked = accessID
	return nil
}

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:            "test-secret",
		Issuer:            "hanbit-mall",
		ExpirationMinutes: 30,
	}
}

func newAuthService(t *testing.T, users userRepository, sessions sessionManager) Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		UserRepo:       users,
		SessionManager: sessions,
		JWTConfig:      testJWTConfig(),
		PasswordConfig: config.PasswordConfig{},
	})
	require.NoError(t, err)
	return svc
}

func activeUser(t *testing.T, email, password string) *models.User {
	t.Helper()
	hash, err := security.HashPassword(password, config.PasswordConfig{})
	require.NoError(t, err)
	return &models.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: hash,
		Name:         "Kim Hana",
		UserType:     enums.UserTypeCustomer,
		IsActive:     true,
	}
}

func TestRegisterCreatesCustomer(t *testing.T) {
	repo := &stubUserRepo{}
	svc := newAuthService(t, repo, &stubSession{})

	user, err := svc.Register(context.Background(), RegisterInput{
		Email:    "  Hana@Example.COM ",
		Password: "correct horse",
		Name:     "Kim Hana",
	})
	require.NoError(t, err)
	assert.Equal(t, "hana@example.com", user.Email)
	assert.Equal(t, enums.UserTypeCustomer, user.UserType)
	assert.True(t, user.IsActive)
	assert.NotEqual(t, "correct horse", user.PasswordHash)
	assert.Contains(t, user.PasswordHash, "$argon2id$")
}

func TestRegisterDuplicateEmailConflicts(t *testing.T) {
	repo := &stubUserRepo{
		create: func(ctx context.Context, user *models.User) (*models.User, error) {
			return nil, errors.New(`duplicate key value violates unique constraint "idx_users_email"`)
		},
	}
	svc := newAuthService(t, repo, &stubSession{})

	_, err := svc.Register(context.Background(), RegisterInput{
		Email:    "hana@example.com",
		Password: "correct horse",
		Name:     "Kim Hana",
	})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeConflict, typed.Code())
}

func TestRegisterValidatesInput(t *testing.T) {
	svc := newAuthService(t, &stubUserRepo{}, &stubSession{})
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterInput{Password: "correct horse", Name: "x"})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())

	_, err = svc.Register(ctx, RegisterInput{Email: "a@b.c", Password: "short", Name: "x"})
	typed = pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())

	_, err = svc.Register(ctx, RegisterInput{Email: "a@b.c", Password: "correct horse"})
	typed = pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
}

func TestLoginIssuesTokenPair(t *testing.T) {
	user := activeUser(t, "hana@example.com", "correct horse")
	repo := &stubUserRepo{
		findByEmail: func(ctx context.Context, email string) (*models.User, error) {
			require.Equal(t, "hana@example.com", email)
			return user, nil
		},
	}
	sessions := &stubSession{}
	svc := newAuthService(t, repo, sessions)

	result, err := svc.Login(context.Background(), LoginInput{
		Email:    "Hana@Example.com",
		Password: "correct horse",
	})
	require.NoError(t, err)
	assert.Equal(t, "refresh-token-1", result.RefreshToken)
	assert.NotNil(t, repo.lastLoginAt)
	assert.True(t, result.ExpiresAt.After(time.Now()))

	claims, err := pkgauth.ParseAccessToken(testJWTConfig(), result.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, enums.UserTypeCustomer, claims.UserType)
	assert.Equal(t, sessions.generated, claims.ID, "session is keyed by the token jti")
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	user := activeUser(t, "hana@example.com", "correct horse")
	repo := &stubUserRepo{
		findByEmail: func(ctx context.Context, email string) (*models.User, error) {
			if email == user.Email {
				return user, nil
			}
			return nil, gorm.ErrRecordNotFound
		},
	}
	svc := newAuthService(t, repo, &stubSession{})
	ctx := context.Background()

	_, err := svc.Login(ctx, LoginInput{Email: "hana@example.com", Password: "wrong"})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeUnauthorized, typed.Code())
	assert.Equal(t, invalidCredentialsMessage, typed.Message())

	_, err = svc.Login(ctx, LoginInput{Email: "nobody@example.com", Password: "correct horse"})
	typed = pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeUnauthorized, typed.Code())
	assert.Equal(t, invalidCredentialsMessage, typed.Message(), "unknown email and bad password are indistinguishable")
}

func TestLoginRejectsDisabledAccount(t *testing.T) {
	user := activeUser(t, "hana@example.com", "correct horse")
	user.IsActive = false
	repo := &stubUserRepo{
		findByEmail: func(ctx context.Context, email string) (*models.User, error) {
			return user, nil
		},
	}
	svc := newAuthService(t, repo, &stubSession{})

	_, err := svc.Login(context.Background(), LoginInput{Email: "hana@example.com", Password: "correct horse"})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeUnauthorized, typed.Code())
}

func TestRefreshRotatesSession(t *testing.T) {
	user := activeUser(t, "hana@example.com", "correct horse")
	repo := &stubUserRepo{
		findByID: func(ctx context.Context, id uuid.UUID) (*models.User, error) {
			return user, nil
		},
	}
	svc := newAuthService(t, repo, &stubSession{})

	oldToken, err := pkgauth.MintAccessToken(testJWTConfig(), time.Now(), pkgauth.AccessTokenPayload{
		UserID:   user.ID,
		UserType: user.UserType,
		JTI:      "access-id-1",
	})
	require.NoError(t, err)

	result, err := svc.Refresh(context.Background(), RefreshInput{
		AccessToken:  oldToken,
		RefreshToken: "refresh-token-1",
	})
	require.NoError(t, err)
	assert.Equal(t, "refresh-token-2", result.RefreshToken)

	claims, err := pkgauth.ParseAccessToken(testJWTConfig(), result.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "access-id-2", claims.ID)
	assert.Equal(t, user.ID, claims.UserID)
}

func TestRefreshRejectsInvalidRefreshToken(t *testing.T) {
	user := activeUser(t, "hana@example.com", "correct horse")
	repo := &stubUserRepo{
		findByID: func(ctx context.Context, id uuid.UUID) (*models.User, error) {
			return user, nil
		},
	}
	svc := newAuthService(t, repo, &stubSession{rotateErr: session.ErrInvalidRefreshToken})

	oldToken, err := pkgauth.MintAccessToken(testJWTConfig(), time.Now(), pkgauth.AccessTokenPayload{
		UserID:   user.ID,
		UserType: user.UserType,
		JTI:      "access-id-1",
	})
	require.NoError(t, err)

	_, err = svc.Refresh(context.Background(), RefreshInput{
		AccessToken:  oldToken,
		RefreshToken: "stolen",
	})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeUnauthorized, typed.Code())
}

func TestLogoutRevokesSession(t *testing.T) {
	sessions := &stubSession{}
	svc := newAuthService(t, &stubUserRepo{}, sessions)

	token, err := pkgauth.MintAccessToken(testJWTConfig(), time.Now(), pkgauth.AccessTokenPayload{
		UserID:   uuid.New(),
		UserType: enums.UserTypeCustomer,
		JTI:      "access-id-1",
	})
	require.NoError(t, err)

	require.NoError(t, svc.Logout(context.Background(), token))
	assert.Equal(t, "access-id-1", sessions.revoked)
}

func TestProfileNotFound(t *testing.T) {
	svc := newAuthService(t, &stubUserRepo{}, &stubSession{})

	_, err := svc.Profile(context.Background(), uuid.New())
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}

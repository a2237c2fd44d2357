package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/sma-fees-api/internal/models"
	appErrors "github.com/noah-isme/sma-fees-api/pkg/errors"
)

type mockAuthRepo struct {
	userByEmail      *models.User
	findByEmailErr   error
	lastLoginUpdated bool
}

func (m *mockAuthRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	if m.findByEmailErr != nil {
		return nil, m.findByEmailErr
	}
	return m.userByEmail, nil
}

func (m *mockAuthRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	return m.userByEmail, nil
}

func (m *mockAuthRepo) UpdateLastLogin(ctx context.Context, id string, ts time.Time) error {
	m.lastLoginUpdated = true
	return nil
}

func bursarUser(t *testing.T) *models.User {
	password, err := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.DefaultCost)
	require.NoError(t, err)
	return &models.User{
		ID:           "user-1",
		SchoolID:     "school-1",
		Email:        "bursar@example.com",
		FullName:     "Test Bursar",
		PasswordHash: string(password),
		Role:         models.RoleBursar,
		Active:       true,
	}
}

func authConfig() AuthConfig {
	return AuthConfig{AccessTokenSecret: "secret", AccessTokenExpiry: time.Hour, Issuer: "sma-fees-api"}
}

func TestAuthServiceLoginSuccess(t *testing.T) {
	repo := &mockAuthRepo{userByEmail: bursarUser(t)}
	svc := NewAuthService(repo, validator.New(), zap.NewNop(), authConfig())

	res, err := svc.Login(context.Background(), models.LoginRequest{Email: "bursar@example.com", Password: "password"})
	require.NoError(t, err)

	assert.NotEmpty(t, res.AccessToken)
	assert.Equal(t, "school-1", res.User.SchoolID)
	assert.Equal(t, models.RoleBursar, res.User.Role)
	assert.True(t, repo.lastLoginUpdated)

	claims, err := svc.ValidateToken(res.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "school-1", claims.SchoolID)
	assert.Equal(t, models.RoleBursar, claims.Role)
}

func TestAuthServiceLoginWrongPassword(t *testing.T) {
	repo := &mockAuthRepo{userByEmail: bursarUser(t)}
	svc := NewAuthService(repo, validator.New(), zap.NewNop(), authConfig())

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "bursar@example.com", Password: "wrong"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceLoginUnknownEmail(t *testing.T) {
	repo := &mockAuthRepo{findByEmailErr: sql.ErrNoRows}
	svc := NewAuthService(repo, validator.New(), zap.NewNop(), authConfig())

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "nobody@example.com", Password: "password"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceLoginInactiveAccount(t *testing.T) {
	user := bursarUser(t)
	user.Active = false
	svc := NewAuthService(&mockAuthRepo{userByEmail: user}, validator.New(), zap.NewNop(), authConfig())

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "bursar@example.com", Password: "password"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInactiveAccount.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceValidateTokenRejectsTampered(t *testing.T) {
	svc := NewAuthService(&mockAuthRepo{userByEmail: bursarUser(t)}, validator.New(), zap.NewNop(), authConfig())

	res, err := svc.Login(context.Background(), models.LoginRequest{Email: "bursar@example.com", Password: "password"})
	require.NoError(t, err)

	other := NewAuthService(&mockAuthRepo{}, validator.New(), zap.NewNop(), AuthConfig{AccessTokenSecret: "different", AccessTokenExpiry: time.Hour})
	_, err = other.ValidateToken(res.AccessToken)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}

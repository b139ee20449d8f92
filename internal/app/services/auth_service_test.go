package services

import (
	"context"
	"testing"
	"time"

	"github.com/attachtrack/attachtrack/internal/app/models"
	"github.com/attachtrack/attachtrack/internal/app/repositories/memstore"
	"github.com/attachtrack/attachtrack/internal/pkg/apperrors"
	"github.com/attachtrack/attachtrack/internal/pkg/auth"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newAuthFixture(t *testing.T) (*AuthService, *RosterIngestService, *auth.JWTService, *memstore.Store) {
	t.Helper()
	store := memstore.New()
	hasher := auth.NewBcryptHasher(bcrypt.MinCost)
	jwtService := auth.NewJWTService(auth.JWTConfig{
		SecretKey:      "test-secret",
		AccessTokenExp: time.Hour,
		TokenIssuer:    "attachtrack-test",
	})
	authSvc := NewAuthService(store, hasher, jwtService, zerolog.Nop())
	ingest := NewRosterIngestService(store, hasher, &recordingNotifier{}, 200, zerolog.Nop())
	return authSvc, ingest, jwtService, store
}

func TestLoginResetFlow(t *testing.T) {
	authSvc, ingest, jwtService, _ := newAuthFixture(t)
	ctx := context.Background()

	_, err := ingest.IngestStudents(ctx, studentBatch(1), true)
	require.NoError(t, err)

	// a fresh credential only accepts its temporary password and yields a reset
	result, err := authSvc.Login(ctx, "SCT211-0001/2020", "+254700000001")
	require.NoError(t, err)
	assert.True(t, result.Reset)
	assert.Empty(t, result.AccessToken)
	assert.Nil(t, result.Identity)

	_, err = authSvc.Login(ctx, "SCT211-0001/2020", "0700000001")
	assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
	assert.EqualError(t, err, "Invalid username/password")

	result, err = authSvc.ResetPassword(ctx, "SCT211-0001/2020", "s3cret-pass")
	require.NoError(t, err)
	assert.False(t, result.Reset)
	require.NotNil(t, result.Identity)
	assert.Equal(t, models.CredentialStudent, result.Identity.Type)
	assert.Equal(t, "SCT211-0001/2020", result.Identity.Username)
	assert.Equal(t, 3600, result.ExpiresIn)

	claims, err := jwtService.ValidateToken(result.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, result.Identity.ID, claims.CredentialID)
	assert.Equal(t, result.Identity.TypeID, claims.TypeID)
	assert.Equal(t, "Student", claims.Type)

	_, err = authSvc.Login(ctx, "SCT211-0001/2020", "+254700000001")
	assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)

	result, err = authSvc.Login(ctx, " SCT211-0001/2020 ", "s3cret-pass")
	require.NoError(t, err)
	assert.NotEmpty(t, result.AccessToken)
}

func TestLoginUnknownUser(t *testing.T) {
	authSvc, _, _, _ := newAuthFixture(t)

	_, err := authSvc.Login(context.Background(), "ghost", "whatever")
	assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
	assert.EqualError(t, err, "Invalid username/password")
}

func TestResetPasswordValidation(t *testing.T) {
	authSvc, _, _, _ := newAuthFixture(t)
	ctx := context.Background()

	_, err := authSvc.ResetPassword(ctx, "ghost", "")
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)

	_, err = authSvc.ResetPassword(ctx, "ghost", "new-pass")
	assert.ErrorIs(t, err, apperrors.ErrBadRequest)
}

func TestEnsureAdmin(t *testing.T) {
	authSvc, _, _, store := newAuthFixture(t)
	ctx := context.Background()

	_, err := authSvc.EnsureAdmin(ctx, "admin", "")
	assert.Error(t, err)

	created, err := authSvc.EnsureAdmin(ctx, "admin", "ChangeMe!")
	require.NoError(t, err)
	assert.True(t, created)

	created, err = authSvc.EnsureAdmin(ctx, "admin", "other")
	require.NoError(t, err)
	assert.False(t, created)

	user, err := store.Users().GetByUsername(ctx, "admin")
	require.NoError(t, err)
	assert.Equal(t, models.CredentialAdmin, user.Type)
	assert.Zero(t, user.TypeID)
	assert.True(t, user.Reset)

	result, err := authSvc.Login(ctx, "admin", "ChangeMe!")
	require.NoError(t, err)
	assert.True(t, result.Reset)
}

func TestLoginAcceptsUsernameInAnyCase(t *testing.T) {
	authSvc, ingest, _, _ := newAuthFixture(t)
	ctx := context.Background()

	_, err := ingest.IngestStudents(ctx, studentBatch(1), true)
	require.NoError(t, err)
	_, err = ingest.IngestSupervisors(ctx, []RosterRecord{supervisorRecord("STF-001", "0711000001")})
	require.NoError(t, err)

	result, err := authSvc.Login(ctx, " sct211-0001/2020 ", "+254700000001")
	require.NoError(t, err)
	assert.True(t, result.Reset)

	result, err = authSvc.Login(ctx, "STF-001@Example.AC.KE", "+254711000001")
	require.NoError(t, err)
	assert.True(t, result.Reset)

	result, err = authSvc.ResetPassword(ctx, "sct211-0001/2020", "s3cret-pass")
	require.NoError(t, err)
	require.NotNil(t, result.Identity)
	assert.Equal(t, "SCT211-0001/2020", result.Identity.Username)

	created, err := authSvc.EnsureAdmin(ctx, "admin", "ChangeMe!")
	require.NoError(t, err)
	require.True(t, created)
	result, err = authSvc.Login(ctx, "admin", "ChangeMe!")
	require.NoError(t, err)
	assert.True(t, result.Reset)
}

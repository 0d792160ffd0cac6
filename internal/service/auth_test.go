package service_test

import (
	"strconv"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrei-d/partybank/internal/apperrors"
)

func TestRegisterAndLogin(t *testing.T) {
	f := newFixture(t)

	user, err := f.svc.Register(f.ctx, "alice_92", "alice@example.com", "Alice", "Ionescu", "s3cretpass")
	require.NoError(t, err)
	assert.NotZero(t, user.ID)
	assert.NotEqual(t, "s3cretpass", user.PasswordHash)

	token, err := f.svc.Login(f.ctx, "alice@example.com", "s3cretpass")
	require.NoError(t, err)

	parsed, err := jwt.ParseWithClaims(token, &jwt.RegisteredClaims{}, func(*jwt.Token) (interface{}, error) {
		return []byte("test-secret"), nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	require.NoError(t, err)
	claims := parsed.Claims.(*jwt.RegisteredClaims)
	assert.Equal(t, strconv.FormatInt(user.ID, 10), claims.Subject)
}

func TestRegisterValidation(t *testing.T) {
	f := newFixture(t)

	var validation *apperrors.ValidationError

	_, err := f.svc.Register(f.ctx, "No Spaces!", "a@example.com", "A", "B", "s3cretpass")
	require.ErrorAs(t, err, &validation)
	assert.Equal(t, "tag", validation.Field)

	_, err = f.svc.Register(f.ctx, "ok", "a@example.com", "A", "B", "s3cretpass")
	require.ErrorAs(t, err, &validation)
	assert.Equal(t, "tag", validation.Field, "tags under 3 characters rejected")

	_, err = f.svc.Register(f.ctx, "alice", "a@example.com", "A", "B", "short")
	require.ErrorAs(t, err, &validation)
	assert.Equal(t, "password", validation.Field)
}

func TestLoginBadCredentials(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Register(f.ctx, "alice", "alice@example.com", "Alice", "", "s3cretpass")
	require.NoError(t, err)

	_, err = f.svc.Login(f.ctx, "alice@example.com", "wrongpass")
	assert.EqualError(t, err, "invalid credentials")

	_, err = f.svc.Login(f.ctx, "nobody@example.com", "s3cretpass")
	assert.EqualError(t, err, "invalid credentials")
}

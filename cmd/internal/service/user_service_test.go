package service

import (
	"context"
	"strings"
	"testing"

	"linkednotes/cmd/internal/contract"
	"linkednotes/cmd/internal/utils/apierror"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserService_RegisterAndLogin(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, harnessOpts{})

	user, apierr := h.users.CreateUser(ctx, &contract.CreateUserRequest{Username: "alice", Password: "s3cret-pass"})
	require.Nil(t, apierr)
	assert.Equal(t, "alice", user.Username)

	stored, err := h.userRepo.FindByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(stored.PasswordHash, "$argon2id$"))
	assert.NotContains(t, stored.PasswordHash, "s3cret-pass")

	login, apierr := h.users.Login(ctx, &contract.UserLoginRequest{Username: "alice", Password: "s3cret-pass"})
	require.Nil(t, apierr)
	assert.Len(t, login.Token, 64)
	assert.Equal(t, login.Token, login.AccessToken)

	me, apierr := h.users.Authenticate(ctx, login.Token)
	require.Nil(t, apierr)
	assert.Equal(t, user.ID, me.ID)
}

func TestUserService_DuplicateUsername(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, harnessOpts{})
	h.register(t, "alice")

	_, apierr := h.users.CreateUser(ctx, &contract.CreateUserRequest{Username: "alice", Password: "another-pass"})
	assert.Equal(t, apierror.DuplicateUsernameError, apierr)
}

func TestUserService_Validation(t *testing.T) {
	h := newHarness(t, harnessOpts{})

	_, apierr := h.users.CreateUser(context.Background(), &contract.CreateUserRequest{Username: "a b", Password: "short"})
	require.NotNil(t, apierr)
	assert.Equal(t, apierror.KindValidation, apierr.Kind())

	structured := apierr.(*apierror.StructuredError)
	assert.Contains(t, structured.Errors, "username")
	assert.Contains(t, structured.Errors, "password")
}

func TestUserService_InvalidCredentials(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, harnessOpts{})
	h.register(t, "alice")

	_, apierr := h.users.Login(ctx, &contract.UserLoginRequest{Username: "alice", Password: "wrong password"})
	assert.Equal(t, apierror.InvalidCredentialsError, apierr)

	_, apierr = h.users.Login(ctx, &contract.UserLoginRequest{Username: "nobody", Password: "correct horse"})
	assert.Equal(t, apierror.InvalidCredentialsError, apierr)
}

func TestUserService_AuthenticateRejectsUnknownTokens(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, harnessOpts{})

	_, apierr := h.users.Authenticate(ctx, "")
	assert.Equal(t, apierror.InvalidAuthTokenError, apierr)

	_, apierr = h.users.Authenticate(ctx, "deadbeef")
	assert.Equal(t, apierror.InvalidAuthTokenError, apierr)
}

func TestUserService_Logout(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, harnessOpts{})
	h.register(t, "alice")

	login, apierr := h.users.Login(ctx, &contract.UserLoginRequest{Username: "alice", Password: "correct horse"})
	require.Nil(t, apierr)

	require.Nil(t, h.users.Logout(ctx, login.Token))
	_, apierr = h.users.Authenticate(ctx, login.Token)
	assert.Equal(t, apierror.InvalidAuthTokenError, apierr)

	// Logging out twice is harmless.
	assert.Nil(t, h.users.Logout(ctx, login.Token))
}

package services

import (
	"context"
	"testing"

	"github.com/dmitrijs2005/veyra/internal/client/client"
	"github.com/dmitrijs2005/veyra/internal/veyratest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuth_LoginAndChangePassword(t *testing.T) {
	srv := veyratest.New(t)
	c := client.NewHTTPClient(srv.URL)
	auth := NewAuth(c)
	ctx := context.Background()

	res, err := auth.Login(ctx, veyratest.AdminUsername, veyratest.AdminPassword)
	require.NoError(t, err)
	assert.Equal(t, veyratest.AdminUsername, res.User.Username)

	msg, err := auth.ChangePassword(ctx, veyratest.AdminPassword, "rotated")
	require.NoError(t, err)
	assert.NotEmpty(t, msg)

	// The next refresh must use the new password.
	srv.RejectNext(1)
	_, err = NewAnalytics(c).Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, srv.Logins())
}

func TestAuth_ChangePasswordWrongCurrent(t *testing.T) {
	c, _ := newSession(t)

	_, err := NewAuth(c).ChangePassword(context.Background(), "wrong", "x")
	reqErr, ok := client.AsRequestError(err)
	require.True(t, ok)
	assert.Equal(t, "Current password is incorrect", reqErr.RemoteMessage())
}

func TestAuth_LoginRejected(t *testing.T) {
	srv := veyratest.New(t)
	_, err := NewAuth(client.NewHTTPClient(srv.URL)).Login(context.Background(), "admin", "nope")
	assert.ErrorIs(t, err, client.ErrUnauthorized)
}

func TestAnalytics_Get(t *testing.T) {
	c, _ := newSession(t)
	ctx := context.Background()

	_, err := NewVerifications(c).CreateOrUpdate(ctx, verificationRequest("1", "c"))
	require.NoError(t, err)

	a, err := NewAnalytics(c).Get(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, a.TotalVerifications)
	assert.EqualValues(t, 1, a.RecentVerifications)
	assert.EqualValues(t, 1, a.TotalUsers)
	require.Len(t, a.VerificationMethods, 1)
	assert.Equal(t, "manual", a.VerificationMethods[0].VerificationMethod)
}

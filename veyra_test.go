package veyra_test

import (
	"context"
	"testing"
	"time"

	"github.com/dmitrijs2005/veyra"
	"github.com/dmitrijs2005/veyra/internal/veyratest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_UserScenario(t *testing.T) {
	srv := veyratest.New(t)
	c := veyra.New(veyra.Config{BaseURL: srv.URL})
	ctx := context.Background()

	me, err := c.Login(ctx, veyratest.AdminUsername, veyratest.AdminPassword)
	require.NoError(t, err)
	assert.True(t, me.IsAdmin())
	assert.NotEmpty(t, c.Token())

	a, err := c.Users().Create(ctx, "a", "p", veyra.RoleUser)
	require.NoError(t, err)

	byID, err := c.Users().Get(ctx, veyra.UserByID(a.ID()))
	require.NoError(t, err)
	byName, err := c.Users().Get(ctx, veyra.UserByUsername("a"))
	require.NoError(t, err)
	assert.Same(t, byID, byName)

	require.NoError(t, byID.UpdateRole(ctx, veyra.RoleAdmin))
	assert.True(t, byName.IsAdmin())

	_, err = byID.Delete(ctx)
	require.NoError(t, err)
	gone, err := c.Users().Get(ctx, veyra.UserByID(a.ID()))
	require.NoError(t, err)
	assert.Nil(t, gone)
}

func TestClient_VerificationScenario(t *testing.T) {
	srv := veyratest.New(t)
	c := veyra.New(veyra.Config{BaseURL: srv.URL})
	ctx := context.Background()

	_, err := c.Login(ctx, veyratest.AdminUsername, veyratest.AdminPassword)
	require.NoError(t, err)

	v, err := c.Verifications().CreateOrUpdate(ctx, veyra.CreateVerification{
		DiscordID:     "1",
		Ckey:          "c",
		VerifiedFlags: veyra.Flags{"existing": true},
	})
	require.NoError(t, err)

	_, err = v.Update(ctx, veyra.VerificationPatch{VerifiedFlags: veyra.Flags{"f": true}})
	require.NoError(t, err)
	assert.Equal(t, veyra.Flags{"existing": true, "f": true}, v.VerifiedFlags())

	msg, err := c.Verifications().Update(ctx, veyra.ByCkey("c"), veyra.VerificationPatch{})
	require.NoError(t, err)
	assert.Equal(t, veyra.NoChangesMessage, msg)
}

func TestClient_ExpiredTokensRefreshOncePerAttempt(t *testing.T) {
	srv := veyratest.New(t, veyratest.WithTokenTTL(-time.Minute))
	c := veyra.New(veyra.Config{
		BaseURL:  srv.URL,
		Username: veyratest.AdminUsername,
		Password: veyratest.AdminPassword,
	})
	ctx := context.Background()

	_, err := c.Login(ctx, veyratest.AdminUsername, veyratest.AdminPassword)
	// Every issued token is already expired, so the follow-up user fetch
	// refreshes once and is then rejected by the server.
	require.Error(t, err)
	assert.ErrorIs(t, err, veyra.ErrUnauthorized)
	assert.Equal(t, 3, srv.Logins())
}

func TestClient_LoginAsNonAdmin(t *testing.T) {
	srv := veyratest.New(t, veyratest.WithUser("mod", "pw", "user"))
	c := veyra.New(veyra.Config{BaseURL: srv.URL})

	me, err := c.Login(context.Background(), "mod", "pw")
	require.NoError(t, err)
	assert.Equal(t, "mod", me.Username())
	assert.False(t, me.IsAdmin())
}

func TestClient_LoginRejected(t *testing.T) {
	srv := veyratest.New(t)
	c := veyra.New(veyra.Config{BaseURL: srv.URL})

	_, err := c.Login(context.Background(), "admin", "wrong")
	var authErr *veyra.AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, "Invalid credentials", authErr.Message)
}

func TestClients_DoNotShareRegistries(t *testing.T) {
	srv := veyratest.New(t)
	ctx := context.Background()

	c1 := veyra.New(veyra.Config{BaseURL: srv.URL})
	c2 := veyra.New(veyra.Config{BaseURL: srv.URL})
	me1, err := c1.Login(ctx, veyratest.AdminUsername, veyratest.AdminPassword)
	require.NoError(t, err)
	me2, err := c2.Login(ctx, veyratest.AdminUsername, veyratest.AdminPassword)
	require.NoError(t, err)

	assert.NotSame(t, me1, me2)
	assert.Equal(t, me1.ID(), me2.ID())
}

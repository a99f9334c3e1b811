package cli

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/veyra"
	"github.com/dmitrijs2005/veyra/internal/client/client"
	"github.com/dmitrijs2005/veyra/internal/client/config"
	"github.com/dmitrijs2005/veyra/internal/logging"
	"github.com/dmitrijs2005/veyra/internal/veyratest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stubPasswords(t *testing.T, pws ...string) {
	t.Helper()
	orig := getPassword
	i := 0
	getPassword = func(string, io.Writer) ([]byte, error) {
		if i >= len(pws) {
			return nil, errors.New("no more passwords")
		}
		pw := []byte(pws[i])
		i++
		return pw, nil
	}
	t.Cleanup(func() { getPassword = orig })
}

func newTestApp(t *testing.T, cfg *config.Config) (*App, *bytes.Buffer) {
	t.Helper()
	a, err := NewApp(context.Background(), cfg, logging.Nop())
	require.NoError(t, err)
	var out bytes.Buffer
	a.out = &out
	return a, &out
}

func testConfig(t *testing.T, srv *veyratest.Server) *config.Config {
	t.Helper()
	return &config.Config{
		BaseURL: srv.URL,
		Timeout: 5 * time.Second,
		DBPath:  filepath.Join(t.TempDir(), "state", "cli.db"),
	}
}

func loggedInApp(t *testing.T, srv *veyratest.Server) (*App, *bytes.Buffer) {
	t.Helper()
	a, out := newTestApp(t, testConfig(t, srv))
	t.Cleanup(func() { _ = a.Close() })

	stubPasswords(t, veyratest.AdminPassword)
	require.NoError(t, a.Login(context.Background(), []string{veyratest.AdminUsername}))
	out.Reset()
	return a, out
}

func TestApp_Login(t *testing.T) {
	srv := veyratest.New(t)
	a, out := newTestApp(t, testConfig(t, srv))
	defer a.Close()

	stubPasswords(t, veyratest.AdminPassword)
	require.NoError(t, a.Login(context.Background(), []string{veyratest.AdminUsername}))

	assert.True(t, a.isLoggedIn())
	assert.Equal(t, "(admin)", a.status())
	assert.Contains(t, out.String(), "Logged in as admin (admin)")
}

func TestApp_LoginRejected(t *testing.T) {
	srv := veyratest.New(t)
	a, _ := newTestApp(t, testConfig(t, srv))
	defer a.Close()

	stubPasswords(t, "wrong")
	err := a.Login(context.Background(), []string{veyratest.AdminUsername})

	var authErr *veyra.AuthError
	require.ErrorAs(t, err, &authErr)
	assert.False(t, a.isLoggedIn())
}

func TestApp_LoginPromptsWithLastUsername(t *testing.T) {
	srv := veyratest.New(t)
	cfg := testConfig(t, srv)

	first, _ := newTestApp(t, cfg)
	stubPasswords(t, veyratest.AdminPassword, veyratest.AdminPassword)
	require.NoError(t, first.Login(context.Background(), []string{veyratest.AdminUsername}))
	require.NoError(t, first.Close())

	second, out := newTestApp(t, cfg)
	defer second.Close()
	second.reader = bufio.NewReader(strings.NewReader("\n"))
	require.NoError(t, second.Login(context.Background(), nil))

	assert.Contains(t, out.String(), "Enter username [admin]")
	assert.Equal(t, veyratest.AdminUsername, second.userName)
}

func TestApp_RestoresSavedSession(t *testing.T) {
	srv := veyratest.New(t)
	cfg := testConfig(t, srv)

	first, _ := newTestApp(t, cfg)
	stubPasswords(t, veyratest.AdminPassword)
	require.NoError(t, first.Login(context.Background(), []string{veyratest.AdminUsername}))
	require.NoError(t, first.Close())

	second, out := newTestApp(t, cfg)
	defer second.Close()
	require.True(t, second.restore(context.Background()))
	require.NoError(t, second.Whoami(context.Background(), nil))

	assert.Equal(t, 1, srv.Logins())
	assert.Contains(t, out.String(), "admin role=admin")
}

func TestApp_ExpiredSessionIsNotRestored(t *testing.T) {
	srv := veyratest.New(t)
	cfg := testConfig(t, srv)

	first, _ := newTestApp(t, cfg)
	stubPasswords(t, veyratest.AdminPassword)
	require.NoError(t, first.Login(context.Background(), []string{veyratest.AdminUsername}))
	require.NoError(t, first.Close())

	orig := nowFn
	nowFn = func() time.Time { return time.Now().Add(48 * time.Hour) }
	t.Cleanup(func() { nowFn = orig })

	second, _ := newTestApp(t, cfg)
	defer second.Close()
	assert.False(t, second.restore(context.Background()))
	assert.False(t, second.isLoggedIn())
}

func TestApp_LogoutForgetsSession(t *testing.T) {
	srv := veyratest.New(t)
	cfg := testConfig(t, srv)

	first, _ := newTestApp(t, cfg)
	stubPasswords(t, veyratest.AdminPassword)
	require.NoError(t, first.Login(context.Background(), []string{veyratest.AdminUsername}))
	require.NoError(t, first.Logout(context.Background(), nil))
	assert.False(t, first.isLoggedIn())
	assert.Empty(t, first.api.Token())
	require.NoError(t, first.Close())

	second, _ := newTestApp(t, cfg)
	defer second.Close()
	assert.False(t, second.restore(context.Background()))
}

func TestApp_UserCommands(t *testing.T) {
	srv := veyratest.New(t)
	a, out := loggedInApp(t, srv)
	ctx := context.Background()

	stubPasswords(t, "bob-pass", "bob-pass")
	require.NoError(t, a.AddUser(ctx, []string{"bob"}))
	assert.Contains(t, out.String(), "Created #")
	assert.Contains(t, out.String(), "bob role=user")

	out.Reset()
	require.NoError(t, a.SetRole(ctx, []string{"bob", "admin"}))
	assert.Contains(t, out.String(), "bob role=admin")

	out.Reset()
	require.NoError(t, a.ListUsers(ctx, nil))
	assert.Contains(t, out.String(), "USERNAME")
	assert.Contains(t, out.String(), "bob")

	require.NoError(t, a.DeleteUser(ctx, []string{"bob"}))

	err := a.ShowUser(ctx, []string{"bob"})
	assert.ErrorIs(t, err, veyra.ErrNotFound)
}

func TestApp_UserCommandErrors(t *testing.T) {
	srv := veyratest.New(t)
	a, _ := loggedInApp(t, srv)
	ctx := context.Background()

	assert.ErrorIs(t, a.ShowUser(ctx, nil), ErrUsage)
	assert.ErrorContains(t, a.SetRole(ctx, []string{"admin", "root"}), "unknown role")
	assert.ErrorContains(t, a.DeleteUser(ctx, []string{veyratest.AdminUsername}), "logged-in account")

	stubPasswords(t, "one", "two")
	assert.ErrorContains(t, a.AddUser(ctx, []string{"carol"}), "do not match")
}

func TestApp_VerificationCommands(t *testing.T) {
	srv := veyratest.New(t)
	a, out := loggedInApp(t, srv)
	ctx := context.Background()

	require.NoError(t, a.Verify(ctx, []string{"111", "alice", "manual", "byond=true"}))
	assert.Contains(t, out.String(), "discord=111 ckey=alice method=manual by=admin")
	assert.Contains(t, out.String(), "flags: byond=true")

	out.Reset()
	require.NoError(t, a.SetVerification(ctx, []string{"ckey:alice", "note=vip"}))
	assert.Contains(t, out.String(), "flags: byond=true note=vip")
	assert.Contains(t, out.String(), "updated:")

	out.Reset()
	require.NoError(t, a.ShowVerification(ctx, []string{"111", "222"}))
	assert.Contains(t, out.String(), "1 of 2 found")

	out.Reset()
	require.NoError(t, a.ListVerifications(ctx, []string{"ali"}))
	assert.Contains(t, out.String(), "alice")
	assert.Contains(t, out.String(), "page 1 (1 shown)")

	require.NoError(t, a.Unverify(ctx, []string{"111"}))
	assert.ErrorIs(t, a.ShowVerification(ctx, []string{"111"}), veyra.ErrNotFound)
}

func TestApp_SetVerificationWithoutChanges(t *testing.T) {
	srv := veyratest.New(t)
	a, out := loggedInApp(t, srv)
	ctx := context.Background()

	require.NoError(t, a.Verify(ctx, []string{"111", "alice"}))
	out.Reset()

	assert.ErrorIs(t, a.SetVerification(ctx, []string{"111"}), ErrUsage)
	assert.ErrorIs(t, a.SetVerification(ctx, []string{"999", "note=x"}), veyra.ErrNotFound)
	assert.ErrorIs(t, a.ShowVerification(ctx, []string{"111", "ckey:alice"}), ErrUsage)
}

func TestApp_Reports(t *testing.T) {
	srv := veyratest.New(t)
	a, out := loggedInApp(t, srv)
	ctx := context.Background()

	require.NoError(t, a.Verify(ctx, []string{"111", "alice", "manual"}))
	out.Reset()

	require.NoError(t, a.Analytics(ctx, nil))
	assert.Contains(t, out.String(), "verifications: 1 total")
	assert.Contains(t, out.String(), "manual")

	out.Reset()
	require.NoError(t, a.Activity(ctx, nil))
	assert.Contains(t, out.String(), "WHEN")
	assert.Contains(t, out.String(), "admin")

	assert.ErrorIs(t, a.Activity(ctx, []string{"zero"}), ErrUsage)
}

func TestApp_Passwd(t *testing.T) {
	srv := veyratest.New(t)
	a, out := loggedInApp(t, srv)
	ctx := context.Background()

	stubPasswords(t, veyratest.AdminPassword, "n3w", "n3w")
	require.NoError(t, a.Passwd(ctx, nil))
	assert.NotEmpty(t, out.String())

	stubPasswords(t, "n3w", "a", "b")
	assert.ErrorContains(t, a.Passwd(ctx, nil), "do not match")
}

func TestApp_RunLogsInWithConfiguredCredentials(t *testing.T) {
	srv := veyratest.New(t)
	cfg := testConfig(t, srv)
	cfg.Username = veyratest.AdminUsername
	cfg.Password = veyratest.AdminPassword

	a, out := newTestApp(t, cfg)
	a.reader = bufio.NewReader(strings.NewReader("whoami\nexit\n"))

	origPrint := printlnFn
	printlnFn = func(a ...any) (int, error) { return fmt.Fprintln(out, a...) }
	t.Cleanup(func() { printlnFn = origPrint })

	a.Run(context.Background())

	assert.Contains(t, out.String(), "Logged in as admin (admin)")
	assert.Contains(t, out.String(), "#1 admin role=admin")
	assert.Contains(t, out.String(), "Bye!")
	assert.Equal(t, ModeOnline, a.Mode)
}

func TestTrackSwitchesMode(t *testing.T) {
	a := &App{log: logging.Nop()}

	a.track(fmt.Errorf("%w: dial", client.ErrUnavailable))
	assert.Equal(t, ModeOffline, a.Mode)

	a.track(&client.RequestError{Status: http.StatusConflict})
	assert.Equal(t, ModeOnline, a.Mode)

	a.track(errors.New("local failure"))
	assert.Equal(t, ModeOnline, a.Mode)
}

func TestDescribe(t *testing.T) {
	withRemote := &client.RequestError{Status: 409, StatusText: "Conflict", Body: map[string]any{"error": "Username already exists"}}
	assert.Equal(t, "Username already exists (409)", describe(fmt.Errorf("create: %w", withRemote)))

	bare := &client.RequestError{Status: 500, StatusText: "Internal Server Error"}
	assert.Equal(t, "Internal Server Error (500)", describe(bare))

	assert.Equal(t, "boom", describe(errors.New("boom")))
}

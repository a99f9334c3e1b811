package services

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"testing"

	"github.com/dmitrijs2005/veyra/internal/client/client"
	"github.com/dmitrijs2005/veyra/internal/client/models"
	"github.com/dmitrijs2005/veyra/internal/veyratest"
	"github.com/stretchr/testify/require"
)

// newSession returns a logged-in session against a fresh in-memory service.
func newSession(t *testing.T, opts ...veyratest.Option) (*client.HTTPClient, *veyratest.Server) {
	t.Helper()
	srv := veyratest.New(t, opts...)
	c := client.NewHTTPClient(srv.URL)
	_, err := c.Login(context.Background(), veyratest.AdminUsername, veyratest.AdminPassword)
	require.NoError(t, err)
	return c, srv
}

// ---- fake client ----

type call struct {
	Method string
	Path   string
	Body   any
}

type reply struct {
	body any
	err  error
}

// fakeClient answers Do from canned replies keyed by "METHOD path".
type fakeClient struct {
	mu      sync.Mutex
	replies map[string]reply
	calls   []call
}

func newFakeClient() *fakeClient {
	return &fakeClient{replies: map[string]reply{}}
}

func (f *fakeClient) on(method, path string, body any, err error) {
	f.replies[method+" "+path] = reply{body: body, err: err}
}

func (f *fakeClient) Login(context.Context, string, string) (*models.AuthResponse, error) {
	return &models.AuthResponse{Token: "t"}, nil
}

func (f *fakeClient) Do(_ context.Context, method, path string, body, out any) error {
	f.mu.Lock()
	f.calls = append(f.calls, call{Method: method, Path: path, Body: body})
	r, ok := f.replies[method+" "+path]
	f.mu.Unlock()

	if !ok {
		return &client.RequestError{Status: http.StatusNotFound, StatusText: "Not Found", URL: path, Method: method}
	}
	if r.err != nil {
		return r.err
	}
	if out == nil || r.body == nil {
		return nil
	}
	raw, err := json.Marshal(r.body)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}

func (f *fakeClient) count(method, path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c.Method == method && c.Path == path {
			n++
		}
	}
	return n
}

func badRequest(msg string) error {
	return &client.RequestError{
		Status:     http.StatusBadRequest,
		StatusText: "Bad Request",
		Body:       map[string]any{"error": msg},
		Method:     http.MethodPut,
	}
}

func serverError() error {
	return &client.RequestError{Status: http.StatusInternalServerError, StatusText: "Internal Server Error"}
}

func verificationRequest(discordID, ckey string) models.CreateVerificationRequest {
	return models.CreateVerificationRequest{DiscordID: discordID, Ckey: ckey}
}

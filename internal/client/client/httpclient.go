package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/veyra/internal/client/models"
	"github.com/dmitrijs2005/veyra/internal/logging"
	"github.com/dmitrijs2005/veyra/internal/token"
	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

const (
	DefaultTimeout = 30 * time.Second

	loginPath            = "/api/auth/login"
	requestIDHeader      = "X-Request-ID"
	maxResponseBodyBytes = 10 << 20
)

// HTTPDoer is satisfied by *http.Client.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// HTTPClient is the session core: every call to the service goes through it.
// It owns the credentials and the bearer token, refreshes a stale token
// before sending, retries once after a 401 and turns every failure into an
// AuthError, a RequestError or a wrapped ErrUnavailable.
//
// HTTPClient is safe for concurrent use. Concurrent refreshes are collapsed
// into a single login.
type HTTPClient struct {
	baseURL string
	doer    HTTPDoer
	timeout time.Duration
	log     logging.Logger
	store   TokenStore
	now     func() time.Time

	mu    sync.RWMutex
	token string
	creds *Credentials

	refreshes singleflight.Group
}

type Option func(*HTTPClient)

func WithHTTPDoer(d HTTPDoer) Option {
	return func(c *HTTPClient) { c.doer = d }
}

// WithTimeout bounds each attempt. Zero disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(c *HTTPClient) { c.timeout = d }
}

func WithLogger(l logging.Logger) Option {
	return func(c *HTTPClient) { c.log = l }
}

func WithTokenStore(s TokenStore) Option {
	return func(c *HTTPClient) { c.store = s }
}

// WithCredentials preloads the credentials used for refreshes, so a client
// can recover from a stale restored token without an explicit Login.
func WithCredentials(username, password string) Option {
	return func(c *HTTPClient) {
		if username != "" {
			c.creds = &Credentials{Username: username, Password: password}
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(c *HTTPClient) { c.now = now }
}

func NewHTTPClient(baseURL string, opts ...Option) *HTTPClient {
	c := &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		doer:    &http.Client{},
		timeout: DefaultTimeout,
		log:     logging.Nop(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *HTTPClient) BaseURL() string { return c.baseURL }

// Token returns the bearer token currently held, if any.
func (c *HTTPClient) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// SetToken replaces the held token.
func (c *HTTPClient) SetToken(ctx context.Context, tok string) {
	c.mu.Lock()
	c.token = tok
	c.mu.Unlock()
	c.persist(ctx, tok)
}

// RestoreToken loads a previously saved token from the token store.
func (c *HTTPClient) RestoreToken(ctx context.Context) error {
	if c.store == nil {
		return nil
	}
	tok, err := c.store.LoadToken(ctx)
	if err != nil {
		return fmt.Errorf("restore token: %w", err)
	}
	if tok == "" {
		return nil
	}
	c.mu.Lock()
	c.token = tok
	c.mu.Unlock()
	return nil
}

// SetPassword replaces the stored password, e.g. after a password change, so
// later refreshes keep working. It has no effect before a login.
func (c *HTTPClient) SetPassword(password string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.creds != nil {
		c.creds = &Credentials{Username: c.creds.Username, Password: password}
	}
}

func (c *HTTPClient) credentials() *Credentials {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.creds
}

// Login posts the credentials to the service. On success the credentials and
// the new token are stored and the response is returned. A rejection yields
// an *AuthError carrying the message supplied by the service.
func (c *HTTPClient) Login(ctx context.Context, username, password string) (*models.AuthResponse, error) {
	payload, err := json.Marshal(models.LoginRequest{Username: username, Password: password})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal login request: %w", err)
	}

	res, err := c.send(ctx, http.MethodPost, loginPath, payload, nil, "")
	if err != nil {
		return nil, &AuthError{Err: err}
	}
	if !res.ok() {
		reqErr := res.requestError()
		msg := reqErr.RemoteMessage()
		if msg == "" {
			msg = reqErr.Message()
		}
		c.log.Warn(ctx, "login rejected", "user", username, "status", res.status)
		return nil, &AuthError{Message: msg, Err: reqErr}
	}

	var auth models.AuthResponse
	if err := res.decode(&auth); err != nil {
		return nil, &AuthError{Err: err}
	}
	if auth.Token == "" {
		return nil, &AuthError{Message: "login response carried no token"}
	}

	c.mu.Lock()
	c.token = auth.Token
	c.creds = &Credentials{Username: username, Password: password}
	c.mu.Unlock()
	c.persist(ctx, auth.Token)

	c.log.Info(ctx, "logged in", "user", username)
	return &auth, nil
}

// refresh logs in again with the stored credentials unless another caller
// already replaced stale with a fresh token. Concurrent callers share one
// login, which outlives the cancellation of whichever caller started it;
// each caller still stops waiting when its own ctx is done.
func (c *HTTPClient) refresh(ctx context.Context, stale string) error {
	flight := context.WithoutCancel(ctx)
	ch := c.refreshes.DoChan("login", func() (any, error) {
		if cur := c.Token(); cur != stale && !token.IsExpired(cur, c.now()) {
			return nil, nil
		}
		creds := c.credentials()
		if creds == nil {
			return nil, &AuthError{Err: ErrNoCredentials}
		}
		c.log.Debug(flight, "refreshing token", "user", creds.Username)
		_, err := c.Login(flight, creds.Username, creds.Password)
		return nil, err
	})

	select {
	case <-ctx.Done():
		return ctx.Err()
	case r := <-ch:
		return r.Err
	}
}

// Do performs an authenticated call and decodes a successful body into out.
// body is marshalled as JSON when non-nil; out may be nil.
func (c *HTTPClient) Do(ctx context.Context, method, path string, body, out any) error {
	return c.DoWithHeaders(ctx, method, path, body, nil, out)
}

// DoWithHeaders is Do with extra request headers.
func (c *HTTPClient) DoWithHeaders(ctx context.Context, method, path string, body any, headers map[string]string, out any) error {
	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			return fmt.Errorf("failed to marshal %s %s request: %w", method, path, err)
		}
	}

	if tok := c.Token(); tok != "" && token.IsExpired(tok, c.now()) {
		c.log.Debug(ctx, "token expired before request", "method", method, "path", path)
		if err := c.refresh(ctx, tok); err != nil {
			return err
		}
	}

	for attempt := 1; ; attempt++ {
		sent := c.Token()
		res, err := c.send(ctx, method, path, payload, headers, sent)
		if err != nil {
			return err
		}

		if res.status == http.StatusUnauthorized && attempt == 1 {
			c.log.Warn(ctx, "request unauthorized, logging in again", "method", method, "path", path)
			if err := c.refresh(ctx, sent); err != nil {
				return err
			}
			continue
		}

		if !res.ok() {
			return res.requestError()
		}
		return res.decode(out)
	}
}

func (c *HTTPClient) persist(ctx context.Context, tok string) {
	if c.store == nil {
		return
	}
	if err := c.store.SaveToken(ctx, tok); err != nil {
		c.log.Warn(ctx, "failed to persist token", "error", err)
	}
}

func (c *HTTPClient) send(ctx context.Context, method, path string, payload []byte, headers map[string]string, bearer string) (*response, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	url := c.baseURL + path
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set(requestIDHeader, uuid.NewString())
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	started := c.now()
	httpRes, err := c.doer.Do(req)
	if err != nil {
		c.log.Warn(ctx, "request failed", "method", method, "url", url, "error", err)
		return nil, fmt.Errorf("%w: %s %s: %w", ErrUnavailable, method, url, err)
	}
	defer httpRes.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(httpRes.Body, maxResponseBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: read %s %s response: %w", ErrUnavailable, method, url, err)
	}

	res := &response{
		method:      method,
		url:         url,
		status:      httpRes.StatusCode,
		statusText:  statusText(httpRes),
		contentType: httpRes.Header.Get("Content-Type"),
		raw:         raw,
	}
	res.parse()
	if res.parseErr != nil {
		c.log.Warn(ctx, "response body degraded to empty", "method", method, "url", url, "error", res.parseErr)
	}

	c.log.Debug(ctx, "request done",
		"method", method,
		"url", url,
		"status", res.status,
		"request_id", req.Header.Get(requestIDHeader),
		"duration", c.now().Sub(started),
	)
	return res, nil
}

// statusText extracts the reason phrase of the status line, e.g. "Not Found".
func statusText(res *http.Response) string {
	code := strconv.Itoa(res.StatusCode)
	return strings.TrimSpace(strings.TrimPrefix(res.Status, code))
}

type response struct {
	method      string
	url         string
	status      int
	statusText  string
	contentType string
	raw         []byte

	// body is the decoded JSON value, the raw text, or an empty object when
	// the JSON could not be parsed.
	body     any
	isJSON   bool
	parseErr error
}

func (r *response) ok() bool {
	return r.status >= 200 && r.status < 300
}

func (r *response) parse() {
	r.isJSON = isJSONContent(r.contentType)
	if !r.isJSON {
		r.body = string(r.raw)
		return
	}
	if len(bytes.TrimSpace(r.raw)) == 0 {
		r.body = map[string]any{}
		return
	}
	if err := json.Unmarshal(r.raw, &r.body); err != nil {
		r.parseErr = &ParseError{ContentType: r.contentType, Err: err}
		r.body = map[string]any{}
	}
}

func (r *response) requestError() *RequestError {
	return &RequestError{
		Status:     r.status,
		StatusText: r.statusText,
		Body:       r.body,
		RawBody:    r.raw,
		URL:        r.url,
		Method:     r.method,
	}
}

// decode fills out from a successful response. Degraded bodies leave out
// untouched, except that a *string receives the raw text.
func (r *response) decode(out any) error {
	if out == nil {
		return nil
	}
	if !r.isJSON || r.parseErr != nil || len(bytes.TrimSpace(r.raw)) == 0 {
		if s, ok := out.(*string); ok {
			*s = string(r.raw)
		}
		return nil
	}
	if err := json.Unmarshal(r.raw, out); err != nil {
		return fmt.Errorf("decode %s %s response: %w", r.method, r.url, &ParseError{ContentType: r.contentType, Err: err})
	}
	return nil
}

func isJSONContent(contentType string) bool {
	if contentType == "" {
		return false
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mediaType == "application/json" || strings.HasSuffix(mediaType, "+json")
}

var _ Client = (*HTTPClient)(nil)

// AsRequestError reports whether err wraps a *RequestError and returns it.
func AsRequestError(err error) (*RequestError, bool) {
	var reqErr *RequestError
	if errors.As(err, &reqErr) {
		return reqErr, true
	}
	return nil, false
}

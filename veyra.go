// Package veyra is a client for the Veyra verification and user management
// service.
//
// A Client owns one authenticated session and one registry per resource
// type, so handles returned by different calls for the same remote entity
// are the same pointer:
//
//	c := veyra.New(veyra.Config{BaseURL: "http://127.0.0.1:3000"})
//	me, err := c.Login(ctx, "admin", "secret")
//	...
//	v, err := c.Verifications().GetByCkey(ctx, "somebody")
//
// Separate Clients never share state.
package veyra

import (
	"context"
	"net/http"
	"time"

	"github.com/dmitrijs2005/veyra/internal/client/client"
	"github.com/dmitrijs2005/veyra/internal/client/models"
	"github.com/dmitrijs2005/veyra/internal/client/services"
	"github.com/dmitrijs2005/veyra/internal/logging"
)

type (
	Auth               = services.Auth
	Users              = services.Users
	Verifications      = services.Verifications
	Analytics          = services.Analytics
	ActivityLogs       = services.ActivityLogs
	User               = services.User
	UserKey            = services.UserKey
	Verification       = services.Verification
	VerificationKey    = services.VerificationKey
	VerificationPage   = services.VerificationPage
	ListOptions        = services.ListOptions
	ActivityEntry      = services.ActivityEntry
	ActivityPage       = services.ActivityPage
	Role               = models.Role
	Flags              = models.Flags
	AnalyticsReport    = models.Analytics
	CreateVerification = models.CreateVerificationRequest
	VerificationPatch  = models.VerificationPatch
	AuthResponse       = models.AuthResponse

	AuthError     = client.AuthError
	RequestError  = client.RequestError
	ParseError    = client.ParseError
	NotFoundError = services.NotFoundError

	Logger     = logging.Logger
	TokenStore = client.TokenStore
	HTTPDoer   = client.HTTPDoer
)

const (
	RoleUser  = models.RoleUser
	RoleAdmin = models.RoleAdmin

	NoChangesMessage = services.NoChangesMessage
	DefaultPage      = services.DefaultPage
	DefaultLimit     = services.DefaultLimit
)

var (
	ErrUnauthorized  = client.ErrUnauthorized
	ErrUnavailable   = client.ErrUnavailable
	ErrNotFound      = client.ErrNotFound
	ErrNoCredentials = client.ErrNoCredentials

	UserByID       = services.UserByID
	UserByUsername = services.UserByUsername
	UserByInstance = services.UserByInstance
	UserByPartial  = services.UserByPartial
	ByDiscord      = services.ByDiscord
	ByCkey         = services.ByCkey
	ByVerification = services.ByVerification
)

// Config configures a Client. Only BaseURL is required.
type Config struct {
	BaseURL string

	// Username and Password, when set, let the session log in on demand
	// without an explicit Login, e.g. after a restored token expired.
	Username string
	Password string

	// Timeout bounds each request attempt; zero means client.DefaultTimeout.
	Timeout time.Duration

	Logger     Logger
	TokenStore TokenStore
	HTTPClient HTTPDoer
}

// Client is the entry point to the Veyra API.
type Client struct {
	session *client.HTTPClient

	auth          *services.Auth
	users         *services.Users
	verifications *services.Verifications
	analytics     *services.Analytics
	activity      *services.ActivityLogs
}

func New(cfg Config) *Client {
	opts := []client.Option{client.WithCredentials(cfg.Username, cfg.Password)}
	if cfg.Timeout > 0 {
		opts = append(opts, client.WithTimeout(cfg.Timeout))
	}
	if cfg.Logger != nil {
		opts = append(opts, client.WithLogger(cfg.Logger))
	}
	if cfg.TokenStore != nil {
		opts = append(opts, client.WithTokenStore(cfg.TokenStore))
	}
	if cfg.HTTPClient != nil {
		opts = append(opts, client.WithHTTPDoer(cfg.HTTPClient))
	} else {
		opts = append(opts, client.WithHTTPDoer(&http.Client{}))
	}

	session := client.NewHTTPClient(cfg.BaseURL, opts...)
	users := services.NewUsers(session)
	return &Client{
		session:       session,
		auth:          services.NewAuth(session),
		users:         users,
		verifications: services.NewVerifications(session),
		analytics:     services.NewAnalytics(session),
		activity:      services.NewActivityLogs(session, users),
	}
}

// Login authenticates and returns the handle of the logged-in user. Accounts
// that may not read /api/users get a handle built from the login response.
func (c *Client) Login(ctx context.Context, username, password string) (*User, error) {
	res, err := c.auth.Login(ctx, username, password)
	if err != nil {
		return nil, err
	}
	me, err := c.users.Get(ctx, services.UserByPartial(res.User))
	if client.IsStatus(err, http.StatusForbidden) {
		return c.users.Remember(res.User), nil
	}
	if err != nil {
		return nil, err
	}
	if me == nil {
		return nil, &NotFoundError{Resolvable: services.UserByPartial(res.User)}
	}
	return me, nil
}

// SetToken installs a token obtained elsewhere. Without stored credentials
// the session cannot refresh it once it expires.
func (c *Client) SetToken(ctx context.Context, token string) {
	c.session.SetToken(ctx, token)
}

// Token returns the current bearer token.
func (c *Client) Token() string { return c.session.Token() }

// RestoreToken loads the token kept by Config.TokenStore, if any.
func (c *Client) RestoreToken(ctx context.Context) error {
	return c.session.RestoreToken(ctx)
}

func (c *Client) Auth() *Auth                   { return c.auth }
func (c *Client) Users() *Users                 { return c.users }
func (c *Client) Verifications() *Verifications { return c.verifications }
func (c *Client) Analytics() *Analytics         { return c.analytics }
func (c *Client) Activity() *ActivityLogs       { return c.activity }

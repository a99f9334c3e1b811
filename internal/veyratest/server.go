// Package veyratest runs an in-memory Veyra service for tests. It speaks the
// same REST surface as the real service: JWT login, users, verifications
// (with verified_flags merge on update), analytics and the activity log.
package veyratest

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	AdminUsername = "admin"
	AdminPassword = "admin-password"

	timeLayout = "2006-01-02 15:04:05"
)

type userRow struct {
	id        int64
	username  string
	password  string
	role      string
	createdAt time.Time
}

type verificationRow struct {
	id         int64
	discordID  string
	ckey       string
	flags      map[string]any
	method     string
	verifiedBy string
	createdAt  time.Time
	updatedAt  *time.Time
}

type activityRow struct {
	id        int64
	userID    int64
	kind      string
	data      *string
	createdAt time.Time
}

// Server is an in-memory Veyra service listening on a local port.
type Server struct {
	URL string

	srv      *httptest.Server
	secret   []byte
	tokenTTL time.Duration
	now      func() time.Time

	mu             sync.Mutex
	users          map[int64]*userRow
	nextUserID     int64
	verifications  map[string]*verificationRow
	nextVerifyID   int64
	activities     []activityRow
	nextActivityID int64

	logins     atomic.Int32
	requests   atomic.Int32
	rejectNext atomic.Int32
}

type Option func(*Server)

// WithTokenTTL sets the validity of issued tokens. Negative values issue
// tokens that are already expired.
func WithTokenTTL(d time.Duration) Option {
	return func(s *Server) { s.tokenTTL = d }
}

// WithUser seeds an extra account.
func WithUser(username, password, role string) Option {
	return func(s *Server) { s.addUser(username, password, role) }
}

// New starts a server seeded with the AdminUsername account. It is closed
// when the test ends.
func New(t testing.TB, opts ...Option) *Server {
	t.Helper()

	s := &Server{
		secret:        []byte("veyratest-secret"),
		tokenTTL:      time.Hour,
		now:           func() time.Time { return time.Now().UTC() },
		users:         make(map[int64]*userRow),
		verifications: make(map[string]*verificationRow),
	}
	s.addUser(AdminUsername, AdminPassword, "admin")
	for _, opt := range opts {
		opt(s)
	}

	s.srv = httptest.NewServer(s.Handler())
	s.URL = s.srv.URL
	t.Cleanup(s.srv.Close)
	return s
}

// Handler returns the router, for use without a listener.
func (s *Server) Handler() http.Handler {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(gin.Recovery())

	r.POST("/api/auth/login", s.login)

	api := r.Group("/api", s.authMiddleware)
	api.POST("/auth/change-password", s.changePassword)

	users := api.Group("/users", requireAdmin)
	users.GET("", s.listUsers)
	users.POST("", s.createUser)
	users.GET("/:id", s.getUser)
	users.PUT("/:id", s.updateUserRole)
	users.DELETE("/:id", s.deleteUser)

	verify := api.Group("/v1/verify")
	verify.GET("", s.listVerifications)
	verify.POST("", s.upsertVerification)
	verify.POST("/bulk/discord", s.bulkByDiscord)
	verify.POST("/bulk/ckey", s.bulkByCkey)
	verify.GET("/:discord_id", s.getVerification)
	verify.GET("/ckey/:ckey", s.getVerification)
	verify.PUT("/:discord_id", s.updateVerification)
	verify.PUT("/ckey/:ckey", s.updateVerification)
	verify.DELETE("/:discord_id", s.deleteVerification)
	verify.DELETE("/ckey/:ckey", s.deleteVerification)

	api.GET("/analytics", s.analytics)
	api.GET("/activity", s.activity)

	return r
}

// Logins returns how many login attempts the server has seen.
func (s *Server) Logins() int { return int(s.logins.Load()) }

// Requests returns how many authenticated requests the server has seen.
func (s *Server) Requests() int { return int(s.requests.Load()) }

// RejectNext answers the next n authenticated requests with 401 whatever
// token they carry.
func (s *Server) RejectNext(n int) { s.rejectNext.Store(int32(n)) }

func (s *Server) addUser(username, password, role string) *userRow {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addUserLocked(username, password, role)
}

func (s *Server) addUserLocked(username, password, role string) *userRow {
	s.nextUserID++
	u := &userRow{id: s.nextUserID, username: username, password: password, role: role, createdAt: s.now()}
	s.users[u.id] = u
	return u
}

// logActivity must be called with s.mu held.
func (s *Server) logActivity(userID int64, kind string, data *string) {
	s.nextActivityID++
	s.activities = append(s.activities, activityRow{
		id:        s.nextActivityID,
		userID:    userID,
		kind:      kind,
		data:      data,
		createdAt: s.now(),
	})
}

func formatTime(t time.Time) string { return t.UTC().Format(timeLayout) }

func errorJSON(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, gin.H{"error": msg})
}

package cli

import (
	"bufio"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/dmitrijs2005/veyra"
	"github.com/dmitrijs2005/veyra/internal/client/client"
	"github.com/dmitrijs2005/veyra/internal/client/config"
	"github.com/dmitrijs2005/veyra/internal/client/models"
	"github.com/dmitrijs2005/veyra/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/veyra/internal/filex"
	"github.com/dmitrijs2005/veyra/internal/logging"
	"github.com/dmitrijs2005/veyra/internal/token"
)

// nowFn is a test seam for the clock used to judge restored tokens.
var nowFn = time.Now

type Mode string

const (
	ModeOnline  Mode = "online"
	ModeOffline Mode = "offline"
)

// App is the interactive Veyra admin console.
type App struct {
	config *config.Config
	log    logging.Logger

	db       *sql.DB
	meta     metadata.Repository
	sessions metadata.SessionRepository

	api      *veyra.Client
	me       *veyra.User
	userName string
	Mode     Mode

	reader *bufio.Reader
	out    io.Writer
}

// NewApp opens the local database at c.DBPath and builds a Veyra client
// whose token survives restarts.
func NewApp(ctx context.Context, c *config.Config, log logging.Logger) (*App, error) {
	path, err := filex.EnsureParentDir(c.DBPath)
	if err != nil {
		return nil, fmt.Errorf("error preparing database directory: %w", err)
	}
	db, err := client.InitDatabase(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("error initializing database: %w", err)
	}

	a := &App{
		config:   c,
		log:      log,
		db:       db,
		meta:     metadata.NewSQLiteRepository(db),
		sessions: metadata.NewSQLiteSessionRepository(db),
		reader:   bufio.NewReader(os.Stdin),
		out:      os.Stdout,
	}
	a.api = a.newAPI(c.Username, c.Password)
	return a, nil
}

func (a *App) newAPI(username, password string) *veyra.Client {
	return veyra.New(veyra.Config{
		BaseURL:    a.config.BaseURL,
		Username:   username,
		Password:   password,
		Timeout:    a.config.Timeout,
		Logger:     a.log,
		TokenStore: metadata.NewTokenStore(a.sessions, a.config.BaseURL),
	})
}

// Close releases the local database.
func (a *App) Close() error {
	return a.db.Close()
}

func (a *App) isLoggedIn() bool {
	return a.me != nil
}

func (a *App) setMode(mode Mode) {
	if a.Mode != mode {
		a.Mode = mode
		a.log.Info(context.Background(), "connectivity changed", "mode", string(mode))
	}
}

// track records whether the last command reached the service.
func (a *App) track(err error) {
	switch {
	case errors.Is(err, client.ErrUnavailable):
		a.setMode(ModeOffline)
	case err == nil, errors.As(err, new(*client.RequestError)):
		a.setMode(ModeOnline)
	}
}

func (a *App) status() string {
	s := strings.TrimSpace(a.userName + " " + string(a.Mode))
	if s != "" {
		s = fmt.Sprintf("(%s)", s)
	}
	return s
}

// restore picks up the session saved by a previous run for the configured
// service URL. It reports whether a usable token was found.
func (a *App) restore(ctx context.Context) bool {
	if err := a.api.RestoreToken(ctx); err != nil {
		a.log.Warn(ctx, "could not restore session", "error", err)
		return false
	}
	tok := a.api.Token()
	claims, err := token.Parse(tok)
	if err != nil || claims.UserID == 0 || token.IsExpired(tok, nowFn()) {
		return false
	}

	a.me = a.api.Users().Remember(models.UserPartial{
		ID:       claims.UserID,
		Username: claims.Username,
		Role:     models.Role(claims.Role),
	})
	a.userName = claims.Username
	return true
}

// lastUsername is the account that last logged in from this machine.
func (a *App) lastUsername(ctx context.Context) string {
	name, ok, err := a.meta.Get(ctx, metadata.KeyLastUsername)
	if err != nil || !ok {
		return ""
	}
	return name
}

// Run restores or establishes a session and then serves commands from the
// reader until it is exhausted or the user exits.
func (a *App) Run(ctx context.Context) {
	defer func() {
		if err := a.Close(); err != nil {
			a.log.Error(ctx, "close database", "error", err)
		}
	}()

	fmt.Fprintln(a.out, "Veyra admin console (type 'help' for commands)")

	if a.restore(ctx) {
		fmt.Fprintf(a.out, "Resumed session of %s\n", a.userName)
	} else if a.config.Username != "" {
		a.report(a.Login(ctx, nil))
	}

	runREPL(ctx, a, a.status, a.reader)
}

func (a *App) report(err error) {
	a.track(err)
	if err != nil {
		fmt.Fprintf(a.out, "error: %s\n", describe(err))
	}
}

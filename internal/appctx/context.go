// Package appctx provides application context helpers.
package appctx

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/liftlog/liftlog-cli/internal/api"
	"github.com/liftlog/liftlog-cli/internal/auth"
	"github.com/liftlog/liftlog-cli/internal/config"
	"github.com/liftlog/liftlog-cli/internal/output"
)

// contextKey is a private type for context keys.
type contextKey string

const appKey contextKey = "app"

// App holds the shared application context for all commands.
type App struct {
	Config *config.Config
	Auth   *auth.Manager
	Client *api.Client
	Probe  *api.Probe
	Logger zerolog.Logger

	// Flags holds the global flag values
	Flags GlobalFlags
}

// GlobalFlags holds values for global CLI flags.
type GlobalFlags struct {
	BaseURL string
	Timeout time.Duration
	Format  string
	Verbose int // 0=off, 1=debug logging
}

// NewApp creates a new App with the given configuration.
func NewApp(cfg *config.Config, flags GlobalFlags) *App {
	logger := newLogger(flags.Verbose)

	httpClient := &http.Client{Timeout: 30 * time.Second}
	store := auth.NewStore(config.GlobalConfigDir())
	authMgr := auth.NewManager(cfg, store, httpClient, logger)

	return &App{
		Config: cfg,
		Auth:   authMgr,
		Client: api.NewClient(cfg, authMgr, logger),
		Probe:  api.NewProbe(cfg, logger),
		Logger: logger,
		Flags:  flags,
	}
}

func newLogger(verbose int) zerolog.Logger {
	level := zerolog.WarnLevel
	if verbose >= 1 {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: "15:04:05",
	}).Level(level).With().Timestamp().Logger()
}

// Format returns the validated output format.
func (a *App) Format() output.Format {
	f, err := output.ParseFormat(a.Config.Format)
	if err != nil {
		return output.FormatJSON
	}
	return f
}

// WithApp stores the App in the context.
func WithApp(ctx context.Context, app *App) context.Context {
	return context.WithValue(ctx, appKey, app)
}

// FromContext retrieves the App from the context, or nil.
func FromContext(ctx context.Context) *App {
	app, _ := ctx.Value(appKey).(*App)
	return app
}

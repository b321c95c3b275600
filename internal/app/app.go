package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-logr/logr"

	"github.com/five82/femg/internal/backend"
	"github.com/five82/femg/internal/config"
	"github.com/five82/femg/internal/logging"
	"github.com/five82/femg/internal/monitor"
	"github.com/five82/femg/internal/prefs"
	"github.com/five82/femg/internal/ui"
	"github.com/five82/femg/internal/views"
)

const (
	monitorWindow = 10
	monitorPeriod = time.Minute
)

// Options configure the femg application.
type Options struct {
	ConfigPath string
	PrefsPath  string // empty uses default ~/.config/femg/prefs.toml
	Page       string // empty resumes the last page
	LogLevel   string // overrides the configured level
	LogConsole bool   // log to stderr instead of the log file
}

// Env is the wired runtime shared by the dashboard and the one-shot commands.
type Env struct {
	Config  config.Config
	Log     logr.Logger
	Client  *backend.Client
	API     *backend.API
	Monitor *monitor.Monitor

	closeLog func()
}

// Setup loads configuration, opens the log and builds the backend gateway.
func Setup(opts Options) (*Env, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logOpts := logging.Options{Level: cfg.LogLevel, File: cfg.LogFile}
	if opts.LogLevel != "" {
		logOpts.Level = opts.LogLevel
	}
	if opts.LogConsole {
		logOpts.File = ""
		logOpts.Console = true
	}
	log, closeLog, err := logging.New(logOpts)
	if err != nil {
		return nil, fmt.Errorf("init logging: %w", err)
	}

	client, err := backend.NewClient(backend.Options{
		URL:     cfg.BackendURL,
		AnonKey: cfg.AnonKey,
		Timeout: cfg.Timeout,
		Logger:  log.WithName("backend"),
	})
	if err != nil {
		closeLog()
		return nil, fmt.Errorf("init backend client: %w", err)
	}

	return &Env{
		Config:   cfg,
		Log:      log,
		Client:   client,
		API:      backend.NewAPI(client),
		Monitor:  monitor.New(log.WithName("monitor"), monitorWindow),
		closeLog: closeLog,
	}, nil
}

// Deps returns the view dependencies for this environment.
func (e *Env) Deps() views.Deps {
	return views.Deps{
		API:        e.API,
		Subscriber: e.Client,
		Intervals: views.Intervals{
			Executive:            e.Config.Poll.Executive,
			SystemHealth:         e.Config.Poll.SystemHealth,
			MissionControl:       e.Config.Poll.MissionControl,
			BusinessIntelligence: e.Config.Poll.BusinessIntelligence,
		},
		NetworkAnalyticsFeed: e.Config.NetworkAnalyticsFeed,
		Logger:               e.Log,
		Recorder:             e.Monitor,
	}
}

// Close stops the monitor and flushes the log.
func (e *Env) Close() {
	e.Monitor.Stop()
	if e.closeLog != nil {
		e.closeLog()
		e.closeLog = nil
	}
}

// Run boots the dashboard until the user quits or the context is cancelled.
func Run(ctx context.Context, opts Options) error {
	env, err := Setup(opts)
	if err != nil {
		return err
	}
	defer env.Close()

	userPrefs, err := prefs.Load(opts.PrefsPath)
	if err != nil {
		env.Log.Error(err, "load prefs, using defaults")
	}

	page, err := startPage(opts.Page, userPrefs.LastPage)
	if err != nil {
		return err
	}

	env.Monitor.Start(monitorPeriod)
	env.Log.Info("dashboard starting", "page", page, "backend", env.Config.BackendURL)

	err = ui.Run(ui.Options{
		Context:   ctx,
		Deps:      env.Deps(),
		StartPage: page,
		ReportDir: env.Config.ReportDir,
		ThemeName: userPrefs.Theme,
		PrefsPath: prefsPath(opts.PrefsPath),
		Logger:    env.Log,
		Monitor:   env.Monitor,
	})
	env.Log.Info("dashboard stopped")
	return err
}

// startPage picks the requested page, then the remembered one, then executive.
func startPage(requested, remembered string) (views.Page, error) {
	if requested != "" {
		return views.ParsePage(requested)
	}
	if page, err := views.ParsePage(remembered); err == nil {
		return page, nil
	}
	return views.PageExecutive, nil
}

func prefsPath(path string) string {
	if path != "" {
		return path
	}
	return prefs.DefaultPath()
}

// ErrNoData is returned by one-shot commands when every read failed.
var ErrNoData = errors.New("no data returned")

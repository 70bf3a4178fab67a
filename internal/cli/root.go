// Package cli is the todo-ui command line. With no subcommand it opens
// the interactive dashboard.
package cli

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/Levi-Ojukwu/todo-ui/internal/api"
	"github.com/Levi-Ojukwu/todo-ui/internal/app"
	"github.com/Levi-Ojukwu/todo-ui/internal/credential"
	"github.com/Levi-Ojukwu/todo-ui/internal/model"
	"github.com/Levi-Ojukwu/todo-ui/internal/session"
	"github.com/Levi-Ojukwu/todo-ui/internal/store"
	appsync "github.com/Levi-Ojukwu/todo-ui/internal/sync"
	"github.com/Levi-Ojukwu/todo-ui/internal/todos"
	"github.com/Levi-Ojukwu/todo-ui/internal/upload"
)

// App carries the global flags and the components opened for a command.
type App struct {
	ConfigPath string
	APIURL     string
	Storage    string

	cfg     *model.AppConfig
	client  *api.Client
	session *session.Store
	closers []func() error
}

func NewRootCmd() *cobra.Command {
	a := &App{}

	cmd := &cobra.Command{
		Use:          "todo-ui",
		Short:        "Terminal client for the todo backend",
		SilenceUsage: true,
		Example: strings.TrimSpace(`
  # Open the dashboard
  todo-ui

  # Sign in and list open todos
  todo-ui login --email ada@example.com
  todo-ui todo list --filter active

  # Add a todo
  todo-ui todo add --title "Write report" --description "Q3 numbers" --deadline 2025-10-01 --tag work
`),
		RunE: func(cmd *cobra.Command, args []string) error {
			// No subcommand => interactive dashboard.
			if len(args) == 0 {
				return a.withSession(func() error { return runTUI(a) })
			}
			return cmd.Help()
		},
	}

	cmd.PersistentFlags().StringVar(&a.ConfigPath, "config", envOr("TODOUI_CONFIG", model.DefaultConfigPath()), "Path to the config file")
	cmd.PersistentFlags().StringVar(&a.APIURL, "api-url", "", "Backend API base URL (overrides api.base_url)")
	cmd.PersistentFlags().StringVar(&a.Storage, "storage", "", "Session storage backend: keyring or sqlite (overrides storage.backend)")

	cmd.AddCommand(newRegisterCmd(a))
	cmd.AddCommand(newLoginCmd(a))
	cmd.AddCommand(newLogoutCmd(a))
	cmd.AddCommand(newWhoamiCmd(a))
	cmd.AddCommand(newProfileCmd(a))
	cmd.AddCommand(newTodoCmd(a))
	cmd.AddCommand(newConfigCmd(a))

	return cmd
}

func runTUI(a *App) error {
	mgr := todos.NewManager(a.client, a.session)
	defer mgr.Close()

	flow := upload.NewFlow(a.client, a.session, upload.TempPreviewer{})
	defer flow.Close()

	poller := appsync.New(a.session, a.cfg.RefreshInterval())
	defer poller.Stop()

	m := app.New(app.Deps{
		Client:  a.client,
		Session: a.session,
		Todos:   mgr,
		Upload:  flow,
		Poller:  poller,
	})

	log.Info().Msg("starting dashboard")
	_, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}

// loadConfig reads the config file and applies flag overrides.
func (a *App) loadConfig() error {
	if a.cfg != nil {
		return nil
	}
	cfg, err := model.LoadConfig(a.ConfigPath)
	if err != nil {
		return err
	}
	if a.APIURL != "" {
		cfg.API.BaseURL = a.APIURL
	}
	if a.Storage != "" {
		cfg.Storage.Backend = a.Storage
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	a.cfg = cfg
	return nil
}

// withSession opens logging, storage, the API client and the session
// store around fn, closing them afterwards.
func (a *App) withSession(fn func() error) error {
	if err := a.open(); err != nil {
		return err
	}
	defer a.close()
	return fn()
}

func (a *App) open() error {
	if err := a.loadConfig(); err != nil {
		return err
	}

	closeLog, err := setupLogging(a.cfg.Log)
	if err != nil {
		return err
	}
	a.closers = append(a.closers, closeLog)

	storage, closeStorage, err := openStorage(a.cfg.Storage)
	if err != nil {
		a.close()
		return err
	}
	if closeStorage != nil {
		a.closers = append(a.closers, closeStorage)
	}

	a.client = api.NewClient(a.cfg.API.BaseURL, api.WithTimeout(a.cfg.Timeout()))
	a.session = session.New(storage, a.client, a.cfg.AssetBase())
	a.session.Initialize()

	if sess, ok := a.session.Current(); ok && sess.ExpiresAt != nil && sess.ExpiresAt.Before(time.Now()) {
		log.Warn().Time("expired_at", *sess.ExpiresAt).Msg("stored credential has expired")
	}
	return nil
}

func (a *App) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			log.Warn().Err(err).Msg("closing")
		}
	}
	a.closers = nil
}

// setupLogging sends zerolog output to the configured log file. The
// terminal belongs to the dashboard and the command output.
func setupLogging(cfg model.LogConfig) (func() error, error) {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	var out io.Writer = io.Discard
	closeFn := func() error { return nil }
	if cfg.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.File), 0o755); err != nil {
			return nil, fmt.Errorf("creating log directory: %w", err)
		}
		f, err := os.OpenFile(cfg.File, os.O_RDWR|os.O_CREATE|os.O_APPEND, fs.FileMode(0o644))
		if err != nil {
			return nil, fmt.Errorf("opening log file: %w", err)
		}
		out = f
		closeFn = f.Close
	}

	log.Logger = log.With().Caller().Logger().Output(zerolog.ConsoleWriter{
		Out: out, TimeFormat: "2006-01-02_15:04:05", NoColor: true,
	})
	return closeFn, nil
}

// openStorage opens the configured session storage backend.
func openStorage(cfg model.StorageConfig) (session.Storage, func() error, error) {
	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o700); err != nil {
		return nil, nil, fmt.Errorf("creating storage directory: %w", err)
	}

	switch cfg.Backend {
	case model.StorageSQLite:
		s, err := store.NewSQLiteStore(cfg.Path)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	default:
		k, err := credential.Open(filepath.Dir(cfg.Path))
		if err != nil {
			return nil, nil, err
		}
		return k, nil, nil
	}
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

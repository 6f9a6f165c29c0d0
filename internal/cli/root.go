package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/MakeNowJust/heredoc"
	"github.com/artpar/workbench/internal/app"
	"github.com/artpar/workbench/internal/config"
	"github.com/artpar/workbench/internal/core"
	httpclient "github.com/artpar/workbench/internal/protocol/http"
	"github.com/artpar/workbench/internal/session"
	"github.com/artpar/workbench/internal/storage/filesystem"
	"github.com/artpar/workbench/internal/storage/sqlite"
	"github.com/artpar/workbench/internal/tree"
	"github.com/spf13/cobra"
)

// RootOptions holds the flags shared by every command.
type RootOptions struct {
	ConfigPath string
	User       string
	DataDir    string
	Storage    string
	EnvName    string
	Verbose    bool

	// timeout overrides the configured timeout when positive.
	timeout time.Duration
}

// NewRootCommand creates the root command.
func NewRootCommand(version string) *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "workbench",
		Short: "Workbench - an HTTP request workbench",
		Long: heredoc.Doc(`
			Workbench keeps HTTP requests in named collections, imports them
			from curl commands and sends them with environment substitution.

			Settings come from ~/.config/workbench/config.yaml (or --config),
			WORKBENCH_* environment variables and a .env file in the current
			directory.
		`),
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.ConfigPath, "config", "", "Config file (default: user config dir)")
	flags.StringVarP(&opts.User, "user", "u", "", "User whose collections are used")
	flags.StringVar(&opts.DataDir, "data-dir", "", "Directory for collections and the database")
	flags.StringVar(&opts.Storage, "storage", "", "Storage backend: filesystem or sqlite")
	flags.StringVarP(&opts.EnvName, "env", "e", "", "Environment name or file for variable substitution")
	flags.BoolVarP(&opts.Verbose, "verbose", "v", false, "Log debug output to stderr")

	cmd.AddCommand(
		NewSendCommand(opts),
		NewCurlCommand(opts),
		NewImportCommand(opts),
		NewExportCommand(opts),
		NewRunCommand(opts),
		NewCollectionsCommand(opts),
		NewRequestsCommand(opts),
		NewEnvCommand(opts),
	)

	return cmd
}

// workspace is the engine opened for one command invocation.
type workspace struct {
	cfg     config.Config
	app     *app.App
	envs    *filesystem.EnvironmentStore
	logger  *slog.Logger
	closers []func() error
}

// loadConfig reads .env, the config file and the flag overrides.
func loadConfig(opts *RootOptions) (config.Config, error) {
	if err := config.LoadDotenv(".env"); err != nil {
		return config.Config{}, err
	}
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return config.Config{}, err
	}

	if opts.User != "" {
		cfg.User = opts.User
	}
	if opts.DataDir != "" {
		if cfg.EnvDir == filepath.Join(cfg.DataDir, "environments") {
			cfg.EnvDir = filepath.Join(opts.DataDir, "environments")
		}
		cfg.DataDir = opts.DataDir
	}
	if opts.Storage != "" {
		cfg.Storage = opts.Storage
	}
	if opts.timeout > 0 {
		cfg.Timeout = opts.timeout
	}
	if opts.Verbose {
		cfg.LogLevel = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

// openWorkspace resolves configuration and opens the stored tree.
func openWorkspace(ctx context.Context, cmd *cobra.Command, opts *RootOptions) (*workspace, error) {
	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, err
	}

	ws := &workspace{cfg: cfg, logger: newLogger(cmd, cfg)}
	ws.logger.Debug("config resolved", "user", cfg.User, "storage", cfg.Storage, "data_dir", cfg.DataDir)

	persister, err := ws.openPersister()
	if err != nil {
		return nil, err
	}
	store, err := tree.Open(ctx, cfg.User, tree.WithPersister(persister), tree.WithLogger(ws.logger))
	if err != nil {
		ws.Close()
		return nil, err
	}

	headers, err := cfg.DefaultHeaderList()
	if err != nil {
		ws.Close()
		return nil, err
	}

	ws.envs, err = filesystem.NewEnvironmentStore(cfg.EnvDir)
	if err != nil {
		ws.Close()
		return nil, err
	}
	env, err := ws.resolveEnvironment(ctx, opts.EnvName)
	if err != nil {
		ws.Close()
		return nil, err
	}

	ws.app = app.New(
		app.WithTree(store),
		app.WithSessions(session.New(session.WithDefaultHeaders(headers))),
		app.WithProtocol(core.ProtocolHTTP, httpclient.NewClient(clientOptions(cfg)...)),
		app.WithEnvironment(env),
		app.WithLogger(ws.logger),
	)
	ws.closers = append(ws.closers, func() error {
		ws.app.Shutdown()
		return nil
	})
	return ws, nil
}

func (ws *workspace) openPersister() (tree.Persister, error) {
	switch ws.cfg.Storage {
	case config.StorageSQLite:
		if err := os.MkdirAll(ws.cfg.DataDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
		store, err := sqlite.New(ws.cfg.DatabasePath())
		if err != nil {
			return nil, err
		}
		ws.closers = append(ws.closers, store.Close)
		return store, nil
	default:
		return filesystem.NewCollectionStore(ws.cfg.CollectionsDir())
	}
}

// resolveEnvironment treats name as a file path when one exists, otherwise
// as an environment in the configured directory. A comma-separated list of
// files is merged, later files winning.
func (ws *workspace) resolveEnvironment(ctx context.Context, name string) (*core.Environment, error) {
	if name == "" {
		return nil, nil
	}
	if strings.Contains(name, ",") {
		return core.LoadMultipleEnvironments(strings.Split(name, ","))
	}
	if info, err := os.Stat(name); err == nil && !info.IsDir() {
		return core.LoadEnvironmentFromFile(name)
	}
	return ws.envs.Get(ctx, name)
}

// Close releases the storage backend.
func (ws *workspace) Close() error {
	var firstErr error
	for i := len(ws.closers) - 1; i >= 0; i-- {
		if err := ws.closers[i](); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	ws.closers = nil
	return firstErr
}

func clientOptions(cfg config.Config) []httpclient.Option {
	opts := []httpclient.Option{httpclient.WithTimeout(cfg.Timeout)}
	if !cfg.FollowRedirects {
		opts = append(opts, httpclient.WithNoRedirects())
	}
	if cfg.Proxy != "" {
		opts = append(opts, httpclient.WithProxy(cfg.Proxy))
	}
	return opts
}

// newLogger logs to stderr at the configured level. --verbose forces debug.
func newLogger(cmd *cobra.Command, cfg config.Config) *slog.Logger {
	return slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: cfg.SlogLevel()}))
}

// withWorkspace opens the workspace for the duration of fn.
func withWorkspace(cmd *cobra.Command, opts *RootOptions, fn func(ctx context.Context, ws *workspace) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ws, err := openWorkspace(ctx, cmd, opts)
	if err != nil {
		return err
	}
	defer ws.Close()
	return fn(ctx, ws)
}

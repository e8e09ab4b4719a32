package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/fang"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/hylla/hoshu/internal/adapters/clipboard"
	"github.com/hylla/hoshu/internal/adapters/server"
	"github.com/hylla/hoshu/internal/adapters/server/common"
	"github.com/hylla/hoshu/internal/adapters/storage/sqlite"
	"github.com/hylla/hoshu/internal/app"
	"github.com/hylla/hoshu/internal/config"
	"github.com/hylla/hoshu/internal/domain"
	"github.com/hylla/hoshu/internal/grid"
	"github.com/hylla/hoshu/internal/platform"
	"github.com/hylla/hoshu/internal/tui"
)

// version stores a package-level helper value.
var version = "dev"

// program represents program data used by this package.
type program interface {
	Run() (tea.Model, error)
}

// programFactory stores a package-level helper value.
var programFactory = func(m tea.Model) program {
	return tea.NewProgram(m)
}

// main handles main.
func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		os.Exit(1)
	}
}

// run builds the command tree and executes args through fang.
func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	if stdin == nil {
		stdin = strings.NewReader("")
	}
	if stdout == nil {
		stdout = io.Discard
	}
	if stderr == nil {
		stderr = io.Discard
	}
	root := newRootCommand()
	root.SetArgs(args)
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)
	return fang.Execute(ctx, root,
		fang.WithVersion(version),
		fang.WithoutManpage(),
		fang.WithNotifySignal(os.Interrupt),
	)
}

// rootOptions holds persistent flags shared by every command.
type rootOptions struct {
	configPath string
	dbPath     string
	appName    string
	devMode    bool
}

// newRootCommand constructs the hoshu command tree.
func newRootCommand() *cobra.Command {
	envOpts := platform.OptionsFromEnv(os.Getenv, version)
	opts := &rootOptions{appName: envOpts.AppName, devMode: envOpts.DevMode}

	root := &cobra.Command{
		Use:   "hoshu",
		Short: "Maintenance planning grid",
		Long:  "hoshu keeps equipment records, specifications and yearly plan/actual results in a spreadsheet-style terminal grid.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTUI(cmd, opts)
		},
	}
	flags := root.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "path to config TOML")
	flags.StringVar(&opts.dbPath, "db", "", "path to sqlite database")
	flags.StringVar(&opts.appName, "app", opts.appName, "application name for config/data path resolution")
	flags.BoolVar(&opts.devMode, "dev", opts.devMode, "use dev mode paths (<app>-dev)")

	root.AddCommand(
		newPathsCommand(opts),
		newSeedCommand(opts),
		newServeCommand(opts),
		newCopyCommand(opts),
		newPasteCommand(opts),
	)
	return root
}

// newPathsCommand prints resolved runtime paths.
func newPathsCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "paths",
		Short: "Print config, data and database paths",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			paths, err := opts.paths()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "app: %s\n", opts.appName)
			_, _ = fmt.Fprintf(out, "dev_mode: %t\n", opts.devMode)
			_, _ = fmt.Fprintf(out, "config: %s\n", opts.resolveConfigPath(paths))
			_, _ = fmt.Fprintf(out, "data_dir: %s\n", paths.DataDir)
			db, _ := opts.resolveDBPath(paths)
			_, _ = fmt.Fprintf(out, "db: %s\n", db)
			return nil
		},
	}
}

// newSeedCommand stores the demo hierarchy into an empty database.
func newSeedCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Store demo records when the database is empty",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, err := opts.open(cmd, "seed")
			if err != nil {
				return err
			}
			defer env.close()

			created, err := env.svc.EnsureSeedRecords(cmd.Context())
			if err != nil {
				env.logger.Error("seed failed", "err", err)
				return fmt.Errorf("seed records: %w", err)
			}
			env.logger.Info("seed complete", "created", created)
			if created == 0 {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "records already present")
				return nil
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "seeded %d records\n", created)
			return nil
		},
	}
}

// newServeCommand runs the HTTP API and MCP endpoints.
func newServeCommand(opts *rootOptions) *cobra.Command {
	var bind string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the grid over HTTP and MCP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, err := opts.open(cmd, "serve")
			if err != nil {
				return err
			}
			defer env.close()

			if strings.TrimSpace(bind) == "" {
				bind = env.cfg.Serve.Bind
			}
			err = server.Run(cmd.Context(), server.Config{
				HTTPBind:      bind,
				APIEndpoint:   env.cfg.Serve.APIEndpoint,
				MCPEndpoint:   env.cfg.Serve.MCPEndpoint,
				ServerName:    opts.appName,
				ServerVersion: version,
			}, server.Dependencies{
				Grid: common.NewAppServiceAdapter(env.svc),
				Logf: env.logger.Info,
			})
			if err != nil {
				env.logger.Error("serve failed", "bind", bind, "err", err)
				return fmt.Errorf("serve: %w", err)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&bind, "bind", "", "listen address (defaults to serve.bind)")
	return cmd
}

// newCopyCommand prints the interchange text of a stored range.
func newCopyCommand(opts *rootOptions) *cobra.Command {
	var (
		rangeSpec   string
		toClipboard bool
	)
	cmd := &cobra.Command{
		Use:   "copy",
		Short: "Copy a cell range as tab-separated text",
		Example: "  hoshu copy --range <row>/name,<row>/code\n" +
			"  hoshu copy --range <row>/period:2026:status --clipboard",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sel, err := parseRange(rangeSpec)
			if err != nil {
				return err
			}
			env, err := opts.open(cmd, "copy")
			if err != nil {
				return err
			}
			defer env.close()

			text, err := env.svc.CopyRange(cmd.Context(), sel)
			if err != nil {
				return fmt.Errorf("copy range: %w", err)
			}
			if toClipboard {
				port, err := env.clipboardPort(cmd.OutOrStdout())
				if err != nil {
					return err
				}
				if err := port.Write(cmd.Context(), text); err != nil {
					return fmt.Errorf("%w: %v", grid.ErrClipboardUnavailable, err)
				}
				env.logger.Info("range copied to clipboard", "backend", env.cfg.Clipboard.Backend)
				return nil
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), text)
			return err
		},
	}
	cmd.Flags().StringVar(&rangeSpec, "range", "", "cell or range as ROW/COLUMN[,ROW/COLUMN]")
	cmd.Flags().BoolVar(&toClipboard, "clipboard", false, "write to the configured clipboard instead of stdout")
	_ = cmd.MarkFlagRequired("range")
	return cmd
}

// newPasteCommand validates and applies interchange text at an anchor.
func newPasteCommand(opts *rootOptions) *cobra.Command {
	var (
		anchorSpec    string
		dryRun        bool
		fromClipboard bool
	)
	cmd := &cobra.Command{
		Use:   "paste",
		Short: "Paste tab-separated text from stdin at an anchor cell",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			anchor, err := parseCellAddress(anchorSpec)
			if err != nil {
				return err
			}
			env, err := opts.open(cmd, "paste")
			if err != nil {
				return err
			}
			defer env.close()

			var text string
			if fromClipboard {
				port, err := env.clipboardPort(cmd.OutOrStdout())
				if err != nil {
					return err
				}
				if text, err = port.Read(cmd.Context()); err != nil {
					return fmt.Errorf("%w: %v", grid.ErrClipboardUnavailable, err)
				}
			} else {
				raw, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return fmt.Errorf("read stdin: %w", err)
				}
				text = string(raw)
			}

			ctx := app.WithMutationActor(cmd.Context(), app.MutationActor{
				ActorID:   opts.appName + "-cli",
				ActorType: domain.ActorTypeUser,
			})
			out, err := env.svc.PasteText(ctx, app.PasteInput{Anchor: anchor, Text: text, DryRun: dryRun})
			writePasteReport(cmd.OutOrStdout(), out, dryRun)
			if err != nil {
				env.logger.Warn("paste rejected", "anchor", anchorSpec, "err", err)
				return fmt.Errorf("paste at %s: %w", anchorSpec, err)
			}
			env.logger.Info("paste complete", "anchor", anchorSpec, "applied", out.Applied, "saved", out.Saved, "dry_run", dryRun)
			return nil
		},
	}
	cmd.Flags().StringVar(&anchorSpec, "anchor", "", "top-left target cell as ROW/COLUMN")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "validate without saving")
	cmd.Flags().BoolVar(&fromClipboard, "clipboard", false, "read from the configured clipboard instead of stdin")
	_ = cmd.MarkFlagRequired("anchor")
	return cmd
}

// writePasteReport prints the paste outcome and its issues.
func writePasteReport(w io.Writer, out app.PasteOutcome, dryRun bool) {
	_, _ = fmt.Fprintf(w, "outcome: %s\n", out.Validation.Outcome())
	_, _ = fmt.Fprintf(w, "applied: %d\n", out.Applied)
	if !dryRun {
		_, _ = fmt.Fprintf(w, "saved: %d\n", out.Saved)
	}
	for _, issue := range out.Validation.Errors {
		_, _ = fmt.Fprintf(w, "error: %s\n", issue)
	}
	for _, issue := range out.Validation.Warnings {
		_, _ = fmt.Fprintf(w, "warning: %s\n", issue)
	}
}

// runTUI opens the grid screen.
func runTUI(cmd *cobra.Command, opts *rootOptions) error {
	env, err := opts.open(cmd, "tui")
	if err != nil {
		return err
	}
	defer env.close()

	created, err := env.svc.EnsureSeedRecords(cmd.Context())
	if err != nil {
		env.logger.Error("seed failed", "err", err)
		return fmt.Errorf("seed records: %w", err)
	}
	if created > 0 {
		env.logger.Info("empty database seeded", "created", created)
	}

	port, err := env.clipboardPort(io.Discard)
	if err != nil {
		return err
	}
	tuiOpts := []tui.Option{
		tui.WithTitle(opts.appName),
		tui.WithClipboard(port),
		tui.WithKeyConfig(toTUIKeyConfig(env.cfg.Keys)),
		tui.WithGridConfig(toTUIGridConfig(env.cfg.Grid)),
	}
	if clipboard.ViaTerminal(port) {
		tuiOpts = append(tuiOpts, tui.WithTerminalClipboard())
	}
	m := tui.NewModel(env.svc, tuiOpts...)
	env.logger.Info("starting tui program loop", "read_only", env.cfg.Grid.ReadOnly, "clipboard", env.cfg.Clipboard.Backend)
	if _, err := programFactory(m).Run(); err != nil {
		env.logger.Error("tui program terminated with error", "err", err)
		return fmt.Errorf("run tui program: %w", err)
	}
	env.logger.Info("command flow complete", "command", "tui")
	return nil
}

// runtimeEnv holds the opened dependencies of one command.
type runtimeEnv struct {
	cfg    config.Config
	logger *runtimeLogger
	repo   *sqlite.Repository
	svc    *app.Service
	stderr io.Writer
}

// close releases the repository and log sinks.
func (e *runtimeEnv) close() {
	if e.repo != nil {
		if err := e.repo.Close(); err != nil {
			e.logger.Warn("sqlite close failed", "db_path", e.cfg.Database.Path, "err", err)
		}
	}
	if err := e.logger.Close(); err != nil && e.logger.ConsoleEnabled() {
		_, _ = fmt.Fprintf(e.stderr, "warning: close runtime log sink: %v\n", err)
	}
}

// clipboardPort returns the configured clipboard transport; OSC52 writes to out.
func (e *runtimeEnv) clipboardPort(out io.Writer) (clipboard.Port, error) {
	port, err := clipboard.New(clipboard.Backend(e.cfg.Clipboard.Backend), out)
	if err != nil {
		return nil, fmt.Errorf("configure clipboard: %w", err)
	}
	return port, nil
}

// paths resolves platform paths for the selected app name and mode.
func (o *rootOptions) paths() (platform.Paths, error) {
	return platform.DefaultPathsWithOptions(platform.Options{
		AppName: o.appName,
		DevMode: o.devMode,
	})
}

// resolveConfigPath applies flag, then env, then platform default.
func (o *rootOptions) resolveConfigPath(paths platform.Paths) string {
	if path := strings.TrimSpace(o.configPath); path != "" {
		return path
	}
	if path := strings.TrimSpace(os.Getenv(platform.EnvConfig)); path != "" {
		return path
	}
	return paths.ConfigPath
}

// resolveDBPath applies flag, then env, then platform default, and reports
// whether the path overrides the config file.
func (o *rootOptions) resolveDBPath(paths platform.Paths) (string, bool) {
	if path := strings.TrimSpace(o.dbPath); path != "" {
		return path, true
	}
	if path := strings.TrimSpace(os.Getenv(platform.EnvDBPath)); path != "" {
		return path, true
	}
	return paths.DBPath, false
}

// open loads config, configures logging and opens the service for command.
func (o *rootOptions) open(cmd *cobra.Command, command string) (*runtimeEnv, error) {
	paths, err := o.paths()
	if err != nil {
		return nil, err
	}
	configPath := o.resolveConfigPath(paths)
	dbPath, dbOverridden := o.resolveDBPath(paths)

	cfg, err := config.Load(configPath, config.Default(dbPath))
	if err != nil {
		return nil, fmt.Errorf("load config %q: %w", configPath, err)
	}
	if dbOverridden {
		cfg.Database.Path = dbPath
	}

	stderr := cmd.ErrOrStderr()
	logger, err := newRuntimeLogger(stderr, o.appName, o.devMode, cfg.Logging, time.Now)
	if err != nil {
		return nil, fmt.Errorf("configure runtime logger: %w", err)
	}
	if command == "tui" {
		// Runtime logs stay in the dev-file sink while the grid owns the terminal.
		logger.SetConsoleEnabled(false)
	}
	logger.Info("startup configuration resolved", "app", o.appName, "dev_mode", o.devMode, "command", command)
	logger.Debug("runtime paths resolved", "config_path", configPath, "data_dir", paths.DataDir, "db_path", cfg.Database.Path)
	if devPath := logger.DevLogPath(); devPath != "" {
		logger.Debug("dev file logging enabled", "path", devPath)
	}

	repo, err := sqlite.Open(cfg.Database.Path)
	if err != nil {
		logger.Error("sqlite open failed", "db_path", cfg.Database.Path, "err", err)
		_ = logger.Close()
		return nil, fmt.Errorf("open sqlite repository: %w", err)
	}
	logger.Debug("sqlite repository ready", "db_path", cfg.Database.Path)

	svc := app.NewService(repo, uuid.NewString, nil, app.ServiceConfig{
		ReadOnly:       cfg.Grid.ReadOnly,
		Periods:        cfg.Grid.Periods,
		MinColumnWidth: cfg.Grid.MinColumnWidth,
		MaxColumnWidth: cfg.Grid.MaxColumnWidth,
	})
	return &runtimeEnv{cfg: cfg, logger: logger, repo: repo, svc: svc, stderr: stderr}, nil
}

// toTUIKeyConfig maps persisted key overrides into model options.
func toTUIKeyConfig(cfg config.KeyConfig) tui.KeyConfig {
	return tui.KeyConfig{
		Copy:     cfg.Copy,
		Paste:    cfg.Paste,
		Edit:     cfg.Edit,
		AutoSize: cfg.AutoSize,
		Detail:   cfg.Detail,
		Reload:   cfg.Reload,
	}
}

// toTUIGridConfig maps persisted grid bounds into model options.
func toTUIGridConfig(cfg config.GridConfig) tui.GridConfig {
	return tui.GridConfig{
		Overscan:         cfg.Overscan,
		DefaultRowHeight: cfg.DefaultRowHeight,
		MinRowHeight:     cfg.MinRowHeight,
		MaxRowHeight:     cfg.MaxRowHeight,
	}
}

// parseCellAddress parses ROW/COLUMN. Column ids may contain colons.
func parseCellAddress(raw string) (grid.CellRef, error) {
	row, col, ok := strings.Cut(strings.TrimSpace(raw), "/")
	row, col = strings.TrimSpace(row), strings.TrimSpace(col)
	if !ok || row == "" || col == "" {
		return grid.CellRef{}, fmt.Errorf("invalid cell %q: want ROW/COLUMN", raw)
	}
	return grid.CellRef{RowID: row, ColumnID: col}, nil
}

// parseRange parses ROW/COLUMN or ROW/COLUMN,ROW/COLUMN.
func parseRange(raw string) (grid.Range, error) {
	if strings.TrimSpace(raw) == "" {
		return grid.Range{}, errors.New("--range is required")
	}
	startRaw, endRaw, hasEnd := strings.Cut(raw, ",")
	start, err := parseCellAddress(startRaw)
	if err != nil {
		return grid.Range{}, err
	}
	end := start
	if hasEnd {
		if end, err = parseCellAddress(endRaw); err != nil {
			return grid.Range{}, err
		}
	}
	return grid.Range{Start: start, End: end}, nil
}

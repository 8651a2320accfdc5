package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/alecthomas/kong"

	"github.com/julianstephens/habitflow/internal/auth"
	"github.com/julianstephens/habitflow/internal/backend"
	"github.com/julianstephens/habitflow/internal/cli"
	"github.com/julianstephens/habitflow/internal/cli/account"
	"github.com/julianstephens/habitflow/internal/cli/habits"
	"github.com/julianstephens/habitflow/internal/cli/reports"
	"github.com/julianstephens/habitflow/internal/cli/system"
	"github.com/julianstephens/habitflow/internal/cli/tasks"
	"github.com/julianstephens/habitflow/internal/cli/transfers"
	"github.com/julianstephens/habitflow/internal/config"
	"github.com/julianstephens/habitflow/internal/constants"
	apperrors "github.com/julianstephens/habitflow/internal/errors"
	"github.com/julianstephens/habitflow/internal/logger"
	"github.com/julianstephens/habitflow/internal/storage"
)

var CLI struct {
	Version kong.VersionFlag
	Config  string `help:"Config file path. Defaults to $HABITFLOW_CONFIG or ~/.config/habitflow/config.yaml." type:"path"`
	Debug   bool   `help:"Log at debug level and mirror logs to stderr."`

	Init      system.InitCmd       `cmd:"" help:"Write a config file, generate an API key and initialize the backend."`
	Doctor    system.DoctorCmd     `cmd:"" help:"Run health checks and diagnostics."`
	Tui       system.TuiCmd        `cmd:"" help:"Launch the interactive TUI." default:"1"`
	Auth      account.AuthCmd      `cmd:"" help:"Sign up, sign in and manage the session."`
	Key       system.KeyCmd        `cmd:"" help:"Manage the backend API key in the OS keyring."`
	Habit     habits.HabitCmd      `cmd:"" help:"Manage habits and habit tracking."`
	Task      tasks.TaskCmd        `cmd:"" help:"Manage tasks."`
	Dashboard reports.DashboardCmd `cmd:"" help:"Show today's progress."`
	Analytics reports.AnalyticsCmd `cmd:"" help:"Show habit performance and activity over time."`
	Export    transfers.ExportCmd  `cmd:"" help:"Export habits, tasks and entries to a file."`
	Import    transfers.ImportCmd  `cmd:"" help:"Load an export file into the local view."`
	Exports   transfers.ListCmd    `cmd:"" help:"List archived exports."`
}

func main() {
	kctx := kong.Parse(&CLI,
		kong.Name(constants.AppName),
		kong.Description("Habit and task tracker"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact:             true,
			NoExpandSubcommands: true,
		}),
		kong.Vars{
			"version":        constants.Version,
			"recent_days":    strconv.Itoa(constants.RecentActivityDays),
			"monthly_months": strconv.Itoa(constants.MonthlyActivityMonths),
		},
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, kctx); err != nil {
		stop()
		fmt.Fprintf(os.Stderr, "Error: %s\n", apperrors.UserMessage(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, kctx *kong.Context) error {
	cfg, err := config.Load(CLI.Config)
	if err != nil {
		return err
	}

	if err := logger.Init(logger.Config{Level: cfg.Log.Level, Debug: CLI.Debug, ConfigDir: cfg.Dir()}); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to initialize logger: %v\n", err)
	}
	logger.Debug("Starting", "command", kctx.Command(), "config", cfg.Path)

	// init opens the backend itself once the config is written
	var b storage.Backend = storage.Unconfigured{Missing: storage.MissingSettings(cfg.Backend.Endpoint, cfg.Backend.APIKey)}
	if kctx.Command() != "init" {
		b, err = backend.Open(ctx, cfg.Backend.Endpoint, cfg.Backend.APIKey)
		if err != nil {
			return err
		}
	}

	appCtx, err := cli.NewContext(ctx, cfg, b, auth.KeyringSessionStore{})
	if err != nil {
		_ = backend.Close(b)
		return err
	}
	defer appCtx.Close()

	return kctx.Run(appCtx)
}

package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/pfrederiksen/fastfingers-bot/internal/chat"
	"github.com/pfrederiksen/fastfingers-bot/internal/config"
	"github.com/pfrederiksen/fastfingers-bot/internal/export"
	"github.com/pfrederiksen/fastfingers-bot/internal/gate"
	"github.com/pfrederiksen/fastfingers-bot/internal/logger"
	"github.com/pfrederiksen/fastfingers-bot/internal/metrics"
	"github.com/pfrederiksen/fastfingers-bot/internal/notifier"
	"github.com/pfrederiksen/fastfingers-bot/internal/scraper"
	"github.com/pfrederiksen/fastfingers-bot/internal/storage"
	"github.com/pfrederiksen/fastfingers-bot/internal/workflow"
)

const (
	ExitSuccess = 0
	ExitError   = 1
)

// flagKeys maps command-line flags to configuration keys
var flagKeys = map[string]string{
	"twitter-username": "twitter_username",
	"twitter-password": "twitter_password",
	"production":       "production",
	"headless":         "headless",
	"force":            "force",
	"data-dir":         "data_dir",
	"export":           "export_path",
}

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	var configFile string

	cmd := &cobra.Command{
		Use:   "fastfingers-bot",
		Short: "Run a 10fastfingers typing tournament for a Slack workspace",
		Long: `Creates a new private 10fastfingers competition, posts the standings of the
previous one to Slack, and shares the invitation link to the new one.
Outside production, messages are printed instead of posted.`,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, configFile)
			if err != nil {
				return err
			}
			return runBot(cmd, cfg, openChrome)
		},
	}

	cmd.PersistentFlags().StringVar(&configFile, "config", "", "YAML config file (or env: FASTFINGERS_CONFIG)")
	cmd.PersistentFlags().String("data-dir", "~/.local/share/fastfingers-bot", "Data directory for the run journal")
	cmd.PersistentFlags().Bool("verbose", false, "Enable debug logging")

	cmd.Flags().String("twitter-username", "", "Twitter account used to sign in (or env: FASTFINGERS_TWITTER_USERNAME)")
	cmd.Flags().String("twitter-password", "", "Twitter password (or env: FASTFINGERS_TWITTER_PASSWORD)")
	cmd.Flags().Bool("production", false, "Post to Slack and enforce the schedule gate")
	cmd.Flags().Bool("headless", false, "Keep the browser headless outside production")
	cmd.Flags().Bool("force", false, "Announce even when the schedule gate would suppress the run")
	cmd.Flags().String("export", "", "Write the standings to this XLSX file")

	cmd.AddCommand(newLastRunCmd(&configFile))

	return cmd
}

// overrides collects the flags the user set explicitly
func overrides(flags *pflag.FlagSet) map[string]interface{} {
	out := make(map[string]interface{})
	flags.Visit(func(f *pflag.Flag) {
		key, ok := flagKeys[f.Name]
		if !ok {
			return
		}
		switch f.Value.Type() {
		case "bool":
			out[key] = f.Value.String() == "true"
		default:
			out[key] = f.Value.String()
		}
	})
	if verbose, _ := flags.GetBool("verbose"); verbose {
		out["log_level"] = "debug"
	}
	return out
}

func loadConfig(cmd *cobra.Command, configFile string) (*config.Config, error) {
	cfg, err := config.Load(config.Options{
		File:      configFile,
		Overrides: overrides(cmd.Flags()),
	})
	if err != nil {
		return nil, err
	}

	level, err := logger.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", config.ErrInvalidConfig, err)
	}
	logger.SetDefault(logger.New(level, cmd.ErrOrStderr()))

	return cfg, nil
}

// runBot is the main command logic. The browser session comes from open and
// is closed on every return path once it was opened.
func runBot(cmd *cobra.Command, cfg *config.Config, open sessionOpener) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	started := time.Now()
	mgr := metrics.NewManager()

	deps := workflow.Deps{
		Rankings: scraper.New(cfg.RankingsURL),
		Metrics:  mgr,
		Logger:   logger.Default(),
	}

	if cfg.SlackToken != "" && len(cfg.SlackChannelIDs) > 0 {
		client, err := chat.NewClient(cfg.SlackToken, cfg.SlackChannelIDs, cfg.SlackUsername)
		if err != nil {
			return fmt.Errorf("initializing Slack client: %w", err)
		}
		deps.Announcements = client
		deps.Directory = client
		if cfg.Production {
			deps.Notifier = client
		}
	} else {
		logger.Warn("Slack is not configured, skipping previous results", nil)
	}
	if deps.Notifier == nil {
		deps.Notifier = notifier.NewDryRunNotifier(cmd.OutOrStdout())
	}

	creator := newLazyBrowser(ctx, browserOptions(cfg), open)
	defer func() {
		if err := creator.Close(); err != nil {
			logger.Warn("Closing browser failed", logger.Fields{"error": err.Error()})
		}
	}()
	deps.Creator = creator

	wf, err := workflow.New(deps, workflow.Options{
		Policy: gate.Policy{
			Enforce:   cfg.Production,
			Force:     cfg.Force,
			FromHour:  cfg.ActiveFromHour,
			UntilHour: cfg.ActiveUntilHour,
			Location:  loc,
		},
		SettleDelay: cfg.SettleDelay,
	})
	if err != nil {
		return err
	}

	res, err := wf.Run(ctx)
	if err != nil {
		finish(mgr, cfg, metrics.StatusFailed, started)
		return err
	}

	if res.Suppressed() {
		finish(mgr, cfg, metrics.StatusSuppressed, started)
		return nil
	}

	if err := record(cfg, res); err != nil {
		finish(mgr, cfg, metrics.StatusFailed, started)
		return err
	}

	finish(mgr, cfg, metrics.StatusSucceeded, started)
	return nil
}

// record saves the run journal and the optional export
func record(cfg *config.Config, res *workflow.Result) error {
	store, err := storage.New(cfg.DataDir)
	if err != nil {
		return fmt.Errorf("initializing storage: %w", err)
	}

	run := &storage.RunRecord{
		RunID:          res.RunID,
		StartedAt:      res.StartedAt.UTC(),
		FinishedAt:     res.FinishedAt.UTC(),
		Production:     cfg.Production,
		Forced:         res.Decision.Forced,
		TournamentLink: res.TournamentLink,
		Results:        res.Records,
	}
	if res.Prior != nil {
		run.PriorLink = res.Prior.Link
		run.PriorChannel = res.Prior.Channel
		run.PriorPermalink = res.Prior.Permalink
	}
	if err := store.SaveRun(run); err != nil {
		return fmt.Errorf("saving run: %w", err)
	}
	logger.Debug("Saved run journal", logger.Fields{"path": store.Path()})

	if cfg.ExportPath != "" {
		if err := export.WriteStandings(cfg.ExportPath, res.Records); err != nil {
			return fmt.Errorf("exporting standings: %w", err)
		}
		logger.Info("Exported standings", logger.Fields{"path": cfg.ExportPath, "records": len(res.Records)})
	}
	return nil
}

func finish(mgr *metrics.Manager, cfg *config.Config, status string, started time.Time) {
	now := time.Now()
	mgr.RunFinished(status, now.Sub(started), now)
	if err := mgr.Push(cfg.PushgatewayURL); err != nil {
		logger.Warn("Pushing metrics failed", logger.Fields{"error": err.Error()})
	}
}

// Execute runs the CLI
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := NewRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", strings.TrimSpace(err.Error()))
		os.Exit(ExitError)
	}
	os.Exit(ExitSuccess)
}

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/obentoo/versioneye-slack/internal/common/logger"
	"github.com/obentoo/versioneye-slack/internal/common/output"
	"github.com/obentoo/versioneye-slack/internal/notify"
	"github.com/spf13/cobra"
)

var (
	verbose bool
	quiet   bool
	noColor bool

	// configFile overrides the config search path
	configFile string
	// versioneyeKey overrides versioneye.api_key
	versioneyeKey string
	// baseURL overrides versioneye.base_url
	baseURL string
	// cacheFile overrides cache.path
	cacheFile string

	// slackHook overrides slack.hook
	slackHook string
	// slackChannel overrides slack.channel
	slackChannel string
	// projectIDs restricts the run to specific projects
	projectIDs []string
	// dryRun prints the findings without posting or updating the cache
	dryRun bool
)

var rootCmd = &cobra.Command{
	Use:   "versioneye-slack",
	Short: "Post outdated VersionEye dependencies to Slack",
	Long: `Checks the projects tracked on VersionEye for outdated dependencies and posts
the ones not reported before to a Slack channel through an incoming webhook.

Versions already posted are remembered in ~/.versioneye.slack.cache, so running
this from cron only notifies about new releases.

Examples:
  versioneye-slack --versioneye-key KEY --slack-hook URL
  versioneye-slack --project 5a1b2c --project 5d6e7f --slack-channel '#deps'
  versioneye-slack --dry-run -v`,
	Args: cobra.NoArgs,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// Configure logging based on flags
		if verbose {
			logger.SetVerbose(true)
		}
		if quiet {
			logger.SetQuiet(true)
		}
		if noColor {
			output.NoColor()
		}
		logger.SetOutput(cmd.ErrOrStderr())
	},
	Run: runNotify,
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Suppress non-error output")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Config file (.yaml, .yml or .toml)")
	rootCmd.PersistentFlags().StringVar(&versioneyeKey, "versioneye-key", "", "VersionEye API key")
	rootCmd.PersistentFlags().StringVar(&baseURL, "base-url", "", "VersionEye API base URL")
	rootCmd.PersistentFlags().StringVar(&cacheFile, "cache-file", "", "Notification cache file (default ~/.versioneye.slack.cache)")

	rootCmd.Flags().StringVar(&slackHook, "slack-hook", "", "Slack incoming webhook URL")
	rootCmd.Flags().StringVar(&slackChannel, "slack-channel", "#general", "Slack channel to post to")
	rootCmd.Flags().StringArrayVar(&projectIDs, "project", nil, "Project identifier to check (repeatable, default all projects)")
	rootCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Show what would be posted without sending or caching")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// signalContext returns a context cancelled on SIGINT or SIGTERM
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func runNotify(cmd *cobra.Command, args []string) {
	cfg, err := loadSettings(cmd)
	if err != nil {
		logger.Error("loading config: %v", err)
		os.Exit(1)
	}
	defer logger.Default().Close()

	if err := cfg.Validate(); err != nil {
		logger.Error("%v", err)
		os.Exit(1)
	}

	n, err := newNotifier(cfg, dryRun)
	if err != nil {
		logger.Error("failed to initialize notifier: %v", err)
		os.Exit(1)
	}

	ctx, cancel := signalContext()
	defer cancel()

	result, err := n.Run(ctx)
	if err != nil {
		logger.Error("%v", err)
		os.Exit(1)
	}

	if showSummary(dryRun) {
		displayResult(cmd.OutOrStdout(), result, cfg.Channel(), dryRun)
	}
}

// showSummary reports whether the run summary is printed. A normal run is
// silent so that scheduled invocations produce no output.
func showSummary(dryRun bool) bool {
	if quiet {
		return false
	}
	return dryRun || logger.Default().Level() == logger.LevelDebug
}

// displayResult prints the run summary
func displayResult(w io.Writer, result *notify.Result, channel string, dryRun bool) {
	if len(result.Notified) == 0 {
		output.Info.Fprintf(w, "→ Checked %d project(s): nothing new to report\n", len(result.Projects))
		return
	}

	output.Section(w, "Outdated dependencies")
	for _, dep := range result.Notified {
		line := fmt.Sprintf("  %s  %s", output.FormatPackage(dep.Name, dep.Language),
			output.FormatVersions(dep.VersionRequested, dep.VersionCurrent))
		if marker := output.FormatVulnerable(dep.Vulnerable); marker != "" {
			line += "  " + marker
		}
		fmt.Fprintln(w, line)
	}
	fmt.Fprintln(w)

	switch {
	case dryRun:
		output.Warning.Fprintf(w, "⚠ Dry run: %d dependencies not sent to %s\n", len(result.Notified), channel)
	case result.Sent:
		output.Success.Fprintf(w, "✓ Sent %d dependencies to %s\n", len(result.Notified), channel)
	}
}

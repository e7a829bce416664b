package main

import (
	"github.com/obentoo/versioneye-slack/internal/common/config"
	"github.com/obentoo/versioneye-slack/internal/common/httpclient"
	"github.com/obentoo/versioneye-slack/internal/common/logger"
	"github.com/obentoo/versioneye-slack/internal/common/version"
	"github.com/obentoo/versioneye-slack/internal/notify"
	"github.com/obentoo/versioneye-slack/internal/slack"
	"github.com/obentoo/versioneye-slack/internal/versioneye"
	"github.com/spf13/cobra"
)

// loadSettings reads the config file and applies command line overrides
func loadSettings(cmd *cobra.Command) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if configFile != "" {
		cfg, err = config.LoadFrom(configFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}

	applyFlags(cmd, cfg)
	cfg.ExpandEnv()

	if err := applyLogSettings(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// flagChanged reports whether a flag visible to cmd was set explicitly
func flagChanged(cmd *cobra.Command, name string) bool {
	f := cmd.Flags().Lookup(name)
	return f != nil && f.Changed
}

// applyFlags overrides config values with explicitly set flags
func applyFlags(cmd *cobra.Command, cfg *config.Config) {
	if flagChanged(cmd, "versioneye-key") {
		cfg.VersionEye.APIKey = versioneyeKey
	}
	if flagChanged(cmd, "base-url") {
		cfg.VersionEye.BaseURL = baseURL
	}
	if flagChanged(cmd, "cache-file") {
		cfg.Cache.Path = cacheFile
	}
	if flagChanged(cmd, "slack-hook") {
		cfg.Slack.Hook = slackHook
	}
	if flagChanged(cmd, "slack-channel") {
		cfg.Slack.Channel = slackChannel
	}
	if flagChanged(cmd, "project") {
		cfg.Projects = append([]string(nil), projectIDs...)
	}
}

// applyLogSettings uses log.level unless -v or -q was given
func applyLogSettings(cfg *config.Config) error {
	if !verbose && !quiet && cfg.Log.Level != "" {
		level, err := logger.ParseLevel(cfg.Log.Level)
		if err != nil {
			return err
		}
		logger.SetLevel(level)
	}

	if cfg.Log.File {
		if err := logger.Default().EnableFileLogging(); err != nil {
			logger.Warn("file logging disabled: %v", err)
		}
	}
	return nil
}

// newAPIClient builds a VersionEye client from the http and versioneye settings
func newAPIClient(cfg *config.Config) (*versioneye.Client, error) {
	timeout, err := cfg.Timeout()
	if err != nil {
		return nil, err
	}

	retry := httpclient.DefaultRetryConfig()
	retry.MaxRetries = cfg.HTTP.MaxRetries
	retry.Timeout = timeout

	hc := httpclient.NewWithConfig(retry)
	hc.SetDefaultHeaders(map[string]string{
		"User-Agent": version.UserAgent(),
		"Accept":     "application/json",
	})

	return versioneye.NewClient(cfg.VersionEye.APIKey,
		versioneye.WithBaseURL(cfg.VersionEye.BaseURL),
		versioneye.WithHTTPClient(hc),
		versioneye.WithRateLimit(cfg.VersionEye.RequestsPerSecond),
	)
}

// newWebhook builds a single-attempt Slack webhook using the configured timeout
func newWebhook(cfg *config.Config) (*slack.Webhook, error) {
	timeout, err := cfg.Timeout()
	if err != nil {
		return nil, err
	}

	retry := httpclient.NoRetryConfig()
	retry.Timeout = timeout

	hc := httpclient.NewWithConfig(retry)
	hc.SetDefaultHeaders(map[string]string{"User-Agent": version.UserAgent()})

	return slack.NewWebhook(cfg.Slack.Hook, slack.WithHTTPClient(hc))
}

// newStore returns the file store at cache.path or the default location
func newStore(cfg *config.Config) (*notify.FileStore, error) {
	path, err := cfg.CachePath()
	if err != nil {
		return nil, err
	}
	if path == "" {
		if path, err = notify.DefaultCachePath(); err != nil {
			return nil, err
		}
	}
	return notify.NewFileStore(path), nil
}

// newNotifier wires the API client, webhook and cache store together
func newNotifier(cfg *config.Config, dryRun bool) (*notify.Notifier, error) {
	api, err := newAPIClient(cfg)
	if err != nil {
		return nil, err
	}

	webhook, err := newWebhook(cfg)
	if err != nil {
		return nil, err
	}

	store, err := newStore(cfg)
	if err != nil {
		return nil, err
	}
	logger.Debug("Using notification cache %s", store.Path())

	ids := make([]versioneye.ProjectID, 0, len(cfg.Projects))
	for _, p := range cfg.Projects {
		if p != "" {
			ids = append(ids, versioneye.ProjectID(p))
		}
	}

	return notify.New(api, webhook, store,
		notify.WithChannel(cfg.Channel()),
		notify.WithProjects(ids...),
		notify.WithLinkBase(api.BaseURL()),
		notify.WithDryRun(dryRun),
	)
}

package main

import (
	"fmt"
	"os"
	"sort"

	"github.com/obentoo/versioneye-slack/internal/common/logger"
	"github.com/obentoo/versioneye-slack/internal/common/output"
	"github.com/obentoo/versioneye-slack/internal/notify"
	"github.com/spf13/cobra"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect the notification cache",
	Long: `The notification cache records the last version posted for each package so
the same release is never announced twice.`,
}

var cacheListCmd = &cobra.Command{
	Use:   "list",
	Short: "List notified packages and versions",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		store := openStore(cmd)

		cached, err := store.Load()
		if err != nil {
			logger.Error("%v", err)
			os.Exit(1)
		}
		if len(cached) == 0 {
			logger.Info("Cache is empty")
			return
		}

		keys := make([]string, 0, len(cached))
		for k := range cached {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		for _, k := range keys {
			fmt.Printf("%s  %s\n", output.Package.Sprint(k), output.Current.Sprint(cached[k]))
		}
	},
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove the notification cache",
	Long:  `Remove the notification cache. The next run reports every outdated dependency again.`,
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		store := openStore(cmd)
		if err := store.Clear(); err != nil {
			logger.Error("%v", err)
			os.Exit(1)
		}
		if !quiet {
			output.PrintSuccess("Removed %s", store.Path())
		}
	},
}

var cachePathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the notification cache location",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(openStore(cmd).Path())
	},
}

func init() {
	cacheCmd.AddCommand(cacheListCmd)
	cacheCmd.AddCommand(cacheClearCmd)
	cacheCmd.AddCommand(cachePathCmd)

	rootCmd.AddCommand(cacheCmd)
}

// openStore resolves the cache location from config and flags, exiting on error
func openStore(cmd *cobra.Command) *notify.FileStore {
	cfg, err := loadSettings(cmd)
	if err != nil {
		logger.Error("loading config: %v", err)
		os.Exit(1)
	}

	store, err := newStore(cfg)
	if err != nil {
		logger.Error("%v", err)
		os.Exit(1)
	}
	return store
}

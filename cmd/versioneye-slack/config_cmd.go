package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/obentoo/versioneye-slack/internal/common/config"
	"github.com/obentoo/versioneye-slack/internal/common/logger"
	"github.com/obentoo/versioneye-slack/internal/common/output"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the configuration file",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a configuration file interactively",
	Long: `Create a configuration file with the VersionEye API key and Slack webhook.

The file is written to --config when given, otherwise to
~/.config/versioneye-slack/config.yaml. A .toml extension selects TOML.
Values may reference environment variables as ${NAME}.`,
	Args: cobra.NoArgs,
	Run:  runConfigInit,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the configuration file in use",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		if configFile != "" {
			fmt.Println(configFile)
			return
		}
		path, err := config.FindConfigPath()
		if errors.Is(err, config.ErrConfigFileNotFound) {
			logger.Info("No config file found")
			return
		}
		if err != nil {
			logger.Error("%v", err)
			os.Exit(1)
		}
		fmt.Println(path)
	},
}

func init() {
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configPathCmd)

	rootCmd.AddCommand(configCmd)
}

func runConfigInit(cmd *cobra.Command, args []string) {
	reader := bufio.NewReader(os.Stdin)

	configPath := configFile
	if configPath == "" {
		var err error
		if configPath, err = config.DefaultConfigPath(); err != nil {
			output.PrintError("Failed to locate config directory: %v", err)
			os.Exit(1)
		}
	}

	if _, err := os.Stat(configPath); err == nil {
		output.PrintWarning("Config already exists at: %s", configPath)
		if !confirm(reader, "Overwrite? [y/N]: ") {
			fmt.Println("Aborted.")
			return
		}
	}

	fmt.Println()
	output.PrintInfo("VersionEye to Slack configuration")
	fmt.Println()

	cfg := promptConfig(reader)

	if err := cfg.SaveTo(configPath); err != nil {
		output.PrintError("Failed to save config: %v", err)
		os.Exit(1)
	}

	fmt.Println()
	output.PrintSuccess("Configuration saved to: %s", configPath)
	fmt.Println()
	fmt.Println("You can now use:")
	fmt.Println("  versioneye-slack projects   - List tracked projects")
	fmt.Println("  versioneye-slack --dry-run  - Preview the next notification")
	fmt.Println("  versioneye-slack            - Post new outdated dependencies")
}

// promptConfig asks for each setting, keeping defaults on empty input
func promptConfig(reader *bufio.Reader) *config.Config {
	cfg := config.Default()

	cfg.VersionEye.APIKey = prompt(reader, "VersionEye API key (or ${ENV_VAR})", "")
	cfg.Slack.Hook = prompt(reader, "Slack webhook URL (or ${ENV_VAR})", "")
	cfg.Slack.Channel = prompt(reader, "Slack channel", config.DefaultChannel)

	projects := prompt(reader, "Project identifiers, comma separated (empty for all)", "")
	for _, p := range strings.Split(projects, ",") {
		if p = strings.TrimSpace(p); p != "" {
			cfg.Projects = append(cfg.Projects, p)
		}
	}

	return cfg
}

// prompt prints a question and returns the trimmed answer or def
func prompt(reader *bufio.Reader, question, def string) string {
	if def != "" {
		fmt.Printf("%s [%s]: ", question, def)
	} else {
		fmt.Printf("%s: ", question)
	}

	answer, err := reader.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return def
	}
	if answer = strings.TrimSpace(answer); answer == "" {
		return def
	}
	return answer
}

func confirm(reader *bufio.Reader, question string) bool {
	fmt.Print(question)
	input, _ := reader.ReadString('\n')
	return strings.ToLower(strings.TrimSpace(input)) == "y"
}

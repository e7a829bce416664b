package main

import (
	"fmt"
	"os"

	"github.com/obentoo/versioneye-slack/internal/common/logger"
	"github.com/obentoo/versioneye-slack/internal/common/output"
	"github.com/spf13/cobra"
)

// projectsDeps also fetches and prints each project's outdated dependencies
var projectsDeps bool

var projectsCmd = &cobra.Command{
	Use:   "projects",
	Short: "List projects tracked on VersionEye",
	Long: `List the project identifiers available to the configured API key.

Use these identifiers with --project to restrict a run.

Examples:
  versioneye-slack projects
  versioneye-slack projects --outdated`,
	Args: cobra.NoArgs,
	Run:  runProjects,
}

func init() {
	projectsCmd.Flags().BoolVar(&projectsDeps, "outdated", false, "Show outdated dependencies of each project")

	rootCmd.AddCommand(projectsCmd)
}

func runProjects(cmd *cobra.Command, args []string) {
	cfg, err := loadSettings(cmd)
	if err != nil {
		logger.Error("loading config: %v", err)
		os.Exit(1)
	}
	defer logger.Default().Close()

	client, err := newAPIClient(cfg)
	if err != nil {
		logger.Error("%v", err)
		os.Exit(1)
	}

	ctx, cancel := signalContext()
	defer cancel()

	ids, err := client.ListProjects(ctx)
	if err != nil {
		logger.Error("%v", err)
		os.Exit(1)
	}

	if len(ids) == 0 {
		logger.Info("No projects found")
		return
	}

	for _, id := range ids {
		fmt.Println(output.Header.Sprint(string(id)))
		if !projectsDeps {
			continue
		}

		deps, err := client.Dependencies(ctx, id)
		if err != nil {
			output.Error.Printf("  %v\n", err)
			continue
		}

		outdated := 0
		for _, dep := range deps {
			if !dep.Outdated {
				continue
			}
			outdated++
			line := fmt.Sprintf("  %s  %s", output.FormatPackage(dep.Name, dep.Language),
				output.FormatVersions(dep.VersionRequested, dep.VersionCurrent))
			if marker := output.FormatVulnerable(dep.Vulnerable); marker != "" {
				line += "  " + marker
			}
			fmt.Println(line)
		}
		output.Dim.Printf("  %d of %d dependencies outdated\n", outdated, len(deps))
	}
}

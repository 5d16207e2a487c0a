package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/crytic/pathfinder/explorer/config"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// addRootFlags adds the various flags for the root command
func addRootFlags() error {
	// Get the default project config and throw an error if we cant
	defaultConfig, err := config.GetDefaultProjectConfig()
	if err != nil {
		return err
	}

	// Prevent alphabetical sorting of usage message
	rootCmd.Flags().SortFlags = false

	// Config file
	rootCmd.Flags().String("config", "", "path to config file")

	// Workspace directory
	rootCmd.Flags().String("workspace-dir", "",
		"directory the results workspace is created in (unless a config file is provided, default is the working directory)")

	// Number of workers
	rootCmd.Flags().Int("workers", 0,
		fmt.Sprintf("number of exploration workers (unless a config file is provided, default is %d)", defaultConfig.Exploration.Workers))

	// Timeout
	rootCmd.Flags().Int("timeout", 0,
		fmt.Sprintf("number of seconds to explore for (unless a config file is provided, default is %d). 0 means that timeout is not enforced", defaultConfig.Exploration.Timeout))

	// Path limit
	rootCmd.Flags().Int("path-limit", 0,
		fmt.Sprintf("maximum number of candidate assignments to execute (unless a config file is provided, default is %d)", defaultConfig.Exploration.PathLimit))

	// Log level
	rootCmd.Flags().String("log-level", "",
		fmt.Sprintf("log level: trace, debug, info, warn or error (unless a config file is provided, default is %s)", defaultConfig.Logging.Level))

	// No color
	rootCmd.Flags().Bool("no-color", false, "disable colorized output")
	return nil
}

// updateProjectConfigWithRootFlags will update the given projectConfig with any CLI arguments that were provided to
// the root command
func updateProjectConfigWithRootFlags(cmd *cobra.Command, projectConfig *config.ProjectConfig) error {
	var err error

	// If --workspace-dir was used
	if cmd.Flags().Changed("workspace-dir") {
		workspaceDir, err := cmd.Flags().GetString("workspace-dir")
		if err != nil {
			return err
		}
		// The root command changes into the config directory, so the flag is resolved against the invocation directory.
		if projectConfig.Exploration.WorkspaceDir, err = filepath.Abs(workspaceDir); err != nil {
			return err
		}
	}

	// If --workers was used
	if cmd.Flags().Changed("workers") {
		projectConfig.Exploration.Workers, err = cmd.Flags().GetInt("workers")
		if err != nil {
			return err
		}
	}

	// If --timeout was used
	if cmd.Flags().Changed("timeout") {
		projectConfig.Exploration.Timeout, err = cmd.Flags().GetInt("timeout")
		if err != nil {
			return err
		}
	}

	// If --path-limit was used
	if cmd.Flags().Changed("path-limit") {
		projectConfig.Exploration.PathLimit, err = cmd.Flags().GetInt("path-limit")
		if err != nil {
			return err
		}
	}

	// If --log-level was used
	if cmd.Flags().Changed("log-level") {
		levelName, err := cmd.Flags().GetString("log-level")
		if err != nil {
			return err
		}
		level, err := zerolog.ParseLevel(levelName)
		if err != nil {
			return err
		}
		projectConfig.Logging.Level = level
	}

	// If --no-color was used
	if cmd.Flags().Changed("no-color") {
		projectConfig.Logging.NoColor, err = cmd.Flags().GetBool("no-color")
		if err != nil {
			return err
		}
	}
	return nil
}

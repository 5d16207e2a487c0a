package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/crytic/pathfinder/cmd/exitcodes"
	"github.com/crytic/pathfinder/driver"
	"github.com/crytic/pathfinder/explorer/config"
	"github.com/crytic/pathfinder/logging"
	"github.com/crytic/pathfinder/logging/colors"
	"github.com/crytic/pathfinder/version"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// cmdLogger is the logger used by the commands. Console output goes to stderr, stdout only carries command results.
var cmdLogger = logging.NewLogger(zerolog.InfoLevel, os.Stderr).NewSubLogger("module", logging.CLI_SERVICE)

// newEngineFactory creates the environments the root command runs the scenario in.
var newEngineFactory = driver.NewExplorerEngineFactory

// rootCmd deploys the scenario contract, records its symbolic calls and explores them.
var rootCmd = &cobra.Command{
	Use:   "pathfinder",
	Short: "Explores the execution paths of a smart contract scenario",
	Long: `pathfinder deploys a Solidity contract on an in-memory chain, records calls taking symbolic
arguments and explores the distinct execution paths they take over candidate values.

Without a config file, MockERC20 from contracts/test/MockERC20.sol is deployed and a mint followed
by a burn of the same symbolic amount is explored. Results are saved into a new workspace directory.`,
	Args:              cmdValidateRootArgs,
	ValidArgsFunction: cmdValidRootArgs,
	RunE:              cmdRunRoot,
	SilenceUsage:      true,
	SilenceErrors:     true,
}

func init() {
	rootCmd.Version = version.GetInfo().Short()

	err := addRootFlags()
	if err != nil {
		cmdLogger.Panic("Failed to initialize the root command", err)
	}
}

// Execute runs the root command with a context which is cancelled on keyboard interrupts.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

// cmdValidRootArgs will return which flags are valid for dynamic completion for the root command
func cmdValidRootArgs(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	var unusedFlags []string
	cmd.Flags().VisitAll(func(flag *pflag.Flag) {
		if !flag.Changed {
			unusedFlags = append(unusedFlags, "--"+flag.Name)
		}
	})
	return unusedFlags, cobra.ShellCompDirectiveNoFileComp
}

// cmdValidateRootArgs makes sure that there are no positional arguments provided to the root command
func cmdValidateRootArgs(cmd *cobra.Command, args []string) error {
	if err := cobra.NoArgs(cmd, args); err != nil {
		err = fmt.Errorf("pathfinder does not accept any positional arguments, only flags and their associated values")
		cmdLogger.Error("Failed to validate args", err)
		return err
	}
	return nil
}

// cmdRunRoot executes the root command and navigates through the following possibilities:
// #1: We will search for either a custom config file (via --config) or the default (pathfinder.json).
// If we find it, read it. If we can't read it, throw an error.
// #2: If a custom file was provided (--config was used), and we can't find the file, throw an error.
// #3: If pathfinder.json can't be found, use the default project configuration.
func cmdRunRoot(cmd *cobra.Command, args []string) error {
	projectConfig, configPath, err := loadProjectConfig(cmd)
	if err != nil {
		cmdLogger.Error("Failed to load the project configuration", err)
		return exitcodes.NewErrorWithExitCode(err, exitcodes.ExitCodeHandledError)
	}

	// Update the project configuration given whatever flags were set using the CLI
	if err = updateProjectConfigWithRootFlags(cmd, projectConfig); err != nil {
		cmdLogger.Error("Failed to apply the command line flags", err)
		return exitcodes.NewErrorWithExitCode(err, exitcodes.ExitCodeHandledError)
	}
	if err = projectConfig.Validate(); err != nil {
		cmdLogger.Error("Invalid project configuration", err)
		return exitcodes.NewErrorWithExitCode(err, exitcodes.ExitCodeHandledError)
	}

	// Paths in the config, such as the scenario source, are relative to the directory of the config file.
	if err = os.Chdir(filepath.Dir(configPath)); err != nil {
		cmdLogger.Error("Failed to change the working directory", err)
		return exitcodes.NewErrorWithExitCode(err, exitcodes.ExitCodeHandledError)
	}

	if projectConfig.Logging.NoColor {
		colors.DisableColor()
	}
	logging.GlobalLogger = logging.NewLogger(projectConfig.Logging.Level, os.Stderr)

	_, err = driver.Run(cmd.Context(), newEngineFactory(*projectConfig), projectConfig.Scenario, cmd.OutOrStdout())
	if err != nil {
		cmdLogger.Error("Failed to explore the scenario", err)
		return exitcodes.NewErrorWithExitCode(err, exitcodes.ExitCodeHandledError)
	}
	return nil
}

// loadProjectConfig reads the project configuration given by --config, or the default config file in the working
// directory. Without either, the default project configuration is returned. Returns the config and its path.
func loadProjectConfig(cmd *cobra.Command) (*config.ProjectConfig, string, error) {
	configFlagUsed := cmd.Flags().Changed("config")
	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, "", err
	}

	// If --config was not used, look for `pathfinder.json` in the current work directory
	if !configFlagUsed {
		workingDirectory, err := os.Getwd()
		if err != nil {
			return nil, "", err
		}
		configPath = filepath.Join(workingDirectory, DefaultProjectConfigFilename)
	}
	if configPath, err = filepath.Abs(configPath); err != nil {
		return nil, "", err
	}

	_, existenceError := os.Stat(configPath)
	switch {
	case existenceError == nil:
		cmdLogger.Info("Reading the configuration file at: ", colors.Bold, configPath, colors.Reset)
		projectConfig, err := config.ReadProjectConfigFromFile(configPath)
		return projectConfig, configPath, err
	case configFlagUsed:
		return nil, "", existenceError
	default:
		projectConfig, err := config.GetDefaultProjectConfig()
		return projectConfig, configPath, err
	}
}

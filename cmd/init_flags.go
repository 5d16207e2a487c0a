package cmd

import (
	"github.com/crytic/pathfinder/explorer/config"
	"github.com/spf13/cobra"
)

// addInitFlags adds the various flags for the init command
func addInitFlags() error {
	// Output path for configuration
	initCmd.Flags().String("out", "", "output path for the new project configuration file")

	// Contract source
	initCmd.Flags().String("source", "", "path of the Solidity source the scenario deploys")

	// Contract name
	initCmd.Flags().String("contract", "", "name of the contract the scenario deploys")

	// Overwrite without prompting
	initCmd.Flags().Bool("force", false, "overwrite an existing configuration file without prompting")
	return nil
}

// updateProjectConfigWithInitFlags will update the given projectConfig with any CLI arguments that were provided to the init command
func updateProjectConfigWithInitFlags(cmd *cobra.Command, projectConfig *config.ProjectConfig) error {
	var err error

	// If --source was used
	if cmd.Flags().Changed("source") {
		projectConfig.Scenario.SourcePath, err = cmd.Flags().GetString("source")
		if err != nil {
			return err
		}
	}

	// If --contract was used
	if cmd.Flags().Changed("contract") {
		projectConfig.Scenario.ContractName, err = cmd.Flags().GetString("contract")
		if err != nil {
			return err
		}
	}
	return nil
}

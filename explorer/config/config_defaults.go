package config

import (
	"github.com/crytic/pathfinder/chain/config"
	"github.com/crytic/pathfinder/compilation"
	"github.com/rs/zerolog"
)

// DefaultWorkspacePrefix prefixes the names of created workspace directories.
const DefaultWorkspacePrefix = "mcore_"

// GetDefaultProjectConfig obtains the default configuration, which deploys MockERC20 and explores a mint
// followed by a burn of the same symbolic amount.
func GetDefaultProjectConfig() (*ProjectConfig, error) {
	compilationConfig, err := compilation.NewCompilationConfig("solc")
	if err != nil {
		return nil, err
	}

	projectConfig := &ProjectConfig{
		Scenario: DefaultScenarioConfig(),
		Exploration: ExplorationConfig{
			Workers:                1,
			PathLimit:              4096,
			MaxCandidatesPerSymbol: 64,
			Timeout:                0,
			Seed:                   1,
			RandomCandidates:       4,
			WorkspaceDir:           "",
			WorkspacePrefix:        DefaultWorkspacePrefix,
		},
		Chain:       *config.DefaultTestChainConfig(),
		Compilation: compilationConfig,
		Logging: LoggingConfig{
			Level:          zerolog.InfoLevel,
			NoColor:        false,
			LogToWorkspace: true,
		},
	}
	return projectConfig, nil
}

// DefaultScenarioConfig obtains the default scenario: an owner holding 1 ether deploys MockERC20("MockToken",
// "MOCK", 18), then mints and burns a symbolic amount for itself.
func DefaultScenarioConfig() ScenarioConfig {
	return ScenarioConfig{
		SourcePath:      "contracts/test/MockERC20.sol",
		ContractName:    "MockERC20",
		ConstructorArgs: []any{"MockToken", "MOCK", 18},
		OwnerBalance:    "1000000000000000000",
		SymbolicValues: []SymbolicValueConfig{
			{Name: "amount", Type: "uint256"},
		},
		Calls: []CallConfig{
			{Method: "mint", Args: []any{"$owner", "$amount"}},
			{Method: "burn", Args: []any{"$owner", "$amount"}},
		},
	}
}

package config

import (
	"encoding/json"
	"math/big"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestDefaultProjectConfig ensures the default configuration is valid and reproduces the MockERC20 workflow.
func TestDefaultProjectConfig(t *testing.T) {
	projectConfig, err := GetDefaultProjectConfig()
	require.NoError(t, err)
	require.NoError(t, projectConfig.Validate())

	scenario := projectConfig.Scenario
	assert.EqualValues(t, "contracts/test/MockERC20.sol", scenario.SourcePath)
	assert.EqualValues(t, "MockERC20", scenario.ContractName)
	assert.EqualValues(t, []any{"MockToken", "MOCK", 18}, scenario.ConstructorArgs)

	balance, err := scenario.OwnerBalanceValue()
	require.NoError(t, err)
	assert.EqualValues(t, new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil), balance)

	require.Len(t, scenario.Calls, 2)
	assert.EqualValues(t, "mint", scenario.Calls[0].Method)
	assert.EqualValues(t, "burn", scenario.Calls[1].Method)
	assert.EqualValues(t, 1, projectConfig.Exploration.Workers)
	assert.EqualValues(t, DefaultWorkspacePrefix, projectConfig.Exploration.WorkspacePrefix)
}

// TestProjectConfigRoundTrip ensures a written config reads back with the same values, and that partial files
// keep defaults for the fields they omit.
func TestProjectConfigRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, DefaultConfigFileName)

	projectConfig, err := GetDefaultProjectConfig()
	require.NoError(t, err)
	projectConfig.Exploration.Workers = 3
	require.NoError(t, projectConfig.WriteToFile(path))

	read, err := ReadProjectConfigFromFile(path)
	require.NoError(t, err)
	assert.EqualValues(t, 3, read.Exploration.Workers)
	assert.EqualValues(t, projectConfig.Scenario.Calls[0].Args, read.Scenario.Calls[0].Args)

	partialPath := filepath.Join(dir, "partial.json")
	require.NoError(t, os.WriteFile(partialPath, []byte(`{"exploration": {"timeout": 30}}`), 0644))
	partial, err := ReadProjectConfigFromFile(partialPath)
	require.NoError(t, err)
	assert.EqualValues(t, 30, partial.Exploration.Timeout)
	assert.EqualValues(t, 1, partial.Exploration.Workers)
	assert.EqualValues(t, "MockERC20", partial.Scenario.ContractName)

	// Integers beyond 2^53 are read back exactly.
	largePath := filepath.Join(dir, "large.json")
	largeConfig := `{"scenario": {"constructorArgs": ["MockToken", "MOCK", 18], "calls": [{"method": "mint", "args": ["$owner", 1000000000000000000001]}]}}`
	require.NoError(t, os.WriteFile(largePath, []byte(largeConfig), 0644))
	large, err := ReadProjectConfigFromFile(largePath)
	require.NoError(t, err)
	require.Len(t, large.Scenario.Calls, 1)
	require.Len(t, large.Scenario.Calls[0].Args, 2)
	assert.Equal(t, json.Number("1000000000000000000001"), large.Scenario.Calls[0].Args[1])
	assert.Equal(t, json.Number("18"), large.Scenario.ConstructorArgs[2])

	_, err = ReadProjectConfigFromFile(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)
}

// TestProjectConfigValidation ensures malformed configurations are rejected.
func TestProjectConfigValidation(t *testing.T) {
	cases := map[string]func(p *ProjectConfig){
		"no workers":        func(p *ProjectConfig) { p.Exploration.Workers = 0 },
		"negative limit":    func(p *ProjectConfig) { p.Exploration.PathLimit = -1 },
		"no candidates":     func(p *ProjectConfig) { p.Exploration.MaxCandidatesPerSymbol = 0 },
		"prefix with slash": func(p *ProjectConfig) { p.Exploration.WorkspacePrefix = "a/b" },
		"bad balance":       func(p *ProjectConfig) { p.Scenario.OwnerBalance = "1e18" },
		"duplicate symbol": func(p *ProjectConfig) {
			p.Scenario.SymbolicValues = append(p.Scenario.SymbolicValues, p.Scenario.SymbolicValues[0])
		},
		"reserved symbol": func(p *ProjectConfig) { p.Scenario.SymbolicValues[0].Name = "owner" },
		"bad type":        func(p *ProjectConfig) { p.Scenario.SymbolicValues[0].Type = "uint7" },
		"empty method":    func(p *ProjectConfig) { p.Scenario.Calls[0].Method = "" },
		"no compilation":  func(p *ProjectConfig) { p.Compilation = nil },
		"gas limits":      func(p *ProjectConfig) { p.Chain.TransactionGasLimit = p.Chain.BlockGasLimit + 1 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			projectConfig, err := GetDefaultProjectConfig()
			require.NoError(t, err)
			mutate(projectConfig)
			assert.Error(t, projectConfig.Validate())
		})
	}
}

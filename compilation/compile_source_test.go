package compilation

import (
	"context"
	"encoding/json"
	"os/exec"
	"testing"

	"github.com/crytic/pathfinder/compilation/platforms"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestCompilationConfigRoundTrip verifies a platform config survives wrapping in a CompilationConfig.
func TestCompilationConfigRoundTrip(t *testing.T) {
	solcConfig := platforms.NewSolcCompilationConfig("token.sol")
	solcConfig.Args = []string{"--optimize"}
	config, err := NewCompilationConfigFromPlatformConfig(solcConfig)
	require.NoError(t, err)
	assert.Equal(t, "solc", config.Platform)

	b, err := json.Marshal(config)
	require.NoError(t, err)
	var decoded CompilationConfig
	require.NoError(t, json.Unmarshal(b, &decoded))

	platformConfig, err := decoded.GetPlatformConfig()
	require.NoError(t, err)
	assert.Equal(t, "token.sol", platformConfig.GetTarget())
	assert.Equal(t, []string{"--optimize"}, platformConfig.(*platforms.SolcCompilationConfig).Args)
}

// TestUnsupportedPlatform verifies unknown platforms are rejected.
func TestUnsupportedPlatform(t *testing.T) {
	_, err := NewCompilationConfig("foundry-but-not-really")
	assert.Error(t, err)

	config := &CompilationConfig{Platform: "unknown"}
	_, _, err = config.Compile(context.Background())
	assert.Error(t, err)
	assert.Equal(t, []string{"solc"}, GetSupportedCompilationPlatforms())
}

// TestCompileSource compiles source text which is not present on disk.
func TestCompileSource(t *testing.T) {
	if _, err := exec.LookPath("solc"); err != nil {
		t.Skip("solc is not available on PATH")
	}
	config, err := NewCompilationConfig("solc")
	require.NoError(t, err)

	source := `pragma solidity >=0.8.0; contract Counter { uint256 public count; function inc() public { count += 1; } }`
	compilation, _, err := CompileSource(context.Background(), config, source, "Counter.sol")
	require.NoError(t, err)

	contract, _, err := compilation.FindContract("Counter")
	require.NoError(t, err)
	assert.Contains(t, contract.Abi.Methods, "inc")
}

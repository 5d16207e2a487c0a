package platforms

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/Masterminds/semver"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requireSolc(t *testing.T) {
	if _, err := exec.LookPath("solc"); err != nil {
		t.Skip("solc is not available on PATH")
	}
}

// TestSolcOutputOptions verifies the output selection for versions on either side of each option change.
func TestSolcOutputOptions(t *testing.T) {
	cases := map[string]string{
		"0.4.11": "abi,ast,bin,bin-runtime,srcmap,srcmap-runtime,userdoc,devdoc",
		"0.5.17": "abi,ast,bin,bin-runtime,srcmap,srcmap-runtime,userdoc,devdoc,hashes,compact-format",
		"0.8.9":  "abi,ast,bin,bin-runtime,srcmap,srcmap-runtime,userdoc,devdoc,hashes,compact-format",
		"0.8.10": "abi,ast,bin,bin-runtime,srcmap,srcmap-runtime,userdoc,devdoc,hashes",
		"0.8.28": "abi,ast,bin,bin-runtime,srcmap,srcmap-runtime,userdoc,devdoc,hashes",
	}
	for version, expected := range cases {
		v := semver.MustParse(version)
		assert.Equal(t, expected, SolcOutputOptions(v), version)
	}
}

// TestSolcVersion verifies the system solc version can be resolved.
func TestSolcVersion(t *testing.T) {
	requireSolc(t)
	v, err := GetSystemSolcVersion(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, v)
}

// TestSimpleSolcCompilation compiles a small contract and checks its artifacts were parsed.
func TestSimpleSolcCompilation(t *testing.T) {
	requireSolc(t)
	contractSource := `
pragma solidity >=0.8.0;

contract SimpleSolcCompilation {
    uint256 x;

    function setX(uint256 val) public {
        require(val < 1000, "too large");
        x = val;
    }
}`
	contractPath := filepath.Join(t.TempDir(), "simple_solc_compilation.sol")
	require.NoError(t, os.WriteFile(contractPath, []byte(contractSource), 0644))

	compilations, _, err := NewSolcCompilationConfig(contractPath).Compile(context.Background())
	require.NoError(t, err)
	require.Len(t, compilations, 1)

	contract, _, err := compilations[0].FindContract("SimpleSolcCompilation")
	require.NoError(t, err)
	assert.NotEmpty(t, contract.InitBytecode)
	assert.NotEmpty(t, contract.RuntimeBytecode)
	assert.Contains(t, contract.Abi.Methods, "setX")
}

// TestInvalidSolcCompilation verifies syntax errors are reported.
func TestInvalidSolcCompilation(t *testing.T) {
	requireSolc(t)
	contractPath := filepath.Join(t.TempDir(), "broken.sol")
	require.NoError(t, os.WriteFile(contractPath, []byte("contract Broken { function ( }"), 0644))

	_, _, err := NewSolcCompilationConfig(contractPath).Compile(context.Background())
	assert.Error(t, err)
}

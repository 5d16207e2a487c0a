package workspace

import (
	"math/big"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/crytic/medusa-geth/common"
	"github.com/crytic/medusa-geth/common/hexutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestWorkspaceLazyCreation ensures the workspace directory only exists once it is used, and is named by its prefix
// and 8 hex characters.
func TestWorkspaceLazyCreation(t *testing.T) {
	parent := t.TempDir()
	ws := New(parent, "mcore_")
	assert.False(t, ws.Created())

	entries, err := os.ReadDir(parent)
	require.NoError(t, err)
	assert.Empty(t, entries)

	path, err := ws.Path()
	require.NoError(t, err)
	assert.True(t, ws.Created())
	assert.True(t, filepath.IsAbs(path))
	assert.Regexp(t, `^mcore_[0-9a-f]{8}$`, filepath.Base(path))

	again, err := ws.Path()
	require.NoError(t, err)
	assert.EqualValues(t, path, again)
}

// TestWorkspaceNeverReusesDirectories ensures name collisions are retried and existing directories are untouched.
func TestWorkspaceNeverReusesDirectories(t *testing.T) {
	parent := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(parent, "mcore_00000000"), 0777))

	suffixes := []string{"00000000", "00000000", "00000001"}
	ws := New(parent, "mcore_")
	ws.newSuffix = func() string {
		s := suffixes[0]
		suffixes = suffixes[1:]
		return s
	}
	path, err := ws.Path()
	require.NoError(t, err)
	assert.EqualValues(t, "mcore_00000001", filepath.Base(path))

	// Exhausted attempts fail instead of reusing a directory.
	ws = New(parent, "mcore_")
	ws.newSuffix = func() string { return "00000000" }
	_, err = ws.Path()
	assert.Error(t, err)

	// Distinct workspaces get distinct directories.
	first, err := New(parent, "mcore_").Path()
	require.NoError(t, err)
	second, err := New(parent, "mcore_").Path()
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
}

// TestWorkspaceFileNames ensures files cannot escape the workspace.
func TestWorkspaceFileNames(t *testing.T) {
	ws := New(t.TempDir(), "mcore_")
	assert.Error(t, ws.WriteFile("../escape", nil))
	assert.Error(t, ws.WriteFile("", nil))
	assert.False(t, ws.Created())
	assert.NoError(t, ws.WriteFile("global.summary", []byte("ok")))
}

// TestIndex ensures test cases and run information survive reopening the index.
func TestIndex(t *testing.T) {
	ws := New(t.TempDir(), "mcore_")
	index, err := ws.OpenIndex()
	require.NoError(t, err)

	records := []TestCaseRecord{
		{ID: "bbbbbbbb", Index: 7, Statuses: []string{"REVERT"}},
		{ID: "aaaaaaaa", Index: 0, Statuses: []string{"SUCCESS"}, Assignment: map[string]string{"amount": "0"}},
	}
	require.NoError(t, index.PutTestCases(records...))
	require.NoError(t, index.PutMeta(MetaRunInfo, RunInfo{Paths: 2, Assignments: 8}))
	require.NoError(t, index.Close())

	dir, err := ws.Path()
	require.NoError(t, err)
	index, err = OpenIndex(dir, false)
	require.NoError(t, err)
	defer index.Close()

	listed, err := index.ListTestCases()
	require.NoError(t, err)
	require.Len(t, listed, 2)
	assert.EqualValues(t, "aaaaaaaa", listed[0].ID)
	assert.EqualValues(t, "0", listed[0].Assignment["amount"])
	assert.EqualValues(t, "bbbbbbbb", listed[1].ID)

	var info RunInfo
	found, err := index.GetMeta(MetaRunInfo, &info)
	require.NoError(t, err)
	assert.True(t, found)
	assert.EqualValues(t, 2, info.Paths)

	found, err = index.GetMeta("missing", &info)
	require.NoError(t, err)
	assert.False(t, found)

	_, err = OpenIndex(t.TempDir(), false)
	assert.Error(t, err)
}

// TestFormatTokenAmount ensures amounts are scaled by the token decimals.
func TestFormatTokenAmount(t *testing.T) {
	assert.EqualValues(t, "1500", FormatTokenAmount(big.NewInt(1500), 0))
	assert.EqualValues(t, "1.5 (1500)", FormatTokenAmount(big.NewInt(1500), 3))
	oneEther, _ := new(big.Int).SetString("1000000000000000000", 10)
	assert.EqualValues(t, "1 ETH", FormatEther(oneEther))
}

// TestArtifacts ensures contract and test case artifacts are written with their expected names.
func TestArtifacts(t *testing.T) {
	ws := New(t.TempDir(), "mcore_")

	// PUSH1 0x01, PUSH1 0x00, SSTORE, STOP
	runtime := hexutil.MustDecode("0x6001600055" + "00")
	err := ws.WriteContractArtifacts(ContractArtifacts{
		Name:            "Token",
		Source:          "contract Token {}",
		InitBytecode:    runtime,
		RuntimeBytecode: runtime,
		Visited:         map[uint64]struct{}{0: {}, 2: {}},
	})
	require.NoError(t, err)

	decimals := uint8(2)
	err = ws.WriteTestCase(TestCase{
		Record:     TestCaseRecord{ID: "0123abcd", Index: 3, Statuses: []string{"SUCCESS"}},
		Assignment: []NamedValue{{Name: "amount", Value: "5"}},
		Transactions: []TransactionRecord{{
			Contract: "Token", Method: "mint", Args: []string{"5"}, Value: "0", Status: "SUCCESS",
		}},
		Logs: []LogRecord{{Address: common.HexToAddress("0x01"), Event: "Transfer", Values: []string{"5"}}},
		Tokens: map[string]*TokenInfo{
			"Token": {Decimals: &decimals, TotalSupply: big.NewInt(5)},
		},
	})
	require.NoError(t, err)

	dir, err := ws.Path()
	require.NoError(t, err)
	for _, name := range []string{
		"global_Token.sol", "global_Token.init_asm", "global_Token.runtime_asm", "global_Token.runtime_visited",
		"test_0123abcd.summary", "test_0123abcd.tx", "test_0123abcd.tx.json", "test_0123abcd.logs",
	} {
		assert.FileExists(t, filepath.Join(dir, name))
	}

	visited, err := os.ReadFile(filepath.Join(dir, "global_Token.runtime_visited"))
	require.NoError(t, err)
	assert.EqualValues(t, "0x0\n0x2\n", string(visited))

	listing, err := os.ReadFile(filepath.Join(dir, "global_Token.runtime_asm"))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(listing)), "\n")
	require.Len(t, lines, 4)
	assert.True(t, strings.HasPrefix(lines[0], "* "))
	assert.Contains(t, lines[0], "PUSH1 0x01")
	assert.True(t, strings.HasPrefix(lines[2], "  "))

	summary, err := os.ReadFile(filepath.Join(dir, "test_0123abcd.summary"))
	require.NoError(t, err)
	assert.Contains(t, string(summary), "amount = 5")
	assert.Contains(t, string(summary), "totalSupply: 0.05 (5)")
}

// TestDisassemble ensures instructions are listed with their arguments and visited marks.
func TestDisassemble(t *testing.T) {
	code := hexutil.MustDecode("0x606460043511600c57")
	listing := Disassemble(code, map[uint64]struct{}{0: {}, 8: {}})
	lines := strings.Split(strings.TrimSuffix(listing, "\n"), "\n")
	require.Len(t, lines, 7)
	assert.Equal(t, "*      0 PUSH1 0x64", lines[0])
	assert.Equal(t, "       2 PUSH1 0x04", lines[1])
	assert.Equal(t, "*      8 JUMPI", lines[6])

	// A truncated PUSH ends the listing with the error.
	listing = Disassemble(hexutil.MustDecode("0x0061aa"), nil)
	assert.True(t, strings.HasPrefix(listing, "     0 STOP\n; "))
}

package explorer

import (
	"context"
	"encoding/json"
	"math/big"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/crytic/medusa-geth/accounts/abi"
	"github.com/crytic/medusa-geth/common/hexutil"
	compilationTypes "github.com/crytic/pathfinder/compilation/types"
	"github.com/crytic/pathfinder/explorer/config"
	"github.com/crytic/pathfinder/workspace"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

// boundedCheckAbi describes a contract with a single check(uint256) method.
const boundedCheckAbi = `[{"type":"function","name":"check","inputs":[{"name":"x","type":"uint256"}],"outputs":[],"stateMutability":"nonpayable"}]`

// boundedCheckContract returns a contract which reverts when its first argument exceeds 100 and stops otherwise.
func boundedCheckContract(t *testing.T) *compilationTypes.CompiledContract {
	parsed, err := abi.JSON(strings.NewReader(boundedCheckAbi))
	require.NoError(t, err)
	return &compilationTypes.CompiledContract{
		Abi:             parsed,
		InitBytecode:    hexutil.MustDecode("0x6011600c60003960116000f3606460043511600c570000005b600080fd"),
		RuntimeBytecode: hexutil.MustDecode("0x606460043511600c570000005b600080fd"),
	}
}

// decimalsTokenAbi describes a contract whose constructor takes the value returned by decimals().
const decimalsTokenAbi = `[{"type":"constructor","inputs":[{"name":"d","type":"uint8"}],"stateMutability":"nonpayable"},` +
	`{"type":"function","name":"decimals","inputs":[],"outputs":[{"name":"","type":"uint8"}],"stateMutability":"view"}]`

// decimalsTokenContract returns a contract which stores its constructor argument and returns it from every call.
func decimalsTokenContract(t *testing.T) *compilationTypes.CompiledContract {
	parsed, err := abi.JSON(strings.NewReader(decimalsTokenAbi))
	require.NoError(t, err)
	return &compilationTypes.CompiledContract{
		Abi:             parsed,
		InitBytecode:    hexutil.MustDecode("0x60206024600039600051600055600b6019600039600b6000f3" + "60005460005260206000f3"),
		RuntimeBytecode: hexutil.MustDecode("0x60005460005260206000f3"),
	}
}

// testConfig returns the default project config writing workspaces into a temporary directory.
func testConfig(t *testing.T) config.ProjectConfig {
	projectConfig, err := config.GetDefaultProjectConfig()
	require.NoError(t, err)
	projectConfig.Exploration.WorkspaceDir = t.TempDir()
	return *projectConfig
}

// newCheckExplorer creates an Explorer with a funded account, a deployed bounded check contract and a symbolic call
// check(x) recorded.
func newCheckExplorer(t *testing.T, projectConfig config.ProjectConfig) *Explorer {
	e, err := NewExplorer(projectConfig)
	require.NoError(t, err)
	t.Cleanup(e.Close)

	owner, err := e.CreateAccount(big.NewInt(1_000_000_000_000_000_000))
	require.NoError(t, err)
	contract, err := e.CreateContract(boundedCheckContract(t), owner, "BoundedCheck")
	require.NoError(t, err)

	x, err := e.MakeSymbolicValue("x")
	require.NoError(t, err)
	result, err := contract.Call("check", x)
	require.NoError(t, err)
	assert.True(t, result.Planned)
	return e
}

// TestExplorerFindsBothPaths verifies that a symbolic argument compared against a constant yields a succeeding and
// a reverting path.
func TestExplorerFindsBothPaths(t *testing.T) {
	e := newCheckExplorer(t, testConfig(t))

	discovered := 0
	e.Events.PathDiscovered.Subscribe(func(event PathDiscoveredEvent) error {
		discovered++
		return nil
	})

	result, err := e.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, result.Paths, 2)
	assert.Equal(t, 2, discovered)
	assert.Empty(t, result.StopReason)
	assert.False(t, result.Truncated())
	assert.Equal(t, result.TotalAssignments, result.Assignments)

	// Both outcomes are found, with the first assignment (zero) representing the succeeding path.
	statuses := map[TxStatus]*Path{}
	total := 0
	for _, path := range result.Paths {
		require.Len(t, path.Calls, 1)
		statuses[path.Calls[0].Status] = path
		total += path.Assignments
		assert.Equal(t, 1, path.Branches())
	}
	require.Contains(t, statuses, TxStatusSuccess)
	require.Contains(t, statuses, TxStatusRevert)
	assert.Equal(t, result.Assignments, total)

	success := statuses[TxStatusSuccess]
	assert.Equal(t, 0, success.Index)
	require.Len(t, success.Assignment, 1)
	assert.EqualValues(t, 0, success.Assignment[0].Value.(*big.Int).Int64())

	reverted := statuses[TxStatusRevert].Assignment[0].Value.(*big.Int)
	assert.Equal(t, 1, reverted.Cmp(big.NewInt(100)))
}

// TestExplorerWritesWorkspace verifies the artifacts written into the workspace.
func TestExplorerWritesWorkspace(t *testing.T) {
	e := newCheckExplorer(t, testConfig(t))
	result, err := e.Run(context.Background())
	require.NoError(t, err)

	require.True(t, filepath.IsAbs(result.WorkspacePath))
	for _, name := range []string{
		workspace.GlobalSummaryFileName,
		workspace.ConfigFileName,
		workspace.LogFileName,
		workspace.IndexFileName,
		"global_BoundedCheck.init_asm",
		"global_BoundedCheck.runtime_asm",
		"global_BoundedCheck.runtime_visited",
	} {
		assert.FileExists(t, filepath.Join(result.WorkspacePath, name))
	}
	for _, path := range result.Paths {
		for _, ext := range []string{".summary", ".tx", ".tx.json", ".logs"} {
			assert.FileExists(t, filepath.Join(result.WorkspacePath, "test_"+path.ID+ext))
		}
	}

	summary, err := os.ReadFile(filepath.Join(result.WorkspacePath, workspace.GlobalSummaryFileName))
	require.NoError(t, err)
	assert.Contains(t, string(summary), "BoundedCheck.check(x)")
	assert.Contains(t, string(summary), "2 distinct paths")

	index, err := workspace.OpenIndex(result.WorkspacePath, false)
	require.NoError(t, err)
	defer index.Close()
	records, err := index.ListTestCases()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, result.Paths[0].ID, records[0].ID)

	var info workspace.RunInfo
	found, err := index.GetMeta(workspace.MetaRunInfo, &info)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, 2, info.Paths)
	assert.Equal(t, result.Assignments, info.Assignments)
}

// TestExplorerWorkersAgree verifies that the paths found do not depend on the amount of workers, and that no
// goroutines outlive a run.
func TestExplorerWorkersAgree(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	sequential, err := newCheckExplorer(t, testConfig(t)).Run(context.Background())
	require.NoError(t, err)

	projectConfig := testConfig(t)
	projectConfig.Exploration.Workers = 4
	concurrent, err := newCheckExplorer(t, projectConfig).Run(context.Background())
	require.NoError(t, err)

	require.Len(t, concurrent.Paths, len(sequential.Paths))
	for i := range sequential.Paths {
		assert.Equal(t, sequential.Paths[i].Signature, concurrent.Paths[i].Signature)
		assert.Equal(t, sequential.Paths[i].Index, concurrent.Paths[i].Index)
		assert.Equal(t, sequential.Paths[i].Assignments, concurrent.Paths[i].Assignments)
	}
}

// TestExplorerPathLimit verifies that the path limit caps the assignments executed.
func TestExplorerPathLimit(t *testing.T) {
	projectConfig := testConfig(t)
	projectConfig.Exploration.PathLimit = 1
	result, err := newCheckExplorer(t, projectConfig).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, result.Assignments)
	assert.True(t, result.Truncated())
	require.Len(t, result.Paths, 1)
	assert.Equal(t, TxStatusSuccess, result.Paths[0].Calls[0].Status)
}

// TestExplorerTerminateBeforeRun verifies that a terminated Explorer still writes its results.
func TestExplorerTerminateBeforeRun(t *testing.T) {
	e := newCheckExplorer(t, testConfig(t))
	e.Terminate()

	result, err := e.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StopReasonTerminated, result.StopReason)
	assert.Empty(t, result.Paths)
	assert.FileExists(t, filepath.Join(result.WorkspacePath, workspace.GlobalSummaryFileName))
}

// TestExplorerCancelledContext verifies that a cancelled context interrupts the run.
func TestExplorerCancelledContext(t *testing.T) {
	e := newCheckExplorer(t, testConfig(t))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := e.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, StopReasonInterrupted, result.StopReason)
}

// TestExplorerRunOnce verifies that an Explorer cannot be run or changed after exploring.
func TestExplorerRunOnce(t *testing.T) {
	e := newCheckExplorer(t, testConfig(t))
	_, err := e.Run(context.Background())
	require.NoError(t, err)

	_, err = e.Run(context.Background())
	assert.ErrorIs(t, err, ErrAlreadyExplored)
	_, err = e.MakeSymbolicValue("y")
	assert.ErrorIs(t, err, ErrAlreadyExplored)
	_, err = e.CreateAccount(big.NewInt(1))
	assert.ErrorIs(t, err, ErrAlreadyExplored)
}

// TestExplorerRejectsInvalidUse verifies the errors reported while setting up an exploration.
func TestExplorerRejectsInvalidUse(t *testing.T) {
	e := newCheckExplorer(t, testConfig(t))
	contract := e.Contracts()[0]

	_, err := e.MakeSymbolicValue("x")
	assert.ErrorIs(t, err, ErrDuplicateSymbolicValue)

	_, err = contract.Call("missing", 1)
	assert.ErrorIs(t, err, ErrUnknownMethod)

	_, err = contract.Call("check", 1, 2)
	assert.Error(t, err)

	flag, err := e.MakeSymbolicValueOfType("flag", "bool")
	require.NoError(t, err)
	_, err = contract.Call("check", flag)
	assert.Error(t, err)

	// Contracts cannot be deployed once calls are recorded.
	_, err = e.CreateContract(boundedCheckContract(t), e.Accounts()[0], "Other")
	assert.Error(t, err)
	assert.Len(t, e.Plan(), 1)
}

// TestExplorerConcreteCallsExecuteImmediately verifies that calls without symbolic arguments run on the chain until a
// symbolic call is recorded.
func TestExplorerConcreteCallsExecuteImmediately(t *testing.T) {
	e, err := NewExplorer(testConfig(t))
	require.NoError(t, err)
	defer e.Close()

	owner, err := e.CreateAccount(big.NewInt(1_000_000))
	require.NoError(t, err)
	contract, err := e.CreateContract(boundedCheckContract(t), owner, "BoundedCheck")
	require.NoError(t, err)

	result, err := contract.Call("check", 5)
	require.NoError(t, err)
	assert.False(t, result.Planned)
	require.NotNil(t, result.Results)
	assert.False(t, result.Results.Failed())

	_, err = contract.Call("check", 500)
	assert.ErrorIs(t, err, ErrCallFailed)
	assert.Empty(t, e.Plan())
}

// TestExplorerSolidity compiles and explores a Solidity token, if solc is available.
func TestExplorerSolidity(t *testing.T) {
	if _, err := exec.LookPath("solc"); err != nil {
		t.Skip("solc is not available")
	}

	source := `pragma solidity ^0.8.0;
contract Counter {
    uint256 public count;
    function add(uint256 amount) public {
        require(amount < 10, "too large");
        count += amount;
    }
}`
	e, err := NewExplorer(testConfig(t))
	require.NoError(t, err)
	defer e.Close()

	owner, err := e.CreateAccount(big.NewInt(1_000_000))
	require.NoError(t, err)
	contract, err := e.SolidityCreateContract(context.Background(), source, owner, "Counter")
	require.NoError(t, err)

	amount, err := e.MakeSymbolicValue("amount")
	require.NoError(t, err)
	_, err = contract.Call("add", amount)
	require.NoError(t, err)

	result, err := e.Run(context.Background())
	require.NoError(t, err)
	assert.GreaterOrEqual(t, len(result.Paths), 2)
	assert.FileExists(t, filepath.Join(result.WorkspacePath, "global_Counter.sol"))

	_, err = e.SolidityCreateContract(context.Background(), source, owner, "Missing")
	assert.Error(t, err)
}

// TestExplorerConstructorArgsInSummary verifies that deploying with other constructor arguments only changes the
// recorded constructor arguments and token metadata.
func TestExplorerConstructorArgsInSummary(t *testing.T) {
	run := func(decimals any) (string, *ExplorationResult) {
		e, err := NewExplorer(testConfig(t))
		require.NoError(t, err)
		t.Cleanup(e.Close)

		owner, err := e.CreateAccount(big.NewInt(1_000_000_000_000_000_000))
		require.NoError(t, err)
		_, err = e.CreateContract(decimalsTokenContract(t), owner, "Token", decimals)
		require.NoError(t, err)
		check, err := e.CreateContract(boundedCheckContract(t), owner, "BoundedCheck")
		require.NoError(t, err)
		x, err := e.MakeSymbolicValue("x")
		require.NoError(t, err)
		_, err = check.Call("check", x)
		require.NoError(t, err)

		result, err := e.Run(context.Background())
		require.NoError(t, err)
		summary, err := os.ReadFile(filepath.Join(result.WorkspacePath, workspace.GlobalSummaryFileName))
		require.NoError(t, err)
		return string(summary), result
	}

	summary18, result18 := run(18)
	summary6, result6 := run(json.Number("6"))

	assert.Contains(t, summary18, "constructor(18)")
	assert.Contains(t, summary18, "decimals: 18")
	assert.Contains(t, summary6, "constructor(6)")
	assert.Contains(t, summary6, "decimals: 6")
	assert.NotContains(t, summary6, "decimals: 18")

	require.Len(t, result6.Paths, len(result18.Paths))
	for i := range result18.Paths {
		assert.Equal(t, result18.Paths[i].Statuses(), result6.Paths[i].Statuses())
		assert.Equal(t, result18.Paths[i].Index, result6.Paths[i].Index)
	}
}

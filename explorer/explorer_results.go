package explorer

import (
	"math/big"

	"github.com/crytic/medusa-geth/common"
	"github.com/crytic/pathfinder/compilation/abiutils"
	"github.com/crytic/pathfinder/explorer/valuegeneration"
	"github.com/crytic/pathfinder/version"
	"github.com/crytic/pathfinder/workspace"
	"github.com/pkg/errors"
)

// writeResults writes the global artifacts, one test case per path, and the index into the workspace. Returns the
// absolute workspace path.
func (e *Explorer) writeResults(result *ExplorationResult, symbols []*SymbolicValue, domains [][]any, visited map[common.Address]map[uint64]struct{}) (string, error) {
	ws := e.workspace
	if err := ws.WriteJSON(workspace.ConfigFileName, e.config); err != nil {
		return "", err
	}

	for _, contract := range e.contracts {
		err := ws.WriteContractArtifacts(workspace.ContractArtifacts{
			Name:            contract.name,
			Source:          contract.source,
			InitBytecode:    contract.compiled.InitBytecode,
			RuntimeBytecode: contract.runtimeBytecode,
			Visited:         visited[contract.address],
		})
		if err != nil {
			return "", errors.WithMessagef(err, "could not write the artifacts of %s", contract.name)
		}
	}

	if err := ws.WriteGlobalSummary(e.globalSummary(result, symbols, domains)); err != nil {
		return "", err
	}

	records := make([]workspace.TestCaseRecord, 0, len(result.Paths))
	for _, path := range result.Paths {
		testCase := e.testCase(path)
		if err := ws.WriteTestCase(testCase); err != nil {
			return "", errors.WithMessagef(err, "could not write test case %s", path.ID)
		}
		records = append(records, testCase.Record)
	}

	index, err := ws.OpenIndex()
	if err != nil {
		return "", err
	}
	defer index.Close()
	if err = index.PutTestCases(records...); err != nil {
		return "", err
	}
	err = index.PutMeta(workspace.MetaRunInfo, workspace.RunInfo{
		Version:          version.Version,
		StartedAt:        result.StartedAt,
		Duration:         result.Duration,
		Assignments:      result.Assignments,
		TotalAssignments: result.TotalAssignments,
		Paths:            len(result.Paths),
		StopReason:       result.StopReason,
	})
	if err != nil {
		return "", err
	}
	return ws.Path()
}

// globalSummary describes the chain after contract creation and the exploration.
func (e *Explorer) globalSummary(result *ExplorationResult, symbols []*SymbolicValue, domains [][]any) workspace.GlobalSummary {
	summary := workspace.GlobalSummary{
		Version:          version.Version,
		CompilerVersion:  e.compilerVersion,
		StartedAt:        result.StartedAt,
		Duration:         result.Duration,
		Accounts:         make(map[common.Address]*big.Int, len(e.accounts)),
		Calls:            append([]string{}, e.concreteCalls...),
		Assignments:      result.Assignments,
		TotalAssignments: result.TotalAssignments,
		Paths:            len(result.Paths),
		StopReason:       result.StopReason,
	}
	for _, account := range e.accounts {
		summary.Accounts[account] = e.chain.GetBalance(account)
	}

	tokens := e.readTokens(e.chain)
	for _, contract := range e.contracts {
		summary.Contracts = append(summary.Contracts, workspace.ContractSummary{
			Name:            contract.name,
			Address:         contract.address,
			Deployer:        contract.deployer,
			ConstructorArgs: formatValues(contract.constructorArgs),
			Token:           tokens[contract.name],
		})
	}

	for i, symbolic := range symbols {
		summary.SymbolicValues = append(summary.SymbolicValues, workspace.SymbolicSummary{
			Name:       symbolic.Name(),
			Type:       symbolic.Type().String(),
			Candidates: len(domains[i]),
		})
	}
	for _, call := range e.plan {
		summary.Calls = append(summary.Calls, call.String())
	}
	return summary
}

// testCase describes the representative assignment of a path.
func (e *Explorer) testCase(path *Path) workspace.TestCase {
	testCase := workspace.TestCase{
		Record: workspace.TestCaseRecord{
			ID:          path.ID,
			Index:       path.Index,
			Signature:   path.signatureHex(),
			Assignment:  make(map[string]string, len(path.Assignment)),
			Assignments: path.Assignments,
			Branches:    path.Branches(),
		},
		Tokens: path.tokens,
	}
	for _, status := range path.Statuses() {
		testCase.Record.Statuses = append(testCase.Record.Statuses, string(status))
	}
	for _, value := range path.Assignment {
		formatted := valuegeneration.FormatAbiValue(value.Value)
		testCase.Record.Assignment[value.Symbol.Name()] = formatted
		testCase.Assignment = append(testCase.Assignment, workspace.NamedValue{Name: value.Symbol.Name(), Value: formatted})
	}

	for i, call := range path.Calls {
		testCase.Transactions = append(testCase.Transactions, transactionRecord(call))
		if call.Results == nil || call.Results.Receipt == nil {
			continue
		}
		for _, log := range call.Results.Receipt.Logs {
			record := workspace.LogRecord{
				Transaction: i,
				Address:     log.Address,
				Topics:      log.Topics,
				Data:        log.Data,
			}
			if contract := e.contractAt(log.Address); contract != nil {
				if event, values := abiutils.UnpackEventAndValues(contract.Abi(), log); event != nil {
					record.Event = event.Name
					record.Values = formatValues(values)
				}
			}
			testCase.Logs = append(testCase.Logs, record)
		}
	}
	return testCase
}

// transactionRecord describes an executed call.
func transactionRecord(call *ExecutedCall) workspace.TransactionRecord {
	record := workspace.TransactionRecord{
		From:     call.Call.From,
		To:       call.Call.Contract.Address(),
		Contract: call.Call.Contract.Name(),
		Method:   call.Call.Method.RawName,
		Args:     formatValues(call.Args),
		Value:    call.Call.Value.String(),
		Data:     call.Message.Data,
		Status:   string(call.Status),
	}

	switch {
	case call.ApplyError != nil:
		record.Error = call.ApplyError.Error()
	case call.Results != nil && call.Results.ExecutionResult != nil:
		execution := call.Results.ExecutionResult
		record.ReturnData = execution.ReturnData
		record.GasUsed = execution.UsedGas
		if call.Status == TxStatusSuccess {
			if values, err := call.Call.Method.Outputs.Unpack(execution.ReturnData); err == nil {
				record.ReturnValue = formatValues(values)
			}
		} else {
			record.Error = call.Call.Contract.describeFailure(call.Results)
		}
	}
	return record
}

// contractAt returns the deployed contract at addr, or nil.
func (e *Explorer) contractAt(addr common.Address) *ContractAccount {
	for _, contract := range e.contracts {
		if contract.address == addr {
			return contract
		}
	}
	return nil
}

func formatValues(values []any) []string {
	formatted := make([]string, len(values))
	for i, value := range values {
		formatted[i] = valuegeneration.FormatAbiValue(value)
	}
	return formatted
}

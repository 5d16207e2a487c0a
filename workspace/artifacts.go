package workspace

import (
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/crytic/medusa-geth/common"
	"github.com/crytic/medusa-geth/common/hexutil"
)

// File names of the workspace artifacts which are not per contract or per test case.
const (
	GlobalSummaryFileName = "global.summary"
	ConfigFileName        = "config.json"
	LogFileName           = "pathfinder.log"
)

// ContractArtifacts describes a deployed contract for its global_<Name>.* artifacts.
type ContractArtifacts struct {
	// Name is the contract name.
	Name string

	// Source is the Solidity source the contract was compiled from. Empty if it was not deployed from source.
	Source string

	// InitBytecode is the creation bytecode, without constructor arguments.
	InitBytecode []byte

	// RuntimeBytecode is the code deployed on chain.
	RuntimeBytecode []byte

	// Visited holds the runtime program counters executed during exploration.
	Visited map[uint64]struct{}
}

// WriteContractArtifacts writes the source, disassembly and coverage artifacts of a contract.
func (w *Workspace) WriteContractArtifacts(contract ContractArtifacts) error {
	prefix := "global_" + contract.Name
	if contract.Source != "" {
		if err := w.WriteFile(prefix+".sol", []byte(contract.Source)); err != nil {
			return err
		}
	}
	if err := w.WriteFile(prefix+".init_asm", []byte(Disassemble(contract.InitBytecode, nil))); err != nil {
		return err
	}
	if err := w.WriteFile(prefix+".runtime_asm", []byte(Disassemble(contract.RuntimeBytecode, contract.Visited))); err != nil {
		return err
	}
	return w.WriteFile(prefix+".runtime_visited", []byte(FormatVisitedPCs(contract.Visited)))
}

// TokenInfo holds the ERC20 metadata of a contract, where available.
type TokenInfo struct {
	Name        *string
	Symbol      *string
	Decimals    *uint8
	TotalSupply *big.Int

	// Balances maps account addresses to their token balance.
	Balances map[common.Address]*big.Int
}

// decimals returns the token decimals, or zero if unknown.
func (t *TokenInfo) decimals() uint8 {
	if t == nil || t.Decimals == nil {
		return 0
	}
	return *t.Decimals
}

// ContractSummary describes a deployed contract in the global summary.
type ContractSummary struct {
	Name            string
	Address         common.Address
	Deployer        common.Address
	ConstructorArgs []string
	Token           *TokenInfo
}

// SymbolicSummary describes a symbolic value in the global summary.
type SymbolicSummary struct {
	Name       string
	Type       string
	Candidates int
}

// GlobalSummary describes a whole run for global.summary.
type GlobalSummary struct {
	Version          string
	CompilerVersion  string
	StartedAt        time.Time
	Duration         time.Duration
	Accounts         map[common.Address]*big.Int
	Contracts        []ContractSummary
	SymbolicValues   []SymbolicSummary
	Calls            []string
	Assignments      int
	TotalAssignments int
	Paths            int
	StopReason       string
}

// WriteGlobalSummary writes global.summary.
func (w *Workspace) WriteGlobalSummary(summary GlobalSummary) error {
	var sb strings.Builder
	fmt.Fprintf(&sb, "pathfinder %s\n", summary.Version)
	if summary.CompilerVersion != "" {
		fmt.Fprintf(&sb, "Compiler: solc %s\n", summary.CompilerVersion)
	}
	fmt.Fprintf(&sb, "Started: %s\n", summary.StartedAt.UTC().Format(time.RFC3339))
	fmt.Fprintf(&sb, "Duration: %s\n\n", summary.Duration.Round(time.Millisecond))

	sb.WriteString("Accounts:\n")
	for _, addr := range sortedAddresses(summary.Accounts) {
		fmt.Fprintf(&sb, "  %s balance %s\n", addr.Hex(), FormatEther(summary.Accounts[addr]))
	}

	sb.WriteString("\nContracts:\n")
	for _, contract := range summary.Contracts {
		fmt.Fprintf(&sb, "  %s at %s (deployer %s)\n", contract.Name, contract.Address.Hex(), contract.Deployer.Hex())
		if len(contract.ConstructorArgs) > 0 {
			fmt.Fprintf(&sb, "    constructor(%s)\n", strings.Join(contract.ConstructorArgs, ", "))
		}
		writeTokenInfo(&sb, contract.Token, "    ")
	}

	sb.WriteString("\nSymbolic values:\n")
	for _, symbolic := range summary.SymbolicValues {
		fmt.Fprintf(&sb, "  %s %s (%d candidates)\n", symbolic.Type, symbolic.Name, symbolic.Candidates)
	}

	sb.WriteString("\nCalls:\n")
	for i, call := range summary.Calls {
		fmt.Fprintf(&sb, "  %d. %s\n", i+1, call)
	}

	fmt.Fprintf(&sb, "\nExplored %d of %d assignments, %d distinct paths\n", summary.Assignments, summary.TotalAssignments, summary.Paths)
	if summary.StopReason != "" {
		fmt.Fprintf(&sb, "Stopped early: %s\n", summary.StopReason)
	}
	return w.WriteFile(GlobalSummaryFileName, []byte(sb.String()))
}

func writeTokenInfo(sb *strings.Builder, token *TokenInfo, indent string) {
	if token == nil {
		return
	}
	if token.Name != nil {
		fmt.Fprintf(sb, "%sname: %s\n", indent, *token.Name)
	}
	if token.Symbol != nil {
		fmt.Fprintf(sb, "%ssymbol: %s\n", indent, *token.Symbol)
	}
	if token.Decimals != nil {
		fmt.Fprintf(sb, "%sdecimals: %d\n", indent, *token.Decimals)
	}
	if token.TotalSupply != nil {
		fmt.Fprintf(sb, "%stotalSupply: %s\n", indent, FormatTokenAmount(token.TotalSupply, token.decimals()))
	}
	for _, addr := range sortedAddresses(token.Balances) {
		fmt.Fprintf(sb, "%sbalanceOf(%s): %s\n", indent, addr.Hex(), FormatTokenAmount(token.Balances[addr], token.decimals()))
	}
}

// TransactionRecord describes a single transaction of a test case.
type TransactionRecord struct {
	From        common.Address `json:"from"`
	To          common.Address `json:"to"`
	Contract    string         `json:"contract"`
	Method      string         `json:"method"`
	Args        []string       `json:"args"`
	Value       string         `json:"value"`
	Data        hexutil.Bytes  `json:"data"`
	Status      string         `json:"status"`
	Error       string         `json:"error,omitempty"`
	ReturnData  hexutil.Bytes  `json:"returnData"`
	ReturnValue []string       `json:"returnValue,omitempty"`
	GasUsed     uint64         `json:"gasUsed"`
}

// LogRecord describes an event emitted during a test case.
type LogRecord struct {
	Transaction int            `json:"transaction"`
	Address     common.Address `json:"address"`
	Event       string         `json:"event,omitempty"`
	Values      []string       `json:"values,omitempty"`
	Topics      []common.Hash  `json:"topics"`
	Data        hexutil.Bytes  `json:"data"`
}

// NamedValue is a symbolic value name and its concrete value.
type NamedValue struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// TestCase describes a single explored path.
type TestCase struct {
	Record       TestCaseRecord
	Assignment   []NamedValue
	Transactions []TransactionRecord
	Logs         []LogRecord

	// Tokens holds the token state of each contract at the end of the path, keyed by contract name.
	Tokens map[string]*TokenInfo
}

// WriteTestCase writes the test_<ID>.summary, .tx, .tx.json and .logs artifacts of a test case.
func (w *Workspace) WriteTestCase(testCase TestCase) error {
	prefix := "test_" + testCase.Record.ID

	var summary strings.Builder
	fmt.Fprintf(&summary, "Test case %s (assignment #%d)\n", testCase.Record.ID, testCase.Record.Index)
	fmt.Fprintf(&summary, "Path signature: %s\n", testCase.Record.Signature)
	fmt.Fprintf(&summary, "Assignments on this path: %d\n", testCase.Record.Assignments)
	fmt.Fprintf(&summary, "Branch decisions: %d\n\n", testCase.Record.Branches)
	summary.WriteString("Symbolic values:\n")
	for _, v := range testCase.Assignment {
		fmt.Fprintf(&summary, "  %s = %s\n", v.Name, v.Value)
	}
	summary.WriteString("\nTransactions:\n")
	for i, tx := range testCase.Transactions {
		fmt.Fprintf(&summary, "  %d. %s -> %s\n", i+1, formatCall(tx), tx.Status)
		if tx.Error != "" {
			fmt.Fprintf(&summary, "     %s\n", tx.Error)
		}
	}
	for _, name := range sortedKeys(testCase.Tokens) {
		fmt.Fprintf(&summary, "\n%s final state:\n", name)
		writeTokenInfo(&summary, testCase.Tokens[name], "  ")
	}
	if err := w.WriteFile(prefix+".summary", []byte(summary.String())); err != nil {
		return err
	}

	var txs strings.Builder
	for _, tx := range testCase.Transactions {
		fmt.Fprintf(&txs, "Type: CALL (%s)\n", tx.Status)
		fmt.Fprintf(&txs, "From: %s\n", tx.From.Hex())
		fmt.Fprintf(&txs, "To: %s\n", tx.To.Hex())
		fmt.Fprintf(&txs, "Value: %s\n", tx.Value)
		fmt.Fprintf(&txs, "Gas used: %d\n", tx.GasUsed)
		fmt.Fprintf(&txs, "Data: %s\n", tx.Data)
		fmt.Fprintf(&txs, "Return_data: %s\n", tx.ReturnData)
		fmt.Fprintf(&txs, "Function call:\n%s\n", formatCall(tx))
		if len(tx.ReturnValue) > 0 {
			fmt.Fprintf(&txs, "return: (%s)\n", strings.Join(tx.ReturnValue, ", "))
		}
		txs.WriteString("\n")
	}
	if err := w.WriteFile(prefix+".tx", []byte(txs.String())); err != nil {
		return err
	}
	if err := w.WriteJSON(prefix+".tx.json", testCase.Transactions); err != nil {
		return err
	}

	var logs strings.Builder
	for _, l := range testCase.Logs {
		fmt.Fprintf(&logs, "tx %d, %s: ", l.Transaction+1, l.Address.Hex())
		if l.Event != "" {
			fmt.Fprintf(&logs, "%s(%s)\n", l.Event, strings.Join(l.Values, ", "))
		} else {
			fmt.Fprintf(&logs, "topics %v data %s\n", l.Topics, l.Data)
		}
	}
	return w.WriteFile(prefix+".logs", []byte(logs.String()))
}

func formatCall(tx TransactionRecord) string {
	call := fmt.Sprintf("%s.%s(%s)", tx.Contract, tx.Method, strings.Join(tx.Args, ", "))
	if tx.Value != "" && tx.Value != "0" {
		call += fmt.Sprintf(" value: %s", tx.Value)
	}
	return call
}

package explorer

import (
	"math/big"

	"github.com/crytic/medusa-geth/common"
	"github.com/crytic/medusa-geth/core"
	"github.com/crytic/pathfinder/chain"
	"github.com/crytic/pathfinder/workspace"
)

// stateCaller executes calls over some chain state without keeping their changes. It is implemented by
// chain.TestChain and chain.ChainFork.
type stateCaller interface {
	NewMessage(from common.Address, to *common.Address, value *big.Int, data []byte) *core.Message
	CallContract(msg *core.Message, additionalTracers ...*chain.TestChainTracer) (*core.ExecutionResult, error)
}

// viewCall calls a view method without arguments, or with the given arguments, returning its single return value.
// Returns nil if the contract does not define the method with matching inputs or the call fails.
func (c *ContractAccount) viewCall(caller stateCaller, method string, args ...any) any {
	m, ok := c.compiled.Abi.Methods[method]
	if !ok || len(m.Inputs) != len(args) || len(m.Outputs) != 1 {
		return nil
	}
	data, err := c.compiled.Abi.Pack(method, args...)
	if err != nil {
		return nil
	}
	result, err := caller.CallContract(caller.NewMessage(common.Address{}, &c.address, nil, data))
	if err != nil || result.Failed() {
		return nil
	}
	values, err := m.Outputs.Unpack(result.ReturnData)
	if err != nil || len(values) != 1 {
		return nil
	}
	return values[0]
}

// readToken reads the ERC20 metadata and the balances of accounts from the contract. Returns nil if the contract
// exposes none of it.
func (c *ContractAccount) readToken(caller stateCaller, accounts []common.Address) *workspace.TokenInfo {
	token := &workspace.TokenInfo{Balances: make(map[common.Address]*big.Int)}
	found := false
	if name, ok := c.viewCall(caller, "name").(string); ok {
		token.Name, found = &name, true
	}
	if symbol, ok := c.viewCall(caller, "symbol").(string); ok {
		token.Symbol, found = &symbol, true
	}
	if decimals, ok := c.viewCall(caller, "decimals").(uint8); ok {
		token.Decimals, found = &decimals, true
	}
	if supply, ok := c.viewCall(caller, "totalSupply").(*big.Int); ok {
		token.TotalSupply, found = supply, true
	}
	for _, account := range accounts {
		if balance, ok := c.viewCall(caller, "balanceOf", account).(*big.Int); ok {
			token.Balances[account], found = balance, true
		}
	}
	if !found {
		return nil
	}
	return token
}

// readTokens reads the token state of every deployed contract from caller, keyed by contract name.
func (e *Explorer) readTokens(caller stateCaller) map[string]*workspace.TokenInfo {
	tokens := make(map[string]*workspace.TokenInfo)
	for _, contract := range e.contracts {
		if token := contract.readToken(caller, e.accounts); token != nil {
			tokens[contract.name] = token
		}
	}
	return tokens
}

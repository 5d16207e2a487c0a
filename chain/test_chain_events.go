package chain

import (
	"github.com/crytic/pathfinder/chain/types"
	"github.com/crytic/pathfinder/events"
)

// TestChainEvents defines the event emitters of a TestChain.
type TestChainEvents struct {
	// BlockCommitted is published after a block becomes the new chain head.
	BlockCommitted events.EventEmitter[BlockCommittedEvent]

	// ContractDeploymentAdded is published for every contract created by a committed block.
	ContractDeploymentAdded events.EventEmitter[ContractDeploymentAddedEvent]
}

// BlockCommittedEvent describes a block being committed to a TestChain.
type BlockCommittedEvent struct {
	Chain *TestChain
	Block *types.Block
}

// ContractDeploymentAddedEvent describes a contract deployment observed in a committed block.
type ContractDeploymentAddedEvent struct {
	Chain    *TestChain
	Contract *types.DeployedContractBytecode
}

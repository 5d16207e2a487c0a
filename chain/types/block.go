package types

import (
	"github.com/crytic/medusa-geth/common"
	"github.com/crytic/medusa-geth/core"
	gethTypes "github.com/crytic/medusa-geth/core/types"
)

// Block represents a block committed to a TestChain, along with the messages it executed and their results.
type Block struct {
	// Hash is the hash of Header at the time the block was committed.
	Hash common.Hash

	// Header is the block header.
	Header *gethTypes.Header

	// Messages are the messages executed in the block, in order.
	Messages []*core.Message

	// MessageResults holds the result of executing each entry of Messages.
	MessageResults []*MessageResults
}

// NewBlock returns a new Block with the provided header and no messages.
func NewBlock(header *gethTypes.Header) *Block {
	return &Block{
		Hash:           header.Hash(),
		Header:         header,
		Messages:       make([]*core.Message, 0),
		MessageResults: make([]*MessageResults, 0),
	}
}

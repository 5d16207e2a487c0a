package utils

import (
	"encoding/json"

	"github.com/crytic/medusa-geth/params"
)

// CopyChainConfig takes a chain configuration and creates a deep copy of it through a JSON round trip.
func CopyChainConfig(config *params.ChainConfig) (*params.ChainConfig, error) {
	data, err := json.Marshal(config)
	if err != nil {
		return nil, err
	}

	var chainConfig *params.ChainConfig
	if err = json.Unmarshal(data, &chainConfig); err != nil {
		return nil, err
	}
	return chainConfig, nil
}

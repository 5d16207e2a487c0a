package config

// DefaultTestChainConfig obtains a default configuration for a chain.TestChain.
func DefaultTestChainConfig() *TestChainConfig {
	return &TestChainConfig{
		CodeSizeCheckDisabled:   true,
		BlockGasLimit:           125_000_000,
		TransactionGasLimit:     12_500_000,
		BlockTimestampIncrement: 1,
		InitialTimestamp:        1,
	}
}

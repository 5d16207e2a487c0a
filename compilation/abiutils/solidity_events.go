package abiutils

import (
	"github.com/crytic/medusa-geth/accounts/abi"
	coreTypes "github.com/crytic/medusa-geth/core/types"
)

// UnpackEventAndValues finds the ABI event definition matching a log's first topic and unpacks its input values in
// declaration order. Returns nil for both if the event could not be resolved or its values could not be unpacked.
func UnpackEventAndValues(contractAbi *abi.ABI, eventLog *coreTypes.Log) (*abi.Event, []any) {
	if contractAbi == nil || len(eventLog.Topics) == 0 {
		return nil, nil
	}
	event, err := contractAbi.EventByID(eventLog.Topics[0])
	if err != nil {
		return nil, nil
	}

	// The ABI package cannot unpack indexed arguments, so indexed arguments are redeclared as non-indexed and
	// unpacked from the concatenated topics instead of the log data.
	var unindexedArguments, indexedArguments abi.Arguments
	for _, arg := range event.Inputs {
		if arg.Indexed {
			indexedArguments = append(indexedArguments, abi.Argument{Name: arg.Name, Type: arg.Type})
		} else {
			unindexedArguments = append(unindexedArguments, arg)
		}
	}
	if len(eventLog.Topics) != len(indexedArguments)+1 {
		return nil, nil
	}

	var indexedData []byte
	for _, topic := range eventLog.Topics[1:] {
		indexedData = append(indexedData, topic.Bytes()...)
	}
	unindexedValues, err := unindexedArguments.Unpack(eventLog.Data)
	if err != nil {
		return nil, nil
	}
	indexedValues, err := indexedArguments.Unpack(indexedData)
	if err != nil {
		return nil, nil
	}

	values := make([]any, 0, len(event.Inputs))
	var nextIndexed, nextUnindexed int
	for _, arg := range event.Inputs {
		if arg.Indexed {
			values = append(values, indexedValues[nextIndexed])
			nextIndexed++
		} else {
			values = append(values, unindexedValues[nextUnindexed])
			nextUnindexed++
		}
	}
	return event, values
}

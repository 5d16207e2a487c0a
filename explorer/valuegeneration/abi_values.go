package valuegeneration

import (
	"encoding/json"
	"fmt"
	"math"
	"math/big"
	"reflect"
	"strings"

	"github.com/crytic/medusa-geth/accounts/abi"
	"github.com/crytic/medusa-geth/common"
	"github.com/crytic/medusa-geth/common/hexutil"
	"github.com/crytic/pathfinder/utils"
)

// IntegerToAbiValue converts b to the Go type the abi package packs for an integer of the given type: native
// integers for sizes up to 64 bits and *big.Int otherwise. b must be within the bounds of the type.
func IntegerToAbiValue(typ abi.Type, b *big.Int) any {
	if typ.T == abi.UintTy {
		switch typ.Size {
		case 8:
			return uint8(b.Uint64())
		case 16:
			return uint16(b.Uint64())
		case 32:
			return uint32(b.Uint64())
		case 64:
			return b.Uint64()
		}
	} else if typ.T == abi.IntTy {
		switch typ.Size {
		case 8:
			return int8(b.Int64())
		case 16:
			return int16(b.Int64())
		case 32:
			return int32(b.Int64())
		case 64:
			return b.Int64()
		}
	}
	return new(big.Int).Set(b)
}

// AbiValueToInteger returns the integer held by an ABI integer value of any Go representation.
func AbiValueToInteger(value any) (*big.Int, bool) {
	switch v := value.(type) {
	case *big.Int:
		if v == nil {
			return nil, false
		}
		return new(big.Int).Set(v), true
	case big.Int:
		return new(big.Int).Set(&v), true
	}

	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return new(big.Int).SetUint64(rv.Uint()), true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return big.NewInt(rv.Int()), true
	}
	return nil, false
}

// ConvertToAbiValue converts a loosely typed Go value, such as one decoded from JSON, into the Go type the abi
// package packs for typ. Integers may be given as Go integers, integral floats, json.Number, *big.Int or base 10 or
// 0x prefixed strings. Addresses and byte sequences may be given as hex strings.
func ConvertToAbiValue(typ abi.Type, value any) (any, error) {
	switch typ.T {
	case abi.UintTy, abi.IntTy:
		b, err := toInteger(value)
		if err != nil {
			return nil, err
		}
		if !utils.IntegerInBounds(b, typ.T == abi.IntTy, typ.Size) {
			return nil, fmt.Errorf("value %v is out of bounds for type %s", b, typ.String())
		}
		return IntegerToAbiValue(typ, b), nil

	case abi.BoolTy:
		if b, ok := value.(bool); ok {
			return b, nil
		}
		return nil, fmt.Errorf("value %v of type %T cannot be used as a bool", value, value)

	case abi.StringTy:
		if s, ok := value.(string); ok {
			return s, nil
		}
		return nil, fmt.Errorf("value %v of type %T cannot be used as a string", value, value)

	case abi.AddressTy:
		switch v := value.(type) {
		case common.Address:
			return v, nil
		case *common.Address:
			return *v, nil
		case string:
			addr, err := utils.HexStringToAddress(v)
			if err != nil {
				return nil, fmt.Errorf("value %q is not a valid address: %v", v, err)
			}
			return addr, nil
		}
		return nil, fmt.Errorf("value %v of type %T cannot be used as an address", value, value)

	case abi.BytesTy:
		return toBytes(value)

	case abi.FixedBytesTy:
		b, err := toBytes(value)
		if err != nil {
			return nil, err
		}
		if len(b) > typ.Size {
			return nil, fmt.Errorf("value of %d bytes exceeds type %s", len(b), typ.String())
		}
		return fixedBytes(typ, b), nil

	case abi.SliceTy, abi.ArrayTy:
		items := reflect.ValueOf(value)
		if items.Kind() != reflect.Slice && items.Kind() != reflect.Array {
			return nil, fmt.Errorf("value %v of type %T cannot be used as a %s", value, value, typ.String())
		}
		if typ.T == abi.ArrayTy && items.Len() != typ.Size {
			return nil, fmt.Errorf("type %s expects %d elements but %d were provided", typ.String(), typ.Size, items.Len())
		}

		var result reflect.Value
		if typ.T == abi.ArrayTy {
			result = reflect.New(typ.GetType()).Elem()
		} else {
			result = reflect.MakeSlice(typ.GetType(), items.Len(), items.Len())
		}
		for i := 0; i < items.Len(); i++ {
			element, err := ConvertToAbiValue(*typ.Elem, items.Index(i).Interface())
			if err != nil {
				return nil, fmt.Errorf("element %d: %w", i, err)
			}
			result.Index(i).Set(reflect.ValueOf(element))
		}
		return result.Interface(), nil
	}
	return nil, fmt.Errorf("values of type %s are not supported", typ.String())
}

func toInteger(value any) (*big.Int, error) {
	if b, ok := AbiValueToInteger(value); ok {
		return b, nil
	}
	switch v := value.(type) {
	case float64:
		if v != math.Trunc(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("value %v is not an integer", v)
		}
		b, _ := big.NewFloat(v).Int(nil)
		return b, nil
	case json.Number:
		return toInteger(v.String())
	case string:
		s := strings.ReplaceAll(v, "_", "")
		base := 10
		if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
			s, base = s[2:], 16
		}
		if b, ok := new(big.Int).SetString(s, base); ok {
			return b, nil
		}
		return nil, fmt.Errorf("value %q is not an integer", v)
	}
	return nil, fmt.Errorf("value %v of type %T cannot be used as an integer", value, value)
}

func toBytes(value any) ([]byte, error) {
	switch v := value.(type) {
	case []byte:
		return common.CopyBytes(v), nil
	case string:
		b, err := hexutil.Decode(v)
		if err != nil {
			return nil, fmt.Errorf("value %q is not 0x prefixed hex: %v", v, err)
		}
		return b, nil
	}

	rv := reflect.ValueOf(value)
	if rv.Kind() == reflect.Array && rv.Type().Elem().Kind() == reflect.Uint8 {
		b := make([]byte, rv.Len())
		reflect.Copy(reflect.ValueOf(b), rv)
		return b, nil
	}
	return nil, fmt.Errorf("value %v of type %T cannot be used as bytes", value, value)
}

// fixedBytes returns b left aligned in the fixed size byte array type of typ.
func fixedBytes(typ abi.Type, b []byte) any {
	result := reflect.New(typ.GetType()).Elem()
	reflect.Copy(result, reflect.ValueOf(b))
	return result.Interface()
}

// FormatAbiValue returns a human readable representation of an ABI Go value.
func FormatAbiValue(value any) string {
	if b, ok := AbiValueToInteger(value); ok {
		return b.String()
	}
	switch v := value.(type) {
	case common.Address:
		return v.Hex()
	case []byte:
		return hexutil.Encode(v)
	case string:
		return fmt.Sprintf("%q", v)
	}

	rv := reflect.ValueOf(value)
	if rv.Kind() == reflect.Array && rv.Type().Elem().Kind() == reflect.Uint8 {
		b, _ := toBytes(value)
		return hexutil.Encode(b)
	}
	if rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array {
		items := make([]string, rv.Len())
		for i := range items {
			items[i] = FormatAbiValue(rv.Index(i).Interface())
		}
		return "[" + strings.Join(items, ", ") + "]"
	}
	return fmt.Sprint(value)
}

package valuegeneration

import (
	"math/big"
	"strings"

	"github.com/crytic/medusa-geth/common"
	compilationTypes "github.com/crytic/pathfinder/compilation/types"
	"github.com/crytic/pathfinder/utils"
)

// SeedFromAst adds the number and string literals of a compiler AST to the set.
func (vs *ValueSet) SeedFromAst(ast any) {
	for _, literal := range compilationTypes.ExtractNumericLiterals(ast) {
		vs.AddInteger(literal)
		vs.AddAddress(common.BigToAddress(literal))
	}
	walkAstNodes(ast, func(node map[string]any) {
		nodeType, _ := node["nodeType"].(string)
		if !strings.EqualFold(nodeType, "Literal") || node["kind"] != "string" {
			return
		}
		if value, ok := node["value"].(string); ok {
			vs.AddString(value)
		}
	})
}

// walkAstNodes calls walkFunc with every node of an AST.
func walkAstNodes(ast any, walkFunc func(node map[string]any)) {
	switch n := ast.(type) {
	case map[string]any:
		_, hasId := n["id"]
		_, hasNodeType := n["nodeType"]
		if hasId && hasNodeType {
			walkFunc(n)
		}
		for _, v := range n {
			walkAstNodes(v, walkFunc)
		}
	case []any:
		for _, v := range n {
			walkAstNodes(v, walkFunc)
		}
	}
}

// SeedFromBytecode adds the constants pushed by bytecode to the set, along with their neighbors, since comparisons
// against a constant branch on either side of it. Trailing contract metadata is ignored.
func (vs *ValueSet) SeedFromBytecode(bytecode []byte) {
	one := big.NewInt(1)
	it := utils.NewInstructionIterator(compilationTypes.RemoveContractMetadata(bytecode))
	for it.Next() {
		if !it.Op().IsPush() || len(it.Arg()) == 0 {
			continue
		}
		constant := new(big.Int).SetBytes(it.Arg())
		vs.AddInteger(constant)
		vs.AddInteger(new(big.Int).Add(constant, one))
		if constant.Sign() > 0 {
			vs.AddInteger(new(big.Int).Sub(constant, one))
		}
		if len(it.Arg()) == common.AddressLength {
			vs.AddAddress(common.BytesToAddress(it.Arg()))
		}
	}
}

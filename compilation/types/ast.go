package types

import (
	"encoding/json"
	"math/big"
	"regexp"
	"strconv"
	"strings"
)

// Node interface represents a generic AST node
type Node interface {
	GetNodeType() string
}

// ContractDefinition is the contract definition node
type ContractDefinition struct {
	// NodeType represents the node type
	NodeType string `json:"nodeType"`
	// Src is the source range for this node
	Src string `json:"src"`
	// CanonicalName is the name of the contract definition
	CanonicalName string `json:"canonicalName,omitempty"`
	// Kind is a ContractKind that represents what type of contract definition this is (contract, interface, or library)
	Kind ContractKind `json:"contractKind,omitempty"`
}

// GetNodeType implements the Node interface and returns the node type for the contract definition
func (s ContractDefinition) GetNodeType() string {
	return s.NodeType
}

// AST is the abstract syntax tree of a source unit. Only contract definitions are decoded, everything else is
// skipped.
type AST struct {
	// NodeType represents the node type (currently we only evaluate source unit node types)
	NodeType string `json:"nodeType"`
	// Nodes is a list of Nodes within the AST
	Nodes []Node `json:"nodes"`
	// Src is the source range for this AST
	Src string `json:"src"`
}

// UnmarshalJSON unmarshals from JSON
func (a *AST) UnmarshalJSON(data []byte) error {
	type Alias AST
	aux := &struct {
		Nodes []json.RawMessage `json:"nodes"`
		*Alias
	}{
		Alias: (*Alias)(a),
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	for _, nodeData := range aux.Nodes {
		var nodeType struct {
			NodeType string `json:"nodeType"`
		}
		if err := json.Unmarshal(nodeData, &nodeType); err != nil {
			return err
		}

		if nodeType.NodeType == "ContractDefinition" {
			var contractDefinition ContractDefinition
			if err := json.Unmarshal(nodeData, &contractDefinition); err != nil {
				return err
			}
			a.Nodes = append(a.Nodes, contractDefinition)
		}
	}
	return nil
}

var sourceUnitRegex = regexp.MustCompile(`[0-9]*:[0-9]*:([0-9]*)`)

// GetSourceUnitID returns the source unit ID based on the source of the AST
func (a *AST) GetSourceUnitID() int {
	sourceUnitCandidates := sourceUnitRegex.FindStringSubmatch(a.Src)
	if len(sourceUnitCandidates) == 2 {
		if sourceUnit, err := strconv.Atoi(sourceUnitCandidates[1]); err == nil {
			return sourceUnit
		}
	}
	return -1
}

// literalDenominations maps Solidity number literal sub-denominations to their multipliers.
var literalDenominations = map[string]*big.Int{
	"wei":     big.NewInt(1),
	"gwei":    big.NewInt(1_000_000_000),
	"ether":   new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil),
	"seconds": big.NewInt(1),
	"minutes": big.NewInt(60),
	"hours":   big.NewInt(3600),
	"days":    big.NewInt(86400),
	"weeks":   big.NewInt(604800),
}

// ExtractNumericLiterals walks a raw compiler AST and returns the value of every integer number literal it contains,
// with sub-denominations applied. Literals which cannot be represented as integers are skipped. The result may hold
// duplicates.
func ExtractNumericLiterals(ast any) []*big.Int {
	literals := make([]*big.Int, 0)
	var walk func(node any)
	walk = func(node any) {
		switch n := node.(type) {
		case map[string]any:
			if n["nodeType"] == "Literal" && n["kind"] == "number" {
				if value, ok := n["value"].(string); ok {
					denomination, _ := n["subdenomination"].(string)
					if b := parseNumberLiteral(value, denomination); b != nil {
						literals = append(literals, b)
					}
				}
			}
			for _, child := range n {
				walk(child)
			}
		case []any:
			for _, child := range n {
				walk(child)
			}
		}
	}
	walk(ast)
	return literals
}

// parseNumberLiteral parses a Solidity number literal such as "1_000", "0xff" or "2e18". Returns nil if the literal
// does not denote an integer.
func parseNumberLiteral(value string, denomination string) *big.Int {
	value = strings.ReplaceAll(value, "_", "")

	var result *big.Int
	if strings.HasPrefix(value, "0x") || strings.HasPrefix(value, "0X") {
		b, ok := new(big.Int).SetString(value[2:], 16)
		if !ok {
			return nil
		}
		result = b
	} else {
		r, ok := new(big.Rat).SetString(value)
		if !ok || !r.IsInt() {
			return nil
		}
		result = new(big.Int).Set(r.Num())
	}

	if multiplier, ok := literalDenominations[denomination]; ok {
		result.Mul(result, multiplier)
	}
	return result
}

package types

import (
	"fmt"
	"sort"
)

// Compilation represents the artifacts of a smart contract compilation.
type Compilation struct {
	// SourcePathToArtifact maps source file paths to their compiled artifacts.
	SourcePathToArtifact map[string]SourceArtifact

	// SourceIdToPath maps source unit ids to source file paths.
	SourceIdToPath map[int]string

	// CompilerVersion is the version string reported by the compiler which produced this compilation.
	CompilerVersion string
}

// SourceArtifact holds the AST and contracts compiled from a single source file.
type SourceArtifact struct {
	// Ast is the raw abstract syntax tree emitted by the compiler.
	Ast any

	// Contracts maps contract names to their compiled definitions.
	Contracts map[string]CompiledContract

	// SourceUnitId is the compiler-assigned id of the source unit.
	SourceUnitId int
}

// NewCompilation returns a new, empty Compilation object.
func NewCompilation() *Compilation {
	return &Compilation{
		SourcePathToArtifact: make(map[string]SourceArtifact),
		SourceIdToPath:       make(map[int]string),
	}
}

// ContractNames returns the sorted names of every deployable contract in the compilation.
func (c *Compilation) ContractNames() []string {
	names := make([]string, 0)
	for _, artifact := range c.SourcePathToArtifact {
		for name, contract := range artifact.Contracts {
			if contract.Kind == ContractKindInterface || len(contract.InitBytecode) == 0 {
				continue
			}
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// FindContract looks up a contract by name across all sources. It returns the contract and the path of the source
// which defines it, or an error if no source or more than one source defines a contract with that name.
func (c *Compilation) FindContract(name string) (*CompiledContract, string, error) {
	var (
		found      *CompiledContract
		foundPath  string
		foundCount int
	)
	for sourcePath, artifact := range c.SourcePathToArtifact {
		if contract, ok := artifact.Contracts[name]; ok {
			contract := contract
			found, foundPath = &contract, sourcePath
			foundCount++
		}
	}

	switch foundCount {
	case 0:
		return nil, "", fmt.Errorf("contract %q was not found in the compilation (available: %v)", name, c.ContractNames())
	case 1:
		return found, foundPath, nil
	default:
		return nil, "", fmt.Errorf("contract name %q is ambiguous, it is defined in %d sources", name, foundCount)
	}
}

// SourceAst returns the raw AST of the source at the given path, or nil if the path is unknown.
func (c *Compilation) SourceAst(sourcePath string) any {
	if artifact, ok := c.SourcePathToArtifact[sourcePath]; ok {
		return artifact.Ast
	}
	return nil
}

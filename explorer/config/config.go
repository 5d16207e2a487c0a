package config

import (
	"bytes"
	"encoding/json"
	"math/big"
	"os"
	"strings"

	"github.com/crytic/pathfinder/chain/config"
	"github.com/crytic/pathfinder/compilation"
	"github.com/crytic/pathfinder/compilation/abiutils"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// DefaultConfigFileName is the project config file looked up in the working directory when no path is given.
const DefaultConfigFileName = "pathfinder.json"

type ProjectConfig struct {
	// Scenario describes the workflow the driver performs against the engine.
	Scenario ScenarioConfig `json:"scenario"`

	// Exploration describes the configuration used by the explorer.Explorer.
	Exploration ExplorationConfig `json:"exploration"`

	// Chain represents the chain.TestChain config to use when initializing a chain.
	Chain config.TestChainConfig `json:"chain"`

	// Compilation describes the configuration used to compile contract sources.
	Compilation *compilation.CompilationConfig `json:"compilation"`

	// Logging describes the configuration used for logging.
	Logging LoggingConfig `json:"logging"`
}

// ScenarioConfig describes the deployment and calls the driver records before exploring.
type ScenarioConfig struct {
	// SourcePath is the path of the Solidity source to deploy, relative to the working directory.
	SourcePath string `json:"sourcePath"`

	// ContractName is the name of the contract within the source to deploy.
	ContractName string `json:"contractName"`

	// ConstructorArgs are the arguments passed to the contract's constructor.
	ConstructorArgs []any `json:"constructorArgs"`

	// OwnerBalance is the balance in wei the deploying account is created with, as a base 10 integer string.
	OwnerBalance string `json:"ownerBalance"`

	// SymbolicValues are the symbolic inputs created before calls are recorded.
	SymbolicValues []SymbolicValueConfig `json:"symbolicValues"`

	// Calls are the contract methods invoked, in order. Arguments are JSON values where strings starting with "$"
	// name run entities ($owner, $contract and $<symbolic value name>). "$$" escapes a literal "$".
	Calls []CallConfig `json:"calls"`
}

// SymbolicValueConfig describes a single named symbolic input.
type SymbolicValueConfig struct {
	// Name uniquely identifies the value within a run.
	Name string `json:"name"`

	// Type is the Solidity type of the value, e.g. "uint256".
	Type string `json:"type"`
}

// CallConfig describes a single contract method invocation.
type CallConfig struct {
	// Method is a method name, or a full signature such as "mint(address,uint256)" to disambiguate overloads.
	Method string `json:"method"`

	// Args are the arguments of the call.
	Args []any `json:"args"`

	// Value is the amount of wei sent with the call, as a base 10 integer string. Empty means zero.
	Value string `json:"value,omitempty"`
}

// ExplorationConfig describes the configuration options used by the explorer.Explorer.
type ExplorationConfig struct {
	// Workers describes the amount of goroutines which execute candidate assignments concurrently.
	Workers int `json:"workers"`

	// PathLimit bounds the amount of candidate assignments executed. A zero value means no limit.
	PathLimit int `json:"pathLimit"`

	// MaxCandidatesPerSymbol bounds the amount of candidate concrete values considered per symbolic value.
	MaxCandidatesPerSymbol int `json:"maxCandidatesPerSymbol"`

	// Timeout describes a time in seconds after which exploration stops. Zero or negative means no timeout.
	Timeout int `json:"timeout"`

	// Seed seeds the random candidate values, making runs reproducible.
	Seed int64 `json:"seed"`

	// RandomCandidates is the amount of seeded random candidates added per symbolic value.
	RandomCandidates int `json:"randomCandidates"`

	// WorkspaceDir is the directory the workspace is created in. Empty means the working directory.
	WorkspaceDir string `json:"workspaceDir"`

	// WorkspacePrefix prefixes the name of the created workspace directory.
	WorkspacePrefix string `json:"workspacePrefix"`
}

// LoggingConfig describes the configuration options used for logging.
type LoggingConfig struct {
	// Level describes whether logs of certain severity levels (eg info, warning, etc.) will be emitted or discarded.
	Level zerolog.Level `json:"level"`

	// NoColor disables colorized console output.
	NoColor bool `json:"noColor"`

	// LogToWorkspace describes whether a structured log file is written into the workspace.
	LogToWorkspace bool `json:"logToWorkspace"`
}

// ReadProjectConfigFromFile reads a JSON-serialized ProjectConfig from a provided file path. Fields the file omits
// keep their default values.
func ReadProjectConfigFromFile(path string) (*ProjectConfig, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	projectConfig, err := GetDefaultProjectConfig()
	if err != nil {
		return nil, err
	}
	// Numbers within scenario arguments are kept as json.Number so integers beyond 2^53 are not rounded.
	decoder := json.NewDecoder(bytes.NewReader(b))
	decoder.UseNumber()
	if err = decoder.Decode(projectConfig); err != nil {
		return nil, errors.WithStack(err)
	}
	return projectConfig, nil
}

// WriteToFile writes the ProjectConfig to a provided file path in a JSON-serialized format.
func (p *ProjectConfig) WriteToFile(path string) error {
	b, err := json.MarshalIndent(p, "", "\t")
	if err != nil {
		return errors.WithStack(err)
	}
	if err = os.WriteFile(path, b, 0644); err != nil {
		return errors.WithStack(err)
	}
	return nil
}

// Validate validates that the ProjectConfig meets certain requirements.
func (p *ProjectConfig) Validate() error {
	if p.Exploration.Workers <= 0 {
		return errors.Errorf("explorer worker count must be a positive number")
	}
	if p.Exploration.PathLimit < 0 {
		return errors.Errorf("path limit cannot be negative")
	}
	if p.Exploration.MaxCandidatesPerSymbol <= 0 {
		return errors.Errorf("max candidates per symbol must be a positive number")
	}
	if p.Exploration.RandomCandidates < 0 {
		return errors.Errorf("random candidate count cannot be negative")
	}
	if p.Exploration.WorkspacePrefix == "" || strings.ContainsAny(p.Exploration.WorkspacePrefix, `/\`) {
		return errors.Errorf("workspace prefix must be a non-empty file name component")
	}

	if err := p.Chain.Validate(); err != nil {
		return err
	}
	if p.Compilation == nil {
		return errors.Errorf("a compilation config must be provided")
	}
	if _, err := p.Compilation.GetPlatformConfig(); err != nil {
		return err
	}

	return p.Scenario.Validate()
}

// Validate validates the scenario's inputs are well-formed.
func (s *ScenarioConfig) Validate() error {
	if s.SourcePath == "" {
		return errors.Errorf("scenario source path cannot be empty")
	}
	if s.ContractName == "" {
		return errors.Errorf("scenario contract name cannot be empty")
	}
	if _, err := s.OwnerBalanceValue(); err != nil {
		return err
	}

	seen := make(map[string]bool)
	for _, symbolic := range s.SymbolicValues {
		if symbolic.Name == "" || strings.HasPrefix(symbolic.Name, "$") {
			return errors.Errorf("symbolic value name %q is invalid", symbolic.Name)
		}
		if symbolic.Name == "owner" || symbolic.Name == "contract" {
			return errors.Errorf("symbolic value name %q is reserved", symbolic.Name)
		}
		if seen[symbolic.Name] {
			return errors.Errorf("symbolic value %q is declared more than once", symbolic.Name)
		}
		seen[symbolic.Name] = true
		if _, err := abiutils.ParseSolidityType(symbolic.Type); err != nil {
			return errors.Wrapf(err, "symbolic value %q has an invalid type", symbolic.Name)
		}
	}

	for i, call := range s.Calls {
		if call.Method == "" {
			return errors.Errorf("scenario call %d has no method", i)
		}
		if _, err := call.ValueWei(); err != nil {
			return errors.Wrapf(err, "scenario call %d", i)
		}
	}
	return nil
}

// OwnerBalanceValue parses OwnerBalance.
func (s *ScenarioConfig) OwnerBalanceValue() (*big.Int, error) {
	return parseWei(s.OwnerBalance)
}

// ValueWei parses the call's Value, treating an empty value as zero.
func (c *CallConfig) ValueWei() (*big.Int, error) {
	if c.Value == "" {
		return big.NewInt(0), nil
	}
	return parseWei(c.Value)
}

func parseWei(s string) (*big.Int, error) {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok || v.Sign() < 0 {
		return nil, errors.Errorf("%q is not a non-negative base 10 integer", s)
	}
	return v, nil
}

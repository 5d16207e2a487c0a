package platforms

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os/exec"
	"regexp"
	"strings"

	"github.com/Masterminds/semver"
	"github.com/crytic/medusa-geth/common/compiler"
	"github.com/crytic/pathfinder/compilation/types"
	"github.com/crytic/pathfinder/utils"
	"github.com/pkg/errors"
)

// SolcCompilationConfig compiles a single target file by invoking a solc binary with --combined-json.
type SolcCompilationConfig struct {
	// Target is the path of the source file to compile.
	Target string `json:"target"`

	// SolcPath is the solc binary to invoke. If empty, "solc" is looked up on PATH.
	SolcPath string `json:"solcPath,omitempty"`

	// Args holds additional command-line arguments passed to solc, such as remappings or optimizer flags.
	Args []string `json:"args,omitempty"`
}

// NewSolcCompilationConfig returns a SolcCompilationConfig for the given target with default settings.
func NewSolcCompilationConfig(target string) *SolcCompilationConfig {
	return &SolcCompilationConfig{
		Target: target,
		Args:   []string{},
	}
}

func (s *SolcCompilationConfig) Platform() string {
	return "solc"
}

// GetTarget returns the target for compilation
func (s *SolcCompilationConfig) GetTarget() string {
	return s.Target
}

// SetTarget sets the new target for compilation
func (s *SolcCompilationConfig) SetTarget(newTarget string) {
	s.Target = newTarget
}

func (s *SolcCompilationConfig) binary() string {
	if s.SolcPath != "" {
		return s.SolcPath
	}
	return "solc"
}

var solcVersionRegex = regexp.MustCompile(`\d+\.\d+\.\d+`)

// GetSolcVersion runs `<binary> --version` and parses the reported compiler version.
func GetSolcVersion(ctx context.Context, binary string) (*semver.Version, error) {
	out, err := exec.CommandContext(ctx, binary, "--version").CombinedOutput()
	if err != nil {
		return nil, fmt.Errorf("error while executing %s:\nOUTPUT:\n%s\nERROR: %s", binary, string(out), err.Error())
	}

	versionStr := solcVersionRegex.FindString(string(out))
	if versionStr == "" {
		return nil, errors.Errorf("could not parse solc version using '%s --version'", binary)
	}
	return semver.NewVersion(versionStr)
}

// GetSystemSolcVersion returns the version of the solc binary found on PATH.
func GetSystemSolcVersion(ctx context.Context) (*semver.Version, error) {
	return GetSolcVersion(ctx, "solc")
}

// SolcOutputOptions returns the --combined-json output selection supported by the given compiler version.
func SolcOutputOptions(v *semver.Version) string {
	const base = "abi,ast,bin,bin-runtime,srcmap,srcmap-runtime,userdoc,devdoc"
	if v.Major() != 0 {
		return base + ",hashes"
	}

	// 'hashes' appeared in 0.4.12, 'compact-format' was removed in 0.8.10.
	switch {
	case v.Minor() == 3 || (v.Minor() == 4 && v.Patch() <= 11):
		return base
	case v.Minor() <= 7 || (v.Minor() == 8 && v.Patch() <= 9):
		return base + ",hashes,compact-format"
	default:
		return base + ",hashes"
	}
}

// Compile runs solc over the target and parses the combined JSON output into a single compilation. Returns the
// compilation and solc's stderr output (usually warnings).
func (s *SolcCompilationConfig) Compile(ctx context.Context) ([]types.Compilation, string, error) {
	v, err := GetSolcVersion(ctx, s.binary())
	if err != nil {
		return nil, "", err
	}

	args := append([]string{s.Target, "--combined-json", SolcOutputOptions(v)}, s.Args...)
	cmd := exec.CommandContext(ctx, s.binary(), args...)
	cmdStdout, cmdStderr, cmdCombined, err := utils.RunCommandWithOutputAndError(cmd)
	if err != nil {
		return nil, "", fmt.Errorf("error while executing solc:\n%s\n\nCommand Output:\n%s", err.Error(), string(cmdCombined))
	}

	compilation, err := parseCombinedJSON(cmdStdout, v)
	if err != nil {
		return nil, "", err
	}
	return []types.Compilation{*compilation}, string(cmdStderr), nil
}

// parseCombinedJSON converts solc --combined-json output into a Compilation.
func parseCombinedJSON(output []byte, v *semver.Version) (*types.Compilation, error) {
	var results struct {
		Sources map[string]struct {
			AST json.RawMessage `json:"AST"`
		} `json:"sources"`
	}
	if err := json.Unmarshal(output, &results); err != nil {
		return nil, errors.WithStack(err)
	}

	compilation := types.NewCompilation()
	compilation.CompilerVersion = v.String()
	contractKinds := make(map[string]types.ContractKind)
	for sourcePath, source := range results.Sources {
		if len(source.AST) == 0 {
			return nil, fmt.Errorf("could not parse AST from sources, AST field could not be found for %s", sourcePath)
		}

		var ast types.AST
		if err := json.Unmarshal(source.AST, &ast); err != nil {
			return nil, fmt.Errorf("could not parse AST from sources, error: %v", err)
		}
		var rawAst any
		if err := json.Unmarshal(source.AST, &rawAst); err != nil {
			return nil, errors.WithStack(err)
		}

		for _, node := range ast.Nodes {
			if contractDefinition, ok := node.(types.ContractDefinition); ok {
				contractKinds[contractDefinition.CanonicalName] = contractDefinition.Kind
			}
		}

		sourceUnitId := ast.GetSourceUnitID()
		compilation.SourcePathToArtifact[sourcePath] = types.SourceArtifact{
			Ast:          rawAst,
			Contracts:    make(map[string]types.CompiledContract),
			SourceUnitId: sourceUnitId,
		}
		compilation.SourceIdToPath[sourceUnitId] = sourcePath
	}

	contracts, err := compiler.ParseCombinedJSON(output, "solc", v.String(), v.String(), "")
	if err != nil {
		return nil, err
	}

	for name, contract := range contracts {
		// Names are of the form "<source path>:<contract name>", and the path itself may contain colons.
		separator := strings.LastIndex(name, ":")
		sourcePath, contractName := name[:separator], name[separator+1:]
		artifact, ok := compilation.SourcePathToArtifact[sourcePath]
		if !ok {
			return nil, fmt.Errorf("compiled contract '%s' refers to unknown source '%s'", contractName, sourcePath)
		}

		contractAbi, err := types.ParseABIFromInterface(contract.Info.AbiDefinition)
		if err != nil {
			continue
		}
		initBytecode, err := hex.DecodeString(strings.TrimPrefix(contract.Code, "0x"))
		if err != nil {
			return nil, fmt.Errorf("unable to parse init bytecode for contract '%s'", contractName)
		}
		runtimeBytecode, err := hex.DecodeString(strings.TrimPrefix(contract.RuntimeCode, "0x"))
		if err != nil {
			return nil, fmt.Errorf("unable to parse runtime bytecode for contract '%s'", contractName)
		}

		srcMapInit, _ := contract.Info.SrcMap.(string)
		kind, ok := contractKinds[contractName]
		if !ok {
			kind = types.ContractKindContract
		}
		artifact.Contracts[contractName] = types.CompiledContract{
			Abi:             *contractAbi,
			InitBytecode:    initBytecode,
			RuntimeBytecode: runtimeBytecode,
			SrcMapsInit:     srcMapInit,
			SrcMapsRuntime:  contract.Info.SrcMapRuntime,
			Kind:            kind,
		}
	}
	return compilation, nil
}

package driver

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/crytic/medusa-geth/common"
	"github.com/crytic/pathfinder/explorer/config"
	"github.com/crytic/pathfinder/logging"
	"github.com/crytic/pathfinder/logging/colors"
	"github.com/pkg/errors"
)

// ResultsLinePrefix starts the single line Run prints once results are saved.
const ResultsLinePrefix = "Results saved in "

// DefaultScenario returns the scenario run when no project config is provided.
func DefaultScenario() config.ScenarioConfig {
	return config.DefaultScenarioConfig()
}

// Run creates an environment from factory and performs scenario in order: it creates the owner account, reads the
// contract source, deploys the contract, creates the symbolic values, invokes the calls and explores them. Once
// results are saved, their workspace path is printed to stdout. Errors are returned as they occur; nothing which
// follows a failed step is run.
func Run(ctx context.Context, factory EnvironmentFactory, scenario config.ScenarioConfig, stdout io.Writer) (string, error) {
	logger := logging.GlobalLogger.NewSubLogger("module", logging.DRIVER_SERVICE)
	if err := scenario.Validate(); err != nil {
		return "", err
	}

	engine, err := factory.NewEngine()
	if err != nil {
		return "", fmt.Errorf("could not create the execution environment: %w", err)
	}
	defer engine.Close()

	balance, err := scenario.OwnerBalanceValue()
	if err != nil {
		return "", err
	}
	owner, err := engine.CreateAccount(balance)
	if err != nil {
		return "", fmt.Errorf("could not create the owner account: %w", err)
	}
	logger.Info("Created owner account ", colors.Bold, owner.Hex())

	source, err := os.ReadFile(scenario.SourcePath)
	if err != nil {
		return "", errors.Wrapf(err, "could not read contract source %s", scenario.SourcePath)
	}

	contract, err := engine.DeployContract(ctx, string(source), owner, scenario.ContractName, scenario.ConstructorArgs...)
	if err != nil {
		return "", fmt.Errorf("could not deploy %s: %w", scenario.ContractName, err)
	}
	logger.Info("Deployed ", colors.Bold, scenario.ContractName, colors.Reset, " at ", contract.Address().Hex())

	refs := references{owner: owner, contract: contract.Address(), symbols: make(map[string]SymbolicValue)}
	for _, symbolic := range scenario.SymbolicValues {
		value, err := engine.MakeSymbolicValue(symbolic.Name, symbolic.Type)
		if err != nil {
			return "", fmt.Errorf("could not create symbolic value %s: %w", symbolic.Name, err)
		}
		refs.symbols[symbolic.Name] = value
	}

	for i, call := range scenario.Calls {
		args, err := refs.resolveAll(call.Args)
		if err != nil {
			return "", fmt.Errorf("invalid arguments for call %d (%s): %w", i, call.Method, err)
		}
		value, err := call.ValueWei()
		if err != nil {
			return "", err
		}
		if err = contract.Invoke(call.Method, value, args...); err != nil {
			return "", fmt.Errorf("could not invoke %s.%s: %w", scenario.ContractName, call.Method, err)
		}
	}

	logger.Info("Exploring ", len(scenario.Calls), " call(s)")
	workspacePath, err := engine.Explore(ctx)
	if err != nil {
		return "", fmt.Errorf("exploration failed: %w", err)
	}

	if _, err = fmt.Fprintln(stdout, ResultsLinePrefix+workspacePath); err != nil {
		return "", errors.WithStack(err)
	}
	return workspacePath, nil
}

// references resolves "$" prefixed call arguments to run entities.
type references struct {
	owner    common.Address
	contract common.Address
	symbols  map[string]SymbolicValue
}

// resolveAll resolves every argument of a call.
func (r references) resolveAll(args []any) ([]any, error) {
	resolved := make([]any, len(args))
	for i, arg := range args {
		value, err := r.resolve(arg)
		if err != nil {
			return nil, err
		}
		resolved[i] = value
	}
	return resolved, nil
}

// resolve replaces "$owner", "$contract" and "$<symbolic value name>" strings, including within arrays, and unescapes
// "$$" prefixed strings. Other values are returned unchanged.
func (r references) resolve(arg any) (any, error) {
	switch v := arg.(type) {
	case []any:
		return r.resolveAll(v)
	case string:
		if !strings.HasPrefix(v, "$") {
			return v, nil
		}
		name := v[1:]
		switch {
		case strings.HasPrefix(name, "$"):
			return name, nil
		case name == "owner":
			return r.owner, nil
		case name == "contract":
			return r.contract, nil
		}
		if symbolic, ok := r.symbols[name]; ok {
			return symbolic, nil
		}
		return nil, fmt.Errorf("%s does not reference the owner, the contract or a symbolic value", v)
	default:
		return arg, nil
	}
}

package compilation

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/crytic/pathfinder/compilation/types"
	"github.com/crytic/pathfinder/logging"
	"github.com/crytic/pathfinder/utils"
	"github.com/pkg/errors"
)

// CompileSource compiles Solidity source text with the configured platform. The source is written to fileName
// inside a temporary directory which is removed once compilation finishes, so the compiler never sees the caller's
// file system layout. Returns the compilation and any compiler warnings.
func CompileSource(ctx context.Context, config *CompilationConfig, source string, fileName string) (*types.Compilation, string, error) {
	logger := logging.GlobalLogger.NewSubLogger("module", logging.COMPILATION_SERVICE)

	platformConfig, err := config.GetPlatformConfig()
	if err != nil {
		return nil, "", err
	}

	dir, err := os.MkdirTemp("", "pathfinder-compile-")
	if err != nil {
		return nil, "", errors.WithStack(err)
	}
	defer os.RemoveAll(dir)

	if fileName == "" {
		fileName = "contract.sol"
	}
	fileName = filepath.Base(fileName)
	if err = utils.WriteFile(dir, fileName, []byte(source)); err != nil {
		return nil, "", err
	}
	platformConfig.SetTarget(filepath.Join(dir, fileName))

	logger.Debug("Compiling ", fileName, " with ", platformConfig.Platform())
	compilations, warnings, err := platformConfig.Compile(ctx)
	if err != nil {
		return nil, warnings, err
	}
	if len(compilations) == 0 {
		return nil, warnings, fmt.Errorf("compilation of %s produced no artifacts", fileName)
	}
	return &compilations[0], warnings, nil
}

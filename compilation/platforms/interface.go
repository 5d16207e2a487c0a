package platforms

import (
	"context"

	"github.com/crytic/pathfinder/compilation/types"
)

// PlatformConfig describes the interface all compilation platform configs must implement.
type PlatformConfig interface {
	// Compile compiles the configured target. It returns the compilations and any warnings the compiler printed.
	Compile(ctx context.Context) ([]types.Compilation, string, error)
	Platform() string
	GetTarget() string
	SetTarget(string)
}

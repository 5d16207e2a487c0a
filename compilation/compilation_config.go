package compilation

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/crytic/pathfinder/compilation/platforms"
	"github.com/crytic/pathfinder/compilation/types"
)

// CompilationConfig describes the configuration options used to compile a smart contract target.
type CompilationConfig struct {
	// Platform references an identifier indicating which compilation platform to use.
	Platform string `json:"platform"`

	// PlatformConfig describes the Platform-specific configuration needed to compile. Its structure depends on
	// Platform.
	PlatformConfig *json.RawMessage `json:"platformConfig"`
}

// NewCompilationConfig returns a CompilationConfig with default values for a given platform identifier.
func NewCompilationConfig(platform string) (*CompilationConfig, error) {
	if !IsSupportedCompilationPlatform(platform) {
		return nil, fmt.Errorf("could not get default compilation configs: platform '%s' is unsupported", platform)
	}
	return NewCompilationConfigFromPlatformConfig(GetDefaultPlatformConfig(platform))
}

// NewCompilationConfigFromPlatformConfig wraps a platforms.PlatformConfig in a generic CompilationConfig so it can be
// serialized alongside the rest of the project configuration.
func NewCompilationConfigFromPlatformConfig(platformConfig platforms.PlatformConfig) (*CompilationConfig, error) {
	b, err := json.Marshal(platformConfig)
	if err != nil {
		return nil, err
	}
	return &CompilationConfig{Platform: platformConfig.Platform(), PlatformConfig: (*json.RawMessage)(&b)}, nil
}

// GetPlatformConfig deserializes the inner platforms.PlatformConfig.
func (c *CompilationConfig) GetPlatformConfig() (platforms.PlatformConfig, error) {
	if !IsSupportedCompilationPlatform(c.Platform) {
		return nil, fmt.Errorf("could not compile from configs: platform '%s' is unsupported", c.Platform)
	}

	// json.Unmarshal needs a concrete structure to populate, so start from the platform's defaults.
	platformConfig := GetDefaultPlatformConfig(c.Platform)
	if c.PlatformConfig != nil {
		if err := json.Unmarshal(*c.PlatformConfig, platformConfig); err != nil {
			return nil, err
		}
	}
	return platformConfig, nil
}

// Compile deserializes the platform config and compiles its target. Returns the compilations and any compiler
// warnings.
func (c *CompilationConfig) Compile(ctx context.Context) ([]types.Compilation, string, error) {
	platformConfig, err := c.GetPlatformConfig()
	if err != nil {
		return nil, "", err
	}
	return platformConfig.Compile(ctx)
}

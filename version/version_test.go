package version

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestInfoFormatting ensures commit information is shortened and marked dirty where needed.
func TestInfoFormatting(t *testing.T) {
	info := Info{
		Version:       "1.2.3",
		GitCommit:     "0123456789abcdef",
		GitCommitTime: "2026-01-02T03:04:05Z",
		GitTreeDirty:  true,
		GoVersion:     "go1.23.3",
		EVMVersion:    "v0.0.1",
	}
	assert.EqualValues(t, "1.2.3+0123456-dirty", info.Short())

	s := info.String()
	assert.True(t, strings.HasPrefix(s, "pathfinder version 1.2.3\n"))
	assert.Contains(t, s, "Commit:     0123456-dirty")
	assert.Contains(t, s, "Built:      2026-01-02 03:04:05 UTC")
	assert.Contains(t, s, "medusa-geth v0.0.1")

	assert.EqualValues(t, "1.2.3", Info{Version: "1.2.3"}.Short())
}

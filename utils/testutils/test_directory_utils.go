package testutils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/crytic/pathfinder/utils"
	"github.com/stretchr/testify/require"
)

// CopyToTestDirectory copies the file or directory at filePath (relative to the working directory) into an ephemeral
// directory owned by the test. Returns the absolute path of the copy.
func CopyToTestDirectory(t *testing.T, filePath string) string {
	cwd, err := os.Getwd()
	require.NoError(t, err)
	sourcePath := filepath.Join(cwd, filePath)

	sourcePathInfo, err := os.Stat(sourcePath)
	require.NoError(t, err)

	targetPath := filepath.Join(t.TempDir(), "pathfinderTest", sourcePathInfo.Name())
	if sourcePathInfo.IsDir() {
		err = utils.CopyDirectory(sourcePath, targetPath, true)
	} else {
		err = utils.CopyFile(sourcePath, targetPath)
	}
	require.NoError(t, err)

	targetPath, err = filepath.Abs(targetPath)
	require.NoError(t, err)
	return targetPath
}

// WriteTestFile writes contents to relPath under dir, creating intermediate directories. Returns the full path.
func WriteTestFile(t *testing.T, dir string, relPath string, contents string) string {
	fullPath := filepath.Join(dir, relPath)
	require.NoError(t, os.MkdirAll(filepath.Dir(fullPath), 0777))
	require.NoError(t, os.WriteFile(fullPath, []byte(contents), 0644))
	return fullPath
}

// ExecuteInDirectory changes the working directory to testPath (or its parent, if it is a file), runs method, then
// restores the previous working directory so artifacts do not land in the source tree.
func ExecuteInDirectory(t *testing.T, testPath string, method func()) {
	cwd, err := os.Getwd()
	require.NoError(t, err)

	testPathInfo, err := os.Stat(testPath)
	require.NoError(t, err)
	testDirectory := testPath
	if !testPathInfo.IsDir() {
		testDirectory = filepath.Dir(testPath)
	}

	require.NoError(t, os.Chdir(testDirectory))
	defer func() {
		require.NoError(t, os.Chdir(cwd))
	}()
	method()
}

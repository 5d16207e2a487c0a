package workspace

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/crytic/pathfinder/logging"
	"github.com/crytic/pathfinder/utils"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// maxCreateAttempts bounds the attempts to find an unused workspace directory name.
const maxCreateAttempts = 16

// Workspace is the directory the artifacts of a run are written to. The directory is created on first use, so a run
// which fails before producing results leaves nothing behind. An existing directory is never reused.
type Workspace struct {
	// parentDir is the directory the workspace is created in.
	parentDir string

	// prefix prefixes the workspace directory name.
	prefix string

	// path is the absolute path of the workspace once created.
	path string

	// newSuffix returns candidate directory name suffixes.
	newSuffix func() string

	// lock guards path.
	lock sync.Mutex

	logger *logging.Logger
}

// New returns a Workspace which will be created under parentDir (the working directory if empty) with a name of
// prefix followed by 8 hex characters.
func New(parentDir string, prefix string) *Workspace {
	return &Workspace{
		parentDir: parentDir,
		prefix:    prefix,
		newSuffix: func() string {
			id := uuid.New()
			return fmt.Sprintf("%x", id[:4])
		},
		logger: logging.GlobalLogger.NewSubLogger("module", logging.WORKSPACE_SERVICE),
	}
}

// Created reports whether the workspace directory was created.
func (w *Workspace) Created() bool {
	w.lock.Lock()
	defer w.lock.Unlock()
	return w.path != ""
}

// Path returns the absolute path of the workspace, creating its directory if it does not exist yet.
func (w *Workspace) Path() (string, error) {
	w.lock.Lock()
	defer w.lock.Unlock()
	if w.path != "" {
		return w.path, nil
	}

	parentDir, err := filepath.Abs(w.parentDir)
	if err != nil {
		return "", errors.WithStack(err)
	}
	if err = os.MkdirAll(parentDir, 0777); err != nil {
		return "", errors.WithStack(err)
	}

	for attempt := 0; attempt < maxCreateAttempts; attempt++ {
		candidate := filepath.Join(parentDir, w.prefix+w.newSuffix())

		// Mkdir fails if the directory exists, so concurrent runs can never share a workspace.
		err = os.Mkdir(candidate, 0777)
		if err == nil {
			w.path = candidate
			w.logger.Debug("Created workspace ", candidate)
			return w.path, nil
		}
		if !os.IsExist(err) {
			return "", errors.WithStack(err)
		}
	}
	return "", errors.Errorf("could not create a workspace in %s after %d attempts", parentDir, maxCreateAttempts)
}

// FilePath returns the absolute path of a file in the workspace, creating the workspace if needed.
func (w *Workspace) FilePath(fileName string) (string, error) {
	if fileName == "" || strings.ContainsAny(fileName, `/\`) {
		return "", errors.Errorf("invalid workspace file name %q", fileName)
	}
	dir, err := w.Path()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, fileName), nil
}

// WriteFile writes data to a file in the workspace.
func (w *Workspace) WriteFile(fileName string, data []byte) error {
	path, err := w.FilePath(fileName)
	if err != nil {
		return err
	}
	return utils.WriteFile(filepath.Dir(path), filepath.Base(path), data)
}

// WriteJSON writes value as indented JSON to a file in the workspace.
func (w *Workspace) WriteJSON(fileName string, value any) error {
	path, err := w.FilePath(fileName)
	if err != nil {
		return err
	}
	return utils.WriteJSONFile(filepath.Dir(path), filepath.Base(path), value)
}

// CreateFile creates (or truncates) a file in the workspace and returns it open for writing.
func (w *Workspace) CreateFile(fileName string) (*os.File, error) {
	path, err := w.FilePath(fileName)
	if err != nil {
		return nil, err
	}
	return utils.CreateFile(filepath.Dir(path), filepath.Base(path))
}

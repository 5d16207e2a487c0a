package utils

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// CreateFile creates (or truncates) a file named fileName inside dir. If dir is the empty string the file is created
// in the current working directory, otherwise the directory is created first if needed.
func CreateFile(dir string, fileName string) (*os.File, error) {
	filePath := fileName
	if dir != "" {
		if err := MakeDirectory(dir); err != nil {
			return nil, err
		}
		filePath = filepath.Join(dir, fileName)
	}

	file, err := os.Create(filePath)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return file, nil
}

// WriteFile writes data to fileName inside dir, creating the directory if it does not exist.
func WriteFile(dir string, fileName string, data []byte) error {
	file, err := CreateFile(dir, fileName)
	if err != nil {
		return err
	}
	_, err = file.Write(data)
	closeErr := file.Close()
	if err != nil {
		return errors.WithStack(err)
	}
	return errors.WithStack(closeErr)
}

// WriteJSONFile serializes value as indented JSON and writes it to fileName inside dir.
func WriteJSONFile(dir string, fileName string, value any) error {
	b, err := json.MarshalIndent(value, "", "\t")
	if err != nil {
		return errors.WithStack(err)
	}
	return WriteFile(dir, fileName, b)
}

// CopyFile copies the file at sourcePath to targetPath, creating the target directory as needed. File permissions
// are retained.
func CopyFile(sourcePath string, targetPath string) error {
	sourceInfo, err := os.Stat(sourcePath)
	if err != nil {
		return err
	}
	if sourceInfo.IsDir() {
		return fmt.Errorf("could not copy file from '%s' to '%s' because the source path refers to a directory", sourcePath, targetPath)
	}

	if err = os.MkdirAll(filepath.Dir(targetPath), 0777); err != nil {
		return err
	}

	sourceFile, err := os.Open(sourcePath)
	if err != nil {
		return err
	}
	defer sourceFile.Close()

	targetFile, err := os.Create(targetPath)
	if err != nil {
		return err
	}
	defer targetFile.Close()

	if _, err = io.Copy(targetFile, sourceFile); err != nil {
		return err
	}
	return os.Chmod(targetPath, sourceInfo.Mode())
}

// CopyDirectory copies every file in sourcePath to targetPath. Subdirectories are only copied if recursively is set.
func CopyDirectory(sourcePath string, targetPath string, recursively bool) error {
	sourceInfo, err := os.Stat(sourcePath)
	if err != nil {
		return err
	}
	if !sourceInfo.IsDir() {
		return fmt.Errorf("could not copy directory from '%s' to '%s' because the source path does not refer to a valid directory", sourcePath, targetPath)
	}

	if err = os.MkdirAll(targetPath, sourceInfo.Mode()); err != nil {
		return err
	}
	dirEntries, err := os.ReadDir(sourcePath)
	if err != nil {
		return err
	}

	for _, dirEntry := range dirEntries {
		entSourcePath := filepath.Join(sourcePath, dirEntry.Name())
		entTargetPath := filepath.Join(targetPath, dirEntry.Name())
		if dirEntry.IsDir() {
			if !recursively {
				continue
			}
			err = CopyDirectory(entSourcePath, entTargetPath, recursively)
		} else {
			err = CopyFile(entSourcePath, entTargetPath)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// MakeDirectory creates a directory at the given path, including any parent directories which do not exist. It is
// an error if the path already exists as a file.
func MakeDirectory(dirToMake string) error {
	dirInfo, err := os.Stat(dirToMake)
	if err != nil {
		if os.IsNotExist(err) {
			return os.MkdirAll(dirToMake, 0777)
		}
		return err
	}

	if !dirInfo.IsDir() {
		return fmt.Errorf("there is a file with the same name as %s", dirToMake)
	}
	return nil
}


package utils

import (
	"bytes"
	"io"
	"os/exec"
	"sync"
)

// RunCommandWithOutputAndError runs command and returns its stdout, stderr and combined output, along with the
// error returned by exec.Cmd.Run.
func RunCommandWithOutputAndError(command *exec.Cmd) ([]byte, []byte, []byte, error) {
	var bStdout, bStderr, bCombined bytes.Buffer

	// stdout and stderr are copied by separate goroutines, so the combined buffer needs a lock.
	combined := &synchronizedWriter{writer: &bCombined}
	command.Stdout = io.MultiWriter(&bStdout, combined)
	command.Stderr = io.MultiWriter(&bStderr, combined)

	err := command.Run()
	return bStdout.Bytes(), bStderr.Bytes(), bCombined.Bytes(), err
}

type synchronizedWriter struct {
	writer io.Writer
	mutex  sync.Mutex
}

func (s *synchronizedWriter) Write(p []byte) (n int, err error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.writer.Write(p)
}

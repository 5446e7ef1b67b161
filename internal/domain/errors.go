package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrPathNotFound is returned when a configured root does not exist.
	ErrPathNotFound = errors.New("path not found")
	// ErrInvalidExtension is returned when a file root is not a php file.
	ErrInvalidExtension = errors.New("invalid extension")
	// ErrToolUnavailable is returned when the analysis tool is missing and could not be installed.
	ErrToolUnavailable = errors.New("analysis tool unavailable")
	// ErrProcessStart is returned when a tool process could not be spawned.
	ErrProcessStart = errors.New("process failed to start")
	// ErrProcessStderr wraps anything a tool process wrote to its error stream.
	ErrProcessStderr = errors.New("process wrote to stderr")
	// ErrMalformedOutput is returned when analysis output is not the expected JSON report.
	ErrMalformedOutput = errors.New("malformed analysis output")
	// ErrStuckProcess is returned when the fix watchdog had to kill a process.
	ErrStuckProcess = errors.New("process killed after timeout")
	// ErrScanNotDone is returned when fixing is requested before the scan drained.
	ErrScanNotDone = errors.New("scan has not completed")
	// ErrNoRootScanned is returned when every root failed its precondition check.
	ErrNoRootScanned = errors.New("no root could be scanned")
)

// FileError ties a failure to the file that was being processed.
type FileError struct {
	File string
	Err  error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("%s: %v", e.File, e.Err)
}

func (e *FileError) Unwrap() error { return e.Err }

// IsPrecondition reports whether err is a discovery-time precondition failure.
func IsPrecondition(err error) bool {
	return errors.Is(err, ErrPathNotFound) || errors.Is(err, ErrInvalidExtension)
}

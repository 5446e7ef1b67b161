package domain

import (
	"context"
	"io"
)

// Discoverer expands one root path into the php files to analyze.
type Discoverer interface {
	Discover(root string, excludes []string) ([]string, error)
}

// Installer checks for and installs the analysis tool.
type Installer interface {
	Installed(ctx context.Context) (bool, error)
	Install(ctx context.Context) error
}

// Process is a running tool invocation.
type Process interface {
	// Wait blocks until the process exits and its output has been copied.
	Wait() error
	// Kill terminates the process with a non-catchable signal.
	Kill() error
}

// ProcessRunner spawns tool processes, streaming their output into the
// given writers.
type ProcessRunner interface {
	Start(ctx context.Context, cmd Command, stdout, stderr io.Writer) (Process, error)
}

// ChangeDetector lists files with uncommitted changes under a path.
type ChangeDetector interface {
	ChangedFiles(path string) ([]string, error)
}

// RunHistory persists completed scans.
type RunHistory interface {
	Save(dir string, entry RunEntry) error
	Load(dir string) ([]RunEntry, error)
}

// CommitReader resolves the commit checked out at a path.
type CommitReader interface {
	CommitHash(path string) (string, error)
}

// ConfigLoader reads project configuration from a directory or an explicit file.
type ConfigLoader interface {
	Load(dir string) (ProjectConfig, error)
	LoadFile(path string) (ProjectConfig, error)
}

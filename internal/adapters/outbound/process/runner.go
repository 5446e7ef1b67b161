// Package process spawns tool processes on the local machine.
package process

import (
	"context"
	"io"
	"os/exec"
	"time"

	"github.com/phpsniff/phpsniff/internal/domain"
)

// waitDelay bounds how long Wait keeps copying output after the process was
// killed or its context ended, in case a grandchild holds the pipes open.
const waitDelay = 2 * time.Second

// ExecRunner implements domain.ProcessRunner with os/exec.
type ExecRunner struct {
	// Dir is the working directory of spawned processes. Empty means the
	// current directory.
	Dir string
}

func NewExecRunner() *ExecRunner {
	return &ExecRunner{}
}

// Start spawns cmd with its output streamed into stdout and stderr. The
// process is killed when ctx ends.
func (r *ExecRunner) Start(ctx context.Context, cmd domain.Command, stdout, stderr io.Writer) (domain.Process, error) {
	c := exec.CommandContext(ctx, cmd.Path, cmd.Args...)
	c.Dir = r.Dir
	c.Stdout = stdout
	c.Stderr = stderr
	c.WaitDelay = waitDelay

	if err := c.Start(); err != nil {
		return nil, err
	}
	return &execProcess{cmd: c}, nil
}

type execProcess struct {
	cmd *exec.Cmd
}

func (p *execProcess) Wait() error {
	return p.cmd.Wait()
}

// Kill sends SIGKILL. The process cannot trap it.
func (p *execProcess) Kill() error {
	return p.cmd.Process.Kill()
}

// LookPath reports whether the executable of cmd can be resolved.
func LookPath(cmd domain.Command) bool {
	_, err := exec.LookPath(cmd.Path)
	return err == nil
}

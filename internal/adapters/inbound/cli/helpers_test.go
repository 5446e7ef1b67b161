package cli_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/phpsniff/phpsniff/internal/adapters/inbound/cli"
	"github.com/phpsniff/phpsniff/internal/adapters/outbound/process/processtest"
)

// project lays out a PHP project with a config that keeps the fake tools fast.
func project(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	files[".phpsniff.yaml"] = "scan_delay: 0s\nfix_timeout: 2s\n"
	for name, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}
	return dir
}

func newCmd(runner *processtest.Runner, args ...string) (*cobra.Command, *bytes.Buffer, *bytes.Buffer) {
	cmd := cli.NewRootCmdWithRunner(runner)
	out, errOut := new(bytes.Buffer), new(bytes.Buffer)
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetArgs(args)
	return cmd, out, errOut
}

package commands_test

import (
	"bytes"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loanlens/loanlens/internal/config"
)

var binaryPath string

func TestMain(m *testing.M) {
	// Build the binary once for all tests.
	tmpDir, err := os.MkdirTemp("", "loanlens-test-*")
	if err != nil {
		panic(err)
	}
	defer os.RemoveAll(tmpDir)

	binaryPath = filepath.Join(tmpDir, "loanlens")
	cmd := exec.Command("go", "build", "-o", binaryPath, "../../cmd/loanlens")
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		panic("failed to build binary: " + err.Error())
	}

	os.Exit(m.Run())
}

// runLoanlens runs the binary and returns stdout and stderr separately so
// report output is not mixed with log lines.
func runLoanlens(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := exec.Command(binaryPath, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stdout.String(), stderr.String(), err
}

func TestInit_CreatesStructure(t *testing.T) {
	dir := t.TempDir()
	out, _, err := runLoanlens(t, "init", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "Initialized loanlens project")

	for _, d := range []string{"data", "reports", "logs"} {
		info, err := os.Stat(filepath.Join(dir, d))
		require.NoError(t, err, "directory %s should exist", d)
		assert.True(t, info.IsDir(), "%s should be a directory", d)
	}
}

func TestInit_Config(t *testing.T) {
	dir := t.TempDir()
	_, _, err := runLoanlens(t, "init", dir)
	require.NoError(t, err)

	cfg, err := config.Load(filepath.Join(dir, config.FileName))
	require.NoError(t, err)
	want := config.Default()
	assert.Equal(t, want.Source, cfg.Source)
	assert.Equal(t, want.Output, cfg.Output)
	assert.Equal(t, want.Report.TopN, cfg.Report.TopN)
	assert.True(t, want.Report.Risk.MinBalance.Equal(cfg.Report.Risk.MinBalance))
	assert.Empty(t, config.Validate(cfg))
}

func TestInit_RefusesOverwrite(t *testing.T) {
	dir := t.TempDir()
	_, _, err := runLoanlens(t, "init", dir)
	require.NoError(t, err)

	_, stderr, err := runLoanlens(t, "init", dir)
	require.Error(t, err)
	assert.Contains(t, stderr, "already exists")

	_, _, err = runLoanlens(t, "init", dir, "--force")
	require.NoError(t, err)
}

func TestVersion(t *testing.T) {
	out, _, err := runLoanlens(t, "--version")
	require.NoError(t, err)
	assert.Contains(t, out, "loanlens version dev")
}

package cli

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// runCmd executes the root command with args against a captured
// stdout buffer, the way the teacher's own cobra command tests drive
// RunE without forking a process.
func runCmd(t *testing.T, args ...string) string {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	t.Setenv("USERPROFILE", t.TempDir())

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	require.NoError(t, rootCmd.Execute())
	return out.String()
}

func TestAddRequiresExactlyOneArg(t *testing.T) {
	err := addCmd.Args(addCmd, []string{})
	require.Error(t, err)

	err = addCmd.Args(addCmd, []string{"git status"})
	require.NoError(t, err)

	err = addCmd.Args(addCmd, []string{"a", "b"})
	require.Error(t, err)
}

func TestSearchRequiresExactlyOneArg(t *testing.T) {
	err := searchCmd.Args(searchCmd, []string{})
	require.Error(t, err)

	err = searchCmd.Args(searchCmd, []string{"git"})
	require.NoError(t, err)
}

func TestSessionNewPrintsAParsableUUID(t *testing.T) {
	out := runCmd(t, "session", "new")
	_, err := uuid.Parse(strings.TrimSpace(out))
	require.NoError(t, err)
}

func TestAddThenSearchFindsTheCommand(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("USERPROFILE", home)

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)

	rootCmd.SetArgs([]string{"add", "git status", "--session", "s1", "--dir", "/repo"})
	require.NoError(t, rootCmd.Execute())

	rootCmd.SetArgs([]string{"add", "git push", "--session", "s1", "--dir", "/repo"})
	require.NoError(t, rootCmd.Execute())

	// The view only holds commands with when_run strictly before now, so
	// let the clock move past the second the commands were added in.
	time.Sleep(time.Second)

	out.Reset()
	rootCmd.SetArgs([]string{"search", "git", "--session", "s1", "--dir", "/repo"})
	require.NoError(t, rootCmd.Execute())

	results := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Contains(t, results, "git push")
}

func TestWeightsShowPrintsDefaults(t *testing.T) {
	out := runCmd(t, "weights", "show")
	require.Contains(t, out, "offset:")
	require.Contains(t, out, "dir:")
}

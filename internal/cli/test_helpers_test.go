package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/multisecret/internal/bundle"
	"github.com/mrz1836/multisecret/internal/config"
	"github.com/mrz1836/multisecret/internal/output"
)

// testPassphrase is long enough to pass the new passphrase check.
const testPassphrase = "correct horse battery"

// saveGlobals saves all package-level globals and returns a restore function.
func saveGlobals(t *testing.T) func() {
	t.Helper()
	origCfg := cfg
	origLogger := logger
	origFormatter := formatter
	origBuildInfo := buildInfo
	origHomeDir := homeDir
	origOutputFormat := outputFormat
	origVerbose := verbose
	origCtxFn := commandContextFn
	return func() {
		cfg = origCfg
		logger = origLogger
		formatter = origFormatter
		buildInfo = origBuildInfo
		homeDir = origHomeDir
		outputFormat = origOutputFormat
		verbose = origVerbose
		commandContextFn = origCtxFn
	}
}

// setupTestEnv points the globals at a temporary home with a null logger
// and a text formatter.
func setupTestEnv(t *testing.T) string {
	t.Helper()
	t.Cleanup(saveGlobals(t))

	tmpDir := t.TempDir()
	testCfg := config.Defaults()
	testCfg.Home = tmpDir
	testCfg.Logging.Level = "off"
	cfg = testCfg
	logger = config.NullLogger()
	formatter = output.NewFormatter(output.FormatText, os.Stdout)
	return tmpDir
}

// withMockPrompts answers every passphrase prompt with passphrase.
func withMockPrompts(t *testing.T, passphrase string) *int {
	t.Helper()
	origPW := promptPasswordFn
	origNewPW := promptNewPassphraseFn
	t.Cleanup(func() {
		promptPasswordFn = origPW
		promptNewPassphraseFn = origNewPW
	})

	calls := 0
	promptPasswordFn = func(_ string) ([]byte, error) {
		calls++
		return []byte(passphrase), nil
	}
	promptNewPassphraseFn = promptNewPassphrase
	return &calls
}

// resetFlags restores every flag of the command tree to its default and
// clears its changed state, so consecutive executions do not leak values.
func resetFlags(root *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	walkCommands(root, func(c *cobra.Command) {
		c.Flags().VisitAll(reset)
		c.PersistentFlags().VisitAll(reset)
	})
}

// executeCommand runs the root command with args against an isolated home
// and returns what it wrote to stdout and stderr.
func executeCommand(t *testing.T, home string, args ...string) (string, string, error) {
	t.Helper()
	t.Cleanup(saveGlobals(t))
	t.Setenv(config.EnvLogLevel, "off")
	t.Setenv(config.EnvHome, "")

	resetFlags(rootCmd)
	t.Cleanup(func() { resetFlags(rootCmd) })

	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(append([]string{"--home", home}, args...))
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})

	err := rootCmd.Execute()
	return stdout.String(), stderr.String(), err
}

// newTestCmd returns a bare command that writes into the returned buffer.
func newTestCmd() (*cobra.Command, *bytes.Buffer) {
	cmd := &cobra.Command{}
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	return cmd, &buf
}

// participantPath is the path split writes participant j's file to.
func participantPath(dir string, j int, f bundle.Format, encrypted bool) string {
	return filepath.Join(dir, bundle.ParticipantFileName(j, f, encrypted))
}

// requireFile fails unless path exists.
func requireFile(t *testing.T, path string) {
	t.Helper()
	_, err := os.Stat(path)
	require.NoError(t, err, "expected %s to exist", path)
}

package cli

import (
	"encoding/json"
	"io"
	"math/big"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/multisecret/internal/access"
	"github.com/mrz1836/multisecret/internal/bundle"
	"github.com/mrz1836/multisecret/internal/config"
	"github.com/mrz1836/multisecret/internal/metrics"
	"github.com/mrz1836/multisecret/internal/output"
	mserr "github.com/mrz1836/multisecret/pkg/errors"
)

// splitFixture splits two secrets among three participants without
// encryption and returns the decoded result.
func splitFixture(t *testing.T, home, kind string, format bundle.Format) splitResult {
	t.Helper()

	second := "1,3"
	first := "1,2;2,3"
	if kind == "herranz-ruiz-saez" {
		first = "1,2"
	}

	stdout, _, err := executeCommand(t, home,
		"split", "-n", "3",
		"--secret", "1234", "--access", first,
		"--secret", "99", "--access", second,
		"--scheme", kind,
		"--format", string(format),
		"--out", filepath.Join(home, "out"),
		"--no-encrypt",
		"-o", "json",
	)
	require.NoError(t, err)

	var res splitResult
	require.NoError(t, json.Unmarshal([]byte(stdout), &res))
	return res
}

func TestSplit_WritesBundleAndParticipants(t *testing.T) {
	home := t.TempDir()
	res := splitFixture(t, home, "roy-adhikari", bundle.FormatJSON)

	assert.Equal(t, "roy-adhikari", res.Scheme)
	assert.Equal(t, 2, res.Secrets)
	assert.NotEmpty(t, res.Session)
	requireFile(t, res.Public)
	require.Len(t, res.Participants, 3)

	// participant 1 sits in group 0 of secret 0 and group 0 of secret 1,
	// participant 3 in group 1 of secret 0 and group 0 of secret 1
	wantShares := map[int]int{1: 2, 2: 2, 3: 2}
	for _, p := range res.Participants {
		assert.False(t, p.Encrypted)
		assert.Equal(t, wantShares[p.Participant], p.Shares, "participant %d", p.Participant)
		assert.Equal(t, participantPath(res.Directory, p.Participant, bundle.FormatJSON, false), p.File)
		requireFile(t, p.File)
	}
}

func TestSplit_TextOutput(t *testing.T) {
	home := t.TempDir()
	stdout, stderr, err := executeCommand(t, home,
		"split", "-n", "2", "--secret", "5", "--access", "1,2",
		"--scheme", "lin-yeh", "--out", filepath.Join(home, "out"), "--no-encrypt", "-o", "text",
	)
	require.NoError(t, err)

	assert.Contains(t, stdout, "Split 1 secret(s) among 2 participants with lin-yeh")
	assert.Contains(t, stdout, "PARTICIPANT")
	assert.Contains(t, stderr, "not encrypted")
}

func TestSplit_RefusesExistingBundle(t *testing.T) {
	home := t.TempDir()
	splitFixture(t, home, "lin-yeh", bundle.FormatJSON)

	_, _, err := executeCommand(t, home,
		"split", "-n", "2", "--secret", "5", "--access", "1,2",
		"--out", filepath.Join(home, "out"), "--no-encrypt", "-o", "json",
	)
	require.Error(t, err)
	require.ErrorIs(t, err, mserr.ErrInvalidInput)

	_, _, err = executeCommand(t, home,
		"split", "-n", "2", "--secret", "5", "--access", "1,2",
		"--out", filepath.Join(home, "out"), "--no-encrypt", "--force", "-o", "json",
	)
	require.NoError(t, err)
}

func TestSplit_Encrypted(t *testing.T) {
	home := t.TempDir()
	calls := withMockPrompts(t, testPassphrase)

	stdout, _, err := executeCommand(t, home,
		"split", "-n", "2", "--secret", "42", "--access", "1,2",
		"--scheme", "lin-yeh", "--prime", "4099",
		"--out", filepath.Join(home, "out"), "--encrypt", "-o", "json",
	)
	require.NoError(t, err)
	assert.Equal(t, 4, *calls, "each participant is asked twice")

	var res splitResult
	require.NoError(t, json.Unmarshal([]byte(stdout), &res))
	for _, p := range res.Participants {
		assert.True(t, p.Encrypted)
		assert.Equal(t, ".age", filepath.Ext(p.File))

		encrypted, err := bundle.IsEncryptedFile(p.File)
		require.NoError(t, err)
		assert.True(t, encrypted)
	}
}

func TestSplit_InvalidInput(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want error
	}{
		{
			name: "secret without access",
			args: []string{"-n", "2", "--secret", "1", "--secret", "2", "--access", "1,2"},
			want: mserr.ErrInvalidInput,
		},
		{
			name: "participant out of range",
			args: []string{"-n", "2", "--secret", "1", "--access", "1,3"},
			want: mserr.ErrInvalidAccessGroup,
		},
		{
			name: "unknown scheme",
			args: []string{"-n", "2", "--secret", "1", "--access", "1,2", "--scheme", "shamir"},
			want: mserr.ErrUnknownScheme,
		},
		{
			name: "composite prime",
			args: []string{"-n", "2", "--secret", "1", "--access", "1,2", "--prime", "4096"},
			want: mserr.ErrInvalidModulus,
		},
		{
			name: "secret not below prime",
			args: []string{"-n", "2", "--secret", "1009", "--access", "1,2", "--prime", "1009"},
			want: mserr.ErrInvalidModulus,
		},
		{
			name: "secret above named prime",
			args: []string{"-n", "2", "--secret", "123456789", "--access", "1,2", "--prime", "15487469"},
			want: mserr.ErrInvalidModulus,
		},
		{
			name: "unknown format",
			args: []string{"-n", "2", "--secret", "1", "--access", "1,2", "--format", "xml"},
			want: mserr.ErrInvalidFormat,
		},
		{
			name: "malformed secret",
			args: []string{"-n", "2", "--secret", "12ab", "--access", "1,2"},
			want: mserr.ErrInvalidInput,
		},
		{
			name: "hrs with two groups",
			args: []string{"-n", "3", "--secret", "1", "--access", "1,2;2,3", "--scheme", "hrs"},
			want: mserr.ErrInvalidAccessGroup,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			home := t.TempDir()
			args := append([]string{"split", "--no-encrypt", "-o", "json", "--out", filepath.Join(home, "out")}, tc.args...)
			_, _, err := executeCommand(t, home, args...)
			require.Error(t, err)
			require.ErrorIs(t, err, tc.want)

			_, statErr := os.Stat(filepath.Join(home, "out"))
			assert.True(t, os.IsNotExist(statErr), "nothing is written on error")
		})
	}
}

func TestSplit_MissingRequiredFlags(t *testing.T) {
	_, _, err := executeCommand(t, t.TempDir(), "split", "--secret", "1", "--access", "1,2")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "participants")
}

func TestParseSecret(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		in      string
		text    bool
		want    *big.Int
		wantErr bool
	}{
		{name: "decimal", in: "1234", want: big.NewInt(1234)},
		{name: "zero", in: "0", want: big.NewInt(0)},
		{name: "hex", in: "0xff", want: big.NewInt(255)},
		{name: "upper hex prefix", in: "0XFF", want: big.NewInt(255)},
		{name: "surrounding space", in: "  42 ", want: big.NewInt(42)},
		{name: "text", in: "AB", text: true, want: big.NewInt(0x4142)},
		{name: "negative", in: "-5", wantErr: true},
		{name: "garbage", in: "abc", wantErr: true},
		{name: "empty", in: "", wantErr: true},
		{name: "empty text", in: "", text: true, wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, err := parseSecret(tc.in, tc.text)
			if tc.wantErr {
				require.ErrorIs(t, err, mserr.ErrInvalidInput)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, 0, tc.want.Cmp(got), "got %s", got)
		})
	}
}

func TestFirstValue(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "b", firstString("", "b", "c"))
	assert.Empty(t, firstString("", ""))
	assert.Equal(t, 32, firstInt(0, 32, 16))
	assert.Zero(t, firstInt())
}

func TestSplit_RecordsMetrics(t *testing.T) {
	before := metrics.Global.Snapshot()

	home := t.TempDir()
	splitFixture(t, home, "lin-yeh", bundle.FormatJSON)

	after := metrics.Global.Snapshot()
	assert.Equal(t, before.SplitsTotal+1, after.SplitsTotal)
	assert.Equal(t, before.SharesWritten+6, after.SharesWritten)
}

func TestSplit_LogsFailure(t *testing.T) {
	t.Cleanup(saveGlobals(t))

	home := t.TempDir()
	logPath := filepath.Join(home, "split.log")
	fileLogger, err := config.OpenLogger(config.LoggingConfig{Level: "error", File: logPath, Format: "json"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = fileLogger.Close() })

	commandContextFn = func() *CommandContext {
		return NewCommandContext(config.Defaults(), fileLogger, output.NewFormatter(output.FormatJSON, io.Discard))
	}

	_, _, err = executeCommand(t, home, "split", "--no-encrypt", "-o", "json",
		"--out", filepath.Join(home, "out"), "-n", "2",
		"--secret", "1009", "--access", "1,2", "--prime", "1009")
	require.ErrorIs(t, err, mserr.ErrInvalidModulus)

	data, err := os.ReadFile(logPath) //nolint:gosec // G304: path from t.TempDir()
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"split failed"`)
	assert.Contains(t, string(data), `"code":"INVALID_MODULUS"`)
}

func TestSplit_ReportsIdleParticipants(t *testing.T) {
	home := t.TempDir()
	stdout, _, err := executeCommand(t, home,
		"split", "-n", "4", "--no-encrypt", "-o", "json",
		"--out", filepath.Join(home, "out"),
		"--secret", "5", "--access", "1,3")
	require.NoError(t, err)

	var res splitResult
	require.NoError(t, json.Unmarshal([]byte(stdout), &res))
	assert.Equal(t, []int{2, 4}, res.Idle)
	require.Len(t, res.Participants, 4)
	assert.Equal(t, 0, res.Participants[1].Shares)

	_, stderr, err := executeCommand(t, home,
		"split", "-n", "3", "--no-encrypt", "-o", "text", "--force",
		"--out", filepath.Join(home, "out"),
		"--secret", "5", "--access", "1,2")
	require.NoError(t, err)
	assert.Contains(t, stderr, "participants [3] are in no access group")
}

func TestIdleParticipants(t *testing.T) {
	t.Parallel()

	acc, err := access.New(5, [][][]int{{{1, 2}}, {{2, 5}}})
	require.NoError(t, err)
	assert.Equal(t, []int{3, 4}, idleParticipants(acc))

	full, err := access.New(2, [][][]int{{{1, 2}}})
	require.NoError(t, err)
	assert.Empty(t, idleParticipants(full))
}

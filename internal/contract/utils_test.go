package contract

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectOutputFile(t *testing.T) {
	t.Run("empty path returns stdout", func(t *testing.T) {
		file, err := SelectOutputFile("")
		require.NoError(t, err)
		assert.Equal(t, os.Stdout, file)
	})

	t.Run("valid path creates file", func(t *testing.T) {
		tempFile := filepath.Join(t.TempDir(), "test_output.txt")
		file, err := SelectOutputFile(tempFile)
		require.NoError(t, err)
		_ = file.Close()

		_, err = os.Stat(tempFile)
		assert.NoError(t, err)
	})
}

func TestNormalizeRepoPath(t *testing.T) {
	tests := []struct {
		name     string
		repo     string
		input    string
		expected string
		wantErr  bool
	}{
		{"relative file", "/repo", "src/main.go", "src/main.go", false},
		{"dot prefix", "/repo", "./src/main.go", "src/main.go", false},
		{"absolute inside", "/repo", "/repo/pkg/a.go", "pkg/a.go", false},
		{"parent escape", "/repo", "../etc/passwd", "", true},
		{"absolute outside", "/repo", "/other/a.go", "", true},
		{"dotdot-prefixed name is fine", "/repo", "..hidden", "..hidden", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeRepoPath(tt.repo, tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestTruncatePath(t *testing.T) {
	assert.Equal(t, "short.go", TruncatePath("short.go", 20))
	assert.Equal(t, "...deep/file.go", TruncatePath("very/long/path/deep/file.go", 15))
	assert.Equal(t, "abcdef", TruncatePath("abcdef", 3), "tiny widths leave the path alone")
}

func TestParseBoolString(t *testing.T) {
	for _, s := range []string{"yes", "TRUE", "1"} {
		v, err := ParseBoolString(s)
		require.NoError(t, err)
		assert.True(t, v, s)
	}
	for _, s := range []string{"no", "False", "0"} {
		v, err := ParseBoolString(s)
		require.NoError(t, err)
		assert.False(t, v, s)
	}
	_, err := ParseBoolString("maybe")
	assert.Error(t, err)
}

func TestCountLines(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  int
	}{
		{"empty", "", 0},
		{"single terminated", "a\n", 1},
		{"single unterminated", "a", 1},
		{"two lines, last unterminated", "a\nb", 2},
		{"blank lines", "\n\n", 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CountLines([]byte(tt.input)))
		})
	}
}

func TestCommitHelpers(t *testing.T) {
	root := &Commit{}
	assert.False(t, root.IsMerge())
	assert.Nil(t, root.FirstParent())

	merge := &Commit{Parents: []ObjectID{{1}, {2}}}
	assert.True(t, merge.IsMerge())
	require.NotNil(t, merge.FirstParent())
	assert.Equal(t, ObjectID{1}, *merge.FirstParent())

	r := WalkRange{Start: ObjectID{9}}
	assert.False(t, r.IsSince(ObjectID{9}))
	since := ObjectID{3}
	r.Since = &since
	assert.True(t, r.IsSince(ObjectID{3}))
	assert.Equal(t, "rewrite", Rewrite.String())
}

func TestSignatureLocal(t *testing.T) {
	sig := Signature{Time: time.Date(2024, 5, 1, 2, 30, 0, 0, time.UTC).Unix(), Offset: -4 * 3600}
	local := sig.Local()
	assert.Equal(t, 22, local.Hour())
	assert.Equal(t, 30, local.Day())
}

var fixedNow = time.Date(2025, time.November, 3, 10, 0, 0, 0, time.UTC)

func TestParseRelativeTime(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		expected    time.Time
		expectError bool
	}{
		{name: "plural months mixed case", input: "3 MoNtHs AgO", expected: fixedNow.AddDate(0, -3, 0)},
		{name: "singular week", input: "1 Week Ago", expected: fixedNow.AddDate(0, 0, -7)},
		{name: "hours", input: "5 hours ago", expected: fixedNow.Add(-5 * time.Hour)},
		{name: "missing ago", input: "2 years", expectError: true},
		{name: "bad unit", input: "4 decades ago", expectError: true},
		{name: "non-numeric", input: "one year ago", expectError: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseRelativeTime(tt.input, fixedNow)
			if tt.expectError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestParseReferenceTime(t *testing.T) {
	got, err := ParseReferenceTime("2024-06-01T12:00:00Z", fixedNow)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC), got)

	got, err = ParseReferenceTime("1700000000", fixedNow)
	require.NoError(t, err)
	assert.Equal(t, int64(1700000000), got.Unix())

	got, err = ParseReferenceTime("2 days ago", fixedNow)
	require.NoError(t, err)
	assert.Equal(t, fixedNow.AddDate(0, 0, -2), got)

	_, err = ParseReferenceTime("soon", fixedNow)
	assert.Error(t, err)
}

func TestParseLogLevel(t *testing.T) {
	for _, s := range []string{"debug", "info", "", "warn", "error"} {
		_, err := ParseLogLevel(s)
		assert.NoError(t, err, s)
	}
	_, err := ParseLogLevel("verbose")
	assert.ErrorIs(t, err, ErrInvalidConfiguration)
}

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sammcj/mcp-typeset/internal/typography"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, name := range []string{ModeEnvVar, EscapesEnvVar, CurlyQuotesEnvVar, SentinelEnvVar, NormaliseEnvVar, MaxLengthEnvVar} {
		t.Setenv(name, "")
	}
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	clearEnv(t)

	s, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Defaults(), s)
	assert.Equal(t, typography.Options{}, s.Options())
}

func TestLoad_FileAndEnvOverrides(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("mode: explicit\nescapes: true\nsentinel: quit\nmax_length: 10\n"), 0600))

	s, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "explicit", s.Mode)
	assert.True(t, s.Escapes)
	assert.Equal(t, "quit", s.Sentinel)
	assert.Equal(t, 10, s.MaxLength)

	t.Setenv(ModeEnvVar, "implicit")
	t.Setenv(CurlyQuotesEnvVar, "drop")
	t.Setenv(MaxLengthEnvVar, "not-a-number")
	t.Setenv(NormaliseEnvVar, "true")

	s, err = Load(path)
	require.NoError(t, err)
	assert.Equal(t, typography.Options{
		Mode:      typography.Implicit,
		Escapes:   true,
		Curly:     typography.CurlyDrop,
		Normalise: true,
	}, s.Options())
	assert.Equal(t, 10, s.MaxLength)
}

func TestLoad_Invalid(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()

	tests := []struct {
		name    string
		content string
		errMsg  string
	}{
		{"bad yaml", "mode: [", "failed to parse settings file"},
		{"bad mode", "mode: latex", "invalid mode"},
		{"bad curly policy", "curly_quotes: elide", "invalid curly quote policy"},
		{"empty sentinel", "sentinel: ' '", "sentinel cannot be empty"},
		{"bad max length", "max_length: -1", "max_length must be positive"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, tt.name+".yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0600))

			_, err := Load(path)
			assert.ErrorContains(t, err, tt.errMsg)
		})
	}
}

func TestSettings_SaveRoundTrip(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	s := Defaults()
	s.Mode = "explicit"
	s.Normalise = true
	require.NoError(t, s.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, s, loaded)
}

func TestDefaultPath(t *testing.T) {
	t.Setenv(ConfigPathEnvVar, "/tmp/custom.yaml")
	assert.Equal(t, "/tmp/custom.yaml", DefaultPath())

	t.Setenv(ConfigPathEnvVar, "")
	assert.Equal(t, "config.yaml", filepath.Base(DefaultPath()))
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	require.NoError(t, LoadDotEnv())

	t.Setenv(SentinelEnvVar, "")
	require.NoError(t, os.Unsetenv(SentinelEnvVar))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte(SentinelEnvVar+"=stop\n"), 0600))
	require.NoError(t, LoadDotEnv())
	assert.Equal(t, "stop", os.Getenv(SentinelEnvVar))
}

func TestGlobalSettings(t *testing.T) {
	t.Cleanup(func() { SetGlobalSettings(nil) })

	assert.Equal(t, Defaults(), GetGlobalSettings())

	s := Defaults()
	s.Mode = "explicit"
	SetGlobalSettings(s)
	assert.Same(t, s, GetGlobalSettings())
}

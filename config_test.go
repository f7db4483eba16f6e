package scmver

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scmver.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfig(t *testing.T) {
	t.Run("Empty path yields defaults", func(t *testing.T) {
		config, err := LoadConfig("")
		require.NoError(t, err)
		require.Equal(t, SchemeGuessNextDev, config.VersionScheme)
		require.Equal(t, SchemeNodeAndDate, config.LocalScheme)
		require.Equal(t, DefaultTagRegex.String(), config.TagRegex.String())
	})

	t.Run("Full file", func(t *testing.T) {
		path := writeConfigFile(t, `
tag_regex: '^component-(?P<version>\d+\.\d+\.\d+)$'
version_scheme: calver-by-date
local_scheme: no-local-version
`)
		config, err := LoadConfig(path)
		require.NoError(t, err)
		require.Equal(t, SchemeCalverByDate, config.VersionScheme)
		require.Equal(t, SchemeNoLocalVersion, config.LocalScheme)

		parsed := ParseVersionTag("component-1.2.3", config)
		require.NotNil(t, parsed)
		require.Equal(t, "1.2.3", parsed.Version)
	})

	t.Run("Partial file keeps remaining defaults", func(t *testing.T) {
		path := writeConfigFile(t, "local_scheme: dirty-tag\n")
		config, err := LoadConfig(path)
		require.NoError(t, err)
		require.Equal(t, SchemeGuessNextDev, config.VersionScheme)
		require.Equal(t, SchemeDirtyTag, config.LocalScheme)
	})

	t.Run("Missing file", func(t *testing.T) {
		_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
		require.Error(t, err)
		require.Contains(t, err.Error(), "config file not found")
	})

	t.Run("Malformed YAML", func(t *testing.T) {
		path := writeConfigFile(t, "version_scheme: [\n")
		_, err := LoadConfig(path)
		require.Error(t, err)
	})

	t.Run("Unknown version scheme", func(t *testing.T) {
		path := writeConfigFile(t, "version_scheme: bogus\n")
		_, err := LoadConfig(path)
		require.Error(t, err)
		require.Contains(t, err.Error(), "unknown version scheme")
	})

	t.Run("Unknown local scheme", func(t *testing.T) {
		path := writeConfigFile(t, "local_scheme: bogus\n")
		_, err := LoadConfig(path)
		require.Error(t, err)
		require.Contains(t, err.Error(), "unknown local scheme")
	})

	t.Run("Invalid tag regex", func(t *testing.T) {
		path := writeConfigFile(t, "tag_regex: '(['\n")
		_, err := LoadConfig(path)
		require.Error(t, err)
		require.Contains(t, err.Error(), "invalid tag regex")
	})

	t.Run("Tag regex without a version group", func(t *testing.T) {
		path := writeConfigFile(t, "tag_regex: '^release$'\n")
		_, err := LoadConfig(path)
		require.Error(t, err)
	})
}

package scmver

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDescribe(t *testing.T) {
	t.Run("Exact tag", func(t *testing.T) {
		repo, err := testRepoCreate()
		require.NoError(t, err)
		hash, err := testRepoCommit(repo, "README.md", "hello")
		require.NoError(t, err)
		require.NoError(t, testRepoTag(repo, "v1.0.0", hash))

		config, warnings := testConfig()
		v, err := Describe(Options{Repository: repo, Config: config})
		require.NoError(t, err)
		require.Equal(t, "1.0.0", v.Tag)
		require.True(t, v.Exact())
		require.False(t, v.Dirty)
		require.Len(t, v.Node, 8)
		require.Equal(t, "master", v.Branch)
		require.False(t, v.NodeDate.IsZero())
		require.Empty(t, *warnings)

		got, err := FormatVersion(v, SchemeGuessNextDev, SchemeNodeAndDate)
		require.NoError(t, err)
		require.Equal(t, "1.0.0", got)
	})

	t.Run("Commits past the tag", func(t *testing.T) {
		repo, err := testRepoCreate()
		require.NoError(t, err)
		hash, err := testRepoCommit(repo, "a.txt", "a")
		require.NoError(t, err)
		require.NoError(t, testRepoTag(repo, "v1.0.0", hash))
		_, err = testRepoCommit(repo, "b.txt", "b")
		require.NoError(t, err)

		config, _ := testConfig()
		v, err := Describe(Options{Repository: repo, Config: config})
		require.NoError(t, err)
		require.Equal(t, "1.0.0", v.Tag)
		require.False(t, v.Exact())
		require.Equal(t, 1, v.Distance)

		got, err := FormatVersion(v, SchemeGuessNextDev, SchemeNodeAndDate)
		require.NoError(t, err)
		require.Equal(t, "1.0.1.dev1+"+v.Node, got)
	})

	t.Run("No tags falls back", func(t *testing.T) {
		repo, err := testRepoCreate()
		require.NoError(t, err)
		_, err = testRepoCommit(repo, "a.txt", "a")
		require.NoError(t, err)
		_, err = testRepoCommit(repo, "b.txt", "b")
		require.NoError(t, err)

		config, warnings := testConfig()
		v, err := Describe(Options{Repository: repo, Config: config})
		require.NoError(t, err)
		require.Equal(t, "0.0", v.Tag)
		require.Equal(t, 2, v.Distance)
		require.Len(t, *warnings, 1)
		require.Contains(t, (*warnings)[0], "no matching tag found")
	})

	t.Run("Custom fallback version", func(t *testing.T) {
		repo, err := testRepoCreate()
		require.NoError(t, err)
		_, err = testRepoCommit(repo, "a.txt", "a")
		require.NoError(t, err)

		config, _ := testConfig()
		v, err := Describe(Options{Repository: repo, Config: config, FallbackVersion: "0.1.0"})
		require.NoError(t, err)
		require.Equal(t, "0.1.0", v.Tag)
	})

	t.Run("Highest tag on the same commit wins", func(t *testing.T) {
		repo, err := testRepoCreate()
		require.NoError(t, err)
		hash, err := testRepoCommit(repo, "a.txt", "a")
		require.NoError(t, err)
		require.NoError(t, testRepoTag(repo, "v1.0.0", hash))
		require.NoError(t, testRepoTag(repo, "v1.2.0", hash))

		config, _ := testConfig()
		v, err := Describe(Options{Repository: repo, Config: config})
		require.NoError(t, err)
		require.Equal(t, "1.2.0", v.Tag)
	})

	t.Run("Tags that do not match the pattern are skipped", func(t *testing.T) {
		repo, err := testRepoCreate()
		require.NoError(t, err)
		hash, err := testRepoCommit(repo, "a.txt", "a")
		require.NoError(t, err)
		require.NoError(t, testRepoTag(repo, "v1.0.0", hash))
		second, err := testRepoCommit(repo, "b.txt", "b")
		require.NoError(t, err)
		require.NoError(t, testRepoTag(repo, "nightly", second))

		config, _ := testConfig()
		v, err := Describe(Options{Repository: repo, Config: config})
		require.NoError(t, err)
		require.Equal(t, "1.0.0", v.Tag)
		require.Equal(t, 1, v.Distance)
	})

	t.Run("Dirty worktree", func(t *testing.T) {
		repo, err := testRepoCreate()
		require.NoError(t, err)
		hash, err := testRepoCommit(repo, "a.txt", "a")
		require.NoError(t, err)
		require.NoError(t, testRepoTag(repo, "v1.0.0", hash))
		require.NoError(t, testRepoDirtyFile(repo, "scratch.txt"))

		config, _ := testConfig()
		v, err := Describe(Options{Repository: repo, Config: config})
		require.NoError(t, err)
		require.True(t, v.Dirty)
		require.False(t, v.Exact())

		got, err := FormatVersion(v, SchemeGuessNextDev, SchemeDirtyTag)
		require.NoError(t, err)
		require.Equal(t, "1.0.1.dev0+dirty", got)
	})

	t.Run("Branch name is carried into the snapshot", func(t *testing.T) {
		repo, err := testRepoCreate()
		require.NoError(t, err)
		hash, err := testRepoCommit(repo, "a.txt", "a")
		require.NoError(t, err)
		require.NoError(t, testRepoTag(repo, "v1.2.3", hash))
		require.NoError(t, testRepoCheckout(repo, "release/1.2"))
		_, err = testRepoCommit(repo, "fix.txt", "fix")
		require.NoError(t, err)

		config, _ := testConfig()
		v, err := Describe(Options{Repository: repo, Config: config})
		require.NoError(t, err)
		require.Equal(t, "release/1.2", v.Branch)

		got, err := FormatVersion(v, SchemeReleaseBranchSemver, SchemeNoLocalVersion)
		require.NoError(t, err)
		require.Equal(t, "1.2.4.dev1", got)
	})

	t.Run("Missing repository is an error", func(t *testing.T) {
		_, err := Describe(Options{})
		require.Error(t, err)
	})

	t.Run("Unknown commitish is an error", func(t *testing.T) {
		repo, err := testRepoCreate()
		require.NoError(t, err)
		_, err = testRepoCommit(repo, "a.txt", "a")
		require.NoError(t, err)

		_, err = Describe(Options{Repository: repo, Commitish: "no-such-ref"})
		require.Error(t, err)
	})
}

func TestTagLess(t *testing.T) {
	tests := []struct {
		a, b     string
		expected bool
	}{
		{"v1.0.0", "v1.2.0", true},
		{"v1.2.0", "v1.0.0", false},
		{"1.9.9", "1.10.0", true},
		{"apple", "banana", true},
		{"zebra", "v1.0.0", true},
		{"v1.0.0", "zebra", false},
	}
	for _, test := range tests {
		require.Equal(t, test.expected, tagLess(test.a, test.b), "tagLess(%q, %q)", test.a, test.b)
	}
}

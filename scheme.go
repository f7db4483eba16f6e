package scmver

import (
	"fmt"
	"sort"
)

// VersionScheme produces the main version string for a snapshot.
type VersionScheme func(*ScmVersion) (string, error)

// LocalScheme produces the build-metadata suffix appended after the main
// version, leading separator included.
type LocalScheme func(*ScmVersion) (string, error)

// Registered scheme names.
const (
	SchemeGuessNextDev        = "guess-next-dev"
	SchemeSimplifiedSemver    = "python-simplified-semver"
	SchemeReleaseBranchSemver = "release-branch-semver"
	SchemeCalverByDate        = "calver-by-date"
	SchemeNoGuessDev          = "no-guess-dev"
	SchemePostRelease         = "post-release"

	SchemeNodeAndDate      = "node-and-date"
	SchemeNodeAndTimestamp = "node-and-timestamp"
	SchemeDirtyTag         = "dirty-tag"
	SchemeNoLocalVersion   = "no-local-version"
)

var versionSchemes = map[string]VersionScheme{
	SchemeGuessNextDev:        GuessNextDevVersion,
	SchemeSimplifiedSemver:    SimplifiedSemverVersion,
	SchemeReleaseBranchSemver: ReleaseBranchSemverVersion,
	SchemeCalverByDate:        CalverByDate,
	SchemeNoGuessDev:          NoGuessDevVersion,
	SchemePostRelease:         PostreleaseVersion,
}

var localSchemes = map[string]LocalScheme{
	SchemeNodeAndDate:      NodeAndDate,
	SchemeNodeAndTimestamp: NodeAndTimestamp,
	SchemeDirtyTag:         DirtyTag,
	SchemeNoLocalVersion:   NoLocalVersion,
}

// ResolveVersionScheme maps a scheme name to its implementation, failing
// fast on unknown names.
func ResolveVersionScheme(name string) (VersionScheme, error) {
	scheme, ok := versionSchemes[name]
	if !ok {
		return nil, fmt.Errorf("unknown version scheme %q", name)
	}
	return scheme, nil
}

// ResolveLocalScheme maps a local scheme name to its implementation.
func ResolveLocalScheme(name string) (LocalScheme, error) {
	scheme, ok := localSchemes[name]
	if !ok {
		return nil, fmt.Errorf("unknown local scheme %q", name)
	}
	return scheme, nil
}

// VersionSchemeNames lists the registered main schemes, sorted.
func VersionSchemeNames() []string {
	names := make([]string, 0, len(versionSchemes))
	for name := range versionSchemes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// LocalSchemeNames lists the registered local schemes, sorted.
func LocalSchemeNames() []string {
	names := make([]string, 0, len(localSchemes))
	for name := range localSchemes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// unknownLocal is substituted when local scheme resolution fails; a
// missing local scheme never fails the whole build.
const unknownLocal = "+unknown"

// FormatVersion assembles the final version string from a snapshot and
// scheme names. Preformatted snapshots bypass assembly entirely.
func FormatVersion(v *ScmVersion, versionScheme, localScheme string) (string, error) {
	if v.Preformatted {
		return v.Tag, nil
	}
	main, err := ResolveVersionScheme(versionScheme)
	if err != nil {
		return "", err
	}
	local, err := ResolveLocalScheme(localScheme)
	if err != nil {
		v.Config.warnf("%v, falling back to %q", err, unknownLocal)
		return FormatVersionWith(v, main, nil)
	}
	return FormatVersionWith(v, main, local)
}

// FormatVersionWith is FormatVersion for already-resolved schemes. A nil
// local scheme yields the "+unknown" sentinel.
func FormatVersionWith(v *ScmVersion, main VersionScheme, local LocalScheme) (string, error) {
	if v.Preformatted {
		return v.Tag, nil
	}
	if main == nil {
		return "", fmt.Errorf("no version scheme provided")
	}
	mainVersion, err := main(v)
	if err != nil {
		return "", fmt.Errorf("computing main version: %w", err)
	}
	if mainVersion == "" {
		return "", fmt.Errorf("version scheme produced no version for %s", v)
	}
	localVersion := unknownLocal
	if local != nil {
		localVersion, err = local(v)
		if err != nil {
			return "", fmt.Errorf("computing local version: %w", err)
		}
	}
	return mainVersion + localVersion, nil
}

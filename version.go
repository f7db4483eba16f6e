package scmver

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const (
	semverMinor = 2
	semverPatch = 3
	semverLen   = 3
)

// ErrNoBumpTarget reports a tag value from which no next version can be
// derived.
var ErrNoBumpTarget = errors.New("no bump target")

func stripLocal(version string) string {
	version, _, _ = strings.Cut(version, "+")
	return version
}

var devSuffixRegex = regexp.MustCompile(`^(.*\.dev)(\d+)$`)

// bumpDev increments the counter of a trailing dev marker.
func bumpDev(version string) (string, bool) {
	m := devSuffixRegex.FindStringSubmatch(version)
	if m == nil {
		return "", false
	}
	n, err := strconv.Atoi(m[2])
	if err != nil {
		return "", false
	}
	return m[1] + strconv.Itoa(n+1), true
}

var trailingDigitsRegex = regexp.MustCompile(`^(.*?)(\d+)$`)

// bumpRegex increments the last run of digits, leaving the surrounding
// text intact.
func bumpRegex(version string) (string, error) {
	m := trailingDigitsRegex.FindStringSubmatch(version)
	if m == nil {
		return "", fmt.Errorf("%w: %q does not end with a number to bump", ErrNoBumpTarget, version)
	}
	n, err := strconv.Atoi(m[2])
	if err != nil {
		return "", fmt.Errorf("%w: %q: %v", ErrNoBumpTarget, version, err)
	}
	return m[1] + strconv.Itoa(n+1), nil
}

// GuessNextVersion strips any local part from the tag, then bumps either
// the dev marker or the trailing run of digits. The dev marker takes
// priority; exactly one of the two applies.
func GuessNextVersion(v *ScmVersion) (string, error) {
	version := stripLocal(v.Tag)
	if bumped, ok := bumpDev(version); ok {
		return bumped, nil
	}
	return bumpRegex(version)
}

// GuessNextDevVersion is the plain dev-release scheme: the literal tag
// for exact snapshots, otherwise the next guessed version with a dev
// marker for the distance.
func GuessNextDevVersion(v *ScmVersion) (string, error) {
	if v.Exact() {
		return v.FormatWith("{tag}", nil)
	}
	return v.FormatNextVersion(GuessNextVersion, DevTemplate)
}

// guessNextSimpleSemver keeps the first retain dot components of the tag,
// zero-fills missing ones, optionally increments the last kept component
// and pads the result back out to three components.
func guessNextSimpleSemver(v *ScmVersion, retain int, increment bool) (string, error) {
	fields := strings.Split(v.Tag, ".")
	if len(fields) > retain {
		fields = fields[:retain]
	}
	parts := make([]int, 0, semverLen)
	for _, field := range fields {
		n, err := strconv.Atoi(field)
		if err != nil {
			return "", fmt.Errorf("%s can't be parsed as numeric version", v)
		}
		parts = append(parts, n)
	}
	for len(parts) < retain {
		parts = append(parts, 0)
	}
	if increment {
		parts[len(parts)-1]++
	}
	for len(parts) < semverLen {
		parts = append(parts, 0)
	}
	rendered := make([]string, len(parts))
	for i, n := range parts {
		rendered[i] = strconv.Itoa(n)
	}
	return strings.Join(rendered, "."), nil
}

// SimplifiedSemverVersion bumps the patch component for development
// builds, or the minor component when the branch name marks it as a
// feature branch.
func SimplifiedSemverVersion(v *ScmVersion) (string, error) {
	if v.Exact() {
		return guessNextSimpleSemver(v, semverLen, false)
	}
	retain := semverPatch
	if strings.Contains(v.Branch, "feature") {
		retain = semverMinor
	}
	return v.FormatNextVersion(func(v *ScmVersion) (string, error) {
		return guessNextSimpleSemver(v, retain, true)
	}, DevTemplate)
}

// ReleaseBranchSemverVersion assumes maintenance branches are named after
// the release line they maintain. When the branch's last path segment
// parses as a version matching the tag up to the minor component, the
// next version is a patch-level bump; any other branch is treated as a
// development branch and gets a minor-only bump.
func ReleaseBranchSemverVersion(v *ScmVersion) (string, error) {
	if v.Exact() {
		return v.FormatWith("{tag}", nil)
	}
	if v.Branch != "" {
		segments := strings.Split(v.Branch, "/")
		branchTag := ParseVersionTag(segments[len(segments)-1], v.Config)
		if branchTag != nil {
			branchVer := strings.TrimPrefix(branchTag.Version, "v")
			// String comparison on purpose: "02" and "2" name
			// different release lines here.
			if upToMinor(branchVer) == upToMinor(v.Tag) {
				return v.FormatNextVersion(GuessNextVersion, DevTemplate)
			}
		}
	}
	return v.FormatNextVersion(func(v *ScmVersion) (string, error) {
		return guessNextSimpleSemver(v, semverMinor, true)
	}, DevTemplate)
}

func upToMinor(version string) string {
	fields := strings.Split(version, ".")
	if len(fields) > semverMinor {
		fields = fields[:semverMinor]
	}
	return strings.Join(fields, ".")
}

// NoGuessDevVersion forbids next-version guessing: development builds get
// the dev marker appended to the tag unchanged.
func NoGuessDevVersion(v *ScmVersion) (string, error) {
	if v.Exact() {
		return v.FormatWith("{tag}", nil)
	}
	return v.FormatNextVersion(func(v *ScmVersion) (string, error) {
		return stripLocal(v.Tag), nil
	}, DevTemplate)
}

// PostreleaseVersion marks development builds as post-releases of the tag
// instead of dev releases of the next version.
func PostreleaseVersion(v *ScmVersion) (string, error) {
	if v.Exact() {
		return v.FormatWith("{tag}", nil)
	}
	return v.FormatWith("{tag}.post{distance}", nil)
}

// Groups: 1 date, 2 year, 3 patch.
var dateVerRegex = regexp.MustCompile(`^((\d{2}|\d{4})(?:\.\d{1,2}){2})(?:\.(\d*))?$`)

type dateVerMatch struct {
	date  string
	year  string
	patch string
}

func matchDateVer(version string) *dateVerMatch {
	m := dateVerRegex.FindStringSubmatch(version)
	if m == nil {
		return nil
	}
	return &dateVerMatch{date: m[1], year: m[2], patch: m[3]}
}

const (
	dateFmtShort = "%y.%m.%d"
	dateFmtLong  = "%Y.%m.%d"
)

func dateOnly(t time.Time) time.Time {
	year, month, day := t.UTC().Date()
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func parseTagDate(date string) (time.Time, error) {
	fields := strings.Split(date, ".")
	year, _ := strconv.Atoi(fields[0])
	month, _ := strconv.Atoi(fields[1])
	day, _ := strconv.Atoi(fields[2])
	if len(fields[0]) == 2 {
		year += 2000
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if int(t.Month()) != month || t.Day() != day {
		return time.Time{}, fmt.Errorf("%w: %q is not a calendar date", ErrInvalidVersion, date)
	}
	return t, nil
}

// GuessNextDateVer computes the next calendar version for v: a same-day
// re-release bumps the patch counter, any other day restarts it at 0 on
// the head date. The result is re-parsed through the version parser so
// zero-padded fields normalize. An empty dateFmt is deduced from the
// tag's year width.
func GuessNextDateVer(v *ScmVersion, nodeDate time.Time, dateFmt string) (string, error) {
	match := matchDateVer(v.Tag)
	if match == nil {
		v.Config.warnf("%s does not correspond to a valid versioning date, assuming legacy version", v)
		if dateFmt == "" {
			dateFmt = dateFmtShort
		}
	} else if dateFmt == "" {
		dateFmt = dateFmtShort
		if len(match.year) == 4 {
			dateFmt = dateFmtLong
		}
	}

	today := dateOnly(time.Now())
	headDate := today
	if !nodeDate.IsZero() {
		headDate = dateOnly(nodeDate)
	}

	tagDate := today
	if match != nil {
		var err error
		tagDate, err = parseTagDate(match.date)
		if err != nil {
			return "", err
		}
	}

	patch := 0
	switch {
	case tagDate.Equal(headDate):
		if match != nil && match.patch != "" {
			patch, _ = strconv.Atoi(match.patch)
		}
		patch++
	case tagDate.After(headDate) && match != nil:
		v.Config.warnf("your previous tag (%s) is ahead your node date (%s)",
			tagDate.Format("2006-01-02"), headDate.Format("2006-01-02"))
	}

	next := fmt.Sprintf("%s.%d", formatTime(headDate, dateFmt), patch)
	parsed, err := v.Config.parser()(next)
	if err != nil {
		return "", fmt.Errorf("normalizing next date version %q: %w", next, err)
	}
	return parsed.String(), nil
}

// releaseBranchPrefix marks branches that pin a literal calendar version.
const releaseBranchPrefix = "release-"

// CalverByDate emits calendar versions: the literal tag for exact clean
// snapshots, the version pinned by a release-<datever> branch, or the
// next computed date version with a dev marker.
func CalverByDate(v *ScmVersion) (string, error) {
	if v.Exact() && !v.Dirty {
		return v.FormatWith("{tag}", nil)
	}
	if strings.HasPrefix(v.Branch, releaseBranchPrefix) {
		fields := strings.Split(v.Branch, "-")
		branchTag := ParseVersionTag(fields[len(fields)-1], v.Config)
		if branchTag != nil && matchDateVer(branchTag.Version) != nil {
			return branchTag.Version, nil
		}
	}
	return v.FormatNextVersion(func(v *ScmVersion) (string, error) {
		return GuessNextDateVer(v, v.NodeDate, "")
	}, DevTemplate)
}

// formatLocalWithTime renders the node id and a timestamp into the local
// part. The commit's date is preferred over the captured time when known.
func formatLocalWithTime(v *ScmVersion, timeFormat string) (string, error) {
	stamp := v.Time
	if !v.NodeDate.IsZero() {
		stamp = v.NodeDate
	}
	extra := map[string]string{"time": formatTime(stamp, timeFormat)}
	if v.Exact() || v.Node == "" {
		return v.FormatChoice("", "+d{time}", extra)
	}
	return v.FormatChoice("+{node}", "+{node}.d{time}", extra)
}

// NodeAndDate is the default local scheme: the commit id, plus the date
// when the tree is dirty.
func NodeAndDate(v *ScmVersion) (string, error) {
	return formatLocalWithTime(v, "%Y%m%d")
}

// NodeAndTimestamp is NodeAndDate with second granularity.
func NodeAndTimestamp(v *ScmVersion) (string, error) {
	return formatLocalWithTime(v, "%Y%m%d%H%M%S")
}

// DirtyTag flags uncommitted changes and nothing else; distance is
// ignored entirely.
func DirtyTag(v *ScmVersion) (string, error) {
	return v.FormatChoice("", "+dirty", nil)
}

// NoLocalVersion always yields an empty local part.
func NoLocalVersion(*ScmVersion) (string, error) {
	return "", nil
}

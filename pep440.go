package scmver

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// ErrInvalidVersion reports a string that does not parse under the
// version grammar.
var ErrInvalidVersion = errors.New("invalid version value")

// VersionParser constructs an ordered version value from a string. It
// must fail on invalid input and must preserve leading zeros everywhere
// except in release components.
type VersionParser func(s string) (*Version, error)

// Version is a PEP 440 style version value: an optional epoch, dotted
// numeric release segments, optional pre/post/dev markers and an optional
// local part.
type Version struct {
	Epoch   int
	Release []int
	Pre     *PreRelease
	Post    *int
	Dev     *int
	Local   string
}

// PreRelease is the pre-release segment: a phase label and its counter.
type PreRelease struct {
	L string
	N int
}

// Groups: 1 epoch, 2 release, 3 pre label, 4 pre number, 5 post label,
// 6 post number, 7 dev label, 8 dev number, 9 local.
var versionRegex = regexp.MustCompile(`(?i)^v?(?:(\d+)!)?(\d+(?:\.\d+)*)` +
	`(?:[-_.]?(alpha|beta|preview|pre|a|b|c|rc)[-_.]?(\d*))?` +
	`(?:[-_.]?(post|rev|r)[-_.]?(\d*))?` +
	`(?:[-_.]?(dev)[-_.]?(\d*))?` +
	`(?:\+([a-z0-9]+(?:[-_.][a-z0-9]+)*))?$`)

// ParseVersion parses and normalizes s: the optional leading "v" is
// dropped, leading zeros of release components are removed, and
// pre-release spellings and separators are canonicalized.
func ParseVersion(s string) (*Version, error) {
	m := versionRegex.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidVersion, s)
	}

	v := &Version{}
	if m[1] != "" {
		epoch, err := strconv.Atoi(m[1])
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrInvalidVersion, s)
		}
		v.Epoch = epoch
	}
	for _, part := range strings.Split(m[2], ".") {
		n, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrInvalidVersion, s)
		}
		v.Release = append(v.Release, n)
	}
	if m[3] != "" {
		v.Pre = &PreRelease{L: normalizePreLabel(m[3]), N: atoiDefault(m[4], 0)}
	}
	if m[5] != "" {
		n := atoiDefault(m[6], 0)
		v.Post = &n
	}
	if m[7] != "" {
		n := atoiDefault(m[8], 0)
		v.Dev = &n
	}
	if m[9] != "" {
		local := strings.ToLower(m[9])
		local = strings.ReplaceAll(local, "-", ".")
		v.Local = strings.ReplaceAll(local, "_", ".")
	}
	return v, nil
}

func normalizePreLabel(label string) string {
	switch strings.ToLower(label) {
	case "a", "alpha":
		return "a"
	case "b", "beta":
		return "b"
	default:
		return "rc"
	}
}

func atoiDefault(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

// String renders the canonical form.
func (v *Version) String() string {
	var b strings.Builder
	if v.Epoch > 0 {
		fmt.Fprintf(&b, "%d!", v.Epoch)
	}
	for i, seg := range v.Release {
		if i > 0 {
			b.WriteByte('.')
		}
		b.WriteString(strconv.Itoa(seg))
	}
	if v.Pre != nil {
		fmt.Fprintf(&b, "%s%d", v.Pre.L, v.Pre.N)
	}
	if v.Post != nil {
		fmt.Fprintf(&b, ".post%d", *v.Post)
	}
	if v.Dev != nil {
		fmt.Fprintf(&b, ".dev%d", *v.Dev)
	}
	if v.Local != "" {
		b.WriteByte('+')
		b.WriteString(v.Local)
	}
	return b.String()
}

func (v *Version) releaseSegment(i int) int {
	if i < len(v.Release) {
		return v.Release[i]
	}
	return 0
}

// Cmp orders two versions: negative when v sorts before other, positive
// when after, zero when equal. Local parts do not participate in the
// ordering.
func (v *Version) Cmp(other *Version) int {
	if d := v.Epoch - other.Epoch; d != 0 {
		return d
	}
	for i := 0; i < len(v.Release) || i < len(other.Release); i++ {
		if d := v.releaseSegment(i) - other.releaseSegment(i); d != 0 {
			return d
		}
	}
	if d := cmpPreRelease(v, other); d != 0 {
		return d
	}
	if d := cmpPostRelease(v, other); d != 0 {
		return d
	}
	return cmpDevRelease(v, other)
}

var preReleaseOrder = map[string]int{"a": -3, "b": -2, "rc": -1}

func preReleaseRank(v *Version) (int, int) {
	if v.Pre != nil {
		return preReleaseOrder[v.Pre.L], v.Pre.N
	}
	// a bare .devN sorts before any pre-release of the same release
	if v.Dev != nil && v.Post == nil {
		return -4, 0
	}
	return 0, 0
}

func cmpPreRelease(a, b *Version) int {
	aL, aN := preReleaseRank(a)
	bL, bN := preReleaseRank(b)
	if aL != bL {
		return aL - bL
	}
	return aN - bN
}

func cmpPostRelease(a, b *Version) int {
	aPost, bPost := -1, -1
	if a.Post != nil {
		aPost = *a.Post
	}
	if b.Post != nil {
		bPost = *b.Post
	}
	return aPost - bPost
}

func cmpDevRelease(a, b *Version) int {
	switch {
	case a.Dev == nil && b.Dev == nil:
		return 0
	case a.Dev == nil:
		return 1
	case b.Dev == nil:
		return -1
	default:
		return *a.Dev - *b.Dev
	}
}

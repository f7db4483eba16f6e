// Package scmver derives normalized release-version strings from
// source-control metadata: the nearest tag, the number of commits since
// it, a dirty-worktree flag, the branch name, a commit identifier and the
// commit date. Pluggable version schemes decide how a development build
// relates to the last release; local schemes decide which build metadata
// is appended after it.
package scmver

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// SourceDateEpochEnv overrides the snapshot construction time with a Unix
// timestamp, enabling byte-for-byte reproducible version strings across
// repeated builds of the same commit.
const SourceDateEpochEnv = "SOURCE_DATE_EPOCH"

// DefaultTagRegex matches optionally prefixed tags such as "v1.2.3",
// "release-0.4" or "proj-1.2+meta", capturing the version part.
var DefaultTagRegex = regexp.MustCompile(`^(?:[\w-]+-)?(?P<version>[vV]?\d+(?:\.\d+){0,2}[^+]*)(?:\+.*)?$`)

// Config carries the resolved settings snapshots are computed against.
// It is read-only from the engine's perspective.
type Config struct {
	// TagRegex extracts the version from a raw tag. It must define
	// either exactly one capture group or a group named "version" and is
	// applied anchored at the start of the tag.
	TagRegex *regexp.Regexp

	// ParseVersion constructs an ordered version value from a string.
	ParseVersion VersionParser

	// VersionScheme and LocalScheme name the registered schemes used
	// when the caller does not pass schemes explicitly.
	VersionScheme string
	LocalScheme   string

	// Warn receives non-fatal diagnostics. A nil sink drops them.
	Warn func(msg string)
}

// NewConfig returns a Config with the default tag pattern, version parser
// and scheme names.
func NewConfig() *Config {
	return &Config{
		TagRegex:      DefaultTagRegex,
		ParseVersion:  ParseVersion,
		VersionScheme: SchemeGuessNextDev,
		LocalScheme:   SchemeNodeAndDate,
	}
}

func (c *Config) warnf(format string, args ...interface{}) {
	if c != nil && c.Warn != nil {
		c.Warn(fmt.Sprintf(format, args...))
	}
}

func (c *Config) tagRegex() *regexp.Regexp {
	if c != nil && c.TagRegex != nil {
		return c.TagRegex
	}
	return DefaultTagRegex
}

func (c *Config) parser() VersionParser {
	if c != nil && c.ParseVersion != nil {
		return c.ParseVersion
	}
	return ParseVersion
}

// ScmVersion is a snapshot of one build's position relative to
// version-control history. It is immutable after construction; build it
// with Meta.
type ScmVersion struct {
	// Tag is the normalized version value extracted from the tag, or the
	// raw string when Preformatted is set.
	Tag string

	Config *Config

	// Distance is the number of commits since the tag, valid only when
	// HasDistance is set. An absent distance means the working state is
	// exactly at the tag.
	Distance    int
	HasDistance bool

	Dirty        bool
	Preformatted bool
	Branch       string
	Node         string

	// NodeDate is the calendar date of the described commit, zero when
	// unknown.
	NodeDate time.Time

	// Time is the wall-clock moment of version computation, captured
	// exactly once at construction.
	Time time.Time
}

// MetaOptions carries the raw SCM facts a snapshot is built from.
type MetaOptions struct {
	Distance     *int
	Dirty        bool
	Node         string
	Branch       string
	NodeDate     time.Time
	Preformatted bool
}

// Meta builds a snapshot from a raw tag and SCM facts. The tag is parsed
// and normalized through the configured pattern and version parser unless
// Preformatted is set. A dirty tree with no recorded distance is
// normalized to distance 0, so it is never treated as exact.
func Meta(tag string, opts MetaOptions, config *Config) (*ScmVersion, error) {
	value := tag
	if !opts.Preformatted {
		parsed, err := TagToVersion(tag, config)
		if err != nil {
			return nil, err
		}
		if parsed == "" {
			return nil, fmt.Errorf("can't parse version from tag %q", tag)
		}
		value = parsed
	}

	v := &ScmVersion{
		Tag:          value,
		Config:       config,
		Dirty:        opts.Dirty,
		Preformatted: opts.Preformatted,
		Branch:       opts.Branch,
		Node:         opts.Node,
		NodeDate:     opts.NodeDate,
		Time:         sourceEpochOrNow(),
	}
	if opts.Distance != nil {
		v.Distance = *opts.Distance
		v.HasDistance = true
	} else if opts.Dirty {
		v.HasDistance = true
	}
	return v, nil
}

func sourceEpochOrNow() time.Time {
	if epoch, ok := os.LookupEnv(SourceDateEpochEnv); ok {
		if secs, err := strconv.ParseInt(epoch, 10, 64); err == nil {
			return time.Unix(secs, 0).UTC()
		}
	}
	return time.Now().UTC()
}

// Exact reports whether the working state is precisely at the tag.
func (v *ScmVersion) Exact() bool {
	return !v.HasDistance
}

func (v *ScmVersion) String() string {
	distance := "none"
	if v.HasDistance {
		distance = strconv.Itoa(v.Distance)
	}
	return fmt.Sprintf("<ScmVersion %s dist=%s node=%s dirty=%t branch=%s>",
		v.Tag, distance, v.Node, v.Dirty, v.Branch)
}

// FormatWith substitutes the snapshot's fields into a template using the
// placeholders {tag}, {distance}, {node}, {dirty}, {branch}, {node_date}
// and {time}, plus any caller-supplied extras. Unknown placeholders are
// rejected rather than passed through.
func (v *ScmVersion) FormatWith(tmpl string, extra map[string]string) (string, error) {
	values := map[string]string{
		"tag":       v.Tag,
		"distance":  strconv.Itoa(v.Distance),
		"node":      v.Node,
		"dirty":     strconv.FormatBool(v.Dirty),
		"branch":    v.Branch,
		"node_date": v.NodeDate.Format("2006-01-02"),
		"time":      v.Time.Format(time.RFC3339),
	}
	for k, value := range extra {
		values[k] = value
	}
	return substitute(tmpl, values)
}

// FormatChoice formats with cleanTmpl or dirtyTmpl depending solely on
// the dirty flag.
func (v *ScmVersion) FormatChoice(cleanTmpl, dirtyTmpl string, extra map[string]string) (string, error) {
	if v.Dirty {
		return v.FormatWith(dirtyTmpl, extra)
	}
	return v.FormatWith(cleanTmpl, extra)
}

// DevTemplate is the canonical development-distance marker shape.
const DevTemplate = "{guessed}.dev{distance}"

// FormatNextVersion runs guess and exposes its result to tmpl as the
// {guessed} placeholder.
func (v *ScmVersion) FormatNextVersion(guess func(*ScmVersion) (string, error), tmpl string) (string, error) {
	guessed, err := guess(v)
	if err != nil {
		return "", err
	}
	return v.FormatWith(tmpl, map[string]string{"guessed": guessed})
}

func substitute(tmpl string, values map[string]string) (string, error) {
	var b strings.Builder
	for i := 0; i < len(tmpl); i++ {
		if tmpl[i] != '{' {
			b.WriteByte(tmpl[i])
			continue
		}
		end := strings.IndexByte(tmpl[i:], '}')
		if end < 0 {
			return "", fmt.Errorf("unterminated placeholder in template %q", tmpl)
		}
		name := tmpl[i+1 : i+end]
		value, ok := values[name]
		if !ok {
			return "", fmt.Errorf("unknown placeholder {%s} in template %q", name, tmpl)
		}
		b.WriteString(value)
		i += end
	}
	return b.String(), nil
}

// formatTime renders t with a strftime-style pattern limited to the
// directives the schemes use: %Y %y %m %d %H %M %S.
func formatTime(t time.Time, pattern string) string {
	var b strings.Builder
	for i := 0; i < len(pattern); i++ {
		if pattern[i] != '%' || i+1 >= len(pattern) {
			b.WriteByte(pattern[i])
			continue
		}
		i++
		switch pattern[i] {
		case 'Y':
			fmt.Fprintf(&b, "%04d", t.Year())
		case 'y':
			fmt.Fprintf(&b, "%02d", t.Year()%100)
		case 'm':
			fmt.Fprintf(&b, "%02d", int(t.Month()))
		case 'd':
			fmt.Fprintf(&b, "%02d", t.Day())
		case 'H':
			fmt.Fprintf(&b, "%02d", t.Hour())
		case 'M':
			fmt.Fprintf(&b, "%02d", t.Minute())
		case 'S':
			fmt.Fprintf(&b, "%02d", t.Second())
		case '%':
			b.WriteByte('%')
		default:
			b.WriteByte('%')
			b.WriteByte(pattern[i])
		}
	}
	return b.String()
}

package scmver

import (
	"fmt"
	"regexp"
)

// ParsedTag is the ephemeral result of matching a raw tag against the
// configured pattern: the version text, the matched text before it and
// the matched text after it.
type ParsedTag struct {
	Version string
	Prefix  string
	Suffix  string
}

// ValidateTagRegex checks that re uses one of the two accepted forms:
// exactly one capture group, or a group named "version". Call it at
// configuration load so bad patterns fail before any tag is parsed.
func ValidateTagRegex(re *regexp.Regexp) error {
	if re.NumSubexp() == 1 || re.SubexpIndex("version") >= 0 {
		return nil
	}
	return fmt.Errorf("tag regex %q must define exactly one capture group or a group named %q",
		re.String(), "version")
}

func tagRegexGroup(re *regexp.Regexp) int {
	if re.NumSubexp() == 1 {
		return 1
	}
	return re.SubexpIndex("version")
}

// ParseVersionTag matches tag against the configured pattern, anchored at
// the start of the string, and splits the whole match into prefix,
// version and suffix. It returns nil when the pattern does not match.
func ParseVersionTag(tag string, config *Config) *ParsedTag {
	re := config.tagRegex()
	m := re.FindStringSubmatchIndex(tag)
	if m == nil || m[0] != 0 {
		return nil
	}
	g := tagRegexGroup(re)
	if g < 0 || m[2*g] < 0 {
		return nil
	}
	return &ParsedTag{
		Version: tag[m[2*g]:m[2*g+1]],
		Prefix:  tag[m[0]:m[2*g]],
		Suffix:  tag[m[2*g+1]:m[1]],
	}
}

// TagToVersion extracts the version part from a possibly decorated tag
// and normalizes it through the configured version parser. A tag carrying
// no version at all yields "" after a warning; the caller decides how to
// degrade. A version that fails to parse is an error.
func TagToVersion(tag string, config *Config) (string, error) {
	parsed := ParseVersionTag(tag, config)
	if parsed == nil || parsed.Version == "" {
		config.warnf("tag %q no version found", tag)
		return "", nil
	}
	if parsed.Suffix != "" {
		config.warnf("tag %q will be stripped of its suffix %q", tag, parsed.Suffix)
	}
	version, err := config.parser()(parsed.Version)
	if err != nil {
		return "", fmt.Errorf("parsing version from tag %q: %w", tag, err)
	}
	return version.String(), nil
}

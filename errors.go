package llvminstaller

import (
	"fmt"
	"strings"
)

// Criteria describes one release lookup. It appears verbatim in error
// messages and warning logs so that failed lookups can be reproduced.
type Criteria struct {
	MajorVersion          int
	ShortOSNameAndVersion string
	Architecture          string
}

func (c Criteria) String() string {
	return fmt.Sprintf("major LLVM version %d, OS/version %s, architecture %s",
		c.MajorVersion, c.ShortOSNameAndVersion, c.Architecture)
}

// TagParseError reports a release tag that does not conform to the tag
// grammar.
type TagParseError struct {
	Tag    string
	Reason string
}

func (e *TagParseError) Error() string {
	return fmt.Sprintf("cannot parse release tag %q: %s", e.Tag, e.Reason)
}

// NoMatchingTagError reports that no release in the catalog satisfies the
// criteria.
type NoMatchingTagError struct {
	Criteria Criteria
}

func (e *NoMatchingTagError) Error() string {
	return fmt.Sprintf("could not find an LLVM release for %s", e.Criteria)
}

// AmbiguousTagError reports that several candidate releases share the
// highest version key, leaving no deterministic winner. Candidates holds
// every release that survived filtering.
type AmbiguousTagError struct {
	Criteria   Criteria
	VersionKey VersionKey
	Candidates []*ParsedTag
}

func (e *AmbiguousTagError) Error() string {
	lines := make([]string, len(e.Candidates))
	for i, pt := range e.Candidates {
		lines[i] = pt.String()
	}
	return fmt.Sprintf(
		"multiple releases found for %s with the same highest version key %s:\n%s",
		e.Criteria, e.VersionKey, strings.Join(lines, "\n"))
}

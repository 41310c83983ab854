package llvminstaller

import (
	"cmp"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/yugabyte/llvm-installer/internal/sysdetect"
)

// Release tags name one build of the LLVM toolchain:
//
//	v<version>[-<suffix>]-<timestamp>-<sha1prefix>[-<os><osversion>-<arch>]
//
// for example v14.0.3-1651732108-1f914006-ubuntu22.04-x86_64. Tags minted
// before the OS and architecture components were introduced omit them; those
// builds were all CentOS 7 on x86_64.

const (
	// DefaultShortOSNameAndVersionForOldBuilds is assumed for tags that
	// predate OS and architecture components.
	DefaultShortOSNameAndVersionForOldBuilds = "centos7"

	// DefaultArchitectureForOldBuilds is assumed for tags that predate OS
	// and architecture components.
	DefaultArchitectureForOldBuilds = "x86_64"
)

// ArchitectureRegexpStr matches the architecture names that release tags may
// carry. The names are compared literally: aarch64 and arm64 are distinct
// spellings used by Linux and macOS builds respectively.
const ArchitectureRegexpStr = "x86_64|aarch64|arm64"

const tagRegexpPrefixStr = `^v(?P<version>[0-9.]+)` +
	`(-(?P<version_suffix>[a-z0-9-]+))?` +
	`-(?P<timestamp>\d+)` +
	`-(?P<sha1_prefix>[0-9a-f]+)`

var (
	tagRegexp = regexp.MustCompile(tagRegexpPrefixStr +
		`-(?P<short_os_name_and_version>(?:` + sysdetect.ShortOSNameRegexpStr + `)[0-9.]*)` +
		`-(?P<architecture>` + ArchitectureRegexpStr + `)$`)

	oldTagRegexp = regexp.MustCompile(tagRegexpPrefixStr + `$`)
)

// ybSuffixPrefix introduces the build counter in version suffixes like
// "yb-1". Other suffixes do not participate in version ordering.
const ybSuffixPrefix = "yb-"

// ParsedTag is the structured form of one release tag. The numeric fields
// derived from the version string are precomputed so that catalog entries
// can be ordered and serialized without re-parsing.
type ParsedTag struct {
	Tag string `json:"tag"`

	Version               string `json:"version"`
	VersionSuffix         string `json:"version_suffix,omitempty"`
	Timestamp             int64  `json:"timestamp"`
	SHA1Prefix            string `json:"sha1_prefix"`
	ShortOSNameAndVersion string `json:"short_os_name_and_version"`
	Architecture          string `json:"architecture"`

	MajorVersion    int `json:"major_version"`
	MinorVersion    int `json:"minor_version"`
	PatchVersion    int `json:"patch_version"`
	YBSuffixVersion int `json:"yb_suffix_version,omitempty"`

	IsOldTagWithoutOSAndArch bool `json:"is_old_tag_without_os_and_arch"`
}

// ParseTag parses a release tag in either the current format (with OS and
// architecture components) or the legacy format (without them).
func ParseTag(tag string) (*ParsedTag, error) {
	re := tagRegexp
	m := re.FindStringSubmatch(tag)
	isOldTag := false
	if m == nil {
		re = oldTagRegexp
		m = re.FindStringSubmatch(tag)
		if m == nil {
			return nil, &TagParseError{
				Tag:    tag,
				Reason: fmt.Sprintf("does not match regular expression %s", tagRegexp),
			}
		}
		isOldTag = true
	}

	pt := &ParsedTag{
		Tag:                   tag,
		Version:               groupValue(re, m, "version"),
		VersionSuffix:         groupValue(re, m, "version_suffix"),
		SHA1Prefix:            groupValue(re, m, "sha1_prefix"),
		ShortOSNameAndVersion: groupValue(re, m, "short_os_name_and_version"),
		Architecture:          groupValue(re, m, "architecture"),
	}

	timestamp, err := strconv.ParseInt(groupValue(re, m, "timestamp"), 10, 64)
	if err != nil {
		return nil, &TagParseError{Tag: tag, Reason: fmt.Sprintf("timestamp out of range: %v", err)}
	}
	pt.Timestamp = timestamp

	if err := pt.deriveVersionFields(isOldTag); err != nil {
		return nil, err
	}
	return pt, nil
}

func groupValue(re *regexp.Regexp, m []string, name string) string {
	i := re.SubexpIndex(name)
	if i < 0 {
		return ""
	}
	return m[i]
}

// deriveVersionFields fills the numeric fields from the textual ones and
// applies the legacy OS and architecture defaults. Only the first three
// version components participate in ordering; extra components are ignored.
func (pt *ParsedTag) deriveVersionFields(isOldTag bool) error {
	components := strings.Split(pt.Version, ".")
	if len(components) < 3 {
		return &TagParseError{
			Tag: pt.Tag,
			Reason: fmt.Sprintf("version %q must have at least three dot-separated components",
				pt.Version),
		}
	}
	var parts [3]int
	for i := range parts {
		n, err := strconv.Atoi(components[i])
		if err != nil {
			return &TagParseError{
				Tag:    pt.Tag,
				Reason: fmt.Sprintf("version component %q is not a number", components[i]),
			}
		}
		parts[i] = n
	}
	pt.MajorVersion, pt.MinorVersion, pt.PatchVersion = parts[0], parts[1], parts[2]

	pt.YBSuffixVersion = 0
	if counter, ok := strings.CutPrefix(pt.VersionSuffix, ybSuffixPrefix); ok {
		n, err := strconv.Atoi(counter)
		if err != nil || n < 0 {
			return &TagParseError{
				Tag:    pt.Tag,
				Reason: fmt.Sprintf("version suffix %q has a malformed build counter", pt.VersionSuffix),
			}
		}
		pt.YBSuffixVersion = n
	}

	pt.IsOldTagWithoutOSAndArch = isOldTag
	if isOldTag {
		pt.ShortOSNameAndVersion = DefaultShortOSNameAndVersionForOldBuilds
		pt.Architecture = DefaultArchitectureForOldBuilds
	}
	return nil
}

// String renders every parsed field for diagnostics.
func (pt *ParsedTag) String() string {
	return fmt.Sprintf(
		"ParsedTag{tag: %s, version: %s, suffix: %q, timestamp: %d, sha1: %s, os: %s, arch: %s, legacy: %t}",
		pt.Tag, pt.Version, pt.VersionSuffix, pt.Timestamp, pt.SHA1Prefix,
		pt.ShortOSNameAndVersion, pt.Architecture, pt.IsOldTagWithoutOSAndArch)
}

// VersionKey orders releases by semantic version, then by the yb build
// counter, then by the build timestamp.
type VersionKey struct {
	Major        int
	Minor        int
	Patch        int
	BuildCounter int
	Timestamp    int64
}

// VersionKey returns the ordering key of this release.
func (pt *ParsedTag) VersionKey() VersionKey {
	return VersionKey{
		Major:        pt.MajorVersion,
		Minor:        pt.MinorVersion,
		Patch:        pt.PatchVersion,
		BuildCounter: pt.YBSuffixVersion,
		Timestamp:    pt.Timestamp,
	}
}

// Compare returns -1 if k orders before other, 1 if after, and 0 when equal.
func (k VersionKey) Compare(other VersionKey) int {
	if c := cmp.Compare(k.Major, other.Major); c != 0 {
		return c
	}
	if c := cmp.Compare(k.Minor, other.Minor); c != 0 {
		return c
	}
	if c := cmp.Compare(k.Patch, other.Patch); c != 0 {
		return c
	}
	if c := cmp.Compare(k.BuildCounter, other.BuildCounter); c != 0 {
		return c
	}
	return cmp.Compare(k.Timestamp, other.Timestamp)
}

func (k VersionKey) String() string {
	return fmt.Sprintf("(%d, %d, %d, %d, %d)",
		k.Major, k.Minor, k.Patch, k.BuildCounter, k.Timestamp)
}

// Package sysdetect identifies the local OS distribution and CPU
// architecture, spelled with the short names that release tags use.
package sysdetect

import (
	"fmt"
	"os"
	"regexp"
	"runtime"
	"strings"
)

// ShortOSNames lists the recognized OS distributions. Linux names follow the
// ID field of os-release; Darwin is reported as "macos".
var ShortOSNames = []string{
	"almalinux",
	"alpine",
	"amzn",
	"arch",
	"centos",
	"debian",
	"fedora",
	"linuxmint",
	"macos",
	"ol",
	"opensuse",
	"pop",
	"rhel",
	"rocky",
	"sles",
	"ubuntu",
}

// ShortOSNameRegexpStr matches any recognized short OS name. It is embedded
// in larger expressions, so it carries no anchors or groups of its own.
var ShortOSNameRegexpStr = strings.Join(ShortOSNames, "|")

var osNameAndVersionRegexp = regexp.MustCompile(
	`^(` + ShortOSNameRegexpStr + `)([0-9.]*)$`)

// rhelCompatible distributions ship interchangeable binaries at the same
// major version.
var rhelCompatible = map[string]bool{
	"almalinux": true,
	"centos":    true,
	"ol":        true,
	"rhel":      true,
	"rocky":     true,
}

// ParseShortOSNameAndVersion splits a combined OS name and version such as
// "ubuntu22.04" into ("ubuntu", "22.04").
func ParseShortOSNameAndVersion(osNameAndVersion string) (name, version string, err error) {
	m := osNameAndVersionRegexp.FindStringSubmatch(osNameAndVersion)
	if m == nil {
		return "", "", fmt.Errorf("unrecognized OS name and version %q", osNameAndVersion)
	}
	return m[1], m[2], nil
}

// IsCompatibleOS reports whether a package built for OS a runs on OS b.
// Red Hat family distributions are compatible with each other at the same
// version; everything else requires an exact match.
func IsCompatibleOS(a, b string) bool {
	if a == b {
		return true
	}
	nameA, versionA, errA := ParseShortOSNameAndVersion(a)
	nameB, versionB, errB := ParseShortOSNameAndVersion(b)
	if errA != nil || errB != nil {
		return false
	}
	if versionA != versionB {
		return false
	}
	return nameA == nameB || (rhelCompatible[nameA] && rhelCompatible[nameB])
}

const osReleasePath = "/etc/os-release"

// ShortOSNameAndVersion returns the short OS name and version of the local
// system, e.g. "almalinux8" or "ubuntu22.04".
func ShortOSNameAndVersion() (string, error) {
	switch runtime.GOOS {
	case "darwin":
		return "macos", nil
	case "linux":
		return shortOSNameAndVersionFromFile(osReleasePath)
	default:
		return "", fmt.Errorf("unsupported operating system %q", runtime.GOOS)
	}
}

func shortOSNameAndVersionFromFile(path string) (string, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- fixed os-release path, tests point it at a fixture
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	fields := parseOSRelease(string(data))
	id := normalizeOSID(fields["ID"])
	if id == "" {
		return "", fmt.Errorf("no ID field in %s", path)
	}

	version := fields["VERSION_ID"]
	if rhelCompatible[id] {
		// Minor releases within the family are interchangeable.
		version, _, _ = strings.Cut(version, ".")
	}
	return id + version, nil
}

// parseOSRelease reads KEY=value lines, stripping quotes and comments.
func parseOSRelease(content string) map[string]string {
	fields := make(map[string]string)
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		fields[key] = strings.Trim(value, `"'`)
	}
	return fields
}

// normalizeOSID maps os-release ID variants such as "opensuse-leap" to their
// short name.
func normalizeOSID(id string) string {
	base, _, ok := strings.Cut(id, "-")
	if !ok {
		return id
	}
	for _, name := range ShortOSNames {
		if base == name {
			return base
		}
	}
	return id
}

// Architecture returns the local CPU architecture using the names that
// release tags use: x86_64 everywhere, aarch64 on Linux and arm64 on macOS.
func Architecture() string {
	switch runtime.GOARCH {
	case "amd64":
		return "x86_64"
	case "arm64":
		if runtime.GOOS == "darwin" {
			return "arm64"
		}
		return "aarch64"
	default:
		return runtime.GOARCH
	}
}

// Package hostenv inspects the host filesystem for conditions that would
// cripple an unpacked toolchain. Compilers, linkers and sanitizer runtimes
// run straight out of the install directory, so a destination on a mount
// flagged noexec yields binaries that exist but cannot be executed.
package hostenv

import (
	"path/filepath"
	"strings"
)

// mount is one mounted filesystem, reduced to what the noexec check needs.
type mount struct {
	point  string
	noExec bool
}

// parseMountInfo reads /proc/self/mountinfo content. Per-mount options live
// in the sixth field; some flags only appear in the super options after the
// "-" separator, so both are considered.
func parseMountInfo(content string) []mount {
	var mounts []mount
	for _, line := range strings.Split(content, "\n") {
		fields := strings.Fields(line)
		if len(fields) < 6 {
			continue
		}
		sep := -1
		for i, f := range fields {
			if f == "-" {
				sep = i
				break
			}
		}
		if sep < 0 {
			continue
		}
		m := mount{
			point:  unescapePath(fields[4]),
			noExec: hasOption(fields[5], "noexec"),
		}
		if sep+3 < len(fields) {
			m.noExec = m.noExec || hasOption(fields[sep+3], "noexec")
		}
		mounts = append(mounts, m)
	}
	return mounts
}

// parseProcMounts reads /proc/mounts (fstab format) as a fallback for hosts
// without a usable mountinfo.
func parseProcMounts(content string) []mount {
	var mounts []mount
	for _, line := range strings.Split(content, "\n") {
		fields := strings.Fields(line)
		if len(fields) < 4 {
			continue
		}
		mounts = append(mounts, mount{
			point:  unescapePath(fields[1]),
			noExec: hasOption(fields[3], "noexec"),
		})
	}
	return mounts
}

func hasOption(options, want string) bool {
	for _, opt := range strings.Split(options, ",") {
		if opt == want {
			return true
		}
	}
	return false
}

// unescapePath undoes the octal escapes procfs applies to whitespace and
// backslashes in mount points.
func unescapePath(value string) string {
	if !strings.Contains(value, `\`) {
		return value
	}
	return strings.NewReplacer(
		`\040`, " ",
		`\011`, "\t",
		`\012`, "\n",
		`\134`, `\`,
	).Replace(value)
}

// noExecForPath reports whether the deepest mount containing path carries
// the noexec flag. Nested mounts may re-enable exec, so only the longest
// matching mount point decides.
func noExecForPath(path string, mounts []mount) bool {
	dest := filepath.ToSlash(filepath.Clean(path))
	if dest == "" || dest == "." {
		return false
	}

	bestLen := -1
	noExec := false
	for _, m := range mounts {
		point := filepath.ToSlash(filepath.Clean(m.point))
		if point == "" || point == "." || !underMount(dest, point) {
			continue
		}
		if len(point) > bestLen {
			bestLen = len(point)
			noExec = m.noExec
		}
	}
	return noExec
}

func underMount(path, point string) bool {
	if point == "/" {
		return strings.HasPrefix(path, "/")
	}
	return path == point || strings.HasPrefix(path, point+"/")
}

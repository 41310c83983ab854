//go:build linux

package hostenv

import "os"

// IsNoExec reports whether path sits on a filesystem mounted noexec. The
// check is best effort: unreadable or unparseable mount tables count as
// executable rather than blocking an install.
func IsNoExec(path string) bool {
	if path == "" {
		return false
	}

	// mountinfo is preferred: it covers overlay and bind setups.
	if data, err := os.ReadFile("/proc/self/mountinfo"); err == nil { // #nosec G304 -- fixed procfs path
		if mounts := parseMountInfo(string(data)); len(mounts) > 0 {
			return noExecForPath(path, mounts)
		}
	}

	data, err := os.ReadFile("/proc/mounts") // #nosec G304 -- fixed procfs path
	if err != nil {
		return false
	}
	return noExecForPath(path, parseProcMounts(string(data)))
}

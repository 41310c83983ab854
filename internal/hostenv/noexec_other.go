//go:build !linux

package hostenv

// IsNoExec reports whether path sits on a filesystem mounted noexec. Only
// Linux exposes mount flags through procfs; elsewhere the answer is always
// false.
func IsNoExec(path string) bool {
	return false
}

package install

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Decision says what Run will do with an install request.
type Decision string

const (
	// DecisionInstall unpacks the package into a fresh directory.
	DecisionInstall Decision = "install"
	// DecisionSkip leaves a completed install in place.
	DecisionSkip Decision = "skip"
	// DecisionReinstall replaces an existing directory.
	DecisionReinstall Decision = "reinstall"
)

// MarkerFileName is the completion marker written into an install directory
// after a successful install. It records the installed release tag, so its
// presence distinguishes a finished install from a crashed one.
const MarkerFileName = ".yb-llvm-install-complete"

// decide inspects the target directory and picks what to do with it.
func decide(installDir string, reinstall bool) (Decision, error) {
	markerPath := filepath.Join(installDir, MarkerFileName)
	if _, err := os.Stat(markerPath); err == nil {
		if reinstall {
			return DecisionReinstall, nil
		}
		return DecisionSkip, nil
	}

	if _, err := os.Stat(installDir); err != nil {
		if os.IsNotExist(err) {
			return DecisionInstall, nil
		}
		return "", fmt.Errorf("stat %s: %w", installDir, err)
	}

	// Directory exists without a marker: a crashed or foreign install.
	if reinstall {
		return DecisionReinstall, nil
	}
	return "", fmt.Errorf("%s exists but has no completion marker; "+
		"pass --reinstall to replace it", installDir)
}

// markerMatches reports whether installDir carries a completion marker for
// tag.
func markerMatches(installDir, tag string) bool {
	data, err := os.ReadFile(filepath.Join(installDir, MarkerFileName)) // #nosec G304 -- marker path is derived from the install dir
	return err == nil && strings.TrimSpace(string(data)) == tag
}

// Package verify checks release artifacts against their SHA-256 companions
// and, optionally, minisign signatures over the checksum files.
package verify

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

const sha256HexLength = sha256.Size * 2

// DigestFromChecksumFile extracts the SHA-256 digest for assetName from a
// checksum companion file. The file either holds a bare digest or sha256sum
// style "digest filename" lines; comments and blank lines are skipped.
func DigestFromChecksumFile(data []byte, assetName string) (string, error) {
	text := strings.TrimSpace(string(data))
	if text == "" {
		return "", fmt.Errorf("checksum file is empty")
	}
	if isHexDigest(text, sha256HexLength) {
		return strings.ToLower(text), nil
	}

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		digest := fields[0]
		if !isHexDigest(digest, sha256HexLength) {
			continue
		}
		// sha256sum may record paths; only the base name has to match.
		if filepath.Base(fields[len(fields)-1]) == assetName {
			return strings.ToLower(digest), nil
		}
	}

	return "", fmt.Errorf("checksum for %s not found", assetName)
}

// FileSHA256 returns the lowercase hex SHA-256 digest of the file at path.
func FileSHA256(path string) (string, error) {
	f, err := os.Open(path) // #nosec G304 -- path is inside a caller-owned temp dir
	if err != nil {
		return "", fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hash %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// FileAgainstChecksum hashes the file at path and compares it with the
// digest recorded for assetName in the checksum companion data.
func FileAgainstChecksum(path string, checksumData []byte, assetName string) error {
	expected, err := DigestFromChecksumFile(checksumData, assetName)
	if err != nil {
		return err
	}
	actual, err := FileSHA256(path)
	if err != nil {
		return err
	}
	if actual != expected {
		return fmt.Errorf("checksum mismatch for %s: expected %s, got %s",
			assetName, expected, actual)
	}
	return nil
}

func isHexDigest(value string, expectedLen int) bool {
	if expectedLen > 0 && len(value) != expectedLen {
		return false
	}
	if len(value)%2 != 0 {
		return false
	}
	for _, ch := range value {
		if (ch < '0' || ch > '9') && (ch < 'a' || ch > 'f') && (ch < 'A' || ch > 'F') {
			return false
		}
	}
	return true
}

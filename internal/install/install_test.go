package install

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	llvminstaller "github.com/yugabyte/llvm-installer"
	"github.com/yugabyte/llvm-installer/internal/fetch"
)

func requireTar(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("tar"); err != nil {
		t.Skip("tar not available on PATH")
	}
}

// buildArchive assembles a minimal package archive whose top-level directory
// is dirName, mimicking the layout of the published toolchain tarballs.
func buildArchive(t *testing.T, dirName string) []byte {
	t.Helper()

	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)
	now := time.Now()

	writeEntry := func(hdr *tar.Header, body []byte) {
		t.Helper()
		require.NoError(t, tw.WriteHeader(hdr))
		if body != nil {
			_, err := tw.Write(body)
			require.NoError(t, err)
		}
	}

	writeEntry(&tar.Header{Name: dirName + "/", Typeflag: tar.TypeDir, Mode: 0o755, ModTime: now}, nil)
	writeEntry(&tar.Header{Name: dirName + "/bin/", Typeflag: tar.TypeDir, Mode: 0o755, ModTime: now}, nil)
	clang := []byte("#!/bin/sh\necho clang\n")
	writeEntry(&tar.Header{
		Name:     dirName + "/bin/clang",
		Typeflag: tar.TypeReg,
		Mode:     0o755,
		Size:     int64(len(clang)),
		ModTime:  now,
	}, clang)

	require.NoError(t, tw.Close())
	require.NoError(t, gz.Close())
	return buf.Bytes()
}

func checksumFor(archive []byte, packageName string) []byte {
	sum := sha256.Sum256(archive)
	return []byte(hex.EncodeToString(sum[:]) + "  " + packageName + "\n")
}

// serveRelease exposes release files under a fake download root, mirroring
// the <base>/<tag>/<file> layout of GitHub release downloads.
func serveRelease(t *testing.T, tag string, files map[string][]byte) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	for name, data := range files {
		mux.HandleFunc("/"+tag+"/"+name, func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write(data)
		})
	}
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func testClient() *fetch.Client {
	return fetch.NewClient("", "llvm-installer-test")
}

func TestRunInstallsPackage(t *testing.T) {
	requireTar(t)

	const tag = "v17.0.6-1704396115-199f3cd2-almalinux8-x86_64"
	pkg := "yb-llvm-" + tag + ".tar.gz"
	archive := buildArchive(t, "yb-llvm-"+tag)
	srv := serveRelease(t, tag, map[string][]byte{
		pkg:             archive,
		pkg + ".sha256": checksumFor(archive, pkg),
	})

	dest := t.TempDir()
	opts := Options{
		Tag:     tag,
		URLs:    llvminstaller.NewURLBuilder(srv.URL, "", ""),
		DestDir: dest,
		Client:  testClient(),
	}

	res, err := Run(context.Background(), opts)
	require.NoError(t, err)
	assert.Equal(t, DecisionInstall, res.Decision)
	assert.Positive(t, res.BytesFetched)

	installDir := filepath.Join(dest, "yb-llvm-"+tag)
	assert.Equal(t, installDir, res.InstallDir)
	assert.FileExists(t, filepath.Join(installDir, "bin", "clang"))

	marker, err := os.ReadFile(filepath.Join(installDir, MarkerFileName))
	require.NoError(t, err)
	assert.Equal(t, tag, strings.TrimSpace(string(marker)))

	// No temp debris may remain next to the installed directory.
	entries, err := os.ReadDir(dest)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	// A second run skips, a reinstall replaces.
	res, err = Run(context.Background(), opts)
	require.NoError(t, err)
	assert.Equal(t, DecisionSkip, res.Decision)

	opts.Reinstall = true
	res, err = Run(context.Background(), opts)
	require.NoError(t, err)
	assert.Equal(t, DecisionReinstall, res.Decision)
	assert.FileExists(t, filepath.Join(installDir, "bin", "clang"))
}

func TestRunSkipsWithoutNetwork(t *testing.T) {
	const tag = "v16.0.6-1704396116-0b8d1474-centos7-x86_64"
	dest := t.TempDir()
	installDir := filepath.Join(dest, "yb-llvm-"+tag)
	require.NoError(t, os.MkdirAll(installDir, 0o755))
	marker := filepath.Join(installDir, MarkerFileName)
	require.NoError(t, os.WriteFile(marker, []byte(tag+"\n"), 0o644))

	// The URL builder points at a closed port; a skip must not dial it.
	res, err := Run(context.Background(), Options{
		Tag:     tag,
		URLs:    llvminstaller.NewURLBuilder("http://127.0.0.1:1", "", ""),
		DestDir: dest,
	})
	require.NoError(t, err)
	assert.Equal(t, DecisionSkip, res.Decision)
	assert.Equal(t, installDir, res.InstallDir)
}

func TestRunChecksumMismatch(t *testing.T) {
	const tag = "v15.0.7-1688231965-6e9a1577-centos7-x86_64"
	pkg := "yb-llvm-" + tag + ".tar.gz"
	archive := buildArchive(t, "yb-llvm-"+tag)
	srv := serveRelease(t, tag, map[string][]byte{
		pkg:             archive,
		pkg + ".sha256": []byte(strings.Repeat("0", 64) + "  " + pkg + "\n"),
	})

	dest := t.TempDir()
	_, err := Run(context.Background(), Options{
		Tag:     tag,
		URLs:    llvminstaller.NewURLBuilder(srv.URL, "", ""),
		DestDir: dest,
		Client:  testClient(),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mismatch")

	// Nothing may be left behind after a failed install.
	entries, err := os.ReadDir(dest)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRunMissingChecksumAsset(t *testing.T) {
	const tag = "v14.0.3-1651732108-1f914006-centos7-x86_64"
	pkg := "yb-llvm-" + tag + ".tar.gz"
	archive := buildArchive(t, "yb-llvm-"+tag)
	srv := serveRelease(t, tag, map[string][]byte{pkg: archive})

	_, err := Run(context.Background(), Options{
		Tag:     tag,
		URLs:    llvminstaller.NewURLBuilder(srv.URL, "", ""),
		DestDir: t.TempDir(),
		Client:  testClient(),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}

// minisignFixture writes a public key file and returns it with a detached
// signature over content, following the minisign wire format.
func minisignFixture(t *testing.T, content []byte) (pubKeyPath string, sig []byte) {
	t.Helper()

	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	keyID := []byte{9, 8, 7, 6, 5, 4, 3, 2}

	pubKeyPath = filepath.Join(t.TempDir(), "minisign.pub")
	pubFile := "untrusted comment: minisign public key\n" +
		base64.StdEncoding.EncodeToString(append(append([]byte("Ed"), keyID...), pub...)) + "\n"
	require.NoError(t, os.WriteFile(pubKeyPath, []byte(pubFile), 0o644))

	raw := ed25519.Sign(priv, content)
	trusted := "timestamp:1704396115"
	globalSig := ed25519.Sign(priv, append(append([]byte{}, raw...), []byte(trusted)...))
	sig = []byte("untrusted comment: signature from minisign\n" +
		base64.StdEncoding.EncodeToString(append(append([]byte("Ed"), keyID...), raw...)) + "\n" +
		"trusted comment: " + trusted + "\n" +
		base64.StdEncoding.EncodeToString(globalSig) + "\n")
	return pubKeyPath, sig
}

func TestRunMinisignVerification(t *testing.T) {
	requireTar(t)

	const tag = "v13.0.1-1643061965-bdb147e6-centos7-x86_64"
	pkg := "yb-llvm-" + tag + ".tar.gz"
	archive := buildArchive(t, "yb-llvm-"+tag)
	checksum := checksumFor(archive, pkg)
	pubKeyPath, sig := minisignFixture(t, checksum)

	srv := serveRelease(t, tag, map[string][]byte{
		pkg:                     archive,
		pkg + ".sha256":         checksum,
		pkg + ".sha256.minisig": sig,
	})

	res, err := Run(context.Background(), Options{
		Tag:               tag,
		URLs:              llvminstaller.NewURLBuilder(srv.URL, "", ""),
		DestDir:           t.TempDir(),
		MinisignPublicKey: pubKeyPath,
		Client:            testClient(),
	})
	require.NoError(t, err)
	assert.Equal(t, DecisionInstall, res.Decision)
}

func TestRunMinisignMissingSignature(t *testing.T) {
	const tag = "v12.0.1-1639976983-4b60e646-centos7-x86_64"
	pkg := "yb-llvm-" + tag + ".tar.gz"
	archive := buildArchive(t, "yb-llvm-"+tag)
	checksum := checksumFor(archive, pkg)
	pubKeyPath, _ := minisignFixture(t, checksum)

	srv := serveRelease(t, tag, map[string][]byte{
		pkg:             archive,
		pkg + ".sha256": checksum,
	})

	_, err := Run(context.Background(), Options{
		Tag:               tag,
		URLs:              llvminstaller.NewURLBuilder(srv.URL, "", ""),
		DestDir:           t.TempDir(),
		MinisignPublicKey: pubKeyPath,
		Client:            testClient(),
	})
	require.Error(t, err)
}

func TestRunMinisignRejectsTamperedChecksum(t *testing.T) {
	const tag = "v11.1.0-1633099975-130bd22e-centos7-x86_64"
	pkg := "yb-llvm-" + tag + ".tar.gz"
	archive := buildArchive(t, "yb-llvm-"+tag)
	checksum := checksumFor(archive, pkg)
	pubKeyPath, sig := minisignFixture(t, checksum)

	tampered := append([]byte{}, checksum...)
	if tampered[0] == 'f' {
		tampered[0] = '0'
	} else {
		tampered[0] = 'f'
	}
	srv := serveRelease(t, tag, map[string][]byte{
		pkg:                     archive,
		pkg + ".sha256":         tampered,
		pkg + ".sha256.minisig": sig,
	})

	_, err := Run(context.Background(), Options{
		Tag:               tag,
		URLs:              llvminstaller.NewURLBuilder(srv.URL, "", ""),
		DestDir:           t.TempDir(),
		MinisignPublicKey: pubKeyPath,
		Client:            testClient(),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "minisign")
}

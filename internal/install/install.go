// Package install downloads, verifies and unpacks LLVM release packages
// into per-tag directories.
package install

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	llvminstaller "github.com/yugabyte/llvm-installer"
	"github.com/yugabyte/llvm-installer/internal/fetch"
	"github.com/yugabyte/llvm-installer/internal/hostenv"
	"github.com/yugabyte/llvm-installer/internal/log"
	"github.com/yugabyte/llvm-installer/internal/verify"
)

// Options configures Run.
type Options struct {
	// Tag is the release tag to install.
	Tag string
	// URLs renders the artifact and checksum URLs for Tag.
	URLs llvminstaller.URLBuilder
	// DestDir receives the per-tag install directory.
	DestDir string
	// Reinstall replaces an existing install instead of skipping it.
	Reinstall bool
	// MinisignPublicKey optionally points at a minisign public key file.
	// When set, the checksum file's .minisig companion is fetched and
	// verified, and its absence is an error.
	MinisignPublicKey string
	// Client performs the downloads. A nil client uses anonymous defaults
	// with the token from the environment.
	Client *fetch.Client
}

// Result reports what Run did.
type Result struct {
	Decision   Decision
	Tag        string
	InstallDir string
	// BytesFetched is the downloaded artifact size, zero for skips.
	BytesFetched int64
}

// Run installs the package for opts.Tag under opts.DestDir. Installs are
// idempotent per target directory: a directory holding a completion marker
// is skipped unless Reinstall is set, and a concurrent install of the same
// tag is detected rather than treated as failure.
func Run(ctx context.Context, opts Options) (*Result, error) {
	if opts.Tag == "" {
		return nil, fmt.Errorf("install: no release tag given")
	}
	if opts.DestDir == "" {
		return nil, fmt.Errorf("install: no destination directory given")
	}
	client := opts.Client
	if client == nil {
		client = fetch.NewClient(fetch.TokenFromEnv(), "llvm-installer")
	}

	dirName := opts.URLs.PackageDirName(opts.Tag)
	installDir := filepath.Join(opts.DestDir, dirName)

	decision, err := decide(installDir, opts.Reinstall)
	if err != nil {
		return nil, err
	}
	if decision == DecisionSkip {
		log.Info("already installed", "tag", opts.Tag, "dir", installDir)
		return &Result{Decision: DecisionSkip, Tag: opts.Tag, InstallDir: installDir}, nil
	}

	if err := os.MkdirAll(opts.DestDir, 0o755); err != nil {
		return nil, fmt.Errorf("create %s: %w", opts.DestDir, err)
	}
	if hostenv.IsNoExec(opts.DestDir) {
		log.Warn("destination is on a noexec mount; installed binaries will not run",
			"dir", opts.DestDir)
	}

	// The temp dir lives inside DestDir so the final rename stays on one
	// filesystem.
	tmpDir, err := os.MkdirTemp(opts.DestDir, ".yb-llvm-tmp-*")
	if err != nil {
		return nil, fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	packageName := opts.URLs.PackageName(opts.Tag)
	archivePath := filepath.Join(tmpDir, packageName)
	artifactURL := opts.URLs.URLForTag(opts.Tag)
	checksumURL := opts.URLs.ChecksumURLForTag(opts.Tag)

	var (
		archiveSize  int64
		checksumData []byte
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := client.Download(gctx, artifactURL, archivePath)
		if err != nil {
			return err
		}
		archiveSize = n
		return nil
	})
	g.Go(func() error {
		data, err := client.Fetch(gctx, checksumURL)
		if err != nil {
			return err
		}
		checksumData = data
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	log.Debug("downloaded package", "name", packageName,
		"size", verify.FormatSize(archiveSize))

	if opts.MinisignPublicKey != "" {
		if err := verifySignature(ctx, client, opts, checksumURL, checksumData, tmpDir); err != nil {
			return nil, err
		}
	}

	if err := verify.FileAgainstChecksum(archivePath, checksumData, packageName); err != nil {
		return nil, err
	}

	extractDir := filepath.Join(tmpDir, "extract")
	if err := os.Mkdir(extractDir, 0o755); err != nil {
		return nil, fmt.Errorf("mkdir %s: %w", extractDir, err)
	}
	// #nosec G204 -- archivePath lives in a temp dir this process created
	cmd := exec.CommandContext(ctx, "tar", "xzf", archivePath, "-C", extractDir)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("extract %s: %v: %s",
			packageName, err, strings.TrimSpace(stderr.String()))
	}

	unpacked := filepath.Join(extractDir, dirName)
	if _, err := os.Stat(unpacked); err != nil {
		return nil, fmt.Errorf("archive %s does not contain directory %s",
			packageName, dirName)
	}

	if decision == DecisionReinstall {
		log.Info("replacing existing install", "dir", installDir)
		if err := os.RemoveAll(installDir); err != nil {
			return nil, fmt.Errorf("remove %s: %w", installDir, err)
		}
	}

	if err := os.Rename(unpacked, installDir); err != nil {
		// A racing install of the same tag may have won; its marker means
		// the directory contents are complete.
		if markerMatches(installDir, opts.Tag) {
			log.Info("another process finished the same install", "dir", installDir)
			return &Result{Decision: DecisionSkip, Tag: opts.Tag, InstallDir: installDir}, nil
		}
		return nil, fmt.Errorf("move install into place: %w", err)
	}

	marker := filepath.Join(installDir, MarkerFileName)
	if err := os.WriteFile(marker, []byte(opts.Tag+"\n"), 0o644); err != nil {
		return nil, fmt.Errorf("write completion marker: %w", err)
	}

	log.Info("installed", "tag", opts.Tag, "dir", installDir,
		"size", verify.FormatSize(archiveSize))
	return &Result{
		Decision:     decision,
		Tag:          opts.Tag,
		InstallDir:   installDir,
		BytesFetched: archiveSize,
	}, nil
}

// verifySignature fetches the minisign signature published next to the
// checksum file and verifies the checksum data against the configured
// public key.
func verifySignature(ctx context.Context, client *fetch.Client, opts Options,
	checksumURL string, checksumData []byte, tmpDir string) error {
	sigURL := checksumURL + ".minisig"
	sigData, err := client.Fetch(ctx, sigURL)
	if err != nil {
		return err
	}
	sigPath := filepath.Join(tmpDir, filepath.Base(sigURL))
	if err := os.WriteFile(sigPath, sigData, 0o644); err != nil {
		return fmt.Errorf("write signature: %w", err)
	}
	if err := verify.Minisign(checksumData, sigPath, opts.MinisignPublicKey); err != nil {
		return err
	}
	log.Debug("minisign signature verified", "url", sigURL)
	return nil
}

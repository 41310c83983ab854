// Package update rebuilds the release catalog from the GitHub releases of
// the toolchain build repository.
package update

import (
	"context"
	"time"

	llvminstaller "github.com/yugabyte/llvm-installer"
	"github.com/yugabyte/llvm-installer/internal/fetch"
	"github.com/yugabyte/llvm-installer/internal/log"
)

// DefaultRepo is the GitHub repository publishing the LLVM packages.
const DefaultRepo = "yugabyte/build-clang"

// DefaultSince is the support threshold. Builds older than this predate the
// SHA-256 companions and are never cataloged.
var DefaultSince = time.Date(2021, time.October, 1, 0, 0, 0, 0, time.UTC)

// Options configures Collect.
type Options struct {
	// Repo is the "owner/name" repository to walk (DefaultRepo if empty).
	Repo string
	// Since drops releases whose build timestamp is older (DefaultSince if
	// zero).
	Since time.Time
	// URLs renders the artifact URLs that must appear among the release
	// assets.
	URLs llvminstaller.URLBuilder
}

// Collect walks the repository's releases and returns the catalog of tags
// that parse, fall inside the support window, and publish both the package
// artifact and its SHA-256 companion. Rejected releases are logged, never
// fatal: a single stray tag must not block a catalog refresh.
func Collect(ctx context.Context, client *fetch.Client, opts Options) (*llvminstaller.PackageCollection, error) {
	repo := opts.Repo
	if repo == "" {
		repo = DefaultRepo
	}
	since := opts.Since
	if since.IsZero() {
		since = DefaultSince
	}

	releases, err := client.Releases(ctx, repo)
	if err != nil {
		return nil, err
	}
	log.Info("fetched releases", "repo", repo, "count", len(releases))

	var parsedTags []*llvminstaller.ParsedTag
	for _, release := range releases {
		pt, err := llvminstaller.ParseTag(release.TagName)
		if err != nil {
			log.Warn("skipping unparseable release tag",
				"tag", release.TagName, "error", err)
			continue
		}
		if pt.Timestamp < since.Unix() {
			log.Warn("skipping release older than the support threshold",
				"tag", release.TagName, "since", since.Format(time.DateOnly))
			continue
		}
		if !hasRequiredAssets(release, opts.URLs) {
			log.Warn("skipping release without package and checksum assets",
				"tag", release.TagName)
			continue
		}
		parsedTags = append(parsedTags, pt)
	}

	return llvminstaller.NewCollection(parsedTags).Sorted(), nil
}

// hasRequiredAssets reports whether the release publishes both the package
// artifact and its .sha256 companion under the expected URLs.
func hasRequiredAssets(release fetch.Release, urls llvminstaller.URLBuilder) bool {
	artifactURL := urls.URLForTag(release.TagName)
	checksumURL := urls.ChecksumURLForTag(release.TagName)

	var haveArtifact, haveChecksum bool
	for _, asset := range release.Assets {
		switch asset.BrowserDownloadURL {
		case artifactURL:
			haveArtifact = true
		case checksumURL:
			haveChecksum = true
		}
	}
	return haveArtifact && haveChecksum
}

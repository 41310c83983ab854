package llvminstaller

import (
	"errors"
	"fmt"
	"strings"

	"github.com/yugabyte/llvm-installer/internal/log"
	"github.com/yugabyte/llvm-installer/internal/sysdetect"
)

// Defaults describing where yugabyte/build-clang publishes its artifacts.
const (
	DefaultDownloadBaseURL   = "https://github.com/yugabyte/build-clang/releases/download"
	DefaultPackageNamePrefix = "yb-llvm-"
	DefaultPackageNameSuffix = ".tar.gz"

	// ChecksumSuffix names the SHA-256 companion published next to every
	// package artifact.
	ChecksumSuffix = ".sha256"
)

// URLBuilder renders artifact URLs for release tags. The zero value is not
// usable; construct it with NewURLBuilder.
type URLBuilder struct {
	baseURL           string
	packageNamePrefix string
	packageNameSuffix string
}

// NewURLBuilder builds a URLBuilder, substituting the yugabyte/build-clang
// defaults for empty arguments. A trailing slash on baseURL is dropped.
func NewURLBuilder(baseURL, packageNamePrefix, packageNameSuffix string) URLBuilder {
	if baseURL == "" {
		baseURL = DefaultDownloadBaseURL
	}
	if packageNamePrefix == "" {
		packageNamePrefix = DefaultPackageNamePrefix
	}
	if packageNameSuffix == "" {
		packageNameSuffix = DefaultPackageNameSuffix
	}
	return URLBuilder{
		baseURL:           strings.TrimSuffix(baseURL, "/"),
		packageNamePrefix: packageNamePrefix,
		packageNameSuffix: packageNameSuffix,
	}
}

// URLForTag returns the download URL of the release artifact for tag.
func (b URLBuilder) URLForTag(tag string) string {
	return b.baseURL + "/" + tag + "/" + b.packageNamePrefix + tag + b.packageNameSuffix
}

// ChecksumURLForTag returns the URL of the artifact's SHA-256 companion.
func (b URLBuilder) ChecksumURLForTag(tag string) string {
	return b.URLForTag(tag) + ChecksumSuffix
}

// PackageName returns the artifact file name for tag.
func (b URLBuilder) PackageName(tag string) string {
	return b.packageNamePrefix + tag + b.packageNameSuffix
}

// PackageDirName returns the directory the artifact unpacks to, which is
// the package name without its archive suffix.
func (b URLBuilder) PackageDirName(tag string) string {
	return b.packageNamePrefix + tag
}

// Options configures an Installer. Empty platform fields are filled by
// detecting the local system; empty URL fields select the
// yugabyte/build-clang release layout.
type Options struct {
	ShortOSNameAndVersion string
	Architecture          string
	DownloadBaseURL       string
	PackageNamePrefix     string
	PackageNameSuffix     string

	// Collection overrides the embedded release catalog.
	Collection *PackageCollection
}

// Installer resolves release tags and artifact URLs for one target platform.
type Installer struct {
	shortOSNameAndVersion string
	architecture          string
	urls                  URLBuilder
	collection            *PackageCollection
}

// NewInstaller builds an Installer, detecting the local OS and architecture
// for any platform field left empty in opts.
func NewInstaller(opts Options) (*Installer, error) {
	osNameAndVersion := opts.ShortOSNameAndVersion
	if osNameAndVersion == "" {
		detected, err := sysdetect.ShortOSNameAndVersion()
		if err != nil {
			return nil, fmt.Errorf("detect local OS: %w", err)
		}
		osNameAndVersion = detected
	}

	architecture := opts.Architecture
	if architecture == "" {
		architecture = sysdetect.Architecture()
	}

	return &Installer{
		shortOSNameAndVersion: osNameAndVersion,
		architecture:          architecture,
		urls:                  NewURLBuilder(opts.DownloadBaseURL, opts.PackageNamePrefix, opts.PackageNameSuffix),
		collection:            opts.Collection,
	}, nil
}

// ShortOSNameAndVersion returns the OS this installer resolves for.
func (inst *Installer) ShortOSNameAndVersion() string { return inst.shortOSNameAndVersion }

// Architecture returns the architecture this installer resolves for.
func (inst *Installer) Architecture() string { return inst.architecture }

// URLs returns the installer's URL builder.
func (inst *Installer) URLs() URLBuilder { return inst.urls }

// URLForTag returns the download URL of the release artifact for tag.
func (inst *Installer) URLForTag(tag string) string {
	return inst.urls.URLForTag(tag)
}

// ChecksumURLForTag returns the URL of the artifact's SHA-256 companion.
func (inst *Installer) ChecksumURLForTag(tag string) string {
	return inst.urls.ChecksumURLForTag(tag)
}

func (inst *Installer) catalog() (*PackageCollection, error) {
	if inst.collection != nil {
		return inst.collection, nil
	}
	return Default()
}

// ParsedTagForVersion picks the best release of the requested major version
// for this installer's platform. It fails when no release matches the
// criteria and when several releases tie for the highest version key.
func (inst *Installer) ParsedTagForVersion(majorVersion int) (*ParsedTag, error) {
	collection, err := inst.catalog()
	if err != nil {
		return nil, fmt.Errorf("load release catalog: %w", err)
	}

	criteria := Criteria{
		MajorVersion:          majorVersion,
		ShortOSNameAndVersion: inst.shortOSNameAndVersion,
		Architecture:          inst.architecture,
	}
	filtered := collection.Filter(majorVersion, inst.shortOSNameAndVersion, inst.architecture)
	pt, err := filtered.SelectLatest(criteria)
	if err != nil {
		var notFound *NoMatchingTagError
		if errors.As(err, &notFound) {
			log.Warn(err.Error() + ". Available packages:\n" + collection.OnePerLine(4))
		}
		return nil, err
	}
	return pt, nil
}

// URLForVersion resolves the artifact URL for the requested major version.
func (inst *Installer) URLForVersion(majorVersion int) (string, error) {
	pt, err := inst.ParsedTagForVersion(majorVersion)
	if err != nil {
		return "", err
	}
	return inst.urls.URLForTag(pt.Tag), nil
}

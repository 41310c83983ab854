package cli

import (
	llvminstaller "github.com/yugabyte/llvm-installer"
)

// newInstaller builds an Installer from the loaded config plus optional
// platform overrides. Empty overrides fall back to local detection.
func newInstaller(osNameAndVersion, architecture string) (*llvminstaller.Installer, error) {
	return llvminstaller.NewInstaller(llvminstaller.Options{
		ShortOSNameAndVersion: osNameAndVersion,
		Architecture:          architecture,
		DownloadBaseURL:       cfg.DownloadBaseURL,
		PackageNamePrefix:     cfg.PackageNamePrefix,
		PackageNameSuffix:     cfg.PackageNameSuffix,
	})
}

// Package llvminstaller resolves pre-built LLVM toolchain releases published
// by the yugabyte/build-clang project.
//
// Releases are named by structured tags that encode the LLVM version, an
// optional build counter, a build timestamp, the source commit, and the
// target OS and architecture. The package embeds a catalog of known
// releases, filters it by major version and target platform, and picks the
// highest version deterministically. Ties are reported as errors, never
// resolved by an arbitrary choice.
//
//	inst, err := llvminstaller.NewInstaller(llvminstaller.Options{})
//	if err != nil {
//		return err
//	}
//	url, err := inst.URLForVersion(17)
//
// The catalog itself carries no network dependency; downloading, verifying
// and unpacking artifacts is the job of the llvm-installer command.
package llvminstaller

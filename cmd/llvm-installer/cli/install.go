package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yugabyte/llvm-installer/internal/fetch"
	"github.com/yugabyte/llvm-installer/internal/install"
)

var (
	installMajorVersion int
	installDest         string
	installReinstall    bool
	installMinisignKey  string
)

var installCmd = &cobra.Command{
	Use:   "install",
	Short: "Download, verify and unpack a package for an LLVM major version",
	Long: `Resolve the best release of the given LLVM major version for the local
platform, download it together with its SHA-256 companion, verify it, and
unpack it into a per-release directory under the destination.

A directory that already holds a completed install of the same release is
left alone unless --reinstall is given.`,
	RunE: runInstall,
}

func init() {
	installCmd.Flags().IntVar(&installMajorVersion, "llvm-major-version", 0, "LLVM major version of interest")
	installCmd.Flags().StringVar(&installDest, "dest", "", "destination directory (default: install_root from config)")
	installCmd.Flags().BoolVar(&installReinstall, "reinstall", false, "replace an existing install of the same release")
	installCmd.Flags().StringVar(&installMinisignKey, "minisign-key", "", "minisign public key file for checksum signature verification")
	_ = installCmd.MarkFlagRequired("llvm-major-version")
	rootCmd.AddCommand(installCmd)
}

func runInstall(cmd *cobra.Command, args []string) error {
	installer, err := newInstaller("", "")
	if err != nil {
		return err
	}
	pt, err := installer.ParsedTagForVersion(installMajorVersion)
	if err != nil {
		return err
	}

	dest := installDest
	if dest == "" {
		dest = cfg.InstallRoot
	}

	res, err := install.Run(cmd.Context(), install.Options{
		Tag:               pt.Tag,
		URLs:              installer.URLs(),
		DestDir:           dest,
		Reinstall:         installReinstall,
		MinisignPublicKey: installMinisignKey,
		Client:            fetch.NewClient(fetch.TokenFromEnv(), userAgent()),
	})
	if err != nil {
		return err
	}

	if res.Decision == install.DecisionSkip {
		fmt.Printf("Already installed: %s\n", res.InstallDir)
		return nil
	}
	fmt.Printf("Installed %s to %s\n", res.Tag, res.InstallDir)
	return nil
}

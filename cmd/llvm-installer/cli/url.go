package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	urlMajorVersion int
	urlOSOverride   string
	urlArch         string
	urlChecksum     bool
)

var urlCmd = &cobra.Command{
	Use:   "url",
	Short: "Print the package URL for an LLVM major version",
	Long: `Resolve the best release of the given LLVM major version for the target
platform and print its download URL.`,
	RunE: runURL,
}

func init() {
	urlCmd.Flags().IntVar(&urlMajorVersion, "llvm-major-version", 0, "LLVM major version of interest")
	urlCmd.Flags().StringVar(&urlOSOverride, "os", "", "target OS name and version (default: detected)")
	urlCmd.Flags().StringVar(&urlArch, "arch", "", "target architecture (default: detected)")
	urlCmd.Flags().BoolVar(&urlChecksum, "checksum", false, "also print the SHA-256 companion URL")
	_ = urlCmd.MarkFlagRequired("llvm-major-version")
	rootCmd.AddCommand(urlCmd)
}

func runURL(cmd *cobra.Command, args []string) error {
	installer, err := newInstaller(urlOSOverride, urlArch)
	if err != nil {
		return err
	}
	pt, err := installer.ParsedTagForVersion(urlMajorVersion)
	if err != nil {
		return err
	}

	fmt.Println(installer.URLForTag(pt.Tag))
	if urlChecksum {
		fmt.Println(installer.ChecksumURLForTag(pt.Tag))
	}
	return nil
}

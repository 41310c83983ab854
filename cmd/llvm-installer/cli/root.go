// Package cli implements the llvm-installer command-line interface using
// Cobra.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/yugabyte/llvm-installer/internal/config"
	"github.com/yugabyte/llvm-installer/internal/log"
)

var (
	verbose bool
	jsonOut bool

	// cfg is loaded once in the persistent pre-run and shared by the
	// subcommands.
	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "llvm-installer",
	Short: "Resolve, download and install prebuilt LLVM toolchain releases",
	Long: `llvm-installer works with the LLVM toolchain packages published by
yugabyte/build-clang. It picks the right release for an LLVM major version
and the local OS and architecture, prints download URLs, installs packages
into per-release directories, and maintains the release catalog.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		log.Init(log.Options{Verbose: verbose, JSONFormat: jsonOut})

		loaded, err := config.Load()
		if err != nil {
			return err
		}
		cfg = loaded
		return nil
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "output in JSON format")
}

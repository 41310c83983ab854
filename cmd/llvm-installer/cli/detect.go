package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/yugabyte/llvm-installer/internal/sysdetect"
)

var detectCmd = &cobra.Command{
	Use:   "detect",
	Short: "Print the detected OS and architecture",
	RunE: func(cmd *cobra.Command, args []string) error {
		osNameAndVersion, err := sysdetect.ShortOSNameAndVersion()
		if err != nil {
			return err
		}
		arch := sysdetect.Architecture()

		if jsonOut {
			return json.NewEncoder(os.Stdout).Encode(map[string]string{
				"short_os_name_and_version": osNameAndVersion,
				"architecture":              arch,
			})
		}
		fmt.Printf("OS:           %s\n", osNameAndVersion)
		fmt.Printf("Architecture: %s\n", arch)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(detectCmd)
}

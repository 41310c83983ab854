package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	llvminstaller "github.com/yugabyte/llvm-installer"
)

var listMajorVersion int

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the releases in the catalog",
	Long: `Show every release in the embedded catalog, or only the releases of one
LLVM major version that fit the local platform.`,
	RunE: runList,
}

func init() {
	listCmd.Flags().IntVar(&listMajorVersion, "llvm-major-version", 0, "only list releases of this major version for the local platform")
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	collection, err := llvminstaller.Default()
	if err != nil {
		return err
	}

	if listMajorVersion != 0 {
		installer, err := newInstaller("", "")
		if err != nil {
			return err
		}
		collection = collection.Filter(listMajorVersion,
			installer.ShortOSNameAndVersion(), installer.Architecture())
	}

	if jsonOut {
		return json.NewEncoder(os.Stdout).Encode(collection.ParsedTags)
	}

	if len(collection.ParsedTags) == 0 {
		fmt.Println("No matching releases")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TAG\tVERSION\tOS\tARCH")
	for _, pt := range collection.ParsedTags {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			pt.Tag, pt.Version, pt.ShortOSNameAndVersion, pt.Architecture)
	}
	return w.Flush()
}

package cli

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	llvminstaller "github.com/yugabyte/llvm-installer"
	"github.com/yugabyte/llvm-installer/internal/fetch"
	"github.com/yugabyte/llvm-installer/internal/update"
)

var (
	updateOutput string
	updateRepo   string
	updateSince  string
)

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Rebuild the release catalog from GitHub releases",
	Long: `Walk the releases of the build repository, keep the tags that parse and
publish both the package artifact and its SHA-256 companion, and write them
to the catalog file.`,
	RunE: runUpdate,
}

func init() {
	updateCmd.Flags().StringVar(&updateOutput, "output", "release_tags.json", "catalog file to write")
	updateCmd.Flags().StringVar(&updateRepo, "repo", update.DefaultRepo, "GitHub repository to walk (owner/name or URL)")
	updateCmd.Flags().StringVar(&updateSince, "since", update.DefaultSince.Format(time.DateOnly), "ignore releases built before this date (YYYY-MM-DD)")
	rootCmd.AddCommand(updateCmd)
}

func runUpdate(cmd *cobra.Command, args []string) error {
	since, err := time.Parse(time.DateOnly, updateSince)
	if err != nil {
		return fmt.Errorf("parse --since: %w", err)
	}

	repo := updateRepo
	if strings.Contains(repo, "://") {
		repo, err = fetch.RepoFromURL(repo)
		if err != nil {
			return err
		}
	}

	client := fetch.NewClient(fetch.TokenFromEnv(), userAgent())
	client.APIBaseURL = fetch.APIBaseFromEnv()

	collection, err := update.Collect(cmd.Context(), client, update.Options{
		Repo:  repo,
		Since: since,
		URLs:  llvminstaller.NewURLBuilder(cfg.DownloadBaseURL, cfg.PackageNamePrefix, cfg.PackageNameSuffix),
	})
	if err != nil {
		return err
	}

	data, err := collection.MarshalDataset()
	if err != nil {
		return err
	}
	if err := llvminstaller.ValidateDataset(data); err != nil {
		return err
	}
	if err := os.WriteFile(updateOutput, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", updateOutput, err)
	}

	fmt.Printf("Wrote %d releases to %s\n", len(collection.ParsedTags), updateOutput)
	return nil
}

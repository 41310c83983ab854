// Command validate-dataset checks a release catalog file against the tag
// grammar, the catalog JSON schema, and the canonical form produced by the
// update command.
package main

import (
	"bytes"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	llvminstaller "github.com/yugabyte/llvm-installer"
)

func main() {
	file := flag.String("file", "release_tags.json", "release catalog to validate")
	flag.Parse()

	if err := run(*file); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

func run(path string) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return errors.New("catalog file is required")
	}

	data, err := os.ReadFile(path) // #nosec G304 -- catalog path supplied by the operator
	if err != nil {
		return fmt.Errorf("read catalog: %w", err)
	}

	if err := llvminstaller.ValidateDataset(data); err != nil {
		return err
	}

	collection, err := llvminstaller.UnmarshalDataset(data)
	if err != nil {
		return err
	}

	// The update command writes the catalog sorted and indented; anything
	// else means the file was edited by hand.
	canonical, err := collection.Sorted().MarshalDataset()
	if err != nil {
		return err
	}
	if !bytes.Equal(data, canonical) {
		return fmt.Errorf("%s is not in canonical form; regenerate it with the update command", path)
	}

	fmt.Printf("✅ %s: %d releases\n", path, len(collection.ParsedTags))
	return nil
}

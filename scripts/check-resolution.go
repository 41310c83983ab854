// Command check-resolution runs a built llvm-installer binary against a
// manifest of resolution scenarios and verifies the URL printed for each
// one. The binary is expected to run with the default download layout, so
// clear the YB_LLVM_* environment overrides before invoking this harness.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"

	llvminstaller "github.com/yugabyte/llvm-installer"
)

type corpusEntry struct {
	MajorVersion int    `json:"majorVersion"`
	OS           string `json:"os"`
	Arch         string `json:"arch"`
	ExpectTag    string `json:"expectTag"`
	ExpectError  string `json:"expectError"`
	Note         string `json:"note"`
}

type result struct {
	entry       corpusEntry
	status      string
	exitSuccess bool
	output      string
}

func main() {
	manifestFlag := flag.String("manifest", "", "path to the scenario manifest")
	binFlag := flag.String("bin", "", "path to the llvm-installer binary to run")
	flag.Parse()

	manifest := firstSet(*manifestFlag, os.Getenv("RESOLUTION_MANIFEST"), "scripts/testdata/resolution-corpus.json")
	bin := firstSet(*binFlag, os.Getenv("LLVM_INSTALLER_BIN"), "llvm-installer")

	entries, err := loadManifest(manifest)
	if err != nil {
		fatalf("load manifest: %v", err)
	}
	if err := validateEntries(entries); err != nil {
		fatalf("manifest validation failed: %v", err)
	}

	var failures int
	for _, e := range entries {
		res := runEntry(e, bin)
		if res.status != "pass" {
			failures++
		}

		fmt.Printf("[%s] major=%d os=%s arch=%s gotExit=%v",
			strings.ToUpper(res.status), e.MajorVersion, e.OS, e.Arch, res.exitSuccess)
		if e.Note != "" {
			fmt.Printf(" note=%s", e.Note)
		}
		fmt.Println()
		if res.status != "pass" && strings.TrimSpace(res.output) != "" {
			fmt.Printf("  output:\n%s\n", res.output)
		}
	}

	if failures > 0 {
		os.Exit(1)
	}
}

func runEntry(e corpusEntry, bin string) result {
	args := []string{
		"url",
		"--llvm-major-version", strconv.Itoa(e.MajorVersion),
		"--os", e.OS,
		"--arch", e.Arch,
	}
	exitCode, out := runCmd(bin, args...)
	exitSuccess := exitCode == 0

	status := "fail"
	if e.ExpectError != "" {
		if !exitSuccess && strings.Contains(out, e.ExpectError) {
			status = "pass"
		}
	} else {
		want := llvminstaller.NewURLBuilder("", "", "").URLForTag(e.ExpectTag)
		if exitSuccess && strings.TrimSpace(out) == want {
			status = "pass"
		}
	}

	return result{entry: e, status: status, exitSuccess: exitSuccess, output: out}
}

func runCmd(bin string, args ...string) (int, string) {
	cmd := exec.Command(bin, args...) // #nosec G204 -- harness runs the binary the operator pointed it at
	out, err := cmd.CombinedOutput()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return exitErr.ExitCode(), string(out)
		}
		return 1, string(out)
	}
	return 0, string(out)
}

func loadManifest(path string) ([]corpusEntry, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- harness manifest path
	if err != nil {
		return nil, err
	}
	var entries []corpusEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func validateEntries(entries []corpusEntry) error {
	for i, e := range entries {
		if e.MajorVersion < 1 {
			return fmt.Errorf("entry %d: majorVersion is required", i)
		}
		if strings.TrimSpace(e.OS) == "" {
			return fmt.Errorf("entry %d: os is required", i)
		}
		switch e.Arch {
		case "x86_64", "aarch64", "arm64":
		default:
			return fmt.Errorf("entry %d: arch must be x86_64, aarch64, or arm64", i)
		}
		if (e.ExpectTag == "") == (e.ExpectError == "") {
			return fmt.Errorf("entry %d: exactly one of expectTag or expectError is required", i)
		}
	}
	return nil
}

func firstSet(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

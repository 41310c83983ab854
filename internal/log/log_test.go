package log

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

// Init swaps the process-wide logger, so these tests run sequentially.

func TestInitDefaultLevelSuppressesInfo(t *testing.T) {
	var buf bytes.Buffer
	Init(Options{Stderr: &buf})

	Debug("debug line")
	Info("info line")
	Warn("warn line")

	out := buf.String()
	if strings.Contains(out, "debug line") || strings.Contains(out, "info line") {
		t.Errorf("quiet logger emitted sub-warning output: %q", out)
	}
	if !strings.Contains(out, "warn line") {
		t.Errorf("warning missing from output: %q", out)
	}
}

func TestInitVerboseEmitsDebug(t *testing.T) {
	var buf bytes.Buffer
	Init(Options{Verbose: true, Stderr: &buf})

	Debug("resolving release", "major", 17)

	out := buf.String()
	if !strings.Contains(out, "resolving release") || !strings.Contains(out, "major=17") {
		t.Errorf("debug record missing attributes: %q", out)
	}
}

func TestInitJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	Init(Options{Verbose: true, JSONFormat: true, Stderr: &buf})

	Info("downloaded package", "size", "12 MB")

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("output is not a JSON record: %v (%q)", err, buf.String())
	}
	if record["msg"] != "downloaded package" || record["size"] != "12 MB" {
		t.Errorf("unexpected record %v", record)
	}
}

func TestWithCarriesContext(t *testing.T) {
	var buf bytes.Buffer
	Init(Options{Verbose: true, Stderr: &buf})

	With("tag", "v17.0.6-yb-2-1741460333-8907dec2-almalinux8-x86_64").Info("installing")

	out := buf.String()
	if !strings.Contains(out, "tag=v17.0.6-yb-2-1741460333-8907dec2-almalinux8-x86_64") {
		t.Errorf("context attribute missing: %q", out)
	}
}

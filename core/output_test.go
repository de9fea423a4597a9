package core

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	jsoniter "github.com/json-iterator/go"
)

func readRecords(t *testing.T, path string) []OutputRecord {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read output file: %v", err)
	}
	var out []OutputRecord
	for _, line := range strings.Split(strings.TrimSpace(string(data)), "\n") {
		if line == "" {
			continue
		}
		var rec OutputRecord
		if err := jsoniter.UnmarshalFromString(line, &rec); err != nil {
			t.Fatalf("bad line %q: %v", line, err)
		}
		out = append(out, rec)
	}
	return out
}

func TestOutputSkipsDuplicateWrites(t *testing.T) {
	dir := t.TempDir()

	out, err := NewOutput(dir, "out.jsonl")
	if err != nil {
		t.Fatalf("open output: %v", err)
	}
	t.Cleanup(out.Close)

	jane := OutputRecord{ProductName: "Acme", ProductURL: "https://hunt.example/products/acme", MakerProfileURL: "https://hunt.example/@jane"}
	bob := jane
	bob.MakerProfileURL = "https://hunt.example/@bob"
	shouted := jane
	shouted.ProductURL = strings.ToUpper(jane.ProductURL)

	for _, rec := range []OutputRecord{jane, jane, shouted, bob} {
		if _, err := out.WriteRecord(rec); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	out.Close()

	got := readRecords(t, filepath.Join(dir, "out.jsonl"))
	if len(got) != 2 {
		t.Fatalf("expected 2 records, got %d: %v", len(got), got)
	}
	if got[0].MakerProfileURL != jane.MakerProfileURL || got[1].MakerProfileURL != bob.MakerProfileURL {
		t.Fatalf("unexpected records: %v", got)
	}
}

func TestOutputLoadsExistingEntries(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "existing.jsonl")
	seed := OutputRecord{ProductName: "Acme", ProductURL: "https://hunt.example/products/acme"}
	line, _ := jsoniter.MarshalToString(seed)
	if err := os.WriteFile(path, []byte(line+"\nnot json\n"), 0o600); err != nil {
		t.Fatalf("failed to seed file: %v", err)
	}

	out, err := NewOutputPath(path)
	if err != nil {
		t.Fatalf("open output: %v", err)
	}
	t.Cleanup(out.Close)

	wrote, err := out.WriteRecord(seed)
	if err != nil || wrote {
		t.Fatalf("seeded record should be skipped, wrote=%v err=%v", wrote, err)
	}
	next := OutputRecord{ProductName: "Rocket", ProductURL: "https://hunt.example/products/rocket"}
	if wrote, err = out.WriteRecord(next); err != nil || !wrote {
		t.Fatalf("new record should be written, wrote=%v err=%v", wrote, err)
	}
	out.Close()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read output file: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d: %v", len(lines), lines)
	}
	if !strings.Contains(lines[2], `"product_name":"Rocket"`) {
		t.Fatalf("unexpected last line: %s", lines[2])
	}
}

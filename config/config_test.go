package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "flashsort.jsonc")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("writing config fixture: %v", err)
	}
	return path
}

func TestLoadAcceptsCommentsAndTrailingCommas(t *testing.T) {
	path := writeConfig(t, `{
		// where the unsorted input lives
		"input_path": "in.bin",
		"page_size": 4096,
		"header_size": 6,
		"record_size": 32,
		"num_pages": 1000,
		"num_records": 120000,
		"ram_budget": 65536, // region index budget
	}`)

	f, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if f.InputPath != "in.bin" {
		t.Fatalf("InputPath = %q, want in.bin", f.InputPath)
	}
	if f.OutputPath != "in.bin.sorted" {
		t.Fatalf("OutputPath default = %q, want in.bin.sorted", f.OutputPath)
	}
	p := f.Params()
	if p.PageSize != 4096 || p.RAMBudget != 65536 {
		t.Fatalf("Params() = %+v, unexpected", p)
	}
}

func TestLoadRejectsMissingInputPath(t *testing.T) {
	path := writeConfig(t, `{"page_size": 64}`)
	if _, err := Load(path); err == nil {
		t.Fatalf("expected an error for a config with no input_path")
	}
}

func TestLoadRejectsMalformedFile(t *testing.T) {
	path := writeConfig(t, `{"input_path": "in.bin", `)
	if _, err := Load(path); err == nil {
		t.Fatalf("expected an error for malformed JSONC")
	}
}

func TestLoadWrapsMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "does-not-exist.jsonc")); err == nil {
		t.Fatalf("expected an error for a nonexistent path")
	}
}

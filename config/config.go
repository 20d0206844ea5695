// Package config loads flashsort.Params (plus a few CLI-facing extras)
// from a JSONC file on disk.
package config

import (
	"errors"
	"fmt"
	"os"

	goccyjson "github.com/goccy/go-json"
	"github.com/tailscale/hujson"

	"github.com/flashsort-go/flashsort"
)

var errEmptyInputPath = errors.New("config: input_path must not be empty")

// File is the on-disk shape of a flashsort config file. Field names are
// snake_case to match the JSONC surface a user hand-edits; Params mirrors
// flashsort.Params exactly so File can be decoded once and split apart.
type File struct {
	InputPath  string `json:"input_path"`
	OutputPath string `json:"output_path"`

	PageSize   int `json:"page_size"`
	HeaderSize int `json:"header_size"`
	RecordSize int `json:"record_size"`
	NumPages   int `json:"num_pages"`
	NumRecords int `json:"num_records"`
	RAMBudget  int `json:"ram_budget"`
}

// Params extracts the flashsort.Params embedded in f.
func (f File) Params() flashsort.Params {
	return flashsort.Params{
		PageSize:   f.PageSize,
		HeaderSize: f.HeaderSize,
		RecordSize: f.RecordSize,
		NumPages:   f.NumPages,
		NumRecords: f.NumRecords,
		RAMBudget:  f.RAMBudget,
	}
}

// Load reads and parses a JSONC config file at path. Comments and trailing
// commas (hujson's relaxations over strict JSON) are accepted; goccy/go-json
// decodes the standardized result.
func Load(path string) (File, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return File{}, fmt.Errorf("config: reading %s: %w", path, err)
	}

	standardized, err := hujson.Standardize(raw)
	if err != nil {
		return File{}, fmt.Errorf("config: %s is not valid JSONC: %w", path, err)
	}

	var f File
	if err := goccyjson.Unmarshal(standardized, &f); err != nil {
		return File{}, fmt.Errorf("config: decoding %s: %w", path, err)
	}

	if f.InputPath == "" {
		return File{}, fmt.Errorf("config: %s: %w", path, errEmptyInputPath)
	}
	if f.OutputPath == "" {
		f.OutputPath = f.InputPath + ".sorted"
	}

	return f, nil
}

package phonics

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// InventoryFile is the top-level structure of an inventory YAML file,
// used for regional or per-tenant correspondence variants.
//
// Example:
//
//	name: "us-core"
//	gpcs:
//	  - grapheme: sh
//	    phoneme: /sh/
//	    examples: [ship, shop]
//	tricky_words: [the, of, was]
type InventoryFile struct {
	Name        string   `yaml:"name"`
	GPCs        []GPC    `yaml:"gpcs"`
	TrickyWords []string `yaml:"tricky_words"`
}

// Build constructs the immutable Inventory described by the file.
func (f *InventoryFile) Build() (*Inventory, error) {
	return NewInventory(f.Name, f.GPCs, NewTrickyWords(f.TrickyWords...))
}

// LoadInventoryFile reads an inventory YAML file from disk and builds the
// Inventory it describes.
func LoadInventoryFile(path string) (*Inventory, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("phonics: open inventory file %q: %w", path, err)
	}
	defer f.Close()

	inv, err := LoadInventoryFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("phonics: parse inventory file %q: %w", path, err)
	}
	return inv, nil
}

// LoadInventoryFromReader parses inventory YAML from an [io.Reader] and
// builds the Inventory. The reader is consumed entirely; the caller closes it.
func LoadInventoryFromReader(r io.Reader) (*Inventory, error) {
	var f InventoryFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true) // reject unknown keys to catch typos
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("phonics: decode inventory yaml: %w", err)
	}
	return f.Build()
}

// ParseInventoryFile decodes an inventory YAML file without building the
// Inventory, for callers that persist the raw definition (e.g. the
// curriculum store importer).
func ParseInventoryFile(path string) (*InventoryFile, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("phonics: open inventory file %q: %w", path, err)
	}
	defer fh.Close()

	var f InventoryFile
	dec := yaml.NewDecoder(fh)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("phonics: decode inventory file %q: %w", path, err)
	}
	return &f, nil
}

// LoadFingerprintFile reads a learner fingerprint YAML document from disk.
// The fingerprint is validated before it is returned.
func LoadFingerprintFile(path string) (*Fingerprint, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("phonics: open fingerprint file %q: %w", path, err)
	}
	defer f.Close()

	fp, err := LoadFingerprintFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("phonics: parse fingerprint file %q: %w", path, err)
	}
	return fp, nil
}

// LoadFingerprintFromReader parses and validates fingerprint YAML from an
// [io.Reader].
func LoadFingerprintFromReader(r io.Reader) (*Fingerprint, error) {
	var fp Fingerprint
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&fp); err != nil {
		return nil, fmt.Errorf("phonics: decode fingerprint yaml: %w", err)
	}
	if err := fp.Validate(); err != nil {
		return nil, err
	}
	return &fp, nil
}

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

// writeJSONOut pretty-prints v to the command's stdout.
func writeJSONOut(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return nil
}

// readTextInput resolves the text argument shared by validate and assess:
// an inline --text value, a file path, or stdin when the path is "-".
func readTextInput(text, path string) (string, error) {
	if text != "" {
		return text, nil
	}
	if path == "" {
		return "", fmt.Errorf("either --text or --file is required")
	}
	if path == "-" {
		b, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(b), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %q: %w", path, err)
	}
	return string(b), nil
}

package main

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// loadExpectedAnswers reads a TOML file mapping question numbers to expected
// answers, e.g.
//
//	"1" = "x = 7"
//	"9a" = "{x ∈ ℝ | x ≠ -1}"
func loadExpectedAnswers(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read expected answers: %w", err)
	}
	expected := make(map[string]string)
	if err := toml.Unmarshal(data, &expected); err != nil {
		return nil, fmt.Errorf("parse expected answers %s: %w", path, err)
	}
	return expected, nil
}

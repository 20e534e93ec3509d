// Package deps probes the external tools scrawl shells out to or links
// against, so the health command can report missing installations before a
// run fails mid-pipeline.
package deps

import (
	"fmt"
	"os/exec"
	"strings"

	"scrawl/internal/config"
)

// Requirement defines an external dependency scrawl relies on.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// Status reports the availability of a dependency.
type Status struct {
	Name        string
	Command     string
	Description string
	Optional    bool
	Available   bool
	Detail      string
}

// Default returns the requirements implied by the configuration. Tesseract
// is only required when its backend is enabled.
func Default(cfg *config.Config) []Requirement {
	var reqs []Requirement
	if cfg.Tesseract.Enabled {
		reqs = append(reqs, Requirement{
			Name:        "Tesseract",
			Command:     "tesseract",
			Description: "local OCR engine backing the tesseract recognition backend",
		})
	}
	return reqs
}

// CheckBinaries evaluates the provided requirements and reports availability.
func CheckBinaries(requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		cmd := strings.TrimSpace(req.Command)
		status := Status{
			Name:        req.Name,
			Command:     cmd,
			Description: strings.TrimSpace(req.Description),
			Optional:    req.Optional,
		}
		if cmd == "" {
			status.Detail = "command not configured"
			results = append(results, status)
			continue
		}
		if _, err := exec.LookPath(cmd); err != nil {
			status.Detail = fmt.Sprintf("binary %q not found", cmd)
			results = append(results, status)
			continue
		}
		status.Available = true
		results = append(results, status)
	}
	return results
}

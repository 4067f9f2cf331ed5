// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package bibliography

import (
	"fmt"
	"os"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/nmbu-cigene/pubgrab/pkg/types"
)

// RunFile is the on-disk record of one pubgrab run: the query
// parameters, a fetch summary, and the deduplicated records. A saved
// run can be reloaded later without touching the registry.
type RunFile struct {
	Query        RunQuery            `yaml:"query"`
	Summary      RunSummary          `yaml:"summary"`
	Publications []types.Publication `yaml:"publications"`
}

// RunQuery stores the query parameters in a serializable form.
type RunQuery struct {
	Authors  []string `yaml:"authors"`
	FromYear int      `yaml:"from_year,omitempty"`
	ToYear   int      `yaml:"to_year,omitempty"`
	Category string   `yaml:"category,omitempty"`
}

// RunSummary stores result statistics and a timestamp.
type RunSummary struct {
	Total             int       `yaml:"total"`
	DuplicatesRemoved int       `yaml:"duplicates_removed"`
	Failures          []string  `yaml:"failures,omitempty"`
	Timestamp         time.Time `yaml:"timestamp"`
}

// WriteRunFile saves query parameters and deduplicated records to a
// YAML file.
func WriteRunFile(path string, query RunQuery, pubs []types.Publication, removed int, failures []string) error {
	rf := RunFile{
		Query: query,
		Summary: RunSummary{
			Total:             len(pubs),
			DuplicatesRemoved: removed,
			Failures:          failures,
			Timestamp:         time.Now(),
		},
		Publications: pubs,
	}

	data, err := yaml.Marshal(&rf)
	if err != nil {
		return fmt.Errorf("marshaling run file: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// ReadRunFile loads a previously saved run file from disk.
func ReadRunFile(path string) (*RunFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading run file: %w", err)
	}
	var rf RunFile
	if err := yaml.Unmarshal(data, &rf); err != nil {
		return nil, fmt.Errorf("parsing run file: %w", err)
	}
	return &rf, nil
}

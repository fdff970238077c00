package mockserver

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed fixtures/default.yaml
var defaultFixtures []byte

type fixtureFile struct {
	Users         map[string]int64 `yaml:"users"` // token -> user id
	MergeRequests []Record         `yaml:"merge_requests"`
}

// Fixtures is the seed data for a mock backend.
type Fixtures struct {
	Users   map[string]int64
	Records []Record
}

// DefaultFixtures returns the embedded demo data.
func DefaultFixtures() (Fixtures, error) {
	return parseFixtures(defaultFixtures)
}

// LoadFixtures reads fixtures from a YAML file. An empty path returns the
// embedded defaults.
func LoadFixtures(path string) (Fixtures, error) {
	if path == "" {
		return DefaultFixtures()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Fixtures{}, fmt.Errorf("read fixtures: %w", err)
	}
	return parseFixtures(data)
}

func parseFixtures(data []byte) (Fixtures, error) {
	var f fixtureFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return Fixtures{}, fmt.Errorf("parse fixtures: %w", err)
	}

	seen := make(map[string]struct{}, len(f.MergeRequests))
	for i, r := range f.MergeRequests {
		if r.ID == "" {
			return Fixtures{}, fmt.Errorf("merge_requests[%d]: missing id", i)
		}
		if _, dup := seen[r.ID]; dup {
			return Fixtures{}, fmt.Errorf("merge_requests[%d]: duplicate id %q", i, r.ID)
		}
		seen[r.ID] = struct{}{}
	}

	return Fixtures{Users: f.Users, Records: f.MergeRequests}, nil
}

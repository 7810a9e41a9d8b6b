package loader

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/leapstack-labs/rulecraft/pkg/adapt"
)

// LoadPlatforms reads platform descriptors from a YAML file or from every
// *.yaml / *.yml file in a directory (non-recursive, name order).
func LoadPlatforms(path string) ([]adapt.Platform, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("platform descriptors: %w", err)
	}

	files := []string{path}
	if info.IsDir() {
		entries, err := os.ReadDir(path)
		if err != nil {
			return nil, fmt.Errorf("platform descriptors: %w", err)
		}
		files = files[:0]
		for _, e := range entries {
			ext := strings.ToLower(filepath.Ext(e.Name()))
			if !e.IsDir() && (ext == ".yaml" || ext == ".yml") {
				files = append(files, filepath.Join(path, e.Name()))
			}
		}
		sort.Strings(files)
	}

	var out []adapt.Platform
	for _, f := range files {
		data, err := os.ReadFile(f)
		if err != nil {
			return nil, fmt.Errorf("failed to read platform descriptor: %w", err)
		}
		platforms, err := adapt.ParsePlatforms(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", f, err)
		}
		out = append(out, platforms...)
	}
	return out, nil
}

package patterns

import "github.com/leapstack-labs/rulecraft/pkg/core"

// ConsistencyMetrics summarizes how uniform a project's naming and layout are.
type ConsistencyMetrics struct {
	// NamingConsistency is the mean confidence over categories with classified names.
	NamingConsistency        float64 `json:"naming_consistency"`
	FileNaming               float64 `json:"file_naming"`
	DirectoryNaming          float64 `json:"directory_naming"`
	MaxDirectoryDepth        int     `json:"max_directory_depth"`
	AverageFilesPerDirectory float64 `json:"average_files_per_directory"`
	SampledFiles             int     `json:"sampled_files"`
}

func computeConsistency(model *core.ProjectModel, naming NamingProfile, sampled int) ConsistencyMetrics {
	m := ConsistencyMetrics{SampledFiles: sampled}

	sum, n := 0.0, 0
	for _, cat := range Categories {
		p := naming[cat]
		if p.Total == 0 {
			continue
		}
		sum += p.Confidence
		n++
	}
	if n > 0 {
		m.NamingConsistency = clamp01(sum / float64(n))
	}
	m.FileNaming = naming[CategoryFiles].Confidence
	m.DirectoryNaming = naming[CategoryDirectories].Confidence

	if model == nil {
		return m
	}
	for _, d := range model.Directories {
		m.MaxDirectoryDepth = max(m.MaxDirectoryDepth, d.Depth)
	}

	// files per directory that actually holds files, the root included
	holding := make(map[string]bool)
	for _, f := range model.Files {
		holding[f.Dir()] = true
	}
	if len(holding) > 0 {
		m.AverageFilesPerDirectory = float64(len(model.Files)) / float64(len(holding))
	}
	return m
}

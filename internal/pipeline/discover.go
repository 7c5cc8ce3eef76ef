package pipeline

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ListSources returns regular files in dir whose extension is one of exts
// (case-insensitive), sorted by name.
func ListSources(dir string, exts []string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	out := []string{}
	for _, entry := range entries {
		if entry.IsDir() || !hasExtension(entry.Name(), exts) {
			continue
		}
		out = append(out, filepath.Join(dir, entry.Name()))
	}
	sort.Strings(out)
	return out, nil
}

func hasExtension(name string, exts []string) bool {
	lower := strings.ToLower(name)
	for _, ext := range exts {
		if strings.HasSuffix(lower, strings.ToLower(ext)) {
			return true
		}
	}
	return false
}

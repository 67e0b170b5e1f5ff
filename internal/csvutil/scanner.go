package csvutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/harborscm/csvsift/internal/bytesource"
)

// ScanDirectory returns all delimited-text file paths found in dir
// (non-recursive), compressed variants included.
func ScanDirectory(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading directory %s: %w", dir, err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if IsDelimited(e.Name()) {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	return files, nil
}

// IsDelimited reports whether name carries a delimited-text extension,
// optionally under a recognized compression extension.
func IsDelimited(name string) bool {
	if bytesource.IsCompressed(name) {
		name = strings.TrimSuffix(name, filepath.Ext(name))
	}
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv", ".tsv", ".txt":
		return true
	}
	return false
}

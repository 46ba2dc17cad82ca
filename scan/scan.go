package scan

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// CollectInputs expands the given arguments into an ordered list of EML file
// paths. File arguments are taken as-is; directory arguments are walked
// recursively and every *.eml file (case-insensitive) below them is added.
// Duplicates are removed, first occurrence wins.
func CollectInputs(args []string) ([]string, error) {
	var files []string
	seen := make(map[string]bool)

	add := func(path string) {
		if !seen[path] {
			seen[path] = true
			files = append(files, path)
		}
	}

	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", arg, err)
		}

		if !info.IsDir() {
			add(arg)
			continue
		}

		err = filepath.WalkDir(arg, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && IsEmlFile(path) {
				add(path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walk %s: %w", arg, err)
		}
	}

	return files, nil
}

// IsEmlFile reports whether path has the .eml extension, ignoring case.
func IsEmlFile(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".eml")
}

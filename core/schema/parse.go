package schema

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FileExtension is the conventional extension of declaration files.
const FileExtension = ".runtime"

// ParseFile parses a runtime declaration from a file.
func ParseFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file %s: %w", path, err)
	}

	return Parse(data, path)
}

// Parse parses a runtime declaration. The filename is used in error positions
// and may be empty.
func Parse(src []byte, filename string) (*File, error) {
	return newParser(src, filename).parseFile()
}

// ParseString parses a runtime declaration held in a string.
func ParseString(src string) (*File, error) {
	return Parse([]byte(src), "")
}

// FindFiles returns the declaration files in a directory, in name order.
// Subdirectories are not searched.
func FindFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read dir %s: %w", dir, err)
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), FileExtension) {
			continue
		}
		paths = append(paths, filepath.Join(dir, entry.Name()))
	}
	return paths, nil
}

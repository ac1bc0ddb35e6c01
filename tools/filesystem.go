// Package tools implements the host-side filesystem services an agent can
// call over ACP: reading text files, listing directories, and recursive glob
// search. Paths are used as the agent sends them; scoping them to a
// workspace is the embedding host's concern.
package tools

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/termweave/agentlink/errors"
)

// ReadTextFile returns the contents of a text file. A non-nil line selects a
// 1-based starting line and a non-nil limit caps the number of lines
// returned; with both nil the whole file comes back unchanged.
func ReadTextFile(path string, line, limit *int) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", errors.Wrapf(err, "failed to read file '%s'", path)
	}
	if line == nil && limit == nil {
		return string(data), nil
	}

	lines := strings.Split(string(data), "\n")
	start := 0
	if line != nil && *line > 1 {
		start = *line - 1
	}
	if start >= len(lines) {
		return "", nil
	}
	lines = lines[start:]
	if limit != nil && *limit >= 0 && *limit < len(lines) {
		lines = lines[:*limit]
	}
	return strings.Join(lines, "\n"), nil
}

// ListDirectory returns the names of a directory's immediate children,
// optionally filtered by a glob pattern matched against each name.
// Subdirectories carry a trailing separator so the agent can tell them
// apart without another round trip.
func ListDirectory(path, pattern string) ([]string, error) {
	if pattern != "" {
		if !doublestar.ValidatePattern(pattern) {
			return nil, errors.New("invalid glob pattern '%s'", pattern)
		}
	}

	dirents, err := os.ReadDir(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to list directory '%s'", path)
	}

	entries := make([]string, 0, len(dirents))
	for _, de := range dirents {
		name := de.Name()
		if pattern != "" {
			match, err := doublestar.Match(pattern, name)
			if err != nil {
				return nil, errors.Wrapf(err, "invalid glob pattern '%s'", pattern)
			}
			if !match {
				continue
			}
		}
		if de.IsDir() {
			name += string(filepath.Separator)
		}
		entries = append(entries, name)
	}
	return entries, nil
}

// Find searches root recursively for files matching a doublestar glob
// pattern and returns their paths relative to root.
func Find(root, pattern string) ([]string, error) {
	if !doublestar.ValidatePattern(pattern) {
		return nil, errors.New("invalid glob pattern '%s'", pattern)
	}

	files, err := doublestar.Glob(os.DirFS(root), pattern)
	if err != nil {
		return nil, errors.Wrapf(err, "glob '%s' failed under '%s'", pattern, root)
	}
	if files == nil {
		files = []string{}
	}
	return files, nil
}

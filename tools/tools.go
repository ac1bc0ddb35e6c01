package tools

import (
	"github.com/bmatcuk/doublestar/v4"
	"github.com/termweave/agentlink/errors"
)

// Restricted reports whether path matches any of the glob patterns. Hosts
// use it to keep configured paths out of agent reach.
func Restricted(path string, patterns []string) (bool, error) {
	for _, pattern := range patterns {
		match, err := doublestar.PathMatch(pattern, path)
		if err != nil {
			return false, errors.Wrapf(err, "invalid glob pattern '%s'", pattern)
		}
		if match {
			return true, nil
		}
	}
	return false, nil
}

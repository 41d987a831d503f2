// SPDX-License-Identifier: AGPL-3.0-or-later

// Package project locates the plan project root on disk.
package project

import (
	"fmt"
	"os"
	"path/filepath"
)

// markers identify a project root, checked in order at each level.
var markers = []string{".git", "go.mod", "CLAUDE.md", "package.json"}

// FindRoot walks up from start looking for a root marker. It returns the
// first directory containing one, or start itself when nothing matches.
func FindRoot(start string) (string, error) {
	abs, err := filepath.Abs(start)
	if err != nil {
		return "", fmt.Errorf("resolving project root: %w", err)
	}

	dir := abs
	for {
		for _, marker := range markers {
			if _, err := os.Stat(filepath.Join(dir, marker)); err == nil {
				return dir, nil
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return abs, nil
		}
		dir = parent
	}
}

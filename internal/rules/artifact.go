// SPDX-License-Identifier: AGPL-3.0-or-later

package rules

import (
	"os"
	"path/filepath"
	"strings"
)

var proseStarters = []string{
	"a ", "an ", "the ", "all ", "no ", "each ", "every ", "this ", "that ",
}

var prosePatterns = []string{
	" is ", " are ", " was ", " were ", " has ", " have ", " had ",
	" running ", " configured ", " enabled ", " installed ", " stored ",
	" verified ", " completed ", " generated ", " created ",
}

// ValidArtifactPath reports whether a declared artifact string looks like a
// file path rather than prose, plus the reason when it does not. The
// heuristics err toward flagging: sentences, article openers, and verb
// phrases are all treated as prose.
func ValidArtifactPath(path string) (bool, string) {
	path = strings.TrimSpace(path)
	if path == "" {
		return false, "empty path"
	}

	words := strings.Fields(path)
	hasSeparator := strings.ContainsAny(path, `/\`)
	if len(words) > 4 && strings.Contains(path, " ") && !hasSeparator {
		return false, "looks like prose (multiple words, no path separators)"
	}

	lower := strings.ToLower(path)
	for _, starter := range proseStarters {
		if strings.HasPrefix(lower, starter) {
			return false, "starts with article/determiner"
		}
	}
	for _, pattern := range prosePatterns {
		if strings.Contains(lower, pattern) {
			return false, "contains verb phrase '" + strings.TrimSpace(pattern) + "'"
		}
	}

	first := rune(path[0])
	startsValid := isAlnum(first) ||
		strings.HasPrefix(path, ".") || strings.HasPrefix(path, "/")
	if !startsValid {
		return false, "doesn't start with valid path character"
	}

	last := path
	if i := strings.LastIndex(path, "/"); i >= 0 {
		last = path[i+1:]
	}
	hasExtension := strings.Contains(last, ".")
	hasGlob := strings.Contains(path, "*")

	if !hasSeparator && !hasExtension && !hasGlob {
		// A single bare word could still be a directory name.
		if len(path) > 30 {
			return false, "too long for single directory name"
		}
	}

	return true, "valid"
}

func isAlnum(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}

// pathVariations maps legacy or commonly-mistaken directory prefixes to their
// current equivalents. Checked in order; purely prefix swaps, no filesystem
// walking.
var pathVariations = [][2]string{
	{"artifacts/misc/", ""},
	{"artifacts/", ""},
	{"packages/ai/", "apps/ai-worker/"},
	{"packages/api/", "apps/api/"},
	{"packages/api/src/", "apps/api/src/"},
	{"apps/web/components/", "apps/web/src/components/"},
	{"apps/web/components/", "packages/ui/src/components/"},
	{"apps/web/components/ui/", "packages/ui/src/components/"},
	{"artifacts/misc/prisma/", "packages/db/prisma/"},
	{"artifacts/misc/", "docs/"},
}

// FindSimilarPaths suggests alternate locations for a missing artifact by
// applying the known prefix substitutions and checking what exists under
// projectRoot. Glob patterns are checked by their directory prefix.
func FindSimilarPaths(missingPath, projectRoot string, maxSuggestions int) []string {
	var suggestions []string

	filename := missingPath
	if i := strings.LastIndex(missingPath, "/"); i >= 0 {
		filename = missingPath[i+1:]
		filename = strings.ReplaceAll(filename, "*", "")
	}
	if filename == "" || filename == "*" {
		return nil
	}

	for _, variation := range pathVariations {
		oldPrefix, newPrefix := variation[0], variation[1]
		if !strings.Contains(missingPath, oldPrefix) {
			continue
		}
		alternative := strings.Replace(missingPath, oldPrefix, newPrefix, 1)
		if alternative == "" {
			alternative = filename
		}

		var checkPath string
		if strings.Contains(alternative, "*") {
			dirPart := strings.TrimRight(strings.SplitN(alternative, "*", 2)[0], "/")
			checkPath = filepath.Join(projectRoot, dirPart)
		} else {
			checkPath = filepath.Join(projectRoot, strings.TrimPrefix(alternative, "/"))
		}

		if pathExists(checkPath) && !contains(suggestions, alternative) {
			suggestions = append(suggestions, alternative)
			if len(suggestions) >= maxSuggestions {
				return suggestions
			}
		}
	}

	// Artifacts sometimes live at the project root under their bare name.
	if strings.Contains(missingPath, "artifacts/") {
		if pathExists(filepath.Join(projectRoot, filename)) && !contains(suggestions, filename) {
			suggestions = append(suggestions, filename)
		}
	}

	return suggestions
}

// ArtifactExists checks a declared artifact path against the project root.
// Glob patterns resolve by the existence of their directory prefix.
func ArtifactExists(projectRoot, artifactPath string) bool {
	if strings.Contains(artifactPath, "*") {
		dirPart := strings.TrimRight(strings.SplitN(artifactPath, "*", 2)[0], `/\`)
		return pathExists(filepath.Join(projectRoot, dirPart))
	}
	return pathExists(filepath.Join(projectRoot, artifactPath))
}

func pathExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

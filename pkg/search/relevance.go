package search

import (
	"path"
	"sort"
	"strings"
	"time"
)

var keyFiles = map[string]bool{
	"main.go": true, "main.py": true, "main.rs": true, "lib.rs": true,
	"index.js": true, "index.ts": true, "app.py": true, "app.js": true,
	"server.go": true, "package.json": true, "go.mod": true, "cargo.toml": true,
	"pyproject.toml": true, "requirements.txt": true, "pom.xml": true,
	"build.gradle": true, "gemfile": true, "composer.json": true,
	"makefile": true, "dockerfile": true,
}

var sourcePrefixes = []string{"src/", "lib/", "app/", "pkg/", "internal/", "cmd/"}

var outputPrefixes = []string{"dist/", "build/", "vendor/", "node_modules/", "target/", "coverage/", "out/"}

// CalculateRelevanceScore scores a match from 0 to 100: up to 50 for the
// match count, 5 to 30 for where the file lives and up to 20 for how
// recently it changed
func CalculateRelevanceScore(filePath string, filenameMatches, contentMatches int, lastModified time.Time) int {
	return relevanceAt(filePath, filenameMatches, contentMatches, lastModified, time.Now())
}

func relevanceAt(filePath string, filenameMatches, contentMatches int, lastModified, now time.Time) int {
	score := min(50, 10*(filenameMatches+contentMatches))
	score += importance(filePath)
	score += recency(now.Sub(lastModified))
	return min(100, score)
}

// importance applies the first matching rule
func importance(filePath string) int {
	p := strings.ToLower(strings.TrimPrefix(path.Clean("/"+filePath), "/"))
	base := path.Base(p)

	switch {
	case keyFiles[base], strings.HasPrefix(base, "readme"), strings.Contains(p, "config"):
		return 30
	case hasAnyPrefix(p, sourcePrefixes):
		return 20
	case hasAnyPrefix(p, outputPrefixes):
		return 5
	default:
		return 10
	}
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, prefix := range prefixes {
		if strings.HasPrefix(s, prefix) {
			return true
		}
	}
	return false
}

func recency(age time.Duration) int {
	const day = 24 * time.Hour
	switch {
	case age < day:
		return 20
	case age < 7*day:
		return 15
	case age < 30*day:
		return 10
	case age < 365*day:
		return 5
	default:
		return 0
	}
}

// SortByRelevance orders matches by descending score, keeping traversal
// order among equal scores
func SortByRelevance(matches []Match) {
	now := time.Now()
	scores := make(map[string]int, len(matches))
	for _, m := range matches {
		scores[m.FilePath] = relevanceAt(m.FilePath, m.FilenameMatchCount, m.ContentMatchCount, m.LastModified, now)
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return scores[matches[i].FilePath] > scores[matches[j].FilePath]
	})
}

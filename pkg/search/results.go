package search

import (
	"fmt"
	"strings"
	"time"
)

// FormatResults renders a search result for the LLM. Matches are shown in
// the order given; callers sort with SortByRelevance first when they want
// ranked output.
func FormatResults(res *Result, query string, maxResults int, elapsed time.Duration) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("=== SEARCH: %s ===\n", query))
	sb.WriteString(fmt.Sprintf("=== SEARCH RESULTS (%.2fs) ===\n", elapsed.Seconds()))

	if res.Status == StatusTimedOut {
		sb.WriteString("Search timed out; results are partial.\n")
	}

	if len(res.Matches) == 0 {
		sb.WriteString("No files found matching query.\n")
	}

	displayCount := len(res.Matches)
	if maxResults > 0 && displayCount > maxResults {
		displayCount = maxResults
	}

	now := time.Now()
	for i := 0; i < displayCount; i++ {
		m := res.Matches[i]
		score := relevanceAt(m.FilePath, m.FilenameMatchCount, m.ContentMatchCount, m.LastModified, now)

		sb.WriteString(fmt.Sprintf("%d. %s (score: %d)\n", i+1, m.FilePath, score))
		sb.WriteString(fmt.Sprintf("   Size: %s", formatFileSize(m.FileSizeBytes)))
		if m.ContentMatchCount > 0 {
			sb.WriteString(fmt.Sprintf(" | Matches: %d", m.ContentMatchCount))
		}
		sb.WriteString("\n")

		if len(m.MatchedStrings) > 0 {
			sb.WriteString(fmt.Sprintf("   Matched: %s\n", strings.Join(dedupe(m.MatchedStrings), ", ")))
		}
		for _, lm := range m.LineMatches {
			sb.WriteString(fmt.Sprintf("   %d: %s\n", lm.LineNo, lm.Content))
		}
	}

	if len(res.Matches) > displayCount {
		sb.WriteString(fmt.Sprintf("... and %d more results\n", len(res.Matches)-displayCount))
	}

	sb.WriteString(fmt.Sprintf("Scanned %d files", res.FilesScanned))
	if res.BinarySkipped > 0 {
		sb.WriteString(fmt.Sprintf(", %d binary", res.BinarySkipped))
	}
	if res.DirectoriesSkipped > 0 {
		sb.WriteString(fmt.Sprintf(", %d directories skipped", res.DirectoriesSkipped))
	}
	sb.WriteString("\n")

	if len(res.EncounteredExcludes) > 0 {
		sb.WriteString("Excluded:\n")
		for _, ex := range res.EncounteredExcludes {
			sb.WriteString(fmt.Sprintf("   %s (%s)\n", ex.Path, ex.Reason))
		}
	}

	sb.WriteString("=== END SEARCH ===\n")
	return sb.String()
}

// dedupe keeps the first occurrence of each string
func dedupe(items []string) []string {
	seen := make(map[string]bool, len(items))
	out := items[:0:0]
	for _, s := range items {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}

// formatFileSize formats file size in human readable format
func formatFileSize(size int64) string {
	const (
		KB = 1024
		MB = KB * 1024
		GB = MB * 1024
	)

	switch {
	case size >= GB:
		return fmt.Sprintf("%.2f GB", float64(size)/float64(GB))
	case size >= MB:
		return fmt.Sprintf("%.2f MB", float64(size)/float64(MB))
	case size >= KB:
		return fmt.Sprintf("%.2f KB", float64(size)/float64(KB))
	default:
		return fmt.Sprintf("%d B", size)
	}
}

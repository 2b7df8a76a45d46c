package evaluator

import (
	"fmt"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

var (
	// absolute Unix paths not already rewritten relative to a root
	unixPath = regexp.MustCompile(`(^|[\s"'(=:])/[a-zA-Z0-9/_\-\.]+`)
	winPath  = regexp.MustCompile(`[A-Za-z]:\\[a-zA-Z0-9\\_\-\.]+`)

	userPattern = regexp.MustCompile(`(user|host)\s+'[^']+'`)
)

// SanitizeError removes sensitive information from error messages.
// Paths under one of roots become root-relative; any other absolute path
// is replaced with [path]. Returns a safe error suitable for untrusted LLM
// consumption.
func SanitizeError(err error, roots ...string) error {
	if err == nil {
		return nil
	}

	msg := err.Error()

	// Before: "open /home/alice/repo/src/a.go: permission denied"
	// After:  "open src/a.go: permission denied"
	msg = relativizeRoots(msg, roots)

	// Before: "failed to read /etc/passwd"
	// After:  "failed to read [path]"
	msg = sanitizePaths(msg)

	// Before: "permission denied for user 'alice' on host 'dev-machine'"
	// After:  "permission denied for user [redacted] on host [redacted]"
	msg = sanitizeUserInfo(msg)

	return fmt.Errorf("%s", msg)
}

// relativizeRoots rewrites paths inside roots, longest root first so
// nested roots win
func relativizeRoots(msg string, roots []string) string {
	sorted := append([]string(nil), roots...)
	sort.Slice(sorted, func(i, j int) bool { return len(sorted[i]) > len(sorted[j]) })

	for _, root := range sorted {
		if root == "" || root == string(filepath.Separator) {
			continue
		}
		msg = strings.ReplaceAll(msg, root+string(filepath.Separator), "")
		msg = strings.ReplaceAll(msg, root, ".")
	}
	return msg
}

// sanitizePaths removes file system paths
func sanitizePaths(msg string) string {
	msg = unixPath.ReplaceAllString(msg, "${1}[path]")
	msg = winPath.ReplaceAllString(msg, "[path]")
	return msg
}

// sanitizeUserInfo removes usernames and hostnames
func sanitizeUserInfo(msg string) string {
	return userPattern.ReplaceAllString(msg, "$1 [redacted]")
}

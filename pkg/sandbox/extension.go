package sandbox

import (
	"fmt"
	"path/filepath"
	"strings"

	fserrors "github.com/computerscienceiscool/llm-fstools/internal/errors"
)

// ValidateWriteExtension checks that the file's extension is on the allow
// list. An empty list allows everything.
func ValidateWriteExtension(filePath string, allowedExtensions []string) error {
	if len(allowedExtensions) == 0 {
		return nil // No restrictions
	}

	ext := strings.ToLower(filepath.Ext(filePath))
	if ext == "" {
		return fmt.Errorf("%w: file has no extension", fserrors.ErrExtensionDenied)
	}

	for _, allowedExt := range allowedExtensions {
		allowedExt = strings.ToLower(allowedExt)
		if !strings.HasPrefix(allowedExt, ".") {
			allowedExt = "." + allowedExt
		}
		if allowedExt == ext {
			return nil
		}
	}

	return fmt.Errorf("%w: %s", fserrors.ErrExtensionDenied, ext)
}

package search

import "strings"

var binaryExtensions = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true, ".bmp": true,
	".ico": true, ".webp": true, ".tiff": true, ".psd": true, ".heic": true,
	".pdf": true, ".zip": true, ".tar": true, ".gz": true, ".tgz": true,
	".bz2": true, ".xz": true, ".7z": true, ".rar": true, ".jar": true,
	".war": true, ".class": true, ".exe": true, ".dll": true, ".so": true,
	".dylib": true, ".a": true, ".o": true, ".obj": true, ".lib": true,
	".bin": true, ".dat": true, ".db": true, ".sqlite": true, ".wasm": true,
	".mp3": true, ".mp4": true, ".wav": true, ".avi": true, ".mov": true,
	".mkv": true, ".flac": true, ".ogg": true, ".woff": true, ".woff2": true,
	".ttf": true, ".otf": true, ".eot": true, ".pyc": true, ".pyo": true,
	".iso": true, ".dmg": true,
}

// directories whose contents are treated as binary regardless of extension
var binaryDirs = map[string]bool{
	"bin":           true,
	"obj":           true,
	"__pycache__":   true,
	".gradle":       true,
	".mypy_cache":   true,
	".pytest_cache": true,
}

// isBinaryPath classifies a file by extension or by any ancestor directory
// of its slash-separated root-relative path
func isBinaryPath(rel, ext string) bool {
	if binaryExtensions[ext] {
		return true
	}
	parts := strings.Split(rel, "/")
	for _, dir := range parts[:len(parts)-1] {
		if binaryDirs[dir] {
			return true
		}
	}
	return false
}

// probeLines is how many leading lines are checked for binary content
const probeLines = 5

// looksBinary reports a NUL byte or a control byte density above 30%
func looksBinary(line []byte) bool {
	if len(line) == 0 {
		return false
	}
	control := 0
	for _, b := range line {
		switch {
		case b == 0:
			return true
		case b == '\t' || b == '\r' || b == '\f' || b == '\v':
		case b < 0x20 || b == 0x7f:
			control++
		}
	}
	return control*10 > len(line)*3
}

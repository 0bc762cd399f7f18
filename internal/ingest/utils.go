package ingest

import (
	"path/filepath"
	"strings"

	"github.com/joseph-ayodele/syllabus-calendar/constants"
)

// Accepted reports whether the file extension maps to an accepted upload type.
func Accepted(path string) bool {
	return constants.MIMEFromExt(filepath.Ext(path)) != ""
}

// IsHidden checks if a file or directory is hidden (starts with '.').
func IsHidden(path string) bool {
	base := filepath.Base(path)
	return strings.HasPrefix(base, ".")
}

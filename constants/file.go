package constants

import (
	"fmt"
	"mime"
	"strings"
)

// Accepted upload MIME types.
const (
	MIMEPDF  = "application/pdf"
	MIMEDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	MIMEXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	MIMEXLS  = "application/vnd.ms-excel"
	MIMEJPEG = "image/jpeg"
	MIMEPNG  = "image/png"
	MIMEHEIC = "image/heic"
	MIMEHEIF = "image/heif"
)

// MIMECalendar is the content type of the exported calendar artifact.
const MIMECalendar = "text/calendar"

// CalendarFileName is the download name of the exported calendar artifact.
const CalendarFileName = "deadlines.ics"

// Default upload caps.
const (
	MaxDocBytes   int64 = 5 * 1024 * 1024
	MaxImageBytes int64 = 10 * 1024 * 1024
)

// AcceptedLabel is the human-readable list used in unsupported-type messages.
const AcceptedLabel = "PDF, DOCX, XLSX, JPEG, PNG, HEIC"

var acceptedMIME = map[string]struct{}{
	MIMEPDF:  {},
	MIMEDOCX: {},
	MIMEXLSX: {},
	MIMEXLS:  {},
	MIMEJPEG: {},
	MIMEPNG:  {},
	MIMEHEIC: {},
	MIMEHEIF: {},
}

var imageMIME = map[string]struct{}{
	MIMEJPEG: {},
	MIMEPNG:  {},
	MIMEHEIC: {},
	MIMEHEIF: {},
}

var extToMIME = map[string]string{
	"pdf":  MIMEPDF,
	"docx": MIMEDOCX,
	"xlsx": MIMEXLSX,
	"xls":  MIMEXLS,
	"jpg":  MIMEJPEG,
	"jpeg": MIMEJPEG,
	"png":  MIMEPNG,
	"heic": MIMEHEIC,
	"heif": MIMEHEIF,
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// NormalizeMIME lowercases a declared content type and strips any parameters.
func NormalizeMIME(contentType string) string {
	ct := strings.TrimSpace(contentType)
	if ct == "" {
		return ""
	}
	if mt, _, err := mime.ParseMediaType(ct); err == nil {
		return mt
	}
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = ct[:i]
	}
	return strings.ToLower(strings.TrimSpace(ct))
}

// MIMEFromExt maps a file extension to an accepted MIME type, or "".
func MIMEFromExt(ext string) string {
	return extToMIME[NormalizeExt(ext)]
}

func IsAccepted(mimeType string) bool {
	_, ok := acceptedMIME[NormalizeMIME(mimeType)]
	return ok
}

func IsImage(mimeType string) bool {
	_, ok := imageMIME[NormalizeMIME(mimeType)]
	return ok
}

// MaxSize picks the document or image cap for a MIME type.
func MaxSize(mimeType string, docCap, imageCap int64) int64 {
	if IsImage(mimeType) {
		return imageCap
	}
	return docCap
}

// SizeLabel renders a byte cap the way user messages show it ("5MB").
func SizeLabel(n int64) string {
	const mb = 1024 * 1024
	if n%mb == 0 {
		return fmt.Sprintf("%dMB", n/mb)
	}
	return fmt.Sprintf("%.1fMB", float64(n)/mb)
}

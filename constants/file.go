package constants

import "strings"

// MediaKinds holds the allowed values for the declared media kind passed to the extractor.
var MediaKinds = []string{"PDF", "IMAGE", "TEXT"}

const (
	PDF   = "PDF"
	IMAGE = "IMAGE"
	TEXT  = "TEXT"
)

// AllowedExtensions holds the default allowed file extensions for submission ingestion.
var AllowedExtensions = map[string]struct{}{
	"pdf":  {},
	"jpg":  {},
	"jpeg": {},
	"png":  {},
	"docx": {},
	"txt":  {},
}

// DocumentTypes holds the artifact labels produced by the renderer.
var DocumentTypes = []string{DocConsent, DocPayment}

const (
	DocConsent = "consent"
	DocPayment = "payment"
)

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// MapExtToMediaKind maps a normalized file extension to the declared media
// kind for the extractor. Returns "" for unsupported extensions.
func MapExtToMediaKind(ext string) string {
	switch NormalizeExt(ext) {
	case "pdf":
		return PDF
	case "jpg", "jpeg", "png":
		return IMAGE
	case "txt", "docx":
		return TEXT
	default:
		return ""
	}
}

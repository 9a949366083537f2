package mime

import (
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// extMimeMap maps file extensions to more specific MIME types for text-based files.
// Used when content-based detection returns "text/plain" but extension suggests a specific format.
var extMimeMap = map[string]string{
	".md":       "text/markdown",
	".markdown": "text/markdown",
	".yaml":     "text/yaml",
	".yml":      "text/yaml",
	".csv":      "text/csv",
	".json":     "application/json",
	".xml":      "application/xml",
	".html":     "text/html",
	".htm":      "text/html",
	".css":      "text/css",
	".js":       "text/javascript",
	".ts":       "text/typescript",
	".py":       "text/x-python",
	".sql":      "text/x-sql",
	".toml":     "text/x-toml",
	".ini":      "text/x-ini",
}

// docTypeMap is the fixed lookup from MIME type to the logical document type
// shown in the dashboard. MIME types outside the table fall back to the
// generic text type.
var docTypeMap = map[string]string{
	"application/pdf": "PDF",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": "DOCX",
	"application/msword": "DOC",
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet":       "XLSX",
	"application/vnd.ms-excel": "XLS",
	"application/vnd.openxmlformats-officedocument.presentationml.presentation": "PPTX",
	"text/plain":       "TXT",
	"text/markdown":    "MD",
	"text/csv":         "CSV",
	"text/html":        "HTML",
	"application/json": "JSON",
	"application/xml":  "XML",
	"text/xml":         "XML",
	"image/png":        "PNG",
	"image/jpeg":       "JPG",
	"image/gif":        "GIF",
	"image/webp":       "WEBP",
}

// DetectMimeType detects the MIME type from file content, with extension-based
// refinement for text files where content detection alone cannot distinguish
// formats.
func DetectMimeType(content []byte, filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))

	contentType := mimetype.Detect(content).String()

	// For plain text, refine based on file extension since content detection
	// cannot distinguish between markdown, yaml, code files, etc.
	if strings.HasPrefix(contentType, "text/plain") {
		if refined, ok := extMimeMap[ext]; ok {
			return strings.Replace(contentType, "text/plain", refined, 1)
		}
	}
	return contentType
}

// DocTypeFromMIME maps a MIME type to the logical document type. Charset and
// other parameters are stripped before lookup.
func DocTypeFromMIME(contentType string) string {
	base := contentType
	if i := strings.Index(base, ";"); i >= 0 {
		base = base[:i]
	}
	base = strings.TrimSpace(strings.ToLower(base))

	if t, ok := docTypeMap[base]; ok {
		return t
	}
	return "TXT"
}

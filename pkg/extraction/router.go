package extraction

import (
	"path/filepath"
	"strings"
)

// Family groups file formats that share an extractor.
type Family string

const (
	FamilyDocument Family = "document"
	FamilyWord     Family = "word"
	FamilyImage    Family = "image"
	FamilyMedia    Family = "media"
)

// familyByExtension is the routing table: normalized extension to
// extractor family. Anything absent is unsupported.
var familyByExtension = map[string]Family{
	"pdf":  FamilyDocument,
	"txt":  FamilyDocument,
	"md":   FamilyDocument,
	"csv":  FamilyDocument,
	"xlsx": FamilyDocument,

	"docx": FamilyWord,

	"png":  FamilyImage,
	"jpg":  FamilyImage,
	"jpeg": FamilyImage,
	"gif":  FamilyImage,
	"webp": FamilyImage,

	"mp3":  FamilyMedia,
	"wav":  FamilyMedia,
	"m4a":  FamilyMedia,
	"mp4":  FamilyMedia,
	"mov":  FamilyMedia,
	"webm": FamilyMedia,
}

// mimeTypes covers uploads that declare a content type instead of an
// extension.
var mimeTypes = map[string]Family{
	"application/pdf": FamilyDocument,
	"text/plain":      FamilyDocument,
	"text/markdown":   FamilyDocument,
	"text/csv":        FamilyDocument,
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet":       FamilyDocument,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": FamilyWord,
}

// Route maps a declared file type (extension, file name or MIME type) to
// an extractor family. The second return is false for unsupported types;
// the router never errors and performs no I/O.
func Route(declaredType string) (Family, bool) {
	normalized := NormalizeType(declaredType)
	if normalized == "" {
		return "", false
	}

	if family, ok := familyByExtension[normalized]; ok {
		return family, true
	}
	if family, ok := mimeTypes[normalized]; ok {
		return family, true
	}
	if strings.HasPrefix(normalized, "image/") {
		if family, ok := familyByExtension[strings.TrimPrefix(normalized, "image/")]; ok {
			return family, true
		}
	}
	if strings.HasPrefix(normalized, "audio/") || strings.HasPrefix(normalized, "video/") {
		idx := strings.Index(normalized, "/")
		if family, ok := familyByExtension[normalized[idx+1:]]; ok {
			return family, true
		}
	}

	return "", false
}

// NormalizeType lowercases the declared type and reduces file names and
// dotted extensions to a bare extension. MIME types pass through intact.
func NormalizeType(declaredType string) string {
	s := strings.ToLower(strings.TrimSpace(declaredType))
	if s == "" || strings.Contains(s, "/") {
		return s
	}
	if ext := filepath.Ext(s); ext != "" {
		s = ext
	}
	return strings.TrimPrefix(s, ".")
}

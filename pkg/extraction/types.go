// Package extraction turns uploaded files of unknown format into plain
// text, image references and metadata. A format router maps the declared
// file type to one of four extractor families; unrecognized types are
// classified as unsupported without touching any extractor.
package extraction

import (
	"time"

	"github.com/google/uuid"
)

// UploadedFile identifies an upload to process. Immutable once created;
// extraction results are attached as a separate ProcessedFile record.
type UploadedFile struct {
	ID uuid.UUID `json:"id"`

	// Name is the declared file name as uploaded.
	Name string `json:"name"`

	// DeclaredType is the file extension or MIME type the uploader claimed.
	DeclaredType string `json:"declared_type"`

	// StorageKey locates the payload in the file store. Jobs carry keys,
	// not bytes.
	StorageKey string `json:"storage_key"`

	Size   int64  `json:"size"`
	UserID string `json:"user_id"`

	CreatedAt time.Time `json:"created_at"`
}

// Status classifies the outcome of one extraction attempt.
type Status string

const (
	// StatusCompleted means extraction produced usable text output
	// (possibly the empty string, but never absent).
	StatusCompleted Status = "completed"

	// StatusUnsupported means the declared type has no extractor. This is
	// an expected terminal outcome, not an error.
	StatusUnsupported Status = "unsupported"

	// StatusError means the primary text extraction failed.
	StatusError Status = "error"
)

// ImageRef points at an image gathered during extraction. For embedded
// document images this is the archive-internal path.
type ImageRef struct {
	Path   string `json:"path"`
	Format string `json:"format,omitempty"`
}

// ProcessedFile is the typed result of a single extraction attempt. A
// failed attempt still produces a record carrying the error, so callers
// see what happened instead of catching a panic across the job boundary.
type ProcessedFile struct {
	FileID uuid.UUID `json:"file_id"`

	Text     string            `json:"text"`
	Images   []ImageRef        `json:"images"`
	Metadata map[string]string `json:"metadata"`

	Status       Status `json:"status"`
	ErrorMessage string `json:"error_message,omitempty"`

	ProcessedAt time.Time `json:"processed_at"`
}

// Package attachment runs uploaded media through metadata hooks and stores the result.
package attachment

import (
	"time"

	"github.com/google/uuid"

	"github.com/quidome/parse-video-metadata/pkg/mediameta"
	"github.com/quidome/parse-video-metadata/pkg/scan"
)

// Record is the metadata kept for an uploaded attachment.
type Record struct {
	ID         uuid.UUID        `json:"id"`
	Path       string           `json:"path"`
	Size       int64            `json:"size"`
	MimeType   string           `json:"mime_type,omitempty"`
	Kind       scan.Kind        `json:"kind"`
	FileFormat mediameta.Format `json:"fileformat,omitempty"`
	UploadedAt time.Time        `json:"uploaded_at"`

	// CreatedTimestamp is the media creation time in UNIX seconds. Zero means unknown.
	CreatedTimestamp int64 `json:"created_timestamp,omitempty"`
}

// HasCreatedTimestamp reports whether a creation time is already recorded.
func (r Record) HasCreatedTimestamp() bool {
	return r.CreatedTimestamp != 0
}

// CreatedAt returns the creation time in UTC, or the zero time.
func (r Record) CreatedAt() time.Time {
	if !r.HasCreatedTimestamp() {
		return time.Time{}
	}
	return time.Unix(r.CreatedTimestamp, 0).UTC()
}

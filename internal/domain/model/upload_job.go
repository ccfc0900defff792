package model

import (
	"strings"
	"time"
	"unicode/utf8"
)

// Visibility is the provider-side privacy setting of an uploaded video.
type Visibility string

const (
	VisibilityPublic   Visibility = "public"
	VisibilityUnlisted Visibility = "unlisted"
	VisibilityPrivate  Visibility = "private"
)

// visibilityLabels maps the human labels accepted from callers to provider values.
var visibilityLabels = map[string]Visibility{
	"public":           VisibilityPublic,
	"everyone":         VisibilityPublic,
	"unlisted":         VisibilityUnlisted,
	"link only":        VisibilityUnlisted,
	"anyone with link": VisibilityUnlisted,
	"private":          VisibilityPrivate,
	"only me":          VisibilityPrivate,
}

// ParseVisibility maps a human label onto a provider value. Unknown labels fall back to private.
func ParseVisibility(label string) Visibility {
	if v, ok := visibilityLabels[strings.ToLower(strings.TrimSpace(label))]; ok {
		return v
	}
	return VisibilityPrivate
}

// MaxTagLength is the longest tag (in characters) a host accepts.
const MaxTagLength = 500

// ParseTags splits a comma-separated tag list. Entries are trimmed, empty entries dropped,
// and entries longer than MaxTagLength are returned in rejected.
func ParseTags(raw string) (tags []string, rejected []string) {
	for _, part := range strings.Split(raw, ",") {
		t := strings.TrimSpace(part)
		if t == "" {
			continue
		}
		if utf8.RuneCountInString(t) > MaxTagLength {
			rejected = append(rejected, t)
			continue
		}
		tags = append(tags, t)
	}
	return tags, rejected
}

// UploadMetadata is what the caller supplies alongside the media file.
type UploadMetadata struct {
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	Visibility  string   `json:"visibility,omitempty"`
}

// UploadJob exists for the duration of one upload call.
type UploadJob struct {
	ID         string         `json:"id"`
	SourcePath string         `json:"source_path"`
	Metadata   UploadMetadata `json:"metadata"`
	Validated  bool           `json:"validated"`
}

// EditInstructions are handed verbatim to the media processor.
type EditInstructions struct {
	TrimStart time.Duration `json:"trim_start,omitempty"`
	// TrimEnd is the end position measured from the input start; 0 keeps the rest.
	TrimEnd time.Duration `json:"trim_end,omitempty"`
	Mute    bool          `json:"mute,omitempty"`
	// Scale is WIDTHxHEIGHT, e.g. "1280x720".
	Scale string `json:"scale,omitempty"`
}

// IsZero reports whether no edit was requested.
func (e EditInstructions) IsZero() bool {
	return e.TrimStart == 0 && e.TrimEnd == 0 && !e.Mute && e.Scale == ""
}

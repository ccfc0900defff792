package adapter

import (
	"context"
	"io"
)

// UploadInput is the host-neutral view of an upload request.
type UploadInput struct {
	Title       string
	Description string
	Tags        []string
	// Visibility is one of public, unlisted, private.
	Visibility  string
	MadeForKids bool
	FileName    string
	SizeBytes   int64
}

// UploadReceipt is what the transfer layer reports when the last chunk is accepted.
type UploadReceipt struct {
	Status   string
	RemoteID string
}

const UploadStatusCompleted = "completed"

// VideoHost is the port for remote video hosting platforms.
type VideoHost interface {
	Name() string

	// MinChunkSize is the smallest chunk the resumable protocol accepts.
	MinChunkSize() int

	// UploadVideo streams body in chunkSize pieces through the host's resumable protocol.
	UploadVideo(ctx context.Context, s *Session, in UploadInput, body io.Reader, chunkSize int) (UploadReceipt, error)

	// ProcessingStatus returns the host's post-ingest status string for an uploaded asset.
	ProcessingStatus(ctx context.Context, s *Session, remoteID string) (string, error)

	// VideoURL builds the public watch URL of an asset.
	VideoURL(remoteID string) string
}

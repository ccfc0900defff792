package videohost

import (
	"context"
	"errors"
	"fmt"
	"io"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"

	"ai-video-orchestrator/internal/domain"
	"ai-video-orchestrator/internal/domain/ports/adapter"
)

var _ adapter.VideoHost = (*YouTubeHost)(nil)

const youtubeCategoryPeopleBlogs = "22"

// YouTubeHost uploads through the YouTube Data API resumable protocol.
type YouTubeHost struct {
	// endpoint overrides the API root; empty means the public API.
	endpoint string
}

func NewYouTubeHost() *YouTubeHost { return &YouTubeHost{} }

func (h *YouTubeHost) Name() string { return "youtube" }

func (h *YouTubeHost) MinChunkSize() int { return googleapi.MinUploadChunkSize }

func (h *YouTubeHost) service(ctx context.Context, s *adapter.Session) (*youtube.Service, error) {
	if s == nil || s.Client == nil {
		return nil, domain.ErrNotAuthenticated
	}
	opts := []option.ClientOption{option.WithHTTPClient(s.Client)}
	if h.endpoint != "" {
		opts = append(opts, option.WithEndpoint(h.endpoint))
	}
	return youtube.NewService(ctx, opts...)
}

func (h *YouTubeHost) UploadVideo(ctx context.Context, s *adapter.Session, in adapter.UploadInput, body io.Reader, chunkSize int) (adapter.UploadReceipt, error) {
	svc, err := h.service(ctx, s)
	if err != nil {
		return adapter.UploadReceipt{}, err
	}
	call := svc.Videos.Insert([]string{"snippet", "status"}, videoResource(in))
	call.Media(body, googleapi.ChunkSize(chunkSize))
	v, err := call.Context(ctx).Do()
	if err != nil {
		return adapter.UploadReceipt{}, classify(err)
	}
	return receipt(v), nil
}

func (h *YouTubeHost) ProcessingStatus(ctx context.Context, s *adapter.Session, remoteID string) (string, error) {
	svc, err := h.service(ctx, s)
	if err != nil {
		return "", err
	}
	resp, err := svc.Videos.List([]string{"status", "processingDetails"}).Id(remoteID).Context(ctx).Do()
	if err != nil {
		return "", classify(err)
	}
	if len(resp.Items) == 0 || resp.Items[0].Status == nil {
		return "", fmt.Errorf("video %s not listed yet", remoteID)
	}
	return resp.Items[0].Status.UploadStatus, nil
}

func (h *YouTubeHost) VideoURL(remoteID string) string {
	return "https://www.youtube.com/watch?v=" + remoteID
}

func videoResource(in adapter.UploadInput) *youtube.Video {
	return &youtube.Video{
		Snippet: &youtube.VideoSnippet{
			Title:       in.Title,
			Description: in.Description,
			Tags:        in.Tags,
			CategoryId:  youtubeCategoryPeopleBlogs,
		},
		Status: &youtube.VideoStatus{
			PrivacyStatus:           in.Visibility,
			SelfDeclaredMadeForKids: in.MadeForKids,
			// false is the zero value and would otherwise be omitted.
			ForceSendFields: []string{"SelfDeclaredMadeForKids"},
		},
	}
}

// receipt treats a returned resource as a completed transfer; the id may still be missing.
func receipt(v *youtube.Video) adapter.UploadReceipt {
	if v == nil {
		return adapter.UploadReceipt{}
	}
	r := adapter.UploadReceipt{Status: adapter.UploadStatusCompleted, RemoteID: v.Id}
	if v.Status != nil && (v.Status.UploadStatus == "failed" || v.Status.UploadStatus == "rejected") {
		r.Status = v.Status.UploadStatus
	}
	return r
}

func classify(err error) error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) && gerr.Code == 401 {
		return fmt.Errorf("%w: %w", domain.ErrNotAuthenticated, err)
	}
	return err
}

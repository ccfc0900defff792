package videohost

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/uuid"

	"ai-video-orchestrator/internal/config"
	"ai-video-orchestrator/internal/domain/ports/adapter"
)

var _ adapter.VideoHost = (*S3Host)(nil)

// s3MinPartSize is the smallest non-final part S3 accepts.
const s3MinPartSize = 5 << 20

type s3API interface {
	CreateMultipartUpload(ctx context.Context, in *s3.CreateMultipartUploadInput, opts ...func(*s3.Options)) (*s3.CreateMultipartUploadOutput, error)
	UploadPart(ctx context.Context, in *s3.UploadPartInput, opts ...func(*s3.Options)) (*s3.UploadPartOutput, error)
	CompleteMultipartUpload(ctx context.Context, in *s3.CompleteMultipartUploadInput, opts ...func(*s3.Options)) (*s3.CompleteMultipartUploadOutput, error)
	AbortMultipartUpload(ctx context.Context, in *s3.AbortMultipartUploadInput, opts ...func(*s3.Options)) (*s3.AbortMultipartUploadOutput, error)
	HeadObject(ctx context.Context, in *s3.HeadObjectInput, opts ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
}

// S3Host stores videos in a bucket through multipart uploads. The session is not used;
// credentials come from the AWS default chain.
type S3Host struct {
	client  s3API
	bucket  string
	prefix  string
	baseURL string
}

func NewS3Host(ctx context.Context, cfg config.S3Config) (*S3Host, error) {
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.PathStyle
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})
	baseURL := cfg.PublicBaseURL
	if baseURL == "" {
		baseURL = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.Bucket, cfg.Region)
	}
	return newS3Host(client, cfg.Bucket, cfg.Prefix, baseURL), nil
}

func newS3Host(client s3API, bucket, prefix, baseURL string) *S3Host {
	return &S3Host{
		client:  client,
		bucket:  bucket,
		prefix:  strings.Trim(prefix, "/"),
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

func (h *S3Host) Name() string { return "s3" }

func (h *S3Host) MinChunkSize() int { return s3MinPartSize }

func (h *S3Host) UploadVideo(ctx context.Context, _ *adapter.Session, in adapter.UploadInput, body io.Reader, chunkSize int) (adapter.UploadReceipt, error) {
	if chunkSize < s3MinPartSize {
		chunkSize = s3MinPartSize
	}
	key := path.Join(h.prefix, uuid.NewString(), path.Base(in.FileName))

	created, err := h.client.CreateMultipartUpload(ctx, &s3.CreateMultipartUploadInput{
		Bucket:      aws.String(h.bucket),
		Key:         aws.String(key),
		ContentType: aws.String("video/" + strings.TrimPrefix(strings.ToLower(path.Ext(in.FileName)), ".")),
		Metadata: map[string]string{
			"title":      in.Title,
			"visibility": in.Visibility,
			"tags":       strings.Join(in.Tags, ","),
		},
	})
	if err != nil {
		return adapter.UploadReceipt{}, fmt.Errorf("create multipart upload: %w", err)
	}
	uploadID := created.UploadId

	parts, err := h.uploadParts(ctx, key, uploadID, body, chunkSize)
	if err != nil {
		_, _ = h.client.AbortMultipartUpload(context.WithoutCancel(ctx), &s3.AbortMultipartUploadInput{
			Bucket: aws.String(h.bucket), Key: aws.String(key), UploadId: uploadID,
		})
		return adapter.UploadReceipt{}, err
	}

	_, err = h.client.CompleteMultipartUpload(ctx, &s3.CompleteMultipartUploadInput{
		Bucket:          aws.String(h.bucket),
		Key:             aws.String(key),
		UploadId:        uploadID,
		MultipartUpload: &types.CompletedMultipartUpload{Parts: parts},
	})
	if err != nil {
		return adapter.UploadReceipt{}, fmt.Errorf("complete multipart upload: %w", err)
	}
	return adapter.UploadReceipt{Status: adapter.UploadStatusCompleted, RemoteID: key}, nil
}

func (h *S3Host) uploadParts(ctx context.Context, key string, uploadID *string, body io.Reader, chunkSize int) ([]types.CompletedPart, error) {
	var (
		parts []types.CompletedPart
		buf   = make([]byte, chunkSize)
	)
	for n := int32(1); ; n++ {
		read, rerr := io.ReadFull(body, buf)
		if read == 0 && (rerr == io.EOF || rerr == io.ErrUnexpectedEOF) {
			break
		}
		if rerr != nil && rerr != io.EOF && rerr != io.ErrUnexpectedEOF {
			return nil, fmt.Errorf("read part %d: %w", n, rerr)
		}
		out, err := h.client.UploadPart(ctx, &s3.UploadPartInput{
			Bucket:     aws.String(h.bucket),
			Key:        aws.String(key),
			UploadId:   uploadID,
			PartNumber: aws.Int32(n),
			Body:       bytes.NewReader(buf[:read]),
		})
		if err != nil {
			return nil, fmt.Errorf("upload part %d: %w", n, err)
		}
		parts = append(parts, types.CompletedPart{ETag: out.ETag, PartNumber: aws.Int32(n)})
		if rerr != nil {
			break
		}
	}
	if len(parts) == 0 {
		return nil, errors.New("empty upload body")
	}
	return parts, nil
}

// ProcessingStatus reports "processed" once the object is readable.
func (h *S3Host) ProcessingStatus(ctx context.Context, _ *adapter.Session, remoteID string) (string, error) {
	_, err := h.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(h.bucket),
		Key:    aws.String(remoteID),
	})
	if err != nil {
		var nf *types.NotFound
		if errors.As(err, &nf) {
			return "processing", nil
		}
		return "", err
	}
	return "processed", nil
}

func (h *S3Host) VideoURL(remoteID string) string {
	return h.baseURL + "/" + remoteID
}

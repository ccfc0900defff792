package generation

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"ai-video-orchestrator/internal/domain"
	"ai-video-orchestrator/internal/domain/model"
	"ai-video-orchestrator/internal/domain/ports/adapter"
)

var _ adapter.GenerationProvider = (*ReplicateAdapter)(nil)

// ReplicateAdapter talks to a predictions-style HTTP API
// (POST /predictions, GET /predictions/{id}).
type ReplicateAdapter struct {
	apiKey     string
	base       string
	version    string
	refMaxSide int
	client     *http.Client
}

func NewReplicateAdapter(apiKey, baseURL, version string, refMaxSide int) (*ReplicateAdapter, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("%w: replicate: empty api key", domain.ErrValidation)
	}
	if version == "" {
		return nil, fmt.Errorf("%w: replicate: empty model version", domain.ErrValidation)
	}
	return &ReplicateAdapter{
		apiKey:     apiKey,
		base:       strings.TrimRight(baseURL, "/"),
		version:    version,
		refMaxSide: refMaxSide,
		client:     &http.Client{Timeout: 30 * time.Second},
	}, nil
}

func (r *ReplicateAdapter) Name() string { return "replicate" }

func (r *ReplicateAdapter) Limits() model.GenerationLimits {
	return model.DefaultGenerationLimits()
}

type prediction struct {
	ID     string          `json:"id"`
	Status string          `json:"status"`
	Output json.RawMessage `json:"output"`
	Error  any             `json:"error"`
}

func (r *ReplicateAdapter) Submit(ctx context.Context, req model.GenerationRequest) (string, error) {
	input := map[string]any{
		"prompt":       req.Prompt,
		"duration":     req.DurationSeconds,
		"resolution":   req.Resolution,
		"aspect_ratio": req.AspectRatio,
		"fps":          req.FPS,
	}
	if req.NegativePrompt != "" {
		input["negative_prompt"] = req.NegativePrompt
	}
	if req.Seed != nil {
		input["seed"] = *req.Seed
	}
	if req.ReferenceImagePath != "" {
		b, mime, err := LoadReferenceImage(req.ReferenceImagePath, r.refMaxSide)
		if err != nil {
			return "", err
		}
		input["image"] = "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(b)
	}

	body, _ := json.Marshal(map[string]any{"version": r.version, "input": input})
	var p prediction
	if err := r.do(ctx, http.MethodPost, r.base+"/predictions", body, &p); err != nil {
		return "", err
	}
	if p.ID == "" {
		return "", errors.New("replicate: prediction without id")
	}
	return p.ID, nil
}

func (r *ReplicateAdapter) Status(ctx context.Context, remoteID string) (adapter.RemoteJobState, error) {
	var p prediction
	if err := r.do(ctx, http.MethodGet, r.base+"/predictions/"+remoteID, nil, &p); err != nil {
		return adapter.RemoteJobState{}, err
	}
	return predictionState(p), nil
}

func (r *ReplicateAdapter) do(ctx context.Context, method, url string, body []byte, out any) error {
	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, rd)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+r.apiKey)

	resp, err := r.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("%w: replicate http %d", domain.ErrNotAuthenticated, resp.StatusCode)
	case resp.StatusCode == http.StatusUnprocessableEntity || resp.StatusCode == http.StatusBadRequest:
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%w: replicate http %d: %s", domain.ErrValidation, resp.StatusCode, strings.TrimSpace(string(msg)))
	case resp.StatusCode >= 300:
		return fmt.Errorf("replicate http %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func predictionState(p prediction) adapter.RemoteJobState {
	st := adapter.RemoteJobState{RawStatus: p.Status}
	switch p.Status {
	case "starting":
		st.Status = model.JobStatusStarting
	case "processing":
		st.Status = model.JobStatusRunning
	case "succeeded":
		st.Status = model.JobStatusSucceeded
		if uri := outputURI(p.Output); uri != "" {
			st.Output = &model.OutputAsset{ID: p.ID, URI: uri, MIMEType: "video/mp4"}
		}
	case "failed":
		st.Status = model.JobStatusFailed
		st.Error = errorText(p.Error)
	case "canceled":
		st.Status = model.JobStatusCanceled
		st.Error = errorText(p.Error)
	default:
		st.Status = model.JobStatusPending
	}
	return st
}

// outputURI accepts either a single URL or a list of URLs (first wins).
func outputURI(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var one string
	if err := json.Unmarshal(raw, &one); err == nil {
		return one
	}
	var many []string
	if err := json.Unmarshal(raw, &many); err == nil && len(many) > 0 {
		return many[0]
	}
	return ""
}

func errorText(v any) string {
	switch e := v.(type) {
	case nil:
		return ""
	case string:
		return e
	default:
		b, _ := json.Marshal(e)
		return string(b)
	}
}

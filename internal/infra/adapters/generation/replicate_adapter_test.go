//go:build !integration

package generation

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"ai-video-orchestrator/internal/domain"
	"ai-video-orchestrator/internal/domain/model"
)

func newReplicateServer(t *testing.T, statuses []string) (*httptest.Server, *[]map[string]any) {
	t.Helper()
	var (
		mu     sync.Mutex
		polls  int
		bodies []map[string]any
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer key" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		mu.Lock()
		defer mu.Unlock()
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/predictions":
			var b map[string]any
			_ = json.NewDecoder(r.Body).Decode(&b)
			bodies = append(bodies, b)
			_, _ = w.Write([]byte(`{"id":"abc123","status":"starting"}`))
		case r.Method == http.MethodGet && r.URL.Path == "/predictions/abc123":
			st := statuses[min(polls, len(statuses)-1)]
			polls++
			resp := map[string]any{"id": "abc123", "status": st}
			if st == "succeeded" {
				resp["output"] = []string{"https://cdn.example/abc123.mp4"}
			}
			if st == "failed" {
				resp["error"] = "NSFW content detected"
			}
			_ = json.NewEncoder(w).Encode(resp)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)
	return srv, &bodies
}

func TestReplicateAdapter(t *testing.T) {
	ctx := context.Background()
	req := model.GenerationRequest{Prompt: "sunset over mountains", DurationSeconds: 5, Resolution: "1080p"}
	req.Normalize()

	t.Run("should submit and follow a prediction to success", func(t *testing.T) {
		srv, bodies := newReplicateServer(t, []string{"starting", "processing", "processing", "processing", "succeeded"})
		a, err := NewReplicateAdapter("key", srv.URL, "v1", 0)
		if err != nil {
			t.Fatal(err)
		}
		id, err := a.Submit(ctx, req)
		if err != nil || id != "abc123" {
			t.Fatalf("submit = %q, %v", id, err)
		}
		input, _ := (*bodies)[0]["input"].(map[string]any)
		if input["prompt"] != "sunset over mountains" || input["resolution"] != "1080p" || input["aspect_ratio"] != "16:9" {
			t.Errorf("unexpected input %v", input)
		}

		want := []model.JobStatus{
			model.JobStatusStarting, model.JobStatusRunning, model.JobStatusRunning,
			model.JobStatusRunning, model.JobStatusSucceeded,
		}
		for i, w := range want {
			st, err := a.Status(ctx, id)
			if err != nil {
				t.Fatalf("poll %d: %v", i, err)
			}
			if st.Status != w {
				t.Fatalf("poll %d: status %s, want %s", i, st.Status, w)
			}
			if w == model.JobStatusSucceeded {
				if st.Output == nil || st.Output.ID != "abc123" || !strings.HasSuffix(st.Output.URI, "abc123.mp4") {
					t.Fatalf("unexpected output %+v", st.Output)
				}
			}
		}
	})

	t.Run("should carry the provider error message", func(t *testing.T) {
		srv, _ := newReplicateServer(t, []string{"failed"})
		a, _ := NewReplicateAdapter("key", srv.URL, "v1", 0)
		st, err := a.Status(ctx, "abc123")
		if err != nil {
			t.Fatal(err)
		}
		if st.Status != model.JobStatusFailed || st.Error != "NSFW content detected" {
			t.Fatalf("unexpected state %+v", st)
		}
	})

	t.Run("should map 401 to not authenticated", func(t *testing.T) {
		srv, _ := newReplicateServer(t, []string{"starting"})
		a, _ := NewReplicateAdapter("wrong", srv.URL, "v1", 0)
		_, err := a.Submit(ctx, req)
		if !errors.Is(err, domain.ErrNotAuthenticated) {
			t.Fatalf("expected ErrNotAuthenticated, got %v", err)
		}
	})

	t.Run("should map 422 to validation", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnprocessableEntity)
			_, _ = w.Write([]byte(`{"detail":"duration must be <= 10"}`))
		}))
		defer srv.Close()
		a, _ := NewReplicateAdapter("key", srv.URL, "v1", 0)
		_, err := a.Submit(ctx, req)
		if !errors.Is(err, domain.ErrValidation) || !strings.Contains(err.Error(), "duration") {
			t.Fatalf("expected ErrValidation with detail, got %v", err)
		}
	})

	t.Run("should reject missing credentials", func(t *testing.T) {
		if _, err := NewReplicateAdapter("", "http://x", "v1", 0); !errors.Is(err, domain.ErrValidation) {
			t.Fatalf("expected ErrValidation, got %v", err)
		}
	})
}

func TestOutputURI(t *testing.T) {
	cases := []struct{ raw, want string }{
		{`"https://a/b.mp4"`, "https://a/b.mp4"},
		{`["https://a/1.mp4","https://a/2.mp4"]`, "https://a/1.mp4"},
		{`null`, ""},
		{`{"video":"x"}`, ""},
	}
	for _, c := range cases {
		if got := outputURI(json.RawMessage(c.raw)); got != c.want {
			t.Errorf("outputURI(%s) = %q, want %q", c.raw, got, c.want)
		}
	}
}

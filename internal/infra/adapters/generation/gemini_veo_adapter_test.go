//go:build !integration

package generation

import (
	"testing"

	"google.golang.org/genai"

	"ai-video-orchestrator/internal/domain/model"
)

func TestVeoState(t *testing.T) {
	name := "models/veo-2.0-generate-001/operations/op42"

	t.Run("should report starting before any metadata", func(t *testing.T) {
		st := veoState(&genai.GenerateVideosOperation{Name: name})
		if st.Status != model.JobStatusStarting {
			t.Fatalf("got %s", st.Status)
		}
	})

	t.Run("should report running while not done", func(t *testing.T) {
		st := veoState(&genai.GenerateVideosOperation{Name: name, Metadata: map[string]any{"progress": 10}})
		if st.Status != model.JobStatusRunning {
			t.Fatalf("got %s", st.Status)
		}
	})

	t.Run("should surface the operation error", func(t *testing.T) {
		st := veoState(&genai.GenerateVideosOperation{
			Name:  name,
			Done:  true,
			Error: map[string]any{"code": 3, "message": "prompt blocked"},
		})
		if st.Status != model.JobStatusFailed || st.Error != "prompt blocked" {
			t.Fatalf("unexpected %+v", st)
		}
	})

	t.Run("should fail when every video was filtered", func(t *testing.T) {
		st := veoState(&genai.GenerateVideosOperation{
			Name: name,
			Done: true,
			Response: &genai.GenerateVideosResponse{
				RAIMediaFilteredCount:   1,
				RAIMediaFilteredReasons: []string{"unsafe"},
			},
		})
		if st.Status != model.JobStatusFailed || st.Error != "filtered: unsafe" {
			t.Fatalf("unexpected %+v", st)
		}
	})

	t.Run("should return the generated video", func(t *testing.T) {
		st := veoState(&genai.GenerateVideosOperation{
			Name: name,
			Done: true,
			Response: &genai.GenerateVideosResponse{
				GeneratedVideos: []*genai.GeneratedVideo{{Video: &genai.Video{URI: "https://files/v.mp4", MIMEType: "video/mp4"}}},
			},
		})
		if st.Status != model.JobStatusSucceeded || st.Output == nil {
			t.Fatalf("unexpected %+v", st)
		}
		if st.Output.ID != "op42" || st.Output.URI != "https://files/v.mp4" {
			t.Errorf("unexpected output %+v", st.Output)
		}
	})
}

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"ai-video-orchestrator/internal/domain/model"
)

func GenerateCmd() *cobra.Command {
	var req model.GenerationRequest
	var seed int64
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "submit a generation request and wait for the result",
		Example: `  app generate --prompt "a lighthouse at dusk" --duration 8 --resolution 1080p
  app generate --prompt "same scene, morning" --image ref.jpg --aspect 9:16`,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := loadRuntime(cmd)
			if err != nil {
				return err
			}
			defer rt.close()
			if cmd.Flags().Changed("seed") {
				req.Seed = &seed
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			g, err := rt.generationPoller(ctx)
			if err != nil {
				return err
			}
			job, err := g.Generate(ctx, req, printProgress(cmd))
			if err != nil {
				return err
			}
			out := json.NewEncoder(cmd.OutOrStdout())
			out.SetIndent("", "  ")
			return out.Encode(job)
		},
	}
	f := cmd.Flags()
	f.StringVar(&req.Prompt, "prompt", "", "text prompt (required)")
	f.StringVar(&req.NegativePrompt, "negative", "", "what the video should avoid")
	f.IntVar(&req.DurationSeconds, "duration", 8, "clip length in seconds")
	f.StringVar(&req.Resolution, "resolution", "720p", "output resolution")
	f.StringVar(&req.AspectRatio, "aspect", "", "aspect ratio, e.g. 16:9")
	f.IntVar(&req.FPS, "fps", 0, "frames per second")
	f.Int64Var(&seed, "seed", 0, "provider seed")
	f.StringVar(&req.ReferenceImagePath, "image", "", "reference image path")
	_ = cmd.MarkFlagRequired("prompt")
	return cmd
}

func printProgress(cmd *cobra.Command) func(model.ProgressReport) {
	w := cmd.ErrOrStderr()
	return func(r model.ProgressReport) {
		fmt.Fprintf(w, "[%s] %s\n", r.Status, r)
	}
}

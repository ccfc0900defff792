package main

import (
	"encoding/json"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"ai-video-orchestrator/internal/domain/model"
	"ai-video-orchestrator/internal/usecase"
)

func UploadCmd() *cobra.Command {
	var (
		job    model.UploadJob
		tags   string
		reauth bool
	)
	cmd := &cobra.Command{
		Use:     "upload",
		Short:   "upload a local video to the configured host and wait for processing",
		Example: `  app upload --file out.mp4 --title "Launch teaser" --tags "ai,veo" --visibility unlisted`,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := loadRuntime(cmd)
			if err != nil {
				return err
			}
			defer rt.close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			host, auth, _, err := rt.hostAndAuth(ctx)
			if err != nil {
				return err
			}
			account := usecase.NewAccountContext(auth, rt.log)
			if reauth {
				if _, err := account.Reauthenticate(ctx); err != nil {
					return err
				}
			}
			if strings.TrimSpace(tags) != "" {
				job.Metadata.Tags = strings.Split(tags, ",")
			}
			res, err := rt.uploadPipeline(host, account).Upload(ctx, &job, printProgress(cmd))
			if err != nil {
				return err
			}
			out := json.NewEncoder(cmd.OutOrStdout())
			out.SetIndent("", "  ")
			return out.Encode(res)
		},
	}
	f := cmd.Flags()
	f.StringVar(&job.SourcePath, "file", "", "video file to upload (required)")
	f.StringVar(&job.Metadata.Title, "title", "", "video title (defaults to the file name)")
	f.StringVar(&job.Metadata.Description, "description", "", "video description")
	f.StringVar(&tags, "tags", "", "comma separated tags")
	f.StringVar(&job.Metadata.Visibility, "visibility", "private", "public|unlisted|private")
	f.BoolVar(&reauth, "reauth", false, "force a fresh session before uploading")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

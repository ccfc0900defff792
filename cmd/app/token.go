package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"ai-video-orchestrator/internal/infra/api"
)

func TokenCmd() *cobra.Command {
	var subject string
	cmd := &cobra.Command{
		Use:   "token",
		Short: "mint a bearer token for the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := loadRuntime(cmd)
			if err != nil {
				return err
			}
			defer rt.close()
			secret, err := rt.cfg.Credential("jwt_secret")
			if err != nil {
				return err
			}
			issuer, err := api.NewTokenIssuer(secret, rt.cfg.HTTP.TokenTTL)
			if err != nil {
				return err
			}
			tok, err := issuer.Mint(subject)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok)
			return nil
		},
	}
	cmd.Flags().StringVar(&subject, "subject", "cli", "token subject; rate limits are counted per subject")
	return cmd
}

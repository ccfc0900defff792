package main

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

// AuthCmd manages the video host session. Only the youtube host needs a consent step.
func AuthCmd() *cobra.Command {
	var code string
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "sign in to the video host",
		Long: `Without --code, prints the consent URL. Open it, approve access and run
the command again with the code from the redirect to store the session token.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := loadRuntime(cmd)
			if err != nil {
				return err
			}
			defer rt.close()
			_, auth, oauth, err := rt.hostAndAuth(cmd.Context())
			if err != nil {
				return err
			}
			if oauth == nil {
				fmt.Fprintf(cmd.OutOrStdout(), "host %q needs no sign-in (authenticated=%t)\n",
					rt.cfg.Upload.Host, auth.IsAuthenticated())
				return nil
			}
			if code == "" {
				fmt.Fprintln(cmd.OutOrStdout(), oauth.AuthCodeURL(uuid.NewString()))
				return nil
			}
			if err := oauth.Exchange(cmd.Context(), code); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "signed in; token saved to", rt.cfg.YouTube.TokenFile)
			return nil
		},
	}
	cmd.Flags().StringVar(&code, "code", "", "authorization code from the consent redirect")
	cmd.AddCommand(revokeCmd())
	return cmd
}

func revokeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "revoke",
		Short: "sign out and revoke the stored session",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := loadRuntime(cmd)
			if err != nil {
				return err
			}
			defer rt.close()
			_, auth, _, err := rt.hostAndAuth(cmd.Context())
			if err != nil {
				return err
			}
			if err := auth.Revoke(cmd.Context()); err != nil {
				return err
			}
			if auth.IsAuthenticated() {
				return errors.New("session still present after revoke")
			}
			fmt.Fprintln(cmd.OutOrStdout(), "signed out")
			return nil
		},
	}
}

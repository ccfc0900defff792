// File: cmd/app/main.go
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

const (
	FlagConfig = "config"
	FlagDev    = "dev"

	DefaultConfig = "config.yaml"
)

// set with -ldflags "-X main.version=... -X main.commit=..."
var (
	version = "dev"
	commit  = "none"
)

func main() {
	if err := RootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// RootCmd assembles the CLI: the long-running server plus one-shot generate/upload helpers.
func RootCmd() *cobra.Command {
	r := &cobra.Command{
		Use:           "app",
		Short:         "Orchestrates AI video generation and uploads to video hosts",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	r.PersistentFlags().String(FlagConfig, DefaultConfig, "path to YAML config file")
	r.PersistentFlags().Bool(FlagDev, false, "enable developer mode (console logs, no sampling)")

	r.AddCommand(
		ServeCmd(),
		GenerateCmd(),
		UploadCmd(),
		TokenCmd(),
		AuthCmd(),
		VersionCmd(),
	)
	return r
}

func VersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "print build version",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Printf("Version: %s\nCommit: %s\n", version, commit)
			return nil
		},
	}
}

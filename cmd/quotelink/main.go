package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	_ = godotenv.Load()

	rootCmd := NewRootCommand()
	if err := rootCmd.Execute(); err != nil {
		if !errors.Is(err, errLinkRejected) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "quotelink",
		Short: "Mint and check signed attachment download links",
		Long: `Quote intake link tool

Mints download links for stored quote attachments and checks links
received from customers or staff. Links are signed with
DOWNLOAD_TOKEN_SECRET, read from the environment or a .env file.`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().String("secret", "", "signing secret (default: $DOWNLOAD_TOKEN_SECRET)")

	rootCmd.AddCommand(NewSignCommand())
	rootCmd.AddCommand(NewVerifyCommand())

	return rootCmd
}

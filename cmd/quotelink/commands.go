package main

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/tendant/quote-intake/pkg/quoteintake/config"
	"github.com/tendant/quote-intake/pkg/quoteintake/presigned"
)

// errLinkRejected marks a verify run whose verdict was already printed
var errLinkRejected = errors.New("link rejected")

func signerFromFlags(cmd *cobra.Command, opts ...presigned.Option) (*presigned.Signer, error) {
	secret, _ := cmd.Flags().GetString("secret")
	if secret == "" {
		secret = os.Getenv("DOWNLOAD_TOKEN_SECRET")
	}
	if secret == "" {
		return nil, fmt.Errorf("DOWNLOAD_TOKEN_SECRET is not set")
	}
	return presigned.New(append([]presigned.Option{presigned.WithSecretKey(secret)}, opts...)...), nil
}

// NewSignCommand creates the sign command
func NewSignCommand() *cobra.Command {
	var origin string
	var ttl time.Duration
	var expires int64

	cmd := &cobra.Command{
		Use:   "sign <key>",
		Short: "Mint a download link for a stored object",
		Long: `Mint a signed download link for an object key such as
quotes/2024-05-01/ab12cd34_roof.jpg. The link is valid for --ttl, or until
the unix time given by --expires.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := strings.TrimPrefix(args[0], "/")
			if key == "" {
				return fmt.Errorf("object key is empty")
			}

			if !cmd.Flags().Changed("ttl") {
				ttl = config.ParseLinkTTL(os.Getenv("UPLOAD_LINK_TTL_SECONDS"))
			}
			signer, err := signerFromFlags(cmd, presigned.WithTTL(ttl))
			if err != nil {
				return err
			}

			exp := signer.ExpiryFromNow()
			if expires != 0 {
				exp = expires
			}

			link, err := signer.SignKey(origin, key, exp)
			if err != nil {
				return fmt.Errorf("sign failed: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, link.URL)
			fmt.Fprintf(out, "Expires: %s\n", time.Unix(link.Expires, 0).UTC().Format(time.RFC3339))
			return nil
		},
	}

	cmd.Flags().StringVar(&origin, "origin", "http://localhost:8080", "scheme://host the link points at")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "link lifetime (default: $UPLOAD_LINK_TTL_SECONDS or 7 days)")
	cmd.Flags().Int64Var(&expires, "expires", 0, "absolute expiry as unix seconds, overrides --ttl")

	return cmd
}

// NewVerifyCommand creates the verify command
func NewVerifyCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify <url>",
		Short: "Check a download link",
		Long:  `Check a signed download link and report whether it is valid, expired or forged.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			signer, err := signerFromFlags(cmd)
			if err != nil {
				return err
			}

			key, err := signer.CheckURL(args[0])
			verdict := linkVerdict(err)

			out := cmd.OutOrStdout()
			if key != "" {
				fmt.Fprintf(out, "Key: %s\n", key)
			}
			fmt.Fprintln(out, verdict)
			if err != nil {
				return errLinkRejected
			}
			return nil
		},
	}

	return cmd
}

func linkVerdict(err error) string {
	switch {
	case err == nil:
		return "valid"
	case errors.Is(err, presigned.ErrExpired):
		return "expired"
	case errors.Is(err, presigned.ErrInvalidSignature):
		return "invalid signature"
	case presigned.IsAuthError(err):
		return "invalid link: " + strings.TrimPrefix(err.Error(), "presigned: ")
	default:
		return "invalid link: " + err.Error()
	}
}

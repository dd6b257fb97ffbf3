package main

import (
	"fmt"
	"os"
	"time"

	"github.com/scttfrdmn/aws-ec2-admin/internal/auth"
	"github.com/scttfrdmn/aws-ec2-admin/internal/config"
	"github.com/spf13/cobra"
)

func tokenCmd() *cobra.Command {
	var password string

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a bearer token locally",
		Long: `Issue a bearer token signed with JWT_SECRET, exactly as the get-token
command would. The password is taken from --password or ADMIN_TOKEN_PASSWORD.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.FromEnv()
			if err != nil {
				return err
			}

			if password == "" {
				password = os.Getenv("ADMIN_TOKEN_PASSWORD")
			}

			svc := auth.NewTokenService(logger, cfg.JWTSecret, cfg.Password,
				auth.WithTTL(time.Duration(settings.Token.TTLSeconds)*time.Second))

			token, err := svc.GetToken(cmd.Context(), password)
			if err != nil {
				return fmt.Errorf("token not issued: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVar(&password, "password", "", "Password to exchange for a token")
	return cmd
}

package main

import (
	"context"
	"fmt"
	"time"

	"github.com/scttfrdmn/aws-ec2-admin/internal/aws"
	"github.com/scttfrdmn/aws-ec2-admin/internal/config"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func validateCmd() *cobra.Command {
	var checkAWS bool

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check the environment and settings before deployment",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.FromEnv()
			if err != nil {
				return fmt.Errorf("configuration incomplete: %w", err)
			}

			logger.Info("✅ Request configuration is complete",
				zap.String("instance_id", cfg.InstanceID),
				zap.String("aws_region", settings.AWS.Region),
				zap.String("auth_method", settings.AWS.AuthenticationMethod))

			if !checkAWS {
				return nil
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()

			client, err := aws.NewClient(ctx, logger, &settings.AWS)
			if err != nil {
				return err
			}

			info, err := client.Identity(ctx)
			if err != nil {
				return fmt.Errorf("AWS credential check failed: %w", err)
			}

			status, err := client.Instance(cfg.InstanceID).Status(ctx)
			if err != nil {
				return fmt.Errorf("instance %s is not reachable: %w", cfg.InstanceID, err)
			}

			logger.Info("✅ AWS access verified",
				zap.String("account", info.Account),
				zap.String("arn", info.ARN),
				zap.Stringer("instance_status", status.Status))
			return nil
		},
	}

	cmd.Flags().BoolVar(&checkAWS, "check-aws", false, "Also verify AWS credentials and that the instance exists")
	return cmd
}

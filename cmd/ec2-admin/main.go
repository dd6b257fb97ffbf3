package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/scttfrdmn/aws-ec2-admin/internal/admin"
	"github.com/scttfrdmn/aws-ec2-admin/internal/config"
	"github.com/scttfrdmn/aws-ec2-admin/internal/lambdahttp"
	"github.com/scttfrdmn/aws-ec2-admin/internal/runner"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	configFile string
	settings   *config.Settings
	logger     *zap.Logger
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "ec2-admin",
		Short: "Token-protected power control for a single EC2 instance",
		Long: `ec2-admin runs as an AWS Lambda function behind API Gateway. Callers
exchange a shared password for a short-lived bearer token, then use the token
to start, stop or query one pre-configured EC2 instance.

Without a subcommand the Lambda runtime loop is started.`,
		SilenceUsage:      true,
		PersistentPreRunE: setup,
		RunE:              serve,
	}

	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", os.Getenv("ADMIN_CONFIG_FILE"), "Optional settings file (YAML)")

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(invokeCmd())
	rootCmd.AddCommand(validateCmd())
	rootCmd.AddCommand(tokenCmd())

	err := rootCmd.Execute()
	if logger != nil {
		_ = logger.Sync()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// setup loads process settings and builds the logger
func setup(cmd *cobra.Command, args []string) error {
	var err error
	settings, err = config.LoadSettings(configFile)
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}

	logger, err = settings.SetupLogger()
	if err != nil {
		return err
	}
	return nil
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the Lambda runtime loop (default)",
		Args:  cobra.NoArgs,
		RunE:  serve,
	}
}

func serve(cmd *cobra.Command, args []string) error {
	logger.Info("Starting Lambda handler",
		zap.String("auth_method", settings.AWS.AuthenticationMethod),
		zap.Int("token_ttl_seconds", settings.Token.TTLSeconds))

	handler := lambdahttp.NewHandler(logger, runnerFactory(settings))
	lambda.Start(handler.Invoke)
	return nil
}

// runnerFactory builds a fresh capability set for every invocation
func runnerFactory(s *config.Settings) lambdahttp.RunnerFactory {
	ttl := time.Duration(s.Token.TTLSeconds) * time.Second
	return func(_ context.Context, logger *zap.Logger) admin.Runner {
		return runner.FromSettings(logger, &s.AWS, runner.WithTokenTTL(ttl))
	}
}

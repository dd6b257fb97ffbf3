package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/scttfrdmn/aws-ec2-admin/internal/lambdahttp"
	"github.com/spf13/cobra"
)

func invokeCmd() *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "invoke [event-file]",
		Short: "Run one event through the handler locally",
		Long: `Read a Lambda event (API Gateway proxy format) from a file, or from stdin
when the file is "-" or omitted, run it through the same pipeline the Lambda
uses, and print the response envelope.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "-"
			if len(args) == 1 {
				path = args[0]
			}

			event, err := readEvent(cmd.InOrStdin(), path)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			handler := lambdahttp.NewHandler(logger, runnerFactory(settings))
			resp, err := handler.Invoke(ctx, event)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(resp)
		},
	}

	cmd.Flags().DurationVar(&timeout, "timeout", 30*time.Second, "Invocation timeout")
	return cmd
}

func readEvent(stdin io.Reader, path string) (json.RawMessage, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read event: %w", err)
	}

	if !json.Valid(data) {
		return nil, fmt.Errorf("event is not valid JSON")
	}
	return data, nil
}

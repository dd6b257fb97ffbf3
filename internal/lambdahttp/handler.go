package lambdahttp

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/aws/aws-lambda-go/lambdacontext"
	"github.com/scttfrdmn/aws-ec2-admin/internal/admin"
	"go.uber.org/zap"
)

// RunnerFactory builds the capability set for one invocation
type RunnerFactory func(ctx context.Context, logger *zap.Logger) admin.Runner

// Handler adapts the admin router to the Lambda runtime. Each invocation
// gets its own runner and router.
type Handler struct {
	logger    *zap.Logger
	newRunner RunnerFactory
}

// NewHandler creates a Handler
func NewHandler(logger *zap.Logger, newRunner RunnerFactory) *Handler {
	return &Handler{
		logger:    logger,
		newRunner: newRunner,
	}
}

// Invoke handles one raw event. It never returns an error; failures are
// encoded in the response.
func (h *Handler) Invoke(ctx context.Context, event json.RawMessage) (Response, error) {
	logger := h.logger
	if lc, ok := lambdacontext.FromContext(ctx); ok {
		logger = logger.With(zap.String("request_id", lc.AwsRequestID))
	}

	args := ParseEvent(event)

	fields := []zap.Field{zap.Bool("token_present", args.Token != nil)}
	if args.Command != nil {
		fields = append(fields, zap.String("command", *args.Command))
	}
	logger.Info("Request received", fields...)

	router := admin.NewRouter(logger, h.newRunner(ctx, logger))
	result, err := router.Route(ctx, args)
	if err != nil {
		var adminErr *admin.Error
		if errors.As(err, &adminErr) && StatusCode(adminErr.Kind) >= 500 {
			logger.Error("Request failed", zap.Stringer("kind", adminErr.Kind), zap.Error(err))
		} else {
			logger.Warn("Request rejected", zap.Error(err))
		}
		return Failure(err), nil
	}

	resp := Success(result)
	logger.Info("Request completed", zap.Int("status_code", resp.StatusCode))
	return resp, nil
}

package admin

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/scttfrdmn/aws-ec2-admin/internal/config"
	"github.com/scttfrdmn/aws-ec2-admin/pkg/types"
	"go.uber.org/zap"
)

// RouteArgs is the parsed request. Nil pointers mean the field was absent;
// a nil Data means no data value was supplied.
type RouteArgs struct {
	Token   *string
	Command *string
	Data    interface{}
}

// Runner is the capability set the router dispatches to
type Runner interface {
	// CheckToken reports whether token is valid for secret
	CheckToken(ctx context.Context, token, secret string) bool
	// GetToken issues a token if password equals configPassword
	GetToken(ctx context.Context, password, configPassword, secret string) (string, error)
	// EC2Control performs op on instanceID. Errors are *Error values.
	EC2Control(ctx context.Context, instanceID string, op types.Ec2Op) (*types.Ec2CtrlRes, error)
}

// Router owns the ordering of checks for a request: configuration, command,
// token, payload, and finally dispatch to the Runner.
type Router struct {
	logger     *zap.Logger
	runner     Runner
	loadConfig func() (*config.Config, error)
}

// NewRouter creates a router that reads its configuration from the
// environment on every call to Route
func NewRouter(logger *zap.Logger, runner Runner) *Router {
	return &Router{
		logger:     logger,
		runner:     runner,
		loadConfig: config.FromEnv,
	}
}

// Route runs one request through the pipeline. It returns either a value
// ready for JSON encoding or an *Error.
func (r *Router) Route(ctx context.Context, args RouteArgs) (interface{}, error) {
	cfg, err := r.loadConfig()
	if err != nil {
		var missing *config.MissingError
		if errors.As(err, &missing) {
			return nil, ConfNone(missing.Name)
		}
		return nil, &Error{Kind: KindUnknown, Err: err}
	}

	if args.Command == nil {
		return nil, CmdNone()
	}
	command := types.ParseCommand(*args.Command)
	if command == types.CommandInvalid {
		return nil, InvdCmd(*args.Command)
	}

	if args.Token == nil && command != types.CommandGetToken {
		return nil, TokenNone()
	}

	// A token supplied with get-token is still checked
	if args.Token != nil {
		if !r.runner.CheckToken(ctx, *args.Token, cfg.JWTSecret) {
			return nil, InvdToken()
		}
	}

	logger := r.logger.With(zap.Stringer("command", command))

	switch command {
	case types.CommandGetToken:
		password, err := stringField(args.Data, "password")
		if err != nil {
			return nil, err
		}
		token, err := r.runner.GetToken(ctx, password, cfg.Password, cfg.JWTSecret)
		if err != nil {
			logger.Debug("Token issuance refused", zap.Error(err))
			return nil, InvdCreds()
		}
		return map[string]string{"token": token}, nil

	case types.CommandEc2Control:
		raw, err := stringField(args.Data, "operation")
		if err != nil {
			return nil, err
		}
		op := types.ParseEc2Op(raw)
		if op == types.Ec2OpInvalid {
			return nil, InvdEc2Op(raw)
		}
		logger.Info("Dispatching instance operation",
			zap.Stringer("operation", op),
			zap.String("instance_id", cfg.InstanceID))
		res, err := r.runner.EC2Control(ctx, cfg.InstanceID, op)
		if err != nil {
			return nil, err
		}
		return res, nil
	}

	return nil, Unknown()
}

// stringField extracts a string member of the data object. A missing data
// object or member is DataNone; a member of another type is TypeErr.
func stringField(data interface{}, field string) (string, error) {
	obj, ok := data.(map[string]interface{})
	if !ok {
		return "", DataNone(field)
	}
	value, ok := obj[field]
	if !ok {
		return "", DataNone(field)
	}
	s, ok := value.(string)
	if !ok {
		return "", TypeErr(field, "string", jsonType(value))
	}
	return s, nil
}

func jsonType(v interface{}) string {
	switch v.(type) {
	case nil:
		return "null"
	case bool:
		return "bool"
	case float64, json.Number:
		return "number"
	case string:
		return "string"
	case []interface{}:
		return "array"
	case map[string]interface{}:
		return "object"
	default:
		return "unknown"
	}
}

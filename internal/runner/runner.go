package runner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/scttfrdmn/aws-ec2-admin/internal/admin"
	"github.com/scttfrdmn/aws-ec2-admin/internal/auth"
	"github.com/scttfrdmn/aws-ec2-admin/internal/aws"
	"github.com/scttfrdmn/aws-ec2-admin/internal/config"
	"github.com/scttfrdmn/aws-ec2-admin/pkg/types"
	"go.uber.org/zap"
)

// Instance is the power-control capability for one instance
type Instance interface {
	Status(ctx context.Context) (*types.Ec2CtrlRes, error)
	On(ctx context.Context) (*types.Ec2CtrlRes, error)
	Off(ctx context.Context) (*types.Ec2CtrlRes, error)
}

// InstanceFactory binds an Instance to an instance ID. It is called at most
// once per EC2Control call, after the request has been authorized.
type InstanceFactory func(ctx context.Context, instanceID string) (Instance, error)

// CommandRunner implements admin.Runner over the token service and the
// EC2 instance controller
type CommandRunner struct {
	logger    *zap.Logger
	instances InstanceFactory
	tokenTTL  time.Duration
	now       auth.Clock
}

// Option configures a CommandRunner
type Option func(*CommandRunner)

// WithTokenTTL sets the lifetime of issued tokens
func WithTokenTTL(ttl time.Duration) Option {
	return func(r *CommandRunner) {
		r.tokenTTL = ttl
	}
}

// WithClock overrides the clock used for issuing and validating tokens
func WithClock(now auth.Clock) Option {
	return func(r *CommandRunner) {
		r.now = now
	}
}

// New creates a CommandRunner
func New(logger *zap.Logger, instances InstanceFactory, opts ...Option) *CommandRunner {
	r := &CommandRunner{
		logger:    logger,
		instances: instances,
		tokenTTL:  auth.DefaultTTL,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// FromClient creates a CommandRunner whose instances come from client
func FromClient(logger *zap.Logger, client *aws.Client, opts ...Option) *CommandRunner {
	return New(logger, func(_ context.Context, instanceID string) (Instance, error) {
		return client.Instance(instanceID), nil
	}, opts...)
}

// FromSettings creates a CommandRunner that builds its AWS client on first
// use, so requests that never reach EC2 do not load credentials
func FromSettings(logger *zap.Logger, awsConfig *config.AWSConfig, opts ...Option) *CommandRunner {
	return New(logger, func(ctx context.Context, instanceID string) (Instance, error) {
		client, err := aws.NewClient(ctx, logger, awsConfig)
		if err != nil {
			return nil, err
		}
		return client.Instance(instanceID), nil
	}, opts...)
}

func (r *CommandRunner) tokens(secret, password string) *auth.TokenService {
	return auth.NewTokenService(r.logger, secret, password,
		auth.WithTTL(r.tokenTTL), auth.WithClock(r.now))
}

// CheckToken reports whether token is valid for secret
func (r *CommandRunner) CheckToken(ctx context.Context, token, secret string) bool {
	return r.tokens(secret, "").ValidateToken(ctx, token)
}

// GetToken issues a token if password matches configPassword
func (r *CommandRunner) GetToken(ctx context.Context, password, configPassword, secret string) (string, error) {
	token, err := r.tokens(secret, configPassword).GetToken(ctx, password)
	if errors.Is(err, auth.ErrInvalidCredentials) {
		return "", admin.InvdCreds()
	}
	return token, err
}

// EC2Control runs op against instanceID
func (r *CommandRunner) EC2Control(ctx context.Context, instanceID string, op types.Ec2Op) (*types.Ec2CtrlRes, error) {
	// Operation names are validated by the router; anything else here is a
	// programming error
	if op == types.Ec2OpInvalid {
		return nil, unsupported(op)
	}

	instance, err := r.instances(ctx, instanceID)
	if err != nil {
		r.logger.Error("Failed to create EC2 client", zap.Error(err))
		return nil, admin.Ec2Unknown(err)
	}

	var res *types.Ec2CtrlRes
	switch op {
	case types.Ec2OpOn:
		res, err = instance.On(ctx)
	case types.Ec2OpOff:
		res, err = instance.Off(ctx)
	case types.Ec2OpStatus:
		res, err = instance.Status(ctx)
	default:
		return nil, unsupported(op)
	}

	if err != nil {
		r.logger.Warn("Instance operation failed", zap.Stringer("operation", op), zap.Error(err))
		return nil, toAdminError(err)
	}
	return res, nil
}

func unsupported(op types.Ec2Op) *admin.Error {
	return &admin.Error{Kind: admin.KindUnknown, Err: fmt.Errorf("unsupported instance operation %d", int(op))}
}

func toAdminError(err error) *admin.Error {
	var adminErr *admin.Error
	if errors.As(err, &adminErr) {
		return adminErr
	}
	if errors.Is(err, aws.ErrInstanceNotFound) {
		return admin.Ec2None()
	}
	return admin.Ec2Unknown(err)
}

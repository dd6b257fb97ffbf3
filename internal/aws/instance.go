package aws

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/aws/smithy-go"
	"github.com/scttfrdmn/aws-ec2-admin/pkg/types"
	"go.uber.org/zap"
)

// EC2API is the subset of the EC2 client used for power control
type EC2API interface {
	DescribeInstances(ctx context.Context, params *ec2.DescribeInstancesInput, optFns ...func(*ec2.Options)) (*ec2.DescribeInstancesOutput, error)
	StartInstances(ctx context.Context, params *ec2.StartInstancesInput, optFns ...func(*ec2.Options)) (*ec2.StartInstancesOutput, error)
	StopInstances(ctx context.Context, params *ec2.StopInstancesInput, optFns ...func(*ec2.Options)) (*ec2.StopInstancesOutput, error)
}

// ErrInstanceNotFound is returned when the target instance does not exist
var ErrInstanceNotFound = errors.New("instance not found")

// BackendError wraps any other EC2 failure
type BackendError struct {
	Op  string
	Err error
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *BackendError) Unwrap() error {
	return e.Err
}

var notFoundCodes = map[string]bool{
	"InvalidInstanceID.NotFound":  true,
	"InvalidInstanceID.Malformed": true,
}

// InstanceController starts, stops and inspects a single EC2 instance
type InstanceController struct {
	logger     *zap.Logger
	api        EC2API
	instanceID string
}

// NewInstanceController creates a controller bound to instanceID
func NewInstanceController(logger *zap.Logger, api EC2API, instanceID string) *InstanceController {
	return &InstanceController{
		logger:     logger.With(zap.String("instance_id", instanceID)),
		api:        api,
		instanceID: instanceID,
	}
}

// Status returns the current state and public IP of the instance
func (c *InstanceController) Status(ctx context.Context) (*types.Ec2CtrlRes, error) {
	inst, err := c.describe(ctx)
	if err != nil {
		return nil, err
	}

	res := &types.Ec2CtrlRes{
		Status: instanceStatus(inst.State),
		IP:     inst.PublicIpAddress,
	}

	c.logger.Debug("Instance status", zap.Stringer("status", res.Status))
	return res, nil
}

// On requests a transition to running and returns the resulting state,
// which is usually Pending.
func (c *InstanceController) On(ctx context.Context) (*types.Ec2CtrlRes, error) {
	c.logger.Info("Starting instance")

	out, err := c.api.StartInstances(ctx, &ec2.StartInstancesInput{
		InstanceIds: []string{c.instanceID},
	})
	if err != nil {
		return nil, classify("StartInstances", err)
	}

	var state *ec2types.InstanceState
	for _, change := range out.StartingInstances {
		if aws.ToString(change.InstanceId) == c.instanceID {
			state = change.CurrentState
			break
		}
	}
	if state == nil {
		return nil, ErrInstanceNotFound
	}

	return c.withPublicIP(ctx, instanceStatus(state))
}

// Off requests a transition to stopped and returns the resulting state
func (c *InstanceController) Off(ctx context.Context) (*types.Ec2CtrlRes, error) {
	c.logger.Info("Stopping instance")

	out, err := c.api.StopInstances(ctx, &ec2.StopInstancesInput{
		InstanceIds: []string{c.instanceID},
	})
	if err != nil {
		return nil, classify("StopInstances", err)
	}

	var state *ec2types.InstanceState
	for _, change := range out.StoppingInstances {
		if aws.ToString(change.InstanceId) == c.instanceID {
			state = change.CurrentState
			break
		}
	}
	if state == nil {
		return nil, ErrInstanceNotFound
	}

	return c.withPublicIP(ctx, instanceStatus(state))
}

// withPublicIP pairs a state-change result with the instance's current
// public IP
func (c *InstanceController) withPublicIP(ctx context.Context, status types.Ec2Status) (*types.Ec2CtrlRes, error) {
	inst, err := c.describe(ctx)
	if err != nil {
		return nil, err
	}

	c.logger.Info("Instance state changed", zap.Stringer("status", status))
	return &types.Ec2CtrlRes{Status: status, IP: inst.PublicIpAddress}, nil
}

func (c *InstanceController) describe(ctx context.Context) (*ec2types.Instance, error) {
	out, err := c.api.DescribeInstances(ctx, &ec2.DescribeInstancesInput{
		InstanceIds: []string{c.instanceID},
	})
	if err != nil {
		return nil, classify("DescribeInstances", err)
	}

	for _, reservation := range out.Reservations {
		for i := range reservation.Instances {
			if aws.ToString(reservation.Instances[i].InstanceId) == c.instanceID {
				return &reservation.Instances[i], nil
			}
		}
	}
	return nil, ErrInstanceNotFound
}

// instanceStatus maps an API state to an Ec2Status. The high byte of the
// code is reserved by EC2 and ignored.
func instanceStatus(state *ec2types.InstanceState) types.Ec2Status {
	if state == nil || state.Code == nil {
		return types.StatusUnknown
	}
	return types.StatusFromCode(aws.ToInt32(state.Code) & 0xFF)
}

func classify(op string, err error) error {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) && notFoundCodes[apiErr.ErrorCode()] {
		return ErrInstanceNotFound
	}
	return &BackendError{Op: op, Err: err}
}

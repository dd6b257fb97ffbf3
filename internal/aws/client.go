package aws

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/scttfrdmn/aws-ec2-admin/internal/config"
	"go.uber.org/zap"
)

// Client provides AWS integration functionality
type Client struct {
	logger *zap.Logger
	config *config.AWSConfig
	auth   *AuthenticationProvider
	ec2    EC2API
}

// NewClient loads AWS credentials for the configured authentication method
// and creates the EC2 client.
func NewClient(ctx context.Context, logger *zap.Logger, awsConfig *config.AWSConfig) (*Client, error) {
	auth := NewAuthenticationProvider(logger, awsConfig)

	cfg, err := auth.GetAWSConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return &Client{
		logger: logger,
		config: awsConfig,
		auth:   auth,
		ec2:    ec2.NewFromConfig(cfg),
	}, nil
}

// NewClientWithAPI creates a client around an existing EC2 implementation
func NewClientWithAPI(logger *zap.Logger, api EC2API) *Client {
	return &Client{
		logger: logger,
		ec2:    api,
	}
}

// Instance returns a controller for instanceID
func (c *Client) Instance(instanceID string) *InstanceController {
	return NewInstanceController(c.logger, c.ec2, instanceID)
}

// Identity reports which credentials the client is using
func (c *Client) Identity(ctx context.Context) (*CredentialInfo, error) {
	if c.auth == nil {
		return nil, fmt.Errorf("client was created without an authentication provider")
	}
	cfg, err := c.auth.GetAWSConfig(ctx)
	if err != nil {
		return nil, err
	}
	return c.auth.GetCredentialInfo(ctx, cfg)
}

package aws

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials/stscreds"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/scttfrdmn/aws-ec2-admin/internal/config"
	"go.uber.org/zap"
)

// AuthenticationMethod represents different AWS authentication approaches
type AuthenticationMethod string

const (
	AuthMethodDefault     AuthenticationMethod = "default"      // Default credential chain (Lambda execution role)
	AuthMethodProfile     AuthenticationMethod = "profile"      // Named AWS profile
	AuthMethodAssumeRole  AuthenticationMethod = "assume_role"  // STS AssumeRole
	AuthMethodWebIdentity AuthenticationMethod = "web_identity" // Web Identity Federation
)

// AuthenticationProvider handles various AWS authentication methods
type AuthenticationProvider struct {
	logger *zap.Logger
	config *config.AWSConfig
}

// NewAuthenticationProvider creates a new authentication provider
func NewAuthenticationProvider(logger *zap.Logger, awsConfig *config.AWSConfig) *AuthenticationProvider {
	return &AuthenticationProvider{
		logger: logger,
		config: awsConfig,
	}
}

// GetAWSConfig returns an AWS config with the configured authentication method
func (a *AuthenticationProvider) GetAWSConfig(ctx context.Context) (aws.Config, error) {
	method := AuthenticationMethod(a.config.AuthenticationMethod)
	if method == "" {
		method = AuthMethodDefault
	}

	a.logger.Debug("Configuring AWS authentication",
		zap.String("method", string(method)),
		zap.String("region", a.config.Region))

	switch method {
	case AuthMethodDefault:
		return a.load(ctx)
	case AuthMethodProfile:
		return a.getProfileConfig(ctx)
	case AuthMethodAssumeRole:
		return a.getAssumeRoleConfig(ctx)
	case AuthMethodWebIdentity:
		return a.getWebIdentityConfig(ctx)
	default:
		return aws.Config{}, fmt.Errorf("unsupported authentication method: %s", method)
	}
}

// baseOptions carries region and retry settings shared by every method
func (a *AuthenticationProvider) baseOptions() []func(*awsconfig.LoadOptions) error {
	opts := []func(*awsconfig.LoadOptions) error{}
	if a.config.Region != "" {
		opts = append(opts, awsconfig.WithRegion(a.config.Region))
	}
	if a.config.RetryMaxAttempts > 0 {
		opts = append(opts, awsconfig.WithRetryMaxAttempts(a.config.RetryMaxAttempts))
	}
	if a.config.RetryMode != "" {
		opts = append(opts, awsconfig.WithRetryMode(aws.RetryMode(a.config.RetryMode)))
	}
	return opts
}

func (a *AuthenticationProvider) load(ctx context.Context, extra ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, append(a.baseOptions(), extra...)...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("failed to load default config: %w", err)
	}
	return cfg, nil
}

// getProfileConfig uses named AWS profile
func (a *AuthenticationProvider) getProfileConfig(ctx context.Context) (aws.Config, error) {
	profile := a.config.Profile
	if profile == "" {
		profile = "default"
	}

	a.logger.Debug("Using AWS profile authentication", zap.String("profile", profile))

	cfg, err := a.load(ctx, awsconfig.WithSharedConfigProfile(profile))
	if err != nil {
		return aws.Config{}, fmt.Errorf("failed to load profile config: %w", err)
	}
	return cfg, nil
}

// getAssumeRoleConfig uses STS AssumeRole for authentication
func (a *AuthenticationProvider) getAssumeRoleConfig(ctx context.Context) (aws.Config, error) {
	role := a.config.AssumeRole
	if role == nil {
		return aws.Config{}, fmt.Errorf("assume_role configuration required")
	}

	a.logger.Debug("Using STS AssumeRole authentication",
		zap.String("role_arn", role.RoleARN),
		zap.String("session_name", role.SessionName))

	baseCfg, err := a.load(ctx)
	if err != nil {
		return aws.Config{}, fmt.Errorf("failed to load base config: %w", err)
	}

	stsClient := sts.NewFromConfig(baseCfg)

	cfg, err := a.load(ctx,
		awsconfig.WithCredentialsProvider(aws.NewCredentialsCache(stscreds.NewAssumeRoleProvider(stsClient, role.RoleARN, func(options *stscreds.AssumeRoleOptions) {
			options.RoleSessionName = role.SessionName
			if role.DurationSeconds > 0 {
				options.Duration = time.Duration(role.DurationSeconds) * time.Second
			}
			if role.ExternalID != "" {
				options.ExternalID = aws.String(role.ExternalID)
			}
		}))),
	)
	if err != nil {
		return aws.Config{}, fmt.Errorf("failed to configure assume role: %w", err)
	}
	return cfg, nil
}

// getWebIdentityConfig uses Web Identity Federation (for Kubernetes/containers)
func (a *AuthenticationProvider) getWebIdentityConfig(ctx context.Context) (aws.Config, error) {
	wi := a.config.WebIdentity
	if wi == nil {
		return aws.Config{}, fmt.Errorf("web_identity configuration required")
	}

	a.logger.Debug("Using Web Identity Federation authentication",
		zap.String("role_arn", wi.RoleARN),
		zap.String("token_file", wi.TokenFile))

	baseCfg, err := a.load(ctx)
	if err != nil {
		return aws.Config{}, fmt.Errorf("failed to load base config: %w", err)
	}

	provider := stscreds.NewWebIdentityRoleProvider(sts.NewFromConfig(baseCfg), wi.RoleARN,
		stscreds.IdentityTokenFile(wi.TokenFile),
		func(options *stscreds.WebIdentityRoleOptions) {
			options.RoleSessionName = wi.SessionName
		})

	cfg, err := a.load(ctx, awsconfig.WithCredentialsProvider(aws.NewCredentialsCache(provider)))
	if err != nil {
		return aws.Config{}, fmt.Errorf("failed to configure web identity: %w", err)
	}
	return cfg, nil
}

// GetCredentialInfo returns information about current credentials
func (a *AuthenticationProvider) GetCredentialInfo(ctx context.Context, cfg aws.Config) (*CredentialInfo, error) {
	stsClient := sts.NewFromConfig(cfg)

	result, err := stsClient.GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
	if err != nil {
		return nil, fmt.Errorf("failed to get credential info: %w", err)
	}

	a.logger.Info("AWS credentials validated",
		zap.String("account", aws.ToString(result.Account)),
		zap.String("arn", aws.ToString(result.Arn)))

	return &CredentialInfo{
		Account:     aws.ToString(result.Account),
		ARN:         aws.ToString(result.Arn),
		UserID:      aws.ToString(result.UserId),
		Method:      a.config.AuthenticationMethod,
		ValidatedAt: time.Now(),
	}, nil
}

// CredentialInfo contains information about current AWS credentials
type CredentialInfo struct {
	Account     string    `json:"account"`
	ARN         string    `json:"arn"`
	UserID      string    `json:"user_id"`
	Method      string    `json:"method"`
	ValidatedAt time.Time `json:"validated_at"`
}

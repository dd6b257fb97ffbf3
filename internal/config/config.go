package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Environment variables read on every request
const (
	EnvJWTSecret  = "JWT_SECRET"
	EnvPassword   = "PASSWORD"
	EnvInstanceID = "EC2_ID"
)

// Config is the per-request configuration. All fields are required.
type Config struct {
	JWTSecret  string
	Password   string
	InstanceID string
}

// MissingError reports a required environment variable that is not set.
// Name is the operator-facing name, which for PASSWORD is "PWD".
type MissingError struct {
	Name string
}

func (e *MissingError) Error() string {
	return fmt.Sprintf("%s was not configured", e.Name)
}

// requiredEnv is checked in order; the first missing variable is reported
var requiredEnv = []struct {
	key      string
	reported string
}{
	{EnvJWTSecret, "JWT_SECRET"},
	{EnvPassword, "PWD"},
	{EnvInstanceID, "EC2_ID"},
}

// FromEnv reads the request configuration from the process environment.
// A variable set to the empty string counts as configured.
func FromEnv() (*Config, error) {
	v := viper.New()
	v.AllowEmptyEnv(true)

	values := make(map[string]string, len(requiredEnv))
	for _, env := range requiredEnv {
		if err := v.BindEnv(env.key); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", env.key, err)
		}
		if !v.IsSet(env.key) {
			return nil, &MissingError{Name: env.reported}
		}
		values[env.key] = v.GetString(env.key)
	}

	return &Config{
		JWTSecret:  values[EnvJWTSecret],
		Password:   values[EnvPassword],
		InstanceID: values[EnvInstanceID],
	}, nil
}

// Settings is process-level configuration shared by every request
type Settings struct {
	AWS     AWSConfig     `mapstructure:"aws"`
	Token   TokenConfig   `mapstructure:"token"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// AWSConfig contains AWS-specific configuration
type AWSConfig struct {
	Region           string `mapstructure:"region"`
	Profile          string `mapstructure:"profile"`
	RetryMaxAttempts int    `mapstructure:"retry_max_attempts"`
	RetryMode        string `mapstructure:"retry_mode"`

	AuthenticationMethod string             `mapstructure:"authentication_method"`
	AssumeRole           *AssumeRoleConfig  `mapstructure:"assume_role"`
	WebIdentity          *WebIdentityConfig `mapstructure:"web_identity"`
}

// AssumeRoleConfig contains STS AssumeRole configuration
type AssumeRoleConfig struct {
	RoleARN         string `mapstructure:"role_arn"`
	SessionName     string `mapstructure:"session_name"`
	DurationSeconds int32  `mapstructure:"duration_seconds"`
	ExternalID      string `mapstructure:"external_id"`
}

// WebIdentityConfig contains Web Identity Federation configuration
type WebIdentityConfig struct {
	RoleARN     string `mapstructure:"role_arn"`
	TokenFile   string `mapstructure:"token_file"`
	SessionName string `mapstructure:"session_name"`
}

// TokenConfig controls issued bearer tokens
type TokenConfig struct {
	TTLSeconds int `mapstructure:"ttl_seconds"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // "json" or "text"
}

// LoadSettings loads process settings from an optional YAML file with
// ADMIN_ prefixed environment overrides (ADMIN_AWS_REGION, ADMIN_LOGGING_LEVEL, ...).
func LoadSettings(configPath string) (*Settings, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("admin")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := bindOptionalEnv(v); err != nil {
		return nil, err
	}

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var settings Settings
	if err := v.Unmarshal(&settings); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validate(&settings); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &settings, nil
}

func setDefaults(v *viper.Viper) {
	// Region is left to the SDK (AWS_REGION in Lambda)
	v.SetDefault("aws.region", "")
	v.SetDefault("aws.profile", "")
	v.SetDefault("aws.retry_max_attempts", 3)
	v.SetDefault("aws.retry_mode", "standard")
	v.SetDefault("aws.authentication_method", "default")

	v.SetDefault("token.ttl_seconds", 3600)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// optionalEnvKeys have no default, so AutomaticEnv alone would never see them.
// They stay absent unless the variable is set, leaving their section nil.
var optionalEnvKeys = []string{
	"aws.assume_role.role_arn",
	"aws.assume_role.session_name",
	"aws.assume_role.duration_seconds",
	"aws.assume_role.external_id",
	"aws.web_identity.role_arn",
	"aws.web_identity.token_file",
	"aws.web_identity.session_name",
}

func bindOptionalEnv(v *viper.Viper) error {
	for _, key := range optionalEnvKeys {
		if err := v.BindEnv(key); err != nil {
			return fmt.Errorf("failed to bind %s: %w", key, err)
		}
	}
	return nil
}

func validate(settings *Settings) error {
	if err := validateAWS(&settings.AWS); err != nil {
		return err
	}
	if settings.Token.TTLSeconds <= 0 {
		return fmt.Errorf("token.ttl_seconds must be positive")
	}
	return validateLogging(&settings.Logging)
}

func validateAWS(aws *AWSConfig) error {
	if aws.RetryMaxAttempts <= 0 {
		return fmt.Errorf("aws.retry_max_attempts must be positive")
	}
	if err := oneOf("aws.retry_mode", aws.RetryMode, "standard", "adaptive"); err != nil {
		return err
	}
	if err := oneOf("aws.authentication_method", aws.AuthenticationMethod,
		"default", "profile", "assume_role", "web_identity"); err != nil {
		return err
	}

	switch aws.AuthenticationMethod {
	case "profile":
		if aws.Profile == "" {
			return fmt.Errorf("aws.profile is required for profile authentication")
		}
	case "assume_role":
		if aws.AssumeRole == nil || aws.AssumeRole.RoleARN == "" {
			return fmt.Errorf("aws.assume_role.role_arn is required for assume_role authentication")
		}
	case "web_identity":
		if aws.WebIdentity == nil || aws.WebIdentity.RoleARN == "" || aws.WebIdentity.TokenFile == "" {
			return fmt.Errorf("aws.web_identity.role_arn and token_file are required for web_identity authentication")
		}
	}
	return nil
}

func validateLogging(logging *LoggingConfig) error {
	if err := oneOf("logging.level", logging.Level, "debug", "info", "warn", "error"); err != nil {
		return err
	}
	return oneOf("logging.format", logging.Format, "json", "text")
}

func oneOf(key, value string, allowed ...string) error {
	for _, a := range allowed {
		if value == a {
			return nil
		}
	}
	return fmt.Errorf("%s must be one of: %s", key, strings.Join(allowed, ", "))
}

// SetupLogger creates a zap logger with the configured settings
func (s *Settings) SetupLogger() (*zap.Logger, error) {
	var logger *zap.Logger
	var err error

	switch s.Logging.Format {
	case "json":
		if s.Logging.Level == "debug" {
			logger, err = zap.NewDevelopment()
		} else {
			cfg := zap.NewProductionConfig()
			level, parseErr := zap.ParseAtomicLevel(s.Logging.Level)
			if parseErr == nil {
				cfg.Level = level
			}
			logger, err = cfg.Build()
		}
	case "text":
		config := zap.NewDevelopmentConfig()
		config.Encoding = "console"
		logger, err = config.Build()
	default:
		logger, err = zap.NewProduction()
	}

	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	return logger, nil
}

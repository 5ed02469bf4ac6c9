package clients

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/credentials/stscreds"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"gopkg.in/yaml.v3"
	"k8s.io/apimachinery/pkg/util/wait"

	apigwadapter "github.com/BryanCrotaz/aws-api-gateway-for-cloudformation/internal/adapters/aws/apigateway"
	usecases "github.com/BryanCrotaz/aws-api-gateway-for-cloudformation/internal/usecases/apigateway"
)

// AWSConfig holds region, endpoint and credentials
type AWSConfig struct {
	Region          string `yaml:"region"`
	Endpoint        string `yaml:"endpoint,omitempty"` // LocalStack
	AccessKeyID     string `yaml:"accessKeyId,omitempty"`
	SecretAccessKey string `yaml:"secretAccessKey,omitempty"`
	SessionToken    string `yaml:"sessionToken,omitempty"`
	Profile         string `yaml:"profile,omitempty"`

	// AssumeRoleARN is assumed on top of the base credentials.
	AssumeRoleARN        string `yaml:"assumeRoleArn,omitempty"`
	AssumeRoleExternalID string `yaml:"assumeRoleExternalId,omitempty"`
}

// EngineConfig tunes retries, throttling and the settle delay of pipelines
type EngineConfig struct {
	RetrySteps        int           `yaml:"retrySteps"`
	RetryBaseDelay    time.Duration `yaml:"retryBaseDelay"`
	RetryMaxDelay     time.Duration `yaml:"retryMaxDelay"`
	SettleDelay       time.Duration `yaml:"settleDelay"`
	RequestsPerSecond float64       `yaml:"requestsPerSecond"`
	Burst             int           `yaml:"burst"`
	PageSize          int32         `yaml:"pageSize"`
}

// ProviderConfig is the complete provider configuration
type ProviderConfig struct {
	Name   string       `yaml:"name"`
	AWS    AWSConfig    `yaml:"aws"`
	Engine EngineConfig `yaml:"engine"`
}

// DefaultEngineConfig returns the engine defaults.
func DefaultEngineConfig() EngineConfig {
	client := apigwadapter.DefaultConfig()
	return EngineConfig{
		RetrySteps:        client.Backoff.Steps,
		RetryBaseDelay:    client.Backoff.Duration,
		RetryMaxDelay:     client.Backoff.Cap,
		SettleDelay:       usecases.DefaultSettleDelay,
		RequestsPerSecond: client.RequestsPerSecond,
		Burst:             client.Burst,
		PageSize:          client.PageSize,
	}
}

// NewProviderConfigFromEnv builds the configuration from environment variables
func NewProviderConfigFromEnv() *ProviderConfig {
	engine := DefaultEngineConfig()
	engine.RetrySteps = getEnvInt("APIGW_RETRY_STEPS", engine.RetrySteps)
	engine.RetryBaseDelay = getEnvDuration("APIGW_RETRY_BASE_DELAY", engine.RetryBaseDelay)
	engine.RetryMaxDelay = getEnvDuration("APIGW_RETRY_MAX_DELAY", engine.RetryMaxDelay)
	engine.SettleDelay = getEnvDuration("APIGW_SETTLE_DELAY", engine.SettleDelay)
	engine.RequestsPerSecond = getEnvFloat("APIGW_REQUESTS_PER_SECOND", engine.RequestsPerSecond)
	engine.PageSize = int32(getEnvInt("APIGW_PAGE_SIZE", int(engine.PageSize)))

	return &ProviderConfig{
		Name: "env",
		AWS: AWSConfig{
			Region:               getEnvOrDefault("AWS_REGION", "us-east-1"),
			Endpoint:             os.Getenv("AWS_ENDPOINT_URL"),
			AccessKeyID:          os.Getenv("AWS_ACCESS_KEY_ID"),
			SecretAccessKey:      os.Getenv("AWS_SECRET_ACCESS_KEY"),
			SessionToken:         os.Getenv("AWS_SESSION_TOKEN"),
			Profile:              os.Getenv("AWS_PROFILE"),
			AssumeRoleARN:        os.Getenv("AWS_ASSUME_ROLE_ARN"),
			AssumeRoleExternalID: os.Getenv("AWS_ASSUME_ROLE_EXTERNAL_ID"),
		},
		Engine: engine,
	}
}

// LoadProviderConfig reads the environment and overlays the YAML file at
// path, if any. Values present in the file win.
func LoadProviderConfig(path string) (*ProviderConfig, error) {
	cfg := NewProviderConfigFromEnv()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return cfg, nil
}

// ClientConfig converts the engine settings into the API Gateway client config.
func (e EngineConfig) ClientConfig() apigwadapter.Config {
	return apigwadapter.Config{
		Backoff: wait.Backoff{
			Steps:    e.RetrySteps,
			Duration: e.RetryBaseDelay,
			Factor:   2,
			Jitter:   0.1,
			Cap:      e.RetryMaxDelay,
		},
		RequestsPerSecond: e.RequestsPerSecond,
		Burst:             e.Burst,
		PageSize:          e.PageSize,
	}
}

// GetAWSConfig returns an AWS SDK configuration
func (p *ProviderConfig) GetAWSConfig(ctx context.Context) (aws.Config, error) {
	var opts []func(*config.LoadOptions) error

	opts = append(opts, config.WithRegion(p.AWS.Region))

	// Static credentials win over a named profile
	if p.AWS.AccessKeyID != "" && p.AWS.SecretAccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(
				p.AWS.AccessKeyID,
				p.AWS.SecretAccessKey,
				p.AWS.SessionToken,
			),
		))
	} else if p.AWS.Profile != "" {
		opts = append(opts, config.WithSharedConfigProfile(p.AWS.Profile))
	}
	// Otherwise the default chain applies (env vars, IAM role, etc.)

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("failed to load AWS config: %w", err)
	}

	// LocalStack
	if p.AWS.Endpoint != "" {
		awsCfg.BaseEndpoint = aws.String(p.AWS.Endpoint)
	}

	if p.AWS.AssumeRoleARN != "" {
		provider := stscreds.NewAssumeRoleProvider(sts.NewFromConfig(awsCfg), p.AWS.AssumeRoleARN, func(o *stscreds.AssumeRoleOptions) {
			o.RoleSessionName = "apigw-provider"
			if p.AWS.AssumeRoleExternalID != "" {
				o.ExternalID = aws.String(p.AWS.AssumeRoleExternalID)
			}
		})
		awsCfg.Credentials = aws.NewCredentialsCache(provider)
	}

	return awsCfg, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return v
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if v, err := strconv.ParseFloat(os.Getenv(key), 64); err == nil {
		return v
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if v, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return v
	}
	return defaultValue
}

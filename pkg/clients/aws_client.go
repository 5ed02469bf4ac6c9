package clients

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"sigs.k8s.io/controller-runtime/pkg/log"

	apigwadapter "github.com/BryanCrotaz/aws-api-gateway-for-cloudformation/internal/adapters/aws/apigateway"
	"github.com/BryanCrotaz/aws-api-gateway-for-cloudformation/internal/adapters/aws/certificates"
	"github.com/BryanCrotaz/aws-api-gateway-for-cloudformation/internal/adapters/aws/s3"
	"github.com/BryanCrotaz/aws-api-gateway-for-cloudformation/internal/commands"
	"github.com/BryanCrotaz/aws-api-gateway-for-cloudformation/internal/ports"
	usecases "github.com/BryanCrotaz/aws-api-gateway-for-cloudformation/internal/usecases/apigateway"
	"github.com/BryanCrotaz/aws-api-gateway-for-cloudformation/pkg/metrics"
)

// Provider bundles the dispatcher with the clients it was built from.
type Provider struct {
	Config     *ProviderConfig
	Dispatcher *commands.Dispatcher

	sts ports.STSAPI
}

// NewProvider loads the AWS configuration and wires every adapter, use case
// and command handler.
func NewProvider(ctx context.Context, cfg *ProviderConfig) (*Provider, error) {
	awsCfg, err := cfg.GetAWSConfig(ctx)
	if err != nil {
		return nil, err
	}
	return NewProviderFromAWSConfig(cfg, awsCfg), nil
}

// NewProviderFromAWSConfig wires the provider from an already loaded AWS config.
func NewProviderFromAWSConfig(cfg *ProviderConfig, awsCfg aws.Config) *Provider {
	client := apigwadapter.NewFromConfig(awsCfg, cfg.Engine.ClientConfig())
	svc := usecases.NewServices(
		client,
		certificates.NewSourceFromConfig(awsCfg),
		s3.NewRepository(awsCfg),
		usecases.Config{SettleDelay: cfg.Engine.SettleDelay},
	)
	return &Provider{
		Config:     cfg,
		Dispatcher: commands.NewDispatcher(svc),
		sts:        sts.NewFromConfig(awsCfg),
	}
}

// NewProviderWithClients wires the provider from explicit ports.
func NewProviderWithClients(cfg *ProviderConfig, client ports.APIGatewayClient, certs ports.CertificateSource, defs ports.DefinitionSource, identity ports.STSAPI) *Provider {
	svc := usecases.NewServices(client, certs, defs, usecases.Config{SettleDelay: cfg.Engine.SettleDelay})
	return &Provider{
		Config:     cfg,
		Dispatcher: commands.NewDispatcher(svc),
		sts:        identity,
	}
}

// CheckCredentials calls STS GetCallerIdentity and records the outcome in the
// provider_ready gauge. It returns the caller ARN.
func (p *Provider) CheckCredentials(ctx context.Context) (string, error) {
	logger := log.FromContext(ctx)

	recorder := metrics.NewAWSAPIMetricsRecorder(metrics.ServiceSTS, "GetCallerIdentity")
	out, err := p.sts.GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
	if err != nil {
		recorder.RecordError(err)
		metrics.SetProviderReady(p.Config.Name, p.Config.AWS.Region, false)
		logger.Error(err, "Failed to verify AWS credentials")
		return "", fmt.Errorf("failed to verify AWS credentials: %w", err)
	}
	recorder.RecordSuccess()
	metrics.SetProviderReady(p.Config.Name, p.Config.AWS.Region, true)

	return aws.ToString(out.Arn), nil
}

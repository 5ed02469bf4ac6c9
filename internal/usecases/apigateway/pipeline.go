package apigateway

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsapigw "github.com/aws/aws-sdk-go-v2/service/apigateway"
	"github.com/aws/aws-sdk-go-v2/service/apigateway/types"
	"sigs.k8s.io/controller-runtime/pkg/log"

	"github.com/BryanCrotaz/aws-api-gateway-for-cloudformation/internal/domain/apigateway"
	"github.com/BryanCrotaz/aws-api-gateway-for-cloudformation/internal/domain/lifecycle"
	"github.com/BryanCrotaz/aws-api-gateway-for-cloudformation/internal/faults"
	"github.com/BryanCrotaz/aws-api-gateway-for-cloudformation/internal/ports"
)

// methodPipeline creates the four remote objects making up a method:
// the method, its integration, one method response per status code and one
// integration response per status code.
//
// A failed step aborts the pipeline. Objects created by earlier steps are left
// in place; the Delete event that follows a failed create removes them.
type methodPipeline struct {
	client ports.APIGatewayClient
	settle time.Duration
}

func newMethodPipeline(client ports.APIGatewayClient, cfg Config) *methodPipeline {
	return &methodPipeline{client: client, settle: cfg.SettleDelay}
}

func (p *methodPipeline) create(ctx context.Context, m *apigateway.Method) error {
	// Once started the pipeline runs to completion or first failure.
	ctx = context.WithoutCancel(ctx)
	logger := log.FromContext(ctx).WithValues(
		"restApiId", m.RestAPIID,
		"resourceId", m.ResourceID,
		"httpMethod", m.Settings.HTTPMethod,
	)

	if err := p.putMethod(ctx, m); err != nil {
		logger.Error(err, "Failed to put method")
		return p.abort(m, "PutMethod", "", err)
	}
	p.wait()

	if err := p.putIntegration(ctx, m); err != nil {
		logger.Error(err, "Failed to put integration")
		return p.abort(m, "PutIntegration", "", err)
	}
	p.wait()

	for i := range m.Responses {
		r := &m.Responses[i]
		if err := p.putMethodResponse(ctx, m, r); err != nil {
			logger.Error(err, "Failed to put method response", "statusCode", r.StatusCode)
			return p.abort(m, "PutMethodResponse", r.StatusCode, err)
		}
	}
	p.wait()

	for i := range m.Responses {
		r := &m.Responses[i]
		if err := p.putIntegrationResponse(ctx, m, r); err != nil {
			logger.Error(err, "Failed to put integration response", "statusCode", r.StatusCode)
			return p.abort(m, "PutIntegrationResponse", r.StatusCode, err)
		}
	}

	logger.Info("Method created", "statusCodes", m.StatusCodes())
	return nil
}

func (p *methodPipeline) wait() {
	if p.settle > 0 {
		time.Sleep(p.settle)
	}
}

func (p *methodPipeline) abort(m *apigateway.Method, step, statusCode string, err error) error {
	e := faults.Aborted(lifecycle.ResourceTypeAPIMethod, step, m.PhysicalID(), err)
	if statusCode != "" {
		e = e.WithDetail("statusCode", statusCode)
	}
	return e
}

func (p *methodPipeline) putMethod(ctx context.Context, m *apigateway.Method) error {
	input := &awsapigw.PutMethodInput{
		RestApiId:         aws.String(m.RestAPIID),
		ResourceId:        aws.String(m.ResourceID),
		HttpMethod:        aws.String(m.Settings.HTTPMethod),
		AuthorizationType: aws.String(m.Settings.AuthorizationType),
		ApiKeyRequired:    m.Settings.APIKeyRequired,
		RequestParameters: m.Settings.RequestParameters(),
	}
	switch m.Settings.AuthorizationType {
	case apigateway.AuthorizationCustom, apigateway.AuthorizationCognitoUserPools:
		input.AuthorizerId = aws.String(m.Settings.AuthorizerID)
	}
	if len(m.Settings.RequestModels) > 0 {
		input.RequestModels = m.Settings.RequestModels
	}

	_, err := p.client.PutMethod(ctx, input)
	return err
}

func (p *methodPipeline) putIntegration(ctx context.Context, m *apigateway.Method) error {
	in := m.Integration
	input := &awsapigw.PutIntegrationInput{
		RestApiId:  aws.String(m.RestAPIID),
		ResourceId: aws.String(m.ResourceID),
		HttpMethod: aws.String(m.Settings.HTTPMethod),
		Type:       types.IntegrationType(in.Type),
	}
	if in.HTTPMethod != "" {
		input.IntegrationHttpMethod = aws.String(in.HTTPMethod)
	}
	if in.URI != "" {
		input.Uri = aws.String(in.URI)
	}
	if in.Credentials != "" {
		input.Credentials = aws.String(in.Credentials)
	}
	if len(in.RequestParameters) > 0 {
		input.RequestParameters = in.RequestParameters
	}
	if len(in.RequestTemplates) > 0 {
		input.RequestTemplates = in.RequestTemplates
	}
	if in.PassthroughBehavior != "" {
		input.PassthroughBehavior = aws.String(in.PassthroughBehavior)
	}
	if in.CacheNamespace != "" {
		input.CacheNamespace = aws.String(in.CacheNamespace)
	}
	if len(in.CacheKeyParameters) > 0 {
		input.CacheKeyParameters = in.CacheKeyParameters
	}

	_, err := p.client.PutIntegration(ctx, input)
	return err
}

func (p *methodPipeline) putMethodResponse(ctx context.Context, m *apigateway.Method, r *apigateway.MethodResponse) error {
	input := &awsapigw.PutMethodResponseInput{
		RestApiId:          aws.String(m.RestAPIID),
		ResourceId:         aws.String(m.ResourceID),
		HttpMethod:         aws.String(m.Settings.HTTPMethod),
		StatusCode:         aws.String(r.StatusCode),
		ResponseParameters: r.MethodResponseParameters(),
	}
	if len(r.ResponseModels) > 0 {
		input.ResponseModels = r.ResponseModels
	}

	_, err := p.client.PutMethodResponse(ctx, input)
	return err
}

func (p *methodPipeline) putIntegrationResponse(ctx context.Context, m *apigateway.Method, r *apigateway.MethodResponse) error {
	input := &awsapigw.PutIntegrationResponseInput{
		RestApiId:          aws.String(m.RestAPIID),
		ResourceId:         aws.String(m.ResourceID),
		HttpMethod:         aws.String(m.Settings.HTTPMethod),
		StatusCode:         aws.String(r.StatusCode),
		ResponseParameters: r.IntegrationResponseParameters(),
	}
	if r.SelectionPattern != "" {
		input.SelectionPattern = aws.String(r.SelectionPattern)
	}
	if len(r.ResponseTemplates) > 0 {
		input.ResponseTemplates = r.ResponseTemplates
	}

	_, err := p.client.PutIntegrationResponse(ctx, input)
	return err
}

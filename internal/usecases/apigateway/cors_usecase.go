package apigateway

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsapigw "github.com/aws/aws-sdk-go-v2/service/apigateway"
	"sigs.k8s.io/controller-runtime/pkg/log"

	"github.com/BryanCrotaz/aws-api-gateway-for-cloudformation/internal/domain/apigateway"
	"github.com/BryanCrotaz/aws-api-gateway-for-cloudformation/internal/ports"
)

var _ ports.CorsUseCase = (*CorsUseCase)(nil)

// CorsUseCase manages the OPTIONS method that answers CORS preflight requests.
type CorsUseCase struct {
	client   ports.APIGatewayClient
	pipeline *methodPipeline
}

func NewCorsUseCase(client ports.APIGatewayClient, cfg Config) *CorsUseCase {
	return &CorsUseCase{client: client, pipeline: newMethodPipeline(client, cfg)}
}

// PutOptionsMethod creates the preflight method of a resource.
func (uc *CorsUseCase) PutOptionsMethod(ctx context.Context, restAPIID, resourceID string, cors *apigateway.CorsConfiguration) error {
	if cors == nil {
		return nil
	}
	return uc.pipeline.create(ctx, cors.PreflightMethod(restAPIID, resourceID))
}

// UpdateCorsConfiguration converges the preflight method from old to cors.
// A changed configuration is applied by deleting and recreating the method.
func (uc *CorsUseCase) UpdateCorsConfiguration(ctx context.Context, restAPIID, resourceID string, cors, old *apigateway.CorsConfiguration) error {
	logger := log.FromContext(ctx).WithValues("restApiId", restAPIID, "resourceId", resourceID)

	if cors.Equal(old) {
		return nil
	}
	if old != nil {
		if err := uc.deleteOptionsMethod(ctx, restAPIID, resourceID); err != nil {
			logger.Error(err, "Failed to delete preflight method")
			return err
		}
	}
	if cors == nil {
		logger.Info("Preflight method removed")
		return nil
	}
	return uc.PutOptionsMethod(ctx, restAPIID, resourceID, cors)
}

// AllowOrigin returns the Access-Control-Allow-Origin value (quoted, as mapped
// by the integration response) that the preflight method of the resource
// advertises for httpMethod. A resource without preflight method, or whose
// preflight does not allow httpMethod, yields "".
func (uc *CorsUseCase) AllowOrigin(ctx context.Context, restAPIID, resourceID, httpMethod string) (string, error) {
	out, err := uc.client.GetMethod(ctx, &awsapigw.GetMethodInput{
		RestApiId:  aws.String(restAPIID),
		ResourceId: aws.String(resourceID),
		HttpMethod: aws.String(apigateway.HTTPMethodOptions),
	})
	if err != nil {
		return "", ignoreNotFound(err)
	}
	if out.MethodIntegration == nil {
		return "", nil
	}

	response, ok := out.MethodIntegration.IntegrationResponses[apigateway.CorsStatusCode]
	if !ok {
		return "", nil
	}
	params := response.ResponseParameters
	allowMethods := params[apigateway.MethodResponseHeaderPrefix+apigateway.HeaderAllowMethods]
	if !apigateway.AllowsMethod(allowMethods, httpMethod) {
		return "", nil
	}
	return params[apigateway.MethodResponseHeaderPrefix+apigateway.HeaderAllowOrigin], nil
}

func (uc *CorsUseCase) deleteOptionsMethod(ctx context.Context, restAPIID, resourceID string) error {
	_, err := uc.client.DeleteMethod(ctx, &awsapigw.DeleteMethodInput{
		RestApiId:  aws.String(restAPIID),
		ResourceId: aws.String(resourceID),
		HttpMethod: aws.String(apigateway.HTTPMethodOptions),
	})
	return ignoreNotFound(err)
}

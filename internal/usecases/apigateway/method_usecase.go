package apigateway

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsapigw "github.com/aws/aws-sdk-go-v2/service/apigateway"
	"sigs.k8s.io/controller-runtime/pkg/log"

	"github.com/BryanCrotaz/aws-api-gateway-for-cloudformation/internal/domain/apigateway"
	"github.com/BryanCrotaz/aws-api-gateway-for-cloudformation/internal/ports"
	"github.com/BryanCrotaz/aws-api-gateway-for-cloudformation/pkg/patch"
)

var _ ports.MethodUseCase = (*MethodUseCase)(nil)

type MethodUseCase struct {
	client   ports.APIGatewayClient
	cors     ports.CorsUseCase
	pipeline *methodPipeline
}

func NewMethodUseCase(client ports.APIGatewayClient, cors ports.CorsUseCase, cfg Config) *MethodUseCase {
	return &MethodUseCase{client: client, cors: cors, pipeline: newMethodPipeline(client, cfg)}
}

// Create runs the method pipeline. Responses of a method whose verb the
// resource's preflight method allows also return its Access-Control-Allow-Origin.
func (uc *MethodUseCase) Create(ctx context.Context, params *apigateway.Method) (*apigateway.Method, error) {
	apiID, err := resolveRestAPI(ctx, uc.client, params.RestAPIID, params.RestAPIName)
	if err != nil {
		return nil, err
	}
	result := *params
	result.RestAPIID = apiID

	desired := &result
	if !result.IsPreflight() {
		origin, err := uc.cors.AllowOrigin(ctx, apiID, result.ResourceID, result.Settings.HTTPMethod)
		if err != nil {
			log.FromContext(ctx).Error(err, "Failed to read preflight method, continuing without CORS origin",
				"restApiId", apiID, "resourceId", result.ResourceID)
		}
		if origin != "" {
			desired = result.WithAllowOrigin(origin)
		}
	}

	if err := uc.pipeline.create(ctx, desired); err != nil {
		return nil, err
	}
	return &result, nil
}

// Update patches the method settings in place when only those changed.
// Any other change deletes the method and runs the create pipeline again.
func (uc *MethodUseCase) Update(ctx context.Context, physicalID string, params, old *apigateway.Method) (*apigateway.Method, error) {
	apiID, err := resolveRestAPI(ctx, uc.client, params.RestAPIID, params.RestAPIName)
	if err != nil {
		return nil, err
	}
	desired := *params
	desired.RestAPIID = apiID

	// A new identity is a new object; the platform deletes the old one.
	if desired.PhysicalID() != physicalID {
		return uc.Create(ctx, &desired)
	}

	logger := log.FromContext(ctx).WithValues("restApiId", apiID, "resourceId", desired.ResourceID, "httpMethod", desired.Settings.HTTPMethod)

	if desired.RequiresRebuild(old) {
		logger.Info("Rebuilding method")
		if err := uc.deleteMethod(ctx, apiID, desired.ResourceID, desired.Settings.HTTPMethod); err != nil {
			logger.Error(err, "Failed to delete method for rebuild")
			return nil, err
		}
		return uc.Create(ctx, &desired)
	}

	ops := patch.Diff(patch.StateOf(&desired.Settings), patch.StateOf(&old.Settings), apigateway.MethodPolicy)
	if len(ops) > 0 {
		logger.Info("Updating method", "operations", loggableOps(ops))
		if _, err := uc.client.UpdateMethod(ctx, &awsapigw.UpdateMethodInput{
			RestApiId:       aws.String(apiID),
			ResourceId:      aws.String(desired.ResourceID),
			HttpMethod:      aws.String(desired.Settings.HTTPMethod),
			PatchOperations: toPatchOperations(ops),
		}); err != nil {
			logger.Error(err, "Failed to update method")
			return nil, err
		}
	}

	out, err := uc.client.GetMethod(ctx, &awsapigw.GetMethodInput{
		RestApiId:  aws.String(apiID),
		ResourceId: aws.String(desired.ResourceID),
		HttpMethod: aws.String(desired.Settings.HTTPMethod),
	})
	if err != nil {
		logger.Error(err, "Failed to get method")
		return nil, err
	}
	desired.Settings.AuthorizationType = aws.ToString(out.AuthorizationType)
	desired.Settings.AuthorizerID = aws.ToString(out.AuthorizerId)
	desired.Settings.APIKeyRequired = aws.ToBool(out.ApiKeyRequired)
	return &desired, nil
}

// Delete removes the method addressed by physicalID. Ids that do not parse
// never named a created method.
func (uc *MethodUseCase) Delete(ctx context.Context, physicalID string, _ *apigateway.Method) error {
	apiID, resourceID, httpMethod, ok := apigateway.ParseMethodID(physicalID)
	if !ok {
		log.FromContext(ctx).Info("Skipping delete of invalid method id", "physicalResourceId", physicalID)
		return nil
	}
	if err := uc.deleteMethod(ctx, apiID, resourceID, httpMethod); err != nil {
		log.FromContext(ctx).Error(err, "Failed to delete method", "physicalResourceId", physicalID)
		return err
	}
	return nil
}

func (uc *MethodUseCase) deleteMethod(ctx context.Context, apiID, resourceID, httpMethod string) error {
	_, err := uc.client.DeleteMethod(ctx, &awsapigw.DeleteMethodInput{
		RestApiId:  aws.String(apiID),
		ResourceId: aws.String(resourceID),
		HttpMethod: aws.String(httpMethod),
	})
	return ignoreNotFound(err)
}

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

var _ ports.APIResourceUseCase = (*ResourceUseCase)(nil)

type ResourceUseCase struct {
	client ports.APIGatewayClient
	cors   ports.CorsUseCase
}

func NewResourceUseCase(client ports.APIGatewayClient, cors ports.CorsUseCase) *ResourceUseCase {
	return &ResourceUseCase{client: client, cors: cors}
}

func (uc *ResourceUseCase) Create(ctx context.Context, params *apigateway.Resource) (*apigateway.Resource, error) {
	apiID, err := resolveRestAPI(ctx, uc.client, params.RestAPIID, params.RestAPIName)
	if err != nil {
		return nil, err
	}
	logger := log.FromContext(ctx).WithValues("restApiId", apiID, "parentId", params.ParentID, "pathPart", params.PathPart)

	out, err := uc.client.CreateResource(ctx, &awsapigw.CreateResourceInput{
		RestApiId: aws.String(apiID),
		ParentId:  aws.String(params.ParentID),
		PathPart:  aws.String(params.PathPart),
	})
	if err != nil {
		logger.Error(err, "Failed to create resource")
		return nil, err
	}
	id := aws.ToString(out.Id)

	if params.CorsConfiguration != nil {
		if err := uc.cors.PutOptionsMethod(ctx, apiID, id, params.CorsConfiguration); err != nil {
			logger.Error(err, "Failed to create preflight method", "resourceId", id)
			return nil, err
		}
	}

	logger.Info("Resource created", "resourceId", id)
	result := *params
	result.RestAPIID = apiID
	result.ID = id
	result.Path = aws.ToString(out.Path)
	return &result, nil
}

func (uc *ResourceUseCase) Update(ctx context.Context, physicalID string, params, old *apigateway.Resource) (*apigateway.Resource, error) {
	apiID, err := resolveRestAPI(ctx, uc.client, params.RestAPIID, params.RestAPIName)
	if err != nil {
		return nil, err
	}
	logger := log.FromContext(ctx).WithValues("restApiId", apiID, "resourceId", physicalID)

	ops := patch.Diff(patch.StateOf(params), patch.StateOf(old), apigateway.ResourcePolicy)
	if len(ops) > 0 {
		logger.Info("Updating resource", "operations", loggableOps(ops))
		if _, err := uc.client.UpdateResource(ctx, &awsapigw.UpdateResourceInput{
			RestApiId:       aws.String(apiID),
			ResourceId:      aws.String(physicalID),
			PatchOperations: toPatchOperations(ops),
		}); err != nil {
			logger.Error(err, "Failed to update resource")
			return nil, err
		}
	}

	var oldCors *apigateway.CorsConfiguration
	if old != nil {
		oldCors = old.CorsConfiguration
	}
	if err := uc.cors.UpdateCorsConfiguration(ctx, apiID, physicalID, params.CorsConfiguration, oldCors); err != nil {
		return nil, err
	}

	out, err := uc.client.GetResource(ctx, &awsapigw.GetResourceInput{
		RestApiId:  aws.String(apiID),
		ResourceId: aws.String(physicalID),
	})
	if err != nil {
		logger.Error(err, "Failed to get resource")
		return nil, err
	}

	result := *params
	result.RestAPIID = apiID
	result.ID = aws.ToString(out.Id)
	result.ParentID = aws.ToString(out.ParentId)
	result.PathPart = aws.ToString(out.PathPart)
	result.Path = aws.ToString(out.Path)
	return &result, nil
}

// Delete removes the resource and everything below it. An API that can no
// longer be found by name has nothing left to delete.
func (uc *ResourceUseCase) Delete(ctx context.Context, physicalID string, params *apigateway.Resource) error {
	if physicalID == "" {
		return nil
	}
	apiID, err := resolveRestAPI(ctx, uc.client, params.RestAPIID, params.RestAPIName)
	if err != nil {
		return ignoreNotFound(err)
	}

	_, err = uc.client.DeleteResource(ctx, &awsapigw.DeleteResourceInput{
		RestApiId:  aws.String(apiID),
		ResourceId: aws.String(physicalID),
	})
	if err = ignoreNotFound(err); err != nil {
		log.FromContext(ctx).Error(err, "Failed to delete resource", "restApiId", apiID, "resourceId", physicalID)
		return err
	}
	return nil
}

package apigateway

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsapigw "github.com/aws/aws-sdk-go-v2/service/apigateway"
	"sigs.k8s.io/controller-runtime/pkg/log"

	"github.com/BryanCrotaz/aws-api-gateway-for-cloudformation/internal/domain/apigateway"
	"github.com/BryanCrotaz/aws-api-gateway-for-cloudformation/internal/domain/lifecycle"
	"github.com/BryanCrotaz/aws-api-gateway-for-cloudformation/internal/faults"
	"github.com/BryanCrotaz/aws-api-gateway-for-cloudformation/internal/ports"
	"github.com/BryanCrotaz/aws-api-gateway-for-cloudformation/pkg/metrics"
	"github.com/BryanCrotaz/aws-api-gateway-for-cloudformation/pkg/patch"
)

var _ ports.RestAPIUseCase = (*RestAPIUseCase)(nil)

type RestAPIUseCase struct {
	client ports.APIGatewayClient
	cors   ports.CorsUseCase
}

func NewRestAPIUseCase(client ports.APIGatewayClient, cors ports.CorsUseCase) *RestAPIUseCase {
	return &RestAPIUseCase{client: client, cors: cors}
}

// Create creates the API, resolves its root resource and provisions the root
// preflight method. When a step after the API record fails the record is
// deleted again before the error is returned.
func (uc *RestAPIUseCase) Create(ctx context.Context, params *apigateway.RestAPI) (*apigateway.RestAPI, error) {
	logger := log.FromContext(ctx).WithValues("name", params.Name)

	input := &awsapigw.CreateRestApiInput{Name: aws.String(params.Name)}
	if params.Description != "" {
		input.Description = aws.String(params.Description)
	}
	out, err := uc.client.CreateRestApi(ctx, input)
	if err != nil {
		logger.Error(err, "Failed to create REST API")
		return nil, err
	}
	id := aws.ToString(out.Id)
	logger = logger.WithValues("restApiId", id)

	rootID, err := uc.client.RootResourceID(ctx, id)
	if err != nil {
		logger.Error(err, "Failed to resolve root resource")
		return nil, uc.compensate(ctx, id, "RootResourceID", err)
	}

	if params.CorsConfiguration != nil {
		if err := uc.cors.PutOptionsMethod(ctx, id, rootID, params.CorsConfiguration); err != nil {
			logger.Error(err, "Failed to create root preflight method")
			return nil, uc.compensate(ctx, id, "PutOptionsMethod", err)
		}
	}

	logger.Info("REST API created")
	result := *params
	result.ID = id
	result.RootResourceID = rootID
	result.CreatedDate = aws.ToTime(out.CreatedDate)
	return &result, nil
}

// compensate deletes a just created API after step failed with cause.
func (uc *RestAPIUseCase) compensate(ctx context.Context, id, step string, cause error) error {
	ctx = context.WithoutCancel(ctx)
	aborted := faults.Aborted(lifecycle.ResourceTypeRestAPI, step, id, cause)

	_, err := uc.client.DeleteRestApi(ctx, &awsapigw.DeleteRestApiInput{RestApiId: aws.String(id)})
	err = ignoreNotFound(err)
	metrics.RecordCompensation(lifecycle.ResourceTypeRestAPI, err)
	if err != nil {
		log.FromContext(ctx).Error(err, "Failed to delete REST API after failed create", "restApiId", id)
		return faults.CleanupFailure(lifecycle.ResourceTypeRestAPI, "DeleteRestApi", id, err, aborted)
	}
	return aborted
}

// Update patches name and description, then converges the root preflight method.
func (uc *RestAPIUseCase) Update(ctx context.Context, physicalID string, params, old *apigateway.RestAPI) (*apigateway.RestAPI, error) {
	logger := log.FromContext(ctx).WithValues("restApiId", physicalID)

	ops := patch.Diff(patch.StateOf(params), patch.StateOf(old), apigateway.RestAPIPolicy)
	if len(ops) > 0 {
		logger.Info("Updating REST API", "operations", loggableOps(ops))
		if _, err := uc.client.UpdateRestApi(ctx, &awsapigw.UpdateRestApiInput{
			RestApiId:       aws.String(physicalID),
			PatchOperations: toPatchOperations(ops),
		}); err != nil {
			logger.Error(err, "Failed to update REST API")
			return nil, err
		}
	}

	var oldCors *apigateway.CorsConfiguration
	if old != nil {
		oldCors = old.CorsConfiguration
	}
	if !params.CorsConfiguration.Equal(oldCors) {
		rootID, err := uc.client.RootResourceID(ctx, physicalID)
		if err != nil {
			logger.Error(err, "Failed to resolve root resource")
			return nil, err
		}
		if err := uc.cors.UpdateCorsConfiguration(ctx, physicalID, rootID, params.CorsConfiguration, oldCors); err != nil {
			return nil, err
		}
	}

	current, err := describeRestAPI(ctx, uc.client, physicalID)
	if err != nil {
		return nil, err
	}
	current.CorsConfiguration = params.CorsConfiguration
	return current, nil
}

// Delete removes the API. Ids that cannot name an API (the placeholder sent
// after a failed create) and APIs that are already gone succeed.
func (uc *RestAPIUseCase) Delete(ctx context.Context, physicalID string, _ *apigateway.RestAPI) error {
	return deleteRestAPI(ctx, uc.client, physicalID)
}

func deleteRestAPI(ctx context.Context, client ports.APIGatewayClient, id string) error {
	logger := log.FromContext(ctx).WithValues("restApiId", id)
	if !apigateway.IsValidRestAPIID(id) {
		logger.Info("Skipping delete of invalid REST API id")
		return nil
	}

	_, err := client.DeleteRestApi(ctx, &awsapigw.DeleteRestApiInput{RestApiId: aws.String(id)})
	if err = ignoreNotFound(err); err != nil {
		logger.Error(err, "Failed to delete REST API")
		return err
	}
	return nil
}

// describeRestAPI reads the current state of an API including its root resource.
func describeRestAPI(ctx context.Context, client ports.APIGatewayClient, id string) (*apigateway.RestAPI, error) {
	out, err := client.GetRestApi(ctx, &awsapigw.GetRestApiInput{RestApiId: aws.String(id)})
	if err != nil {
		log.FromContext(ctx).Error(err, "Failed to get REST API", "restApiId", id)
		return nil, err
	}
	rootID, err := client.RootResourceID(ctx, id)
	if err != nil {
		log.FromContext(ctx).Error(err, "Failed to resolve root resource", "restApiId", id)
		return nil, err
	}
	return &apigateway.RestAPI{
		ID:             aws.ToString(out.Id),
		Name:           aws.ToString(out.Name),
		Description:    aws.ToString(out.Description),
		RootResourceID: rootID,
		CreatedDate:    aws.ToTime(out.CreatedDate),
	}, nil
}

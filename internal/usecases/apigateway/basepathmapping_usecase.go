package apigateway

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsapigw "github.com/aws/aws-sdk-go-v2/service/apigateway"
	"sigs.k8s.io/controller-runtime/pkg/log"

	"github.com/BryanCrotaz/aws-api-gateway-for-cloudformation/internal/domain/apigateway"
	"github.com/BryanCrotaz/aws-api-gateway-for-cloudformation/internal/faults"
	"github.com/BryanCrotaz/aws-api-gateway-for-cloudformation/internal/ports"
)

var _ ports.BasePathMappingUseCase = (*BasePathMappingUseCase)(nil)

type BasePathMappingUseCase struct {
	client ports.APIGatewayClient
}

func NewBasePathMappingUseCase(client ports.APIGatewayClient) *BasePathMappingUseCase {
	return &BasePathMappingUseCase{client: client}
}

// Create maps the base path, deploying the stage first when it does not exist.
func (uc *BasePathMappingUseCase) Create(ctx context.Context, params *apigateway.BasePathMapping) (*apigateway.BasePathMapping, error) {
	apiID, err := resolveRestAPI(ctx, uc.client, params.RestAPIID, params.RestAPIName)
	if err != nil {
		return nil, err
	}
	logger := log.FromContext(ctx).WithValues("domainName", params.DomainName, "basePath", params.RemoteBasePath(), "restApiId", apiID, "stage", params.Stage)

	if err := uc.ensureStage(ctx, apiID, params.Stage); err != nil {
		logger.Error(err, "Failed to deploy stage")
		return nil, err
	}

	input := &awsapigw.CreateBasePathMappingInput{
		DomainName: aws.String(params.DomainName),
		RestApiId:  aws.String(apiID),
		Stage:      aws.String(params.Stage),
	}
	if params.BasePath != "" {
		input.BasePath = aws.String(params.BasePath)
	}
	if _, err := uc.client.CreateBasePathMapping(ctx, input); err != nil {
		logger.Error(err, "Failed to create base path mapping")
		return nil, err
	}

	logger.Info("Base path mapping created")
	result := *params
	result.RestAPIID = apiID
	return &result, nil
}

func (uc *BasePathMappingUseCase) ensureStage(ctx context.Context, apiID, stage string) error {
	_, err := uc.client.GetStage(ctx, &awsapigw.GetStageInput{
		RestApiId: aws.String(apiID),
		StageName: aws.String(stage),
	})
	if err == nil || !faults.IsNotFound(err) {
		return err
	}

	log.FromContext(ctx).Info("Stage not found, creating deployment", "restApiId", apiID, "stage", stage)
	_, err = uc.client.CreateDeployment(ctx, &awsapigw.CreateDeploymentInput{
		RestApiId:        aws.String(apiID),
		StageName:        aws.String(stage),
		Description:      aws.String(apigateway.DeploymentDescription),
		StageDescription: aws.String(apigateway.DeploymentDescription),
	})
	return err
}

// Update is a no-op: mappings are not patched and the physical id stays.
func (uc *BasePathMappingUseCase) Update(ctx context.Context, physicalID string, params, old *apigateway.BasePathMapping) (*apigateway.BasePathMapping, error) {
	log.FromContext(ctx).Info("Base path mapping updates are not applied", "physicalResourceId", physicalID)
	if old == nil {
		return params, nil
	}
	return old, nil
}

// Delete removes the mapping the physical id names. Properties may have
// changed since the mapping was created, so they are not consulted.
func (uc *BasePathMappingUseCase) Delete(ctx context.Context, physicalID string, _ *apigateway.BasePathMapping) error {
	logger := log.FromContext(ctx).WithValues("physicalResourceId", physicalID)
	domainName, basePath, ok := apigateway.ParseBasePathMappingID(physicalID)
	if !ok {
		logger.Info("Skipping delete of unknown base path mapping")
		return nil
	}

	target := apigateway.BasePathMapping{DomainName: domainName, BasePath: basePath}
	_, err := uc.client.DeleteBasePathMapping(ctx, &awsapigw.DeleteBasePathMappingInput{
		DomainName: aws.String(domainName),
		BasePath:   aws.String(target.RemoteBasePath()),
	})
	if err = ignoreNotFound(err); err != nil {
		logger.Error(err, "Failed to delete base path mapping")
		return err
	}
	return nil
}

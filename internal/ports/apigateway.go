// Package ports define as interfaces de portas seguindo Clean Architecture.
//
// Este package contém as abstrações que desacoplam a lógica de negócio das
// implementações concretas, permitindo testabilidade e flexibilidade.
package ports

import (
	"context"

	awsapigw "github.com/aws/aws-sdk-go-v2/service/apigateway"

	"github.com/BryanCrotaz/aws-api-gateway-for-cloudformation/internal/domain/apigateway"
)

// APIGatewayAPI is the subset of the API Gateway (REST, v1) control plane the
// provider uses. The SDK client, the retrying client and the in-memory fake
// all satisfy it.
type APIGatewayAPI interface {
	CreateRestApi(ctx context.Context, in *awsapigw.CreateRestApiInput, optFns ...func(*awsapigw.Options)) (*awsapigw.CreateRestApiOutput, error)
	GetRestApi(ctx context.Context, in *awsapigw.GetRestApiInput, optFns ...func(*awsapigw.Options)) (*awsapigw.GetRestApiOutput, error)
	GetRestApis(ctx context.Context, in *awsapigw.GetRestApisInput, optFns ...func(*awsapigw.Options)) (*awsapigw.GetRestApisOutput, error)
	UpdateRestApi(ctx context.Context, in *awsapigw.UpdateRestApiInput, optFns ...func(*awsapigw.Options)) (*awsapigw.UpdateRestApiOutput, error)
	DeleteRestApi(ctx context.Context, in *awsapigw.DeleteRestApiInput, optFns ...func(*awsapigw.Options)) (*awsapigw.DeleteRestApiOutput, error)
	ImportRestApi(ctx context.Context, in *awsapigw.ImportRestApiInput, optFns ...func(*awsapigw.Options)) (*awsapigw.ImportRestApiOutput, error)
	PutRestApi(ctx context.Context, in *awsapigw.PutRestApiInput, optFns ...func(*awsapigw.Options)) (*awsapigw.PutRestApiOutput, error)

	GetResources(ctx context.Context, in *awsapigw.GetResourcesInput, optFns ...func(*awsapigw.Options)) (*awsapigw.GetResourcesOutput, error)
	GetResource(ctx context.Context, in *awsapigw.GetResourceInput, optFns ...func(*awsapigw.Options)) (*awsapigw.GetResourceOutput, error)
	CreateResource(ctx context.Context, in *awsapigw.CreateResourceInput, optFns ...func(*awsapigw.Options)) (*awsapigw.CreateResourceOutput, error)
	UpdateResource(ctx context.Context, in *awsapigw.UpdateResourceInput, optFns ...func(*awsapigw.Options)) (*awsapigw.UpdateResourceOutput, error)
	DeleteResource(ctx context.Context, in *awsapigw.DeleteResourceInput, optFns ...func(*awsapigw.Options)) (*awsapigw.DeleteResourceOutput, error)

	PutMethod(ctx context.Context, in *awsapigw.PutMethodInput, optFns ...func(*awsapigw.Options)) (*awsapigw.PutMethodOutput, error)
	GetMethod(ctx context.Context, in *awsapigw.GetMethodInput, optFns ...func(*awsapigw.Options)) (*awsapigw.GetMethodOutput, error)
	UpdateMethod(ctx context.Context, in *awsapigw.UpdateMethodInput, optFns ...func(*awsapigw.Options)) (*awsapigw.UpdateMethodOutput, error)
	DeleteMethod(ctx context.Context, in *awsapigw.DeleteMethodInput, optFns ...func(*awsapigw.Options)) (*awsapigw.DeleteMethodOutput, error)
	PutIntegration(ctx context.Context, in *awsapigw.PutIntegrationInput, optFns ...func(*awsapigw.Options)) (*awsapigw.PutIntegrationOutput, error)
	PutMethodResponse(ctx context.Context, in *awsapigw.PutMethodResponseInput, optFns ...func(*awsapigw.Options)) (*awsapigw.PutMethodResponseOutput, error)
	PutIntegrationResponse(ctx context.Context, in *awsapigw.PutIntegrationResponseInput, optFns ...func(*awsapigw.Options)) (*awsapigw.PutIntegrationResponseOutput, error)

	CreateDomainName(ctx context.Context, in *awsapigw.CreateDomainNameInput, optFns ...func(*awsapigw.Options)) (*awsapigw.CreateDomainNameOutput, error)
	GetDomainName(ctx context.Context, in *awsapigw.GetDomainNameInput, optFns ...func(*awsapigw.Options)) (*awsapigw.GetDomainNameOutput, error)
	UpdateDomainName(ctx context.Context, in *awsapigw.UpdateDomainNameInput, optFns ...func(*awsapigw.Options)) (*awsapigw.UpdateDomainNameOutput, error)
	DeleteDomainName(ctx context.Context, in *awsapigw.DeleteDomainNameInput, optFns ...func(*awsapigw.Options)) (*awsapigw.DeleteDomainNameOutput, error)

	CreateBasePathMapping(ctx context.Context, in *awsapigw.CreateBasePathMappingInput, optFns ...func(*awsapigw.Options)) (*awsapigw.CreateBasePathMappingOutput, error)
	GetBasePathMapping(ctx context.Context, in *awsapigw.GetBasePathMappingInput, optFns ...func(*awsapigw.Options)) (*awsapigw.GetBasePathMappingOutput, error)
	DeleteBasePathMapping(ctx context.Context, in *awsapigw.DeleteBasePathMappingInput, optFns ...func(*awsapigw.Options)) (*awsapigw.DeleteBasePathMappingOutput, error)
	GetStage(ctx context.Context, in *awsapigw.GetStageInput, optFns ...func(*awsapigw.Options)) (*awsapigw.GetStageOutput, error)
	CreateDeployment(ctx context.Context, in *awsapigw.CreateDeploymentInput, optFns ...func(*awsapigw.Options)) (*awsapigw.CreateDeploymentOutput, error)
}

// ResourceUseCase defines the lifecycle of one custom resource kind. Create
// and Update return the desired state enriched with the remote output fields.
type ResourceUseCase[T any] interface {
	Create(ctx context.Context, params *T) (*T, error)
	Update(ctx context.Context, physicalID string, params, old *T) (*T, error)
	Delete(ctx context.Context, physicalID string, params *T) error
}

// CorsUseCase materializes the preflight (OPTIONS) method of a resource.
type CorsUseCase interface {
	PutOptionsMethod(ctx context.Context, restAPIID, resourceID string, cors *apigateway.CorsConfiguration) error
	UpdateCorsConfiguration(ctx context.Context, restAPIID, resourceID string, cors, old *apigateway.CorsConfiguration) error
	AllowOrigin(ctx context.Context, restAPIID, resourceID, httpMethod string) (string, error)
}

// RestAPILookup holds the paginated lookups built on top of the raw calls.
type RestAPILookup interface {
	// FindByName resolves a REST API by its human readable name.
	FindByName(ctx context.Context, name string) (string, error)
	// RootResourceID returns the id of the "/" resource of an API.
	RootResourceID(ctx context.Context, restAPIID string) (string, error)
}

// APIGatewayClient is what the use cases talk to: every call retried and
// classified into faults kinds.
type APIGatewayClient interface {
	APIGatewayAPI
	RestAPILookup
}

type (
	RestAPIUseCase         = ResourceUseCase[apigateway.RestAPI]
	APIResourceUseCase     = ResourceUseCase[apigateway.Resource]
	MethodUseCase          = ResourceUseCase[apigateway.Method]
	DomainNameUseCase      = ResourceUseCase[apigateway.DomainName]
	BasePathMappingUseCase = ResourceUseCase[apigateway.BasePathMapping]
	APIImportUseCase       = ResourceUseCase[apigateway.APIImport]
)

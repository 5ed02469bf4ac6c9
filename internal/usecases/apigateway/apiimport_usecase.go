package apigateway

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsapigw "github.com/aws/aws-sdk-go-v2/service/apigateway"
	"github.com/aws/aws-sdk-go-v2/service/apigateway/types"
	"github.com/getkin/kin-openapi/openapi3"
	"sigs.k8s.io/controller-runtime/pkg/log"
	"sigs.k8s.io/yaml"

	"github.com/BryanCrotaz/aws-api-gateway-for-cloudformation/internal/domain/apigateway"
	"github.com/BryanCrotaz/aws-api-gateway-for-cloudformation/internal/faults"
	"github.com/BryanCrotaz/aws-api-gateway-for-cloudformation/internal/ports"
)

var _ ports.APIImportUseCase = (*APIImportUseCase)(nil)

// APIImportUseCase builds REST APIs from OpenAPI or Swagger definitions.
type APIImportUseCase struct {
	client ports.APIGatewayClient
	defs   ports.DefinitionSource
}

func NewAPIImportUseCase(client ports.APIGatewayClient, defs ports.DefinitionSource) *APIImportUseCase {
	return &APIImportUseCase{client: client, defs: defs}
}

// Create imports the definition as a new API, or puts it onto the API named
// by restApiId.
func (uc *APIImportUseCase) Create(ctx context.Context, params *apigateway.APIImport) (*apigateway.APIImport, error) {
	if params.IsExternal() {
		return uc.put(ctx, params.RestAPIID, params)
	}

	body, err := uc.definition(ctx, params)
	if err != nil {
		return nil, err
	}
	out, err := uc.client.ImportRestApi(ctx, &awsapigw.ImportRestApiInput{
		Body:           body,
		FailOnWarnings: params.FailOnWarnings,
		Parameters:     params.Parameters,
	})
	if err != nil {
		log.FromContext(ctx).Error(err, "Failed to import REST API")
		return nil, err
	}
	id := aws.ToString(out.Id)
	log.FromContext(ctx).Info("REST API imported", "restApiId", id)
	return uc.describe(ctx, id, params)
}

// Update puts the definition onto the imported (or external) API.
func (uc *APIImportUseCase) Update(ctx context.Context, physicalID string, params, _ *apigateway.APIImport) (*apigateway.APIImport, error) {
	id := physicalID
	if params.IsExternal() {
		id = params.RestAPIID
	}
	return uc.put(ctx, id, params)
}

// Delete removes APIs created by an import. External APIs are left alone.
func (uc *APIImportUseCase) Delete(ctx context.Context, physicalID string, params *apigateway.APIImport) error {
	if params != nil && params.IsExternal() {
		log.FromContext(ctx).Info("Skipping delete of external REST API", "restApiId", params.RestAPIID)
		return nil
	}
	return deleteRestAPI(ctx, uc.client, physicalID)
}

func (uc *APIImportUseCase) put(ctx context.Context, id string, params *apigateway.APIImport) (*apigateway.APIImport, error) {
	body, err := uc.definition(ctx, params)
	if err != nil {
		return nil, err
	}
	logger := log.FromContext(ctx).WithValues("restApiId", id, "mode", params.Mode)

	if _, err := uc.client.PutRestApi(ctx, &awsapigw.PutRestApiInput{
		RestApiId:      aws.String(id),
		Body:           body,
		Mode:           types.PutMode(params.Mode),
		FailOnWarnings: params.FailOnWarnings,
		Parameters:     params.Parameters,
	}); err != nil {
		logger.Error(err, "Failed to put REST API definition")
		return nil, err
	}
	logger.Info("REST API definition applied")
	return uc.describe(ctx, id, params)
}

func (uc *APIImportUseCase) describe(ctx context.Context, id string, params *apigateway.APIImport) (*apigateway.APIImport, error) {
	api, err := describeRestAPI(ctx, uc.client, id)
	if err != nil {
		return nil, err
	}
	result := *params
	result.API = *api
	return &result, nil
}

// definition returns the definition as JSON. Inline definitions may be an
// object or a JSON/YAML document; S3 objects may be either format.
func (uc *APIImportUseCase) definition(ctx context.Context, params *apigateway.APIImport) ([]byte, error) {
	definition := params.APIDefinition
	if s, ok := definition.(string); ok && s == "" {
		definition = nil
	}

	var raw []byte
	switch def := definition.(type) {
	case nil:
		if params.APIDefinitionS3Location == nil {
			return nil, faults.Validation("apiDefinition", "")
		}
		body, err := uc.defs.Load(ctx, params.APIDefinitionS3Location)
		if err != nil {
			return nil, err
		}
		raw = body
	case string:
		raw = []byte(def)
	case []byte:
		raw = def
	default:
		body, err := json.Marshal(def)
		if err != nil {
			return nil, invalidDefinition(err)
		}
		raw = body
	}

	body, err := yaml.YAMLToJSON(raw)
	if err != nil {
		return nil, invalidDefinition(err)
	}
	if err := validateOpenAPI(ctx, body); err != nil {
		return nil, invalidDefinition(err)
	}
	return body, nil
}

// validateOpenAPI checks OpenAPI 3 documents. Swagger 2 documents are left to
// the remote import.
func validateOpenAPI(ctx context.Context, body []byte) error {
	var header struct {
		OpenAPI string `json:"openapi"`
		Swagger string `json:"swagger"`
	}
	if err := json.Unmarshal(body, &header); err != nil {
		return err
	}
	if header.OpenAPI == "" {
		if header.Swagger == "" {
			return errors.New("document declares neither openapi nor swagger version")
		}
		return nil
	}

	loader := openapi3.NewLoader()
	loader.Context = ctx
	doc, err := loader.LoadFromData(body)
	if err != nil {
		return err
	}
	return doc.Validate(loader.Context)
}

func invalidDefinition(err error) error {
	e := faults.Wrap(faults.ValidationError, err, "invalid parameter {apiDefinition}")
	return e.WithDetail("field", "apiDefinition")
}

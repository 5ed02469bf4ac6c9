package apigateway

import (
	"context"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsapigw "github.com/aws/aws-sdk-go-v2/service/apigateway"
	"github.com/aws/aws-sdk-go-v2/service/apigateway/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BryanCrotaz/aws-api-gateway-for-cloudformation/internal/domain/apigateway"
	"github.com/BryanCrotaz/aws-api-gateway-for-cloudformation/internal/faults"
)

const petsYAML = `
openapi: 3.0.1
info:
  title: pets
  version: "1.0"
paths:
  /pets:
    get:
      responses:
        "200":
          description: ok
`

func TestAPIImport_CreateFromInlineObject(t *testing.T) {
	f := newFixture(t)
	definition := map[string]any{
		"openapi": "3.0.1",
		"info":    map[string]any{"title": "pets", "version": "1.0"},
		"paths":   map[string]any{},
	}

	got, err := f.svc.APIImport.Create(context.Background(), &apigateway.APIImport{APIDefinition: definition, Mode: apigateway.ImportModeOverwrite})

	require.NoError(t, err)
	assert.Equal(t, "pets", got.API.Name)
	assert.True(t, got.API.IsReady())
	assert.JSONEq(t, `{"openapi":"3.0.1","info":{"title":"pets","version":"1.0"},"paths":{}}`, string(f.fake.Body(got.API.ID)))
}

func TestAPIImport_CreateFromS3YAML(t *testing.T) {
	f := newFixture(t)
	f.defs.body = []byte(petsYAML)

	got, err := f.svc.APIImport.Create(context.Background(), &apigateway.APIImport{
		APIDefinitionS3Location: &apigateway.S3Location{Bucket: "defs", Key: "pets.yaml"},
		Mode:                    apigateway.ImportModeOverwrite,
	})

	require.NoError(t, err)
	assert.Equal(t, "pets", got.API.Name)
	assert.Equal(t, 1, f.fake.Count("ImportRestApi"))
}

func TestAPIImport_InvalidDefinitionMakesNoRemoteCall(t *testing.T) {
	tests := []struct {
		name       string
		definition any
	}{
		{name: "not yaml", definition: "openapi: [3.0"},
		{name: "no version", definition: `{"info": {"title": "pets"}}`},
		{name: "openapi without info", definition: `{"openapi": "3.0.1", "paths": {}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)

			_, err := f.svc.APIImport.Create(context.Background(), &apigateway.APIImport{APIDefinition: tt.definition, Mode: apigateway.ImportModeOverwrite})

			require.Error(t, err)
			assert.Equal(t, faults.ValidationError, faults.KindOf(err))
			assert.Empty(t, f.fake.Calls())
		})
	}
}

func TestAPIImport_SwaggerIsPassedThrough(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.APIImport.Create(context.Background(), &apigateway.APIImport{
		APIDefinition: `{"swagger": "2.0", "info": {"title": "legacy", "version": "1"}, "paths": {}}`,
		Mode:          apigateway.ImportModeOverwrite,
	})

	require.NoError(t, err)
}

func TestAPIImport_ExternalAPI(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	apiID, _ := f.fake.SeedRestAPI("existing")
	params := &apigateway.APIImport{RestAPIID: apiID, APIDefinition: petsYAML, Mode: apigateway.ImportModeMerge}

	got, err := f.svc.APIImport.Create(ctx, params)
	require.NoError(t, err)
	assert.Equal(t, apiID, got.API.ID)
	assert.Zero(t, f.fake.Count("ImportRestApi"))

	put := f.fake.Calls()[0].Input.(*awsapigw.PutRestApiInput)
	assert.Equal(t, types.PutModeMerge, put.Mode)
	assert.Equal(t, apiID, aws.ToString(put.RestApiId))

	f.fake.ResetCalls()
	require.NoError(t, f.svc.APIImport.Delete(ctx, apiID, params))
	assert.Empty(t, f.fake.Calls())
	assert.True(t, f.fake.HasRestAPI(apiID))
}

func TestAPIImport_UpdateAndDeleteOwnedAPI(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	params := &apigateway.APIImport{APIDefinition: petsYAML, Mode: apigateway.ImportModeOverwrite}
	created, err := f.svc.APIImport.Create(ctx, params)
	require.NoError(t, err)

	f.fake.ResetCalls()
	_, err = f.svc.APIImport.Update(ctx, created.API.ID, params, params)
	require.NoError(t, err)
	assert.Equal(t, 1, f.fake.Count("PutRestApi"))

	require.NoError(t, f.svc.APIImport.Delete(ctx, created.API.ID, params))
	require.NoError(t, f.svc.APIImport.Delete(ctx, created.API.ID, params))
	assert.False(t, f.fake.HasRestAPI(created.API.ID))
}

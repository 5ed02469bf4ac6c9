package apigateway

import (
	"context"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsapigw "github.com/aws/aws-sdk-go-v2/service/apigateway"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BryanCrotaz/aws-api-gateway-for-cloudformation/internal/domain/apigateway"
)

func seedDomain(t *testing.T, f *fixture, name string) {
	t.Helper()
	_, err := f.fake.CreateDomainName(context.Background(), &awsapigw.CreateDomainNameInput{
		DomainName:     aws.String(name),
		CertificateArn: aws.String("arn"),
	})
	require.NoError(t, err)
	f.fake.ResetCalls()
}

func TestBasePathMapping_CreatesMissingStage(t *testing.T) {
	f := newFixture(t)
	apiID, _ := f.fake.SeedRestAPI("pets")
	seedDomain(t, f, "api.example.com")

	m, err := f.svc.BasePathMapping.Create(context.Background(), &apigateway.BasePathMapping{
		DomainName: "api.example.com",
		RestAPIID:  apiID,
		BasePath:   "v1",
		Stage:      "prod",
	})

	require.NoError(t, err)
	assert.Equal(t, "api.example.com/v1", m.PhysicalID())
	assert.Equal(t, []string{"GetStage", "CreateDeployment", "CreateBasePathMapping"}, f.fake.Ops())

	deployment := f.fake.Calls()[1].Input.(*awsapigw.CreateDeploymentInput)
	assert.Equal(t, "prod", aws.ToString(deployment.StageName))
	assert.Equal(t, apigateway.DeploymentDescription, aws.ToString(deployment.StageDescription))
}

func TestBasePathMapping_ExistingStageIsReused(t *testing.T) {
	f := newFixture(t)
	apiID, _ := f.fake.SeedRestAPI("pets")
	f.fake.SeedStage(apiID, "prod")
	seedDomain(t, f, "api.example.com")

	_, err := f.svc.BasePathMapping.Create(context.Background(), &apigateway.BasePathMapping{
		DomainName: "api.example.com",
		RestAPIID:  apiID,
		Stage:      "prod",
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"GetStage", "CreateBasePathMapping"}, f.fake.Ops())
	assert.Zero(t, f.fake.Count("CreateDeployment"))
}

func TestBasePathMapping_UpdateIsNoop(t *testing.T) {
	f := newFixture(t)
	old := &apigateway.BasePathMapping{DomainName: "api.example.com", RestAPIID: "a1b2c3d4e5", BasePath: "v1", Stage: "prod"}

	got, err := f.svc.BasePathMapping.Update(context.Background(), old.PhysicalID(),
		&apigateway.BasePathMapping{DomainName: "api.example.com", RestAPIID: "a1b2c3d4e5", BasePath: "v2", Stage: "prod"}, old)

	require.NoError(t, err)
	assert.Equal(t, old.PhysicalID(), got.PhysicalID())
	assert.Empty(t, f.fake.Calls())
}

func TestBasePathMapping_Delete(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	apiID, _ := f.fake.SeedRestAPI("pets")
	f.fake.SeedStage(apiID, "prod")
	seedDomain(t, f, "api.example.com")
	params := &apigateway.BasePathMapping{DomainName: "api.example.com", RestAPIID: apiID, Stage: "prod"}
	_, err := f.svc.BasePathMapping.Create(ctx, params)
	require.NoError(t, err)

	f.fake.ResetCalls()
	require.NoError(t, f.svc.BasePathMapping.Delete(ctx, "some-placeholder", params))
	assert.Empty(t, f.fake.Calls())

	require.NoError(t, f.svc.BasePathMapping.Delete(ctx, "api.example.com/", params))
	require.NoError(t, f.svc.BasePathMapping.Delete(ctx, "api.example.com/", params))
	in := f.fake.Calls()[0].Input.(*awsapigw.DeleteBasePathMappingInput)
	assert.Equal(t, apigateway.NoneBasePath, aws.ToString(in.BasePath))
}

func TestBasePathMapping_DeleteAfterPropertyChange(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	apiID, _ := f.fake.SeedRestAPI("pets")
	f.fake.SeedStage(apiID, "prod")
	seedDomain(t, f, "api.example.com")
	created, err := f.svc.BasePathMapping.Create(ctx, &apigateway.BasePathMapping{DomainName: "api.example.com", RestAPIID: apiID, BasePath: "v1", Stage: "prod"})
	require.NoError(t, err)

	edited := &apigateway.BasePathMapping{DomainName: "api.example.com", RestAPIID: apiID, BasePath: "v2", Stage: "prod"}
	kept, err := f.svc.BasePathMapping.Update(ctx, created.PhysicalID(), edited, created)
	require.NoError(t, err)
	f.fake.ResetCalls()

	require.NoError(t, f.svc.BasePathMapping.Delete(ctx, kept.PhysicalID(), edited))

	require.Equal(t, []string{"DeleteBasePathMapping"}, f.fake.Ops())
	in := f.fake.Calls()[0].Input.(*awsapigw.DeleteBasePathMappingInput)
	assert.Equal(t, "api.example.com", aws.ToString(in.DomainName))
	assert.Equal(t, "v1", aws.ToString(in.BasePath))
}

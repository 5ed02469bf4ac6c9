package apigateway

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BryanCrotaz/aws-api-gateway-for-cloudformation/internal/domain/apigateway"
	"github.com/BryanCrotaz/aws-api-gateway-for-cloudformation/internal/faults"
)

func TestResource_Lifecycle(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	apiID, rootID := f.fake.SeedRestAPI("pets")

	created, err := f.svc.Resource.Create(ctx, &apigateway.Resource{RestAPIName: "pets", ParentID: rootID, PathPart: "pets"})
	require.NoError(t, err)
	assert.Equal(t, apiID, created.RestAPIID)
	assert.Equal(t, "/pets", created.Path)
	assert.NotEmpty(t, created.ID)

	f.fake.ResetCalls()
	updated, err := f.svc.Resource.Update(ctx, created.ID,
		&apigateway.Resource{RestAPIID: apiID, ParentID: rootID, PathPart: "animals", CorsConfiguration: cors("*")},
		&apigateway.Resource{RestAPIID: apiID, ParentID: rootID, PathPart: "pets"})
	require.NoError(t, err)
	assert.Equal(t, "/animals", updated.Path)
	assert.Equal(t, 1, f.fake.Count("UpdateResource"))
	_, ok := f.fake.Method(apiID, created.ID, apigateway.HTTPMethodOptions)
	assert.True(t, ok)

	require.NoError(t, f.svc.Resource.Delete(ctx, created.ID, updated))
	require.NoError(t, f.svc.Resource.Delete(ctx, created.ID, updated))
}

func TestResource_UnknownAPIName(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	params := &apigateway.Resource{RestAPIName: "missing", ParentID: "abc", PathPart: "pets"}

	_, err := f.svc.Resource.Create(ctx, params)
	assert.True(t, faults.IsNotFound(err))

	// nothing was ever created under an API that does not exist
	assert.NoError(t, f.svc.Resource.Delete(ctx, "res0000009", params))
}

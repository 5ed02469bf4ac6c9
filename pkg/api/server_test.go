package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"k8s.io/apimachinery/pkg/util/wait"

	apigwadapter "github.com/BryanCrotaz/aws-api-gateway-for-cloudformation/internal/adapters/aws/apigateway"
	"github.com/BryanCrotaz/aws-api-gateway-for-cloudformation/internal/commands"
	"github.com/BryanCrotaz/aws-api-gateway-for-cloudformation/internal/testutil/fakeapigw"
	usecases "github.com/BryanCrotaz/aws-api-gateway-for-cloudformation/internal/usecases/apigateway"
)

type stubHealth struct {
	err error
}

func (s stubHealth) CheckCredentials(context.Context) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return "arn:aws:iam::123456789012:user/ci", nil
}

func newTestServer(t *testing.T, auth AuthConfig, health HealthChecker) (*httptest.Server, *fakeapigw.API) {
	t.Helper()
	fake := fakeapigw.New()
	client := apigwadapter.NewClient(fake, apigwadapter.Config{
		Backoff:  wait.Backoff{Steps: 3, Duration: time.Millisecond, Factor: 1},
		PageSize: 25,
	})
	svc := usecases.NewServices(client, nil, nil, usecases.Config{})
	s := NewServer(&ServerConfig{Version: "test", Auth: auth}, commands.NewDispatcher(svc), health)

	ts := httptest.NewServer(s.Router())
	t.Cleanup(ts.Close)
	return ts, fake
}

func postEvent(t *testing.T, url, body string, headers map[string]string) (*http.Response, APIResponse) {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, url+"/api/v1/events", strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out APIResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp, out
}

func TestServer_CreateRestAPI(t *testing.T) {
	ts, fake := newTestServer(t, AuthConfig{}, nil)

	resp, out := postEvent(t, ts.URL, `{
		"RequestType": "Create",
		"ResourceType": "Custom::RestApi",
		"LogicalResourceId": "Api",
		"ResourceProperties": {"name": "pets", "description": "Pet store"}
	}`, nil)

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, out.Success)
	data := out.Data.(map[string]interface{})
	assert.NotEmpty(t, data["physicalResourceId"])
	attrs := data["data"].(map[string]interface{})
	assert.Equal(t, "pets", attrs["name"])
	assert.NotEmpty(t, attrs["parentResourceId"])
	assert.Equal(t, 1, fake.Count("CreateRestApi"))
}

func TestServer_EventErrors(t *testing.T) {
	ts, fake := newTestServer(t, AuthConfig{}, nil)

	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantCode   string
	}{
		{
			name:       "malformed body",
			body:       `{"RequestType":`,
			wantStatus: http.StatusBadRequest,
			wantCode:   "ValidationError",
		},
		{
			name:       "missing parameter",
			body:       `{"RequestType":"Create","ResourceType":"Custom::RestApi","ResourceProperties":{}}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   "ValidationError",
		},
		{
			name:       "unknown resource type",
			body:       `{"RequestType":"Create","ResourceType":"Custom::Nope"}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   "ValidationError",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, out := postEvent(t, ts.URL, tt.body, nil)

			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			assert.False(t, out.Success)
			require.NotNil(t, out.Error)
			assert.Equal(t, tt.wantCode, out.Error.Code)
		})
	}
	assert.Equal(t, 0, fake.Count("CreateRestApi"))
}

func TestServer_RemoteFailureStatus(t *testing.T) {
	ts, fake := newTestServer(t, AuthConfig{}, nil)
	fake.Inject(fakeapigw.Rule{Op: "CreateRestApi", Err: fakeapigw.BadRequest("Invalid name")})

	resp, out := postEvent(t, ts.URL, `{"RequestType":"Create","ResourceType":"Custom::RestApi","ResourceProperties":{"name":"pets"}}`, nil)

	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	assert.Equal(t, "RemoteOther", out.Error.Code)
	assert.Contains(t, out.Error.Message, "Invalid name")
}

func TestServer_APIKeyAuth(t *testing.T) {
	ts, _ := newTestServer(t, AuthConfig{Enabled: true, APIKeys: []string{"s3cret"}}, nil)
	body := `{"RequestType":"Delete","ResourceType":"Custom::RestApi","PhysicalResourceId":"placeholder"}`

	resp, out := postEvent(t, ts.URL, body, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "UNAUTHORIZED", out.Error.Code)

	resp, out = postEvent(t, ts.URL, body, map[string]string{"X-API-Key": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "INVALID_API_KEY", out.Error.Code)

	resp, out = postEvent(t, ts.URL, body, map[string]string{"Authorization": "Bearer s3cret"})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, out.Success)

	// health stays public
	health, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	health.Body.Close()
	assert.Equal(t, http.StatusOK, health.StatusCode)
}

func TestServer_ResourceTypes(t *testing.T) {
	ts, _ := newTestServer(t, AuthConfig{}, nil)

	resp, err := http.Get(ts.URL + "/api/v1/resource-types")
	require.NoError(t, err)
	defer resp.Body.Close()

	var out struct {
		Data ResourceTypesResponse `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Contains(t, out.Data.ResourceTypes, "Custom::ApiMethod")
	assert.Len(t, out.Data.ResourceTypes, 6)
}

func TestServer_Health(t *testing.T) {
	tests := []struct {
		name       string
		health     HealthChecker
		wantStatus int
		wantState  string
	}{
		{name: "healthy", health: stubHealth{}, wantStatus: http.StatusOK, wantState: "healthy"},
		{name: "bad credentials", health: stubHealth{err: errors.New("expired token")}, wantStatus: http.StatusServiceUnavailable, wantState: "unhealthy"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts, _ := newTestServer(t, AuthConfig{}, tt.health)

			resp, err := http.Get(ts.URL + "/health")
			require.NoError(t, err)
			defer resp.Body.Close()

			var out struct {
				Data HealthResponse `json:"data"`
			}
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			assert.Equal(t, tt.wantState, out.Data.Status)
		})
	}
}

func TestServer_Metrics(t *testing.T) {
	ts, _ := newTestServer(t, AuthConfig{}, nil)
	postEvent(t, ts.URL, `{"RequestType":"Delete","ResourceType":"Custom::RestApi","PhysicalResourceId":"placeholder"}`, nil)

	resp, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

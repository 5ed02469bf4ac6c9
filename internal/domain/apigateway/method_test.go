package apigateway

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func validMethod() *Method {
	return &Method{
		RestAPIID:  "a1b2c3d4e5",
		ResourceID: "res1234567",
		Settings: MethodSettings{
			HTTPMethod:        "GET",
			AuthorizationType: AuthorizationNone,
			Parameters:        []string{"querystring.name"},
		},
		Integration: Integration{
			Type:       IntegrationTypeHTTP,
			HTTPMethod: "GET",
			URI:        "https://example.com/pets",
		},
		Responses: []MethodResponse{
			{StatusCode: "200", Headers: map[string]string{"X-Count": "integration.response.header.X-Count"}},
			{StatusCode: "404", SelectionPattern: ".*NotFound.*"},
		},
	}
}

func TestMethod_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(m *Method)
		wantErr error
	}{
		{name: "valid method", mutate: func(m *Method) {}},
		{name: "mock integration needs no uri", mutate: func(m *Method) {
			m.Integration = Integration{Type: IntegrationTypeMock}
		}},
		{name: "unknown verb", mutate: func(m *Method) { m.Settings.HTTPMethod = "FETCH" }, wantErr: ErrInvalidHTTPMethod},
		{name: "custom authorizer without id", mutate: func(m *Method) {
			m.Settings.AuthorizationType = AuthorizationCustom
		}, wantErr: ErrMissingAuthorizerID},
		{name: "unknown authorization type", mutate: func(m *Method) {
			m.Settings.AuthorizationType = "BASIC"
		}, wantErr: ErrInvalidAuthorizationType},
		{name: "http integration without uri", mutate: func(m *Method) { m.Integration.URI = "" }, wantErr: ErrMissingIntegrationURI},
		{name: "http integration without method", mutate: func(m *Method) { m.Integration.HTTPMethod = "" }, wantErr: ErrMissingIntegrationMethod},
		{name: "unknown integration type", mutate: func(m *Method) { m.Integration.Type = "LAMBDA" }, wantErr: ErrInvalidIntegrationType},
		{name: "bad status code", mutate: func(m *Method) { m.Responses[1].StatusCode = "4O4" }, wantErr: ErrInvalidStatusCode},
		{name: "duplicate status code", mutate: func(m *Method) { m.Responses[1].StatusCode = "200" }, wantErr: ErrDuplicateStatusCode},
		{name: "no api reference", mutate: func(m *Method) { m.RestAPIID = "" }, wantErr: ErrMissingRestAPI},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := validMethod()
			tt.mutate(m)
			err := m.Validate()
			if tt.wantErr == nil && err != nil {
				t.Fatalf("Method.Validate() unexpected error = %v", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("Method.Validate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestMethod_SetDefaults(t *testing.T) {
	m := &Method{Settings: MethodSettings{HTTPMethod: "post"}}
	m.SetDefaults()

	if m.Settings.HTTPMethod != HTTPMethodPost {
		t.Errorf("expected POST, got %s", m.Settings.HTTPMethod)
	}
	if m.Settings.AuthorizationType != AuthorizationNone {
		t.Errorf("expected NONE, got %s", m.Settings.AuthorizationType)
	}
	if m.Integration.Type != IntegrationTypeMock {
		t.Errorf("expected MOCK, got %s", m.Integration.Type)
	}
}

func TestMethod_PhysicalID(t *testing.T) {
	m := validMethod()
	id := m.PhysicalID()
	if id != "a1b2c3d4e5/res1234567/GET" {
		t.Fatalf("unexpected physical id %s", id)
	}

	api, res, verb, ok := ParseMethodID(id)
	if !ok || api != "a1b2c3d4e5" || res != "res1234567" || verb != "GET" {
		t.Errorf("ParseMethodID(%q) = %s %s %s %v", id, api, res, verb, ok)
	}
	if _, _, _, ok := ParseMethodID("2024/01/01/[$LATEST]abc"); ok {
		t.Errorf("ParseMethodID accepted a log stream name")
	}
}

func TestMethod_WithAllowOrigin(t *testing.T) {
	m := validMethod()
	withOrigin := m.WithAllowOrigin("'*'")

	for _, r := range withOrigin.Responses {
		if r.Headers[HeaderAllowOrigin] != "'*'" {
			t.Errorf("response %s missing origin header: %v", r.StatusCode, r.Headers)
		}
	}
	for _, r := range m.Responses {
		if _, ok := r.Headers[HeaderAllowOrigin]; ok {
			t.Errorf("original method was modified")
		}
	}
}

func TestMethod_ParameterMappings(t *testing.T) {
	m := validMethod()

	want := map[string]bool{"method.request.querystring.name": true}
	if diff := cmp.Diff(want, m.Settings.RequestParameters()); diff != "" {
		t.Errorf("RequestParameters() mismatch (-want +got):\n%s", diff)
	}

	r := m.Responses[0]
	if diff := cmp.Diff(map[string]bool{"method.response.header.X-Count": true}, r.MethodResponseParameters()); diff != "" {
		t.Errorf("MethodResponseParameters() mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(
		map[string]string{"method.response.header.X-Count": "integration.response.header.X-Count"},
		r.IntegrationResponseParameters(),
	); diff != "" {
		t.Errorf("IntegrationResponseParameters() mismatch (-want +got):\n%s", diff)
	}
	if m.Responses[1].MethodResponseParameters() != nil {
		t.Errorf("response without headers should map no parameters")
	}
}

func TestMethod_RequiresRebuild(t *testing.T) {
	old := validMethod()

	onlyAuth := validMethod()
	onlyAuth.Settings.APIKeyRequired = true
	if onlyAuth.RequiresRebuild(old) {
		t.Errorf("settings-only change should be patched in place")
	}

	newIntegration := validMethod()
	newIntegration.Integration.URI = "https://example.com/v2/pets"
	if !newIntegration.RequiresRebuild(old) {
		t.Errorf("integration change should rebuild the method")
	}

	newResponses := validMethod()
	newResponses.Responses = newResponses.Responses[:1]
	if !newResponses.RequiresRebuild(old) {
		t.Errorf("response change should rebuild the method")
	}
}

func TestCorsConfiguration(t *testing.T) {
	c := &CorsConfiguration{
		AllowHeaders:        []string{"X-Custom", "Authorization"},
		AllowMethods:        []string{"get", "POST"},
		AllowDefaultHeaders: true,
	}
	c.SetDefaults()

	wantHeaders := []string{"Authorization", "Content-Type", "X-Amz-Date", "X-Api-Key", "X-Custom"}
	if diff := cmp.Diff(wantHeaders, c.AllowHeaders); diff != "" {
		t.Errorf("AllowHeaders mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"GET", "OPTIONS", "POST"}, c.AllowMethods); diff != "" {
		t.Errorf("AllowMethods mismatch (-want +got):\n%s", diff)
	}

	headers := c.PreflightHeaders()
	if headers[HeaderAllowMethods] != "'GET,OPTIONS,POST'" {
		t.Errorf("unexpected allow methods header %q", headers[HeaderAllowMethods])
	}
	if !AllowsMethod(headers[HeaderAllowMethods], "post") {
		t.Errorf("POST should be allowed")
	}
	if AllowsMethod(headers[HeaderAllowMethods], "DELETE") {
		t.Errorf("DELETE should not be allowed")
	}

	reordered := &CorsConfiguration{
		AllowOrigin:  "*",
		AllowHeaders: []string{"X-Custom", "X-Api-Key", "X-Amz-Date", "Content-Type", "Authorization"},
		AllowMethods: []string{"POST", "OPTIONS", "GET"},
	}
	if !c.Equal(reordered) {
		t.Errorf("configurations differing only in order should be equal")
	}
	if c.Equal(nil) {
		t.Errorf("configuration should not equal nil")
	}

	preflight := c.PreflightMethod("a1b2c3d4e5", "res1234567")
	if !preflight.IsPreflight() || preflight.Integration.Type != IntegrationTypeMock {
		t.Errorf("unexpected preflight method %+v", preflight.Settings)
	}
	if err := preflight.Validate(); err != nil {
		t.Errorf("preflight method should be valid: %v", err)
	}
}

package apigateway

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/BryanCrotaz/aws-api-gateway-for-cloudformation/pkg/patch"
)

var (
	ErrInvalidHTTPMethod        = errors.New("invalid parameter {method.httpMethod}: must be GET, PUT, POST, DELETE, PATCH, HEAD, OPTIONS, or ANY")
	ErrInvalidAuthorizationType = errors.New("invalid parameter {method.authorizationType}: must be NONE, AWS_IAM, CUSTOM, or COGNITO_USER_POOLS")
	ErrMissingAuthorizerID      = errors.New("missing parameter {method.authorizerId} in input")
	ErrInvalidIntegrationType   = errors.New("invalid parameter {integration.type}: must be MOCK, HTTP, HTTP_PROXY, AWS, or AWS_PROXY")
	ErrMissingIntegrationURI    = errors.New("missing parameter {integration.uri} in input")
	ErrMissingIntegrationMethod = errors.New("missing parameter {integration.httpMethod} in input")
	ErrInvalidStatusCode        = errors.New("invalid parameter {responses.statusCode}: must be a 3 digit HTTP status code")
	ErrDuplicateStatusCode      = errors.New("invalid parameter {responses.statusCode}: status codes must be unique")
)

const (
	HTTPMethodGet     = "GET"
	HTTPMethodPut     = "PUT"
	HTTPMethodPost    = "POST"
	HTTPMethodDelete  = "DELETE"
	HTTPMethodPatch   = "PATCH"
	HTTPMethodHead    = "HEAD"
	HTTPMethodOptions = "OPTIONS"
	HTTPMethodAny     = "ANY"

	AuthorizationNone             = "NONE"
	AuthorizationAWSIAM           = "AWS_IAM"
	AuthorizationCustom           = "CUSTOM"
	AuthorizationCognitoUserPools = "COGNITO_USER_POOLS"

	IntegrationTypeMock      = "MOCK"
	IntegrationTypeHTTP      = "HTTP"
	IntegrationTypeHTTPProxy = "HTTP_PROXY"
	IntegrationTypeAWS       = "AWS"
	IntegrationTypeAWSProxy  = "AWS_PROXY"

	// Prefixes of API Gateway parameter mapping expressions.
	MethodRequestPrefix        = "method.request."
	MethodResponseHeaderPrefix = "method.response.header."
)

// HTTPMethods are the verbs a preflight method allows when none are configured.
var HTTPMethods = []string{
	HTTPMethodGet, HTTPMethodPut, HTTPMethodPost, HTTPMethodDelete,
	HTTPMethodPatch, HTTPMethodHead, HTTPMethodOptions,
}

var statusCodePattern = regexp.MustCompile(`^[1-5][0-9][0-9]$`)

// MethodPolicy lists the method settings that can be patched in place. Every
// other change rebuilds the method.
var MethodPolicy = patch.Policy{
	AddForReplace: []string{"authorizerId"},
	Replace:       []string{"authorizationType", "authorizerId", "apiKeyRequired"},
}

// Method is an API Gateway method together with its integration and responses.
// Remotely these are four separate objects.
type Method struct {
	RestAPIID   string           `mapstructure:"restApiId" validate:"required_without=RestAPIName"`
	RestAPIName string           `mapstructure:"restApiName"`
	ResourceID  string           `mapstructure:"resourceId" validate:"required"`
	Settings    MethodSettings   `mapstructure:"method"`
	Integration Integration      `mapstructure:"integration"`
	Responses   []MethodResponse `mapstructure:"responses" validate:"dive"`
}

type MethodSettings struct {
	HTTPMethod        string            `mapstructure:"httpMethod" validate:"required"`
	AuthorizationType string            `mapstructure:"authorizationType"`
	AuthorizerID      string            `mapstructure:"authorizerId"`
	APIKeyRequired    bool              `mapstructure:"apiKeyRequired"`
	RequestModels     map[string]string `mapstructure:"requestModels"`
	Parameters        []string          `mapstructure:"parameters"`
}

type Integration struct {
	Type                string            `mapstructure:"type" validate:"required"`
	HTTPMethod          string            `mapstructure:"httpMethod"`
	URI                 string            `mapstructure:"uri"`
	Credentials         string            `mapstructure:"credentials"`
	RequestParameters   map[string]string `mapstructure:"requestParameters"`
	RequestTemplates    map[string]string `mapstructure:"requestTemplates"`
	PassthroughBehavior string            `mapstructure:"passthroughBehavior"`
	CacheNamespace      string            `mapstructure:"cacheNamespace"`
	CacheKeyParameters  []string          `mapstructure:"cacheKeyParameters"`
}

// MethodResponse declares one status code: the method response and the
// integration response that maps onto it.
type MethodResponse struct {
	StatusCode        string            `mapstructure:"statusCode" validate:"required"`
	SelectionPattern  string            `mapstructure:"selectionPattern"`
	Headers           map[string]string `mapstructure:"headers"`
	ResponseTemplates map[string]string `mapstructure:"responseTemplates"`
	ResponseModels    map[string]string `mapstructure:"responseModels"`
}

func IsHTTPMethod(m string) bool {
	switch m {
	case HTTPMethodGet, HTTPMethodPut, HTTPMethodPost, HTTPMethodDelete,
		HTTPMethodPatch, HTTPMethodHead, HTTPMethodOptions, HTTPMethodAny:
		return true
	}
	return false
}

// Validate validates the Method fields
func (m *Method) Validate() error {
	if m.RestAPIID == "" && m.RestAPIName == "" {
		return ErrMissingRestAPI
	}
	if !IsHTTPMethod(m.Settings.HTTPMethod) {
		return ErrInvalidHTTPMethod
	}

	switch m.Settings.AuthorizationType {
	case AuthorizationNone, AuthorizationAWSIAM:
	case AuthorizationCustom, AuthorizationCognitoUserPools:
		if m.Settings.AuthorizerID == "" {
			return ErrMissingAuthorizerID
		}
	default:
		return ErrInvalidAuthorizationType
	}

	switch m.Integration.Type {
	case IntegrationTypeMock:
	case IntegrationTypeHTTP, IntegrationTypeHTTPProxy, IntegrationTypeAWS, IntegrationTypeAWSProxy:
		if m.Integration.URI == "" {
			return ErrMissingIntegrationURI
		}
		if m.Integration.HTTPMethod == "" {
			return ErrMissingIntegrationMethod
		}
	default:
		return ErrInvalidIntegrationType
	}

	seen := map[string]bool{}
	for _, r := range m.Responses {
		if !statusCodePattern.MatchString(r.StatusCode) {
			return fmt.Errorf("%w: %q", ErrInvalidStatusCode, r.StatusCode)
		}
		if seen[r.StatusCode] {
			return fmt.Errorf("%w: %s", ErrDuplicateStatusCode, r.StatusCode)
		}
		seen[r.StatusCode] = true
	}
	return nil
}

// SetDefaults sets default values for the Method
func (m *Method) SetDefaults() {
	m.Settings.HTTPMethod = strings.ToUpper(m.Settings.HTTPMethod)
	if m.Settings.AuthorizationType == "" {
		m.Settings.AuthorizationType = AuthorizationNone
	}
	m.Settings.AuthorizationType = strings.ToUpper(m.Settings.AuthorizationType)

	if m.Integration.Type == "" {
		m.Integration.Type = IntegrationTypeMock
	}
	m.Integration.Type = strings.ToUpper(m.Integration.Type)
	m.Integration.HTTPMethod = strings.ToUpper(m.Integration.HTTPMethod)
}

// PhysicalID is restApiId/resourceId/HTTPMETHOD.
func (m *Method) PhysicalID() string {
	return strings.Join([]string{m.RestAPIID, m.ResourceID, m.Settings.HTTPMethod}, "/")
}

// ParseMethodID splits a method physical id.
func ParseMethodID(id string) (restAPIID, resourceID, httpMethod string, ok bool) {
	parts := strings.Split(id, "/")
	if len(parts) != 3 || !IsValidRestAPIID(parts[0]) || parts[1] == "" || !IsHTTPMethod(parts[2]) {
		return "", "", "", false
	}
	return parts[0], parts[1], parts[2], true
}

// IsPreflight reports whether this is the CORS OPTIONS method.
func (m *Method) IsPreflight() bool {
	return m.Settings.HTTPMethod == HTTPMethodOptions
}

// RequestParameters maps the declared parameters to method.request.* = true.
func (s *MethodSettings) RequestParameters() map[string]bool {
	if len(s.Parameters) == 0 {
		return nil
	}
	params := make(map[string]bool, len(s.Parameters))
	for _, p := range s.Parameters {
		params[MethodRequestPrefix+p] = true
	}
	return params
}

// MethodResponseParameters declares every header of the response.
func (r *MethodResponse) MethodResponseParameters() map[string]bool {
	if len(r.Headers) == 0 {
		return nil
	}
	params := make(map[string]bool, len(r.Headers))
	for h := range r.Headers {
		params[MethodResponseHeaderPrefix+h] = true
	}
	return params
}

// IntegrationResponseParameters maps every header to its configured value.
func (r *MethodResponse) IntegrationResponseParameters() map[string]string {
	if len(r.Headers) == 0 {
		return nil
	}
	params := make(map[string]string, len(r.Headers))
	for h, v := range r.Headers {
		params[MethodResponseHeaderPrefix+h] = v
	}
	return params
}

// WithAllowOrigin returns a copy of m whose responses all return the given
// Access-Control-Allow-Origin value.
func (m *Method) WithAllowOrigin(origin string) *Method {
	out := *m
	out.Responses = make([]MethodResponse, len(m.Responses))
	for i, r := range m.Responses {
		headers := make(map[string]string, len(r.Headers)+1)
		for k, v := range r.Headers {
			headers[k] = v
		}
		headers[HeaderAllowOrigin] = origin
		r.Headers = headers
		out.Responses[i] = r
	}
	return &out
}

// StatusCodes lists the declared status codes in order.
func (m *Method) StatusCodes() []string {
	codes := make([]string, 0, len(m.Responses))
	for _, r := range m.Responses {
		codes = append(codes, r.StatusCode)
	}
	return codes
}

// RequiresRebuild reports whether moving from old to m changes anything the
// in-place patch policy cannot express.
func (m *Method) RequiresRebuild(old *Method) bool {
	if old == nil {
		return true
	}
	return !patch.Equal(m.Integration, old.Integration) ||
		!patch.Equal(m.Responses, old.Responses) ||
		!patch.Equal(m.Settings.RequestModels, old.Settings.RequestModels) ||
		!patch.Equal(m.Settings.Parameters, old.Settings.Parameters)
}

package apigateway

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"k8s.io/apimachinery/pkg/util/sets"
)

var (
	ErrInvalidCorsMethod = errors.New("invalid parameter {corsConfiguration.allowMethods}: unknown HTTP method")
	ErrInvalidCorsMaxAge = errors.New("invalid parameter {corsConfiguration.maxAge}: must not be negative")
)

// Header names used by the preflight method.
const (
	HeaderAllowOrigin   = "Access-Control-Allow-Origin"
	HeaderAllowHeaders  = "Access-Control-Allow-Headers"
	HeaderAllowMethods  = "Access-Control-Allow-Methods"
	HeaderExposeHeaders = "Access-Control-Expose-Headers"
	HeaderMaxAge        = "Access-Control-Max-Age"

	// CorsStatusCode is the only status code of the preflight method.
	CorsStatusCode = "200"
)

// DefaultAllowHeaders is unioned into AllowHeaders when AllowDefaultHeaders is set.
var DefaultAllowHeaders = []string{"Content-Type", "X-Amz-Date", "Authorization", "X-Api-Key"}

// CorsConfiguration describes the implicit OPTIONS method of a resource
type CorsConfiguration struct {
	AllowOrigin         string   `mapstructure:"allowOrigin"`
	AllowHeaders        []string `mapstructure:"allowHeaders"`
	AllowMethods        []string `mapstructure:"allowMethods"`
	ExposeHeaders       []string `mapstructure:"exposeHeaders"`
	MaxAge              int32    `mapstructure:"maxAge"`
	AllowDefaultHeaders bool     `mapstructure:"allowDefaultHeaders"`
}

// SetDefaults fills the origin and method list and merges the default headers.
// Header and method lists end up de-duplicated and sorted.
func (c *CorsConfiguration) SetDefaults() {
	if c.AllowOrigin == "" {
		c.AllowOrigin = "*"
	}

	methods := sets.New[string]()
	for _, m := range c.AllowMethods {
		methods.Insert(strings.ToUpper(strings.TrimSpace(m)))
	}
	if methods.Len() == 0 {
		methods.Insert(HTTPMethods...)
	}
	methods.Insert(HTTPMethodOptions)
	c.AllowMethods = sets.List(methods)

	headers := sets.New(c.AllowHeaders...)
	if c.AllowDefaultHeaders {
		headers.Insert(DefaultAllowHeaders...)
	}
	if headers.Len() > 0 {
		c.AllowHeaders = sets.List(headers)
	}
}

// Validate validates the CorsConfiguration fields
func (c *CorsConfiguration) Validate() error {
	for _, m := range c.AllowMethods {
		if !IsHTTPMethod(strings.ToUpper(strings.TrimSpace(m))) {
			return fmt.Errorf("%w: %s", ErrInvalidCorsMethod, m)
		}
	}
	if c.MaxAge < 0 {
		return ErrInvalidCorsMaxAge
	}
	return nil
}

// Equal compares two configurations; list order is not significant.
func (c *CorsConfiguration) Equal(o *CorsConfiguration) bool {
	if c == nil || o == nil {
		return c == nil && o == nil
	}
	return c.AllowOrigin == o.AllowOrigin &&
		c.MaxAge == o.MaxAge &&
		sets.New(c.AllowHeaders...).Equal(sets.New(o.AllowHeaders...)) &&
		sets.New(c.AllowMethods...).Equal(sets.New(o.AllowMethods...)) &&
		sets.New(c.ExposeHeaders...).Equal(sets.New(o.ExposeHeaders...))
}

// PreflightHeaders returns the static header values the OPTIONS integration
// response maps, already quoted for API Gateway.
func (c *CorsConfiguration) PreflightHeaders() map[string]string {
	headers := map[string]string{
		HeaderAllowOrigin:  Quote(c.AllowOrigin),
		HeaderAllowMethods: Quote(strings.Join(c.AllowMethods, ",")),
	}
	if len(c.AllowHeaders) > 0 {
		headers[HeaderAllowHeaders] = Quote(strings.Join(c.AllowHeaders, ","))
	}
	if len(c.ExposeHeaders) > 0 {
		headers[HeaderExposeHeaders] = Quote(strings.Join(c.ExposeHeaders, ","))
	}
	if c.MaxAge > 0 {
		headers[HeaderMaxAge] = Quote(strconv.Itoa(int(c.MaxAge)))
	}
	return headers
}

// PreflightMethod builds the MOCK OPTIONS method answering CORS preflight requests.
func (c *CorsConfiguration) PreflightMethod(restAPIID, resourceID string) *Method {
	return &Method{
		RestAPIID:  restAPIID,
		ResourceID: resourceID,
		Settings: MethodSettings{
			HTTPMethod:        HTTPMethodOptions,
			AuthorizationType: AuthorizationNone,
		},
		Integration: Integration{
			Type: IntegrationTypeMock,
			RequestTemplates: map[string]string{
				"application/json": `{"statusCode": 200}`,
			},
		},
		Responses: []MethodResponse{{
			StatusCode: CorsStatusCode,
			Headers:    c.PreflightHeaders(),
			ResponseTemplates: map[string]string{
				"application/json": "",
			},
		}},
	}
}

// AllowsMethod reports whether an Access-Control-Allow-Methods value (quoted or
// not) lists verb.
func AllowsMethod(allowMethods, verb string) bool {
	for _, m := range strings.Split(Unquote(allowMethods), ",") {
		if strings.EqualFold(strings.TrimSpace(m), verb) {
			return true
		}
	}
	return false
}

// Quote wraps a static header value in the single quotes API Gateway expects.
func Quote(v string) string {
	return "'" + v + "'"
}

func Unquote(v string) string {
	if len(v) >= 2 && strings.HasPrefix(v, "'") && strings.HasSuffix(v, "'") {
		return v[1 : len(v)-1]
	}
	return v
}

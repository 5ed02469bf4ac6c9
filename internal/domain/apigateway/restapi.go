package apigateway

import (
	"errors"
	"regexp"
	"time"

	"github.com/BryanCrotaz/aws-api-gateway-for-cloudformation/pkg/patch"
)

var (
	ErrInvalidName      = errors.New("missing parameter {name} in input")
	ErrInvalidRestAPIID = errors.New("invalid parameter {restApiId}: must be a 10 character REST API id")
)

// RootPath is the path of the resource every REST API is created with.
const RootPath = "/"

var restAPIIDPattern = regexp.MustCompile(`^[a-z0-9]{10}$`)

// IsValidRestAPIID reports whether id looks like a REST API id. Placeholder ids
// sent by the platform after a failed create never match.
func IsValidRestAPIID(id string) bool {
	return restAPIIDPattern.MatchString(id)
}

// RestAPIPolicy lists the REST API fields that can be patched in place.
var RestAPIPolicy = patch.Policy{
	AddForReplace: []string{"description"},
	Replace:       []string{"name", "description"},
}

// RestAPI represents a REST API and its optional root CORS configuration
type RestAPI struct {
	Name              string             `mapstructure:"name" validate:"required"`
	Description       string             `mapstructure:"description"`
	CorsConfiguration *CorsConfiguration `mapstructure:"corsConfiguration" patch:"-"`

	// Output fields from AWS
	ID             string    `mapstructure:"-"`
	RootResourceID string    `mapstructure:"-"`
	CreatedDate    time.Time `mapstructure:"-"`
}

// Validate validates the RestAPI fields
func (a *RestAPI) Validate() error {
	if a.Name == "" {
		return ErrInvalidName
	}
	if a.CorsConfiguration != nil {
		return a.CorsConfiguration.Validate()
	}
	return nil
}

// SetDefaults sets default values for the RestAPI
func (a *RestAPI) SetDefaults() {
	if a.CorsConfiguration != nil {
		a.CorsConfiguration.SetDefaults()
	}
}

// IsReady returns true once the API and its root resource are known
func (a *RestAPI) IsReady() bool {
	return a.ID != "" && a.RootResourceID != ""
}

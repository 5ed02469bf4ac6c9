package apigateway

import (
	"errors"
	"regexp"

	"github.com/BryanCrotaz/aws-api-gateway-for-cloudformation/pkg/patch"
)

var (
	ErrInvalidPathPart = errors.New("invalid parameter {pathPart}: must be a single path segment")
	ErrMissingRestAPI  = errors.New("missing parameter {restApiId or restApiName} in input")
)

var pathPartPattern = regexp.MustCompile(`^(\{[a-zA-Z0-9._-]+\+?\}|[a-zA-Z0-9._:~-]+)$`)

// ResourcePolicy lists the resource fields that can be patched in place.
var ResourcePolicy = patch.Policy{
	AddForReplace: []string{"parentId", "pathPart"},
	Replace:       []string{"parentId", "pathPart"},
}

// Resource represents one path segment of a REST API
type Resource struct {
	RestAPIID         string             `mapstructure:"restApiId" validate:"required_without=RestAPIName" patch:"-"`
	RestAPIName       string             `mapstructure:"restApiName" patch:"-"`
	ParentID          string             `mapstructure:"parentId" validate:"required"`
	PathPart          string             `mapstructure:"pathPart" validate:"required"`
	CorsConfiguration *CorsConfiguration `mapstructure:"corsConfiguration" patch:"-"`

	// Output fields from AWS
	ID   string `mapstructure:"-"`
	Path string `mapstructure:"-"`
}

// Validate validates the Resource fields
func (r *Resource) Validate() error {
	if r.RestAPIID == "" && r.RestAPIName == "" {
		return ErrMissingRestAPI
	}
	if !pathPartPattern.MatchString(r.PathPart) {
		return ErrInvalidPathPart
	}
	if r.CorsConfiguration != nil {
		return r.CorsConfiguration.Validate()
	}
	return nil
}

// SetDefaults sets default values for the Resource
func (r *Resource) SetDefaults() {
	if r.CorsConfiguration != nil {
		r.CorsConfiguration.SetDefaults()
	}
}

package apigateway

import (
	"errors"
	"regexp"
	"strings"
)

var (
	ErrMissingStage         = errors.New("missing parameter {stage} in input")
	ErrInvalidBasePath      = errors.New("invalid parameter {basePath}: must not start or end with '/'")
	ErrMissingMappingTarget = errors.New("missing parameter {domainName} in input")
)

const (
	// NoneBasePath addresses the empty base path remotely.
	NoneBasePath = "(none)"

	// DeploymentDescription marks stages the provider had to create.
	DeploymentDescription = "Created by APIGatewayForCloudFormation"
)

var hostnamePattern = regexp.MustCompile(`^[a-z0-9]([a-z0-9-]*[a-z0-9])?(\.[a-z0-9]([a-z0-9-]*[a-z0-9])?)+$`)

// BasePathMapping maps a base path of a custom domain to an API stage
type BasePathMapping struct {
	DomainName  string `mapstructure:"domainName" validate:"required"`
	RestAPIID   string `mapstructure:"restApiId" validate:"required_without=RestAPIName"`
	RestAPIName string `mapstructure:"restApiName"`
	BasePath    string `mapstructure:"basePath"`
	Stage       string `mapstructure:"stage" validate:"required"`
}

// Validate validates the BasePathMapping fields
func (b *BasePathMapping) Validate() error {
	if b.DomainName == "" {
		return ErrMissingMappingTarget
	}
	if b.RestAPIID == "" && b.RestAPIName == "" {
		return ErrMissingRestAPI
	}
	if b.Stage == "" {
		return ErrMissingStage
	}
	if strings.HasPrefix(b.BasePath, "/") || strings.HasSuffix(b.BasePath, "/") {
		return ErrInvalidBasePath
	}
	return nil
}

// SetDefaults sets default values for the BasePathMapping
func (b *BasePathMapping) SetDefaults() {
	if b.BasePath == NoneBasePath {
		b.BasePath = ""
	}
	b.DomainName = strings.ToLower(strings.TrimSuffix(b.DomainName, "."))
}

// RemoteBasePath is the base path as the remote API addresses it.
func (b *BasePathMapping) RemoteBasePath() string {
	if b.BasePath == "" {
		return NoneBasePath
	}
	return b.BasePath
}

// PhysicalID is domainName/basePath.
func (b *BasePathMapping) PhysicalID() string {
	return b.DomainName + "/" + b.BasePath
}

// ParseBasePathMappingID splits a domainName/basePath id. Ids whose first
// segment is not a host name were never issued for a mapping.
func ParseBasePathMappingID(id string) (domainName, basePath string, ok bool) {
	domainName, basePath, found := strings.Cut(id, "/")
	if !found || !hostnamePattern.MatchString(domainName) {
		return "", "", false
	}
	return domainName, basePath, true
}

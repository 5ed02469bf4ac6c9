package apigateway

import (
	"errors"
	"strings"
)

var (
	ErrMissingDefinition   = errors.New("missing parameter {apiDefinition or apiDefinitionS3Location} in input")
	ErrAmbiguousDefinition = errors.New("invalid parameter {apiDefinition}: apiDefinition and apiDefinitionS3Location are mutually exclusive")
	ErrInvalidS3Location   = errors.New("missing parameter {apiDefinitionS3Location.bucket and apiDefinitionS3Location.key} in input")
	ErrInvalidImportMode   = errors.New("invalid parameter {mode}: must be overwrite or merge")
)

const (
	ImportModeOverwrite = "overwrite"
	ImportModeMerge     = "merge"
)

// APIImport creates a REST API from an OpenAPI/Swagger definition, or updates
// an existing API (RestAPIID) owned by someone else.
type APIImport struct {
	RestAPIID               string            `mapstructure:"restApiId"`
	APIDefinition           any               `mapstructure:"apiDefinition"`
	APIDefinitionS3Location *S3Location       `mapstructure:"apiDefinitionS3Location"`
	Parameters              map[string]string `mapstructure:"parameters"`
	FailOnWarnings          bool              `mapstructure:"failOnWarnings"`
	Mode                    string            `mapstructure:"mode"`

	// Output fields from AWS
	API RestAPI `mapstructure:"-" validate:"-"`
}

// S3Location points at a definition stored in S3
type S3Location struct {
	Bucket  string `mapstructure:"bucket"`
	Key     string `mapstructure:"key"`
	Version string `mapstructure:"version"`
}

// Validate validates the APIImport fields
func (i *APIImport) Validate() error {
	hasInline := i.APIDefinition != nil && i.APIDefinition != ""
	if !hasInline && i.APIDefinitionS3Location == nil {
		return ErrMissingDefinition
	}
	if hasInline && i.APIDefinitionS3Location != nil {
		return ErrAmbiguousDefinition
	}
	if loc := i.APIDefinitionS3Location; loc != nil && (loc.Bucket == "" || loc.Key == "") {
		return ErrInvalidS3Location
	}
	if i.Mode != ImportModeOverwrite && i.Mode != ImportModeMerge {
		return ErrInvalidImportMode
	}
	if i.RestAPIID != "" && !IsValidRestAPIID(i.RestAPIID) {
		return ErrInvalidRestAPIID
	}
	return nil
}

// SetDefaults sets default values for the APIImport
func (i *APIImport) SetDefaults() {
	i.Mode = strings.ToLower(i.Mode)
	if i.Mode == "" {
		i.Mode = ImportModeOverwrite
	}
}

// IsExternal is true when the API was supplied by the caller rather than
// created by the import. External APIs are never deleted.
func (i *APIImport) IsExternal() bool {
	return i.RestAPIID != ""
}

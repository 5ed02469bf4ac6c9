// Package lifecycle models the Create/Update/Delete notifications the provider
// receives for one declared resource, and the response it hands back.
package lifecycle

import "errors"

type RequestType string

const (
	RequestCreate RequestType = "Create"
	RequestUpdate RequestType = "Update"
	RequestDelete RequestType = "Delete"
)

// Resource types handled by the provider.
const (
	ResourceTypeRestAPI         = "Custom::RestApi"
	ResourceTypeAPIResource     = "Custom::ApiResource"
	ResourceTypeAPIMethod       = "Custom::ApiMethod"
	ResourceTypeDomainName      = "Custom::ApiDomainName"
	ResourceTypeBasePathMapping = "Custom::ApiBasePathMapping"
	ResourceTypeAPIImport       = "Custom::ApiImport"
)

var (
	ErrMissingRequestType  = errors.New("invalid event: missing RequestType")
	ErrInvalidRequestType  = errors.New("invalid event: RequestType must be Create, Update, or Delete")
	ErrMissingResourceType = errors.New("invalid event: missing ResourceType")
)

// Event is one lifecycle notification. It is consumed once and never mutated.
type Event struct {
	RequestType           RequestType    `json:"RequestType" yaml:"RequestType"`
	RequestID             string         `json:"RequestId,omitempty" yaml:"RequestId,omitempty"`
	StackID               string         `json:"StackId,omitempty" yaml:"StackId,omitempty"`
	ResourceType          string         `json:"ResourceType" yaml:"ResourceType"`
	LogicalResourceID     string         `json:"LogicalResourceId,omitempty" yaml:"LogicalResourceId,omitempty"`
	PhysicalResourceID    string         `json:"PhysicalResourceId,omitempty" yaml:"PhysicalResourceId,omitempty"`
	ResourceProperties    map[string]any `json:"ResourceProperties,omitempty" yaml:"ResourceProperties,omitempty"`
	OldResourceProperties map[string]any `json:"OldResourceProperties,omitempty" yaml:"OldResourceProperties,omitempty"`
}

// Validate checks the envelope only; resource properties are validated per kind.
func (e *Event) Validate() error {
	switch e.RequestType {
	case "":
		return ErrMissingRequestType
	case RequestCreate, RequestUpdate, RequestDelete:
	default:
		return ErrInvalidRequestType
	}
	if e.ResourceType == "" {
		return ErrMissingResourceType
	}
	return nil
}

// EventParams is the validated view of an Event for one resource kind.
// Old is only set for Update events.
type EventParams[T any] struct {
	Params *T
	Old    *T
}

// Response is returned for every successful event. PhysicalResourceID is always set.
type Response struct {
	PhysicalResourceID string         `json:"physicalResourceId"`
	Data               map[string]any `json:"data,omitempty"`
}

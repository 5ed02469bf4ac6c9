// Package commands turns lifecycle events into calls on the resource services.
package commands

import (
	"context"
	"fmt"
	"sort"

	"github.com/go-playground/validator/v10"
	"sigs.k8s.io/controller-runtime/pkg/log"

	"github.com/BryanCrotaz/aws-api-gateway-for-cloudformation/internal/domain/apigateway"
	"github.com/BryanCrotaz/aws-api-gateway-for-cloudformation/internal/domain/lifecycle"
	"github.com/BryanCrotaz/aws-api-gateway-for-cloudformation/internal/faults"
	"github.com/BryanCrotaz/aws-api-gateway-for-cloudformation/internal/ports"
	usecases "github.com/BryanCrotaz/aws-api-gateway-for-cloudformation/internal/usecases/apigateway"
	"github.com/BryanCrotaz/aws-api-gateway-for-cloudformation/pkg/mapper"
	"github.com/BryanCrotaz/aws-api-gateway-for-cloudformation/pkg/metrics"
)

// EventHandler processes the events of one resource type.
type EventHandler interface {
	CreateResource(ctx context.Context, event *lifecycle.Event) (*lifecycle.Response, error)
	UpdateResource(ctx context.Context, event *lifecycle.Event) (*lifecycle.Response, error)
	DeleteResource(ctx context.Context, event *lifecycle.Event) (*lifecycle.Response, error)
}

// Handler binds a resource use case to the event protocol.
type Handler[T any, PT model[T]] struct {
	UseCase    ports.ResourceUseCase[T]
	PhysicalID func(*T) string
	Attributes func(*T) map[string]any

	validate *validator.Validate
}

func (h *Handler[T, PT]) CreateResource(ctx context.Context, event *lifecycle.Event) (*lifecycle.Response, error) {
	params, err := GetParameters[T, PT](h.validate, event)
	if err != nil {
		return nil, err
	}
	out, err := h.UseCase.Create(ctx, params.Params)
	if err != nil {
		return nil, err
	}
	return h.response(out), nil
}

func (h *Handler[T, PT]) UpdateResource(ctx context.Context, event *lifecycle.Event) (*lifecycle.Response, error) {
	params, err := GetParameters[T, PT](h.validate, event)
	if err != nil {
		return nil, err
	}
	out, err := h.UseCase.Update(ctx, event.PhysicalResourceID, params.Params, params.Old)
	if err != nil {
		return nil, err
	}
	return h.response(out), nil
}

func (h *Handler[T, PT]) DeleteResource(ctx context.Context, event *lifecycle.Event) (*lifecycle.Response, error) {
	response := &lifecycle.Response{PhysicalResourceID: event.PhysicalResourceID}
	if event.PhysicalResourceID == "" {
		return response, nil
	}
	params, err := GetParameters[T, PT](h.validate, event)
	if err != nil {
		return nil, err
	}
	if err := h.UseCase.Delete(ctx, event.PhysicalResourceID, params.Params); err != nil {
		return nil, err
	}
	return response, nil
}

func (h *Handler[T, PT]) response(out *T) *lifecycle.Response {
	return &lifecycle.Response{
		PhysicalResourceID: h.PhysicalID(out),
		Data:               h.Attributes(out),
	}
}

// Dispatcher routes events to the handler of their resource type.
type Dispatcher struct {
	handlers map[string]EventHandler
}

// NewDispatcher registers a handler for every resource type.
func NewDispatcher(svc *usecases.Services) *Dispatcher {
	v := NewValidator()
	return &Dispatcher{handlers: map[string]EventHandler{
		lifecycle.ResourceTypeRestAPI: &Handler[apigateway.RestAPI, *apigateway.RestAPI]{
			UseCase:    svc.RestAPI,
			PhysicalID: func(a *apigateway.RestAPI) string { return a.ID },
			Attributes: mapper.RestAPIToAttributes,
			validate:   v,
		},
		lifecycle.ResourceTypeAPIResource: &Handler[apigateway.Resource, *apigateway.Resource]{
			UseCase:    svc.Resource,
			PhysicalID: func(r *apigateway.Resource) string { return r.ID },
			Attributes: mapper.ResourceToAttributes,
			validate:   v,
		},
		lifecycle.ResourceTypeAPIMethod: &Handler[apigateway.Method, *apigateway.Method]{
			UseCase:    svc.Method,
			PhysicalID: (*apigateway.Method).PhysicalID,
			Attributes: mapper.MethodToAttributes,
			validate:   v,
		},
		lifecycle.ResourceTypeDomainName: &Handler[apigateway.DomainName, *apigateway.DomainName]{
			UseCase:    svc.DomainName,
			PhysicalID: func(d *apigateway.DomainName) string { return d.DomainName },
			Attributes: mapper.DomainNameToAttributes,
			validate:   v,
		},
		lifecycle.ResourceTypeBasePathMapping: &Handler[apigateway.BasePathMapping, *apigateway.BasePathMapping]{
			UseCase:    svc.BasePathMapping,
			PhysicalID: (*apigateway.BasePathMapping).PhysicalID,
			Attributes: mapper.BasePathMappingToAttributes,
			validate:   v,
		},
		lifecycle.ResourceTypeAPIImport: &Handler[apigateway.APIImport, *apigateway.APIImport]{
			UseCase:    svc.APIImport,
			PhysicalID: func(i *apigateway.APIImport) string { return i.API.ID },
			Attributes: mapper.APIImportToAttributes,
			validate:   v,
		},
	}}
}

// ResourceTypes lists the supported resource types.
func (d *Dispatcher) ResourceTypes() []string {
	types := make([]string, 0, len(d.handlers))
	for t := range d.handlers {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// Dispatch processes one event.
func (d *Dispatcher) Dispatch(ctx context.Context, event *lifecycle.Event) (*lifecycle.Response, error) {
	if err := event.Validate(); err != nil {
		return nil, faults.Wrap(faults.ValidationError, err, "")
	}
	handler, ok := d.handlers[event.ResourceType]
	if !ok {
		return nil, faults.New(faults.ValidationError, fmt.Sprintf("unsupported resource type %q", event.ResourceType))
	}

	logger := log.FromContext(ctx).WithValues(
		"resourceType", event.ResourceType,
		"requestType", event.RequestType,
		"logicalResourceId", event.LogicalResourceID,
		"requestId", event.RequestID,
	)
	ctx = log.IntoContext(ctx, logger)
	recorder := metrics.NewEventMetricsRecorder(event.ResourceType, string(event.RequestType))

	var (
		response *lifecycle.Response
		err      error
	)
	switch event.RequestType {
	case lifecycle.RequestCreate:
		response, err = handler.CreateResource(ctx, event)
	case lifecycle.RequestUpdate:
		response, err = handler.UpdateResource(ctx, event)
	case lifecycle.RequestDelete:
		response, err = handler.DeleteResource(ctx, event)
	}

	recorder.Record(err, string(faults.KindOf(err)))
	if err != nil {
		var kv []any
		if fe, ok := err.(*faults.Error); ok {
			kv = fe.KeysAndValues()
		}
		logger.Error(err, "Event failed", kv...)
		return nil, err
	}

	logger.Info("Event processed", "physicalResourceId", response.PhysicalResourceID)
	return response, nil
}

// Package lambda exposes the dispatcher as a CloudFormation custom resource
// Lambda function.
package lambda

import (
	"context"

	"github.com/aws/aws-lambda-go/cfn"
	awslambda "github.com/aws/aws-lambda-go/lambda"
	"github.com/google/uuid"

	"github.com/BryanCrotaz/aws-api-gateway-for-cloudformation/internal/domain/lifecycle"
)

// Dispatcher processes one lifecycle event.
type Dispatcher interface {
	Dispatch(ctx context.Context, event *lifecycle.Event) (*lifecycle.Response, error)
}

// Handler adapts a Dispatcher to cfn.CustomResourceFunction.
type Handler struct {
	dispatcher Dispatcher
}

func NewHandler(d Dispatcher) *Handler {
	return &Handler{dispatcher: d}
}

// Handle runs the event. On failure the incoming physical id is echoed back,
// so a failed Update or Delete never makes CloudFormation think the resource
// was replaced.
func (h *Handler) Handle(ctx context.Context, event cfn.Event) (string, map[string]interface{}, error) {
	response, err := h.dispatcher.Dispatch(ctx, ToLifecycleEvent(event))
	if err != nil {
		return event.PhysicalResourceID, nil, err
	}
	return response.PhysicalResourceID, response.Data, nil
}

// Start blocks serving Lambda invocations. The response is delivered to the
// pre-signed URL of the event by cfn.LambdaWrap.
func (h *Handler) Start() {
	awslambda.Start(cfn.LambdaWrap(h.Handle))
}

// ToLifecycleEvent converts a CloudFormation request.
func ToLifecycleEvent(event cfn.Event) *lifecycle.Event {
	requestID := event.RequestID
	if requestID == "" {
		requestID = uuid.NewString()
	}
	return &lifecycle.Event{
		RequestType:           lifecycle.RequestType(event.RequestType),
		RequestID:             requestID,
		StackID:               event.StackID,
		ResourceType:          event.ResourceType,
		LogicalResourceID:     event.LogicalResourceID,
		PhysicalResourceID:    event.PhysicalResourceID,
		ResourceProperties:    event.ResourceProperties,
		OldResourceProperties: event.OldResourceProperties,
	}
}

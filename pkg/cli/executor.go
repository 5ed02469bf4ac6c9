// Package cli runs lifecycle events from files, outside of CloudFormation.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/BryanCrotaz/aws-api-gateway-for-cloudformation/internal/domain/lifecycle"
)

// Status values mirror the custom resource response protocol.
const (
	StatusSuccess = "SUCCESS"
	StatusFailed  = "FAILED"
)

// Dispatcher processes one lifecycle event.
type Dispatcher interface {
	Dispatch(ctx context.Context, event *lifecycle.Event) (*lifecycle.Response, error)
}

// Result is printed for every invoked event.
type Result struct {
	Status             string                 `json:"Status" yaml:"Status"`
	Reason             string                 `json:"Reason,omitempty" yaml:"Reason,omitempty"`
	RequestID          string                 `json:"RequestId" yaml:"RequestId"`
	LogicalResourceID  string                 `json:"LogicalResourceId,omitempty" yaml:"LogicalResourceId,omitempty"`
	PhysicalResourceID string                 `json:"PhysicalResourceId,omitempty" yaml:"PhysicalResourceId,omitempty"`
	Data               map[string]interface{} `json:"Data,omitempty" yaml:"Data,omitempty"`
}

// Executor runs events in order and prints one Result each.
type Executor struct {
	dispatcher Dispatcher
	state      *StateManager
	out        io.Writer
	format     string
}

// NewExecutor builds an executor. state may be nil to disable local state;
// format is "json" or "yaml".
func NewExecutor(dispatcher Dispatcher, state *StateManager, out io.Writer, format string) *Executor {
	return &Executor{
		dispatcher: dispatcher,
		state:      state,
		out:        out,
		format:     format,
	}
}

// Invoke stops at the first failing event and returns its error.
func (e *Executor) Invoke(ctx context.Context, events []lifecycle.Event) error {
	for i := range events {
		event := &events[i]
		if event.RequestID == "" {
			event.RequestID = uuid.NewString()
		}
		if e.state != nil {
			if err := e.state.Complete(event); err != nil {
				return err
			}
		}

		result := Result{
			Status:             StatusSuccess,
			RequestID:          event.RequestID,
			LogicalResourceID:  event.LogicalResourceID,
			PhysicalResourceID: event.PhysicalResourceID,
		}
		response, err := e.dispatcher.Dispatch(ctx, event)
		if err != nil {
			result.Status = StatusFailed
			result.Reason = err.Error()
		} else {
			result.PhysicalResourceID = response.PhysicalResourceID
			result.Data = response.Data
		}

		if werr := e.write(result); werr != nil {
			return werr
		}
		if err != nil {
			return fmt.Errorf("event %d (%s %s) failed: %w", i, event.RequestType, event.ResourceType, err)
		}
		if e.state != nil {
			if err := e.state.Record(event, response); err != nil {
				return err
			}
		}
	}
	return nil
}

func (e *Executor) write(result Result) error {
	switch e.format {
	case "yaml":
		enc := yaml.NewEncoder(e.out)
		defer enc.Close()
		return enc.Encode(result)
	default:
		enc := json.NewEncoder(e.out)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}
}

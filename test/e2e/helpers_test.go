//go:build e2e

package e2e_test

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	. "github.com/onsi/gomega"

	"github.com/BryanCrotaz/aws-api-gateway-for-cloudformation/internal/domain/lifecycle"
)

// generateUniqueName keeps runs against a shared account apart.
func generateUniqueName(prefix string) string {
	return fmt.Sprintf("%s-%d", prefix, time.Now().UnixNano()%1_000_000)
}

func event(requestType lifecycle.RequestType, resourceType, physicalID string, props, old map[string]any) *lifecycle.Event {
	return &lifecycle.Event{
		RequestType:           requestType,
		RequestID:             uuid.NewString(),
		ResourceType:          resourceType,
		LogicalResourceID:     "E2E",
		PhysicalResourceID:    physicalID,
		ResourceProperties:    props,
		OldResourceProperties: old,
	}
}

// mustDispatch fails the spec unless the event succeeds.
func mustDispatch(e *lifecycle.Event) *lifecycle.Response {
	resp, err := provider.Dispatcher.Dispatch(ctx, e)
	Expect(err).NotTo(HaveOccurred(), "%s %s", e.RequestType, e.ResourceType)
	Expect(resp.PhysicalResourceID).NotTo(BeEmpty())
	return resp
}

func create(resourceType string, props map[string]any) *lifecycle.Response {
	return mustDispatch(event(lifecycle.RequestCreate, resourceType, "", props, nil))
}

func update(resourceType, physicalID string, props, old map[string]any) *lifecycle.Response {
	return mustDispatch(event(lifecycle.RequestUpdate, resourceType, physicalID, props, old))
}

func remove(resourceType, physicalID string, props map[string]any) {
	mustDispatch(event(lifecycle.RequestDelete, resourceType, physicalID, props, nil))
}

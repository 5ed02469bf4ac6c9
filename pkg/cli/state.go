package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BryanCrotaz/aws-api-gateway-for-cloudformation/internal/domain/lifecycle"
)

// StateManager remembers, per logical resource id, what the last successful
// event produced. It lets a sequence of invocations omit PhysicalResourceId
// and OldResourceProperties the way CloudFormation would fill them in.
type StateManager struct {
	StateDir string
}

// ResourceState is the recorded outcome for one logical resource.
type ResourceState struct {
	LogicalResourceID  string                 `json:"logicalResourceId"`
	ResourceType       string                 `json:"resourceType"`
	PhysicalResourceID string                 `json:"physicalResourceId"`
	Properties         map[string]interface{} `json:"properties,omitempty"`
	Data               map[string]interface{} `json:"data,omitempty"`
	CreatedAt          time.Time              `json:"createdAt"`
	UpdatedAt          time.Time              `json:"updatedAt"`
}

// NewStateManager defaults to ~/.apigw-provider/state.
func NewStateManager(stateDir string) *StateManager {
	if stateDir == "" {
		home, _ := os.UserHomeDir()
		stateDir = filepath.Join(home, ".apigw-provider", "state")
	}
	return &StateManager{StateDir: stateDir}
}

func (s *StateManager) statePath(logicalID string) string {
	return filepath.Join(s.StateDir, logicalID+".json")
}

// Load returns nil when nothing is recorded for logicalID.
func (s *StateManager) Load(logicalID string) (*ResourceState, error) {
	data, err := os.ReadFile(s.statePath(logicalID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read state file: %w", err)
	}

	var state ResourceState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("failed to decode state file: %w", err)
	}
	return &state, nil
}

// Save writes state, keeping CreatedAt of an earlier record.
func (s *StateManager) Save(state *ResourceState) error {
	if err := os.MkdirAll(s.StateDir, 0o755); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}

	state.UpdatedAt = time.Now()
	if state.CreatedAt.IsZero() {
		state.CreatedAt = state.UpdatedAt
	}

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode state: %w", err)
	}
	if err := os.WriteFile(s.statePath(state.LogicalResourceID), data, 0o600); err != nil {
		return fmt.Errorf("failed to write state file: %w", err)
	}
	return nil
}

// Delete removes the record of logicalID, if any.
func (s *StateManager) Delete(logicalID string) error {
	if err := os.Remove(s.statePath(logicalID)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete state file: %w", err)
	}
	return nil
}

// Complete fills the physical id and old properties of Update and Delete
// events from the recorded state, when the event leaves them out.
func (s *StateManager) Complete(event *lifecycle.Event) error {
	if event.RequestType == lifecycle.RequestCreate || event.LogicalResourceID == "" {
		return nil
	}
	state, err := s.Load(event.LogicalResourceID)
	if err != nil || state == nil {
		return err
	}
	if event.PhysicalResourceID == "" {
		event.PhysicalResourceID = state.PhysicalResourceID
	}
	if event.RequestType == lifecycle.RequestUpdate && event.OldResourceProperties == nil {
		event.OldResourceProperties = state.Properties
	}
	return nil
}

// Record stores the outcome of a successful event.
func (s *StateManager) Record(event *lifecycle.Event, response *lifecycle.Response) error {
	if event.LogicalResourceID == "" {
		return nil
	}
	if event.RequestType == lifecycle.RequestDelete {
		return s.Delete(event.LogicalResourceID)
	}

	state, err := s.Load(event.LogicalResourceID)
	if err != nil {
		return err
	}
	if state == nil {
		state = &ResourceState{LogicalResourceID: event.LogicalResourceID}
	}
	state.ResourceType = event.ResourceType
	state.PhysicalResourceID = response.PhysicalResourceID
	state.Properties = event.ResourceProperties
	state.Data = response.Data
	return s.Save(state)
}

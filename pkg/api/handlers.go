package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"sigs.k8s.io/controller-runtime/pkg/log"

	"github.com/BryanCrotaz/aws-api-gateway-for-cloudformation/internal/domain/lifecycle"
	"github.com/BryanCrotaz/aws-api-gateway-for-cloudformation/internal/faults"
)

// maxEventSize bounds request bodies; API definitions can be inlined.
const maxEventSize = 8 << 20

// Dispatcher processes lifecycle events.
type Dispatcher interface {
	Dispatch(ctx context.Context, event *lifecycle.Event) (*lifecycle.Response, error)
	ResourceTypes() []string
}

// HealthChecker verifies that the provider can reach AWS.
type HealthChecker interface {
	CheckCredentials(ctx context.Context) (string, error)
}

// Handlers contém os handlers da API
type Handlers struct {
	dispatcher Dispatcher
	health     HealthChecker
	config     *ServerConfig
}

// NewHandlers cria uma nova instância de handlers
func NewHandlers(dispatcher Dispatcher, health HealthChecker, config *ServerConfig) *Handlers {
	return &Handlers{
		dispatcher: dispatcher,
		health:     health,
		config:     config,
	}
}

// Health reports 503 when the AWS credentials are not usable.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status:    "healthy",
		Version:   h.config.Version,
		Timestamp: time.Now().Format(time.RFC3339),
	}
	if h.health == nil {
		writeJSON(w, http.StatusOK, NewSuccessResponse(resp))
		return
	}

	caller, err := h.health.CheckCredentials(r.Context())
	if err != nil {
		resp.Status = "unhealthy"
		resp.Reason = err.Error()
		writeJSON(w, http.StatusServiceUnavailable, APIResponse{Success: false, Data: resp})
		return
	}
	resp.Caller = caller
	writeJSON(w, http.StatusOK, NewSuccessResponse(resp))
}

// ResourceTypes lists the resource types the provider handles.
func (h *Handlers) ResourceTypes(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, NewSuccessResponse(ResourceTypesResponse{ResourceTypes: h.dispatcher.ResourceTypes()}))
}

// Event runs one lifecycle event synchronously.
func (h *Handlers) Event(w http.ResponseWriter, r *http.Request) {
	var event lifecycle.Event
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxEventSize))
	if err := decoder.Decode(&event); err != nil {
		writeJSON(w, http.StatusBadRequest, NewErrorResponse(string(faults.ValidationError), "invalid event body", err.Error()))
		return
	}
	if event.RequestID == "" {
		event.RequestID = GetRequestID(r.Context())
	}
	if event.RequestID == "" {
		event.RequestID = uuid.NewString()
	}

	response, err := h.dispatcher.Dispatch(r.Context(), &event)
	if err != nil {
		kind := faults.KindOf(err)
		writeJSON(w, statusForKind(kind), NewErrorResponse(string(kind), err.Error(), ""))
		return
	}

	writeJSON(w, http.StatusOK, NewSuccessResponse(EventResponse{
		PhysicalResourceID: response.PhysicalResourceID,
		Data:               response.Data,
	}))
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Log.Error(err, "Failed to write response")
	}
}

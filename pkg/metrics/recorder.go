// Package metrics provides helpers for recording metrics in a consistent way.
//
// Recorders simplify metric collection by providing a fluent API and ensuring
// consistent labeling across the provider.
package metrics

import (
	"errors"
	"time"

	"github.com/aws/smithy-go"
)

// ============================================
// Event Metrics Recorder
// ============================================

// EventMetricsRecorder records the outcome of one lifecycle event.
// Usage:
//
//	recorder := metrics.NewEventMetricsRecorder("Custom::RestApi", "Create")
//	defer func() { recorder.Record(err) }()
type EventMetricsRecorder struct {
	resourceType string
	requestType  string
	startTime    time.Time
}

// NewEventMetricsRecorder creates a recorder and starts timing the event.
func NewEventMetricsRecorder(resourceType, requestType string) *EventMetricsRecorder {
	return &EventMetricsRecorder{
		resourceType: resourceType,
		requestType:  requestType,
		startTime:    time.Now(),
	}
}

// Record records success when err is nil, otherwise an error of the given kind.
func (r *EventMetricsRecorder) Record(err error, errorKind string) {
	EventDuration.WithLabelValues(r.resourceType, r.requestType).Observe(time.Since(r.startTime).Seconds())

	if err == nil {
		EventsTotal.WithLabelValues(r.resourceType, r.requestType, ResultSuccess).Inc()
		return
	}
	EventsTotal.WithLabelValues(r.resourceType, r.requestType, ResultError).Inc()
	EventErrors.WithLabelValues(r.resourceType, errorKind).Inc()
}

// ============================================
// AWS API Metrics Recorder
// ============================================

// AWSAPIMetricsRecorder helps record AWS API call metrics consistently.
// Usage:
//
//	recorder := metrics.NewAWSAPIMetricsRecorder(metrics.ServiceAPIGateway, "PutMethod")
//	output, err := c.api.PutMethod(ctx, input)
//	if err != nil {
//		recorder.RecordError(err)
//		return nil, err
//	}
//	recorder.RecordSuccess()
type AWSAPIMetricsRecorder struct {
	service   string
	operation string
	startTime time.Time
}

// NewAWSAPIMetricsRecorder creates a new AWS API metrics recorder.
// It automatically starts timing the API call.
func NewAWSAPIMetricsRecorder(service, operation string) *AWSAPIMetricsRecorder {
	return &AWSAPIMetricsRecorder{
		service:   service,
		operation: operation,
		startTime: time.Now(),
	}
}

// RecordSuccess records a successful AWS API call.
func (a *AWSAPIMetricsRecorder) RecordSuccess() {
	duration := time.Since(a.startTime).Seconds()

	AWSAPICallsTotal.WithLabelValues(a.service, a.operation, ResultSuccess).Inc()
	AWSAPICallDuration.WithLabelValues(a.service, a.operation).Observe(duration)
}

// RecordError records a failed AWS API call.
// It extracts the AWS error code from the error and records it.
func (a *AWSAPIMetricsRecorder) RecordError(err error) {
	duration := time.Since(a.startTime).Seconds()

	errorCode := ErrorCode(err)

	AWSAPICallsTotal.WithLabelValues(a.service, a.operation, ResultError).Inc()
	AWSAPICallDuration.WithLabelValues(a.service, a.operation).Observe(duration)
	AWSAPIErrors.WithLabelValues(a.service, a.operation, errorCode).Inc()

	if IsThrottlingCode(errorCode) {
		AWSAPIThrottles.WithLabelValues(a.service, a.operation).Inc()
	}
}

// RecordContentionRetry counts one retry after a concurrent modification error.
func RecordContentionRetry(operation string) {
	ContentionRetries.WithLabelValues(operation).Inc()
}

// RecordCompensation counts a compensating delete and whether it worked.
func RecordCompensation(resourceType string, err error) {
	result := ResultSuccess
	if err != nil {
		result = ResultError
	}
	CompensationsTotal.WithLabelValues(resourceType, result).Inc()
}

// SetProviderReady flips the readiness gauge of a provider.
func SetProviderReady(provider, region string, ready bool) {
	value := 0.0
	if ready {
		value = 1
	}
	ProviderReady.WithLabelValues(provider, region).Set(value)
}

// ErrorCode extracts the AWS error code from an error.
// Returns "Unknown" if the error is not an AWS error.
func ErrorCode(err error) string {
	if err == nil {
		return "Unknown"
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return apiErr.ErrorCode()
	}

	return "Unknown"
}

// IsThrottlingCode checks if an error code represents throttling.
func IsThrottlingCode(errorCode string) bool {
	switch errorCode {
	case "Throttling",
		"ThrottlingException",
		"RequestLimitExceeded",
		"TooManyRequestsException",
		"RequestThrottled":
		return true
	}
	return false
}

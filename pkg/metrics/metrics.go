// Package metrics provides Prometheus metrics for observability of the provider.
//
// This package exposes metrics about:
// - Lifecycle events handled per resource type and request type
// - AWS API call performance, errors and throttling
// - Contention retries absorbed by the API Gateway client
// - Compensating deletes issued after a partially failed create
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"sigs.k8s.io/controller-runtime/pkg/metrics"
)

var (
	// ============================================
	// Lifecycle Event Metrics
	// ============================================

	// EventsTotal tracks the number of lifecycle events handled.
	// Labels: resource_type (Custom::RestApi, ...), request_type (Create, Update, Delete), result (success, error)
	EventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "apigw_provider_events_total",
			Help: "Total number of lifecycle events per resource type, request type and result",
		},
		[]string{"resource_type", "request_type", "result"},
	)

	// EventDuration tracks how long a lifecycle event took end to end.
	EventDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "apigw_provider_event_duration_seconds",
			Help:    "Duration of lifecycle event handling in seconds",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"resource_type", "request_type"},
	)

	// EventErrors tracks failed events by fault kind.
	// Labels: resource_type, error_kind (ValidationError, RemoteContention, ...)
	EventErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "apigw_provider_event_errors_total",
			Help: "Total number of failed lifecycle events by fault kind",
		},
		[]string{"resource_type", "error_kind"},
	)

	// ============================================
	// AWS API Metrics
	// ============================================

	// AWSAPICallsTotal tracks the total number of AWS API calls.
	// Labels: service (APIGateway, ACM, ...), operation (CreateRestApi, PutMethod, ...), result (success, error)
	AWSAPICallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "apigw_provider_aws_api_calls_total",
			Help: "Total number of AWS API calls by service, operation, and result",
		},
		[]string{"service", "operation", "result"},
	)

	// AWSAPICallDuration tracks the duration of AWS API calls in seconds.
	AWSAPICallDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "apigw_provider_aws_api_call_duration_seconds",
			Help:    "Duration of AWS API calls in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"service", "operation"},
	)

	// AWSAPIErrors tracks the total number of AWS API errors.
	// Labels: service, operation, error_code (NotFoundException, ConflictException, ...)
	AWSAPIErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "apigw_provider_aws_api_errors_total",
			Help: "Total number of AWS API errors by service, operation, and error code",
		},
		[]string{"service", "operation", "error_code"},
	)

	// AWSAPIThrottles tracks the number of AWS API throttling events.
	AWSAPIThrottles = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "apigw_provider_aws_api_throttles_total",
			Help: "Total number of AWS API throttling events (rate limit exceeded)",
		},
		[]string{"service", "operation"},
	)

	// ============================================
	// Engine Metrics
	// ============================================

	// ContentionRetries counts retries caused by concurrent modification of the same API.
	ContentionRetries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "apigw_provider_contention_retries_total",
			Help: "Total number of retries caused by concurrent modification errors",
		},
		[]string{"operation"},
	)

	// CompensationsTotal counts compensating deletes.
	// Labels: resource_type, result (success, error)
	CompensationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "apigw_provider_compensations_total",
			Help: "Total number of compensating deletes after a partially failed create",
		},
		[]string{"resource_type", "result"},
	)

	// ProviderReady reports whether the AWS credentials of the provider work (1) or not (0).
	ProviderReady = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "apigw_provider_ready",
			Help: "Whether the provider can reach AWS with its credentials",
		},
		[]string{"provider", "region"},
	)
)

// init registers all metrics with the controller-runtime metrics registry.
func init() {
	metrics.Registry.MustRegister(
		EventsTotal,
		EventDuration,
		EventErrors,
	)

	metrics.Registry.MustRegister(
		AWSAPICallsTotal,
		AWSAPICallDuration,
		AWSAPIErrors,
		AWSAPIThrottles,
	)

	metrics.Registry.MustRegister(
		ContentionRetries,
		CompensationsTotal,
		ProviderReady,
	)
}

// Common AWS service names for standardized service labels
const (
	ServiceAPIGateway     = "APIGateway"
	ServiceACM            = "ACM"
	ServiceIAM            = "IAM"
	ServiceSecretsManager = "SecretsManager"
	ServiceS3             = "S3"
	ServiceSTS            = "STS"
)

// Common results
const (
	ResultSuccess = "success"
	ResultError   = "error"
)

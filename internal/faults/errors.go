// Package faults defines the closed set of error kinds surfaced by the provider.
//
// Callers branch on Kind (via KindOf / IsKind) instead of inspecting remote error
// codes or message strings.
package faults

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

type Kind string

const (
	// ValidationError: malformed or missing input. No remote call was made.
	ValidationError Kind = "ValidationError"
	// RemoteNotFound: the remote object does not exist.
	RemoteNotFound Kind = "RemoteNotFound"
	// RemoteContention: the remote API rejected the call because of a concurrent
	// modification or throttling, and retries were exhausted.
	RemoteContention Kind = "RemoteContention"
	// RemoteOther: any other remote failure, passed through verbatim.
	RemoteOther Kind = "RemoteOther"
	// PipelineAborted: a multi-step create or update failed partway.
	PipelineAborted Kind = "PipelineAborted"
	// CleanupFailed: a compensating delete failed after a pipeline step failed.
	CleanupFailed Kind = "CleanupFailed"
)

// Redacted replaces secret values in error details and log output.
const Redacted = "***"

var sensitiveKeys = map[string]bool{
	"certificateprivatekey": true,
	"privatekey":            true,
	"secretaccesskey":       true,
	"sessiontoken":          true,
}

// IsSensitiveKey reports whether values stored under key must never be emitted.
func IsSensitiveKey(key string) bool {
	key = strings.ToLower(strings.TrimPrefix(key, "/"))
	return sensitiveKeys[key]
}

// Error carries a Kind plus enough context (resource kind, operation, remote id)
// to log and alert on.
type Error struct {
	Kind         Kind
	ResourceKind string
	Operation    string
	ResourceID   string
	Message      string
	Cause        error
	// Original is set on CleanupFailed errors: the step error that triggered the
	// compensating action.
	Original error
	Details  map[string]any
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}

	var b strings.Builder
	if e.ResourceKind != "" {
		b.WriteString(e.ResourceKind)
	}
	if e.Operation != "" {
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(e.Operation)
	}
	if e.ResourceID != "" {
		fmt.Fprintf(&b, " [%s]", e.ResourceID)
	}

	msg := e.Message
	if msg == "" && e.Cause == nil {
		msg = string(e.Kind)
	}
	if msg != "" {
		if b.Len() > 0 {
			b.WriteString(": ")
		}
		b.WriteString(msg)
	}
	if e.Cause != nil {
		if b.Len() > 0 {
			b.WriteString(": ")
		}
		b.WriteString(e.Cause.Error())
	}
	if e.Original != nil {
		fmt.Fprintf(&b, " (original error: %s)", e.Original.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() []error {
	if e == nil {
		return nil
	}
	var errs []error
	if e.Cause != nil {
		errs = append(errs, e.Cause)
	}
	if e.Original != nil {
		errs = append(errs, e.Original)
	}
	return errs
}

// WithDetail attaches a diagnostic value. Sensitive keys are stored redacted.
func (e *Error) WithDetail(key string, value any) *Error {
	if e.Details == nil {
		e.Details = map[string]any{}
	}
	if IsSensitiveKey(key) {
		value = Redacted
	}
	e.Details[key] = value
	return e
}

// KeysAndValues flattens the error context for logr.
func (e *Error) KeysAndValues() []any {
	kv := []any{"kind", string(e.Kind)}
	if e.ResourceKind != "" {
		kv = append(kv, "resourceKind", e.ResourceKind)
	}
	if e.Operation != "" {
		kv = append(kv, "operation", e.Operation)
	}
	if e.ResourceID != "" {
		kv = append(kv, "resourceId", e.ResourceID)
	}
	keys := make([]string, 0, len(e.Details))
	for k := range e.Details {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		kv = append(kv, k, e.Details[k])
	}
	return kv
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Wrap(kind Kind, cause error, message string) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// Validation builds a ValidationError naming the offending field.
func Validation(field, reason string) *Error {
	if reason == "" {
		reason = "missing parameter"
	}
	e := &Error{
		Kind:    ValidationError,
		Message: fmt.Sprintf("%s {%s} in input", reason, field),
	}
	return e.WithDetail("field", field)
}

// Aborted marks err as the failure of one step of a multi-step pipeline.
func Aborted(resourceKind, step, resourceID string, err error) *Error {
	return &Error{
		Kind:         PipelineAborted,
		ResourceKind: resourceKind,
		Operation:    step,
		ResourceID:   resourceID,
		Message:      "pipeline aborted",
		Cause:        err,
	}
}

// CleanupFailure reports that the compensating action for original failed too.
func CleanupFailure(resourceKind, operation, resourceID string, cleanupErr, original error) *Error {
	return &Error{
		Kind:         CleanupFailed,
		ResourceKind: resourceKind,
		Operation:    operation,
		ResourceID:   resourceID,
		Message:      "compensating delete failed",
		Cause:        cleanupErr,
		Original:     original,
	}
}

// KindOf returns the outermost Kind found in err's chain, or RemoteOther when
// err carries no classification.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return RemoteOther
}

// IsKind reports whether any error in err's tree has the given kind.
func IsKind(err error, kind Kind) bool {
	if err == nil {
		return false
	}
	if fe, ok := err.(*Error); ok && fe.Kind == kind {
		return true
	}
	switch u := err.(type) {
	case interface{ Unwrap() []error }:
		for _, e := range u.Unwrap() {
			if IsKind(e, kind) {
				return true
			}
		}
	case interface{ Unwrap() error }:
		return IsKind(u.Unwrap(), kind)
	}
	return false
}

func IsNotFound(err error) bool {
	return IsKind(err, RemoteNotFound)
}

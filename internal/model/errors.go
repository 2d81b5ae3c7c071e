package model

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind classifies an AgentError for logging and for the rare case where a
// caller needs to branch on error category. It is never serialized as a
// number; its String() form is what the error queue records as the name.
type Kind int

const (
	// KindUnknown is the zero value; wrapping code should always supply a
	// concrete Kind.
	KindUnknown Kind = iota
	KindConfigInvalid
	KindPermissionDenied
	KindCollectorQueryFailed
	KindCloudMonitorFailed
	KindNetworkError
	KindSerializationFailed
	KindSinkRejected
	KindExternalDependencyFailed
)

func (k Kind) String() string {
	switch k {
	case KindConfigInvalid:
		return "ConfigInvalid"
	case KindPermissionDenied:
		return "PermissionDenied"
	case KindCollectorQueryFailed:
		return "CollectorQueryFailed"
	case KindCloudMonitorFailed:
		return "CloudMonitorFailed"
	case KindNetworkError:
		return "NetworkError"
	case KindSerializationFailed:
		return "SerializationFailed"
	case KindSinkRejected:
		return "SinkRejected"
	case KindExternalDependencyFailed:
		return "ExternalDependencyFailed"
	default:
		return "Unknown"
	}
}

// AgentError wraps a cause with a Kind and a human-readable message. The
// Dispatcher boundary converts every error it catches into one of these
// before enqueuing it.
type AgentError struct {
	Kind    Kind
	Message string
	Cause   error
}

// NewAgentError wraps cause with kind, capturing a stack via pkg/errors if
// cause doesn't already carry one.
func NewAgentError(kind Kind, message string, cause error) *AgentError {
	if cause != nil {
		if _, ok := cause.(stackTracer); !ok {
			cause = errors.WithStack(cause)
		}
	}
	return &AgentError{Kind: kind, Message: message, Cause: cause}
}

type stackTracer interface {
	StackTrace() errors.StackTrace
}

func (e *AgentError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *AgentError) Unwrap() error {
	return e.Cause
}

// Stacktrace renders the wrapped cause's stack, if any, for the ErrorRecord
// read by the health heartbeat.
func (e *AgentError) Stacktrace() string {
	if st, ok := e.Cause.(stackTracer); ok {
		return fmt.Sprintf("%+v", st.StackTrace())
	}
	if e.Cause != nil {
		return fmt.Sprintf("%+v", e.Cause)
	}
	return ""
}

// ErrorRecord is one entry in the error queue. The heartbeat converts each
// drained record into a HealthError for AgentHealthData.Errors.
type ErrorRecord struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Message    string `json:"message"`
	Stacktrace string `json:"stacktrace"`
	Timestamp  int64  `json:"timestamp"`
}

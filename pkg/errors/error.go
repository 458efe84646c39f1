package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"time"
)

// NotifyError represents a unified error with code, message, and context
type NotifyError struct {
	Code      Code           `json:"code"`
	Message   string         `json:"message"`
	Details   string         `json:"details,omitempty"`
	Channel   string         `json:"channel,omitempty"`
	Context   map[string]any `json:"context,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
	Cause     error          `json:"-"`
}

// Error implements the error interface
func (e *NotifyError) Error() string {
	msg := e.Message
	if e.Details != "" {
		msg = fmt.Sprintf("%s: %s", e.Message, e.Details)
	}
	if e.Channel != "" {
		return fmt.Sprintf("[%s] %s (channel: %s)", e.Code, msg, e.Channel)
	}
	return fmt.Sprintf("[%s] %s", e.Code, msg)
}

// Unwrap returns the underlying cause error
func (e *NotifyError) Unwrap() error {
	return e.Cause
}

// Is checks if the error matches the target error type or code
func (e *NotifyError) Is(target error) bool {
	if notifyErr, ok := target.(*NotifyError); ok {
		return e.Code == notifyErr.Code
	}
	return false
}

// WithContext adds context information to the error
func (e *NotifyError) WithContext(key string, value any) *NotifyError {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

// WithDetails adds details to the error
func (e *NotifyError) WithDetails(details string) *NotifyError {
	e.Details = details
	return e
}

// WithChannel records the channel type the error belongs to
func (e *NotifyError) WithChannel(channel string) *NotifyError {
	e.Channel = channel
	return e
}

// WithCause sets the underlying cause error
func (e *NotifyError) WithCause(cause error) *NotifyError {
	e.Cause = cause
	return e
}

// New creates a new NotifyError
func New(code Code, message string) *NotifyError {
	return &NotifyError{
		Code:      code,
		Message:   message,
		Timestamp: time.Now(),
	}
}

// Newf creates a new NotifyError with a formatted message
func Newf(code Code, format string, args ...any) *NotifyError {
	return New(code, fmt.Sprintf(format, args...))
}

// Wrap wraps an existing error with a NotifyError
func Wrap(cause error, code Code, message string) *NotifyError {
	return &NotifyError{
		Code:      code,
		Message:   message,
		Timestamp: time.Now(),
		Cause:     cause,
	}
}

// Sentinels usable with errors.Is.
var (
	ErrConfiguration = New(ErrInvalidConfig, "invalid channel configuration")
	ErrUnknownType   = New(ErrUnknownChannelType, "unknown channel type")
	ErrDelivery      = New(ErrMessageSendFailed, "delivery failed")
	ErrAggregate     = New(ErrDispatchFailed, "dispatch failed")
)

// NewConfigurationError reports a missing or invalid per-channel setting.
func NewConfigurationError(channel, message string) *NotifyError {
	return New(ErrInvalidConfig, message).WithChannel(channel)
}

// NewMissingConfig reports a required per-channel setting that is absent.
func NewMissingConfig(channel string, keys ...string) *NotifyError {
	e := New(ErrMissingConfig, "missing required configuration").WithChannel(channel)
	if len(keys) > 0 {
		e.WithContext("keys", keys)
		e.Details = strings.Join(keys, ", ")
	}
	return e
}

// NewUnknownChannelType reports a descriptor whose type has no registered adapter.
func NewUnknownChannelType(channelType string) *NotifyError {
	return New(ErrUnknownChannelType, "unknown channel type").WithChannel(channelType)
}

// NewDeliveryError reports a failed delivery to a single channel.
func NewDeliveryError(channel string, cause error) *NotifyError {
	e := Wrap(cause, ErrMessageSendFailed, "failed to deliver alert").WithChannel(channel)
	if cause != nil {
		e.Details = cause.Error()
	}
	return e
}

// NewHTTPStatusError reports a non-2xx response from a channel endpoint.
func NewHTTPStatusError(channel string, status int, body string) *NotifyError {
	code := ErrMessageSendFailed
	switch {
	case status == 401 || status == 403:
		code = ErrChannelAuth
	case status >= 500:
		code = ErrChannelUnavailable
	}
	e := Newf(code, "request failed with status %d", status).WithChannel(channel)
	e.WithContext("status", status)
	if body != "" {
		e.Details = body
	}
	return e
}

// NewAggregateError summarizes a dispatch in which some channels failed.
func NewAggregateError(kind string, failed, total int) *NotifyError {
	return Newf(ErrDispatchFailed, "%d channels failed to send %s", failed, kind).
		WithContext("failed", failed).
		WithContext("total", total)
}

// CodeOf extracts the code of the first NotifyError in err's chain.
func CodeOf(err error) Code {
	var ne *NotifyError
	if stderrors.As(err, &ne) {
		return ne.Code
	}
	return ""
}

// IsConfigurationError reports whether err is a configuration error.
func IsConfigurationError(err error) bool {
	return CodeOf(err).Category() == ConfigurationCategory
}

// IsDeliveryError reports whether err came from a failed channel delivery.
func IsDeliveryError(err error) bool {
	switch CodeOf(err) {
	case ErrMessageSendFailed, ErrChannelAuth, ErrChannelUnavailable, ErrNetworkTimeout, ErrNetworkConnection:
		return true
	}
	return false
}

// IsAggregateError reports whether err is the summary error of a dispatch.
func IsAggregateError(err error) bool {
	return CodeOf(err) == ErrDispatchFailed
}

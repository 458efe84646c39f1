// Package errors defines the coded error taxonomy used across alerthub.
package errors

// Code represents an error code for categorization
type Code string

// Error Categories
const (
	// Configuration Errors (CON)
	ConfigurationCategory = "CON"

	// Platform Errors (PLT)
	PlatformCategory = "PLT"

	// Message Errors (MSG)
	MessageCategory = "MSG"

	// Network Errors (NET)
	NetworkCategory = "NET"
)

// Configuration Error Codes
const (
	ErrInvalidConfig    Code = "CON001" // Invalid configuration
	ErrMissingConfig    Code = "CON002" // Missing required configuration
	ErrConfigValidation Code = "CON003" // Configuration validation failed
	ErrConfigLoadFailed Code = "CON005" // Failed to load configuration
)

// Platform Error Codes
const (
	ErrUnknownChannelType Code = "PLT001" // No adapter registered for the channel type
	ErrChannelUnavailable Code = "PLT002" // Channel responded with a server error
	ErrChannelAuth        Code = "PLT003" // Channel rejected the credentials
)

// Message Error Codes
const (
	ErrInvalidMessage    Code = "MSG001" // Invalid message format
	ErrMessageEncoding   Code = "MSG004" // Message encoding error
	ErrMessageSendFailed Code = "MSG005" // Failed to deliver to a channel
	ErrDispatchFailed    Code = "MSG007" // One or more channels failed during a dispatch
)

// Network Error Codes
const (
	ErrNetworkTimeout    Code = "NET001" // Network timeout
	ErrNetworkConnection Code = "NET002" // Network connection error
)

// Category returns the three-letter category prefix of a code.
func (c Code) Category() string {
	if len(c) < 3 {
		return ""
	}
	return string(c[:3])
}

// Package models contains data types and constants for the chat endpoint.
package models

// Endpoint defaults
const (
	DefaultEndpoint = "http://localhost:5001/chat"
	EndpointPath    = "/chat"
)

// Header names and values sent with every chat request
const (
	HeaderContentType = "Content-Type"
	HeaderRequestID   = "X-Request-ID"
	HeaderUserAgent   = "User-Agent"
	ContentTypeJSON   = "application/json"
	UserAgent         = "chatpanel/1.0"
)

// StatusSuccess is the status marker of a success envelope
const StatusSuccess = "success"

// Limits mirrored from the chat backend
const (
	DefaultMaxMessageLength = 2000
	DefaultMaxRetries       = 3
	DefaultRetryDelayMs     = 1000
)

// User-facing texts rendered inline in the message panel
const (
	TextNetworkError = "Network error occurred. Please check your connection."
	TextTimeout      = "Request timed out. Please try again."
	TextServerError  = "Server error occurred. Please try again later."
	TextRateLimit    = "Too many messages. Please wait a moment."
	TextMaxLength    = "Message is too long. Please shorten it."
	TextEmpty        = "Message cannot be empty."
)

// DefaultHeaders returns the headers shared by every request.
// The per-attempt request ID is added by the client.
func DefaultHeaders() map[string]string {
	return map[string]string{
		HeaderContentType: ContentTypeJSON,
		"Accept":          ContentTypeJSON,
		HeaderUserAgent:   UserAgent,
	}
}

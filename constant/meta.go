// Package constant defines immutable application-level identifiers and configuration defaults.
package constant

const (
	// Ivq is the canonical application identifier used for filesystem paths and CLI branding.
	Ivq = "ivq"

	// Version is the current application semantic version string.
	Version = "0.1.0"

	// ClientIDHeader is the HTTP header carrying the persistent client identifier on every backend request.
	ClientIDHeader = "X-Client-Id"

	// FallbackDuration is the duration (in seconds) reported to the backend
	// when the media element cannot produce a finite one.
	FallbackDuration = 600
)

// Build metadata, overridable at link time.
var (
	BuiltAt  = "unknown"
	BuiltBy  = "unknown"
	Revision = "unknown"
)

// Package network provides a pre-configured HTTP client shared by all backend communication.
package network

import (
	"net/http"
	"time"

	"github.com/ivq-cli/ivq/key"
	"github.com/spf13/viper"
)

// Client is the singleton HTTP client shared across the application.
// Gating correctness depends on request latency staying bounded, so the
// transport carries explicit header and idle timeouts.
var Client = &http.Client{
	Timeout:   time.Minute,
	Transport: newTransport(),
}

// Timeout returns the configured per-request timeout for backend calls.
func Timeout() time.Duration {
	seconds := viper.GetInt(key.APITimeout)
	if seconds <= 0 {
		seconds = 30
	}
	return time.Duration(seconds) * time.Second
}

// newTransport initializes a tuned http.Transport with pool and timeout parameters.
func newTransport() *http.Transport {
	t := http.DefaultTransport.(*http.Transport).Clone()
	t.MaxIdleConns = 100
	t.MaxIdleConnsPerHost = 100
	t.MaxConnsPerHost = 200
	t.IdleConnTimeout = 30 * time.Second
	t.ResponseHeaderTimeout = 30 * time.Second
	t.ExpectContinueTimeout = 30 * time.Second
	return t
}

package internal

import (
	"context"
	"errors"
	"net"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-cleanhttp"
)

// DefaultHTTPTimeout bounds a single call to CouchDB when no timeout is set.
const DefaultHTTPTimeout = 10 * time.Second

// HTTPClientConfig describes one CouchDB endpoint.
type HTTPClientConfig struct {
	BaseURL   string
	Username  string
	Password  string
	Timeout   time.Duration
	UserAgent string
}

// NewHTTPClient returns a resty client on a pooled cleanhttp transport.
// Credentials, when present, are sent as basic auth on every request.
func NewHTTPClient(cfg HTTPClientConfig) *resty.Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultHTTPTimeout
	}

	client := resty.NewWithClient(cleanhttp.DefaultPooledClient()).
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")
	if cfg.UserAgent != "" {
		client.SetHeader("User-Agent", cfg.UserAgent)
	}
	if cfg.Username != "" || cfg.Password != "" {
		client.SetBasicAuth(cfg.Username, cfg.Password)
	}
	return client
}

// IsTimeout reports whether err came from a deadline rather than a refused
// or reset connection.
func IsTimeout(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

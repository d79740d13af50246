package provider

import (
	"fmt"
	"net/url"
	"strings"
)

// DefaultURL is used when no CouchDB URL is configured.
const DefaultURL = "http://localhost:5984"

// Endpoint is a CouchDB server with its admin credentials split out.
type Endpoint struct {
	// BaseURL has no credentials, path or trailing slash.
	BaseURL  string
	Username string
	Password string
}

// ParseURL splits raw into an [Endpoint]. Credentials embedded as
// user:pass@ are moved out of the URL.
func ParseURL(raw string) (Endpoint, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		raw = DefaultURL
	}
	u, err := url.Parse(raw)
	if err != nil {
		return Endpoint{}, fmt.Errorf("couchdb url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return Endpoint{}, fmt.Errorf("couchdb url: unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return Endpoint{}, fmt.Errorf("couchdb url: missing host in %q", raw)
	}

	ep := Endpoint{BaseURL: u.Scheme + "://" + u.Host}
	if u.User != nil {
		ep.Username = u.User.Username()
		ep.Password, _ = u.User.Password()
	}
	return ep, nil
}

// String renders the endpoint with the password masked.
func (e Endpoint) String() string {
	if e.Username == "" {
		return e.BaseURL
	}
	u, err := url.Parse(e.BaseURL)
	if err != nil {
		return e.BaseURL
	}
	u.User = url.UserPassword(e.Username, "xxxxx")
	return u.String()
}

package types

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Method is an HTTP method supported by the load generator.
type Method string

const (
	MethodGet    Method = "GET"
	MethodPost   Method = "POST"
	MethodPut    Method = "PUT"
	MethodDelete Method = "DELETE"
	MethodPatch  Method = "PATCH"
)

// ParseMethod parses a case-insensitive method name.
func ParseMethod(s string) (Method, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "GET":
		return MethodGet, nil
	case "POST":
		return MethodPost, nil
	case "PUT":
		return MethodPut, nil
	case "DELETE":
		return MethodDelete, nil
	case "PATCH":
		return MethodPatch, nil
	default:
		return "", fmt.Errorf("unsupported HTTP method: %q", s)
	}
}

func (m Method) String() string {
	return string(m)
}

// CarriesBody reports whether a request body is sent for this method.
// GET and DELETE requests never carry one, even when a body is configured.
func (m Method) CarriesBody() bool {
	switch m {
	case MethodPost, MethodPut, MethodPatch:
		return true
	default:
		return false
	}
}

// Header is a single name/value pair applied to every generated request.
// Headers keep their configured order and duplicate names are allowed;
// layering duplicates is left to net/http's Header.Add semantics.
type Header struct {
	Name  string
	Value string
}

// ParseHeaders converts raw "Name: Value" strings into ordered Header pairs.
// Entries without a colon or with an empty name are silently skipped;
// surrounding whitespace on names and values is trimmed.
func ParseHeaders(raw []string) []Header {
	var headers []Header
	for _, entry := range raw {
		name, value, ok := strings.Cut(entry, ":")
		if !ok {
			continue
		}
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		headers = append(headers, Header{Name: name, Value: strings.TrimSpace(value)})
	}
	return headers
}

// RequestSpec describes one load-test run. It is immutable once built and
// shared read-only by every worker.
type RequestSpec struct {
	URL         string
	Method      Method
	Headers     []Header
	Body        string
	Timeout     time.Duration
	Concurrency int
}

// Validate checks the spec before it reaches the dispatcher. The dispatcher
// itself never re-validates.
func (s *RequestSpec) Validate() error {
	if s.URL == "" {
		return fmt.Errorf("target URL is required")
	}
	u, err := url.Parse(s.URL)
	if err != nil {
		return fmt.Errorf("invalid target URL: %w", err)
	}
	if !u.IsAbs() || u.Host == "" {
		return fmt.Errorf("target URL must be absolute: %q", s.URL)
	}
	if s.Method == "" {
		return fmt.Errorf("HTTP method is required")
	}
	if s.Concurrency < 1 {
		return fmt.Errorf("concurrency must be at least 1, got %d", s.Concurrency)
	}
	if s.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %s", s.Timeout)
	}
	return nil
}

// Sample is the recorded outcome of one completed call. Status is whatever
// the server returned, not necessarily 2xx. Latency covers request start
// until response headers were received; Timestamp is the completion instant.
type Sample struct {
	Status    int
	Latency   time.Duration
	Timestamp time.Time
}

// TLSConfig carries optional transport-level TLS material.
type TLSConfig struct {
	InsecureSkipVerify bool
	CertFile           string
	KeyFile            string
	CAFile             string
}

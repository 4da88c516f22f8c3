// Package scenario loads run descriptions from YAML or JSON files.
package scenario

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/mohamed-abdelsamei/loadster/internal/types"
)

// Defaults applied when a scenario or the command line leaves a field unset.
const (
	DefaultMethod  = types.MethodGet
	DefaultUsers   = 10
	DefaultTimeout = 30 * time.Second
)

// Scenario describes one load-test run loaded from a file. Command-line
// flags that were set explicitly always override scenario values.
type Scenario struct {
	URL     string   `json:"url" yaml:"url"`                             // Target URL (required)
	Method  string   `json:"method,omitempty" yaml:"method,omitempty"`   // HTTP method (default: GET)
	Users   int      `json:"users,omitempty" yaml:"users,omitempty"`     // Concurrent users (default: 10)
	Timeout string   `json:"timeout,omitempty" yaml:"timeout,omitempty"` // Per-request timeout (default: 30s)
	Headers []string `json:"headers,omitempty" yaml:"headers,omitempty"` // "Name: Value" entries
	Body    string   `json:"body,omitempty" yaml:"body,omitempty"`       // Request body for methods that carry one
	Output  string   `json:"output,omitempty" yaml:"output,omitempty"`   // Sample file destination
	OAuth   *OAuth   `json:"oauth,omitempty" yaml:"oauth,omitempty"`     // Client-credentials token source
	TLS     *TLS     `json:"tls,omitempty" yaml:"tls,omitempty"`         // Transport TLS material
}

// OAuth configures the client-credentials token request for a run.
type OAuth struct {
	TokenURL     string   `json:"token_url" yaml:"token_url"`
	ClientID     string   `json:"client_id" yaml:"client_id"`
	ClientSecret string   `json:"client_secret" yaml:"client_secret"`
	Scopes       []string `json:"scopes,omitempty" yaml:"scopes,omitempty"`
}

// TLS carries the transport options a run may need for HTTPS targets.
type TLS struct {
	InsecureSkipVerify bool   `json:"insecure_skip_verify,omitempty" yaml:"insecure_skip_verify,omitempty"`
	CertFile           string `json:"cert_file,omitempty" yaml:"cert_file,omitempty"`
	KeyFile            string `json:"key_file,omitempty" yaml:"key_file,omitempty"`
	CAFile             string `json:"ca_file,omitempty" yaml:"ca_file,omitempty"`
}

// Load reads a scenario from a file, picking the format by extension.
// Resolution and validation happen later in Spec, after command-line
// overrides have been applied.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	var sc Scenario

	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &sc); err != nil {
			return nil, fmt.Errorf("failed to parse YAML scenario: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, &sc); err != nil {
			return nil, fmt.Errorf("failed to parse JSON scenario: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported scenario file format: %s (use .yaml, .yml, or .json)", ext)
	}

	return &sc, nil
}

// Spec resolves the scenario into a validated RequestSpec, applying the
// package defaults for anything left unset.
func (s *Scenario) Spec() (types.RequestSpec, error) {
	spec := types.RequestSpec{
		URL:         s.URL,
		Method:      DefaultMethod,
		Headers:     types.ParseHeaders(s.Headers),
		Body:        s.Body,
		Timeout:     DefaultTimeout,
		Concurrency: DefaultUsers,
	}

	if s.Method != "" {
		m, err := types.ParseMethod(s.Method)
		if err != nil {
			return types.RequestSpec{}, err
		}
		spec.Method = m
	}
	if s.Users != 0 {
		spec.Concurrency = s.Users
	}
	if s.Timeout != "" {
		d, err := time.ParseDuration(s.Timeout)
		if err != nil {
			return types.RequestSpec{}, fmt.Errorf("invalid timeout %q: %w", s.Timeout, err)
		}
		spec.Timeout = d
	}

	if err := spec.Validate(); err != nil {
		return types.RequestSpec{}, err
	}
	return spec, nil
}

// TLSConfig converts the scenario's TLS block, or returns nil when absent.
func (s *Scenario) TLSConfig() *types.TLSConfig {
	if s.TLS == nil {
		return nil
	}
	return &types.TLSConfig{
		InsecureSkipVerify: s.TLS.InsecureSkipVerify,
		CertFile:           s.TLS.CertFile,
		KeyFile:            s.TLS.KeyFile,
		CAFile:             s.TLS.CAFile,
	}
}

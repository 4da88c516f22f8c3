package scenario

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mohamed-abdelsamei/loadster/internal/types"
)

// writeScenario writes content to a throwaway file and returns its path.
func writeScenario(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write scenario file: %v", err)
	}
	return path
}

// TestLoad_YAML tests loading a fully populated YAML scenario.
func TestLoad_YAML(t *testing.T) {
	path := writeScenario(t, "run.yaml", `
url: https://api.example.test/health
method: POST
users: 50
timeout: 10s
headers:
  - "Content-Type: application/json"
  - "X-Tag: one"
body: '{"ping":true}'
output: samples.log
oauth:
  token_url: https://id.example.test/token
  client_id: loadster
  client_secret: s3cret
  scopes: [read, write]
tls:
  insecure_skip_verify: true
  ca_file: /etc/ssl/private/ca.pem
`)

	sc, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if sc.URL != "https://api.example.test/health" {
		t.Errorf("URL = %q, want the configured target", sc.URL)
	}
	if sc.Method != "POST" || sc.Users != 50 || sc.Timeout != "10s" {
		t.Errorf("Unexpected run fields: method=%q users=%d timeout=%q", sc.Method, sc.Users, sc.Timeout)
	}
	if len(sc.Headers) != 2 {
		t.Errorf("Expected 2 header entries, got: %d", len(sc.Headers))
	}
	if sc.Body != `{"ping":true}` {
		t.Errorf("Body = %q", sc.Body)
	}
	if sc.Output != "samples.log" {
		t.Errorf("Output = %q, want samples.log", sc.Output)
	}
	if sc.OAuth == nil {
		t.Fatal("Expected OAuth block")
	}
	if sc.OAuth.TokenURL != "https://id.example.test/token" || sc.OAuth.ClientID != "loadster" {
		t.Errorf("Unexpected OAuth fields: %+v", sc.OAuth)
	}
	if len(sc.OAuth.Scopes) != 2 {
		t.Errorf("Expected 2 scopes, got: %v", sc.OAuth.Scopes)
	}
	if sc.TLS == nil || !sc.TLS.InsecureSkipVerify || sc.TLS.CAFile != "/etc/ssl/private/ca.pem" {
		t.Errorf("Unexpected TLS block: %+v", sc.TLS)
	}
}

// TestLoad_JSON tests loading the JSON rendering of a scenario.
func TestLoad_JSON(t *testing.T) {
	path := writeScenario(t, "run.json", `{
  "url": "https://api.example.test/items",
  "method": "put",
  "users": 5,
  "headers": ["Accept: application/json"],
  "body": "{}"
}`)

	sc, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if sc.URL != "https://api.example.test/items" || sc.Method != "put" || sc.Users != 5 {
		t.Errorf("Unexpected fields: url=%q method=%q users=%d", sc.URL, sc.Method, sc.Users)
	}
	if sc.OAuth != nil || sc.TLS != nil {
		t.Errorf("Expected absent OAuth/TLS blocks, got: %+v / %+v", sc.OAuth, sc.TLS)
	}
}

// TestLoad_Errors tests the failure paths of Load.
func TestLoad_Errors(t *testing.T) {
	t.Run("unsupported extension", func(t *testing.T) {
		path := writeScenario(t, "run.txt", "url: x")
		if _, err := Load(path); err == nil {
			t.Error("Expected error for unsupported extension, got nil")
		}
	})

	t.Run("missing file", func(t *testing.T) {
		if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
			t.Error("Expected error for missing file, got nil")
		}
	})

	t.Run("invalid yaml", func(t *testing.T) {
		path := writeScenario(t, "run.yaml", "url: [unclosed")
		if _, err := Load(path); err == nil {
			t.Error("Expected error for invalid YAML, got nil")
		}
	})

	t.Run("invalid json", func(t *testing.T) {
		path := writeScenario(t, "run.json", "{not json")
		if _, err := Load(path); err == nil {
			t.Error("Expected error for invalid JSON, got nil")
		}
	})
}

// TestScenarioSpec_Defaults tests that a minimal scenario picks up the
// package defaults.
func TestScenarioSpec_Defaults(t *testing.T) {
	sc := &Scenario{URL: "https://api.example.test/health"}

	spec, err := sc.Spec()
	if err != nil {
		t.Fatalf("Spec failed: %v", err)
	}

	if spec.Method != types.MethodGet {
		t.Errorf("Method = %v, want GET", spec.Method)
	}
	if spec.Concurrency != DefaultUsers {
		t.Errorf("Concurrency = %d, want %d", spec.Concurrency, DefaultUsers)
	}
	if spec.Timeout != DefaultTimeout {
		t.Errorf("Timeout = %v, want %v", spec.Timeout, DefaultTimeout)
	}
	if len(spec.Headers) != 0 {
		t.Errorf("Expected no headers, got: %v", spec.Headers)
	}
}

// TestScenarioSpec_Resolution tests method/timeout parsing and the header
// skip/trim rules on the way to a RequestSpec.
func TestScenarioSpec_Resolution(t *testing.T) {
	sc := &Scenario{
		URL:     "https://api.example.test/items",
		Method:  "post",
		Users:   50,
		Timeout: "10s",
		Headers: []string{"Content-Type: application/json", "not-a-header", " X-Tag :  v "},
		Body:    `{"ping":true}`,
	}

	spec, err := sc.Spec()
	if err != nil {
		t.Fatalf("Spec failed: %v", err)
	}

	if spec.Method != types.MethodPost {
		t.Errorf("Method = %v, want POST", spec.Method)
	}
	if spec.Concurrency != 50 {
		t.Errorf("Concurrency = %d, want 50", spec.Concurrency)
	}
	if spec.Timeout != 10*time.Second {
		t.Errorf("Timeout = %v, want 10s", spec.Timeout)
	}
	if len(spec.Headers) != 2 {
		t.Fatalf("Expected 2 parsed headers (malformed skipped), got: %v", spec.Headers)
	}
	if spec.Headers[1] != (types.Header{Name: "X-Tag", Value: "v"}) {
		t.Errorf("Headers[1] = %+v, want trimmed X-Tag", spec.Headers[1])
	}
}

// TestScenarioSpec_Invalid tests the failure paths of Spec.
func TestScenarioSpec_Invalid(t *testing.T) {
	tests := []struct {
		name string
		sc   Scenario
	}{
		{name: "missing url", sc: Scenario{}},
		{name: "relative url", sc: Scenario{URL: "/health"}},
		{name: "unknown method", sc: Scenario{URL: "https://x.test", Method: "TRACE"}},
		{name: "bad timeout", sc: Scenario{URL: "https://x.test", Timeout: "soon"}},
		{name: "negative users", sc: Scenario{URL: "https://x.test", Users: -3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tt.sc.Spec(); err == nil {
				t.Error("Expected error, got nil")
			}
		})
	}
}

// TestScenarioTLSConfig tests the conversion to the transport TLS type.
func TestScenarioTLSConfig(t *testing.T) {
	sc := &Scenario{}
	if sc.TLSConfig() != nil {
		t.Error("Expected nil TLS config when the block is absent")
	}

	sc.TLS = &TLS{InsecureSkipVerify: true, CertFile: "c.pem", KeyFile: "k.pem", CAFile: "ca.pem"}
	got := sc.TLSConfig()
	if got == nil {
		t.Fatal("Expected TLS config")
	}
	if !got.InsecureSkipVerify || got.CertFile != "c.pem" || got.KeyFile != "k.pem" || got.CAFile != "ca.pem" {
		t.Errorf("Unexpected TLS config: %+v", got)
	}
}

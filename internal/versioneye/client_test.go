package versioneye

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/obentoo/versioneye-slack/internal/common/httpclient"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	hc := httpclient.New()
	hc.SetHTTPClient(server.Client())
	hc.SetDelayFunc(func(time.Duration) {})

	client, err := NewClient("secret-key", WithBaseURL(server.URL), WithHTTPClient(hc))
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	return client
}

func TestNewClientRequiresAPIKey(t *testing.T) {
	for _, key := range []string{"", "   "} {
		if _, err := NewClient(key); !errors.Is(err, ErrMissingAPIKey) {
			t.Errorf("NewClient(%q) error = %v, want ErrMissingAPIKey", key, err)
		}
	}
}

func TestNewClientDefaults(t *testing.T) {
	client, err := NewClient("key")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if client.BaseURL() != DefaultBaseURL {
		t.Errorf("Expected base URL %s, got %s", DefaultBaseURL, client.BaseURL())
	}
	if client.httpClient == nil {
		t.Error("Expected HTTP client to be set")
	}
	if client.limiter != nil {
		t.Error("Expected no rate limiter by default")
	}
}

func TestWithRateLimit(t *testing.T) {
	client, err := NewClient("key", WithRateLimit(0.5))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if client.limiter == nil {
		t.Fatal("Expected rate limiter")
	}
	if client.limiter.Burst() != 1 {
		t.Errorf("Expected burst 1, got %d", client.limiter.Burst())
	}

	client, _ = NewClient("key", WithRateLimit(0))
	if client.limiter != nil {
		t.Error("Expected zero rate to disable the limiter")
	}
}

func TestListProjects(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		expected []ProjectID
	}{
		{
			name:     "ids field",
			body:     `[{"ids":"abc","name":"one"},{"ids":"def","name":"two"}]`,
			expected: []ProjectID{"abc", "def"},
		},
		{
			name:     "bare identifiers",
			body:     `["abc","def"]`,
			expected: []ProjectID{"abc", "def"},
		},
		{
			name:     "id fallback",
			body:     `[{"id":"xyz"}]`,
			expected: []ProjectID{"xyz"},
		},
		{
			name:     "ids wins over id",
			body:     `[{"ids":"new","id":"old"}]`,
			expected: []ProjectID{"new"},
		},
		{
			name:     "empty list",
			body:     `[]`,
			expected: []ProjectID{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/api/v2/projects" {
					t.Errorf("Unexpected path %s", r.URL.Path)
				}
				if got := r.URL.Query().Get("api_key"); got != "secret-key" {
					t.Errorf("Expected api_key=secret-key, got %q", got)
				}
				w.Write([]byte(tt.body))
			})

			ids, err := client.ListProjects(context.Background())
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if len(ids) != len(tt.expected) {
				t.Fatalf("Expected %d ids, got %d (%v)", len(tt.expected), len(ids), ids)
			}
			for i := range ids {
				if ids[i] != tt.expected[i] {
					t.Errorf("ids[%d] = %q, want %q", i, ids[i], tt.expected[i])
				}
			}
		})
	}
}

func TestListProjectsMalformed(t *testing.T) {
	bodies := []string{
		`{"error":"nope"}`,
		`[42]`,
		`[{"name":"no id"}]`,
		`[{"ids":""}]`,
		`[{"ids":7}]`,
		`not json`,
	}

	for _, body := range bodies {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(body))
		})

		_, err := client.ListProjects(context.Background())
		if !errors.Is(err, ErrMalformedResponse) {
			t.Errorf("body %s: expected ErrMalformedResponse, got %v", body, err)
		}
	}
}

func TestDependencies(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v2/projects/p1" {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		w.Write([]byte(`{"name":"proj","dependencies":[
			{"name":"rails","language":"ruby","prod_key":"rails","version_current":"5.0.0","version_requested":"4.2.0","outdated":true,"security_vulnerabilities":[{"cve":"x"}]},
			{"name":"foo","language":"python","prod_key":"foo","version_current":"1.0","version_requested":"1.0","outdated":false,"security_vulnerabilities":null},
			{"name":"guava","language":"java","prod_key":"com.google/guava","version_current":19,"version_requested":null,"outdated":true}
		]}`))
	})

	deps, err := client.Dependencies(context.Background(), "p1")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(deps) != 3 {
		t.Fatalf("Expected 3 dependencies, got %d", len(deps))
	}

	rails := deps[0]
	if rails.Name != "rails" || rails.Language != "ruby" || rails.VersionCurrent != "5.0.0" || rails.VersionRequested != "4.2.0" {
		t.Errorf("Unexpected rails record: %+v", rails)
	}
	if !rails.Outdated || !rails.Vulnerable {
		t.Errorf("Expected rails outdated and vulnerable: %+v", rails)
	}

	if deps[1].Outdated || deps[1].Vulnerable {
		t.Errorf("Expected foo up to date and not vulnerable: %+v", deps[1])
	}

	if deps[2].VersionCurrent != "19" || deps[2].VersionRequested != "" {
		t.Errorf("Expected numeric version to be stringified: %+v", deps[2])
	}
	if deps[2].Vulnerable {
		t.Error("Missing security_vulnerabilities should read as not vulnerable")
	}
}

func TestDependenciesMalformed(t *testing.T) {
	bodies := map[string]string{
		"missing dependencies": `{"name":"proj"}`,
		"missing name":         `{"dependencies":[{"language":"ruby","prod_key":"x","outdated":true}]}`,
		"missing language":     `{"dependencies":[{"name":"x","prod_key":"x","outdated":true}]}`,
		"missing prod_key":     `{"dependencies":[{"name":"x","language":"ruby","outdated":true}]}`,
		"missing outdated":     `{"dependencies":[{"name":"x","language":"ruby","prod_key":"x"}]}`,
		"bad version":          `{"dependencies":[{"name":"x","language":"ruby","prod_key":"x","outdated":true,"version_current":[1]}]}`,
		"not an object":        `[]`,
	}

	for name, body := range bodies {
		t.Run(name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(body))
			})
			_, err := client.Dependencies(context.Background(), "p1")
			if !errors.Is(err, ErrMalformedResponse) {
				t.Errorf("Expected ErrMalformedResponse, got %v", err)
			}
		})
	}
}

func TestDependenciesEmptyID(t *testing.T) {
	client, _ := NewClient("key")
	if _, err := client.Dependencies(context.Background(), " "); !errors.Is(err, ErrMalformedResponse) {
		t.Errorf("Expected ErrMalformedResponse for empty id, got %v", err)
	}
}

func TestAPIStatusError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":"API key not valid"}`))
	})

	_, err := client.ListProjects(context.Background())
	if !errors.Is(err, ErrAPIStatus) {
		t.Fatalf("Expected ErrAPIStatus, got %v", err)
	}
	if !strings.Contains(err.Error(), "401") {
		t.Errorf("Expected status code in error, got %v", err)
	}
}

func TestTransportErrorRedactsAPIKey(t *testing.T) {
	hc := httpclient.NewWithConfig(httpclient.NoRetryConfig())
	client, err := NewClient("secret-key", WithBaseURL("http://127.0.0.1:1"), WithHTTPClient(hc))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	_, err = client.ListProjects(context.Background())
	if err == nil {
		t.Fatal("Expected transport error")
	}
	if strings.Contains(err.Error(), "secret-key") {
		t.Errorf("API key leaked into error: %v", err)
	}
}

func TestDependencyKey(t *testing.T) {
	dep := Dependency{Language: "rubygems", ProdKey: "rails"}
	if dep.Key() != "rubygems:rails" {
		t.Errorf("Expected rubygems:rails, got %s", dep.Key())
	}
}

func TestTruthy(t *testing.T) {
	tests := map[string]bool{
		``:           false,
		`null`:       false,
		`false`:      false,
		`true`:       true,
		`0`:          false,
		`0.0`:        false,
		`3`:          true,
		`""`:         false,
		`"yes"`:      true,
		`[]`:         false,
		`[1]`:        true,
		`{}`:         false,
		`{"cve":"x"}`: true,
	}

	for raw, want := range tests {
		if got := truthy([]byte(raw)); got != want {
			t.Errorf("truthy(%q) = %v, want %v", raw, got, want)
		}
	}
}

package config

import (
	"bytes"
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadClientDefaults(t *testing.T) {
	for _, k := range []string{"FRETES_API_URL", "FRETES_PROXY_SECRET", "FRETES_DB", "FRETES_LOG_FILE", "FRETES_TIMEOUT"} {
		t.Setenv(k, "")
	}
	c := LoadClient()
	if c.APIURL != DefaultAPIURL {
		t.Errorf("APIURL = %q", c.APIURL)
	}
	if c.Timeout != DefaultTimeout {
		t.Errorf("Timeout = %v", c.Timeout)
	}
	if c.ProxySecret != "" || c.DBPath != "" || c.LogFile != "" {
		t.Errorf("unexpected values: %+v", c)
	}
}

func TestLoadClientOverrides(t *testing.T) {
	t.Setenv("FRETES_API_URL", "https://fretes.example/api")
	t.Setenv("FRETES_PROXY_SECRET", "abc")
	t.Setenv("FRETES_TIMEOUT", "5s")
	c := LoadClient()
	if c.APIURL != "https://fretes.example/api" || c.ProxySecret != "abc" || c.Timeout != 5*time.Second {
		t.Errorf("got %+v", c)
	}
}

func TestLoadRelay(t *testing.T) {
	tests := []struct {
		name  string
		env   map[string]string
		check func(t *testing.T, r Relay)
	}{
		{
			name: "defaults",
			env:  map[string]string{},
			check: func(t *testing.T, r Relay) {
				if r.Addr != DefaultRelayAddr || r.Path != DefaultRelayPath || r.RateLimit != 0 {
					t.Errorf("got %+v", r)
				}
			},
		},
		{
			name: "path gets a slash",
			env:  map[string]string{"RELAY_PATH": "proxy"},
			check: func(t *testing.T, r Relay) {
				if r.Path != "/proxy" {
					t.Errorf("Path = %q", r.Path)
				}
			},
		},
		{
			name: "bad numbers fall back",
			env:  map[string]string{"RELAY_RATE_LIMIT": "lots", "RELAY_TIMEOUT": "-3s"},
			check: func(t *testing.T, r Relay) {
				if r.RateLimit != 0 || r.Timeout != DefaultTimeout {
					t.Errorf("got %+v", r)
				}
			},
		},
		{
			name: "negative limit disables",
			env:  map[string]string{"RELAY_RATE_LIMIT": "-5"},
			check: func(t *testing.T, r Relay) {
				if r.RateLimit != 0 {
					t.Errorf("RateLimit = %d", r.RateLimit)
				}
			},
		},
		{
			name: "backend url trimmed",
			env:  map[string]string{"APPS_SCRIPT_URL": "  https://script.google.com/x  ", "RELAY_RATE_LIMIT": "120"},
			check: func(t *testing.T, r Relay) {
				if r.BackendURL != "https://script.google.com/x" || r.RateLimit != 120 {
					t.Errorf("got %+v", r)
				}
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, k := range []string{"RELAY_ADDR", "RELAY_PATH", "APPS_SCRIPT_URL", "PROXY_SHARED_SECRET", "RELAY_REDIS_ADDR", "RELAY_RATE_LIMIT", "RELAY_TIMEOUT"} {
				t.Setenv(k, "")
			}
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			tt.check(t, LoadRelay())
		})
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.env")
	if err := os.WriteFile(path, []byte("FRETES_DOTENV_NEW=from-file\nFRETES_DOTENV_KEEP=from-file\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("FRETES_DOTENV_KEEP", "from-env")
	t.Setenv("FRETES_DOTENV_NEW", "")
	os.Unsetenv("FRETES_DOTENV_NEW")

	LoadDotEnv(filepath.Join(dir, "missing.env"), path)

	if got := os.Getenv("FRETES_DOTENV_NEW"); got != "from-file" {
		t.Errorf("new = %q", got)
	}
	if got := os.Getenv("FRETES_DOTENV_KEEP"); got != "from-env" {
		t.Errorf("existing variable overridden: %q", got)
	}
}

func TestLoadDotEnvLogsUnreadableFile(t *testing.T) {
	var buf bytes.Buffer
	log.SetOutput(&buf)
	t.Cleanup(func() { log.SetOutput(os.Stderr) })

	dir := t.TempDir()
	LoadDotEnv(dir)

	if !strings.Contains(buf.String(), "load "+dir) {
		t.Fatalf("log = %q", buf.String())
	}
}

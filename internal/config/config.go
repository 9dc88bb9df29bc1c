package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DefaultAPIURL    = "http://localhost:8788/api"
	DefaultTimeout   = 30 * time.Second
	DefaultRelayAddr = ":8788"
	DefaultRelayPath = "/api"
)

// Client configures the terminal client.
type Client struct {
	APIURL      string
	ProxySecret string
	DBPath      string // empty means store.DefaultDBPath
	LogFile     string // empty discards logs
	Timeout     time.Duration
}

// Relay configures the edge proxy.
type Relay struct {
	Addr         string
	Path         string
	BackendURL   string // APPS_SCRIPT_URL; empty answers every request with 500
	SharedSecret string
	RedisAddr    string
	RateLimit    int // requests per minute per client IP; 0 disables
	Timeout      time.Duration
}

// LoadDotEnv loads files (default ".env") into the environment without
// overriding variables already set. Missing files are ignored; unreadable
// or malformed ones are logged and skipped.
func LoadDotEnv(files ...string) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			log.Printf("config: load %s: %v", f, err)
		}
	}
}

func LoadClient() Client {
	return Client{
		APIURL:      envStr("FRETES_API_URL", DefaultAPIURL),
		ProxySecret: os.Getenv("FRETES_PROXY_SECRET"),
		DBPath:      os.Getenv("FRETES_DB"),
		LogFile:     os.Getenv("FRETES_LOG_FILE"),
		Timeout:     envDur("FRETES_TIMEOUT", DefaultTimeout),
	}
}

func LoadRelay() Relay {
	r := Relay{
		Addr:         envStr("RELAY_ADDR", DefaultRelayAddr),
		Path:         envStr("RELAY_PATH", DefaultRelayPath),
		BackendURL:   strings.TrimSpace(os.Getenv("APPS_SCRIPT_URL")),
		SharedSecret: os.Getenv("PROXY_SHARED_SECRET"),
		RedisAddr:    os.Getenv("RELAY_REDIS_ADDR"),
		RateLimit:    envInt("RELAY_RATE_LIMIT", 0),
		Timeout:      envDur("RELAY_TIMEOUT", DefaultTimeout),
	}
	if !strings.HasPrefix(r.Path, "/") {
		r.Path = "/" + r.Path
	}
	if r.RateLimit < 0 {
		r.RateLimit = 0
	}
	return r
}

func envStr(k, d string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return d
}

func envInt(k string, d int) int {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
		return n
	}
	return d
}

func envDur(k string, d time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	if dur, err := time.ParseDuration(strings.TrimSpace(v)); err == nil && dur > 0 {
		return dur
	}
	return d
}

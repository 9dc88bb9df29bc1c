package relay

import (
	"bytes"
	"crypto/subtle"
	"encoding/json"
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/sadopc/fretes/internal/config"
)

const (
	secretHeader = "X-Proxy-Secret"
	jsonType     = "application/json; charset=utf-8"
)

// Relay forwards action envelopes to the spreadsheet backend.
type Relay struct {
	cfg     config.Relay
	http    *http.Client
	limiter Limiter
}

type Option func(*Relay)

func WithHTTPClient(hc *http.Client) Option {
	return func(r *Relay) { r.http = hc }
}

// WithLimiter enables per-IP rate limiting of POSTs.
func WithLimiter(l Limiter) Option {
	return func(r *Relay) { r.limiter = l }
}

func New(cfg config.Relay, opts ...Option) *Relay {
	r := &Relay{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Echo builds the server: request ids, request logging, panic recovery and
// the relay route at cfg.Path for every method.
func (r *Relay) Echo() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Logger.SetLevel(log.INFO)

	e.Use(middleware.Recover())
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogRemoteIP:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			c.Logger().Infof("%s %s %d %s ip=%s id=%s", v.Method, v.URI, v.Status, v.Latency, v.RemoteIP, v.RequestID)
			return nil
		},
	}))

	e.Any(r.cfg.Path, r.Handle, rateLimit(r.limiter))
	return e
}

// Handle is the relay endpoint.
func (r *Relay) Handle(c echo.Context) error {
	req := c.Request()
	setCORS(c)

	if req.Method == http.MethodOptions {
		return c.NoContent(http.StatusNoContent)
	}
	if req.Method != http.MethodPost {
		return writeError(c, http.StatusMethodNotAllowed, "Method not allowed")
	}
	if r.cfg.BackendURL == "" {
		return writeError(c, http.StatusInternalServerError, "Missing APPS_SCRIPT_URL env var")
	}

	body, _ := io.ReadAll(req.Body)

	if r.cfg.SharedSecret != "" {
		provided := req.Header.Get(secretHeader)
		if subtle.ConstantTimeCompare([]byte(provided), []byte(r.cfg.SharedSecret)) != 1 {
			return writeError(c, http.StatusForbidden, "Forbidden")
		}
	}

	if len(bytes.TrimSpace(body)) == 0 {
		body = []byte("{}")
	}
	out, err := http.NewRequestWithContext(req.Context(), http.MethodPost, r.cfg.BackendURL, bytes.NewReader(body))
	if err != nil {
		return writeError(c, http.StatusBadGateway, "Proxy fetch failed: "+err.Error())
	}
	out.Header.Set("Content-Type", "application/json")

	resp, err := r.http.Do(out)
	if err != nil {
		c.Logger().Errorf("relay: backend: %v", err)
		return writeError(c, http.StatusBadGateway, "Proxy fetch failed: "+err.Error())
	}
	defer resp.Body.Close()

	text, err := io.ReadAll(resp.Body)
	if err != nil {
		return writeError(c, http.StatusBadGateway, "Proxy fetch failed: "+err.Error())
	}
	c.Response().Header().Set("Cache-Control", "no-store")
	return c.Blob(resp.StatusCode, jsonType, text)
}

func setCORS(c echo.Context) {
	h := c.Response().Header()
	origin := c.Request().Header.Get("Origin")
	if origin == "" {
		origin = "*"
	}
	h.Set("Access-Control-Allow-Origin", origin)
	h.Set("Access-Control-Allow-Methods", "POST, OPTIONS")
	h.Set("Access-Control-Allow-Headers", "Content-Type, "+secretHeader)
	h.Set("Access-Control-Max-Age", "86400")
	h.Set("Vary", "Origin")
}

type errorBody struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func writeError(c echo.Context, status int, message string) error {
	setCORS(c)
	c.Response().Header().Set("Cache-Control", "no-store")
	data, err := json.Marshal(errorBody{Success: false, Message: message})
	if err != nil {
		return err
	}
	return c.Blob(status, jsonType, data)
}

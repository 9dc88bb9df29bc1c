package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/sadopc/fretes/internal/freight"
)

const (
	actionLogin = "login"

	// SecretHeader carries the optional relay shared secret.
	SecretHeader = "X-Proxy-Secret"
)

var (
	// ErrTransport means the relay or backend could not be reached.
	ErrTransport = errors.New("rpc: transport failure")
	// ErrInvalidResponse means the body was not a parseable envelope.
	ErrInvalidResponse = errors.New("rpc: invalid response")
)

// User-facing texts.
const (
	unknownError    = "Erro desconhecido."
	transportText   = "Falha de conexão com o servidor. Tente novamente."
	invalidText     = "Resposta inválida do servidor."
	nothingSelected = "Selecione ao menos 1 lançamento."
	noDecision      = "Defina APROVAR/REPROVAR para os selecionados."
)

// AppError is a success:false reply from the backend.
type AppError struct {
	Action  string
	Message string
}

func (e *AppError) Error() string {
	if e.Message == "" {
		return unknownError
	}
	return e.Message
}

// Credentials supplies the session token injected into every call but login.
type Credentials interface {
	Credentials() (token, email string, ok bool)
}

// Payload is the action-specific request body.
type Payload map[string]any

// Auth is the credential block the backend expects under payload.auth.
type Auth struct {
	Token string `json:"token"`
	Email string `json:"email"`
}

type envelope struct {
	Action  string  `json:"action"`
	Payload Payload `json:"payload"`
}

type reply struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
}

// Client sends action envelopes to the relay endpoint.
type Client struct {
	endpoint string
	secret   string
	http     *http.Client
	creds    Credentials
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func WithProxySecret(secret string) Option {
	return func(c *Client) { c.secret = secret }
}

func WithCredentials(creds Credentials) Option {
	return func(c *Client) { c.creds = creds }
}

func New(endpoint string, opts ...Option) *Client {
	c := &Client{
		endpoint: endpoint,
		http:     &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Call posts {action, payload} and returns the reply's data field. Errors are
// ErrTransport, ErrInvalidResponse or *AppError; a cancelled ctx returns ctx.Err().
// Calls are never retried. A logged "ok" covers the envelope only; decode
// failures in the typed wrappers are logged separately.
func (c *Client) Call(ctx context.Context, action string, payload Payload) (json.RawMessage, error) {
	start := time.Now()
	data, err := c.call(ctx, action, payload)
	switch {
	case err == nil:
		log.Printf("rpc %s replied in %s", action, time.Since(start).Round(time.Millisecond))
	case errors.Is(err, ErrTransport):
		log.Printf("rpc %s transport error: %v", action, err)
	case errors.Is(err, ErrInvalidResponse):
		log.Printf("rpc %s invalid response: %v", action, err)
	default:
		log.Printf("rpc %s failed: %v", action, err)
	}
	return data, err
}

func (c *Client) call(ctx context.Context, action string, payload Payload) (json.RawMessage, error) {
	body, err := json.Marshal(envelope{Action: action, Payload: c.withAuth(action, payload)})
	if err != nil {
		return nil, fmt.Errorf("encode %s payload: %w", action, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.secret != "" {
		req.Header.Set(SecretHeader, c.secret)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	defer resp.Body.Close()

	text, err := io.ReadAll(resp.Body)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: read body: %v", ErrTransport, err)
	}

	var r reply
	if err := json.Unmarshal(text, &r); err != nil {
		return nil, fmt.Errorf("%w (status %d): %v", ErrInvalidResponse, resp.StatusCode, err)
	}
	if !r.Success {
		return nil, &AppError{Action: action, Message: r.Message}
	}
	return r.Data, nil
}

// withAuth copies payload and adds the session credentials under "auth",
// unless this is a login or the caller already supplied auth.
func (c *Client) withAuth(action string, payload Payload) Payload {
	out := make(Payload, len(payload)+1)
	for k, v := range payload {
		out[k] = v
	}
	if action == actionLogin || c.creds == nil {
		return out
	}
	if _, ok := out["auth"]; ok {
		return out
	}
	token, email, ok := c.creds.Credentials()
	if !ok {
		return out
	}
	out["auth"] = Auth{Token: token, Email: email}
	return out
}

// Message is the user-facing text for an error returned by this package or
// by local validation.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var appErr *AppError
	switch {
	case errors.As(err, &appErr):
		return appErr.Error()
	case errors.Is(err, ErrTransport):
		return transportText
	case errors.Is(err, ErrInvalidResponse):
		return invalidText
	case errors.Is(err, freight.ErrNothingSelected):
		return nothingSelected
	case errors.Is(err, freight.ErrNoDecision):
		return noDecision
	}
	return err.Error()
}

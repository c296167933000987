package authapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"langsite/internal/logger"
	"langsite/internal/session"
)

const (
	// DefaultTimeout bounds one call when no timeout is configured.
	DefaultTimeout = 10 * time.Second

	maxResponseBytes = 1 << 20

	OperationLogin    = "login"
	OperationRegister = "register"

	OutcomeSuccess   = "success"
	OutcomeRejected  = "rejected"
	OutcomeTransport = "transport_error"
)

// Observer is notified after every call, for metrics.
type Observer interface {
	ObserveAuth(operation, outcome string, duration time.Duration)
}

// HTTPClient is the REST implementation of Client.
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
	observer   Observer
}

// Option configures an HTTPClient.
type Option func(*HTTPClient)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *HTTPClient) {
		c.httpClient = client
	}
}

// WithObserver registers a call observer.
func WithObserver(observer Observer) Option {
	return func(c *HTTPClient) {
		c.observer = observer
	}
}

// NewHTTPClient creates a client for the service rooted at baseURL.
func NewHTTPClient(baseURL string, timeout time.Duration, opts ...Option) *HTTPClient {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	client := &HTTPClient{
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login posts the credentials to {base}/login.
func (c *HTTPClient) Login(ctx context.Context, email, password string) (session.Session, error) {
	return c.call(ctx, OperationLogin, loginRequest{Email: email, Password: password})
}

// Register posts the new account to {base}/register. The returned session always
// carries the chosen name; the email is filled in when the service leaves it out.
func (c *HTTPClient) Register(ctx context.Context, name, email, password string) (session.Session, error) {
	sess, err := c.call(ctx, OperationRegister, registerRequest{Name: name, Email: email, Password: password})
	if err != nil {
		return session.Session{}, err
	}
	sess.Name = name
	if sess.Email == "" {
		sess.Email = email
	}
	return sess, nil
}

func (c *HTTPClient) call(ctx context.Context, operation string, payload any) (session.Session, error) {
	start := time.Now()
	sess, err := c.do(ctx, operation, payload)
	outcome := OutcomeSuccess
	switch err.(type) {
	case nil:
	case *TransportError:
		outcome = OutcomeTransport
	default:
		outcome = OutcomeRejected
	}
	duration := time.Since(start)
	if c.observer != nil {
		c.observer.ObserveAuth(operation, outcome, duration)
	}
	event := logger.AuthEvent(operation, outcome, float64(duration.Milliseconds()))
	if err != nil {
		event = event.Err(err)
	}
	event.Msg("auth api call")
	return sess, err
}

func (c *HTTPClient) do(ctx context.Context, operation string, payload any) (session.Session, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return session.Session{}, fmt.Errorf("encode %s request: %w", operation, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/"+operation, bytes.NewReader(body))
	if err != nil {
		return session.Session{}, &TransportError{Op: operation, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return session.Session{}, &TransportError{Op: operation, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return session.Session{}, &TransportError{Op: operation, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return session.Session{}, &AuthError{Status: resp.StatusCode, Message: errorMessage(data)}
	}

	sess, err := decodeSession(data)
	if err != nil {
		return session.Session{}, &AuthError{Status: resp.StatusCode}
	}
	return sess, nil
}

type errorPayload struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

func errorMessage(data []byte) string {
	var payload errorPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return ""
	}
	if msg := strings.TrimSpace(payload.Message); msg != "" {
		return msg
	}
	return strings.TrimSpace(payload.Error)
}

type userPayload struct {
	ID    flexibleID `json:"id"`
	Name  string     `json:"name"`
	Email string     `json:"email"`
}

type sessionPayload struct {
	userPayload
	Token       string       `json:"token"`
	AccessToken string       `json:"access_token"`
	User        *userPayload `json:"user"`
}

// decodeSession accepts both a flat user object and a {user, token} envelope.
func decodeSession(data []byte) (session.Session, error) {
	var payload sessionPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return session.Session{}, err
	}
	user := payload.userPayload
	if payload.User != nil {
		user = *payload.User
	}
	token := payload.Token
	if token == "" {
		token = payload.AccessToken
	}
	return session.Session{ID: string(user.ID), Name: user.Name, Email: user.Email, Token: token}, nil
}

// flexibleID accepts identifiers sent as JSON strings or numbers.
type flexibleID string

func (f *flexibleID) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = flexibleID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = flexibleID(n.String())
	return nil
}

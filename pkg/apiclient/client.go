package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

const (
	defaultTimeout  = 30 * time.Second
	fallbackMessage = "An error occurred"
	timeoutMessage  = "Connection timeout exceeded"
)

// TokenSource yields the bearer token attached to each request.
// An empty token sends the request unauthenticated.
type TokenSource interface {
	AccessToken(ctx context.Context) (string, error)
}

type tokenKey struct{}

// WithToken makes requests sent with ctx use token instead of the TokenSource.
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey{}, strings.TrimSpace(token))
}

// Notifier surfaces backend error messages to the user.
type Notifier interface {
	NotifyError(message string)
}

type NotifierFunc func(message string)

func (f NotifierFunc) NotifyError(message string) { f(message) }

type Options struct {
	BaseURL    string
	Timeout    time.Duration
	Tokens     TokenSource
	Notifier   Notifier
	Logger     *zap.Logger
	HTTPClient *http.Client
}

type Client struct {
	http     *resty.Client
	notifier Notifier
	logger   *zap.Logger
}

type envelope struct {
	Status  int             `json:"status"`
	Message string          `json:"message"`
	Title   string          `json:"title"`
	Error   string          `json:"error"`
	Data    json.RawMessage `json:"data"`
	Errors  []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

func New(opts Options) (*Client, error) {
	baseURL := strings.TrimSpace(opts.BaseURL)
	if baseURL == "" {
		return nil, &APIError{Op: "create api client", Err: errors.New("api base url is empty")}
	}
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, &APIError{Op: "parse api base url", Err: err}
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return nil, &APIError{Op: "validate api base url", Err: fmt.Errorf("invalid api base url: %s", baseURL)}
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	notifier := opts.Notifier
	if notifier == nil {
		notifier = NotifierFunc(func(message string) {
			logger.Warn("api error", zap.String("message", message))
		})
	}

	var rc *resty.Client
	if opts.HTTPClient != nil {
		rc = resty.NewWithClient(opts.HTTPClient)
	} else {
		rc = resty.New()
	}
	rc.SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	tokens := opts.Tokens
	rc.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
		if token, ok := req.Context().Value(tokenKey{}).(string); ok && token != "" {
			req.SetAuthToken(token)
			return nil
		}
		if tokens == nil {
			return nil
		}
		token, err := tokens.AccessToken(req.Context())
		if err != nil {
			// No session yet; public endpoints still work.
			return nil
		}
		if token = strings.TrimSpace(token); token != "" {
			req.SetAuthToken(token)
		}
		return nil
	})

	return &Client{http: rc, notifier: notifier, logger: logger}, nil
}

// Do sends body as JSON and decodes the envelope's data field into out.
// It returns the HTTP status code of the response.
func (c *Client) Do(ctx context.Context, method, path string, body, out interface{}) (int, error) {
	status, _, err := c.do(ctx, method, path, body, out)
	return status, err
}

// DoNullable is Do for endpoints that answer with data: null when nothing matches.
// found is false in that case and out is left untouched.
func (c *Client) DoNullable(ctx context.Context, method, path string, body, out interface{}) (bool, error) {
	_, found, err := c.do(ctx, method, path, body, out)
	return found, err
}

func (c *Client) Get(ctx context.Context, path string, out interface{}) error {
	_, err := c.Do(ctx, http.MethodGet, path, nil, out)
	return err
}

func (c *Client) Post(ctx context.Context, path string, body, out interface{}) error {
	_, err := c.Do(ctx, http.MethodPost, path, body, out)
	return err
}

func (c *Client) Put(ctx context.Context, path string, body, out interface{}) error {
	_, err := c.Do(ctx, http.MethodPut, path, body, out)
	return err
}

func (c *Client) Delete(ctx context.Context, path string, body, out interface{}) error {
	_, err := c.Do(ctx, http.MethodDelete, path, body, out)
	return err
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) (int, bool, error) {
	if c == nil || c.http == nil {
		return 0, false, &APIError{Op: "do request", Err: errors.New("api client is not initialized")}
	}
	if strings.TrimSpace(method) == "" {
		method = http.MethodGet
	}
	path = ensureLeadingSlash(path)
	op := method + " " + path

	req := c.http.R().SetContext(ctx)
	if body != nil {
		req.SetBody(body)
	}

	resp, err := req.Execute(method, path)
	if err != nil {
		apiErr := &APIError{Op: op, Timeout: isTimeout(err), Err: err}
		c.logger.Debug("api transport error", zap.String("op", op), zap.Error(err))
		return 0, false, apiErr
	}

	status := resp.StatusCode()
	raw := resp.Body()

	var env envelope
	decodeErr := json.Unmarshal(raw, &env)

	if status < 200 || status >= 300 {
		message := fallbackMessage
		if decodeErr == nil {
			message = env.message()
		}
		c.notifier.NotifyError(message)
		return status, false, &APIError{Op: op, StatusCode: status, Message: message}
	}

	if len(raw) == 0 {
		return status, false, nil
	}
	if decodeErr != nil {
		return status, false, &APIError{Op: op, StatusCode: status, Err: fmt.Errorf("decode response: %w", decodeErr)}
	}

	if isNull(env.Data) {
		return status, false, nil
	}
	if out == nil {
		return status, true, nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return status, true, &APIError{Op: op, StatusCode: status, Err: fmt.Errorf("decode response data: %w", err)}
	}
	return status, true, nil
}

func (e envelope) message() string {
	switch {
	case strings.TrimSpace(e.Message) != "":
		return e.Message
	case strings.TrimSpace(e.Title) != "":
		return e.Title
	case strings.TrimSpace(e.Error) != "":
		return e.Error
	}
	for _, item := range e.Errors {
		if strings.TrimSpace(item.Message) != "" {
			return item.Message
		}
	}
	return fallbackMessage
}

func isNull(raw json.RawMessage) bool {
	trimmed := strings.TrimSpace(string(raw))
	return trimmed == "" || trimmed == "null"
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func ensureLeadingSlash(path string) string {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "/"
	}
	if strings.HasPrefix(trimmed, "/") {
		return trimmed
	}
	return "/" + trimmed
}

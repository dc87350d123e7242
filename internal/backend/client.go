// Package backend talks to the diagnosis and pharmacy service over JSON/HTTP.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/pshiva123/Intelligent-Diagnosis-System/pkg/config"
	pkgerrors "github.com/pshiva123/Intelligent-Diagnosis-System/pkg/errors"
	"github.com/pshiva123/Intelligent-Diagnosis-System/pkg/logger"
)

const maxResponseBytes = 1 << 20

var (
	errLoggerRequired  = errors.New("backend logger is required")
	errBaseURLRequired = errors.New("backend base url is required")
)

// Client exposes the backend endpoints with boundary validation, logging and
// error mapping in one place.
type Client struct {
	baseURL  *url.URL
	http     *http.Client
	logger   *logger.Logger
	validate *validator.Validate
}

// NewClient builds a client for the configured base URL.
func NewClient(ctx context.Context, cfg config.BackendConfig, logg *logger.Logger) (*Client, error) {
	if logg == nil {
		return nil, errLoggerRequired
	}
	raw := strings.TrimSpace(cfg.BaseURL)
	if raw == "" {
		return nil, errBaseURLRequired
	}
	base, err := url.Parse(strings.TrimRight(raw, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse backend base url: %w", err)
	}

	c := &Client{
		baseURL:  base,
		http:     &http.Client{Timeout: cfg.Timeout},
		logger:   logg,
		validate: newValidator(),
	}
	logg.Info(logg.WithField(ctx, "base_url", base.String()), "backend client initialized")
	return c, nil
}

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		tag := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if tag == "" {
			return f.Name
		}
		return tag
	})
	return v
}

// statusError is a non-2xx answer from the backend.
type statusError struct {
	Status int
	Detail string
}

func (e *statusError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("backend returned status %d", e.Status)
	}
	return fmt.Sprintf("backend returned status %d: %s", e.Status, e.Detail)
}

// malformedError is a 2xx answer whose body did not match the schema.
type malformedError struct {
	cause error
}

func (e *malformedError) Error() string {
	return fmt.Sprintf("malformed backend response: %v", e.cause)
}

func (e *malformedError) Unwrap() error {
	return e.cause
}

func (c *Client) do(ctx context.Context, op, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s request: %w", op, err)
		}
		reader = bytes.NewReader(payload)
	}

	endpoint := c.baseURL.JoinPath(path)
	req, err := http.NewRequestWithContext(ctx, method, endpoint.String(), reader)
	if err != nil {
		return fmt.Errorf("build %s request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.log(ctx, "error", op, map[string]any{"error": err.Error()})
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		c.log(ctx, "error", op, map[string]any{"error": err.Error(), "status": resp.StatusCode})
		return fmt.Errorf("read %s response: %w", op, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		statusErr := &statusError{Status: resp.StatusCode, Detail: detailFrom(raw)}
		c.log(ctx, "error", op, map[string]any{"error": statusErr.Error(), "status": resp.StatusCode})
		return statusErr
	}

	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			c.log(ctx, "error", op, map[string]any{"error": err.Error(), "status": resp.StatusCode})
			return &malformedError{cause: err}
		}
		if err := c.validate.Struct(out); err != nil {
			c.log(ctx, "error", op, map[string]any{"error": err.Error(), "status": resp.StatusCode})
			return &malformedError{cause: err}
		}
	}
	return nil
}

func (c *Client) log(ctx context.Context, phase, op string, fields map[string]any) {
	if c == nil || c.logger == nil {
		return
	}
	logFields := map[string]any{
		"operation": op,
		"phase":     phase,
	}
	for k, v := range fields {
		logFields[k] = c.redact(k, v)
	}
	ctx = c.logger.WithFields(ctx, logFields)
	switch phase {
	case "error":
		c.logger.Error(ctx, fmt.Sprintf("backend %s", op), errors.New(fmt.Sprint(fields["error"])))
	default:
		c.logger.Info(ctx, fmt.Sprintf("backend %s", phase))
	}
}

func (c *Client) redact(key string, value any) any {
	lower := strings.ToLower(key)
	for _, sensitive := range []string{"signature", "secret", "token", "email", "contact", "phone", "text"} {
		if strings.Contains(lower, sensitive) {
			return "[REDACTED]"
		}
	}
	return value
}

// mapError wraps a failed call in the operation's error class, keeping the
// upstream status for support.
func (c *Client) mapError(err error, code pkgerrors.Code, op string) error {
	if err == nil {
		return nil
	}
	details := map[string]any{"operation": op}
	var statusErr *statusError
	var malformed *malformedError
	switch {
	case errors.As(err, &statusErr):
		details["upstream_status"] = statusErr.Status
		details["upstream_code"] = domainCodeForStatus(statusErr.Status)
		if statusErr.Detail != "" {
			details["upstream_detail"] = statusErr.Detail
		}
	case errors.As(err, &malformed):
		details["malformed"] = true
	}
	return pkgerrors.Wrap(code, err, fmt.Sprintf("backend %s failed", op)).WithDetails(details)
}

func domainCodeForStatus(status int) pkgerrors.Code {
	switch status {
	case http.StatusUnauthorized:
		return pkgerrors.CodeUnauthorized
	case http.StatusNotFound:
		return pkgerrors.CodeNotFound
	case http.StatusConflict:
		return pkgerrors.CodeConflict
	case http.StatusTooManyRequests:
		return pkgerrors.CodeRateLimit
	case http.StatusBadRequest:
		return pkgerrors.CodeValidation
	case http.StatusUnprocessableEntity:
		return pkgerrors.CodeValidation
	default:
		if status >= 400 && status < 500 {
			return pkgerrors.CodeValidation
		}
		return pkgerrors.CodeDependency
	}
}

func detailFrom(raw []byte) string {
	var payload errorResponse
	if err := json.Unmarshal(raw, &payload); err != nil || payload.Detail == nil {
		return strings.TrimSpace(truncate(string(raw), 200))
	}
	if s, ok := payload.Detail.(string); ok {
		return s
	}
	encoded, err := json.Marshal(payload.Detail)
	if err != nil {
		return ""
	}
	return truncate(string(encoded), 200)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

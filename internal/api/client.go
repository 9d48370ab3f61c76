package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/aihelper/aihelper-cli/internal/buildinfo"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	// ErrNotConfigured means BACKEND_URL is unset; no request is attempted.
	ErrNotConfigured = errors.New("backend url is not configured")
	// ErrMalformedResponse means a 2xx JSON body lacks a usable field.
	ErrMalformedResponse = errors.New("malformed response")
	// ErrUndecodableBody means a 2xx body is not JSON at all. It is a
	// transport failure, not a backend answer.
	ErrUndecodableBody = errors.New("undecodable response body")
)

// StatusError is a non-2xx answer from the backend.
type StatusError struct {
	StatusCode int
	Detail     string
}

func (e *StatusError) Error() string {
	if strings.TrimSpace(e.Detail) == "" {
		return fmt.Sprintf("backend returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("%s (status=%d)", e.Detail, e.StatusCode)
}

type Client struct {
	BaseURL string
	HTTP    *http.Client
	Logger  *zap.Logger
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Message string `json:"message"`
}

type ProcessRequest struct {
	StudyContent string `json:"study_content"`
	Prompt       string `json:"prompt"`
	APIChoice    string `json:"api_choice"`
}

type ProcessResponse struct {
	Output string `json:"output"`
}

// Configured reports whether a backend address is set.
func (c Client) Configured() bool {
	return strings.TrimSpace(c.BaseURL) != ""
}

// Address is the configured backend address as given.
func (c Client) Address() string {
	return strings.TrimSpace(c.BaseURL)
}

func (c Client) endpointFor(path string) (string, error) {
	if !c.Configured() {
		return "", ErrNotConfigured
	}
	u, err := url.Parse(strings.TrimRight(strings.TrimSpace(c.BaseURL), "/"))
	if err != nil {
		return "", fmt.Errorf("invalid backend url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("invalid backend url (expected http/https): %s", c.BaseURL)
	}
	p := strings.TrimPrefix(strings.TrimSpace(path), "/")
	u.Path = strings.TrimRight(u.Path, "/") + "/" + p
	return u.String(), nil
}

// Login posts the credential pair to /login.
func (c Client) Login(ctx context.Context, username, password string) (LoginResponse, error) {
	var out LoginResponse
	b, err := c.postJSON(ctx, "/login", LoginRequest{Username: username, Password: password})
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(b, &out); err != nil {
		return out, fmt.Errorf("%w: %v", ErrUndecodableBody, err)
	}
	return out, nil
}

// ProcessHomework posts study content and prompt to /process_homework.
// A 2xx JSON body without an "output" field is reported as
// ErrMalformedResponse; a body that is not JSON as ErrUndecodableBody.
func (c Client) ProcessHomework(ctx context.Context, req ProcessRequest) (ProcessResponse, error) {
	var out ProcessResponse
	b, err := c.postJSON(ctx, "/process_homework", req)
	if err != nil {
		return out, err
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return out, fmt.Errorf("%w: %v", ErrUndecodableBody, err)
	}
	field, ok := raw["output"]
	if !ok {
		return out, fmt.Errorf("%w: missing output", ErrMalformedResponse)
	}
	if err := json.Unmarshal(field, &out.Output); err != nil {
		return out, fmt.Errorf("%w: output is not a string", ErrMalformedResponse)
	}
	return out, nil
}

// postJSON returns the body of a 2xx response. Non-2xx responses become
// *StatusError; anything that prevents a response is returned as is.
func (c Client) postJSON(ctx context.Context, path string, body any) ([]byte, error) {
	endpoint, err := c.endpointFor(path)
	if err != nil {
		return nil, err
	}
	if c.HTTP == nil {
		c.HTTP = &http.Client{Timeout: 2 * time.Minute}
	}
	log := c.Logger
	if log == nil {
		log = zap.NewNop()
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &buf)
	if err != nil {
		return nil, err
	}
	requestID := uuid.NewString()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", buildinfo.UserAgent())
	req.Header.Set("X-Request-ID", requestID)

	started := time.Now()
	resp, err := c.HTTP.Do(req)
	if err != nil {
		log.Warn("backend request failed",
			zap.String("module", "api"),
			zap.String("path", path),
			zap.String("request_id", requestID),
			zap.Error(err))
		return nil, err
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	log.Debug("backend request",
		zap.String("module", "api"),
		zap.String("path", path),
		zap.String("request_id", requestID),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(started)))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{StatusCode: resp.StatusCode, Detail: parseDetail(b)}
	}
	return b, nil
}

// parseDetail extracts the "detail" field of an error body. FastAPI validation
// errors carry a list of objects; their "msg" fields are joined.
func parseDetail(b []byte) string {
	var body struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(b, &body); err != nil || len(body.Detail) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(body.Detail, &s); err == nil {
		return strings.TrimSpace(s)
	}
	var items []map[string]any
	if err := json.Unmarshal(body.Detail, &items); err == nil {
		msgs := make([]string, 0, len(items))
		for _, it := range items {
			if m, _ := it["msg"].(string); strings.TrimSpace(m) != "" {
				msgs = append(msgs, strings.TrimSpace(m))
			}
		}
		return strings.Join(msgs, "; ")
	}
	return ""
}

// Detail returns the backend-provided detail of err, if it is a *StatusError.
func Detail(err error) (string, bool) {
	var se *StatusError
	if !errors.As(err, &se) {
		return "", false
	}
	return se.Detail, true
}

// Package remote talks to the Edutranscribe service: transcription,
// summarization, translation, speech synthesis and document Q&A. Every
// endpoint has an explicit response schema; a missing required field is a
// MALFORMED_RESPONSE error rather than an empty value.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/Phoenix-070/Edutranscribe/internal/utils"
)

const (
	defaultBaseURL     = "http://127.0.0.1:8000"
	defaultHTTPTimeout = 5 * time.Minute
	maxErrorBody       = 4 << 10
	maxAudioBytes      = 50 << 20
)

type Config struct {
	BaseURL string
	Token   string
	Timeout time.Duration
}

type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

type Option func(*Client)

// WithHTTPClient overrides the default instrumented client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

func NewClient(cfg Config, opts ...Option) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultHTTPTimeout
	}
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		base = defaultBaseURL
	}
	c := &Client{
		baseURL: base,
		token:   strings.TrimSpace(cfg.Token),
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) BaseURL() string { return c.baseURL }

func (c *Client) postJSON(ctx context.Context, op, path string, body, dst any) error {
	raw, err := json.Marshal(body)
	if err != nil {
		return utils.E(utils.CodeInternal, op, "failed to encode request", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(raw))
	if err != nil {
		return utils.E(utils.CodeInternal, op, "failed to build request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.doJSON(op, req, dst)
}

func (c *Client) getJSON(ctx context.Context, op, path string, query url.Values, dst any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return utils.E(utils.CodeInternal, op, "failed to build request", err)
	}
	return c.doJSON(op, req, dst)
}

func (c *Client) doJSON(op string, req *http.Request, dst any) error {
	req.Header.Set("Accept", "application/json")
	resp, err := c.do(op, req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return utils.E(utils.CodeMalformedResponse, op, "response is not valid JSON", err)
	}
	return nil
}

// do sends the request and turns transport failures and non-2xx statuses into
// NETWORK errors. The caller owns the body of a successful response.
func (c *Client) do(op string, req *http.Request) (*http.Response, error) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, utils.E(utils.CodeNetwork, op, "request failed", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, utils.E(utils.CodeNetwork, op, errorMessage(resp.StatusCode, body), &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))})
	}
	return resp, nil
}

// StatusError records a non-2xx answer from the service.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("http %d: %s", e.StatusCode, e.Body)
}

// errorMessage prefers the service's own message ({"message"} from this API,
// {"detail"} from older deployments) over the raw status text.
func errorMessage(status int, body []byte) string {
	var payload struct {
		Message string `json:"message"`
		Detail  any    `json:"detail"`
	}
	if json.Unmarshal(body, &payload) == nil {
		if payload.Message != "" {
			return payload.Message
		}
		if s, ok := payload.Detail.(string); ok && s != "" {
			return s
		}
	}
	return fmt.Sprintf("service returned %d %s", status, http.StatusText(status))
}

func missing(op, field string) error {
	return utils.E(utils.CodeMalformedResponse, op, "response is missing "+field, nil)
}

func multipartBody(field, filename string, r io.Reader) (*bytes.Buffer, string, error) {
	buf := &bytes.Buffer{}
	mw := multipart.NewWriter(buf)
	fw, err := mw.CreateFormFile(field, filename)
	if err != nil {
		return nil, "", err
	}
	if _, err := io.Copy(fw, r); err != nil {
		return nil, "", err
	}
	if err := mw.Close(); err != nil {
		return nil, "", err
	}
	return buf, mw.FormDataContentType(), nil
}

package judge

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"code_practice/internal/common"
	"code_practice/internal/platform/logger"

	"go.uber.org/zap"
)

var (
	ErrExecutionTimeout = fmt.Errorf("execution result not ready in time: %w", common.ErrUpstream)
	ErrQuotaExhausted   = fmt.Errorf("execution engine daily quota exhausted: %w", common.ErrServiceUnavailable)
)

// HTTPError is a non-2xx, non-429 answer from Judge0.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("judge0 returned HTTP %d: %s", e.StatusCode, e.Body)
}

func (e *HTTPError) Unwrap() error { return common.ErrUpstream }

// Request is one program to run.
type Request struct {
	SourceCode string
	LanguageID int
	Stdin      string
}

// Result is the decoded outcome of a Judge0 submission. Degraded is set when the
// result was produced without the execution engine.
type Result struct {
	Token         string  `json:"token,omitempty"`
	Status        Status  `json:"status"`
	Stdout        string  `json:"stdout"`
	Stderr        string  `json:"stderr,omitempty"`
	CompileOutput string  `json:"compile_output,omitempty"`
	Message       string  `json:"message,omitempty"`
	Time          float64 `json:"time,omitempty"`   // seconds
	Memory        int     `json:"memory,omitempty"` // KB
	Degraded      bool    `json:"degraded,omitempty"`
}

// ErrorOutput returns the most relevant diagnostic text for a failed run.
func (r *Result) ErrorOutput() string {
	switch {
	case r.CompileOutput != "":
		return r.CompileOutput
	case r.Stderr != "":
		return r.Stderr
	case r.Message != "":
		return r.Message
	}
	return r.Status.String()
}

type ClientConfig struct {
	BaseURL      string
	APIKey       string // RapidAPI key
	APIHost      string // RapidAPI host
	AuthToken    string // self-hosted X-Auth-Token
	HTTPTimeout  time.Duration
	PollAttempts int
	PollInterval time.Duration
}

// Client talks to the Judge0 REST API.
type Client struct {
	cfg  ClientConfig
	http *http.Client
}

func NewClient(cfg ClientConfig, httpClient *http.Client) *Client {
	if httpClient == nil {
		timeout := cfg.HTTPTimeout
		if timeout <= 0 {
			timeout = 15 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	if cfg.PollAttempts <= 0 {
		cfg.PollAttempts = 10
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = time.Second
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &Client{cfg: cfg, http: httpClient}
}

type submitPayload struct {
	SourceCode string `json:"source_code"`
	LanguageID int    `json:"language_id"`
	Stdin      string `json:"stdin,omitempty"`
}

type submitResponse struct {
	Token string `json:"token"`
}

type resultResponse struct {
	Token         string  `json:"token"`
	Stdout        *string `json:"stdout"`
	Stderr        *string `json:"stderr"`
	CompileOutput *string `json:"compile_output"`
	Message       *string `json:"message"`
	Time          *string `json:"time"`
	Memory        *int    `json:"memory"`
	Status        Status  `json:"status"`
}

const resultFields = "token,stdout,stderr,compile_output,message,time,memory,status"

// Submit creates a submission and returns its token without waiting for the run.
func (c *Client) Submit(ctx context.Context, req Request) (string, error) {
	payload := submitPayload{
		SourceCode: base64.StdEncoding.EncodeToString([]byte(req.SourceCode)),
		LanguageID: req.LanguageID,
	}
	if req.Stdin != "" {
		payload.Stdin = base64.StdEncoding.EncodeToString([]byte(req.Stdin))
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal submission: %w", err)
	}

	var out submitResponse
	if err := c.do(ctx, http.MethodPost, "/submissions?base64_encoded=true&wait=false", body, &out); err != nil {
		return "", err
	}
	if out.Token == "" {
		return "", fmt.Errorf("judge0 returned no submission token: %w", common.ErrUpstream)
	}
	return out.Token, nil
}

// GetResult fetches the current state of a submission.
func (c *Client) GetResult(ctx context.Context, token string) (*Result, error) {
	path := "/submissions/" + url.PathEscape(token) + "?base64_encoded=true&fields=" + resultFields
	var raw resultResponse
	if err := c.do(ctx, http.MethodGet, path, nil, &raw); err != nil {
		return nil, err
	}

	res := &Result{Token: token, Status: StatusFromID(raw.Status.ID)}
	if raw.Status.Description != "" {
		res.Status.Description = raw.Status.Description
	}
	var err error
	if res.Stdout, err = decodeField(raw.Stdout); err != nil {
		return nil, fmt.Errorf("decode stdout: %w", err)
	}
	if res.Stderr, err = decodeField(raw.Stderr); err != nil {
		return nil, fmt.Errorf("decode stderr: %w", err)
	}
	if res.CompileOutput, err = decodeField(raw.CompileOutput); err != nil {
		return nil, fmt.Errorf("decode compile_output: %w", err)
	}
	if res.Message, err = decodeField(raw.Message); err != nil {
		return nil, fmt.Errorf("decode message: %w", err)
	}
	if raw.Time != nil {
		res.Time, _ = strconv.ParseFloat(*raw.Time, 64)
	}
	if raw.Memory != nil {
		res.Memory = *raw.Memory
	}
	return res, nil
}

// WaitForResult polls until Judge0 reports a terminal status or maxAttempts polls were made.
func (c *Client) WaitForResult(ctx context.Context, token string, maxAttempts int, interval time.Duration) (*Result, error) {
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(interval):
		}

		res, err := c.GetResult(ctx, token)
		if err != nil {
			return nil, err
		}
		if res.Status.Terminal() {
			return res, nil
		}
		logger.Debug(ctx, "judge0 submission pending",
			zap.String("token", token),
			zap.Int("attempt", attempt),
			zap.String("status", res.Status.String()))
	}
	return nil, fmt.Errorf("submission %s after %d polls: %w", token, maxAttempts, ErrExecutionTimeout)
}

// Run submits the program and waits for its result using the configured polling budget.
func (c *Client) Run(ctx context.Context, req Request) (*Result, error) {
	token, err := c.Submit(ctx, req)
	if err != nil {
		return nil, err
	}
	return c.WaitForResult(ctx, token, c.cfg.PollAttempts, c.cfg.PollInterval)
}

func (c *Client) do(ctx context.Context, method, path string, body []byte, out interface{}) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build judge0 request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set("X-RapidAPI-Key", c.cfg.APIKey)
		if c.cfg.APIHost != "" {
			req.Header.Set("X-RapidAPI-Host", c.cfg.APIHost)
		}
	}
	if c.cfg.AuthToken != "" {
		req.Header.Set("X-Auth-Token", c.cfg.AuthToken)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("judge0 %s %s: %w", method, path, ctx.Err())
		}
		return fmt.Errorf("judge0 %s %s: %w: %w", method, path, common.ErrUpstream, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read judge0 response: %w", err)
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return rateLimitFromResponse(resp, data)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &HTTPError{StatusCode: resp.StatusCode, Body: excerpt(data)}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode judge0 response: %w", err)
	}
	return nil
}

func rateLimitFromResponse(resp *http.Response, body []byte) *common.RateLimitError {
	msg := excerpt(body)
	var parsed struct {
		Message string `json:"message"`
	}
	if json.Unmarshal(body, &parsed) == nil && parsed.Message != "" {
		msg = parsed.Message
	}
	lower := strings.ToLower(msg)
	rlErr := &common.RateLimitError{
		Message: "judge0 rate limit: " + msg,
		Daily:   strings.Contains(lower, "daily") && strings.Contains(lower, "quota"),
	}
	rlErr.RetryAfter = parseRetryAfter(resp.Header.Get("Retry-After"))
	return rlErr
}

func parseRetryAfter(v string) time.Duration {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	if at, err := http.ParseTime(v); err == nil {
		if d := time.Until(at); d > 0 {
			return d
		}
	}
	return 0
}

// decodeField decodes a base64 Judge0 field; Judge0 wraps long payloads with newlines.
func decodeField(v *string) (string, error) {
	if v == nil || *v == "" {
		return "", nil
	}
	clean := strings.Map(func(r rune) rune {
		if r == '\n' || r == '\r' {
			return -1
		}
		return r
	}, *v)
	b, err := base64.StdEncoding.DecodeString(clean)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func excerpt(b []byte) string {
	s := strings.TrimSpace(string(b))
	if len(s) > 300 {
		s = s[:300] + "..."
	}
	return s
}

// IsDailyQuota reports whether err is Judge0's daily quota rejection.
func IsDailyQuota(err error) bool {
	var rlErr *common.RateLimitError
	return errors.As(err, &rlErr) && rlErr.Daily
}

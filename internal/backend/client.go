// Package backend is the HTTP client for the WOFA tutoring service.
//
// It covers the chat endpoint plus authentication and the course
// catalog, and translates transport and HTTP outcomes into a small
// error taxonomy (see errors.go). The client performs no retries;
// retry policy belongs to the caller.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/wofa-ai/wofa/internal/compose"
	"github.com/wofa-ai/wofa/internal/config"
	"github.com/wofa-ai/wofa/internal/log"
)

// maxErrorBodyBytes bounds how much of an error response we read when
// looking for a server-supplied message.
const maxErrorBodyBytes = 64 * 1024

// Client provides access to the WOFA backend REST API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     log.Logger
}

// NewClient creates a client from configuration. The rate limiter is a
// client-side politeness bound across all calls, not a correctness
// mechanism - single-flight is enforced by the Dispatcher.
func NewClient(cfg *config.Config, logger log.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.APIBaseURL, "/"),
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.RequestTimeoutSec) * time.Second,
		},
		limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.RequestsPerMinute)), 3),
		logger:  logger,
	}
}

// Chat sends a composed question and awaits the answer.
//
// Returns ErrUnauthorized on 401, a *RejectedError on any other
// non-success status, and ErrUnreachable when no response was received.
func (c *Client) Chat(ctx context.Context, q compose.Question, token string) (AnswerResult, error) {
	body := chatRequest{
		Question: nullable(q.Text),
		Image:    nullable(q.Image),
		Course:   nullable(q.Course),
		Lesson:   nullable(q.Lesson),
	}

	var result AnswerResult
	if err := c.doJSON(ctx, http.MethodPost, "/chat", body, token, &result); err != nil {
		return AnswerResult{}, err
	}
	return result, nil
}

// Login exchanges credentials for a bearer token.
func (c *Client) Login(ctx context.Context, email, password string) (LoginResult, error) {
	var result LoginResult
	err := c.doJSON(ctx, http.MethodPost, "/auth/login", loginRequest{Email: email, Password: password}, "", &result)
	if err != nil {
		return LoginResult{}, err
	}
	if result.Token == "" {
		return LoginResult{}, fmt.Errorf("%w: login response carried no token", ErrRejected)
	}
	return result, nil
}

// Courses lists the course catalog.
func (c *Client) Courses(ctx context.Context) ([]Course, error) {
	var courses []Course
	if err := c.doJSON(ctx, http.MethodGet, "/courses", nil, "", &courses); err != nil {
		return nil, err
	}
	return courses, nil
}

// Lessons lists the lessons of a course.
func (c *Client) Lessons(ctx context.Context, courseID string) ([]Lesson, error) {
	var lessons []Lesson
	path := "/lessons/" + url.PathEscape(courseID)
	if err := c.doJSON(ctx, http.MethodGet, path, nil, "", &lessons); err != nil {
		return nil, err
	}
	return lessons, nil
}

// doJSON issues one request and decodes the JSON response into out.
func (c *Client) doJSON(ctx context.Context, method, path string, body any, token string, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrUnreachable, err)
	}

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// No response at all - transport failure
		c.logger.Debug("backend transport failure", "method", method, "path", path, "error", err)
		return fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		// Drain so the connection can be reused, then surface the sentinel.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBodyBytes))
		return ErrUnauthorized
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.rejection(resp)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

// rejection builds a RejectedError from a non-success response,
// preferring the server-supplied message when the body carries one.
func (c *Client) rejection(resp *http.Response) error {
	rejected := &RejectedError{Status: resp.StatusCode}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
	if err == nil && len(data) > 0 {
		var eb errorBody
		if jsonErr := json.Unmarshal(data, &eb); jsonErr == nil {
			rejected.Message = strings.TrimSpace(eb.Message)
		}
	}

	c.logger.Debug("backend rejected request",
		"status", resp.StatusCode, "message", rejected.Message)
	return rejected
}

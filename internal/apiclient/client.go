package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"easylesson/internal/logger"
	"easylesson/internal/models"
)

// ErrUnreachable is returned when neither the server nor any proxy answered.
var ErrUnreachable = errors.New("server unreachable")

// DefaultProxies are public CORS proxies. A prefix containing "url=" gets the
// escaped target appended; any other prefix gets the raw target.
var DefaultProxies = []string{
	"https://corsproxy.io/?",
	"https://api.allorigins.win/raw?url=",
}

// APIError is a non-2xx response.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
}

// IsNotFound reports whether err is a 404 from the server.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}

// Client calls the EasyLesson REST API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	proxies    []string
	mock       bool
	timeout    time.Duration
	now        func() time.Time
	log        *logger.Logger
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithProxies sets the proxy prefixes tried, in order, after a network failure.
func WithProxies(prefixes ...string) Option {
	return func(c *Client) { c.proxies = prefixes }
}

// WithMockFallback makes generation return a placeholder record when the
// server cannot be reached.
func WithMockFallback(enabled bool) Option {
	return func(c *Client) { c.mock = enabled }
}

// WithTimeout bounds each request attempt.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

func WithLogger(log *logger.Logger) Option {
	return func(c *Client) { c.log = log }
}

// New creates a client for baseURL, e.g. http://localhost:10000/api.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
		timeout:    2 * time.Minute,
		now:        time.Now,
		log:        logger.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Status mirrors GET /status.
type Status struct {
	Status        string `json:"status"`
	Version       string `json:"version"`
	LLMConfigured bool   `json:"llm_configured"`
	Store         string `json:"store"`
	Archive       bool   `json:"archive"`
	Narration     bool   `json:"narration"`
}

// LessonList is a page of records.
type LessonList struct {
	Lessons []models.Record `json:"lessons"`
	Total   int64           `json:"total"`
}

// LessonContinuation is the continuation and the merged lesson.
type LessonContinuation struct {
	Continuation models.ContinuationResponse `json:"continuation"`
	Lesson       models.Record               `json:"lesson"`
}

// ListOptions filters ListLessons. Zero values use server defaults.
type ListOptions struct {
	Kind   models.Kind
	Limit  int
	Offset int
}

func (c *Client) Status(ctx context.Context) (*Status, error) {
	var out Status
	if err := c.do(ctx, http.MethodGet, "/status", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GenerateStory(ctx context.Context, req models.GenerationRequest) (*models.Record, error) {
	return c.generate(ctx, models.KindStory, "/stories/generate", req)
}

func (c *Client) GenerateLesson(ctx context.Context, req models.GenerationRequest) (*models.Record, error) {
	return c.generate(ctx, models.KindLesson, "/lessons", req)
}

func (c *Client) generate(ctx context.Context, kind models.Kind, path string, req models.GenerationRequest) (*models.Record, error) {
	var out models.Record
	err := c.do(ctx, http.MethodPost, path, req, &out)
	if err != nil {
		if c.mock && errors.Is(err, ErrUnreachable) {
			c.log.Warn("server unreachable, returning mock record", "kind", kind, "error", err)
			return MockRecord(kind, req, c.now()), nil
		}
		return nil, err
	}
	return &out, nil
}

func (c *Client) ContinueStory(ctx context.Context, id string, req models.ContinuationRequest) (*models.ContinuationResponse, error) {
	var out models.ContinuationResponse
	if err := c.do(ctx, http.MethodPost, "/stories/"+url.PathEscape(id)+"/continue", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ContinueLesson(ctx context.Context, id string, req models.ContinuationRequest) (*LessonContinuation, error) {
	var out LessonContinuation
	if err := c.do(ctx, http.MethodPost, "/lessons/"+url.PathEscape(id)+"/continue", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListLessons(ctx context.Context, opts ListOptions) (*LessonList, error) {
	q := url.Values{}
	if opts.Kind != "" {
		q.Set("kind", string(opts.Kind))
	}
	if opts.Limit > 0 {
		q.Set("limit", strconv.Itoa(opts.Limit))
	}
	if opts.Offset > 0 {
		q.Set("offset", strconv.Itoa(opts.Offset))
	}
	path := "/lessons"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var out LessonList
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetLesson(ctx context.Context, id string) (*models.Record, error) {
	var out models.Record
	if err := c.do(ctx, http.MethodGet, "/lessons/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteLesson(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/lessons/"+url.PathEscape(id), nil, nil)
}

// GradeQuiz submits answers (question index -> option index).
func (c *Client) GradeQuiz(ctx context.Context, id string, answers map[int]int) (*models.QuizResult, error) {
	body := struct {
		Answers map[string]int `json:"answers"`
	}{Answers: make(map[string]int, len(answers))}
	for k, v := range answers {
		body.Answers[strconv.Itoa(k)] = v
	}

	var out models.QuizResult
	if err := c.do(ctx, http.MethodPost, "/lessons/"+url.PathEscape(id)+"/quiz/grade", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Narrate returns a URL to MP3 narration of a record.
func (c *Client) Narrate(ctx context.Context, id string, force bool) (string, error) {
	path := "/lessons/" + url.PathEscape(id) + "/narration"
	if force {
		path += "?force=true"
	}
	var out struct {
		AudioURL string `json:"audio_url"`
	}
	if err := c.do(ctx, http.MethodPost, path, nil, &out); err != nil {
		return "", err
	}
	return out.AudioURL, nil
}

// ContinueLocally merges a continuation into a record without a server round trip.
func ContinueLocally(original models.Record, cont models.ContinuationResponse) models.Record {
	return models.Merge(original, cont)
}

// do sends one request directly, then once through each proxy when the
// direct attempt fails at the network level. HTTP errors are not retried.
func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var payload []byte
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		payload = b
	}

	target := c.baseURL + path
	candidates := append([]string{target}, proxyURLs(c.proxies, target)...)

	var lastErr error
	for i, u := range candidates {
		err := c.attempt(ctx, method, u, payload, out)
		if err == nil {
			return nil
		}
		var apiErr *APIError
		if errors.As(err, &apiErr) || ctx.Err() != nil {
			return err
		}
		lastErr = err
		if i+1 < len(candidates) {
			c.log.Warn("request failed, trying proxy", "url", u, "error", err)
		}
	}
	return fmt.Errorf("%w: %v", ErrUnreachable, lastErr)
}

func proxyURLs(prefixes []string, target string) []string {
	out := make([]string, 0, len(prefixes))
	for _, p := range prefixes {
		if strings.Contains(p, "url=") {
			out = append(out, p+url.QueryEscape(target))
		} else {
			out = append(out, p+target)
		}
	}
	return out
}

func (c *Client) attempt(ctx context.Context, method, u string, payload []byte, out any) error {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	contentType := resp.Header.Get("Content-Type")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{Status: resp.StatusCode, Message: errorMessage(data, contentType)}
	}
	if out == nil || resp.StatusCode == http.StatusNoContent || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if looksLikeHTML(data, contentType) {
		return &APIError{Status: resp.StatusCode, Message: "unexpected HTML response: " + htmlText(data)}
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &APIError{Status: resp.StatusCode, Message: "invalid JSON response: " + err.Error()}
	}
	return nil
}

// Package api is the REST client for the merge request backend.
//
// Every call returns an explicit error. Success requires a 2xx status, a
// {"data": {"data": ...}} envelope, and req_result == true when the backend
// sends one. Transport failures, non-2xx
// statuses, malformed bodies and backend rejections map onto the sentinel
// errors in the mr package.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/colonyops/mrview/internal/core/logging"
	"github.com/colonyops/mrview/internal/core/mr"
)

// HTTPClient interface for HTTP operations (allows mocking in tests).
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// maxBodyBytes bounds how much of a response is read. Diffs are the largest payload.
const maxBodyBytes = 32 << 20

// Client talks to the backend.
type Client struct {
	baseURL    string
	token      string
	timeout    time.Duration
	httpClient HTTPClient
	logger     zerolog.Logger
	newID      func() string
}

// Option configures a Client.
type Option func(*Client)

// WithToken sets the bearer token sent on every request.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// WithTimeout bounds every request. Zero disables the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// WithHTTPClient replaces the transport.
func WithHTTPClient(h HTTPClient) Option {
	return func(c *Client) { c.httpClient = h }
}

// WithLogger replaces the component logger.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// New creates a client for baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: http.DefaultClient,
		logger:     logging.Component("api"),
		newID:      uuid.NewString,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the backend root.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// CheckAuth probes the auth endpoint. A nil error means authenticated.
// Any other outcome, including transport failures, is treated as
// unauthenticated by callers.
func (c *Client) CheckAuth(ctx context.Context) error {
	_, _, err := c.do(ctx, "check auth", http.MethodGet, "/api/auth", nil)
	return err
}

// List returns merge requests filtered by status ("all" for every status).
func (c *Client) List(ctx context.Context, status string) ([]mr.Summary, error) {
	const op = "list merge requests"

	path := "/api/mr/list"
	if status != "" {
		path += "?status=" + url.QueryEscape(status)
	}

	var items []summaryDTO
	if err := c.getResult(ctx, op, path, &items); err != nil {
		return nil, err
	}

	out := make([]mr.Summary, 0, len(items))
	for _, it := range items {
		out = append(out, it.toDomain())
	}
	return out, nil
}

// Detail fetches the full merge request including its conversation.
func (c *Client) Detail(ctx context.Context, id string) (mr.MergeRequest, error) {
	const op = "fetch detail"
	ctx = logging.WithMRID(ctx, id)

	var dto detailDTO
	if err := c.getResult(ctx, op, mrPath(id, "detail"), &dto); err != nil {
		return mr.MergeRequest{}, err
	}
	return dto.toDomain(id), nil
}

// Files fetches the list of files touched by the merge request.
func (c *Client) Files(ctx context.Context, id string) ([]mr.FileChange, error) {
	const op = "fetch files"
	ctx = logging.WithMRID(ctx, id)

	var dtos []fileDTO
	if err := c.getResult(ctx, op, mrPath(id, "files"), &dtos); err != nil {
		return nil, err
	}

	out := make([]mr.FileChange, 0, len(dtos))
	for _, d := range dtos {
		out = append(out, mr.FileChange{Path: d.Path, Action: d.Action})
	}
	return out, nil
}

// Diff fetches the raw unified diff. Plain text bodies are returned as is;
// JSON bodies must carry the diff as an enveloped string.
func (c *Client) Diff(ctx context.Context, id string) (string, error) {
	const op = "fetch diff"
	ctx = logging.WithMRID(ctx, id)

	body, contentType, err := c.do(ctx, op, http.MethodGet, mrPath(id, "files-changed"), nil)
	if err != nil {
		return "", err
	}

	if mediaType, _, _ := mime.ParseMediaType(contentType); mediaType == "text/plain" || mediaType == "text/x-diff" {
		return string(body), nil
	}

	var diff string
	if err := c.decodeOK(op, body, &diff); err != nil {
		return "", err
	}
	return diff, nil
}

// Merge merges an open merge request. The backend's merge result must
// report success in addition to the envelope.
func (c *Client) Merge(ctx context.Context, id string) error {
	const op = "merge"
	ctx = logging.WithMRID(ctx, id)

	body, _, err := c.do(ctx, op, http.MethodPost, mrPath(id, "merge"), nil)
	if err != nil {
		return err
	}

	res, err := decodeResult(body)
	if err != nil {
		return malformed(op, err)
	}
	if !res.ok() {
		return rejected(op, res.ErrMessage)
	}
	if !res.hasData() {
		return nil
	}

	var mergeRes mergeResultDTO
	if err := json.Unmarshal(res.Data, &mergeRes); err != nil {
		return malformed(op, err)
	}
	if mergeRes.Result != nil && !*mergeRes.Result {
		return rejected(op, mergeRes.ErrMessage)
	}
	return nil
}

// Close closes an open merge request.
func (c *Client) Close(ctx context.Context, id string) error {
	return c.postOK(logging.WithMRID(ctx, id), "close", mrPath(id, "close"), nil)
}

// Reopen reopens a closed merge request.
func (c *Client) Reopen(ctx context.Context, id string) error {
	return c.postOK(logging.WithMRID(ctx, id), "reopen", mrPath(id, "reopen"), nil)
}

// Comment posts a new comment.
func (c *Client) Comment(ctx context.Context, id, body string) error {
	if strings.TrimSpace(body) == "" {
		return mr.ErrEmptyComment
	}
	return c.postOK(logging.WithMRID(ctx, id), "comment", mrPath(id, "comment"), contentRequest{Content: body})
}

// EditComment replaces the body of an existing comment.
func (c *Client) EditComment(ctx context.Context, id string, convID int64, body string) error {
	if strings.TrimSpace(body) == "" {
		return mr.ErrEmptyComment
	}
	path := mrPath(id, "comment", convIDString(convID), "edit")
	return c.postOK(logging.WithMRID(ctx, id), "edit comment", path, contentRequest{Content: body})
}

func mrPath(id string, parts ...string) string {
	segs := append([]string{"/api/mr", url.PathEscape(id)}, parts...)
	return strings.Join(segs, "/")
}

func (c *Client) getResult(ctx context.Context, op, path string, out any) error {
	body, _, err := c.do(ctx, op, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	return c.decodeOK(op, body, out)
}

func (c *Client) postOK(ctx context.Context, op, path string, payload any) error {
	body, _, err := c.do(ctx, op, http.MethodPost, path, payload)
	if err != nil {
		return err
	}
	return c.decodeOK(op, body, nil)
}

// decodeOK parses the envelope, checks it reports success and decodes the
// payload into out when out is non-nil.
func (c *Client) decodeOK(op string, body []byte, out any) error {
	res, err := decodeResult(body)
	if err != nil {
		return malformed(op, err)
	}
	if !res.ok() {
		return rejected(op, res.ErrMessage)
	}
	if out == nil || !res.hasData() {
		return nil
	}
	if err := json.Unmarshal(res.Data, out); err != nil {
		return malformed(op, err)
	}
	return nil
}

// do performs one request and returns the body of a 2xx response.
func (c *Client) do(ctx context.Context, op, method, path string, payload any) ([]byte, string, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	requestID := c.newID()
	ctx = logging.WithRequestID(ctx, requestID)

	var reader io.Reader
	if payload != nil {
		bits, err := json.Marshal(payload)
		if err != nil {
			return nil, "", fmt.Errorf("%s: encode request: %w", op, err)
		}
		reader = bytes.NewReader(bits)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, "", fmt.Errorf("%s: create request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Debug().Ctx(ctx).Err(err).Str("op", op).Str("path", path).Msg("request failed")
		return nil, "", &TransportError{Op: op, Err: err}
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			c.logger.Debug().Ctx(ctx).Err(err).Str("op", op).Msg("close response body")
		}
	}()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes+1))
	if err != nil {
		return nil, "", &TransportError{Op: op, Err: fmt.Errorf("read body: %w", err)}
	}
	if len(body) > maxBodyBytes {
		return nil, "", malformed(op, fmt.Errorf("response body exceeds %d bytes", maxBodyBytes))
	}

	c.logger.Debug().Ctx(ctx).
		Str("op", op).
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("request")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, "", &StatusError{Op: op, Code: resp.StatusCode, Message: errorMessage(body)}
	}

	return body, resp.Header.Get("Content-Type"), nil
}

// errorMessage pulls err_message out of an error body when there is one.
func errorMessage(body []byte) string {
	if res, err := decodeResult(body); err == nil && res.ErrMessage != "" {
		return res.ErrMessage
	}

	var plain struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &plain); err == nil {
		if plain.Message != "" {
			return plain.Message
		}
		return plain.Error
	}
	return ""
}

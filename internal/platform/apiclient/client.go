package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"
)

// ErrAuthenticationRequired signals that the refresh credential is spent
// and the caller must restart authentication.
var ErrAuthenticationRequired = errors.New("authentication required")

const refreshPath = "/auth/refresh"

// StatusError is a non-2xx upstream response with its decoded error body.
type StatusError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *StatusError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("upstream %d (%s): %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("upstream %d: %s", e.StatusCode, e.Message)
}

// errorEnvelope is the upstream error body shape.
type errorEnvelope struct {
	Success bool   `json:"success"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type refreshResponse struct {
	Success      bool   `json:"success"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// Client is the authenticated HTTP substrate shared by every upstream call.
// On an expired access token it refreshes the credential pair exactly once
// and retries the original request once. Concurrent calls that observe an
// expired token share a single in-flight refresh instead of each issuing
// their own, which keeps a burst of parallel requests from invalidating the
// pair it just re-issued.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     *TokenSource
	refresh    singleflight.Group
	logger     *slog.Logger
}

func NewClient(baseURL string, tokens *TokenSource, timeout time.Duration, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		tokens:     tokens,
		logger:     logger,
	}
}

// GetJSON issues an authenticated GET and decodes the JSON response.
func (c *Client) GetJSON(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodGet, path, "", nil, nil, out)
}

// PostJSON issues an authenticated POST with a JSON body.
func (c *Client) PostJSON(ctx context.Context, path string, body any, out any) error {
	return c.PostJSONWithHeaders(ctx, path, nil, body, out)
}

// PostJSONWithHeaders issues an authenticated POST with a JSON body and
// extra request headers. The headers are re-sent unchanged on the
// post-refresh retry.
func (c *Client) PostJSONWithHeaders(ctx context.Context, path string, headers http.Header, body any, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode request body: %w", err)
	}
	return c.do(ctx, http.MethodPost, path, "application/json", headers, payload, out)
}

// PostMultipart issues an authenticated multipart POST with one file part.
func (c *Client) PostMultipart(
	ctx context.Context,
	path string,
	fields map[string]string,
	fileField string,
	fileName string,
	file []byte,
	out any,
) error {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	for key, value := range fields {
		if err := writer.WriteField(key, value); err != nil {
			return fmt.Errorf("write multipart field %s: %w", key, err)
		}
	}
	part, err := writer.CreateFormFile(fileField, fileName)
	if err != nil {
		return fmt.Errorf("create multipart file part: %w", err)
	}
	if _, err := part.Write(file); err != nil {
		return fmt.Errorf("write multipart file part: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("finalize multipart body: %w", err)
	}
	return c.do(ctx, http.MethodPost, path, writer.FormDataContentType(), nil, buf.Bytes(), out)
}

func (c *Client) do(ctx context.Context, method, path, contentType string, headers http.Header, body []byte, out any) error {
	if c.tokens != nil && c.tokens.ShouldRefresh(time.Now()) {
		// Proactive refresh; a failure here falls through to the reactive
		// path on the actual request.
		if _, err := c.refreshTokens(ctx); err != nil {
			c.logger.Warn("proactive token refresh failed",
				"event", "apiclient_proactive_refresh_failed",
				"module", "internal/platform/apiclient",
				"layer", "platform",
				"error", err.Error(),
			)
		}
	}

	resp, err := c.send(ctx, method, path, contentType, headers, body)
	if err != nil {
		return err
	}

	if resp.StatusCode == http.StatusUnauthorized {
		drain(resp)
		if c.tokens == nil {
			// No credential source to refresh with.
			return ErrAuthenticationRequired
		}
		if _, err := c.refreshTokens(ctx); err != nil {
			c.tokens.Clear()
			c.logger.Warn("token refresh failed, credentials cleared",
				"event", "apiclient_refresh_failed",
				"module", "internal/platform/apiclient",
				"layer", "platform",
				"path", path,
			)
			return ErrAuthenticationRequired
		}
		resp, err = c.send(ctx, method, path, contentType, headers, body)
		if err != nil {
			return err
		}
		if resp.StatusCode == http.StatusUnauthorized {
			drain(resp)
			c.tokens.Clear()
			return ErrAuthenticationRequired
		}
	}

	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeStatusError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s response: %w", method, path, err)
	}
	return nil
}

func (c *Client) send(ctx context.Context, method, path, contentType string, headers http.Header, body []byte) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("build %s %s request: %w", method, path, err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	for key, values := range headers {
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}
	req.Header.Set("Accept", "application/json")
	if c.tokens != nil {
		if creds := c.tokens.Get(); creds.AccessToken != "" {
			req.Header.Set("Authorization", "Bearer "+creds.AccessToken)
		}
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	return resp, nil
}

// refreshTokens exchanges the refresh credential for a new pair. All
// concurrent callers share one in-flight exchange via singleflight.
func (c *Client) refreshTokens(ctx context.Context) (Credentials, error) {
	result, err, _ := c.refresh.Do("token-refresh", func() (any, error) {
		creds := c.tokens.Get()
		if creds.RefreshToken == "" {
			return Credentials{}, ErrAuthenticationRequired
		}

		payload, err := json.Marshal(refreshRequest{RefreshToken: creds.RefreshToken})
		if err != nil {
			return Credentials{}, fmt.Errorf("encode refresh request: %w", err)
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+refreshPath, bytes.NewReader(payload))
		if err != nil {
			return Credentials{}, fmt.Errorf("build refresh request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return Credentials{}, fmt.Errorf("refresh request: %w", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return Credentials{}, decodeStatusError(resp)
		}

		var decoded refreshResponse
		if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
			return Credentials{}, fmt.Errorf("decode refresh response: %w", err)
		}
		if decoded.AccessToken == "" {
			return Credentials{}, ErrAuthenticationRequired
		}
		next := Credentials{
			AccessToken:  decoded.AccessToken,
			RefreshToken: decoded.RefreshToken,
		}
		if next.RefreshToken == "" {
			next.RefreshToken = creds.RefreshToken
		}
		c.tokens.Set(next)
		c.logger.Info("access token refreshed",
			"event", "apiclient_token_refreshed",
			"module", "internal/platform/apiclient",
			"layer", "platform",
		)
		return next, nil
	})
	if err != nil {
		return Credentials{}, err
	}
	return result.(Credentials), nil
}

func decodeStatusError(resp *http.Response) error {
	statusErr := &StatusError{StatusCode: resp.StatusCode}
	var envelope errorEnvelope
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<16)).Decode(&envelope); err == nil {
		statusErr.Code = envelope.Code
		statusErr.Message = envelope.Message
	}
	if statusErr.Message == "" {
		statusErr.Message = http.StatusText(resp.StatusCode)
	}
	return statusErr
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<16))
	_ = resp.Body.Close()
}

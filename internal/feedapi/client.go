// SPDX-License-Identifier: AGPL-3.0-only
package feedapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

type Client struct {
	httpClient http.Client
	baseURL    string
	now        func() time.Time
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		httpClient: http.Client{
			Timeout: timeout,
		},
		baseURL: strings.TrimRight(baseURL, "/"),
		now:     time.Now,
	}
}

type tokenKey struct{}

// WithToken attaches the bearer token used for every request made with ctx.
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey{}, token)
}

func tokenFrom(ctx context.Context) string {
	tok, _ := ctx.Value(tokenKey{}).(string)
	return tok
}

type APIError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s %s: unexpected status %d: %s", e.Method, e.Path, e.StatusCode, e.Body)
}

// do sends the request and returns the raw body of a 2xx response. endpoint
// is the route template used as the metrics label.
func (c *Client) do(ctx context.Context, method, endpoint, path string, payload any) ([]byte, error) {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if tok := tokenFrom(ctx); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	requestDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	if err != nil {
		requestsTotal.WithLabelValues(endpoint, "error").Inc()
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	requestsTotal.WithLabelValues(endpoint, strconv.Itoa(resp.StatusCode)).Inc()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s %s: %w", method, path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &APIError{
			Method:     method,
			Path:       path,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(data)),
		}
	}

	return data, nil
}

func decode[T any](data []byte, method, path string) (T, error) {
	var out T
	if err := json.Unmarshal(data, &out); err != nil {
		return out, fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return out, nil
}

func (c *Client) Login(ctx context.Context, email, password string) (*LoginResponse, error) {
	const path = "/auth/login"
	data, err := c.do(ctx, http.MethodPost, path, path, loginRequest{Email: email, Password: password})
	if err != nil {
		return nil, err
	}

	resp, err := decode[LoginResponse](data, http.MethodPost, path)
	if err != nil {
		return nil, err
	}
	if resp.Token == "" {
		return nil, fmt.Errorf("POST %s: response carried no token", path)
	}
	return &resp, nil
}

func (c *Client) Feed(ctx context.Context, userID int) ([]FeedPost, error) {
	path := fmt.Sprintf("/post/feed/%d", userID)
	data, err := c.do(ctx, http.MethodGet, "/post/feed/{userId}", path, nil)
	if err != nil {
		return nil, err
	}

	posts, err := decode[[]FeedPost](data, http.MethodGet, path)
	if err != nil {
		return nil, err
	}
	if posts == nil {
		posts = []FeedPost{}
	}
	return posts, nil
}

func (c *Client) UserPosts(ctx context.Context, userID int) ([]Post, error) {
	path := fmt.Sprintf("/post/user/%d", userID)
	data, err := c.do(ctx, http.MethodGet, "/post/user/{userId}", path, nil)
	if err != nil {
		return nil, err
	}

	posts, err := decode[[]Post](data, http.MethodGet, path)
	if err != nil {
		return nil, err
	}
	if posts == nil {
		posts = []Post{}
	}
	return posts, nil
}

func (c *Client) Comments(ctx context.Context, postID int) ([]Comment, error) {
	path := fmt.Sprintf("/comment/post/%d", postID)
	data, err := c.do(ctx, http.MethodGet, "/comment/post/{postId}", path, nil)
	if err != nil {
		return nil, err
	}

	comments, err := decode[[]Comment](data, http.MethodGet, path)
	if err != nil {
		return nil, err
	}
	if comments == nil {
		comments = []Comment{}
	}
	return comments, nil
}

// CreateComment posts a comment. Some API builds answer with an empty body,
// in which case the comment is rebuilt from the payload.
func (c *Client) CreateComment(ctx context.Context, nc NewComment) (*Comment, error) {
	const path = "/comment/"
	data, err := c.do(ctx, http.MethodPost, path, path, nc)
	if err != nil {
		return nil, err
	}

	if len(bytes.TrimSpace(data)) == 0 {
		return &Comment{
			PostID:    nc.PostID,
			UserID:    nc.UserID,
			Content:   nc.Content,
			CreatedAt: c.now().UTC().Format(time.RFC3339),
		}, nil
	}

	created, err := decode[Comment](data, http.MethodPost, path)
	if err != nil {
		return nil, err
	}
	return &created, nil
}

func (c *Client) DeleteComment(ctx context.Context, commentID int) error {
	path := fmt.Sprintf("/comment/%d", commentID)
	_, err := c.do(ctx, http.MethodDelete, "/comment/{id}", path, nil)
	return err
}

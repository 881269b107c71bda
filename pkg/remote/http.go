package remote

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/maktabaapp/maktaba-sync/pkg/config"
	"github.com/maktabaapp/maktaba-sync/pkg/models"
	"github.com/pkg/errors"
	"github.com/segmentio/encoding/json"
)

// HTTPError carries the status and error body of a failed backend call.
type HTTPError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *HTTPError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("http %d %s: %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("http %d: %s", e.StatusCode, e.Message)
}

// HTTPClient talks to the Maktaba backend REST API with bearer token auth.
type HTTPClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

func NewHTTPClient(cfg *config.Config) *HTTPClient {
	timeout := cfg.BackendTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &HTTPClient{
		baseURL:    strings.TrimRight(strings.TrimSpace(cfg.BackendURL), "/"),
		token:      strings.TrimSpace(cfg.BackendToken),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// checkToken rejects calls early when the configured token is already past
// its expiry. The parse is unverified; the backend still authoritatively
// rejects bad tokens.
func (c *HTTPClient) checkToken() error {
	if c.token == "" {
		return nil
	}
	claims := jwt.MapClaims{}
	_, _, err := jwt.NewParser().ParseUnverified(c.token, claims)
	if err != nil {
		// Opaque tokens are passed through as-is.
		return nil //nolint:nilerr
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return nil //nolint:nilerr
	}
	if exp.Before(time.Now()) {
		return errors.WithStack(ErrTokenExpired)
	}
	return nil
}

func (c *HTTPClient) do(ctx context.Context, method, path string, body, out interface{}) error {
	if err := c.checkToken(); err != nil {
		return err
	}

	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return errors.WithStack(err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return errors.WithStack(err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.WithStack(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		httpErr := &HTTPError{StatusCode: resp.StatusCode}
		payload := struct {
			Error struct {
				Code    string `json:"code"`
				Message string `json:"message"`
			} `json:"error"`
		}{}
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
		if err := json.Unmarshal(data, &payload); err == nil {
			httpErr.Code = payload.Error.Code
			httpErr.Message = payload.Error.Message
		}
		if httpErr.Message == "" {
			httpErr.Message = http.StatusText(resp.StatusCode)
		}
		return errors.WithStack(httpErr)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return errors.WithStack(err)
		}
	}
	return nil
}

func (c *HTTPClient) Ping(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/health", nil, nil)
}

func (c *HTTPClient) CreateAnnotation(ctx context.Context, annotation *models.Annotation) error {
	return c.do(ctx, http.MethodPost, "/annotations", annotation, nil)
}

func (c *HTTPClient) UpdateAnnotation(ctx context.Context, id string, patch *models.AnnotationPatch) error {
	return c.do(ctx, http.MethodPatch, "/annotations/"+url.PathEscape(id), patch, nil)
}

func (c *HTTPClient) DeleteAnnotation(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/annotations/"+url.PathEscape(id), nil, nil)
}

// UpsertProgress inserts or updates the progress record; the backend resolves
// the conflict on the (book_id, user_id) composite key.
func (c *HTTPClient) UpsertProgress(ctx context.Context, progress *models.ReadingProgress) error {
	return c.do(ctx, http.MethodPut, "/reading-progress", progress, nil)
}

func (c *HTTPClient) CreateFavorite(ctx context.Context, favorite *models.Favorite) error {
	return c.do(ctx, http.MethodPost, "/favorites", favorite, nil)
}

func (c *HTTPClient) DeleteFavorite(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/favorites/"+url.PathEscape(id), nil, nil)
}

func (c *HTTPClient) ListAnnotations(ctx context.Context, userID string) ([]*models.Annotation, error) {
	var out []*models.Annotation
	err := c.do(ctx, http.MethodGet, "/annotations?user_id="+url.QueryEscape(userID), nil, &out)
	return out, err
}

func (c *HTTPClient) ListProgress(ctx context.Context, userID string) ([]*models.ReadingProgress, error) {
	var out []*models.ReadingProgress
	err := c.do(ctx, http.MethodGet, "/reading-progress?user_id="+url.QueryEscape(userID), nil, &out)
	return out, err
}

func (c *HTTPClient) ListFavorites(ctx context.Context, userID string) ([]*models.Favorite, error) {
	var out []*models.Favorite
	err := c.do(ctx, http.MethodGet, "/favorites?user_id="+url.QueryEscape(userID), nil, &out)
	return out, err
}

func (c *HTTPClient) ListBooks(ctx context.Context) ([]*models.Book, error) {
	var out []*models.Book
	err := c.do(ctx, http.MethodGet, "/books", nil, &out)
	return out, err
}

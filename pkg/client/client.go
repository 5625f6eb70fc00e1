// Package client is a small Go client for the share link API.
package client

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

	"github.com/wadjakorntonsri/labelshare/pkg/core/domain"
)

type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

type Option func(*Client)

// WithToken authenticates owner routes with a bearer JWT.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// APIError is a decoded error envelope.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%d %s: %s", e.Status, e.Code, e.Message)
}

var codeErrors = map[string]error{
	"invalid_input":          domain.ErrInvalidInput,
	"unauthenticated":        domain.ErrUnauthenticated,
	"invalid_password":       domain.ErrInvalidPassword,
	"forbidden":              domain.ErrForbidden,
	"not_found":              domain.ErrNotFound,
	"link_deactivated":       domain.ErrLinkDeactivated,
	"link_expired":           domain.ErrLinkExpired,
	"download_limit_reached": domain.ErrDownloadLimitReached,
	"storage_unavailable":    domain.ErrStorageUnavailable,
}

// Is lets callers match an APIError against the domain sentinels.
func (e *APIError) Is(target error) bool {
	sentinel, ok := codeErrors[e.Code]
	return ok && sentinel == target
}

type CreateLinkRequest struct {
	FilePath     string  `json:"filePath"`
	FileName     string  `json:"fileName"`
	FileSize     int64   `json:"fileSize"`
	ExpiresIn    *int64  `json:"expiresIn,omitempty"`
	Password     *string `json:"password,omitempty"`
	MaxDownloads *int    `json:"maxDownloads,omitempty"`
}

type UploadResult struct {
	FilePath string `json:"filePath"`
	FileName string `json:"fileName"`
	FileSize int64  `json:"fileSize"`
}

// File is a downloaded shared file.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// Upload stores r at "<owner>/<path>".
func (c *Client) Upload(ctx context.Context, path string, r io.Reader) (*UploadResult, error) {
	var out UploadResult
	err := c.do(ctx, http.MethodPut, "/files/"+escapePath(path), r, "application/octet-stream", &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CreateLink(ctx context.Context, req CreateLinkRequest) (*domain.ShareLink, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}
	var link domain.ShareLink
	if err := c.do(ctx, http.MethodPost, "/share/create", bytes.NewReader(body), "application/json", &link); err != nil {
		return nil, err
	}
	return &link, nil
}

func (c *Client) ListLinks(ctx context.Context) ([]domain.ShareLink, error) {
	var out struct {
		Data []domain.ShareLink `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, "/share/list", nil, "", &out); err != nil {
		return nil, err
	}
	return out.Data, nil
}

func (c *Client) DeactivateLink(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodPatch, "/share/"+url.PathEscape(id)+"/deactivate", nil, "", nil)
}

func (c *Client) DeleteLink(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/share/"+url.PathEscape(id), nil, "", nil)
}

func (c *Client) GetPublicInfo(ctx context.Context, token string) (*domain.SharedFileInfo, error) {
	var info domain.SharedFileInfo
	if err := c.do(ctx, http.MethodGet, "/shared/"+url.PathEscape(token), nil, "", &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// Download redeems a link. password may be nil for unprotected links.
func (c *Client) Download(ctx context.Context, token string, password *string) (*File, error) {
	body, err := json.Marshal(map[string]*string{"password": password})
	if err != nil {
		return nil, err
	}
	resp, err := c.send(ctx, http.MethodPost, "/shared/"+url.PathEscape(token)+"/download", bytes.NewReader(body), "application/json")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	file := &File{ContentType: resp.Header.Get("Content-Type"), Data: data}
	if _, params, err := mime.ParseMediaType(resp.Header.Get("Content-Disposition")); err == nil {
		file.Name = params["filename"]
	}
	return file, nil
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader, contentType string, out any) error {
	resp, err := c.send(ctx, method, path, body, contentType)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// send performs the request and turns any non-2xx response into an *APIError.
func (c *Client) send(ctx context.Context, method, path string, body io.Reader, contentType string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return resp, nil
	}
	defer resp.Body.Close()

	apiErr := &APIError{Status: resp.StatusCode}
	var envelope struct {
		Error string `json:"error"`
		Code  string `json:"code"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err == nil {
		apiErr.Code = envelope.Code
		apiErr.Message = envelope.Error
	} else {
		apiErr.Message = http.StatusText(resp.StatusCode)
	}
	return nil, apiErr
}

func escapePath(p string) string {
	parts := strings.Split(strings.Trim(p, "/"), "/")
	for i, part := range parts {
		parts[i] = url.PathEscape(part)
	}
	return strings.Join(parts, "/")
}

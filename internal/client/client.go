// Package client consumes the planttracker REST API the way the map and
// upload views do.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"planttracker-api/internal/geo"
	"planttracker-api/internal/models"
)

const (
	// maxErrorBodySize limits how much of an error response is read.
	maxErrorBodySize = 4096

	defaultTimeout = 30 * time.Second
)

var (
	// ErrEmptyID is returned before any request when the collection id is blank.
	ErrEmptyID = errors.New("client: collection id is required")
	// ErrMissingFile is returned before any request when an upload file is absent.
	ErrMissingFile = errors.New("client: both species and collection files are required")
)

// APIError is a non-2xx response from the server.
type APIError struct {
	Status int
	Detail string
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return e.Detail
	}
	return fmt.Sprintf("request failed with status %d", e.Status)
}

// IsNotFound reports whether err is a 404 from the server.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}

// File is one named upload payload.
type File struct {
	Name    string
	Content io.Reader
}

// UploadResult is the server's answer to a successful upload.
type UploadResult struct {
	Message string `json:"message"`
	models.IngestSummary
}

// Client talks to one planttracker API server.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// New creates a client for the server at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetCollection fetches the full record for one collection.
func (c *Client) GetCollection(ctx context.Context, id string) (models.Record, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, ErrEmptyID
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/collection/"+url.PathEscape(id), nil)
	if err != nil {
		return nil, fmt.Errorf("client: create request: %w", err)
	}

	var rec models.Record
	if err := c.do(req, &rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// ListCollections fetches one page of markers inside b.
func (c *Client) ListCollections(ctx context.Context, b geo.Bounds, limit, offset int) (models.MarkerPage, error) {
	q := url.Values{}
	q.Set("minLat", formatFloat(b.MinLat))
	q.Set("maxLat", formatFloat(b.MaxLat))
	q.Set("minLng", formatFloat(b.MinLng))
	q.Set("maxLng", formatFloat(b.MaxLng))
	q.Set("limit", strconv.Itoa(limit))
	q.Set("offset", strconv.Itoa(offset))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/collections?"+q.Encode(), nil)
	if err != nil {
		return models.MarkerPage{}, fmt.Errorf("client: create request: %w", err)
	}

	var page models.MarkerPage
	if err := c.do(req, &page); err != nil {
		return models.MarkerPage{}, err
	}
	if page.Items == nil {
		page.Items = []models.Marker{}
	}
	return page, nil
}

// Upload sends a species/collection CSV pair to replace the dataset.
func (c *Client) Upload(ctx context.Context, species, collections File) (UploadResult, error) {
	if species.Content == nil || collections.Content == nil {
		return UploadResult{}, ErrMissingFile
	}

	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	for _, part := range []struct {
		field string
		file  File
	}{
		{"species_csv", species},
		{"collection_csv", collections},
	} {
		name := part.file.Name
		if name == "" {
			name = part.field + ".csv"
		}
		fw, err := mw.CreateFormFile(part.field, name)
		if err != nil {
			return UploadResult{}, fmt.Errorf("client: create form file: %w", err)
		}
		if _, err := io.Copy(fw, part.file.Content); err != nil {
			return UploadResult{}, fmt.Errorf("client: read %s: %w", part.field, err)
		}
	}
	if err := mw.Close(); err != nil {
		return UploadResult{}, fmt.Errorf("client: close multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/upload", body)
	if err != nil {
		return UploadResult{}, fmt.Errorf("client: create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var result UploadResult
	if err := c.do(req, &result); err != nil {
		return UploadResult{}, err
	}
	return result, nil
}

func (c *Client) do(req *http.Request, out any) error {
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("client: %s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeAPIError(resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("client: decode response: %w", err)
	}
	return nil
}

func decodeAPIError(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))

	var payload struct {
		Detail any `json:"detail"`
	}
	if json.Unmarshal(body, &payload) == nil {
		switch d := payload.Detail.(type) {
		case string:
			apiErr.Detail = d
		case nil:
		default:
			// Validation errors may carry a structured detail; show it verbatim.
			if raw, err := json.Marshal(d); err == nil {
				apiErr.Detail = string(raw)
			}
		}
	}
	return apiErr
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

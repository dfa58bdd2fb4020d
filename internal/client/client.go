// Package client implements examination.PersistenceAPI against the
// examinations HTTP service.
package client

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

	"vetclinic/pkg/domain"
	"vetclinic/pkg/examination"
)

const (
	defaultEndpoint = "http://localhost:8080"
	defaultTimeout  = 30 * time.Second
	examinationPath = "/api/v1/examinations"
)

// Client talks to a vetclinic server.
type Client struct {
	endpoint string
	http     *http.Client
}

var _ examination.PersistenceAPI = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		if c != nil {
			cl.http = c
		}
	}
}

// New creates a client for the server at endpoint.
func New(endpoint string, opts ...Option) *Client {
	if endpoint == "" {
		endpoint = defaultEndpoint
	}
	c := &Client{
		endpoint: strings.TrimSuffix(endpoint, "/"),
		http:     &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type examinationResponse struct {
	Examination domain.Examination `json:"examination"`
}

// Create stores a new examination and returns the stored payload.
func (c *Client) Create(ctx context.Context, payload examination.Payload) (examination.Payload, error) {
	exam, err := c.CreateExamination(ctx, payload)
	if err != nil {
		return nil, err
	}
	return exam.Payload, nil
}

// Update replaces the payload of examination id and returns the stored payload.
func (c *Client) Update(ctx context.Context, id string, payload examination.Payload) (examination.Payload, error) {
	exam, err := c.UpdateExamination(ctx, id, payload)
	if err != nil {
		return nil, err
	}
	return exam.Payload, nil
}

// CreateExamination stores a new examination and returns the full record.
func (c *Client) CreateExamination(ctx context.Context, payload examination.Payload) (domain.Examination, error) {
	var out examinationResponse
	if err := c.do(ctx, http.MethodPost, examinationPath, payload, http.StatusCreated, &out); err != nil {
		return domain.Examination{}, err
	}
	return out.Examination, nil
}

// UpdateExamination replaces the payload of examination id.
func (c *Client) UpdateExamination(ctx context.Context, id string, payload examination.Payload) (domain.Examination, error) {
	var out examinationResponse
	if err := c.do(ctx, http.MethodPut, examinationPath+"/"+url.PathEscape(id), payload, http.StatusOK, &out); err != nil {
		return domain.Examination{}, err
	}
	return out.Examination, nil
}

// Get fetches examination id, typically to hydrate an edit form.
func (c *Client) Get(ctx context.Context, id string) (domain.Examination, error) {
	var out examinationResponse
	if err := c.do(ctx, http.MethodGet, examinationPath+"/"+url.PathEscape(id), nil, http.StatusOK, &out); err != nil {
		return domain.Examination{}, err
	}
	return out.Examination, nil
}

func (c *Client) do(ctx context.Context, method, path string, body any, want int, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint+path, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != want {
		return apiError(resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// apiError turns a non-success response into an *examination.APIError,
// keeping the server's error text when the body carries one.
func apiError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var body struct {
		Error string `json:"error"`
	}
	_ = json.Unmarshal(raw, &body)
	return &examination.APIError{Status: resp.StatusCode, Message: body.Error}
}

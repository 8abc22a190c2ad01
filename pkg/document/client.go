package document

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// maxResponseSize caps how much of an upstream body is read.
const maxResponseSize = 1 << 20

// Client looks up DNI and RUC numbers against the Decolecta API.
type Client struct {
	baseURL string
	token   string
	client  *http.Client
}

// Option configures Client.
type Option func(*Client)

// WithHTTPClient replaces the default client built from Config.Timeout.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		cl.client = c
	}
}

// NewClient creates a document lookup client. Token is required.
func NewClient(cfg Config, opts ...Option) (*Client, error) {
	if cfg.Token == "" {
		return nil, fmt.Errorf("%w: DECOLECTA_API_TOKEN is required", ErrInvalidConfig)
	}
	base := strings.TrimRight(cfg.BaseURL, "/")
	if _, err := url.ParseRequestURI(base); err != nil || base == "" {
		return nil, fmt.Errorf("%w: invalid base url %q", ErrInvalidConfig, cfg.BaseURL)
	}

	c := &Client{
		baseURL: base,
		token:   cfg.Token,
		client:  &http.Client{Timeout: cfg.Timeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Lookup validates the document type and number, then fetches the record.
func (c *Client) Lookup(ctx context.Context, docType, number string) (*Result, error) {
	t, err := ParseType(docType)
	if err != nil {
		return nil, err
	}
	number = strings.TrimSpace(number)
	if err := t.ValidateNumber(number); err != nil {
		return nil, err
	}

	switch t {
	case TypeRUC:
		var out rucResponse
		if err := c.get(ctx, "/sunat/ruc", number, &out); err != nil {
			return nil, err
		}
		return out.result(), nil
	default:
		var out dniResponse
		if err := c.get(ctx, "/reniec/dni", number, &out); err != nil {
			return nil, err
		}
		return out.result(), nil
	}
}

func (c *Client) get(ctx context.Context, path, number string, out any) error {
	endpoint := c.baseURL + path + "?" + url.Values{"numero": {number}}.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return errors.Join(ErrUpstreamFailed, fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.client.Do(req)
	if err != nil {
		return errors.Join(ErrUpstreamFailed, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return errors.Join(ErrUpstreamFailed, fmt.Errorf("failed to read response: %w", err))
	}

	if resp.StatusCode != http.StatusOK {
		msg := http.StatusText(resp.StatusCode)
		var errResp errorResponse
		if json.Unmarshal(body, &errResp) == nil && errResp.Error != "" {
			msg = errResp.Error
		}
		switch resp.StatusCode {
		case http.StatusNotFound, http.StatusUnprocessableEntity, http.StatusBadRequest:
			return fmt.Errorf("%w: document %s: %s", ErrDocumentNotFound, number, msg)
		default:
			return fmt.Errorf("%w: status %d: %s", ErrUpstreamFailed, resp.StatusCode, msg)
		}
	}

	if err := json.Unmarshal(body, out); err != nil {
		return errors.Join(ErrUpstreamFailed, fmt.Errorf("failed to parse response: %w", err))
	}
	return nil
}

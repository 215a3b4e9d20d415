// Package client talks to the PolyWord service: it uploads a document for
// processing and downloads the resulting text artifacts.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/oukeidos/polyword/internal/apperrors"
	"github.com/oukeidos/polyword/internal/httpclient"
	"github.com/oukeidos/polyword/internal/logger"
	"github.com/oukeidos/polyword/internal/version"
)

const (
	uploadPath   = "/upload"
	downloadPath = "/download/"
	// UploadField is the multipart field that carries the document.
	UploadField = "file"
)

// Client is safe for concurrent use.
type Client struct {
	base   *url.URL
	http   *http.Client
	prefix string
}

type Option func(*Client)

// WithHTTPClient replaces the shared default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithBucketPrefix sets the locator prefix stripped before downloads.
func WithBucketPrefix(prefix string) Option {
	return func(c *Client) {
		if prefix != "" {
			c.prefix = prefix
		}
	}
}

// New returns a client for the service at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil {
		return nil, apperrors.Config(fmt.Errorf("invalid server URL %q: %w", baseURL, err))
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, apperrors.Config(fmt.Errorf("server URL must be absolute http(s), got %q", baseURL))
	}
	u.Path = strings.TrimRight(u.Path, "/")
	u.RawQuery, u.Fragment = "", ""

	c := &Client{
		base:   u,
		http:   httpclient.GetDefaultClient(),
		prefix: DefaultBucketPrefix,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BucketPrefix returns the configured locator prefix.
func (c *Client) BucketPrefix() string { return c.prefix }

// endpoint joins the base URL with an already-escaped path.
func (c *Client) endpoint(escapedPath string) string {
	return strings.TrimRight(c.base.String(), "/") + escapedPath
}

// Upload sends the document as multipart form data and returns the
// locators of the produced artifacts. Failures are upload errors.
func (c *Client) Upload(ctx context.Context, name string, r io.Reader) (*ProcessingResult, error) {
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	part, err := mw.CreateFormFile(UploadField, filepath.Base(name))
	if err != nil {
		return nil, apperrors.Upload(fmt.Errorf("failed to build form: %w", err))
	}
	if _, err := io.Copy(part, r); err != nil {
		return nil, apperrors.Upload(fmt.Errorf("failed to read %s: %w", name, err))
	}
	if err := mw.Close(); err != nil {
		return nil, apperrors.Upload(fmt.Errorf("failed to build form: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(uploadPath), body)
	if err != nil {
		return nil, apperrors.Upload(err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", version.UserAgent())

	logger.Debug("Uploading document", "file", name, "bytes", body.Len())
	respBody, resp, err := httpclient.DoAndRead(c.http, req)
	if err != nil {
		return nil, apperrors.Upload(fmt.Errorf("upload request failed: %w", err))
	}
	if err := httpclient.CheckStatus(resp, respBody); err != nil {
		return nil, apperrors.Upload(err)
	}

	var result ProcessingResult
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, apperrors.Upload(fmt.Errorf("failed to decode upload response: %w", err))
	}
	if err := result.validate(); err != nil {
		return nil, apperrors.Upload(err)
	}
	return &result, nil
}

// DownloadPath returns the request path used to fetch locator.
func (c *Client) DownloadPath(locator string) (string, error) {
	rel, err := StripBucketPrefix(c.prefix, locator)
	if err != nil {
		return "", err
	}
	return downloadPath + escapePath(rel), nil
}

// Download fetches the artifact behind locator. Failures are download errors.
func (c *Client) Download(ctx context.Context, locator string) (*Download, error) {
	p, err := c.DownloadPath(locator)
	if err != nil {
		return nil, apperrors.Download(err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint(p), nil)
	if err != nil {
		return nil, apperrors.Download(err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", version.UserAgent())

	respBody, resp, err := httpclient.DoAndRead(c.http, req)
	if err != nil {
		return nil, apperrors.Download(fmt.Errorf("download request failed: %w", err))
	}
	if err := httpclient.CheckStatus(resp, respBody); err != nil {
		return nil, apperrors.Download(err)
	}

	var dl Download
	if err := json.Unmarshal(respBody, &dl); err != nil {
		return nil, apperrors.Download(fmt.Errorf("failed to decode download response: %w", err))
	}
	return &dl, nil
}

package dust

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// KindHeader marks directory listings so clients can tell them apart
// from file bodies that happen to be JSON.
const KindHeader = "X-Dust-Kind"

// Client talks to a dust API served by `maiden serve`.
type Client struct {
	base   string
	http   *http.Client
	logger *slog.Logger
}

// NewClient returns a client for the server at base (e.g.
// "http://localhost:5000"). A nil logger discards.
func NewClient(base string, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Client{
		base:   strings.TrimRight(base, "/"),
		http:   &http.Client{Timeout: 30 * time.Second},
		logger: logger,
	}
}

type errorBody struct {
	Error string `json:"error"`
}

type renameBody struct {
	URL string `json:"url"`
}

func (c *Client) List(ctx context.Context, url string) (*Listing, error) {
	resp, err := c.do(ctx, http.MethodGet, url, nil, "")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.Header.Get(KindHeader) != "directory" {
		return nil, fmt.Errorf("%s: %w", url, ErrNotDir)
	}

	var listing Listing
	if err := json.NewDecoder(resp.Body).Decode(&listing); err != nil {
		return nil, fmt.Errorf("decoding listing %s: %w", url, err)
	}
	return &listing, nil
}

func (c *Client) Read(ctx context.Context, url string) ([]byte, error) {
	resp, err := c.do(ctx, http.MethodGet, url, nil, "")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.Header.Get(KindHeader) == "directory" {
		return nil, fmt.Errorf("%s: %w", url, ErrIsDir)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", url, err)
	}
	return data, nil
}

func (c *Client) Write(ctx context.Context, url string, data []byte) error {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("value", Base(url))
	if err != nil {
		return fmt.Errorf("building upload: %w", err)
	}
	if _, err := fw.Write(data); err != nil {
		return fmt.Errorf("building upload: %w", err)
	}
	if err := mw.Close(); err != nil {
		return fmt.Errorf("building upload: %w", err)
	}

	resp, err := c.do(ctx, http.MethodPut, url, &body, mw.FormDataContentType())
	if err != nil {
		return err
	}
	return resp.Body.Close()
}

func (c *Client) Mkdir(ctx context.Context, url string) error {
	resp, err := c.do(ctx, http.MethodPut, url+"?kind=directory", nil, "")
	if err != nil {
		return err
	}
	return resp.Body.Close()
}

func (c *Client) Rename(ctx context.Context, rawURL, newName string) (string, error) {
	form := url.Values{"name": {newName}}
	resp, err := c.do(ctx, http.MethodPatch, rawURL, strings.NewReader(form.Encode()), "application/x-www-form-urlencoded")
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var out renameBody
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decoding rename response: %w", err)
	}
	return out.URL, nil
}

func (c *Client) Delete(ctx context.Context, url string) error {
	resp, err := c.do(ctx, http.MethodDelete, url, nil, "")
	if err != nil {
		return err
	}
	return resp.Body.Close()
}

// do issues the request and converts non-2xx responses into errors
// wrapping the matching sentinel.
func (c *Client) do(ctx context.Context, method, url string, body io.Reader, contentType string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.base+url, body)
	if err != nil {
		return nil, fmt.Errorf("building %s %s: %w", method, url, err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	c.logger.Debug("dust request", "method", method, "url", url)
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, url, err)
	}
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return resp, nil
	}
	defer resp.Body.Close()

	var eb errorBody
	_ = json.NewDecoder(resp.Body).Decode(&eb)
	if eb.Error == "" {
		eb.Error = resp.Status
	}

	var sentinel error
	switch resp.StatusCode {
	case http.StatusNotFound:
		sentinel = ErrNotFound
	case http.StatusConflict:
		sentinel = ErrExists
	case http.StatusBadRequest:
		sentinel = ErrInvalidName
	default:
		return nil, fmt.Errorf("%s %s: %s", method, url, eb.Error)
	}
	return nil, fmt.Errorf("%s %s: %w: %s", method, url, sentinel, eb.Error)
}

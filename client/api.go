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
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
)

// maxPages bounds how many "next" links a list call follows.
const maxPages = 100

// resolve turns an API path such as "payments/" or "/payments/" into an absolute URL.
func (c *Client) resolve(path string, query url.Values) string {
	ref := &url.URL{Path: strings.TrimLeft(path, "/")}
	u := c.baseURL.ResolveReference(ref)
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

// NewRequest builds a request for an API path. A non-nil body is buffered so
// the request can be replayed after a token refresh.
func (c *Client) NewRequest(ctx context.Context, method, path string, query url.Values, body []byte) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.resolve(path, query), reader)
	if err != nil {
		log.Error().Err(err).Str("method", method).Str("path", path).Msg("Failed to create HTTP request object")
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	return req, nil
}

// GetJSON decodes the response of GET path into out.
func (c *Client) GetJSON(ctx context.Context, path string, query url.Values, out any) error {
	return c.sendJSON(ctx, http.MethodGet, path, query, nil, out, true)
}

// PostJSON sends in as JSON and decodes the response into out. out may be nil.
func (c *Client) PostJSON(ctx context.Context, path string, in, out any) error {
	return c.sendJSON(ctx, http.MethodPost, path, nil, in, out, true)
}

// PutJSON replaces the resource at path.
func (c *Client) PutJSON(ctx context.Context, path string, in, out any) error {
	return c.sendJSON(ctx, http.MethodPut, path, nil, in, out, true)
}

// PatchJSON partially updates the resource at path.
func (c *Client) PatchJSON(ctx context.Context, path string, in, out any) error {
	return c.sendJSON(ctx, http.MethodPatch, path, nil, in, out, true)
}

// Delete removes the resource at path.
func (c *Client) Delete(ctx context.Context, path string) error {
	return c.sendJSON(ctx, http.MethodDelete, path, nil, nil, nil, true)
}

// PostJSONNoRefresh is PostJSON without 401 handling. Login uses it so a wrong
// password is reported as is instead of starting a refresh.
func (c *Client) PostJSONNoRefresh(ctx context.Context, path string, in, out any) error {
	return c.sendJSON(ctx, http.MethodPost, path, nil, in, out, false)
}

func (c *Client) sendJSON(ctx context.Context, method, path string, query url.Values, in, out any, intercept bool) error {
	var payload []byte
	if in != nil {
		var err error
		if payload, err = json.Marshal(in); err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
	}

	req, err := c.NewRequest(ctx, method, path, query, payload)
	if err != nil {
		return err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.do(req, intercept)
	if err != nil {
		return err
	}
	return decodeResponse(resp, out)
}

// decodeResponse turns non-2xx responses into *APIError and decodes the rest into out.
func decodeResponse(resp *http.Response, out any) error {
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := newAPIError(resp)
		log.Debug().Str("method", apiErr.Method).Str("url", apiErr.URL).Int("status", apiErr.StatusCode).Msg("HTTP request returned non-OK status")
		return apiErr
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}
	if out == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		log.Error().Err(err).Str("body_preview", string(body[:min(len(body), 200)])).Msg("Failed to parse response JSON")
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

// page is the paginated list envelope.
type page[T any] struct {
	Next    *string `json:"next"`
	Results []T     `json:"results"`
}

// ExtractResults accepts both a paginated {"results": [...]} object and a bare array.
func ExtractResults[T any](raw []byte) ([]T, error) {
	items, _, err := extractPage[T](raw)
	return items, err
}

func extractPage[T any](raw []byte) ([]T, string, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, "", nil
	}
	if trimmed[0] == '{' {
		var p page[T]
		if err := json.Unmarshal(trimmed, &p); err != nil {
			return nil, "", fmt.Errorf("failed to parse paginated list: %w", err)
		}
		next := ""
		if p.Next != nil {
			next = *p.Next
		}
		return p.Results, next, nil
	}
	var items []T
	if err := json.Unmarshal(trimmed, &items); err != nil {
		return nil, "", fmt.Errorf("failed to parse list: %w", err)
	}
	return items, "", nil
}

// List fetches every item of a list endpoint, following "next" links when the
// backend paginates.
func List[T any](ctx context.Context, c *Client, path string, query url.Values) ([]T, error) {
	var all []T
	target := c.resolve(path, query)
	seen := make(map[string]bool)

	for i := 0; target != "" && i < maxPages; i++ {
		if seen[target] {
			log.Warn().Str("url", target).Msg("Pagination loop detected, stopping")
			break
		}
		seen[target] = true

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")
		resp, err := c.Do(req)
		if err != nil {
			return nil, err
		}
		var raw json.RawMessage
		if err := decodeResponse(resp, &raw); err != nil {
			return nil, err
		}
		items, next, err := extractPage[T](raw)
		if err != nil {
			return nil, err
		}
		all = append(all, items...)
		target = resolveNext(target, next)
	}
	return all, nil
}

// resolveNext makes a relative "next" link absolute against the current page.
func resolveNext(current, next string) string {
	if next == "" {
		return ""
	}
	n, err := url.Parse(next)
	if err != nil {
		return ""
	}
	if n.IsAbs() {
		return next
	}
	base, err := url.Parse(current)
	if err != nil {
		return ""
	}
	return base.ResolveReference(n).String()
}

// FormFile is a file attached to a multipart request.
type FormFile struct {
	Field string
	Path  string
}

// PostMultipart sends fields and an optional file as multipart/form-data.
func (c *Client) PostMultipart(ctx context.Context, path string, fields map[string]string, file *FormFile, out any) error {
	return c.sendMultipart(ctx, http.MethodPost, path, fields, file, out)
}

// PutMultipart replaces the resource at path with a multipart/form-data body.
func (c *Client) PutMultipart(ctx context.Context, path string, fields map[string]string, file *FormFile, out any) error {
	return c.sendMultipart(ctx, http.MethodPut, path, fields, file, out)
}

func (c *Client) sendMultipart(ctx context.Context, method, path string, fields map[string]string, file *FormFile, out any) error {
	body, contentType, err := encodeMultipart(fields, file)
	if err != nil {
		return err
	}
	req, err := c.NewRequest(ctx, method, path, nil, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.Do(req)
	if err != nil {
		return err
	}
	return decodeResponse(resp, out)
}

func encodeMultipart(fields map[string]string, file *FormFile) ([]byte, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	for name, value := range fields {
		if err := w.WriteField(name, value); err != nil {
			return nil, "", fmt.Errorf("failed to write form field %q: %w", name, err)
		}
	}

	if file != nil {
		f, err := os.Open(file.Path)
		if err != nil {
			return nil, "", fmt.Errorf("failed to open %s: %w", file.Path, err)
		}
		defer f.Close()

		part, err := w.CreateFormFile(file.Field, filepath.Base(file.Path))
		if err != nil {
			return nil, "", fmt.Errorf("failed to create form file: %w", err)
		}
		if _, err := io.Copy(part, f); err != nil {
			return nil, "", fmt.Errorf("failed to read %s: %w", file.Path, err)
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to finish multipart body: %w", err)
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}

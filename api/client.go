// Package api is the typed HTTP client for the canvas object endpoints.
// It performs no caching and no retries; the repository layer decides
// what to do with responses and failures.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"canvasearth-client/core"
)

// Client talks to the canvas backend's REST API under <base>/api.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient returns a client for the given backend base URL, e.g.
// "http://localhost:8080".
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/") + "/api",
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

var _ core.ObjectAPI = (*Client)(nil)

// ObjectsInViewport fetches every object intersecting the given bounds.
func (c *Client) ObjectsInViewport(ctx context.Context, bounds core.ViewportBounds) ([]core.CanvasObject, error) {
	query := url.Values{}
	query.Set("minX", formatFloat(bounds.MinX))
	query.Set("minY", formatFloat(bounds.MinY))
	query.Set("maxX", formatFloat(bounds.MaxX))
	query.Set("maxY", formatFloat(bounds.MaxY))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/objects?"+query.Encode(), nil)
	if err != nil {
		return nil, err
	}

	var objects []core.CanvasObject
	if err := c.do(req, http.StatusOK, &objects); err != nil {
		return nil, fmt.Errorf("query objects: %w", err)
	}
	return objects, nil
}

// CreateObject sends a creation intent and returns the canonical object
// with its server-assigned id.
func (c *Client) CreateObject(ctx context.Context, request core.CreateObjectRequest) (*core.CanvasObject, error) {
	req, err := c.jsonRequest(ctx, http.MethodPost, c.baseURL+"/objects", request)
	if err != nil {
		return nil, err
	}

	var created core.CanvasObject
	if err := c.do(req, http.StatusCreated, &created); err != nil {
		return nil, fmt.Errorf("create object: %w", err)
	}
	return &created, nil
}

// UpdateObject sends a partial update and returns the full updated
// object as the server now holds it.
func (c *Client) UpdateObject(ctx context.Context, id int64, request core.UpdateObjectRequest) (*core.CanvasObject, error) {
	req, err := c.jsonRequest(ctx, http.MethodPut, c.objectURL(id), request)
	if err != nil {
		return nil, err
	}

	var updated core.CanvasObject
	if err := c.do(req, http.StatusOK, &updated); err != nil {
		return nil, fmt.Errorf("update object %d: %w", id, err)
	}
	return &updated, nil
}

// DeleteObject removes the object on the server.
func (c *Client) DeleteObject(ctx context.Context, id int64) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.objectURL(id), nil)
	if err != nil {
		return err
	}

	if err := c.do(req, http.StatusNoContent, nil); err != nil {
		return fmt.Errorf("delete object %d: %w", id, err)
	}
	return nil
}

// UploadFile sends a multipart upload; the server stores the file,
// assigns a content URL and returns the created object.
func (c *Client) UploadFile(ctx context.Context, upload core.FileUpload) (*core.CanvasObject, error) {
	body := &bytes.Buffer{}
	form := multipart.NewWriter(body)

	part, err := form.CreateFormFile("file", upload.Filename)
	if err != nil {
		return nil, err
	}
	if _, err := part.Write(upload.Data); err != nil {
		return nil, err
	}

	fields := map[string]string{
		"objectType": string(upload.ObjectType),
		"positionX":  formatFloat(upload.PositionX),
		"positionY":  formatFloat(upload.PositionY),
		"width":      formatFloat(upload.Width),
		"height":     formatFloat(upload.Height),
		"zIndex":     strconv.Itoa(upload.ZIndex),
		"userId":     strconv.FormatInt(upload.UserID, 10),
	}
	for name, value := range fields {
		if err := form.WriteField(name, value); err != nil {
			return nil, err
		}
	}
	if err := form.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/objects/upload", body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", form.FormDataContentType())

	var created core.CanvasObject
	if err := c.do(req, http.StatusCreated, &created); err != nil {
		return nil, fmt.Errorf("upload %s: %w", upload.Filename, err)
	}
	return &created, nil
}

func (c *Client) objectURL(id int64) string {
	return c.baseURL + "/objects/" + strconv.FormatInt(id, 10)
}

func (c *Client) jsonRequest(ctx context.Context, method, target string, payload any) (*http.Request, error) {
	encoded, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, method, target, bytes.NewReader(encoded))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

// do executes the request, accepts either the wanted status or 200, and
// decodes the body into out when out is non-nil. A 404 maps to
// core.ErrNotFound so callers can react to vanished objects.
func (c *Client) do(req *http.Request, want int, out any) error {
	logrus.WithFields(logrus.Fields{
		"method": req.Method,
		"url":    req.URL.String(),
	}).Debug("api request")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return core.ErrNotFound
	}
	if resp.StatusCode != want && resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

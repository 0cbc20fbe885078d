// Package media uploads and deletes thumbnail assets on an external
// image-hosting service.
//
// The host exposes a Cloudinary-style HTTP API: multipart POST to /upload
// returning a public asset id and a secure URL, and a POST to /destroy to
// remove an asset by id.
package media

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Asset identifies an uploaded file on the media host.
type Asset struct {
	PublicID  string `json:"public_id"`
	SecureURL string `json:"secure_url"`
}

// Client talks to the media host. The zero value is not usable; construct
// with NewClient.
type Client struct {
	baseURL string
	apiKey  string
	folder  string
	http    *http.Client
}

// NewClient returns a client for the media host rooted at baseURL.
// folder is the remote folder assets are uploaded into (may be empty).
func NewClient(baseURL, apiKey, folder string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		folder:  folder,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

// Upload sends the file to the host and returns its asset descriptor.
func (c *Client) Upload(ctx context.Context, filename string, data []byte) (Asset, error) {
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("file", filename)
	if err != nil {
		return Asset{}, err
	}
	if _, err := part.Write(data); err != nil {
		return Asset{}, err
	}
	if err := w.WriteField("api_key", c.apiKey); err != nil {
		return Asset{}, err
	}
	if c.folder != "" {
		if err := w.WriteField("folder", c.folder); err != nil {
			return Asset{}, err
		}
	}
	if err := w.Close(); err != nil {
		return Asset{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/upload", &body)
	if err != nil {
		return Asset{}, err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := c.http.Do(req)
	if err != nil {
		return Asset{}, fmt.Errorf("media upload: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return Asset{}, fmt.Errorf("media upload: host returned %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var asset Asset
	if err := json.NewDecoder(resp.Body).Decode(&asset); err != nil {
		return Asset{}, fmt.Errorf("media upload: decode response: %w", err)
	}
	if asset.PublicID == "" || asset.SecureURL == "" {
		return Asset{}, fmt.Errorf("media upload: host response missing asset fields")
	}
	return asset, nil
}

// Delete removes an asset by its public id.
func (c *Client) Delete(ctx context.Context, publicID string) error {
	form := url.Values{}
	form.Set("public_id", publicID)
	form.Set("api_key", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/destroy", strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("media delete: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("media delete: host returned %d", resp.StatusCode)
	}
	return nil
}

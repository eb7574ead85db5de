// Package dropbox is a minimal Dropbox content client used by the
// production consumption job: fetch bytes by reference, store bytes by
// reference. Nothing here knows about spreadsheets or stock.
package dropbox

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

const (
	tokenURL    = "https://api.dropbox.com/oauth2/token"
	downloadURL = "https://content.dropboxapi.com/2/files/download"
	uploadURL   = "https://content.dropboxapi.com/2/files/upload"

	// tokenMargin renews the access token slightly before it expires
	// so an in-flight request never carries a stale one.
	tokenMargin = 60 * time.Second
)

// Config holds the OAuth app credentials and the long-lived refresh token.
type Config struct {
	AppKey       string
	AppSecret    string
	RefreshToken string
}

// Client talks to the Dropbox content API. Access tokens are obtained
// through the refresh-token flow and cached until shortly before expiry.
type Client struct {
	cfg  Config
	http *http.Client

	mu      sync.Mutex
	token   string
	expires time.Time
}

// New creates a Dropbox client.
func New(cfg Config) *Client {
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: 30 * time.Second},
	}
}

// Fetch downloads the file at the given path reference.
func (c *Client) Fetch(ctx context.Context, ref string) ([]byte, error) {
	token, err := c.accessToken(ctx)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, downloadURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build download request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Dropbox-API-Arg", apiArg(ref, ""))

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", ref, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apiError("download", ref, resp)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read download body: %w", err)
	}
	return data, nil
}

// Store uploads data to the given path reference, overwriting any
// existing revision.
func (c *Client) Store(ctx context.Context, ref string, data []byte) error {
	token, err := c.accessToken(ctx)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, uploadURL, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("build upload request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/octet-stream")
	req.Header.Set("Dropbox-API-Arg", apiArg(ref, "overwrite"))

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("upload %s: %w", ref, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return apiError("upload", ref, resp)
	}
	io.Copy(io.Discard, resp.Body)
	return nil
}

func (c *Client) accessToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != "" && time.Now().Before(c.expires.Add(-tokenMargin)) {
		return c.token, nil
	}

	form := url.Values{
		"grant_type":    {"refresh_token"},
		"refresh_token": {c.cfg.RefreshToken},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("build token request: %w", err)
	}
	req.SetBasicAuth(c.cfg.AppKey, c.cfg.AppSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("refresh access token: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", apiError("token", "", resp)
	}

	var payload struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int64  `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("decode token response: %w", err)
	}
	if payload.AccessToken == "" {
		return "", fmt.Errorf("token response missing access_token")
	}

	c.token = payload.AccessToken
	c.expires = time.Now().Add(time.Duration(payload.ExpiresIn) * time.Second)
	return c.token, nil
}

func apiArg(path, mode string) string {
	arg := map[string]any{"path": path}
	if mode != "" {
		arg["mode"] = mode
	}
	out, _ := json.Marshal(arg)
	return string(out)
}

func apiError(op, ref string, resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if ref != "" {
		return fmt.Errorf("dropbox %s %s: status %d: %s", op, ref, resp.StatusCode, bytes.TrimSpace(body))
	}
	return fmt.Errorf("dropbox %s: status %d: %s", op, resp.StatusCode, bytes.TrimSpace(body))
}

// Package vincere is the HTTP client for the Vincere ATS REST API.
package vincere

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"crew-recruitment-backend/internal/domain"

	"go.uber.org/zap"
)

const (
	authURL     = "https://id.vincere.io/oauth2/token"
	userAgent   = "crew-recruitment-backend/vincere"
	contentType = "application/json"

	// Tokens are refreshed this long before Vincere expires them.
	tokenSkew          = 5 * time.Minute
	defaultTokenExpiry = time.Hour
	maxResponseBytes   = 50 << 20
)

// Config holds the tenant credentials.
type Config struct {
	Domain       string
	ClientID     string
	APIKey       string
	RefreshToken string
	Timeout      time.Duration
}

// Client talks to one Vincere tenant. It is safe for concurrent use.
type Client struct {
	cfg        Config
	logger     *zap.Logger
	HTTPClient *http.Client
	UserAgent  string
	APIURL     string
	AuthURL    string

	now func() time.Time

	mu        sync.Mutex
	idToken   string
	expiresAt time.Time
}

type tokenResponse struct {
	IDToken     string `json:"id_token"`
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}

// New validates cfg and returns a client. No request is made until first use.
func New(cfg Config, logger *zap.Logger) (*Client, error) {
	cfg.Domain = strings.TrimSpace(cfg.Domain)
	var missing []string
	if cfg.Domain == "" {
		missing = append(missing, "domain")
	}
	if strings.TrimSpace(cfg.ClientID) == "" {
		missing = append(missing, "client id")
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		missing = append(missing, "api key")
	}
	if strings.TrimSpace(cfg.RefreshToken) == "" {
		missing = append(missing, "refresh token")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("vincere: missing %s", strings.Join(missing, ", "))
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		cfg:        cfg,
		logger:     logger,
		HTTPClient: &http.Client{Timeout: cfg.Timeout},
		UserAgent:  userAgent,
		APIURL:     fmt.Sprintf("https://%s.vincere.io/api/v2", cfg.Domain),
		AuthURL:    authURL,
		now:        time.Now,
	}, nil
}

// IsConfigured reports whether the client carries credentials. A nil client
// is not configured.
func (c *Client) IsConfigured() bool {
	return c != nil && c.cfg.RefreshToken != ""
}

func (c *Client) Get(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodGet, path, nil, out)
}

func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPost, path, body, out)
}

func (c *Client) Put(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPut, path, body, out)
}

func (c *Client) Patch(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPatch, path, body, out)
}

func (c *Client) Delete(ctx context.Context, path string) error {
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}

// GetRaw downloads a file. Tenant URLs are authenticated; anything else
// (pre-signed storage links) is fetched without credentials.
func (c *Client) GetRaw(ctx context.Context, rawURL string) ([]byte, error) {
	target := c.resolve(rawURL)
	authenticated := c.isTenantURL(target)

	for attempt := 0; attempt < 2; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("User-Agent", c.UserAgent)
		if authenticated {
			if err := c.authorize(ctx, req, attempt > 0); err != nil {
				return nil, err
			}
		}

		status, data, err := c.send(req)
		if err != nil {
			return nil, err
		}
		if status == http.StatusUnauthorized && authenticated && attempt == 0 {
			c.invalidate()
			continue
		}
		if status < 200 || status > 299 {
			return nil, &domain.ATSError{StatusCode: status, Method: http.MethodGet, Path: rawURL, Body: truncate(string(data))}
		}
		return data, nil
	}
	return nil, &domain.ATSError{StatusCode: http.StatusUnauthorized, Method: http.MethodGet, Path: rawURL}
}

type fileBody struct {
	FileName      string `json:"file_name"`
	Base64Content string `json:"base_64_content"`
	ContentType   string `json:"mime_type,omitempty"`
	OriginalCV    bool   `json:"original_cv"`
	DocumentType  string `json:"document_type,omitempty"`
}

// Upload posts a file as base64 JSON, which is what Vincere's file endpoints accept.
func (c *Client) Upload(ctx context.Context, path string, file domain.FileUpload) error {
	if file.FileName == "" || len(file.Content) == 0 {
		return fmt.Errorf("%w: file name and content are required", domain.ErrInvalidPayload)
	}
	return c.do(ctx, http.MethodPost, path, fileBody{
		FileName:      file.FileName,
		Base64Content: base64.StdEncoding.EncodeToString(file.Content),
		ContentType:   file.ContentType,
		OriginalCV:    file.IsCV,
		DocumentType:  file.DocumentType,
	}, nil)
}

func (c *Client) ListWebhooks(ctx context.Context) ([]domain.Webhook, error) {
	var hooks []domain.Webhook
	if err := c.Get(ctx, webhooksPath, &hooks); err != nil {
		return nil, err
	}
	return hooks, nil
}

func (c *Client) CreateWebhook(ctx context.Context, hook domain.Webhook) (*domain.Webhook, error) {
	var created domain.Webhook
	if err := c.Post(ctx, webhooksPath, hook, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

func (c *Client) DeleteWebhook(ctx context.Context, id string) error {
	return c.Delete(ctx, webhooksPath+"/"+url.PathEscape(id))
}

// do sends one JSON request. A 401 invalidates the token and the request is
// retried once with a fresh one.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%w: %s %s: %v", domain.ErrInvalidPayload, method, path, err)
		}
	}

	for attempt := 0; attempt < 2; attempt++ {
		var reader io.Reader
		if payload != nil {
			reader = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, c.resolve(path), reader)
		if err != nil {
			return fmt.Errorf("%w: %v", domain.ErrInvalidPayload, err)
		}
		req.Header.Set("Accept", contentType)
		req.Header.Set("User-Agent", c.UserAgent)
		if payload != nil {
			req.Header.Set("Content-Type", contentType)
		}
		if err := c.authorize(ctx, req, attempt > 0); err != nil {
			return err
		}

		status, data, err := c.send(req)
		if err != nil {
			return err
		}

		if status == http.StatusUnauthorized && attempt == 0 {
			c.logger.Debug("vincere token rejected, refreshing", zap.String("path", path))
			c.invalidate()
			continue
		}
		if status < 200 || status > 299 {
			return &domain.ATSError{StatusCode: status, Method: method, Path: path, Body: truncate(string(data))}
		}
		if out == nil || len(bytes.TrimSpace(data)) == 0 {
			return nil
		}
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("vincere %s %s: decode response: %w", method, path, err)
		}
		return nil
	}
	return &domain.ATSError{StatusCode: http.StatusUnauthorized, Method: method, Path: path}
}

func (c *Client) send(req *http.Request) (int, []byte, error) {
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("vincere %s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return 0, nil, fmt.Errorf("vincere %s %s: read body: %w", req.Method, req.URL.Path, err)
	}
	return resp.StatusCode, data, nil
}

func (c *Client) authorize(ctx context.Context, req *http.Request, force bool) error {
	token, err := c.token(ctx, force)
	if err != nil {
		return err
	}
	req.Header.Set("id-token", token)
	req.Header.Set("x-api-key", c.cfg.APIKey)
	return nil
}

func (c *Client) token(ctx context.Context, force bool) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !force && c.idToken != "" && c.now().Before(c.expiresAt) {
		return c.idToken, nil
	}
	return c.authenticate(ctx)
}

func (c *Client) invalidate() {
	c.mu.Lock()
	c.idToken = ""
	c.expiresAt = time.Time{}
	c.mu.Unlock()
}

// authenticate exchanges the refresh token for an id token. Callers hold mu.
func (c *Client) authenticate(ctx context.Context) (string, error) {
	form := url.Values{
		"client_id":     {c.cfg.ClientID},
		"grant_type":    {"refresh_token"},
		"refresh_token": {c.cfg.RefreshToken},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.AuthURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", c.UserAgent)

	status, data, err := c.send(req)
	if err != nil {
		return "", err
	}
	if status < 200 || status > 299 {
		return "", &domain.ATSError{StatusCode: status, Method: http.MethodPost, Path: "oauth2/token", Body: truncate(string(data))}
	}

	var tr tokenResponse
	if err := json.Unmarshal(data, &tr); err != nil {
		return "", fmt.Errorf("vincere: decode token response: %w", err)
	}
	if tr.IDToken == "" {
		return "", errors.New("vincere: no id_token in authentication response")
	}

	expiry := defaultTokenExpiry
	if tr.ExpiresIn > 0 {
		expiry = time.Duration(tr.ExpiresIn) * time.Second
	}
	c.idToken = tr.IDToken
	c.expiresAt = c.now().Add(expiry - tokenSkew)
	c.logger.Debug("vincere token refreshed", zap.Time("expires_at", c.expiresAt))
	return c.idToken, nil
}

func (c *Client) resolve(path string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return c.APIURL + path
}

func (c *Client) isTenantURL(target string) bool {
	base, err := url.Parse(c.APIURL)
	if err != nil {
		return false
	}
	u, err := url.Parse(target)
	if err != nil {
		return false
	}
	return strings.EqualFold(u.Host, base.Host)
}

func truncate(s string) string {
	const limit = 512
	if len(s) <= limit {
		return s
	}
	return s[:limit] + "..."
}

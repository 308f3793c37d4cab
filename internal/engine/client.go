package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/tartampluch/go-saturdays/internal/config"
)

// APIError is returned for any non-2xx response of the backend.
type APIError struct {
	StatusCode int
	// Message is the backend-provided "message" field, empty if the body had none.
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("server returned unexpected status %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("server returned unexpected status %d", e.StatusCode)
}

// Client talks to the /alternate-saturdays endpoints of the backend.
type Client struct {
	BaseURL string
	Token   string
	HTTP    *http.Client
}

// NewClient creates a Client with configured timeouts.
func NewClient(baseURL, token string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Token:   token,
		HTTP: &http.Client{
			Timeout: config.HTTPTimeout,
		},
	}
}

// Load fetches the full collection of month records.
func (c *Client) Load(ctx context.Context) ([]MonthSaturdayRecord, error) {
	var env Envelope
	if err := c.do(ctx, http.MethodGet, nil, &env); err != nil {
		return nil, err
	}
	if env.AlternateSaturdays == nil {
		return []MonthSaturdayRecord{}, nil
	}
	return env.AlternateSaturdays, nil
}

// Replace sends the entire collection in one request. The backend replaces its
// stored collection with it; there is no partial save.
func (c *Client) Replace(ctx context.Context, records []MonthSaturdayRecord) error {
	if records == nil {
		records = []MonthSaturdayRecord{}
	}
	body, err := json.Marshal(Envelope{AlternateSaturdays: records})
	if err != nil {
		return fmt.Errorf("%s: %w", config.ErrEncodeRequest, err)
	}
	return c.do(ctx, http.MethodPost, body, nil)
}

// do performs one request against the collection endpoint and decodes the answer into out.
func (c *Client) do(ctx context.Context, method string, body []byte, out any) error {
	target := c.BaseURL + config.RouteSaturdays

	u, err := url.Parse(target)
	if err != nil {
		return fmt.Errorf("%s: %w", config.ErrInvalidURL, err)
	}
	if u.Scheme != config.SchemeHTTP && u.Scheme != config.SchemeHTTPS {
		return fmt.Errorf("%s: %s", config.ErrProtocol, u.Scheme)
	}

	// Query parameters might carry tokens; keep them out of the logs.
	safeURL := u.Scheme + "://" + u.Host + u.Path
	log := slog.With(
		slog.String(config.LogKeyComponent, config.CompClient),
		slog.String(config.LogKeyMethod, method),
		slog.String(config.LogKeyURL, safeURL),
	)

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return fmt.Errorf("%s: %w", config.ErrRequestBuild, err)
	}
	req.Header.Set(config.HeaderUserAgent, config.UserAgent)
	if body != nil {
		req.Header.Set(config.HeaderContentType, config.MimeJSON)
	}
	if c.Token != "" {
		req.Header.Set(config.HeaderAuthorization, config.BearerPrefix+c.Token)
	}

	httpClient := c.HTTP
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	log.Debug("Sending request")
	resp, err := httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", config.ErrNetwork, err)
	}
	defer func() { _ = resp.Body.Close() }()

	limited := io.LimitReader(resp.Body, config.MaxHTTPResponseSize)

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var msg struct {
			Message string `json:"message"`
		}
		if err := json.NewDecoder(limited).Decode(&msg); err == nil {
			apiErr.Message = strings.TrimSpace(msg.Message)
		}
		log.Warn(config.MsgServerError, slog.Int(config.LogKeyStatus, resp.StatusCode))
		return apiErr
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, limited)
		return nil
	}
	if err := json.NewDecoder(limited).Decode(out); err != nil {
		return fmt.Errorf("%s: %w", config.ErrDecodeResponse, err)
	}
	return nil
}

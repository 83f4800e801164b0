// Package whatsapp is the Messenger over the WhatsApp Cloud API. It also
// downloads inbound media so prescription photos can be read and forwarded.
package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"pharmadelivery/internal/core/ports"
)

const (
	DefaultBaseURL   = "https://graph.facebook.com/v21.0"
	defaultTimeout   = 15 * time.Second
	maxButtonTitle   = 20
	maxMediaBytes    = 10 << 20
	messagingProduct = "whatsapp"
	recipientType    = "individual"
)

// ErrEmptyResponse is returned when the API accepts a message without an id.
var ErrEmptyResponse = errors.New("whatsapp: response carries no message id")

// APIError is a non-2xx answer from the Graph API.
type APIError struct {
	StatusCode int
	Code       int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("whatsapp: HTTP %d (code %d): %s", e.StatusCode, e.Code, e.Message)
}

// Temporary reports whether retrying the same request later may succeed.
func (e *APIError) Temporary() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= http.StatusInternalServerError
}

type Config struct {
	BaseURL       string
	PhoneNumberID string
	AccessToken   string
	Timeout       time.Duration
}

// Client performs requests against one WhatsApp Business phone number.
type Client struct {
	httpClient    *http.Client
	baseURL       string
	phoneNumberID string
	token         string
	logger        *slog.Logger
}

var _ ports.Messenger = (*Client)(nil)

func NewClient(cfg Config, logger *slog.Logger) (*Client, error) {
	if cfg.PhoneNumberID == "" {
		return nil, errors.New("whatsapp: phone number id is required")
	}
	if cfg.AccessToken == "" {
		return nil, errors.New("whatsapp: access token is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultTimeout
	}

	return &Client{
		httpClient:    &http.Client{Timeout: cfg.Timeout},
		baseURL:       strings.TrimRight(cfg.BaseURL, "/"),
		phoneNumberID: cfg.PhoneNumberID,
		token:         cfg.AccessToken,
		logger:        logger.With("component", "whatsapp_client"),
	}, nil
}

func (c *Client) SendText(ctx context.Context, to, body string) (string, error) {
	return c.send(ctx, outbound{
		To:   to,
		Type: "text",
		Text: &textBody{Body: body},
	})
}

// SendImage accepts either a media id previously received from the API or an
// absolute URL.
func (c *Client) SendImage(ctx context.Context, to, mediaRef, caption string) (string, error) {
	img := &mediaBody{Caption: caption}
	if strings.HasPrefix(mediaRef, "http://") || strings.HasPrefix(mediaRef, "https://") {
		img.Link = mediaRef
	} else {
		img.ID = mediaRef
	}
	return c.send(ctx, outbound{To: to, Type: "image", Image: img})
}

func (c *Client) SendButtons(ctx context.Context, to, body string, buttons []ports.Button) (string, error) {
	if len(buttons) > ports.MaxButtons {
		return "", ports.ErrTooManyButtons
	}

	replies := make([]actionButton, 0, len(buttons))
	for _, b := range buttons {
		replies = append(replies, actionButton{
			Type:  "reply",
			Reply: replyButton{ID: b.ID, Title: truncate(b.Title, maxButtonTitle)},
		})
	}
	return c.send(ctx, outbound{
		To:   to,
		Type: "interactive",
		Interactive: &interactive{
			Type:   "button",
			Body:   textBody{Text: body},
			Action: action{Buttons: replies},
		},
	})
}

func (c *Client) send(ctx context.Context, msg outbound) (string, error) {
	msg.MessagingProduct = messagingProduct
	msg.RecipientType = recipientType

	var resp sendResponse
	if err := c.do(ctx, http.MethodPost, c.baseURL+"/"+c.phoneNumberID+"/messages", msg, &resp); err != nil {
		c.logger.WarnContext(ctx, "send failed", "to", msg.To, "type", msg.Type, "error", err)
		return "", err
	}
	if len(resp.Messages) == 0 || resp.Messages[0].ID == "" {
		return "", ErrEmptyResponse
	}
	return resp.Messages[0].ID, nil
}

// DownloadMedia resolves an inbound media id and fetches its bytes.
func (c *Client) DownloadMedia(ctx context.Context, mediaID string) ([]byte, string, error) {
	var meta mediaMeta
	if err := c.do(ctx, http.MethodGet, c.baseURL+"/"+mediaID, nil, &meta); err != nil {
		return nil, "", fmt.Errorf("resolve media %s: %w", mediaID, err)
	}
	if meta.URL == "" {
		return nil, "", fmt.Errorf("resolve media %s: no download url", mediaID)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, meta.URL, nil)
	if err != nil {
		return nil, "", err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("download media %s: %w", mediaID, err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return nil, "", apiError(res)
	}
	data, err := io.ReadAll(io.LimitReader(res.Body, maxMediaBytes+1))
	if err != nil {
		return nil, "", fmt.Errorf("download media %s: %w", mediaID, err)
	}
	if len(data) > maxMediaBytes {
		return nil, "", fmt.Errorf("download media %s: larger than %d bytes", mediaID, maxMediaBytes)
	}

	mime := meta.MimeType
	if mime == "" {
		mime = res.Header.Get("Content-Type")
	}
	return data, mime, nil
}

func (c *Client) do(ctx context.Context, method, url string, in, out any) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("whatsapp: marshal request: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return fmt.Errorf("whatsapp: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	res, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("whatsapp: %s %s: %w", method, req.URL.Path, err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return apiError(res)
	}
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return fmt.Errorf("whatsapp: decode response: %w", err)
	}
	return nil
}

func apiError(res *http.Response) *APIError {
	e := &APIError{StatusCode: res.StatusCode, Message: http.StatusText(res.StatusCode)}

	var body errorResponse
	if err := json.NewDecoder(io.LimitReader(res.Body, 64<<10)).Decode(&body); err == nil && body.Error.Message != "" {
		e.Code = body.Error.Code
		e.Message = body.Error.Message
	}
	return e
}

func truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return string(runes[:limit])
}

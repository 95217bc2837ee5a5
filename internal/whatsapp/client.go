// Package whatsapp is a thin client for the WhatsApp Business (Graph) API
// plus the webhook verification/parsing for inbound messages.
package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Button is a quick-reply button as the Graph API sees it.
type Button struct {
	ID    string
	Title string
}

const (
	maxButtons     = 3
	maxButtonTitle = 20
)

type Client struct {
	httpClient    *http.Client
	baseURL       string
	accessToken   string
	phoneNumberID string
}

// New builds a client from credentials resolved once at startup.
func New(baseURL, accessToken, phoneNumberID string) *Client {
	return &Client{
		httpClient:    &http.Client{Timeout: 15 * time.Second},
		baseURL:       strings.TrimRight(baseURL, "/"),
		accessToken:   accessToken,
		phoneNumberID: phoneNumberID,
	}
}

func (c *Client) messagesURL() string {
	return fmt.Sprintf("%s/%s/messages", c.baseURL, c.phoneNumberID)
}

// SendText sends a plain text message to an E.164 phone number.
func (c *Client) SendText(ctx context.Context, to, body string) error {
	payload := map[string]any{
		"messaging_product": "whatsapp",
		"to":                cleanPhone(to),
		"type":              "text",
		"text":              map[string]string{"body": body},
	}
	return c.post(ctx, payload)
}

// SendButtons sends an interactive button message. WhatsApp allows at most
// three buttons with 20-character titles; extras are truncated here so
// callers never have to care.
func (c *Client) SendButtons(ctx context.Context, to, body string, buttons []Button) error {
	if len(buttons) > maxButtons {
		buttons = buttons[:maxButtons]
	}
	btns := make([]map[string]any, 0, len(buttons))
	for _, b := range buttons {
		title := b.Title
		if len(title) > maxButtonTitle {
			title = title[:maxButtonTitle]
		}
		btns = append(btns, map[string]any{
			"type":  "reply",
			"reply": map[string]string{"id": b.ID, "title": title},
		})
	}

	payload := map[string]any{
		"messaging_product": "whatsapp",
		"to":                cleanPhone(to),
		"type":              "interactive",
		"interactive": map[string]any{
			"type":   "button",
			"body":   map[string]string{"text": body},
			"action": map[string]any{"buttons": btns},
		},
	}
	return c.post(ctx, payload)
}

// SendTemplate sends a pre-approved template message with body parameters.
func (c *Client) SendTemplate(ctx context.Context, to, name string, params []string) error {
	ps := make([]map[string]string, 0, len(params))
	for _, p := range params {
		ps = append(ps, map[string]string{"type": "text", "text": p})
	}
	payload := map[string]any{
		"messaging_product": "whatsapp",
		"to":                cleanPhone(to),
		"type":              "template",
		"template": map[string]any{
			"name":     name,
			"language": map[string]string{"code": "en"},
			"components": []map[string]any{
				{"type": "body", "parameters": ps},
			},
		},
	}
	return c.post(ctx, payload)
}

func (c *Client) post(ctx context.Context, payload any) error {
	b, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.messagesURL(), bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("whatsapp send: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("whatsapp send: status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return nil
}

// cleanPhone strips whitespace but keeps the + prefix (E.164).
func cleanPhone(phone string) string {
	return strings.Join(strings.Fields(phone), "")
}

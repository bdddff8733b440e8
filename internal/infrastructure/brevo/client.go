package brevo

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/turo-backend/internal/infrastructure/mail"
)

const defaultAPIURL = "https://api.brevo.com/v3/smtp/email"

// Client sends transactional email through the Brevo HTTP API.
type Client struct {
	apiKey     string
	fromEmail  string
	fromName   string
	apiURL     string
	httpClient *http.Client
}

func NewClient(apiKey, fromEmail, fromName string) *Client {
	return &Client{
		apiKey:     apiKey,
		fromEmail:  fromEmail,
		fromName:   fromName,
		apiURL:     defaultAPIURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

type contact struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type sendEmailReq struct {
	Sender      contact   `json:"sender"`
	To          []contact `json:"to"`
	Subject     string    `json:"subject"`
	HTMLContent string    `json:"htmlContent"`
	TextContent string    `json:"textContent,omitempty"`
}

func (c *Client) Send(ctx context.Context, msg mail.Message) error {
	if c.apiKey == "" {
		return errors.New("brevo api key not configured")
	}
	if msg.To == "" || msg.Subject == "" || msg.HTML == "" {
		return errors.New("recipient, subject and html content are required")
	}

	body, err := json.Marshal(sendEmailReq{
		Sender:      contact{Email: c.fromEmail, Name: c.fromName},
		To:          []contact{{Email: msg.To}},
		Subject:     msg.Subject,
		HTMLContent: msg.HTML,
		TextContent: msg.Text,
	})
	if err != nil {
		return fmt.Errorf("marshal brevo request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create brevo request: %w", err)
	}
	req.Header.Set("api-key", c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("brevo send: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errBody map[string]interface{}
		if decodeErr := json.NewDecoder(resp.Body).Decode(&errBody); decodeErr != nil {
			return fmt.Errorf("brevo api error: status %d", resp.StatusCode)
		}
		return fmt.Errorf("brevo api error: status %d, body: %v", resp.StatusCode, errBody)
	}
	return nil
}

// Package delivery sends rendered digests to subscribers through the Brevo
// transactional email API.
package delivery

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultBaseURL is the production Brevo API root.
const DefaultBaseURL = "https://api.brevo.com/v3"

// ErrMissingAPIKey indicates the client was constructed without credentials.
var ErrMissingAPIKey = errors.New("brevo API key is required")

// Message is one transactional email to a single recipient.
type Message struct {
	SenderName  string
	SenderEmail string
	To          string
	ToName      string
	Subject     string
	HTMLContent string
}

// Transport is the delivery capability the weekly job depends on.
type Transport interface {
	Send(ctx context.Context, msg Message) error
}

// Client talks to the Brevo SMTP API. HTTPClient may be swapped or tuned
// before first use.
type Client struct {
	HTTPClient *http.Client

	apiKey  string
	baseURL string
}

// NewClient creates a Brevo client. An empty baseURL selects the production
// endpoint.
func NewClient(apiKey, baseURL string) (*Client, error) {
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	return &Client{
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
		apiKey:     apiKey,
		baseURL:    baseURL,
	}, nil
}

type contact struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email"`
}

type sendRequest struct {
	Sender      contact   `json:"sender"`
	To          []contact `json:"to"`
	Subject     string    `json:"subject"`
	HTMLContent string    `json:"htmlContent"`
}

// Send posts one email. Brevo answers 201 when the message is accepted;
// every other status is an error carrying the response body.
func (c *Client) Send(ctx context.Context, msg Message) error {
	if msg.To == "" {
		return fmt.Errorf("recipient email is required")
	}

	payload := sendRequest{
		Sender:      contact{Name: msg.SenderName, Email: msg.SenderEmail},
		To:          []contact{{Name: msg.ToName, Email: msg.To}},
		Subject:     msg.Subject,
		HTMLContent: msg.HTMLContent,
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal email: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/smtp/email", bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("accept", "application/json")
	req.Header.Set("api-key", c.apiKey)
	req.Header.Set("content-type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("brevo returned status %d: %s", resp.StatusCode, string(body))
	}

	return nil
}

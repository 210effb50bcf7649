package newsletter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Message - одно письмо одному получателю.
type Message struct {
	ToEmail string
	ToName  string
	Subject string
	HTML    string
	Text    string
}

// Mailer доставляет письма.
type Mailer interface {
	Send(ctx context.Context, message Message) error
}

// BrevoClient отправляет транзакционные письма через Brevo SMTP API.
type BrevoClient struct {
	apiKey      string
	baseURL     string
	senderEmail string
	senderName  string
	httpClient  *http.Client
}

type brevoContact struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type brevoRequest struct {
	Sender      brevoContact   `json:"sender"`
	To          []brevoContact `json:"to"`
	Subject     string         `json:"subject"`
	HTMLContent string         `json:"htmlContent"`
	TextContent string         `json:"textContent,omitempty"`
}

type brevoError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// NewBrevoClient создает клиент Brevo с заданными параметрами.
func NewBrevoClient(apiKey, baseURL, senderEmail, senderName string, timeout time.Duration) *BrevoClient {
	return &BrevoClient{
		apiKey:      apiKey,
		baseURL:     strings.TrimRight(baseURL, "/"),
		senderEmail: senderEmail,
		senderName:  senderName,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Send отправляет письмо. Ответ вне диапазона 2xx возвращается как ошибка с сообщением Brevo.
func (c *BrevoClient) Send(ctx context.Context, message Message) error {
	if strings.TrimSpace(c.apiKey) == "" {
		return errors.New("brevo api key is missing")
	}

	if strings.TrimSpace(message.ToEmail) == "" {
		return errors.New("brevo message has no recipient")
	}

	request := brevoRequest{
		Sender:      brevoContact{Email: c.senderEmail, Name: c.senderName},
		To:          []brevoContact{{Email: message.ToEmail, Name: message.ToName}},
		Subject:     message.Subject,
		HTMLContent: message.HTML,
		TextContent: message.Text,
	}

	payload, err := json.Marshal(request)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/smtp/email", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("api-key", c.apiKey)

	response, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer response.Body.Close()

	body, err := io.ReadAll(response.Body)
	if err != nil {
		return err
	}

	if response.StatusCode < 200 || response.StatusCode >= 300 {
		var apiErr brevoError
		if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Message != "" {
			return fmt.Errorf("brevo api error: %s", apiErr.Message)
		}
		return fmt.Errorf("brevo api error: status %d: %s", response.StatusCode, strings.TrimSpace(string(body)))
	}

	return nil
}

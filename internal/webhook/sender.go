package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// GraphSender delivers messages through the Messenger Graph Send API.
type GraphSender struct {
	baseURL     string
	apiVersion  string
	accessToken string
	client      *http.Client
}

// NewGraphSender creates a sender for the given API version and page token.
func NewGraphSender(apiVersion, accessToken string) *GraphSender {
	return &GraphSender{
		baseURL:     "https://graph.facebook.com",
		apiVersion:  apiVersion,
		accessToken: accessToken,
		client:      &http.Client{Timeout: 10 * time.Second},
	}
}

type sendRequest struct {
	Recipient     participant `json:"recipient"`
	MessagingType string      `json:"messaging_type"`
	Message       message     `json:"message"`
}

// Send posts a RESPONSE-type message to the recipient.
func (s *GraphSender) Send(ctx context.Context, recipientID, text string) error {
	body, err := json.Marshal(sendRequest{
		Recipient:     participant{ID: recipientID},
		MessagingType: "RESPONSE",
		Message:       message{Text: text},
	})
	if err != nil {
		return fmt.Errorf("marshal send request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/%s/me/messages?access_token=%s",
		s.baseURL, s.apiVersion, url.QueryEscape(s.accessToken))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build send request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("graph api returned %d: %s", resp.StatusCode, snippet)
	}
	return nil
}

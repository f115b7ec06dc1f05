package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

const SLACK_POST_MESSAGE_URL = "https://slack.com/api/chat.postMessage"

type SlackNotificationService struct {
	SlackToken string
	Channel    string
	URL        string
	httpClient *http.Client
}

func NewSlackNotificationService(slackToken string, channel string) *SlackNotificationService {
	return &SlackNotificationService{
		SlackToken: slackToken,
		Channel:    channel,
		URL:        SLACK_POST_MESSAGE_URL,
		httpClient: &http.Client{},
	}
}

type SlackMessage struct {
	Channel string `json:"channel"`
	Text    string `json:"text"`
}

type slackResponse struct {
	Ok    bool   `json:"ok"`
	Error string `json:"error"`
}

func (s *SlackNotificationService) SendNotification(ctx context.Context, message string) error {
	msg := SlackMessage{
		Channel: s.Channel,
		Text:    message,
	}

	jsonPayload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %v", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", s.URL, bytes.NewBuffer(jsonPayload))
	if err != nil {
		return fmt.Errorf("failed to create new request: %v", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.SlackToken)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("received non-200 response: %v", resp.Status)
	}

	// Slack answers 200 even when the message is refused
	var answer slackResponse
	if err := json.NewDecoder(resp.Body).Decode(&answer); err != nil {
		return fmt.Errorf("failed to decode slack response: %v", err)
	}
	if !answer.Ok {
		return fmt.Errorf("slack refused the message: %s", answer.Error)
	}

	return nil
}

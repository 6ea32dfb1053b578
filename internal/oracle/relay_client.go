package oracle

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"spiritus-backend/internal/domain"
	"spiritus-backend/internal/models"
)

const maxErrorBody = 4 << 10

// RelayClient calls the chat relay over HTTP.
type RelayClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewRelayClient(baseURL string, httpClient *http.Client) *RelayClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 2 * time.Minute}
	}
	return &RelayClient{baseURL: baseURL, httpClient: httpClient}
}

// Chat posts one prompt. History is sent along but the relay answers each
// prompt on its own.
func (c *RelayClient) Chat(ctx context.Context, prompt string, history []models.ChatMessage, lang models.Language) (string, error) {
	body, err := json.Marshal(models.ChatRequest{Prompt: prompt, Lang: lang, History: history})
	if err != nil {
		return "", fmt.Errorf("encode chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &domain.UpstreamError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return "", &domain.UpstreamError{
			Status: resp.StatusCode,
			Body:   string(raw),
			Err:    fmt.Errorf("relay answered %s", resp.Status),
		}
	}

	var out models.ChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", &domain.UpstreamError{Status: resp.StatusCode, Err: fmt.Errorf("decode chat response: %w", err)}
	}
	return out.Response, nil
}

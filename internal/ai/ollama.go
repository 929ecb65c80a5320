package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	DefaultOllamaEndpoint = "http://localhost:11434"
	DefaultOllamaModel    = "llama3.2"
)

// Ollama talks to a local Ollama server over /api/chat.
type Ollama struct {
	Endpoint string
	Model    string
	client   *http.Client
}

// NewOllama builds an Ollama client. Empty endpoint and model use defaults.
func NewOllama(endpoint, model string) *Ollama {
	if endpoint == "" {
		endpoint = DefaultOllamaEndpoint
	}
	if model == "" {
		model = DefaultOllamaModel
	}
	return &Ollama{
		Endpoint: strings.TrimRight(endpoint, "/"),
		Model:    model,
		client:   &http.Client{Timeout: 3 * time.Minute},
	}
}

type ollamaRequest struct {
	Model    string         `json:"model"`
	Messages []Message      `json:"messages"`
	Stream   bool           `json:"stream"`
	Options  map[string]any `json:"options,omitempty"`
}

type ollamaResponse struct {
	Message *Message `json:"message"`
	Error   string   `json:"error"`
}

// Chat implements Model.
func (o *Ollama) Chat(ctx context.Context, messages []Message) (string, error) {
	body, err := json.Marshal(ollamaRequest{
		Model:    o.Model,
		Messages: messages,
		Stream:   false,
		Options:  map[string]any{"temperature": defaultTemperature},
	})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.Endpoint+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	log.Debug().Str("model", o.Model).Str("endpoint", o.Endpoint).Msg("ollama request")
	resp, err := o.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("ollama request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("ollama response: %w", err)
	}
	var out ollamaResponse
	if err := json.Unmarshal(data, &out); err != nil {
		return "", fmt.Errorf("ollama returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}
	if out.Error != "" {
		return "", fmt.Errorf("ollama error: %s", out.Error)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("ollama returned status %d", resp.StatusCode)
	}
	if out.Message == nil {
		return "", fmt.Errorf("ollama returned no message")
	}
	return out.Message.Content, nil
}

// Package ai asks a language model to analyse a system snapshot, extracts
// the shell commands it suggests and runs them after confirmation.
package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrMissingAPIKey is returned when a hosted provider has no key.
var ErrMissingAPIKey = errors.New("GEMINI_API_KEY is empty")

// Role is the author of a chat message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one turn of a conversation.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Model is a chat-completion backend.
type Model interface {
	Chat(ctx context.Context, messages []Message) (string, error)
}

// Provider names a Model implementation.
type Provider string

const (
	ProviderGemini Provider = "gemini"
	ProviderOllama Provider = "ollama"
)

// ModelConfig selects and configures a provider.
type ModelConfig struct {
	Provider Provider
	Model    string
	Endpoint string
	APIKey   string
}

// NewModel builds the Model for cfg.Provider.
func NewModel(cfg ModelConfig) (Model, error) {
	switch Provider(strings.ToLower(string(cfg.Provider))) {
	case ProviderGemini, "":
		if strings.TrimSpace(cfg.APIKey) == "" {
			return nil, fmt.Errorf("%w: export GEMINI_API_KEY=<your key> and try again", ErrMissingAPIKey)
		}
		return NewGemini(cfg.Endpoint, cfg.Model, cfg.APIKey), nil
	case ProviderOllama:
		return NewOllama(cfg.Endpoint, cfg.Model), nil
	default:
		return nil, fmt.Errorf("unknown provider %q (must be 'gemini' or 'ollama')", cfg.Provider)
	}
}

// ─── Conversation memory ─────────────────────────────────────────────────────

// Memory keeps the last K exchanges so follow-up requests carry context.
type Memory struct {
	K     int
	turns [][2]Message
}

// NewMemory returns a window of k exchanges.
func NewMemory(k int) *Memory {
	if k <= 0 {
		k = 3
	}
	return &Memory{K: k}
}

// Save appends one exchange, dropping the oldest beyond K.
func (m *Memory) Save(input, output string) {
	m.turns = append(m.turns, [2]Message{
		{Role: RoleUser, Content: input},
		{Role: RoleAssistant, Content: output},
	})
	if len(m.turns) > m.K {
		m.turns = m.turns[len(m.turns)-m.K:]
	}
}

// Messages returns the remembered exchanges oldest first.
func (m *Memory) Messages() []Message {
	out := make([]Message, 0, len(m.turns)*2)
	for _, t := range m.turns {
		out = append(out, t[0], t[1])
	}
	return out
}

// Len is the number of stored exchanges.
func (m *Memory) Len() int { return len(m.turns) }

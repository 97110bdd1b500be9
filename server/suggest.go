package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/model/ollama"
	"github.com/cloudwego/eino-ext/components/model/openai"
	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/existflow/taskdeck/internal/logger"
	"github.com/labstack/echo/v4"
)

const (
	ProviderOpenAI = "openai"
	ProviderOllama = "ollama"

	DefaultOllamaURL = "http://localhost:11434"

	maxSuggestions  = 8
	maxPromptLength = 500
)

// Suggester turns a prompt into subtask titles
type Suggester interface {
	Suggest(ctx context.Context, prompt string) ([]string, error)
}

// LLMConfig selects the chat model backing the suggestion generator
type LLMConfig struct {
	Provider string
	Model    string
	APIKey   string
	BaseURL  string
	Timeout  time.Duration
}

// NewChatModel creates an eino chat model for the configured provider
func NewChatModel(ctx context.Context, cfg LLMConfig) (einomodel.BaseChatModel, error) {
	switch cfg.Provider {
	case ProviderOpenAI:
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("OpenAI API key is required")
		}
		return openai.NewChatModel(ctx, &openai.ChatModelConfig{
			Model:   cfg.Model,
			APIKey:  cfg.APIKey,
			BaseURL: cfg.BaseURL,
			Timeout: cfg.Timeout,
		})

	case ProviderOllama:
		baseURL := cfg.BaseURL
		if baseURL == "" {
			baseURL = DefaultOllamaURL
		}
		return ollama.NewChatModel(ctx, &ollama.ChatModelConfig{
			BaseURL: baseURL,
			Model:   cfg.Model,
			Timeout: cfg.Timeout,
		})

	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s (supported: openai, ollama)", cfg.Provider)
	}
}

const systemPrompt = `You break a task down into short, concrete subtasks.
Reply with one subtask per line, in the order they should be done.
No numbering, no bullets, no extra commentary. At most 8 lines.`

// Generator produces suggestions with a chat model
type Generator struct {
	chat einomodel.BaseChatModel
}

// NewGenerator wraps a chat model
func NewGenerator(chat einomodel.BaseChatModel) *Generator {
	return &Generator{chat: chat}
}

func (g *Generator) Suggest(ctx context.Context, prompt string) ([]string, error) {
	resp, err := g.chat.Generate(ctx, []*schema.Message{
		schema.SystemMessage(systemPrompt),
		schema.UserMessage(prompt),
	})
	if err != nil {
		return nil, fmt.Errorf("generate: %w", err)
	}
	return parseSuggestions(resp.Content), nil
}

// parseSuggestions splits a model reply into clean subtask titles
func parseSuggestions(reply string) []string {
	out := []string{}
	for _, line := range strings.Split(reply, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimLeft(line, "-*•")
		line = trimNumbering(strings.TrimSpace(line))
		if line == "" {
			continue
		}
		out = append(out, line)
		if len(out) == maxSuggestions {
			break
		}
	}
	return out
}

// trimNumbering drops a leading "1." or "2)" marker
func trimNumbering(s string) string {
	i := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	if i == 0 || i == len(s) || (s[i] != '.' && s[i] != ')') {
		return s
	}
	return strings.TrimSpace(s[i+1:])
}

type suggestRequest struct {
	Prompt string `json:"prompt"`
}

type suggestResponse struct {
	Suggestions []string `json:"suggestions"`
}

var errNoSuggester = errors.New("suggestions are not configured")

func (s *Server) handleSuggestions(c echo.Context) error {
	if s.suggester == nil {
		s.metrics.suggestions.WithLabelValues("disabled").Inc()
		return echo.NewHTTPError(http.StatusServiceUnavailable, errNoSuggester.Error())
	}

	var req suggestRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	prompt := strings.TrimSpace(req.Prompt)
	if prompt == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "prompt is required")
	}
	if len(prompt) > maxPromptLength {
		return echo.NewHTTPError(http.StatusBadRequest, "prompt is too long")
	}

	suggestions, err := s.suggester.Suggest(c.Request().Context(), prompt)
	if err != nil {
		s.metrics.suggestions.WithLabelValues("error").Inc()
		logger.Error("Failed to generate suggestions", logger.F("error", err))
		return echo.NewHTTPError(http.StatusBadGateway, "failed to generate suggestions")
	}
	if suggestions == nil {
		suggestions = []string{}
	}

	s.metrics.suggestions.WithLabelValues("ok").Inc()
	return c.JSON(http.StatusOK, suggestResponse{Suggestions: suggestions})
}

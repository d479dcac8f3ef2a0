package backends

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackzampolin/storyboard/internal/providers"
)

// FromClient adapts a provider client to a Callable. Requests ask for a
// JSON object response.
func FromClient(client providers.LLMClient) Callable {
	return func(ctx context.Context, model, prompt, system string, _ time.Duration) (string, error) {
		messages := make([]providers.Message, 0, 2)
		if system != "" {
			messages = append(messages, providers.Message{Role: "system", Content: system})
		}
		messages = append(messages, providers.Message{Role: "user", Content: prompt})

		result, err := client.Chat(ctx, &providers.ChatRequest{
			Model:          model,
			Messages:       messages,
			ResponseFormat: providers.JSONObjectFormat,
		})
		if err != nil {
			return "", err
		}
		if result == nil || !result.Success {
			return "", fmt.Errorf("%s returned no content", client.Name())
		}
		return result.Content, nil
	}
}

// CategoryConfig binds a category to a registered provider.
type CategoryConfig struct {
	Provider   string
	Timeout    time.Duration
	FirstClass bool
}

// Config is the dispatch table built from configuration.
type Config struct {
	DefaultCategory string
	Rules           []Rule
	Categories      map[string]CategoryConfig
	Aliases         map[string]string
}

// NewDispatcherFromConfig builds a dispatcher whose categories call clients
// from reg. Categories whose provider is not registered are skipped with a
// warning, so binding a model in that category fails with ConfigurationError.
func NewDispatcherFromConfig(cfg Config, reg *providers.Registry, logger *slog.Logger) *Dispatcher {
	d := NewDispatcher(NewResolver(cfg.Rules, cfg.DefaultCategory), logger)
	d.SetAliases(cfg.Aliases)

	for name, cat := range cfg.Categories {
		client, err := reg.GetLLM(cat.Provider)
		if err != nil {
			d.logger.Warn("backend category unavailable", "category", name, "provider", cat.Provider, "error", err)
			continue
		}
		d.register(name, entry{
			call:       FromClient(client),
			timeout:    cat.Timeout,
			provider:   cat.Provider,
			firstClass: cat.FirstClass,
		})
	}
	return d
}

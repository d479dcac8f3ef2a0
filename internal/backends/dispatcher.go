package backends

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/jackzampolin/storyboard/internal/llmcall"
)

// Callable is a single text-generation call against one backend.
// Implementations must honor ctx; timeout is informational.
type Callable func(ctx context.Context, model, prompt, system string, timeout time.Duration) (string, error)

// DefaultTimeout applies to categories registered without one.
const DefaultTimeout = 5 * time.Minute

type entry struct {
	call       Callable
	timeout    time.Duration
	provider   string
	firstClass bool
}

// CategoryInfo describes a registered category.
type CategoryInfo struct {
	Name       string        `json:"name" yaml:"name"`
	Provider   string        `json:"provider,omitempty" yaml:"provider,omitempty"`
	Timeout    time.Duration `json:"timeout" yaml:"timeout"`
	FirstClass bool          `json:"first_class" yaml:"first_class"`
}

// Dispatcher owns the category → backend capability map.
type Dispatcher struct {
	mu       sync.RWMutex
	resolver *Resolver
	aliases  map[string]string
	entries  map[string]entry
	recorder *llmcall.Recorder
	logger   *slog.Logger
}

// NewDispatcher creates a dispatcher with no registered categories.
func NewDispatcher(resolver *Resolver, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		resolver: resolver,
		aliases:  make(map[string]string),
		entries:  make(map[string]entry),
		logger:   logger,
	}
}

// SetRecorder attaches a call log. A nil recorder disables recording.
func (d *Dispatcher) SetRecorder(rec *llmcall.Recorder) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.recorder = rec
}

// SetAliases replaces the model alias table (model tag → provider model id).
func (d *Dispatcher) SetAliases(aliases map[string]string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.aliases = make(map[string]string, len(aliases))
	for k, v := range aliases {
		d.aliases[k] = v
	}
}

// Register installs call as the backend for category.
func (d *Dispatcher) Register(category string, call Callable, timeout time.Duration) {
	d.register(category, entry{call: call, timeout: timeout})
}

func (d *Dispatcher) register(category string, e entry) {
	if e.timeout <= 0 {
		e.timeout = DefaultTimeout
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.entries[category] = e
	d.logger.Debug("registered backend category", "category", category, "timeout", e.timeout)
}

// Categories lists registered categories sorted by name.
func (d *Dispatcher) Categories() []CategoryInfo {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]CategoryInfo, 0, len(d.entries))
	for name, e := range d.entries {
		out = append(out, CategoryInfo{Name: name, Provider: e.provider, Timeout: e.timeout, FirstClass: e.firstClass})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Resolver returns the category resolver.
func (d *Dispatcher) Resolver() *Resolver {
	return d.resolver
}

// Bind resolves model once and returns a handle for repeated calls.
// An unregistered category yields a ConfigurationError.
func (d *Dispatcher) Bind(model string) (*Binding, error) {
	category := d.resolver.Resolve(model)

	d.mu.RLock()
	defer d.mu.RUnlock()

	e, ok := d.entries[category]
	if !ok {
		return nil, &ConfigurationError{Model: model, Category: category}
	}
	providerModel := model
	if alias, ok := d.aliases[model]; ok {
		providerModel = alias
	}
	return &Binding{
		Category:      category,
		Model:         model,
		ProviderModel: providerModel,
		Timeout:       e.timeout,
		call:          e.call,
		recorder:      d.recorder,
		logger:        d.logger,
	}, nil
}

// Invocation is one prompt sent through a Binding.
type Invocation struct {
	Key     string        // Prompt key for the call log
	RunID   string        // Optional run reference
	Prompt  string
	System  string
	Timeout time.Duration // Overrides the category timeout when > 0
}

// Binding is a model resolved to its backend.
type Binding struct {
	Category      string
	Model         string
	ProviderModel string
	Timeout       time.Duration

	call     Callable
	recorder *llmcall.Recorder
	logger   *slog.Logger
}

// Call performs a single invocation under the effective timeout.
// Failures are returned as *TransportError.
func (b *Binding) Call(ctx context.Context, inv Invocation) (string, error) {
	timeout := b.Timeout
	if inv.Timeout > 0 {
		timeout = inv.Timeout
	}

	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	out, err := b.call(callCtx, b.ProviderModel, inv.Prompt, inv.System, timeout)
	elapsed := time.Since(start)

	b.recorder.RecordCall(llmcall.NewCall(llmcall.RecordOptions{
		RunID:     inv.RunID,
		PromptKey: inv.Key,
		Category:  b.Category,
		Model:     b.ProviderModel,
	}, start, out, err))

	if err != nil {
		b.logger.Warn("backend call failed",
			"category", b.Category, "model", b.ProviderModel, "prompt_key", inv.Key,
			"duration", elapsed, "error", err)
		return "", &TransportError{Category: b.Category, Model: b.ProviderModel, Err: err}
	}

	b.logger.Debug("backend call complete",
		"category", b.Category, "model", b.ProviderModel, "prompt_key", inv.Key,
		"duration", elapsed, "response_len", len(out))
	return out, nil
}

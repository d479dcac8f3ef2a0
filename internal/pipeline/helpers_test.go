package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jackzampolin/storyboard/internal/backends"
	"github.com/jackzampolin/storyboard/internal/prompts"
	"github.com/jackzampolin/storyboard/internal/prompts/shots"
	"github.com/jackzampolin/storyboard/internal/prompts/split"
)

var errNetwork = errors.New("connection reset by peer")

// backendCall is one recorded invocation of the scripted backend.
type backendCall struct {
	Model  string
	Prompt string
	System string
	ctx    context.Context
}

// isSplit reports whether the call is a section-split request.
func (c backendCall) isSplit() bool {
	return strings.Contains(c.Prompt, "Split the screenplay above")
}

var chunkPattern = regexp.MustCompile(`Generate shots for section (\d+) of (\d+)`)
var startPattern = regexp.MustCompile(`The first shot_number must be (\d+)`)

// chunk returns the 0-based chunk index of a shot request.
func (c backendCall) chunk() int {
	m := chunkPattern.FindStringSubmatch(c.Prompt)
	if m == nil {
		return -1
	}
	n, _ := strconv.Atoi(m[1])
	return n - 1
}

// start returns the requested first shot number of a shot request.
func (c backendCall) start() int {
	m := startPattern.FindStringSubmatch(c.Prompt)
	if m == nil {
		return -1
	}
	n, _ := strconv.Atoi(m[1])
	return n
}

// scriptedBackend answers calls with a handler and records them.
type scriptedBackend struct {
	mu      sync.Mutex
	calls   []backendCall
	handler func(n int, c backendCall) (string, error)
}

func (s *scriptedBackend) callable() backends.Callable {
	return func(ctx context.Context, model, prompt, system string, timeout time.Duration) (string, error) {
		c := backendCall{Model: model, Prompt: prompt, System: system, ctx: ctx}
		s.mu.Lock()
		s.calls = append(s.calls, c)
		n := len(s.calls)
		s.mu.Unlock()
		return s.handler(n, c)
	}
}

func (s *scriptedBackend) recorded() []backendCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]backendCall, len(s.calls))
	copy(out, s.calls)
	return out
}

func (s *scriptedBackend) chunkCalls() []backendCall {
	var out []backendCall
	for _, c := range s.recorded() {
		if !c.isSplit() {
			out = append(out, c)
		}
	}
	return out
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestDispatcher(b *scriptedBackend) *backends.Dispatcher {
	d := backends.NewDispatcher(backends.NewResolver([]backends.Rule{{Prefix: "claude", Category: "claude"}}, "claude"), discardLogger())
	d.Register("claude", b.callable(), time.Minute)
	return d
}

func newTestPipeline(b *scriptedBackend) *Pipeline {
	return New(Config{
		Dispatcher:   newTestDispatcher(b),
		DefaultModel: "claude-sonnet-4-5",
		RetryDelay:   time.Millisecond,
		Logger:       discardLogger(),
	})
}

func newTestResolver() *prompts.Resolver {
	r := prompts.NewResolver("", discardLogger())
	split.RegisterPrompts(r)
	shots.RegisterPrompts(r)
	return r
}

func bindTest(t *testing.T, b *scriptedBackend) *backends.Binding {
	t.Helper()
	binding, err := newTestDispatcher(b).Bind("claude-sonnet-4-5")
	if err != nil {
		t.Fatalf("Bind() error = %v", err)
	}
	return binding
}

// shotsJSON renders a chunk response of n shots numbered by number(i).
func shotsJSON(n int, number func(i int) int, dialogue func(i int) string) string {
	items := make([]map[string]any, n)
	for i := range items {
		items[i] = map[string]any{
			"shot_number":     number(i),
			"voice_character": "Alice",
			"emotion":         "neutral",
			"intensity":       "moderate",
			"assets":          "@Alice",
			"dialogue":        dialogue(i),
			"fusion_prompt":   "medium shot, image one at the counter, warm light, cinematic",
			"motion_prompt":   "static || image one speaks, mouth opening and closing",
		}
	}
	b, _ := json.Marshal(map[string]any{"shots": items})
	return string(b)
}

// numberedFrom returns shot numbering that starts at start.
func numberedFrom(start int) func(int) int {
	return func(i int) int { return start + i }
}

func lineN(prefix string) func(int) string {
	return func(i int) string { return fmt.Sprintf("%s line %d", prefix, i+1) }
}

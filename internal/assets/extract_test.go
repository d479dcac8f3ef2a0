package assets

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/jackzampolin/storyboard/internal/backends"
	"github.com/jackzampolin/storyboard/internal/pipeline"
)

const catalogResponse = "```json\n" + `{
  "characters": [
    {"name": "**Mara**", "description": "keeper of the lighthouse", "gender": "female", "age": "elderly", "voice": "husky", "role": "lead", "importance": 9},
    {"name": "Fisherman", "description": "passer-by", "importance": 2},
    {"name": "mara", "description": "duplicate", "importance": 7}
  ],
  "props": [
    {"name": "Brass Lamp", "description": "the lighthouse lamp", "importance": 8},
    {"name": "Cup", "importance": 4}
  ],
  "scenes": [
    {"name": "Lamp Room", "description": "glass walls, night", "importance": 6}
  ]
}` + "\n```"

type call struct {
	model, prompt, system string
}

func newExtractor(t *testing.T, respond func() (string, error)) (*Extractor, *[]call) {
	t.Helper()
	var calls []call
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	d := backends.NewDispatcher(backends.NewResolver([]backends.Rule{{Prefix: "claude", Category: "claude"}}, "claude"), logger)
	d.Register("claude", func(ctx context.Context, model, prompt, system string, timeout time.Duration) (string, error) {
		calls = append(calls, call{model, prompt, system})
		return respond()
	}, time.Minute)
	return NewExtractor(Config{Dispatcher: d, DefaultModel: "claude-sonnet-4-5", Logger: logger}), &calls
}

func TestExtract(t *testing.T) {
	e, calls := newExtractor(t, func() (string, error) { return catalogResponse, nil })

	cat, err := e.Extract(context.Background(), "INT. LAMP ROOM - NIGHT\nMARA: Light it.", 3, "")
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}

	if len(cat.Characters) != 1 {
		t.Fatalf("characters = %+v", cat.Characters)
	}
	mara := cat.Characters[0]
	if mara.Name != "Mara" || mara.Voice != "husky" || mara.Role != "lead" || mara.Importance != 9 {
		t.Errorf("Mara = %+v", mara)
	}
	if len(cat.Props) != 1 || cat.Props[0].Name != "Brass Lamp" {
		t.Errorf("props = %+v", cat.Props)
	}
	if len(cat.Scenes) != 1 || cat.Scenes[0].Tag() != "@LampRoom" {
		t.Errorf("scenes = %+v", cat.Scenes)
	}

	if len(*calls) != 1 {
		t.Fatalf("calls = %d, want 1", len(*calls))
	}
	c := (*calls)[0]
	if c.model != "claude-sonnet-4-5" {
		t.Errorf("model = %q", c.model)
	}
	if !strings.Contains(c.prompt, "# Episode 3") || !strings.Contains(c.prompt, "MARA: Light it.") {
		t.Errorf("prompt = %q", c.prompt)
	}
	if !strings.Contains(c.system, "importance >= 5") {
		t.Errorf("system prompt missing importance threshold")
	}
}

func TestExtract_Errors(t *testing.T) {
	t.Run("empty text", func(t *testing.T) {
		e, calls := newExtractor(t, func() (string, error) { return "{}", nil })
		if _, err := e.Extract(context.Background(), " \n", 1, ""); !errors.Is(err, ErrEmptyText) {
			t.Errorf("err = %v", err)
		}
		if len(*calls) != 0 {
			t.Error("no call expected")
		}
	})

	t.Run("unparseable response is not retried", func(t *testing.T) {
		e, calls := newExtractor(t, func() (string, error) { return "I could not find any assets.", nil })
		_, err := e.Extract(context.Background(), "text", 1, "")
		var pe *pipeline.ParseError
		if !errors.As(err, &pe) || pe.Stage != "assets" {
			t.Fatalf("err = %v, want assets ParseError", err)
		}
		if len(*calls) != 1 {
			t.Errorf("calls = %d", len(*calls))
		}
	})

	t.Run("wrong shape", func(t *testing.T) {
		e, _ := newExtractor(t, func() (string, error) { return `{"characters": []}`, nil })
		var pe *pipeline.ParseError
		if _, err := e.Extract(context.Background(), "text", 1, ""); !errors.As(err, &pe) {
			t.Errorf("err = %v, want ParseError", err)
		}
	})

	t.Run("transport", func(t *testing.T) {
		e, calls := newExtractor(t, func() (string, error) { return "", errors.New("timeout") })
		_, err := e.Extract(context.Background(), "text", 1, "")
		if !backends.IsTransport(err) {
			t.Errorf("err = %v, want TransportError", err)
		}
		if len(*calls) != 1 {
			t.Errorf("calls = %d, want single attempt", len(*calls))
		}
	})

	t.Run("unregistered category", func(t *testing.T) {
		e, _ := newExtractor(t, func() (string, error) { return "{}", nil })
		d := backends.NewDispatcher(backends.NewResolver(nil, "gemini"), nil)
		e.dispatcher = d
		if _, err := e.Extract(context.Background(), "text", 1, "gemini-2.5-pro"); !backends.IsConfiguration(err) {
			t.Errorf("err = %v, want ConfigurationError", err)
		}
	})
}

package split

import (
	"strings"
	"testing"

	"github.com/jackzampolin/storyboard/internal/prompts"
	"github.com/jackzampolin/storyboard/internal/types"
)

func TestPrompts(t *testing.T) {
	r := prompts.NewResolver("", nil)
	RegisterPrompts(r)

	doc := types.Document{
		Title:     "Pilot",
		Text:      "INT. OFFICE - NIGHT",
		Narrative: &types.NarrativeContext{EmotionalBeats: []string{"dread", "relief"}},
	}
	data := NewData(doc, 4)

	system, err := r.Render(SystemPromptKey, data)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(system, "exactly 4 consecutive sections") {
		t.Errorf("system prompt = %s", system)
	}

	user, err := r.Render(UserPromptKey, data)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"# Screenplay: Pilot", "INT. OFFICE - NIGHT", "- dread", "- relief"} {
		if !strings.Contains(user, want) {
			t.Errorf("user prompt missing %q\n%s", want, user)
		}
	}

	plain, err := r.Render(UserPromptKey, NewData(types.Document{Text: "x", Narrative: &types.NarrativeContext{}}, 2))
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(plain, "Narrative context") {
		t.Error("empty narrative should be omitted")
	}
}

func TestSchema(t *testing.T) {
	if err := Schema.ValidateJSON([]byte(`{"sections":["a","b"]}`)); err != nil {
		t.Errorf("valid document rejected: %v", err)
	}
	for _, doc := range []string{`{"sections":[]}`, `{"sections":[1,2]}`, `{}`} {
		if err := Schema.ValidateJSON([]byte(doc)); err == nil {
			t.Errorf("%s: expected validation error", doc)
		}
	}
}

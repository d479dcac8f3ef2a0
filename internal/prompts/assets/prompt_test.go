package assets

import (
	"strings"
	"testing"

	"github.com/jackzampolin/storyboard/internal/prompts"
)

func TestPrompts(t *testing.T) {
	r := prompts.NewResolver("", nil)
	RegisterPrompts(r)

	data := Data{Episode: 2, Title: "The Storm", Text: "EXT. PIER - DAY", MinImportance: MinImportance}
	user, err := r.Render(UserPromptKey, data)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(user, "# Episode 2: The Storm\nEXT. PIER - DAY") {
		t.Errorf("user prompt = %q", user)
	}

	system, err := r.Render(SystemPromptKey, data)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(system, "importance >= 5") {
		t.Errorf("system prompt missing threshold")
	}
}

func TestSchema(t *testing.T) {
	tests := []struct {
		name    string
		json    string
		wantErr bool
	}{
		{"valid", `{"characters":[{"name":"Mara","importance":9,"voice":"husky"}],"props":[],"scenes":[]}`, false},
		{"missing section", `{"characters":[],"props":[]}`, true},
		{"blank name", `{"characters":[{"name":""}],"props":[],"scenes":[]}`, true},
		{"importance out of range", `{"characters":[],"props":[{"name":"Cup","importance":11}],"scenes":[]}`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Schema.ValidateJSON([]byte(tt.json))
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateJSON() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

package cleaner

import (
	"encoding/json"
	"testing"
)

func TestClean(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{
			name: "plain object",
			raw:  `{"shots":[]}`,
			want: `{"shots":[]}`,
		},
		{
			name: "json fence",
			raw:  "```json\n{\"shots\":[]}\n```",
			want: `{"shots":[]}`,
		},
		{
			name: "bare fence",
			raw:  "```\n{\"a\":1}\n```",
			want: `{"a":1}`,
		},
		{
			name: "reasoning block",
			raw:  "<think>the user wants {x} shots</think>\n{\"a\":1}",
			want: `{"a":1}`,
		},
		{
			name: "unterminated reasoning block at end",
			raw:  "{\"a\":1}\n<thinking>trailing {",
			want: `{"a":1}`,
		},
		{
			name: "unterminated reasoning block before object",
			raw:  "<think>the user wants shots",
			want: "",
		},
		{
			name: "unterminated trailing block with a brace",
			raw:  "{\"a\":1}\n<think>maybe add } later",
			want: `{"a":1}`,
		},
		{
			name: "think tag inside a string value",
			raw:  `{"dialogue":"She types <think> into the terminal.","n":1}`,
			want: `{"dialogue":"She types <think> into the terminal.","n":1}`,
		},
		{
			name: "byte order mark",
			raw:  "\ufeff{\"a\":1}",
			want: `{"a":1}`,
		},
		{
			name: "surrounding prose",
			raw:  "Here is the result:\n{\"a\":{\"b\":2}}\nLet me know if you need changes.",
			want: `{"a":{"b":2}}`,
		},
		{
			name: "no object",
			raw:  "  sorry, I cannot help  ",
			want: "sorry, I cannot help",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Clean(tt.raw); got != tt.want {
				t.Errorf("Clean() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestClean_CombinedNoiseParses(t *testing.T) {
	raw := "Sure! Here you go.\n" +
		"```json\n" +
		"<think>Chunk starts at 41, keep order.</think>\n" +
		`{"shots":[{"shot_number":41,"voice_character":"Lin","emotion":"sad","intensity":"weak","assets":"@Lin","dialogue":"Hello","fusion_prompt":"a","motion_prompt":"b"}]}` +
		"\n```\nHope this helps."

	cleaned := Clean(raw)

	var parsed struct {
		Shots []map[string]any `json:"shots"`
	}
	if err := json.Unmarshal([]byte(cleaned), &parsed); err != nil {
		t.Fatalf("cleaned output is not valid JSON: %v\n%s", err, cleaned)
	}
	if len(parsed.Shots) != 1 {
		t.Fatalf("expected 1 shot, got %d", len(parsed.Shots))
	}
	if parsed.Shots[0]["voice_character"] != "Lin" {
		t.Errorf("voice_character = %v", parsed.Shots[0]["voice_character"])
	}
}

func TestStripDecoration(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"**bold** text", "bold text"},
		{"__under__", "under"},
		{"[close-up] face", "close-up face"},
		{"【近景】人物", "近景人物"},
		{"［full-width］", "full-width"},
		{"`code` and *star*", "code and star"},
		{"keeps snake_case", "keeps snake_case"},
		{"camera push in || she turns, mouth closed", "camera push in || she turns, mouth closed"},
	}

	for _, tt := range tests {
		if got := StripDecoration(tt.in); got != tt.want {
			t.Errorf("StripDecoration(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestStripLeaves(t *testing.T) {
	var doc any
	if err := json.Unmarshal([]byte(`{"shots":[{"dialogue":"**hi**","n":3,"tags":["[a]","b"]}]}`), &doc); err != nil {
		t.Fatal(err)
	}

	StripLeaves(doc)

	shot := doc.(map[string]any)["shots"].([]any)[0].(map[string]any)
	if shot["dialogue"] != "hi" {
		t.Errorf("dialogue = %v", shot["dialogue"])
	}
	if shot["n"] != float64(3) {
		t.Errorf("non-string leaf changed: %v", shot["n"])
	}
	tags := shot["tags"].([]any)
	if tags[0] != "a" || tags[1] != "b" {
		t.Errorf("tags = %v", tags)
	}
}

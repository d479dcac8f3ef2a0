package providers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"google.golang.org/genai"
)

func newTestGemini(t *testing.T, handler http.HandlerFunc) *GeminiClient {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewGeminiClient(context.Background(), GeminiConfig{
		APIKey:     "test-key",
		BaseURL:    server.URL,
		HTTPClient: server.Client(),
	})
	if err != nil {
		t.Fatalf("NewGeminiClient() error = %v", err)
	}
	return client
}

func TestGeminiClient_Chat(t *testing.T) {
	t.Run("successful chat", func(t *testing.T) {
		var body map[string]any
		var path, key string
		client := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
			path = r.URL.Path
			key = r.Header.Get("x-goog-api-key")
			json.NewDecoder(r.Body).Decode(&body)

			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]any{
				"candidates": []map[string]any{{
					"content": map[string]any{
						"role": "model",
						"parts": []map[string]any{
							{"text": "thinking about shots", "thought": true},
							{"text": `{"shots":`},
							{"text": `[]}`},
						},
					},
					"finishReason": "STOP",
				}},
				"usageMetadata": map[string]int{
					"promptTokenCount":     7,
					"candidatesTokenCount": 4,
					"totalTokenCount":      11,
				},
				"modelVersion": "gemini-2.5-pro-001",
			})
		})
		if client.Name() != "gemini" {
			t.Errorf("Name() = %q", client.Name())
		}

		result, err := client.Chat(context.Background(), &ChatRequest{
			Messages: []Message{
				{Role: "system", Content: "sys"},
				{Role: "user", Content: "hi"},
			},
			ResponseFormat: JSONObjectFormat,
		})
		if err != nil {
			t.Fatalf("Chat() error = %v", err)
		}

		if !strings.HasSuffix(path, "models/gemini-2.5-pro:generateContent") {
			t.Errorf("path = %s, want default model", path)
		}
		if key != "test-key" {
			t.Errorf("api key header = %q", key)
		}
		if result.Content != `{"shots":[]}` {
			t.Errorf("Content = %q, want thought part skipped", result.Content)
		}
		if !result.Success || result.ModelUsed != "gemini-2.5-pro-001" {
			t.Errorf("result = %+v", result)
		}
		if result.PromptTokens != 7 || result.CompletionTokens != 4 || result.TotalTokens != 11 {
			t.Errorf("tokens = %d/%d/%d", result.PromptTokens, result.CompletionTokens, result.TotalTokens)
		}

		sys, _ := body["systemInstruction"].(map[string]any)
		sysParts, _ := sys["parts"].([]any)
		if len(sysParts) != 1 || sysParts[0].(map[string]any)["text"] != "sys" {
			t.Errorf("systemInstruction = %v", body["systemInstruction"])
		}
		contents, _ := body["contents"].([]any)
		if len(contents) != 1 || !strings.Contains(mustJSON(t, contents[0]), `"hi"`) || strings.Contains(mustJSON(t, contents), `"sys"`) {
			t.Errorf("contents = %v", body["contents"])
		}
		gen, _ := body["generationConfig"].(map[string]any)
		if gen["responseMimeType"] != "application/json" {
			t.Errorf("generationConfig = %v", body["generationConfig"])
		}
	})

	t.Run("plain text request", func(t *testing.T) {
		var body map[string]any
		client := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
			json.NewDecoder(r.Body).Decode(&body)
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"candidates":[{"content":{"role":"model","parts":[{"text":"ok"}]}}]}`))
		})

		result, err := client.Chat(context.Background(), &ChatRequest{
			Model:    "gemini-2.0-flash",
			Messages: []Message{{Role: "user", Content: "hi"}},
		})
		if err != nil {
			t.Fatalf("Chat() error = %v", err)
		}
		if result.ModelUsed != "gemini-2.0-flash" {
			t.Errorf("ModelUsed = %q", result.ModelUsed)
		}
		if _, ok := body["systemInstruction"]; ok {
			t.Error("no system instruction expected")
		}
		if gen, _ := body["generationConfig"].(map[string]any); gen["responseMimeType"] != nil {
			t.Errorf("responseMimeType = %v", gen["responseMimeType"])
		}
	})

	t.Run("no candidates", func(t *testing.T) {
		client := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"candidates":[]}`))
		})
		result, err := client.Chat(context.Background(), &ChatRequest{Messages: []Message{{Role: "user", Content: "hi"}}})
		if err == nil || !strings.Contains(err.Error(), "no candidates") {
			t.Fatalf("err = %v", err)
		}
		if result.Success || result.ErrorType != "empty_response" {
			t.Errorf("result = %+v", result)
		}
	})

	t.Run("api error", func(t *testing.T) {
		client := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"error":{"code":400,"message":"API key not valid","status":"INVALID_ARGUMENT"}}`))
		})
		result, err := client.Chat(context.Background(), &ChatRequest{Messages: []Message{{Role: "user", Content: "hi"}}})
		if err == nil {
			t.Fatal("expected error")
		}
		if result.Success || result.ErrorType != "http_error" {
			t.Errorf("result = %+v", result)
		}
	})
}

func TestGetResponseText(t *testing.T) {
	tests := []struct {
		name    string
		resp    *genai.GenerateContentResponse
		want    string
		wantErr string
	}{
		{name: "nil response", resp: nil, wantErr: "no candidates"},
		{name: "no candidates", resp: &genai.GenerateContentResponse{}, wantErr: "no candidates"},
		{
			name:    "no content",
			resp:    &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{FinishReason: genai.FinishReasonSafety}}},
			wantErr: "finish_reason=SAFETY",
		},
		{
			name: "only thoughts",
			resp: &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{
				Content:      &genai.Content{Parts: []*genai.Part{{Text: "hmm", Thought: true}}},
				FinishReason: genai.FinishReasonMaxTokens,
			}}},
			wantErr: "no text parts",
		},
		{
			name: "joins text parts",
			resp: &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{
				Content: &genai.Content{Parts: []*genai.Part{{Text: "a"}, nil, {Text: "plan", Thought: true}, {Text: "b"}}},
			}}},
			want: "ab",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := getResponseText(tt.resp)
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Errorf("err = %v, want %q", err, tt.wantErr)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Errorf("getResponseText() = %q, %v", got, err)
			}
		})
	}
}

func mustJSON(t *testing.T, v any) string {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatal(err)
	}
	return string(b)
}

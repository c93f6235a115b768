package llm_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"subfix/internal/services/llm"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, opts ...llm.Option) *llm.Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	base := []llm.Option{llm.WithSleeper(func(time.Duration) {})}
	base = append(base, opts...)
	return llm.NewClient(llm.Config{
		APIKey:  "test-key",
		BaseURL: server.URL,
		Model:   "test-model",
	}, base...)
}

func completionBody(content string) string {
	payload := map[string]any{
		"choices": []map[string]any{
			{"message": map[string]any{"content": content}},
		},
	}
	encoded, _ := json.Marshal(payload)
	return string(encoded)
}

func TestCompleteJSONReturnsContent(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("missing auth header")
		}
		fmt.Fprint(w, completionBody(`{"ok":true}`))
	})

	content, err := client.CompleteJSON(context.Background(), "system", "user")
	if err != nil {
		t.Fatalf("CompleteJSON failed: %v", err)
	}
	if content != `{"ok":true}` {
		t.Fatalf("unexpected content: %s", content)
	}
}

func TestCompleteJSONRequiresPrompts(t *testing.T) {
	client := llm.NewClient(llm.Config{APIKey: "k"})
	if _, err := client.CompleteJSON(context.Background(), "", "user"); err == nil {
		t.Fatal("expected error for empty system prompt")
	}
	if _, err := client.CompleteJSON(context.Background(), "system", ""); err == nil {
		t.Fatal("expected error for empty user prompt")
	}
}

func TestCompleteAudioJSONSendsInputAudioPart(t *testing.T) {
	var captured map[string]any
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &captured); err != nil {
			t.Errorf("decode request: %v", err)
		}
		fmt.Fprint(w, completionBody(`[]`))
	})

	if _, err := client.CompleteAudioJSON(context.Background(), "system", "user", []byte("RIFF"), "wav"); err != nil {
		t.Fatalf("CompleteAudioJSON failed: %v", err)
	}

	messages, ok := captured["messages"].([]any)
	if !ok || len(messages) != 2 {
		t.Fatalf("unexpected messages: %#v", captured["messages"])
	}
	user := messages[1].(map[string]any)
	parts, ok := user["content"].([]any)
	if !ok || len(parts) != 2 {
		t.Fatalf("expected two content parts, got %#v", user["content"])
	}
	audioPart := parts[1].(map[string]any)
	if audioPart["type"] != "input_audio" {
		t.Fatalf("unexpected part type: %v", audioPart["type"])
	}
}

func TestRetryOnServerError(t *testing.T) {
	calls := 0
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		fmt.Fprint(w, completionBody(`{"ok":true}`))
	})

	if _, err := client.CompleteJSON(context.Background(), "system", "user"); err != nil {
		t.Fatalf("expected retry to succeed, got %v", err)
	}
	if calls != 3 {
		t.Fatalf("expected 3 calls, got %d", calls)
	}
}

func TestNoRetryOnClientError(t *testing.T) {
	calls := 0
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadRequest)
	})

	if _, err := client.CompleteJSON(context.Background(), "system", "user"); err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Fatalf("expected a single call, got %d", calls)
	}
}

func TestDecodeJSONHandlesCodeFences(t *testing.T) {
	cases := []struct {
		name    string
		payload string
	}{
		{"plain", `{"value":1}`},
		{"fenced", "```json\n{\"value\":1}\n```"},
		{"prose wrapped", "Here is the result: {\"value\":1} done."},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var out struct {
				Value int `json:"value"`
			}
			if err := llm.DecodeJSON(tc.payload, &out); err != nil {
				t.Fatalf("DecodeJSON failed: %v", err)
			}
			if out.Value != 1 {
				t.Fatalf("unexpected value: %d", out.Value)
			}
		})
	}
}

func TestDecodeJSONPrefersArrayExtraction(t *testing.T) {
	var out []int
	if err := llm.DecodeJSON("The anomalies are [1,2,3].", &out); err != nil {
		t.Fatalf("DecodeJSON failed: %v", err)
	}
	if len(out) != 3 {
		t.Fatalf("unexpected slice: %v", out)
	}
}

func TestDecodeJSONRejectsGarbage(t *testing.T) {
	var out map[string]any
	err := llm.DecodeJSON("not json at all", &out)
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "payload snippet") {
		t.Fatalf("expected snippet in error, got %v", err)
	}
}

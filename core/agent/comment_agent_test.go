package agent

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newTestAgent(t *testing.T, handler http.HandlerFunc) *CommentAgent {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewCommentAgentWithClient(&CommentAgentConfig{
		APIBaseURL: srv.URL,
		APIKey:     "test-key",
		Model:      "test-model",
		MaxTokens:  100,
	}, srv.Client())
}

func completionResponse(content string) string {
	resp := map[string]any{
		"choices": []map[string]any{
			{"message": map[string]string{"role": "assistant", "content": content}},
		},
	}
	b, _ := json.Marshal(resp)
	return string(b)
}

func TestGenerateTrackComment(t *testing.T) {
	var captured chatRequest
	agent := newTestAgent(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("Authorization = %q", got)
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Fatal(err)
		}
		w.Write([]byte(completionResponse("  great track!  ")))
	})

	comment, err := agent.GenerateTrackComment(context.Background(), "Nightcall", "Kavinsky", "synthwave, electronic", "")
	if err != nil {
		t.Fatal(err)
	}
	if comment != "great track!" {
		t.Errorf("comment = %q, should be trimmed", comment)
	}

	if captured.Model != "test-model" {
		t.Errorf("model = %q", captured.Model)
	}
	if captured.MaxTokens != 100 {
		t.Errorf("max_tokens = %d", captured.MaxTokens)
	}
	if len(captured.Messages) != 2 || captured.Messages[0].Role != "system" {
		t.Fatalf("messages = %+v", captured.Messages)
	}
	user := captured.Messages[1].Content
	for _, want := range []string{"Nightcall", "Kavinsky", "synthwave, electronic"} {
		if !strings.Contains(user, want) {
			t.Errorf("user content missing %q:\n%s", want, user)
		}
	}
	// Empty custom prompt falls back to the generic focus.
	if !strings.Contains(user, "What would a music fan think about Nightcall by Kavinsky?") {
		t.Errorf("default focus missing:\n%s", user)
	}
}

func TestGenerateTrackCommentCustomPrompt(t *testing.T) {
	var captured chatRequest
	agent := newTestAgent(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&captured)
		w.Write([]byte(completionResponse("ok")))
	})

	if _, err := agent.GenerateTrackComment(context.Background(), "Song", "Artist", "", "Mention the bassline"); err != nil {
		t.Fatal(err)
	}
	user := captured.Messages[1].Content
	if !strings.Contains(user, "Specific focus: Mention the bassline") {
		t.Errorf("custom focus missing:\n%s", user)
	}
	if strings.Contains(user, "Track tags:") {
		t.Errorf("empty tags should be omitted:\n%s", user)
	}
}

func TestGenerateArtistComment(t *testing.T) {
	var captured chatRequest
	agent := newTestAgent(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&captured)
		w.Write([]byte(completionResponse("love this artist")))
	})

	longBio := strings.Repeat("x", 300)
	comment, err := agent.GenerateArtistComment(context.Background(), "Kavinsky", longBio, 7, "")
	if err != nil {
		t.Fatal(err)
	}
	if comment != "love this artist" {
		t.Errorf("comment = %q", comment)
	}

	user := captured.Messages[1].Content
	if !strings.Contains(user, strings.Repeat("x", 200)+"...") {
		t.Error("bio should be truncated with an ellipsis")
	}
	if strings.Contains(user, strings.Repeat("x", 201)) {
		t.Error("bio not truncated")
	}
	if !strings.Contains(user, "7 tracks available") {
		t.Errorf("track count missing:\n%s", user)
	}
}

func TestCompleteErrors(t *testing.T) {
	t.Run("non-200 status", func(t *testing.T) {
		agent := newTestAgent(t, func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "quota exceeded", http.StatusTooManyRequests)
		})
		_, err := agent.GenerateTrackComment(context.Background(), "Song", "Artist", "", "")
		if err == nil || !strings.Contains(err.Error(), "429") {
			t.Fatalf("expected a status error, got %v", err)
		}
		if !strings.Contains(err.Error(), "quota exceeded") {
			t.Errorf("error should carry the response body: %v", err)
		}
	})

	t.Run("empty choices", func(t *testing.T) {
		agent := newTestAgent(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"choices":[]}`))
		})
		_, err := agent.GenerateTrackComment(context.Background(), "Song", "Artist", "", "")
		if err == nil || !strings.Contains(err.Error(), "no response choices") {
			t.Fatalf("expected a no-choices error, got %v", err)
		}
	})
}

func TestDefaultPrompts(t *testing.T) {
	prompts := DefaultPrompts()
	for _, key := range []string{"general", "positive", "critical", "discovery", "nostalgic", "technical", "emotional", "comparison", "custom"} {
		if _, ok := prompts[key]; !ok {
			t.Errorf("missing prompt %q", key)
		}
	}
}

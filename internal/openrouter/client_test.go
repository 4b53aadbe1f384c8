package openrouter

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func newTestClient(url string) *Client {
	c := NewClient("test-key", url, 5*time.Second)
	c.backoffFunc = func(int) time.Duration { return 0 }
	return c
}

func TestChatCompletion(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if r.URL.Path != "/chat/completions" {
			t.Errorf("expected /chat/completions, got %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("unexpected Authorization header %q", r.Header.Get("Authorization"))
		}

		var req ChatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("failed to decode request: %v", err)
		}
		if req.Model != "test-model" || len(req.Messages) != 2 {
			t.Errorf("unexpected request: %+v", req)
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(ChatResponse{
			Choices: []Choice{{Message: Message{Role: "assistant", Content: "Option 3, without question."}}},
		})
	}))
	defer server.Close()

	resp, err := newTestClient(server.URL).ChatCompletion(context.Background(), ChatRequest{
		Model: "test-model",
		Messages: []Message{
			{Role: "system", Content: "persona"},
			{Role: "user", Content: "speak"},
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Text() != "Option 3, without question." {
		t.Errorf("unexpected text %q", resp.Text())
	}
}

func TestChatCompletionRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		json.NewEncoder(w).Encode(ChatResponse{Choices: []Choice{{Message: Message{Content: "ok"}}}})
	}))
	defer server.Close()

	resp, err := newTestClient(server.URL).ChatCompletion(context.Background(), ChatRequest{Model: "m"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Text() != "ok" {
		t.Errorf("unexpected text %q", resp.Text())
	}
	if got := calls.Load(); got != 3 {
		t.Errorf("expected 3 calls, got %d", got)
	}
}

func TestChatCompletionDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte("bad key"))
	}))
	defer server.Close()

	if _, err := newTestClient(server.URL).ChatCompletion(context.Background(), ChatRequest{Model: "m"}); err == nil {
		t.Fatal("expected error for 401")
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("expected a single call, got %d", got)
	}
}

func TestChatCompletionGivesUpAfterMaxRetries(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	if _, err := newTestClient(server.URL).ChatCompletion(context.Background(), ChatRequest{Model: "m"}); err == nil {
		t.Fatal("expected error after exhausting retries")
	}
	if got := calls.Load(); got != maxRetries+1 {
		t.Errorf("expected %d calls, got %d", maxRetries+1, got)
	}
}

func TestTextOnEmptyResponse(t *testing.T) {
	var resp *ChatResponse
	if resp.Text() != "" {
		t.Error("nil response should have empty text")
	}
	if (&ChatResponse{}).Text() != "" {
		t.Error("response without choices should have empty text")
	}
}

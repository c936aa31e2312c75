package anthropic_provider

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"newsagent/models"
)

func TestCreateTurnToolUse(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("X-Api-Key"); got != "key" {
			t.Errorf("X-Api-Key = %q", got)
		}
		if got := r.Header.Get("Anthropic-Version"); got != anthropicVersion {
			t.Errorf("Anthropic-Version = %q", got)
		}
		var req request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Model != "test-model" || req.MaxTokens != 1024 {
			t.Errorf("model/max_tokens = %q/%d", req.Model, req.MaxTokens)
		}
		if len(req.Tools) != 1 || req.Tools[0].Name != "search" {
			t.Errorf("tools = %+v", req.Tools)
		}
		_ = json.NewEncoder(w).Encode(response{
			ID:         "msg_1",
			Role:       "assistant",
			StopReason: models.StopReasonToolUse,
			Content: []models.Content{
				{Type: models.ContentTypeText, Text: "searching"},
				{Type: models.ContentTypeToolUse, ID: "call-1", Name: "search", Input: json.RawMessage(`{"q":"ai"}`)},
			},
		})
	}))
	defer ts.Close()

	c := NewClient("key", "test-model", 1024, time.Second).WithBaseURL(ts.URL)
	turn, err := c.CreateTurn(context.Background(),
		[]models.Message{models.TextMessage(models.RoleUser, "find ai news")},
		[]models.Tool{{Name: "search", InputSchema: map[string]any{"type": "object"}}})
	if err != nil {
		t.Fatalf("CreateTurn: %v", err)
	}
	if turn.StopReason != models.StopReasonToolUse {
		t.Errorf("StopReason = %q", turn.StopReason)
	}
	uses := turn.Message.ToolUses()
	if len(uses) != 1 || uses[0].Name != "search" || uses[0].ID != "call-1" {
		t.Errorf("tool uses = %+v", uses)
	}
	if turn.Message.Text() != "searching" {
		t.Errorf("text = %q", turn.Message.Text())
	}
}

func TestCompleteReturnsText(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.System == "" {
			t.Error("system prompt not forwarded")
		}
		if len(req.Tools) != 0 {
			t.Errorf("Complete must not send tools, got %+v", req.Tools)
		}
		_ = json.NewEncoder(w).Encode(response{
			StopReason: models.StopReasonEndTurn,
			Content:    []models.Content{{Type: models.ContentTypeText, Text: `[{"q":"mars"}]`}},
		})
	}))
	defer ts.Close()

	c := NewClient("key", "test-model", 1024, time.Second).WithBaseURL(ts.URL)
	got, err := c.Complete(context.Background(), "optimize queries", "mars news")
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if got != `[{"q":"mars"}]` {
		t.Errorf("Complete = %q", got)
	}
}

func TestSendRequestAPIError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error": {"type": "rate_limit_error"}}`))
	}))
	defer ts.Close()

	c := NewClient("key", "test-model", 1024, time.Second).WithBaseURL(ts.URL)
	_, err := c.CreateTurn(context.Background(), []models.Message{models.TextMessage(models.RoleUser, "hi")}, nil)
	if err == nil {
		t.Fatal("expected error for non-200 status")
	}
	if !strings.Contains(err.Error(), "429") {
		t.Errorf("error should carry status code: %v", err)
	}
}

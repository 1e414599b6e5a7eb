package telegram

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestSendMessageSuccess(t *testing.T) {
	var gotPath string
	var gotBody SendMessageRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	client, err := NewClient("123:abc", WithBaseURL(server.URL))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	req := SendMessageRequest{
		ChatID: 42,
		Text:   "Hola",
		ReplyMarkup: &InlineKeyboardMarkup{
			InlineKeyboard: [][]InlineKeyboardButton{{{Text: "Ver menú", CallbackData: "menu_main"}}},
		},
	}
	if err := client.SendMessage(context.Background(), req); err != nil {
		t.Fatalf("send failed: %v", err)
	}

	if gotPath != "/bot123:abc/sendMessage" {
		t.Fatalf("unexpected path %q", gotPath)
	}
	if gotBody.ChatID != 42 || gotBody.Text != "Hola" {
		t.Fatalf("unexpected payload %+v", gotBody)
	}
}

func TestSendMessageAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"ok":false,"description":"Bad Request: chat not found"}`))
	}))
	defer server.Close()

	client, err := NewClient("123:abc", WithBaseURL(server.URL))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	if err := client.SendMessage(context.Background(), SendMessageRequest{ChatID: 1, Text: "x"}); err == nil {
		t.Fatal("expected error from API failure")
	}
}

func TestSendMessageValidation(t *testing.T) {
	client, err := NewClient("123:abc")
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	if err := client.SendMessage(context.Background(), SendMessageRequest{ChatID: 1}); err == nil {
		t.Fatal("expected validation error for empty text")
	}
}

func TestNewClientRequiresToken(t *testing.T) {
	if _, err := NewClient("  "); err == nil {
		t.Fatal("expected token validation error")
	}
}

func TestUserDisplayName(t *testing.T) {
	u := &User{FirstName: "Ana", LastName: "García"}
	if got := u.DisplayName(); got != "Ana García" {
		t.Fatalf("unexpected display name %q", got)
	}
	only := &User{Username: "anag"}
	if got := only.DisplayName(); got != "anag" {
		t.Fatalf("expected username fallback, got %q", got)
	}
	var nilUser *User
	if got := nilUser.DisplayName(); got != "" {
		t.Fatalf("expected empty for nil user, got %q", got)
	}
}

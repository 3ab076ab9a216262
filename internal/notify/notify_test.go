package notify

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	sonic "github.com/bytedance/sonic"

	"github.com/freebetlabs/match-engine/internal/platform/logging"
)

type recordingSender struct {
	mu    sync.Mutex
	name  string
	calls []string
	err   error
}

func (s *recordingSender) Send(_ context.Context, title, message string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, title+"|"+message)
	return s.err
}

func (s *recordingSender) Name() string { return s.name }

func TestNotifier_AnnounceReachesAllSenders(t *testing.T) {
	first := &recordingSender{name: "first"}
	second := &recordingSender{name: "second"}

	n := NewNotifier([]Sender{first, second}, logging.NewNop())
	n.Announce(context.Background(), "  Settlement  ", "2 matches settled")

	for _, s := range []*recordingSender{first, second} {
		if len(s.calls) != 1 {
			t.Fatalf("sender %s: expected 1 call, got %d", s.name, len(s.calls))
		}
		if s.calls[0] != "Settlement|2 matches settled" {
			t.Fatalf("sender %s: unexpected call %q", s.name, s.calls[0])
		}
	}
}

func TestNotifier_AnnounceSurvivesSenderFailure(t *testing.T) {
	broken := &recordingSender{name: "broken", err: context.DeadlineExceeded}
	healthy := &recordingSender{name: "healthy"}

	n := NewNotifier([]Sender{broken, healthy}, logging.NewNop())
	n.Announce(context.Background(), "Settlement", "1 match settled")

	if len(healthy.calls) != 1 {
		t.Fatalf("expected healthy sender to be called, got %d calls", len(healthy.calls))
	}
}

func TestTelegramSender_SendPostsChatMessage(t *testing.T) {
	var gotPath string
	var gotBody map[string]string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if err := sonic.ConfigDefault.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode telegram payload: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	sender := NewTelegramSender(TelegramConfig{
		HTTPClient: srv.Client(),
		BaseURL:    srv.URL,
		Token:      "bot-token",
		ChatID:     "chat-42",
	})

	if err := sender.Send(context.Background(), "Settlement", "alice won 47.50"); err != nil {
		t.Fatalf("send: %v", err)
	}
	if gotPath != "/botbot-token/sendMessage" {
		t.Fatalf("unexpected path %q", gotPath)
	}
	if gotBody["chat_id"] != "chat-42" {
		t.Fatalf("unexpected chat_id %q", gotBody["chat_id"])
	}
	if gotBody["text"] != "Settlement\nalice won 47.50" {
		t.Fatalf("unexpected text %q", gotBody["text"])
	}
}

func TestTelegramSender_SendRejectsAPIFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"ok":false}`, http.StatusBadGateway)
	}))
	defer srv.Close()

	sender := NewTelegramSender(TelegramConfig{
		HTTPClient: srv.Client(),
		BaseURL:    srv.URL,
		Token:      "bot-token",
		ChatID:     "chat-42",
	})

	if err := sender.Send(context.Background(), "", "message"); err == nil {
		t.Fatal("expected error for non-2xx response")
	}
}

func TestTelegramSender_SendRequiresConfiguration(t *testing.T) {
	sender := NewTelegramSender(TelegramConfig{})
	if err := sender.Send(context.Background(), "t", "m"); err == nil {
		t.Fatal("expected error when token and chat id are missing")
	}
}

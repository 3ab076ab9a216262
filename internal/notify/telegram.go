package notify

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/valyala/bytebufferpool"
)

const defaultTelegramBaseURL = "https://api.telegram.org"

// TelegramSender posts messages to a chat through the Telegram Bot API.
type TelegramSender struct {
	client  *http.Client
	baseURL string
	token   string
	chatID  string
}

type TelegramConfig struct {
	HTTPClient *http.Client
	BaseURL    string
	Token      string
	ChatID     string
	Timeout    time.Duration
}

func NewTelegramSender(cfg TelegramConfig) *TelegramSender {
	client := cfg.HTTPClient
	if client == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultTelegramBaseURL
	}

	return &TelegramSender{
		client:  client,
		baseURL: baseURL,
		token:   strings.TrimSpace(cfg.Token),
		chatID:  strings.TrimSpace(cfg.ChatID),
	}
}

func (t *TelegramSender) Name() string {
	return "telegram"
}

func (t *TelegramSender) Send(ctx context.Context, title, message string) error {
	if t.token == "" || t.chatID == "" {
		return crerr.New("telegram sender is not configured")
	}

	text := message
	if title != "" {
		text = title + "\n" + message
	}

	payload, err := sonic.Marshal(map[string]string{
		"chat_id": t.chatID,
		"text":    text,
	})
	if err != nil {
		return crerr.Wrap(err, "marshal telegram payload")
	}

	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)
	_, _ = buf.Write(payload)

	sendURL := fmt.Sprintf("%s/bot%s/sendMessage", t.baseURL, t.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, sendURL, strings.NewReader(buf.String()))
	if err != nil {
		return crerr.Wrap(err, "build telegram request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return crerr.Wrap(err, "send telegram request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return crerr.Newf("telegram status=%d body=%s", resp.StatusCode, string(body))
	}
	return nil
}

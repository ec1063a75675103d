package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"time"
	"unicode/utf8"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"BreakoutSentinel/internal/retrier"
)

const (
	telegramBaseURL = "https://api.telegram.org"
	maxMessageLen   = 4096
)

var tagPattern = regexp.MustCompile(`<[^>]*>`)

// apiError is a non-200 reply from the Bot API.
type apiError struct {
	code int
	body string
}

func (e *apiError) Error() string {
	return fmt.Sprintf("telegram API error: status %d, body: %s", e.code, e.body)
}

// retryable gives up on rejected requests; only 429, 5xx and transport
// failures are worth another attempt.
func retryable(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	var ae *apiError
	if errors.As(err, &ae) {
		return ae.code >= 500 || ae.code == http.StatusTooManyRequests
	}
	return true
}

// TelegramNotifier sends messages via the Telegram Bot API.
type TelegramNotifier struct {
	BaseURL  string
	BotToken string
	ChatID   string
	Client   *http.Client
	Retrier  *retrier.Retrier
	logger   *zap.Logger
}

// NewTelegramNotifier creates a notifier with optional proxy support.
func NewTelegramNotifier(botToken, chatID, proxyURL string, logger *zap.Logger) *TelegramNotifier {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	t := &TelegramNotifier{
		BaseURL:  telegramBaseURL,
		BotToken: botToken,
		ChatID:   chatID,
		Client: &http.Client{
			Timeout:   30 * time.Second,
			Transport: transport,
		},
		logger: logger.Named("telegram"),
	}
	t.Retrier = retrier.New(
		retrier.WithMaxRetries(3),
		retrier.WithRetryIf(retryable),
		retrier.WithOnRetry(func(attempt int, err error, wait time.Duration) {
			t.logger.Warn("telegram send failed, retrying",
				zap.Int("attempt", attempt), zap.Duration("wait", wait), zap.Error(err))
		}),
	)
	return t
}

// Send sends a message to the configured chat.
func (t *TelegramNotifier) Send(ctx context.Context, text string) error {
	return t.sendTo(ctx, t.ChatID, text)
}

// SendWithRetry sends a message with exponential backoff retry.
func (t *TelegramNotifier) SendWithRetry(ctx context.Context, text string) error {
	return errors.Wrap(t.Retrier.Do(ctx, func(ctx context.Context) error {
		return t.Send(ctx, text)
	}), "telegram send")
}

func (t *TelegramNotifier) sendTo(ctx context.Context, chatID, text string) error {
	body, err := json.Marshal(messagePayload(chatID, text))
	if err != nil {
		return errors.Wrap(err, "marshal payload")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.BaseURL+"/bot"+t.BotToken+"/sendMessage", bytes.NewReader(body))
	if err != nil {
		return errors.Wrap(err, "build request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.Client.Do(req)
	if err != nil {
		return errors.Wrap(err, "send message")
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return &apiError{code: resp.StatusCode, body: string(respBody)}
	}
	return nil
}

// messagePayload sends text as HTML when it fits. Longer text is stripped to
// plain text before truncation so no tag or entity gets cut in half.
func messagePayload(chatID, text string) map[string]string {
	if len(text) <= maxMessageLen {
		return map[string]string{"chat_id": chatID, "text": text, "parse_mode": "HTML"}
	}
	plain := html.UnescapeString(tagPattern.ReplaceAllString(text, ""))
	return map[string]string{"chat_id": chatID, "text": truncate(plain, maxMessageLen)}
}

// truncate cuts text to at most n bytes on a rune boundary.
func truncate(text string, n int) string {
	if len(text) <= n {
		return text
	}
	cut := n - len("…")
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return text[:cut] + "…"
}

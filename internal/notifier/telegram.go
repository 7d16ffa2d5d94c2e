package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"BidSentinel/internal/model"
)

// Notifier pushes operator-facing alerts. Failures are logged and never
// affect bidding decisions.
type Notifier interface {
	BidPlaced(ctx context.Context, rec model.BidRecord)
	DailyCapReached(ctx context.Context, cap int)
	Fatal(ctx context.Context, msg string)
}

// Noop is used when Telegram is not configured.
type Noop struct{}

func (Noop) BidPlaced(context.Context, model.BidRecord) {}
func (Noop) DailyCapReached(context.Context, int)       {}
func (Noop) Fatal(context.Context, string)              {}

// Telegram sends alerts via the Telegram Bot API.
type Telegram struct {
	BotToken string
	ChatID   string
	Client   *http.Client
	log      zerolog.Logger
}

func NewTelegram(botToken, chatID string, log zerolog.Logger) *Telegram {
	return &Telegram{
		BotToken: botToken,
		ChatID:   chatID,
		Client:   &http.Client{Timeout: 30 * time.Second},
		log:      log.With().Str("component", "notifier").Logger(),
	}
}

func (t *Telegram) BidPlaced(ctx context.Context, rec model.BidRecord) {
	t.trySend(ctx, fmt.Sprintf("✅ Bid placed: %s\nAmount: %.2f %s (bid #%d)",
		rec.Title, rec.Amount, rec.Currency, rec.BidID))
}

func (t *Telegram) DailyCapReached(ctx context.Context, cap int) {
	t.trySend(ctx, fmt.Sprintf("⏸ Daily bid cap reached (%d). Pausing submissions until UTC midnight.", cap))
}

func (t *Telegram) Fatal(ctx context.Context, msg string) {
	t.trySend(ctx, "🛑 "+msg)
}

func (t *Telegram) trySend(ctx context.Context, text string) {
	if err := t.sendWithRetry(ctx, text, 3); err != nil {
		t.log.Error().Err(err).Msg("send notification")
	}
}

func (t *Telegram) send(ctx context.Context, text string) error {
	apiURL := fmt.Sprintf("https://api.telegram.org/bot%s/sendMessage", t.BotToken)
	payload := map[string]string{
		"chat_id": t.ChatID,
		"text":    text,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.Client.Do(req)
	if err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("telegram API error: status %d, body: %s", resp.StatusCode, string(respBody))
	}
	return nil
}

// sendWithRetry retries with exponential backoff.
func (t *Telegram) sendWithRetry(ctx context.Context, text string, maxRetries int) error {
	var lastErr error
	for i := 0; i <= maxRetries; i++ {
		if err := t.send(ctx, text); err != nil {
			lastErr = err
			backoff := time.Duration(1<<uint(i)) * time.Second
			t.log.Warn().Err(err).Int("attempt", i+1).Dur("backoff", backoff).Msg("telegram send failed, retrying")
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
				continue
			}
		}
		return nil
	}
	return fmt.Errorf("all %d retries exhausted: %w", maxRetries+1, lastErr)
}

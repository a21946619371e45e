package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	pollTimeout = 30 // seconds, server side
	pollBackoff = 5 * time.Second
)

// CommandHandler answers an operator command. An empty reply sends nothing.
type CommandHandler func(ctx context.Context, command string) string

type chatMessage struct {
	Text string `json:"text"`
	Chat struct {
		ID int64 `json:"id"`
	} `json:"chat"`
}

type update struct {
	UpdateID int          `json:"update_id"`
	Message  *chatMessage `json:"message"`
}

// StartPolling long-polls getUpdates until ctx is cancelled, answering
// commands from the operator chat only.
func (t *TelegramNotifier) StartPolling(ctx context.Context, handler CommandHandler) {
	client := &http.Client{Timeout: (pollTimeout + 5) * time.Second, Transport: t.Client.Transport}
	offset := 0
	for ctx.Err() == nil {
		updates, err := t.getUpdates(ctx, client, offset)
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			log.Printf("[WARN] Telegram getUpdates: %v", err)
			sleep(ctx, pollBackoff)
			continue
		}
		for _, u := range updates {
			offset = u.UpdateID + 1
			t.dispatch(ctx, u.Message, handler)
		}
	}
	log.Println("[INFO] Telegram polling stopped")
}

func (t *TelegramNotifier) getUpdates(ctx context.Context, client *http.Client, offset int) ([]update, error) {
	q := url.Values{}
	q.Set("offset", strconv.Itoa(offset))
	q.Set("timeout", strconv.Itoa(pollTimeout))
	q.Set("allowed_updates", `["message"]`)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.method("getUpdates")+"?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var out struct {
		OK          bool     `json:"ok"`
		Description string   `json:"description"`
		Result      []update `json:"result"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode updates (status %d): %w", resp.StatusCode, err)
	}
	if !out.OK {
		return nil, fmt.Errorf("telegram: %s", out.Description)
	}
	return out.Result, nil
}

func (t *TelegramNotifier) dispatch(ctx context.Context, msg *chatMessage, handler CommandHandler) {
	if msg == nil || strings.TrimSpace(msg.Text) == "" {
		return
	}
	if strconv.FormatInt(msg.Chat.ID, 10) != t.ChatID {
		log.Printf("[WARN] Ignoring Telegram message from chat %d", msg.Chat.ID)
		return
	}
	cmd := strings.TrimSpace(msg.Text)
	log.Printf("[INFO] Operator command: %s", cmd)
	if reply := handler(ctx, cmd); reply != "" {
		if err := t.Send(ctx, reply); err != nil {
			log.Printf("[ERROR] Reply to %s: %v", cmd, err)
		}
	}
}

func sleep(ctx context.Context, d time.Duration) {
	select {
	case <-ctx.Done():
	case <-time.After(d):
	}
}

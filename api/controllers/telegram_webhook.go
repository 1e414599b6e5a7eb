package controllers

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/casahojaldre/chatbot-backend/api/responses"
	"github.com/casahojaldre/chatbot-backend/api/validators"
	"github.com/casahojaldre/chatbot-backend/internal/conv"
	"github.com/casahojaldre/chatbot-backend/pkg/config"
	pkgerrors "github.com/casahojaldre/chatbot-backend/pkg/errors"
	"github.com/casahojaldre/chatbot-backend/pkg/logger"
	"github.com/casahojaldre/chatbot-backend/pkg/metrics"
	"github.com/casahojaldre/chatbot-backend/pkg/telegram"
)

const updateDedupeScope = "tg_update"

// Dispatcher handles one normalized conversation event.
type Dispatcher interface {
	Dispatch(ctx context.Context, event conv.Event) (conv.Reply, error)
}

type botSender interface {
	SendMessage(ctx context.Context, req telegram.SendMessageRequest) error
	AnswerCallbackQuery(ctx context.Context, callbackID, text string) error
}

type updateDeduper interface {
	MarkSeen(ctx context.Context, scope, id string, ttl time.Duration) (bool, error)
}

type sessionLimiter interface {
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

// TelegramWebhookParams wires the webhook controller's collaborators.
type TelegramWebhookParams struct {
	Logger     *logger.Logger
	Dispatcher Dispatcher
	Bot        botSender
	Dedupe     updateDeduper
	Limiter    sessionLimiter
	Metrics    *metrics.BotMetrics
	RateLimit  config.RateLimitConfig
}

// TelegramWebhook ingests Bot API updates. It always acknowledges with
// 200 once the payload is parsed; Telegram retries non-2xx responses
// and a poison update must not wedge the queue.
func TelegramWebhook(params TelegramWebhookParams) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		logg := params.Logger

		if params.Dispatcher == nil || params.Bot == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "webhook not configured"))
			return
		}

		var update telegram.Update
		if err := validators.DecodeTelegramUpdate(r, &update); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		event, kind, ok := normalizeUpdate(update)
		params.Metrics.IncUpdate(kind)
		if !ok {
			responses.WriteSuccess(w, map[string]bool{"ok": true})
			return
		}

		ctx = logg.WithSessionID(ctx, event.SessionID)
		ctx = logg.WithChatID(ctx, strconv.FormatInt(event.ChatID, 10))

		if params.Dedupe != nil {
			fresh, err := params.Dedupe.MarkSeen(ctx, updateDedupeScope, strconv.FormatInt(update.UpdateID, 10), params.RateLimit.DedupTTL)
			if err != nil {
				logg.Error(ctx, "update dedupe check failed", err)
			} else if !fresh {
				logg.Warn(ctx, "duplicate update dropped")
				responses.WriteSuccess(w, map[string]bool{"ok": true})
				return
			}
		}

		if params.Limiter != nil && params.RateLimit.WebhookSessionLimit > 0 {
			allowed, _, err := params.Limiter.FixedWindowAllow(
				ctx,
				"webhook:"+event.SessionID,
				int64(params.RateLimit.WebhookSessionLimit),
				params.RateLimit.WebhookWindow,
			)
			if err != nil {
				logg.Error(ctx, "rate limit check failed", err)
			} else if !allowed {
				logg.Warn(ctx, "session rate limited")
				sendReply(ctx, params, event, conv.Reply{
					Text: "⏳ Estás enviando mensajes muy rápido. Espera un momento e inténtalo de nuevo.",
				})
				responses.WriteSuccess(w, map[string]bool{"ok": true})
				return
			}
		}

		reply, err := params.Dispatcher.Dispatch(ctx, event)
		if err != nil {
			logg.Error(ctx, "dispatch failed", err)
			reply = conv.Reply{Text: "😔 Algo salió mal. Escribe *menú* para empezar de nuevo."}
		}

		sendReply(ctx, params, event, reply)
		responses.WriteSuccess(w, map[string]bool{"ok": true})
	}
}

func sendReply(ctx context.Context, params TelegramWebhookParams, event conv.Event, reply conv.Reply) {
	if event.CallbackID != "" {
		if err := params.Bot.AnswerCallbackQuery(ctx, event.CallbackID, ""); err != nil {
			params.Logger.Error(ctx, "answering callback query failed", err)
		}
	}
	if reply.Text == "" {
		return
	}

	req := telegram.SendMessageRequest{
		ChatID:      event.ChatID,
		Text:        reply.Text,
		ParseMode:   "Markdown",
		ReplyMarkup: keyboardFrom(reply),
	}
	if err := params.Bot.SendMessage(ctx, req); err != nil {
		params.Logger.Error(ctx, "sending reply failed", err)
	}
}

func keyboardFrom(reply conv.Reply) *telegram.InlineKeyboardMarkup {
	if len(reply.Buttons) == 0 {
		return nil
	}
	rows := make([][]telegram.InlineKeyboardButton, 0, len(reply.Buttons))
	for _, row := range reply.Buttons {
		buttons := make([]telegram.InlineKeyboardButton, 0, len(row))
		for _, button := range row {
			buttons = append(buttons, telegram.InlineKeyboardButton{
				Text:         button.Label,
				CallbackData: button.Data,
			})
		}
		rows = append(rows, buttons)
	}
	return &telegram.InlineKeyboardMarkup{InlineKeyboard: rows}
}

// normalizeUpdate projects a Bot API update onto the internal event
// shape. Updates with no actionable content (edits, reactions, channel
// posts) are counted and dropped.
func normalizeUpdate(update telegram.Update) (conv.Event, string, bool) {
	switch {
	case update.CallbackQuery != nil:
		cb := update.CallbackQuery
		if cb.Message == nil || cb.Data == "" {
			return conv.Event{}, "callback_invalid", false
		}
		chatID := cb.Message.Chat.ID
		return conv.Event{
			SessionID:    sessionIDFor(chatID),
			ChatID:       chatID,
			DisplayName:  cb.From.DisplayName(),
			CallbackData: cb.Data,
			CallbackID:   cb.ID,
		}, "callback", true

	case update.Message != nil:
		msg := update.Message
		if msg.From != nil && msg.From.IsBot {
			return conv.Event{}, "bot_message", false
		}
		if msg.Text == "" {
			return conv.Event{}, "non_text", false
		}
		return conv.Event{
			SessionID:   sessionIDFor(msg.Chat.ID),
			ChatID:      msg.Chat.ID,
			DisplayName: msg.From.DisplayName(),
			Text:        msg.Text,
		}, "message", true
	}

	return conv.Event{}, "ignored", false
}

func sessionIDFor(chatID int64) string {
	return fmt.Sprintf("tg:%d", chatID)
}

// Package telegram adapts the Telegram Bot API to the engine's event/reply
// protocol: text messages become text events, inline-keyboard callbacks
// become selection events, and replies are sent back as messages, keyboards
// or photo uploads.
package telegram

import (
	"context"
	"fmt"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/t8nr/plubot/bot"
)

const startReply = "Hi! The barcode bot is ready.\n" +
	"Send a PLU or a product name to look up its barcode."

// Engine is the pipeline the transport feeds.
type Engine interface {
	Handle(ctx context.Context, ev bot.Event) (bot.Reply, error)
}

// api is the slice of tgbotapi.BotAPI the transport uses; narrowed so tests
// can substitute a fake.
type api interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// Transport long-polls Telegram and dispatches each update to the engine.
// Updates are independent units of work and are processed concurrently.
type Transport struct {
	api         api
	engine      Engine
	log         *zap.SugaredLogger
	pollTimeout time.Duration
}

// New authenticates against the Bot API and returns a ready transport.
func New(token string, pollTimeout time.Duration, engine Engine, log *zap.SugaredLogger) (*Transport, error) {
	client, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram auth: %w", err)
	}
	log.Infow("telegram bot authorized", "username", client.Self.UserName)
	return newWithAPI(client, pollTimeout, engine, log), nil
}

func newWithAPI(client api, pollTimeout time.Duration, engine Engine, log *zap.SugaredLogger) *Transport {
	if pollTimeout <= 0 {
		pollTimeout = 30 * time.Second
	}
	return &Transport{api: client, engine: engine, log: log, pollTimeout: pollTimeout}
}

// Run consumes updates until ctx is canceled.
func (t *Transport) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = int(t.pollTimeout.Seconds())
	updates := t.api.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			t.api.StopReceivingUpdates()
			return ctx.Err()
		case upd, ok := <-updates:
			if !ok {
				return nil
			}
			go t.handleUpdate(ctx, upd)
		}
	}
}

func (t *Transport) handleUpdate(ctx context.Context, upd tgbotapi.Update) {
	switch {
	case upd.Message != nil && upd.Message.IsCommand():
		t.handleCommand(upd.Message)
	case upd.Message != nil && upd.Message.Text != "":
		t.dispatch(ctx, upd.Message.Chat.ID, bot.Event{Kind: bot.EventText, Payload: upd.Message.Text})
	case upd.CallbackQuery != nil:
		// Acknowledge the button press so the client stops its spinner.
		if _, err := t.api.Request(tgbotapi.NewCallback(upd.CallbackQuery.ID, "")); err != nil {
			t.log.Warnw("callback ack failed", "error", err)
		}
		if upd.CallbackQuery.Message == nil {
			return
		}
		t.dispatch(ctx, upd.CallbackQuery.Message.Chat.ID,
			bot.Event{Kind: bot.EventSelection, Payload: upd.CallbackQuery.Data})
	}
}

func (t *Transport) handleCommand(msg *tgbotapi.Message) {
	switch msg.Command() {
	case "start", "help":
		t.sendText(msg.Chat.ID, startReply)
	default:
		t.sendText(msg.Chat.ID, "Unknown command. Send a PLU or a product name.")
	}
}

func (t *Transport) dispatch(ctx context.Context, chatID int64, ev bot.Event) {
	reply, err := t.engine.Handle(ctx, ev)
	if err != nil {
		// Only context cancellation reaches here; the update is dropped.
		t.log.Warnw("event dropped", "error", err)
		return
	}
	t.send(chatID, reply)
}

func (t *Transport) send(chatID int64, reply bot.Reply) {
	switch reply.Type {
	case bot.ReplyOptions:
		rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(reply.Options))
		for _, opt := range reply.Options {
			rows = append(rows, tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData(opt.Label, opt.Token)))
		}
		msg := tgbotapi.NewMessage(chatID, reply.Message)
		msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(rows...)
		t.sendChattable(msg)
	case bot.ReplyArtifact:
		photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileBytes{Name: "barcode.png", Bytes: reply.Image})
		photo.Caption = reply.Message
		t.sendChattable(photo)
	default:
		t.sendText(chatID, reply.Message)
	}
}

func (t *Transport) sendText(chatID int64, text string) {
	t.sendChattable(tgbotapi.NewMessage(chatID, text))
}

func (t *Transport) sendChattable(c tgbotapi.Chattable) {
	if _, err := t.api.Send(c); err != nil {
		t.log.Errorw("telegram send failed", "error", err)
	}
}

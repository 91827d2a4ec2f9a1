// Package bot serves the news digest and memes over Telegram.
package bot

import (
	"context"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/samvad-hq/newstone/internal/domain"
	"github.com/samvad-hq/newstone/internal/logger"
)

const helpText = `Commands:
/news [tone] - latest digest, e.g. /news satirical or /news neutral
/meme <text> - caption the meme image
/help - this message`

// Sender delivers one outgoing Telegram message.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// NewsSource is the backend API used by the bot.
type NewsSource interface {
	News(ctx context.Context, tone string) ([]domain.RenderedArticle, error)
	Meme(ctx context.Context, text string) ([]byte, error)
}

// Bot answers chat commands.
type Bot struct {
	sender      Sender
	backend     NewsSource
	defaultTone string
	log         logger.Logger
}

// New returns a Bot. An empty defaultTone selects "satirical".
func New(sender Sender, backend NewsSource, defaultTone string, log logger.Logger) *Bot {
	if strings.TrimSpace(defaultTone) == "" {
		defaultTone = "satirical"
	}
	if log == nil {
		log = logger.NopLogger{}
	}
	return &Bot{sender: sender, backend: backend, defaultTone: defaultTone, log: log}
}

// Run consumes updates until ctx is done or the channel closes.
func (b *Bot) Run(ctx context.Context, updates <-chan tgbotapi.Update) {
	for {
		select {
		case <-ctx.Done():
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			if update.Message != nil {
				b.HandleMessage(ctx, update.Message)
			}
		}
	}
}

// HandleMessage dispatches one incoming message.
func (b *Bot) HandleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if !msg.IsCommand() {
		return
	}

	b.log.DebugObj("bot command", "bot_command", map[string]any{
		"chat_id": msg.Chat.ID,
		"command": msg.Command(),
	})

	switch msg.Command() {
	case "start", "help":
		b.reply(msg.Chat.ID, helpText)
	case "news":
		b.handleNews(ctx, msg)
	case "meme":
		b.handleMeme(ctx, msg)
	default:
		b.reply(msg.Chat.ID, "Unknown command. Use /help.")
	}
}

func (b *Bot) handleNews(ctx context.Context, msg *tgbotapi.Message) {
	tone := ToneArg(msg.CommandArguments(), b.defaultTone)

	articles, err := b.backend.News(ctx, tone)
	if err != nil {
		b.log.WarnObj("news command failed", "bot_news_error", map[string]any{
			"chat_id": msg.Chat.ID,
			"tone":    tone,
			"error":   err.Error(),
		})
		b.reply(msg.Chat.ID, "Could not load news: "+err.Error())
		return
	}
	if len(articles) == 0 {
		b.reply(msg.Chat.ID, "No news right now.")
		return
	}

	for _, chunk := range SplitMessage(FormatNews(articles), MaxMessageLength) {
		b.reply(msg.Chat.ID, chunk)
	}
}

func (b *Bot) handleMeme(ctx context.Context, msg *tgbotapi.Message) {
	text := strings.TrimSpace(msg.CommandArguments())
	if text == "" {
		b.reply(msg.Chat.ID, "Usage: /meme <text>")
		return
	}

	img, err := b.backend.Meme(ctx, text)
	if err != nil {
		b.log.WarnObj("meme command failed", "bot_meme_error", map[string]any{
			"chat_id": msg.Chat.ID,
			"error":   err.Error(),
		})
		b.reply(msg.Chat.ID, "Could not make a meme: "+err.Error())
		return
	}

	photo := tgbotapi.NewPhoto(msg.Chat.ID, tgbotapi.FileBytes{Name: "meme.jpg", Bytes: img})
	if _, err := b.sender.Send(photo); err != nil {
		b.log.ErrorObj("send photo failed", "bot_send_error", map[string]any{
			"chat_id": msg.Chat.ID,
			"error":   err.Error(),
		})
	}
}

func (b *Bot) reply(chatID int64, text string) {
	if _, err := b.sender.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		b.log.ErrorObj("send message failed", "bot_send_error", map[string]any{
			"chat_id": chatID,
			"error":   err.Error(),
		})
	}
}

package telegram

import (
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Bot posts run outcomes to one chat.
type Bot struct {
	api    *tgbotapi.BotAPI
	chatID int64
}

func NewBot(token string, chatID int64) (*Bot, error) {
	if chatID == 0 {
		return nil, fmt.Errorf("telegram chat id is not set")
	}
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to init telegram bot: %w", err)
	}
	return &Bot{api: api, chatID: chatID}, nil
}

var markdownEscaper = strings.NewReplacer(
	"_", "\\_", "*", "\\*", "[", "\\[", "]", "\\]", "(", "\\(",
	")", "\\)", "~", "\\~", "`", "\\`", ">", "\\>", "#", "\\#",
	"+", "\\+", "-", "\\-", "=", "\\=", "|", "\\|", "{", "\\{",
	"}", "\\}", ".", "\\.", "!", "\\!",
)

func escapeMarkdown(text string) string {
	return markdownEscaper.Replace(text)
}

// statusMessage and errorMessage render MarkdownV2 bodies.
func statusMessage(message string) string {
	return "✅ *Job harvest finished*\n" + escapeMarkdown(message)
}

func errorMessage(err error) string {
	return "❌ *Job harvest failed*\n" + escapeMarkdown(err.Error())
}

func (b *Bot) SendStatus(message string) error {
	return b.send(statusMessage(message))
}

func (b *Bot) SendError(err error) error {
	return b.send(errorMessage(err))
}

func (b *Bot) send(text string) error {
	msg := tgbotapi.NewMessage(b.chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdownV2
	msg.DisableWebPagePreview = true
	if _, err := b.api.Send(msg); err != nil {
		return fmt.Errorf("send telegram message: %w", err)
	}
	return nil
}

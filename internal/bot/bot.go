package bot

import (
	"log"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Bot is a send-only Telegram client used to post lines to a channel and to
// mirror logs.
type Bot struct {
	Client *tgbotapi.BotAPI
}

// New creates a new bot instance
func New(name, token string) (*Bot, error) {
	return NewWithEndpoint(name, token, tgbotapi.APIEndpoint)
}

// NewWithEndpoint talks to a custom Bot API server. endpoint is a format
// string taking the token and the method, like tgbotapi.APIEndpoint.
func NewWithEndpoint(name, token, endpoint string) (*Bot, error) {
	botClient, err := tgbotapi.NewBotAPIWithAPIEndpoint(token, endpoint)
	if err != nil {
		return nil, err
	}

	log.Printf("[%s] authorized on account %s", name, botClient.Self.UserName)

	return &Bot{Client: botClient}, nil
}

func (b *Bot) SendMessage(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	_, err := b.Client.Send(msg)
	return err
}

// SendToChannel accepts either a numeric chat id or a public "@channel" name.
func (b *Bot) SendToChannel(channel, text string) error {
	if id, err := strconv.ParseInt(channel, 10, 64); err == nil {
		return b.SendMessage(id, text)
	}

	username := channel
	if !strings.HasPrefix(username, "@") {
		username = "@" + username
	}
	msg := tgbotapi.NewMessageToChannel(username, text)
	msg.DisableWebPagePreview = true
	_, err := b.Client.Send(msg)
	return err
}

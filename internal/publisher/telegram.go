package publisher

import (
	"context"
	"fmt"
)

type ChannelSender interface {
	SendToChannel(channel, text string) error
}

// Telegram posts lines to a channel through a bot.
type Telegram struct {
	sender  ChannelSender
	channel string
}

func NewTelegram(sender ChannelSender, channel string) *Telegram {
	return &Telegram{sender: sender, channel: channel}
}

func (t *Telegram) Publish(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrPublish, err)
	}
	if err := t.sender.SendToChannel(t.channel, text); err != nil {
		return fmt.Errorf("%w: sending to telegram channel %s: %v", ErrPublish, t.channel, err)
	}
	return nil
}

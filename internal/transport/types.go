// Package transport defines the messaging-channel contract the rest of the
// bot is written against, keeping telebot types out of the core packages.
package transport

import (
	"context"
	"errors"
)

// Update is one inbound text message.
type Update struct {
	ChatID int64
	Text   string
}

// ChatTarget addresses an outbound message.
type ChatTarget struct {
	ChatID int64
}

// ErrRecipientGone marks a permanent delivery failure: the recipient
// blocked the bot, deleted their account or the chat no longer exists.
// The notifier reacts by cascade-deleting the user.
var ErrRecipientGone = errors.New("recipient permanently unreachable")

// Adapter is a messaging channel: it produces inbound updates on a channel
// and sends outbound text.
type Adapter interface {
	Start(ctx context.Context, out chan<- Update) error
	Stop(ctx context.Context) error
	SendText(ctx context.Context, to ChatTarget, text string) error
}

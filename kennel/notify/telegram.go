package notify

import (
	"context"
	"errors"
	"fmt"
	"sync"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/kennelbot/core/telegram/format"
	"github.com/m3rciful/kennelbot/core/telegram/sender"
	"github.com/m3rciful/kennelbot/kennel/inquiry"
)

// ErrNoBot is returned while the Telegram notifier has no bot attached.
var ErrNoBot = errors.New("notify telegram: bot not attached")

// Sender is the part of *tele.Bot the notifier needs.
type Sender interface {
	Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error)
}

// Telegram messages the operator chat. The bot is attached after start-up
// with SetBot, since the bot itself is built after the notifier.
type Telegram struct {
	adminID int64
	disp    *sender.Dispatcher

	mu  sync.RWMutex
	bot Sender
}

// NewTelegram returns a notifier for adminID. With adminID 0 Notify is a no-op.
// A nil dispatcher sends inline.
func NewTelegram(adminID int64, disp *sender.Dispatcher) *Telegram {
	return &Telegram{adminID: adminID, disp: disp}
}

// SetBot attaches the sending bot.
func (t *Telegram) SetBot(b Sender) {
	t.mu.Lock()
	t.bot = b
	t.mu.Unlock()
}

func (t *Telegram) sender() Sender {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.bot
}

// Notify sends r to the operator chat as Markdown. With a dispatcher the
// message is queued and Notify returns once it is accepted; the delivery
// outcome is logged when the worker finishes.
func (t *Telegram) Notify(ctx context.Context, r inquiry.Record) error {
	if t.adminID == 0 {
		return nil
	}
	b := t.sender()
	if b == nil {
		observe(ctx, "telegram", ErrNoBot)
		return ErrNoBot
	}

	text := FormatOperatorMessage(r)
	send := func() error {
		_, err := b.Send(tele.ChatID(t.adminID), text, &tele.SendOptions{ParseMode: tele.ModeMarkdown})
		return wrap("telegram", err)
	}

	if t.disp == nil {
		err := send()
		observe(ctx, "telegram", err)
		return err
	}

	jobCtx := context.WithoutCancel(ctx)
	err := t.disp.Enqueue(jobCtx, "notify.operator", "sendMessage", func() error {
		err := send()
		observe(jobCtx, "telegram", err)
		return err
	})
	if err != nil {
		err = wrap("telegram", err)
		observe(ctx, "telegram", err)
	}
	return err
}

// FormatOperatorMessage renders r for the operator chat. Customer input is
// escaped so it cannot break the Markdown of the message.
func FormatOperatorMessage(r inquiry.Record) string {
	return fmt.Sprintf("🔔 *New Inquiry!*\n\n*Name:* %s\n*Phone:* %s\n*Email:* %s\n\n*Message:*\n%s",
		format.EscapeMD(r.Name),
		format.EscapeMD(r.Phone),
		format.EscapeMD(r.Email),
		format.EscapeMD(r.Message),
	)
}

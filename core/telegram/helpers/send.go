package helpers

import (
	"errors"
	"log/slog"
	"strings"
	"sync/atomic"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/kennelbot/core/logger"
	"github.com/m3rciful/kennelbot/core/telegram/sender"
)

var globalDispatcher atomic.Pointer[sender.Dispatcher]

// SetDispatcher wires the sender used by helper functions.
func SetDispatcher(d *sender.Dispatcher) {
	globalDispatcher.Store(d)
}

func currentDispatcher() *sender.Dispatcher {
	return globalDispatcher.Load()
}

// deliver runs the call on the dispatcher and waits for it, so replies of one
// update keep their order and still get retries. Without a dispatcher, or when
// its queue is unavailable, the call runs inline.
func deliver(c tele.Context, action, endpoint string, run func() error) error {
	disp := currentDispatcher()
	if disp == nil {
		return run()
	}

	ctx := BuildContext(c)
	err := disp.Do(ctx, action, endpoint, run)
	if errors.Is(err, sender.ErrQueueFull) || errors.Is(err, sender.ErrQueueClosed) {
		logger.Warn(ctx, "tg.sender", "queue.fallback",
			slog.String("action", action),
			slog.String("endpoint", endpoint),
			slog.String("err", err.Error()),
		)
		return run()
	}
	return err
}

// SendText sends text to the current recipient with optional send options.
func SendText(c tele.Context, text string, opts ...*tele.SendOptions) error {
	var sendOpts *tele.SendOptions
	if len(opts) > 0 {
		sendOpts = opts[0]
	}
	return deliver(c, "send.text", "sendMessage", func() error {
		if sendOpts != nil {
			return c.Send(text, sendOpts)
		}
		return c.Send(text)
	})
}

// SendPhoto sends a photo by URL or file id with a caption.
func SendPhoto(c tele.Context, file, caption string, opts *tele.SendOptions) error {
	photo := &tele.Photo{File: photoFile(file), Caption: caption}
	return deliver(c, "send.photo", "sendPhoto", func() error {
		if opts != nil {
			return c.Send(photo, opts)
		}
		return c.Send(photo)
	})
}

// EditOrSend edits the callback's message in place, or sends a new one.
func EditOrSend(c tele.Context, text string, opts *tele.SendOptions) error {
	return deliver(c, "send.edit", "editMessageText", func() error {
		return c.EditOrSend(text, opts)
	})
}

// DeleteMessage removes the message a callback was pressed on; other updates are ignored.
func DeleteMessage(c tele.Context) error {
	if c.Callback() == nil || c.Callback().Message == nil {
		return nil
	}
	return deliver(c, "delete", "deleteMessage", c.Delete)
}

func photoFile(ref string) tele.File {
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		return tele.FromURL(ref)
	}
	return tele.File{FileID: ref}
}

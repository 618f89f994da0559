// Package bot adapts the engine to Telegram: it classifies updates, renders
// replies as messages with inline keyboards and registers the handlers.
package bot

import (
	"errors"
	"log/slog"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/kennelbot/core/logger"
	tg "github.com/m3rciful/kennelbot/core/telegram"
	"github.com/m3rciful/kennelbot/core/telegram/callbacks"
	"github.com/m3rciful/kennelbot/core/telegram/commands"
	"github.com/m3rciful/kennelbot/core/telegram/helpers"
	"github.com/m3rciful/kennelbot/core/telegram/router"
	"github.com/m3rciful/kennelbot/core/telegram/ui"
	"github.com/m3rciful/kennelbot/kennel/engine"
	"github.com/m3rciful/kennelbot/kennel/menu"
)

const textNoDocuments = "I can only read text messages. Type /start to open the main menu."

// Bot is the Telegram front of the engine.
type Bot struct {
	engine *engine.Engine
}

var (
	_ router.FSM          = (*Bot)(nil)
	_ ui.FallbackProvider = (*Bot)(nil)
)

// New wraps e.
func New(e *engine.Engine) *Bot {
	return &Bot{engine: e}
}

// Registry declares the bot's commands and one callback per action kind.
func (b *Bot) Registry() *tg.Registry {
	reg := tg.NewRegistry()
	cmds := []struct {
		name string
		cmd  commands.Command
	}{
		{"/start", commands.Command{Handler: b.onMessage, Description: "Open the main menu", Aliases: []string{"/help"}}},
		{"/menu", commands.Command{Handler: b.onMessage, Description: "Show the main menu"}},
		{"/cancel", commands.Command{Handler: b.onMessage, Description: "Cancel the current inquiry"}},
	}
	for _, c := range cmds {
		// Registration only fails on programming errors; the registry logs them.
		_ = reg.RegisterCommand(c.name, c.cmd)
	}
	for _, kind := range menu.ActionKinds() {
		_ = reg.RegisterCallback(kind.String(), b.onCallback)
	}
	reg.SetCallbackNotFound(b.UnknownCallback())
	return reg
}

// Routes binds commands, callbacks and text with the shared router.
func (b *Bot) Routes(reg *tg.Registry) []tg.Route {
	return router.Routes(b, reg, b)
}

// InProgress reports whether the user is inside the inquiry dialogue.
func (b *Bot) InProgress(userID int64) bool {
	return b.engine.InProgress(userID)
}

// ManagerHandler receives every message of a user inside the dialogue,
// commands included, so /cancel and /start reach the engine first.
func (b *Bot) ManagerHandler(c tele.Context) error {
	return b.onMessage(c)
}

func (b *Bot) UnknownText() tele.HandlerFunc { return b.onMessage }

func (b *Bot) UnknownDocument() tele.HandlerFunc {
	return func(c tele.Context) error {
		return helpers.SendText(c, textNoDocuments)
	}
}

// UnknownCallback answers presses of buttons this version no longer knows
// with the main menu.
func (b *Bot) UnknownCallback() tele.HandlerFunc {
	return func(c tele.Context) error {
		return b.respond(c, engine.Navigation{User: senderID(c), From: menu.Entry, Action: menu.GoMain})
	}
}

func (b *Bot) onMessage(c tele.Context) error {
	ev, err := engine.Classify(engine.Inbound{User: senderID(c), Text: c.Text()})
	if err != nil {
		return err
	}
	return b.respond(c, ev)
}

func (b *Bot) onCallback(c tele.Context) error {
	in, ok := inboundFromCallback(c.Callback())
	in.User = senderID(c)
	ev, err := engine.Classify(in)
	if !ok || err != nil {
		ctx := helpers.BuildContext(c)
		logger.Warn(ctx, "engine", "callback.stale",
			slog.String("status", "invalid"),
			slog.String("cb_key", in.Key),
		)
		ev = engine.Navigation{User: in.User, From: menu.Entry, Action: menu.GoMain}
	}
	return b.respond(c, ev)
}

// respond runs ev through the engine and shows the reply. A reply that comes
// with an error is still shown; the error is returned for the handler log.
func (b *Bot) respond(c tele.Context, ev engine.Event) error {
	ctx := helpers.BuildContext(c)
	reply, err := b.engine.Handle(ctx, ev)
	if reply.Text == "" {
		return err
	}
	return errors.Join(err, show(c, reply))
}

func senderID(c tele.Context) int64 {
	if u := c.Sender(); u != nil {
		return u.ID
	}
	return 0
}

// inboundFromCallback decodes a button press; ok is false for a payload
// without the originating screen.
func inboundFromCallback(cb *tele.Callback) (engine.Inbound, bool) {
	key, payload := callbacks.ParseCallbackData(cb)
	in := engine.Inbound{Callback: true, Key: key}
	parts, err := callbacks.SplitPayload(payload, payloadSep)
	if err != nil {
		return in, false
	}
	in.From = parts[0]
	if len(parts) > 1 {
		in.Arg = parts[1]
	}
	return in, true
}

package router

import (
	"strings"

	tele "gopkg.in/telebot.v4"

	tg "github.com/m3rciful/kennelbot/core/telegram"
)

// FSM is implemented by whatever drives multi-step dialogues. Text from a
// user with a dialogue in progress goes to ManagerHandler before any other routing.
type FSM interface {
	InProgress(userID int64) bool
	ManagerHandler(c tele.Context) error
}

// TextOptions controls fallback behaviour for text/document updates.
type TextOptions struct {
	UnknownText     tele.HandlerFunc
	UnknownDocument tele.HandlerFunc
}

// TextRoutes routes plain text and documents. A running dialogue takes
// precedence, then registered commands typed as text, then the fallbacks.
func TextRoutes(fsm FSM, reg *tg.Registry, opts TextOptions) []tg.Route {
	inDialogue := func(c tele.Context) bool {
		u := c.Sender()
		return fsm != nil && u != nil && fsm.InProgress(u.ID)
	}

	text := func(c tele.Context) error {
		if inDialogue(c) {
			return newCall("fsm").run(c, fsm.ManagerHandler)
		}
		if reg != nil && strings.HasPrefix(c.Text(), "/") {
			if key, cmd, ok := reg.LookupCommand(c.Text()); ok && cmd.Handler != nil {
				return newCall(key).run(c, cmd.Handler)
			}
		}
		return newCall("unknown_text").run(c, opts.UnknownText)
	}

	document := func(c tele.Context) error {
		if inDialogue(c) {
			return newCall("fsm_document").run(c, fsm.ManagerHandler)
		}
		return newCall("unexpected_document").run(c, opts.UnknownDocument)
	}

	return []tg.Route{
		{Endpoint: tele.OnText, Handler: guard(text)},
		{Endpoint: tele.OnDocument, Handler: guard(document)},
	}
}

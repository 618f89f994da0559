package router

import (
	tg "github.com/m3rciful/kennelbot/core/telegram"
	"github.com/m3rciful/kennelbot/core/telegram/ui"
)

// Routes binds every command, callback and text route of reg, sending
// unmatched updates to fb.
func Routes(fsm FSM, reg *tg.Registry, fb ui.FallbackProvider) []tg.Route {
	var text TextOptions
	var cb CallbackOptions
	if fb != nil {
		text = TextOptions{UnknownText: fb.UnknownText(), UnknownDocument: fb.UnknownDocument()}
		cb = CallbackOptions{NotFound: fb.UnknownCallback()}
	}
	routes := CommandRoutes(reg)
	routes = append(routes, CallbackRoute(reg, cb))
	return append(routes, TextRoutes(fsm, reg, text)...)
}

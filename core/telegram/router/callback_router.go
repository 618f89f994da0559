package router

import (
	"log/slog"

	tele "gopkg.in/telebot.v4"

	tg "github.com/m3rciful/kennelbot/core/telegram"
	"github.com/m3rciful/kennelbot/core/telegram/callbacks"
)

// CallbackOptions customises fallback behaviour for callbacks.
type CallbackOptions struct {
	NotFound tele.HandlerFunc
}

// CallbackRoute answers every button press and hands it to the handler
// registered for its unique key, or to the not-found fallback.
func CallbackRoute(reg *tg.Registry, opts CallbackOptions) tg.Route {
	handler := func(c tele.Context) error {
		cb := c.Callback()
		if cb == nil {
			return nil
		}
		key, _ := callbacks.ParseCallbackData(cb)
		k := newCall("callback."+key, slog.String("cb_key", key))

		// Stops the client spinner; a failure here is not worth surfacing.
		_ = c.Respond()

		if h, ok := reg.GetCallback(key); ok && h != nil {
			return k.run(c, h)
		}
		k.status = "not_found"
		fallback := reg.CallbackNotFound()
		if fallback == nil {
			fallback = opts.NotFound
		}
		return k.run(c, fallback)
	}
	return tg.Route{Endpoint: tele.OnCallback, Handler: guard(handler)}
}

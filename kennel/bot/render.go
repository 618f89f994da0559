package bot

import (
	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/kennelbot/core/telegram/helpers"
	"github.com/m3rciful/kennelbot/core/telegram/keyboard"
	"github.com/m3rciful/kennelbot/kennel/menu"
)

const payloadSep = "|"

// Payload is the callback data of a button: the screen it sits on, then the
// action argument if any, e.g. "catalog|2".
func Payload(from menu.Screen, a menu.Action) string {
	if arg := a.Arg(); arg != "" {
		return from.Code() + payloadSep + arg
	}
	return from.Code()
}

// Markup renders the reply's buttons one per row. It is nil without buttons.
func Markup(r menu.Reply) *tele.ReplyMarkup {
	if len(r.Buttons) == 0 {
		return nil
	}
	btns := make([]keyboard.InlineBtn, len(r.Buttons))
	for i, b := range r.Buttons {
		btns[i] = keyboard.InlineBtn{
			Text:   b.Caption,
			Unique: b.Action.Key(),
			Data:   Payload(r.Screen, b.Action),
		}
	}
	return keyboard.InlineButtons(btns)
}

// SendOptions carries the parse mode and keyboard of r.
func SendOptions(r menu.Reply) *tele.SendOptions {
	opts := &tele.SendOptions{ReplyMarkup: Markup(r)}
	if r.Markdown {
		opts.ParseMode = tele.ModeMarkdown
	}
	return opts
}

// show delivers r. Button presses edit the pressed message; a photo reply
// replaces it with a new photo message instead.
func show(c tele.Context, r menu.Reply) error {
	opts := SendOptions(r)
	isCallback := c.Callback() != nil

	if r.Photo != "" {
		if err := helpers.SendPhoto(c, r.Photo, r.Text, opts); err != nil {
			return err
		}
		if isCallback {
			_ = helpers.DeleteMessage(c)
		}
		return nil
	}
	if isCallback {
		return helpers.EditOrSend(c, r.Text, opts)
	}
	return helpers.SendText(c, r.Text, opts)
}

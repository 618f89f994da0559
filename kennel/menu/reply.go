package menu

// Button is one offered transition with its caption.
type Button struct {
	Action  Action
	Caption string
}

// Reply is what the transport renders: text, buttons and an optional photo.
type Reply struct {
	Screen  Screen
	Text    string
	Buttons []Button
	// Photo is a URL or file id; the text becomes its caption.
	Photo string
	// Markdown marks Text as Telegram legacy Markdown.
	Markdown bool
}

// Actions returns the transitions offered by the reply, in button order.
func (r Reply) Actions() []Action {
	out := make([]Action, len(r.Buttons))
	for i, b := range r.Buttons {
		out[i] = b.Action
	}
	return out
}

package engine

import (
	"errors"
	"fmt"
	"strings"

	"github.com/m3rciful/kennelbot/kennel/menu"
)

// ErrUnrecognized is returned by Classify for input that maps to no event.
var ErrUnrecognized = errors.New("engine: unrecognized input")

// Event is one classified user interaction: Navigation, Text or Cancel.
type Event interface {
	UserID() int64
	isEvent()
}

// Navigation is a button press (or /start, /menu, /help) moving from a screen along an action.
type Navigation struct {
	User   int64
	From   menu.Screen
	Action menu.Action
}

// Text is any other message. The dialogue does not take blank text or
// unknown commands as answers.
type Text struct {
	User int64
	Body string
}

// Cancel is the /cancel command.
type Cancel struct {
	User int64
}

func (e Navigation) UserID() int64 { return e.User }
func (e Text) UserID() int64       { return e.User }
func (e Cancel) UserID() int64     { return e.User }

func (Navigation) isEvent() {}
func (Text) isEvent()       {}
func (Cancel) isEvent()     {}

// Inbound is raw transport input. Callback presses carry Key, From and Arg;
// messages carry Text.
type Inbound struct {
	User     int64
	Callback bool
	Key      string
	From     string
	Arg      string
	Text     string
}

// Classify turns raw input into an event.
func Classify(in Inbound) (Event, error) {
	if in.Callback {
		action, err := menu.ParseAction(in.Key, in.Arg)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrUnrecognized, err)
		}
		from, err := menu.ParseScreen(in.From)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrUnrecognized, err)
		}
		return Navigation{User: in.User, From: from, Action: action}, nil
	}

	switch commandName(in.Text) {
	case "start", "menu", "help":
		return Navigation{User: in.User, From: menu.Entry, Action: menu.GoMain}, nil
	case "cancel":
		return Cancel{User: in.User}, nil
	}
	return Text{User: in.User, Body: in.Text}, nil
}

// commandName returns "start" for "/start", "/start@kennel_bot" or "/start now".
func commandName(text string) string {
	text = strings.TrimSpace(text)
	rest, ok := strings.CutPrefix(text, "/")
	if !ok {
		return ""
	}
	if fields := strings.Fields(rest); len(fields) > 0 {
		rest = fields[0]
	}
	name, _, _ := strings.Cut(rest, "@")
	return strings.ToLower(name)
}

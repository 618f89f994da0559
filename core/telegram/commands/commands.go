// Package commands describes slash commands for the registry.
package commands

import tele "gopkg.in/telebot.v4"

// Command is one slash command. Aliases route to the same handler.
type Command struct {
	Handler     tele.HandlerFunc
	Description string
	// Hidden commands are routed but left out of the Telegram command menu.
	Hidden  bool
	Aliases []string
}

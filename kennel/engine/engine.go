// Package engine routes classified user events to the menu graph and the
// inquiry dialogue and decides what each user sees next.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/m3rciful/kennelbot/core/logger"
	"github.com/m3rciful/kennelbot/kennel/conversation"
	"github.com/m3rciful/kennelbot/kennel/menu"
)

const textNothingToCancel = "There is nothing to cancel. Type /start to open the main menu."

// Engine is the transport-independent core of the bot.
type Engine struct {
	graph *menu.Graph
	conv  *conversation.Controller
}

// New wires the graph and the dialogue controller.
func New(graph *menu.Graph, conv *conversation.Controller) *Engine {
	return &Engine{graph: graph, conv: conv}
}

// InProgress reports whether user is inside the inquiry dialogue.
func (e *Engine) InProgress(user int64) bool {
	return e.conv.InProgress(user)
}

// Handle dispatches ev. Missing items and invalid transitions degrade to a
// reply with a nil error; a failed save returns both a reply and the error.
func (e *Engine) Handle(ctx context.Context, ev Event) (menu.Reply, error) {
	switch ev := ev.(type) {
	case Navigation:
		return e.HandleNavigation(ctx, ev.User, ev.From, ev.Action)
	case Text:
		return e.HandleText(ctx, ev.User, ev.Body)
	case Cancel:
		return e.HandleCancel(ctx, ev.User), nil
	}
	return menu.Reply{}, fmt.Errorf("engine: unknown event %T", ev)
}

// HandleNavigation applies a button press. StartInquiry opens the dialogue
// from any screen; other actions never touch the user's dialogue state.
func (e *Engine) HandleNavigation(ctx context.Context, user int64, from menu.Screen, a menu.Action) (menu.Reply, error) {
	switch a.Kind {
	case menu.ActStartInquiry:
		return e.conv.Start(ctx, user), nil
	case menu.ActCancelInquiry:
		return e.HandleCancel(ctx, user), nil
	}

	reply, err := e.graph.Navigate(from, a)
	switch {
	case err == nil:
		logger.Debug(ctx, "engine", "navigate",
			slog.String("status", "ok"),
			slog.String("screen", from.Code()),
			slog.String("action", a.String()),
		)
		return reply, nil
	case errors.Is(err, menu.ErrItemNotFound):
		logger.Info(ctx, "engine", "navigate",
			slog.String("status", "not_found"),
			slog.String("screen", from.Code()),
			slog.Int("item_id", a.ItemID),
		)
		return reply, nil
	case errors.Is(err, menu.ErrInvalidTransition):
		logger.Warn(ctx, "engine", "navigate",
			slog.String("status", "invalid"),
			slog.String("screen", from.Code()),
			slog.String("action", a.String()),
		)
		return reply, nil
	}
	return reply, err
}

// HandleText feeds text to the dialogue. Text from an idle user gets a hint
// pointing at /start.
func (e *Engine) HandleText(ctx context.Context, user int64, text string) (menu.Reply, error) {
	reply, err := e.conv.HandleText(ctx, user, text)
	if errors.Is(err, conversation.ErrNotInFlow) {
		logger.Debug(ctx, "engine", "text.idle", slog.String("status", "skip"))
		return e.graph.Render(menu.Entry), nil
	}
	return reply, err
}

// HandleCancel leaves the dialogue, or says there is nothing to cancel.
func (e *Engine) HandleCancel(ctx context.Context, user int64) menu.Reply {
	if reply, ok := e.conv.Cancel(ctx, user); ok {
		return reply
	}
	return menu.Reply{Screen: menu.Entry, Text: textNothingToCancel}
}

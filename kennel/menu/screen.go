// Package menu is the navigation graph of the bot: which screens exist, what
// each one shows, and which buttons lead where. It is a pure function of the
// current screen, the pressed action and a catalog snapshot.
package menu

import (
	"fmt"
	"strconv"
	"strings"
)

// ScreenKind enumerates the screens of the menu.
type ScreenKind int

const (
	// ScreenEntry is where a user is before /start.
	ScreenEntry ScreenKind = iota
	ScreenMain
	ScreenCatalog
	ScreenItem
	ScreenAbout
	ScreenPricing
	ScreenContact
	ScreenFAQ
	// ScreenInquiry marks replies of the inquiry dialogue.
	ScreenInquiry
)

var screenCodes = [...]string{
	ScreenEntry:   "entry",
	ScreenMain:    "main",
	ScreenCatalog: "catalog",
	ScreenItem:    "item",
	ScreenAbout:   "about",
	ScreenPricing: "pricing",
	ScreenContact: "contact",
	ScreenFAQ:     "faq",
	ScreenInquiry: "inquiry",
}

func (k ScreenKind) String() string {
	if k < 0 || int(k) >= len(screenCodes) {
		return "screen(" + strconv.Itoa(int(k)) + ")"
	}
	return screenCodes[k]
}

// Screen is a screen kind plus the item id for ScreenItem.
type Screen struct {
	Kind   ScreenKind
	ItemID int
}

// Screens without an item id.
var (
	Entry   = Screen{Kind: ScreenEntry}
	Main    = Screen{Kind: ScreenMain}
	Catalog = Screen{Kind: ScreenCatalog}
	About   = Screen{Kind: ScreenAbout}
	Pricing = Screen{Kind: ScreenPricing}
	Contact = Screen{Kind: ScreenContact}
	FAQ     = Screen{Kind: ScreenFAQ}
	Inquiry = Screen{Kind: ScreenInquiry}
)

// ItemScreen is the detail screen of one item.
func ItemScreen(id int) Screen { return Screen{Kind: ScreenItem, ItemID: id} }

// Code is the compact form carried in callback payloads, e.g. "main" or "item:2".
func (s Screen) Code() string {
	if s.Kind == ScreenItem {
		return "item:" + strconv.Itoa(s.ItemID)
	}
	return s.Kind.String()
}

func (s Screen) String() string { return s.Code() }

// ParseScreen is the inverse of Screen.Code.
func ParseScreen(code string) (Screen, error) {
	code = strings.TrimSpace(code)
	if rest, ok := strings.CutPrefix(code, "item:"); ok {
		id, err := strconv.Atoi(rest)
		if err != nil {
			return Screen{}, fmt.Errorf("menu: bad item screen %q: %w", code, err)
		}
		return ItemScreen(id), nil
	}
	for k, c := range screenCodes {
		if c == code && ScreenKind(k) != ScreenItem {
			return Screen{Kind: ScreenKind(k)}, nil
		}
	}
	return Screen{}, fmt.Errorf("menu: unknown screen %q", code)
}

// ActionKind enumerates the transition labels a button can carry.
type ActionKind int

const (
	ActMainMenu ActionKind = iota
	ActViewCatalog
	ActItem
	ActAbout
	ActPricing
	ActContact
	ActFAQ
	ActStartInquiry
	ActCancelInquiry
)

// Keys double as Telegram callback uniques.
var actionKeys = [...]string{
	ActMainMenu:      "main_menu",
	ActViewCatalog:   "view_puppies",
	ActItem:          "puppy",
	ActAbout:         "about",
	ActPricing:       "pricing",
	ActContact:       "contact",
	ActFAQ:           "faq",
	ActStartInquiry:  "start_inquiry",
	ActCancelInquiry: "cancel_inquiry",
}

func (k ActionKind) String() string {
	if k < 0 || int(k) >= len(actionKeys) {
		return "action(" + strconv.Itoa(int(k)) + ")"
	}
	return actionKeys[k]
}

// ActionKinds lists every action kind, for registering handlers.
func ActionKinds() []ActionKind {
	out := make([]ActionKind, len(actionKeys))
	for i := range actionKeys {
		out[i] = ActionKind(i)
	}
	return out
}

// Action is a transition label; ItemID is set for ActItem only.
type Action struct {
	Kind   ActionKind
	ItemID int
}

// Convenience values for actions without an item id.
var (
	GoMain        = Action{Kind: ActMainMenu}
	GoCatalog     = Action{Kind: ActViewCatalog}
	GoAbout       = Action{Kind: ActAbout}
	GoPricing     = Action{Kind: ActPricing}
	GoContact     = Action{Kind: ActContact}
	GoFAQ         = Action{Kind: ActFAQ}
	StartInquiry  = Action{Kind: ActStartInquiry}
	CancelInquiry = Action{Kind: ActCancelInquiry}
)

// GoItem opens the detail screen of item id.
func GoItem(id int) Action { return Action{Kind: ActItem, ItemID: id} }

// Key returns the callback unique of the action.
func (a Action) Key() string { return a.Kind.String() }

// Arg returns the action argument carried next to the key; empty for most kinds.
func (a Action) Arg() string {
	if a.Kind == ActItem {
		return strconv.Itoa(a.ItemID)
	}
	return ""
}

func (a Action) String() string {
	if arg := a.Arg(); arg != "" {
		return a.Key() + ":" + arg
	}
	return a.Key()
}

// ParseAction is the inverse of Key and Arg.
func ParseAction(key, arg string) (Action, error) {
	key = strings.TrimSpace(key)
	for k, c := range actionKeys {
		if c != key {
			continue
		}
		a := Action{Kind: ActionKind(k)}
		if a.Kind == ActItem {
			id, err := strconv.Atoi(strings.TrimSpace(arg))
			if err != nil {
				return Action{}, fmt.Errorf("menu: bad item id %q: %w", arg, err)
			}
			a.ItemID = id
		}
		return a, nil
	}
	return Action{}, fmt.Errorf("menu: unknown action %q", key)
}

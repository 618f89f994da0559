package menu

import (
	"fmt"

	"github.com/m3rciful/kennelbot/core/telegram/format"
	"github.com/m3rciful/kennelbot/kennel/catalog"
)

// Graph renders screens from the catalog and validates transitions.
type Graph struct {
	src catalog.Source
}

// NewGraph builds a graph over src. Each call reads one snapshot.
func NewGraph(src catalog.Source) *Graph {
	return &Graph{src: src}
}

func (g *Graph) snapshot() *catalog.Catalog {
	if g.src != nil {
		if snap := g.src.Snapshot(); snap != nil {
			return snap
		}
	}
	return &catalog.Catalog{}
}

// Render returns the content and buttons of s.
func (g *Graph) Render(s Screen) Reply {
	r, _ := render(g.snapshot(), s)
	return r
}

// Actions returns the transitions offered from s.
func (g *Graph) Actions(s Screen) []Action {
	r, _ := render(g.snapshot(), s)
	return r.Actions()
}

// Allows reports whether a is a valid transition from s. Item actions from
// the catalog are accepted for any id: a button may outlive the listing it
// was rendered from, and the detail screen reports what happened to it.
func (g *Graph) Allows(from Screen, a Action) bool {
	return allows(g.snapshot(), from, a)
}

func allows(snap *catalog.Catalog, from Screen, a Action) bool {
	if from.Kind == ScreenCatalog && a.Kind == ActItem {
		return true
	}
	r, _ := render(snap, from)
	for _, b := range r.Buttons {
		if b.Action == a {
			return true
		}
	}
	return false
}

// Navigate moves from one screen along a. An invalid transition returns
// ErrInvalidTransition with from re-rendered. A missing item returns
// ErrItemNotFound with the not-found screen. Both replies are usable.
func (g *Graph) Navigate(from Screen, a Action) (Reply, error) {
	snap := g.snapshot()
	if !allows(snap, from, a) {
		r, _ := render(snap, from)
		return r, fmt.Errorf("%w: %s from %s", ErrInvalidTransition, a, from)
	}

	target, ok := Target(a)
	if !ok {
		r, _ := render(snap, from)
		return r, fmt.Errorf("%w: %s is not a screen transition", ErrInvalidTransition, a)
	}
	if from.Kind == ScreenEntry && target.Kind == ScreenMain {
		return welcome(), nil
	}
	return render(snap, target)
}

// Target maps a navigation action to its screen. Dialogue actions have none.
func Target(a Action) (Screen, bool) {
	switch a.Kind {
	case ActMainMenu:
		return Main, true
	case ActViewCatalog:
		return Catalog, true
	case ActItem:
		return ItemScreen(a.ItemID), true
	case ActAbout:
		return About, true
	case ActPricing:
		return Pricing, true
	case ActContact:
		return Contact, true
	case ActFAQ:
		return FAQ, true
	case ActStartInquiry, ActCancelInquiry:
		return Screen{}, false
	}
	return Screen{}, false
}

func mainButtons() []Button {
	return []Button{
		{GoCatalog, CaptionCatalog},
		{GoAbout, CaptionAbout},
		{GoPricing, CaptionPricing},
		{GoContact, CaptionContact},
		{GoFAQ, CaptionFAQ},
	}
}

func welcome() Reply {
	return Reply{Screen: Main, Text: textWelcome, Buttons: mainButtons(), Markdown: true}
}

// render builds the reply for s. The error is ErrItemNotFound for a missing item.
func render(snap *catalog.Catalog, s Screen) (Reply, error) {
	back := Button{GoMain, CaptionBackToMenu}
	switch s.Kind {
	case ScreenEntry:
		return Reply{Screen: s, Text: textEntry, Buttons: []Button{{GoMain, CaptionHome}}}, nil

	case ScreenMain:
		return Reply{Screen: s, Text: textMain, Buttons: mainButtons(), Markdown: true}, nil

	case ScreenCatalog:
		items := snap.Available()
		if len(items) == 0 {
			return Reply{Screen: s, Text: textCatalogEmpty, Buttons: []Button{back}}, nil
		}
		buttons := make([]Button, 0, len(items)+1)
		for _, it := range items {
			buttons = append(buttons, Button{GoItem(it.ID), fmt.Sprintf("%s - %s (%s)", it.Name, it.Sex, it.Age)})
		}
		buttons = append(buttons, back)
		return Reply{Screen: s, Text: fmt.Sprintf(textCatalogHeader, len(items)), Buttons: buttons, Markdown: true}, nil

	case ScreenItem:
		it, ok := snap.Item(s.ItemID)
		if !ok {
			return Reply{Screen: s, Text: textItemNotFound, Buttons: []Button{{GoMain, CaptionHome}}},
				fmt.Errorf("%w: id %d", ErrItemNotFound, s.ItemID)
		}
		status := statusSold
		if it.Available {
			status = statusAvailable
		}
		return Reply{
			Screen: s,
			Text: fmt.Sprintf(textItemDetail,
				md(it.Name), md(string(it.Sex)), md(it.Age), md(it.Color), md(it.Price), status, md(it.Description)),
			Buttons: []Button{
				{StartInquiry, CaptionInquireItem},
				{GoCatalog, CaptionBackToList},
				{GoMain, CaptionHome},
			},
			Photo:    it.Photo(),
			Markdown: true,
		}, nil

	case ScreenAbout:
		return Reply{Screen: s, Text: fmt.Sprintf(textAbout, md(snap.About)), Buttons: []Button{back}, Markdown: true}, nil

	case ScreenPricing:
		return Reply{
			Screen:   s,
			Text:     textPricing,
			Buttons:  []Button{{GoContact, CaptionContact}, back},
			Markdown: true,
		}, nil

	case ScreenContact:
		c := snap.Contact
		return Reply{
			Screen:   s,
			Text:     fmt.Sprintf(textContact, md(c.Phone), md(c.Email), md(c.Location)),
			Buttons:  []Button{{StartInquiry, CaptionSubmit}, back},
			Markdown: true,
		}, nil

	case ScreenFAQ:
		return Reply{Screen: s, Text: textFAQ, Buttons: []Button{back}, Markdown: true}, nil

	case ScreenInquiry:
		return Reply{Screen: s, Buttons: []Button{{CancelInquiry, CaptionCancel}, {GoMain, CaptionHomeDone}}}, nil
	}
	return Reply{Screen: Main, Text: textMain, Buttons: mainButtons(), Markdown: true}, nil
}

// md escapes catalog text for the legacy Markdown the screens are sent in.
func md(s string) string { return format.EscapeMD(s) }

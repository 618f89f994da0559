package engine

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/kennelbot/core/state"
	"github.com/m3rciful/kennelbot/kennel/catalog"
	"github.com/m3rciful/kennelbot/kennel/conversation"
	"github.com/m3rciful/kennelbot/kennel/inquiry"
	"github.com/m3rciful/kennelbot/kennel/menu"
	"github.com/m3rciful/kennelbot/kennel/notify"
)

type seedSource struct{}

func (seedSource) Snapshot() *catalog.Catalog { return catalog.Seed() }

type failingStore struct{}

func (failingStore) Append(context.Context, inquiry.Record) error {
	return &inquiry.PersistError{Op: "append", Err: errors.New("read-only file system")}
}
func (failingStore) List(context.Context) ([]inquiry.Record, error) { return nil, nil }
func (failingStore) Close() error                                   { return nil }

func newEngine(t *testing.T, store inquiry.Store, n notify.Notifier) *Engine {
	t.Helper()
	return New(menu.NewGraph(seedSource{}), conversation.New(state.NewMemoryManager(), store, n))
}

func fileStore(t *testing.T) *inquiry.FileStore {
	t.Helper()
	s, err := inquiry.OpenFile(t.Context(), filepath.Join(t.TempDir(), "inquiries.json"))
	require.NoError(t, err)
	return s
}

func TestClassify(t *testing.T) {
	cases := []struct {
		in   Inbound
		want Event
	}{
		{Inbound{User: 1, Text: "/start"}, Navigation{User: 1, From: menu.Entry, Action: menu.GoMain}},
		{Inbound{User: 1, Text: "/start@kennel_bot"}, Navigation{User: 1, From: menu.Entry, Action: menu.GoMain}},
		{Inbound{User: 1, Text: "/menu"}, Navigation{User: 1, From: menu.Entry, Action: menu.GoMain}},
		{Inbound{User: 1, Text: "/help"}, Navigation{User: 1, From: menu.Entry, Action: menu.GoMain}},
		{Inbound{User: 1, Text: "/HELP@kennel_bot please"}, Navigation{User: 1, From: menu.Entry, Action: menu.GoMain}},
		{Inbound{User: 1, Text: " /cancel "}, Cancel{User: 1}},
		{Inbound{User: 1, Text: "start"}, Text{User: 1, Body: "start"}},
		{Inbound{User: 1, Text: "/unknown"}, Text{User: 1, Body: "/unknown"}},
		{Inbound{User: 2, Callback: true, Key: "view_puppies", From: "main"}, Navigation{User: 2, From: menu.Main, Action: menu.GoCatalog}},
		{Inbound{User: 2, Callback: true, Key: "puppy", From: "catalog", Arg: "1"}, Navigation{User: 2, From: menu.Catalog, Action: menu.GoItem(1)}},
		{Inbound{User: 2, Callback: true, Key: "start_inquiry", From: "item:1"}, Navigation{User: 2, From: menu.ItemScreen(1), Action: menu.StartInquiry}},
	}
	for _, tc := range cases {
		got, err := Classify(tc.in)
		require.NoError(t, err, "%+v", tc.in)
		assert.Equal(t, tc.want, got, "%+v", tc.in)
	}

	_, err := Classify(Inbound{Callback: true, Key: "nope", From: "main"})
	assert.ErrorIs(t, err, ErrUnrecognized)
	_, err = Classify(Inbound{Callback: true, Key: "about", From: "attic"})
	assert.ErrorIs(t, err, ErrUnrecognized)
	_, err = Classify(Inbound{Callback: true, Key: "puppy", From: "catalog", Arg: "x"})
	assert.ErrorIs(t, err, ErrUnrecognized)
}

func TestBrunoInquiryScenario(t *testing.T) {
	store := fileStore(t)
	var notified []inquiry.Record
	n := notify.Func(func(_ context.Context, r inquiry.Record) error {
		notified = append(notified, r)
		return nil
	})
	e := newEngine(t, store, n)
	ctx := t.Context()
	const user = 42

	steps := []Event{
		Navigation{User: user, From: menu.Entry, Action: menu.GoMain},
		Navigation{User: user, From: menu.Main, Action: menu.GoCatalog},
		Navigation{User: user, From: menu.Catalog, Action: menu.GoItem(1)},
	}
	var (
		r   menu.Reply
		err error
	)
	for _, ev := range steps {
		r, err = e.Handle(ctx, ev)
		require.NoError(t, err)
	}
	assert.Contains(t, r.Text, "Bruno")
	assert.Equal(t, menu.ItemScreen(1), r.Screen)

	r, err = e.Handle(ctx, Navigation{User: user, From: r.Screen, Action: menu.StartInquiry})
	require.NoError(t, err)
	assert.Contains(t, r.Text, "Please provide your name")
	assert.True(t, e.InProgress(user))

	for _, text := range []string{"Alice", "555-1234", "alice@example.com", "Is Bruno still available?"} {
		r, err = e.Handle(ctx, Text{User: user, Body: text})
		require.NoError(t, err)
	}
	assert.Contains(t, r.Text, "Thank you for your inquiry")
	assert.Equal(t, []menu.Action{menu.GoMain}, r.Actions())
	assert.False(t, e.InProgress(user))

	got, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Alice", got[0].Name)
	assert.Equal(t, "555-1234", got[0].Phone)
	assert.Equal(t, "alice@example.com", got[0].Email)
	assert.Equal(t, "Is Bruno still available?", got[0].Message)
	assert.EqualValues(t, user, got[0].UserID)
	assert.Equal(t, got, notified)

	r, err = e.Handle(ctx, Navigation{User: user, From: r.Screen, Action: menu.GoMain})
	require.NoError(t, err)
	assert.Equal(t, menu.Main, r.Screen)
}

func TestNavigationDoesNotTouchDialogue(t *testing.T) {
	e := newEngine(t, fileStore(t), nil)
	ctx := t.Context()

	e.HandleNavigation(ctx, 1, menu.Contact, menu.StartInquiry)
	_, err := e.HandleText(ctx, 1, "Alice")
	require.NoError(t, err)

	r, err := e.HandleNavigation(ctx, 1, menu.Main, menu.GoFAQ)
	require.NoError(t, err)
	assert.Equal(t, menu.FAQ, r.Screen)
	assert.True(t, e.InProgress(1))

	r, err = e.HandleText(ctx, 1, "555")
	require.NoError(t, err)
	assert.Contains(t, r.Text, "email")
}

func TestDegradedNavigation(t *testing.T) {
	e := newEngine(t, fileStore(t), nil)
	ctx := t.Context()

	r, err := e.HandleNavigation(ctx, 1, menu.Catalog, menu.GoItem(99))
	require.NoError(t, err)
	assert.Equal(t, "Puppy not found!", r.Text)

	r, err = e.HandleNavigation(ctx, 1, menu.About, menu.GoPricing)
	require.NoError(t, err)
	assert.Equal(t, menu.About, r.Screen)
}

func TestIdleTextAndCancel(t *testing.T) {
	e := newEngine(t, fileStore(t), nil)
	ctx := t.Context()

	r, err := e.HandleText(ctx, 1, "hello")
	require.NoError(t, err)
	assert.Contains(t, r.Text, "/start")
	assert.Equal(t, []menu.Action{menu.GoMain}, r.Actions())

	r = e.HandleCancel(ctx, 1)
	assert.Equal(t, textNothingToCancel, r.Text)

	e.HandleNavigation(ctx, 1, menu.Main, menu.StartInquiry)
	r, err = e.Handle(ctx, Cancel{User: 1})
	require.NoError(t, err)
	assert.Contains(t, r.Text, "Inquiry cancelled")
	assert.False(t, e.InProgress(1))

	e.HandleNavigation(ctx, 1, menu.Main, menu.StartInquiry)
	r, err = e.HandleNavigation(ctx, 1, menu.Inquiry, menu.CancelInquiry)
	require.NoError(t, err)
	assert.Contains(t, r.Text, "Inquiry cancelled")
}

func TestPersistenceFailureSurfaces(t *testing.T) {
	e := newEngine(t, failingStore{}, nil)
	ctx := t.Context()

	e.HandleNavigation(ctx, 1, menu.Main, menu.StartInquiry)
	var (
		r   menu.Reply
		err error
	)
	for _, text := range []string{"a", "b", "c", "d"} {
		r, err = e.HandleText(ctx, 1, text)
	}
	var perr *inquiry.PersistError
	require.ErrorAs(t, err, &perr)
	assert.NotEmpty(t, r.Text)
	assert.True(t, e.InProgress(1))
}

func TestInterleavedUsers(t *testing.T) {
	store := fileStore(t)
	e := newEngine(t, store, nil)
	ctx := t.Context()

	e.HandleNavigation(ctx, 1, menu.Main, menu.StartInquiry)
	_, err := e.HandleText(ctx, 1, "One")
	require.NoError(t, err)

	r, err := e.HandleText(ctx, 2, "hi")
	require.NoError(t, err)
	assert.Contains(t, r.Text, "/start")

	_, err = e.HandleNavigation(ctx, 2, menu.Main, menu.GoCatalog)
	require.NoError(t, err)

	for _, text := range []string{"111", "one@example.com", "msg"} {
		_, err = e.HandleText(ctx, 1, text)
		require.NoError(t, err)
	}
	got, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.EqualValues(t, 1, got[0].UserID)
	assert.False(t, e.InProgress(2))
}

func TestCommandsAndBlankTextAreNotAnswers(t *testing.T) {
	store := fileStore(t)
	e := newEngine(t, store, nil)
	ctx := t.Context()
	const user = 5

	feed := func(text string) menu.Reply {
		t.Helper()
		ev, err := Classify(Inbound{User: user, Text: text})
		require.NoError(t, err)
		r, err := e.Handle(ctx, ev)
		require.NoError(t, err)
		return r
	}

	r := feed("/help")
	assert.Equal(t, menu.Main, r.Screen)

	_, err := e.HandleNavigation(ctx, user, menu.Main, menu.StartInquiry)
	require.NoError(t, err)

	r = feed("/help")
	assert.Equal(t, menu.Main, r.Screen)
	assert.True(t, e.InProgress(user))

	for _, text := range []string{"", "   ", "/about", "/price@kennel_bot"} {
		r = feed(text)
		assert.Contains(t, r.Text, "Please provide your name", "%q", text)
		assert.Equal(t, []menu.Action{menu.CancelInquiry}, r.Actions())
	}

	feed("hi")
	r = feed("")
	assert.Contains(t, r.Text, "phone number")
	for _, text := range []string{"555-0000", "/email", "hi@example.com", "\n", "Tell me about Luna"} {
		feed(text)
	}

	got, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "hi", got[0].Name)
	assert.Equal(t, "555-0000", got[0].Phone)
	assert.Equal(t, "hi@example.com", got[0].Email)
	assert.Equal(t, "Tell me about Luna", got[0].Message)
	assert.False(t, e.InProgress(user))
}

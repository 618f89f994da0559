package middleware

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"
)

type stubContext struct {
	tele.Context
	upd   tele.Update
	store map[string]interface{}
}

func newStub(userID int64, callback bool) *stubContext {
	u := &tele.User{ID: userID}
	upd := tele.Update{ID: 7}
	if callback {
		upd.Callback = &tele.Callback{Sender: u, Data: "\fcatalog|main"}
	} else {
		upd.Message = &tele.Message{Sender: u, Chat: &tele.Chat{ID: userID, Type: tele.ChatPrivate}, Text: "hi"}
	}
	return &stubContext{upd: upd, store: map[string]interface{}{}}
}

func (c *stubContext) Update() tele.Update { return c.upd }
func (c *stubContext) Text() string        { return "hi" }

func (c *stubContext) Sender() *tele.User {
	if c.upd.Callback != nil {
		return c.upd.Callback.Sender
	}
	return c.upd.Message.Sender
}

func (c *stubContext) Chat() *tele.Chat {
	if c.upd.Message != nil {
		return c.upd.Message.Chat
	}
	return nil
}

func (c *stubContext) Get(k string) interface{}    { return c.store[k] }
func (c *stubContext) Set(k string, v interface{}) { c.store[k] = v }

func TestRateLimitDropsBursts(t *testing.T) {
	var limited, handled int
	mw := RateLimitMiddleware(RateLimitOptions{
		Interval:  time.Hour,
		OnLimited: func(tele.Context) error { limited++; return nil },
	})
	h := mw(func(tele.Context) error { handled++; return nil })

	require.NoError(t, h(newStub(1, false)))
	require.NoError(t, h(newStub(1, false)))
	require.NoError(t, h(newStub(2, false)))

	assert.Equal(t, 2, handled)
	assert.Equal(t, 1, limited)
}

func TestRateLimitExcludedKind(t *testing.T) {
	handled := 0
	mw := RateLimitMiddleware(RateLimitOptions{
		Interval: time.Hour,
		Exclude:  map[string]struct{}{"callback": {}},
	})
	h := mw(func(tele.Context) error { handled++; return nil })
	for range 3 {
		require.NoError(t, h(newStub(1, true)))
	}
	assert.Equal(t, 3, handled)
}

func TestUserLimitersForgetIdleUsers(t *testing.T) {
	l := newUserLimiters(time.Second)
	now := time.Now()
	assert.True(t, l.allow(1, now))
	assert.False(t, l.allow(1, now.Add(100*time.Millisecond)))
	assert.True(t, l.allow(2, now.Add(2*time.Minute)))
	assert.NotContains(t, l.buckets, int64(1))
}

func TestLoggerMiddlewareSetsRID(t *testing.T) {
	c := newStub(5, false)
	var seen string
	h := LoggerMiddleware(func(c tele.Context) error {
		seen, _ = c.Get("rid").(string)
		return nil
	})
	require.NoError(t, h(c))
	assert.Equal(t, "7:5:5", seen)
}

func TestRecoverMiddleware(t *testing.T) {
	h := RecoverMiddleware(func(tele.Context) error { panic("boom") })
	err := h(newStub(1, false))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")

	want := errors.New("plain")
	assert.Equal(t, want, RecoverMiddleware(func(tele.Context) error { return want })(newStub(1, false)))
}

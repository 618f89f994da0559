// Package conversation runs the inquiry dialogue: it collects a name, phone,
// email and message from one user, then stores and announces the inquiry.
package conversation

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/m3rciful/kennelbot/core/logger"
	"github.com/m3rciful/kennelbot/core/state"
	"github.com/m3rciful/kennelbot/kennel/inquiry"
	"github.com/m3rciful/kennelbot/kennel/menu"
	"github.com/m3rciful/kennelbot/kennel/notify"
)

// Dialogue stages. Idle is the absence of a session.
const (
	StageIdle                        = state.StateIdle
	StageAwaitingName    state.State = "awaiting_name"
	StageAwaitingPhone   state.State = "awaiting_phone"
	StageAwaitingEmail   state.State = "awaiting_email"
	StageAwaitingMessage state.State = "awaiting_message"
)

const (
	keyName  = "name"
	keyPhone = "phone"
	keyEmail = "email"
)

// ErrNotInFlow is returned by HandleText for a user with no open inquiry.
var ErrNotInFlow = errors.New("conversation: no inquiry in progress")

var (
	inquiriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "kennelbot_inquiries_total",
		Help: "Inquiry dialogue outcomes.",
	}, []string{"result"})
	activeSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "kennelbot_inquiry_sessions_active",
		Help: "Users currently inside the inquiry dialogue.",
	})
)

// Controller drives the dialogue for every user. Events of one user are
// serialized; different users proceed independently.
type Controller struct {
	sessions state.Manager
	store    inquiry.Store
	notifier notify.Notifier
	now      func() time.Time

	locksMu sync.Mutex
	locks   map[int64]*userLock
}

// userLock serializes one user's events. It lives in locks only while some
// goroutine holds or waits for it.
type userLock struct {
	mu   sync.Mutex
	refs int
}

// New builds a controller. A nil notifier disables notifications.
func New(sessions state.Manager, store inquiry.Store, n notify.Notifier) *Controller {
	if sessions == nil {
		sessions = state.NewMemoryManager()
	}
	if n == nil {
		n = notify.Noop{}
	}
	return &Controller{
		sessions: sessions,
		store:    store,
		notifier: n,
		now:      time.Now,
		locks:    make(map[int64]*userLock),
	}
}

func (c *Controller) lock(user int64) func() {
	c.locksMu.Lock()
	l, ok := c.locks[user]
	if !ok {
		l = &userLock{}
		c.locks[user] = l
	}
	l.refs++
	c.locksMu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		c.locksMu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(c.locks, user)
		}
		c.locksMu.Unlock()
	}
}

func (c *Controller) lockCount() int {
	c.locksMu.Lock()
	defer c.locksMu.Unlock()
	return len(c.locks)
}

// Stage returns the user's current stage.
func (c *Controller) Stage(user int64) state.State {
	return c.sessions.GetState(user)
}

// InProgress reports whether the user is inside the dialogue.
func (c *Controller) InProgress(user int64) bool {
	return c.sessions.InProgress(user)
}

// Start opens the dialogue at the name prompt, dropping anything collected before.
func (c *Controller) Start(ctx context.Context, user int64) menu.Reply {
	defer c.lock(user)()

	prev := c.sessions.GetState(user)
	c.sessions.Clear(user)
	c.sessions.SetState(user, StageAwaitingName)
	c.syncGauge()

	logger.LogEvent(ctx, logger.Conversation, slog.LevelInfo, "start",
		slog.String("status", "ok"),
		slog.String("stage", string(prev)),
		slog.String("next_stage", string(StageAwaitingName)),
	)
	return stagePrompt(StageAwaitingName)
}

// HandleText consumes one message of the dialogue. It returns ErrNotInFlow
// when the user has no open inquiry. Blank text and commands are not taken
// as answers; the current prompt is repeated instead. A failed save returns
// a reply and the error; the session stays at the message stage so resending
// retries it.
func (c *Controller) HandleText(ctx context.Context, user int64, text string) (menu.Reply, error) {
	reply, rec, err := c.advance(ctx, user, text)
	if rec != nil {
		c.announce(ctx, *rec)
	}
	return reply, err
}

func (c *Controller) advance(ctx context.Context, user int64, text string) (menu.Reply, *inquiry.Record, error) {
	defer c.lock(user)()

	stage := c.sessions.GetState(user)
	if stage == StageIdle {
		return menu.Reply{}, nil, ErrNotInFlow
	}
	if !answerable(text) {
		logger.LogEvent(ctx, logger.Conversation, slog.LevelDebug, "advance",
			slog.String("status", "skip"),
			slog.String("stage", string(stage)),
		)
		return stagePrompt(stage), nil, nil
	}

	var next state.State
	switch stage {
	case StageAwaitingName:
		c.sessions.SetValue(user, keyName, text)
		next = StageAwaitingPhone
	case StageAwaitingPhone:
		c.sessions.SetValue(user, keyPhone, text)
		next = StageAwaitingEmail
	case StageAwaitingEmail:
		c.sessions.SetValue(user, keyEmail, text)
		next = StageAwaitingMessage
	case StageAwaitingMessage:
		return c.commit(ctx, user, text)
	default:
		return menu.Reply{}, nil, ErrNotInFlow
	}

	c.sessions.SetState(user, next)
	logger.LogEvent(ctx, logger.Conversation, slog.LevelDebug, "advance",
		slog.String("status", "ok"),
		slog.String("stage", string(stage)),
		slog.String("next_stage", string(next)),
	)
	return stagePrompt(next), nil, nil
}

// commit stores the inquiry. Caller holds the user's lock.
func (c *Controller) commit(ctx context.Context, user int64, message string) (menu.Reply, *inquiry.Record, error) {
	sess := c.sessions.Get(user)
	rec := inquiry.Record{
		Date:    inquiry.FormatDate(c.now()),
		Name:    sess.Data[keyName],
		Phone:   sess.Data[keyPhone],
		Email:   sess.Data[keyEmail],
		Message: message,
		UserID:  user,
	}
	if rec.Name == "" || rec.Phone == "" || rec.Email == "" {
		c.sessions.Clear(user)
		c.syncGauge()
		inquiriesTotal.WithLabelValues("invalid").Inc()
		logger.LogEvent(ctx, logger.Conversation, slog.LevelError, "commit",
			slog.String("status", "invalid"),
			slog.String("stage", string(sess.State)),
			slog.String("err_code", "INCOMPLETE_INQUIRY"),
		)
		return menu.Reply{
			Screen:  menu.Inquiry,
			Text:    textSessionLost,
			Buttons: []menu.Button{{Action: menu.GoMain, Caption: menu.CaptionHome}},
		}, nil, nil
	}

	if err := c.store.Append(ctx, rec); err != nil {
		inquiriesTotal.WithLabelValues("fail").Inc()
		logger.LogEvent(ctx, logger.Conversation, slog.LevelError, "commit",
			slog.String("status", "fail"),
			slog.String("stage", string(StageAwaitingMessage)),
			slog.String("err", err.Error()),
		)
		return menu.Reply{Screen: menu.Inquiry, Text: textSaveFailed, Buttons: cancelButtons()}, nil, err
	}

	c.sessions.SetState(user, StageIdle)
	c.syncGauge()
	inquiriesTotal.WithLabelValues("ok").Inc()
	logger.LogEvent(ctx, logger.Conversation, slog.LevelInfo, "commit",
		slog.String("status", "ok"),
		slog.String("stage", string(StageAwaitingMessage)),
		slog.String("next_stage", string(StageIdle)),
	)

	return menu.Reply{
		Screen:   menu.Inquiry,
		Text:     textConfirmation,
		Buttons:  []menu.Button{{Action: menu.GoMain, Caption: menu.CaptionHomeDone}},
		Markdown: true,
	}, &rec, nil
}

// announce passes a stored inquiry to the notifier. The inquiry is already
// saved, so a lost notification only gets logged.
func (c *Controller) announce(ctx context.Context, rec inquiry.Record) {
	if err := c.notifier.Notify(ctx, rec); err != nil {
		logger.LogEvent(ctx, logger.Conversation, slog.LevelWarn, "notify",
			slog.String("status", "fail"),
			slog.String("err", err.Error()),
		)
	}
}

// Cancel leaves the dialogue, discarding collected fields. It reports false
// and an empty reply when the user was idle.
func (c *Controller) Cancel(ctx context.Context, user int64) (menu.Reply, bool) {
	defer c.lock(user)()

	stage := c.sessions.GetState(user)
	if stage == StageIdle {
		return menu.Reply{}, false
	}
	c.sessions.SetState(user, StageIdle)
	c.syncGauge()
	inquiriesTotal.WithLabelValues("cancelled").Inc()
	logger.LogEvent(ctx, logger.Conversation, slog.LevelInfo, "cancel",
		slog.String("status", "cancelled"),
		slog.String("stage", string(stage)),
	)
	return menu.Reply{Screen: menu.Inquiry, Text: textCancelled}, true
}

// Sweep drops sessions idle for longer than timeout, checking every interval,
// until ctx is done. A zero timeout keeps sessions forever and returns at once.
func (c *Controller) Sweep(ctx context.Context, timeout, interval time.Duration) {
	if timeout <= 0 {
		return
	}
	if interval <= 0 {
		interval = timeout / 4
		if interval < time.Second {
			interval = time.Second
		}
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.expire(ctx, c.now().Add(-timeout))
		}
	}
}

// expire drops sessions untouched since cutoff. Each user is re-checked under
// their lock so an answer arriving during the sweep keeps its session.
func (c *Controller) expire(ctx context.Context, cutoff time.Time) []int64 {
	var expired []int64
	for _, user := range c.sessions.Stale(cutoff) {
		if c.expireUser(user, cutoff) {
			expired = append(expired, user)
		}
	}
	if len(expired) == 0 {
		return nil
	}
	c.syncGauge()
	inquiriesTotal.WithLabelValues("expired").Add(float64(len(expired)))
	logger.LogEvent(ctx, logger.Conversation, slog.LevelInfo, "expire",
		slog.String("status", "cancelled"),
		slog.Int("count", len(expired)),
	)
	return expired
}

func (c *Controller) expireUser(user int64, cutoff time.Time) bool {
	defer c.lock(user)()
	sess := c.sessions.Get(user)
	if sess.State == StageIdle || !sess.UpdatedAt.Before(cutoff) {
		return false
	}
	c.sessions.Clear(user)
	return true
}

func (c *Controller) syncGauge() {
	activeSessions.Set(float64(c.sessions.Len()))
}

// answerable reports whether text can fill a field. Commands never do.
func answerable(text string) bool {
	text = strings.TrimSpace(text)
	return text != "" && !strings.HasPrefix(text, "/")
}

func stagePrompt(st state.State) menu.Reply {
	switch st {
	case StageAwaitingPhone:
		return prompt(promptPhone, false)
	case StageAwaitingEmail:
		return prompt(promptEmail, false)
	case StageAwaitingMessage:
		return prompt(promptMessage, false)
	}
	return prompt(promptName, true)
}

func prompt(text string, md bool) menu.Reply {
	return menu.Reply{Screen: menu.Inquiry, Text: text, Buttons: cancelButtons(), Markdown: md}
}

func cancelButtons() []menu.Button {
	return []menu.Button{{Action: menu.CancelInquiry, Caption: menu.CaptionCancel}}
}

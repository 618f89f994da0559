package conversation

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/kennelbot/core/state"
	"github.com/m3rciful/kennelbot/kennel/inquiry"
	"github.com/m3rciful/kennelbot/kennel/menu"
)

type flakyStore struct {
	mu      sync.Mutex
	fail    bool
	records []inquiry.Record
}

func (s *flakyStore) Append(_ context.Context, r inquiry.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return &inquiry.PersistError{Op: "append", Err: errors.New("disk full")}
	}
	s.records = append(s.records, r)
	return nil
}

func (s *flakyStore) List(context.Context) ([]inquiry.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]inquiry.Record(nil), s.records...), nil
}

func (s *flakyStore) Close() error { return nil }

type recordingNotifier struct {
	mu   sync.Mutex
	got  []inquiry.Record
	err  error
	seen int
}

func (n *recordingNotifier) Notify(_ context.Context, r inquiry.Record) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.seen++
	if n.err == nil {
		n.got = append(n.got, r)
	}
	return n.err
}

func newController(t *testing.T) (*Controller, inquiry.Store, *recordingNotifier) {
	t.Helper()
	store, err := inquiry.OpenFile(t.Context(), filepath.Join(t.TempDir(), "inquiries.json"))
	require.NoError(t, err)
	n := &recordingNotifier{}
	c := New(state.NewMemoryManager(), store, n)
	c.now = func() time.Time { return time.Date(2024, 5, 1, 10, 0, 0, 123456000, time.Local) }
	return c, store, n
}

func TestFullDialogueCommitsRecord(t *testing.T) {
	c, store, n := newController(t)
	ctx := t.Context()

	r := c.Start(ctx, 42)
	assert.Equal(t, promptName, r.Text)
	assert.True(t, r.Markdown)
	assert.Equal(t, []menu.Action{menu.CancelInquiry}, r.Actions())
	assert.Equal(t, StageAwaitingName, c.Stage(42))

	r, err := c.HandleText(ctx, 42, "Alice")
	require.NoError(t, err)
	assert.Equal(t, promptPhone, r.Text)
	assert.Equal(t, StageAwaitingPhone, c.Stage(42))

	r, err = c.HandleText(ctx, 42, "555-1234")
	require.NoError(t, err)
	assert.Equal(t, promptEmail, r.Text)

	r, err = c.HandleText(ctx, 42, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, promptMessage, r.Text)
	assert.Equal(t, StageAwaitingMessage, c.Stage(42))

	r, err = c.HandleText(ctx, 42, "Is Bruno available?")
	require.NoError(t, err)
	assert.Equal(t, textConfirmation, r.Text)
	assert.Equal(t, []menu.Button{{Action: menu.GoMain, Caption: "🏠 Back to Menu"}}, r.Buttons)
	assert.Equal(t, StageIdle, c.Stage(42))
	assert.False(t, c.InProgress(42))

	want := inquiry.Record{
		Date:    "2024-05-01T10:00:00.123456",
		Name:    "Alice",
		Phone:   "555-1234",
		Email:   "alice@example.com",
		Message: "Is Bruno available?",
		UserID:  42,
	}
	got, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []inquiry.Record{want}, got)
	assert.Equal(t, []inquiry.Record{want}, n.got)
}

func TestHandleTextWhenIdle(t *testing.T) {
	c, store, _ := newController(t)

	_, err := c.HandleText(t.Context(), 7, "hello")
	require.ErrorIs(t, err, ErrNotInFlow)

	got, err := store.List(t.Context())
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestStartRestartsDialogue(t *testing.T) {
	c, _, n := newController(t)
	ctx := t.Context()

	c.Start(ctx, 1)
	_, err := c.HandleText(ctx, 1, "Old Name")
	require.NoError(t, err)
	_, err = c.HandleText(ctx, 1, "000")
	require.NoError(t, err)

	c.Start(ctx, 1)
	assert.Equal(t, StageAwaitingName, c.Stage(1))
	for _, text := range []string{"New Name", "111", "n@example.com", "hi"} {
		_, err = c.HandleText(ctx, 1, text)
		require.NoError(t, err)
	}
	require.Len(t, n.got, 1)
	assert.Equal(t, "New Name", n.got[0].Name)
	assert.Equal(t, "111", n.got[0].Phone)
}

func TestCancel(t *testing.T) {
	c, store, _ := newController(t)
	ctx := t.Context()

	_, ok := c.Cancel(ctx, 5)
	assert.False(t, ok)

	c.Start(ctx, 5)
	_, err := c.HandleText(ctx, 5, "Bob")
	require.NoError(t, err)

	r, ok := c.Cancel(ctx, 5)
	require.True(t, ok)
	assert.Equal(t, textCancelled, r.Text)
	assert.Equal(t, StageIdle, c.Stage(5))

	_, err = c.HandleText(ctx, 5, "still here?")
	assert.ErrorIs(t, err, ErrNotInFlow)
	got, err := store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestPersistenceFailureKeepsMessageStage(t *testing.T) {
	store := &flakyStore{fail: true}
	n := &recordingNotifier{}
	c := New(state.NewMemoryManager(), store, n)
	ctx := t.Context()

	c.Start(ctx, 9)
	for _, text := range []string{"Carol", "222", "c@example.com"} {
		_, err := c.HandleText(ctx, 9, text)
		require.NoError(t, err)
	}

	r, err := c.HandleText(ctx, 9, "hello")
	var perr *inquiry.PersistError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, textSaveFailed, r.Text)
	assert.Equal(t, StageAwaitingMessage, c.Stage(9))
	assert.Zero(t, n.seen)

	store.mu.Lock()
	store.fail = false
	store.mu.Unlock()

	_, err = c.HandleText(ctx, 9, "hello again")
	require.NoError(t, err)
	require.Len(t, store.records, 1)
	assert.Equal(t, "Carol", store.records[0].Name)
	assert.Equal(t, "hello again", store.records[0].Message)
}

func TestNotificationFailureStillConfirms(t *testing.T) {
	store := &flakyStore{}
	n := &recordingNotifier{err: errors.New("telegram down")}
	c := New(state.NewMemoryManager(), store, n)
	ctx := t.Context()

	c.Start(ctx, 3)
	var (
		r   menu.Reply
		err error
	)
	for _, text := range []string{"Dan", "333", "d@example.com", "hi"} {
		r, err = c.HandleText(ctx, 3, text)
		require.NoError(t, err)
	}
	assert.Equal(t, textConfirmation, r.Text)
	assert.Equal(t, 1, n.seen)
	assert.Len(t, store.records, 1)
}

func TestNilNotifier(t *testing.T) {
	store := &flakyStore{}
	c := New(nil, store, nil)
	ctx := t.Context()

	c.Start(ctx, 1)
	for _, text := range []string{"a", "b", "c", "d"} {
		_, err := c.HandleText(ctx, 1, text)
		require.NoError(t, err)
	}
	assert.Len(t, store.records, 1)
}

func TestInterleavedUsersAreIndependent(t *testing.T) {
	c, store, _ := newController(t)
	ctx := t.Context()

	c.Start(ctx, 1)
	c.Start(ctx, 2)
	steps := []struct {
		user int64
		text string
	}{
		{1, "One"}, {2, "Two"}, {2, "222"}, {1, "111"},
		{1, "one@example.com"}, {2, "two@example.com"}, {2, "msg two"}, {1, "msg one"},
	}
	for _, s := range steps {
		_, err := c.HandleText(ctx, s.user, s.text)
		require.NoError(t, err)
	}

	got, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, inquiry.Record{Date: got[0].Date, Name: "Two", Phone: "222", Email: "two@example.com", Message: "msg two", UserID: 2}, got[0])
	assert.Equal(t, inquiry.Record{Date: got[1].Date, Name: "One", Phone: "111", Email: "one@example.com", Message: "msg one", UserID: 1}, got[1])
}

func TestConcurrentUsers(t *testing.T) {
	store := &flakyStore{}
	c := New(state.NewMemoryManager(), store, nil)
	ctx := t.Context()

	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(1)
		go func(user int64) {
			defer wg.Done()
			c.Start(ctx, user)
			for _, text := range []string{"n", "p", "e", "m"} {
				_, err := c.HandleText(ctx, user, text)
				assert.NoError(t, err)
			}
		}(int64(i + 1))
	}
	wg.Wait()
	assert.Len(t, store.records, 20)
}

func TestCommandsAndBlankTextRepeatPrompt(t *testing.T) {
	c, store, _ := newController(t)
	ctx := t.Context()

	c.Start(ctx, 4)
	stages := []struct {
		stage  state.State
		prompt string
		answer string
	}{
		{StageAwaitingName, promptName, "Erin"},
		{StageAwaitingPhone, promptPhone, "444"},
		{StageAwaitingEmail, promptEmail, "erin@example.com"},
		{StageAwaitingMessage, promptMessage, "Any females?"},
	}
	for _, st := range stages {
		for _, text := range []string{"", " \t", "/help", "/about now"} {
			r, err := c.HandleText(ctx, 4, text)
			require.NoError(t, err)
			assert.Equal(t, st.prompt, r.Text, "%s %q", st.stage, text)
			assert.Equal(t, st.stage, c.Stage(4))
		}
		_, err := c.HandleText(ctx, 4, st.answer)
		require.NoError(t, err)
	}

	got, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Erin", got[0].Name)
	assert.Equal(t, "444", got[0].Phone)
	assert.Equal(t, "erin@example.com", got[0].Email)
	assert.Equal(t, "Any females?", got[0].Message)
}

func TestCancelAtEveryStage(t *testing.T) {
	answers := []string{"Fay", "555", "fay@example.com"}
	for i, stage := range []state.State{StageAwaitingName, StageAwaitingPhone, StageAwaitingEmail, StageAwaitingMessage} {
		t.Run(string(stage), func(t *testing.T) {
			c, store, n := newController(t)
			ctx := t.Context()

			c.Start(ctx, 6)
			for _, text := range answers[:i] {
				_, err := c.HandleText(ctx, 6, text)
				require.NoError(t, err)
			}
			require.Equal(t, stage, c.Stage(6))

			r, ok := c.Cancel(ctx, 6)
			require.True(t, ok)
			assert.Equal(t, textCancelled, r.Text)
			assert.Equal(t, StageIdle, c.Stage(6))

			_, ok = c.sessions.Value(6, keyName)
			assert.False(t, ok, "collected fields must be discarded")

			got, err := store.List(ctx)
			require.NoError(t, err)
			assert.Empty(t, got)
			assert.Zero(t, n.seen)
		})
	}

	t.Run("after failed save", func(t *testing.T) {
		store := &flakyStore{fail: true}
		c := New(state.NewMemoryManager(), store, nil)
		ctx := t.Context()

		c.Start(ctx, 6)
		for _, text := range append(answers, "hello") {
			_, _ = c.HandleText(ctx, 6, text)
		}
		require.Equal(t, StageAwaitingMessage, c.Stage(6))

		_, ok := c.Cancel(ctx, 6)
		require.True(t, ok)
		assert.Equal(t, StageIdle, c.Stage(6))
		assert.Empty(t, store.records)
	})
}

func TestIncompleteSessionIsNotStored(t *testing.T) {
	c, store, n := newController(t)
	ctx := t.Context()

	c.sessions.SetState(8, StageAwaitingMessage)
	c.sessions.SetValue(8, keyEmail, "only@example.com")

	r, err := c.HandleText(ctx, 8, "msg")
	require.NoError(t, err)
	assert.Equal(t, textSessionLost, r.Text)
	assert.Equal(t, []menu.Action{menu.GoMain}, r.Actions())
	assert.Equal(t, StageIdle, c.Stage(8))

	got, err := store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Zero(t, n.seen)
}

func TestExpireWaitsForUserLock(t *testing.T) {
	c, _, _ := newController(t)
	ctx := t.Context()

	c.Start(ctx, 9)
	time.Sleep(5 * time.Millisecond)
	cutoff := time.Now()
	require.Equal(t, []int64{9}, c.sessions.Stale(cutoff))

	unlock := c.lock(9)
	done := make(chan []int64, 1)
	go func() { done <- c.expire(ctx, cutoff) }()

	select {
	case <-done:
		t.Fatal("expire ran while the user's lock was held")
	case <-time.After(50 * time.Millisecond):
	}
	require.True(t, c.InProgress(9))

	// An answer lands while the sweep waits; it refreshes the session.
	c.sessions.SetValue(9, keyName, "Gus")
	c.sessions.SetState(9, StageAwaitingPhone)
	unlock()

	select {
	case expired := <-done:
		assert.Empty(t, expired)
	case <-time.After(2 * time.Second):
		t.Fatal("expire did not finish")
	}
	assert.Equal(t, StageAwaitingPhone, c.Stage(9))
	v, _ := c.sessions.Value(9, keyName)
	assert.Equal(t, "Gus", v)
}

// sweepingManager runs a sweep right after the dialogue reads the stage.
type sweepingManager struct {
	state.Manager
	once  sync.Once
	sweep func()
}

func (m *sweepingManager) GetState(user int64) state.State {
	st := m.Manager.GetState(user)
	if m.sweep != nil {
		m.once.Do(func() { go m.sweep() })
	}
	return st
}

func TestSweepDuringCommitKeepsRecordWhole(t *testing.T) {
	store := &flakyStore{}
	mgr := &sweepingManager{Manager: state.NewMemoryManager()}
	c := New(mgr, store, nil)
	ctx := t.Context()

	c.Start(ctx, 10)
	for _, text := range []string{"Hal", "666", "hal@example.com"} {
		_, err := c.HandleText(ctx, 10, text)
		require.NoError(t, err)
	}

	swept := make(chan struct{})
	mgr.sweep = func() {
		c.expire(ctx, time.Now().Add(time.Hour))
		close(swept)
	}

	_, err := c.HandleText(ctx, 10, "msg")
	require.NoError(t, err)
	<-swept

	require.Len(t, store.records, 1)
	assert.Equal(t, inquiry.Record{
		Date: store.records[0].Date, Name: "Hal", Phone: "666", Email: "hal@example.com", Message: "msg", UserID: 10,
	}, store.records[0])
}

func TestLocksAreReleased(t *testing.T) {
	c, _, _ := newController(t)
	ctx := t.Context()

	for user := range int64(50) {
		_, _ = c.HandleText(ctx, user, "hello")
		c.Start(ctx, user)
		c.Cancel(ctx, user)
	}
	assert.Zero(t, c.lockCount())
}

type lockCountingNotifier struct {
	c     *Controller
	locks int
}

func (n *lockCountingNotifier) Notify(context.Context, inquiry.Record) error {
	n.locks = n.c.lockCount()
	return nil
}

func TestNotifyRunsOutsideUserLock(t *testing.T) {
	n := &lockCountingNotifier{locks: -1}
	c := New(state.NewMemoryManager(), &flakyStore{}, n)
	n.c = c
	ctx := t.Context()

	c.Start(ctx, 11)
	for _, text := range []string{"Ida", "777", "ida@example.com", "hi"} {
		_, err := c.HandleText(ctx, 11, text)
		require.NoError(t, err)
	}
	assert.Zero(t, n.locks)
}

func TestExpireDropsIdleSessions(t *testing.T) {
	c, _, _ := newController(t)
	ctx := t.Context()

	c.Start(ctx, 1)
	c.Start(ctx, 2)

	assert.Empty(t, c.expire(ctx, time.Now().Add(-time.Hour)))
	assert.ElementsMatch(t, []int64{1, 2}, c.expire(ctx, time.Now().Add(time.Hour)))
	assert.False(t, c.InProgress(1))
}

func TestSweepWithoutTimeoutReturns(t *testing.T) {
	c, _, _ := newController(t)
	done := make(chan struct{})
	go func() {
		c.Sweep(context.Background(), 0, 0)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Sweep with zero timeout should return immediately")
	}
}

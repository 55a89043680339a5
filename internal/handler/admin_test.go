package handler

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"

	"comfortlybot/core/telegram/state"
	"comfortlybot/internal/config"
	"comfortlybot/internal/model"
	"comfortlybot/internal/repository"
	"comfortlybot/internal/service"
)

const testAdminID = int64(9000)

// dialogStore implements service.UserStore with just enough behavior to drive
// the admin dialogs: known chat IDs resolve, manual updates are recorded.
type dialogStore struct {
	known map[int64]bool

	updates int
	target  int64
	balance float64
	calls   int
	subEnd  *string
}

func newDialogStore(ids ...int64) *dialogStore {
	known := make(map[int64]bool, len(ids))
	for _, id := range ids {
		known[id] = true
	}
	return &dialogStore{known: known}
}

func (s *dialogStore) Get(_ context.Context, chatID int64) (*model.UserRecord, error) {
	if !s.known[chatID] {
		return nil, repository.ErrNotFound
	}
	return &model.UserRecord{ChatID: chatID}, nil
}

func (s *dialogStore) ManualUpdate(_ context.Context, chatID int64, balance float64, calls int, subscriptionEnd *string) error {
	if !s.known[chatID] {
		return repository.ErrNotFound
	}
	s.updates++
	s.target = chatID
	s.balance = balance
	s.calls = calls
	s.subEnd = subscriptionEnd
	return nil
}

func (s *dialogStore) CreateIfAbsent(context.Context, int64) error          { return nil }
func (s *dialogStore) AcceptNDA(context.Context, int64) error               { return nil }
func (s *dialogStore) SetGovtName(context.Context, int64, string) error     { return nil }
func (s *dialogStore) SetNationality(context.Context, int64, string) error  { return nil }
func (s *dialogStore) AddInterest(context.Context, int64, string) error     { return nil }
func (s *dialogStore) FinishInterests(context.Context, int64) error         { return nil }
func (s *dialogStore) AwaitReceipt(context.Context, int64) error            { return nil }
func (s *dialogStore) AttachPaymentProof(context.Context, int64, string) error {
	return nil
}
func (s *dialogStore) Approve(context.Context, int64) error { return nil }
func (s *dialogStore) Reject(context.Context, int64) error  { return nil }
func (s *dialogStore) All(context.Context) ([]model.UserRecord, error) {
	return nil, nil
}
func (s *dialogStore) PendingApproval(context.Context) ([]model.UserRecord, error) {
	return nil, nil
}

// newDialogHarness wires handlers onto an offline bot. Offline sends never
// reach a network, so step handlers are asserted through session and store
// state rather than replies; their returned send errors are discarded.
func newDialogHarness(t *testing.T, store service.UserStore) (*Handlers, *tele.Bot, state.Manager) {
	t.Helper()
	bot, err := tele.NewBot(tele.Settings{Offline: true})
	require.NoError(t, err)

	cfg := &config.Config{}
	cfg.Telegram.AdminID = testAdminID

	sessions := state.NewMemoryManager()
	h := New(service.NewUsers(store), service.NewAdmin(store, "https://comfortly.com/call"), sessions, cfg)
	return h, bot, sessions
}

func adminText(b *tele.Bot, text string) tele.Context {
	return b.NewContext(tele.Update{Message: &tele.Message{
		Sender: &tele.User{ID: testAdminID},
		Chat:   &tele.Chat{ID: testAdminID, Type: tele.ChatPrivate},
		Text:   text,
	}})
}

func TestManualTargetRepromptsNonNumeric(t *testing.T) {
	h, bot, sessions := newDialogHarness(t, newDialogStore(42))

	_ = h.adminManualStart(adminText(bot, ""))
	require.Equal(t, stateManualTarget, sessions.GetState(testAdminID))

	_ = h.manualTargetStep(adminText(bot, "not-an-id"))
	assert.Equal(t, stateManualTarget, sessions.GetState(testAdminID))
	_, ok := sessions.GetTempInt64(testAdminID, tempTargetID)
	assert.False(t, ok)

	_ = h.manualTargetStep(adminText(bot, "42"))
	assert.Equal(t, stateManualBalance, sessions.GetState(testAdminID))
	target, ok := sessions.GetTempInt64(testAdminID, tempTargetID)
	require.True(t, ok)
	assert.Equal(t, int64(42), target)
}

func TestManualBalanceRepromptsNonFinite(t *testing.T) {
	store := newDialogStore(42)
	h, bot, sessions := newDialogHarness(t, store)

	_ = h.adminManualStart(adminText(bot, ""))
	_ = h.manualTargetStep(adminText(bot, "42"))
	require.Equal(t, stateManualBalance, sessions.GetState(testAdminID))

	for _, input := range []string{"oops", "NaN", "+Inf", "-Inf", "Infinity", ""} {
		_ = h.manualBalanceStep(adminText(bot, input))
		assert.Equal(t, stateManualBalance, sessions.GetState(testAdminID),
			"input %q must reprompt the same step", input)
		_, ok := sessions.GetTemp(testAdminID, tempBalance)
		assert.False(t, ok, "input %q must not be stored", input)
	}
	assert.Zero(t, store.updates)
}

func TestManualCallsRepromptsNonNumeric(t *testing.T) {
	h, bot, sessions := newDialogHarness(t, newDialogStore(42))

	_ = h.adminManualStart(adminText(bot, ""))
	_ = h.manualTargetStep(adminText(bot, "42"))
	_ = h.manualBalanceStep(adminText(bot, "100.5"))
	require.Equal(t, stateManualCalls, sessions.GetState(testAdminID))

	for _, input := range []string{"x", "2.5", ""} {
		_ = h.manualCallsStep(adminText(bot, input))
		assert.Equal(t, stateManualCalls, sessions.GetState(testAdminID),
			"input %q must reprompt the same step", input)
		_, ok := sessions.GetTemp(testAdminID, tempCalls)
		assert.False(t, ok, "input %q must not be stored", input)
	}
}

func TestManualUpdateDialogNoneClearsSubscription(t *testing.T) {
	store := newDialogStore(42)
	h, bot, sessions := newDialogHarness(t, store)

	_ = h.adminManualStart(adminText(bot, ""))
	_ = h.manualTargetStep(adminText(bot, "42"))
	_ = h.manualBalanceStep(adminText(bot, "100.5"))
	_ = h.manualCallsStep(adminText(bot, "3"))
	require.Equal(t, stateManualSubEnd, sessions.GetState(testAdminID))

	_ = h.manualSubEndStep(adminText(bot, "none"))

	assert.False(t, sessions.InProgress(testAdminID), "session must be destroyed on completion")
	require.Equal(t, 1, store.updates)
	assert.Equal(t, int64(42), store.target)
	assert.Equal(t, 100.5, store.balance)
	assert.Equal(t, 3, store.calls)
	assert.Nil(t, store.subEnd)
}

func TestManualUpdateDialogStoresDate(t *testing.T) {
	store := newDialogStore(7)
	h, bot, sessions := newDialogHarness(t, store)

	_ = h.adminManualStart(adminText(bot, ""))
	_ = h.manualTargetStep(adminText(bot, "7"))
	_ = h.manualBalanceStep(adminText(bot, "0"))
	_ = h.manualCallsStep(adminText(bot, "0"))
	_ = h.manualSubEndStep(adminText(bot, "2026-02-01"))

	assert.False(t, sessions.InProgress(testAdminID))
	require.Equal(t, 1, store.updates)
	require.NotNil(t, store.subEnd)
	assert.Equal(t, "2026-02-01", *store.subEnd)
}

func TestManualUpdateDialogNoneIsCaseInsensitive(t *testing.T) {
	store := newDialogStore(7)
	h, bot, sessions := newDialogHarness(t, store)

	_ = h.adminManualStart(adminText(bot, ""))
	_ = h.manualTargetStep(adminText(bot, "7"))
	_ = h.manualBalanceStep(adminText(bot, "1"))
	_ = h.manualCallsStep(adminText(bot, "1"))
	_ = h.manualSubEndStep(adminText(bot, "None"))

	assert.False(t, sessions.InProgress(testAdminID))
	require.Equal(t, 1, store.updates)
	assert.Nil(t, store.subEnd)
}

func TestManualUpdateDialogMissingTargetAborts(t *testing.T) {
	store := newDialogStore()
	h, bot, sessions := newDialogHarness(t, store)

	_ = h.adminManualStart(adminText(bot, ""))
	_ = h.manualTargetStep(adminText(bot, "404"))
	_ = h.manualBalanceStep(adminText(bot, "5"))
	_ = h.manualCallsStep(adminText(bot, "1"))
	_ = h.manualSubEndStep(adminText(bot, "none"))

	assert.False(t, sessions.InProgress(testAdminID), "session must be destroyed on abort")
	assert.Zero(t, store.updates)
}

func TestAdminDialogStartersIgnoreNonAdmin(t *testing.T) {
	h, bot, sessions := newDialogHarness(t, newDialogStore())

	c := bot.NewContext(tele.Update{Message: &tele.Message{
		Sender: &tele.User{ID: 1},
		Chat:   &tele.Chat{ID: 1, Type: tele.ChatPrivate},
	}})
	require.NoError(t, h.adminManualStart(c))
	require.NoError(t, h.adminCallStart(c))
	require.NoError(t, h.adminBroadcastStart(c))
	assert.False(t, sessions.InProgress(1))
}

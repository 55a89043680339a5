package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"comfortlybot/internal/model"
)

type sentMessage struct {
	chatID int64
	text   string
}

func captureDeliver(sink *[]sentMessage, fail map[int64]error) DeliverFunc {
	return func(chatID int64, text string) error {
		if err, ok := fail[chatID]; ok {
			return err
		}
		*sink = append(*sink, sentMessage{chatID: chatID, text: text})
		return nil
	}
}

func TestApproveResetsCounters(t *testing.T) {
	store := newFakeStore()
	end := "2025-01-01"
	store.put(model.UserRecord{
		ChatID:          700,
		OnboardingState: model.StateAwaitingApproval,
		Balance:         250,
		Calls:           9,
		SubscriptionEnd: &end,
		History:         model.History{{Date: "2024-12-01", Amount: 50}},
	})
	svc := NewAdmin(store, "https://comfortly.com/call")
	ctx := context.Background()

	require.NoError(t, svc.Approve(ctx, 700))

	u, err := store.Get(ctx, 700)
	require.NoError(t, err)
	assert.True(t, u.Approved)
	assert.Equal(t, model.StateNone, u.OnboardingState)
	assert.Zero(t, u.Balance)
	assert.Zero(t, u.Calls)
	assert.Nil(t, u.SubscriptionEnd)
	assert.Empty(t, u.History)
}

func TestApproveMissingTarget(t *testing.T) {
	svc := NewAdmin(newFakeStore(), "https://comfortly.com/call")
	err := svc.Approve(context.Background(), 1)
	assert.ErrorIs(t, err, ErrTargetNotFound)
}

func TestRejectKeepsCounters(t *testing.T) {
	store := newFakeStore()
	store.put(model.UserRecord{
		ChatID:          701,
		OnboardingState: model.StateAwaitingApproval,
		Balance:         10,
		Calls:           2,
	})
	svc := NewAdmin(store, "https://comfortly.com/call")
	ctx := context.Background()

	require.NoError(t, svc.Reject(ctx, 701))

	u, err := store.Get(ctx, 701)
	require.NoError(t, err)
	assert.False(t, u.Approved)
	assert.Equal(t, model.StateNone, u.OnboardingState)
	assert.Equal(t, float64(10), u.Balance)
	assert.Equal(t, 2, u.Calls)
}

func TestManualUpdate(t *testing.T) {
	store := newFakeStore()
	store.put(model.UserRecord{ChatID: 42})
	svc := NewAdmin(store, "https://comfortly.com/call")
	ctx := context.Background()

	require.NoError(t, svc.ManualUpdate(ctx, 42, 100.5, 3, nil))

	u, err := store.Get(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, 100.5, u.Balance)
	assert.Equal(t, 3, u.Calls)
	assert.Nil(t, u.SubscriptionEnd)

	end := "2026-01-31"
	require.NoError(t, svc.ManualUpdate(ctx, 42, 0, 0, &end))
	u, err = store.Get(ctx, 42)
	require.NoError(t, err)
	require.NotNil(t, u.SubscriptionEnd)
	assert.Equal(t, "2026-01-31", *u.SubscriptionEnd)

	err = svc.ManualUpdate(ctx, 4242, 1, 1, nil)
	assert.ErrorIs(t, err, ErrTargetNotFound)
}

func TestComfortCallMissingTargetAborts(t *testing.T) {
	svc := NewAdmin(newFakeStore(), "https://comfortly.com/call")
	var sent []sentMessage

	err := svc.ComfortCall(context.Background(), model.ComfortCall{TargetID: 999}, captureDeliver(&sent, nil))
	assert.ErrorIs(t, err, ErrTargetNotFound)
	assert.Empty(t, sent, "nothing may be delivered when the target is missing")
}

func TestComfortCallRendering(t *testing.T) {
	store := newFakeStore()
	store.put(model.UserRecord{ChatID: 800})
	svc := NewAdmin(store, "https://comfortly.com/call/")
	var sent []sentMessage

	call := model.ComfortCall{
		TargetID: 800,
		Name:     "Jane",
		Topic:    "Stress Relief",
		Amount:   "25",
		DateTime: "2025-09-16 18:30",
	}
	require.NoError(t, svc.ComfortCall(context.Background(), call, captureDeliver(&sent, nil)))

	require.Len(t, sent, 1)
	assert.Equal(t, int64(800), sent[0].chatID)
	assert.Contains(t, sent[0].text, "Hello *Jane*")
	assert.Contains(t, sent[0].text, "🗓 Date: 2025-09-16")
	assert.Contains(t, sent[0].text, "⏰ Time: 18:30")
	assert.Contains(t, sent[0].text, "💬 Topic: Stress Relief")
	assert.Contains(t, sent[0].text, "💵 Amount: $25")
	assert.Contains(t, sent[0].text, "[Join Your Call](https://comfortly.com/call/800)")
}

func TestComfortCallDateOnly(t *testing.T) {
	store := newFakeStore()
	store.put(model.UserRecord{ChatID: 801})
	svc := NewAdmin(store, "https://comfortly.com/call")
	var sent []sentMessage

	call := model.ComfortCall{TargetID: 801, Name: "Sam", DateTime: "2025-09-16"}
	require.NoError(t, svc.ComfortCall(context.Background(), call, captureDeliver(&sent, nil)))

	require.Len(t, sent, 1)
	assert.Contains(t, sent[0].text, "🗓 Date: 2025-09-16")
	assert.Contains(t, sent[0].text, "⏰ Time: \n")
}

func TestComfortCallUndeliverable(t *testing.T) {
	store := newFakeStore()
	store.put(model.UserRecord{ChatID: 802})
	svc := NewAdmin(store, "https://comfortly.com/call")
	var sent []sentMessage
	fail := map[int64]error{802: errors.New("forbidden: bot was blocked")}

	err := svc.ComfortCall(context.Background(), model.ComfortCall{TargetID: 802}, captureDeliver(&sent, fail))
	assert.ErrorIs(t, err, ErrUndeliverable)
	assert.Empty(t, sent)
}

func TestBroadcastIsolatesFailures(t *testing.T) {
	store := newFakeStore()
	for id := int64(1); id <= 5; id++ {
		store.put(model.UserRecord{ChatID: id})
	}
	svc := NewAdmin(store, "https://comfortly.com/call")
	var sent []sentMessage
	fail := map[int64]error{3: errors.New("forbidden: bot was blocked")}

	report, err := svc.Broadcast(context.Background(), "maintenance tonight", captureDeliver(&sent, fail))
	require.NoError(t, err)
	assert.Equal(t, 5, report.Recipients)
	assert.Equal(t, 4, report.Delivered)
	assert.Len(t, sent, 4)
	for _, m := range sent {
		assert.Equal(t, "📢 Admin Broadcast:\n\nmaintenance tonight", m.text)
	}
}

func TestBroadcastEmptyStore(t *testing.T) {
	svc := NewAdmin(newFakeStore(), "https://comfortly.com/call")
	var sent []sentMessage

	report, err := svc.Broadcast(context.Background(), "anyone there?", captureDeliver(&sent, nil))
	require.NoError(t, err)
	assert.Zero(t, report.Recipients)
	assert.Zero(t, report.Delivered)
	assert.Empty(t, sent)
}

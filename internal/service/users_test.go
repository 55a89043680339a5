package service

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"comfortlybot/internal/model"
	"comfortlybot/internal/repository"
)

// fakeStore is an in-memory UserStore mirroring the partial-update semantics
// of the Postgres repository.
type fakeStore struct {
	mu    sync.Mutex
	users map[int64]*model.UserRecord
}

func newFakeStore() *fakeStore {
	return &fakeStore{users: make(map[int64]*model.UserRecord)}
}

func (f *fakeStore) put(u model.UserRecord) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := u
	f.users[u.ChatID] = &cp
}

func (f *fakeStore) Get(_ context.Context, chatID int64) (*model.UserRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[chatID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeStore) CreateIfAbsent(_ context.Context, chatID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[chatID]; !ok {
		f.users[chatID] = &model.UserRecord{ChatID: chatID, OnboardingState: model.StateNone}
	}
	return nil
}

func (f *fakeStore) AcceptNDA(_ context.Context, chatID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[chatID]
	if !ok {
		u = &model.UserRecord{ChatID: chatID}
		f.users[chatID] = u
	}
	u.Role = model.RoleTalker
	u.NDAAccepted = true
	u.OnboardingState = model.StateAwaitingName
	return nil
}

func (f *fakeStore) mutate(chatID int64, fn func(u *model.UserRecord)) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[chatID]
	if !ok {
		return repository.ErrNotFound
	}
	fn(u)
	return nil
}

func (f *fakeStore) SetGovtName(_ context.Context, chatID int64, name string) error {
	return f.mutate(chatID, func(u *model.UserRecord) {
		u.GovtName = name
		u.OnboardingState = model.StateAwaitingNationality
	})
}

func (f *fakeStore) SetNationality(_ context.Context, chatID int64, nationality string) error {
	return f.mutate(chatID, func(u *model.UserRecord) {
		u.Nationality = nationality
		u.OnboardingState = model.StateAwaitingInterests
	})
}

func (f *fakeStore) AddInterest(_ context.Context, chatID int64, tag string) error {
	return f.mutate(chatID, func(u *model.UserRecord) {
		if !u.HasInterest(tag) {
			u.Interests = append(u.Interests, tag)
		}
	})
}

func (f *fakeStore) FinishInterests(_ context.Context, chatID int64) error {
	return f.mutate(chatID, func(u *model.UserRecord) {
		u.OnboardingState = model.StateNone
	})
}

func (f *fakeStore) AwaitReceipt(_ context.Context, chatID int64) error {
	return f.mutate(chatID, func(u *model.UserRecord) {
		u.OnboardingState = model.StateAwaitingReceipt
	})
}

func (f *fakeStore) AttachPaymentProof(_ context.Context, chatID int64, fileID string) error {
	return f.mutate(chatID, func(u *model.UserRecord) {
		u.PaymentProof = fileID
		u.OnboardingState = model.StateAwaitingApproval
	})
}

func (f *fakeStore) Approve(_ context.Context, chatID int64) error {
	return f.mutate(chatID, func(u *model.UserRecord) {
		u.Approved = true
		u.OnboardingState = model.StateNone
		u.Balance = 0
		u.Calls = 0
		u.SubscriptionEnd = nil
		u.History = model.History{}
	})
}

func (f *fakeStore) Reject(_ context.Context, chatID int64) error {
	return f.mutate(chatID, func(u *model.UserRecord) {
		u.Approved = false
		u.OnboardingState = model.StateNone
	})
}

func (f *fakeStore) ManualUpdate(_ context.Context, chatID int64, balance float64, calls int, subscriptionEnd *string) error {
	return f.mutate(chatID, func(u *model.UserRecord) {
		u.Balance = balance
		u.Calls = calls
		u.SubscriptionEnd = subscriptionEnd
	})
}

func (f *fakeStore) All(_ context.Context) ([]model.UserRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.UserRecord, 0, len(f.users))
	for _, u := range f.users {
		out = append(out, *u)
	}
	return out, nil
}

func (f *fakeStore) PendingApproval(_ context.Context) ([]model.UserRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.UserRecord
	for _, u := range f.users {
		if u.OnboardingState == model.StateAwaitingApproval {
			out = append(out, *u)
		}
	}
	return out, nil
}

func TestNeedsNDA(t *testing.T) {
	store := newFakeStore()
	svc := NewUsers(store)
	ctx := context.Background()

	needs, err := svc.NeedsNDA(ctx, 100)
	require.NoError(t, err)
	assert.True(t, needs, "unknown chat should be offered the agreement")

	require.NoError(t, svc.AcceptNDA(ctx, 100))
	needs, err = svc.NeedsNDA(ctx, 100)
	require.NoError(t, err)
	assert.False(t, needs)
}

func TestOnboardingFunnel(t *testing.T) {
	store := newFakeStore()
	svc := NewUsers(store)
	ctx := context.Background()
	const chat = int64(200)

	require.NoError(t, svc.AcceptNDA(ctx, chat))

	outcome, err := svc.SubmitText(ctx, chat, "Jane Doe")
	require.NoError(t, err)
	assert.Equal(t, TextNameStored, outcome)

	outcome, err = svc.SubmitText(ctx, chat, "Canadian")
	require.NoError(t, err)
	assert.Equal(t, TextNationalityStored, outcome)

	u, err := svc.Record(ctx, chat)
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", u.GovtName)
	assert.Equal(t, "Canadian", u.Nationality)
	assert.Equal(t, model.StateAwaitingInterests, u.OnboardingState)
	assert.Equal(t, model.RoleTalker, u.Role)
}

func TestSubmitTextIgnoredOutsideFunnel(t *testing.T) {
	store := newFakeStore()
	svc := NewUsers(store)
	ctx := context.Background()

	// Unknown chat: text creates a minimal record but stores nothing.
	outcome, err := svc.SubmitText(ctx, 300, "hello")
	require.NoError(t, err)
	assert.Equal(t, TextIgnored, outcome)

	u, err := svc.Record(ctx, 300)
	require.NoError(t, err)
	assert.Empty(t, u.GovtName)
	assert.Equal(t, model.StateNone, u.OnboardingState)

	// Known chat with no awaited step: still ignored.
	outcome, err = svc.SubmitText(ctx, 300, "still nothing")
	require.NoError(t, err)
	assert.Equal(t, TextIgnored, outcome)
}

func TestToggleInterestIdempotent(t *testing.T) {
	store := newFakeStore()
	store.put(model.UserRecord{ChatID: 400, OnboardingState: model.StateAwaitingInterests})
	svc := NewUsers(store)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		acted, err := svc.ToggleInterest(ctx, 400, "stress")
		require.NoError(t, err)
		assert.True(t, acted)
	}
	acted, err := svc.ToggleInterest(ctx, 400, "career")
	require.NoError(t, err)
	assert.True(t, acted)

	u, err := svc.Record(ctx, 400)
	require.NoError(t, err)
	assert.Equal(t, []string{"stress", "career"}, []string(u.Interests))
}

func TestToggleInterestOutOfContext(t *testing.T) {
	store := newFakeStore()
	store.put(model.UserRecord{ChatID: 401, OnboardingState: model.StateNone})
	svc := NewUsers(store)
	ctx := context.Background()

	acted, err := svc.ToggleInterest(ctx, 401, "stress")
	require.NoError(t, err)
	assert.False(t, acted)

	acted, err = svc.ToggleInterest(ctx, 999, "stress")
	require.NoError(t, err)
	assert.False(t, acted, "unknown chat must be ignored")
}

func TestCompleteInterests(t *testing.T) {
	store := newFakeStore()
	store.put(model.UserRecord{ChatID: 402, OnboardingState: model.StateAwaitingInterests})
	svc := NewUsers(store)
	ctx := context.Background()

	done, err := svc.CompleteInterests(ctx, 402)
	require.NoError(t, err)
	assert.True(t, done)

	u, err := svc.Record(ctx, 402)
	require.NoError(t, err)
	assert.Equal(t, model.StateNone, u.OnboardingState)

	// Pressing Done again falls through.
	done, err = svc.CompleteInterests(ctx, 402)
	require.NoError(t, err)
	assert.False(t, done)
}

func TestReceiptFlow(t *testing.T) {
	store := newFakeStore()
	store.put(model.UserRecord{ChatID: 500, OnboardingState: model.StateNone})
	svc := NewUsers(store)
	ctx := context.Background()

	// Upload before pressing the upload button is ignored.
	accepted, err := svc.SubmitReceipt(ctx, 500, "file-1")
	require.NoError(t, err)
	assert.False(t, accepted)

	require.NoError(t, svc.RequestReceipt(ctx, 500))

	accepted, err = svc.SubmitReceipt(ctx, 500, "file-1")
	require.NoError(t, err)
	assert.True(t, accepted)

	u, err := svc.Record(ctx, 500)
	require.NoError(t, err)
	assert.Equal(t, "file-1", u.PaymentProof)
	assert.Equal(t, model.StateAwaitingApproval, u.OnboardingState)

	pending, err := svc.PendingApproval(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, int64(500), pending[0].ChatID)
}

func TestRequestReceiptUnknownChat(t *testing.T) {
	svc := NewUsers(newFakeStore())
	assert.NoError(t, svc.RequestReceipt(context.Background(), 12345))
}

package service

import (
	"context"
	"errors"
	"sync"

	"log/slog"

	"comfortlybot/core/logger"
	"comfortlybot/internal/model"
	"comfortlybot/internal/repository"
)

// UserStore is the persistence surface the services depend on.
type UserStore interface {
	Get(ctx context.Context, chatID int64) (*model.UserRecord, error)
	CreateIfAbsent(ctx context.Context, chatID int64) error
	AcceptNDA(ctx context.Context, chatID int64) error
	SetGovtName(ctx context.Context, chatID int64, name string) error
	SetNationality(ctx context.Context, chatID int64, nationality string) error
	AddInterest(ctx context.Context, chatID int64, tag string) error
	FinishInterests(ctx context.Context, chatID int64) error
	AwaitReceipt(ctx context.Context, chatID int64) error
	AttachPaymentProof(ctx context.Context, chatID int64, fileID string) error
	Approve(ctx context.Context, chatID int64) error
	Reject(ctx context.Context, chatID int64) error
	ManualUpdate(ctx context.Context, chatID int64, balance float64, calls int, subscriptionEnd *string) error
	All(ctx context.Context) ([]model.UserRecord, error)
	PendingApproval(ctx context.Context) ([]model.UserRecord, error)
}

// TextOutcome reports what a free-text message did to the onboarding funnel.
type TextOutcome int

const (
	// TextIgnored means the message matched no awaited step.
	TextIgnored TextOutcome = iota
	// TextNameStored means the legal name step completed.
	TextNameStored
	// TextNationalityStored means the nationality step completed.
	TextNationalityStored
)

// Users drives the talker onboarding state machine over the record store.
// A per-chat mutex serializes read-modify-write cycles so two near-simultaneous
// updates for the same chat cannot interleave.
type Users struct {
	store UserStore

	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

// NewUsers builds the onboarding service.
func NewUsers(store UserStore) *Users {
	return &Users{store: store, locks: make(map[int64]*sync.Mutex)}
}

func (s *Users) chatLock(chatID int64) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[chatID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[chatID] = l
	}
	return l
}

// Record loads the user record, or repository.ErrNotFound.
func (s *Users) Record(ctx context.Context, chatID int64) (*model.UserRecord, error) {
	return s.store.Get(ctx, chatID)
}

// NeedsNDA reports whether the "become talker" selection should present the
// agreement. Unknown chats and users who never accepted both need it.
func (s *Users) NeedsNDA(ctx context.Context, chatID int64) (bool, error) {
	u, err := s.store.Get(ctx, chatID)
	if errors.Is(err, repository.ErrNotFound) {
		return true, nil
	}
	if err != nil {
		return false, err
	}
	return !u.NDAAccepted, nil
}

// AcceptNDA records acceptance and opens the name step.
func (s *Users) AcceptNDA(ctx context.Context, chatID int64) error {
	l := s.chatLock(chatID)
	l.Lock()
	defer l.Unlock()

	if err := s.store.AcceptNDA(ctx, chatID); err != nil {
		return err
	}
	logger.Info(ctx, "service.users", "onboarding.nda",
		slog.Int64("chat_id", chatID),
	)
	return nil
}

// SubmitText feeds an onboarding free-text message into the funnel. Messages
// arriving outside an awaited step are ignored without error; unknown chats
// get a lazily created minimal record.
func (s *Users) SubmitText(ctx context.Context, chatID int64, text string) (TextOutcome, error) {
	if text == "" {
		return TextIgnored, nil
	}

	l := s.chatLock(chatID)
	l.Lock()
	defer l.Unlock()

	u, err := s.store.Get(ctx, chatID)
	if errors.Is(err, repository.ErrNotFound) {
		if err := s.store.CreateIfAbsent(ctx, chatID); err != nil {
			return TextIgnored, err
		}
		return TextIgnored, nil
	}
	if err != nil {
		return TextIgnored, err
	}

	switch u.OnboardingState {
	case model.StateAwaitingName:
		if err := s.store.SetGovtName(ctx, chatID, text); err != nil {
			return TextIgnored, err
		}
		return TextNameStored, nil
	case model.StateAwaitingNationality:
		if err := s.store.SetNationality(ctx, chatID, text); err != nil {
			return TextIgnored, err
		}
		return TextNationalityStored, nil
	}
	return TextIgnored, nil
}

// ToggleInterest appends a tag while interest selection is open. Duplicate
// selections are idempotent. It reports whether the press was in context.
func (s *Users) ToggleInterest(ctx context.Context, chatID int64, tag string) (bool, error) {
	l := s.chatLock(chatID)
	l.Lock()
	defer l.Unlock()

	u, err := s.store.Get(ctx, chatID)
	if errors.Is(err, repository.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if u.OnboardingState != model.StateAwaitingInterests {
		return false, nil
	}
	if err := s.store.AddInterest(ctx, chatID, tag); err != nil {
		return false, err
	}
	return true, nil
}

// CompleteInterests closes interest selection; payment instructions follow.
// It reports whether the press was in context.
func (s *Users) CompleteInterests(ctx context.Context, chatID int64) (bool, error) {
	l := s.chatLock(chatID)
	l.Lock()
	defer l.Unlock()

	u, err := s.store.Get(ctx, chatID)
	if errors.Is(err, repository.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if u.OnboardingState != model.StateAwaitingInterests {
		return false, nil
	}
	if err := s.store.FinishInterests(ctx, chatID); err != nil {
		return false, err
	}
	return true, nil
}

// RequestReceipt marks the chat as expected to upload payment proof. Presses
// from unknown chats are ignored.
func (s *Users) RequestReceipt(ctx context.Context, chatID int64) error {
	err := s.store.AwaitReceipt(ctx, chatID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil
	}
	return err
}

// SubmitReceipt captures uploaded payment proof when it is being awaited.
// It reports whether the upload was accepted.
func (s *Users) SubmitReceipt(ctx context.Context, chatID int64, fileID string) (bool, error) {
	l := s.chatLock(chatID)
	l.Lock()
	defer l.Unlock()

	u, err := s.store.Get(ctx, chatID)
	if errors.Is(err, repository.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if u.OnboardingState != model.StateAwaitingReceipt {
		return false, nil
	}
	if err := s.store.AttachPaymentProof(ctx, chatID, fileID); err != nil {
		return false, err
	}
	logger.Info(ctx, "service.users", "onboarding.receipt",
		slog.Int64("chat_id", chatID),
	)
	return true, nil
}

// All returns every known record.
func (s *Users) All(ctx context.Context) ([]model.UserRecord, error) {
	return s.store.All(ctx)
}

// PendingApproval returns users awaiting receipt review.
func (s *Users) PendingApproval(ctx context.Context) ([]model.UserRecord, error) {
	return s.store.PendingApproval(ctx)
}

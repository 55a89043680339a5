package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"comfortlybot/internal/model"
)

// ErrNotFound is returned when no record exists for the requested chat ID.
var ErrNotFound = errors.New("user record not found")

// Users is the Postgres-backed user record store. Every mutation is a partial
// UPDATE touching only the columns of its step, so unrelated fields survive.
type Users struct {
	db *sqlx.DB
}

// NewUsers wires the store to an open database handle.
func NewUsers(db *sqlx.DB) *Users {
	return &Users{db: db}
}

// Get loads a record by chat ID.
func (r *Users) Get(ctx context.Context, chatID int64) (*model.UserRecord, error) {
	var u model.UserRecord
	err := r.db.GetContext(ctx, &u, `SELECT * FROM users WHERE chat_id = $1`, chatID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user %d: %w", chatID, err)
	}
	return &u, nil
}

// CreateIfAbsent lazily creates a minimal record on first contact.
func (r *Users) CreateIfAbsent(ctx context.Context, chatID int64) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (chat_id) VALUES ($1) ON CONFLICT (chat_id) DO NOTHING`, chatID)
	if err != nil {
		return fmt.Errorf("create user %d: %w", chatID, err)
	}
	return nil
}

// AcceptNDA merge-sets the talker role, the NDA flag, and the first funnel step.
// Creates the record when the chat has never written before.
func (r *Users) AcceptNDA(ctx context.Context, chatID int64) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (chat_id, role, nda_accepted, onboarding_state)
		VALUES ($1, $2, TRUE, $3)
		ON CONFLICT (chat_id) DO UPDATE
		SET role = EXCLUDED.role, nda_accepted = TRUE, onboarding_state = EXCLUDED.onboarding_state`,
		chatID, model.RoleTalker, model.StateAwaitingName)
	if err != nil {
		return fmt.Errorf("accept nda for %d: %w", chatID, err)
	}
	return nil
}

// SetGovtName stores the legal name and advances to the nationality step.
func (r *Users) SetGovtName(ctx context.Context, chatID int64, name string) error {
	return r.update(ctx, chatID,
		`UPDATE users SET govt_name = $2, onboarding_state = $3 WHERE chat_id = $1`,
		chatID, name, model.StateAwaitingNationality)
}

// SetNationality stores the nationality and advances to interest selection.
func (r *Users) SetNationality(ctx context.Context, chatID int64, nationality string) error {
	return r.update(ctx, chatID,
		`UPDATE users SET nationality = $2, onboarding_state = $3 WHERE chat_id = $1`,
		chatID, nationality, model.StateAwaitingInterests)
}

// AddInterest appends a tag exactly once; re-adding an existing tag is a no-op.
func (r *Users) AddInterest(ctx context.Context, chatID int64, tag string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE users SET interests = array_append(interests, $2)
		WHERE chat_id = $1 AND NOT ($2 = ANY(interests))`, chatID, tag)
	if err != nil {
		return fmt.Errorf("add interest for %d: %w", chatID, err)
	}
	return nil
}

// FinishInterests closes the interest selection step.
func (r *Users) FinishInterests(ctx context.Context, chatID int64) error {
	return r.update(ctx, chatID,
		`UPDATE users SET onboarding_state = $2 WHERE chat_id = $1`,
		chatID, model.StateNone)
}

// AwaitReceipt marks the user as expected to upload a payment receipt.
func (r *Users) AwaitReceipt(ctx context.Context, chatID int64) error {
	return r.update(ctx, chatID,
		`UPDATE users SET onboarding_state = $2 WHERE chat_id = $1`,
		chatID, model.StateAwaitingReceipt)
}

// AttachPaymentProof captures the uploaded media reference and moves the user
// into the admin approval queue.
func (r *Users) AttachPaymentProof(ctx context.Context, chatID int64, fileID string) error {
	return r.update(ctx, chatID,
		`UPDATE users SET payment_proof = $2, onboarding_state = $3 WHERE chat_id = $1`,
		chatID, fileID, model.StateAwaitingApproval)
}

// Approve activates the account and resets the dashboard counters.
func (r *Users) Approve(ctx context.Context, chatID int64) error {
	return r.update(ctx, chatID, `
		UPDATE users SET approved = TRUE, onboarding_state = $2,
			balance = 0, calls = 0, subscription_end = NULL, history = '[]'::jsonb
		WHERE chat_id = $1`, chatID, model.StateNone)
}

// Reject clears the approval queue entry without touching balance or calls.
func (r *Users) Reject(ctx context.Context, chatID int64) error {
	return r.update(ctx, chatID,
		`UPDATE users SET approved = FALSE, onboarding_state = $2 WHERE chat_id = $1`,
		chatID, model.StateNone)
}

// ManualUpdate persists the admin-collected fields in one statement.
// A nil subscriptionEnd stores SQL NULL.
func (r *Users) ManualUpdate(ctx context.Context, chatID int64, balance float64, calls int, subscriptionEnd *string) error {
	return r.update(ctx, chatID,
		`UPDATE users SET balance = $2, calls = $3, subscription_end = $4 WHERE chat_id = $1`,
		chatID, balance, calls, subscriptionEnd)
}

// All enumerates every known record, oldest first.
func (r *Users) All(ctx context.Context) ([]model.UserRecord, error) {
	var out []model.UserRecord
	if err := r.db.SelectContext(ctx, &out, `SELECT * FROM users ORDER BY created_at`); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return out, nil
}

// PendingApproval lists users whose receipts await admin review.
func (r *Users) PendingApproval(ctx context.Context) ([]model.UserRecord, error) {
	var out []model.UserRecord
	err := r.db.SelectContext(ctx, &out,
		`SELECT * FROM users WHERE onboarding_state = $1 ORDER BY created_at`,
		model.StateAwaitingApproval)
	if err != nil {
		return nil, fmt.Errorf("list pending approvals: %w", err)
	}
	return out, nil
}

func (r *Users) update(ctx context.Context, chatID int64, query string, args ...interface{}) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update user %d: %w", chatID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

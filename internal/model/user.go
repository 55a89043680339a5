package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lib/pq"
)

// Role distinguishes the two sides of a comfort call.
type Role string

const (
	RoleTalker   Role = "talker"
	RoleListener Role = "listener"
)

// OnboardingState is the single active step of the talker onboarding funnel.
// Exactly one state is set per user; StateNone means onboarding is either not
// started or already finished.
type OnboardingState string

const (
	StateNone                OnboardingState = "none"
	StateAwaitingName        OnboardingState = "awaiting_name"
	StateAwaitingNationality OnboardingState = "awaiting_nationality"
	StateAwaitingInterests   OnboardingState = "awaiting_interests"
	StateAwaitingReceipt     OnboardingState = "awaiting_receipt"
	StateAwaitingApproval    OnboardingState = "awaiting_approval"
)

// Transaction is a single payment history entry.
type Transaction struct {
	Date   string  `json:"date"`
	Amount float64 `json:"amount"`
}

// History is the ordered payment history stored as JSONB.
type History []Transaction

// Scan implements sql.Scanner for JSONB columns.
func (h *History) Scan(src interface{}) error {
	if src == nil {
		*h = nil
		return nil
	}
	b, ok := src.([]byte)
	if !ok {
		return fmt.Errorf("history: unsupported scan type %T", src)
	}
	return json.Unmarshal(b, h)
}

// Value implements driver.Valuer for JSONB columns.
func (h History) Value() (driver.Value, error) {
	if h == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(h)
}

// UserRecord is the durable per-chat record, keyed by Telegram chat ID.
type UserRecord struct {
	ChatID          int64           `db:"chat_id"`
	Role            Role            `db:"role"`
	NDAAccepted     bool            `db:"nda_accepted"`
	OnboardingState OnboardingState `db:"onboarding_state"`
	GovtName        string          `db:"govt_name"`
	Nationality     string          `db:"nationality"`
	Interests       pq.StringArray  `db:"interests"`
	PaymentProof    string          `db:"payment_proof"`
	Approved        bool            `db:"approved"`
	Balance         float64         `db:"balance"`
	Calls           int             `db:"calls"`
	SubscriptionEnd *string         `db:"subscription_end"`
	History         History         `db:"history"`
	CreatedAt       time.Time       `db:"created_at"`
}

// HasInterest reports whether the tag is already selected.
func (u *UserRecord) HasInterest(tag string) bool {
	for _, t := range u.Interests {
		if t == tag {
			return true
		}
	}
	return false
}

// ComfortCall describes a scheduled call notification an admin sends to a talker.
type ComfortCall struct {
	TargetID int64
	Name     string
	Topic    string
	Amount   string
	DateTime string
}

package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"log/slog"

	"comfortlybot/core/logger"
	"comfortlybot/internal/model"
	"comfortlybot/internal/repository"
)

// ErrTargetNotFound signals that an admin flow referenced a chat with no record.
var ErrTargetNotFound = errors.New("target user not found")

// ErrUndeliverable signals that the target exists but the gateway could not
// reach them, typically because they never started a conversation with the bot.
var ErrUndeliverable = errors.New("message could not be delivered")

// DeliverFunc sends one plain-text message to a chat.
type DeliverFunc func(chatID int64, text string) error

// BroadcastReport summarizes a broadcast run.
type BroadcastReport struct {
	Recipients int
	Delivered  int
}

// Admin implements the admin-side record mutations and multi-target deliveries.
type Admin struct {
	store       UserStore
	callBaseURL string
}

// NewAdmin builds the admin service. callBaseURL is the public base used to
// build comfort-call join links.
func NewAdmin(store UserStore, callBaseURL string) *Admin {
	return &Admin{store: store, callBaseURL: strings.TrimRight(callBaseURL, "/")}
}

// Approve activates the target account and resets its dashboard counters.
func (s *Admin) Approve(ctx context.Context, target int64) error {
	if err := s.store.Approve(ctx, target); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrTargetNotFound
		}
		return err
	}
	logger.Info(ctx, "service.admin", "admin.approve",
		slog.Int64("target_id", target),
	)
	return nil
}

// Reject clears the approval queue entry without touching balance or calls.
func (s *Admin) Reject(ctx context.Context, target int64) error {
	if err := s.store.Reject(ctx, target); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrTargetNotFound
		}
		return err
	}
	logger.Info(ctx, "service.admin", "admin.reject",
		slog.Int64("target_id", target),
	)
	return nil
}

// ManualUpdate persists the four collected fields to the target record in one
// update. A nil subscriptionEnd clears the stored date.
func (s *Admin) ManualUpdate(ctx context.Context, target int64, balance float64, calls int, subscriptionEnd *string) error {
	if err := s.store.ManualUpdate(ctx, target, balance, calls, subscriptionEnd); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrTargetNotFound
		}
		return err
	}
	logger.Info(ctx, "service.admin", "admin.manual_update",
		slog.Int64("target_id", target),
	)
	return nil
}

// ComfortCall verifies the target exists, renders the alert, and delivers it.
// A missing target aborts before any message is sent; a delivery failure is
// reported as ErrUndeliverable so the caller can tell the admin.
func (s *Admin) ComfortCall(ctx context.Context, call model.ComfortCall, deliver DeliverFunc) error {
	if _, err := s.store.Get(ctx, call.TargetID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrTargetNotFound
		}
		return err
	}
	if err := deliver(call.TargetID, s.renderComfortCall(call)); err != nil {
		logger.Warn(ctx, "service.admin", "admin.comfort_call.undeliverable",
			slog.Int64("target_id", call.TargetID),
			slog.String("err", err.Error()),
		)
		return fmt.Errorf("%w: %v", ErrUndeliverable, err)
	}
	logger.Info(ctx, "service.admin", "admin.comfort_call",
		slog.Int64("target_id", call.TargetID),
	)
	return nil
}

// renderComfortCall formats the notification. DateTime splits on the first
// space into date and time; a missing time part renders empty.
func (s *Admin) renderComfortCall(call model.ComfortCall) string {
	datePart := call.DateTime
	timePart := ""
	if i := strings.Index(call.DateTime, " "); i >= 0 {
		datePart = call.DateTime[:i]
		timePart = call.DateTime[i+1:]
	}
	return fmt.Sprintf(
		"📞 *Comfortly Call Alert*\n\nHello *%s*,\n\nYou have an upcoming Comfort Call scheduled.\n\n"+
			"🗓 Date: %s\n⏰ Time: %s\n💬 Topic: %s\n💵 Amount: $%s\n\n"+
			"Please be ready at the scheduled time.\n[Join Your Call](%s/%d)\n\n"+
			"Thank you for connecting with Comfortly! 💛",
		call.Name, datePart, timePart, call.Topic, call.Amount, s.callBaseURL, call.TargetID,
	)
}

const broadcastPrefix = "📢 Admin Broadcast:\n\n"

// Broadcast delivers a prefixed message to every known user. Per-recipient
// failures are swallowed so one unreachable user never blocks the rest.
func (s *Admin) Broadcast(ctx context.Context, text string, deliver DeliverFunc) (BroadcastReport, error) {
	users, err := s.store.All(ctx)
	if err != nil {
		return BroadcastReport{}, err
	}
	report := BroadcastReport{Recipients: len(users)}
	for _, u := range users {
		if err := deliver(u.ChatID, broadcastPrefix+text); err != nil {
			logger.Debug(ctx, "service.broadcast", "broadcast.skip",
				slog.Int64("target_id", u.ChatID),
				slog.String("err", err.Error()),
			)
			continue
		}
		report.Delivered++
	}
	logger.Info(ctx, "service.broadcast", "broadcast.done",
		slog.Int("recipients", report.Recipients),
		slog.Int("delivered", report.Delivered),
	)
	return report, nil
}

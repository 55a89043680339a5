package handler

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	tele "gopkg.in/telebot.v4"

	"comfortlybot/core/telegram/callbacks"
	"comfortlybot/core/telegram/format"
	"comfortlybot/core/telegram/helpers"
	"comfortlybot/core/telegram/keyboard"
	"comfortlybot/core/telegram/state"
	"comfortlybot/internal/model"
	"comfortlybot/internal/service"
)

// Admin dialog states. Only admin-triggered callbacks ever open these, so the
// step handlers run exclusively for the admin chat.
const (
	stateManualTarget  state.State = "admin_manual_target"
	stateManualBalance state.State = "admin_manual_balance"
	stateManualCalls   state.State = "admin_manual_calls"
	stateManualSubEnd  state.State = "admin_manual_sub_end"

	stateCallTarget   state.State = "admin_call_target"
	stateCallName     state.State = "admin_call_name"
	stateCallTopic    state.State = "admin_call_topic"
	stateCallAmount   state.State = "admin_call_amount"
	stateCallDateTime state.State = "admin_call_datetime"

	stateBroadcast state.State = "admin_broadcast_message"
)

const (
	tempTargetID = "target_id"
	tempBalance  = "balance"
	tempCalls    = "calls"
	tempCallName = "call_name"
	tempTopic    = "call_topic"
	tempAmount   = "call_amount"
)

func adminMenu() *tele.ReplyMarkup {
	return keyboard.InlineButtonsRows(
		[]keyboard.InlineBtn{{Text: "✅ Approve Payments", Unique: "admin_approve"}},
		[]keyboard.InlineBtn{{Text: "💵 Approve Withdrawals", Unique: "admin_withdraw"}},
		[]keyboard.InlineBtn{{Text: "📂 View Users", Unique: "admin_users"}},
		[]keyboard.InlineBtn{{Text: "📤 Broadcast Message", Unique: "admin_broadcast"}},
		[]keyboard.InlineBtn{{Text: "⚡ Manual Updates", Unique: "admin_manual"}},
		[]keyboard.InlineBtn{{Text: "📞 Send Comfort Call", Unique: "admin_call"}},
	)
}

func (h *Handlers) adminDashboard(c tele.Context) error {
	return helpers.SendText(c, "🛠 Admin Dashboard", &tele.SendOptions{ReplyMarkup: adminMenu()})
}

// adminApproveQueue lists every user awaiting payment approval, one message
// per user with approve and reject buttons carrying the target chat ID.
func (h *Handlers) adminApproveQueue(c tele.Context) error {
	if !h.isAdmin(c) {
		return nil
	}
	ctx := helpers.BuildContext(c)
	pending, err := h.users.PendingApproval(ctx)
	if err != nil {
		return err
	}
	if len(pending) == 0 {
		return helpers.SendText(c, "✅ No users awaiting payment approval.")
	}
	for _, u := range pending {
		name := u.GovtName
		if name == "" {
			name = "N/A"
		}
		if escaped, err := format.EscapeMarkdown(name, format.MarkdownV1, ""); err == nil {
			name = escaped
		}
		payload := strconv.FormatInt(u.ChatID, 10)
		markup := keyboard.InlineButtonsRows(
			[]keyboard.InlineBtn{{Text: "✅ Approve", Unique: "approve", Data: payload}},
			[]keyboard.InlineBtn{{Text: "❌ Reject", Unique: "reject", Data: payload}},
		)
		text := fmt.Sprintf("User: *%s*\nID: `%d` — Payment pending", name, u.ChatID)
		if err := helpers.SendMD(c, text, markup); err != nil {
			return err
		}
	}
	return nil
}

func (h *Handlers) adminWithdrawals(c tele.Context) error {
	if !h.isAdmin(c) {
		return nil
	}
	return helpers.SendText(c, "💵 Withdrawals: feature coming — will list withdrawal requests here.")
}

func (h *Handlers) adminUsers(c tele.Context) error {
	if !h.isAdmin(c) {
		return nil
	}
	return helpers.SendText(c, "📂 Users: feature coming — will allow viewing user details and proofs.")
}

func (h *Handlers) adminManualStart(c tele.Context) error {
	if !h.isAdmin(c) {
		return nil
	}
	adminID := c.Sender().ID
	h.sessions.Clear(adminID)
	h.sessions.SetState(adminID, stateManualTarget)
	return helpers.SendMD(c, "⚡ Manual Update — Step 1/4\nEnter the *User ID* to update:")
}

func (h *Handlers) adminCallStart(c tele.Context) error {
	if !h.isAdmin(c) {
		return nil
	}
	adminID := c.Sender().ID
	h.sessions.Clear(adminID)
	h.sessions.SetState(adminID, stateCallTarget)
	return helpers.SendMD(c, "📞 Send Comfort Call — Step 1/5\nEnter the *User ID* to send the Comfort Call to:")
}

func (h *Handlers) adminBroadcastStart(c tele.Context) error {
	if !h.isAdmin(c) {
		return nil
	}
	adminID := c.Sender().ID
	h.sessions.Clear(adminID)
	h.sessions.SetState(adminID, stateBroadcast)
	return helpers.SendText(c, "📤 Enter the message to broadcast to all users:")
}

// approvePayment activates the target account, sends them the dashboard, and
// confirms to the admin.
func (h *Handlers) approvePayment(c tele.Context) error {
	if !h.isAdmin(c) {
		return nil
	}
	target, err := callbacks.PayloadInt64(c)
	if err != nil {
		return nil
	}
	ctx := helpers.BuildContext(c)
	if err := h.admin.Approve(ctx, target); err != nil {
		if errors.Is(err, service.ErrTargetNotFound) {
			return helpers.SendText(c, "❌ Target user not found. Aborting.")
		}
		return err
	}
	_, err = c.Bot().Send(&tele.User{ID: target},
		"✅ Your payment has been approved by admin. Welcome aboard!",
		&tele.SendOptions{ParseMode: tele.ModeMarkdown, ReplyMarkup: dashboardMenu()})
	if err != nil {
		return helpers.SendText(c, fmt.Sprintf("⚠️ Could not send message to %d. They might not have started the bot or blocked messages.", target))
	}
	return helpers.SendText(c, fmt.Sprintf("✅ User %d approved.", target))
}

// rejectPayment clears the approval request and notifies both sides.
func (h *Handlers) rejectPayment(c tele.Context) error {
	if !h.isAdmin(c) {
		return nil
	}
	target, err := callbacks.PayloadInt64(c)
	if err != nil {
		return nil
	}
	ctx := helpers.BuildContext(c)
	if err := h.admin.Reject(ctx, target); err != nil {
		if errors.Is(err, service.ErrTargetNotFound) {
			return helpers.SendText(c, "❌ Target user not found. Aborting.")
		}
		return err
	}
	if err := h.deliverText(c)(target, "❌ Your payment was rejected. Please contact support."); err != nil {
		return helpers.SendText(c, fmt.Sprintf("⚠️ Could not send message to %d. They might not have started the bot or blocked messages.", target))
	}
	return helpers.SendText(c, fmt.Sprintf("❌ User %d rejected.", target))
}

// --- manual update dialog ---

func (h *Handlers) manualTargetStep(c tele.Context) error {
	text := strings.TrimSpace(c.Text())
	target, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		return helpers.SendText(c, "Please provide a valid User ID.")
	}
	adminID := c.Sender().ID
	h.sessions.SetTemp(adminID, tempTargetID, target)
	h.sessions.SetState(adminID, stateManualBalance)
	return helpers.SendText(c, "Enter new Balance (number):")
}

func (h *Handlers) manualBalanceStep(c tele.Context) error {
	// ParseFloat accepts "NaN" and "Inf"; the stored balance must be finite.
	balance, err := strconv.ParseFloat(strings.TrimSpace(c.Text()), 64)
	if err != nil || math.IsNaN(balance) || math.IsInf(balance, 0) {
		return helpers.SendText(c, "Invalid number. Enter balance again:")
	}
	adminID := c.Sender().ID
	h.sessions.SetTemp(adminID, tempBalance, balance)
	h.sessions.SetState(adminID, stateManualCalls)
	return helpers.SendText(c, "Enter number of Calls:")
}

func (h *Handlers) manualCallsStep(c tele.Context) error {
	calls, err := strconv.Atoi(strings.TrimSpace(c.Text()))
	if err != nil {
		return helpers.SendText(c, "Invalid number. Enter calls again:")
	}
	adminID := c.Sender().ID
	h.sessions.SetTemp(adminID, tempCalls, calls)
	h.sessions.SetState(adminID, stateManualSubEnd)
	return helpers.SendText(c, "Enter subscription end date (YYYY-MM-DD) or `none`:")
}

func (h *Handlers) manualSubEndStep(c tele.Context) error {
	adminID := c.Sender().ID
	text := strings.TrimSpace(c.Text())

	var subEnd *string
	if !strings.EqualFold(text, "none") {
		subEnd = &text
	}
	target, _ := h.sessions.GetTempInt64(adminID, tempTargetID)
	balance := h.tempFloat(adminID, tempBalance)
	calls := h.tempInt(adminID, tempCalls)
	h.sessions.Clear(adminID)

	ctx := helpers.BuildContext(c)
	if err := h.admin.ManualUpdate(ctx, target, balance, calls, subEnd); err != nil {
		if errors.Is(err, service.ErrTargetNotFound) {
			return helpers.SendText(c, "❌ Target user not found. Aborting.")
		}
		return err
	}
	return helpers.SendText(c, fmt.Sprintf("✅ Updated user %d successfully.", target))
}

// --- comfort call dialog ---

func (h *Handlers) callTargetStep(c tele.Context) error {
	text := strings.TrimSpace(c.Text())
	target, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		return helpers.SendText(c, "Please provide a valid User ID.")
	}
	adminID := c.Sender().ID
	h.sessions.SetTemp(adminID, tempTargetID, target)
	h.sessions.SetState(adminID, stateCallName)
	return helpers.SendMD(c, "Enter participant's *name* (for personalization):")
}

func (h *Handlers) callNameStep(c tele.Context) error {
	adminID := c.Sender().ID
	h.sessions.SetTemp(adminID, tempCallName, strings.TrimSpace(c.Text()))
	h.sessions.SetState(adminID, stateCallTopic)
	return helpers.SendMD(c, "Enter the *topic* for this Comfort Call:")
}

func (h *Handlers) callTopicStep(c tele.Context) error {
	adminID := c.Sender().ID
	h.sessions.SetTemp(adminID, tempTopic, strings.TrimSpace(c.Text()))
	h.sessions.SetState(adminID, stateCallAmount)
	return helpers.SendMD(c, "Enter the *amount* the user is paying (in $):")
}

func (h *Handlers) callAmountStep(c tele.Context) error {
	adminID := c.Sender().ID
	h.sessions.SetTemp(adminID, tempAmount, strings.TrimSpace(c.Text()))
	h.sessions.SetState(adminID, stateCallDateTime)
	return helpers.SendMD(c, "Enter the Date & Time (e.g., `2025-09-16 18:30`):")
}

func (h *Handlers) callDateTimeStep(c tele.Context) error {
	adminID := c.Sender().ID
	target, _ := h.sessions.GetTempInt64(adminID, tempTargetID)
	call := model.ComfortCall{
		TargetID: target,
		Name:     h.tempString(adminID, tempCallName),
		Topic:    h.tempString(adminID, tempTopic),
		Amount:   h.tempString(adminID, tempAmount),
		DateTime: strings.TrimSpace(c.Text()),
	}
	h.sessions.Clear(adminID)

	ctx := helpers.BuildContext(c)
	err := h.admin.ComfortCall(ctx, call, h.deliverMarkdown(c))
	switch {
	case errors.Is(err, service.ErrTargetNotFound):
		return helpers.SendText(c, "❌ Target user not found. Aborting.")
	case errors.Is(err, service.ErrUndeliverable):
		return helpers.SendText(c, fmt.Sprintf("⚠️ Could not send message to %d. They might not have started the bot or blocked messages.", target))
	case err != nil:
		return err
	}
	return helpers.SendText(c, fmt.Sprintf("✅ Comfort Call sent to %d.", target))
}

// --- broadcast dialog ---

func (h *Handlers) broadcastStep(c tele.Context) error {
	text := strings.TrimSpace(c.Text())
	if text == "" {
		return helpers.SendText(c, "Please send the message text (as plain text).")
	}
	adminID := c.Sender().ID
	h.sessions.Clear(adminID)

	ctx := helpers.BuildContext(c)
	report, err := h.admin.Broadcast(ctx, text, h.deliverText(c))
	if err != nil {
		return err
	}
	return helpers.SendText(c, fmt.Sprintf("✅ Broadcast sent to all users (attempted %d, delivered %d).", report.Recipients, report.Delivered))
}

func (h *Handlers) tempString(userID int64, key string) string {
	if v, ok := h.sessions.GetTemp(userID, key); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

func (h *Handlers) tempFloat(userID int64, key string) float64 {
	if v, ok := h.sessions.GetTemp(userID, key); ok {
		if f, ok := v.(float64); ok {
			return f
		}
	}
	return 0
}

func (h *Handlers) tempInt(userID int64, key string) int {
	if v, ok := h.sessions.GetTemp(userID, key); ok {
		if n, ok := v.(int); ok {
			return n
		}
	}
	return 0
}

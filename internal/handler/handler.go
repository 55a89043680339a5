// Package handler wires the Comfortly flows into the bot registry: the talker
// onboarding funnel, the talker dashboard, and the admin control panel with
// its interactive multi-step dialogs.
package handler

import (
	tele "gopkg.in/telebot.v4"

	tg "comfortlybot/core/telegram"
	"comfortlybot/core/telegram/commands"
	"comfortlybot/core/telegram/state"
	"comfortlybot/internal/config"
	"comfortlybot/internal/service"
)

// Handlers holds the services and session manager the bot handlers depend on.
type Handlers struct {
	users    *service.Users
	admin    *service.Admin
	sessions state.Manager
	cfg      *config.Config
}

// New builds the handler set.
func New(users *service.Users, admin *service.Admin, sessions state.Manager, cfg *config.Config) *Handlers {
	return &Handlers{users: users, admin: admin, sessions: sessions, cfg: cfg}
}

// Register binds commands, callbacks, the onboarding text fallback, and the
// admin dialog states to the registry.
func (h *Handlers) Register(reg *tg.Registry) {
	reg.RegisterCommand("/start", commands.Command{
		Handler:     h.start,
		Description: "Open the Comfortly welcome menu",
	})
	reg.RegisterCommand("/admin", commands.Command{
		Handler:     h.adminDashboard,
		Description: "Open the admin dashboard",
		AdminOnly:   true,
		Hidden:      true,
	})

	_ = reg.RegisterCallback("become_talker", h.becomeTalker)
	_ = reg.RegisterCallback("become_listener", h.becomeListener)
	_ = reg.RegisterCallback("accept_nda", h.acceptNDA)
	_ = reg.RegisterCallback("interest", h.interestPressed)
	_ = reg.RegisterCallback("bank_details", h.bankDetails)
	_ = reg.RegisterCallback("upload_receipt", h.uploadReceipt)

	_ = reg.RegisterCallback("dash_home", h.dashboard(renderHome))
	_ = reg.RegisterCallback("dash_withdraw", h.dashboard(renderWithdraw))
	_ = reg.RegisterCallback("dash_history", h.dashboard(renderHistory))
	_ = reg.RegisterCallback("dash_help", h.dashHelp)
	_ = reg.RegisterCallback("dash_about", h.dashAbout)

	_ = reg.RegisterCallback("admin_approve", h.adminApproveQueue)
	_ = reg.RegisterCallback("admin_withdraw", h.adminWithdrawals)
	_ = reg.RegisterCallback("admin_users", h.adminUsers)
	_ = reg.RegisterCallback("admin_broadcast", h.adminBroadcastStart)
	_ = reg.RegisterCallback("admin_manual", h.adminManualStart)
	_ = reg.RegisterCallback("admin_call", h.adminCallStart)
	_ = reg.RegisterCallback("approve", h.approvePayment)
	_ = reg.RegisterCallback("reject", h.rejectPayment)

	reg.SetTextFallback(h.onboardingText)

	state.RegisterHandler(stateManualTarget, h.manualTargetStep)
	state.RegisterHandler(stateManualBalance, h.manualBalanceStep)
	state.RegisterHandler(stateManualCalls, h.manualCallsStep)
	state.RegisterHandler(stateManualSubEnd, h.manualSubEndStep)

	state.RegisterHandler(stateCallTarget, h.callTargetStep)
	state.RegisterHandler(stateCallName, h.callNameStep)
	state.RegisterHandler(stateCallTopic, h.callTopicStep)
	state.RegisterHandler(stateCallAmount, h.callAmountStep)
	state.RegisterHandler(stateCallDateTime, h.callDateTimeStep)

	state.RegisterHandler(stateBroadcast, h.broadcastStep)
}

func (h *Handlers) isAdmin(c tele.Context) bool {
	return c.Sender() != nil && c.Sender().ID == h.cfg.Telegram.AdminID
}

// deliverText sends plain text to an arbitrary chat through the current bot.
func (h *Handlers) deliverText(c tele.Context) service.DeliverFunc {
	return func(chatID int64, text string) error {
		_, err := c.Bot().Send(&tele.User{ID: chatID}, text)
		return err
	}
}

// deliverMarkdown sends Markdown text to an arbitrary chat.
func (h *Handlers) deliverMarkdown(c tele.Context) service.DeliverFunc {
	return func(chatID int64, text string) error {
		_, err := c.Bot().Send(&tele.User{ID: chatID}, text,
			&tele.SendOptions{ParseMode: tele.ModeMarkdown})
		return err
	}
}

package handler

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	tele "gopkg.in/telebot.v4"

	"comfortlybot/core/telegram/format"
	"comfortlybot/core/telegram/helpers"
	"comfortlybot/core/telegram/keyboard"
	"comfortlybot/internal/model"
	"comfortlybot/internal/repository"
)

func dashboardMenu() *tele.ReplyMarkup {
	return keyboard.InlineButtonsRows(
		[]keyboard.InlineBtn{
			{Text: "🏠 Home", Unique: "dash_home"},
			{Text: "💵 Withdraw", Unique: "dash_withdraw"},
		},
		[]keyboard.InlineBtn{{Text: "📜 Payment History", Unique: "dash_history"}},
		[]keyboard.InlineBtn{
			{Text: "❓ Help", Unique: "dash_help"},
			{Text: "ℹ️ About", Unique: "dash_about"},
		},
	)
}

// dashboard builds a callback handler around a screen renderer. Unknown chats
// render against a zero-valued record.
func (h *Handlers) dashboard(render func(u *model.UserRecord) string) tele.HandlerFunc {
	return func(c tele.Context) error {
		ctx := helpers.BuildContext(c)
		u, err := h.users.Record(ctx, c.Sender().ID)
		if errors.Is(err, repository.ErrNotFound) {
			u = &model.UserRecord{ChatID: c.Sender().ID}
		} else if err != nil {
			return err
		}
		return helpers.SendMD(c, render(u), dashboardMenu())
	}
}

func renderHome(u *model.UserRecord) string {
	name := u.GovtName
	if name == "" {
		name = "N/A"
	}
	if escaped, err := format.EscapeMarkdown(name, format.MarkdownV1, ""); err == nil {
		name = escaped
	}
	return fmt.Sprintf("🏠 *Home*\nUsername: %s\nSubscription End: %s\nCalls Made: %d\nEarnings: $%s",
		name,
		format.DerefString(u.SubscriptionEnd, "N/A"),
		u.Calls,
		strconv.FormatFloat(u.Balance, 'f', -1, 64),
	)
}

func renderWithdraw(u *model.UserRecord) string {
	return "💵 *Withdraw*\nTo request a withdrawal, enter amount and bank details. (Admin will approve)"
}

func renderHistory(u *model.UserRecord) string {
	if len(u.History) == 0 {
		return "📜 *Payment History*\nNo transactions yet."
	}
	lines := make([]string, 0, len(u.History))
	for i, t := range u.History {
		lines = append(lines, fmt.Sprintf("%d. %s: $%s", i+1, t.Date, strconv.FormatFloat(t.Amount, 'f', -1, 64)))
	}
	return "📜 *Payment History*\n" + strings.Join(lines, "\n")
}

func (h *Handlers) dashHelp(c tele.Context) error {
	text := fmt.Sprintf("❓ *Help*\nEmail %s or reply here.", h.cfg.Bot.SupportEmail)
	return helpers.SendMD(c, text, dashboardMenu())
}

func (h *Handlers) dashAbout(c tele.Context) error {
	return helpers.SendMD(c, "ℹ️ *About*\nComfortly connects Talkers with people seeking companionship and support.", dashboardMenu())
}

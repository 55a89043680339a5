package handler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"comfortlybot/core/telegram/format"
	"comfortlybot/internal/model"
)

func TestRenderHomeDefaults(t *testing.T) {
	got := renderHome(&model.UserRecord{ChatID: 1})
	assert.Equal(t, "🏠 *Home*\nUsername: N/A\nSubscription End: N/A\nCalls Made: 0\nEarnings: $0", got)
}

func TestRenderHomePopulated(t *testing.T) {
	end := "2026-03-01"
	got := renderHome(&model.UserRecord{
		ChatID:          1,
		GovtName:        "Jane Doe",
		SubscriptionEnd: &end,
		Calls:           7,
		Balance:         100.5,
	})
	assert.Equal(t, "🏠 *Home*\nUsername: Jane Doe\nSubscription End: 2026-03-01\nCalls Made: 7\nEarnings: $100.5", got)
}

func TestRenderHomeEscapesMarkdownName(t *testing.T) {
	escaped, err := format.EscapeMarkdown("Jane*_Doe_*", format.MarkdownV1, "")
	require.NoError(t, err)

	got := renderHome(&model.UserRecord{GovtName: "Jane*_Doe_*"})
	assert.Contains(t, got, "Username: "+escaped)
	assert.NotContains(t, got, "Username: Jane*_Doe_*")
}

func TestRenderHistoryEmpty(t *testing.T) {
	got := renderHistory(&model.UserRecord{})
	assert.Equal(t, "📜 *Payment History*\nNo transactions yet.", got)
}

func TestRenderHistoryNumbered(t *testing.T) {
	got := renderHistory(&model.UserRecord{History: model.History{
		{Date: "2025-01-05", Amount: 50},
		{Date: "2025-02-05", Amount: 72.5},
	}})
	assert.Equal(t, "📜 *Payment History*\n1. 2025-01-05: $50\n2. 2025-02-05: $72.5", got)
}

func TestDashboardMenuLayout(t *testing.T) {
	menu := dashboardMenu()
	rows := menu.InlineKeyboard
	assert.Len(t, rows, 3)
	assert.Len(t, rows[0], 2)
	assert.Len(t, rows[1], 1)
	assert.Len(t, rows[2], 2)
	assert.Equal(t, "🏠 Home", rows[0][0].Text)
	assert.Equal(t, "📜 Payment History", rows[1][0].Text)
}

func TestAdminMenuLayout(t *testing.T) {
	menu := adminMenu()
	rows := menu.InlineKeyboard
	assert.Len(t, rows, 6)
	for _, row := range rows {
		assert.Len(t, row, 1)
	}
	assert.Equal(t, "✅ Approve Payments", rows[0][0].Text)
	assert.Equal(t, "📞 Send Comfort Call", rows[5][0].Text)
}

func TestInterestMenuPayloads(t *testing.T) {
	menu := interestMenu()
	rows := menu.InlineKeyboard
	assert.Len(t, rows, 5)
	assert.Contains(t, rows[0][0].Data, "relationships")
	assert.Contains(t, rows[4][0].Data, "done")
}

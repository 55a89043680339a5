package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

const minimalConfig = `
telegram:
  token: "123:abc"
  admin_id: 42
bot:
  payment_link: "https://pay.example/x"
  bank_details: "*Bank*\nAccount: *1*"
`

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, minimalConfig)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, int64(42), cfg.Telegram.AdminID)
	assert.Equal(t, "10,000 / month", cfg.Bot.SubscriptionPrice)
	assert.Equal(t, "https://comfortly.com/call", cfg.Bot.CallBaseURL)
	assert.Equal(t, "support@comfortly.com", cfg.Bot.SupportEmail)
	assert.Equal(t, ":3000", cfg.Health.Listen)
}

func TestLoadMissingAdminID(t *testing.T) {
	path := writeConfig(t, `
telegram:
  token: "123:abc"
bot:
  payment_link: "https://pay.example/x"
  bank_details: "bank"
`)
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "admin_id")
}

func TestLoadMissingPaymentLink(t *testing.T) {
	path := writeConfig(t, `
telegram:
  token: "123:abc"
  admin_id: 42
bot:
  bank_details: "bank"
`)
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "payment_link")
}

func TestLoadEnvOverride(t *testing.T) {
	path := writeConfig(t, minimalConfig)
	t.Setenv("SUPPORT_EMAIL", "help@comfortly.dev")
	t.Setenv("HEALTH_LISTEN", ":8080")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "help@comfortly.dev", cfg.Bot.SupportEmail)
	assert.Equal(t, ":8080", cfg.Health.Listen)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

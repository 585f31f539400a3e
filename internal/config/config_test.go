package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		DBMaxConns:              25,
		DBMinConns:              5,
		BotMaxInflight:          64,
		BotUpdateTimeoutSeconds: 60,
		ActivationMaxRetries:    3,
		PromotionReminderHours:  2,
		PromotionSweepSchedule:  "*/5 * * * *",
		LedgerAuditSchedule:     "30 3 * * *",
		RateLimitRequests:       10,
		RateLimitWindow:         time.Minute,
	}
}

func TestLoad(t *testing.T) {
	t.Setenv("DB_PASSWORD", "secret")
	t.Setenv("ADMIN_IDS", " 100, 200 ")
	t.Setenv("ACTIVATION_RETRY_BACKOFF", "20ms")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []int64{100, 200}, cfg.AdminIDs)
	assert.True(t, cfg.IsAdmin(200))
	assert.False(t, cfg.IsAdmin(300))
	assert.Equal(t, 20*time.Millisecond, cfg.ActivationRetryBackoff)
	assert.Contains(t, cfg.DatabaseDSN(), ":secret@")
}

func TestLoad_MissingPassword(t *testing.T) {
	t.Setenv("DB_PASSWORD", "")
	require.NoError(t, os.Unsetenv("DB_PASSWORD"))
	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_BadAdminIDs(t *testing.T) {
	t.Setenv("DB_PASSWORD", "secret")
	t.Setenv("ADMIN_IDS", "100,abc")
	_, err := Load()
	assert.ErrorContains(t, err, "ADMIN_IDS")
}

func TestValidate(t *testing.T) {
	require.NoError(t, validConfig().Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"нет повторов", func(c *Config) { c.ActivationMaxRetries = 0 }},
		{"min > max", func(c *Config) { c.DBMinConns = 30 }},
		{"плохой крон", func(c *Config) { c.PromotionSweepSchedule = "каждые 5 минут" }},
		{"нулевой лимит", func(c *Config) { c.RateLimitRequests = 0 }},
		{"отрицательное напоминание", func(c *Config) { c.PromotionReminderHours = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestValidateBot(t *testing.T) {
	cfg := validConfig()
	assert.ErrorContains(t, cfg.ValidateBot(), "TELEGRAM_BOT_TOKEN")

	cfg.TelegramBotToken = "123:abc"
	assert.NoError(t, cfg.ValidateBot())

	cfg.AdminIDs = []int64{1}
	assert.ErrorContains(t, cfg.ValidateBot(), "ADMIN_PASSWORD_HASH")

	cfg.AdminPasswordHash = "$argon2id$..."
	assert.NoError(t, cfg.ValidateBot())
}

func TestParseInt64CSV(t *testing.T) {
	ids, err := parseInt64CSV("")
	require.NoError(t, err)
	assert.Nil(t, ids)

	ids, err = parseInt64CSV("1,2 , 3")
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2, 3}, ids)

	_, err = parseInt64CSV("1,,2")
	assert.Error(t, err)
}

func TestLocationFallback(t *testing.T) {
	cfg := &Config{AppTimezone: "Нет/Такой"}
	_, offset := time.Date(2025, 1, 1, 0, 0, 0, 0, cfg.Location()).Zone()
	assert.Equal(t, 3*60*60, offset)
}

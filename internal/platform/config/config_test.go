package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFromEnvDefaults(t *testing.T) {
	cfg := FromEnv()
	assert.Equal(t, 3, cfg.DispatchMaxRetries)
	assert.Equal(t, time.Second, cfg.DispatchMinDelay)
	assert.Equal(t, time.Minute, cfg.DispatchCooldown)
	assert.Contains(t, cfg.DBConnStr, "sslmode=")
	assert.True(t, cfg.AllowTeacherSignup)
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("JUDGE0_URL", "http://judge0.local:2358/")
	t.Setenv("DISPATCH_COOLDOWN_SECONDS", "5")
	t.Setenv("DISPATCH_MAX_RETRIES", "not-a-number")
	t.Setenv("DB_AUTO_MIGRATE", "false")
	t.Setenv("ALLOW_TEACHER_SIGNUP", "false")

	cfg := FromEnv()
	assert.Equal(t, "http://judge0.local:2358", cfg.Judge0URL)
	assert.Equal(t, 5*time.Second, cfg.DispatchCooldown)
	assert.Equal(t, 3, cfg.DispatchMaxRetries)
	assert.False(t, cfg.DBAutoMigrate)
	assert.False(t, cfg.AllowTeacherSignup)
}

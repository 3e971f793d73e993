package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyDefaults(t *testing.T) {
	c := new(Config)
	c.ApplyDefaults()

	assert.Equal(t, "kindergarten", c.AppName)
	assert.Equal(t, 8000, c.MainConfig.Port)
	assert.Equal(t, "dev", c.MainConfig.Mode)
	assert.Equal(t, "channel", c.MessageMode)
	assert.Equal(t, 168, c.RefreshTokenExpiry)
	assert.Equal(t, "console", c.EmailConfig.Mode)
	assert.Equal(t, "[kindergarten] ", c.SubjectPrefix)
	assert.Equal(t, 3, c.MaxAttempts)
	assert.Equal(t, 20, c.CollectIPDailyLimit)
	assert.Equal(t, 300, c.AnalyticsCacheTTL)
}

func TestLoadFile_EnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[mainConfig]
appName = "kg-test"
port = 9100
trustedProxies = ["10.0.0.0/8"]

[jwtConfig]
secret = "from-file"

[kafkaConfig]
messageMode = "kafka"

[marketingConfig]
collectIpDailyLimit = 5
`), 0o600))

	t.Setenv("KG_JWT_SECRET", "from-env")
	t.Setenv("KG_SMS_MODE", " ALIYUN ")
	t.Setenv("KG_PAYMENT_SECRET", "gateway-secret")

	c, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "kg-test", c.AppName)
	assert.Equal(t, 9100, c.MainConfig.Port)
	assert.Equal(t, "from-env", c.JWTConfig.Secret)
	assert.Equal(t, "aliyun", c.AuthCodeConfig.Mode)
	assert.Equal(t, "kafka", c.MessageMode)
	assert.Equal(t, []string{"10.0.0.0/8"}, c.TrustedProxies)
	assert.Equal(t, "gateway-secret", c.CallbackSecret)
	assert.Equal(t, 5, c.CollectIPDailyLimit)
	// 未配置项取默认值
	assert.Equal(t, 60, c.SweepInterval)
}

func TestLoadFile_Missing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "nope.toml"))
	assert.Error(t, err)
}

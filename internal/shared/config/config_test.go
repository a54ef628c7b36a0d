package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fofahack/internal/shared/types"
)

func TestLoadIniMissingFileKeepsDefaults(t *testing.T) {
	cfg := types.Default()
	err := LoadIni(cfg, filepath.Join(t.TempDir(), "absent.ini"))
	require.NoError(t, err)
	assert.Equal(t, 100, cfg.SearchConf.EndCount)
	assert.Equal(t, -3000, cfg.DetectConf.BanCode)
}

func TestLoadIniOverridesSections(t *testing.T) {
	content := `[common]
timeout = 30
timeSleep = 1

[search]
end_count = 500
format = csv
max_consecutive_failures = 5

[proxypool]
enabled = false
pool_file = /tmp/custom_pool.txt

[detect]
ban_code = -4000
captcha_substr = challenge

[log]
level = debug
`
	path := filepath.Join(t.TempDir(), "fofahack.ini")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg := types.Default()
	require.NoError(t, LoadIni(cfg, path))

	assert.Equal(t, 30, cfg.CommonConf.Timeout)
	assert.Equal(t, 500, cfg.SearchConf.EndCount)
	assert.Equal(t, "csv", cfg.SearchConf.Format)
	assert.Equal(t, 5, cfg.SearchConf.MaxConsecutiveFailures)
	assert.False(t, cfg.ProxyPoolConf.Enabled)
	assert.Equal(t, "/tmp/custom_pool.txt", cfg.ProxyPoolConf.PoolFile)
	assert.Equal(t, -4000, cfg.DetectConf.BanCode)
	assert.Equal(t, "challenge", cfg.DetectConf.CaptchaSubstr)
	assert.Equal(t, "debug", cfg.LogConf.Level)

	// Untouched keys keep their defaults.
	assert.Equal(t, 850100, cfg.DetectConf.CaptchaCode)
	assert.Equal(t, 20, cfg.SearchConf.PageSize)
}

func TestLoadIniEnvOverrides(t *testing.T) {
	t.Setenv("FOFAHACK_POOL_FILE", "/tmp/env_pool.txt")
	t.Setenv("FOFAHACK_LOG_LEVEL", "trace")

	cfg := types.Default()
	require.NoError(t, LoadIni(cfg, filepath.Join(t.TempDir(), "absent.ini")))

	assert.Equal(t, "/tmp/env_pool.txt", cfg.ProxyPoolConf.PoolFile)
	assert.Equal(t, "trace", cfg.LogConf.Level)
}

package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func TestFromViperDefaults(t *testing.T) {
	v := viper.New()
	setDefaults(v)

	cfg := fromViper(v)

	assert.Equal(t, EnvDevelopment, cfg.Env)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "/api/v1", cfg.APIPrefix)
	assert.Equal(t, "http://localhost:8000/api", cfg.Upstream.BaseURL)
	assert.Equal(t, 15*time.Second, cfg.Upstream.Timeout)
	assert.False(t, cfg.Cohort.CacheEnabled)
	assert.Equal(t, 2*time.Minute, cfg.Cohort.CacheTTL)
	assert.Equal(t, 24*time.Hour, cfg.Reports.SignedURLTTL)
	assert.Equal(t, 3, cfg.Reports.WorkerRetries)
}

func TestFromViperOverrides(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	v.Set("UPSTREAM_BASE_URL", "https://api.example.edu/v2/")
	v.Set("UPSTREAM_TIMEOUT", "not-a-duration")
	v.Set("ALLOWED_ORIGINS", "https://a.example.edu, ,https://b.example.edu")
	v.Set("ENABLE_COHORT_CACHE", true)

	cfg := fromViper(v)

	assert.Equal(t, "https://api.example.edu/v2", cfg.Upstream.BaseURL)
	assert.Equal(t, 15*time.Second, cfg.Upstream.Timeout)
	assert.Equal(t, []string{"https://a.example.edu", "https://b.example.edu"}, cfg.CORS.AllowedOrigins)
	assert.True(t, cfg.Cohort.CacheEnabled)
}

// AngelaMos | 2026
// config_test.go

package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Database: DatabaseConfig{URL: "postgres://localhost/predictor"},
		Redis:    RedisConfig{URL: "redis://localhost:6379"},
		JWT:      JWTConfig{PrivateKeyPath: "keys/private.pem"},
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         8080,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		CORS: CORSConfig{
			AllowedOrigins:   []string{"http://localhost:3000"},
			AllowCredentials: true,
		},
		Training: TrainingConfig{
			BaseURL: "http://localhost:8090",
			Timeout: 2 * time.Minute,
		},
		Lifecycle: LifecycleConfig{
			Warning1Days:      14,
			Warning2Days:      30,
			Warning3Days:      60,
			CriticalDays:      90,
			AccuracyThreshold: 0.70,
			AccuracyGrace:     720 * time.Hour,
		},
		Automation: AutomationConfig{Interval: time.Hour},
	}
}

// Load is a process-wide singleton, so defaults and env overrides are
// exercised in a single test.
func TestLoadAppliesDefaultsAndEnvOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/predictor_test")
	t.Setenv("REDIS_URL", "redis://localhost:6379/1")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LIFECYCLE_ACCURACY_THRESHOLD", "0.8")

	cfg, err := Load("")
	require.NoError(t, err)

	// env wins
	assert.Equal(t, "postgres://localhost/predictor_test", cfg.Database.URL)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.InDelta(t, 0.8, cfg.Lifecycle.AccuracyThreshold, 1e-9)

	// untouched keys keep their defaults
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 14, cfg.Lifecycle.Warning1Days)
	assert.Equal(t, 90, cfg.Lifecycle.CriticalDays)
	assert.Equal(t, 720*time.Hour, cfg.Lifecycle.AccuracyGrace)
	assert.Equal(t, time.Hour, cfg.Automation.Interval)
	assert.Equal(t, "json", cfg.Log.Format)

	assert.Same(t, cfg, Get())
}

func TestValidateAcceptsCompleteConfig(t *testing.T) {
	require.NoError(t, validate(validConfig()))
}

func TestValidateRequiresDatabaseURL(t *testing.T) {
	c := validConfig()
	c.Database.URL = ""
	assert.Error(t, validate(c))
}

func TestValidateRejectsCORSWildcardWithCredentials(t *testing.T) {
	c := validConfig()
	c.CORS.AllowedOrigins = []string{"*"}
	assert.Error(t, validate(c))
}

func TestValidateRejectsNonPositiveAutomationInterval(t *testing.T) {
	c := validConfig()
	c.Automation.Interval = 0
	assert.Error(t, validate(c))
}

func TestLifecycleValidateRejectsUnorderedThresholds(t *testing.T) {
	tests := []struct {
		name      string
		lifecycle LifecycleConfig
		wantErr   bool
	}{
		{
			name: "ascending thresholds pass",
			lifecycle: LifecycleConfig{
				Warning1Days: 14, Warning2Days: 30,
				Warning3Days: 60, CriticalDays: 90,
				AccuracyThreshold: 0.70,
			},
		},
		{
			name: "equal tiers rejected",
			lifecycle: LifecycleConfig{
				Warning1Days: 14, Warning2Days: 14,
				Warning3Days: 60, CriticalDays: 90,
				AccuracyThreshold: 0.70,
			},
			wantErr: true,
		},
		{
			name: "critical below warning 3 rejected",
			lifecycle: LifecycleConfig{
				Warning1Days: 14, Warning2Days: 30,
				Warning3Days: 60, CriticalDays: 45,
				AccuracyThreshold: 0.70,
			},
			wantErr: true,
		},
		{
			name: "zero first tier rejected",
			lifecycle: LifecycleConfig{
				Warning1Days: 0, Warning2Days: 30,
				Warning3Days: 60, CriticalDays: 90,
				AccuracyThreshold: 0.70,
			},
			wantErr: true,
		},
		{
			name: "accuracy threshold above one rejected",
			lifecycle: LifecycleConfig{
				Warning1Days: 14, Warning2Days: 30,
				Warning3Days: 60, CriticalDays: 90,
				AccuracyThreshold: 1.5,
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.lifecycle.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestEnvKeyReplacerIgnoresUnknownVars(t *testing.T) {
	assert.Equal(t, "database.url", envKeyReplacer("DATABASE_URL"))
	assert.Equal(t, "lifecycle.accuracy_threshold",
		envKeyReplacer("LIFECYCLE_ACCURACY_THRESHOLD"))
	assert.Empty(t, envKeyReplacer("PATH"))
	assert.Empty(t, envKeyReplacer("HOME"))
}

func TestServerAddress(t *testing.T) {
	s := ServerConfig{Host: "127.0.0.1", Port: 9000}
	assert.Equal(t, "127.0.0.1:9000", s.Address())
}

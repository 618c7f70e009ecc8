package connectivity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dep2p/go-comms/config"
	"github.com/dep2p/go-comms/pkg/types"
)

func TestConfig_Validate(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())

	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"zero degraded", func(c *Config) { c.DegradedThreshold = 0 }},
		{"online below degraded", func(c *Config) { c.OnlineThreshold = 0 }},
		{"zero attempts", func(c *Config) { c.MaxDialAttempts = 0 }},
		{"backoff max below base", func(c *Config) { c.DialBackoffMax = time.Millisecond }},
		{"zero dial timeout", func(c *Config) { c.DialTimeout = 0 }},
		{"zero concurrency", func(c *Config) { c.MaxConcurrentDials = 0 }},
		{"negative redial attempts", func(c *Config) { c.MaxRedialAttempts = -1 }},
		{"multiplier below one", func(c *Config) { c.BackoffMultiplier = 0.5 }},
		{"zero mailbox", func(c *Config) { c.MailboxSize = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestConfig_StatusFor(t *testing.T) {
	cfg := DefaultConfig().WithThresholds(1, 3)

	assert.Equal(t, types.StatusOffline, cfg.statusFor(0))
	assert.Equal(t, types.StatusDegraded, cfg.statusFor(1))
	assert.Equal(t, types.StatusDegraded, cfg.statusFor(2))
	assert.Equal(t, types.StatusOnline, cfg.statusFor(3))
	assert.Equal(t, types.StatusOnline, cfg.statusFor(10))
}

func TestBackoff(t *testing.T) {
	base := 100 * time.Millisecond
	max := time.Second

	assert.Equal(t, 100*time.Millisecond, backoff(base, max, 2, 0))
	assert.Equal(t, 200*time.Millisecond, backoff(base, max, 2, 1))
	assert.Equal(t, 800*time.Millisecond, backoff(base, max, 2, 3))
	assert.Equal(t, max, backoff(base, max, 2, 10))
	assert.Equal(t, time.Duration(0), backoff(0, max, 2, 5))

	cfg := DefaultConfig()
	assert.Equal(t, cfg.DialBackoffBase, cfg.dialBackoff(1))
	assert.Equal(t, cfg.InitialRedialDelay, cfg.redialDelay(0))
	assert.Equal(t, cfg.MaxRedialDelay, cfg.redialDelay(100))
}

func TestConfigFromUnified(t *testing.T) {
	t.Run("nil", func(t *testing.T) {
		cfg, err := ConfigFromUnified(nil)
		require.NoError(t, err)
		assert.Equal(t, DefaultConfig(), cfg)
	})

	t.Run("values", func(t *testing.T) {
		peer := types.PeerIDFromPublicKey([]byte("managed"))

		unified := config.NewConfig()
		require.NoError(t, config.ApplyPreset(unified, "basenode"))
		unified.Connectivity.ManagedPeers = []string{peer.String()}

		cfg, err := ConfigFromUnified(unified)
		require.NoError(t, err)
		assert.Equal(t, 2, cfg.DegradedThreshold)
		assert.Equal(t, 8, cfg.OnlineThreshold)
		assert.Equal(t, []types.PeerID{peer}, cfg.ManagedPeers)
		assert.NoError(t, cfg.Validate())
	})

	t.Run("invalid managed peer", func(t *testing.T) {
		unified := config.NewConfig()
		unified.Connectivity.ManagedPeers = []string{"not-base58-0OIl"}

		_, err := ConfigFromUnified(unified)
		assert.Error(t, err)
	})
}

func TestErrors(t *testing.T) {
	inner := assert.AnError
	err := error(&DialError{Peer: types.PeerIDFromPublicKey([]byte{1}), Attempts: 2, Err: inner})
	assert.ErrorIs(t, err, ErrDialFailed)
	assert.ErrorIs(t, err, inner)
	assert.Contains(t, err.Error(), "2 attempt(s)")

	terr := error(&TimeoutError{Connected: 1, MinPeers: 3})
	assert.ErrorIs(t, terr, ErrTimeoutExceeded)
	assert.NotErrorIs(t, terr, ErrDialFailed)
}

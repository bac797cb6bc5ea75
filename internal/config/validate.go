package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// Validate reports every invalid setting at once, wrapped in ErrConfigInvalid.
func (c *Config) Validate() error {
	var v validator

	v.require("mongodb.uri", c.MongoDB.URI)
	v.require("mongodb.database", c.MongoDB.Database)
	v.require("redis.addr", c.Redis.Addr)
	v.require("eventbus.channel_prefix", c.EventBus.ChannelPrefix)

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		v.fail(fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port))
	}
	v.positive("server.read_timeout", int64(c.Server.ReadTimeout))
	v.positive("server.write_timeout", int64(c.Server.WriteTimeout))

	c.validateAuth(&v)

	if !slices.Contains([]string{"debug", "info", "warn", "error"}, strings.ToLower(c.Log.Level)) {
		v.fail(ErrInvalidLogLevel)
	}
	if !slices.Contains([]string{"json", "text"}, strings.ToLower(c.Log.Format)) {
		v.fail(ErrInvalidLogFormat)
	}

	v.notNegative("eventbus.max_retries", int64(c.EventBus.MaxRetries))
	v.positive("eventbus.max_in_flight", int64(c.EventBus.MaxInFlight))
	if replay := c.EventBus.Replay; replay.Enabled {
		v.positive("eventbus.replay.poll_interval", int64(replay.PollInterval))
		v.positive("eventbus.replay.batch_size", int64(replay.BatchSize))
		v.positive("eventbus.replay.max_attempts", int64(replay.MaxAttempts))
	}

	ws := c.WebSocket
	v.positive("websocket.read_buffer_size", int64(ws.ReadBufferSize))
	v.positive("websocket.write_buffer_size", int64(ws.WriteBufferSize))
	v.positive("websocket.ping_interval", int64(ws.PingInterval))
	v.positive("websocket.pong_timeout", int64(ws.PongTimeout))
	if ws.PongTimeout > 0 && ws.PingInterval >= ws.PongTimeout {
		v.fail(errors.New("websocket.ping_interval must be shorter than websocket.pong_timeout"))
	}

	if c.RateLimit.Enabled {
		v.positive("ratelimit.requests", int64(c.RateLimit.Requests))
		v.positive("ratelimit.window", int64(c.RateLimit.Window))
	}

	v.notNegative("tasks.history_limit", int64(c.Tasks.HistoryLimit))

	return v.err()
}

func (c *Config) validateAuth(v *validator) {
	switch {
	case c.Auth.JWTSecret == "":
		v.require("auth.jwt_secret", "")
	case len(c.Auth.JWTSecret) < 16:
		v.fail(ErrInsecureJWTSecret)
	}
	v.positive("auth.access_token_ttl", int64(c.Auth.AccessTokenTTL))
	v.positive("auth.refresh_token_ttl", int64(c.Auth.RefreshTokenTTL))

	// zero means bcrypt.DefaultCost
	if cost := c.Auth.BcryptCost; cost != 0 && (cost < 4 || cost > 31) {
		v.fail(fmt.Errorf("auth.bcrypt_cost must be between 4 and 31, got %d", cost))
	}
	if c.Auth.ProvisionExternalUsers && c.Auth.JWKSURL == "" {
		v.fail(errors.New("auth.provision_external_users requires auth.jwks_url"))
	}
}

// validator collects failures keyed by their yaml path.
type validator struct {
	errs []error
}

func (v *validator) fail(err error) {
	v.errs = append(v.errs, err)
}

func (v *validator) require(key, value string) {
	if value == "" {
		v.fail(fmt.Errorf("%s is required", key))
	}
}

func (v *validator) positive(key string, n int64) {
	if n <= 0 {
		v.fail(fmt.Errorf("%s must be positive", key))
	}
}

func (v *validator) notNegative(key string, n int64) {
	if n < 0 {
		v.fail(fmt.Errorf("%s must not be negative", key))
	}
}

func (v *validator) err() error {
	if len(v.errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrConfigInvalid, errors.Join(v.errs...))
}

package config

import (
	"fmt"
	"strings"
)

// Validate performs business-rule validation on the loaded configuration.
// It must be called after loading; Load calls it automatically.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be in 1..65535 (got %d)", c.Server.Port)
	}
	if c.Server.MaxBodyBytes <= 0 {
		return fmt.Errorf("server.max_body_bytes must be > 0 (got %d)", c.Server.MaxBodyBytes)
	}

	if c.Database.DSN == "" && c.Database.RequireDurable {
		return fmt.Errorf("database.dsn is required when database.require_durable is set")
	}
	if c.Database.MaxConns <= 0 {
		return fmt.Errorf("database.max_conns must be > 0 (got %d)", c.Database.MaxConns)
	}
	if c.Database.MinConns < 0 || c.Database.MinConns > c.Database.MaxConns {
		return fmt.Errorf("database.min_conns must be in 0..max_conns (got %d)", c.Database.MinConns)
	}

	if err := c.Auth.validate(); err != nil {
		return fmt.Errorf("auth: %w", err)
	}

	if err := c.Sync.validate(); err != nil {
		return fmt.Errorf("sync: %w", err)
	}

	switch strings.ToLower(c.Log.Format) {
	case "json", "text":
	default:
		return fmt.Errorf("log.format must be json or text (got %q)", c.Log.Format)
	}

	if c.RateLimit.RequestsPerMinute < 0 {
		return fmt.Errorf("ratelimit.requests_per_minute must be >= 0 (got %d)", c.RateLimit.RequestsPerMinute)
	}

	return nil
}

func (a *AuthConfig) validate() error {
	if a.JWTSecret == "" {
		if a.RequireToken {
			return fmt.Errorf("require_token needs jwt_secret")
		}
		return nil
	}
	if len(a.JWTSecret) < 32 {
		return fmt.Errorf("jwt_secret must be at least 32 characters (got %d)", len(a.JWTSecret))
	}
	if a.AccessTokenTTL <= 0 {
		return fmt.Errorf("access_token_ttl must be > 0 (got %v)", a.AccessTokenTTL)
	}
	return nil
}

func (s *SyncConfig) validate() error {
	if s.MaxItemsPerCollection <= 0 {
		return fmt.Errorf("max_items_per_collection must be > 0 (got %d)", s.MaxItemsPerCollection)
	}
	// 9 bind parameters per review row; Postgres caps a statement at 65535.
	if s.InsertChunkSize <= 0 || s.InsertChunkSize > 7000 {
		return fmt.Errorf("insert_chunk_size must be in 1..7000 (got %d)", s.InsertChunkSize)
	}
	if s.RequestTimeout <= 0 {
		return fmt.Errorf("request_timeout must be > 0 (got %v)", s.RequestTimeout)
	}
	return nil
}

package config

import "fmt"

const minSecretLen = 32

// Validate reports the first configuration problem that would make the
// service unusable. main treats any error as fatal.
func (c Config) Validate() error {
	if len(c.JWTSecret) < minSecretLen {
		return fmt.Errorf("JWT_SECRET must be at least %d bytes, got %d", minSecretLen, len(c.JWTSecret))
	}
	switch c.DBDriver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is empty")
	}
	switch c.LedgerBackend {
	case "db", "redis":
	default:
		return fmt.Errorf("unsupported LEDGER_BACKEND %q", c.LedgerBackend)
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("TOKEN_TTL must be positive")
	}
	return nil
}

package app

import "github.com/linisbayan/linisbayan/internal/database"

// DatabaseSettings converts DatabaseConfig to the database package representation.
// Host based drivers take their parameters from the matching enabled section.
func (c DatabaseConfig) DatabaseSettings() database.Config {
	cfg := database.Config{
		Driver: c.Driver,
		Path:   c.Path,
		DSN:    c.DSN,
	}

	var auth DBAuthConfig
	switch c.Driver {
	case "postgres", "postgresql":
		auth = c.Postgres
	case "mysql":
		auth = c.MySQL
	default:
		return cfg
	}

	cfg.Host = auth.Host
	cfg.Port = auth.Port
	cfg.User = auth.Username
	cfg.Password = auth.Password
	cfg.Name = auth.Database
	return cfg
}

package config

import (
	"context"
	"net"
	"net/url"

	"github.com/sethvargo/go-envconfig"
)

type PostgresConfig struct {
	Host     string `env:"POSTGRES_HOST, required"`
	Port     string `env:"POSTGRES_PORT, default=5432"`
	Username string `env:"POSTGRES_USERNAME, required"`
	Password string `env:"POSTGRES_PASSWORD, required"`
	Database string `env:"POSTGRES_DATABASE, default=chime"`
	SSLMode  string `env:"POSTGRES_SSLMODE, default=disable"`
}

func NewPostgresConfigFromEnv() (*PostgresConfig, error) {
	var cfg PostgresConfig
	if err := envconfig.Process(context.Background(), &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// DSN renders the pgx connection URL. Credentials go through url.URL so
// passwords with reserved characters survive intact.
func (c *PostgresConfig) DSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.Username, c.Password),
		Host:     net.JoinHostPort(c.Host, c.Port),
		Path:     c.Database,
		RawQuery: url.Values{"sslmode": {c.SSLMode}}.Encode(),
	}
	return u.String()
}

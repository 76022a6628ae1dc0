package postgres

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
)

type Config struct {
	Username string
	Password string
	Host     string
	Port     int
	Database string
	SslMode  string
}

// ToDBConnectionURI returns a connection URI to be used with the pgx package.
func (c Config) ToDBConnectionURI() string {
	return fmt.Sprintf("postgres://%s@%s/%s?sslmode=%s",
		url.UserPassword(c.Username, c.Password).String(),
		net.JoinHostPort(c.Host, strconv.Itoa(c.Port)),
		url.PathEscape(c.Database),
		c.SslMode,
	)
}

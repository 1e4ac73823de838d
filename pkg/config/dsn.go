package config

import (
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
)

// PostgresURL is a decomposed postgres:// connection URL. Deployment
// platforms hand the service a single DATABASE_URL; lib/pq wants
// key=value pairs, so this type bridges the two.
type PostgresURL struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
	Params   map[string]string
}

// ParsePostgresURL decomposes a postgres:// or postgresql:// URL.
// A missing port defaults to 5432 and a missing sslmode to disable.
func ParsePostgresURL(raw string) (*PostgresURL, error) {
	if raw == "" {
		return nil, fmt.Errorf("database URL is empty")
	}

	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("malformed database URL: %w", err)
	}

	switch u.Scheme {
	case "postgres", "postgresql":
	default:
		return nil, fmt.Errorf("unsupported database URL scheme %q", u.Scheme)
	}

	pu := &PostgresURL{
		Host:     u.Hostname(),
		Port:     5432,
		Database: strings.TrimPrefix(u.Path, "/"),
		SSLMode:  "disable",
		Params:   map[string]string{},
	}

	if p := u.Port(); p != "" {
		pu.Port, err = strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("malformed port in database URL: %w", err)
		}
	}

	if u.User != nil {
		pu.User = u.User.Username()
		pu.Password, _ = u.User.Password()
	}

	for key, values := range u.Query() {
		if len(values) == 0 {
			continue
		}
		if key == "sslmode" {
			pu.SSLMode = values[0]
			continue
		}
		pu.Params[key] = values[0]
	}

	return pu, nil
}

// DSN renders the URL as a libpq key=value connection string.
// Extra params are appended in sorted order so the output is stable.
func (u *PostgresURL) DSN() string {
	parts := []string{
		"host=" + u.Host,
		"port=" + strconv.Itoa(u.Port),
		"user=" + u.User,
		"password=" + u.Password,
		"dbname=" + u.Database,
		"sslmode=" + u.SSLMode,
	}

	keys := make([]string, 0, len(u.Params))
	for key := range u.Params {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		parts = append(parts, key+"="+u.Params[key])
	}

	return strings.Join(parts, " ")
}

// String reassembles the components into a postgres:// URL, escaping the
// password so credentials with special characters survive the round trip.
func (u *PostgresURL) String() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		u.User, url.QueryEscape(u.Password), u.Host, u.Port, u.Database, u.SSLMode)
}

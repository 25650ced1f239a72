package netgate

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// ErrPostgresHostDenied is returned when a host is not present in the
// parallel Postgres allow-list (spec.md §4.7 "Postgres access is a
// parallel allow-list").
var ErrPostgresHostDenied = errors.New("postgres host not allowed")

// PostgresOverride is a configured entry that overrides any user-supplied
// credentials before dialling, so the guest never sees the real password.
type PostgresOverride struct {
	Host     string
	Port     int
	Database string
	Username string
	Password string
	SSL      bool
}

// PostgresGate holds the allow-listed hosts. A bare string entry passes
// user-supplied credentials through; a PostgresOverride entry replaces
// them.
type PostgresGate struct {
	bare      map[string]bool
	overrides map[string]PostgresOverride
}

// NewPostgresGate builds a gate from a mixed slice of bare hostnames and
// PostgresOverride records.
func NewPostgresGate(entries []interface{}) (*PostgresGate, error) {
	g := &PostgresGate{bare: map[string]bool{}, overrides: map[string]PostgresOverride{}}
	for _, e := range entries {
		switch v := e.(type) {
		case string:
			g.bare[v] = true
		case PostgresOverride:
			g.overrides[v.Host] = v
		default:
			return nil, fmt.Errorf("invalid allowed_postgres_hosts entry: %T", e)
		}
	}
	return g, nil
}

// Resolve checks host against the allow-list and returns the connection
// string to actually dial: either the caller-supplied one (bare match) or
// one rebuilt from the configured override (host/port/db/user/pass
// substituted server-side).
func (g *PostgresGate) Resolve(host string, userConnString string) (string, error) {
	if ov, ok := g.overrides[host]; ok {
		sslmode := "disable"
		if ov.SSL {
			sslmode = "require"
		}
		return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
			ov.Username, ov.Password, ov.Host, ov.Port, ov.Database, sslmode), nil
	}
	if g.bare[host] {
		return userConnString, nil
	}
	return "", ErrPostgresHostDenied
}

// Dial resolves the host allow-list then opens a pgx connection. Callers
// that only want the allow-list decision (e.g. dry-run utilities) should
// call Resolve directly instead.
func Dial(ctx context.Context, gate *PostgresGate, host, userConnString string) (*pgx.Conn, error) {
	connString, err := gate.Resolve(host, userConnString)
	if err != nil {
		return nil, err
	}
	return pgx.Connect(ctx, connString)
}

package repositories

import (
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
)

// Dialect selects the SQL flavour of the backing database.
type Dialect string

const (
	SQLite   Dialect = "sqlite"
	Postgres Dialect = "pgx"
)

func ParseDialect(driver string) (Dialect, error) {
	switch Dialect(driver) {
	case SQLite, Postgres:
		return Dialect(driver), nil
	default:
		return "", errors.Newf("unsupported sql dialect %q", driver)
	}
}

// Rebind rewrites ? placeholders into the dialect's form. Queries are written
// with ? and must not carry a literal ? elsewhere.
func (d Dialect) Rebind(query string) string {
	if d != Postgres {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (d Dialect) autoID() string {
	if d == Postgres {
		return "BIGSERIAL PRIMARY KEY"
	}
	return "INTEGER PRIMARY KEY AUTOINCREMENT"
}

package command

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"unicode"

	"github.com/atinyakov/memberctl/internal/sqlbatch"
	"go.uber.org/zap"
)

// install applies the membership schema to the database named by
// connName on a single pinned connection.
func (c *UserCommand) install(ctx context.Context, out *strings.Builder, connName string) error {
	if c.conns == nil || c.connect == nil {
		return fmt.Errorf("schema install is not available")
	}
	dsn, err := c.conns.ConnectionString(connName)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Using connection string: %s\n", redactDSN(dsn))

	db, err := c.connect(dsn)
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			c.log.Warn("failed to close database", zap.Error(err))
		}
	}()

	conn, err := db.Conn(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err := conn.Close(); err != nil {
			c.log.Warn("failed to release connection", zap.Error(err))
		}
	}()

	out.WriteString("Executing query...\n")
	if err := sqlbatch.ExecuteBatchNonQuery(ctx, conn, c.schema); err != nil {
		return err
	}
	out.WriteString("Success.\n")

	c.log.Info("membership schema applied", zap.String("connection", connName))
	out.WriteString("SQL Membership Schema has been successfully applied.\n\n")
	return nil
}

const redacted = "xxxxx"

// redactDSN masks the password of URL and key=value connection strings.
func redactDSN(dsn string) string {
	if u, err := url.Parse(dsn); err == nil && (u.Scheme == "postgres" || u.Scheme == "postgresql") {
		q := u.Query()
		if q.Has("password") {
			q.Set("password", redacted)
			u.RawQuery = q.Encode()
		}
		return u.Redacted()
	}
	return redactKeyValueDSN(dsn)
}

// redactKeyValueDSN rewrites a libpq key=value string as space-separated
// key=value pairs with the password value replaced. Values may be
// single-quoted with backslash escapes, and whitespace around '=' is allowed.
func redactKeyValueDSN(dsn string) string {
	var pairs []string
	rest := dsn
	for {
		rest = strings.TrimLeftFunc(rest, unicode.IsSpace)
		if rest == "" {
			break
		}
		eq := strings.IndexByte(rest, '=')
		if eq < 0 {
			pairs = append(pairs, rest)
			break
		}
		key := strings.TrimSpace(rest[:eq])
		var value string
		value, rest = scanDSNValue(strings.TrimLeftFunc(rest[eq+1:], unicode.IsSpace))
		if strings.EqualFold(key, "password") {
			value = redacted
		}
		pairs = append(pairs, key+"="+value)
	}
	return strings.Join(pairs, " ")
}

// scanDSNValue splits s after its leading value, keeping quotes and escapes
// as written.
func scanDSNValue(s string) (value, rest string) {
	quoted := strings.HasPrefix(s, "'")
	i := 0
	if quoted {
		i = 1
	}
	for i < len(s) {
		switch c := s[i]; {
		case c == '\\':
			i += 2
			continue
		case quoted && c == '\'':
			return s[:i+1], s[i+1:]
		case !quoted && unicode.IsSpace(rune(c)):
			return s[:i], s[i:]
		}
		i++
	}
	return s, ""
}

package app

import (
	"net/url"
	"strings"
)

// DSNOptions are the lib/pq connection parameters the sync job and the
// migrator both add to DB_URL.
type DSNOptions struct {
	// ApplicationName shows up in pg_stat_activity unless the URL sets its own.
	ApplicationName string
	// DisablePreparedBinary keeps prepared statements usable behind
	// transaction-mode poolers such as PgBouncer.
	DisablePreparedBinary bool
}

// PostgresDSN adds opts to a postgres:// URL. Parameters already present in
// the URL win. Keyword/value DSNs are returned unchanged.
func PostgresDSN(raw string, opts DSNOptions) string {
	raw = strings.TrimSpace(raw)
	parsed, err := url.Parse(raw)
	if err != nil || (parsed.Scheme != "postgres" && parsed.Scheme != "postgresql") {
		return raw
	}

	query := parsed.Query()
	setDefault := func(key, value string) {
		if value != "" && query.Get(key) == "" {
			query.Set(key, value)
		}
	}
	setDefault("fallback_application_name", strings.TrimSpace(opts.ApplicationName))
	if opts.DisablePreparedBinary {
		setDefault("disable_prepared_binary_result", "yes")
	}
	parsed.RawQuery = query.Encode()
	return parsed.String()
}

// dbNameFromDSN reads the database name from either DSN form for span
// attributes.
func dbNameFromDSN(dsn string) string {
	dsn = strings.TrimSpace(dsn)
	if parsed, err := url.Parse(dsn); err == nil && parsed.Scheme != "" {
		return strings.TrimPrefix(parsed.Path, "/")
	}
	for _, field := range strings.Fields(dsn) {
		if name, ok := strings.CutPrefix(field, "dbname="); ok {
			return strings.Trim(name, `"'`)
		}
	}
	return ""
}

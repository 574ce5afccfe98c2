package history

import (
	"database/sql"
	"fmt"
	"net/url"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql" // MySQL driver
	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver (pgx)
	_ "github.com/mattn/go-sqlite3"    // SQLite driver
)

// Driver names registered by the imported database/sql drivers.
const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "pgx"
	DriverMySQL    = "mysql"
)

// Connector opens history databases.
type Connector struct {
	poolSettings PoolSettings
}

// PoolSettings defines database connection pool configuration
type PoolSettings struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// NewConnector creates a connector with default pool settings
func NewConnector() *Connector {
	return &Connector{
		poolSettings: PoolSettings{
			MaxOpenConns:    4,
			MaxIdleConns:    4,
			ConnMaxLifetime: 5 * time.Minute,
		},
	}
}

// SetPoolSettings configures connection pool settings
func (c *Connector) SetPoolSettings(settings PoolSettings) {
	c.poolSettings = settings
}

// NormalizeDriver maps driver aliases to the registered driver name.
func NormalizeDriver(driver string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "sqlite", "sqlite3":
		return DriverSQLite, nil
	case "postgres", "postgresql", "pg", "pgx":
		return DriverPostgres, nil
	case "mysql":
		return DriverMySQL, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedDatabase, driver)
	}
}

// ParseDatabaseURL converts a postgres://, mysql:// or sqlite:// URL into a
// driver name and a driver specific connection string.
func (c *Connector) ParseDatabaseURL(databaseURL string) (driver, dsn string, err error) {
	if databaseURL == "" {
		return "", "", ErrEmptyDatabaseURL
	}

	u, err := url.Parse(databaseURL)
	if err != nil {
		return "", "", fmt.Errorf("%w: %w", ErrInvalidDatabaseURL, err)
	}

	driver, err = NormalizeDriver(u.Scheme)
	if err != nil {
		return "", "", err
	}

	switch driver {
	case DriverPostgres:
		if u.Host == "" || strings.TrimPrefix(u.Path, "/") == "" {
			return "", "", fmt.Errorf("%w: %s needs a host and a database", ErrInvalidDatabaseURL, u.Redacted())
		}

		u.Scheme = "postgres"
		if u.Query().Get("sslmode") == "" {
			query := u.Query()
			query.Set("sslmode", "disable")
			u.RawQuery = query.Encode()
		}

		return driver, u.String(), nil
	case DriverMySQL:
		if u.Host == "" || strings.TrimPrefix(u.Path, "/") == "" {
			return "", "", fmt.Errorf("%w: %s needs a host and a database", ErrInvalidDatabaseURL, u.Redacted())
		}

		var b strings.Builder

		if u.User != nil {
			b.WriteString(u.User.Username())

			if password, ok := u.User.Password(); ok {
				b.WriteString(":" + password)
			}

			b.WriteString("@")
		}

		b.WriteString("tcp(" + u.Host + ")")
		b.WriteString(u.Path)

		if u.RawQuery != "" {
			b.WriteString("?" + u.RawQuery)
		}

		return driver, b.String(), nil
	default:
		// sqlite:///abs/path.db or sqlite://./relative.db
		path := u.Host + u.Path
		if path == "" {
			return "", "", fmt.Errorf("%w: %s needs a file path", ErrInvalidDatabaseURL, databaseURL)
		}

		return driver, path, nil
	}
}

// Open connects to a database. An empty driver means connection is a URL.
func (c *Connector) Open(driver, connection string) (*sql.DB, string, error) {
	var (
		dsn string
		err error
	)

	if driver == "" {
		driver, dsn, err = c.ParseDatabaseURL(connection)
	} else {
		driver, err = NormalizeDriver(driver)
		dsn = connection
	}

	if err != nil {
		return nil, "", err
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}

	db.SetMaxOpenConns(c.poolSettings.MaxOpenConns)
	db.SetMaxIdleConns(c.poolSettings.MaxIdleConns)
	db.SetConnMaxLifetime(c.poolSettings.ConnMaxLifetime)

	// Every sqlite connection to ":memory:" is a separate database.
	if driver == DriverSQLite {
		db.SetMaxOpenConns(1)
	}

	return db, driver, nil
}

package history

import "errors"

// Connection errors
var (
	ErrConnectionFailed    = errors.New("failed to connect to database")
	ErrEmptyDatabaseURL    = errors.New("database URL cannot be empty")
	ErrInvalidDatabaseURL  = errors.New("invalid database URL")
	ErrUnsupportedDatabase = errors.New("unsupported database type")
)

// Storage errors
var (
	ErrMigrationFailed = errors.New("history migration failed")
	ErrSaveFailed      = errors.New("failed to save run")
	ErrQueryFailed     = errors.New("failed to query history")
	ErrRunNotFound     = errors.New("run not found")
)

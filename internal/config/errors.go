package config

import "errors"

var (
	// ErrNoSeedFile is returned when no seed file is provided
	ErrNoSeedFile = errors.New("seed_file cannot be empty")
	// ErrEmptyDatabasePath is returned when the database path is empty
	ErrEmptyDatabasePath = errors.New("database_path cannot be empty")
	// ErrEmptyArchivePrefix is returned when the archive lookup prefix is empty
	ErrEmptyArchivePrefix = errors.New("archive_prefix cannot be empty")
	// ErrInvalidTimeout is returned when the fetch timeout is not greater than 0
	ErrInvalidTimeout = errors.New("fetch_timeout must be greater than 0")
	// ErrInvalidRetryAttempts is returned when retry attempts is not greater than 0
	ErrInvalidRetryAttempts = errors.New("retry_attempts must be greater than 0")
	// ErrInvalidMaxPages is returned when the page cap is not greater than 0
	ErrInvalidMaxPages = errors.New("max_pages must be greater than 0")
)

package doku

import "errors"

// File layout.
const (
	// FilePrefix and FileSuffix wrap the sanitized context key on disk.
	FilePrefix = "doku_"
	FileSuffix = ".json"

	// DefaultContext is the reserved key used for blank identifiers.
	DefaultContext = "default"

	filePerms = 0o644
	dirPerms  = 0o755
)

// Error variables for store and editor operations.
var (
	ErrConfigFileNotFound = errors.New("config file not found")
	ErrConfigFileRead     = errors.New("cannot read config file")
	ErrConfigInvalid      = errors.New("invalid config file")
	ErrDataDirEmpty       = errors.New("data-dir cannot be empty")
	ErrListenEmpty        = errors.New("listen address cannot be empty")
	ErrInvalidLogLevel    = errors.New("invalid log_level (must be debug|info|warn|error)")

	ErrIO                  = errors.New("storage i/o failed")
	ErrCorrupt             = errors.New("document is not valid JSON")
	ErrNotObject           = errors.New("document must be a JSON object")
	ErrInvalidDocument     = errors.New("invalid document")
	ErrContextExists       = errors.New("context already exists")
	ErrInvalidContextID    = errors.New("context id must contain letters or digits")
	ErrTagNotFound         = errors.New("tag not found")
	ErrTagExists           = errors.New("tag already exists")
	ErrTagNameRequired     = errors.New("tag name is required")
	ErrUnknownCategory     = errors.New("unknown category")
	ErrInvalidImport       = errors.New("invalid import payload")
	ErrContextNameRequired = errors.New("context name is required")
	ErrUnreadable          = errors.New("stored document is unreadable, not modifying it")
)

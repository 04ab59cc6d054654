package cli

import "errors"

// Usage errors.
var (
	ErrNoCommand      = errors.New("no command provided")
	ErrUnknownCommand = errors.New("unknown command")
	ErrMissingArgs    = errors.New("missing arguments")
	ErrTooManyArgs    = errors.New("too many arguments")
	ErrUnknownSyncOp  = errors.New("unknown sync operation (must be status|pull|push)")
	ErrSyncFailed     = errors.New("sync command failed")
	ErrShellUsage     = errors.New("usage")
)

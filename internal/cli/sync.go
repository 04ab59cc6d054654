package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/oliverschmidt99/daily-doc-app/internal/vcs"

	flag "github.com/spf13/pflag"
)

// SyncCmd returns the sync command.
func SyncCmd(a *app) *Command {
	return &Command{
		Flags: flag.NewFlagSet("sync", flag.ContinueOnError),
		Usage: "sync <status|pull|push>",
		Group: GroupOther,
		Short: "Run the configured version-control commands",
		Long: "Run the sync commands from the config in the data directory.\n" +
			"Commands run in order and stop at the first failure.",
		Examples: []string{"sync pull", "sync push"},
		Exec: func(ctx context.Context, io *IO, args []string) error {
			err := checkArgs(args, 1, 1, "<status|pull|push>")
			if err != nil {
				return err
			}

			return execSync(ctx, io, a, args[0])
		},
	}
}

func execSync(ctx context.Context, io *IO, a *app, op string) error {
	var run func(context.Context) vcs.Result

	switch op {
	case "status":
		run = a.syncer.Status
	case "pull":
		run = a.syncer.Pull
	case "push":
		run = a.syncer.Push
	default:
		return fmt.Errorf("%w: %s", ErrUnknownSyncOp, op)
	}

	err := a.fs.MkdirAll(a.store.Dir(), 0o755)
	if err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}

	res := run(ctx)

	if out := strings.TrimRight(res.Output, "\n"); out != "" {
		io.Println(out)
	}

	if !res.Succeeded {
		return fmt.Errorf("%w: %s", ErrSyncFailed, op)
	}

	return nil
}

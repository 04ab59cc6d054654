package cli

import (
	"context"
	"fmt"

	"github.com/oliverschmidt99/daily-doc-app/internal/server"

	flag "github.com/spf13/pflag"
)

// ServeCmd returns the serve command.
func ServeCmd(a *app) *Command {
	flags := flag.NewFlagSet("serve", flag.ContinueOnError)
	listen := flags.String("listen", "", "Listen `address` (default from config)")

	return &Command{
		Flags: flags,
		Usage: "serve [--listen <addr>]",
		Group: GroupInteractive,
		Short: "Serve the web UI and JSON API",
		Long:  "Serve the documentation pages and the load/save API until interrupted.",
		Exec: func(ctx context.Context, io *IO, _ []string) error {
			return execServe(ctx, io, a, *listen)
		},
	}
}

func execServe(ctx context.Context, io *IO, a *app, listen string) error {
	if listen == "" {
		listen = a.cfg.Listen
	}

	srv, err := server.New(server.Options{
		Listen:  listen,
		Service: a.svc,
		Syncer:  a.syncer,
		Logger:  a.log.Named("http"),
	})
	if err != nil {
		return err
	}

	serveErr := make(chan error, 1)

	err = srv.Start(func(err error) { serveErr <- err })
	if err != nil {
		return err
	}

	io.Println("listening on http://" + srv.Addr())

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		return fmt.Errorf("serve: %w", err)
	}

	return srv.Shutdown(context.Background())
}

package cli

import (
	"context"
	"strings"

	"github.com/oliverschmidt99/daily-doc-app/internal/doku"

	flag "github.com/spf13/pflag"
)

// PrintConfigCmd returns the print-config command.
func PrintConfigCmd(a *app) *Command {
	flags := flag.NewFlagSet("print-config", flag.ContinueOnError)
	asJSON := flags.Bool("json", false, "Print the config file form as JSON")

	return &Command{
		Flags: flags,
		Usage: "print-config [--json]",
		Short: "Show resolved configuration",
		Long:  "Display the effective configuration and which files it was loaded from.",
		Exec: func(_ context.Context, io *IO, _ []string) error {
			return execPrintConfig(io, a.cfg, *asJSON)
		},
	}
}

func execPrintConfig(io *IO, cfg doku.Config, asJSON bool) error {
	if asJSON {
		formatted, err := doku.FormatConfig(cfg)
		if err != nil {
			return err
		}

		io.Println(formatted)

		return nil
	}

	io.Println("effective_cwd=" + cfg.EffectiveCwd)
	io.Println("data_dir=" + cfg.DataDirAbs)
	io.Println("listen=" + cfg.Listen)
	io.Println("log_level=" + cfg.LogLevel)
	io.Println("sync.status=" + strings.Join(cfg.Sync.Status, "; "))
	io.Println("sync.pull=" + strings.Join(cfg.Sync.Pull, "; "))
	io.Println("sync.push=" + strings.Join(cfg.Sync.Push, "; "))

	io.Println("")
	io.Println("# sources")

	if cfg.Sources.Global == "" && cfg.Sources.Project == "" {
		io.Println("(defaults only)")
	} else {
		if cfg.Sources.Global != "" {
			io.Println("global_config=" + cfg.Sources.Global)
		}

		if cfg.Sources.Project != "" {
			io.Println("project_config=" + cfg.Sources.Project)
		}
	}

	return nil
}

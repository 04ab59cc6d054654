package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/oliverschmidt99/daily-doc-app/internal/doku"

	flag "github.com/spf13/pflag"
)

// Run is the main entry point. Returns exit code.
// sigCh may be nil; when it fires, the running command's context is
// cancelled (serve shuts down gracefully).
func Run(stdin io.Reader, out io.Writer, errOut io.Writer, args []string, env map[string]string, sigCh <-chan os.Signal) int {
	globals := flag.NewFlagSet("doku", flag.ContinueOnError)
	globals.SetInterspersed(false)
	globals.SetOutput(&strings.Builder{})

	flagHelp := globals.BoolP("help", "h", false, "Show help")
	flagCwd := globals.StringP("cwd", "C", "", "Run as if started in `dir`")
	flagConfig := globals.StringP("config", "c", "", "Use specified config `file`")
	flagDataDir := globals.String("data-dir", "", "Override data `directory`")
	flagVerbose := globals.BoolP("verbose", "v", false, "Log debug output to stderr")

	if len(args) < 2 {
		printUsage(out, globals, nil)

		return 0
	}

	err := globals.Parse(args[1:])
	if err != nil {
		fprintln(errOut, "error:", err)
		printUsage(errOut, globals, nil)

		return 1
	}

	if *flagHelp {
		printUsage(out, globals, nil)

		return 0
	}

	rest := globals.Args()
	if len(rest) == 0 {
		fprintln(errOut, "error:", ErrNoCommand)
		printUsage(errOut, globals, nil)

		return 1
	}

	if globals.Changed("data-dir") && *flagDataDir == "" {
		fprintln(errOut, "error:", doku.ErrDataDirEmpty)
		printUsage(errOut, globals, nil)

		return 1
	}

	cfg, err := doku.LoadConfig(doku.LoadConfigInput{
		WorkDirOverride: *flagCwd,
		ConfigPath:      *flagConfig,
		DataDirOverride: *flagDataDir,
		Env:             env,
	})
	if err != nil {
		fprintln(errOut, "error:", err)

		return 1
	}

	name := rest[0]

	a, err := newApp(cfg, stdin, errOut, logLevel(cfg, name, *flagVerbose))
	if err != nil {
		fprintln(errOut, "error:", err)

		return 1
	}
	defer a.close()

	commands := allCommands(a)

	cmd := findCommand(commands, name)
	if cmd == nil {
		fprintln(errOut, "error:", fmt.Errorf("%w: %s", ErrUnknownCommand, name))
		printUsage(errOut, globals, commands)

		return 1
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if sigCh != nil {
		go func() {
			select {
			case <-sigCh:
				cancel()
			case <-ctx.Done():
			}
		}()
	}

	o := NewIO(out, errOut)
	code := cmd.Run(ctx, o, rest[1:])
	finish := o.Finish()

	if code != 0 {
		return code
	}

	return finish
}

// logLevel picks the effective log level. Only serve logs informational
// messages; one-shot commands stay quiet unless --verbose is set.
func logLevel(cfg doku.Config, command string, verbose bool) string {
	switch {
	case verbose:
		return "debug"
	case command == "serve":
		return cfg.LogLevel
	case cfg.LogLevel == "error":
		return "error"
	default:
		return "warn"
	}
}

func allCommands(a *app) []*Command {
	return []*Command{
		ServeCmd(a),
		ContextsCmd(a),
		CreateCmd(a),
		ShowCmd(a),
		RenameCmd(a),
		ImportCmd(a),
		TagRenameCmd(a),
		TagDeleteCmd(a),
		SyncCmd(a),
		ShellCmd(a),
		PrintConfigCmd(a),
	}
}

func findCommand(commands []*Command, name string) *Command {
	for _, c := range commands {
		if c.Name() == name {
			return c
		}
	}

	return nil
}

func fprintln(w io.Writer, a ...any) {
	_, _ = fmt.Fprintln(w, a...)
}

func printUsage(w io.Writer, globals *flag.FlagSet, commands []*Command) {
	if commands == nil {
		commands = allCommands(nil)
	}

	fprintln(w, `doku - daily documentation store

Usage: doku [flags] <command> [args]

Global flags:`)

	var buf strings.Builder

	globals.SetOutput(&buf)
	globals.PrintDefaults()
	globals.SetOutput(&strings.Builder{})

	_, _ = io.WriteString(w, buf.String())

	fprintln(w)
	fprintln(w, "Commands:")

	writeCommandList(w, commands)

	fprintln(w)
	fprintln(w, "Run 'doku <command> --help' for command flags.")
}

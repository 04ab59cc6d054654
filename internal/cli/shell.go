package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/oliverschmidt99/daily-doc-app/internal/doku"

	"github.com/mattn/go-shellwords"
	"github.com/peterh/liner"
	flag "github.com/spf13/pflag"
)

const shellHistoryFile = ".doku_history"

var shellCommands = []string{
	"contexts", "use", "show", "tags", "rename", "delete", "name", "sync", "help", "exit",
}

// ShellCmd returns the shell command.
func ShellCmd(a *app) *Command {
	return &Command{
		Flags: flag.NewFlagSet("shell", flag.ContinueOnError),
		Usage: "shell [context]",
		Group: GroupInteractive,
		Short: "Interactive prompt for one context",
		Long: "Start an interactive prompt working on a context (default: default).\n" +
			"Type 'help' at the prompt for the available commands.",
		Exec: func(ctx context.Context, io *IO, args []string) error {
			err := checkArgs(args, 0, 1, "[context]")
			if err != nil {
				return err
			}

			id := doku.DefaultContext
			if len(args) == 1 {
				id = args[0]
			}

			sh := &shell{app: a, io: io, context: doku.ResolveContextKey(id)}

			lines := sh.newLineReader(a.stdin)
			defer lines.Close()

			return sh.loop(ctx, lines)
		},
	}
}

// lineReader yields one input line per prompt.
type lineReader interface {
	Prompt(prompt string) (string, error)
	AppendHistory(line string)
	Close() error
}

type shell struct {
	app     *app
	io      *IO
	context string
}

// newLineReader uses liner for the process's own stdin and a plain
// line scanner for anything else.
func (sh *shell) newLineReader(stdin io.Reader) lineReader {
	if f, ok := stdin.(*os.File); ok && f == os.Stdin {
		return newLinerReader(sh.complete)
	}

	if stdin == nil {
		stdin = strings.NewReader("")
	}

	return &scanReader{scanner: bufio.NewScanner(stdin)}
}

func (sh *shell) loop(ctx context.Context, lines lineReader) error {
	for {
		if ctx.Err() != nil {
			return nil
		}

		line, err := lines.Prompt("doku:" + sh.context + "> ")
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
				return nil
			}

			return fmt.Errorf("reading input: %w", err)
		}

		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		lines.AppendHistory(line)

		words, err := shellwords.Parse(line)
		if err != nil {
			sh.io.ErrPrintln("error:", err)

			continue
		}

		if len(words) == 0 {
			continue
		}

		quit, err := sh.exec(ctx, strings.ToLower(words[0]), words[1:])
		if err != nil {
			sh.io.ErrPrintln("error:", err)
		}

		if quit {
			return nil
		}
	}
}

func (sh *shell) exec(ctx context.Context, cmd string, args []string) (bool, error) {
	switch cmd {
	case "exit", "quit", "q":
		return true, nil

	case "help", "?":
		sh.printHelp()

	case "contexts", "ls":
		return false, sh.cmdContexts()

	case "use":
		return false, sh.cmdUse(args)

	case "show":
		return false, execShow(sh.io, sh.app, sh.context)

	case "tags":
		sh.cmdTags()

	case "rename":
		if len(args) < 2 || len(args) > 3 {
			return false, fmt.Errorf("%w: rename <old> <new> [category]", ErrShellUsage)
		}

		category := ""
		if len(args) == 3 {
			category = args[2]
		}

		err := sh.app.svc.EditTag(sh.context, args[0], args[1], category)
		if err != nil {
			return false, err
		}

		sh.io.Println("renamed tag", args[0], "->", args[1])

	case "delete":
		if len(args) != 1 {
			return false, fmt.Errorf("%w: delete <tag>", ErrShellUsage)
		}

		err := sh.app.svc.DeleteTag(sh.context, args[0])
		if err != nil {
			return false, err
		}

		sh.io.Println("deleted tag", args[0])

	case "name":
		err := sh.app.svc.Rename(sh.context, strings.Join(args, " "))
		if err != nil {
			return false, err
		}

		sh.io.Println("renamed context", sh.context)

	case "sync":
		if len(args) != 1 {
			return false, fmt.Errorf("%w: sync status|pull|push", ErrShellUsage)
		}

		return false, execSync(ctx, sh.io, sh.app, args[0])

	default:
		return false, fmt.Errorf("%w: %s (type 'help' for commands)", ErrUnknownCommand, cmd)
	}

	return false, nil
}

func (sh *shell) cmdContexts() error {
	contexts, err := sh.app.svc.ListContexts()
	if err != nil {
		return err
	}

	for _, c := range contexts {
		marker := " "
		if c.ID == sh.context {
			marker = "*"
		}

		sh.io.Printf("%s %s\t%s\n", marker, c.ID, c.Name)
	}

	return nil
}

func (sh *shell) cmdUse(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: use <context>", ErrShellUsage)
	}

	if !doku.HasContextKey(args[0]) {
		return fmt.Errorf("%w: %q", doku.ErrInvalidContextID, args[0])
	}

	sh.context = doku.ResolveContextKey(args[0])
	sh.io.Println("using", sh.context)

	return nil
}

func (sh *shell) cmdTags() {
	doc := sh.app.store.Load(sh.context)

	tags := make([]string, 0, len(doc.TagCategoryMap))
	for tag := range doc.TagCategoryMap {
		tags = append(tags, tag)
	}

	slices.Sort(tags)

	for _, tag := range tags {
		sh.io.Printf("%s\t%s\n", tag, doc.TagCategoryMap[tag])
	}
}

func (sh *shell) printHelp() {
	sh.io.Println(`Commands:
  contexts                      List contexts (* marks the current one)
  use <context>                 Switch to another context
  show                          Print the current document
  tags                          List tags with their category
  rename <old> <new> [category] Rename a tag everywhere
  delete <tag>                  Delete a tag everywhere
  name <display name>           Set the context's display name
  sync status|pull|push         Run the configured sync commands
  help                          Show this help
  exit                          Leave the shell`)
}

// complete offers command names, and context ids after "use".
func (sh *shell) complete(line string) []string {
	if rest, ok := strings.CutPrefix(line, "use "); ok {
		contexts, err := sh.app.svc.ListContexts()
		if err != nil {
			return nil
		}

		var out []string

		for _, c := range contexts {
			if strings.HasPrefix(c.ID, rest) {
				out = append(out, "use "+c.ID)
			}
		}

		return out
	}

	var out []string

	for _, c := range shellCommands {
		if strings.HasPrefix(c, strings.ToLower(line)) {
			out = append(out, c)
		}
	}

	return out
}

type linerReader struct {
	state *liner.State
}

func newLinerReader(completer func(string) []string) *linerReader {
	state := liner.NewLiner()
	state.SetCtrlCAborts(true)
	state.SetCompleter(completer)

	if f, err := os.Open(historyPath()); err == nil {
		_, _ = state.ReadHistory(f)
		_ = f.Close()
	}

	return &linerReader{state: state}
}

func (r *linerReader) Prompt(prompt string) (string, error) {
	return r.state.Prompt(prompt)
}

func (r *linerReader) AppendHistory(line string) {
	r.state.AppendHistory(line)
}

func (r *linerReader) Close() error {
	if path := historyPath(); path != "" {
		if f, err := os.Create(path); err == nil {
			_, _ = r.state.WriteHistory(f)
			_ = f.Close()
		}
	}

	return r.state.Close()
}

func historyPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	return filepath.Join(home, shellHistoryFile)
}

// scanReader reads lines from a non-interactive reader without echoing
// prompts.
type scanReader struct {
	scanner *bufio.Scanner
}

func (r *scanReader) Prompt(string) (string, error) {
	if r.scanner.Scan() {
		return r.scanner.Text(), nil
	}

	if err := r.scanner.Err(); err != nil {
		return "", err
	}

	return "", io.EOF
}

func (r *scanReader) AppendHistory(string) {}

func (r *scanReader) Close() error { return nil }

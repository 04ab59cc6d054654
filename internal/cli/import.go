package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/oliverschmidt99/daily-doc-app/internal/doku"

	flag "github.com/spf13/pflag"
)

// ImportCmd returns the import command.
func ImportCmd(a *app) *Command {
	return &Command{
		Flags: flag.NewFlagSet("import", flag.ContinueOnError),
		Usage: "import <context> <file|->",
		Group: GroupContexts,
		Short: "Merge a JSON file into a context",
		Long: "Deep-merge a JSON object into a context. Nested objects are merged,\n" +
			"all other values replaced. The context's name is never changed.\n" +
			"Use - to read from stdin.",
		Examples: []string{
			"import work backup.json",
			"show home | doku import work -",
		},
		Exec: func(_ context.Context, o *IO, args []string) error {
			err := checkArgs(args, 2, 2, "<context> <file|->")
			if err != nil {
				return err
			}

			return execImport(o, a, args[0], args[1])
		},
	}
}

func execImport(o *IO, a *app, id, source string) error {
	var (
		raw []byte
		err error
	)

	if source == "-" {
		if a.stdin == nil {
			return fmt.Errorf("%w: no stdin", doku.ErrInvalidImport)
		}

		raw, err = io.ReadAll(a.stdin)
	} else {
		if !filepath.IsAbs(source) {
			source = filepath.Join(a.cfg.EffectiveCwd, source)
		}

		raw, err = os.ReadFile(source)
	}

	if err != nil {
		return fmt.Errorf("read import: %w", err)
	}

	err = a.svc.ImportDocument(id, raw)
	if err != nil {
		return err
	}

	o.Println("imported into", doku.ResolveContextKey(id))

	return nil
}

package cli

import (
	"context"

	flag "github.com/spf13/pflag"
)

// TagRenameCmd returns the tag-rename command.
func TagRenameCmd(a *app) *Command {
	flags := flag.NewFlagSet("tag-rename", flag.ContinueOnError)
	category := flags.String("category", "", "Move the tag to `category` (default: keep)")

	return &Command{
		Flags: flags,
		Usage: "tag-rename <context> <old> <new> [--category <c>]",
		Group: GroupTags,
		Short: "Rename a tag everywhere",
		Long: "Rename a tag in the tag map and in every todo and documentation entry.\n" +
			"Fails if the tag does not exist or the new name is taken.",
		Examples: []string{
			"tag-rename work urgent asap",
			"tag-rename work urgent asap --category Organisation",
		},
		Exec: func(_ context.Context, io *IO, args []string) error {
			err := checkArgs(args, 3, 3, "<context> <old> <new>")
			if err != nil {
				return err
			}

			err = a.svc.EditTag(args[0], args[1], args[2], *category)
			if err != nil {
				return err
			}

			io.Println("renamed tag", args[1], "->", args[2])

			return nil
		},
	}
}

// TagDeleteCmd returns the tag-delete command.
func TagDeleteCmd(a *app) *Command {
	return &Command{
		Flags: flag.NewFlagSet("tag-delete", flag.ContinueOnError),
		Usage: "tag-delete <context> <tag>",
		Group: GroupTags,
		Short: "Delete a tag everywhere",
		Long:  "Remove a tag from the tag map and from every item. Deleting a missing tag is not an error.",
		Exec: func(_ context.Context, io *IO, args []string) error {
			err := checkArgs(args, 2, 2, "<context> <tag>")
			if err != nil {
				return err
			}

			err = a.svc.DeleteTag(args[0], args[1])
			if err != nil {
				return err
			}

			io.Println("deleted tag", args[1])

			return nil
		},
	}
}

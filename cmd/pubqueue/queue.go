package main

import (
	"fmt"
	"maps"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/eringen/pubqueue"
	"github.com/eringen/pubqueue/content"
	"github.com/eringen/pubqueue/queue"
)

func queueCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "queue",
		Short: "Inspect and work the creation queue",
	}
	cmd.AddCommand(
		queueAddCmd(),
		queueListCmd(),
		queueSetCmd(),
		queueSaveCmd(),
		queueSaveAllCmd(),
		queueRemoveCmd(),
		queueClearSavedCmd(),
		queueClearCmd(),
	)
	return cmd
}

// withQueue opens storage, runs fn and closes the app again.
func withQueue(cmd *cobra.Command, fn func(app *pubqueue.App) error) (err error) {
	app, err := newApp()
	if err != nil {
		return err
	}
	if err := app.Open(cmd.Context()); err != nil {
		return err
	}
	defer func() {
		if cerr := app.Close(); err == nil {
			err = cerr
		}
	}()
	return fn(app)
}

// parseAssignments turns key=value arguments into form fields. Keys of the
// form seo.<name> are merged into the item's seo object.
func parseAssignments(it queue.Item, args []string) (map[string]any, error) {
	fields := map[string]any{}
	var seo map[string]any
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("expected key=value, got %q", arg)
		}
		if name, ok := strings.CutPrefix(key, "seo."); ok {
			if seo == nil {
				seo = map[string]any{}
				if prev, ok := it.FormData["seo"].(map[string]any); ok {
					maps.Copy(seo, prev)
				}
			}
			seo[name] = value
			continue
		}
		def := content.Lookup(it.Type)
		f, ok := def.Field(key)
		if !ok {
			return nil, fmt.Errorf("%s has no field %q", def.Singular, key)
		}
		if f.Kind == content.KindBool {
			fields[key] = value == "true" || value == "1" || value == "yes"
			continue
		}
		fields[key] = value
	}
	if seo != nil {
		fields["seo"] = seo
	}
	return fields, nil
}

func queueAddCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add <type> [key=value...]",
		Short: "Stage a new item of the given content type",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := content.Parse(args[0])
			if err != nil {
				return err
			}
			return withQueue(cmd, func(app *pubqueue.App) error {
				id := app.Queue.AddItem(t)
				it, _ := app.Queue.Item(id)
				fields, err := parseAssignments(it, args[1:])
				if err != nil {
					app.Queue.RemoveItem(id)
					return err
				}
				if err := app.Queue.UpdateFormData(id, fields); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), id)
				return nil
			})
		},
	}
}

func queueListCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List queued items",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withQueue(cmd, func(app *pubqueue.App) error {
				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "ID\tTYPE\tSTATUS\tTITLE\tERROR")
				for _, it := range app.Queue.Items() {
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", it.ID, it.Type, it.Status, queue.Title(it), it.Error)
				}
				c := app.Queue.Counts()
				fmt.Fprintf(w, "\n%d items: %d draft, %d saving, %d saved, %d failed\n", c.Total, c.Draft, c.Saving, c.Saved, c.Error)
				return w.Flush()
			})
		},
	}
}

func queueSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <id> key=value...",
		Short: "Update form fields of a queued item",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withQueue(cmd, func(app *pubqueue.App) error {
				it, ok := app.Queue.Item(args[0])
				if !ok {
					return queue.ErrItemNotFound
				}
				fields, err := parseAssignments(it, args[1:])
				if err != nil {
					return err
				}
				return app.Queue.UpdateFormData(it.ID, fields)
			})
		},
	}
}

func queueSaveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "save <id>",
		Short: "Create the entry for one queued item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withQueue(cmd, func(app *pubqueue.App) error {
				if err := app.Submit.SaveItem(cmd.Context(), args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "saved %s\n", args[0])
				return nil
			})
		},
	}
}

func queueSaveAllCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "save-all",
		Short: "Create entries for every draft or failed item",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withQueue(cmd, func(app *pubqueue.App) error {
				report := app.Submit.SaveAll(cmd.Context())
				fmt.Fprintf(cmd.OutOrStdout(), "Save all: %s\n", report)
				for _, id := range report.Failed {
					it, _ := app.Queue.Item(id)
					fmt.Fprintf(cmd.OutOrStdout(), "  %s: %s\n", id, it.Error)
				}
				if report.Partial() {
					return fmt.Errorf("%d of %d items failed", len(report.Failed), report.Attempted)
				}
				return nil
			})
		},
	}
}

func queueRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "remove <id>...",
		Aliases: []string{"rm"},
		Short:   "Remove items from the queue",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withQueue(cmd, func(app *pubqueue.App) error {
				for _, id := range args {
					app.Queue.RemoveItem(id)
				}
				return nil
			})
		},
	}
}

func queueClearSavedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear-saved",
		Short: "Drop items that were created successfully",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withQueue(cmd, func(app *pubqueue.App) error {
				n := app.Queue.ClearSaved()
				fmt.Fprintf(cmd.OutOrStdout(), "removed %d saved items\n", n)
				return nil
			})
		},
	}
}

func queueClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Empty the queue",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withQueue(cmd, func(app *pubqueue.App) error {
				app.Queue.ClearAll()
				return nil
			})
		},
	}
}

package ytdash

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// ImportCommentsCmd: loads CSV or JSON exports into the store
var ImportCommentsCmd = &cobra.Command{
	Use:   "import-comments <file>...",
	Short: "Import comments from CSV or JSON files",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		store, err := openConfiguredStore(ctx)
		if err != nil {
			return err
		}
		defer func() {
			if err := store.Close(); err != nil {
				Logger.Error("failed to close database", "error", err)
			}
		}()

		notifier := NewNotifier(Logger, Config.Broker)
		defer notifier.Close()

		total := 0
		for _, path := range args {
			table, err := LoadTable(path)
			if err != nil {
				return err
			}
			n, err := importTable(ctx, store, notifier, table)
			if err != nil {
				return fmt.Errorf("failed to import %s: %w", path, err)
			}
			Logger.Info("imported comments", "file", path, "comments", n)
			total += n
		}
		Logger.Info("import complete", "files", len(args), "comments", total)
		return nil
	},
}

// importTable stores every row of table and announces the update.
func importTable(ctx context.Context, store *Store, notifier Notifier, table *Table) (int, error) {
	comments, err := table.Comments()
	if err != nil {
		return 0, err
	}
	n, err := store.UpsertComments(ctx, comments)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		notifier.NotifyCommentsUpdated(ctx, n)
	}
	return n, nil
}

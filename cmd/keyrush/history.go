package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/verte-zerg/keyrush/internal/config"
	"github.com/verte-zerg/keyrush/internal/stats"
	"github.com/verte-zerg/keyrush/internal/store"
)

const defaultHistoryLast = 20

var (
	historyCategory string
	historyMode     string
	historyLast     int
	historyYes      bool
)

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Manage saved results",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List recent results",
		Args:  cobra.NoArgs,
		RunE:  runHistoryListCmd,
	}
	listCmd.Flags().StringVar(&historyCategory, "category", "", "category filter: time, words or quote")
	listCmd.Flags().StringVar(&historyMode, "mode", "", "mode filter, e.g. 30 or 15s")
	listCmd.Flags().IntVar(&historyLast, "last", defaultHistoryLast, "number of results (0 for all)")

	deleteCmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete one result",
		Args:  cobra.ExactArgs(1),
		RunE:  runHistoryDeleteCmd,
	}

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every result",
		Args:  cobra.NoArgs,
		RunE:  runHistoryClearCmd,
	}
	clearCmd.Flags().BoolVarP(&historyYes, "yes", "y", false, "do not ask for confirmation")

	exportCmd := &cobra.Command{
		Use:   "export [file]",
		Short: "Write all results as JSON (stdout by default)",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runHistoryExportCmd,
	}

	importCmd := &cobra.Command{
		Use:   "import <file|->",
		Short: "Add results from a JSON export, skipping known ids",
		Args:  cobra.ExactArgs(1),
		RunE:  runHistoryImportCmd,
	}

	cmd.AddCommand(listCmd, deleteCmd, clearCmd, exportCmd, importCmd)
	return cmd
}

// withStore opens the default database for the duration of fn.
func withStore(fn func(st *store.Store) error) error {
	if _, err := loadSettings(); err != nil {
		return err
	}
	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()
	return fn(st)
}

func runHistoryListCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := buildStatsConfig(historyCategory, historyMode, "", historyLast)
	if err != nil {
		return err
	}
	return withStore(func(st *store.Store) error {
		results, err := st.List(cmd.Context(), cfg)
		if err != nil {
			return fmt.Errorf("failed to list results: %w", err)
		}
		if len(results) == 0 {
			logErrf("No results found.\n")
			return nil
		}
		return stats.RenderHistoryTable(cmd.OutOrStdout(), results, time.Now())
	})
}

func runHistoryDeleteCmd(cmd *cobra.Command, args []string) error {
	id := strings.TrimSpace(args[0])
	return withStore(func(st *store.Store) error {
		if err := st.Delete(cmd.Context(), id); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fmt.Errorf("result %q not found", id)
			}
			return fmt.Errorf("failed to delete result: %w", err)
		}
		logErrf("Deleted %s\n", id)
		return nil
	})
}

func runHistoryClearCmd(cmd *cobra.Command, _ []string) error {
	return withStore(func(st *store.Store) error {
		if !historyYes {
			ok, err := confirm(cmd.InOrStdin(), "Delete every saved result? [y/N] ")
			if err != nil {
				return err
			}
			if !ok {
				logErrf("Aborted.\n")
				return nil
			}
		}
		n, err := st.Clear(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to clear results: %w", err)
		}
		logErrf("Deleted %d results\n", n)
		return nil
	})
}

func runHistoryExportCmd(cmd *cobra.Command, args []string) error {
	return withStore(func(st *store.Store) error {
		out := cmd.OutOrStdout()
		if len(args) == 1 && args[0] != "-" {
			f, err := os.Create(args[0])
			if err != nil {
				return fmt.Errorf("failed to create export file: %w", err)
			}
			defer func() {
				if cerr := f.Close(); cerr != nil {
					logErrf("failed to close export file: %v\n", cerr)
				}
			}()
			out = f
		}
		n, err := st.Export(cmd.Context(), out)
		if err != nil {
			return fmt.Errorf("failed to export results: %w", err)
		}
		logErrf("Exported %d results\n", n)
		return nil
	})
}

func runHistoryImportCmd(cmd *cobra.Command, args []string) error {
	return withStore(func(st *store.Store) error {
		in := cmd.InOrStdin()
		if args[0] != "-" {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("failed to open import file: %w", err)
			}
			defer func() {
				if cerr := f.Close(); cerr != nil {
					logErrf("failed to close import file: %v\n", cerr)
				}
			}()
			in = f
		}
		n, err := st.Import(cmd.Context(), in)
		if err != nil {
			return fmt.Errorf("failed to import results: %w", err)
		}
		logErrf("Imported %d results\n", n)
		return nil
	})
}

func confirm(r io.Reader, prompt string) (bool, error) {
	logErrf("%s", prompt)
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, fmt.Errorf("failed to read answer: %w", err)
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes", nil
}

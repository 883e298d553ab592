package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	jsoniter "github.com/json-iterator/go"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"library-lending/config"
	"library-lending/library"
	logger "library-lending/loggers"
	"library-lending/server"
)

type options struct {
	cfg config.Config
	log *logrus.Logger
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{cfg: config.Load()}

	root := &cobra.Command{
		Use:           "library",
		Short:         "Library lending service",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			opts.log = logger.Init(opts.cfg.LogLevel)
		},
	}
	flags := root.PersistentFlags()
	flags.StringVar(&opts.cfg.Driver, "driver", opts.cfg.Driver, "database driver: sqlite3, postgres, pgx or mysql")
	flags.StringVar(&opts.cfg.DSN, "dsn", opts.cfg.DSN, "database DSN (a file path for sqlite3)")
	flags.StringVar(&opts.cfg.LogLevel, "log-level", opts.cfg.LogLevel, "log level")

	root.AddCommand(newServeCmd(opts), newMigrateCmd(opts), newBooksCmd(opts))
	return root
}

// openManager opens the configured store, creating the schema if needed.
func openManager(ctx context.Context, opts *options) (*library.LibraryManager, error) {
	dsn := opts.cfg.DSN
	if opts.cfg.Driver == library.DriverSQLite {
		var err error
		if dsn, err = library.SQLiteDSN(dsn); err != nil {
			return nil, err
		}
	}
	mgr, err := library.NewLibraryManager(ctx, opts.cfg.Driver, dsn, logger.NewGormLogger(opts.log))
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return mgr, nil
}

func newServeCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			mgr, err := openManager(ctx, opts)
			if err != nil {
				return err
			}
			defer mgr.Close()

			app := server.New(mgr, opts.log, server.Options{})
			return server.Run(ctx, app, "0.0.0.0:"+opts.cfg.Port, opts.log)
		},
	}
	cmd.Flags().StringVar(&opts.cfg.Port, "port", opts.cfg.Port, "listening port")
	return cmd
}

func newMigrateCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the books, borrowed_books and products tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := openManager(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer mgr.Close()
			opts.log.WithField("driver", opts.cfg.Driver).Info("schema up to date")
			return nil
		},
	}
}

func newBooksCmd(opts *options) *cobra.Command {
	books := &cobra.Command{
		Use:   "books",
		Short: "Inspect the catalog",
	}
	books.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List books with their availability",
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := openManager(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer mgr.Close()

			list, err := mgr.ListBooks(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if f, ok := out.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
				printBookTable(out, list)
				return nil
			}
			return jsoniter.NewEncoder(out).Encode(list)
		},
	})
	return books
}

func printBookTable(w io.Writer, books []*library.Book) {
	if len(books) == 0 {
		fmt.Fprintln(w, "No books in library.")
		return
	}

	fmt.Fprintf(w, "%-5s %-30s %-25s %-15s %-9s\n", "ID", "Title", "Author", "Category", "Available")
	fmt.Fprintln(w, strings.Repeat("-", 88))
	for _, b := range books {
		category := ""
		if b.Category != nil {
			category = *b.Category
		}
		fmt.Fprintf(w, "%-5d %-30s %-25s %-15s %d/%d\n",
			b.ID,
			library.TruncateString(b.Title, 30),
			library.TruncateString(b.Author, 25),
			library.TruncateString(category, 15),
			b.AvailableCopies, b.TotalCopies)
	}
}

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"

	"library-lending/config"
	"library-lending/library"
)

type importOptions struct {
	file   string
	driver string
	dsn    string
	reset  bool
}

func main() {
	if err := newImportCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newImportCmd() *cobra.Command {
	cfg := config.Load()
	opts := &importOptions{driver: cfg.Driver, dsn: cfg.DSN}

	cmd := &cobra.Command{
		Use:          "import_books",
		Short:        "Bulk import a JSON catalog of books",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd.Context(), cmd.OutOrStdout(), opts)
		},
	}
	cmd.Flags().StringVarP(&opts.file, "file", "f", "catalog.json", "JSON array of books")
	cmd.Flags().StringVar(&opts.driver, "driver", opts.driver, "database driver")
	cmd.Flags().StringVar(&opts.dsn, "dsn", opts.dsn, "database DSN (a file path for sqlite3)")
	cmd.Flags().BoolVar(&opts.reset, "reset", false, "remove an existing sqlite database first")
	return cmd
}

func runImport(ctx context.Context, out io.Writer, opts *importOptions) error {
	dsn := opts.dsn
	if opts.driver == library.DriverSQLite {
		if opts.reset {
			fmt.Fprintln(out, "Cleaning up existing database files...")
			for _, file := range []string{dsn, dsn + "-shm", dsn + "-wal"} {
				if err := os.Remove(file); err != nil && !errors.Is(err, os.ErrNotExist) {
					fmt.Fprintf(out, "Warning: Could not remove %s: %v\n", file, err)
				}
			}
		}
		var err error
		if dsn, err = library.SQLiteDSN(dsn); err != nil {
			return err
		}
	}

	catalog, err := readCatalog(opts.file)
	if err != nil {
		return err
	}

	manager, err := library.NewLibraryManager(ctx, opts.driver, dsn, nil)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer manager.Close()

	fmt.Fprintf(out, "Importing %d books from %s...\n", len(catalog), opts.file)

	successCount := 0
	errorCount := 0
	for i, book := range catalog {
		fmt.Fprintf(out, "Importing: %s by %s... ", book.Title, book.Author)
		id, err := manager.AddBook(ctx, book)
		if err != nil {
			fmt.Fprintf(out, "ERROR (entry %d) - %v\n", i, err)
			errorCount++
			continue
		}
		fmt.Fprintf(out, "SUCCESS (ID: %d)\n", id)
		successCount++
	}

	fmt.Fprintf(out, "\nImport complete!\n")
	fmt.Fprintf(out, "Successfully imported: %d books\n", successCount)
	fmt.Fprintf(out, "Errors: %d\n", errorCount)

	if successCount > 0 {
		books, err := manager.ListBooks(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, "\nCatalog:")
		fmt.Fprintf(out, "%-3s %-50s %-30s %s\n", "ID", "Title", "Author", "Copies")
		fmt.Fprintln(out, strings.Repeat("-", 92))
		for _, b := range books {
			fmt.Fprintf(out, "%-3d %-50s %-30s %d\n", b.ID, library.TruncateString(b.Title, 50), library.TruncateString(b.Author, 30), b.TotalCopies)
		}
	}
	if errorCount > 0 {
		return fmt.Errorf("%d of %d books failed to import", errorCount, len(catalog))
	}
	return nil
}

func readCatalog(path string) ([]library.NewBook, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	defer f.Close()

	var catalog []library.NewBook
	if err := jsoniter.NewDecoder(f).Decode(&catalog); err != nil {
		return nil, fmt.Errorf("decode catalog %s: %w", path, err)
	}
	return catalog, nil
}

package main

import (
	"fmt"
	"os"
	"strings"

	"air-library/config"
	"air-library/library"
	"air-library/output"

	"github.com/spf13/cobra"
)

var (
	dbPath string
	dryRun bool
)

var rootCmd = &cobra.Command{
	Use:   "import_catalog <catalog.json>...",
	Short: "Bulk-add books to an Air library from JSON files",
	Long: `Each file holds a JSON array of books in the stored format:

  [{"title": "Neon Rain", "author": "Cyber Dreams", "genres": ["Sci-Fi"],
    "pages": 210, "pdfUrl": "/pdf/neon.pdf"}]

Ids and ratings in the files are ignored; every entry becomes a new book.`,
	Args:         cobra.MinimumNArgs(1),
	SilenceUsage: true,
	RunE:         run,
}

func main() {
	rootCmd.Flags().StringVar(&dbPath, "db", "", "SQLite database file (default $AIR_DB_PATH or air.db)")
	rootCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Check the files without saving anything")
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, files []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("db") {
		cfg.DBPath = dbPath
	}
	log, err := config.NewLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer log.Sync()

	manager, err := library.NewLibraryManager(library.Options{
		DBPath:   cfg.DBPath,
		Headless: dryRun || cfg.Headless,
		Logger:   log,
	})
	if err != nil {
		return fmt.Errorf("error opening database: %w", err)
	}
	defer manager.Close()

	if dryRun {
		output.Info("Dry run: nothing will be saved")
	}

	successCount := 0
	errorCount := 0
	var imported []library.Book

	for _, path := range files {
		fmt.Printf("Importing %s... ", path)
		books, err := manager.ImportBooksFromFile(path)
		imported = append(imported, books...)
		successCount += len(books)
		if err != nil {
			fmt.Printf("ERROR after %d book(s) - %v\n", len(books), err)
			errorCount++
			continue
		}
		fmt.Printf("SUCCESS (%d books)\n", len(books))
	}

	fmt.Printf("\nImport complete!\n")
	output.Success("Successfully imported: %d books", successCount)
	if errorCount > 0 {
		output.Error("Files with errors: %d", errorCount)
	}

	if len(imported) > 0 {
		fmt.Println("\nImported books:")
		fmt.Printf("%-14s %-50s %-30s\n", "ID", "Title", "Author")
		fmt.Println(strings.Repeat("-", 96))
		for _, book := range imported {
			fmt.Printf("%-14d %-50s %-30s\n", book.ID, library.TruncateString(book.Title, 50), library.TruncateString(book.Author, 30))
		}
	}
	if errorCount > 0 {
		return fmt.Errorf("%d of %d file(s) failed", errorCount, len(files))
	}
	return nil
}
